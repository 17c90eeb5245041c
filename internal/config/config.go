package config

// Config contains config values for the recorder app.
// Struct values are loaded from user defined JSON or YAML config file.
type Config struct {
	Exchanges  []Exchange `json:"exchanges" yaml:"exchanges" validate:"required,min=1,dive"`
	Connection Connection `json:"connection" yaml:"connection"`
	Log        Log        `json:"log" yaml:"log"`
	Metrics    Metrics    `json:"metrics" yaml:"metrics"`
}

// Exchange contains config values for different exchanges.
type Exchange struct {
	Name        string      `json:"name" yaml:"name" validate:"required"`
	Credentials Credentials `json:"credentials" yaml:"credentials"`
	Options     Options     `json:"options" yaml:"options"`
	Markets     []Market    `json:"markets" yaml:"markets" validate:"required,min=1,dive"`
	Retry       Retry       `json:"retry" yaml:"retry"`
}

// Credentials contains api credentials of an exchange.
// Values are usually given as ${VAR} and expanded from the environment.
type Credentials struct {
	APIKey   string `json:"api_key" yaml:"api_key"`
	Secret   string `json:"secret" yaml:"secret"`
	Password string `json:"password" yaml:"password"`
	UID      string `json:"uid" yaml:"uid"`
}

// Options contains exchange client options.
type Options struct {
	EnableRateLimit bool              `json:"enable_rate_limit" yaml:"enable_rate_limit"`
	RateLimitMs     int               `json:"rate_limit_ms" yaml:"rate_limit_ms" validate:"gte=0"`
	Verbose         bool              `json:"verbose" yaml:"verbose"`
	Proxy           string            `json:"proxy" yaml:"proxy" validate:"omitempty,url"`
	URLs            map[string]string `json:"urls" yaml:"urls"`
}

// Market contains config values for different markets.
// ID is the unified market symbol, like BTC/USDT.
type Market struct {
	ID         string `json:"id" yaml:"id" validate:"required"`
	Info       []Info `json:"info" yaml:"info" validate:"required,min=1,dive"`
	CommitName string `json:"commit_name" yaml:"commit_name"`
}

// Info contains config values for different market channels.
type Info struct {
	Channel          string   `json:"channel" yaml:"channel" validate:"oneof=ticker trade"`
	Connector        string   `json:"connector" yaml:"connector" validate:"oneof=websocket rest"`
	WsConsiderIntSec int      `json:"websocket_consider_interval_sec" yaml:"websocket_consider_interval_sec" validate:"gte=0"`
	RESTPingIntSec   int      `json:"rest_ping_interval_sec" yaml:"rest_ping_interval_sec" validate:"gte=0"`
	Storages         []string `json:"storages" yaml:"storages" validate:"required,min=1,dive,oneof=terminal mysql elastic_search postgres"`
}

// Retry contains config values for retry process.
type Retry struct {
	Number   int `json:"number" yaml:"number" validate:"gte=0"`
	GapSec   int `json:"gap_sec" yaml:"gap_sec" validate:"gte=0"`
	ResetSec int `json:"reset_sec" yaml:"reset_sec" validate:"gte=0"`
}

// Connection contains config values for different API and storage connections.
type Connection struct {
	WS       WS       `json:"websocket" yaml:"websocket"`
	REST     REST     `json:"rest" yaml:"rest"`
	Terminal Terminal `json:"terminal" yaml:"terminal"`
	MySQL    MySQL    `json:"mysql" yaml:"mysql"`
	ES       ES       `json:"elastic_search" yaml:"elastic_search"`
	Postgres Postgres `json:"postgres" yaml:"postgres"`
}

// WS contains config values for websocket connection.
type WS struct {
	ConnTimeoutSec int `json:"conn_timeout_sec" yaml:"conn_timeout_sec"`
	ReadTimeoutSec int `json:"read_timeout_sec" yaml:"read_timeout_sec"`
}

// REST contains config values for REST API connection.
type REST struct {
	ReqTimeoutMs        int `json:"request_timeout_ms" yaml:"request_timeout_ms"`
	MaxIdleConns        int `json:"max_idle_conns" yaml:"max_idle_conns"`
	MaxIdleConnsPerHost int `json:"max_idle_conns_per_host" yaml:"max_idle_conns_per_host"`
}

// Terminal contains config values for terminal display.
type Terminal struct {
	TickerCommitBuf int `json:"ticker_commit_buffer" yaml:"ticker_commit_buffer"`
	TradeCommitBuf  int `json:"trade_commit_buffer" yaml:"trade_commit_buffer"`
}

// MySQL contains config values for mysql.
type MySQL struct {
	User               string `json:"user" yaml:"user"`
	Password           string `json:"password" yaml:"password"`
	URL                string `json:"URL" yaml:"url"`
	Schema             string `json:"schema" yaml:"schema"`
	ReqTimeoutSec      int    `json:"request_timeout_sec" yaml:"request_timeout_sec"`
	ConnMaxLifetimeSec int    `json:"conn_max_lifetime_sec" yaml:"conn_max_lifetime_sec"`
	MaxOpenConns       int    `json:"max_open_conns" yaml:"max_open_conns"`
	MaxIdleConns       int    `json:"max_idle_conns" yaml:"max_idle_conns"`
	TickerCommitBuf    int    `json:"ticker_commit_buffer" yaml:"ticker_commit_buffer"`
	TradeCommitBuf     int    `json:"trade_commit_buffer" yaml:"trade_commit_buffer"`
}

// ES contains config values for elastic search.
type ES struct {
	Addresses           []string `json:"addresses" yaml:"addresses"`
	Username            string   `json:"username" yaml:"username"`
	Password            string   `json:"password" yaml:"password"`
	IndexName           string   `json:"index_name" yaml:"index_name"`
	ReqTimeoutSec       int      `json:"request_timeout_sec" yaml:"request_timeout_sec"`
	MaxIdleConns        int      `json:"max_idle_conns" yaml:"max_idle_conns"`
	MaxIdleConnsPerHost int      `json:"max_idle_conns_per_host" yaml:"max_idle_conns_per_host"`
	TickerCommitBuf     int      `json:"ticker_commit_buffer" yaml:"ticker_commit_buffer"`
	TradeCommitBuf      int      `json:"trade_commit_buffer" yaml:"trade_commit_buffer"`
}

// Postgres contains config values for postgres.
type Postgres struct {
	URL             string `json:"url" yaml:"url"`
	MaxConns        int    `json:"max_conns" yaml:"max_conns"`
	ReqTimeoutSec   int    `json:"request_timeout_sec" yaml:"request_timeout_sec"`
	TickerCommitBuf int    `json:"ticker_commit_buffer" yaml:"ticker_commit_buffer"`
	TradeCommitBuf  int    `json:"trade_commit_buffer" yaml:"trade_commit_buffer"`
}

// Log contains config values for logging.
type Log struct {
	Level    string `json:"level" yaml:"level" validate:"omitempty,oneof=error info debug"`
	FilePath string `json:"file_path" yaml:"file_path" validate:"required"`
}

// Metrics contains config values for the prometheus endpoint.
// Endpoint is disabled if the address is empty.
type Metrics struct {
	Address string `json:"address" yaml:"address"`
}
