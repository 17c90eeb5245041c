package exchange

import (
	"context"
	"net/http"
)

// Capability names an optional exchange operation.
type Capability string

// Capabilities an exchange may declare in its description.
const (
	CapFetchMarkets         Capability = "fetchMarkets"
	CapFetchCurrencies      Capability = "fetchCurrencies"
	CapFetchTicker          Capability = "fetchTicker"
	CapFetchTickers         Capability = "fetchTickers"
	CapFetchOrderBook       Capability = "fetchOrderBook"
	CapFetchTrades          Capability = "fetchTrades"
	CapFetchOHLCV           Capability = "fetchOHLCV"
	CapFetchBalance         Capability = "fetchBalance"
	CapFetchOrder           Capability = "fetchOrder"
	CapFetchOrders          Capability = "fetchOrders"
	CapFetchOpenOrders      Capability = "fetchOpenOrders"
	CapFetchClosedOrders    Capability = "fetchClosedOrders"
	CapCreateOrder          Capability = "createOrder"
	CapCancelOrder          Capability = "cancelOrder"
	CapCreateDepositAddress Capability = "createDepositAddress"
	CapFetchDepositAddress  Capability = "fetchDepositAddress"
	CapWithdraw             Capability = "withdraw"
	CapFetchDeposits        Capability = "fetchDeposits"
	CapFetchWithdrawals     Capability = "fetchWithdrawals"
	CapFetchTransactions    Capability = "fetchTransactions"
	CapStreamTickers        Capability = "streamTickers"
	CapStreamTrades         Capability = "streamTrades"
)

// Fees describes the default trading fees of an exchange.
type Fees struct {
	Taker      float64 `json:"taker"`
	Maker      float64 `json:"maker"`
	Percentage bool    `json:"percentage"`
}

// Description is the static metadata of an exchange integration.
type Description struct {
	ID        string
	Name      string
	Countries []string
	Version   string

	// RateLimit is the minimum delay between two requests in milliseconds.
	RateLimit int

	// URLs maps an API name to its base url.
	URLs map[string]string

	// Timeframes maps unified OHLCV timeframes to exchange ones.
	Timeframes map[string]string

	Fees Fees

	RequiredCredentials struct {
		APIKey   bool
		Secret   bool
		Password bool
		UID      bool
	}

	Has map[Capability]bool

	// HandleErrors maps an exchange error reply to an exchange error.
	// It returns nil when the reply is not an error.
	HandleErrors func(status int, header http.Header, body []byte) error
}

// MarketLoader resolves and caches market metadata.
type MarketLoader interface {
	LoadMarkets(ctx context.Context, reload bool) (map[string]*Market, error)
	FetchMarkets(ctx context.Context, params Params) ([]*Market, error)
	FetchCurrencies(ctx context.Context, params Params) (map[string]*Currency, error)
	SetMarkets(markets []*Market, currencies map[string]*Currency) map[string]*Market
	Market(symbol string) (*Market, error)
	MarketID(symbol string) (string, error)
	MarketIDs(symbols []string) ([]string, error)
	Symbol(symbolOrID string) (string, error)
	Markets() map[string]*Market
	MarketsByID() map[string]*Market
	Currencies() map[string]*Currency
	IDs() []string
	Symbols() []string
}

// MarketDataFetcher reads public market state.
type MarketDataFetcher interface {
	FetchTicker(ctx context.Context, symbol string, params Params) (*Ticker, error)
	FetchTickers(ctx context.Context, symbols []string, params Params) (Tickers, error)
	FetchOrderBook(ctx context.Context, symbol string, limit int, params Params) (*OrderBook, error)
	FetchTrades(ctx context.Context, symbol string, since int64, limit int, params Params) ([]*Trade, error)
	FetchOHLCV(ctx context.Context, symbol, timeframe string, since int64, limit int, params Params) ([]OHLCV, error)
}

// AccountFetcher reads private account state.
type AccountFetcher interface {
	FetchBalance(ctx context.Context, params Params) (*Balances, error)
	FetchTotalBalance(ctx context.Context, params Params) (PartialBalances, error)
	FetchUsedBalance(ctx context.Context, params Params) (PartialBalances, error)
	FetchFreeBalance(ctx context.Context, params Params) (PartialBalances, error)
	FetchOrder(ctx context.Context, id, symbol string, params Params) (*Order, error)
	FetchOrders(ctx context.Context, symbol string, since int64, limit int, params Params) ([]*Order, error)
	FetchOpenOrders(ctx context.Context, symbol string, since int64, limit int, params Params) ([]*Order, error)
	FetchClosedOrders(ctx context.Context, symbol string, since int64, limit int, params Params) ([]*Order, error)
}

// Trader mutates exchange side order state.
type Trader interface {
	CreateOrder(ctx context.Context, symbol string, typ OrderType, side Side, amount float64, price *float64, params Params) (*Order, error)
	CancelOrder(ctx context.Context, id, symbol string, params Params) (*Order, error)
	FetchOrderStatus(ctx context.Context, id, symbol string) (OrderStatus, error)
}

// Funder moves funds in and out of the exchange.
type Funder interface {
	CreateDepositAddress(ctx context.Context, currency string, params Params) (*DepositAddress, error)
	FetchDepositAddress(ctx context.Context, currency string, params Params) (*DepositAddress, error)
	Withdraw(ctx context.Context, currency string, amount float64, address, tag string, params Params) (*WithdrawalResponse, error)
	FetchDeposits(ctx context.Context, currency string, since int64, limit int, params Params) ([]*Transaction, error)
	FetchWithdrawals(ctx context.Context, currency string, since int64, limit int, params Params) ([]*Transaction, error)
	FetchTransactions(ctx context.Context, currency string, since int64, limit int, params Params) ([]*Transaction, error)
}

// Exchange is the capability surface every exchange integration implements.
// Operations not declared in Has fail with a NotSupported error.
type Exchange interface {
	ID() string
	Name() string
	Describe() *Description
	Has(c Capability) bool

	Nonce() int64
	Seconds() int64
	Milliseconds() int64
	Microseconds() int64

	MarketLoader
	MarketDataFetcher
	AccountFetcher
	Trader
	Funder
}

// Streamer is implemented by exchanges that push market data over websocket.
// Both methods block until the context is done or the connection fails.
type Streamer interface {
	StreamTickers(ctx context.Context, symbols []string, out chan<- *Ticker) error
	StreamTrades(ctx context.Context, symbols []string, out chan<- *Trade) error
}
