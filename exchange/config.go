package exchange

import (
	"sync"

	"github.com/go-playground/validator/v10"
)

// DefaultTimeout is the request timeout in milliseconds when none is configured.
const DefaultTimeout = 10000

// Config holds the options honoured by every exchange integration.
type Config struct {
	APIKey   string `json:"apiKey" yaml:"apiKey"`
	Secret   string `json:"secret" yaml:"secret"`
	Password string `json:"password" yaml:"password"`
	UID      string `json:"uid" yaml:"uid"`

	// Timeout is the request deadline in milliseconds.
	Timeout int `json:"timeout" yaml:"timeout" validate:"gte=0"`

	// RateLimit is the minimum delay between two requests in milliseconds,
	// applied only when EnableRateLimit is set.
	RateLimit       int  `json:"rateLimit" yaml:"rateLimit" validate:"gte=0"`
	EnableRateLimit bool `json:"enableRateLimit" yaml:"enableRateLimit"`

	Verbose bool `json:"verbose" yaml:"verbose"`

	// Proxy is prepended to every request url.
	Proxy     string `json:"proxy" yaml:"proxy" validate:"omitempty,url"`
	UserAgent string `json:"userAgent" yaml:"userAgent"`

	SubstituteCommonCurrencyCodes *bool `json:"substituteCommonCurrencyCodes" yaml:"substituteCommonCurrencyCodes"`

	// URLs overrides the base url of an API by name.
	URLs map[string]string `json:"urls" yaml:"urls" validate:"dive,url"`

	// RecvWindow is the validity window of signed requests in milliseconds.
	RecvWindow int `json:"recvWindow" yaml:"recvWindow" validate:"gte=0"`

	MaxIdleConns        int `json:"maxIdleConns" yaml:"maxIdleConns" validate:"gte=0"`
	MaxIdleConnsPerHost int `json:"maxIdleConnsPerHost" yaml:"maxIdleConnsPerHost" validate:"gte=0"`

	// Websocket dial and read timeouts of streaming exchanges, zero disables them.
	WSConnTimeoutSec int `json:"wsConnTimeoutSec" yaml:"wsConnTimeoutSec" validate:"gte=0"`
	WSReadTimeoutSec int `json:"wsReadTimeoutSec" yaml:"wsReadTimeoutSec" validate:"gte=0"`
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Validator returns the shared struct validator.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
	})
	return validate
}

// Validate checks the config values.
func (c *Config) Validate() error {
	err := Validator().Struct(c)
	if err != nil {
		return Errorf(ExchangeError, "invalid exchange config: %v", err)
	}
	return nil
}

func (c *Config) substituteCodes() bool {
	return c.SubstituteCommonCurrencyCodes == nil || *c.SubstituteCommonCurrencyCodes
}
