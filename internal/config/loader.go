package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Load reads the config file, expands ${VAR} environment variables,
// applies default values and validates the result.
// Files ending with .yaml or .yml are parsed as YAML, everything else as JSON.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "not able to read config file: %v", path)
	}
	expanded := []byte(os.ExpandEnv(string(data)))

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(expanded, &cfg)
	default:
		err = jsoniter.Unmarshal(expanded, &cfg)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "not able to parse config file: %v", path)
	}

	cfg.applyDefaults()
	if err = cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "error"
	}
	if c.Connection.REST.ReqTimeoutMs == 0 {
		c.Connection.REST.ReqTimeoutMs = 10000
	}
	if c.Connection.Terminal.TickerCommitBuf == 0 {
		c.Connection.Terminal.TickerCommitBuf = 1
	}
	if c.Connection.Terminal.TradeCommitBuf == 0 {
		c.Connection.Terminal.TradeCommitBuf = 1
	}
	for i := range c.Exchanges {
		for j := range c.Exchanges[i].Markets {
			if c.Exchanges[i].Markets[j].CommitName == "" {
				c.Exchanges[i].Markets[j].CommitName = c.Exchanges[i].Markets[j].ID
			}
		}
	}
}

// Validate checks struct constraints and the cross field rules.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(err, "invalid config")
	}
	for _, exch := range c.Exchanges {
		for _, market := range exch.Markets {
			for _, info := range market.Info {
				if info.Connector == "rest" && info.RESTPingIntSec < 1 {
					return errors.New("rest_ping_interval_sec should be greater than zero")
				}
			}
		}
	}
	return nil
}

// UsesStorage reports whether any market channel commits to the given storage.
func (c *Config) UsesStorage(name string) bool {
	for _, exch := range c.Exchanges {
		for _, market := range exch.Markets {
			for _, info := range market.Info {
				for _, str := range info.Storages {
					if str == name {
						return true
					}
				}
			}
		}
	}
	return false
}
