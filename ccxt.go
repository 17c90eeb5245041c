// Package ccxt is a unified client for cryptocurrency exchanges.
//
// Every supported exchange implements exchange.Exchange. Operations an
// exchange does not offer fail with an exchange.NotSupported error, see
// Exchange.Has for the declared capabilities.
package ccxt

import (
	"github.com/milkywaybrain/goccxt/exchange"
	"github.com/milkywaybrain/goccxt/exchange/binance"
	"github.com/milkywaybrain/goccxt/exchange/bishino"
)

// Version is the library version.
const Version = "1.2.0"

// Exchanges lists the ids of the supported exchanges.
var Exchanges = []string{
	"binance",
	"bishino",
}

// New creates the exchange with the given id.
func New(id string, cfg exchange.Config) (exchange.Exchange, error) {
	var (
		ex  exchange.Exchange
		err error
	)
	switch id {
	case "binance":
		ex, err = binance.New(cfg)
	case "bishino":
		ex, err = bishino.New(cfg)
	default:
		return nil, exchange.Errorf(exchange.NotSupported, "exchange %s is not supported", id)
	}
	if err != nil {
		return nil, err
	}
	return ex, nil
}
