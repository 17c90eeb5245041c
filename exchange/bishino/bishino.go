// Package bishino implements the Bishino exchange. Bishino runs the binance
// spot API on its own hosts with a smaller set of endpoints.
package bishino

import (
	"context"

	"github.com/milkywaybrain/goccxt/exchange"
	"github.com/milkywaybrain/goccxt/exchange/binance"
)

const (
	// RESTBaseURL is the bishino exchange base REST url.
	RESTBaseURL = "https://api.bishino.com/api/v3/"
)

// Bishino is the Bishino spot exchange.
type Bishino struct {
	*binance.Binance
}

// Describe returns the bishino exchange description.
func Describe() *exchange.Description {
	desc := binance.Describe()
	desc.ID = "bishino"
	desc.Name = "Bishino"
	desc.Countries = []string{"MT"}
	desc.RateLimit = 500
	desc.URLs = map[string]string{
		"public":  RESTBaseURL,
		"private": RESTBaseURL,
	}
	desc.Timeframes = nil
	desc.Fees = exchange.Fees{Taker: 0.002, Maker: 0.002, Percentage: true}
	desc.Has = map[exchange.Capability]bool{
		exchange.CapFetchMarkets:      true,
		exchange.CapFetchTicker:       true,
		exchange.CapFetchOrderBook:    true,
		exchange.CapFetchTrades:       true,
		exchange.CapFetchBalance:      true,
		exchange.CapFetchOrders:       true,
		exchange.CapFetchOpenOrders:   true,
		exchange.CapFetchClosedOrders: true,
		exchange.CapCreateOrder:       true,
		exchange.CapCancelOrder:       true,
	}
	return desc
}

// New creates a bishino exchange client.
func New(cfg exchange.Config) (*Bishino, error) {
	b, err := binance.NewWithDescription(Describe(), cfg)
	if err != nil {
		return nil, err
	}
	x := &Bishino{Binance: b}
	x.Bind(x)
	return x, nil
}

// The binance endpoints below are not served by bishino. They fall back to
// the generic behaviour, which is either derived from supported operations
// or fails with NotSupported.

// FetchCurrencies uses the generic behaviour.
func (x *Bishino) FetchCurrencies(ctx context.Context, params exchange.Params) (map[string]*exchange.Currency, error) {
	return x.Base.FetchCurrencies(ctx, params)
}

// FetchTickers fetches every requested ticker concurrently.
func (x *Bishino) FetchTickers(ctx context.Context, symbols []string, params exchange.Params) (exchange.Tickers, error) {
	return x.Base.FetchTickers(ctx, symbols, params)
}

// FetchOHLCV uses the generic behaviour.
func (x *Bishino) FetchOHLCV(ctx context.Context, symbol, timeframe string, since int64, limit int, params exchange.Params) ([]exchange.OHLCV, error) {
	return x.Base.FetchOHLCV(ctx, symbol, timeframe, since, limit, params)
}

// FetchOrder is not served, FetchOrderStatus answers from the order cache instead.
func (x *Bishino) FetchOrder(ctx context.Context, id, symbol string, params exchange.Params) (*exchange.Order, error) {
	return x.Base.FetchOrder(ctx, id, symbol, params)
}

// CreateDepositAddress uses the generic behaviour.
func (x *Bishino) CreateDepositAddress(ctx context.Context, currency string, params exchange.Params) (*exchange.DepositAddress, error) {
	return x.Base.CreateDepositAddress(ctx, currency, params)
}

// FetchDepositAddress uses the generic behaviour.
func (x *Bishino) FetchDepositAddress(ctx context.Context, currency string, params exchange.Params) (*exchange.DepositAddress, error) {
	return x.Base.FetchDepositAddress(ctx, currency, params)
}

// Withdraw uses the generic behaviour.
func (x *Bishino) Withdraw(ctx context.Context, currency string, amount float64, address, tag string, params exchange.Params) (*exchange.WithdrawalResponse, error) {
	return x.Base.Withdraw(ctx, currency, amount, address, tag, params)
}

// FetchDeposits uses the generic behaviour.
func (x *Bishino) FetchDeposits(ctx context.Context, currency string, since int64, limit int, params exchange.Params) ([]*exchange.Transaction, error) {
	return x.Base.FetchDeposits(ctx, currency, since, limit, params)
}

// FetchWithdrawals uses the generic behaviour.
func (x *Bishino) FetchWithdrawals(ctx context.Context, currency string, since int64, limit int, params exchange.Params) ([]*exchange.Transaction, error) {
	return x.Base.FetchWithdrawals(ctx, currency, since, limit, params)
}

// FetchTransactions uses the generic behaviour.
func (x *Bishino) FetchTransactions(ctx context.Context, currency string, since int64, limit int, params exchange.Params) ([]*exchange.Transaction, error) {
	return x.Base.FetchTransactions(ctx, currency, since, limit, params)
}

// FetchMyTrades is not supported.
func (x *Bishino) FetchMyTrades(ctx context.Context, symbol string, since int64, limit int, params exchange.Params) ([]*exchange.Trade, error) {
	return nil, exchange.NewError(exchange.NotSupported, "bishino fetchMyTrades() is not supported yet")
}

// StreamTickers is not supported.
func (x *Bishino) StreamTickers(ctx context.Context, symbols []string, out chan<- *exchange.Ticker) error {
	return exchange.NewError(exchange.NotSupported, "bishino streamTickers() is not supported yet")
}

// StreamTrades is not supported.
func (x *Bishino) StreamTrades(ctx context.Context, symbols []string, out chan<- *exchange.Trade) error {
	return exchange.NewError(exchange.NotSupported, "bishino streamTrades() is not supported yet")
}
