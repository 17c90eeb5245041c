package storage

import (
	"context"
	"time"
)

// Storage names as used in the market channel config.
const (
	TerminalName      = "terminal"
	MySQLName         = "mysql"
	ElasticSearchName = "elastic_search"
	PostgresName      = "postgres"
)

// Ticker represents final form of market ticker info received from exchange
// ready to store.
type Ticker struct {
	Exchange      string
	MktID         string
	MktCommitName string
	Price         float64
	Timestamp     time.Time
}

// Trade represents final form of market trade info received from exchange
// ready to store.
type Trade struct {
	Exchange      string
	MktID         string
	MktCommitName string
	TradeID       string
	Side          string
	Size          float64
	Price         float64
	Timestamp     time.Time
}

// Store commits batches of tickers and trades to a storage system.
type Store interface {
	CommitTickers(ctx context.Context, data []Ticker) error
	CommitTrades(ctx context.Context, data []Trade) error
}

// reqCtx bounds a storage request with the configured timeout, if any.
func reqCtx(parent context.Context, timeoutSec int) (context.Context, context.CancelFunc) {
	if timeoutSec > 0 {
		return context.WithTimeout(parent, time.Duration(timeoutSec)*time.Second)
	}
	return context.WithCancel(parent)
}
