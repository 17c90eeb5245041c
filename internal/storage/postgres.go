package storage

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/milkywaybrain/goccxt/internal/config"
	"github.com/pkg/errors"
)

// Postgres is for connecting and copying data to postgres.
type Postgres struct {
	Pool *pgxpool.Pool
	Cfg  *config.Postgres
}

var (
	tickerColumns = []string{"exchange", "market", "price", "timestamp", "created_at"}
	tradeColumns  = []string{"exchange", "market", "trade_id", "side", "size", "price", "timestamp", "created_at"}
)

// NewPostgres creates a postgres connection pool with configured values and pings it.
func NewPostgres(ctx context.Context, cfg *config.Postgres) (*Postgres, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, errors.Wrap(err, "postgres config")
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = int32(cfg.MaxConns)
	}

	pingCtx, cancel := reqCtx(ctx, cfg.ReqTimeoutSec)
	defer cancel()
	pool, err := pgxpool.NewWithConfig(pingCtx, poolCfg)
	if err != nil {
		return nil, errors.Wrap(err, "postgres pool")
	}
	if err = pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "postgres ping")
	}
	return &Postgres{Pool: pool, Cfg: cfg}, nil
}

// CommitTickers batch copies input ticker data to database.
func (p *Postgres) CommitTickers(appCtx context.Context, data []Ticker) error {
	if len(data) == 0 {
		return nil
	}
	now := time.Now().UTC()
	rows := make([][]interface{}, 0, len(data))
	for _, ticker := range data {
		rows = append(rows, []interface{}{ticker.Exchange, ticker.MktCommitName, ticker.Price, ticker.Timestamp, now})
	}
	return p.copy(appCtx, "ticker", tickerColumns, rows)
}

// CommitTrades batch copies input trade data to database.
func (p *Postgres) CommitTrades(appCtx context.Context, data []Trade) error {
	if len(data) == 0 {
		return nil
	}
	now := time.Now().UTC()
	rows := make([][]interface{}, 0, len(data))
	for _, trade := range data {
		rows = append(rows, []interface{}{trade.Exchange, trade.MktCommitName, trade.TradeID, trade.Side, trade.Size, trade.Price, trade.Timestamp, now})
	}
	return p.copy(appCtx, "trade", tradeColumns, rows)
}

func (p *Postgres) copy(appCtx context.Context, table string, columns []string, rows [][]interface{}) error {
	ctx, cancel := reqCtx(appCtx, p.Cfg.ReqTimeoutSec)
	defer cancel()
	n, err := p.Pool.CopyFrom(ctx, pgx.Identifier{table}, columns, pgx.CopyFromRows(rows))
	if err != nil {
		return errors.Wrapf(err, "postgres copy %s", table)
	}
	if n != int64(len(rows)) {
		return errors.Errorf("postgres copy %s: %d of %d rows copied", table, n, len(rows))
	}
	return nil
}
