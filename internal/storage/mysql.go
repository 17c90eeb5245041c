package storage

import (
	"context"
	"database/sql"
	"strings"
	"time"

	// Registers the mysql driver for database/sql.
	_ "github.com/go-sql-driver/mysql"
	"github.com/milkywaybrain/goccxt/internal/config"
	"github.com/pkg/errors"
)

// MySQL is for connecting and inserting data to mysql.
type MySQL struct {
	DB  *sql.DB
	Cfg *config.MySQL
}

// NewMySQL opens a mysql connection pool with configured values and pings it.
func NewMySQL(ctx context.Context, cfg *config.MySQL) (*MySQL, error) {
	dataSourceName := cfg.User + ":" + cfg.Password + cfg.URL + "/" + cfg.Schema + "?parseTime=true"
	db, err := sql.Open("mysql", dataSourceName)
	if err != nil {
		return nil, errors.Wrap(err, "mysql open")
	}
	db.SetConnMaxLifetime(time.Second * time.Duration(cfg.ConnMaxLifetimeSec))
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)

	pingCtx, cancel := reqCtx(ctx, cfg.ReqTimeoutSec)
	defer cancel()
	if err = db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "mysql ping")
	}
	return &MySQL{DB: db, Cfg: cfg}, nil
}

// valuesClause returns "(?,?),(?,?)" style placeholders for a multi row insert.
func valuesClause(rows, cols int) string {
	row := "(" + strings.TrimSuffix(strings.Repeat("?,", cols), ",") + ")"
	return strings.TrimSuffix(strings.Repeat(row+",", rows), ",")
}

// CommitTickers batch inserts input ticker data to database.
func (m *MySQL) CommitTickers(appCtx context.Context, data []Ticker) error {
	if len(data) == 0 {
		return nil
	}
	now := time.Now().UTC()
	args := make([]interface{}, 0, len(data)*5)
	for _, ticker := range data {
		args = append(args, ticker.Exchange, ticker.MktCommitName, ticker.Price, ticker.Timestamp.UTC(), now)
	}
	query := "INSERT INTO ticker(exchange, market, price, timestamp, created_at) VALUES " + valuesClause(len(data), 5)

	ctx, cancel := reqCtx(appCtx, m.Cfg.ReqTimeoutSec)
	defer cancel()
	if _, err := m.DB.ExecContext(ctx, query, args...); err != nil {
		return errors.Wrap(err, "mysql insert tickers")
	}
	return nil
}

// CommitTrades batch inserts input trade data to database.
func (m *MySQL) CommitTrades(appCtx context.Context, data []Trade) error {
	if len(data) == 0 {
		return nil
	}
	now := time.Now().UTC()
	args := make([]interface{}, 0, len(data)*8)
	for _, trade := range data {
		args = append(args, trade.Exchange, trade.MktCommitName, trade.TradeID, trade.Side, trade.Size, trade.Price, trade.Timestamp.UTC(), now)
	}
	query := "INSERT INTO trade(exchange, market, trade_id, side, size, price, timestamp, created_at) VALUES " + valuesClause(len(data), 8)

	ctx, cancel := reqCtx(appCtx, m.Cfg.ReqTimeoutSec)
	defer cancel()
	if _, err := m.DB.ExecContext(ctx, query, args...); err != nil {
		return errors.Wrap(err, "mysql insert trades")
	}
	return nil
}
