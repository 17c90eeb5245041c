package recorder

import (
	"context"
	"time"

	"github.com/milkywaybrain/goccxt/exchange"
	"github.com/milkywaybrain/goccxt/internal/storage"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// tradeCursor drops trades already seen by a previous poll.
// Trades are ordered by timestamp, the ids at the newest timestamp are kept
// because the next poll starts from that timestamp inclusive.
type tradeCursor struct {
	since int64
	seen  map[string]struct{}
}

func (c *tradeCursor) filter(trades []*exchange.Trade) []*exchange.Trade {
	out := make([]*exchange.Trade, 0, len(trades))
	for _, t := range trades {
		if t.Timestamp < c.since {
			continue
		}
		if _, ok := c.seen[t.ID]; ok && t.Timestamp == c.since {
			continue
		}
		if t.Timestamp > c.since {
			c.since = t.Timestamp
			c.seen = make(map[string]struct{})
		}
		c.seen[t.ID] = struct{}{}
		out = append(out, t)
	}
	return out
}

// processREST queries exchange for ticker / trade data through REST API in configured intervals,
// transforms it to a common ticker / trade store format,
// buffers the same in memory and
// then commits it to different storage systems.
func (r *recorder) processREST(ctx context.Context, symbol string, channel string, interval int) error {
	val := r.cfgMap[cfgLookupKey{market: symbol, channel: channel}]
	tickerBuf := make(map[string][]storage.Ticker)
	tradeBuf := make(map[string][]storage.Trade)
	cursor := tradeCursor{seen: make(map[string]struct{})}

	tick := time.NewTicker(time.Duration(interval) * time.Second)
	defer tick.Stop()
	for {
		select {
		case <-tick.C:
			switch channel {
			case ChannelTicker:
				t, err := r.ex.FetchTicker(ctx, symbol, nil)
				if err != nil {
					if !errors.Is(err, ctx.Err()) {
						logErrStack(err)
					}
					return err
				}
				ticker, ok := r.toTicker(t, &val)
				if !ok {
					log.Debug().Str("exchange", r.ex.ID()).Str("func", "processREST").Str("market", symbol).Msg("ticker without price skipped")
					continue
				}
				for _, str := range val.storages {
					tickerBuf[str] = append(tickerBuf[str], ticker)
					if len(tickerBuf[str]) < r.commitBuf(str, ChannelTicker) {
						continue
					}
					if err := r.commitTickers(ctx, str, tickerBuf[str]); err != nil {
						return err
					}
					tickerBuf[str] = nil
				}
			case ChannelTrade:

				// If the configured interval gap is big, then maybe it will not return all the trades.
				// Better to use websocket.
				trades, err := r.ex.FetchTrades(ctx, symbol, cursor.since, restTradesLimit, nil)
				if err != nil {
					if !errors.Is(err, ctx.Err()) {
						logErrStack(err)
					}
					return err
				}
				for _, t := range cursor.filter(trades) {
					trade := r.toTrade(t, &val)
					for _, str := range val.storages {
						tradeBuf[str] = append(tradeBuf[str], trade)
						if len(tradeBuf[str]) < r.commitBuf(str, ChannelTrade) {
							continue
						}
						if err := r.commitTrades(ctx, str, tradeBuf[str]); err != nil {
							return err
						}
						tradeBuf[str] = nil
					}
				}
			}

		// Return, if there is any error from another function or exchange.
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
