package recorder

import (
	"context"
	"time"

	"github.com/milkywaybrain/goccxt/exchange"
	"github.com/milkywaybrain/goccxt/internal/storage"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// wsFilter passes a frame only once per configured interval of its market channel.
// Each reader owns its filter, the shared lookup map is only read.
type wsFilter struct {
	cfg     map[cfgLookupKey]cfgLookupVal
	updated map[cfgLookupKey]time.Time
}

func newWsFilter(cfg map[cfgLookupKey]cfgLookupVal) *wsFilter {
	return &wsFilter{cfg: cfg, updated: make(map[cfgLookupKey]time.Time)}
}

func (f *wsFilter) consider(key cfgLookupKey, now time.Time) (cfgLookupVal, bool) {
	val, ok := f.cfg[key]
	if !ok {
		return val, false
	}
	if val.wsConsiderIntSec == 0 || now.Sub(f.updated[key]).Seconds() >= float64(val.wsConsiderIntSec) {
		f.updated[key] = now
		return val, true
	}
	return val, false
}

// readWsTickers receives streamed tickers,
// transforms them to a common ticker store format,
// buffers the same in memory and
// then sends it to different storage systems for commit through go channels.
func (r *recorder) readWsTickers(ctx context.Context, in <-chan *exchange.Ticker) error {
	filter := newWsFilter(r.cfgMap)
	buf := make(map[string][]storage.Ticker)
	for {
		select {
		case t, ok := <-in:
			if !ok {
				return errors.New("stream closed")
			}
			val, ok := filter.consider(cfgLookupKey{market: t.Symbol, channel: ChannelTicker}, time.Now())
			if !ok {
				continue
			}
			ticker, ok := r.toTicker(t, &val)
			if !ok {
				log.Debug().Str("exchange", r.ex.ID()).Str("func", "readWsTickers").Str("market", t.Symbol).Msg("ticker without price skipped")
				continue
			}
			for _, str := range val.storages {
				buf[str] = append(buf[str], ticker)
				if len(buf[str]) < r.commitBuf(str, ChannelTicker) {
					continue
				}
				select {
				case r.wsTickers[str] <- buf[str]:
				case <-ctx.Done():
					return ctx.Err()
				}
				buf[str] = nil
			}

		// Return, if there is any error from another function or exchange.
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// readWsTrades is the trade counterpart of readWsTickers.
func (r *recorder) readWsTrades(ctx context.Context, in <-chan *exchange.Trade) error {
	filter := newWsFilter(r.cfgMap)
	buf := make(map[string][]storage.Trade)
	for {
		select {
		case t, ok := <-in:
			if !ok {
				return errors.New("stream closed")
			}
			val, ok := filter.consider(cfgLookupKey{market: t.Symbol, channel: ChannelTrade}, time.Now())
			if !ok {
				continue
			}
			trade := r.toTrade(t, &val)
			for _, str := range val.storages {
				buf[str] = append(buf[str], trade)
				if len(buf[str]) < r.commitBuf(str, ChannelTrade) {
					continue
				}
				select {
				case r.wsTrades[str] <- buf[str]:
				case <-ctx.Done():
					return ctx.Err()
				}
				buf[str] = nil
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (r *recorder) wsTickersToStorage(ctx context.Context, str string, in <-chan []storage.Ticker) error {
	for {
		select {
		case data := <-in:
			if err := r.commitTickers(ctx, str, data); err != nil {
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (r *recorder) wsTradesToStorage(ctx context.Context, str string, in <-chan []storage.Trade) error {
	for {
		select {
		case data := <-in:
			if err := r.commitTrades(ctx, str, data); err != nil {
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
