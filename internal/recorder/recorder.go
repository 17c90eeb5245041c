package recorder

import (
	"context"
	"fmt"
	"time"

	"github.com/milkywaybrain/goccxt/exchange"
	"github.com/milkywaybrain/goccxt/internal/config"
	"github.com/milkywaybrain/goccxt/internal/metrics"
	"github.com/milkywaybrain/goccxt/internal/storage"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Channels a market can be recorded on.
const (
	ChannelTicker = "ticker"
	ChannelTrade  = "trade"
)

// restTradesLimit is the number of trades asked per REST poll.
const restTradesLimit = 100

// cfgLookupKey is a key in the config lookup map.
type cfgLookupKey struct {
	market  string
	channel string
}

// cfgLookupVal is a value in the config lookup map.
type cfgLookupVal struct {
	wsConsiderIntSec int
	wsLastUpdated    time.Time
	storages         []string
	mktID            string
	mktCommitName    string
}

// Start is for starting the recording functions of an exchange.
//
// If any error occurs or connection is lost, the functions are retried with a time gap till
// a configured number of retry is reached.
// Retry counter is reset back to zero if the elapsed time since the last retry is greater than the configured one.
func Start(appCtx context.Context, ex exchange.Exchange, markets []config.Market, retry *config.Retry, connCfg *config.Connection, stores map[string]storage.Store) error {
	var retryCount int
	lastRetryTime := time.Now()

	for {
		err := newRecorder(ex, connCfg, stores).run(appCtx, markets)
		if err == nil {
			return nil
		}
		if appCtx.Err() != nil {
			log.Error().Str("exchange", ex.ID()).Msg("ctx canceled, return from recorder")
			return appCtx.Err()
		}

		log.Error().Err(err).Str("exchange", ex.ID()).Msg("error occurred")
		if retry.Number == 0 {
			return errors.Errorf("not able to connect %s exchange. please check the log for details", ex.ID())
		}
		if retry.ResetSec == 0 || time.Since(lastRetryTime).Seconds() < float64(retry.ResetSec) {
			retryCount++
		} else {
			retryCount = 1
		}
		lastRetryTime = time.Now()
		if retryCount > retry.Number {
			return errors.Errorf("not able to connect %s exchange even after %v retry. please check the log for details", ex.ID(), retry.Number)
		}
		metrics.ExchangeRetries.WithLabelValues(ex.ID()).Inc()

		log.Error().Str("exchange", ex.ID()).Int("retry", retryCount).Msg(fmt.Sprintf("retrying functions in %v seconds", retry.GapSec))
		timer := time.NewTimer(time.Duration(retry.GapSec) * time.Second)
		select {
		case <-timer.C:

		// Return, if there is any error from another exchange.
		case <-appCtx.Done():
			timer.Stop()
			log.Error().Str("exchange", ex.ID()).Msg("ctx canceled, return from recorder")
			return appCtx.Err()
		}
	}
}

type recorder struct {
	ex        exchange.Exchange
	connCfg   *config.Connection
	stores    map[string]storage.Store
	cfgMap    map[cfgLookupKey]cfgLookupVal
	wsTickers map[string]chan []storage.Ticker
	wsTrades  map[string]chan []storage.Trade
}

func newRecorder(ex exchange.Exchange, connCfg *config.Connection, stores map[string]storage.Store) *recorder {
	return &recorder{
		ex:        ex,
		connCfg:   connCfg,
		stores:    stores,
		wsTickers: make(map[string]chan []storage.Ticker),
		wsTrades:  make(map[string]chan []storage.Trade),
	}
}

func (r *recorder) run(appCtx context.Context, markets []config.Market) error {

	// If any function fails, force all the other functions to stop and return.
	errGroup, ctx := errgroup.WithContext(appCtx)

	if _, err := r.ex.LoadMarkets(ctx, false); err != nil {
		if !errors.Is(err, ctx.Err()) {
			logErrStack(err)
		}
		return err
	}
	if err := r.cfgLookup(markets); err != nil {
		logErrStack(err)
		return err
	}

	type restJob struct {
		symbol   string
		channel  string
		interval int
	}
	var (
		restJobs  []restJob
		wsTickers []string
		wsTrades  []string
	)
	for _, market := range markets {
		for _, info := range market.Info {
			switch {
			case info.Connector == "rest":
				restJobs = append(restJobs, restJob{symbol: market.ID, channel: info.Channel, interval: info.RESTPingIntSec})
			case info.Channel == ChannelTicker:
				wsTickers = append(wsTickers, market.ID)
			default:
				wsTrades = append(wsTrades, market.ID)
			}
		}
	}

	var streamer exchange.Streamer
	if len(wsTickers) > 0 || len(wsTrades) > 0 {
		var ok bool
		streamer, ok = r.ex.(exchange.Streamer)
		if !ok {
			err := exchange.Errorf(exchange.NotSupported, "%s websocket streams are not supported yet", r.ex.ID())
			logErrStack(err)
			return err
		}
	}
	if len(wsTickers) > 0 {
		if err := r.checkHas(exchange.CapStreamTickers); err != nil {
			return err
		}
	}
	if len(wsTrades) > 0 {
		if err := r.checkHas(exchange.CapStreamTrades); err != nil {
			return err
		}
	}

	for _, job := range restJobs {
		errGroup.Go(func() error {
			return r.processREST(ctx, job.symbol, job.channel, job.interval)
		})
	}

	for str, ch := range r.wsTickers {
		errGroup.Go(func() error {
			return r.wsTickersToStorage(ctx, str, ch)
		})
	}
	for str, ch := range r.wsTrades {
		errGroup.Go(func() error {
			return r.wsTradesToStorage(ctx, str, ch)
		})
	}
	if len(wsTickers) > 0 {
		tickers := make(chan *exchange.Ticker, len(wsTickers))
		errGroup.Go(func() error {
			return streamErr(ctx, streamer.StreamTickers(ctx, wsTickers, tickers))
		})
		errGroup.Go(func() error {
			return r.readWsTickers(ctx, tickers)
		})
	}
	if len(wsTrades) > 0 {
		trades := make(chan *exchange.Trade, restTradesLimit)
		errGroup.Go(func() error {
			return streamErr(ctx, streamer.StreamTrades(ctx, wsTrades, trades))
		})
		errGroup.Go(func() error {
			return r.readWsTrades(ctx, trades)
		})
	}

	return errGroup.Wait()
}

// cfgLookup prepares a configuration flat map for easy lookup later in the app.
// Markets are resolved against the loaded exchange markets.
func (r *recorder) cfgLookup(markets []config.Market) error {
	r.cfgMap = make(map[cfgLookupKey]cfgLookupVal)
	for _, market := range markets {
		mktID, err := r.ex.MarketID(market.ID)
		if err != nil {
			return err
		}
		mktCommitName := market.CommitName
		if mktCommitName == "" {
			mktCommitName = market.ID
		}
		for _, info := range market.Info {
			key := cfgLookupKey{market: market.ID, channel: info.Channel}
			val := cfgLookupVal{
				wsConsiderIntSec: info.WsConsiderIntSec,
				storages:         info.Storages,
				mktID:            mktID,
				mktCommitName:    mktCommitName,
			}
			for _, str := range info.Storages {
				if _, ok := r.stores[str]; !ok {
					return errors.Errorf("storage %s is not initialized", str)
				}
				if info.Connector != "websocket" {
					continue
				}
				if info.Channel == ChannelTicker {
					if _, ok := r.wsTickers[str]; !ok {
						r.wsTickers[str] = make(chan []storage.Ticker, 1)
					}
				} else if _, ok := r.wsTrades[str]; !ok {
					r.wsTrades[str] = make(chan []storage.Trade, 1)
				}
			}
			r.cfgMap[key] = val
		}
	}
	return nil
}

func (r *recorder) checkHas(c exchange.Capability) error {
	if r.ex.Has(c) {
		return nil
	}
	err := exchange.Errorf(exchange.NotSupported, "%s %s() is not supported yet", r.ex.ID(), c)
	logErrStack(err)
	return err
}

// streamErr makes sure a finished stream stops the other functions.
func streamErr(ctx context.Context, err error) error {
	if err != nil {
		if !errors.Is(err, ctx.Err()) {
			logErrStack(err)
		}
		return err
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return errors.New("stream ended unexpectedly")
}

// commitBuf returns the configured commit buffer size of a storage channel.
func (r *recorder) commitBuf(str, channel string) int {
	var ticker, trade int
	switch str {
	case storage.TerminalName:
		ticker, trade = r.connCfg.Terminal.TickerCommitBuf, r.connCfg.Terminal.TradeCommitBuf
	case storage.MySQLName:
		ticker, trade = r.connCfg.MySQL.TickerCommitBuf, r.connCfg.MySQL.TradeCommitBuf
	case storage.ElasticSearchName:
		ticker, trade = r.connCfg.ES.TickerCommitBuf, r.connCfg.ES.TradeCommitBuf
	case storage.PostgresName:
		ticker, trade = r.connCfg.Postgres.TickerCommitBuf, r.connCfg.Postgres.TradeCommitBuf
	}
	n := trade
	if channel == ChannelTicker {
		n = ticker
	}
	if n < 1 {
		return 1
	}
	return n
}

func (r *recorder) commitTickers(ctx context.Context, str string, data []storage.Ticker) error {
	if err := r.stores[str].CommitTickers(ctx, data); err != nil {
		if !errors.Is(err, ctx.Err()) {
			logErrStack(err)
		}
		return err
	}
	metrics.RecordedTotal.WithLabelValues(r.ex.ID(), ChannelTicker, str).Add(float64(len(data)))
	return nil
}

func (r *recorder) commitTrades(ctx context.Context, str string, data []storage.Trade) error {
	if err := r.stores[str].CommitTrades(ctx, data); err != nil {
		if !errors.Is(err, ctx.Err()) {
			logErrStack(err)
		}
		return err
	}
	metrics.RecordedTotal.WithLabelValues(r.ex.ID(), ChannelTrade, str).Add(float64(len(data)))
	return nil
}

// toTicker transforms an exchange ticker to the common ticker store format.
// It reports false if the ticker carries no price.
func (r *recorder) toTicker(t *exchange.Ticker, val *cfgLookupVal) (storage.Ticker, bool) {
	price := t.Last
	if price == nil {
		price = t.Close
	}
	if price == nil {
		return storage.Ticker{}, false
	}
	ts := time.Now().UTC()
	if t.Timestamp > 0 {
		ts = exchange.MillisToTime(t.Timestamp)
	}
	return storage.Ticker{
		Exchange:      r.ex.ID(),
		MktID:         val.mktID,
		MktCommitName: val.mktCommitName,
		Price:         *price,
		Timestamp:     ts,
	}, true
}

// toTrade transforms an exchange trade to the common trade store format.
func (r *recorder) toTrade(t *exchange.Trade, val *cfgLookupVal) storage.Trade {
	return storage.Trade{
		Exchange:      r.ex.ID(),
		MktID:         val.mktID,
		MktCommitName: val.mktCommitName,
		TradeID:       t.ID,
		Side:          string(t.Side),
		Size:          t.Amount,
		Price:         t.Price,
		Timestamp:     exchange.MillisToTime(t.Timestamp),
	}
}

// logErrStack logs error with stack trace.
func logErrStack(err error) {
	log.Error().Stack().Err(errors.WithStack(err)).Msg("")
}
