package binance

import (
	"context"
	"io"
	"net"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/milkywaybrain/goccxt/exchange"
	"github.com/milkywaybrain/goccxt/internal/connector"
	"github.com/milkywaybrain/goccxt/internal/metrics"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

var _ exchange.Streamer = (*Binance)(nil)

type wsSub struct {
	Method string   `json:"method"`
	Params []string `json:"params"`
	ID     int      `json:"id"`
}

// wsEnvelope is decoded first to tell control replies from stream events.
type wsEnvelope struct {
	Event     string `json:"e"`
	EventTime int64  `json:"E"`
	ID        int    `json:"id"`
	Error     *struct {
		Code int    `json:"code"`
		Msg  string `json:"msg"`
	} `json:"error"`
}

// wsTicker is a 24hrTicker event. Every key whose other case is also sent is
// declared, otherwise the case insensitive decoder mixes them up.
type wsTicker struct {
	Event              string `json:"e"`
	EventTime          int64  `json:"E"`
	Symbol             string `json:"s"`
	PriceChange        string `json:"p"`
	PriceChangePercent string `json:"P"`
	WeightedAvgPrice   string `json:"w"`
	PrevClosePrice     string `json:"x"`
	LastPrice          string `json:"c"`
	LastQty            string `json:"Q"`
	BidPrice           string `json:"b"`
	BidQty             string `json:"B"`
	AskPrice           string `json:"a"`
	AskQty             string `json:"A"`
	OpenPrice          string `json:"o"`
	HighPrice          string `json:"h"`
	LowPrice           string `json:"l"`
	Volume             string `json:"v"`
	QuoteVolume        string `json:"q"`
	OpenTime           int64  `json:"O"`
	CloseTime          int64  `json:"C"`
	FirstID            int64  `json:"F"`
	LastID             int64  `json:"L"`
	Count              int64  `json:"n"`
}

type wsTrade struct {
	Event        string `json:"e"`
	EventTime    int64  `json:"E"`
	Symbol       string `json:"s"`
	TradeID      int64  `json:"t"`
	Price        string `json:"p"`
	Qty          string `json:"q"`
	TradeTime    int64  `json:"T"`
	IsBuyerMaker bool   `json:"m"`
	IsBestMatch  bool   `json:"M"`
}

// StreamTickers pushes 24 hour ticker updates of the symbols to out until
// the context is done or the connection fails.
func (b *Binance) StreamTickers(ctx context.Context, symbols []string, out chan<- *exchange.Ticker) error {
	return b.stream(ctx, symbols, "ticker", func(frame []byte) error {
		wt := wsTicker{}
		if err := jsoniter.Unmarshal(frame, &wt); err != nil {
			return exchange.Errorf(exchange.ExchangeError, "binance ticker event: %v", err)
		}
		if wt.Event != "24hrTicker" {
			return nil
		}
		t, err := b.newTicker(frame, wt.Symbol, wt.EventTime, tickerValues{
			change: wt.PriceChange, percentage: wt.PriceChangePercent, vwap: wt.WeightedAvgPrice,
			prevClose: wt.PrevClosePrice, last: wt.LastPrice, bid: wt.BidPrice, bidQty: wt.BidQty,
			ask: wt.AskPrice, askQty: wt.AskQty, open: wt.OpenPrice, high: wt.HighPrice, low: wt.LowPrice,
			baseVol: wt.Volume, quoteVol: wt.QuoteVolume,
		})
		if err != nil {
			return err
		}
		select {
		case out <- t:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
}

// StreamTrades pushes the public trades of the symbols to out until the
// context is done or the connection fails.
func (b *Binance) StreamTrades(ctx context.Context, symbols []string, out chan<- *exchange.Trade) error {
	return b.stream(ctx, symbols, "trade", func(frame []byte) error {
		wt := wsTrade{}
		if err := jsoniter.Unmarshal(frame, &wt); err != nil {
			return exchange.Errorf(exchange.ExchangeError, "binance trade event: %v", err)
		}
		if wt.Event != "trade" {
			return nil
		}
		symbol := wt.Symbol
		if m, err := b.MarketByID(wt.Symbol); err == nil {
			symbol = m.Symbol
		}
		t, err := b.newTrade(frame, wt.TradeID, symbol, wt.Price, wt.Qty, wt.TradeTime, tradeSide(wt.IsBuyerMaker))
		if err != nil {
			return err
		}
		select {
		case out <- t:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
}

// stream subscribes to the channel of every symbol on one websocket connection
// and hands each event frame to handle.
func (b *Binance) stream(ctx context.Context, symbols []string, channel string, handle func(frame []byte) error) error {
	if len(symbols) == 0 {
		return exchange.Errorf(exchange.ExchangeError, "%s stream %s requires symbols", b.ID(), channel)
	}
	if _, err := b.LoadMarkets(ctx, false); err != nil {
		return err
	}
	ids, err := b.MarketIDs(symbols)
	if err != nil {
		return err
	}
	params := make([]string, len(ids))
	for i, id := range ids {
		params[i] = strings.ToLower(id) + "@" + channel
	}

	ws, err := connector.NewWebsocket(ctx, &b.wsCfg, b.URL(apiStream))
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logErrStack(err)
		return exchange.Errorf(exchange.NetworkError, "%s websocket connect: %v", b.ID(), err)
	}
	log.Info().Str("exchange", b.ID()).Str("channel", channel).Msg("websocket connected")
	metrics.WebsocketConnections.WithLabelValues(b.ID()).Inc()
	defer metrics.WebsocketConnections.WithLabelValues(b.ID()).Dec()

	g, gctx := errgroup.WithContext(ctx)

	// Closing the connection unblocks the pending read.
	g.Go(func() error {
		<-gctx.Done()
		if err := ws.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			logErrStack(err)
		}
		return gctx.Err()
	})

	g.Go(func() error {
		frame, err := jsoniter.Marshal(wsSub{Method: "SUBSCRIBE", Params: params, ID: 1})
		if err != nil {
			return errors.WithStack(err)
		}
		if err := ws.Write(frame); err != nil {
			return b.wsError(gctx, err)
		}
		return b.readWs(gctx, &ws, handle)
	})

	return g.Wait()
}

func (b *Binance) readWs(ctx context.Context, ws *connector.Websocket, handle func(frame []byte) error) error {
	for {
		frame, err := ws.Read()
		if err != nil {
			return b.wsError(ctx, err)
		}
		if len(frame) == 0 {
			continue
		}

		env := wsEnvelope{}
		if err := jsoniter.Unmarshal(frame, &env); err != nil {
			logErrStack(err)
			return exchange.Errorf(exchange.ExchangeError, "%s websocket frame: %v", b.ID(), err)
		}
		if env.Error != nil {
			log.Error().Str("exchange", b.ID()).Int("code", env.Error.Code).Str("msg", env.Error.Msg).Msg("websocket error")
			return exchange.Errorf(exchange.ExchangeError, "%s websocket error %d: %s", b.ID(), env.Error.Code, env.Error.Msg)
		}
		if env.Event == "" {
			if env.ID != 0 {
				log.Debug().Str("exchange", b.ID()).Int("id", env.ID).Msg("channels subscribed")
			}
			continue
		}
		if err := handle(frame); err != nil {
			return err
		}
	}
}

// wsError maps a websocket read or write failure. A connection closed by
// context cancellation reports the context error.
func (b *Binance) wsError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err == io.EOF {
		err = errors.Wrap(err, "connection close by exchange server")
	}
	logErrStack(err)
	return exchange.Errorf(exchange.NetworkError, "%s websocket: %v", b.ID(), err)
}

// logErrStack logs error with stack trace.
func logErrStack(err error) {
	log.Error().Stack().Err(errors.WithStack(err)).Msg("")
}
