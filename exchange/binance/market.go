package binance

import (
	"context"
	"net/http"
	"strconv"

	jsoniter "github.com/json-iterator/go"
	"github.com/milkywaybrain/goccxt/exchange"
	"github.com/rs/zerolog/log"
)

// FetchMarkets returns all spot markets of the exchange.
func (b *Binance) FetchMarkets(ctx context.Context, params exchange.Params) ([]*exchange.Market, error) {
	body, err := b.request(ctx, apiPublic, http.MethodGet, "exchangeInfo", params, false)
	if err != nil {
		return nil, err
	}
	info := struct {
		Symbols []jsoniter.RawMessage `json:"symbols"`
	}{}
	if err := jsoniter.Unmarshal(body, &info); err != nil {
		return nil, exchange.Errorf(exchange.ExchangeError, "binance exchangeInfo: %v", err)
	}
	markets := make([]*exchange.Market, 0, len(info.Symbols))
	for _, raw := range info.Symbols {
		m, err := b.parseMarket(raw)
		if err != nil {
			return nil, err
		}
		markets = append(markets, m)
	}
	return markets, nil
}

type restCoin struct {
	Coin        string            `json:"coin"`
	Name        string            `json:"name"`
	DepositAll  bool              `json:"depositAllEnable"`
	WithdrawAll bool              `json:"withdrawAllEnable"`
	NetworkList []restCoinNetwork `json:"networkList"`
}

type restCoinNetwork struct {
	IsDefault               bool   `json:"isDefault"`
	WithdrawIntegerMultiple string `json:"withdrawIntegerMultiple"`
}

// FetchCurrencies returns the wallet currencies. The endpoint is signed, without
// an api key it returns no currencies so that markets still load.
func (b *Binance) FetchCurrencies(ctx context.Context, params exchange.Params) (map[string]*exchange.Currency, error) {
	if b.Config().APIKey == "" {
		return nil, nil
	}
	body, err := b.request(ctx, apiSAPI, http.MethodGet, "capital/config/getall", params, true)
	if err != nil {
		return nil, err
	}
	var raws []jsoniter.RawMessage
	if err := jsoniter.Unmarshal(body, &raws); err != nil {
		return nil, exchange.Errorf(exchange.ExchangeError, "binance currencies: %v", err)
	}
	currencies := make(map[string]*exchange.Currency, len(raws))
	for _, raw := range raws {
		rc := restCoin{}
		if err := jsoniter.Unmarshal(raw, &rc); err != nil {
			return nil, exchange.Errorf(exchange.ExchangeError, "binance currency: %v", err)
		}
		code := b.CommonCurrencyCode(rc.Coin)
		c := &exchange.Currency{
			ID:     rc.Coin,
			Code:   code,
			Name:   rc.Name,
			Active: rc.DepositAll && rc.WithdrawAll,
			Info:   raw,
		}
		for _, n := range rc.NetworkList {
			if n.IsDefault && n.WithdrawIntegerMultiple != "" {
				c.Precision = exchange.PrecisionFromString(n.WithdrawIntegerMultiple)
			}
		}
		currencies[code] = c
	}
	return currencies, nil
}

// FetchTicker returns the 24 hour ticker of a market.
func (b *Binance) FetchTicker(ctx context.Context, symbol string, params exchange.Params) (*exchange.Ticker, error) {
	if _, err := b.LoadMarkets(ctx, false); err != nil {
		return nil, err
	}
	id, err := b.MarketID(symbol)
	if err != nil {
		return nil, err
	}
	body, err := b.request(ctx, apiPublic, http.MethodGet, "ticker/24hr", exchange.Extend(exchange.Params{"symbol": id}, params), false)
	if err != nil {
		return nil, err
	}
	return b.parseTicker(body)
}

// FetchTickers returns the 24 hour tickers of the given symbols, or of all
// markets when none are given. Tickers of unknown markets are skipped.
func (b *Binance) FetchTickers(ctx context.Context, symbols []string, params exchange.Params) (exchange.Tickers, error) {
	if _, err := b.LoadMarkets(ctx, false); err != nil {
		return nil, err
	}
	body, err := b.request(ctx, apiPublic, http.MethodGet, "ticker/24hr", params, false)
	if err != nil {
		return nil, err
	}
	var raws []jsoniter.RawMessage
	if err := jsoniter.Unmarshal(body, &raws); err != nil {
		return nil, exchange.Errorf(exchange.ExchangeError, "binance tickers: %v", err)
	}

	wanted := make(map[string]bool, len(symbols))
	for _, s := range symbols {
		wanted[s] = true
	}
	tickers := make(exchange.Tickers, len(raws))
	for _, raw := range raws {
		t, err := b.parseTicker(raw)
		if err != nil {
			return nil, err
		}
		if _, err := b.Market(t.Symbol); err != nil {
			continue
		}
		if len(wanted) > 0 && !wanted[t.Symbol] {
			continue
		}
		tickers[t.Symbol] = t
	}
	return tickers, nil
}

// FetchOrderBook returns the order book of a market. The nonce is the book update id.
func (b *Binance) FetchOrderBook(ctx context.Context, symbol string, limit int, params exchange.Params) (*exchange.OrderBook, error) {
	if _, err := b.LoadMarkets(ctx, false); err != nil {
		return nil, err
	}
	m, err := b.Market(symbol)
	if err != nil {
		return nil, err
	}
	query := exchange.Params{"symbol": m.ID}
	if limit > 0 {
		query["limit"] = limit
	}
	body, err := b.request(ctx, apiPublic, http.MethodGet, "depth", exchange.Extend(query, params), false)
	if err != nil {
		return nil, err
	}
	rd := struct {
		LastUpdateID int64      `json:"lastUpdateId"`
		Bids         [][]string `json:"bids"`
		Asks         [][]string `json:"asks"`
	}{}
	if err := jsoniter.Unmarshal(body, &rd); err != nil {
		return nil, exchange.Errorf(exchange.ExchangeError, "binance depth: %v", err)
	}
	bids, err := exchange.ParseLevels(rd.Bids)
	if err != nil {
		return nil, err
	}
	asks, err := exchange.ParseLevels(rd.Asks)
	if err != nil {
		return nil, err
	}
	ob := &exchange.OrderBook{
		Symbol: m.Symbol,
		Bids:   bids,
		Asks:   asks,
		Nonce:  rd.LastUpdateID,
		Info:   body,
	}
	ob.Sort()
	return ob, nil
}

// FetchTrades returns the aggregated public trades of a market. When since is
// given, trades of the following hour are requested.
func (b *Binance) FetchTrades(ctx context.Context, symbol string, since int64, limit int, params exchange.Params) ([]*exchange.Trade, error) {
	if _, err := b.LoadMarkets(ctx, false); err != nil {
		return nil, err
	}
	m, err := b.Market(symbol)
	if err != nil {
		return nil, err
	}
	query := exchange.Params{"symbol": m.ID}
	if since > 0 {
		query["startTime"] = since
		query["endTime"] = since + 3600000
	}
	if limit > 0 {
		query["limit"] = limit
	}
	body, err := b.request(ctx, apiPublic, http.MethodGet, "aggTrades", exchange.Extend(query, params), false)
	if err != nil {
		return nil, err
	}
	var raws []jsoniter.RawMessage
	if err := jsoniter.Unmarshal(body, &raws); err != nil {
		return nil, exchange.Errorf(exchange.ExchangeError, "binance trades: %v", err)
	}
	trades := make([]*exchange.Trade, 0, len(raws))
	for _, raw := range raws {
		t, err := b.parseAggTrade(raw, m.Symbol)
		if err != nil {
			return nil, err
		}
		trades = append(trades, t)
	}
	return trades, nil
}

// FetchOHLCV returns the candles of a market for a unified timeframe.
func (b *Binance) FetchOHLCV(ctx context.Context, symbol, timeframe string, since int64, limit int, params exchange.Params) ([]exchange.OHLCV, error) {
	interval, ok := b.Describe().Timeframes[timeframe]
	if !ok {
		return nil, exchange.Errorf(exchange.NotSupported, "binance timeframe %s is not supported", timeframe)
	}
	if _, err := b.LoadMarkets(ctx, false); err != nil {
		return nil, err
	}
	id, err := b.MarketID(symbol)
	if err != nil {
		return nil, err
	}
	query := exchange.Params{"symbol": id, "interval": interval}
	if since > 0 {
		query["startTime"] = since
	}
	if limit > 0 {
		query["limit"] = limit
	}
	body, err := b.request(ctx, apiPublic, http.MethodGet, "klines", exchange.Extend(query, params), false)
	if err != nil {
		return nil, err
	}

	// [openTime, "open", "high", "low", "close", "volume", closeTime, ...]
	var rows [][]interface{}
	if err := jsoniter.Unmarshal(body, &rows); err != nil {
		return nil, exchange.Errorf(exchange.ExchangeError, "binance klines: %v", err)
	}
	candles := make([]exchange.OHLCV, 0, len(rows))
	for _, row := range rows {
		if len(row) < 6 {
			log.Debug().Str("exchange", "binance").Interface("kline", row).Msg("skipping short kline")
			continue
		}
		var c exchange.OHLCV
		for i := 0; i < 6; i++ {
			switch v := row[i].(type) {
			case float64:
				c[i] = v
			case string:
				f, err := strconv.ParseFloat(v, 64)
				if err != nil {
					return nil, exchange.Errorf(exchange.ExchangeError, "binance kline value %q", v)
				}
				c[i] = f
			default:
				return nil, exchange.Errorf(exchange.ExchangeError, "binance kline value %v at index %d", v, i)
			}
		}
		candles = append(candles, c)
	}
	return candles, nil
}
