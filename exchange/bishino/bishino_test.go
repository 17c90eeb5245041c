package bishino

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/milkywaybrain/goccxt/exchange"
)

const exchangeInfoJSON = `{"symbols":[
{"symbol":"BTCUSDT","status":"TRADING","baseAsset":"BTC","baseAssetPrecision":8,"quoteAsset":"USDT","quotePrecision":8,"quoteAssetPrecision":8,
 "filters":[{"filterType":"PRICE_FILTER","minPrice":"0.01","maxPrice":"1000000","tickSize":"0.01"},
            {"filterType":"LOT_SIZE","minQty":"0.0001","maxQty":"1000","stepSize":"0.0001"}]},
{"symbol":"ETHUSDT","status":"TRADING","baseAsset":"ETH","baseAssetPrecision":8,"quoteAsset":"USDT","quotePrecision":8,"quoteAssetPrecision":8,
 "filters":[]}]}`

func newTestBishino(t *testing.T, routes map[string]http.HandlerFunc) *Bishino {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v3/exchangeInfo", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, exchangeInfoJSON)
	})
	mux.HandleFunc("/sapi/", func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected wallet request %s", r.URL.Path)
	})
	for path, h := range routes {
		mux.HandleFunc(path, h)
	}
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	x, err := New(exchange.Config{
		APIKey: "key",
		Secret: "secret",
		URLs: map[string]string{
			"public":  srv.URL + "/api/v3/",
			"private": srv.URL + "/api/v3/",
			"sapi":    srv.URL + "/sapi/v1/",
		},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return x
}

func TestDescribe(t *testing.T) {
	x := newTestBishino(t, nil)
	if x.ID() != "bishino" || x.Name() != "Bishino" {
		t.Errorf("identity = %s %s", x.ID(), x.Name())
	}
	for _, c := range []exchange.Capability{exchange.CapFetchTickers, exchange.CapFetchOHLCV, exchange.CapFetchOrder,
		exchange.CapWithdraw, exchange.CapFetchCurrencies, exchange.CapStreamTrades} {
		if x.Has(c) {
			t.Errorf("Has(%s) = true", c)
		}
	}
	if !x.Has(exchange.CapCreateOrder) || !x.Has(exchange.CapFetchTicker) {
		t.Error("bishino should trade and fetch tickers")
	}
	var _ exchange.Exchange = x
}

func TestLoadMarketsSkipsCurrencies(t *testing.T) {
	x := newTestBishino(t, nil)
	markets, err := x.LoadMarkets(context.Background(), false)
	if err != nil {
		t.Fatalf("LoadMarkets() error = %v", err)
	}
	if len(markets) != 2 {
		t.Errorf("len(markets) = %d", len(markets))
	}
	if _, ok := x.Currencies()["BTC"]; !ok {
		t.Error("currencies not derived from markets")
	}
}

func TestFetchTickersFallsBackToSingleTickers(t *testing.T) {
	var calls int32
	x := newTestBishino(t, map[string]http.HandlerFunc{
		"/api/v3/ticker/24hr": func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			symbol := r.URL.Query().Get("symbol")
			if symbol == "" {
				t.Error("bulk ticker requested")
			}
			_, _ = io.WriteString(w, `{"symbol":"`+symbol+`","lastPrice":"10.5","bidPrice":"10.4","askPrice":"10.6","closeTime":1600000000000}`)
		},
	})
	tickers, err := x.FetchTickers(context.Background(), []string{"BTC/USDT", "ETH/USDT"}, nil)
	if err != nil {
		t.Fatalf("FetchTickers() error = %v", err)
	}
	if len(tickers) != 2 || tickers["ETH/USDT"] == nil || tickers["BTC/USDT"].Bid != 10.4 {
		t.Errorf("tickers = %v", tickers)
	}
	if atomic.LoadInt32(&calls) != 2 {
		t.Errorf("ticker requests = %d, want 2", calls)
	}

	if _, err := x.FetchTickers(context.Background(), nil, nil); !errors.Is(err, exchange.NotSupported) {
		t.Errorf("FetchTickers() without symbols error = %v, want NotSupported", err)
	}
}

func TestFetchOrderStatusFromCache(t *testing.T) {
	x := newTestBishino(t, map[string]http.HandlerFunc{
		"/api/v3/order": func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				t.Errorf("method = %s, fetchOrder is not served", r.Method)
			}
			_, _ = io.WriteString(w, `{"symbol":"BTCUSDT","orderId":7,"clientOrderId":"c7","transactTime":1600000000000,
"price":"100.00","origQty":"1.0000","executedQty":"0.0000","cummulativeQuoteQty":"0","status":"NEW","type":"LIMIT","side":"BUY","fills":[]}`)
		},
	})
	ctx := context.Background()
	price := 100.0
	o, err := x.CreateOrder(ctx, "BTC/USDT", exchange.TypeLimit, exchange.SideBuy, 1, &price, nil)
	if err != nil {
		t.Fatalf("CreateOrder() error = %v", err)
	}
	status, err := x.FetchOrderStatus(ctx, o.ID, "BTC/USDT")
	if err != nil || status != exchange.StatusOpen {
		t.Errorf("FetchOrderStatus() = %s, %v", status, err)
	}

	_, err = x.FetchOrderStatus(ctx, "404", "BTC/USDT")
	if !errors.Is(err, exchange.OrderNotCached) || !errors.Is(err, exchange.InvalidOrder) {
		t.Errorf("unknown order error = %v, want OrderNotCached", err)
	}
}

func TestUnsupportedOperations(t *testing.T) {
	x := newTestBishino(t, nil)
	ctx := context.Background()
	checks := map[string]error{}
	_, checks["fetchOHLCV"] = x.FetchOHLCV(ctx, "BTC/USDT", "1m", 0, 0, nil)
	_, checks["fetchOrder"] = x.FetchOrder(ctx, "1", "BTC/USDT", nil)
	_, checks["withdraw"] = x.Withdraw(ctx, "BTC", 1, "addr", "", nil)
	_, checks["fetchDepositAddress"] = x.FetchDepositAddress(ctx, "BTC", nil)
	_, checks["fetchTransactions"] = x.FetchTransactions(ctx, "BTC", 0, 0, nil)
	_, checks["fetchCurrencies"] = x.FetchCurrencies(ctx, nil)
	checks["streamTrades"] = x.StreamTrades(ctx, []string{"BTC/USDT"}, make(chan *exchange.Trade))
	for name, err := range checks {
		if !errors.Is(err, exchange.NotSupported) {
			t.Errorf("%s error = %v, want NotSupported", name, err)
		}
	}
	if got := checks["fetchOHLCV"].Error(); got != "bishino fetchOHLCV() is not supported yet" {
		t.Errorf("message = %q", got)
	}
}
