package recorder

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/milkywaybrain/goccxt/exchange"
	"github.com/milkywaybrain/goccxt/internal/config"
	"github.com/milkywaybrain/goccxt/internal/storage"
	"github.com/pkg/errors"
)

type fakeExchange struct {
	*exchange.Base
	failMarkets bool
	marketCalls int32
	trades      []*exchange.Trade
}

func newFake(t *testing.T, has ...exchange.Capability) *fakeExchange {
	t.Helper()
	desc := &exchange.Description{
		ID:        "fake",
		Name:      "Fake",
		RateLimit: 1,
		URLs:      map[string]string{"public": "https://fake.test/api/"},
		Has: map[exchange.Capability]bool{
			exchange.CapFetchMarkets: true,
			exchange.CapFetchTicker:  true,
			exchange.CapFetchTrades:  true,
		},
	}
	for _, c := range has {
		desc.Has[c] = true
	}
	base, err := exchange.NewBase(desc, exchange.Config{})
	if err != nil {
		t.Fatalf("NewBase() error = %v", err)
	}
	f := &fakeExchange{
		Base: base,
		trades: []*exchange.Trade{
			{ID: "1", Symbol: "BTC/USD", Timestamp: 1614592800000, Side: exchange.SideBuy, Price: 100, Amount: 1},
			{ID: "2", Symbol: "BTC/USD", Timestamp: 1614592800000, Side: exchange.SideSell, Price: 101, Amount: 2},
		},
	}
	f.Bind(f)
	return f
}

func (f *fakeExchange) FetchMarkets(ctx context.Context, params exchange.Params) ([]*exchange.Market, error) {
	atomic.AddInt32(&f.marketCalls, 1)
	if f.failMarkets {
		return nil, exchange.NewError(exchange.ExchangeNotAvailable, "fake down")
	}
	return []*exchange.Market{
		{ID: "BTCUSD", Symbol: "BTC/USD", Base: "BTC", Quote: "USD", BaseID: "BTC", QuoteID: "USD", Active: true},
	}, nil
}

func (f *fakeExchange) FetchTicker(ctx context.Context, symbol string, params exchange.Params) (*exchange.Ticker, error) {
	return &exchange.Ticker{Symbol: symbol, Timestamp: 1614592800000, Last: exchange.Float(100)}, nil
}

func (f *fakeExchange) FetchTrades(ctx context.Context, symbol string, since int64, limit int, params exchange.Params) ([]*exchange.Trade, error) {
	return f.trades, nil
}

func (f *fakeExchange) StreamTickers(ctx context.Context, symbols []string, out chan<- *exchange.Ticker) error {
	for _, s := range symbols {
		out <- &exchange.Ticker{Symbol: s, Close: exchange.Float(99)}
	}
	<-ctx.Done()
	return ctx.Err()
}

func (f *fakeExchange) StreamTrades(ctx context.Context, symbols []string, out chan<- *exchange.Trade) error {
	for _, t := range f.trades {
		select {
		case out <- t:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	<-ctx.Done()
	return ctx.Err()
}

// memStore keeps committed data in memory.
type memStore struct {
	mu      sync.Mutex
	tickers []storage.Ticker
	trades  []storage.Trade
	commits int
}

func (m *memStore) CommitTickers(_ context.Context, data []storage.Ticker) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tickers = append(m.tickers, data...)
	m.commits++
	return nil
}

func (m *memStore) CommitTrades(_ context.Context, data []storage.Trade) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trades = append(m.trades, data...)
	m.commits++
	return nil
}

func (m *memStore) counts() (tickers, trades, commits int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tickers), len(m.trades), m.commits
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func runStart(ctx context.Context, ex exchange.Exchange, markets []config.Market, retry config.Retry, connCfg *config.Connection, stores map[string]storage.Store) <-chan error {
	done := make(chan error, 1)
	go func() {
		done <- Start(ctx, ex, markets, &retry, connCfg, stores)
	}()
	return done
}

func TestTradeCursor(t *testing.T) {
	c := tradeCursor{seen: make(map[string]struct{})}
	first := []*exchange.Trade{{ID: "1", Timestamp: 10}, {ID: "2", Timestamp: 20}, {ID: "3", Timestamp: 20}}
	if got := c.filter(first); len(got) != 3 {
		t.Fatalf("first poll = %d trades", len(got))
	}
	if c.since != 20 {
		t.Errorf("since = %d, want 20", c.since)
	}
	second := []*exchange.Trade{{ID: "2", Timestamp: 20}, {ID: "3", Timestamp: 20}, {ID: "4", Timestamp: 20}, {ID: "5", Timestamp: 30}}
	got := c.filter(second)
	if len(got) != 2 || got[0].ID != "4" || got[1].ID != "5" {
		t.Errorf("second poll = %v", got)
	}
	if got := c.filter([]*exchange.Trade{{ID: "0", Timestamp: 5}}); len(got) != 0 {
		t.Errorf("old trade passed: %v", got)
	}
}

func TestWsFilter(t *testing.T) {
	key := cfgLookupKey{market: "BTC/USD", channel: ChannelTicker}
	f := newWsFilter(map[cfgLookupKey]cfgLookupVal{key: {wsConsiderIntSec: 2}})
	now := time.Now()
	if _, ok := f.consider(key, now); !ok {
		t.Error("first frame dropped")
	}
	if _, ok := f.consider(key, now.Add(time.Second)); ok {
		t.Error("frame inside the interval passed")
	}
	if _, ok := f.consider(key, now.Add(2*time.Second)); !ok {
		t.Error("frame after the interval dropped")
	}
	if _, ok := f.consider(cfgLookupKey{market: "ETH/USD", channel: ChannelTicker}, now); ok {
		t.Error("unconfigured market passed")
	}
}

func TestRecordREST(t *testing.T) {
	f := newFake(t)
	mem := &memStore{}
	markets := []config.Market{{
		ID:         "BTC/USD",
		CommitName: "btc_usd",
		Info: []config.Info{
			{Channel: ChannelTicker, Connector: "rest", RESTPingIntSec: 1, Storages: []string{storage.TerminalName}},
			{Channel: ChannelTrade, Connector: "rest", RESTPingIntSec: 1, Storages: []string{storage.TerminalName}},
		},
	}}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := runStart(ctx, f, markets, config.Retry{}, &config.Connection{}, map[string]storage.Store{storage.TerminalName: mem})

	waitFor(t, 5*time.Second, func() bool {
		tickers, _, _ := mem.counts()
		return tickers >= 2
	})
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Start() error = %v, want context.Canceled", err)
	}

	mem.mu.Lock()
	defer mem.mu.Unlock()
	if len(mem.trades) != 2 {
		t.Errorf("trades = %d, duplicates were committed", len(mem.trades))
	}
	tk := mem.tickers[0]
	if tk.Exchange != "fake" || tk.MktID != "BTCUSD" || tk.MktCommitName != "btc_usd" || tk.Price != 100 ||
		!tk.Timestamp.Equal(time.Date(2021, 3, 1, 10, 0, 0, 0, time.UTC)) {
		t.Errorf("ticker = %+v", tk)
	}
	if tr := mem.trades[1]; tr.TradeID != "2" || tr.Side != "sell" || tr.Size != 2 || tr.Price != 101 {
		t.Errorf("trade = %+v", tr)
	}
}

func TestRecordWebsocket(t *testing.T) {
	f := newFake(t, exchange.CapStreamTickers, exchange.CapStreamTrades)
	mem := &memStore{}
	markets := []config.Market{{
		ID: "BTC/USD",
		Info: []config.Info{
			{Channel: ChannelTicker, Connector: "websocket", Storages: []string{storage.TerminalName}},
			{Channel: ChannelTrade, Connector: "websocket", Storages: []string{storage.TerminalName}},
		},
	}}
	connCfg := &config.Connection{Terminal: config.Terminal{TickerCommitBuf: 1, TradeCommitBuf: 2}}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := runStart(ctx, f, markets, config.Retry{}, connCfg, map[string]storage.Store{storage.TerminalName: mem})

	waitFor(t, 5*time.Second, func() bool {
		tickers, trades, _ := mem.counts()
		return tickers == 1 && trades == 2
	})
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Start() error = %v, want context.Canceled", err)
	}
	if _, _, commits := mem.counts(); commits != 2 {
		t.Errorf("commits = %d, want one ticker and one buffered trade batch", commits)
	}
	mem.mu.Lock()
	defer mem.mu.Unlock()
	if mem.tickers[0].Price != 99 || mem.tickers[0].MktCommitName != "BTC/USD" {
		t.Errorf("ticker = %+v", mem.tickers[0])
	}
}

func TestStreamNotDeclared(t *testing.T) {
	f := newFake(t)
	markets := []config.Market{{
		ID:   "BTC/USD",
		Info: []config.Info{{Channel: ChannelTrade, Connector: "websocket", Storages: []string{storage.TerminalName}}},
	}}
	r := newRecorder(f, &config.Connection{}, map[string]storage.Store{storage.TerminalName: &memStore{}})
	err := r.run(context.Background(), markets)
	if !errors.Is(err, exchange.NotSupported) {
		t.Errorf("run() error = %v, want NotSupported", err)
	}
}

func TestUnknownMarketOrStorage(t *testing.T) {
	f := newFake(t)
	stores := map[string]storage.Store{storage.TerminalName: &memStore{}}
	unknownMarket := []config.Market{{
		ID:   "DOGE/USD",
		Info: []config.Info{{Channel: ChannelTicker, Connector: "rest", RESTPingIntSec: 1, Storages: []string{storage.TerminalName}}},
	}}
	if err := newRecorder(f, &config.Connection{}, stores).run(context.Background(), unknownMarket); err == nil {
		t.Error("run() accepted an unknown market")
	}
	unknownStorage := []config.Market{{
		ID:   "BTC/USD",
		Info: []config.Info{{Channel: ChannelTicker, Connector: "rest", RESTPingIntSec: 1, Storages: []string{storage.MySQLName}}},
	}}
	if err := newRecorder(f, &config.Connection{}, stores).run(context.Background(), unknownStorage); err == nil {
		t.Error("run() accepted an uninitialized storage")
	}
}

func TestStartRetries(t *testing.T) {
	f := newFake(t)
	f.failMarkets = true
	markets := []config.Market{{
		ID:   "BTC/USD",
		Info: []config.Info{{Channel: ChannelTicker, Connector: "rest", RESTPingIntSec: 1, Storages: []string{storage.TerminalName}}},
	}}
	stores := map[string]storage.Store{storage.TerminalName: &memStore{}}

	err := Start(context.Background(), f, markets, &config.Retry{Number: 2}, &config.Connection{}, stores)
	if err == nil {
		t.Fatal("Start() succeeded with failing markets")
	}
	if got := atomic.LoadInt32(&f.marketCalls); got != 3 {
		t.Errorf("market calls = %d, want 3", got)
	}

	f.marketCalls = 0
	if err := Start(context.Background(), f, markets, &config.Retry{}, &config.Connection{}, stores); err == nil {
		t.Fatal("Start() without retry succeeded")
	}
	if got := atomic.LoadInt32(&f.marketCalls); got != 1 {
		t.Errorf("market calls without retry = %d, want 1", got)
	}
}
