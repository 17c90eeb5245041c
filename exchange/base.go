package exchange

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/milkywaybrain/goccxt/internal/config"
	"github.com/milkywaybrain/goccxt/internal/connector"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

var commonCurrencies = map[string]string{
	"XBT":    "BTC",
	"BCC":    "BCH",
	"DRK":    "DASH",
	"BCHABC": "BCH",
	"BCHSV":  "BSV",
}

// Base holds the state and generic behaviour shared by all exchange integrations.
// Concrete exchanges embed *Base, override the operations they support and call Bind
// so that derived operations dispatch to the overrides.
type Base struct {
	desc    *Description
	cfg     Config
	urls    map[string]string
	impl    Exchange
	rest    *connector.REST
	limiter *rate.Limiter

	mu          sync.RWMutex
	markets     map[string]*Market
	marketsByID map[string]*Market
	currencies  map[string]*Currency
	ids         []string
	symbols     []string
	loadGroup   singleflight.Group

	ordersMu sync.Mutex
	orders   map[string]*Order
	cancels  map[string]struct{}

	lastNonce int64
}

// NewBase validates the config and prepares the transport for the described exchange.
func NewBase(desc *Description, cfg Config) (*Base, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = desc.RateLimit
	}

	urls := make(map[string]string, len(desc.URLs))
	for k, v := range desc.URLs {
		urls[k] = v
	}
	for k, v := range cfg.URLs {
		urls[k] = v
	}

	b := &Base{
		desc: desc,
		cfg:  cfg,
		urls: urls,
		rest: connector.NewREST(&config.REST{
			ReqTimeoutMs:        cfg.Timeout,
			MaxIdleConns:        cfg.MaxIdleConns,
			MaxIdleConnsPerHost: cfg.MaxIdleConnsPerHost,
		}),
		orders:  make(map[string]*Order),
		cancels: make(map[string]struct{}),
	}
	if cfg.EnableRateLimit && cfg.RateLimit > 0 {
		b.limiter = rate.NewLimiter(rate.Every(time.Duration(cfg.RateLimit)*time.Millisecond), 1)
	}
	return b, nil
}

// Bind sets the concrete exchange that derived operations dispatch to.
func (b *Base) Bind(impl Exchange) {
	b.impl = impl
}

func (b *Base) self() Exchange {
	if b.impl == nil {
		return b
	}
	return b.impl
}

// ID returns the exchange id.
func (b *Base) ID() string { return b.desc.ID }

// Name returns the exchange display name.
func (b *Base) Name() string { return b.desc.Name }

// Describe returns the static exchange metadata.
func (b *Base) Describe() *Description { return b.desc }

// Has reports whether the exchange declares the capability.
func (b *Base) Has(c Capability) bool { return b.desc.Has[c] }

// Config returns the effective config.
func (b *Base) Config() *Config { return &b.cfg }

// URL returns the base url of the named API.
func (b *Base) URL(api string) string { return b.urls[api] }

// Nonce returns a strictly increasing millisecond based request token.
func (b *Base) Nonce() int64 {
	for {
		now := Milliseconds()
		last := atomic.LoadInt64(&b.lastNonce)
		if now <= last {
			now = last + 1
		}
		if atomic.CompareAndSwapInt64(&b.lastNonce, last, now) {
			return now
		}
	}
}

// Seconds returns the current unix time in seconds.
func (b *Base) Seconds() int64 { return Seconds() }

// Milliseconds returns the current unix time in milliseconds.
func (b *Base) Milliseconds() int64 { return Milliseconds() }

// Microseconds returns the current unix time in microseconds.
func (b *Base) Microseconds() int64 { return Microseconds() }

// CheckRequiredCredentials fails if a credential the exchange requires is missing.
func (b *Base) CheckRequiredCredentials() error {
	req := b.desc.RequiredCredentials
	switch {
	case req.APIKey && b.cfg.APIKey == "":
		return Errorf(AuthenticationError, "%s requires `apiKey`", b.desc.ID)
	case req.Secret && b.cfg.Secret == "":
		return Errorf(AuthenticationError, "%s requires `secret`", b.desc.ID)
	case req.Password && b.cfg.Password == "":
		return Errorf(AuthenticationError, "%s requires `password`", b.desc.ID)
	case req.UID && b.cfg.UID == "":
		return Errorf(AuthenticationError, "%s requires `uid`", b.desc.ID)
	}
	return nil
}

// CommonCurrencyCode maps legacy currency codes to their common names.
func (b *Base) CommonCurrencyCode(code string) string {
	if !b.cfg.substituteCodes() {
		return code
	}
	if common, ok := commonCurrencies[code]; ok {
		return common
	}
	return code
}

// Account returns an empty balance.
func (b *Base) Account() Balance {
	return Balance{}
}

func (b *Base) notSupported(method string) error {
	return Errorf(NotSupported, "%s %s() is not supported yet", b.desc.ID, method)
}

// LoadMarkets fetches markets once and caches them. Concurrent callers share one fetch,
// which is not canceled with the context of the caller that started it.
// The returned map must not be modified.
func (b *Base) LoadMarkets(ctx context.Context, reload bool) (map[string]*Market, error) {
	if !reload {
		b.mu.RLock()
		markets := b.markets
		b.mu.RUnlock()
		if markets != nil {
			return markets, nil
		}
	}
	shared := context.WithoutCancel(ctx)
	ch := b.loadGroup.DoChan("markets", func() (interface{}, error) {
		self := b.self()
		var currencies map[string]*Currency
		if b.Has(CapFetchCurrencies) {
			c, err := self.FetchCurrencies(shared, nil)
			if err != nil {
				return nil, err
			}
			currencies = c
		}
		markets, err := self.FetchMarkets(shared, nil)
		if err != nil {
			return nil, err
		}
		return b.SetMarkets(markets, currencies), nil
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(map[string]*Market), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// SetMarkets replaces the market cache. Currencies are derived from the markets
// when none are given.
func (b *Base) SetMarkets(markets []*Market, currencies map[string]*Currency) map[string]*Market {
	bySymbol := make(map[string]*Market, len(markets))
	byID := make(map[string]*Market, len(markets))
	for _, m := range markets {
		bySymbol[m.Symbol] = m
		byID[m.ID] = m
	}

	symbols := make([]string, 0, len(bySymbol))
	for s := range bySymbol {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)
	ids := make([]string, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	if len(currencies) == 0 {
		currencies = make(map[string]*Currency)
		for _, m := range markets {
			if _, ok := currencies[m.Base]; !ok && m.Base != "" {
				currencies[m.Base] = &Currency{ID: m.BaseID, Code: m.Base, Active: true, Precision: m.Precision.Amount}
			}
			if _, ok := currencies[m.Quote]; !ok && m.Quote != "" {
				currencies[m.Quote] = &Currency{ID: m.QuoteID, Code: m.Quote, Active: true, Precision: m.Precision.Price}
			}
		}
	}

	b.mu.Lock()
	b.markets = bySymbol
	b.marketsByID = byID
	b.currencies = currencies
	b.ids = ids
	b.symbols = symbols
	b.mu.Unlock()
	return bySymbol
}

// Markets returns the cached markets keyed by unified symbol.
func (b *Base) Markets() map[string]*Market {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.markets
}

// MarketsByID returns the cached markets keyed by exchange id.
func (b *Base) MarketsByID() map[string]*Market {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.marketsByID
}

// Currencies returns the cached currencies keyed by unified code.
func (b *Base) Currencies() map[string]*Currency {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.currencies
}

// IDs returns the sorted exchange market ids.
func (b *Base) IDs() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]string(nil), b.ids...)
}

// Symbols returns the sorted unified symbols.
func (b *Base) Symbols() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]string(nil), b.symbols...)
}

// Market resolves a unified symbol to its market.
func (b *Base) Market(symbol string) (*Market, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.markets == nil {
		return nil, Errorf(ExchangeError, "%s markets not loaded", b.desc.ID)
	}
	m, ok := b.markets[symbol]
	if !ok {
		return nil, Errorf(ExchangeError, "%s does not have market symbol %s", b.desc.ID, symbol)
	}
	return m, nil
}

// MarketByID resolves an exchange market id to its market.
func (b *Base) MarketByID(id string) (*Market, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.marketsByID == nil {
		return nil, Errorf(ExchangeError, "%s markets not loaded", b.desc.ID)
	}
	m, ok := b.marketsByID[id]
	if !ok {
		return nil, Errorf(ExchangeError, "%s does not have market id %s", b.desc.ID, id)
	}
	return m, nil
}

// MarketID resolves a unified symbol to the exchange market id.
func (b *Base) MarketID(symbol string) (string, error) {
	m, err := b.Market(symbol)
	if err != nil {
		return "", err
	}
	return m.ID, nil
}

// MarketIDs resolves unified symbols to exchange market ids.
func (b *Base) MarketIDs(symbols []string) ([]string, error) {
	ids := make([]string, 0, len(symbols))
	for _, s := range symbols {
		id, err := b.MarketID(s)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Symbol returns the unified symbol for either a unified symbol or an exchange market id.
func (b *Base) Symbol(symbolOrID string) (string, error) {
	if m, err := b.Market(symbolOrID); err == nil {
		return m.Symbol, nil
	}
	m, err := b.MarketByID(symbolOrID)
	if err != nil {
		return "", err
	}
	return m.Symbol, nil
}

// CacheOrder stores the order in the local order cache.
func (b *Base) CacheOrder(o *Order) {
	if o == nil || o.ID == "" {
		return
	}
	b.ordersMu.Lock()
	b.orders[o.ID] = o
	b.ordersMu.Unlock()
}

// CachedOrder returns an order of the local cache or an OrderNotCached error.
func (b *Base) CachedOrder(id string) (*Order, error) {
	b.ordersMu.Lock()
	defer b.ordersMu.Unlock()
	o, ok := b.orders[id]
	if !ok {
		return nil, Errorf(OrderNotCached, "%s order %s not found in cache", b.desc.ID, id)
	}
	return o, nil
}

// BeginCancel marks a cancellation in flight. It fails with CancelPending if one already is.
func (b *Base) BeginCancel(id string) error {
	b.ordersMu.Lock()
	defer b.ordersMu.Unlock()
	if _, ok := b.cancels[id]; ok {
		return Errorf(CancelPending, "%s order %s cancel already pending", b.desc.ID, id)
	}
	b.cancels[id] = struct{}{}
	return nil
}

// EndCancel clears the in flight mark set by BeginCancel.
func (b *Base) EndCancel(id string) {
	b.ordersMu.Lock()
	delete(b.cancels, id)
	b.ordersMu.Unlock()
}

// FetchMarkets fails with NotSupported unless the exchange implements it.
func (b *Base) FetchMarkets(ctx context.Context, params Params) ([]*Market, error) {
	return nil, b.notSupported("fetchMarkets")
}

// FetchCurrencies fails with NotSupported unless the exchange implements it.
func (b *Base) FetchCurrencies(ctx context.Context, params Params) (map[string]*Currency, error) {
	return nil, b.notSupported("fetchCurrencies")
}

// FetchTicker fails with NotSupported unless the exchange implements it.
func (b *Base) FetchTicker(ctx context.Context, symbol string, params Params) (*Ticker, error) {
	return nil, b.notSupported("fetchTicker")
}

// FetchTickers falls back to concurrent single ticker requests when the
// exchange has no bulk endpoint. Symbols are then required.
func (b *Base) FetchTickers(ctx context.Context, symbols []string, params Params) (Tickers, error) {
	if !b.Has(CapFetchTicker) || len(symbols) == 0 {
		return nil, b.notSupported("fetchTickers")
	}
	self := b.self()
	var mu sync.Mutex
	tickers := make(Tickers, len(symbols))
	g, gctx := errgroup.WithContext(ctx)
	for _, symbol := range symbols {
		symbol := symbol
		g.Go(func() error {
			t, err := self.FetchTicker(gctx, symbol, params)
			if err != nil {
				return err
			}
			mu.Lock()
			tickers[t.Symbol] = t
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return tickers, nil
}

// FetchOrderBook fails with NotSupported unless the exchange implements it.
func (b *Base) FetchOrderBook(ctx context.Context, symbol string, limit int, params Params) (*OrderBook, error) {
	return nil, b.notSupported("fetchOrderBook")
}

// FetchTrades fails with NotSupported unless the exchange implements it.
func (b *Base) FetchTrades(ctx context.Context, symbol string, since int64, limit int, params Params) ([]*Trade, error) {
	return nil, b.notSupported("fetchTrades")
}

// FetchOHLCV fails with NotSupported unless the exchange implements it.
func (b *Base) FetchOHLCV(ctx context.Context, symbol, timeframe string, since int64, limit int, params Params) ([]OHLCV, error) {
	return nil, b.notSupported("fetchOHLCV")
}

// FetchBalance fails with NotSupported unless the exchange implements it.
func (b *Base) FetchBalance(ctx context.Context, params Params) (*Balances, error) {
	return nil, b.notSupported("fetchBalance")
}

// FetchTotalBalance projects the total amounts of FetchBalance.
func (b *Base) FetchTotalBalance(ctx context.Context, params Params) (PartialBalances, error) {
	bal, err := b.self().FetchBalance(ctx, params)
	if err != nil {
		return nil, err
	}
	return bal.Total, nil
}

// FetchUsedBalance projects the used amounts of FetchBalance.
func (b *Base) FetchUsedBalance(ctx context.Context, params Params) (PartialBalances, error) {
	bal, err := b.self().FetchBalance(ctx, params)
	if err != nil {
		return nil, err
	}
	return bal.Used, nil
}

// FetchFreeBalance projects the free amounts of FetchBalance.
func (b *Base) FetchFreeBalance(ctx context.Context, params Params) (PartialBalances, error) {
	bal, err := b.self().FetchBalance(ctx, params)
	if err != nil {
		return nil, err
	}
	return bal.Free, nil
}

// FetchOrder fails with NotSupported unless the exchange implements it.
func (b *Base) FetchOrder(ctx context.Context, id, symbol string, params Params) (*Order, error) {
	return nil, b.notSupported("fetchOrder")
}

// FetchOrders fails with NotSupported unless the exchange implements it.
func (b *Base) FetchOrders(ctx context.Context, symbol string, since int64, limit int, params Params) ([]*Order, error) {
	return nil, b.notSupported("fetchOrders")
}

// FetchOpenOrders filters FetchOrders by open status.
func (b *Base) FetchOpenOrders(ctx context.Context, symbol string, since int64, limit int, params Params) ([]*Order, error) {
	if !b.Has(CapFetchOrders) {
		return nil, b.notSupported("fetchOpenOrders")
	}
	return b.filterOrders(ctx, StatusOpen, symbol, since, limit, params)
}

// FetchClosedOrders filters FetchOrders by closed status.
func (b *Base) FetchClosedOrders(ctx context.Context, symbol string, since int64, limit int, params Params) ([]*Order, error) {
	if !b.Has(CapFetchOrders) {
		return nil, b.notSupported("fetchClosedOrders")
	}
	return b.filterOrders(ctx, StatusClosed, symbol, since, limit, params)
}

func (b *Base) filterOrders(ctx context.Context, status OrderStatus, symbol string, since int64, limit int, params Params) ([]*Order, error) {
	orders, err := b.self().FetchOrders(ctx, symbol, since, limit, params)
	if err != nil {
		return nil, err
	}
	filtered := make([]*Order, 0, len(orders))
	for _, o := range orders {
		if o.Status == status {
			filtered = append(filtered, o)
		}
	}
	return filtered, nil
}

// CreateOrder fails with NotSupported unless the exchange implements it.
func (b *Base) CreateOrder(ctx context.Context, symbol string, typ OrderType, side Side, amount float64, price *float64, params Params) (*Order, error) {
	return nil, b.notSupported("createOrder")
}

// CancelOrder fails with NotSupported unless the exchange implements it.
func (b *Base) CancelOrder(ctx context.Context, id, symbol string, params Params) (*Order, error) {
	return nil, b.notSupported("cancelOrder")
}

// FetchOrderStatus asks the exchange when it can fetch single orders,
// otherwise it answers from the local order cache.
func (b *Base) FetchOrderStatus(ctx context.Context, id, symbol string) (OrderStatus, error) {
	if b.Has(CapFetchOrder) {
		o, err := b.self().FetchOrder(ctx, id, symbol, nil)
		if err != nil {
			return "", err
		}
		return o.Status, nil
	}
	o, err := b.CachedOrder(id)
	if err != nil {
		return "", err
	}
	return o.Status, nil
}

// CreateDepositAddress fails with NotSupported unless the exchange implements it.
func (b *Base) CreateDepositAddress(ctx context.Context, currency string, params Params) (*DepositAddress, error) {
	return nil, b.notSupported("createDepositAddress")
}

// FetchDepositAddress fails with NotSupported unless the exchange implements it.
func (b *Base) FetchDepositAddress(ctx context.Context, currency string, params Params) (*DepositAddress, error) {
	return nil, b.notSupported("fetchDepositAddress")
}

// Withdraw fails with NotSupported unless the exchange implements it.
func (b *Base) Withdraw(ctx context.Context, currency string, amount float64, address, tag string, params Params) (*WithdrawalResponse, error) {
	return nil, b.notSupported("withdraw")
}

// FetchDeposits fails with NotSupported unless the exchange implements it.
func (b *Base) FetchDeposits(ctx context.Context, currency string, since int64, limit int, params Params) ([]*Transaction, error) {
	return nil, b.notSupported("fetchDeposits")
}

// FetchWithdrawals fails with NotSupported unless the exchange implements it.
func (b *Base) FetchWithdrawals(ctx context.Context, currency string, since int64, limit int, params Params) ([]*Transaction, error) {
	return nil, b.notSupported("fetchWithdrawals")
}

// FetchTransactions merges deposits and withdrawals sorted by timestamp.
func (b *Base) FetchTransactions(ctx context.Context, currency string, since int64, limit int, params Params) ([]*Transaction, error) {
	if !b.Has(CapFetchDeposits) || !b.Has(CapFetchWithdrawals) {
		return nil, b.notSupported("fetchTransactions")
	}
	self := b.self()
	var deposits, withdrawals []*Transaction
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		deposits, err = self.FetchDeposits(gctx, currency, since, limit, params)
		return err
	})
	g.Go(func() error {
		var err error
		withdrawals, err = self.FetchWithdrawals(gctx, currency, since, limit, params)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	txs := append(deposits, withdrawals...)
	sort.SliceStable(txs, func(i, j int) bool { return txs[i].Timestamp < txs[j].Timestamp })
	if limit > 0 && len(txs) > limit {
		txs = txs[len(txs)-limit:]
	}
	return txs, nil
}
