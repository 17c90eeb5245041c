package binance

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/milkywaybrain/goccxt/exchange"
	"github.com/rs/zerolog/log"
)

// FetchBalance returns the spot account balances.
func (b *Binance) FetchBalance(ctx context.Context, params exchange.Params) (*exchange.Balances, error) {
	body, err := b.request(ctx, apiPrivate, http.MethodGet, "account", params, true)
	if err != nil {
		return nil, err
	}
	ra := struct {
		Balances []struct {
			Asset  string `json:"asset"`
			Free   string `json:"free"`
			Locked string `json:"locked"`
		} `json:"balances"`
	}{}
	if err := jsoniter.Unmarshal(body, &ra); err != nil {
		return nil, exchange.Errorf(exchange.ExchangeError, "binance account: %v", err)
	}
	accounts := make(map[string]exchange.Balance, len(ra.Balances))
	for _, rb := range ra.Balances {
		acc := b.Account()
		if acc.Free, err = exchange.ParseFloat(rb.Free); err != nil {
			return nil, err
		}
		if acc.Used, err = exchange.ParseFloat(rb.Locked); err != nil {
			return nil, err
		}
		accounts[b.CommonCurrencyCode(rb.Asset)] = acc
	}
	return exchange.NewBalances(body, accounts), nil
}

func (b *Binance) requireSymbol(method, symbol string) (*exchange.Market, error) {
	if symbol == "" {
		return nil, exchange.Errorf(exchange.ExchangeError, "binance %s requires a symbol argument", method)
	}
	return b.Market(symbol)
}

// FetchOrder returns an order by its id.
func (b *Binance) FetchOrder(ctx context.Context, id, symbol string, params exchange.Params) (*exchange.Order, error) {
	if _, err := b.LoadMarkets(ctx, false); err != nil {
		return nil, err
	}
	m, err := b.requireSymbol("fetchOrder", symbol)
	if err != nil {
		return nil, err
	}
	query := exchange.Params{"symbol": m.ID}
	if cid, ok := params["origClientOrderId"]; ok {
		query["origClientOrderId"] = cid
	} else {
		query["orderId"] = id
	}
	body, err := b.request(ctx, apiPrivate, http.MethodGet, "order", exchange.Extend(query, exchange.Omit(params, "origClientOrderId")), true)
	if err != nil {
		return nil, err
	}
	o, _, err := b.parseOrder(body)
	if err != nil {
		return nil, err
	}
	b.CacheOrder(o)
	return o, nil
}

func (b *Binance) fetchOrderList(ctx context.Context, path, method, symbol string, since int64, limit int, params exchange.Params) ([]*exchange.Order, error) {
	if _, err := b.LoadMarkets(ctx, false); err != nil {
		return nil, err
	}
	m, err := b.requireSymbol(method, symbol)
	if err != nil {
		return nil, err
	}
	query := exchange.Params{"symbol": m.ID}
	if since > 0 {
		query["startTime"] = since
	}
	if limit > 0 {
		query["limit"] = limit
	}
	body, err := b.request(ctx, apiPrivate, http.MethodGet, path, exchange.Extend(query, params), true)
	if err != nil {
		return nil, err
	}
	var raws []jsoniter.RawMessage
	if err := jsoniter.Unmarshal(body, &raws); err != nil {
		return nil, exchange.Errorf(exchange.ExchangeError, "binance %s: %v", path, err)
	}
	orders := make([]*exchange.Order, 0, len(raws))
	for _, raw := range raws {
		o, _, err := b.parseOrder(raw)
		if err != nil {
			return nil, err
		}
		b.CacheOrder(o)
		orders = append(orders, o)
	}
	return orders, nil
}

// FetchOrders returns all orders of a market.
func (b *Binance) FetchOrders(ctx context.Context, symbol string, since int64, limit int, params exchange.Params) ([]*exchange.Order, error) {
	return b.fetchOrderList(ctx, "allOrders", "fetchOrders", symbol, since, limit, params)
}

// FetchOpenOrders returns the open orders of a market.
func (b *Binance) FetchOpenOrders(ctx context.Context, symbol string, since int64, limit int, params exchange.Params) ([]*exchange.Order, error) {
	return b.fetchOrderList(ctx, "openOrders", "fetchOpenOrders", symbol, 0, 0, params)
}

// CreateOrder places an order. Limit orders require a price and default to good till canceled.
func (b *Binance) CreateOrder(ctx context.Context, symbol string, typ exchange.OrderType, side exchange.Side, amount float64, price *float64, params exchange.Params) (*exchange.Order, error) {
	if !typ.Valid() {
		return nil, exchange.Errorf(exchange.InvalidOrder, "binance invalid order type %q", typ)
	}
	if !side.Valid() {
		return nil, exchange.Errorf(exchange.InvalidOrder, "binance invalid order side %q", side)
	}
	if amount <= 0 {
		return nil, exchange.Errorf(exchange.InvalidOrder, "binance order amount must be positive, got %v", amount)
	}
	if typ == exchange.TypeLimit && price == nil {
		return nil, exchange.NewError(exchange.InvalidOrder, "binance limit order requires a price")
	}
	if _, err := b.LoadMarkets(ctx, false); err != nil {
		return nil, err
	}
	m, err := b.Market(symbol)
	if err != nil {
		return nil, err
	}
	qty, err := b.AmountToPrecision(symbol, amount)
	if err != nil {
		return nil, err
	}

	clientID, ok := params["clientOrderId"].(string)
	if !ok || clientID == "" {
		clientID = uuid.New().String()
	}
	query := exchange.Params{
		"symbol":           m.ID,
		"side":             strings.ToUpper(string(side)),
		"type":             strings.ToUpper(string(typ)),
		"quantity":         qty,
		"newClientOrderId": clientID,
		"newOrderRespType": "FULL",
	}
	if typ == exchange.TypeLimit {
		p, err := b.PriceToPrecision(symbol, *price)
		if err != nil {
			return nil, err
		}
		query["price"] = p
		query["timeInForce"] = "GTC"
	}
	body, err := b.request(ctx, apiPrivate, http.MethodPost, "order", exchange.Extend(query, exchange.Omit(params, "clientOrderId")), true)
	if err != nil {
		return nil, err
	}
	o, _, err := b.parseOrder(body)
	if err != nil {
		return nil, err
	}
	b.CacheOrder(o)
	return o, nil
}

// CancelOrder cancels an open order. A cancel reply still pending on the
// exchange side fails with CancelPending.
func (b *Binance) CancelOrder(ctx context.Context, id, symbol string, params exchange.Params) (*exchange.Order, error) {
	if _, err := b.LoadMarkets(ctx, false); err != nil {
		return nil, err
	}
	m, err := b.requireSymbol("cancelOrder", symbol)
	if err != nil {
		return nil, err
	}
	if err := b.BeginCancel(id); err != nil {
		return nil, err
	}
	defer b.EndCancel(id)

	query := exchange.Params{"symbol": m.ID, "orderId": id}
	body, err := b.request(ctx, apiPrivate, http.MethodDelete, "order", exchange.Extend(query, params), true)
	if err != nil {
		return nil, err
	}
	o, status, err := b.parseOrder(body)
	if err != nil {
		return nil, err
	}
	b.CacheOrder(o)
	if status == "PENDING_CANCEL" {
		return o, exchange.Errorf(exchange.CancelPending, "binance order %s cancel is pending", id)
	}
	return o, nil
}

func (b *Binance) currencyID(code string) string {
	if c, ok := b.Currencies()[code]; ok {
		return c.ID
	}
	return code
}

type restDepositAddress struct {
	Coin    string `json:"coin"`
	Address string `json:"address"`
	Tag     string `json:"tag"`
}

// FetchDepositAddress returns the deposit address of a currency.
func (b *Binance) FetchDepositAddress(ctx context.Context, currency string, params exchange.Params) (*exchange.DepositAddress, error) {
	if _, err := b.LoadMarkets(ctx, false); err != nil {
		return nil, err
	}
	query := exchange.Params{"coin": b.currencyID(currency)}
	body, err := b.request(ctx, apiSAPI, http.MethodGet, "capital/deposit/address", exchange.Extend(query, params), true)
	if err != nil {
		return nil, err
	}
	ra := restDepositAddress{}
	if err := jsoniter.Unmarshal(body, &ra); err != nil {
		return nil, exchange.Errorf(exchange.ExchangeError, "binance deposit address: %v", err)
	}
	if ra.Address == "" {
		return nil, exchange.Errorf(exchange.ExchangeError, "binance has no deposit address for %s", currency)
	}
	return &exchange.DepositAddress{
		Currency: currency,
		Address:  ra.Address,
		Tag:      ra.Tag,
		Status:   "ok",
		Info:     body,
	}, nil
}

// CreateDepositAddress returns the deposit address of a currency. Binance
// generates an address on first request.
func (b *Binance) CreateDepositAddress(ctx context.Context, currency string, params exchange.Params) (*exchange.DepositAddress, error) {
	return b.FetchDepositAddress(ctx, currency, params)
}

// Withdraw requests a withdrawal to the given address. The tag is sent when not empty.
func (b *Binance) Withdraw(ctx context.Context, currency string, amount float64, address, tag string, params exchange.Params) (*exchange.WithdrawalResponse, error) {
	if address == "" {
		return nil, exchange.NewError(exchange.ExchangeError, "binance withdraw requires an address")
	}
	if _, err := b.LoadMarkets(ctx, false); err != nil {
		return nil, err
	}
	query := exchange.Params{
		"coin":    b.currencyID(currency),
		"address": address,
		"amount":  amount,
	}
	if tag != "" {
		query["addressTag"] = tag
	}
	body, err := b.request(ctx, apiSAPI, http.MethodPost, "capital/withdraw/apply", exchange.Extend(query, params), true)
	if err != nil {
		return nil, err
	}
	rw := struct {
		ID string `json:"id"`
	}{}
	if err := jsoniter.Unmarshal(body, &rw); err != nil {
		return nil, exchange.Errorf(exchange.ExchangeError, "binance withdraw: %v", err)
	}
	return &exchange.WithdrawalResponse{ID: rw.ID, Info: body}, nil
}

func (b *Binance) historyQuery(currency string, since int64, limit int) exchange.Params {
	query := exchange.Params{}
	if currency != "" {
		query["coin"] = b.currencyID(currency)
	}
	if since > 0 {
		query["startTime"] = since
	}
	if limit > 0 {
		query["limit"] = limit
	}
	return query
}

// FetchDeposits returns the deposit history, optionally of one currency.
func (b *Binance) FetchDeposits(ctx context.Context, currency string, since int64, limit int, params exchange.Params) ([]*exchange.Transaction, error) {
	if _, err := b.LoadMarkets(ctx, false); err != nil {
		return nil, err
	}
	body, err := b.request(ctx, apiSAPI, http.MethodGet, "capital/deposit/hisrec", exchange.Extend(b.historyQuery(currency, since, limit), params), true)
	if err != nil {
		return nil, err
	}
	var raws []jsoniter.RawMessage
	if err := jsoniter.Unmarshal(body, &raws); err != nil {
		return nil, exchange.Errorf(exchange.ExchangeError, "binance deposits: %v", err)
	}
	txs := make([]*exchange.Transaction, 0, len(raws))
	for _, raw := range raws {
		tx, err := b.parseDeposit(raw)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

// FetchWithdrawals returns the withdrawal history, optionally of one currency.
// Canceled, rejected and failed withdrawals are left out.
func (b *Binance) FetchWithdrawals(ctx context.Context, currency string, since int64, limit int, params exchange.Params) ([]*exchange.Transaction, error) {
	if _, err := b.LoadMarkets(ctx, false); err != nil {
		return nil, err
	}
	body, err := b.request(ctx, apiSAPI, http.MethodGet, "capital/withdraw/history", exchange.Extend(b.historyQuery(currency, since, limit), params), true)
	if err != nil {
		return nil, err
	}
	var raws []jsoniter.RawMessage
	if err := jsoniter.Unmarshal(body, &raws); err != nil {
		return nil, exchange.Errorf(exchange.ExchangeError, "binance withdrawals: %v", err)
	}
	txs := make([]*exchange.Transaction, 0, len(raws))
	for _, raw := range raws {
		tx, ok, err := b.parseWithdrawal(raw)
		if err != nil {
			return nil, err
		}
		if !ok {
			log.Debug().Str("exchange", b.ID()).RawJSON("withdrawal", raw).Msg("skipping withdrawal without transaction status")
			continue
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

// FetchMyTrades returns the account trades of a market.
func (b *Binance) FetchMyTrades(ctx context.Context, symbol string, since int64, limit int, params exchange.Params) ([]*exchange.Trade, error) {
	if _, err := b.LoadMarkets(ctx, false); err != nil {
		return nil, err
	}
	m, err := b.requireSymbol("fetchMyTrades", symbol)
	if err != nil {
		return nil, err
	}
	query := exchange.Params{"symbol": m.ID}
	if since > 0 {
		query["startTime"] = since
	}
	if limit > 0 {
		query["limit"] = limit
	}
	body, err := b.request(ctx, apiPrivate, http.MethodGet, "myTrades", exchange.Extend(query, params), true)
	if err != nil {
		return nil, err
	}
	var raws []jsoniter.RawMessage
	if err := jsoniter.Unmarshal(body, &raws); err != nil {
		return nil, exchange.Errorf(exchange.ExchangeError, "binance myTrades: %v", err)
	}
	trades := make([]*exchange.Trade, 0, len(raws))
	for _, raw := range raws {
		t, err := b.parseMyTrade(raw, m.Symbol)
		if err != nil {
			return nil, err
		}
		trades = append(trades, t)
	}
	return trades, nil
}
