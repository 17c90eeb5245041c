package binance

import (
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/milkywaybrain/goccxt/exchange"
)

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

type restMarket struct {
	Symbol              string       `json:"symbol"`
	Status              string       `json:"status"`
	BaseAsset           string       `json:"baseAsset"`
	BaseAssetPrecision  int          `json:"baseAssetPrecision"`
	QuoteAsset          string       `json:"quoteAsset"`
	QuotePrecision      int          `json:"quotePrecision"`
	QuoteAssetPrecision int          `json:"quoteAssetPrecision"`
	Filters             []restFilter `json:"filters"`
}

type restFilter struct {
	FilterType  string `json:"filterType"`
	MinPrice    string `json:"minPrice"`
	MaxPrice    string `json:"maxPrice"`
	TickSize    string `json:"tickSize"`
	MinQty      string `json:"minQty"`
	MaxQty      string `json:"maxQty"`
	StepSize    string `json:"stepSize"`
	MinNotional string `json:"minNotional"`
	MaxNotional string `json:"maxNotional"`
}

func (b *Binance) parseMarket(raw jsoniter.RawMessage) (*exchange.Market, error) {
	rm := restMarket{}
	if err := jsoniter.Unmarshal(raw, &rm); err != nil {
		return nil, exchange.Errorf(exchange.ExchangeError, "binance market: %v", err)
	}
	base := b.CommonCurrencyCode(rm.BaseAsset)
	quote := b.CommonCurrencyCode(rm.QuoteAsset)
	fees := b.Describe().Fees
	m := &exchange.Market{
		ID:      rm.Symbol,
		Symbol:  base + "/" + quote,
		Base:    base,
		Quote:   quote,
		BaseID:  rm.BaseAsset,
		QuoteID: rm.QuoteAsset,
		Active:  rm.Status == "TRADING",
		Taker:   fees.Taker,
		Maker:   fees.Maker,
		Precision: exchange.Precision{
			Amount: rm.BaseAssetPrecision,
			Price:  rm.QuotePrecision,
			Cost:   rm.QuoteAssetPrecision,
		},
		Info: raw,
	}
	for _, f := range rm.Filters {
		var err error
		switch f.FilterType {
		case "PRICE_FILTER":
			if m.Limits.Price.Min, err = exchange.ParseFloat(f.MinPrice); err != nil {
				return nil, err
			}
			if m.Limits.Price.Max, err = exchange.ParseFloat(f.MaxPrice); err != nil {
				return nil, err
			}
			if f.TickSize != "" {
				m.Precision.Price = exchange.PrecisionFromString(f.TickSize)
			}
		case "LOT_SIZE":
			if m.Limits.Amount.Min, err = exchange.ParseFloat(f.MinQty); err != nil {
				return nil, err
			}
			if m.Limits.Amount.Max, err = exchange.ParseFloat(f.MaxQty); err != nil {
				return nil, err
			}
			if f.StepSize != "" {
				m.Precision.Amount = exchange.PrecisionFromString(f.StepSize)
			}
		case "MIN_NOTIONAL", "NOTIONAL":
			cost := exchange.MinMax{}
			if cost.Min, err = exchange.ParseFloat(f.MinNotional); err != nil {
				return nil, err
			}
			if cost.Max, err = exchange.ParseFloat(f.MaxNotional); err != nil {
				return nil, err
			}
			m.Limits.Cost = &cost
		}
	}
	return m, nil
}

type restTicker struct {
	Symbol             string `json:"symbol"`
	PriceChange        string `json:"priceChange"`
	PriceChangePercent string `json:"priceChangePercent"`
	WeightedAvgPrice   string `json:"weightedAvgPrice"`
	PrevClosePrice     string `json:"prevClosePrice"`
	LastPrice          string `json:"lastPrice"`
	BidPrice           string `json:"bidPrice"`
	BidQty             string `json:"bidQty"`
	AskPrice           string `json:"askPrice"`
	AskQty             string `json:"askQty"`
	OpenPrice          string `json:"openPrice"`
	HighPrice          string `json:"highPrice"`
	LowPrice           string `json:"lowPrice"`
	Volume             string `json:"volume"`
	QuoteVolume        string `json:"quoteVolume"`
	CloseTime          int64  `json:"closeTime"`
}

// tickerValues holds the string fields shared by the REST and websocket tickers.
type tickerValues struct {
	change, percentage, vwap, prevClose, last, bid, bidQty, ask, askQty, open, high, low, baseVol, quoteVol string
}

func (b *Binance) parseTicker(raw jsoniter.RawMessage) (*exchange.Ticker, error) {
	rt := restTicker{}
	if err := jsoniter.Unmarshal(raw, &rt); err != nil {
		return nil, exchange.Errorf(exchange.ExchangeError, "binance ticker: %v", err)
	}
	return b.newTicker(raw, rt.Symbol, rt.CloseTime, tickerValues{
		change: rt.PriceChange, percentage: rt.PriceChangePercent, vwap: rt.WeightedAvgPrice,
		prevClose: rt.PrevClosePrice, last: rt.LastPrice, bid: rt.BidPrice, bidQty: rt.BidQty,
		ask: rt.AskPrice, askQty: rt.AskQty, open: rt.OpenPrice, high: rt.HighPrice, low: rt.LowPrice,
		baseVol: rt.Volume, quoteVol: rt.QuoteVolume,
	})
}

func (b *Binance) newTicker(raw jsoniter.RawMessage, marketID string, timestamp int64, v tickerValues) (*exchange.Ticker, error) {
	symbol := marketID
	if m, err := b.MarketByID(marketID); err == nil {
		symbol = m.Symbol
	}

	var required [3]float64
	for i, s := range []string{v.high, v.low, v.bid} {
		f, err := exchange.ParseFloat(s)
		if err != nil {
			return nil, err
		}
		required[i] = f
	}
	ask, err := exchange.ParseFloat(v.ask)
	if err != nil {
		return nil, err
	}

	t := &exchange.Ticker{
		Symbol:    symbol,
		Info:      raw,
		Timestamp: timestamp,
		Datetime:  exchange.ISO8601(timestamp),
		High:      required[0],
		Low:       required[1],
		Bid:       required[2],
		Ask:       ask,
	}
	for _, o := range []struct {
		dst **float64
		s   string
	}{
		{&t.BidVolume, v.bidQty}, {&t.AskVolume, v.askQty}, {&t.VWAP, v.vwap},
		{&t.Open, v.open}, {&t.Last, v.last}, {&t.PreviousClose, v.prevClose},
		{&t.Change, v.change}, {&t.Percentage, v.percentage},
		{&t.BaseVolume, v.baseVol}, {&t.QuoteVolume, v.quoteVol},
	} {
		if *o.dst, err = exchange.ParseOptionalFloat(o.s); err != nil {
			return nil, err
		}
	}
	if t.Last != nil {
		t.Close = exchange.Float(*t.Last)
	}
	if t.Open != nil && t.Last != nil {
		t.Average = exchange.Float((*t.Open + *t.Last) / 2)
	}
	return t, nil
}

type restAggTrade struct {
	ID           int64  `json:"a"`
	Price        string `json:"p"`
	Qty          string `json:"q"`
	Time         int64  `json:"T"`
	IsBuyerMaker bool   `json:"m"`

	// Keeps the case insensitive decoder from binding "M" to IsBuyerMaker.
	IsBestMatch bool `json:"M"`
}

type restMyTrade struct {
	ID              int64  `json:"id"`
	OrderID         int64  `json:"orderId"`
	Price           string `json:"price"`
	Qty             string `json:"qty"`
	Commission      string `json:"commission"`
	CommissionAsset string `json:"commissionAsset"`
	Time            int64  `json:"time"`
	IsBuyer         bool   `json:"isBuyer"`
	IsMaker         bool   `json:"isMaker"`
}

// tradeSide derives the taker side of a public trade. The buyer being
// the maker means the taker sold.
func tradeSide(isBuyerMaker bool) exchange.Side {
	if isBuyerMaker {
		return exchange.SideSell
	}
	return exchange.SideBuy
}

func (b *Binance) newTrade(raw jsoniter.RawMessage, id int64, symbol, price, qty string, timestamp int64, side exchange.Side) (*exchange.Trade, error) {
	p, err := exchange.ParseFloat(price)
	if err != nil {
		return nil, err
	}
	a, err := exchange.ParseFloat(qty)
	if err != nil {
		return nil, err
	}
	return &exchange.Trade{
		ID:        formatID(id),
		Info:      raw,
		Timestamp: timestamp,
		Datetime:  exchange.ISO8601(timestamp),
		Symbol:    symbol,
		Side:      side,
		Price:     p,
		Amount:    a,
		Cost:      p * a,
	}, nil
}

func (b *Binance) parseAggTrade(raw jsoniter.RawMessage, symbol string) (*exchange.Trade, error) {
	rt := restAggTrade{}
	if err := jsoniter.Unmarshal(raw, &rt); err != nil {
		return nil, exchange.Errorf(exchange.ExchangeError, "binance trade: %v", err)
	}
	return b.newTrade(raw, rt.ID, symbol, rt.Price, rt.Qty, rt.Time, tradeSide(rt.IsBuyerMaker))
}

func (b *Binance) parseMyTrade(raw jsoniter.RawMessage, symbol string) (*exchange.Trade, error) {
	rt := restMyTrade{}
	if err := jsoniter.Unmarshal(raw, &rt); err != nil {
		return nil, exchange.Errorf(exchange.ExchangeError, "binance trade: %v", err)
	}
	side := exchange.SideSell
	if rt.IsBuyer {
		side = exchange.SideBuy
	}
	t, err := b.newTrade(raw, rt.ID, symbol, rt.Price, rt.Qty, rt.Time, side)
	if err != nil {
		return nil, err
	}
	t.Order = formatID(rt.OrderID)
	t.TakerOrMaker = exchange.Taker
	if rt.IsMaker {
		t.TakerOrMaker = exchange.Maker
	}
	if rt.CommissionAsset != "" {
		cost, err := exchange.ParseFloat(rt.Commission)
		if err != nil {
			return nil, err
		}
		t.Fee = &exchange.Fee{Type: t.TakerOrMaker, Currency: b.CommonCurrencyCode(rt.CommissionAsset), Cost: cost}
	}
	return t, nil
}

type restOrder struct {
	Symbol              string                `json:"symbol"`
	OrderID             int64                 `json:"orderId"`
	ClientOrderID       string                `json:"clientOrderId"`
	Price               string                `json:"price"`
	OrigQty             string                `json:"origQty"`
	ExecutedQty         string                `json:"executedQty"`
	CummulativeQuoteQty string                `json:"cummulativeQuoteQty"`
	Status              string                `json:"status"`
	Type                string                `json:"type"`
	Side                string                `json:"side"`
	Time                int64                 `json:"time"`
	UpdateTime          int64                 `json:"updateTime"`
	TransactTime        int64                 `json:"transactTime"`
	Fills               []jsoniter.RawMessage `json:"fills"`
}

type restFill struct {
	Price           string `json:"price"`
	Qty             string `json:"qty"`
	Commission      string `json:"commission"`
	CommissionAsset string `json:"commissionAsset"`
	TradeID         int64  `json:"tradeId"`
}

// orderStatus maps binance order statuses. A pending cancel is still open.
func orderStatus(s string) exchange.OrderStatus {
	switch s {
	case "FILLED":
		return exchange.StatusClosed
	case "CANCELED", "REJECTED", "EXPIRED", "EXPIRED_IN_MATCH":
		return exchange.StatusCanceled
	}
	return exchange.StatusOpen
}

func orderType(s string) exchange.OrderType {
	switch s {
	case "MARKET", "STOP_LOSS", "TAKE_PROFIT":
		return exchange.TypeMarket
	}
	return exchange.TypeLimit
}

func (b *Binance) parseOrder(raw jsoniter.RawMessage) (*exchange.Order, string, error) {
	ro := restOrder{}
	if err := jsoniter.Unmarshal(raw, &ro); err != nil {
		return nil, "", exchange.Errorf(exchange.ExchangeError, "binance order: %v", err)
	}
	symbol := ro.Symbol
	if m, err := b.MarketByID(ro.Symbol); err == nil {
		symbol = m.Symbol
	}

	var nums [4]float64
	for i, s := range []string{ro.Price, ro.OrigQty, ro.ExecutedQty, ro.CummulativeQuoteQty} {
		f, err := exchange.ParseFloat(s)
		if err != nil {
			return nil, "", err
		}
		nums[i] = f
	}
	price, amount, filled, cost := nums[0], nums[1], nums[2], nums[3]

	timestamp := ro.Time
	if timestamp == 0 {
		timestamp = ro.TransactTime
	}
	o := &exchange.Order{
		ID:                 formatID(ro.OrderID),
		ClientOrderID:      ro.ClientOrderID,
		Timestamp:          timestamp,
		Datetime:           exchange.ISO8601(timestamp),
		LastTradeTimestamp: ro.UpdateTime,
		Status:             orderStatus(ro.Status),
		Symbol:             symbol,
		Type:               orderType(ro.Type),
		Side:               exchange.Side(strings.ToLower(ro.Side)),
		Price:              price,
		Amount:             amount,
		Filled:             filled,
		Remaining:          amount - filled,
		Cost:               cost,
		Info:               raw,
	}
	if filled > 0 {
		o.Average = cost / filled
		if o.Price == 0 {
			o.Price = o.Average
		}
	}

	var feeCost float64
	feeCurrency := ""
	singleFeeCurrency := true
	for _, fill := range ro.Fills {
		f := restFill{}
		if err := jsoniter.Unmarshal(fill, &f); err != nil {
			return nil, "", exchange.Errorf(exchange.ExchangeError, "binance order fill: %v", err)
		}
		t, err := b.newTrade(fill, f.TradeID, symbol, f.Price, f.Qty, timestamp, o.Side)
		if err != nil {
			return nil, "", err
		}
		t.Order = o.ID
		t.Type = o.Type
		t.TakerOrMaker = exchange.Taker
		commission, err := exchange.ParseFloat(f.Commission)
		if err != nil {
			return nil, "", err
		}
		code := b.CommonCurrencyCode(f.CommissionAsset)
		t.Fee = &exchange.Fee{Type: exchange.Taker, Currency: code, Cost: commission}
		if feeCurrency == "" {
			feeCurrency = code
		} else if feeCurrency != code {
			singleFeeCurrency = false
		}
		feeCost += commission
		o.Trades = append(o.Trades, t)
	}
	if len(ro.Fills) > 0 && singleFeeCurrency {
		o.Fee = &exchange.Fee{Currency: feeCurrency, Cost: feeCost}
	}
	if err := o.Validate(); err != nil {
		return nil, "", err
	}
	return o, ro.Status, nil
}

type restDeposit struct {
	ID         string `json:"id"`
	Amount     string `json:"amount"`
	Coin       string `json:"coin"`
	Status     int    `json:"status"`
	Address    string `json:"address"`
	AddressTag string `json:"addressTag"`
	TxID       string `json:"txId"`
	InsertTime int64  `json:"insertTime"`
}

type restWithdrawal struct {
	ID             string `json:"id"`
	Amount         string `json:"amount"`
	TransactionFee string `json:"transactionFee"`
	Coin           string `json:"coin"`
	Status         int    `json:"status"`
	Address        string `json:"address"`
	AddressTag     string `json:"addressTag"`
	TxID           string `json:"txId"`
	ApplyTime      string `json:"applyTime"`
	CompleteTime   string `json:"completeTime"`
}

// depositStatus maps binance deposit statuses: 1 success, 6 credited.
func depositStatus(s int) exchange.TransactionStatus {
	if s == 1 || s == 6 {
		return exchange.TransactionOK
	}
	return exchange.TransactionPending
}

// withdrawalStatus maps binance withdrawal statuses. Canceled (1), rejected (3)
// and failed (5) withdrawals have no transaction status and are reported as not ok.
func withdrawalStatus(s int) (exchange.TransactionStatus, bool) {
	switch s {
	case 6:
		return exchange.TransactionOK, true
	case 1, 3, 5:
		return "", false
	}
	return exchange.TransactionPending, true
}

func (b *Binance) parseDeposit(raw jsoniter.RawMessage) (*exchange.Transaction, error) {
	rd := restDeposit{}
	if err := jsoniter.Unmarshal(raw, &rd); err != nil {
		return nil, exchange.Errorf(exchange.ExchangeError, "binance deposit: %v", err)
	}
	amount, err := exchange.ParseFloat(rd.Amount)
	if err != nil {
		return nil, err
	}
	return &exchange.Transaction{
		Info:      raw,
		ID:        rd.ID,
		TxID:      rd.TxID,
		Timestamp: rd.InsertTime,
		Datetime:  exchange.ISO8601(rd.InsertTime),
		Address:   rd.Address,
		Tag:       rd.AddressTag,
		Type:      exchange.Deposit,
		Amount:    amount,
		Currency:  b.CommonCurrencyCode(rd.Coin),
		Status:    depositStatus(rd.Status),
	}, nil
}

func (b *Binance) parseWithdrawal(raw jsoniter.RawMessage) (*exchange.Transaction, bool, error) {
	rw := restWithdrawal{}
	if err := jsoniter.Unmarshal(raw, &rw); err != nil {
		return nil, false, exchange.Errorf(exchange.ExchangeError, "binance withdrawal: %v", err)
	}
	status, ok := withdrawalStatus(rw.Status)
	if !ok {
		return nil, false, nil
	}
	amount, err := exchange.ParseFloat(rw.Amount)
	if err != nil {
		return nil, false, err
	}
	fee, err := exchange.ParseFloat(rw.TransactionFee)
	if err != nil {
		return nil, false, err
	}
	var timestamp, updated int64
	if rw.ApplyTime != "" {
		if timestamp, err = exchange.Parse8601(rw.ApplyTime); err != nil {
			return nil, false, err
		}
	}
	if rw.CompleteTime != "" {
		if updated, err = exchange.Parse8601(rw.CompleteTime); err != nil {
			return nil, false, err
		}
	}
	code := b.CommonCurrencyCode(rw.Coin)
	return &exchange.Transaction{
		Info:      raw,
		ID:        rw.ID,
		TxID:      rw.TxID,
		Timestamp: timestamp,
		Datetime:  exchange.ISO8601(timestamp),
		Address:   rw.Address,
		Tag:       rw.AddressTag,
		Type:      exchange.Withdrawal,
		Amount:    amount,
		Currency:  code,
		Status:    status,
		Updated:   updated,
		Fee:       &exchange.Fee{Currency: code, Cost: fee},
	}, true, nil
}
