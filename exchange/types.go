package exchange

import (
	"sort"

	jsoniter "github.com/json-iterator/go"
)

// Params holds exchange specific request parameters.
type Params map[string]interface{}

// MinMax is a lower / upper bound pair.
type MinMax struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Precision holds the number of decimal places of a market.
type Precision struct {
	Amount int `json:"amount"`
	Price  int `json:"price"`
	Cost   int `json:"cost"`
}

// Limits holds the min / max bounds of a market. Cost is optional.
type Limits struct {
	Amount MinMax  `json:"amount"`
	Price  MinMax  `json:"price"`
	Cost   *MinMax `json:"cost,omitempty"`
}

// Market identifies a tradable instrument.
type Market struct {
	ID        string              `json:"id"`
	Symbol    string              `json:"symbol"`
	Base      string              `json:"base"`
	Quote     string              `json:"quote"`
	BaseID    string              `json:"baseId"`
	QuoteID   string              `json:"quoteId"`
	Active    bool                `json:"active"`
	Taker     float64             `json:"taker"`
	Maker     float64             `json:"maker"`
	Precision Precision           `json:"precision"`
	Limits    Limits              `json:"limits"`
	Info      jsoniter.RawMessage `json:"info"`
}

// Currency is an exchange currency id / unified code pair.
type Currency struct {
	ID        string              `json:"id"`
	Code      string              `json:"code"`
	Name      string              `json:"name,omitempty"`
	Active    bool                `json:"active"`
	Precision int                 `json:"precision"`
	Info      jsoniter.RawMessage `json:"info"`
}

// Fee is the fee paid for a trade, order or transaction.
type Fee struct {
	Type     TakerOrMaker `json:"type,omitempty"`
	Currency string       `json:"currency"`
	Rate     float64      `json:"rate"`
	Cost     float64      `json:"cost"`
}

// Order is a trade instruction and its lifecycle status.
type Order struct {
	ID                 string              `json:"id"`
	ClientOrderID      string              `json:"clientOrderId,omitempty"`
	Datetime           string              `json:"datetime"`
	Timestamp          int64               `json:"timestamp"`
	LastTradeTimestamp int64               `json:"lastTradeTimestamp"`
	Status             OrderStatus         `json:"status"`
	Symbol             string              `json:"symbol"`
	Type               OrderType           `json:"type"`
	Side               Side                `json:"side"`
	Price              float64             `json:"price"`
	Amount             float64             `json:"amount"`
	Filled             float64             `json:"filled"`
	Remaining          float64             `json:"remaining"`
	Cost               float64             `json:"cost"`
	Average            float64             `json:"average,omitempty"`
	Trades             []*Trade            `json:"trades"`
	Fee                *Fee                `json:"fee"`
	Info               jsoniter.RawMessage `json:"info"`
}

// Validate checks the enumerated fields of the order.
func (o *Order) Validate() error {
	if !o.Status.Valid() {
		return Errorf(ExchangeError, "order %s: invalid status %q", o.ID, o.Status)
	}
	if !o.Side.Valid() {
		return Errorf(ExchangeError, "order %s: invalid side %q", o.ID, o.Side)
	}
	if !o.Type.Valid() {
		return Errorf(ExchangeError, "order %s: invalid type %q", o.ID, o.Type)
	}
	for _, t := range o.Trades {
		if err := t.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// PriceLevel is a price / amount pair of an order book side.
type PriceLevel [2]float64

// Price of the level.
func (l PriceLevel) Price() float64 { return l[0] }

// Amount of the level.
func (l PriceLevel) Amount() float64 { return l[1] }

// OrderBook is a snapshot of bids and asks.
// Bids are sorted by descending price, asks by ascending price.
type OrderBook struct {
	Symbol    string              `json:"symbol"`
	Asks      []PriceLevel        `json:"asks"`
	Bids      []PriceLevel        `json:"bids"`
	Datetime  string              `json:"datetime"`
	Timestamp int64               `json:"timestamp"`
	Nonce     int64               `json:"nonce"`
	Info      jsoniter.RawMessage `json:"info"`
}

// Sort orders bids descending and asks ascending by price.
func (ob *OrderBook) Sort() {
	sort.SliceStable(ob.Bids, func(i, j int) bool { return ob.Bids[i][0] > ob.Bids[j][0] })
	sort.SliceStable(ob.Asks, func(i, j int) bool { return ob.Asks[i][0] < ob.Asks[j][0] })
}

// Trade is an executed transaction.
type Trade struct {
	ID           string              `json:"id"`
	Order        string              `json:"order,omitempty"`
	Info         jsoniter.RawMessage `json:"info"`
	Timestamp    int64               `json:"timestamp"`
	Datetime     string              `json:"datetime"`
	Symbol       string              `json:"symbol"`
	Type         OrderType           `json:"type,omitempty"`
	Side         Side                `json:"side"`
	TakerOrMaker TakerOrMaker        `json:"takerOrMaker,omitempty"`
	Price        float64             `json:"price"`
	Amount       float64             `json:"amount"`
	Cost         float64             `json:"cost"`
	Fee          *Fee                `json:"fee"`
}

// Validate checks the enumerated fields of the trade.
func (t *Trade) Validate() error {
	if !t.Side.Valid() {
		return Errorf(ExchangeError, "trade %s: invalid side %q", t.ID, t.Side)
	}
	if t.Type != "" && !t.Type.Valid() {
		return Errorf(ExchangeError, "trade %s: invalid type %q", t.ID, t.Type)
	}
	if !t.TakerOrMaker.Valid() {
		return Errorf(ExchangeError, "trade %s: invalid takerOrMaker %q", t.ID, t.TakerOrMaker)
	}
	return nil
}

// Ticker is a price snapshot of a market. Optional fields are nil when the
// exchange does not report them.
type Ticker struct {
	Symbol        string              `json:"symbol"`
	Info          jsoniter.RawMessage `json:"info"`
	Timestamp     int64               `json:"timestamp"`
	Datetime      string              `json:"datetime"`
	High          float64             `json:"high"`
	Low           float64             `json:"low"`
	Bid           float64             `json:"bid"`
	BidVolume     *float64            `json:"bidVolume,omitempty"`
	Ask           float64             `json:"ask"`
	AskVolume     *float64            `json:"askVolume,omitempty"`
	VWAP          *float64            `json:"vwap,omitempty"`
	Open          *float64            `json:"open,omitempty"`
	Close         *float64            `json:"close,omitempty"`
	Last          *float64            `json:"last,omitempty"`
	PreviousClose *float64            `json:"previousClose,omitempty"`
	Change        *float64            `json:"change,omitempty"`
	Percentage    *float64            `json:"percentage,omitempty"`
	Average       *float64            `json:"average,omitempty"`
	QuoteVolume   *float64            `json:"quoteVolume,omitempty"`
	BaseVolume    *float64            `json:"baseVolume,omitempty"`
}

// Tickers maps unified symbols to tickers.
type Tickers map[string]*Ticker

// Transaction is a deposit or withdrawal record.
type Transaction struct {
	Info      jsoniter.RawMessage `json:"info"`
	ID        string              `json:"id"`
	TxID      string              `json:"txid,omitempty"`
	Timestamp int64               `json:"timestamp"`
	Datetime  string              `json:"datetime"`
	Address   string              `json:"address"`
	Tag       string              `json:"tag,omitempty"`
	Type      TransactionType     `json:"type"`
	Amount    float64             `json:"amount"`
	Currency  string              `json:"currency"`
	Status    TransactionStatus   `json:"status"`
	Updated   int64               `json:"updated"`
	Fee       *Fee                `json:"fee"`
}

// Validate checks the enumerated fields of the transaction.
func (t *Transaction) Validate() error {
	if !t.Type.Valid() {
		return Errorf(ExchangeError, "transaction %s: invalid type %q", t.ID, t.Type)
	}
	if !t.Status.Valid() {
		return Errorf(ExchangeError, "transaction %s: invalid status %q", t.ID, t.Status)
	}
	return nil
}

// Balance holds the free, used and total amount of one currency.
type Balance struct {
	Free  float64 `json:"free"`
	Used  float64 `json:"used"`
	Total float64 `json:"total"`
}

// PartialBalances maps currency codes to a single amount.
type PartialBalances map[string]float64

// Balances holds the account balance per currency code.
type Balances struct {
	Info       jsoniter.RawMessage `json:"info"`
	Currencies map[string]Balance  `json:"currencies"`
	Free       PartialBalances     `json:"free"`
	Used       PartialBalances     `json:"used"`
	Total      PartialBalances     `json:"total"`
}

// DepositAddress is the address to deposit a currency to.
type DepositAddress struct {
	Currency string              `json:"currency"`
	Address  string              `json:"address"`
	Tag      string              `json:"tag,omitempty"`
	Status   string              `json:"status,omitempty"`
	Info     jsoniter.RawMessage `json:"info"`
}

// WithdrawalResponse is the exchange reply to a withdrawal request.
type WithdrawalResponse struct {
	ID   string              `json:"id"`
	Info jsoniter.RawMessage `json:"info"`
}

// OHLCV is a candle: timestamp, open, high, low, close, volume.
type OHLCV [6]float64

// NewOHLCV creates a candle.
func NewOHLCV(timestamp int64, open, high, low, close, volume float64) OHLCV {
	return OHLCV{float64(timestamp), open, high, low, close, volume}
}

// Timestamp in milliseconds.
func (c OHLCV) Timestamp() int64 { return int64(c[0]) }

// Open returns the open price.
func (c OHLCV) Open() float64 { return c[1] }

// High returns the high price.
func (c OHLCV) High() float64 { return c[2] }

// Low returns the low price.
func (c OHLCV) Low() float64 { return c[3] }

// Close returns the close price.
func (c OHLCV) Close() float64 { return c[4] }

// Volume returns the volume in base currency.
func (c OHLCV) Volume() float64 { return c[5] }
