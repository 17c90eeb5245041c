package exchange

import (
	"strings"
	"testing"

	jsoniter "github.com/json-iterator/go"
)

func TestInfoPreserved(t *testing.T) {
	info := `{"orderId":42,"status":"PARTIALLY_FILLED","weird":[1,{"nested":true}]}`
	doc := `{"id":"42","status":"open","symbol":"BTC/USDT","type":"limit","side":"buy","price":1.5,"amount":2,"info":` + info + `}`

	var o Order
	if err := jsoniter.Unmarshal([]byte(doc), &o); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if string(o.Info) != info {
		t.Errorf("Info = %s, want %s", o.Info, info)
	}
	if o.Status != StatusOpen || o.Side != SideBuy || o.Type != TypeLimit {
		t.Errorf("order = %+v", o)
	}

	out, err := jsoniter.Marshal(&o)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if !strings.Contains(string(out), `"info":`+info) {
		t.Errorf("info changed on marshal: %s", out)
	}
}

func TestEnumsRejectUnknownValues(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		v    interface{}
	}{
		{"order status", `{"status":"done"}`, &Order{}},
		{"order side", `{"status":"open","side":"long"}`, &Order{}},
		{"trade side", `{"side":"hold"}`, &Trade{}},
		{"taker or maker", `{"side":"buy","takerOrMaker":"both"}`, &Trade{}},
		{"transaction status", `{"type":"deposit","status":"failed"}`, &Transaction{}},
		{"transaction type", `{"type":"transfer","status":"ok"}`, &Transaction{}},
	}
	for _, tt := range tests {
		if err := jsoniter.Unmarshal([]byte(tt.doc), tt.v); err == nil {
			t.Errorf("%s: accepted %s", tt.name, tt.doc)
		}
	}

	if _, err := ParseOrderStatus("closed"); err != nil {
		t.Errorf("ParseOrderStatus(closed) error = %v", err)
	}
	if _, err := ParseTransactionStatus("canceled"); err == nil {
		t.Error("ParseTransactionStatus(canceled) accepted")
	}
	if _, err := ParseSide("sell"); err != nil {
		t.Errorf("ParseSide(sell) error = %v", err)
	}
}

func TestValidate(t *testing.T) {
	o := &Order{ID: "1", Status: StatusClosed, Side: SideSell, Type: TypeMarket,
		Trades: []*Trade{{ID: "t1", Side: "up"}}}
	if err := o.Validate(); err == nil {
		t.Error("order with an invalid trade validated")
	}
	o.Trades[0].Side = SideSell
	if err := o.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
	tx := &Transaction{ID: "x", Type: Withdrawal, Status: "failed"}
	if err := tx.Validate(); err == nil {
		t.Error("transaction with invalid status validated")
	}
}

func TestOHLCV(t *testing.T) {
	c := NewOHLCV(1504541580000, 4235.4, 4240.6, 4230.0, 4230.7, 37.72941911)
	if c.Timestamp() != 1504541580000 || c.Open() != 4235.4 || c.High() != 4240.6 ||
		c.Low() != 4230.0 || c.Close() != 4230.7 || c.Volume() != 37.72941911 {
		t.Errorf("candle = %v", c)
	}
	out, err := jsoniter.Marshal(c)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	var arr []float64
	if err := jsoniter.Unmarshal(out, &arr); err != nil || len(arr) != 6 {
		t.Errorf("candle json = %s", out)
	}
}

func TestOrderBookSort(t *testing.T) {
	ob := &OrderBook{
		Bids: []PriceLevel{{1, 1}, {3, 1}, {2, 1}},
		Asks: []PriceLevel{{6, 1}, {4, 1}, {5, 1}},
	}
	ob.Sort()
	if ob.Bids[0].Price() != 3 || ob.Bids[2].Price() != 1 {
		t.Errorf("bids = %v", ob.Bids)
	}
	if ob.Asks[0].Price() != 4 || ob.Asks[2].Price() != 6 {
		t.Errorf("asks = %v", ob.Asks)
	}
}

func TestAggregate(t *testing.T) {
	got := Aggregate([]PriceLevel{{10, 1}, {11, 2}, {10, 3}, {12, 1}, {12, -1}})
	want := []PriceLevel{{10, 4}, {11, 2}}
	if len(got) != len(want) {
		t.Fatalf("Aggregate() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Aggregate()[%d] = %v, want %v", i, got[i], want[i])
		}
	}

	levels, err := ParseLevels([][]string{{"1.5", "2"}, {"1.4", "3", "ignored"}})
	if err != nil || len(levels) != 2 || levels[1] != (PriceLevel{1.4, 3}) {
		t.Errorf("ParseLevels() = %v, %v", levels, err)
	}
	if _, err := ParseLevels([][]string{{"x", "1"}}); err == nil {
		t.Error("ParseLevels() accepted a bad price")
	}
}

func TestNewBalances(t *testing.T) {
	bal := NewBalances(jsoniter.RawMessage(`{}`), map[string]Balance{
		"BTC": {Free: 1, Used: 2},
		"ETH": {Used: 1, Total: 5},
	})
	if bal.Total["BTC"] != 3 || bal.Free["ETH"] != 4 || bal.Used["ETH"] != 1 {
		t.Errorf("balances = %+v", bal.Currencies)
	}
}
