package storage

import (
	"bufio"
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/milkywaybrain/goccxt/internal/config"
)

func TestTerminalCommit(t *testing.T) {
	var buf bytes.Buffer
	ter := NewTerminal(&buf)
	ts := time.Date(2021, 3, 1, 10, 0, 0, 0, time.UTC)

	err := ter.CommitTickers(context.Background(), []Ticker{{Exchange: "binance", MktCommitName: "BTC/USDT", Price: 50000.5, Timestamp: ts}})
	if err != nil {
		t.Fatalf("CommitTickers() error = %v", err)
	}
	err = ter.CommitTrades(context.Background(), []Trade{{Exchange: "binance", MktCommitName: "ETH/USDT", TradeID: "9", Side: "sell", Size: 2, Price: 1500, Timestamp: ts}})
	if err != nil {
		t.Fatalf("CommitTrades() error = %v", err)
	}

	out := buf.String()
	for _, want := range []string{"Ticker", "BTC/USDT", "50000.500000", "Trade", "ETH/USDT", "sell", "1500.000000"} {
		if !strings.Contains(out, want) {
			t.Errorf("terminal output missing %q:\n%s", want, out)
		}
	}
}

func TestValuesClause(t *testing.T) {
	if got := valuesClause(2, 3); got != "(?,?,?),(?,?,?)" {
		t.Errorf("valuesClause(2, 3) = %s", got)
	}
}

func TestElasticSearchBulk(t *testing.T) {
	var docs []esData
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			return
		}
		if r.URL.Path != "/market_data/_bulk" {
			t.Errorf("bulk path = %s", r.URL.Path)
		}
		sc := bufio.NewScanner(r.Body)
		for line := 0; sc.Scan(); line++ {
			if line%2 == 0 {
				if sc.Text() != `{"create":{}}` {
					t.Errorf("meta line = %s", sc.Text())
				}
				continue
			}
			var d esData
			if err := jsoniter.Unmarshal(sc.Bytes(), &d); err != nil {
				t.Errorf("document %s: %v", sc.Text(), err)
			}
			docs = append(docs, d)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"took":1,"errors":false,"items":[]}`))
	}))
	defer srv.Close()

	es, err := NewElasticSearch(context.Background(), &config.ES{Addresses: []string{srv.URL}, IndexName: "market_data", ReqTimeoutSec: 5})
	if err != nil {
		t.Fatalf("NewElasticSearch() error = %v", err)
	}
	err = es.CommitTrades(context.Background(), []Trade{
		{Exchange: "binance", MktCommitName: "BTC/USDT", TradeID: "1", Side: "buy", Size: 1, Price: 2},
		{Exchange: "binance", MktCommitName: "BTC/USDT", TradeID: "2", Side: "sell", Size: 3, Price: 4},
	})
	if err != nil {
		t.Fatalf("CommitTrades() error = %v", err)
	}
	if len(docs) != 2 || docs[1].TradeID != "2" || docs[1].Channel != "trade" || docs[1].Side != "sell" {
		t.Errorf("indexed docs = %+v", docs)
	}
}

func TestElasticSearchBulkItemErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			return
		}
		_, _ = w.Write([]byte(`{"took":1,"errors":true,"items":[]}`))
	}))
	defer srv.Close()

	es, err := NewElasticSearch(context.Background(), &config.ES{Addresses: []string{srv.URL}, IndexName: "market_data"})
	if err != nil {
		t.Fatalf("NewElasticSearch() error = %v", err)
	}
	err = es.CommitTickers(context.Background(), []Ticker{{Exchange: "binance", MktCommitName: "BTC/USDT", Price: 1}})
	if err == nil {
		t.Error("CommitTickers() ignored item errors")
	}
}
