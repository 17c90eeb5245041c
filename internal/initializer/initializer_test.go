package initializer

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/milkywaybrain/goccxt/exchange"
	"github.com/milkywaybrain/goccxt/internal/config"
	"github.com/milkywaybrain/goccxt/internal/metrics"
	"github.com/pkg/errors"
)

func TestExchangeConfig(t *testing.T) {
	exch := &config.Exchange{
		Name:        "binance",
		Credentials: config.Credentials{APIKey: "key", Secret: "secret"},
		Options: config.Options{
			EnableRateLimit: true,
			RateLimitMs:     250,
			Proxy:           "https://proxy.test/",
			URLs:            map[string]string{"public": "https://testnet.test/api/v3/"},
		},
	}
	conn := &config.Connection{
		WS:   config.WS{ConnTimeoutSec: 3, ReadTimeoutSec: 30},
		REST: config.REST{ReqTimeoutMs: 5000, MaxIdleConns: 10},
	}
	got := ExchangeConfig(exch, conn)
	if got.APIKey != "key" || got.Secret != "secret" || got.Timeout != 5000 || got.RateLimit != 250 ||
		!got.EnableRateLimit || got.Proxy != "https://proxy.test/" || got.URLs["public"] == "" ||
		got.MaxIdleConns != 10 || got.WSConnTimeoutSec != 3 || got.WSReadTimeoutSec != 30 {
		t.Errorf("ExchangeConfig() = %+v", got)
	}
	if err := got.Validate(); err != nil {
		t.Errorf("mapped config invalid: %v", err)
	}
}

func TestMetricsRouter(t *testing.T) {
	metrics.RecordedTotal.WithLabelValues("binance", "trade", "terminal").Add(3)
	srv := httptest.NewServer(NewMetricsRouter())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("healthz status = %d", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(body), `recorder_committed_total{channel="trade",exchange="binance",storage="terminal"} 3`) {
		t.Errorf("metrics output missing recorder counter:\n%s", body)
	}
}

func TestStartUnknownExchange(t *testing.T) {
	cfg := &config.Config{
		Exchanges: []config.Exchange{{
			Name: "nope",
			Markets: []config.Market{{
				ID:   "BTC/USDT",
				Info: []config.Info{{Channel: "ticker", Connector: "rest", RESTPingIntSec: 1, Storages: []string{"terminal"}}},
			}},
		}},
		Log: config.Log{Level: "error", FilePath: filepath.Join(t.TempDir(), "recorder.log")},
	}
	err := Start(context.Background(), cfg)
	if !errors.Is(err, exchange.NotSupported) {
		t.Errorf("Start() error = %v, want NotSupported", err)
	}
}
