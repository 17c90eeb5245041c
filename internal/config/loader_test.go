package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadJSON(t *testing.T) {
	t.Setenv("TEST_BINANCE_KEY", "abc")
	path := writeFile(t, "config.json", `{
		"exchanges": [{
			"name": "binance",
			"credentials": {"api_key": "${TEST_BINANCE_KEY}"},
			"markets": [{
				"id": "BTC/USDT",
				"info": [{"channel": "trade", "connector": "websocket", "storages": ["terminal"]}]
			}],
			"retry": {"number": 2, "gap_sec": 5}
		}],
		"log": {"file_path": "/tmp/recorder"}
	}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	exch := cfg.Exchanges[0]
	if exch.Credentials.APIKey != "abc" {
		t.Errorf("api key = %q, env not expanded", exch.Credentials.APIKey)
	}
	if exch.Markets[0].CommitName != "BTC/USDT" {
		t.Errorf("commit name default = %q", exch.Markets[0].CommitName)
	}
	if cfg.Log.Level != "error" || cfg.Connection.REST.ReqTimeoutMs != 10000 || cfg.Connection.Terminal.TradeCommitBuf != 1 {
		t.Errorf("defaults not applied: %+v %+v", cfg.Log, cfg.Connection)
	}
	if !cfg.UsesStorage("terminal") || cfg.UsesStorage("mysql") {
		t.Error("UsesStorage() mismatch")
	}
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "config.yml", `
exchanges:
  - name: bishino
    markets:
      - id: ETH/USDT
        commit_name: eth
        info:
          - channel: ticker
            connector: rest
            rest_ping_interval_sec: 10
            storages: [postgres, elastic_search]
log:
  level: debug
  file_path: recorder.log
metrics:
  address: ":9100"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Exchanges[0].Markets[0].CommitName != "eth" || cfg.Metrics.Address != ":9100" {
		t.Errorf("config = %+v", cfg)
	}
	if !cfg.UsesStorage("postgres") || !cfg.UsesStorage("elastic_search") {
		t.Error("UsesStorage() mismatch")
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"no exchanges", `{"exchanges": [], "log": {"file_path": "x"}}`, "invalid config"},
		{"unknown storage", `{"exchanges": [{"name": "binance", "markets": [{"id": "BTC/USDT", "info": [{"channel": "trade", "connector": "websocket", "storages": ["redis"]}]}]}], "log": {"file_path": "x"}}`, "invalid config"},
		{"rest without interval", `{"exchanges": [{"name": "binance", "markets": [{"id": "BTC/USDT", "info": [{"channel": "ticker", "connector": "rest", "storages": ["terminal"]}]}]}], "log": {"file_path": "x"}}`, "rest_ping_interval_sec"},
		{"bad json", `{"exchanges": `, "not able to parse"},
	}
	for _, tt := range tests {
		_, err := Load(writeFile(t, "config.json", tt.doc))
		if err == nil || !strings.Contains(err.Error(), tt.want) {
			t.Errorf("%s: Load() error = %v, want %q", tt.name, err, tt.want)
		}
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("Load() of a missing file succeeded")
	}
}
