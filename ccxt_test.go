package ccxt

import (
	"errors"
	"testing"

	"github.com/milkywaybrain/goccxt/exchange"
)

func TestNew(t *testing.T) {
	for _, id := range Exchanges {
		ex, err := New(id, exchange.Config{})
		if err != nil {
			t.Fatalf("New(%s) error = %v", id, err)
		}
		if ex.ID() != id {
			t.Errorf("New(%s).ID() = %s", id, ex.ID())
		}
		if _, ok := ex.(exchange.Streamer); !ok {
			t.Errorf("%s does not implement Streamer", id)
		}
	}
}

func TestNewUnknownExchange(t *testing.T) {
	ex, err := New("mtgox", exchange.Config{})
	if ex != nil {
		t.Errorf("New() = %v, want nil", ex)
	}
	if !errors.Is(err, exchange.NotSupported) {
		t.Errorf("New() error = %v, want NotSupported", err)
	}
}

func TestNewInvalidConfig(t *testing.T) {
	ex, err := New("binance", exchange.Config{Timeout: -1})
	if ex != nil {
		t.Errorf("New() = %v, want nil", ex)
	}
	if !errors.Is(err, exchange.ExchangeError) {
		t.Errorf("New() error = %v, want ExchangeError", err)
	}
}

func TestVersion(t *testing.T) {
	if Version == "" {
		t.Error("empty version")
	}
}
