package exchange

import (
	"testing"

	"github.com/pkg/errors"
)

func TestKindHierarchy(t *testing.T) {
	tests := []struct {
		kind      Kind
		ancestors []Kind
		not       []Kind
	}{
		{BaseError, []Kind{BaseError}, []Kind{ExchangeError, NetworkError}},
		{ExchangeError, []Kind{BaseError}, []Kind{NetworkError, InvalidOrder}},
		{NotSupported, []Kind{ExchangeError, BaseError}, []Kind{InvalidOrder}},
		{AuthenticationError, []Kind{ExchangeError, BaseError}, []Kind{NetworkError}},
		{InvalidNonce, []Kind{ExchangeError, BaseError}, []Kind{AuthenticationError}},
		{InsufficientFunds, []Kind{ExchangeError, BaseError}, []Kind{InvalidOrder}},
		{InvalidOrder, []Kind{ExchangeError, BaseError}, []Kind{OrderNotFound}},
		{OrderNotFound, []Kind{InvalidOrder, ExchangeError, BaseError}, []Kind{OrderNotCached}},
		{OrderNotCached, []Kind{InvalidOrder, ExchangeError, BaseError}, []Kind{CancelPending}},
		{CancelPending, []Kind{InvalidOrder, ExchangeError, BaseError}, []Kind{NetworkError}},
		{NetworkError, []Kind{BaseError}, []Kind{ExchangeError}},
		{DDoSProtection, []Kind{NetworkError, BaseError}, []Kind{RequestTimeout}},
		{RequestTimeout, []Kind{NetworkError, BaseError}, []Kind{ExchangeError}},
		{ExchangeNotAvailable, []Kind{NetworkError, BaseError}, []Kind{DDoSProtection}},
	}
	for _, tt := range tests {
		err := NewError(tt.kind, "boom")
		if !errors.Is(err, tt.kind) {
			t.Errorf("%s is not itself", tt.kind)
		}
		for _, a := range tt.ancestors {
			if !errors.Is(err, a) || !tt.kind.IsA(a) {
				t.Errorf("%s should be a %s", tt.kind, a)
			}
		}
		for _, n := range tt.not {
			if errors.Is(err, n) || tt.kind.IsA(n) {
				t.Errorf("%s should not be a %s", tt.kind, n)
			}
		}
	}
	if len(Kinds()) != len(tests) {
		t.Errorf("len(Kinds()) = %d, want %d", len(Kinds()), len(tests))
	}
}

func TestOrderNotFoundMessage(t *testing.T) {
	err := NewError(OrderNotFound, "order 123 not found")
	for _, k := range []Kind{InvalidOrder, ExchangeError, BaseError} {
		if !errors.Is(err, k) {
			t.Errorf("OrderNotFound is not a %s", k)
		}
	}
	if err.Error() != "order 123 not found" || err.Message != "order 123 not found" {
		t.Errorf("message = %q", err.Error())
	}
}

func TestWrappedErrorKeepsKind(t *testing.T) {
	err := errors.Wrap(Errorf(RequestTimeout, "binance GET %s timed out", "/ticker"), "poll ticker")
	if !IsNetworkError(err) {
		t.Error("wrapped RequestTimeout is not a NetworkError")
	}
	kind, ok := KindOf(err)
	if !ok || kind != RequestTimeout {
		t.Errorf("KindOf() = %v, %v", kind, ok)
	}
	if _, ok := KindOf(errors.New("plain")); ok {
		t.Error("KindOf() found a kind in a plain error")
	}
	if errors.Is(err, ExchangeError) {
		t.Error("RequestTimeout should not be an ExchangeError")
	}
}

func TestErrorEquality(t *testing.T) {
	a := NewError(InvalidNonce, "nonce")
	if !errors.Is(a, NewError(InvalidNonce, "nonce")) {
		t.Error("equal errors do not match")
	}
	if errors.Is(a, NewError(InvalidNonce, "other")) {
		t.Error("errors with different messages match")
	}
}

func TestKindString(t *testing.T) {
	if OrderNotCached.String() != "OrderNotCached" || OrderNotCached.Parent() != InvalidOrder {
		t.Errorf("OrderNotCached = %s parent %s", OrderNotCached, OrderNotCached.Parent())
	}
	if got := Kind(200).String(); got != "Kind(200)" {
		t.Errorf("invalid kind string = %s", got)
	}
	if Kind(200).IsA(BaseError) {
		t.Error("invalid kind is a BaseError")
	}
}
