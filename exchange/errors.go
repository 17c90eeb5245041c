package exchange

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind is a failure kind of the exchange error hierarchy.
// Every kind has exactly one parent, BaseError is the root.
type Kind uint8

const (
	BaseError Kind = iota

	ExchangeError
	NotSupported
	AuthenticationError
	InvalidNonce
	InsufficientFunds
	InvalidOrder
	OrderNotFound
	OrderNotCached
	CancelPending

	NetworkError
	DDoSProtection
	RequestTimeout
	ExchangeNotAvailable
)

var kindNames = [...]string{
	BaseError:            "BaseError",
	ExchangeError:        "ExchangeError",
	NotSupported:         "NotSupported",
	AuthenticationError:  "AuthenticationError",
	InvalidNonce:         "InvalidNonce",
	InsufficientFunds:    "InsufficientFunds",
	InvalidOrder:         "InvalidOrder",
	OrderNotFound:        "OrderNotFound",
	OrderNotCached:       "OrderNotCached",
	CancelPending:        "CancelPending",
	NetworkError:         "NetworkError",
	DDoSProtection:       "DDoSProtection",
	RequestTimeout:       "RequestTimeout",
	ExchangeNotAvailable: "ExchangeNotAvailable",
}

var kindParents = [...]Kind{
	BaseError:            BaseError,
	ExchangeError:        BaseError,
	NotSupported:         ExchangeError,
	AuthenticationError:  ExchangeError,
	InvalidNonce:         ExchangeError,
	InsufficientFunds:    ExchangeError,
	InvalidOrder:         ExchangeError,
	OrderNotFound:        InvalidOrder,
	OrderNotCached:       InvalidOrder,
	CancelPending:        InvalidOrder,
	NetworkError:         BaseError,
	DDoSProtection:       NetworkError,
	RequestTimeout:       NetworkError,
	ExchangeNotAvailable: NetworkError,
}

// Kinds returns every declared kind, root first.
func Kinds() []Kind {
	kinds := make([]Kind, len(kindNames))
	for i := range kindNames {
		kinds[i] = Kind(i)
	}
	return kinds
}

func (k Kind) valid() bool {
	return int(k) < len(kindNames)
}

// String returns the kind name.
func (k Kind) String() string {
	if !k.valid() {
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
	return kindNames[k]
}

// Parent returns the direct ancestor of the kind. The root is its own parent.
func (k Kind) Parent() Kind {
	if !k.valid() {
		return BaseError
	}
	return kindParents[k]
}

// IsA reports whether k is ancestor or one of its descendants.
func (k Kind) IsA(ancestor Kind) bool {
	if !k.valid() || !ancestor.valid() {
		return false
	}
	for {
		if k == ancestor {
			return true
		}
		if k == BaseError {
			return false
		}
		k = kindParents[k]
	}
}

// Error makes a Kind usable as an errors.Is target.
func (k Kind) Error() string {
	return k.String()
}

// Is supports errors.Is(kindA, kindB) with hierarchy semantics.
func (k Kind) Is(target error) bool {
	t, ok := target.(Kind)
	return ok && k.IsA(t)
}

// Error is the error value returned by every exchange operation.
// It carries only its kind and a human readable message.
type Error struct {
	Kind    Kind
	Message string
}

// NewError creates a new exchange error of the given kind.
func NewError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Errorf creates a new exchange error of the given kind with a formatted message.
func Errorf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Error returns the message unchanged.
func (e *Error) Error() string {
	return e.Message
}

// Is reports whether the target is the error's kind, one of its ancestors,
// or an equal error value.
func (e *Error) Is(target error) bool {
	switch t := target.(type) {
	case Kind:
		return e.Kind.IsA(t)
	case *Error:
		return t != nil && e.Kind == t.Kind && e.Message == t.Message
	}
	return false
}

// KindOf returns the kind of the first exchange error found in the chain of err.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	var k Kind
	if errors.As(err, &k) {
		return k, true
	}
	return BaseError, false
}

// IsNetworkError is a shortcut for errors.Is(err, NetworkError).
func IsNetworkError(err error) bool {
	return errors.Is(err, NetworkError)
}
