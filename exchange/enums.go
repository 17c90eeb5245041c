package exchange

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

// Order statuses.
const (
	StatusOpen     OrderStatus = "open"
	StatusClosed   OrderStatus = "closed"
	StatusCanceled OrderStatus = "canceled"
)

// Valid reports whether s is one of the declared statuses.
func (s OrderStatus) Valid() bool {
	switch s {
	case StatusOpen, StatusClosed, StatusCanceled:
		return true
	}
	return false
}

// ParseOrderStatus converts a string to an OrderStatus.
func ParseOrderStatus(s string) (OrderStatus, error) {
	v := OrderStatus(s)
	if !v.Valid() {
		return "", Errorf(ExchangeError, "invalid order status %q", s)
	}
	return v, nil
}

// UnmarshalText parses the value and rejects anything outside the known order statuses.
func (s *OrderStatus) UnmarshalText(text []byte) error {
	v, err := ParseOrderStatus(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Side is the direction of an order or trade.
type Side string

// Sides.
const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Valid reports whether s is buy or sell.
func (s Side) Valid() bool {
	return s == SideBuy || s == SideSell
}

// ParseSide converts a string to a Side.
func ParseSide(s string) (Side, error) {
	v := Side(s)
	if !v.Valid() {
		return "", Errorf(ExchangeError, "invalid side %q", s)
	}
	return v, nil
}

// UnmarshalText parses the value and rejects anything outside the known order sides.
func (s *Side) UnmarshalText(text []byte) error {
	v, err := ParseSide(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// OrderType is market or limit.
type OrderType string

// Order types.
const (
	TypeMarket OrderType = "market"
	TypeLimit  OrderType = "limit"
)

// Valid reports whether t is market or limit.
func (t OrderType) Valid() bool {
	return t == TypeMarket || t == TypeLimit
}

// ParseOrderType converts a string to an OrderType.
func ParseOrderType(s string) (OrderType, error) {
	v := OrderType(s)
	if !v.Valid() {
		return "", Errorf(ExchangeError, "invalid order type %q", s)
	}
	return v, nil
}

// UnmarshalText parses the value and rejects anything outside the known order types.
func (t *OrderType) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*t = ""
		return nil
	}
	v, err := ParseOrderType(string(text))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// TakerOrMaker tells whether a trade consumed or provided liquidity.
// The empty value means the role is unknown, as for public trades.
type TakerOrMaker string

// Liquidity roles.
const (
	Taker TakerOrMaker = "taker"
	Maker TakerOrMaker = "maker"
)

// Valid reports whether r is taker, maker or unknown.
func (r TakerOrMaker) Valid() bool {
	return r == "" || r == Taker || r == Maker
}

// UnmarshalText parses the value and rejects anything outside the known liquidity roles.
func (r *TakerOrMaker) UnmarshalText(text []byte) error {
	v := TakerOrMaker(text)
	if !v.Valid() {
		return Errorf(ExchangeError, "invalid taker or maker %q", string(text))
	}
	*r = v
	return nil
}

// TransactionType is deposit or withdrawal.
type TransactionType string

// Transaction types.
const (
	Deposit    TransactionType = "deposit"
	Withdrawal TransactionType = "withdrawal"
)

// Valid reports whether t is deposit or withdrawal.
func (t TransactionType) Valid() bool {
	return t == Deposit || t == Withdrawal
}

// UnmarshalText parses the value and rejects anything outside the known transaction types.
func (t *TransactionType) UnmarshalText(text []byte) error {
	v := TransactionType(text)
	if !v.Valid() {
		return Errorf(ExchangeError, "invalid transaction type %q", string(text))
	}
	*t = v
	return nil
}

// TransactionStatus is pending or ok.
type TransactionStatus string

// Transaction statuses.
const (
	TransactionPending TransactionStatus = "pending"
	TransactionOK      TransactionStatus = "ok"
)

// Valid reports whether s is pending or ok.
func (s TransactionStatus) Valid() bool {
	return s == TransactionPending || s == TransactionOK
}

// ParseTransactionStatus converts a string to a TransactionStatus.
func ParseTransactionStatus(s string) (TransactionStatus, error) {
	v := TransactionStatus(s)
	if !v.Valid() {
		return "", Errorf(ExchangeError, "invalid transaction status %q", s)
	}
	return v, nil
}

// UnmarshalText parses the value and rejects anything outside the known transaction statuses.
func (s *TransactionStatus) UnmarshalText(text []byte) error {
	v, err := ParseTransactionStatus(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}
