package exchange

import (
	"strings"

	"github.com/shopspring/decimal"
)

// RoundingMode selects how DecimalToPrecision drops digits.
type RoundingMode int

// Rounding modes.
const (
	Truncate RoundingMode = iota
	Round
)

// DecimalToPrecision formats x with exactly places decimal digits.
func DecimalToPrecision(x float64, mode RoundingMode, places int) string {
	d := decimal.NewFromFloat(x)
	if mode == Truncate {
		d = d.Truncate(int32(places))
	} else {
		d = d.Round(int32(places))
	}
	return d.StringFixed(int32(places))
}

// TruncateFloat drops the digits of x after places decimals.
func TruncateFloat(x float64, places int) float64 {
	f, _ := decimal.NewFromFloat(x).Truncate(int32(places)).Float64()
	return f
}

// PrecisionFromString counts the decimal places of a step size like "0.00100000".
func PrecisionFromString(s string) int {
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsZero() {
		return 0
	}
	str := d.String()
	i := strings.IndexByte(str, '.')
	if i < 0 {
		return 0
	}
	return len(str) - i - 1
}

func formatNumber(f float64) string {
	return decimal.NewFromFloat(f).String()
}

// AmountToPrecision truncates an amount to the market amount precision.
func (b *Base) AmountToPrecision(symbol string, amount float64) (string, error) {
	m, err := b.Market(symbol)
	if err != nil {
		return "", err
	}
	return DecimalToPrecision(amount, Truncate, m.Precision.Amount), nil
}

// PriceToPrecision rounds a price to the market price precision.
func (b *Base) PriceToPrecision(symbol string, price float64) (string, error) {
	m, err := b.Market(symbol)
	if err != nil {
		return "", err
	}
	return DecimalToPrecision(price, Round, m.Precision.Price), nil
}

// CostToPrecision rounds a cost to the market price precision.
func (b *Base) CostToPrecision(symbol string, cost float64) (string, error) {
	m, err := b.Market(symbol)
	if err != nil {
		return "", err
	}
	return DecimalToPrecision(cost, Round, m.Precision.Price), nil
}

// FeeToPrecision rounds a fee to the market price precision.
func (b *Base) FeeToPrecision(symbol string, fee float64) (string, error) {
	return b.CostToPrecision(symbol, fee)
}
