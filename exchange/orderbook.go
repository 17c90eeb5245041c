package exchange

import "strconv"

// ParseLevels converts [price, amount] string pairs to price levels.
// Extra elements of a pair are ignored.
func ParseLevels(raw [][]string) ([]PriceLevel, error) {
	levels := make([]PriceLevel, 0, len(raw))
	for _, pair := range raw {
		if len(pair) < 2 {
			return nil, Errorf(ExchangeError, "invalid order book level %v", pair)
		}
		price, err := strconv.ParseFloat(pair[0], 64)
		if err != nil {
			return nil, Errorf(ExchangeError, "invalid order book price %q", pair[0])
		}
		amount, err := strconv.ParseFloat(pair[1], 64)
		if err != nil {
			return nil, Errorf(ExchangeError, "invalid order book amount %q", pair[1])
		}
		levels = append(levels, PriceLevel{price, amount})
	}
	return levels, nil
}

// Aggregate sums the amounts of levels with equal price, keeping first occurrence
// order, and drops levels whose total amount is zero.
func Aggregate(levels []PriceLevel) []PriceLevel {
	index := make(map[float64]int, len(levels))
	out := make([]PriceLevel, 0, len(levels))
	for _, l := range levels {
		if i, ok := index[l[0]]; ok {
			out[i][1] += l[1]
			continue
		}
		index[l[0]] = len(out)
		out = append(out, l)
	}
	n := 0
	for _, l := range out {
		if l[1] != 0 {
			out[n] = l
			n++
		}
	}
	return out[:n]
}
