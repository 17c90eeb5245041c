package exchange

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

// SafeValue returns m[key] or def if the key is missing or nil.
func SafeValue(m map[string]interface{}, key string, def interface{}) interface{} {
	if v, ok := m[key]; ok && v != nil {
		return v
	}
	return def
}

// SafeString returns m[key] as string or def.
func SafeString(m map[string]interface{}, key string, def string) string {
	switch v := SafeValue(m, key, nil).(type) {
	case string:
		return v
	case jsoniter.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return strconv.FormatBool(v)
	}
	return def
}

// SafeFloat returns m[key] as float64 or def. Numeric strings are parsed.
func SafeFloat(m map[string]interface{}, key string, def float64) float64 {
	switch v := SafeValue(m, key, nil).(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case jsoniter.Number:
		f, err := v.Float64()
		if err == nil {
			return f
		}
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			return f
		}
	}
	return def
}

// SafeInteger returns m[key] as int64 or def. Floats are truncated.
func SafeInteger(m map[string]interface{}, key string, def int64) int64 {
	switch v := SafeValue(m, key, nil).(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	case jsoniter.Number:
		i, err := v.Int64()
		if err == nil {
			return i
		}
		f, err := v.Float64()
		if err == nil {
			return int64(f)
		}
	case string:
		i, err := strconv.ParseInt(v, 10, 64)
		if err == nil {
			return i
		}
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			return int64(f)
		}
	}
	return def
}

// ParseFloat parses a decimal string, empty strings give zero.
func ParseFloat(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, Errorf(ExchangeError, "invalid number %q", s)
	}
	return f, nil
}

// ParseOptionalFloat is ParseFloat for optional fields: an empty string gives nil.
func ParseOptionalFloat(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	f, err := ParseFloat(s)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// Float returns a pointer to f. Used for optional numeric fields.
func Float(f float64) *float64 {
	return &f
}

// Extend merges maps left to right into a new map.
func Extend(maps ...Params) Params {
	out := make(Params)
	for _, m := range maps {
		for k, v := range m {
			out[k] = v
		}
	}
	return out
}

// DeepExtend merges maps left to right, merging nested maps recursively.
func DeepExtend(maps ...Params) Params {
	out := make(Params)
	for _, m := range maps {
		for k, v := range m {
			nested, ok := asParams(v)
			if !ok {
				out[k] = v
				continue
			}
			if prev, ok := asParams(out[k]); ok {
				out[k] = DeepExtend(prev, nested)
			} else {
				out[k] = DeepExtend(nested)
			}
		}
	}
	return out
}

func asParams(v interface{}) (Params, bool) {
	switch m := v.(type) {
	case Params:
		return m, true
	case map[string]interface{}:
		return Params(m), true
	}
	return nil, false
}

// Omit returns a copy of params without the given keys.
func Omit(params Params, keys ...string) Params {
	out := Extend(params)
	for _, k := range keys {
		delete(out, k)
	}
	return out
}

// Pluck returns the value of key of every element.
func Pluck(list []map[string]interface{}, key string) []interface{} {
	out := make([]interface{}, 0, len(list))
	for _, m := range list {
		if v, ok := m[key]; ok {
			out = append(out, v)
		}
	}
	return out
}

// Unique removes duplicates keeping the first occurrence order.
func Unique(list []string) []string {
	seen := make(map[string]struct{}, len(list))
	out := make([]string, 0, len(list))
	for _, s := range list {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// IndexBy keys elements by the string value of key. Later elements win.
func IndexBy(list []map[string]interface{}, key string) map[string]map[string]interface{} {
	out := make(map[string]map[string]interface{}, len(list))
	for _, m := range list {
		if k := SafeString(m, key, ""); k != "" {
			out[k] = m
		}
	}
	return out
}

// GroupBy groups elements by the string value of key.
func GroupBy(list []map[string]interface{}, key string) map[string][]map[string]interface{} {
	out := make(map[string][]map[string]interface{})
	for _, m := range list {
		if k := SafeString(m, key, ""); k != "" {
			out[k] = append(out[k], m)
		}
	}
	return out
}

// SortBy sorts elements by the value of key, numbers numerically and everything else as strings.
func SortBy(list []map[string]interface{}, key string, descending bool) []map[string]interface{} {
	out := append([]map[string]interface{}(nil), list...)
	less := func(i, j int) bool {
		a, b := out[i][key], out[j][key]
		fa, aok := a.(float64)
		fb, bok := b.(float64)
		if aok && bok {
			return fa < fb
		}
		return fmt.Sprint(a) < fmt.Sprint(b)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if descending {
			return less(j, i)
		}
		return less(i, j)
	})
	return out
}

// Keysort returns the sorted keys of m.
func Keysort(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Flatten flattens nested slices.
func Flatten(list []interface{}) []interface{} {
	out := make([]interface{}, 0, len(list))
	for _, v := range list {
		if nested, ok := v.([]interface{}); ok {
			out = append(out, Flatten(nested)...)
			continue
		}
		out = append(out, v)
	}
	return out
}

// Sum adds the values, NaN values are skipped.
func Sum(values ...float64) float64 {
	var s float64
	for _, v := range values {
		if !math.IsNaN(v) {
			s += v
		}
	}
	return s
}

// Capitalize upper cases the first letter.
func Capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
