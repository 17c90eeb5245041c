package exchange

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"
)

var pathParam = regexp.MustCompile(`\{([^}]+)\}`)

// ExtractParams returns the names of the {param} placeholders of a path.
func ExtractParams(path string) []string {
	matches := pathParam.FindAllStringSubmatch(path, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m[1])
	}
	return out
}

// ImplodeParams replaces the {param} placeholders of a path with params values.
func ImplodeParams(path string, params Params) string {
	return pathParam.ReplaceAllStringFunc(path, func(s string) string {
		key := s[1 : len(s)-1]
		if v, ok := params[key]; ok {
			return fmt.Sprint(v)
		}
		return s
	})
}

// Urlencode encodes params as a query string with sorted keys.
// Slices are encoded as repeated keys.
func Urlencode(params Params) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for _, k := range keys {
		var values []string
		switch v := params[k].(type) {
		case []string:
			values = v
		case []interface{}:
			for _, e := range v {
				values = append(values, fmt.Sprint(e))
			}
		case float64:
			values = []string{formatNumber(v)}
		default:
			values = []string{fmt.Sprint(v)}
		}
		for _, v := range values {
			if sb.Len() > 0 {
				sb.WriteByte('&')
			}
			sb.WriteString(url.QueryEscape(k))
			sb.WriteByte('=')
			sb.WriteString(url.QueryEscape(v))
		}
	}
	return sb.String()
}

// StringToBinary converts a string to bytes.
func StringToBinary(s string) []byte { return []byte(s) }

// BinaryToString converts bytes to a string.
func BinaryToString(b []byte) string { return string(b) }

// StringToBase64 encodes a string with standard base64.
func StringToBase64(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}

// BinaryToBase64 encodes bytes with standard base64.
func BinaryToBase64(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

// Base64ToBinary decodes standard base64.
func Base64ToBinary(s string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(s)
}

// Base64ToString decodes standard base64 into a string.
func Base64ToString(s string) (string, error) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Base64URLEncode encodes bytes with unpadded url safe base64.
func Base64URLEncode(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}

// BinaryConcat concatenates byte slices.
func BinaryConcat(parts ...[]byte) []byte {
	var n int
	for _, p := range parts {
		n += len(p)
	}
	out := make([]byte, 0, n)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
