package exchange

import (
	"strings"
	"time"
)

const iso8601 = "2006-01-02T15:04:05.000Z07:00"

// Seconds returns the current unix time in seconds.
func Seconds() int64 {
	return time.Now().Unix()
}

// Milliseconds returns the current unix time in milliseconds.
func Milliseconds() int64 {
	return time.Now().UnixNano() / int64(time.Millisecond)
}

// Microseconds returns the current unix time in microseconds.
func Microseconds() int64 {
	return time.Now().UnixNano() / int64(time.Microsecond)
}

// MillisToTime converts a millisecond timestamp to UTC time.
func MillisToTime(ms int64) time.Time {
	return time.Unix(0, ms*int64(time.Millisecond)).UTC()
}

// ISO8601 formats a millisecond timestamp like 2018-01-01T00:00:00.000Z.
// Zero or negative timestamps give an empty string.
func ISO8601(ms int64) string {
	if ms <= 0 {
		return ""
	}
	return MillisToTime(ms).Format(iso8601)
}

// Parse8601 parses an ISO8601 datetime into a millisecond timestamp.
// Both "T" and space separated forms are accepted.
func Parse8601(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, Errorf(ExchangeError, "empty datetime")
	}
	s = strings.Replace(s, " ", "T", 1)
	layouts := []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999", "2006-01-02T15:04:05"}
	for _, layout := range layouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t.UnixNano() / int64(time.Millisecond), nil
		}
	}
	return 0, Errorf(ExchangeError, "invalid datetime %q", s)
}

// YmdHMS formats a millisecond timestamp as date and time joined by infix.
func YmdHMS(ms int64, infix string) string {
	t := MillisToTime(ms)
	return t.Format("2006-01-02") + infix + t.Format("15:04:05")
}

// Ymd formats a millisecond timestamp as date only.
func Ymd(ms int64) string {
	return MillisToTime(ms).Format("2006-01-02")
}
