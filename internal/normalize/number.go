// Package normalize converts loosely formatted source values into optional numbers.
package normalize

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

// leadingDecimal matches the numeric prefix left after unit and locale text is stripped.
var leadingDecimal = regexp.MustCompile(`^-?(\d+\.?\d*|\.\d+)`)

// Number parses v into an optional float64.
// nil yields nil. Numeric kinds, json.Number included, are returned as-is.
// Strings go through Text.
func Number(v any) *float64 {
	switch val := v.(type) {
	case nil:
		return nil
	case float64:
		return &val
	case float32:
		f := float64(val)
		return &f
	case int:
		f := float64(val)
		return &f
	case int64:
		f := float64(val)
		return &f
	case json.Number:
		if f, err := val.Float64(); err == nil {
			return &f
		}
		return Text(val.String())
	case string:
		return Text(val)
	case *string:
		if val == nil {
			return nil
		}
		return Text(*val)
	default:
		return nil
	}
}

// Text strips everything except digits, '.' and '-' from s and parses the
// leading decimal that remains. "12.3克" is 12.3, "54千卡" is 54, "-" is nil.
func Text(s string) *float64 {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}

	match := leadingDecimal.FindString(b.String())
	if match == "" {
		return nil
	}
	f, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return nil
	}
	return &f
}

// Value is a JSON value that sources emit as a number, a string or null.
type Value struct {
	raw json.RawMessage
}

// UnmarshalJSON keeps the raw token for Float.
func (v *Value) UnmarshalJSON(data []byte) error {
	v.raw = append(v.raw[:0], data...)
	return nil
}

// IsSet reports whether the field was present and not null.
func (v Value) IsSet() bool {
	return len(v.raw) > 0 && string(v.raw) != "null"
}

// Float returns the normalized number, or nil when absent or unparseable.
func (v Value) Float() *float64 {
	if !v.IsSet() {
		return nil
	}
	if v.raw[0] == '"' {
		var s string
		if err := json.Unmarshal(v.raw, &s); err != nil {
			return nil
		}
		return Text(s)
	}
	var n json.Number
	if err := json.Unmarshal(v.raw, &n); err != nil {
		return nil
	}
	return Number(n)
}
