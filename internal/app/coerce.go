package app

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// coerceQty turns a loosely-typed quantity into a positive integer.
// Numbers are truncated, strings parsed up to the first non-digit; anything
// unusable or below one becomes 1.
func coerceQty(v any) int {
	var n int
	switch q := v.(type) {
	case int:
		n = q
	case int64:
		n = int(q)
	case float64:
		if math.IsNaN(q) || math.IsInf(q, 0) {
			return 1
		}
		n = int(math.Trunc(q))
	case json.Number:
		if f, err := q.Float64(); err == nil {
			return coerceQty(f)
		}
		return coerceQty(string(q))
	case string:
		n = leadingInt(q)
	}
	if n < 1 {
		return 1
	}
	return n
}

// leadingInt parses an optional sign and leading digits, e.g. "3 Stk" -> 3.
func leadingInt(s string) int {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return n
}

// coerceBool follows JSON truthiness: false, 0, "" and null are false.
func coerceBool(v any) bool {
	switch b := v.(type) {
	case nil:
		return false
	case bool:
		return b
	case float64:
		return b != 0 && !math.IsNaN(b)
	case int:
		return b != 0
	case json.Number:
		return b.String() != "0" && b.String() != ""
	case string:
		return b != ""
	default:
		return true
	}
}
