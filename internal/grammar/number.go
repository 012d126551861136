package grammar

import (
	"math"
	"strconv"
	"strings"
)

// Num is a parsed numeric literal.
type Num struct {
	Float bool
	I     int64
	F     float64
}

// Value returns the number as a float64.
func (n Num) Value() float64 {
	if n.Float {
		return n.F
	}
	return float64(n.I)
}

// ParseNumber parses decimal, hex, octal and binary integers and
// floating-point literals. Suffixed literals (10u, 1.5f, 3L) are rejected.
func ParseNumber(text string) (Num, bool) {
	if text == "" {
		return Num{}, false
	}
	if i, err := strconv.ParseInt(text, 0, 64); err == nil {
		return Num{I: i}, true
	}
	body := strings.TrimPrefix(text, "-")
	hex := strings.HasPrefix(body, "0x") || strings.HasPrefix(body, "0X")
	switch {
	case hex && !strings.ContainsAny(body, "pP"):
		return Num{}, false
	case !hex && !strings.ContainsAny(body, ".eE"):
		return Num{}, false
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return Num{}, false
	}
	return Num{Float: true, F: f}, true
}

// FormatFloat renders f so that it always reads back as a floating-point
// literal.
func FormatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}
