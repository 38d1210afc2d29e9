package style

import (
	"math"
	"strconv"
	"strings"
)

// Properties that take plain numbers rather than pixel lengths. Numeric
// inputs for these are rendered without a px suffix.
var unitless = map[string]bool{
	"opacity":     true,
	"z-index":     true,
	"flex-grow":   true,
	"flex-shrink": true,
	"font-weight": true,
	"line-height": false, // unitless line-height is legal but px is the safer default
	"order":       true,
}

// IsUnitless reports whether a numeric value for the kebab-case property
// should be written without a unit.
func IsUnitless(prop string) bool { return unitless[prop] }

// FormatNumber renders a float the way inline styles expect: integers
// without a decimal point, everything else trimmed.
func FormatNumber(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// FormatPx renders a numeric value for the property, appending px unless the
// property is unitless.
func FormatPx(prop string, v float64) string {
	if IsUnitless(prop) {
		return FormatNumber(v)
	}
	return FormatNumber(v) + "px"
}

// ParseFloat extracts the leading numeric component of a CSS value:
// "12.5px" -> 12.5. Unparseable input yields 0, matching the NaN-to-zero
// coercion of the measurement layer.
func ParseFloat(val string) float64 {
	val = strings.TrimSpace(val)
	if val == "" {
		return 0
	}
	end := 0
	seenDot := false
	for end < len(val) {
		c := val[end]
		if c >= '0' && c <= '9' {
			end++
			continue
		}
		if c == '.' && !seenDot {
			seenDot = true
			end++
			continue
		}
		if (c == '-' || c == '+') && end == 0 {
			end++
			continue
		}
		break
	}
	f, err := strconv.ParseFloat(val[:end], 64)
	if err != nil || math.IsNaN(f) {
		return 0
	}
	return f
}

// ParsePx resolves a pixel length from a CSS value; non-px and non-numeric
// values coerce to 0.
func ParsePx(val string) float64 {
	val = strings.TrimSpace(val)
	if val == "" || val == "auto" || val == "none" {
		return 0
	}
	return ParseFloat(val)
}
