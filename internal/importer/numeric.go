package importer

import (
	"math"
	"strconv"
	"strings"
	"unicode"
)

// CoercionPolicy controls how numeric text is recognised.
type CoercionPolicy string

const (
	// PolicyLenient reads the longest numeric prefix, so "3 beds" becomes 3.
	PolicyLenient CoercionPolicy = "lenient"
	// PolicyStrict only accepts text that is a number in its entirety.
	PolicyStrict CoercionPolicy = "strict"
)

// ParseCoercionPolicy falls back to lenient for unknown values.
func ParseCoercionPolicy(s string) CoercionPolicy {
	if CoercionPolicy(strings.ToLower(strings.TrimSpace(s))) == PolicyStrict {
		return PolicyStrict
	}
	return PolicyLenient
}

// parseFloatPrefix parses the longest leading decimal literal of s after
// leading whitespace. truncated is set when trailing characters were ignored.
func parseFloatPrefix(s string) (f float64, ok bool, truncated bool) {
	t := strings.TrimLeftFunc(s, unicode.IsSpace)
	end := numericPrefixLen(t)
	if end == 0 {
		return 0, false, false
	}
	f, err := strconv.ParseFloat(t[:end], 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false, false
	}
	return f, true, strings.TrimRightFunc(t[end:], unicode.IsSpace) != ""
}

// parseFloatStrict accepts only a complete finite decimal literal.
func parseFloatStrict(s string) (float64, bool) {
	t := strings.TrimSpace(s)
	if t == "" || numericPrefixLen(t) != len(t) {
		return 0, false
	}
	f, err := strconv.ParseFloat(t, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

func numericPrefixLen(s string) int {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	digits := 0
	for i < len(s) && isDigit(s[i]) {
		i++
		digits++
	}
	if i < len(s) && s[i] == '.' {
		j := i + 1
		frac := 0
		for j < len(s) && isDigit(s[j]) {
			j++
			frac++
		}
		if digits > 0 || frac > 0 {
			i = j
			digits += frac
		}
	}
	if digits == 0 {
		return 0
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		exp := 0
		for j < len(s) && isDigit(s[j]) {
			j++
			exp++
		}
		if exp > 0 {
			i = j
		}
	}
	return i
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
