package core

// convert.go turns validated text into storage-ready values.
//
// The extract formats are fixed, so unlike a general CSV importer there is no
// format guessing here: decimals are plain digits with an optional exponent,
// dates are fixed-width digit runs, enums are case-insensitive codes.
// Every Normalize* function reports false when the input does not match.

import (
	"regexp"
	"slices"
	"strconv"
	"strings"
)

var (
	decimalRegex = regexp.MustCompile(`^-?(\d+|\d*\.\d+)([eE][+-]?\d+)?$`)
	date8Regex   = regexp.MustCompile(`^\d{8}$`)
	date10Regex  = regexp.MustCompile(`^\d{10}$`)
)

// NormalizeDecimal parses a decimal such as "-12.50" or "1e3".
// Values beyond float64 range, such as "1e400", are rejected; values too
// small to represent round to zero.
func NormalizeDecimal(s string) (float64, bool) {
	if !decimalRegex.MatchString(s) {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// NormalizeDate8 converts YYYYMMDD to YYYY-MM-DD.
// Only the shape is checked, so "20241399" is accepted as "2024-13-99".
func NormalizeDate8(s string) (string, bool) {
	if !date8Regex.MatchString(s) {
		return "", false
	}
	return s[0:4] + "-" + s[4:6] + "-" + s[6:8], true
}

// NormalizeDate10 converts YYMMDDHHmm to 20YY-MM-DD. Hour and minute are
// dropped and the century is always 20.
func NormalizeDate10(s string) (string, bool) {
	if !date10Regex.MatchString(s) {
		return "", false
	}
	return "20" + s[0:2] + "-" + s[2:4] + "-" + s[4:6], true
}

// NormalizeEnum uppercases s and checks it against the allowed set.
func NormalizeEnum(s string, allowed []string) (string, bool) {
	v := strings.ToUpper(s)
	if slices.Contains(allowed, v) {
		return v, true
	}
	return "", false
}

// normalizeValue applies the column rule to one raw value.
// A blank value yields nil; the caller decides whether blank is allowed.
func normalizeValue(col Column, raw string) (any, string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ""
	}

	switch col.Kind {
	case KindDecimal:
		if f, ok := NormalizeDecimal(raw); ok {
			return f, ""
		}
		if decimalRegex.MatchString(raw) {
			return nil, "decimal out of range"
		}
		return nil, "must be a decimal number"
	case KindDate8:
		if d, ok := NormalizeDate8(raw); ok {
			return d, ""
		}
		return nil, "must be a YYYYMMDD date"
	case KindDate10:
		if d, ok := NormalizeDate10(raw); ok {
			return d, ""
		}
		return nil, "must be a YYMMDDHHmm date"
	case KindEnum:
		if v, ok := NormalizeEnum(raw, col.Allowed); ok {
			return v, ""
		}
		return nil, "must be one of: " + strings.Join(col.Allowed, ", ")
	default:
		return raw, ""
	}
}
