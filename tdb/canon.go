package tdb

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// ============================================================
// Canonical Literal Encoding
// ============================================================

const (
	layoutDate       = "2006-01-02"
	layoutDateTime   = "2006-01-02T15:04:05"
	layoutDateTimeM  = "2006-01-02T15:04"
	layoutDateTimeH  = "2006-01-02T15"
	missingLiteral   = "?"
	sentinelLiteral  = "!"
	escapeChar       = '\\'
	hexDigitsUpper   = "0123456789ABCDEF"
	MaxDecimals      = 15
	DefaultDecimals  = 0
	sentinelIntValue = -1808080808
)

// Reserved out-of-band constants that encode the Sentinel state. They are
// checked before ordinary formatting and never reach callers as data.
var (
	sentinelDate     = time.Date(1808, time.August, 8, 0, 0, 0, 0, time.UTC)
	sentinelDateTime = time.Date(1808, time.August, 8, 8, 8, 8, 0, time.UTC)
	sentinelInt      = int64(sentinelIntValue)
	sentinelReal     = -1808080808.0808
)

// sentinelRealEpsilon bounds the reserved real match to a few ulps at the
// constant's magnitude.
const sentinelRealEpsilon = 1e-6

// sanitizeDecimals clamps a decimals setting into 0..MaxDecimals.
func sanitizeDecimals(decimals int) int {
	if decimals < 0 {
		return 0
	}
	if decimals > MaxDecimals {
		return MaxDecimals
	}
	return decimals
}

// isReserved reports whether v holds its kind's reserved sentinel constant.
func isReserved(v Value) bool {
	switch v.kind {
	case KindDate:
		return v.timeVal.Equal(sentinelDate)
	case KindDateTime:
		return v.timeVal.Equal(sentinelDateTime)
	case KindInt:
		return v.intVal == sentinelInt
	case KindReal:
		return math.Abs(v.realVal-sentinelReal) <= sentinelRealEpsilon
	default:
		return false
	}
}

// inYearRange reports whether t has a four-digit year, the only form the
// date and datetime literals allow.
func inYearRange(t time.Time) bool {
	y := t.Year()
	return y >= 0 && y <= 9999
}

func canonBool(b bool) string {
	if b {
		return "T"
	}
	return "F"
}

// canonBytes returns (HEX) with two uppercase digits per byte.
func canonBytes(b []byte) string {
	buf := make([]byte, 0, len(b)*2+2)
	buf = append(buf, '(')
	for _, c := range b {
		buf = append(buf, hexDigitsUpper[c>>4], hexDigitsUpper[c&0x0f])
	}
	buf = append(buf, ')')
	return string(buf)
}

func canonInt(n int64) string {
	return strconv.FormatInt(n, 10)
}

// canonReal formats f with the given number of decimal places, or in the
// shortest round-trip form when decimals is 0. Zero is never written
// with a sign.
func canonReal(f float64, decimals int) string {
	if f == 0 {
		f = 0
	}
	dp := sanitizeDecimals(decimals)
	prec := dp
	if dp == 0 {
		prec = -1
	}
	s := strconv.FormatFloat(f, 'f', prec, 64)
	// A tiny negative rounded to zero digits must not keep its sign.
	if s[0] == '-' && strings.Trim(s[1:], "0.") == "" {
		s = s[1:]
	}
	return s
}

// canonStr returns <text> with <, > and \ backslash-escaped.
func canonStr(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('<')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '<', '>', escapeChar:
			b.WriteByte(escapeChar)
		}
		b.WriteByte(c)
	}
	b.WriteByte('>')
	return b.String()
}

// encodeValue returns the canonical literal for a present value.
func encodeValue(v Value, decimals int) string {
	if isReserved(v) {
		return sentinelLiteral
	}
	switch v.kind {
	case KindReal:
		return canonReal(v.realVal, decimals)
	default:
		return v.String()
	}
}
