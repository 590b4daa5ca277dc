package tdb

import (
	"errors"
	"strconv"
	"time"
	"unicode/utf8"
)

// ============================================================
// Type-directed literal parsing
// ============================================================

// parseSlot parses one row value using the grammar of the column's declared
// kind. ? and ! are accepted for every kind.
func (p *parser) parseSlot(f Field, col int) (Slot, error) {
	if c := p.peek(); (c == '?' || c == '!') && p.delimiterAt(1) {
		p.pos++
		if c == '?' {
			return Missing(), nil
		}
		return Sentinel(f.Kind), nil
	}

	switch f.Kind {
	case KindStr:
		if p.peek() == '<' {
			s, err := p.parseStr()
			if err != nil {
				return Slot{}, err
			}
			return Present(Str(s)), nil
		}
		return p.parseBareStr(f, col)
	case KindBytes:
		b, err := p.parseBytes(f, col)
		if err != nil {
			return Slot{}, err
		}
		return Present(Bytes(b)), nil
	}

	start, line := p.pos, p.line
	tok := p.word()
	v, kind, err := parseScalar(f.Kind, tok)
	if err != nil {
		return Slot{}, p.errorAt(kind, line, start, "invalid %s value %q in column %d (%s): %v",
			f.Kind, tok, col+1, f.Name, err)
	}
	return Present(v), nil
}

// delimiterAt reports whether the byte at pos+off ends a token.
func (p *parser) delimiterAt(off int) bool {
	i := p.pos + off
	if i >= len(p.data) {
		return true
	}
	c := p.data[i]
	return isSpace(c) || c == '\n' || c == '\r'
}

// word consumes a run of non-whitespace bytes.
func (p *parser) word() string {
	start := p.pos
	for !p.delimiterAt(0) {
		p.pos++
	}
	return string(p.data[start:p.pos])
}

var (
	errBadLiteral = errors.New("malformed literal")
	errRange      = errors.New("out of range")
)

// parseScalar parses a bool, date, datetime, int or real token.
func parseScalar(kind Kind, tok string) (Value, ErrorKind, error) {
	switch kind {
	case KindBool:
		switch tok {
		case "T", "t", "y", "Y":
			return Bool(true), 0, nil
		case "F", "f", "n", "N":
			return Bool(false), 0, nil
		}
		return Value{}, KindTypeMismatch, errBadLiteral

	case KindInt:
		if !isIntLiteral(tok) {
			return Value{}, KindTypeMismatch, errBadLiteral
		}
		n, err := strconv.ParseInt(tok, 10, 64)
		if err != nil {
			return Value{}, KindOutOfRange, errRange
		}
		return Int(n), 0, nil

	case KindReal:
		if !isRealLiteral(tok) {
			return Value{}, KindTypeMismatch, errBadLiteral
		}
		f, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return Value{}, KindOutOfRange, errRange
		}
		return Real(f), 0, nil

	case KindDate:
		if !matchShape(tok, "dddd-dd-dd") {
			return Value{}, KindTypeMismatch, errBadLiteral
		}
		t, err := time.Parse(layoutDate, tok)
		if err != nil {
			return Value{}, KindOutOfRange, errRange
		}
		return Date(t), 0, nil

	case KindDateTime:
		layout := dateTimeLayout(tok)
		if layout == "" {
			return Value{}, KindTypeMismatch, errBadLiteral
		}
		t, err := time.Parse(layout, tok)
		if err != nil {
			return Value{}, KindOutOfRange, errRange
		}
		return DateTime(t), 0, nil
	}
	return Value{}, KindTypeMismatch, errBadLiteral
}

// dateTimeLayout picks the layout matching the literal's punctuation:
// hour-only, hour and minute, or full seconds.
func dateTimeLayout(tok string) string {
	switch {
	case matchShape(tok, "dddd-dd-ddTdd:dd:dd"):
		return layoutDateTime
	case matchShape(tok, "dddd-dd-ddTdd:dd"):
		return layoutDateTimeM
	case matchShape(tok, "dddd-dd-ddTdd"):
		return layoutDateTimeH
	default:
		return ""
	}
}

// matchShape compares tok against a pattern where 'd' matches any ASCII
// digit and every other byte matches itself.
func matchShape(tok, pattern string) bool {
	if len(tok) != len(pattern) {
		return false
	}
	for i := 0; i < len(pattern); i++ {
		if pattern[i] == 'd' {
			if tok[i] < '0' || tok[i] > '9' {
				return false
			}
		} else if tok[i] != pattern[i] {
			return false
		}
	}
	return true
}

// isIntLiteral matches -?digits.
func isIntLiteral(s string) bool {
	if len(s) > 0 && s[0] == '-' {
		s = s[1:]
	}
	return digitRun(s) == len(s) && len(s) > 0
}

// isRealLiteral matches -?digits[.digits][(e|E)[+-]digits].
func isRealLiteral(s string) bool {
	if len(s) > 0 && s[0] == '-' {
		s = s[1:]
	}
	n := digitRun(s)
	if n == 0 {
		return false
	}
	s = s[n:]
	if len(s) > 0 && s[0] == '.' {
		n = digitRun(s[1:])
		if n == 0 {
			return false
		}
		s = s[1+n:]
	}
	if len(s) > 0 && (s[0] == 'e' || s[0] == 'E') {
		s = s[1:]
		if len(s) > 0 && (s[0] == '+' || s[0] == '-') {
			s = s[1:]
		}
		n = digitRun(s)
		if n == 0 {
			return false
		}
		s = s[n:]
	}
	return len(s) == 0
}

func digitRun(s string) int {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	return i
}

// parseStr parses <...>. Only \<, \> and \\ are valid escapes; the literal
// may span lines.
func (p *parser) parseStr() (string, error) {
	startLine, start := p.line, p.pos
	p.pos++ // consume <
	buf := make([]byte, 0, 16)
	for {
		if p.eof() {
			return "", p.errorAt(KindUnterminatedString, startLine, start, "unterminated string")
		}
		c := p.data[p.pos]
		switch c {
		case '>':
			p.pos++
			if !utf8.Valid(buf) {
				return "", p.errorAt(KindSyntax, startLine, start, "invalid UTF-8 in string")
			}
			return string(buf), nil
		case escapeChar:
			if p.pos+1 >= len(p.data) {
				return "", p.errorAt(KindUnterminatedString, startLine, start, "unterminated string")
			}
			next := p.data[p.pos+1]
			if next != '<' && next != '>' && next != escapeChar {
				return "", p.errorf(KindInvalidEscape, "invalid escape \\%c in string", next)
			}
			buf = append(buf, next)
			p.pos += 2
		case '\n':
			buf = append(buf, c)
			p.pos++
			p.line++
		default:
			buf = append(buf, c)
			p.pos++
		}
	}
}

// parseBareStr accepts an unbracketed word as a str value.
func (p *parser) parseBareStr(f Field, col int) (Slot, error) {
	start := p.pos
	tok := p.word()
	for i := 0; i < len(tok); i++ {
		if tok[i] == '<' || tok[i] == '>' {
			return Slot{}, p.errorAt(KindTypeMismatch, p.line, start,
				"invalid str value %q in column %d (%s)", tok, col+1, f.Name)
		}
	}
	if !utf8.ValidString(tok) {
		return Slot{}, p.errorAt(KindSyntax, p.line, start, "invalid UTF-8 in string")
	}
	return Present(Str(tok)), nil
}

// parseBytes parses (HEX) with an even number of hex digits.
func (p *parser) parseBytes(f Field, col int) ([]byte, error) {
	start := p.pos
	if p.peek() != '(' {
		tok := p.word()
		return nil, p.errorAt(KindTypeMismatch, p.line, start,
			"invalid bytes value %q in column %d (%s)", tok, col+1, f.Name)
	}
	p.pos++
	digits := p.pos
	for {
		if p.eof() {
			return nil, p.errorf(KindUnexpectedEOF, "unterminated bytes literal in column %d (%s)", col+1, f.Name)
		}
		c := p.data[p.pos]
		if c == ')' {
			break
		}
		if unhex(c) < 0 {
			return nil, p.errorf(KindInvalidHex, "invalid hex digit %q in column %d (%s)", c, col+1, f.Name)
		}
		p.pos++
	}
	hex := p.data[digits:p.pos]
	p.pos++ // consume )
	if len(hex)%2 != 0 {
		return nil, p.errorAt(KindInvalidHex, p.line, start,
			"odd number of hex digits in column %d (%s)", col+1, f.Name)
	}
	out := make([]byte, len(hex)/2)
	for i := range out {
		out[i] = byte(unhex(hex[2*i])<<4 | unhex(hex[2*i+1]))
	}
	return out, nil
}

func unhex(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'f':
		return int(c - 'a' + 10)
	case c >= 'A' && c <= 'F':
		return int(c - 'A' + 10)
	default:
		return -1
	}
}
