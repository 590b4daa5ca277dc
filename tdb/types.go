package tdb

import (
	"bytes"
	"math"
	"time"
)

// Kind is the declared type of a column and the variant of a Value.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindBool
	KindBytes
	KindDate
	KindDateTime
	KindInt
	KindReal
	KindStr
)

// Kinds lists every valid kind in canonical order.
var Kinds = []Kind{KindBool, KindBytes, KindDate, KindDateTime, KindInt, KindReal, KindStr}

// String returns the canonical type name used in table headers.
func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindBytes:
		return "bytes"
	case KindDate:
		return "date"
	case KindDateTime:
		return "datetime"
	case KindInt:
		return "int"
	case KindReal:
		return "real"
	case KindStr:
		return "str"
	default:
		return "invalid"
	}
}

// Valid reports whether k is one of the seven declarable kinds.
func (k Kind) Valid() bool {
	return k >= KindBool && k <= KindStr
}

// ParseKind maps a canonical type name to its Kind.
func ParseKind(name string) (Kind, bool) {
	switch name {
	case "bool":
		return KindBool, true
	case "bytes":
		return KindBytes, true
	case "date":
		return KindDate, true
	case "datetime":
		return KindDateTime, true
	case "int":
		return KindInt, true
	case "real":
		return KindReal, true
	case "str":
		return KindStr, true
	default:
		return KindInvalid, false
	}
}

// Value is one field's content. Only the payload matching kind is meaningful.
type Value struct {
	kind Kind

	boolVal  bool
	intVal   int64
	realVal  float64
	strVal   string
	bytesVal []byte
	timeVal  time.Time
}

// ============================================================
// Constructors
// ============================================================

// Bool creates a bool value.
func Bool(v bool) Value {
	return Value{kind: KindBool, boolVal: v}
}

// Bytes creates a bytes value. The slice is not copied.
func Bytes(v []byte) Value {
	return Value{kind: KindBytes, bytesVal: v}
}

// Date creates a date value from the calendar date of t.
func Date(t time.Time) Value {
	y, m, d := t.Date()
	return Value{kind: KindDate, timeVal: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// DateOf creates a date value from its components.
func DateOf(year int, month time.Month, day int) Value {
	return Value{kind: KindDate, timeVal: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateTime creates a datetime value from the wall clock of t, truncated to
// the second.
func DateTime(t time.Time) Value {
	y, mo, d := t.Date()
	h, mi, s := t.Clock()
	return Value{kind: KindDateTime, timeVal: time.Date(y, mo, d, h, mi, s, 0, time.UTC)}
}

// Int creates an int value.
func Int(v int64) Value {
	return Value{kind: KindInt, intVal: v}
}

// Real creates a real value.
func Real(v float64) Value {
	return Value{kind: KindReal, realVal: v}
}

// Str creates a str value.
func Str(v string) Value {
	return Value{kind: KindStr, strVal: v}
}

// ============================================================
// Accessors
// ============================================================

// Kind returns the value's variant.
func (v Value) Kind() Kind {
	return v.kind
}

// Typename returns the canonical type name of the value's variant.
func (v Value) Typename() string {
	return v.kind.String()
}

func (v Value) IsBool() bool     { return v.kind == KindBool }
func (v Value) IsBytes() bool    { return v.kind == KindBytes }
func (v Value) IsDate() bool     { return v.kind == KindDate }
func (v Value) IsDateTime() bool { return v.kind == KindDateTime }
func (v Value) IsInt() bool      { return v.kind == KindInt }
func (v Value) IsReal() bool     { return v.kind == KindReal }
func (v Value) IsStr() bool      { return v.kind == KindStr }

// AsBool returns the bool payload and whether v is a bool.
func (v Value) AsBool() (bool, bool) {
	return v.boolVal, v.kind == KindBool
}

// AsBytes returns the bytes payload and whether v is bytes.
func (v Value) AsBytes() ([]byte, bool) {
	return v.bytesVal, v.kind == KindBytes
}

// AsDate returns the date (UTC midnight) and whether v is a date.
func (v Value) AsDate() (time.Time, bool) {
	if v.kind != KindDate {
		return time.Time{}, false
	}
	return v.timeVal, true
}

// AsDateTime returns the datetime (UTC) and whether v is a datetime.
func (v Value) AsDateTime() (time.Time, bool) {
	if v.kind != KindDateTime {
		return time.Time{}, false
	}
	return v.timeVal, true
}

// AsInt returns the int payload and whether v is an int.
func (v Value) AsInt() (int64, bool) {
	return v.intVal, v.kind == KindInt
}

// AsReal returns the real payload and whether v is a real.
func (v Value) AsReal() (float64, bool) {
	return v.realVal, v.kind == KindReal
}

// AsStr returns the str payload and whether v is a str.
func (v Value) AsStr() (string, bool) {
	return v.strVal, v.kind == KindStr
}

// ============================================================
// Equality
// ============================================================

// Equal reports whether v and o are the same variant with equal payloads.
// Reals compare within tolerance; different variants are never equal.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindBool:
		return v.boolVal == o.boolVal
	case KindBytes:
		return bytes.Equal(v.bytesVal, o.bytesVal)
	case KindDate, KindDateTime:
		return v.timeVal.Equal(o.timeVal)
	case KindInt:
		return v.intVal == o.intVal
	case KindReal:
		return isClose(v.realVal, o.realVal)
	case KindStr:
		return v.strVal == o.strVal
	default:
		return true
	}
}

const (
	relTolerance = 1e-9
	absTolerance = 1e-12
)

// isClose compares floats with a relative tolerance, falling back to an
// absolute one near zero.
func isClose(a, b float64) bool {
	if a == b {
		return true
	}
	if math.IsNaN(a) || math.IsNaN(b) || math.IsInf(a, 0) || math.IsInf(b, 0) {
		return false
	}
	diff := math.Abs(a - b)
	scale := math.Max(math.Abs(a), math.Abs(b))
	return diff <= math.Max(relTolerance*scale, absTolerance)
}

// String returns the value as a TDB literal, ignoring sentinels and the
// decimals setting. Use Slot.Encode for canonical output.
func (v Value) String() string {
	switch v.kind {
	case KindBool:
		return canonBool(v.boolVal)
	case KindBytes:
		return canonBytes(v.bytesVal)
	case KindDate:
		return v.timeVal.Format(layoutDate)
	case KindDateTime:
		return v.timeVal.Format(layoutDateTime)
	case KindInt:
		return canonInt(v.intVal)
	case KindReal:
		return canonReal(v.realVal, 0)
	case KindStr:
		return canonStr(v.strVal)
	default:
		return "?"
	}
}
