package tdb

import "strings"

// State is the state of a row slot.
type State uint8

const (
	StateMissing  State = iota // no data supplied, written as ?
	StatePresent               // holds a Value
	StateSentinel              // the type's reserved default, written as !
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateMissing:
		return "missing"
	case StatePresent:
		return "present"
	case StateSentinel:
		return "sentinel"
	default:
		return "unknown"
	}
}

// Slot is one field of a row. The zero Slot is Missing.
type Slot struct {
	state State
	kind  Kind // set for Sentinel slots
	value Value
}

// Row is one record: one slot per column, in column order.
type Row []Slot

// Missing returns a slot with no data.
func Missing() Slot {
	return Slot{}
}

// Sentinel returns the reserved default slot for kind k.
func Sentinel(k Kind) Slot {
	return Slot{state: StateSentinel, kind: k}
}

// Present wraps v. A value holding its kind's reserved constant becomes the
// Sentinel slot for that kind.
func Present(v Value) Slot {
	if isReserved(v) {
		return Sentinel(v.kind)
	}
	return Slot{state: StatePresent, value: v}
}

// RowOf builds a row of present slots from values.
func RowOf(values ...Value) Row {
	row := make(Row, len(values))
	for i, v := range values {
		row[i] = Present(v)
	}
	return row
}

// State returns the slot's state.
func (s Slot) State() State {
	return s.state
}

func (s Slot) IsMissing() bool  { return s.state == StateMissing }
func (s Slot) IsPresent() bool  { return s.state == StatePresent }
func (s Slot) IsSentinel() bool { return s.state == StateSentinel }

// Value returns the held value and true when the slot is Present.
func (s Slot) Value() (Value, bool) {
	if s.state != StatePresent {
		return Value{}, false
	}
	return s.value, true
}

// Kind returns the kind carried by a Present or Sentinel slot, or
// KindInvalid for Missing.
func (s Slot) Kind() Kind {
	switch s.state {
	case StatePresent:
		return s.value.kind
	case StateSentinel:
		return s.kind
	default:
		return KindInvalid
	}
}

// Encode returns the canonical literal for the slot. Missing takes priority
// over any value encoding.
func (s Slot) Encode(decimals int) string {
	switch s.state {
	case StatePresent:
		return encodeValue(s.value, decimals)
	case StateSentinel:
		return sentinelLiteral
	default:
		return missingLiteral
	}
}

// String returns the slot's literal in shortest real form.
func (s Slot) String() string {
	return s.Encode(DefaultDecimals)
}

// Equal reports whether two slots are in the same state and, when Present,
// hold equal values.
func (s Slot) Equal(o Slot) bool {
	if s.state != o.state {
		return false
	}
	switch s.state {
	case StatePresent:
		return s.value.Equal(o.value)
	case StateSentinel:
		return s.kind == o.kind
	default:
		return true
	}
}

// Equal reports whether two rows have pairwise equal slots.
func (r Row) Equal(o Row) bool {
	if len(r) != len(o) {
		return false
	}
	for i := range r {
		if !r[i].Equal(o[i]) {
			return false
		}
	}
	return true
}

// Encode returns the row's space-joined literals.
func (r Row) Encode(decimals int) string {
	parts := make([]string, len(r))
	for i, s := range r {
		parts[i] = s.Encode(decimals)
	}
	return strings.Join(parts, " ")
}
