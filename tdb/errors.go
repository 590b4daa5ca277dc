package tdb

import (
	"errors"
	"fmt"
)

// ErrorKind classifies parse and build errors.
type ErrorKind uint8

const (
	KindSyntax ErrorKind = iota
	KindUnknownType
	KindDuplicateField
	KindDuplicateTable
	KindUnterminatedString
	KindInvalidEscape
	KindInvalidHex
	KindUnexpectedEOF
	KindArity
	KindTypeMismatch
	KindOutOfRange
	KindInvalidTable
)

// Sentinel errors, one per ErrorKind. Use errors.Is to classify.
var (
	ErrSyntax             = errors.New("syntax error")
	ErrUnknownType        = errors.New("unknown type")
	ErrDuplicateField     = errors.New("duplicate field")
	ErrDuplicateTable     = errors.New("duplicate table")
	ErrUnterminatedString = errors.New("unterminated string")
	ErrInvalidEscape      = errors.New("invalid escape")
	ErrInvalidHex         = errors.New("invalid hex in bytes literal")
	ErrUnexpectedEOF      = errors.New("unexpected end of input")
	ErrArity              = errors.New("arity mismatch")
	ErrTypeMismatch       = errors.New("type mismatch")
	ErrOutOfRange         = errors.New("value out of range")
	ErrInvalidTable       = errors.New("invalid table")
)

var kindErrors = [...]error{
	KindSyntax:             ErrSyntax,
	KindUnknownType:        ErrUnknownType,
	KindDuplicateField:     ErrDuplicateField,
	KindDuplicateTable:     ErrDuplicateTable,
	KindUnterminatedString: ErrUnterminatedString,
	KindInvalidEscape:      ErrInvalidEscape,
	KindInvalidHex:         ErrInvalidHex,
	KindUnexpectedEOF:      ErrUnexpectedEOF,
	KindArity:              ErrArity,
	KindTypeMismatch:       ErrTypeMismatch,
	KindOutOfRange:         ErrOutOfRange,
	KindInvalidTable:       ErrInvalidTable,
}

// Err returns the sentinel error for k.
func (k ErrorKind) Err() error {
	if int(k) < len(kindErrors) {
		return kindErrors[k]
	}
	return ErrSyntax
}

// String returns the kind's description.
func (k ErrorKind) String() string {
	return k.Err().Error()
}

// errorKindOf maps a sentinel (possibly wrapped) back to its kind.
func errorKindOf(err error) ErrorKind {
	for k, sentinel := range kindErrors {
		if errors.Is(err, sentinel) {
			return ErrorKind(k)
		}
	}
	return KindSyntax
}

// ParseError is a positioned parse failure.
type ParseError struct {
	Kind    ErrorKind
	Line    int // 1-based
	Offset  int // byte offset into the input
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("tdb: %s at line %d", e.Message, e.Line)
}

// Unwrap returns the sentinel for e.Kind.
func (e *ParseError) Unwrap() error {
	return e.Kind.Err()
}

// WriteError reports a structural problem found while serializing a
// programmatically built Database.
type WriteError struct {
	Table string
	Row   int // -1 when the problem is in the table itself
	Err   error
}

func (e *WriteError) Error() string {
	if e.Row >= 0 {
		return fmt.Sprintf("tdb: write table %q row %d: %v", e.Table, e.Row+1, e.Err)
	}
	return fmt.Sprintf("tdb: write table %q: %v", e.Table, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}
