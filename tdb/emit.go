package tdb

import (
	"bytes"
	"fmt"
	"io"
	"math"
)

// ============================================================
// Writer
// ============================================================
//
// Canonical form:
//
//	[Name field:type field:type]
//	value value
//	value value
//
//	[Next ...]
//
// Tables appear in insertion order, separated by one blank line. Every row
// ends with a newline.

// WriteOptions configures canonical output.
type WriteOptions struct {
	// Decimals is the number of digits after the decimal point for reals,
	// clamped into 0..MaxDecimals. 0 writes the shortest round-trip form.
	Decimals int
}

// DefaultWriteOptions returns the default writer options.
func DefaultWriteOptions() WriteOptions {
	return WriteOptions{Decimals: DefaultDecimals}
}

// Write serializes db in canonical form.
func Write(db *Database, decimals int) (string, error) {
	return WriteWithOptions(db, WriteOptions{Decimals: decimals})
}

// WriteWithOptions serializes db with custom options.
func WriteWithOptions(db *Database, opts WriteOptions) (string, error) {
	var buf bytes.Buffer
	if err := emitDatabase(&buf, db, opts); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Emit writes db in canonical form to w. Nothing is written if the database
// fails validation.
func Emit(w io.Writer, db *Database, opts WriteOptions) error {
	var buf bytes.Buffer
	if err := emitDatabase(&buf, db, opts); err != nil {
		return err
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// String returns the canonical form with default options, or an empty
// string when the database cannot be written.
func (db *Database) String() string {
	s, _ := Write(db, DefaultDecimals)
	return s
}

func emitDatabase(out *bytes.Buffer, db *Database, opts WriteOptions) error {
	if db == nil {
		return nil
	}
	decimals := sanitizeDecimals(opts.Decimals)
	for i, t := range db.Tables() {
		if i > 0 {
			out.WriteByte('\n')
		}
		if err := emitTable(out, t, decimals); err != nil {
			return err
		}
	}
	return nil
}

func emitTable(out *bytes.Buffer, t *Table, decimals int) error {
	if !t.IsValid() {
		return &WriteError{Table: t.name, Row: -1, Err: ErrInvalidTable}
	}

	out.WriteByte('[')
	out.WriteString(t.name)
	for _, f := range t.schema.fields {
		out.WriteByte(' ')
		out.WriteString(f.String())
	}
	out.WriteString("]\n")

	for i, row := range t.rows {
		if err := t.checkRow(row); err != nil {
			return &WriteError{Table: t.name, Row: i, Err: err}
		}
		for j, s := range row {
			if j > 0 {
				out.WriteByte(' ')
			}
			if err := checkWritable(s); err != nil {
				return &WriteError{Table: t.name, Row: i,
					Err: fmt.Errorf("%w: column %d %v", ErrOutOfRange, j+1, err)}
			}
			out.WriteString(s.Encode(decimals))
		}
		out.WriteByte('\n')
	}
	return nil
}

// checkWritable rejects present values that have no literal the parser
// would read back.
func checkWritable(s Slot) error {
	v, ok := s.Value()
	if !ok {
		return nil
	}
	switch v.kind {
	case KindReal:
		if !isFinite(v.realVal) {
			return fmt.Errorf("holds %v", v.realVal)
		}
	case KindDate, KindDateTime:
		if !inYearRange(v.timeVal) {
			return fmt.Errorf("has year %d outside 0..9999", v.timeVal.Year())
		}
	}
	return nil
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
