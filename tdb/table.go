package tdb

import "fmt"

// Table is a named schema plus its rows.
type Table struct {
	name   string
	schema *Schema
	rows   []Row
}

// NewTable creates an empty table with a copy of schema, so later changes
// to the caller's schema do not reach the table. The result may be invalid
// (see IsValid); Database.Insert refuses invalid tables.
func NewTable(name string, schema *Schema) *Table {
	return &Table{name: name, schema: schema.clone()}
}

// IsValid reports whether the table has a valid name and at least one field.
func (t *Table) IsValid() bool {
	return t != nil && isIdent(t.name) && t.schema.Len() > 0
}

// Name returns the table name.
func (t *Table) Name() string {
	return t.name
}

// Schema returns a copy of the table's schema. Fields are fixed once the
// table exists; adding to the copy does not change the table.
func (t *Table) Schema() *Schema {
	return t.schema.clone()
}

// Columns returns the number of columns.
func (t *Table) Columns() int {
	return t.schema.Len()
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// Row returns a copy of the i-th row.
func (t *Table) Row(i int) Row {
	out := make(Row, len(t.rows[i]))
	copy(out, t.rows[i])
	return out
}

// Value returns the slot at row i, column j.
func (t *Table) Value(i, j int) Slot {
	return t.rows[i][j]
}

// Get returns the slot at row i in the named column.
func (t *Table) Get(i int, column string) (Slot, bool) {
	j, ok := t.schema.Index(column)
	if !ok || i < 0 || i >= len(t.rows) {
		return Slot{}, false
	}
	return t.rows[i][j], true
}

// Rows calls fn for each row in order until fn returns false.
func (t *Table) Rows(fn func(i int, row Row) bool) {
	for i, row := range t.rows {
		if !fn(i, row) {
			return
		}
	}
}

// Append adds a row after checking its arity and slot kinds against the
// schema. The row is copied.
func (t *Table) Append(row Row) error {
	if err := t.checkRow(row); err != nil {
		return err
	}
	stored := make(Row, len(row))
	copy(stored, row)
	t.rows = append(t.rows, stored)
	return nil
}

// AppendValues appends a row of present values.
func (t *Table) AppendValues(values ...Value) error {
	return t.Append(RowOf(values...))
}

func (t *Table) checkRow(row Row) error {
	if len(row) != t.schema.Len() {
		return fmt.Errorf("%w: table %q expects %d values, got %d",
			ErrArity, t.name, t.schema.Len(), len(row))
	}
	for i, s := range row {
		if s.IsMissing() {
			continue
		}
		f := t.schema.fields[i]
		if s.Kind() != f.Kind {
			return fmt.Errorf("%w at column %d (%s): expected %s, got %s",
				ErrTypeMismatch, i+1, f.Name, f.Kind, s.Kind())
		}
	}
	return nil
}

// Equal reports whether two tables have the same name, schema and rows.
func (t *Table) Equal(o *Table) bool {
	if t.name != o.name || !t.schema.Equal(o.schema) || len(t.rows) != len(o.rows) {
		return false
	}
	for i := range t.rows {
		if !t.rows[i].Equal(o.rows[i]) {
			return false
		}
	}
	return true
}
