package tdb

import "fmt"

// Database is an ordered collection of uniquely named tables. Iteration
// follows insertion order, which for a parsed database is source order.
type Database struct {
	names  []string
	tables map[string]*Table
}

// NewDatabase creates an empty database.
func NewDatabase() *Database {
	return &Database{tables: make(map[string]*Table)}
}

// Insert adds a table. Invalid tables and duplicate names are rejected.
func (db *Database) Insert(t *Table) error {
	if !t.IsValid() {
		name := ""
		if t != nil {
			name = t.name
		}
		return fmt.Errorf("%w: %q needs a name and at least one field", ErrInvalidTable, name)
	}
	if db.tables == nil {
		db.tables = make(map[string]*Table)
	}
	if _, exists := db.tables[t.name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateTable, t.name)
	}
	db.tables[t.name] = t
	db.names = append(db.names, t.name)
	return nil
}

// Remove deletes the named table, preserving the order of the rest.
func (db *Database) Remove(name string) bool {
	if _, ok := db.tables[name]; !ok {
		return false
	}
	delete(db.tables, name)
	for i, n := range db.names {
		if n == name {
			db.names = append(db.names[:i], db.names[i+1:]...)
			break
		}
	}
	return true
}

// Table returns the named table.
func (db *Database) Table(name string) (*Table, bool) {
	t, ok := db.tables[name]
	return t, ok
}

// Len returns the number of tables.
func (db *Database) Len() int {
	return len(db.names)
}

// Names returns the table names in insertion order.
func (db *Database) Names() []string {
	out := make([]string, len(db.names))
	copy(out, db.names)
	return out
}

// Tables returns the tables in insertion order.
func (db *Database) Tables() []*Table {
	out := make([]*Table, len(db.names))
	for i, n := range db.names {
		out[i] = db.tables[n]
	}
	return out
}

// Equal reports whether two databases hold equal tables in the same order.
func (db *Database) Equal(o *Database) bool {
	if db.Len() != o.Len() {
		return false
	}
	for i, n := range db.names {
		if o.names[i] != n || !db.tables[n].Equal(o.tables[n]) {
			return false
		}
	}
	return true
}
