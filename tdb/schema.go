package tdb

import (
	"fmt"
	"strings"
)

// Field is a column definition.
type Field struct {
	Name string
	Kind Kind
}

// String returns the field as it appears in a table header: name:type.
func (f Field) String() string {
	return f.Name + ":" + f.Kind.String()
}

// Schema is an ordered list of uniquely named fields.
type Schema struct {
	fields []Field
	index  map[string]int
}

// NewSchema creates a schema from fields, rejecting duplicates.
func NewSchema(fields ...Field) (*Schema, error) {
	s := &Schema{}
	for _, f := range fields {
		if err := s.Add(f.Name, f.Kind); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// MustSchema is like NewSchema but panics on error. Intended for tests and
// static declarations.
func MustSchema(fields ...Field) *Schema {
	s, err := NewSchema(fields...)
	if err != nil {
		panic(err)
	}
	return s
}

// clone returns an independent copy; a nil schema yields an empty one.
func (s *Schema) clone() *Schema {
	out := &Schema{}
	if s == nil {
		return out
	}
	out.fields = append([]Field(nil), s.fields...)
	if s.index != nil {
		out.index = make(map[string]int, len(s.index))
		for k, v := range s.index {
			out.index[k] = v
		}
	}
	return out
}

// Add appends a field to the schema.
func (s *Schema) Add(name string, kind Kind) error {
	if !isIdent(name) {
		return fmt.Errorf("%w: invalid field name %q", ErrSyntax, name)
	}
	if !kind.Valid() {
		return fmt.Errorf("%w: field %q has type %s", ErrUnknownType, name, kind)
	}
	if s.index == nil {
		s.index = make(map[string]int)
	}
	if _, exists := s.index[name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateField, name)
	}
	s.index[name] = len(s.fields)
	s.fields = append(s.fields, Field{Name: name, Kind: kind})
	return nil
}

// Len returns the number of fields.
func (s *Schema) Len() int {
	if s == nil {
		return 0
	}
	return len(s.fields)
}

// Field returns the i-th field.
func (s *Schema) Field(i int) Field {
	return s.fields[i]
}

// Fields returns a copy of the fields in declaration order.
func (s *Schema) Fields() []Field {
	if s == nil {
		return nil
	}
	out := make([]Field, len(s.fields))
	copy(out, s.fields)
	return out
}

// Index returns the column index of the named field.
func (s *Schema) Index(name string) (int, bool) {
	if s == nil {
		return -1, false
	}
	i, ok := s.index[name]
	if !ok {
		return -1, false
	}
	return i, true
}

// Equal reports whether two schemas have the same fields in the same order.
func (s *Schema) Equal(o *Schema) bool {
	if s.Len() != o.Len() {
		return false
	}
	for i := 0; i < s.Len(); i++ {
		if s.fields[i] != o.fields[i] {
			return false
		}
	}
	return true
}

// String returns the space-joined name:type pairs.
func (s *Schema) String() string {
	parts := make([]string, s.Len())
	for i := range parts {
		parts[i] = s.fields[i].String()
	}
	return strings.Join(parts, " ")
}

// isIdent reports whether s is a table or field name: a letter or
// underscore followed by letters, digits or underscores.
func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if r == '_' || isLetter(r) {
			continue
		}
		if i > 0 && isDigit(r) {
			continue
		}
		return false
	}
	return true
}
