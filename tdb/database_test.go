package tdb

import (
	"errors"
	"testing"
)

func TestSchema_DuplicateField(t *testing.T) {
	s := &Schema{}
	if err := s.Add("a", KindInt); err != nil {
		t.Fatalf("Add(a) error: %v", err)
	}
	err := s.Add("a", KindStr)
	if !errors.Is(err, ErrDuplicateField) {
		t.Fatalf("Add(a) again = %v, want ErrDuplicateField", err)
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Len())
	}
}

func TestSchema_OrderAndIndex(t *testing.T) {
	s := MustSchema(Field{"zeta", KindInt}, Field{"alpha", KindStr}, Field{"mid", KindReal})
	want := []string{"zeta", "alpha", "mid"}
	for i, f := range s.Fields() {
		if f.Name != want[i] {
			t.Errorf("Fields()[%d] = %q, want %q", i, f.Name, want[i])
		}
	}
	if i, ok := s.Index("mid"); !ok || i != 2 {
		t.Errorf("Index(mid) = %d, %v, want 2", i, ok)
	}
	if _, ok := s.Index("nope"); ok {
		t.Error("Index(nope) should fail")
	}
	if s.String() != "zeta:int alpha:str mid:real" {
		t.Errorf("String() = %q", s.String())
	}
}

func TestSchema_Rejects(t *testing.T) {
	s := &Schema{}
	if err := s.Add("1abc", KindInt); !errors.Is(err, ErrSyntax) {
		t.Errorf("Add(1abc) = %v, want ErrSyntax", err)
	}
	if err := s.Add("x", KindInvalid); !errors.Is(err, ErrUnknownType) {
		t.Errorf("Add(x, invalid) = %v, want ErrUnknownType", err)
	}
}

func TestTable_ArityEnforced(t *testing.T) {
	for cols := 1; cols <= 6; cols++ {
		fields := make([]Field, cols)
		for i := range fields {
			fields[i] = Field{Name: "c" + string(rune('a'+i)), Kind: KindInt}
		}
		tbl := NewTable("T", MustSchema(fields...))
		for n := 0; n <= cols+2; n++ {
			row := make(Row, n)
			err := tbl.Append(row)
			if n == cols && err != nil {
				t.Errorf("cols=%d n=%d: unexpected error %v", cols, n, err)
			}
			if n != cols && !errors.Is(err, ErrArity) {
				t.Errorf("cols=%d n=%d: err = %v, want ErrArity", cols, n, err)
			}
		}
	}
}

func TestTable_TypeMismatch(t *testing.T) {
	tbl := NewTable("T", MustSchema(Field{"n", KindInt}, Field{"s", KindStr}))
	err := tbl.Append(Row{Present(Int(1)), Present(Int(2))})
	if !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("Append = %v, want ErrTypeMismatch", err)
	}
	if err := tbl.Append(Row{Sentinel(KindStr), Missing()}); !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("sentinel of wrong kind = %v, want ErrTypeMismatch", err)
	}
	if err := tbl.Append(Row{Sentinel(KindInt), Missing()}); err != nil {
		t.Errorf("Append sentinel/missing: %v", err)
	}
	if tbl.Len() != 1 {
		t.Errorf("Len() = %d, want 1", tbl.Len())
	}
}

func TestTable_Accessors(t *testing.T) {
	tbl := NewTable("People", MustSchema(Field{"name", KindStr}, Field{"age", KindInt}))
	if err := tbl.AppendValues(Str("Alice"), Int(30)); err != nil {
		t.Fatal(err)
	}
	if tbl.Columns() != 2 || tbl.Len() != 1 {
		t.Fatalf("Columns/Len = %d/%d", tbl.Columns(), tbl.Len())
	}
	s, ok := tbl.Get(0, "age")
	if !ok {
		t.Fatal("Get(0, age) failed")
	}
	if v, _ := s.Value(); !v.Equal(Int(30)) {
		t.Errorf("age = %v, want 30", v)
	}
	row := tbl.Row(0)
	row[0] = Missing()
	if tbl.Value(0, 0).IsMissing() {
		t.Error("Row() must return a copy")
	}
}

func TestTable_SchemaIsFixed(t *testing.T) {
	schema := MustSchema(Field{"a", KindInt})
	tbl := NewTable("T", schema)
	if err := tbl.AppendValues(Int(1)); err != nil {
		t.Fatal(err)
	}

	if err := tbl.Schema().Add("b", KindStr); err != nil {
		t.Fatal(err)
	}
	if err := schema.Add("c", KindStr); err != nil {
		t.Fatal(err)
	}
	if got := tbl.Columns(); got != 1 {
		t.Errorf("Columns() = %d, want 1", got)
	}
	if got := tbl.Schema().String(); got != "a:int" {
		t.Errorf("Schema() = %q, want a:int", got)
	}
	if err := tbl.AppendValues(Int(2)); err != nil {
		t.Errorf("append after outside schema edits: %v", err)
	}
}

func TestTable_IsValid(t *testing.T) {
	if NewTable("", MustSchema(Field{"a", KindInt})).IsValid() {
		t.Error("unnamed table should be invalid")
	}
	if NewTable("T", nil).IsValid() {
		t.Error("table without fields should be invalid")
	}
	if !NewTable("T", MustSchema(Field{"a", KindInt})).IsValid() {
		t.Error("named table with a field should be valid")
	}
}

func TestDatabase_InsertionOrder(t *testing.T) {
	db := NewDatabase()
	for _, name := range []string{"Zed", "Alpha", "Mid"} {
		if err := db.Insert(NewTable(name, MustSchema(Field{"a", KindInt}))); err != nil {
			t.Fatal(err)
		}
	}
	want := []string{"Zed", "Alpha", "Mid"}
	for i, tbl := range db.Tables() {
		if tbl.Name() != want[i] {
			t.Errorf("Tables()[%d] = %q, want %q", i, tbl.Name(), want[i])
		}
	}

	if !db.Remove("Alpha") {
		t.Fatal("Remove(Alpha) = false")
	}
	names := db.Names()
	if len(names) != 2 || names[0] != "Zed" || names[1] != "Mid" {
		t.Errorf("Names() after remove = %v", names)
	}
}

func TestDatabase_Rejects(t *testing.T) {
	db := NewDatabase()
	schema := MustSchema(Field{"a", KindInt})
	if err := db.Insert(NewTable("T", schema)); err != nil {
		t.Fatal(err)
	}
	if err := db.Insert(NewTable("T", schema)); !errors.Is(err, ErrDuplicateTable) {
		t.Errorf("duplicate insert = %v, want ErrDuplicateTable", err)
	}
	if err := db.Insert(NewTable("", schema)); !errors.Is(err, ErrInvalidTable) {
		t.Errorf("unnamed insert = %v, want ErrInvalidTable", err)
	}
	if err := db.Insert(nil); !errors.Is(err, ErrInvalidTable) {
		t.Errorf("nil insert = %v, want ErrInvalidTable", err)
	}
	if db.Len() != 1 {
		t.Errorf("Len() = %d, want 1", db.Len())
	}
}
