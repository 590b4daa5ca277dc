package tdb

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ============================================================
// JSON Bridge
// ============================================================
//
// A Database maps to:
//
//	{"tables": [
//	  {"name": "People",
//	   "fields": [{"name": "name", "type": "str"}, {"name": "age", "type": "int"}],
//	   "rows": [["Alice", 30], ["Bob", null]]}
//	]}
//
// Missing is null and Sentinel is {"$tdb": "sentinel"}. Bytes are uppercase
// hex strings; dates and datetimes are ISO strings.

const sentinelMarker = "sentinel"

type jsonDatabase struct {
	Tables []jsonTable `json:"tables"`
}

type jsonTable struct {
	Name   string              `json:"name"`
	Fields []jsonField         `json:"fields"`
	Rows   [][]json.RawMessage `json:"rows"`
}

type jsonField struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type jsonSentinel struct {
	TDB string `json:"$tdb"`
}

// ToJSON converts db to JSON, preserving table, column and row order.
func ToJSON(db *Database, indent bool) ([]byte, error) {
	out := jsonDatabase{Tables: make([]jsonTable, 0, db.Len())}
	for _, t := range db.Tables() {
		jt := jsonTable{
			Name:   t.name,
			Fields: make([]jsonField, len(t.schema.fields)),
			Rows:   make([][]json.RawMessage, 0, len(t.rows)),
		}
		for i, f := range t.schema.fields {
			jt.Fields[i] = jsonField{Name: f.Name, Type: f.Kind.String()}
		}
		for i, row := range t.rows {
			cells := make([]json.RawMessage, len(row))
			for j, s := range row {
				cell, err := slotToJSON(s)
				if err != nil {
					return nil, fmt.Errorf("table %q row %d column %d: %w", t.name, i+1, j+1, err)
				}
				cells[j] = cell
			}
			jt.Rows = append(jt.Rows, cells)
		}
		out.Tables = append(out.Tables, jt)
	}
	if indent {
		return json.MarshalIndent(out, "", "  ")
	}
	return json.Marshal(out)
}

func slotToJSON(s Slot) (json.RawMessage, error) {
	switch s.state {
	case StateMissing:
		return json.RawMessage("null"), nil
	case StateSentinel:
		return json.Marshal(jsonSentinel{TDB: sentinelMarker})
	}
	v := s.value
	switch v.kind {
	case KindBool:
		return json.Marshal(v.boolVal)
	case KindBytes:
		return json.Marshal(strings.ToUpper(hex.EncodeToString(v.bytesVal)))
	case KindDate, KindDateTime:
		return json.Marshal(v.String())
	case KindStr:
		return json.Marshal(v.strVal)
	case KindInt:
		return json.RawMessage(canonInt(v.intVal)), nil
	case KindReal:
		if !isFinite(v.realVal) {
			return nil, fmt.Errorf("%w: %v is not representable in JSON", ErrOutOfRange, v.realVal)
		}
		return json.RawMessage(strconv.FormatFloat(v.realVal, 'g', -1, 64)), nil
	}
	return nil, fmt.Errorf("%w: kind %s", ErrTypeMismatch, v.kind)
}

// FromJSON builds a Database from the JSON produced by ToJSON. The same
// structural checks as Parse apply.
func FromJSON(data []byte) (*Database, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var in jsonDatabase
	if err := dec.Decode(&in); err != nil {
		return nil, fmt.Errorf("JSON parse error: %w", err)
	}

	db := NewDatabase()
	for _, jt := range in.Tables {
		schema := &Schema{}
		for _, jf := range jt.Fields {
			kind, ok := ParseKind(jf.Type)
			if !ok {
				return nil, fmt.Errorf("table %q: %w %q", jt.Name, ErrUnknownType, jf.Type)
			}
			if err := schema.Add(jf.Name, kind); err != nil {
				return nil, fmt.Errorf("table %q: %w", jt.Name, err)
			}
		}
		t := NewTable(jt.Name, schema)
		for i, cells := range jt.Rows {
			if len(cells) != schema.Len() {
				return nil, fmt.Errorf("table %q row %d: %w: expected %d values, got %d",
					jt.Name, i+1, ErrArity, schema.Len(), len(cells))
			}
			row := make(Row, len(cells))
			for j, cell := range cells {
				s, err := slotFromJSON(cell, schema.fields[j].Kind)
				if err != nil {
					return nil, fmt.Errorf("table %q row %d column %d: %w", jt.Name, i+1, j+1, err)
				}
				row[j] = s
			}
			if err := t.Append(row); err != nil {
				return nil, err
			}
		}
		if err := db.Insert(t); err != nil {
			return nil, err
		}
	}
	return db, nil
}

func slotFromJSON(cell json.RawMessage, kind Kind) (Slot, error) {
	trimmed := bytes.TrimSpace(cell)
	if bytes.Equal(trimmed, []byte("null")) {
		return Missing(), nil
	}
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var m jsonSentinel
		if err := json.Unmarshal(trimmed, &m); err != nil || m.TDB != sentinelMarker {
			return Slot{}, fmt.Errorf("%w: unexpected object %s", ErrTypeMismatch, trimmed)
		}
		return Sentinel(kind), nil
	}

	switch kind {
	case KindBool:
		var b bool
		if err := json.Unmarshal(trimmed, &b); err != nil {
			return Slot{}, fmt.Errorf("%w: expected bool, got %s", ErrTypeMismatch, trimmed)
		}
		return Present(Bool(b)), nil

	case KindInt, KindReal:
		var n json.Number
		if err := json.Unmarshal(trimmed, &n); err != nil {
			return Slot{}, fmt.Errorf("%w: expected %s, got %s", ErrTypeMismatch, kind, trimmed)
		}
		if kind == KindInt {
			i, err := n.Int64()
			if err != nil {
				return Slot{}, fmt.Errorf("%w: %s is not an int", ErrTypeMismatch, n)
			}
			return Present(Int(i)), nil
		}
		f, err := n.Float64()
		if err != nil {
			return Slot{}, fmt.Errorf("%w: %s", ErrOutOfRange, n)
		}
		return Present(Real(f)), nil
	}

	var s string
	if err := json.Unmarshal(trimmed, &s); err != nil {
		return Slot{}, fmt.Errorf("%w: expected %s string, got %s", ErrTypeMismatch, kind, trimmed)
	}
	switch kind {
	case KindStr:
		return Present(Str(s)), nil
	case KindBytes:
		b, err := hex.DecodeString(s)
		if err != nil {
			return Slot{}, fmt.Errorf("%w: %v", ErrInvalidHex, err)
		}
		return Present(Bytes(b)), nil
	default:
		v, ek, err := parseScalar(kind, s)
		if err != nil {
			return Slot{}, fmt.Errorf("%w: %q: %v", ek.Err(), s, err)
		}
		return Present(v), nil
	}
}
