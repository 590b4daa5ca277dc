// Package tdb implements TDB, a typed, human-readable tabular text format.
//
// A TDB file holds one or more named tables. Each table starts with a
// header that declares its schema, followed by one row per line:
//
//	[People name:str age:int born:date]
//	<Alice Smith> 30 1994-03-01
//	Bob ? !
//
//	[Blobs id:int data:bytes]
//	1 (DEAD)
//
// # Data Model
//
// Types: bool, bytes, date, datetime, int, real, str
//
// Every row slot is in one of three states:
//   - Present: a Value whose kind matches the column
//   - Missing: no data, written as ?
//   - Sentinel: the type's reserved default, written as !
//
// # Literals
//
//	Bool:      T / F
//	Bytes:     (DEADBEEF)         two uppercase hex digits per byte
//	Date:      2024-01-31
//	DateTime:  2024-01-31T12:30:00 (T12:30 and T12 accepted on read)
//	Int:       -42
//	Real:      3.14               fixed decimals, or shortest form when 0
//	Str:       <text>             \< \> \\ are the only escapes
//
// The grammar of each row value is chosen by its column's declared type,
// never inferred from the token shape.
//
// # Round Trip
//
// Parse and Write are inverses: Write(Parse(Write(db))) == Write(db) at a
// fixed precision, and table, column and row order is always preserved.
package tdb
