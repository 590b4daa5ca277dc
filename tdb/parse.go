package tdb

import (
	"fmt"
	"unicode"
	"unicode/utf8"
)

// ============================================================
// Parser
// ============================================================
//
// Grammar:
//
//	File       := (Blank | TableBlock)*
//	Blank      := WS* NEWLINE
//	TableBlock := '[' Ident (WS FieldSpec)+ ']' NEWLINE Row*
//	FieldSpec  := Ident ':' TypeName
//	Row        := Value (WS Value)* NEWLINE
//
// A blank line ends the current block. Parsing fails fast: the first error
// aborts and no Database is returned.

// Parse parses a complete TDB buffer.
func Parse(data []byte) (*Database, error) {
	p := &parser{
		data: data,
		line: 1,
		db:   NewDatabase(),
	}
	if err := p.parseFile(); err != nil {
		return nil, err
	}
	return p.db, nil
}

// ParseString parses TDB text.
func ParseString(s string) (*Database, error) {
	return Parse([]byte(s))
}

type parser struct {
	data []byte
	pos  int
	line int
	db   *Database
}

func (p *parser) errorf(kind ErrorKind, format string, args ...interface{}) *ParseError {
	return p.errorAt(kind, p.line, p.pos, format, args...)
}

func (p *parser) errorAt(kind ErrorKind, line, offset int, format string, args ...interface{}) *ParseError {
	return &ParseError{
		Kind:    kind,
		Line:    line,
		Offset:  offset,
		Message: fmt.Sprintf(format, args...),
	}
}

func (p *parser) eof() bool {
	return p.pos >= len(p.data)
}

func (p *parser) peek() byte {
	if p.pos >= len(p.data) {
		return 0
	}
	return p.data[p.pos]
}

func (p *parser) peekAt(off int) byte {
	if p.pos+off >= len(p.data) {
		return 0
	}
	return p.data[p.pos+off]
}

// skipSpace consumes spaces and tabs and reports whether any were consumed.
func (p *parser) skipSpace() bool {
	start := p.pos
	for p.pos < len(p.data) && isSpace(p.data[p.pos]) {
		p.pos++
	}
	return p.pos > start
}

// atEOL reports whether the cursor is at a newline or the end of input.
func (p *parser) atEOL() bool {
	c := p.peek()
	return p.eof() || c == '\n' || (c == '\r' && p.peekAt(1) == '\n')
}

// consumeEOL consumes one newline, if present.
func (p *parser) consumeEOL() {
	if p.peek() == '\r' && p.peekAt(1) == '\n' {
		p.pos++
	}
	if p.peek() == '\n' {
		p.pos++
		p.line++
	}
}

// atBlankLine reports whether the rest of the current line is whitespace.
func (p *parser) atBlankLine() bool {
	i := p.pos
	for i < len(p.data) && isSpace(p.data[i]) {
		i++
	}
	if i >= len(p.data) {
		return true
	}
	return p.data[i] == '\n' || (p.data[i] == '\r' && i+1 < len(p.data) && p.data[i+1] == '\n')
}

func (p *parser) skipBlankLine() {
	p.skipSpace()
	p.consumeEOL()
}

// ============================================================
// File and table blocks
// ============================================================

func (p *parser) parseFile() error {
	for !p.eof() {
		switch {
		case p.atBlankLine():
			p.skipBlankLine()
		case p.peek() == '[':
			if err := p.parseBlock(); err != nil {
				return err
			}
		default:
			return p.errorf(KindSyntax, "expected table header, got %q", p.restOfLine())
		}
	}
	return nil
}

func (p *parser) parseBlock() error {
	headerLine, headerPos := p.line, p.pos
	t, err := p.parseHeader()
	if err != nil {
		return err
	}
	if _, exists := p.db.Table(t.name); exists {
		return p.errorAt(KindDuplicateTable, headerLine, headerPos, "duplicate table %q", t.name)
	}

	for !p.eof() {
		if p.atBlankLine() {
			p.skipBlankLine()
			break
		}
		if p.peek() == '[' {
			break
		}
		if err := p.parseRow(t); err != nil {
			return err
		}
	}

	if err := p.db.Insert(t); err != nil {
		return p.errorAt(errorKindOf(err), headerLine, headerPos, "%v", err)
	}
	return nil
}

// parseHeader parses [Name field:type ...] and the newline that ends it.
func (p *parser) parseHeader() (*Table, error) {
	p.pos++ // consume [
	p.skipSpace()

	name, err := p.parseIdent("table name")
	if err != nil {
		return nil, err
	}
	schema := &Schema{}

	for {
		sawSpace := p.skipSpace()
		if p.eof() {
			return nil, p.errorf(KindUnexpectedEOF, "unterminated header for table %q", name)
		}
		if p.peek() == ']' {
			p.pos++
			break
		}
		if p.atEOL() {
			return nil, p.errorf(KindSyntax, "unterminated header for table %q", name)
		}
		if !sawSpace {
			return nil, p.errorf(KindSyntax, "expected space before field in header of table %q", name)
		}
		if err := p.parseFieldSpec(schema); err != nil {
			return nil, err
		}
	}

	if schema.Len() == 0 {
		return nil, p.errorf(KindSyntax, "table %q has no fields", name)
	}

	p.skipSpace()
	if !p.atEOL() {
		return nil, p.errorf(KindSyntax, "unexpected %q after header of table %q", p.restOfLine(), name)
	}
	p.consumeEOL()
	return NewTable(name, schema), nil
}

// parseFieldSpec parses name:type and adds it to schema.
func (p *parser) parseFieldSpec(schema *Schema) error {
	fieldPos := p.pos
	name, err := p.parseIdent("field name")
	if err != nil {
		return err
	}
	if p.eof() {
		return p.errorf(KindUnexpectedEOF, "unterminated field %q", name)
	}
	if p.peek() != ':' {
		return p.errorf(KindSyntax, "expected ':' after field %q", name)
	}
	p.pos++

	typePos := p.pos
	typeName, err := p.parseIdent("type name")
	if err != nil {
		return err
	}
	kind, ok := ParseKind(typeName)
	if !ok {
		return p.errorAt(KindUnknownType, p.line, typePos, "unknown type %q for field %q", typeName, name)
	}
	if err := schema.Add(name, kind); err != nil {
		return p.errorAt(errorKindOf(err), p.line, fieldPos, "%v", err)
	}
	return nil
}

// parseIdent reads a letter or underscore followed by letters, digits and
// underscores.
func (p *parser) parseIdent(what string) (string, error) {
	start := p.pos
	for p.pos < len(p.data) {
		r, size := utf8.DecodeRune(p.data[p.pos:])
		if r == '_' || isLetter(r) || (p.pos > start && isDigit(r)) {
			p.pos += size
			continue
		}
		break
	}
	if p.pos == start {
		if p.eof() {
			return "", p.errorf(KindUnexpectedEOF, "expected %s", what)
		}
		return "", p.errorf(KindSyntax, "expected %s, got %q", what, p.restOfLine())
	}
	return string(p.data[start:p.pos]), nil
}

// ============================================================
// Rows
// ============================================================

func (p *parser) parseRow(t *Table) error {
	rowLine, rowPos := p.line, p.pos
	n := t.schema.Len()
	row := make(Row, 0, n)

	for {
		p.skipSpace()
		if p.atEOL() {
			break
		}
		if len(row) == n {
			extra := p.countTokens()
			return p.errorAt(KindArity, rowLine, rowPos,
				"table %q expects %d values, got %d", t.name, n, n+extra)
		}
		f := t.schema.fields[len(row)]
		slot, err := p.parseSlot(f, len(row))
		if err != nil {
			return err
		}
		if !p.atEOL() && !isSpace(p.peek()) {
			return p.errorf(KindSyntax, "expected space after value in column %d (%s)", len(row)+1, f.Name)
		}
		row = append(row, slot)
	}

	if len(row) != n {
		return p.errorAt(KindArity, rowLine, rowPos,
			"table %q expects %d values, got %d", t.name, n, len(row))
	}
	p.consumeEOL()

	if err := t.Append(row); err != nil {
		return p.errorAt(errorKindOf(err), rowLine, rowPos, "%v", err)
	}
	return nil
}

// countTokens counts the whitespace-delimited tokens left on the line,
// treating <...> and (...) literals as single tokens.
func (p *parser) countTokens() int {
	count := 0
	i := p.pos
	for i < len(p.data) {
		for i < len(p.data) && isSpace(p.data[i]) {
			i++
		}
		if i >= len(p.data) || p.data[i] == '\n' || p.data[i] == '\r' {
			break
		}
		count++
		switch p.data[i] {
		case '<':
			i++
			for i < len(p.data) && p.data[i] != '>' {
				if p.data[i] == escapeChar {
					i++
				}
				i++
			}
			i++
		case '(':
			for i < len(p.data) && p.data[i] != ')' && p.data[i] != '\n' {
				i++
			}
			i++
		default:
			for i < len(p.data) && !isSpace(p.data[i]) && p.data[i] != '\n' && p.data[i] != '\r' {
				i++
			}
		}
	}
	return count
}

// restOfLine returns the remainder of the current line, shortened for
// error messages.
func (p *parser) restOfLine() string {
	end := p.pos
	for end < len(p.data) && p.data[end] != '\n' && end-p.pos < 40 {
		end++
	}
	return string(p.data[p.pos:end])
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t'
}

func isLetter(r rune) bool {
	return unicode.IsLetter(r)
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}
