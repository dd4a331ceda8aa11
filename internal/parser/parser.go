// Package parser compiles the schema definition language into a
// schema.RecordSchema.
//
// Grammar (keywords are case-insensitive, whitespace between tokens is free):
//
//	schema := ws 'table' ws1 ident ws '(' fields ')' ws ';' ws EOF
//	fields := (field ',')*
//	field  := ws ident ws1 type
//	type   := 'integer' | 'float' | 'string'
//	        | 'list'   '(' type   ')'
//	        | 'record' '(' fields ')'
//	ident  := [A-Za-z0-9_]+
//
// Every parenthesised body is first cut out with a balanced-delimiter scan
// and then parsed on its own. A failure anywhere aborts the whole parse; a
// partial schema is never returned.
package parser

import (
	"strings"

	"github.com/koustreak/datame/internal/errs"
	"github.com/koustreak/datame/internal/logger"
	"github.com/koustreak/datame/internal/schema"
)

// Table is a parsed definition: the table name and its schema.
type Table struct {
	Name   string
	Schema *schema.RecordSchema
}

// Canonical renders the table back to DSL text that parses to an equal schema.
func (t *Table) Canonical() string {
	return schema.Format(t.Name, t.Schema)
}

// Parser parses schema definitions. It is stateless apart from its logger
// and safe for concurrent use.
type Parser struct {
	log *logger.Logger
}

// New returns a Parser that traces its progress to log. A nil log disables tracing.
func New(log *logger.Logger) *Parser {
	if log == nil {
		log = logger.Nop()
	}
	return &Parser{log: log}
}

// Parse parses input and returns its schema.
func Parse(input string) (*schema.RecordSchema, error) {
	t, err := New(nil).ParseTable(input)
	if err != nil {
		return nil, err
	}
	return t.Schema, nil
}

// ParseTable parses input and returns the table name with its schema.
func ParseTable(input string) (*Table, error) {
	return New(nil).ParseTable(input)
}

// Parse parses input and returns its schema.
func (p *Parser) Parse(input string) (*schema.RecordSchema, error) {
	t, err := p.ParseTable(input)
	if err != nil {
		return nil, err
	}
	return t.Schema, nil
}

// ParseTable parses input and returns the table name with its schema. Errors
// are *errs.Error of kind ErrKindParse wrapping a *SyntaxError.
func (p *Parser) ParseTable(input string) (*Table, error) {
	t, synErr := p.table(newCursor(input))
	if synErr != nil {
		p.log.Debugf("schema rejected: %v", synErr)
		return nil, errs.Wrap(errs.ErrKindParse, "invalid schema definition", synErr)
	}
	return t, nil
}

func (p *Parser) table(c *cursor) (*Table, *SyntaxError) {
	c.skipSpace()
	start := c.pos
	kw, ok := c.ident()
	if !ok || !strings.EqualFold(kw, "table") {
		return nil, p.expected(c, start, "'table'", kw)
	}
	if c.skipSpace() == 0 {
		return nil, p.expected(c, c.pos, "whitespace after 'table'", "")
	}

	name, ok := c.ident()
	if !ok {
		return nil, p.expected(c, c.pos, "table name", "")
	}
	p.trace(c, "table name", name)

	c.skipSpace()
	body, synErr := p.parenthesised(c)
	if synErr != nil {
		return nil, synErr
	}
	fields, synErr := p.fields(&body)
	if synErr != nil {
		return nil, synErr
	}

	c.skipSpace()
	if !c.consume(';') {
		e := newSyntaxError(c.src, c.pos, ErrMissingTerminator)
		e.Expected = "';'"
		return nil, e
	}
	c.skipSpace()
	if !c.eof() {
		return nil, newSyntaxError(c.src, c.pos, ErrTrailing)
	}

	return &Table{Name: name, Schema: fields}, nil
}

// parenthesised consumes '(' ... ')' and returns the inner span.
func (p *Parser) parenthesised(c *cursor) (cursor, *SyntaxError) {
	open := c.pos
	if !c.consume('(') {
		return cursor{}, p.expected(c, c.pos, "'('", "")
	}
	body, ok := c.balanced('(', ')')
	if !ok {
		e := newSyntaxError(c.src, open, ErrUnbalanced)
		e.Expected = "')'"
		return cursor{}, e
	}
	p.trace(c, "span", body.rest())
	return body, nil
}

// fields parses a whole span as a sequence of "field ,".
func (p *Parser) fields(c *cursor) (*schema.RecordSchema, *SyntaxError) {
	s := schema.New()
	seen := make(map[string]struct{})

	for {
		c.skipSpace()
		if c.eof() {
			return s, nil
		}
		start := c.pos
		if !isIdent(c.peek()) {
			return nil, newSyntaxError(c.src, start, ErrTrailing)
		}

		f, synErr := p.field(c)
		if synErr != nil {
			return nil, synErr
		}
		if _, dup := seen[f.Name()]; dup {
			e := newSyntaxError(c.src, start, ErrDuplicateField)
			e.Token = f.Name()
			return nil, e
		}
		seen[f.Name()] = struct{}{}

		c.skipSpace()
		if !c.consume(',') {
			return nil, p.expected(c, c.pos, "','", "")
		}
		s.AddField(f)
		p.trace(c, "field", f.Name())
	}
}

func (p *Parser) field(c *cursor) (schema.Field, *SyntaxError) {
	name, _ := c.ident()
	if c.skipSpace() == 0 {
		return schema.Field{}, p.expected(c, c.pos, "whitespace before type", "")
	}
	t, synErr := p.fieldType(c)
	if synErr != nil {
		return schema.Field{}, synErr
	}
	return schema.NewField(name, t), nil
}

func (p *Parser) fieldType(c *cursor) (schema.FieldType, *SyntaxError) {
	start := c.pos
	word, ok := c.ident()
	if !ok {
		return nil, p.expected(c, start, "type", "")
	}

	switch strings.ToLower(word) {
	case "integer":
		return schema.NewInteger(nil), nil
	case "float":
		return schema.NewFloat(nil), nil
	case "string":
		return schema.NewString(nil), nil

	case "list":
		c.skipSpace()
		body, synErr := p.parenthesised(c)
		if synErr != nil {
			return nil, synErr
		}
		body.skipSpace()
		elem, synErr := p.fieldType(&body)
		if synErr != nil {
			return nil, synErr
		}
		body.skipSpace()
		if !body.eof() {
			return nil, newSyntaxError(body.src, body.pos, ErrTrailing)
		}
		return schema.ListOf(elem), nil

	case "record":
		c.skipSpace()
		body, synErr := p.parenthesised(c)
		if synErr != nil {
			return nil, synErr
		}
		nested, synErr := p.fields(&body)
		if synErr != nil {
			return nil, synErr
		}
		return schema.RecordOf(nested), nil
	}

	e := newSyntaxError(c.src, start, ErrUnknownType)
	e.Token = word
	return nil, e
}

func (p *Parser) expected(c *cursor, off int, what, token string) *SyntaxError {
	e := newSyntaxError(c.src, off, ErrExpected)
	e.Expected = what
	e.Token = token
	return e
}

func (p *Parser) trace(c *cursor, what, matched string) {
	if !p.log.TraceEnabled() {
		return
	}
	p.log.Tracef("matched %s %q, remaining %q", what, matched, c.src[c.pos:])
}
