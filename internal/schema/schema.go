// Package schema defines the typed record schema: an ordered list of named
// fields, each scalar (with its own generator), a list of another type, or a
// nested record.
//
// A RecordSchema tracks two derived flags, ContainsRecord and ContainsList,
// which the capability gate compares against a writer's declared support.
// The flags are updated incrementally as fields are added and only look one
// level into the new field's type:
//
//   - a Record field sets ContainsRecord and inherits the nested ContainsList
//   - a List field sets ContainsList, and ContainsRecord when its element is a Record
//
// A List of List of Record therefore does not set ContainsRecord.
package schema

import (
	"strings"
)

// RecordSchema is an ordered sequence of fields plus the derived capability flags.
// Build it once, then treat it as read-only.
type RecordSchema struct {
	fields         []Field
	containsRecord bool
	containsList   bool
}

// New returns an empty schema.
func New() *RecordSchema {
	return &RecordSchema{}
}

// AddField appends f and updates the flags from f's type alone.
func (s *RecordSchema) AddField(f Field) {
	switch t := f.typ.(type) {
	case Record:
		s.containsRecord = true
		if t.Schema != nil && t.Schema.ContainsList() {
			s.containsList = true
		}
	case List:
		s.containsList = true
		if _, ok := t.Elem.(Record); ok {
			s.containsRecord = true
		}
	}
	s.fields = append(s.fields, f)
}

// WithField returns a copy of s with f appended. s itself is left unchanged
// and the copy shares no generator state with it.
func (s *RecordSchema) WithField(f Field) *RecordSchema {
	c := s.Clone()
	c.AddField(f)
	return c
}

// Len returns the number of fields.
func (s *RecordSchema) Len() int {
	return len(s.fields)
}

// Field returns the i-th field.
func (s *RecordSchema) Field(i int) Field {
	return s.fields[i]
}

// Fields returns a copy of the field list.
func (s *RecordSchema) Fields() []Field {
	out := make([]Field, len(s.fields))
	copy(out, s.fields)
	return out
}

// Lookup returns the first field named name.
func (s *RecordSchema) Lookup(name string) (Field, bool) {
	for _, f := range s.fields {
		if f.name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Names returns field names in order.
func (s *RecordSchema) Names() []string {
	names := make([]string, len(s.fields))
	for i, f := range s.fields {
		names[i] = f.name
	}
	return names
}

func (s *RecordSchema) ContainsRecord() bool { return s.containsRecord }
func (s *RecordSchema) ContainsList() bool   { return s.containsList }

// Clone deep-copies the schema, cloning every generator.
func (s *RecordSchema) Clone() *RecordSchema {
	c := &RecordSchema{
		fields:         make([]Field, len(s.fields)),
		containsRecord: s.containsRecord,
		containsList:   s.containsList,
	}
	for i, f := range s.fields {
		c.fields[i] = f.clone()
	}
	return c
}

// String renders the field list in DSL syntax, e.g. "(a integer, b string,)".
func (s *RecordSchema) String() string {
	var sb strings.Builder
	sb.WriteByte('(')
	writeFields(&sb, s)
	sb.WriteByte(')')
	return sb.String()
}

// Format renders a complete, parseable schema definition for table.
func Format(table string, s *RecordSchema) string {
	return "table " + table + s.String() + ";"
}

func writeFields(sb *strings.Builder, s *RecordSchema) {
	if s == nil {
		return
	}
	for i, f := range s.fields {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(f.name)
		sb.WriteByte(' ')
		sb.WriteString(f.typ.String())
		sb.WriteByte(',')
	}
}

// Equal reports whether a and b have the same field names, order and types,
// recursively. Generators are not compared.
func Equal(a, b *RecordSchema) bool {
	if a == nil || b == nil {
		return a == b
	}
	if len(a.fields) != len(b.fields) {
		return false
	}
	if a.containsRecord != b.containsRecord || a.containsList != b.containsList {
		return false
	}
	for i := range a.fields {
		if a.fields[i].name != b.fields[i].name {
			return false
		}
		if !TypeEqual(a.fields[i].typ, b.fields[i].typ) {
			return false
		}
	}
	return true
}

// TypeEqual reports whether two field types have the same shape.
func TypeEqual(a, b FieldType) bool {
	if a.Kind() != b.Kind() {
		return false
	}
	switch at := a.(type) {
	case List:
		return TypeEqual(at.Elem, b.(List).Elem)
	case Record:
		return Equal(at.Schema, b.(Record).Schema)
	default:
		return true
	}
}

// --- Builder ---

// Builder accumulates fields and seals them into a RecordSchema with Build.
//
//	s := schema.NewBuilder().
//	    Add("total", schema.NewFloat(nil)).
//	    Add("items", schema.ListOf(schema.NewInteger(nil))).
//	    Build()
type Builder struct {
	s *RecordSchema
}

// NewBuilder starts an empty schema.
func NewBuilder() *Builder {
	return &Builder{s: New()}
}

// Add appends a field. It panics if called after Build.
func (b *Builder) Add(name string, t FieldType) *Builder {
	if b.s == nil {
		panic("schema: Builder.Add called after Build")
	}
	b.s.AddField(NewField(name, t))
	return b
}

// Build returns the accumulated schema. The builder cannot be reused.
func (b *Builder) Build() *RecordSchema {
	s := b.s
	b.s = nil
	if s == nil {
		panic("schema: Builder.Build called twice")
	}
	return s
}
