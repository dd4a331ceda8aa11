package schema

import (
	"strings"

	"github.com/koustreak/datame/internal/generator"
)

// Kind identifies a FieldType variant.
type Kind int

const (
	KindInteger Kind = iota
	KindFloat
	KindString
	KindList
	KindRecord
)

func (k Kind) String() string {
	switch k {
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindRecord:
		return "record"
	default:
		return "unknown"
	}
}

// FieldType is the closed set of column types: Integer, Float, String,
// List and Record.
type FieldType interface {
	Kind() Kind
	// String renders the type in DSL syntax.
	String() string
	clone() FieldType
}

// Integer is a scalar int64 column.
type Integer struct {
	Gen generator.Generator[int64]
}

// Float is a scalar float64 column.
type Float struct {
	Gen generator.Generator[float64]
}

// String is a scalar text column.
type String struct {
	Gen generator.Generator[string]
}

// List is an ordered repetition of Elem.
type List struct {
	Elem FieldType
}

// Record is a nested schema.
type Record struct {
	Schema *RecordSchema
}

// NewInteger returns an Integer type using gen, or the default [0,100) generator when gen is nil.
func NewInteger(gen generator.Generator[int64]) Integer {
	if gen == nil {
		gen = generator.DefaultInt()
	}
	return Integer{Gen: gen}
}

// NewFloat returns a Float type using gen, or the default [0,100) generator when gen is nil.
func NewFloat(gen generator.Generator[float64]) Float {
	if gen == nil {
		gen = generator.DefaultFloat()
	}
	return Float{Gen: gen}
}

// NewString returns a String type using gen, or the placeholder generator when gen is nil.
func NewString(gen generator.Generator[string]) String {
	if gen == nil {
		gen = generator.DefaultString()
	}
	return String{Gen: gen}
}

// ListOf wraps elem in a List.
func ListOf(elem FieldType) List {
	return List{Elem: elem}
}

// RecordOf wraps s in a Record. A nil s becomes an empty schema.
func RecordOf(s *RecordSchema) Record {
	if s == nil {
		s = New()
	}
	return Record{Schema: s}
}

func (Integer) Kind() Kind { return KindInteger }
func (Float) Kind() Kind   { return KindFloat }
func (String) Kind() Kind  { return KindString }
func (List) Kind() Kind    { return KindList }
func (Record) Kind() Kind  { return KindRecord }

func (Integer) String() string { return "integer" }
func (Float) String() string   { return "float" }
func (String) String() string  { return "string" }
func (l List) String() string  { return "list(" + l.Elem.String() + ")" }

func (r Record) String() string {
	var sb strings.Builder
	sb.WriteString("record(")
	writeFields(&sb, r.Schema)
	sb.WriteByte(')')
	return sb.String()
}

// Zero-value scalar types (nil Gen) stay nil on clone; the synthesizer
// substitutes the default generator for them.
func (t Integer) clone() FieldType {
	if t.Gen == nil {
		return t
	}
	return Integer{Gen: t.Gen.Clone()}
}

func (t Float) clone() FieldType {
	if t.Gen == nil {
		return t
	}
	return Float{Gen: t.Gen.Clone()}
}

func (t String) clone() FieldType {
	if t.Gen == nil {
		return t
	}
	return String{Gen: t.Gen.Clone()}
}

func (t List) clone() FieldType { return List{Elem: t.Elem.clone()} }

func (t Record) clone() FieldType {
	if t.Schema == nil {
		return t
	}
	return Record{Schema: t.Schema.Clone()}
}

// Field is a named, typed slot. It is immutable once constructed.
type Field struct {
	name string
	typ  FieldType
}

// NewField builds a Field.
func NewField(name string, t FieldType) Field {
	return Field{name: name, typ: t}
}

func (f Field) Name() string    { return f.name }
func (f Field) Type() FieldType { return f.typ }

func (f Field) clone() Field {
	return Field{name: f.name, typ: f.typ.clone()}
}
