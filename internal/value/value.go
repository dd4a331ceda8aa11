// Package value holds the runtime representation of generated data.
//
// A Tuple is an ordered list of named Data values. Data is a closed set of
// variants mirroring the schema's field types: Int, Float, String, List and
// Record. Writers switch on the concrete type.
package value

import (
	"iter"
	"strconv"
	"strings"
)

// Kind names a Data variant.
type Kind int

const (
	KindInt Kind = iota
	KindFloat
	KindString
	KindList
	KindRecord
)

func (k Kind) String() string {
	switch k {
	case KindInt:
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

// Data is one generated column value.
type Data interface {
	Kind() Kind
	isData()
}

// Int is a 64-bit integer value.
type Int int64

// Float is a 64-bit floating point value.
type Float float64

// String is a text value.
type String string

// List is an ordered sequence of values of the same declared type.
type List []Data

// Record is a nested tuple.
type Record struct {
	*Tuple
}

func (Int) Kind() Kind    { return KindInt }
func (Float) Kind() Kind  { return KindFloat }
func (String) Kind() Kind { return KindString }
func (List) Kind() Kind   { return KindList }
func (Record) Kind() Kind { return KindRecord }

func (Int) isData()    {}
func (Float) isData()  {}
func (String) isData() {}
func (List) isData()   {}
func (Record) isData() {}

// Field is one named entry of a Tuple.
type Field struct {
	Name string
	Data Data
}

// Tuple is an ordered mapping from field name to Data. Order is insertion
// order; duplicate names are kept as separate entries.
type Tuple struct {
	fields []Field
}

// NewTuple returns an empty tuple with room for n fields.
func NewTuple(n int) *Tuple {
	return &Tuple{fields: make([]Field, 0, n)}
}

// Add appends a field.
func (t *Tuple) Add(name string, d Data) {
	t.fields = append(t.fields, Field{Name: name, Data: d})
}

// Len returns the number of fields.
func (t *Tuple) Len() int {
	return len(t.fields)
}

// At returns the i-th field.
func (t *Tuple) At(i int) Field {
	return t.fields[i]
}

// Get returns the first field named name.
func (t *Tuple) Get(name string) (Data, bool) {
	for _, f := range t.fields {
		if f.Name == name {
			return f.Data, true
		}
	}
	return nil, false
}

// Names returns field names in order.
func (t *Tuple) Names() []string {
	names := make([]string, len(t.fields))
	for i, f := range t.fields {
		names[i] = f.Name
	}
	return names
}

// All iterates over fields in order.
func (t *Tuple) All() iter.Seq2[string, Data] {
	return func(yield func(string, Data) bool) {
		for _, f := range t.fields {
			if !yield(f.Name, f.Data) {
				return
			}
		}
	}
}

// String renders the tuple for diagnostics, e.g. {id: 3, tags: [a, b]}.
func (t *Tuple) String() string {
	var sb strings.Builder
	writeTuple(&sb, t)
	return sb.String()
}

func writeTuple(sb *strings.Builder, t *Tuple) {
	sb.WriteByte('{')
	for i, f := range t.fields {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(f.Name)
		sb.WriteString(": ")
		writeData(sb, f.Data)
	}
	sb.WriteByte('}')
}

func writeData(sb *strings.Builder, d Data) {
	switch v := d.(type) {
	case Int:
		sb.WriteString(strconv.FormatInt(int64(v), 10))
	case Float:
		sb.WriteString(strconv.FormatFloat(float64(v), 'f', -1, 64))
	case String:
		sb.WriteString(strconv.Quote(string(v)))
	case List:
		sb.WriteByte('[')
		for i, e := range v {
			if i > 0 {
				sb.WriteString(", ")
			}
			writeData(sb, e)
		}
		sb.WriteByte(']')
	case Record:
		writeTuple(sb, v.Tuple)
	default:
		sb.WriteString("<nil>")
	}
}
