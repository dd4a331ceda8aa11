// Package synth walks a schema and produces one concrete tuple per call.
package synth

import (
	"github.com/koustreak/datame/internal/generator"
	"github.com/koustreak/datame/internal/schema"
	"github.com/koustreak/datame/internal/value"
)

// ListLength is the number of elements produced for every List field.
const ListLength = 4

// Tuple synthesizes a tuple from s. Each scalar generator is invoked once per
// scalar slot. Generators are not safe for concurrent use, so concurrent
// callers must each use their own s.Clone().
func Tuple(s *schema.RecordSchema) *value.Tuple {
	t := value.NewTuple(s.Len())
	for i := 0; i < s.Len(); i++ {
		f := s.Field(i)
		t.Add(f.Name(), Data(f.Type()))
	}
	return t
}

// Data synthesizes a single value of type ft.
func Data(ft schema.FieldType) value.Data {
	switch t := ft.(type) {
	case schema.Integer:
		if t.Gen == nil {
			return value.Int(generator.DefaultInt().Produce())
		}
		return value.Int(t.Gen.Produce())
	case schema.Float:
		if t.Gen == nil {
			return value.Float(generator.DefaultFloat().Produce())
		}
		return value.Float(t.Gen.Produce())
	case schema.String:
		if t.Gen == nil {
			return value.String(generator.Placeholder)
		}
		return value.String(t.Gen.Produce())
	case schema.List:
		l := make(value.List, ListLength)
		for i := range l {
			l[i] = Data(t.Elem)
		}
		return l
	case schema.Record:
		if t.Schema == nil {
			return value.Record{Tuple: value.NewTuple(0)}
		}
		return value.Record{Tuple: Tuple(t.Schema)}
	default:
		panic("synth: unknown field type")
	}
}
