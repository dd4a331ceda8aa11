package synth

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koustreak/datame/internal/generator"
	"github.com/koustreak/datame/internal/parser"
	"github.com/koustreak/datame/internal/schema"
	"github.com/koustreak/datame/internal/value"
)

// assertShape checks that d matches ft recursively.
func assertShape(t *testing.T, ft schema.FieldType, d value.Data, path string) {
	t.Helper()
	switch st := ft.(type) {
	case schema.Integer:
		v, ok := d.(value.Int)
		require.True(t, ok, "%s: want Int, got %T", path, d)
		assert.GreaterOrEqual(t, int64(v), int64(0), path)
		assert.Less(t, int64(v), int64(100), path)
	case schema.Float:
		v, ok := d.(value.Float)
		require.True(t, ok, "%s: want Float, got %T", path, d)
		assert.GreaterOrEqual(t, float64(v), 0.0, path)
		assert.Less(t, float64(v), 100.0, path)
	case schema.String:
		v, ok := d.(value.String)
		require.True(t, ok, "%s: want String, got %T", path, d)
		assert.Equal(t, value.String("placeholder"), v, path)
	case schema.List:
		l, ok := d.(value.List)
		require.True(t, ok, "%s: want List, got %T", path, d)
		require.Len(t, l, ListLength, path)
		for _, e := range l {
			assertShape(t, st.Elem, e, path+"[]")
		}
	case schema.Record:
		r, ok := d.(value.Record)
		require.True(t, ok, "%s: want Record, got %T", path, d)
		assertTuple(t, st.Schema, r.Tuple, path+".")
	}
}

func assertTuple(t *testing.T, s *schema.RecordSchema, tup *value.Tuple, prefix string) {
	t.Helper()
	require.Equal(t, s.Names(), tup.Names(), prefix)
	for i := 0; i < s.Len(); i++ {
		f := s.Field(i)
		assertShape(t, f.Type(), tup.At(i).Data, prefix+f.Name())
	}
}

func TestTuple_ShapeFidelity(t *testing.T) {
	inputs := []string{
		"table foo(total float, name string,);",
		"table t(items list(integer),);",
		"table t();",
		"table t(a record(b record(c list(record(d float, e list(list(integer)),)),),),);",
		`table sales(
			total float,
			transaction_id integer,
			line_items list(record(item string, sub_items record(name string, amount integer, cost float,), amount integer, cost float,)),
			sales_agents list(string),
			team record(project_manager string, team_members list(string), budget float,),
		);`,
	}

	for _, input := range inputs {
		s, err := parser.Parse(input)
		require.NoError(t, err)

		for i := 0; i < 10; i++ {
			assertTuple(t, s, Tuple(s), "")
		}
	}
}

func TestTuple_Example2(t *testing.T) {
	s, err := parser.Parse("table t(items list(integer),);")
	require.NoError(t, err)

	tup := Tuple(s)
	items, ok := tup.Get("items")
	require.True(t, ok)

	l, ok := items.(value.List)
	require.True(t, ok)
	require.Len(t, l, 4)
	for _, e := range l {
		assert.IsType(t, value.Int(0), e)
	}
}

func TestTuple_CustomGenerators(t *testing.T) {
	calls := 0
	counter := generator.NewFunc(func(_ *rand.Rand) int64 {
		calls++
		return int64(calls)
	})

	s := schema.NewBuilder().
		Add("id", schema.NewInteger(counter)).
		Add("color", schema.NewString(generator.Const("red"))).
		Add("ratio", schema.NewFloat(generator.FloatRange(1, 2))).
		Build()

	tup := Tuple(s)
	assert.Equal(t, 1, calls, "scalar generator invoked exactly once")

	id, _ := tup.Get("id")
	assert.Equal(t, value.Int(1), id)
	color, _ := tup.Get("color")
	assert.Equal(t, value.String("red"), color)
	ratio, _ := tup.Get("ratio")
	assert.GreaterOrEqual(t, float64(ratio.(value.Float)), 1.0)
}

func TestTuple_ListInvokesElementGeneratorPerSlot(t *testing.T) {
	calls := 0
	g := generator.NewFunc(func(_ *rand.Rand) int64 {
		calls++
		return 0
	})
	s := schema.NewBuilder().Add("l", schema.ListOf(schema.NewInteger(g))).Build()

	_ = Tuple(s)
	assert.Equal(t, ListLength, calls)
}

func TestData_ZeroValueTypes(t *testing.T) {
	assert.IsType(t, value.Int(0), Data(schema.Integer{}))
	assert.IsType(t, value.Float(0), Data(schema.Float{}))
	assert.Equal(t, value.String("placeholder"), Data(schema.String{}))

	r, ok := Data(schema.Record{}).(value.Record)
	require.True(t, ok)
	assert.Equal(t, 0, r.Len())
}

func BenchmarkTupleSingleFloat(b *testing.B) {
	s := schema.NewBuilder().Add("value", schema.NewFloat(nil)).Build()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Tuple(s)
	}
}

func BenchmarkTupleComplex(b *testing.B) {
	s, err := parser.Parse(`table sales(
		total float,
		transaction_id integer,
		line_items list(record(item string, sub_items record(name string, amount integer, cost float,), amount integer, cost float,)),
		sales_agents list(string),
		team record(project_manager string, team_members list(string), budget float,),
	);`)
	if err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Tuple(s)
	}
}
