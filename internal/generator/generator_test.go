package generator

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults_Bounds(t *testing.T) {
	ints := DefaultInt()
	floats := DefaultFloat()
	strs := DefaultString()

	for i := 0; i < 1000; i++ {
		n := ints.Produce()
		assert.GreaterOrEqual(t, n, int64(0))
		assert.Less(t, n, int64(100))

		f := floats.Produce()
		assert.GreaterOrEqual(t, f, 0.0)
		assert.Less(t, f, 100.0)

		assert.Equal(t, "placeholder", strs.Produce())
	}
}

func TestRanges(t *testing.T) {
	tests := []struct {
		name   string
		lo, hi int64
	}{
		{"positive", 10, 20},
		{"negative", -5, 5},
		{"single", 3, 4},
		{"full int64 range", math.MinInt64, math.MaxInt64},
		{"wider than MaxInt64", -10, math.MaxInt64},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := IntRange(tt.lo, tt.hi)
			for i := 0; i < 200; i++ {
				n := g.Produce()
				assert.GreaterOrEqual(t, n, tt.lo)
				assert.Less(t, n, tt.hi)
			}
		})
	}

	wide := FloatRange(-math.MaxFloat64, math.MaxFloat64)
	for i := 0; i < 200; i++ {
		f := wide.Produce()
		assert.False(t, math.IsInf(f, 0) || math.IsNaN(f), "got %v", f)
		assert.Less(t, f, math.MaxFloat64)
	}

	unit := FloatRange(1, 2)
	for i := 0; i < 200; i++ {
		f := unit.Produce()
		assert.GreaterOrEqual(t, f, 1.0)
		assert.Less(t, f, 2.0)
	}

	assert.Equal(t, int64(9), IntRange(9, 9).Produce())
	assert.Equal(t, 2.5, FloatRange(2.5, 1).Produce())
}

func TestFunc_CloneDoesNotShareState(t *testing.T) {
	fn := func(r *rand.Rand) int64 { return r.Int64() }

	original := &Func[int64]{fn: fn, rng: rand.New(rand.NewPCG(1, 2))}
	reference := &Func[int64]{fn: fn, rng: rand.New(rand.NewPCG(1, 2))}
	clone := original.Clone()

	for i := 0; i < 50; i++ {
		_ = clone.Produce()
		require.Equal(t, reference.Produce(), original.Produce(), "draw %d", i)
	}
}

func TestFunc_CloneGetsOwnSource(t *testing.T) {
	g := NewFunc(func(r *rand.Rand) int64 { return r.Int64() })
	c := g.Clone().(*Func[int64])

	assert.NotSame(t, g.rng, c.rng)
}

func TestOneOf(t *testing.T) {
	vals := []string{"red", "green", "blue"}
	g := OneOf(vals...)
	vals[0] = "mutated"

	for i := 0; i < 100; i++ {
		assert.Contains(t, []string{"red", "green", "blue"}, g.Produce())
	}
	assert.Contains(t, []string{"red", "green", "blue"}, g.Clone().Produce())

	assert.Panics(t, func() { OneOf[int]() })
}

func TestConst_Clone(t *testing.T) {
	g := Const(int64(42))
	assert.Equal(t, int64(42), g.Clone().Produce())
}
