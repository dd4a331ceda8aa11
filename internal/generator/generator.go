// Package generator provides pluggable per-field value producers.
//
// Every generator that draws random numbers owns its own math/rand/v2 source.
// Clone returns a generator with a freshly seeded source, so cloned schemas
// and parallel workers never share generation state. A single Generator value
// is not safe for concurrent use: clone one per goroutine.
package generator

import (
	"math"
	"math/rand/v2"
	"slices"
)

// Generator produces one value of type T per call.
type Generator[T any] interface {
	Produce() T
	Clone() Generator[T]
}

// Default bounds used by the DSL's scalar types.
const (
	DefaultIntMin   int64   = 0
	DefaultIntMax   int64   = 100
	DefaultFloatMin float64 = 0
	DefaultFloatMax float64 = 100
	Placeholder             = "placeholder"
)

// DefaultInt draws uniformly from [0, 100).
func DefaultInt() Generator[int64] {
	return IntRange(DefaultIntMin, DefaultIntMax)
}

// DefaultFloat draws uniformly from [0.0, 100.0).
func DefaultFloat() Generator[float64] {
	return FloatRange(DefaultFloatMin, DefaultFloatMax)
}

// DefaultString always returns "placeholder".
func DefaultString() Generator[string] {
	return Const(Placeholder)
}

// newSource returns an instance-local random source seeded from the runtime's
// entropy. Only the seed comes from the shared runtime generator.
func newSource() *rand.Rand {
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

// --- Func ---

// Func adapts a plain function into a Generator. The function receives the
// generator's own random source.
type Func[T any] struct {
	fn  func(r *rand.Rand) T
	rng *rand.Rand
}

// NewFunc wraps fn. fn must not retain r beyond the call.
func NewFunc[T any](fn func(r *rand.Rand) T) *Func[T] {
	return &Func[T]{fn: fn, rng: newSource()}
}

func (f *Func[T]) Produce() T {
	return f.fn(f.rng)
}

func (f *Func[T]) Clone() Generator[T] {
	return NewFunc(f.fn)
}

// IntRange draws uniformly from [lo, hi). When hi <= lo it always yields lo.
func IntRange(lo, hi int64) Generator[int64] {
	if hi <= lo {
		return Const(lo)
	}
	// hi-lo can exceed MaxInt64; the unsigned difference always fits.
	span := uint64(hi) - uint64(lo)
	return NewFunc(func(r *rand.Rand) int64 {
		return int64(uint64(lo) + r.Uint64N(span))
	})
}

// FloatRange draws uniformly from [lo, hi). When hi <= lo it always yields lo.
func FloatRange(lo, hi float64) Generator[float64] {
	if hi <= lo {
		return Const(lo)
	}
	// Interpolating instead of scaling hi-lo keeps wide bounds finite.
	top := math.Nextafter(hi, lo)
	return NewFunc(func(r *rand.Rand) float64 {
		u := r.Float64()
		return max(lo, min(lo*(1-u)+hi*u, top))
	})
}

// --- Const ---

type constant[T any] struct {
	v T
}

// Const always produces v. It holds no mutable state, so Clone returns itself.
func Const[T any](v T) Generator[T] {
	return constant[T]{v: v}
}

func (c constant[T]) Produce() T          { return c.v }
func (c constant[T]) Clone() Generator[T] { return c }

// --- OneOf ---

type oneOf[T any] struct {
	vals []T
	rng  *rand.Rand
}

// OneOf picks uniformly among vals. It panics when vals is empty.
func OneOf[T any](vals ...T) Generator[T] {
	if len(vals) == 0 {
		panic("generator: OneOf needs at least one value")
	}
	return &oneOf[T]{vals: slices.Clone(vals), rng: newSource()}
}

func (o *oneOf[T]) Produce() T {
	return o.vals[o.rng.IntN(len(o.vals))]
}

func (o *oneOf[T]) Clone() Generator[T] {
	return &oneOf[T]{vals: o.vals, rng: newSource()}
}
