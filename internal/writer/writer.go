// Package writer defines the output contract and the capability gate.
//
// A writer declares up front whether it can represent nested records and
// lists. Check compares those declarations with a schema's derived flags once,
// before anything is synthesized or written. After the gate passes a writer
// must never refuse a tuple because of its shape; if one does anyway it
// returns an invariant violation, which callers treat as fatal.
package writer

import (
	"context"
	"fmt"
	"strings"

	"github.com/koustreak/datame/internal/errs"
	"github.com/koustreak/datame/internal/schema"
	"github.com/koustreak/datame/internal/value"
)

// Capabilities reports which structural shapes an output can represent.
type Capabilities interface {
	SupportsList() bool
	SupportsRecord() bool
}

// Writer serializes tuples to some destination.
type Writer interface {
	Capabilities
	WriteTuple(ctx context.Context, t *value.Tuple) error
	Flush(ctx context.Context) error
}

// Flat is embedded by writers that handle scalars only.
type Flat struct{}

func (Flat) SupportsList() bool   { return false }
func (Flat) SupportsRecord() bool { return false }

// Nested is embedded by writers that handle records and lists.
type Nested struct{}

func (Nested) SupportsList() bool   { return true }
func (Nested) SupportsRecord() bool { return true }

// Check is the capability gate. It returns an ErrKindCapability error when s
// needs a shape c cannot represent.
func Check(s *schema.RecordSchema, c Capabilities) error {
	var missing []string
	if s.ContainsRecord() && !c.SupportsRecord() {
		missing = append(missing, "nested records")
	}
	if s.ContainsList() && !c.SupportsList() {
		missing = append(missing, "lists")
	}
	if len(missing) == 0 {
		return nil
	}
	return errs.Newf(errs.ErrKindCapability,
		"schema contains %s, which %s output cannot represent",
		strings.Join(missing, " and "), describe(c))
}

func describe(c Capabilities) string {
	if s, ok := c.(fmt.Stringer); ok {
		return s.String()
	}
	return "the selected"
}

// unsupported builds the invariant violation a flat writer returns when a
// nested value reaches it.
func unsupported(format, field string, d value.Data) error {
	return errs.Newf(errs.ErrKindInvariant,
		"%s writer received %s value for field %q after the capability gate passed",
		format, d.Kind(), field)
}

func ioError(format, op string, err error) error {
	return errs.Wrap(errs.ErrKindIO, format+": "+op, err)
}
