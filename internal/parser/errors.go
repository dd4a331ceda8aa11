package parser

import (
	"fmt"
	"strings"
)

// ErrorKind classifies a syntax error.
type ErrorKind int

const (
	ErrExpected          ErrorKind = iota // a required token is missing
	ErrUnbalanced                         // an opening delimiter is never closed
	ErrUnknownType                        // type keyword not recognised
	ErrTrailing                           // unexpected input after a complete construct
	ErrMissingTerminator                  // no ';' after the field list
	ErrDuplicateField                     // field name repeated within one field list
)

func (k ErrorKind) String() string {
	switch k {
	case ErrExpected:
		return "expected token"
	case ErrUnbalanced:
		return "unbalanced delimiter"
	case ErrUnknownType:
		return "unknown type"
	case ErrTrailing:
		return "unexpected input"
	case ErrMissingTerminator:
		return "missing terminator"
	case ErrDuplicateField:
		return "duplicate field"
	default:
		return "syntax error"
	}
}

// SyntaxError describes where and why a schema definition failed to parse.
type SyntaxError struct {
	Kind      ErrorKind
	Expected  string // what the parser was looking for, if anything
	Token     string // offending token, if one could be read
	Offset    int    // byte offset into the input
	Line      int    // 1-based
	Column    int    // 1-based, in bytes
	Remainder string // unconsumed input starting at Offset
}

const remainderPreview = 32

func (e *SyntaxError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d:%d: %s", e.Line, e.Column, e.Kind)
	if e.Expected != "" {
		fmt.Fprintf(&sb, ": want %s", e.Expected)
	}
	if e.Token != "" {
		fmt.Fprintf(&sb, ": %q", e.Token)
	}
	rem := e.Remainder
	if len(rem) > remainderPreview {
		rem = rem[:remainderPreview] + "..."
	}
	fmt.Fprintf(&sb, " (remaining %q)", rem)
	return sb.String()
}

func newSyntaxError(src string, off int, kind ErrorKind) *SyntaxError {
	line, col := 1, 1
	for i := 0; i < off && i < len(src); i++ {
		if src[i] == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return &SyntaxError{
		Kind:      kind,
		Offset:    off,
		Line:      line,
		Column:    col,
		Remainder: src[off:],
	}
}
