// Package earleyerr holds the typed error values returned by the earley
// parser core. A parse rejection is not an exceptional condition -- it is
// the normal way a candidate byte or token stream is excluded -- so these
// are ordinary error values, not panics. Invariant violations inside the
// core are a different matter and are raised as panics at the call site
// instead of being wrapped here.
package earleyerr

import (
	"fmt"

	"github.com/dekarrin/rosed"
)

// humanMessageWidth is the column width operator-facing messages are
// wrapped to, matching the teacher's own console output width.
const humanMessageWidth = 80

// Kind classifies the reason a core operation refused to continue.
type Kind int

const (
	// KindOther is the zero value; Classify returns it for any error that
	// did not originate in this package.
	KindOther Kind = iota

	// KindParseReject means the grammar has no valid continuation for the
	// bytes fed so far.
	KindParseReject

	// KindStaticReject means a replayed byte (one already accounted for in
	// apply_tokens) did not match the bytes previously recorded for that
	// position. The source treats this as a reject, not an error, and does
	// not attempt to resync.
	KindStaticReject

	// KindRowOverflow means an Earley row grew past MAX_ROW items, almost
	// always because the grammar is right-recursive where it should be
	// left-recursive.
	KindRowOverflow

	// KindConstruction means the grammar or lexer handed to New was
	// malformed in some way the parser can detect at construction time.
	KindConstruction
)

func (k Kind) String() string {
	switch k {
	case KindParseReject:
		return "parse reject"
	case KindStaticReject:
		return "static reject"
	case KindRowOverflow:
		return "row overflow"
	case KindConstruction:
		return "construction error"
	default:
		return "error"
	}
}

// coreError is the message shown to an operator (human) paired with the
// technical Error() string and an optional wrapped cause.
type coreError struct {
	kind  Kind
	msg   string
	human string
	wrap  error
}

func (e *coreError) Error() string {
	return e.msg
}

// HumanMessage returns the message meant for an operator-facing log line,
// which may differ from the terser Error() string.
func (e *coreError) HumanMessage() string {
	msg := e.msg
	if e.human != "" {
		msg = e.human
	}
	return rosed.Edit(msg).Wrap(humanMessageWidth).String()
}

func (e *coreError) Unwrap() error {
	return e.wrap
}

// Classify returns the Kind of err if it is one produced by this package,
// or KindOther otherwise.
func Classify(err error) Kind {
	if ce, ok := err.(*coreError); ok {
		return ce.kind
	}
	return KindOther
}

// ParseReject builds the error returned when push_row/scan/apply_tokens
// finds no legal continuation for the current input.
func ParseReject(format string, args ...interface{}) error {
	return &coreError{kind: KindParseReject, msg: fmt.Sprintf(format, args...)}
}

// StaticReject builds the error returned when apply_tokens finds a replayed
// byte that does not match the bytes already committed at that offset.
func StaticReject(format string, args ...interface{}) error {
	return &coreError{kind: KindStaticReject, msg: fmt.Sprintf(format, args...)}
}

// RowOverflow builds the error returned when a row exceeds MAX_ROW items.
func RowOverflow(count, max int) error {
	return &coreError{
		kind: KindRowOverflow,
		msg: fmt.Sprintf(
			"current row has %d items; max is %d; consider making the grammar left-recursive if it's right-recursive",
			count, max,
		),
	}
}

// Construction wraps a grammar/lexer construction failure.
func Construction(cause error, format string, args ...interface{}) error {
	return &coreError{
		kind: KindConstruction,
		msg:  fmt.Sprintf(format, args...),
		wrap: cause,
	}
}
