package bmg

import (
	"errors"
	"fmt"
)

// Kind classifies a BMG error, following the error table in the format's
// design notes: decode problems are mostly recoverable and get folded into
// a Bmg's Diagnostics instead of returned here; encode problems are fatal
// and come back as a *Error with one of these Kinds.
type Kind int

const (
	KindUnknown Kind = iota
	KindInvalidMagic
	KindTruncatedSection
	KindUnsupportedEncoding
	KindInfSizeOutOfRange
	KindIncludeDepthExceeded
	KindRegexCompile
	KindItemSlotCollision
)

func (k Kind) String() string {
	switch k {
	case KindInvalidMagic:
		return "InvalidMagic"
	case KindTruncatedSection:
		return "TruncatedSection"
	case KindUnsupportedEncoding:
		return "UnsupportedEncoding"
	case KindInfSizeOutOfRange:
		return "InfSizeOutOfRange"
	case KindIncludeDepthExceeded:
		return "IncludeDepthExceeded"
	case KindRegexCompile:
		return "RegexCompileError"
	case KindItemSlotCollision:
		return "ItemSlotCollision"
	default:
		return "Unknown"
	}
}

// Error is the error type every public bmg entry point returns.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("bmg: %s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("bmg: %s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is implements errors.Is by comparing Kind, so callers can test against
// the sentinel Err* values below regardless of message text.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Kind == t.Kind
	}
	return false
}

func newErr(kind Kind, msg string) *Error              { return &Error{Kind: kind, Message: msg} }
func wrapErr(kind Kind, msg string, cause error) *Error { return &Error{Kind: kind, Message: msg, Cause: cause} }

// Sentinel errors for errors.Is comparisons against a *Error's Kind only.
var (
	ErrInvalidMagic         = &Error{Kind: KindInvalidMagic}
	ErrTruncatedSection     = &Error{Kind: KindTruncatedSection}
	ErrUnsupportedEncoding  = &Error{Kind: KindUnsupportedEncoding}
	ErrInfSizeOutOfRange    = &Error{Kind: KindInfSizeOutOfRange}
	ErrIncludeDepthExceeded = &Error{Kind: KindIncludeDepthExceeded}
	ErrRegexCompile         = &Error{Kind: KindRegexCompile}
	ErrItemSlotCollision    = &Error{Kind: KindItemSlotCollision}
)

// Diagnostic is a non-fatal, warn-and-continue note recorded during a
// permissive decode (spec §7's general policy: decode warns and
// continues, encode fails loudly).
type Diagnostic struct {
	Kind    Kind
	Message string
}

func (d Diagnostic) String() string { return fmt.Sprintf("%s: %s", d.Kind, d.Message) }
