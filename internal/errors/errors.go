// Package errors defines the runtime error kinds raised by the execution
// engine, their source-location metadata, and user-visible formatting.
package errors

import (
	"fmt"
	"strings"
)

// Kind identifies the category of a runtime error, per the propagation
// policy of the engine's error-handling design.
type Kind string

const (
	TypeMismatch      Kind = "TypeMismatch"
	UnknownMember     Kind = "UnknownMember"
	UnknownName       Kind = "UnknownName"
	ArityMismatch     Kind = "ArityMismatch"
	DuplicateBinding  Kind = "DuplicateBinding"
	ImmutableAssign   Kind = "ImmutableAssign"
	ArithmeticError   Kind = "ArithmeticError"
	IndexOutOfBounds  Kind = "IndexOutOfBounds"
	NullDereference   Kind = "NullDereference"
	Cast              Kind = "Cast"
	ClassNotFound     Kind = "ClassNotFound"
	MemberNotAccess   Kind = "MemberNotAccessible"
	SecurityDenied    Kind = "SecurityDenied"
	LoopLimit         Kind = "LoopLimit"
	RecursionLimit    Kind = "RecursionLimit"
	Timeout           Kind = "Timeout"
	ChannelClosed     Kind = "ChannelClosed"
	Interrupted       Kind = "Interrupted"
	UserThrown        Kind = "UserThrown"
	InternalInvariant Kind = "InternalInvariant"
)

// Location is a source position: file, line, column. A zero Location (no
// file, line or column) is left out of Format's output.
type Location struct {
	File   string
	Line   int
	Column int
}

func (l Location) IsZero() bool { return l.File == "" && l.Line == 0 && l.Column == 0 }

// StackFrame is one entry of a captured language-level stack trace.
type StackFrame struct {
	Function string
	Location Location
	// TailFolded counts additional tail-call frames collapsed into this one
	// by the MIR interpreter's tail-call folding (see vm.Interpreter).
	TailFolded int
}

// StackTrace is a captured call chain, innermost frame first.
type StackTrace []StackFrame

// RuntimeError is the single error type the engine raises for every Kind.
// UserThrown errors additionally carry the arbitrary Value the user code
// threw, in Payload (declared as any to avoid an import cycle with
// internal/value; callers type-assert it back).
type RuntimeError struct {
	Kind      Kind
	Message   string
	Location  Location
	Source    string // the offending source line, if known
	Stack     StackTrace
	Payload   any
	Wrapped   error
}

func New(kind Kind, format string, args ...any) *RuntimeError {
	return &RuntimeError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Newf(kind Kind, loc Location, format string, args ...any) *RuntimeError {
	return &RuntimeError{Kind: kind, Message: fmt.Sprintf(format, args...), Location: loc}
}

func (e *RuntimeError) Error() string { return e.Format() }

func (e *RuntimeError) Unwrap() error { return e.Wrapped }

// WithSource attaches the offending source line for display.
func (e *RuntimeError) WithSource(src string) *RuntimeError {
	e.Source = src
	return e
}

// WithStack attaches a captured stack trace.
func (e *RuntimeError) WithStack(st StackTrace) *RuntimeError {
	e.Stack = st
	return e
}

// WithPayload records the arbitrary user-thrown value (Kind == UserThrown).
func (e *RuntimeError) WithPayload(v any) *RuntimeError {
	e.Payload = v
	return e
}

// Format renders the error the way an uncaught exception is printed to the
// user: message, source location, source snippet, and a folded stack trace.
func (e *RuntimeError) Format() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: %s\n", e.Kind, e.Message)

	if !e.Location.IsZero() {
		fmt.Fprintf(&sb, "  at %s:%d:%d\n", e.Location.File, e.Location.Line, e.Location.Column)
		if e.Source != "" {
			prefix := fmt.Sprintf("  %d | ", e.Location.Line)
			fmt.Fprintf(&sb, "%s%s\n", prefix, e.Source)
			pad := strings.Repeat(" ", len(prefix))
			if e.Location.Column > 0 {
				pad += strings.Repeat(" ", e.Location.Column-1)
			}
			sb.WriteString(pad + "^\n")
		}
	}

	if len(e.Stack) > 0 {
		sb.WriteString("\nStack trace (most recent call first):\n")
		for _, f := range e.Stack {
			if f.Location.File != "" {
				fmt.Fprintf(&sb, "  at %s (%s:%d:%d)\n", f.Function, f.Location.File, f.Location.Line, f.Location.Column)
			} else {
				fmt.Fprintf(&sb, "  at %s\n", f.Function)
			}
			if f.TailFolded > 0 {
				fmt.Fprintf(&sb, "  ... %d tail-call frames omitted ...\n", f.TailFolded)
			}
		}
	}
	return sb.String()
}

// IsKind reports whether err is a *RuntimeError of the given kind.
func IsKind(err error, k Kind) bool {
	re, ok := err.(*RuntimeError)
	return ok && re.Kind == k
}
