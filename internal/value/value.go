// Package value implements the engine's runtime value model (spec component
// C1): a tagged sum of the language's runtime value variants, plus the
// shared operator module that performs arithmetic, comparison, and
// truthiness dispatch.
//
// Following the teacher's approach (runtime.Value as a small interface
// satisfied by concrete types), every variant is a Go type implementing
// Value. The tag is carried explicitly via Kind() rather than relying on
// type-switches alone, so dispatch tables (internal/dispatch) can key off
// a plain enum instead of repeating type assertions.
package value

import "fmt"

// Kind tags a Value's runtime variant.
type Kind uint8

const (
	KindNull Kind = iota
	KindUnit
	KindBool
	KindInt
	KindLong
	KindDouble
	KindChar
	KindString
	KindList
	KindMap
	KindRange
	KindPair
	KindArray
	KindObject
	KindClass
	KindEnum
	KindEnumEntry
	KindExternal
	KindBoundMethod
	KindCallable
	KindFuture
	KindDeferred
	KindJob
	KindTask
	KindScope
)

var kindNames = [...]string{
	KindNull: "Null", KindUnit: "Unit", KindBool: "Bool", KindInt: "Int",
	KindLong: "Long", KindDouble: "Double", KindChar: "Char", KindString: "String",
	KindList: "List", KindMap: "Map", KindRange: "Range", KindPair: "Pair",
	KindArray: "Array", KindObject: "Object", KindClass: "Class", KindEnum: "Enum",
	KindEnumEntry: "EnumEntry", KindExternal: "External", KindBoundMethod: "BoundMethod",
	KindCallable: "Callable", KindFuture: "Future", KindDeferred: "Deferred",
	KindJob: "Job", KindTask: "Task", KindScope: "Scope",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Unknown"
}

// Value is implemented by every runtime value variant.
type Value interface {
	// Kind returns the tag distinguishing this variant.
	Kind() Kind
	// TypeName is the language-facing type name (may differ from Kind for
	// objects and enums, which report their declared class/enum name).
	TypeName() string
	// String renders the value for println/string interpolation.
	String() string
	// Truthy implements the language's truthiness rule.
	Truthy() bool
}

// Equaler is implemented by values with a language-defined equals. Values
// that don't implement it fall back to identity comparison in Equals.
type Equaler interface {
	Equals(other Value) bool
}

// RefEqualer is implemented by reference-type values (Object, External,
// List, Map, Array) to support ref_equals distinct from value equality.
type RefEqualer interface {
	RefEquals(other Value) bool
}

// Null and Unit are distinct singletons; both are not-truthy and compare by
// identity (trivially true, since each is a singleton).
type nullValue struct{}
type unitValue struct{}

var (
	Null Value = nullValue{}
	Unit Value = unitValue{}
)

func (nullValue) Kind() Kind        { return KindNull }
func (nullValue) TypeName() string  { return "Null" }
func (nullValue) String() string    { return "null" }
func (nullValue) Truthy() bool      { return false }
func (nullValue) Equals(o Value) bool {
	_, ok := o.(nullValue)
	return ok
}

func (unitValue) Kind() Kind       { return KindUnit }
func (unitValue) TypeName() string { return "Unit" }
func (unitValue) String() string   { return "Unit" }
func (unitValue) Truthy() bool     { return false }
func (unitValue) Equals(o Value) bool {
	_, ok := o.(unitValue)
	return ok
}

// IsNull reports whether v is the Null singleton.
func IsNull(v Value) bool { _, ok := v.(nullValue); return ok }

// Bool wraps a boolean.
type Bool bool

func (b Bool) Kind() Kind       { return KindBool }
func (b Bool) TypeName() string { return "Bool" }
func (b Bool) String() string   { return fmt.Sprintf("%t", bool(b)) }
func (b Bool) Truthy() bool     { return bool(b) }
func (b Bool) Equals(o Value) bool {
	ob, ok := o.(Bool)
	return ok && b == ob
}

// Int is a 32-bit signed integer value. Overflow wraps (see DESIGN.md for
// the Open Question resolution).
type Int int32

func (i Int) Kind() Kind       { return KindInt }
func (i Int) TypeName() string { return "Int" }
func (i Int) String() string   { return fmt.Sprintf("%d", int32(i)) }
func (i Int) Truthy() bool     { return i != 0 }
func (i Int) Equals(o Value) bool {
	switch ov := o.(type) {
	case Int:
		return i == ov
	case Long:
		return Long(i) == ov
	case Double:
		return Double(i) == ov
	default:
		return false
	}
}

// Long is a 64-bit signed integer value.
type Long int64

func (l Long) Kind() Kind       { return KindLong }
func (l Long) TypeName() string { return "Long" }
func (l Long) String() string   { return fmt.Sprintf("%d", int64(l)) }
func (l Long) Truthy() bool     { return l != 0 }
func (l Long) Equals(o Value) bool {
	switch ov := o.(type) {
	case Int:
		return l == Long(ov)
	case Long:
		return l == ov
	case Double:
		return Double(l) == ov
	default:
		return false
	}
}

// Double is a 64-bit floating point value.
type Double float64

func (d Double) Kind() Kind       { return KindDouble }
func (d Double) TypeName() string { return "Double" }
func (d Double) String() string   { return fmt.Sprintf("%g", float64(d)) }
func (d Double) Truthy() bool     { return d != 0 }
func (d Double) Equals(o Value) bool {
	switch ov := o.(type) {
	case Int:
		return d == Double(ov)
	case Long:
		return d == Double(ov)
	case Double:
		return d == ov
	default:
		return false
	}
}

// Char is a single Unicode code point.
type Char rune

func (c Char) Kind() Kind       { return KindChar }
func (c Char) TypeName() string { return "Char" }
func (c Char) String() string   { return string(rune(c)) }
func (c Char) Truthy() bool     { return c != 0 }
func (c Char) Equals(o Value) bool {
	oc, ok := o.(Char)
	return ok && c == oc
}

// String is an immutable UTF-8 string value.
type String string

func (s String) Kind() Kind       { return KindString }
func (s String) TypeName() string { return "String" }
func (s String) String() string   { return string(s) }
func (s String) Truthy() bool     { return len(s) > 0 }
func (s String) Equals(o Value) bool {
	os, ok := o.(String)
	return ok && s == os
}

// Truthy reports whether v is not-false per the language's truthiness rule,
// delegating to the value's own Truthy: Null and Unit are never truthy; Bool
// is its own value; zero numbers, the zero Char and the empty string are not
// truthy; every other value is truthy. A nil v is not truthy.
func Truthy(v Value) bool {
	if v == nil {
		return false
	}
	return v.Truthy()
}

// Equals implements quantified invariant #1 (symmetric equality): objects
// default to identity, data classes to field-wise comparison (see object.go),
// everything else to the Equaler interface if present, else identity via Go
// equality of the interface value.
func Equals(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if ae, ok := a.(Equaler); ok {
		return ae.Equals(b)
	}
	if be, ok := b.(Equaler); ok {
		return be.Equals(a)
	}
	return a == b
}

// RefEquals implements identity comparison (`===`-style) for reference
// types; value types compare by value.
func RefEquals(a, b Value) bool {
	if ar, ok := a.(RefEqualer); ok {
		return ar.RefEquals(b)
	}
	return Equals(a, b)
}
