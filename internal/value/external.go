package value

import "fmt"

// External wraps a foreign (host-ecosystem) object. Field/method access is
// mediated by internal/foreign subject to internal/security, per spec 3.1.
// RefCount/Destroyed mirror the teacher's ObjectInstance lifetime bookkeeping
// (internal/interp/runtime's reference-counted destructor hooks), adapted
// here to foreign delegates so interface-style references to foreign values
// can still trigger a Destroy callback at zero refs.
type External struct {
	Delegate  any
	ClassName string // foreign qualified class name, for reflection & security checks
	RefCount  int
	Destroyed bool
}

func NewExternal(delegate any, className string) *External {
	return &External{Delegate: delegate, ClassName: className}
}

func (e *External) Kind() Kind       { return KindExternal }
func (e *External) TypeName() string { return e.ClassName }
func (e *External) Truthy() bool     { return true }
func (e *External) String() string  { return fmt.Sprintf("<foreign %s@%p>", e.ClassName, e) }
func (e *External) IsNil() bool      { return e.Delegate == nil }
func (e *External) RefEquals(o Value) bool {
	oe, ok := o.(*External)
	return ok && e == oe
}

// Retain/Release implement the refcounted lifetime used for objects held
// through interface references (mirrors the teacher's RefCount pattern).
func (e *External) Retain()  { e.RefCount++ }
func (e *External) Release() bool {
	e.RefCount--
	if e.RefCount <= 0 && !e.Destroyed {
		e.Destroyed = true
		return true
	}
	return false
}
