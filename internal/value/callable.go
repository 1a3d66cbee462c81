package value

import "fmt"

// Callable is implemented by every value usable as the callee of a call
// expression: user-declared functions/lambdas, native builtins, bound
// methods, and partial applications. Both the HIR evaluator and MIR
// interpreter invoke through this single contract (spec §2: "user code all
// present as values implementing the same callable contract").
type Callable interface {
	Value
	Arity() int
	// Call invokes the callable. The concrete implementation (HIR closure,
	// MIR function, or native Go func) is responsible for argument binding;
	// ctx is an opaque handle the caller threads through (e.g. the
	// evaluating interpreter), left untyped here to avoid an import cycle
	// between internal/value and internal/hir / internal/vm.
	Call(ctx any, args []Value) (Value, error)
}

// NativeFunction wraps a Go function as a Callable, the representation used
// by built-in registration (internal/runtime) and stdlib extension tables.
type NativeFunction struct {
	Name    string
	ArityN  int
	Fn      func(ctx any, args []Value) (Value, error)
}

func (n *NativeFunction) Kind() Kind       { return KindCallable }
func (n *NativeFunction) TypeName() string { return "Function" }
func (n *NativeFunction) Truthy() bool     { return true }
func (n *NativeFunction) String() string  { return fmt.Sprintf("<native fn %s>", n.Name) }
func (n *NativeFunction) Arity() int       { return n.ArityN }
func (n *NativeFunction) Call(ctx any, args []Value) (Value, error) { return n.Fn(ctx, args) }
func (n *NativeFunction) RefEquals(o Value) bool {
	on, ok := o.(*NativeFunction)
	return ok && n == on
}

// Closure is the HIR evaluator's lambda/function representation: a body
// handle (opaque HIR node), the captured environment (opaque — concretely
// *value.Environment, but left `any` so this package doesn't need to know
// about slot-resolved frames), and parameter names for arity/binding.
type Closure struct {
	Name     string
	Params   []string
	Body     any
	Captured any // *Environment, minimal or shared per the closure strategy (C5)
	This     Value
}

func (c *Closure) Kind() Kind       { return KindCallable }
func (c *Closure) TypeName() string { return "Function" }
func (c *Closure) Truthy() bool     { return true }
func (c *Closure) String() string {
	if c.Name != "" {
		return fmt.Sprintf("<fn %s>", c.Name)
	}
	return "<lambda>"
}
func (c *Closure) Arity() int { return len(c.Params) }

// Call delegates to ctx's InvokeClosure method (the HIR evaluator provides
// one), so Closure satisfies Callable and is called like any other
// Callable; it returns an error when ctx has no InvokeClosure method.
func (c *Closure) Call(ctx any, args []Value) (Value, error) {
	invoker, ok := ctx.(interface {
		InvokeClosure(*Closure, []Value) (Value, error)
	})
	if !ok {
		return nil, fmt.Errorf("closure invoked outside an evaluator context")
	}
	return invoker.InvokeClosure(c, args)
}
func (c *Closure) RefEquals(o Value) bool {
	oc, ok := o.(*Closure)
	return ok && c == oc
}

// BoundMethod pairs a receiver with a callable method body, usable anywhere
// a callable is expected (spec 3.1).
type BoundMethod struct {
	Receiver Value
	Method   Callable
}

func NewBoundMethod(receiver Value, method Callable) *BoundMethod {
	return &BoundMethod{Receiver: receiver, Method: method}
}

func (b *BoundMethod) Kind() Kind       { return KindBoundMethod }
func (b *BoundMethod) TypeName() string { return "BoundMethod" }
func (b *BoundMethod) Truthy() bool     { return true }
func (b *BoundMethod) String() string  { return fmt.Sprintf("<bound method of %s>", b.Receiver.TypeName()) }
func (b *BoundMethod) Arity() int       { return b.Method.Arity() }
func (b *BoundMethod) Call(ctx any, args []Value) (Value, error) {
	return b.Method.Call(ctx, append([]Value{b.Receiver}, args...))
}
func (b *BoundMethod) RefEquals(o Value) bool {
	ob, ok := o.(*BoundMethod)
	return ok && b == ob
}

// PartialApplication implements `$PartialApplication|<mask>` (C8): a
// callable wrapping another callable plus a fixed set of bound arguments
// and a bitmask marking which positions are still placeholders.
type PartialApplication struct {
	Inner Callable
	Bound []Value
	Mask  uint64 // bit i set => positional arg i is a placeholder
}

func (p *PartialApplication) Kind() Kind       { return KindCallable }
func (p *PartialApplication) TypeName() string { return "Function" }
func (p *PartialApplication) Truthy() bool     { return true }
func (p *PartialApplication) String() string  { return "<partial application>" }
func (p *PartialApplication) Arity() int {
	n := 0
	for i := 0; i < len(p.Bound); i++ {
		if p.Mask&(1<<uint(i)) != 0 {
			n++
		}
	}
	return n
}
func (p *PartialApplication) Call(ctx any, args []Value) (Value, error) {
	full := make([]Value, len(p.Bound))
	copy(full, p.Bound)
	ai := 0
	for i := range full {
		if p.Mask&(1<<uint(i)) != 0 {
			if ai >= len(args) {
				return nil, fmt.Errorf("not enough arguments supplied to partial application")
			}
			full[i] = args[ai]
			ai++
		}
	}
	full = append(full, args[ai:]...)
	return p.Inner.Call(ctx, full)
}
func (p *PartialApplication) RefEquals(o Value) bool {
	op, ok := o.(*PartialApplication)
	return ok && p == op
}

// IsCallable reports whether v can be used as a call target.
func IsCallable(v Value) bool {
	_, ok := v.(Callable)
	return ok
}
