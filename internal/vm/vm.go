// Package vm implements the MIR register-machine interpreter (spec
// component C7): the function/frame execution loop over internal/mir's
// instruction set, raw-int specialization, inline-cached virtual calls, the
// same-module static-call fast path, tail-call folding, and try/catch
// range dispatch. It is the second of the two parallel execution tiers
// spec §2 describes; internal/hir is the other. vm routes member/call
// resolution it can't answer itself through internal/dispatch (C8), while
// hir uses the member resolver in internal/resolve.
package vm

import (
	nerr "github.com/nyxlang/nyx/internal/errors"
	"github.com/nyxlang/nyx/internal/mir"
	"github.com/nyxlang/nyx/internal/resolve"
	"github.com/nyxlang/nyx/internal/security"
	"github.com/nyxlang/nyx/internal/value"
)

// Host is the embedding contract a MIR Interpreter runs against, mirroring
// internal/hir.Host but kept as its own interface (rather than imported
// from hir) so vm has no dependency on the tree-walking tier at all — both
// sides are implemented by the same internal/runtime.Runtime value.
type Host interface {
	LookupBuiltin(name string) (value.Callable, bool)
	LookupClass(name string) (*value.Class, bool)
	RegisterClass(*value.Class)
	LookupEnum(name string) (*value.Enum, bool)
	Extensions() resolve.ExtensionTable
	Stdlib() resolve.StdlibExtensionTable
	Foreign() resolve.ForeignReflector
	Policy() *security.Policy
	ResolveForeignPackageWildcard(name string) (value.Value, bool)
}

// Interpreter runs the functions of a single mir.Module against a Host.
// One Interpreter corresponds to one logical thread of MIR execution (spec
// §5): concurrent children get their own forked Interpreter sharing Host
// and Module but not call stack or frame pool.
type Interpreter struct {
	Host       Host
	Module     *mir.Module
	Pool       *mir.FramePool
	CallStack  *nerr.CallStack
	classStack []*value.Class
	fieldInit  map[string]*mir.Function
}

// New creates an Interpreter for module running against host, with its own
// frame pool and call stack.
func New(host Host, module *mir.Module) *Interpreter {
	return &Interpreter{
		Host:      host,
		Module:    module,
		Pool:      mir.NewFramePool(64),
		CallStack: nerr.NewCallStack(host.Policy().MaxRecursionDepth),
		fieldInit: make(map[string]*mir.Function),
	}
}

// Fork creates a child Interpreter sharing Host and Module but with an
// independent frame pool and call stack, matching the HIR evaluator's Fork
// and spec §5's child-interpreter model for concurrency.
func (vmi *Interpreter) Fork() *Interpreter {
	return &Interpreter{
		Host:      vmi.Host,
		Module:    vmi.Module,
		Pool:      mir.NewFramePool(64),
		CallStack: nerr.NewCallStack(vmi.Host.Policy().MaxRecursionDepth),
		fieldInit: vmi.fieldInit,
	}
}

// mirMethodBody is the MIR-side counterpart to internal/hir's methodBody:
// what a value.MethodSlot.Body holds when the class was compiled to MIR.
type mirMethodBody struct {
	fn *mir.Function
}

// InvokeFunction runs fn with the given receiver (nil for free functions)
// and arguments, pushing/popping the call stack and acquiring/releasing a
// pooled frame around the run.
func (vmi *Interpreter) InvokeFunction(fn *mir.Function, this value.Value, args []value.Value) (value.Value, error) {
	if err := vmi.CallStack.Push(frameName(fn), nerr.Location{}); err != nil {
		return nil, err
	}
	defer vmi.CallStack.Pop()

	frame := vmi.Pool.Acquire(fn)
	defer vmi.Pool.Release(frame)
	bindFrameArgs(frame, fn, this, args)
	return vmi.run(frame)
}

func frameName(fn *mir.Function) string {
	if fn.Owner != "" {
		return fn.Owner + "." + fn.Name
	}
	return fn.Name
}

func bindFrameArgs(frame *mir.Frame, fn *mir.Function, this value.Value, args []value.Value) {
	slot := 0
	if fn.HasThis {
		frame.Set(0, this)
		slot = 1
	}
	for i := 0; i < fn.Params; i++ {
		if i < len(args) {
			frame.Set(slot+i, args[i])
		} else {
			frame.Set(slot+i, value.Null)
		}
	}
}

// rebindFrameArgs implements a tail call's "rebind locals and jump to the
// callee's entry block within the same frame" behavior (spec §4.7): unlike
// bindFrameArgs it reuses the frame in place rather than acquiring a new one.
func rebindFrameArgs(frame *mir.Frame, fn *mir.Function, this value.Value, args []value.Value) {
	frame.Fn = fn
	for i := range frame.Locals {
		frame.Locals[i] = nil
		frame.RawLocals[i] = 0
	}
	bindFrameArgs(frame, fn, this, args)
	frame.Block = fn.EntryBlock
	frame.PC = 0
}

// dispatchInvoker adapts Interpreter to dispatch.MethodInvoker so
// internal/dispatch can call back into MIR method bodies and arbitrary
// value.Callables uniformly.
type dispatchInvoker struct {
	vmi *Interpreter
}

func (d *dispatchInvoker) InvokeMethod(owner *value.Class, slot *value.MethodSlot, receiver value.Value, args []value.Value) (value.Value, error) {
	return d.vmi.InvokeMethodSlot(owner, slot, receiver, args)
}

func (d *dispatchInvoker) InvokeCallable(c value.Callable, args []value.Value) (value.Value, error) {
	return d.vmi.InvokeCallable(c, args)
}

func (d *dispatchInvoker) NewInstance(class *value.Class, args []value.Value) (*value.Object, error) {
	return d.vmi.NewInstance(class, args)
}

func (d *dispatchInvoker) ResolveMethodValue(receiver value.Value, name string) (value.Callable, error) {
	return d.vmi.ResolveMethodValue(receiver, name)
}

// InvokeMethodSlot runs a resolved method slot's MIR body (mirMethodBody)
// through this Interpreter. Any other body, such as an HIR methodBody from a
// class registered by the tree-walking tier, raises InternalInvariant.
func (vmi *Interpreter) InvokeMethodSlot(owner *value.Class, slot *value.MethodSlot, receiver value.Value, args []value.Value) (value.Value, error) {
	body, ok := slot.Body.(*mirMethodBody)
	if !ok {
		return nil, nerr.New(nerr.InternalInvariant, "method %q has no MIR body", slot.Name)
	}
	return vmi.InvokeFunction(body.fn, receiver, args)
}

// ResolveMethodValue builds a value.Callable bound to receiver for method
// references (`obj::method`, $BIND_METHOD.bind) without invoking it.
func (vmi *Interpreter) ResolveMethodValue(receiver value.Value, name string) (value.Callable, error) {
	switch r := receiver.(type) {
	case *value.Object:
		slot, owner := r.Class.LookupMethod(name)
		if slot == nil {
			return nil, nerr.Newf(nerr.UnknownMember, nerr.Location{}, "unknown method %q on %s", name, r.Class.Name)
		}
		return value.NewBoundMethod(receiver, &slotCallable{vmi: vmi, owner: owner, slot: slot}), nil
	case *value.Class:
		slot, owner := r.LookupMethod(name)
		if slot == nil {
			return nil, nerr.Newf(nerr.UnknownMember, nerr.Location{}, "unknown static method %q on %s", name, r.Name)
		}
		return &slotCallable{vmi: vmi, owner: owner, slot: slot, receiver: r}, nil
	default:
		return nil, nerr.New(nerr.TypeMismatch, "cannot bind a method reference on %s", receiver.TypeName())
	}
}

// slotCallable implements value.Callable for a method reference bound
// ahead of call time, used by ResolveMethodValue/$BIND_METHOD.bind.
type slotCallable struct {
	vmi      *Interpreter
	owner    *value.Class
	slot     *value.MethodSlot
	receiver value.Value
}

func (s *slotCallable) Kind() value.Kind { return value.KindCallable }
func (s *slotCallable) TypeName() string { return "Function" }
func (s *slotCallable) Truthy() bool     { return true }
func (s *slotCallable) String() string   { return "<bound method " + s.slot.Name + ">" }
func (s *slotCallable) Arity() int {
	body, ok := s.slot.Body.(*mirMethodBody)
	if !ok {
		return 0
	}
	return body.fn.Params
}

// Call treats args[0] as the receiver when s was built without one bound
// already (the *value.Object path in ResolveMethodValue, where BoundMethod
// prepends the receiver for us); otherwise args are the call's real
// arguments and s.receiver is fixed (the static-method path).
func (s *slotCallable) Call(_ any, args []value.Value) (value.Value, error) {
	if s.receiver != nil {
		return s.vmi.InvokeMethodSlot(s.owner, s.slot, s.receiver, args)
	}
	if len(args) == 0 {
		return nil, nerr.New(nerr.ArityMismatch, "bound method call missing receiver")
	}
	return s.vmi.InvokeMethodSlot(s.owner, s.slot, args[0], args[1:])
}

// InvokeCallable runs any value.Callable uniformly through its own
// Call(ctx, args), with `vmi` as the ctx. Interpreter has no InvokeClosure
// method, so a Closure called this way returns an error instead of running.
func (vmi *Interpreter) InvokeCallable(c value.Callable, args []value.Value) (value.Value, error) {
	return c.Call(vmi, args)
}

// CallMethod implements value.OverloadCaller for operator overloading on
// Objects constructed under this Interpreter.
func (vmi *Interpreter) CallMethod(receiver value.Value, methodName string, args []value.Value) (value.Value, bool, error) {
	obj, ok := receiver.(*value.Object)
	if !ok {
		return nil, false, nil
	}
	slot, owner := obj.Class.LookupMethod(methodName)
	if slot == nil {
		return nil, false, nil
	}
	v, err := vmi.InvokeMethodSlot(owner, slot, obj, args)
	return v, true, err
}

func (vmi *Interpreter) currentClass() *value.Class {
	if len(vmi.classStack) == 0 {
		return nil
	}
	return vmi.classStack[len(vmi.classStack)-1]
}
