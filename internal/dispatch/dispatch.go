// Package dispatch implements the MIR call-resolution subsystem (spec
// component C8): the INVOKE_VIRTUAL eight-step resolution order and the
// INVOKE_STATIC synthetic-owner table. It is the MIR-side counterpart to
// internal/resolve's member-access chain (C4), grounded on the same
// ordered-strategy shape as resolve.go so both dispatch tiers read the same
// way even though HIR's tree-walker never needs INVOKE_STATIC's synthetic
// owners.
package dispatch

import (
	"strings"

	nerr "github.com/nyxlang/nyx/internal/errors"
	"github.com/nyxlang/nyx/internal/resolve"
	"github.com/nyxlang/nyx/internal/value"
)

// MethodInvoker calls a resolved MIR method body with a bound receiver; it
// is supplied by internal/vm so this package never has to import it (vm
// depends on dispatch, not the reverse).
type MethodInvoker interface {
	InvokeMethod(owner *value.Class, slot *value.MethodSlot, receiver value.Value, args []value.Value) (value.Value, error)
	InvokeCallable(c value.Callable, args []value.Value) (value.Value, error)
	NewInstance(class *value.Class, args []value.Value) (*value.Object, error)

	// ResolveMethodValue returns a Callable bound to receiver for later
	// invocation, without calling it — used by $BIND_METHOD.bind to build
	// method references (`obj::method`).
	ResolveMethodValue(receiver value.Value, name string) (value.Callable, error)
}

// Context carries everything a resolution step needs: the Host (for
// extension/stdlib/foreign tables and class/enum lookup) and the Invoker
// that actually runs a resolved body.
type Context struct {
	Host         Host
	Invoker      MethodInvoker
	CallingClass *value.Class
	TypeArgs     []string
}

// Host is the subset of internal/hir.Host (and internal/vm.Host) dispatch
// needs; kept as its own narrow interface so this package has no dependency
// on either evaluator tier.
type Host interface {
	LookupClass(name string) (*value.Class, bool)
	LookupEnum(name string) (*value.Enum, bool)
	Extensions() resolve.ExtensionTable
	Stdlib() resolve.StdlibExtensionTable
	Foreign() resolve.ForeignReflector
	ResolveForeignPackageWildcard(name string) (value.Value, bool)
}

type step func(ctx *Context, receiver value.Value, name string, args []value.Value) (value.Value, bool, error)

// chain is the eight-step INVOKE_VIRTUAL resolution order from spec §4.8.
var chain = []step{
	objectStep,
	foreignStep,
	classLikeStep,
	iteratorStep,
	resultStep,
	concurrencyStep,
	scopeFunctionStep,
	genericFallbackStep,
}

// InvokeVirtual resolves and invokes an instance method call, walking the
// eight-step order until a step claims it.
func InvokeVirtual(ctx *Context, receiver value.Value, name string, args []value.Value) (value.Value, error) {
	if receiver == nil || value.IsNull(receiver) {
		return nil, nerr.New(nerr.NullDereference, "cannot call %q on null", name)
	}
	for _, s := range chain {
		v, handled, err := s(ctx, receiver, name, args)
		if err != nil {
			return nil, err
		}
		if handled {
			return v, nil
		}
	}
	return nil, nerr.Newf(nerr.UnknownMember, nerr.Location{}, "unknown member %q on %s", name, receiver.TypeName())
}

// step 1: Object — declared/inherited method table, then interface defaults.
func objectStep(ctx *Context, receiver value.Value, name string, args []value.Value) (value.Value, bool, error) {
	obj, ok := receiver.(*value.Object)
	if !ok {
		return nil, false, nil
	}
	slot, owner := obj.Class.LookupMethod(name)
	if slot == nil {
		return nil, false, nil
	}
	if err := checkVisibility(ctx, owner, slot); err != nil {
		return nil, true, err
	}
	v, err := ctx.Invoker.InvokeMethod(owner, slot, obj, args)
	return v, true, err
}

func checkVisibility(ctx *Context, owner *value.Class, slot *value.MethodSlot) error {
	if slot.Visibility == value.Public {
		return nil
	}
	if ctx.CallingClass != nil && (ctx.CallingClass == owner || ctx.CallingClass.IsSubclassOf(owner)) {
		return nil
	}
	if slot.Visibility == value.Protected && ctx.CallingClass != nil && ctx.CallingClass.IsSubclassOf(owner) {
		return nil
	}
	return nerr.New(nerr.MemberNotAccess, "%s.%s is not accessible here", owner.Name, slot.Name)
}

// step 2: External/foreign objects — reflection-backed method and bean
// getter resolution (internal/foreign implements resolve.ForeignReflector).
func foreignStep(ctx *Context, receiver value.Value, name string, args []value.Value) (value.Value, bool, error) {
	ext, ok := receiver.(*value.External)
	if !ok {
		return nil, false, nil
	}
	fr := ctx.Host.Foreign()
	if fr == nil {
		return nil, false, nil
	}
	if c, found, err := fr.ResolveMethod(ext, name); err != nil {
		return nil, true, err
	} else if found {
		v, err := ctx.Invoker.InvokeCallable(c, args)
		return v, true, err
	}
	if len(args) == 0 {
		if c, found, err := fr.ResolveBeanGetter(ext, name); err != nil {
			return nil, true, err
		} else if found {
			v, err := ctx.Invoker.InvokeCallable(c, nil)
			return v, true, err
		}
	}
	return nil, false, nil
}

// step 3: Class/enum/singleton — static method table and enum-entry bodies.
func classLikeStep(ctx *Context, receiver value.Value, name string, args []value.Value) (value.Value, bool, error) {
	switch r := receiver.(type) {
	case *value.Class:
		slot, owner := r.LookupMethod(name)
		if slot == nil {
			return nil, false, nil
		}
		v, err := ctx.Invoker.InvokeMethod(owner, slot, r, args)
		return v, true, err
	case *value.Enum:
		slot, ok := r.Methods[name]
		if !ok {
			return nil, false, nil
		}
		v, err := ctx.Invoker.InvokeMethod(nil, slot, r, args)
		return v, true, err
	case *value.EnumEntry:
		slot, ok := r.LookupMethod(name)
		if !ok {
			return nil, false, nil
		}
		v, err := ctx.Invoker.InvokeMethod(nil, slot, r, args)
		return v, true, err
	default:
		return nil, false, nil
	}
}

// step 4: Iterator protocol — `hasNext`/`next` on anything whose stdlib
// extension table answers for them (Lists, Ranges, Maps' entry views, and
// any user type that implements its own `iterator()` via step 1/3 already).
func iteratorStep(ctx *Context, receiver value.Value, name string, args []value.Value) (value.Value, bool, error) {
	if name != "hasNext" && name != "next" && name != "iterator" {
		return nil, false, nil
	}
	return tryStdlib(ctx, receiver, name, args)
}

// step 5: Result-type methods (`isSuccess`, `isFailure`, `getOrNull`,
// `getOrThrow`, `exceptionOrNull`, `getOrElse`, `onSuccess`, `onFailure`), routed through the
// same stdlib extension table as any other builtin-type method.
func resultStep(ctx *Context, receiver value.Value, name string, args []value.Value) (value.Value, bool, error) {
	return tryStdlib(ctx, receiver, name, args)
}

// step 6: concurrency handles — Future/Deferred/Job/Task/Scope each carry a
// small fixed method table implemented directly against their Impl
// interface (value.FutureHandle/JobHandle/TaskHandle/ScopeHandle), so no
// Host lookup is needed at all.
func concurrencyStep(ctx *Context, receiver value.Value, name string, args []value.Value) (value.Value, bool, error) {
	switch r := receiver.(type) {
	case *value.Future:
		return invokeFutureHandle(r.Impl, name, args)
	case *value.Deferred:
		return invokeFutureHandle(r.Impl, name, args)
	case *value.Job:
		return invokeJobHandle(r.Impl, name, args)
	case *value.Task:
		if name == "cancel" {
			r.Impl.Cancel()
			return value.Unit, true, nil
		}
	case *value.Scope:
		return invokeScopeHandle(ctx, r.Impl, name, args)
	}
	return nil, false, nil
}

func invokeFutureHandle(h value.FutureHandle, name string, args []value.Value) (value.Value, bool, error) {
	switch name {
	case "await":
		v, err := h.Await()
		return v, true, err
	case "cancel":
		h.Cancel()
		return value.Unit, true, nil
	case "isDone", "isCompleted":
		return value.Bool(h.IsDone()), true, nil
	}
	return nil, false, nil
}

func invokeJobHandle(h value.JobHandle, name string, args []value.Value) (value.Value, bool, error) {
	switch name {
	case "join":
		err := h.Join()
		return value.Unit, true, err
	case "cancel":
		h.Cancel()
		return value.Unit, true, nil
	case "isDone", "isCompleted":
		return value.Bool(h.IsDone()), true, nil
	}
	return nil, false, nil
}

func invokeScopeHandle(ctx *Context, h value.ScopeHandle, name string, args []value.Value) (value.Value, bool, error) {
	switch name {
	case "async":
		if len(args) != 1 {
			return nil, true, nerr.New(nerr.ArityMismatch, "async expects one block argument")
		}
		c, ok := args[0].(value.Callable)
		if !ok {
			return nil, true, nerr.New(nerr.TypeMismatch, "async expects a function value")
		}
		d, err := h.Async(c)
		return d, true, err
	case "launch":
		if len(args) != 1 {
			return nil, true, nerr.New(nerr.ArityMismatch, "launch expects one block argument")
		}
		c, ok := args[0].(value.Callable)
		if !ok {
			return nil, true, nerr.New(nerr.TypeMismatch, "launch expects a function value")
		}
		j, err := h.Launch(c)
		return j, true, err
	case "cancel":
		h.Cancel()
		return value.Unit, true, nil
	}
	return nil, false, nil
}

// step 7: scope functions (`let`, `also`, `run`, `apply`, `takeIf`,
// `takeUnless`) — available on every receiver, implemented generically here
// rather than through the stdlib table since they don't belong to any one
// value kind.
func scopeFunctionStep(ctx *Context, receiver value.Value, name string, args []value.Value) (value.Value, bool, error) {
	switch name {
	case "let":
		if len(args) != 1 {
			return nil, false, nil
		}
		c, ok := args[0].(value.Callable)
		if !ok {
			return nil, false, nil
		}
		v, err := ctx.Invoker.InvokeCallable(c, []value.Value{receiver})
		return v, true, err
	case "also":
		if len(args) != 1 {
			return nil, false, nil
		}
		c, ok := args[0].(value.Callable)
		if !ok {
			return nil, false, nil
		}
		_, err := ctx.Invoker.InvokeCallable(c, []value.Value{receiver})
		if err != nil {
			return nil, true, err
		}
		return receiver, true, nil
	case "run":
		if len(args) != 1 {
			return nil, false, nil
		}
		c, ok := args[0].(value.Callable)
		if !ok {
			return nil, false, nil
		}
		v, err := ctx.Invoker.InvokeCallable(c, []value.Value{receiver})
		return v, true, err
	case "apply":
		if len(args) != 1 {
			return nil, false, nil
		}
		c, ok := args[0].(value.Callable)
		if !ok {
			return nil, false, nil
		}
		_, err := ctx.Invoker.InvokeCallable(c, []value.Value{receiver})
		if err != nil {
			return nil, true, err
		}
		return receiver, true, nil
	case "takeIf":
		if len(args) != 1 {
			return nil, false, nil
		}
		c, ok := args[0].(value.Callable)
		if !ok {
			return nil, false, nil
		}
		v, err := ctx.Invoker.InvokeCallable(c, []value.Value{receiver})
		if err != nil {
			return nil, true, err
		}
		if value.Truthy(v) {
			return receiver, true, nil
		}
		return value.Null, true, nil
	case "takeUnless":
		if len(args) != 1 {
			return nil, false, nil
		}
		c, ok := args[0].(value.Callable)
		if !ok {
			return nil, false, nil
		}
		v, err := ctx.Invoker.InvokeCallable(c, []value.Value{receiver})
		if err != nil {
			return nil, true, err
		}
		if !value.Truthy(v) {
			return receiver, true, nil
		}
		return value.Null, true, nil
	}
	return nil, false, nil
}

// step 8: generic fallback — user extension functions, then stdlib
// extension methods on builtin kinds, then foreign package wildcard import
// members for a dotted name.
func genericFallbackStep(ctx *Context, receiver value.Value, name string, args []value.Value) (value.Value, bool, error) {
	if ext := ctx.Host.Extensions(); ext != nil {
		if fn, ok := ext.LookupExtensionFunction(receiver.TypeName(), name); ok {
			v, err := ctx.Invoker.InvokeCallable(fn, append([]value.Value{receiver}, args...))
			return v, true, err
		}
	}
	if v, handled, err := tryStdlib(ctx, receiver, name, args); handled {
		return v, handled, err
	}
	if idx := strings.LastIndexByte(name, '.'); idx >= 0 {
		if v, ok := ctx.Host.ResolveForeignPackageWildcard(name); ok {
			return v, true, nil
		}
	}
	return nil, false, nil
}

func tryStdlib(ctx *Context, receiver value.Value, name string, args []value.Value) (value.Value, bool, error) {
	std := ctx.Host.Stdlib()
	if std == nil {
		return nil, false, nil
	}
	fn, ok := std.LookupStdlibExtension(receiver.TypeName(), name)
	if !ok {
		return nil, false, nil
	}
	v, err := ctx.Invoker.InvokeCallable(fn, append([]value.Value{receiver}, args...))
	return v, true, err
}
