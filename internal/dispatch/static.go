package dispatch

import (
	"strconv"
	"strings"

	nerr "github.com/nyxlang/nyx/internal/errors"
	"github.com/nyxlang/nyx/internal/value"
)

// Synthetic owners an INVOKE_STATIC instruction can carry (spec §4.8),
// compiled in for lowerings that don't correspond to a real class's static
// method: scope functions called in static position, partial application,
// the `Environment` handle's get/define/set family, the `|>` pipe operator,
// Range construction, and method-reference binding (`obj::method`).
const (
	OwnerScopeCall         = "$ScopeCall"
	OwnerPartialApplyPrefix = "$PartialApplication|"
	OwnerEnv               = "$ENV"
	OwnerPipeCall          = "$PipeCall"
	OwnerRange             = "$RANGE"
	OwnerBindMethod        = "$BIND_METHOD"
)

// InvokeStatic resolves and invokes an INVOKE_STATIC instruction: either a
// real class's static method/constructor or one of the synthetic owners
// above. Same-module free functions are not looked up here (internal/vm
// tries them before falling back to this function); any other owner that is
// not a registered class yields ClassNotFound.
func InvokeStatic(ctx *Context, owner, name string, args []value.Value) (value.Value, error) {
	switch {
	case owner == OwnerScopeCall:
		return invokeScopeCallStatic(ctx, name, args)
	case strings.HasPrefix(owner, OwnerPartialApplyPrefix):
		return invokePartialApplication(owner, args)
	case owner == OwnerEnv:
		return invokeEnvCall(name, args)
	case owner == OwnerPipeCall:
		return invokePipeCall(ctx, args)
	case owner == OwnerRange:
		return invokeRangeCreate(args)
	case owner == OwnerBindMethod:
		return invokeBindMethod(ctx, args)
	}

	class, ok := ctx.Host.LookupClass(owner)
	if !ok {
		return nil, nerr.New(nerr.ClassNotFound, "unknown static owner %q", owner)
	}
	if name == "<init>" {
		return ctx.Invoker.NewInstance(class, args)
	}
	slot, found := class.Methods[name]
	if !found {
		return nil, nerr.Newf(nerr.UnknownMember, nerr.Location{}, "unknown static member %q on %s", name, owner)
	}
	return ctx.Invoker.InvokeMethod(class, slot, class, args)
}

func invokeScopeCallStatic(ctx *Context, name string, args []value.Value) (value.Value, error) {
	if len(args) != 2 {
		return nil, nerr.New(nerr.ArityMismatch, "%s expects a receiver and a block", name)
	}
	v, handled, err := scopeFunctionStep(ctx, args[0], name, args[1:])
	if err != nil {
		return nil, err
	}
	if !handled {
		return nil, nerr.Newf(nerr.UnknownMember, nerr.Location{}, "unknown scope function %q", name)
	}
	return v, nil
}

// invokePartialApplication builds a value.PartialApplication from the owner
// suffix's bit mask, read as a binary number so the rightmost digit is
// argument position 0: '1' marks a placeholder to be supplied when the
// partial is finally called, '0' an argument bound at capture time.
// args[0] is the underlying callable and args[1:] holds one value per
// argument position; the values at placeholder positions are not used.
func invokePartialApplication(owner string, args []value.Value) (value.Value, error) {
	if len(args) < 1 {
		return nil, nerr.New(nerr.ArityMismatch, "partial application requires an underlying function")
	}
	inner, ok := args[0].(value.Callable)
	if !ok {
		return nil, nerr.New(nerr.TypeMismatch, "partial application target must be callable")
	}
	maskStr := strings.TrimPrefix(owner, OwnerPartialApplyPrefix)
	mask, err := strconv.ParseUint(maskStr, 2, 64)
	if err != nil {
		return nil, nerr.New(nerr.InternalInvariant, "malformed partial application mask %q", maskStr)
	}
	return &value.PartialApplication{Inner: inner, Bound: args[1:], Mask: mask}, nil
}

func invokeEnvCall(name string, args []value.Value) (value.Value, error) {
	if len(args) < 1 {
		return nil, nerr.New(nerr.ArityMismatch, "%s requires an Environment receiver", name)
	}
	ext, ok := args[0].(*value.External)
	if !ok {
		return nil, nerr.New(nerr.TypeMismatch, "%s requires an Environment handle", name)
	}
	env, ok := ext.Delegate.(*value.Environment)
	if !ok {
		return nil, nerr.New(nerr.TypeMismatch, "%s requires an Environment handle", name)
	}
	switch name {
	case "get":
		if len(args) != 2 {
			return nil, nerr.New(nerr.ArityMismatch, "get(name) expects one argument")
		}
		v, ok := env.TryGet(argString(args[1]))
		if !ok {
			return value.Null, nil
		}
		return v, nil
	case "defineVal":
		if len(args) != 3 {
			return nil, nerr.New(nerr.ArityMismatch, "defineVal(name, value) expects two arguments")
		}
		return value.Unit, env.DefineVal(argString(args[1]), args[2])
	case "defineVar":
		if len(args) != 3 {
			return nil, nerr.New(nerr.ArityMismatch, "defineVar(name, value) expects two arguments")
		}
		return value.Unit, env.DefineVar(argString(args[1]), args[2])
	case "set":
		if len(args) != 3 {
			return nil, nerr.New(nerr.ArityMismatch, "set(name, value) expects two arguments")
		}
		ok, err := env.TryAssign(argString(args[1]), args[2])
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, nerr.New(nerr.UnknownName, "%s is not defined", argString(args[1]))
		}
		return value.Unit, nil
	}
	return nil, nerr.Newf(nerr.UnknownMember, nerr.Location{}, "unknown Environment operation %q", name)
}

func invokePipeCall(ctx *Context, args []value.Value) (value.Value, error) {
	if len(args) != 2 {
		return nil, nerr.New(nerr.ArityMismatch, "pipe requires a value and a function")
	}
	fn, ok := args[1].(value.Callable)
	if !ok {
		return nil, nerr.New(nerr.TypeMismatch, "right side of |> must be callable")
	}
	return ctx.Invoker.InvokeCallable(fn, []value.Value{args[0]})
}

func invokeRangeCreate(args []value.Value) (value.Value, error) {
	if len(args) != 3 {
		return nil, nerr.New(nerr.ArityMismatch, "Range.create(start, end, inclusive) expects three arguments")
	}
	start, ok := args[0].(value.Int)
	if !ok {
		return nil, nerr.New(nerr.TypeMismatch, "Range bounds must be Int")
	}
	end, ok := args[1].(value.Int)
	if !ok {
		return nil, nerr.New(nerr.TypeMismatch, "Range bounds must be Int")
	}
	return &value.Range{Start: start, End: end, Inclusive: value.Truthy(args[2])}, nil
}

func invokeBindMethod(ctx *Context, args []value.Value) (value.Value, error) {
	if len(args) != 2 {
		return nil, nerr.New(nerr.ArityMismatch, "method reference requires a receiver and a method name")
	}
	name := argString(args[1])
	fn, err := ctx.Invoker.ResolveMethodValue(args[0], name)
	if err != nil {
		return nil, err
	}
	return fn, nil
}

func argString(v value.Value) string {
	if s, ok := v.(value.String); ok {
		return string(s)
	}
	return v.String()
}
