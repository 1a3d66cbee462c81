package runtime

import (
	"strings"

	nerr "github.com/nyxlang/nyx/internal/errors"
	"github.com/nyxlang/nyx/internal/value"
)

func (rt *Runtime) stdlibFn(typeTag, name string, arity int, fn func(ctx any, args []value.Value) (value.Value, error)) {
	rt.stdlib.Register(typeTag, name, &value.NativeFunction{Name: name, ArityN: arity, Fn: fn})
}

// registerResultStdlib implements §7's `runCatching(block)` outcome type:
// isSuccess/isFailure/getOrNull/getOrElse/getOrThrow/exceptionOrNull, keyed
// through internal/dispatch's resultStep (spec §4.8 step 5), which routes
// any Object named "Result" through the same stdlib extension table as
// every other built-in-type method.
func (rt *Runtime) registerResultStdlib() {
	field := func(args []value.Value, name string) value.Value {
		obj := args[0].(*value.Object)
		v, _ := obj.GetField(name)
		return v
	}
	rt.stdlibFn("Result", "isSuccess", 1, func(_ any, args []value.Value) (value.Value, error) {
		return field(args, "ok"), nil
	})
	rt.stdlibFn("Result", "isFailure", 1, func(_ any, args []value.Value) (value.Value, error) {
		return value.Bool(!bool(field(args, "ok").(value.Bool))), nil
	})
	rt.stdlibFn("Result", "getOrNull", 1, func(_ any, args []value.Value) (value.Value, error) {
		if bool(field(args, "ok").(value.Bool)) {
			return field(args, "value"), nil
		}
		return value.Null, nil
	})
	rt.stdlibFn("Result", "exceptionOrNull", 1, func(_ any, args []value.Value) (value.Value, error) {
		if bool(field(args, "ok").(value.Bool)) {
			return value.Null, nil
		}
		return field(args, "error"), nil
	})
	rt.stdlibFn("Result", "getOrThrow", 1, func(_ any, args []value.Value) (value.Value, error) {
		if bool(field(args, "ok").(value.Bool)) {
			return field(args, "value"), nil
		}
		return nil, nerr.New(nerr.UserThrown, "%s", field(args, "error").String())
	})
	rt.stdlibFn("Result", "getOrElse", 2, func(ctx any, args []value.Value) (value.Value, error) {
		if bool(field(args, "ok").(value.Bool)) {
			return field(args, "value"), nil
		}
		if fallback, ok := arg(args, 1).(value.Callable); ok {
			return fallback.Call(ctx, []value.Value{field(args, "error")})
		}
		return arg(args, 1), nil
	})
	rt.stdlibFn("Result", "onSuccess", 2, func(ctx any, args []value.Value) (value.Value, error) {
		if bool(field(args, "ok").(value.Bool)) {
			if cb, ok := arg(args, 1).(value.Callable); ok {
				if _, err := cb.Call(ctx, []value.Value{field(args, "value")}); err != nil {
					return nil, err
				}
			}
		}
		return args[0], nil
	})
	rt.stdlibFn("Result", "onFailure", 2, func(ctx any, args []value.Value) (value.Value, error) {
		if !bool(field(args, "ok").(value.Bool)) {
			if cb, ok := arg(args, 1).(value.Callable); ok {
				if _, err := cb.Call(ctx, []value.Value{field(args, "error")}); err != nil {
					return nil, err
				}
			}
		}
		return args[0], nil
	})
}

// registerListStdlib implements testable property #5's map/filter surface
// plus the everyday List methods a script needs (size/get/add/forEach),
// grounded the same way as Result: a stdlib extension, not a Methods slot,
// since List is a built-in value kind with no Class of its own.
func (rt *Runtime) registerListStdlib() {
	self := func(args []value.Value) *value.List { return args[0].(*value.List) }

	rt.stdlibFn("List", "size", 1, func(_ any, args []value.Value) (value.Value, error) {
		return value.Int(self(args).Size()), nil
	})
	rt.stdlibFn("List", "get", 2, func(_ any, args []value.Value) (value.Value, error) {
		i, err := value.ToInt(arg(args, 1))
		if err != nil {
			return nil, wrapConv(err)
		}
		v, gerr := self(args).Get(int(i))
		if gerr != nil {
			return nil, nerr.New(nerr.IndexOutOfBounds, "%s", gerr.Error())
		}
		return v, nil
	})
	rt.stdlibFn("List", "add", 2, func(_ any, args []value.Value) (value.Value, error) {
		self(args).Append(arg(args, 1))
		return value.Unit, nil
	})
	rt.stdlibFn("List", "forEach", 2, func(ctx any, args []value.Value) (value.Value, error) {
		fn, ok := arg(args, 1).(value.Callable)
		if !ok {
			return nil, nerr.New(nerr.TypeMismatch, "forEach: argument must be callable")
		}
		for _, v := range self(args).Elements {
			if _, err := fn.Call(ctx, []value.Value{v}); err != nil {
				return nil, err
			}
		}
		return value.Unit, nil
	})
	rt.stdlibFn("List", "map", 2, func(ctx any, args []value.Value) (value.Value, error) {
		fn, ok := arg(args, 1).(value.Callable)
		if !ok {
			return nil, nerr.New(nerr.TypeMismatch, "map: argument must be callable")
		}
		src := self(args).Elements
		out := make([]value.Value, len(src))
		for i, v := range src {
			r, err := fn.Call(ctx, []value.Value{v})
			if err != nil {
				return nil, err
			}
			out[i] = r
		}
		return value.NewList(out...), nil
	})
	rt.stdlibFn("List", "filter", 2, func(ctx any, args []value.Value) (value.Value, error) {
		fn, ok := arg(args, 1).(value.Callable)
		if !ok {
			return nil, nerr.New(nerr.TypeMismatch, "filter: argument must be callable")
		}
		var out []value.Value
		for _, v := range self(args).Elements {
			r, err := fn.Call(ctx, []value.Value{v})
			if err != nil {
				return nil, err
			}
			if value.Truthy(r) {
				out = append(out, v)
			}
		}
		return value.NewList(out...), nil
	})
	rt.stdlibFn("List", "contains", 2, func(_ any, args []value.Value) (value.Value, error) {
		for _, v := range self(args).Elements {
			if value.Equals(v, arg(args, 1)) {
				return value.Bool(true), nil
			}
		}
		return value.Bool(false), nil
	})
}

// registerStringStdlib exposes a small, frequently-used slice of the
// script String method surface (trim/upper/lower/split/length/isEmpty),
// enough to exercise the same stdlib extension path Result and List use.
func (rt *Runtime) registerStringStdlib() {
	self := func(args []value.Value) string { return string(args[0].(value.String)) }

	rt.stdlibFn("String", "length", 1, func(_ any, args []value.Value) (value.Value, error) {
		return value.Int(len([]rune(self(args)))), nil
	})
	rt.stdlibFn("String", "isEmpty", 1, func(_ any, args []value.Value) (value.Value, error) {
		return value.Bool(self(args) == ""), nil
	})
	rt.stdlibFn("String", "trim", 1, func(_ any, args []value.Value) (value.Value, error) {
		return value.String(strings.TrimSpace(self(args))), nil
	})
	rt.stdlibFn("String", "toUpperCase", 1, func(_ any, args []value.Value) (value.Value, error) {
		return value.String(strings.ToUpper(self(args))), nil
	})
	rt.stdlibFn("String", "toLowerCase", 1, func(_ any, args []value.Value) (value.Value, error) {
		return value.String(strings.ToLower(self(args))), nil
	})
	rt.stdlibFn("String", "split", 2, func(_ any, args []value.Value) (value.Value, error) {
		sep, ok := arg(args, 1).(value.String)
		if !ok {
			return nil, nerr.New(nerr.TypeMismatch, "split: argument must be a String")
		}
		parts := strings.Split(self(args), string(sep))
		out := make([]value.Value, len(parts))
		for i, p := range parts {
			out[i] = value.String(p)
		}
		return value.NewList(out...), nil
	})
}
