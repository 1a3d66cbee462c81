package runtime

import (
	"bufio"
	"fmt"
	"time"

	"github.com/nyxlang/nyx/internal/concurrency"
	nerr "github.com/nyxlang/nyx/internal/errors"
	"github.com/nyxlang/nyx/internal/value"
)

// RegisterBuiltins installs the §6.1 minimum built-in function set. This is
// spec §6's `register_builtins()`; an embedder calls it once after
// NewInterpreter and before running any module.
func (rt *Runtime) RegisterBuiltins() {
	rt.registerIO()
	rt.registerConversions()
	rt.registerCollections()
	rt.registerFunctional()
	rt.registerConcurrencyBuiltins()
	rt.registerForeignNamespace()
	rt.registerAnnotationProcessorBuiltin()
	rt.registerResultStdlib()
	rt.registerListStdlib()
	rt.registerStringStdlib()
}

func (rt *Runtime) define(name string, arity int, fn func(ctx any, args []value.Value) (value.Value, error)) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.builtins[name] = &value.NativeFunction{Name: name, ArityN: arity, Fn: fn}
}

func arg(args []value.Value, i int) value.Value {
	if i < len(args) {
		return args[i]
	}
	return value.Null
}

// --- §6.1: I/O ---

func (rt *Runtime) registerIO() {
	var stdin *bufio.Scanner

	rt.define("println", -1, func(_ any, args []value.Value) (value.Value, error) {
		if err := rt.policy.RequireStdio(); err != nil {
			return nil, err
		}
		fmt.Fprintln(rt.Stdout, joinArgs(args))
		return value.Unit, nil
	})
	rt.define("print", -1, func(_ any, args []value.Value) (value.Value, error) {
		if err := rt.policy.RequireStdio(); err != nil {
			return nil, err
		}
		fmt.Fprint(rt.Stdout, joinArgs(args))
		return value.Unit, nil
	})
	rt.define("readLine", 0, func(_ any, args []value.Value) (value.Value, error) {
		if err := rt.policy.RequireStdio(); err != nil {
			return nil, err
		}
		if stdin == nil {
			stdin = bufio.NewScanner(rt.Stdin)
		}
		if !stdin.Scan() {
			return value.Null, nil
		}
		return value.String(stdin.Text()), nil
	})
	rt.define("input", 1, func(_ any, args []value.Value) (value.Value, error) {
		if err := rt.policy.RequireStdio(); err != nil {
			return nil, err
		}
		fmt.Fprint(rt.Stdout, arg(args, 0).String())
		if stdin == nil {
			stdin = bufio.NewScanner(rt.Stdin)
		}
		if !stdin.Scan() {
			return value.Null, nil
		}
		return value.String(stdin.Text()), nil
	})
}

func joinArgs(args []value.Value) string {
	s := ""
	for i, a := range args {
		if i > 0 {
			s += " "
		}
		s += a.String()
	}
	return s
}

// --- §6.1: conversions & reflection ---

func (rt *Runtime) registerConversions() {
	rt.define("toInt", 1, func(_ any, args []value.Value) (value.Value, error) {
		v, err := value.ToInt(arg(args, 0))
		return v, wrapConv(err)
	})
	rt.define("toLong", 1, func(_ any, args []value.Value) (value.Value, error) {
		v, err := value.ToLong(arg(args, 0))
		return v, wrapConv(err)
	})
	rt.define("toDouble", 1, func(_ any, args []value.Value) (value.Value, error) {
		v, err := value.ToDouble(arg(args, 0))
		return v, wrapConv(err)
	})
	rt.define("toFloat", 1, func(_ any, args []value.Value) (value.Value, error) {
		v, err := value.ToDouble(arg(args, 0))
		return v, wrapConv(err)
	})
	rt.define("toBoolean", 1, func(_ any, args []value.Value) (value.Value, error) {
		v, err := value.ToBoolean(arg(args, 0))
		return v, wrapConv(err)
	})
	rt.define("toChar", 1, func(_ any, args []value.Value) (value.Value, error) {
		v, err := value.ToChar(arg(args, 0))
		return v, wrapConv(err)
	})
	rt.define("toString", 1, func(_ any, args []value.Value) (value.Value, error) {
		return value.ToStringValue(arg(args, 0)), nil
	})
	rt.define("typeof", 1, func(_ any, args []value.Value) (value.Value, error) {
		return value.String(arg(args, 0).TypeName()), nil
	})
	rt.define("isCallable", 1, func(_ any, args []value.Value) (value.Value, error) {
		return value.Bool(value.IsCallable(arg(args, 0))), nil
	})
	rt.define("classOf", 1, func(_ any, args []value.Value) (value.Value, error) {
		switch v := arg(args, 0).(type) {
		case *value.Object:
			return v.Class, nil
		case *value.Class:
			return v, nil
		default:
			return nil, nerr.New(nerr.TypeMismatch, "classOf: %s has no class", v.TypeName())
		}
	})
	rt.define("error", 1, func(_ any, args []value.Value) (value.Value, error) {
		return nil, nerr.New(nerr.UserThrown, "%s", arg(args, 0).String())
	})
}

func wrapConv(err error) error {
	if err == nil {
		return nil
	}
	return nerr.New(nerr.TypeMismatch, "%s", err.Error())
}

// --- §6.1: collection constructors ---

func (rt *Runtime) registerCollections() {
	rt.define("List", -1, func(_ any, args []value.Value) (value.Value, error) {
		return value.NewList(args...), nil
	})
	rt.define("arrayOf", -1, func(_ any, args []value.Value) (value.Value, error) {
		a := value.NewArray(value.ElemObject, len(args))
		for i, v := range args {
			if err := a.Set(i, v); err != nil {
				return nil, err
			}
		}
		return a, nil
	})
	rt.define("Array", 2, func(ctx any, args []value.Value) (value.Value, error) {
		n, err := value.ToInt(arg(args, 0))
		if err != nil {
			return nil, wrapConv(err)
		}
		a := value.NewArray(value.ElemObject, int(n))
		if init, ok := arg(args, 1).(value.Callable); ok {
			for i := 0; i < int(n); i++ {
				v, err := init.Call(ctx, []value.Value{value.Int(i)})
				if err != nil {
					return nil, err
				}
				if err := a.Set(i, v); err != nil {
					return nil, err
				}
			}
		}
		return a, nil
	})
	rt.define("Pair", 2, func(_ any, args []value.Value) (value.Value, error) {
		return value.NewPair(arg(args, 0), arg(args, 1)), nil
	})
	rt.define("pairOf", 2, func(_ any, args []value.Value) (value.Value, error) {
		return value.NewPair(arg(args, 0), arg(args, 1)), nil
	})
	rt.define("range", 2, func(_ any, args []value.Value) (value.Value, error) {
		s, err := value.ToInt(arg(args, 0))
		if err != nil {
			return nil, wrapConv(err)
		}
		e, err := value.ToInt(arg(args, 1))
		if err != nil {
			return nil, wrapConv(err)
		}
		return value.NewRange(s, e, false), nil
	})
	rt.define("rangeClosed", 2, func(_ any, args []value.Value) (value.Value, error) {
		s, err := value.ToInt(arg(args, 0))
		if err != nil {
			return nil, wrapConv(err)
		}
		e, err := value.ToInt(arg(args, 1))
		if err != nil {
			return nil, wrapConv(err)
		}
		return value.NewRange(s, e, true), nil
	})
}

// --- §6.1: functional helpers ---

func (rt *Runtime) registerFunctional() {
	rt.define("with", 2, func(ctx any, args []value.Value) (value.Value, error) {
		block, ok := arg(args, 1).(value.Callable)
		if !ok {
			return nil, nerr.New(nerr.TypeMismatch, "with: second argument must be callable")
		}
		return block.Call(ctx, []value.Value{arg(args, 0)})
	})
	rt.define("repeat", 2, func(ctx any, args []value.Value) (value.Value, error) {
		n, err := value.ToInt(arg(args, 0))
		if err != nil {
			return nil, wrapConv(err)
		}
		block, ok := arg(args, 1).(value.Callable)
		if !ok {
			return nil, nerr.New(nerr.TypeMismatch, "repeat: second argument must be callable")
		}
		for i := int64(0); i < int64(n); i++ {
			if err := rt.policy.CheckLoopIteration(i + 1); err != nil {
				return nil, err
			}
			if _, err := block.Call(ctx, []value.Value{value.Int(i)}); err != nil {
				return nil, err
			}
		}
		return value.Unit, nil
	})
	rt.define("measureTimeMillis", 1, func(ctx any, args []value.Value) (value.Value, error) {
		block, ok := arg(args, 0).(value.Callable)
		if !ok {
			return nil, nerr.New(nerr.TypeMismatch, "measureTimeMillis: argument must be callable")
		}
		start := time.Now()
		if _, err := block.Call(ctx, nil); err != nil {
			return nil, err
		}
		return value.Long(time.Since(start).Milliseconds()), nil
	})
	rt.define("measureNanoTime", 1, func(ctx any, args []value.Value) (value.Value, error) {
		block, ok := arg(args, 0).(value.Callable)
		if !ok {
			return nil, nerr.New(nerr.TypeMismatch, "measureNanoTime: argument must be callable")
		}
		start := time.Now()
		if _, err := block.Call(ctx, nil); err != nil {
			return nil, err
		}
		return value.Long(time.Since(start).Nanoseconds()), nil
	})
	rt.define("runCatching", 1, func(ctx any, args []value.Value) (value.Value, error) {
		block, ok := arg(args, 0).(value.Callable)
		if !ok {
			return nil, nerr.New(nerr.TypeMismatch, "runCatching: argument must be callable")
		}
		v, err := block.Call(ctx, nil)
		if err != nil {
			rerr, ok := err.(*nerr.RuntimeError)
			if !ok {
				// not a RuntimeError: an internal control signal (return/
				// break/continue), which runCatching must not swallow.
				return nil, err
			}
			return rt.newResultErr(rerr.Error()), nil
		}
		return rt.newResultOk(v), nil
	})
}
