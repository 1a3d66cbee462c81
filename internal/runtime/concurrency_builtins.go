package runtime

import (
	"time"

	"github.com/nyxlang/nyx/internal/concurrency"
	nerr "github.com/nyxlang/nyx/internal/errors"
	"github.com/nyxlang/nyx/internal/value"
)

func asCallable(args []value.Value, i int, who string) (value.Callable, error) {
	c, ok := arg(args, i).(value.Callable)
	if !ok {
		return nil, nerr.New(nerr.TypeMismatch, "%s: expected a callable argument", who)
	}
	return c, nil
}

func millis(args []value.Value, i int) (time.Duration, error) {
	n, err := value.ToLong(arg(args, i))
	if err != nil {
		return 0, wrapConv(err)
	}
	return time.Duration(n) * time.Millisecond, nil
}

// registerConcurrencyBuiltins wires §6.1's structured-concurrency surface
// to internal/concurrency (C9): coroutineScope/supervisorScope/launch/
// parallel/withTimeout/schedule/scheduleRepeat/scope/sync/Channel/Mutex/
// Atomic*/awaitAll/awaitFirst. Every block-accepting builtin here except
// withLock goes through invokerFor(ctx) rather than calling block.Call
// directly, so the same registration serves both the HIR evaluator and the
// MIR interpreter; withLock calls block.Call(ctx, nil) itself.
func (rt *Runtime) registerConcurrencyBuiltins() {
	rt.eval.Globals.DefineVal("Dispatchers", value.NewExternal(&dispatcherTags{}, "Dispatchers"))

	rt.define("coroutineScope", 1, func(ctx any, args []value.Value) (value.Value, error) {
		block, err := asCallable(args, 0, "coroutineScope")
		if err != nil {
			return nil, err
		}
		return concurrency.Run(concurrency.Strict, invokerFor(ctx), rt.policy, block)
	})
	rt.define("supervisorScope", 1, func(ctx any, args []value.Value) (value.Value, error) {
		block, err := asCallable(args, 0, "supervisorScope")
		if err != nil {
			return nil, err
		}
		return concurrency.Run(concurrency.Supervisor, invokerFor(ctx), rt.policy, block)
	})
	rt.define("scope", 1, func(ctx any, args []value.Value) (value.Value, error) {
		block, err := asCallable(args, 0, "scope")
		if err != nil {
			return nil, err
		}
		return concurrency.NewScheduler(invokerFor(ctx), rt.policy).Scope(block)
	})
	rt.define("sync", 1, func(ctx any, args []value.Value) (value.Value, error) {
		block, err := asCallable(args, 0, "sync")
		if err != nil {
			return nil, err
		}
		return concurrency.NewScheduler(invokerFor(ctx), rt.policy).Sync(block)
	})

	rt.define("launch", 2, func(_ any, args []value.Value) (value.Value, error) {
		s, ok := arg(args, 0).(*value.Scope)
		if !ok {
			return nil, nerr.New(nerr.TypeMismatch, "launch: first argument must be a Scope")
		}
		block, err := asCallable(args, 1, "launch")
		if err != nil {
			return nil, err
		}
		job, err := s.Impl.Launch(block)
		if err != nil {
			return nil, err
		}
		return job, nil
	})
	rt.define("parallel", -1, func(ctx any, args []value.Value) (value.Value, error) {
		deferreds := make([]*value.Deferred, 0, len(args))
		result, err := concurrency.Run(concurrency.Strict, invokerFor(ctx), rt.policy, &value.NativeFunction{
			Name:   "<parallel-body>",
			ArityN: 1,
			Fn: func(innerCtx any, innerArgs []value.Value) (value.Value, error) {
				s, ok := arg(innerArgs, 0).(*value.Scope)
				if !ok {
					return nil, nerr.New(nerr.InternalInvariant, "parallel: scope body invoked without a Scope")
				}
				for _, block := range args {
					cb, ok := block.(value.Callable)
					if !ok {
						return nil, nerr.New(nerr.TypeMismatch, "parallel: every argument must be callable")
					}
					d, err := s.Impl.Async(cb)
					if err != nil {
						return nil, err
					}
					deferreds = append(deferreds, d)
				}
				return value.Unit, nil
			},
		})
		if err != nil {
			return nil, err
		}
		_ = result
		out := make([]value.Value, len(deferreds))
		for i, d := range deferreds {
			v, err := d.Impl.Await()
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return value.NewList(out...), nil
	})

	rt.define("withTimeout", 2, func(ctx any, args []value.Value) (value.Value, error) {
		d, err := millis(args, 0)
		if err != nil {
			return nil, err
		}
		block, err := asCallable(args, 1, "withTimeout")
		if err != nil {
			return nil, err
		}
		return concurrency.WithTimeout(invokerFor(ctx), d, block)
	})
	rt.define("withContext", 2, func(ctx any, args []value.Value) (value.Value, error) {
		// The first argument (a Dispatchers tag) selects which worker pool
		// a host embedding this engine in a real scheduler would route to;
		// this engine runs every async block on its own goroutine
		// regardless of tag, so withContext here is `with`'s callable-
		// invocation shape applied to a forked invoker instead of a plain
		// receiver value.
		block, err := asCallable(args, 1, "withContext")
		if err != nil {
			return nil, err
		}
		return invokerFor(ctx).Fork().Invoke(block, nil)
	})

	rt.define("schedule", 2, func(ctx any, args []value.Value) (value.Value, error) {
		d, err := millis(args, 0)
		if err != nil {
			return nil, err
		}
		block, err := asCallable(args, 1, "schedule")
		if err != nil {
			return nil, err
		}
		task, err := concurrency.NewScheduler(invokerFor(ctx), rt.policy).ScheduleLater(d, block)
		if err != nil {
			return nil, err
		}
		return task, nil
	})
	rt.define("scheduleRepeat", 2, func(ctx any, args []value.Value) (value.Value, error) {
		d, err := millis(args, 0)
		if err != nil {
			return nil, err
		}
		block, err := asCallable(args, 1, "scheduleRepeat")
		if err != nil {
			return nil, err
		}
		task, err := concurrency.NewScheduler(invokerFor(ctx), rt.policy).ScheduleRepeat(d, block)
		if err != nil {
			return nil, err
		}
		return task, nil
	})

	rt.define("awaitAll", -1, func(_ any, args []value.Value) (value.Value, error) {
		out := make([]value.Value, len(args))
		for i, d := range args {
			fh, ok := d.(*value.Deferred)
			if !ok {
				return nil, nerr.New(nerr.TypeMismatch, "awaitAll: every argument must be a Deferred")
			}
			v, err := fh.Impl.Await()
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return value.NewList(out...), nil
	})
	rt.define("awaitFirst", -1, func(_ any, args []value.Value) (value.Value, error) {
		type result struct {
			v   value.Value
			err error
		}
		done := make(chan result, len(args))
		for _, d := range args {
			fh, ok := d.(*value.Deferred)
			if !ok {
				return nil, nerr.New(nerr.TypeMismatch, "awaitFirst: every argument must be a Deferred")
			}
			go func(f *value.Deferred) {
				v, err := f.Impl.Await()
				done <- result{v, err}
			}(fh)
		}
		r := <-done
		return r.v, r.err
	})

	rt.define("AtomicInt", 1, func(_ any, args []value.Value) (value.Value, error) {
		n, err := value.ToInt(arg(args, 0))
		if err != nil {
			return nil, wrapConv(err)
		}
		return value.NewExternal(concurrency.NewAtomicInt(int32(n)), "AtomicInt"), nil
	})
	rt.define("AtomicLong", 1, func(_ any, args []value.Value) (value.Value, error) {
		n, err := value.ToLong(arg(args, 0))
		if err != nil {
			return nil, wrapConv(err)
		}
		return value.NewExternal(concurrency.NewAtomicLong(int64(n)), "AtomicLong"), nil
	})
	rt.define("AtomicRef", 1, func(_ any, args []value.Value) (value.Value, error) {
		return value.NewExternal(concurrency.NewAtomicRef(arg(args, 0)), "AtomicRef"), nil
	})
	rt.define("Channel", 1, func(_ any, args []value.Value) (value.Value, error) {
		n, err := value.ToInt(arg(args, 0))
		if err != nil {
			return nil, wrapConv(err)
		}
		return value.NewExternal(concurrency.NewChannel(int(n)), "Channel"), nil
	})

	rt.registerMutexBuiltins()
}

// registerMutexBuiltins exposes concurrency.Mutex as Mutex()/lock/unlock/
// withLock rather than through the generic foreign-reflection bridge: its
// owner-aware reentrant Lock needs the calling tier's own identity as the
// owner token (see internal/concurrency/mutex.go's doc comment), which a
// reflected method call has no way to receive since foreign.foreignMethod
// discards ctx. Registering these as NativeFunctions keeps ctx in scope.
func (rt *Runtime) registerMutexBuiltins() {
	asMutex := func(args []value.Value, who string) (*concurrency.Mutex, error) {
		ext, ok := arg(args, 0).(*value.External)
		if !ok {
			return nil, nerr.New(nerr.TypeMismatch, "%s: first argument must be a Mutex", who)
		}
		m, ok := ext.Delegate.(*concurrency.Mutex)
		if !ok {
			return nil, nerr.New(nerr.TypeMismatch, "%s: first argument must be a Mutex", who)
		}
		return m, nil
	}

	rt.define("Mutex", 0, func(_ any, args []value.Value) (value.Value, error) {
		return value.NewExternal(concurrency.NewMutex(), "Mutex"), nil
	})
	rt.define("lock", 1, func(ctx any, args []value.Value) (value.Value, error) {
		m, err := asMutex(args, "lock")
		if err != nil {
			return nil, err
		}
		m.Lock(ctx)
		return value.Unit, nil
	})
	rt.define("unlock", 1, func(_ any, args []value.Value) (value.Value, error) {
		m, err := asMutex(args, "unlock")
		if err != nil {
			return nil, err
		}
		m.Unlock()
		return value.Unit, nil
	})
	rt.define("withLock", 2, func(ctx any, args []value.Value) (value.Value, error) {
		m, err := asMutex(args, "withLock")
		if err != nil {
			return nil, err
		}
		block, err := asCallable(args, 1, "withLock")
		if err != nil {
			return nil, err
		}
		result, blockErr := m.WithLock(ctx, func() (any, error) {
			return block.Call(ctx, nil)
		})
		if blockErr != nil {
			return nil, blockErr
		}
		if v, ok := result.(value.Value); ok {
			return v, nil
		}
		return value.Unit, nil
	})
}
