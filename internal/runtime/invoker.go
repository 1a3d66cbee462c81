package runtime

import (
	"github.com/nyxlang/nyx/internal/concurrency"
	"github.com/nyxlang/nyx/internal/hir"
	"github.com/nyxlang/nyx/internal/value"
	"github.com/nyxlang/nyx/internal/vm"
)

// invokerFor adapts whichever execution tier called a builtin (ctx is
// either a *hir.Evaluator or a *vm.Interpreter, the two concrete types that
// thread themselves through value.Callable.Call) into a concurrency.Invoker,
// so the same builtin implementations back coroutineScope/launch/etc
// regardless of which tier is running.
func invokerFor(ctx any) concurrency.Invoker {
	switch c := ctx.(type) {
	case *hir.Evaluator:
		return &hirInvoker{e: c}
	case *vm.Interpreter:
		return &vmInvoker{vmi: c}
	default:
		return nil
	}
}

type hirInvoker struct{ e *hir.Evaluator }

func (h *hirInvoker) Invoke(block value.Callable, args []value.Value) (value.Value, error) {
	return block.Call(h.e, args)
}
func (h *hirInvoker) Fork() concurrency.Invoker { return &hirInvoker{e: h.e.Fork()} }

type vmInvoker struct{ vmi *vm.Interpreter }

func (v *vmInvoker) Invoke(block value.Callable, args []value.Value) (value.Value, error) {
	return block.Call(v.vmi, args)
}
func (v *vmInvoker) Fork() concurrency.Invoker { return &vmInvoker{vmi: v.vmi.Fork()} }
