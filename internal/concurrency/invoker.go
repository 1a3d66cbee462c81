// Package concurrency implements the structured concurrency core (spec
// component C9): Scope (coroutineScope/supervisorScope), Deferred/Job/Task
// handles, Channel, Mutex, Atomics, and a Scheduler. It is grounded on the
// goroutine/context/sync.WaitGroup/sync/atomic idioms in
// sentra-language-sentra's internal/concurrency package (context.WithCancel
// and context.WithTimeout for cancellation, a goroutine+recover()+done-
// channel pattern to turn a panicking block into an error instead of
// crashing the host process, select over done/ctx.Done() for join/timeout).
//
// This package never imports internal/hir: it invokes user-supplied blocks
// through the Invoker indirection below, the same ctx-any pattern
// internal/resolve's methodCallable and value.Closure.Call already use to
// avoid the same import cycle.
package concurrency

import "github.com/nyxlang/nyx/internal/value"

// Invoker runs a user-supplied block with zero or one bound argument (the
// Scope itself, for a strict/supervisor scope's top-level block). Supplied
// by internal/runtime, backed by a forked interpreter per spec §5's "single-
// threaded per interpreter instance, forked child interpreters for
// concurrent children" model.
type Invoker interface {
	Invoke(block value.Callable, args []value.Value) (value.Value, error)
	// Fork returns a new Invoker for a child goroutine, sharing read-mostly
	// globals/class/function tables with the parent per spec §5.
	Fork() Invoker
}
