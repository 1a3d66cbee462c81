package value

import "fmt"

// Handle kinds wrap an opaque Impl pointer owned by internal/concurrency.
// Keeping the Value-level type thin avoids an import cycle (concurrency
// needs to produce value.Value results) while still giving the dispatch
// subsystem (C8) typed hooks to switch on.

// FutureHandle is implemented by internal/concurrency's future type.
type FutureHandle interface {
	Await() (Value, error)
	Cancel()
	IsDone() bool
}

type Future struct {
	Impl FutureHandle
}

func (f *Future) Kind() Kind       { return KindFuture }
func (f *Future) TypeName() string { return "Future" }
func (f *Future) Truthy() bool     { return true }
func (f *Future) String() string  { return "<future>" }
func (f *Future) RefEquals(o Value) bool {
	of, ok := o.(*Future)
	return ok && f == of
}

// Deferred wraps the same FutureHandle machinery as Future under the `await`
// naming the language surfaces for async blocks specifically.
type Deferred struct {
	Impl FutureHandle
}

func (d *Deferred) Kind() Kind       { return KindDeferred }
func (d *Deferred) TypeName() string { return "Deferred" }
func (d *Deferred) Truthy() bool     { return true }
func (d *Deferred) String() string  { return "<deferred>" }
func (d *Deferred) RefEquals(o Value) bool {
	od, ok := o.(*Deferred)
	return ok && d == od
}

// JobHandle is implemented by internal/concurrency's job type (fire-and-join,
// no result value).
type JobHandle interface {
	Join() error
	Cancel()
	IsDone() bool
}

type Job struct {
	Impl JobHandle
}

func (j *Job) Kind() Kind       { return KindJob }
func (j *Job) TypeName() string { return "Job" }
func (j *Job) Truthy() bool     { return true }
func (j *Job) String() string  { return "<job>" }
func (j *Job) RefEquals(o Value) bool {
	oj, ok := o.(*Job)
	return ok && j == oj
}

// TaskHandle is implemented by internal/concurrency's scheduled-task type.
type TaskHandle interface {
	Cancel()
}

type Task struct {
	Impl TaskHandle
}

func (t *Task) Kind() Kind       { return KindTask }
func (t *Task) TypeName() string { return "Task" }
func (t *Task) Truthy() bool     { return true }
func (t *Task) String() string  { return "<task>" }
func (t *Task) RefEquals(o Value) bool {
	ot, ok := o.(*Task)
	return ok && t == ot
}

// ScopeHandle is implemented by internal/concurrency's structured scope.
type ScopeHandle interface {
	Async(block Callable) (*Deferred, error)
	Launch(block Callable) (*Job, error)
	Cancel()
}

type Scope struct {
	Impl ScopeHandle
}

func (s *Scope) Kind() Kind       { return KindScope }
func (s *Scope) TypeName() string { return "Scope" }
func (s *Scope) Truthy() bool     { return true }
func (s *Scope) String() string  { return fmt.Sprintf("<scope@%p>", s) }
func (s *Scope) RefEquals(o Value) bool {
	os, ok := o.(*Scope)
	return ok && s == os
}
