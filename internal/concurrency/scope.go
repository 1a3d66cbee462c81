package concurrency

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	nerr "github.com/nyxlang/nyx/internal/errors"
	"github.com/nyxlang/nyx/internal/security"
	"github.com/nyxlang/nyx/internal/value"
)

// Mode selects strict (coroutineScope) or supervisor (supervisorScope)
// failure propagation (spec §4.9/§5): a strict scope cancels every sibling
// and re-raises on the first child failure; a supervisor scope isolates
// each child's failure to that child alone.
type Mode int

const (
	Strict Mode = iota
	Supervisor
)

// futureImpl is the concrete FutureHandle/JobHandle backing both Deferred
// (Async) and Job (Launch) results, grounded on the goroutine+recover()+
// done-channel pattern in sentra's executeJob: running the block in its own
// goroutine and recovering a panic into a RuntimeError keeps one
// misbehaving child from taking down the whole interpreter process.
type futureImpl struct {
	id       string
	done     chan struct{}
	once     sync.Once
	result   value.Value
	err      error
	cancel   context.CancelFunc
	canceled bool
	mu       sync.Mutex
}

func newFuture() *futureImpl {
	return &futureImpl{id: uuid.NewString(), done: make(chan struct{})}
}

func (f *futureImpl) finish(result value.Value, err error) {
	f.once.Do(func() {
		f.result = result
		f.err = err
		close(f.done)
	})
}

func (f *futureImpl) Await() (value.Value, error) {
	<-f.done
	return f.result, f.err
}

func (f *futureImpl) Join() error {
	<-f.done
	return f.err
}

func (f *futureImpl) Cancel() {
	f.mu.Lock()
	f.canceled = true
	cancel := f.cancel
	f.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (f *futureImpl) IsDone() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// taskImpl backs value.Task: a fire-and-forget handle that only supports
// cancellation, used for scheduler-driven timers rather than scope
// children.
type taskImpl struct {
	cancel context.CancelFunc
}

func (t *taskImpl) Cancel() {
	if t.cancel != nil {
		t.cancel()
	}
}

// Scope implements value.ScopeHandle: a structured-concurrency boundary
// that tracks every child Async/Launch spawned from it and joins them all
// before the scope's own block is considered complete (spec §4.9's
// "a scope's block does not return until every child completes" rule).
type Scope struct {
	id      string
	mode    Mode
	invoker Invoker
	policy  *security.Policy
	ctx     context.Context
	cancel  context.CancelFunc

	mu       sync.Mutex
	children []*futureImpl
	taskCount int
	firstErr error
}

// Run executes block as a scope's own body, with receiver set to the Scope
// itself, then joins every child spawned from it before returning. Strict
// scopes propagate the first child failure (after cancelling the rest);
// supervisor scopes only propagate the block's own error.
func Run(mode Mode, invoker Invoker, policy *security.Policy, block value.Callable) (value.Value, error) {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scope{id: uuid.NewString(), mode: mode, invoker: invoker, policy: policy, ctx: ctx, cancel: cancel}
	defer cancel()

	result, blockErr := invoker.Invoke(block, []value.Value{&value.Scope{Impl: s}})
	joinErr := s.joinAll()

	if blockErr != nil {
		return nil, blockErr
	}
	if s.mode == Strict && joinErr != nil {
		return nil, joinErr
	}
	return result, nil
}

func (s *Scope) checkCapacity() error {
	if s.policy == nil {
		return nil
	}
	s.mu.Lock()
	s.taskCount++
	n := s.taskCount
	s.mu.Unlock()
	return s.policy.CheckAsyncTaskCount(n - 1)
}

func (s *Scope) spawn(block value.Callable) (*futureImpl, error) {
	if err := s.checkCapacity(); err != nil {
		return nil, err
	}
	childCtx, cancel := context.WithCancel(s.ctx)
	f := newFuture()
	f.cancel = cancel

	s.mu.Lock()
	s.children = append(s.children, f)
	s.mu.Unlock()

	childInvoker := s.invoker.Fork()
	go func() {
		defer func() {
			if r := recover(); r != nil {
				f.finish(value.Null, nerr.New(nerr.InternalInvariant, "panic in async block: %v", r))
			}
		}()
		select {
		case <-childCtx.Done():
			f.finish(value.Null, nerr.New(nerr.Interrupted, "cancelled"))
			return
		default:
		}
		result, err := childInvoker.Invoke(block, nil)
		if err != nil {
			s.recordFailure(err)
		}
		f.finish(result, err)
	}()
	return f, nil
}

func (s *Scope) recordFailure(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode != Strict {
		return
	}
	if s.firstErr == nil {
		s.firstErr = err
		s.cancel()
	}
}

func (s *Scope) joinAll() error {
	s.mu.Lock()
	children := append([]*futureImpl(nil), s.children...)
	s.mu.Unlock()
	for _, c := range children {
		<-c.done
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.firstErr
}

// Async implements value.ScopeHandle.Async: spawns block as a child,
// returning a Deferred the caller can Await for its result.
func (s *Scope) Async(block value.Callable) (*value.Deferred, error) {
	f, err := s.spawn(block)
	if err != nil {
		return nil, err
	}
	return &value.Deferred{Impl: f}, nil
}

// Launch implements value.ScopeHandle.Launch: spawns block as a child,
// returning a Job the caller can Join but whose result value is discarded.
func (s *Scope) Launch(block value.Callable) (*value.Job, error) {
	f, err := s.spawn(block)
	if err != nil {
		return nil, err
	}
	return &value.Job{Impl: f}, nil
}

// Cancel implements value.ScopeHandle.Cancel: cancels every outstanding
// child and prevents new ones from observing a live context.
func (s *Scope) Cancel() {
	s.cancel()
}

func (s *Scope) String() string {
	return fmt.Sprintf("<scope %s>", s.id)
}
