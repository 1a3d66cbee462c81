package concurrency

import (
	"context"
	"sync"
	"time"

	nerr "github.com/nyxlang/nyx/internal/errors"
	"github.com/nyxlang/nyx/internal/security"
	"github.com/nyxlang/nyx/internal/value"
)

// Scheduler drives timer-based and fire-and-forget work outside any
// structured scope (spec §4.9's scheduleLater/scheduleRepeat and the
// `sync`/`scope` top-level helpers), mirroring sentra's worker-pool style
// separation between a synchronous caller and background goroutines, scaled
// down to the main/async split this spec asks for instead of a pool.
type Scheduler struct {
	invoker Invoker
	policy  *security.Policy

	mu      sync.Mutex
	wg      sync.WaitGroup
	closing bool
}

// NewScheduler creates a Scheduler whose async work is invoked through
// invoker (normally a fork of the top-level interpreter's Invoker).
func NewScheduler(invoker Invoker, policy *security.Policy) *Scheduler {
	return &Scheduler{invoker: invoker, policy: policy}
}

// ScheduleLater runs block once after delay elapses, on its own goroutine.
// Returns a Task handle that can cancel the pending run before it fires.
func (s *Scheduler) ScheduleLater(delay time.Duration, block value.Callable) (*value.Task, error) {
	ctx, cancel := context.WithCancel(context.Background())
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
		_, _ = s.invoker.Fork().Invoke(block, nil)
	}()
	return &value.Task{Impl: &taskImpl{cancel: cancel}}, nil
}

// ScheduleRepeat runs block every interval until the returned Task is
// cancelled.
func (s *Scheduler) ScheduleRepeat(interval time.Duration, block value.Callable) (*value.Task, error) {
	ctx, cancel := context.WithCancel(context.Background())
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				_, _ = s.invoker.Fork().Invoke(block, nil)
			}
		}
	}()
	return &value.Task{Impl: &taskImpl{cancel: cancel}}, nil
}

// Sync runs block synchronously on a fresh forked interpreter and blocks
// until it completes, implementing the `sync { ... }` top-level helper that
// guarantees a block runs to completion even if the surrounding scope is
// cancelled mid-flight.
func (s *Scheduler) Sync(block value.Callable) (value.Value, error) {
	return s.invoker.Fork().Invoke(block, nil)
}

// Scope runs block as a strict coroutineScope's body, for the `scope { ... }`
// top-level helper.
func (s *Scheduler) Scope(block value.Callable) (value.Value, error) {
	return Run(Strict, s.invoker, s.policy, block)
}

// SupervisorScope runs block as a supervisorScope's body.
func (s *Scheduler) SupervisorScope(block value.Callable) (value.Value, error) {
	return Run(Supervisor, s.invoker, s.policy, block)
}

// WithTimeout runs block, returning a Timeout error if it doesn't finish
// within d, grounded on sentra's executeJob context.WithTimeout +
// goroutine+done-channel pattern.
func WithTimeout(invoker Invoker, d time.Duration, block value.Callable) (value.Value, error) {
	type result struct {
		v   value.Value
		err error
	}
	done := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{value.Null, nerr.New(nerr.InternalInvariant, "panic in withTimeout block: %v", r)}
			}
		}()
		v, err := invoker.Invoke(block, nil)
		done <- result{v, err}
	}()
	select {
	case r := <-done:
		return r.v, r.err
	case <-time.After(d):
		return nil, nerr.New(nerr.Timeout, "withTimeout exceeded %s", d)
	}
}

// Shutdown waits for every outstanding scheduled task to either fire once
// (ScheduleLater) or be cancelled by its Task handle (ScheduleRepeat never
// returns on its own).
func (s *Scheduler) Shutdown() {
	s.mu.Lock()
	s.closing = true
	s.mu.Unlock()
	s.wg.Wait()
}
