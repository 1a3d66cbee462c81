package concurrency

import "sync/atomic"

// AtomicInt wraps sync/atomic.Int32 with the §4.9/§6.1 Atomics surface
// (get/set/incrementAndGet/decrementAndGet/addAndGet/compareAndSet).
type AtomicInt struct {
	v atomic.Int32
}

// NewAtomicInt creates an AtomicInt initialized to initial.
func NewAtomicInt(initial int32) *AtomicInt {
	a := &AtomicInt{}
	a.v.Store(initial)
	return a
}

func (a *AtomicInt) Get() int32                       { return a.v.Load() }
func (a *AtomicInt) Set(x int32)                      { a.v.Store(x) }
func (a *AtomicInt) IncrementAndGet() int32           { return a.v.Add(1) }
func (a *AtomicInt) DecrementAndGet() int32           { return a.v.Add(-1) }
func (a *AtomicInt) AddAndGet(delta int32) int32      { return a.v.Add(delta) }
func (a *AtomicInt) CompareAndSet(old, nw int32) bool { return a.v.CompareAndSwap(old, nw) }

// AtomicLong is AtomicInt's int64 counterpart.
type AtomicLong struct {
	v atomic.Int64
}

func NewAtomicLong(initial int64) *AtomicLong {
	a := &AtomicLong{}
	a.v.Store(initial)
	return a
}

func (a *AtomicLong) Get() int64                       { return a.v.Load() }
func (a *AtomicLong) Set(x int64)                      { a.v.Store(x) }
func (a *AtomicLong) IncrementAndGet() int64           { return a.v.Add(1) }
func (a *AtomicLong) DecrementAndGet() int64           { return a.v.Add(-1) }
func (a *AtomicLong) AddAndGet(delta int64) int64      { return a.v.Add(delta) }
func (a *AtomicLong) CompareAndSet(old, nw int64) bool { return a.v.CompareAndSwap(old, nw) }

// AtomicRef is a compare-and-set box over an arbitrary script value,
// backed by atomic.Pointer so Get/Set/CompareAndSet never take a lock.
type AtomicRef struct {
	p atomic.Pointer[any]
}

func NewAtomicRef(initial any) *AtomicRef {
	r := &AtomicRef{}
	r.p.Store(&initial)
	return r
}

func (r *AtomicRef) Get() any {
	return *r.p.Load()
}

func (r *AtomicRef) Set(v any) {
	r.p.Store(&v)
}

// CompareAndSet succeeds only if the currently-stored value equals old
// under eq (the caller supplies value-equality since "any" has none of its
// own that matches script semantics).
func (r *AtomicRef) CompareAndSet(old, nw any, eq func(a, b any) bool) bool {
	for {
		cur := r.p.Load()
		if !eq(*cur, old) {
			return false
		}
		if r.p.CompareAndSwap(cur, &nw) {
			return true
		}
	}
}
