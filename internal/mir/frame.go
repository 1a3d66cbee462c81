package mir

import "github.com/nyxlang/nyx/internal/value"

// rawIntMarker is the RAW_INT_MARKER sentinel (spec §3.3): when Locals[i]
// holds this marker, the real value lives unboxed in RawLocals[i] instead.
// It implements value.Value purely so it can occupy a Locals slot; it is
// never handed to user-visible code.
type rawIntMarker struct{}

func (rawIntMarker) Kind() value.Kind  { return value.KindInt }
func (rawIntMarker) TypeName() string  { return "Int" }
func (rawIntMarker) String() string    { return "<raw int>" }
func (rawIntMarker) Truthy() bool      { return true }

// RawIntMarker is the single shared sentinel instance.
var RawIntMarker value.Value = rawIntMarker{}

// Frame is one MIR activation record (spec §3.3): a function pointer, its
// register file (Locals, shadowed slot-for-slot by RawLocals for raw-int
// specialization), the currently-executing block and instruction, and
// tail-call folding state.
type Frame struct {
	Fn        *Function
	Locals    []value.Value
	RawLocals []int64
	Block     int
	PC        int
	TypeArgs  map[string]string
	TailCount int
}

func newFrame(fn *Function) *Frame {
	return &Frame{
		Fn:        fn,
		Locals:    make([]value.Value, fn.FrameSize),
		RawLocals: make([]int64, fn.FrameSize),
		Block:     fn.EntryBlock,
	}
}

// reset rebinds a pooled frame to fn, growing its backing arrays if fn needs
// a larger frame than the frame previously held, and clearing prior state.
func (f *Frame) reset(fn *Function) {
	f.Fn = fn
	if cap(f.Locals) < fn.FrameSize {
		f.Locals = make([]value.Value, fn.FrameSize)
		f.RawLocals = make([]int64, fn.FrameSize)
	} else {
		f.Locals = f.Locals[:fn.FrameSize]
		f.RawLocals = f.RawLocals[:fn.FrameSize]
		for i := range f.Locals {
			f.Locals[i] = nil
			f.RawLocals[i] = 0
		}
	}
	f.Block = fn.EntryBlock
	f.PC = 0
	f.TypeArgs = nil
	f.TailCount = 0
}

// IsRaw reports whether Locals[slot] currently carries the raw-int sentinel.
func (f *Frame) IsRaw(slot int) bool {
	_, ok := f.Locals[slot].(rawIntMarker)
	return ok
}

// WriteRawInt stores v unboxed into slot, marking Locals[slot] with the
// sentinel.
func (f *Frame) WriteRawInt(slot int, v int64) {
	f.Locals[slot] = RawIntMarker
	f.RawLocals[slot] = v
}

// Get returns the value at slot, materializing a boxed value.Int if the slot
// currently holds a raw int.
func (f *Frame) Get(slot int) value.Value {
	if f.IsRaw(slot) {
		return value.Int(int32(f.RawLocals[slot]))
	}
	return f.Locals[slot]
}

// Set stores a fully-boxed value into slot, clearing any prior raw marker.
func (f *Frame) Set(slot int, v value.Value) {
	f.Locals[slot] = v
}

// ReadInt reads slot as an integer for arithmetic, whether it's raw or a
// boxed Int/Long, returning ok=false if the slot holds neither.
func (f *Frame) ReadInt(slot int) (int64, bool) {
	if f.IsRaw(slot) {
		return f.RawLocals[slot], true
	}
	switch v := f.Locals[slot].(type) {
	case value.Int:
		return int64(v), true
	case value.Long:
		return int64(v), true
	default:
		return 0, false
	}
}

// FramePool is a bounded, LIFO pool of frames keyed by frame size
// (acquire_frame/release_frame, spec §3.5). Overflow beyond MaxPerSize is
// simply discarded rather than retained, so a pathological burst of deep
// recursion doesn't pin unbounded memory.
type FramePool struct {
	pools      map[int][]*Frame
	maxPerSize int
}

// NewFramePool creates a pool that retains at most maxPerSize frames for
// each distinct frame size.
func NewFramePool(maxPerSize int) *FramePool {
	if maxPerSize <= 0 {
		maxPerSize = 64
	}
	return &FramePool{pools: make(map[int][]*Frame), maxPerSize: maxPerSize}
}

// Acquire returns a frame sized for fn, reusing a pooled one if available.
func (p *FramePool) Acquire(fn *Function) *Frame {
	stack := p.pools[fn.FrameSize]
	if n := len(stack); n > 0 {
		f := stack[n-1]
		p.pools[fn.FrameSize] = stack[:n-1]
		f.reset(fn)
		return f
	}
	return newFrame(fn)
}

// Release returns f to the pool for its current frame size.
func (p *FramePool) Release(f *Frame) {
	stack := p.pools[f.Fn.FrameSize]
	if len(stack) >= p.maxPerSize {
		return
	}
	p.pools[f.Fn.FrameSize] = append(stack, f)
}
