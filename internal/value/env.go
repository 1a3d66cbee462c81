package value

import (
	"fmt"

	nerr "github.com/nyxlang/nyx/internal/errors"
)

// binding is one slot of an Environment's frame: a value plus its
// mutability flag (spec 3.2: "a binding records mutability").
type binding struct {
	value   Value
	mutable bool
}

// Environment is a lexically-nested binding frame (spec component C2),
// grounded in the teacher's runtime.Environment but extended with
// slot-indexed storage so the variable resolver pass (C6) can bypass name
// lookup for identifiers it has pre-resolved to (depth, slot).
type Environment struct {
	outer   *Environment
	slots   []binding
	names   map[string]int // name -> slot index, for name-based lookup
	replMode bool
}

func NewEnvironment() *Environment {
	return &Environment{names: make(map[string]int)}
}

func NewEnclosedEnvironment(outer *Environment) *Environment {
	e := NewEnvironment()
	e.outer = outer
	e.replMode = outer.replMode
	return e
}

// SetREPLMode toggles redefinition tolerance for this environment and all
// environments subsequently enclosed by it (children inherit it at
// creation time, mirroring a REPL's top-level frame).
func (e *Environment) SetREPLMode(on bool) { e.replMode = on }

// Outer returns the parent frame, or nil at the root.
func (e *Environment) Outer() *Environment { return e.outer }

func (e *Environment) defineFast(name string, v Value, mutable bool) int {
	idx := len(e.slots)
	e.slots = append(e.slots, binding{value: v, mutable: mutable})
	e.names[name] = idx
	return idx
}

// DefineVal defines an immutable binding in the current frame. Fails with
// DuplicateBinding unless the environment is in REPL mode, in which case it
// behaves like Redefine.
func (e *Environment) DefineVal(name string, v Value) error {
	return e.define(name, v, false)
}

// DefineVar defines a mutable binding in the current frame.
func (e *Environment) DefineVar(name string, v Value) error {
	return e.define(name, v, true)
}

func (e *Environment) define(name string, v Value, mutable bool) error {
	if _, exists := e.names[name]; exists {
		if !e.replMode {
			return nerr.New(nerr.DuplicateBinding, "binding %q already defined in this scope", name)
		}
		return e.Redefine(name, v, mutable)
	}
	e.defineFast(name, v, mutable)
	return nil
}

// DefinedValFast inserts at the next free slot unconditionally, without the
// duplicate-name check DefineVal makes, returning the assigned slot index,
// stable for the frame's lifetime.
func (e *Environment) DefinedValFast(name string, v Value, mutable bool) int {
	return e.defineFast(name, v, mutable)
}

// Redefine replaces an existing binding in place, preserving its slot
// number; always succeeds. If the name doesn't exist yet, it is created.
func (e *Environment) Redefine(name string, v Value, mutable bool) error {
	if idx, exists := e.names[name]; exists {
		e.slots[idx] = binding{value: v, mutable: mutable}
		return nil
	}
	e.defineFast(name, v, mutable)
	return nil
}

// TryGet looks up name, walking outer frames. Returns ok=false if undefined
// anywhere in the chain.
func (e *Environment) TryGet(name string) (Value, bool) {
	for env := e; env != nil; env = env.outer {
		if idx, ok := env.names[name]; ok {
			return env.slots[idx].value, true
		}
	}
	return nil, false
}

// TryAssign updates an existing binding, walking outer frames. Returns
// false if the name is undefined; returns an ImmutableAssign error if the
// binding exists but is immutable.
func (e *Environment) TryAssign(name string, v Value) (bool, error) {
	for env := e; env != nil; env = env.outer {
		if idx, ok := env.names[name]; ok {
			if !env.slots[idx].mutable {
				return true, nerr.New(nerr.ImmutableAssign, "cannot assign to immutable binding %q", name)
			}
			env.slots[idx].value = v
			return true, nil
		}
	}
	return false, nil
}

// GetAtSlot reads a pre-resolved (depth, slot) reference, walking `depth`
// outer links. Panics on an out-of-bounds depth/slot, per spec 4.2 — the
// variable resolver pass guarantees these are always in range for
// well-formed HIR, so a panic here indicates an internal invariant
// violation, not a user-facing error.
func (e *Environment) GetAtSlot(depth, slot int) Value {
	env := e
	for i := 0; i < depth; i++ {
		env = env.outer
	}
	return env.slots[slot].value
}

// AssignAtSlot writes a pre-resolved (depth, slot) reference.
func (e *Environment) AssignAtSlot(depth, slot int, v Value) {
	env := e
	for i := 0; i < depth; i++ {
		env = env.outer
	}
	env.slots[slot].value = v
}

// IsVal reports whether name is bound immutably in the visible chain.
// Fails with UnknownBinding-shaped error if absent anywhere.
func (e *Environment) IsVal(name string) (bool, error) {
	for env := e; env != nil; env = env.outer {
		if idx, ok := env.names[name]; ok {
			return !env.slots[idx].mutable, nil
		}
	}
	return false, fmt.Errorf("unknown binding: %s", name)
}

// ExportAll copies every binding of the current frame (not outer frames)
// into target, used by module-level `export` semantics.
func (e *Environment) ExportAll(target *Environment) {
	for name, idx := range e.names {
		b := e.slots[idx]
		_ = target.define(name, b.value, b.mutable)
	}
}

// Size returns the number of bindings in the current frame only.
func (e *Environment) Size() int { return len(e.slots) }
