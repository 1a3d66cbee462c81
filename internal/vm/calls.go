package vm

import (
	"github.com/nyxlang/nyx/internal/dispatch"
	nerr "github.com/nyxlang/nyx/internal/errors"
	"github.com/nyxlang/nyx/internal/mir"
	"github.com/nyxlang/nyx/internal/value"
)

func (vmi *Interpreter) dispatchContext() *dispatch.Context {
	return &dispatch.Context{
		Host:         vmi.Host,
		Invoker:      &dispatchInvoker{vmi: vmi},
		CallingClass: vmi.currentClass(),
	}
}

// execInvokeVirtual implements INVOKE_VIRTUAL/INVOKE_INTERFACE with the
// per-instruction inline cache (spec §4.7): a hit on the receiver's concrete
// class skips internal/dispatch's full eight-step chain entirely.
func (vmi *Interpreter) execInvokeVirtual(f *mir.Frame, ins *mir.Instruction) error {
	receiver := f.Get(ins.A)
	args := vmi.readArgs(f, ins.Args)

	if obj, ok := receiver.(*value.Object); ok && ins.Cache != nil && ins.Cache.Class == obj.Class {
		v, err := vmi.InvokeCallable(ins.Cache.Callable, append([]value.Value{receiver}, args...))
		if err != nil {
			return err
		}
		f.Set(ins.Dst, v)
		return nil
	}

	v, err := dispatch.InvokeVirtual(vmi.dispatchContext(), receiver, ins.Name, args)
	if err != nil {
		return err
	}

	if obj, ok := receiver.(*value.Object); ok {
		if slot, owner := obj.Class.LookupMethod(ins.Name); slot != nil {
			ins.Cache = &mir.InlineCache{Class: obj.Class, Callable: &slotCallable{vmi: vmi, owner: owner, slot: slot}}
		}
	}

	f.Set(ins.Dst, v)
	return nil
}

// execInvokeSpecial implements INVOKE_SPECIAL: super-calls and private
// method calls, both of which bypass virtual dispatch and go straight to a
// known owner's method table (spec §4.8 notes INVOKE_SPECIAL never
// participates in the eight-step resolution order).
func (vmi *Interpreter) execInvokeSpecial(f *mir.Frame, ins *mir.Instruction) error {
	receiver := f.Get(ins.A)
	args := vmi.readArgs(f, ins.Args)

	owner, ok := vmi.Host.LookupClass(ins.Owner)
	if !ok {
		return nerr.New(nerr.ClassNotFound, "class %q not found", ins.Owner)
	}
	slot, ok := owner.Methods[ins.Name]
	if !ok {
		return nerr.Newf(nerr.UnknownMember, nerr.Location{}, "unknown method %q on %s", ins.Name, ins.Owner)
	}
	v, err := vmi.InvokeMethodSlot(owner, slot, receiver, args)
	if err != nil {
		return err
	}
	f.Set(ins.Dst, v)
	return nil
}

// execInvokeStatic implements INVOKE_STATIC: the same-module free-function
// fast path first (spec §4.7), falling back to internal/dispatch's synthetic
// owner table and real class statics/constructors.
func (vmi *Interpreter) execInvokeStatic(f *mir.Frame, ins *mir.Instruction) error {
	args := vmi.readArgs(f, ins.Args)

	if ins.Name == "<init>" {
		if class, ok := vmi.Host.LookupClass(ins.Owner); ok {
			obj, err := vmi.NewInstance(class, args)
			if err != nil {
				return err
			}
			f.Set(ins.Dst, obj)
			return nil
		}
	} else if ins.Owner == "" || ins.Owner == vmi.Module.Name {
		if fn := vmi.resolveLocalFunction(f, ins.Name); fn != nil {
			v, err := vmi.InvokeFunction(fn, nil, args)
			if err != nil {
				return err
			}
			f.Set(ins.Dst, v)
			return nil
		}
		// No same-module function by that name: an unqualified call compiles
		// with an empty Owner regardless of whether its target turns out to
		// be module-local or a top-level builtin (println, toInt, ...), so
		// the builtin table is the next stop, mirroring hir.evalIdentifier's
		// own env-then-builtin fallback order.
		if ins.Owner == "" {
			if fn, ok := vmi.Host.LookupBuiltin(ins.Name); ok {
				v, err := vmi.InvokeCallable(fn, args)
				if err != nil {
					return err
				}
				f.Set(ins.Dst, v)
				return nil
			}
		}
	}

	v, err := dispatch.InvokeStatic(vmi.dispatchContext(), ins.Owner, ins.Name, args)
	if err != nil {
		return err
	}
	f.Set(ins.Dst, v)
	return nil
}
