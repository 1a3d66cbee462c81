package vm

import (
	nerr "github.com/nyxlang/nyx/internal/errors"
	"github.com/nyxlang/nyx/internal/mir"
	"github.com/nyxlang/nyx/internal/value"
)

// terminate evaluates one block's terminator. It returns exactly one of:
// a final result (nextBlock < 0, the frame is done), a next block to jump
// to, a tail-call target for the caller to fold, or an error (a THROW or a
// raised RuntimeError from evaluating a fused compare).
func (vmi *Interpreter) terminate(f *mir.Frame, term *mir.Terminator) (value.Value, int, *tailTarget, error) {
	switch term.Kind {
	case mir.TermGoto:
		return nil, term.Target, nil, nil

	case mir.TermBranch:
		taken, err := vmi.branchCond(f, term)
		if err != nil {
			return nil, 0, nil, err
		}
		if taken {
			return nil, term.Target, nil, nil
		}
		return nil, term.Else, nil, nil

	case mir.TermReturn:
		return f.Get(term.Value), -1, nil, nil

	case mir.TermTailCall:
		fn := vmi.resolveLocalFunction(f, term.Callee)
		if fn == nil {
			return nil, 0, nil, nerr.New(nerr.InternalInvariant, "tail call to unresolved function %q", term.Callee)
		}
		args := vmi.readArgs(f, term.Args)
		var this value.Value
		if fn.HasThis && f.Fn.HasThis {
			this = f.Get(0)
		}
		return nil, 0, &tailTarget{fn: fn, this: this, args: args}, nil

	case mir.TermSwitch:
		key := switchKey(f.Get(term.Cond))
		for _, c := range term.SwitchKeys {
			if c.Key == key {
				return nil, c.Target, nil, nil
			}
		}
		return nil, term.SwitchDefault, nil, nil

	case mir.TermThrow:
		payload := f.Get(term.ThrowValue)
		msg := payload.String()
		if obj, ok := payload.(*value.Object); ok {
			if m, ok2 := obj.GetField("message"); ok2 {
				if s, ok3 := m.(value.String); ok3 {
					msg = string(s)
				}
			}
		}
		rerr := nerr.New(nerr.UserThrown, "%s", msg).WithPayload(payload).WithStack(vmi.CallStack.Snapshot())
		return nil, 0, nil, rerr

	case mir.TermUnreachable:
		return nil, 0, nil, nerr.New(nerr.InternalInvariant, "reached an UNREACHABLE terminator")
	}
	return nil, 0, nil, nerr.New(nerr.InternalInvariant, "unknown terminator kind")
}

// branchCond evaluates a BRANCH terminator's condition: a fused compare
// (spec §4.7, skips materializing a boxed Bool for the comparison) when
// CompareValid is set, otherwise the truthiness of local Cond.
func (vmi *Interpreter) branchCond(f *mir.Frame, term *mir.Terminator) (bool, error) {
	if !term.CompareValid {
		return value.Truthy(f.Get(term.Cond)), nil
	}
	if f.IsRaw(term.A) && f.IsRaw(term.B) {
		return rawIntCompare(term.CompareOp, f.RawLocals[term.A], f.RawLocals[term.B]), nil
	}
	result, err := value.Binary(term.CompareOp.Symbol(), f.Get(term.A), f.Get(term.B), vmi)
	if err != nil {
		return false, err
	}
	return value.Truthy(result), nil
}

// switchKey normalizes a scrutinee value into the comparable form
// mir.SwitchCase.Key carries: int64 for integer/enum-ordinal switches,
// string for string switches.
func switchKey(v value.Value) any {
	switch n := v.(type) {
	case value.Int:
		return int64(n)
	case value.Long:
		return int64(n)
	case value.Char:
		return int64(n)
	case value.String:
		return string(n)
	case *value.EnumEntry:
		return int64(n.Ordinal)
	default:
		return v.String()
	}
}

// resolveLocalFunction finds the tail call's target within the current
// module, trying the self-recursive fast path first (the common case for
// TAIL_CALL, which only ever folds into the current frame).
func (vmi *Interpreter) resolveLocalFunction(f *mir.Frame, callee string) *mir.Function {
	if callee == frameName(f.Fn) || callee == f.Fn.Name {
		return f.Fn
	}
	if cached := f.Fn.StaticCache(); cached != nil && (frameName(cached) == callee || cached.Name == callee) {
		return cached
	}
	if fn, ok := vmi.Module.Functions[callee]; ok {
		f.Fn.SetStaticCache(fn)
		return fn
	}
	for _, fn := range vmi.Module.Functions {
		if frameName(fn) == callee {
			f.Fn.SetStaticCache(fn)
			return fn
		}
	}
	return nil
}
