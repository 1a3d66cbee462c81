package vm

import (
	nerr "github.com/nyxlang/nyx/internal/errors"
	"github.com/nyxlang/nyx/internal/mir"
	"github.com/nyxlang/nyx/internal/value"
)

// run drives one frame's blocks to completion: a straight-line pass over
// each block's instructions, then its terminator, looping on GOTO/BRANCH/
// SWITCH targets and unwinding to a try range's handler on error, until a
// RETURN (or a TAIL_CALL that folds into this same frame and keeps going).
func (vmi *Interpreter) run(f *mir.Frame) (value.Value, error) {
	for {
		block := f.Fn.Blocks[f.Block]
		for f.PC = 0; f.PC < len(block.Instructions); f.PC++ {
			ins := &block.Instructions[f.PC]
			if err := vmi.exec(f, ins); err != nil {
				if handled, rerr := vmi.enterHandler(f, err); handled {
					block = f.Fn.Blocks[f.Block]
					f.PC = -1 // the for-loop's increment brings it to 0
					continue
				} else if rerr != nil {
					return nil, rerr
				}
				return nil, err
			}
		}

		result, nextBlock, tail, err := vmi.terminate(f, &block.Term)
		if err != nil {
			if handled, rerr := vmi.enterHandler(f, err); handled {
				block = f.Fn.Blocks[f.Block]
				continue
			} else if rerr != nil {
				return nil, rerr
			}
			return nil, err
		}
		if tail != nil {
			if err := vmi.foldTailCall(f, tail); err != nil {
				return nil, err
			}
			continue
		}
		if nextBlock < 0 {
			return result, nil
		}
		f.Block = nextBlock
	}
}

// enterHandler looks up err's source instruction block against f.Fn's
// try/catch range table and, on a match, binds the thrown value into the
// handler's exception local and jumps there. A RuntimeError not matching
// any range (or a control-flow signal that isn't a thrown exception at
// all) propagates unchanged.
func (vmi *Interpreter) enterHandler(f *mir.Frame, err error) (handled bool, fatal error) {
	rerr, ok := err.(*nerr.RuntimeError)
	if !ok {
		return false, nil
	}
	for _, tr := range f.Fn.TryRanges {
		if f.Block >= tr.TryStart && f.Block < tr.TryEnd {
			f.Set(tr.ExceptionLocal, errorPayload(rerr))
			f.Block = tr.Handler
			return true, nil
		}
	}
	return false, nil
}

func errorPayload(rerr *nerr.RuntimeError) value.Value {
	if rerr.Payload != nil {
		if v, ok := rerr.Payload.(value.Value); ok {
			return v
		}
	}
	return value.String(rerr.Message)
}

// foldTailCall implements the TAIL_CALL terminator (spec §4.7): rebinds the
// current frame's locals to the callee's parameters and jumps to its entry
// block, reusing the frame instead of recursing. Each fold counts against
// the policy's recursion limit (exceeding it raises RecursionLimit) and is
// recorded by CallStack.FoldTail() for the eventual stack trace's
// "... N tail-call frames omitted ..." notice.
type tailTarget struct {
	fn   *mir.Function
	this value.Value
	args []value.Value
}

func (vmi *Interpreter) foldTailCall(f *mir.Frame, t *tailTarget) error {
	if err := vmi.Host.Policy().CheckRecursionDepth(f.TailCount + 1); err != nil {
		return err
	}
	f.TailCount++
	vmi.CallStack.FoldTail()
	rebindFrameArgs(f, t.fn, t.this, t.args)
	return nil
}

// exec runs one non-terminator instruction, writing its result (if any)
// into ins.Dst.
func (vmi *Interpreter) exec(f *mir.Frame, ins *mir.Instruction) error {
	switch ins.Op {
	case mir.OpConstInt:
		f.WriteRawInt(ins.Dst, int64(ins.IntVal))
	case mir.OpConstLong:
		f.Set(ins.Dst, value.Long(ins.LongVal))
	case mir.OpConstDouble:
		f.Set(ins.Dst, value.Double(ins.DoubleVal))
	case mir.OpConstFloat:
		f.Set(ins.Dst, value.Double(float64(ins.FloatVal)))
	case mir.OpConstString:
		f.Set(ins.Dst, value.String(ins.StrVal))
	case mir.OpConstBool:
		f.Set(ins.Dst, value.Bool(ins.BoolVal))
	case mir.OpConstChar:
		f.Set(ins.Dst, value.Char(ins.CharVal))
	case mir.OpConstNull:
		f.Set(ins.Dst, value.Null)
	case mir.OpConstClass:
		class, ok := vmi.Host.LookupClass(ins.Name)
		if !ok {
			return nerr.New(nerr.ClassNotFound, "class %q not found", ins.Name)
		}
		f.Set(ins.Dst, class)
	case mir.OpMove:
		if f.IsRaw(ins.A) {
			f.WriteRawInt(ins.Dst, f.RawLocals[ins.A])
		} else {
			f.Set(ins.Dst, f.Locals[ins.A])
		}
	case mir.OpBinary:
		return vmi.execBinary(f, ins)
	case mir.OpUnary:
		return vmi.execUnary(f, ins)
	case mir.OpNewObject:
		class, ok := vmi.Host.LookupClass(ins.Name)
		if !ok {
			return nerr.New(nerr.ClassNotFound, "class %q not found", ins.Name)
		}
		args := vmi.readArgs(f, ins.Args)
		obj, err := vmi.NewInstance(class, args)
		if err != nil {
			return err
		}
		f.Set(ins.Dst, obj)
	case mir.OpGetField:
		obj, ok := f.Get(ins.A).(*value.Object)
		if !ok {
			return nerr.New(nerr.NullDereference, "cannot read field %q of a non-object", ins.Name)
		}
		v, ok := obj.GetField(ins.Name)
		if !ok {
			return nerr.New(nerr.UnknownMember, "unknown field %q on %s", ins.Name, obj.Class.Name)
		}
		f.Set(ins.Dst, v)
	case mir.OpSetField:
		obj, ok := f.Get(ins.A).(*value.Object)
		if !ok {
			return nerr.New(nerr.NullDereference, "cannot set field %q of a non-object", ins.Name)
		}
		obj.SetField(ins.Name, f.Get(ins.B))
	case mir.OpGetStatic:
		class, ok := vmi.Host.LookupClass(ins.Owner)
		if !ok {
			return nerr.New(nerr.ClassNotFound, "class %q not found", ins.Owner)
		}
		v, ok := class.StaticFields[ins.Name]
		if !ok {
			return nerr.New(nerr.UnknownMember, "unknown static field %q on %s", ins.Name, ins.Owner)
		}
		f.Set(ins.Dst, v)
	case mir.OpSetStatic:
		class, ok := vmi.Host.LookupClass(ins.Owner)
		if !ok {
			return nerr.New(nerr.ClassNotFound, "class %q not found", ins.Owner)
		}
		if class.StaticFields == nil {
			class.StaticFields = make(map[string]value.Value)
		}
		class.StaticFields[ins.Name] = f.Get(ins.A)
	case mir.OpInvokeVirtual, mir.OpInvokeInterface:
		return vmi.execInvokeVirtual(f, ins)
	case mir.OpInvokeSpecial:
		return vmi.execInvokeSpecial(f, ins)
	case mir.OpInvokeStatic:
		return vmi.execInvokeStatic(f, ins)
	case mir.OpIndexGet:
		return vmi.execIndexGet(f, ins)
	case mir.OpIndexSet:
		return vmi.execIndexSet(f, ins)
	case mir.OpNewArray:
		length, _ := f.ReadInt(ins.A)
		f.Set(ins.Dst, value.NewArray(ins.ElemType, int(length)))
	case mir.OpNewCollection:
		return vmi.execNewCollection(f, ins)
	case mir.OpTypeCheck:
		f.Set(ins.Dst, value.Bool(typeMatches(vmi, f.Get(ins.A), ins.Name)))
	case mir.OpTypeCast:
		return vmi.execTypeCast(f, ins)
	case mir.OpClosure:
		return nerr.New(nerr.InternalInvariant, "CLOSURE opcode is reserved and not yet assigned a lowering")
	}
	return nil
}

func (vmi *Interpreter) readArgs(f *mir.Frame, slots []int) []value.Value {
	args := make([]value.Value, len(slots))
	for i, s := range slots {
		args[i] = f.Get(s)
	}
	return args
}
