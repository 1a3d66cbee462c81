package vm

import (
	nerr "github.com/nyxlang/nyx/internal/errors"
	"github.com/nyxlang/nyx/internal/mir"
	"github.com/nyxlang/nyx/internal/value"
)

// execIndexGet implements INDEX_GET over List/Array/Map/String,
// grounded on hir.Evaluator.evalIndex's same per-kind handling.
func (vmi *Interpreter) execIndexGet(f *mir.Frame, ins *mir.Instruction) error {
	obj := f.Get(ins.A)
	idx := f.Get(ins.B)
	switch o := obj.(type) {
	case *value.List:
		i, ok := idx.(value.Int)
		if !ok {
			return nerr.New(nerr.TypeMismatch, "list index must be Int")
		}
		v, err := o.Get(int(i))
		if err != nil {
			return nerr.New(nerr.IndexOutOfBounds, "%s", err.Error())
		}
		f.Set(ins.Dst, v)
	case *value.Array:
		i, ok := idx.(value.Int)
		if !ok {
			return nerr.New(nerr.TypeMismatch, "array index must be Int")
		}
		v, err := o.Get(int(i))
		if err != nil {
			return nerr.New(nerr.IndexOutOfBounds, "%s", err.Error())
		}
		f.Set(ins.Dst, v)
	case *value.Map:
		if v, ok := o.Get(idx); ok {
			f.Set(ins.Dst, v)
		} else {
			f.Set(ins.Dst, value.Null)
		}
	case value.String:
		i, ok := idx.(value.Int)
		if !ok {
			return nerr.New(nerr.TypeMismatch, "string index must be Int")
		}
		runes := []rune(string(o))
		if int(i) < 0 || int(i) >= len(runes) {
			return nerr.New(nerr.IndexOutOfBounds, "index %d out of bounds for string of length %d", i, len(runes))
		}
		f.Set(ins.Dst, value.Char(runes[i]))
	default:
		return nerr.New(nerr.TypeMismatch, "%s is not indexable", obj.TypeName())
	}
	return nil
}

// execIndexSet implements INDEX_SET, grounded on hir.assignIndex.
func (vmi *Interpreter) execIndexSet(f *mir.Frame, ins *mir.Instruction) error {
	obj := f.Get(ins.A)
	idx := f.Get(ins.B)
	val := f.Get(ins.Dst)
	switch o := obj.(type) {
	case *value.List:
		i, ok := idx.(value.Int)
		if !ok {
			return nerr.New(nerr.TypeMismatch, "list index must be Int")
		}
		if err := o.Set(int(i), val); err != nil {
			return nerr.New(nerr.IndexOutOfBounds, "%s", err.Error())
		}
	case *value.Array:
		i, ok := idx.(value.Int)
		if !ok {
			return nerr.New(nerr.TypeMismatch, "array index must be Int")
		}
		if err := o.Set(int(i), val); err != nil {
			return nerr.New(nerr.IndexOutOfBounds, "%s", err.Error())
		}
	case *value.Map:
		o.Put(idx, val)
	default:
		return nerr.New(nerr.TypeMismatch, "%s is not indexable for assignment", obj.TypeName())
	}
	return nil
}

// execNewCollection implements NEW_COLLECTION. ins.Name selects the
// collection ("List" or "Map"); ins.Args carries the element slots for a
// List literal, or alternating key/value slots for a Map literal.
func (vmi *Interpreter) execNewCollection(f *mir.Frame, ins *mir.Instruction) error {
	switch ins.Name {
	case "Map":
		m := value.NewMap()
		for i := 0; i+1 < len(ins.Args); i += 2 {
			m.Put(f.Get(ins.Args[i]), f.Get(ins.Args[i+1]))
		}
		f.Set(ins.Dst, m)
	default:
		elems := make([]value.Value, len(ins.Args))
		for i, s := range ins.Args {
			elems[i] = f.Get(s)
		}
		f.Set(ins.Dst, value.NewList(elems...))
	}
	return nil
}
