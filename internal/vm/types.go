package vm

import (
	nerr "github.com/nyxlang/nyx/internal/errors"
	"github.com/nyxlang/nyx/internal/mir"
	"github.com/nyxlang/nyx/internal/value"
)

// typeMatches implements TYPE_CHECK, grounded on hir.valueMatchesType:
// builtin kinds compare by TypeName, Objects walk Class.IsSubclassOf.
func typeMatches(vmi *Interpreter, v value.Value, typeName string) bool {
	switch typeName {
	case "Int", "Long", "Double", "Bool", "Char", "String", "Null", "Unit", "List", "Map", "Range", "Pair", "Array":
		return v.TypeName() == typeName
	}
	obj, ok := v.(*value.Object)
	if !ok {
		return v.TypeName() == typeName
	}
	target, ok := vmi.Host.LookupClass(typeName)
	if !ok {
		return false
	}
	return obj.Class.IsSubclassOf(target)
}

// execTypeCast implements TYPE_CAST, including the `?|` safe-cast prefix
// (SafeCast: null on mismatch instead of raising Cast).
func (vmi *Interpreter) execTypeCast(f *mir.Frame, ins *mir.Instruction) error {
	v := f.Get(ins.A)
	if typeMatches(vmi, v, ins.Name) {
		f.Set(ins.Dst, v)
		return nil
	}
	if ins.SafeCast {
		f.Set(ins.Dst, value.Null)
		return nil
	}
	return nerr.New(nerr.Cast, "cannot cast %s to %s", v.TypeName(), ins.Name)
}
