package vm

import (
	nerr "github.com/nyxlang/nyx/internal/errors"
	"github.com/nyxlang/nyx/internal/mir"
	"github.com/nyxlang/nyx/internal/value"
)

// NewInstance implements object construction for MIR-compiled classes
// (spec §4.7/§4.8's "constructor by arity" rule, the MIR-side counterpart
// to hir.Evaluator.NewInstance): allocates the object, runs field
// initializers via the synthetic `<clinit>` function if the class
// declares one, then the matching-arity constructor body with `this` bound
// to the new instance.
func (vmi *Interpreter) NewInstance(class *value.Class, args []value.Value) (*value.Object, error) {
	obj := value.NewObject(class)
	if err := vmi.runFieldInitializers(class, obj); err != nil {
		return nil, err
	}
	ctor := class.ConstructorByArity(len(args))
	if ctor == nil {
		if len(args) == 0 {
			return obj, nil
		}
		return nil, nerr.New(nerr.ArityMismatch, "no constructor of %s accepts %d arguments", class.Name, len(args))
	}
	fn, ok := ctor.Body.(*mir.Function)
	if !ok {
		return obj, nil
	}
	if _, err := vmi.InvokeFunction(fn, obj, args); err != nil {
		return nil, err
	}
	return obj, nil
}

// runFieldInitializers runs the class's field-initializer function (if the
// compiler emitted one; MIR classes with no non-constant field
// initializers have none) with `this` bound to obj, superclass first.
func (vmi *Interpreter) runFieldInitializers(class *value.Class, obj *value.Object) error {
	if class.Super != nil {
		if err := vmi.runFieldInitializers(class.Super, obj); err != nil {
			return err
		}
	}
	fn, ok := vmi.fieldInit[class.Name]
	if !ok {
		return nil
	}
	_, err := vmi.InvokeFunction(fn, obj, nil)
	return err
}
