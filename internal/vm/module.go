package vm

import (
	nerr "github.com/nyxlang/nyx/internal/errors"
	"github.com/nyxlang/nyx/internal/mir"
	"github.com/nyxlang/nyx/internal/value"
)

// LoadModule registers every class the interpreter's Module declares with
// the Host, wiring each class's MethodSlot/Constructor bodies to the
// mir.Function the compiler emitted for it. Functions are matched to their
// owning class by Function.Owner; "<init>" is a constructor, "<clinit>" is
// the field-initializer function runFieldInitializers invokes, anything
// else is an instance or static method keyed by its own Name.
func (vmi *Interpreter) LoadModule() error {
	for _, cd := range vmi.Module.Classes {
		if err := vmi.registerClassDef(cd); err != nil {
			return err
		}
	}
	return nil
}

func (vmi *Interpreter) registerClassDef(cd *mir.ClassDef) error {
	var super *value.Class
	if cd.SuperName != "" {
		s, ok := vmi.Host.LookupClass(cd.SuperName)
		if !ok {
			return nerr.New(nerr.ClassNotFound, "superclass %q not found for %q", cd.SuperName, cd.Name)
		}
		super = s
	}
	class := value.NewClass(cd.Name, super)
	class.Flags = value.ClassFlags{}
	class.ForeignSuper = cd.ForeignSuper
	for _, iname := range cd.Interfaces {
		iface, ok := vmi.Host.LookupClass(iname)
		if !ok {
			return nerr.New(nerr.ClassNotFound, "interface %q not found for %q", iname, cd.Name)
		}
		class.Interfaces = append(class.Interfaces, iface)
	}
	for _, f := range cd.Fields {
		class.AddField(f.Name, f.Visibility, f.Mutable)
	}

	for _, fn := range vmi.Module.Functions {
		if fn.Owner != cd.Name {
			continue
		}
		switch fn.Name {
		case "<init>":
			class.Constructors = append(class.Constructors, &value.Constructor{
				Name:   "<init>",
				Params: paramPlaceholders(fn.Params),
				Body:   fn,
			})
		case "<clinit>":
			vmi.fieldInit[cd.Name] = fn
		default:
			class.Methods[fn.Name] = &value.MethodSlot{
				Name: fn.Name,
				Body: &mirMethodBody{fn: fn},
			}
		}
	}

	vmi.Host.RegisterClass(class)
	return nil
}

// paramPlaceholders synthesizes positional parameter names for a MIR
// function's arity since value.Constructor.Params only records names (used
// for arity/documentation, never for binding — binding happens by frame
// slot position in InvokeFunction).
func paramPlaceholders(n int) []string {
	names := make([]string, n)
	for i := range names {
		names[i] = "_"
	}
	return names
}
