package hir

import (
	nerr "github.com/nyxlang/nyx/internal/errors"
	"github.com/nyxlang/nyx/internal/value"
)

// registerClass builds a *value.Class from a ClassDecl and registers it with
// the Host, resolving SuperName/Interfaces against classes already
// registered (declaration order matters: a superclass must be declared, or
// otherwise already known to the Host, before its subclasses).
func (e *Evaluator) registerClass(decl *ClassDecl) (*value.Class, error) {
	var super *value.Class
	if decl.SuperName != "" {
		s, ok := e.Host.LookupClass(decl.SuperName)
		if !ok {
			return nil, nerr.Newf(nerr.ClassNotFound, decl.Location, "superclass %q not found for %q", decl.SuperName, decl.Name)
		}
		super = s
	}
	class := value.NewClass(decl.Name, super)
	class.Flags = value.ClassFlags{
		Abstract:   decl.Abstract,
		Sealed:     decl.Sealed,
		Data:       decl.Data,
		Annotation: decl.Annotation,
	}
	class.Annotations = decl.Annotations

	for _, ifaceName := range decl.Interfaces {
		iface, ok := e.Host.LookupClass(ifaceName)
		if !ok {
			return nil, nerr.Newf(nerr.ClassNotFound, decl.Location, "interface %q not found for %q", ifaceName, decl.Name)
		}
		class.Interfaces = append(class.Interfaces, iface)
	}

	for i := range decl.Fields {
		f := &decl.Fields[i]
		class.AddField(f.Name, value.Visibility(f.Visibility), f.Mutable)
	}

	for i := range decl.Methods {
		m := &decl.Methods[i]
		slot := &value.MethodSlot{
			Name:       m.Name,
			Visibility: value.Visibility(m.Visibility),
			IsAbstract: m.Abstract,
		}
		slot.Body = &methodBody{owner: class, slot: slot, decl: m}
		class.Methods[m.Name] = slot
	}

	for i := range decl.Constructors {
		c := &decl.Constructors[i]
		class.Constructors = append(class.Constructors, &value.Constructor{
			Name:   "<init>",
			Params: paramNames(c.Params),
			Body:   c,
		})
	}

	e.Host.RegisterClass(class)
	e.classDecls[decl.Name] = decl
	return class, nil
}

// NewInstance implements object construction (part of C8's INVOKE_STATIC
// "constructor by arity" rule, driven here from HIR's `new` call path):
// runs every field initializer (superclass fields first, then each class's
// own fields in declaration order), selects the constructor overload
// matching argc, then runs the constructor body with `this` bound to the
// new instance.
func (e *Evaluator) NewInstance(class *value.Class, args []value.Value) (*value.Object, error) {
	obj := value.NewObject(class)
	if err := e.runFieldInitializers(class, obj); err != nil {
		return nil, err
	}
	ctor := class.ConstructorByArity(len(args))
	if ctor == nil {
		if len(args) == 0 {
			return obj, nil
		}
		return nil, nerr.New(nerr.ArityMismatch, "no constructor of %s accepts %d arguments", class.Name, len(args))
	}
	decl, ok := ctor.Body.(*MethodDecl)
	if !ok || decl == nil {
		return obj, nil
	}
	env := value.NewEnclosedEnvironment(e.Globals)
	_ = env.DefineVal("this", obj)
	if err := bindParams(env, ctor.Params, args); err != nil {
		return nil, err
	}
	savedEnv := e.env
	e.env = env
	e.thisStack = append(e.thisStack, obj)
	e.classStack = append(e.classStack, class)
	_, err := e.execBody(decl.Body)
	e.thisStack = e.thisStack[:len(e.thisStack)-1]
	e.classStack = e.classStack[:len(e.classStack)-1]
	e.env = savedEnv
	if err != nil {
		if _, ok := err.(*signal); ok {
			// a bare `return` inside a constructor body just ends it early
			return obj, nil
		}
		return nil, err
	}
	return obj, nil
}

func (e *Evaluator) runFieldInitializers(class *value.Class, obj *value.Object) error {
	if class.Super != nil {
		if err := e.runFieldInitializers(class.Super, obj); err != nil {
			return err
		}
	}
	fieldsBySlot := map[string]FieldDecl{}
	if decl, ok := e.classDecls[class.Name]; ok {
		for _, f := range decl.Fields {
			fieldsBySlot[f.Name] = f
		}
	}
	for _, slot := range class.Fields {
		fd, ok := fieldsBySlot[slot.Name]
		if !ok || fd.Init == nil {
			continue
		}
		savedEnv, savedClass := e.env, e.currentClass()
		e.env = value.NewEnclosedEnvironment(e.Globals)
		_ = e.env.DefineVal("this", obj)
		e.classStack = append(e.classStack, class)
		v, err := e.Eval(fd.Init)
		e.classStack = e.classStack[:len(e.classStack)-1]
		e.env = savedEnv
		_ = savedClass
		if err != nil {
			return err
		}
		obj.SetField(slot.Name, v)
	}
	return nil
}
