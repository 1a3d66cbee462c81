package value

import (
	"fmt"
	"strings"
)

// Visibility controls field/method accessibility checks performed by the
// member resolver (C4) when the calling class differs from the declaring
// class.
type Visibility uint8

const (
	Public Visibility = iota
	Protected
	Private
)

// Constructor describes one overload of a class's constructor set, matched
// by arity at `<init>` dispatch time (C8).
type Constructor struct {
	Name   string
	Params []string
	Body   any // opaque HIR/MIR body handle, interpreted by the owning layer
}

// FieldSlot is one entry of a class's declared field layout. Instances store
// field values in a per-instance map keyed by field name (Object.FieldValues),
// not in a slot-indexed vector.
type FieldSlot struct {
	Name       string
	Visibility Visibility
	Mutable    bool
}

// MethodSlot records a declared method together with its visibility and
// whether it is abstract.
type MethodSlot struct {
	Name       string
	Visibility Visibility
	Body       any
	IsAbstract bool
}

// ClassFlags captures the declaration modifiers referenced throughout C4/C5.
type ClassFlags struct {
	Abstract   bool
	Sealed     bool
	Data       bool // synthesizes copy/componentN/equals/hashCode
	Annotation bool
}

// Class is the runtime metadata for a declared class: field layout, method
// table, static state, and the reflection info cached for `annotations`
// access (C4 strategy 2).
type Class struct {
	Name            string
	Super           *Class
	Interfaces      []*Class
	Fields          []FieldSlot
	fieldIndex      map[string]int
	Methods         map[string]*MethodSlot
	Constructors    []*Constructor
	StaticFields    map[string]Value
	Flags           ClassFlags
	Annotations     []string
	ForeignSuper    string // qualified foreign superclass name, if any
	ForeignIfaces   []string
	InstanceField   Value // for `object` singletons: the INSTANCE value
}

func NewClass(name string, super *Class) *Class {
	return &Class{
		Name:         name,
		Super:        super,
		fieldIndex:   make(map[string]int),
		Methods:      make(map[string]*MethodSlot),
		StaticFields: make(map[string]Value),
	}
}

func (c *Class) Kind() Kind       { return KindClass }
func (c *Class) TypeName() string { return "Class" }
func (c *Class) Truthy() bool     { return true }
func (c *Class) String() string  { return fmt.Sprintf("<class %s>", c.Name) }
func (c *Class) RefEquals(o Value) bool {
	oc, ok := o.(*Class)
	return ok && c == oc
}

// AddField appends a field to the layout, assigning it the next slot index.
func (c *Class) AddField(name string, vis Visibility, mutable bool) int {
	idx := len(c.Fields)
	c.Fields = append(c.Fields, FieldSlot{Name: name, Visibility: vis, Mutable: mutable})
	c.fieldIndex[name] = idx
	return idx
}

// FieldIndex returns the slot index of a field declared on this class (not
// walking superclasses — callers combine with Super for inherited fields).
func (c *Class) FieldIndex(name string) (int, bool) {
	i, ok := c.fieldIndex[name]
	return i, ok
}

// IsSubclassOf reports whether c is class or a subclass of other (used by
// try/catch declared-type matching and TYPE_CHECK).
func (c *Class) IsSubclassOf(other *Class) bool {
	for cur := c; cur != nil; cur = cur.Super {
		if cur == other || cur.Name == other.Name {
			return true
		}
		for _, iface := range cur.Interfaces {
			if iface == other || iface.Name == other.Name {
				return true
			}
		}
	}
	return false
}

// LookupMethod walks the class hierarchy (self, then superclasses, then
// interface default methods) and returns the first matching method slot.
func (c *Class) LookupMethod(name string) (*MethodSlot, *Class) {
	for cur := c; cur != nil; cur = cur.Super {
		if m, ok := cur.Methods[name]; ok {
			return m, cur
		}
	}
	for _, iface := range c.Interfaces {
		if m, owner := iface.LookupMethod(name); m != nil {
			return m, owner
		}
	}
	return nil, nil
}

// ConstructorByArity finds the `<init>` overload matching argc, per C8's
// "finds constructor by arity" rule.
func (c *Class) ConstructorByArity(argc int) *Constructor {
	for _, ctor := range c.Constructors {
		if len(ctor.Params) == argc {
			return ctor
		}
	}
	return nil
}

// Object is a runtime class instance: a reference to its Class plus a map of
// field values keyed by field name (spec 3.1), and an optional foreign
// delegate bridged by internal/foreign.
type Object struct {
	Class       *Class
	FieldValues map[string]Value // keyed by field name; same-named fields along the superclass chain share one entry
	Foreign     any               // foreign delegate, or nil
}

func NewObject(class *Class) *Object {
	o := &Object{Class: class, FieldValues: make(map[string]Value)}
	for cur := class; cur != nil; cur = cur.Super {
		for _, f := range cur.Fields {
			if _, exists := o.FieldValues[f.Name]; !exists {
				o.FieldValues[f.Name] = Null
			}
		}
	}
	return o
}

func (o *Object) Kind() Kind       { return KindObject }
func (o *Object) TypeName() string { return o.Class.Name }
func (o *Object) Truthy() bool     { return true }
func (o *Object) String() string {
	if o.Class.Flags.Data {
		return o.DataFieldsOrdered()
	}
	return fmt.Sprintf("%s@%p", o.Class.Name, o)
}

func (o *Object) RefEquals(other Value) bool {
	oo, ok := other.(*Object)
	return ok && o == oo
}

// Equals implements invariant: objects default to identity; data classes
// (ClassFlags.Data) compare field-wise, per SPEC_FULL §10.
func (o *Object) Equals(other Value) bool {
	oo, ok := other.(*Object)
	if !ok {
		return false
	}
	if !o.Class.Flags.Data {
		return o == oo
	}
	if o.Class != oo.Class {
		return false
	}
	for cur := o.Class; cur != nil; cur = cur.Super {
		for _, f := range cur.Fields {
			if !Equals(o.FieldValues[f.Name], oo.FieldValues[f.Name]) {
				return false
			}
		}
	}
	return true
}

func (o *Object) GetField(name string) (Value, bool) {
	v, ok := o.FieldValues[name]
	return v, ok
}

func (o *Object) SetField(name string, v Value) { o.FieldValues[name] = v }

// Copy implements the data-class synthetic `copy` member: a shallow clone
// with optional named overrides (applied by the caller before/after Copy as
// it sees fit — Copy itself just clones field values).
func (o *Object) Copy() *Object {
	clone := &Object{Class: o.Class, Foreign: o.Foreign, FieldValues: make(map[string]Value, len(o.FieldValues))}
	for k, v := range o.FieldValues {
		clone.FieldValues[k] = v
	}
	return clone
}

// ComponentN implements the data-class synthetic `componentN` members,
// 1-indexed over the primary constructor's declared field order.
func (o *Object) ComponentN(n int) (Value, bool) {
	if !o.Class.Flags.Data {
		return nil, false
	}
	fields := o.Class.Fields
	if n < 1 || n > len(fields) {
		return nil, false
	}
	v, ok := o.FieldValues[fields[n-1].Name]
	return v, ok
}

// DataFieldsOrdered renders a data-class instance's fields in primary
// constructor order, used by String() and debug tooling.
func (o *Object) DataFieldsOrdered() string {
	var parts []string
	for _, f := range o.Class.Fields {
		parts = append(parts, fmt.Sprintf("%s=%s", f.Name, displayString(o.FieldValues[f.Name])))
	}
	return o.Class.Name + "(" + strings.Join(parts, ", ") + ")"
}
