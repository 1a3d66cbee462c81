// Package resolve implements the member resolver (spec component C4): the
// single entry point used by property access, method references, and
// call-site receiver resolution. Per spec §9's design note, the lookup
// chain is expressed as an explicit ordered list of strategies, each
// returning Found/NotFound/Error, so the fallback chain is testable in
// isolation rather than buried in one large function.
package resolve

import (
	"fmt"

	nerr "github.com/nyxlang/nyx/internal/errors"
	"github.com/nyxlang/nyx/internal/value"
)

// Outcome is the result of one resolution strategy.
type Outcome int

const (
	NotFound Outcome = iota
	Found
	Err
)

// Result bundles a strategy's outcome. Member is the value the strategy
// found; auto-invocation outside callee position is applied afterwards by
// Resolve, not by the strategy.
type Result struct {
	Outcome Outcome
	Member  value.Value
	Error   error
}

func found(v value.Value) Result  { return Result{Outcome: Found, Member: v} }
func notFound() Result             { return Result{Outcome: NotFound} }
func errResult(e error) Result     { return Result{Outcome: Err, Error: e} }

// Strategy is one step of the ordered fallback chain.
type Strategy func(ctx *Context) Result

// ExtensionTable looks up user-declared extension functions/properties,
// keyed by the target's type name and member name (strategy 6).
type ExtensionTable interface {
	LookupExtensionFunction(typeName, name string) (value.Callable, bool)
	LookupExtensionProperty(typeName, name string) (value.Value, bool)
}

// StdlibExtensionTable is the built-in-module stdlib extension fallback
// (strategy 7), keyed by a host-class-or-internal-type tag and name.
type StdlibExtensionTable interface {
	LookupStdlibExtension(typeTag, name string) (value.Callable, bool)
}

// ForeignReflector performs foreign reflection (strategy 8): direct method
// lookup, then JavaBean-style getter fallback.
type ForeignReflector interface {
	ResolveMethod(ext *value.External, name string) (value.Callable, bool, error)
	ResolveBeanGetter(ext *value.External, name string) (value.Callable, bool, error)
}

// Context carries everything a strategy needs. CallingClass supports the
// visibility check on field/method access to Object (nil means "no
// declaring class in scope", e.g. top-level code). CalleePosition is the
// transient flag set by the caller evaluating the function position of a
// call expression, distinguishing `obj.size` (property access, auto-invoke)
// from `obj.size()` (explicit call, return bound callable unevaluated).
type Context struct {
	Target         value.Value
	Name           string
	CallingClass   *value.Class
	CalleePosition bool

	Extensions ExtensionTable
	Stdlib     StdlibExtensionTable
	Foreign    ForeignReflector

	// Invoke is used to auto-invoke a resolved zero-arg callable when not
	// in callee position. It is supplied by the evaluator/interpreter so
	// this package never needs to know how to run a Closure or MIR
	// function body.
	Invoke func(callable value.Callable) (value.Value, error)
}

// Resolve runs the ordered strategy chain for ctx and returns either a
// resolved value or an UnknownMember error.
func Resolve(ctx *Context) (value.Value, error) {
	chain := strategiesFor(ctx.Target)
	for _, strat := range chain {
		r := strat(ctx)
		switch r.Outcome {
		case Found:
			return maybeAutoInvoke(ctx, r.Member)
		case Err:
			return nil, r.Error
		}
	}
	return nil, nerr.New(nerr.UnknownMember, "unknown member %q on %s", ctx.Name, ctx.Target.TypeName())
}

func maybeAutoInvoke(ctx *Context, member value.Value) (value.Value, error) {
	callable, ok := member.(value.Callable)
	if !ok || ctx.CalleePosition || callable.Arity() != 0 {
		return member, nil
	}
	if ctx.Invoke == nil {
		return member, nil
	}
	return ctx.Invoke(callable)
}

// strategiesFor picks the ordered chain based on the target's runtime kind,
// implementing spec §4.4 items 1-8 (item 9, UnknownMember, is the Resolve
// fallthrough above).
func strategiesFor(target value.Value) []Strategy {
	switch target.(type) {
	case *value.Object:
		return []Strategy{
			objectField, objectGetter, objectMethod, objectInterfaceDefault, objectDataMember,
			extensionFunction, extensionProperty, stdlibExtension, foreignReflection,
		}
	case *value.Class:
		return []Strategy{classStatic, classAnnotations, extensionFunction, extensionProperty, stdlibExtension}
	case *value.Enum:
		return []Strategy{enumEntry, enumValues, enumMethod, extensionFunction, extensionProperty, stdlibExtension}
	case *value.EnumEntry:
		return []Strategy{entryIntrinsic, entryField, entryMethod, extensionFunction, extensionProperty, stdlibExtension}
	case *value.External:
		return []Strategy{extensionFunction, extensionProperty, stdlibExtension, foreignReflection, foreignBeanGetter}
	default:
		return []Strategy{builtinMember, extensionFunction, extensionProperty, stdlibExtension}
	}
}

// --- Object strategies (1) ---

func objectField(ctx *Context) Result {
	obj := ctx.Target.(*value.Object)
	fieldDecl, owner := findFieldDecl(obj.Class, ctx.Name)
	if fieldDecl == nil {
		return notFound()
	}
	if err := checkVisibility(fieldDecl.Visibility, owner, ctx.CallingClass); err != nil {
		return errResult(err)
	}
	v, _ := obj.GetField(ctx.Name)
	if v == nil {
		v = value.Null
	}
	return found(v)
}

func findFieldDecl(class *value.Class, name string) (*value.FieldSlot, *value.Class) {
	for cur := class; cur != nil; cur = cur.Super {
		if idx, ok := cur.FieldIndex(name); ok {
			return &cur.Fields[idx], cur
		}
	}
	return nil, nil
}

func checkVisibility(vis value.Visibility, owner, calling *value.Class) error {
	switch vis {
	case value.Public:
		return nil
	case value.Protected:
		if calling != nil && calling.IsSubclassOf(owner) {
			return nil
		}
	case value.Private:
		if calling == owner {
			return nil
		}
	}
	return nerr.New(nerr.MemberNotAccess, "member is not accessible from this context")
}

func objectGetter(ctx *Context) Result {
	obj := ctx.Target.(*value.Object)
	if m, owner := obj.Class.LookupMethod("get" + capitalize(ctx.Name)); m != nil {
		if err := checkVisibility(m.Visibility, owner, ctx.CallingClass); err != nil {
			return errResult(err)
		}
		return found(value.NewBoundMethod(obj, &methodCallable{name: m.Name, body: m.Body}))
	}
	return notFound()
}

func objectMethod(ctx *Context) Result {
	obj := ctx.Target.(*value.Object)
	if m, owner := obj.Class.LookupMethod(ctx.Name); m != nil {
		if err := checkVisibility(m.Visibility, owner, ctx.CallingClass); err != nil {
			return errResult(err)
		}
		return found(value.NewBoundMethod(obj, &methodCallable{name: m.Name, body: m.Body}))
	}
	return notFound()
}

func objectInterfaceDefault(ctx *Context) Result {
	obj := ctx.Target.(*value.Object)
	for _, iface := range obj.Class.Interfaces {
		if m, _ := iface.LookupMethod(ctx.Name); m != nil {
			return found(value.NewBoundMethod(obj, &methodCallable{name: m.Name, body: m.Body}))
		}
	}
	return notFound()
}

func objectDataMember(ctx *Context) Result {
	obj := ctx.Target.(*value.Object)
	if !obj.Class.Flags.Data {
		return notFound()
	}
	switch ctx.Name {
	case "copy":
		return found(&value.NativeFunction{Name: "copy", Fn: func(_ any, args []value.Value) (value.Value, error) {
			return obj.Copy(), nil
		}})
	}
	if n, ok := componentIndex(ctx.Name); ok {
		if v, ok2 := obj.ComponentN(n); ok2 {
			return found(v)
		}
	}
	return notFound()
}

func componentIndex(name string) (int, bool) {
	if len(name) > 9 && name[:9] == "component" {
		n := 0
		for _, c := range name[9:] {
			if c < '0' || c > '9' {
				return 0, false
			}
			n = n*10 + int(c-'0')
		}
		return n, n > 0
	}
	return 0, false
}

// --- Class strategies (2) ---

func classStatic(ctx *Context) Result {
	class := ctx.Target.(*value.Class)
	if v, ok := class.StaticFields[ctx.Name]; ok {
		return found(v)
	}
	return notFound()
}

func classAnnotations(ctx *Context) Result {
	class := ctx.Target.(*value.Class)
	if ctx.Name != "annotations" {
		return notFound()
	}
	elems := make([]value.Value, len(class.Annotations))
	for i, a := range class.Annotations {
		elems[i] = value.String(a)
	}
	return found(value.NewList(elems...))
}

// --- Enum strategies (3) ---

func enumEntry(ctx *Context) Result {
	e := ctx.Target.(*value.Enum)
	if entry, ok := e.ValueOf(ctx.Name); ok {
		return found(entry)
	}
	return notFound()
}

func enumValues(ctx *Context) Result {
	e := ctx.Target.(*value.Enum)
	if ctx.Name != "values" {
		return notFound()
	}
	elems := make([]value.Value, len(e.Entries))
	for i, entry := range e.Entries {
		elems[i] = entry
	}
	return found(value.NewList(elems...))
}

func enumMethod(ctx *Context) Result {
	e := ctx.Target.(*value.Enum)
	if ctx.Name == "valueOf" {
		return found(&value.NativeFunction{Name: "valueOf", ArityN: 1, Fn: func(_ any, args []value.Value) (value.Value, error) {
			name := string(args[0].(value.String))
			entry, ok := e.ValueOf(name)
			if !ok {
				return nil, nerr.New(nerr.UnknownMember, "no enum entry named %q in %s", name, e.Name)
			}
			return entry, nil
		}})
	}
	if m, ok := e.Methods[ctx.Name]; ok {
		return found(&methodCallable{name: m.Name, body: m.Body})
	}
	return notFound()
}

// --- EnumEntry strategies (4) ---

func entryIntrinsic(ctx *Context) Result {
	entry := ctx.Target.(*value.EnumEntry)
	switch ctx.Name {
	case "name":
		return found(value.String(entry.Name))
	case "ordinal":
		return found(value.Int(entry.Ordinal))
	}
	return notFound()
}

func entryField(ctx *Context) Result {
	entry := ctx.Target.(*value.EnumEntry)
	if v, ok := entry.Fields[ctx.Name]; ok {
		return found(v)
	}
	return notFound()
}

func entryMethod(ctx *Context) Result {
	entry := ctx.Target.(*value.EnumEntry)
	if m, ok := entry.LookupMethod(ctx.Name); ok {
		return found(value.NewBoundMethod(entry, &methodCallable{name: m.Name, body: m.Body}))
	}
	return notFound()
}

// --- Built-in members on primitive-backed values (5) ---

func builtinMember(ctx *Context) Result {
	switch t := ctx.Target.(type) {
	case value.String:
		switch ctx.Name {
		case "length":
			return found(value.Int(len([]rune(string(t)))))
		}
	case *value.List:
		switch ctx.Name {
		case "size":
			return found(value.Int(t.Size()))
		}
	case *value.Map:
		switch ctx.Name {
		case "keys":
			return found(t.Keys())
		case "values":
			return found(t.Values())
		case "size":
			return found(value.Int(t.Size()))
		}
	case *value.Range:
		switch ctx.Name {
		case "first":
			return found(t.Start)
		case "last":
			return found(t.End)
		}
	case *value.Pair:
		switch ctx.Name {
		case "first":
			return found(t.First)
		case "second":
			return found(t.Second)
		case "component1":
			return found(t.First)
		case "component2":
			return found(t.Second)
		}
	}
	return notFound()
}

// --- Extensions (6), stdlib extension table (7) ---

func extensionFunction(ctx *Context) Result {
	if ctx.Extensions == nil {
		return notFound()
	}
	if fn, ok := ctx.Extensions.LookupExtensionFunction(ctx.Target.TypeName(), ctx.Name); ok {
		return found(value.NewBoundMethod(ctx.Target, fn))
	}
	return notFound()
}

func extensionProperty(ctx *Context) Result {
	if ctx.Extensions == nil {
		return notFound()
	}
	if v, ok := ctx.Extensions.LookupExtensionProperty(ctx.Target.TypeName(), ctx.Name); ok {
		return found(v)
	}
	return notFound()
}

func stdlibExtension(ctx *Context) Result {
	if ctx.Stdlib == nil {
		return notFound()
	}
	if fn, ok := ctx.Stdlib.LookupStdlibExtension(stdlibTag(ctx.Target), ctx.Name); ok {
		return found(value.NewBoundMethod(ctx.Target, fn))
	}
	return notFound()
}

func stdlibTag(v value.Value) string {
	if ext, ok := v.(*value.External); ok {
		return ext.ClassName
	}
	if _, ok := v.(*value.Object); ok {
		return v.TypeName()
	}
	return v.Kind().String()
}

// --- Foreign reflection (8) ---

func foreignReflection(ctx *Context) Result {
	ext, ok := ctx.Target.(*value.External)
	if !ok || ctx.Foreign == nil {
		return notFound()
	}
	callable, found1, err := ctx.Foreign.ResolveMethod(ext, ctx.Name)
	if err != nil {
		return errResult(err)
	}
	if found1 {
		return found(value.NewBoundMethod(ext, callable))
	}
	return notFound()
}

func foreignBeanGetter(ctx *Context) Result {
	ext, ok := ctx.Target.(*value.External)
	if !ok || ctx.Foreign == nil {
		return notFound()
	}
	callable, found1, err := ctx.Foreign.ResolveBeanGetter(ext, ctx.Name)
	if err != nil {
		return errResult(err)
	}
	if found1 {
		return found(value.NewBoundMethod(ext, callable))
	}
	return notFound()
}

// methodCallable adapts a value.MethodSlot's opaque Body into a
// value.Callable. The actual invocation is delegated to whichever
// evaluator context is passed to Call, matching Closure's pattern: the
// resolver never executes code itself, it only produces addressable
// callables.
type methodCallable struct {
	name string
	body any
}

func (m *methodCallable) Kind() value.Kind       { return value.KindCallable }
func (m *methodCallable) TypeName() string       { return "Function" }
func (m *methodCallable) Truthy() bool           { return true }
func (m *methodCallable) String() string         { return fmt.Sprintf("<method %s>", m.name) }
func (m *methodCallable) Arity() int             { return -1 } // unknown without the body's param list; evaluator validates
func (m *methodCallable) Call(ctx any, args []value.Value) (value.Value, error) {
	invoker, ok := ctx.(interface {
		InvokeMethodBody(body any, args []value.Value) (value.Value, error)
	})
	if !ok {
		return nil, fmt.Errorf("method callable invoked outside an evaluator context")
	}
	return invoker.InvokeMethodBody(m.body, args)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	b := []byte(s)
	if b[0] >= 'a' && b[0] <= 'z' {
		b[0] -= 'a' - 'A'
	}
	return string(b)
}
