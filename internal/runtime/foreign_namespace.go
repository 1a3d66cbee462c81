package runtime

import (
	"reflect"
	"strings"

	nerr "github.com/nyxlang/nyx/internal/errors"
	"github.com/nyxlang/nyx/internal/value"
)

// foreignNamespace backs the `foreign` global object (spec §6.1's foreign-
// interop namespace: type/static/field/new/isInstance/class). It is wrapped
// as a *value.External and installed as a plain global, so `foreign.type(x)`
// reaches it through the exact same reflection-based method dispatch
// (internal/foreign's Bridge.ResolveMethod) that any other foreign object
// uses — no new dispatch step needed for the namespace itself.
type foreignNamespace struct {
	rt *Runtime
}

func argOrNull(args []value.Value, i int) value.Value {
	if i < len(args) {
		return args[i]
	}
	return value.Null
}

func stringArg(args []value.Value, i int, who string) (string, error) {
	s, ok := argOrNull(args, i).(value.String)
	if !ok {
		return "", nerr.New(nerr.TypeMismatch, "%s: argument %d must be a String", who, i)
	}
	return string(s), nil
}

// Type resolves a registered foreign class by (qualified or short) name,
// wrapping its reflect.Type as an opaque External for use by Static/New/
// IsInstance. Mirrors resolve_class from spec §6.
func (f *foreignNamespace) Type(args ...value.Value) (value.Value, error) {
	name, err := stringArg(args, 0, "foreign.type")
	if err != nil {
		return nil, err
	}
	t, ok := f.rt.bridge.ResolveClass(name)
	if !ok {
		return value.Null, nil
	}
	return value.NewExternal(t, "ForeignType"), nil
}

// Static reads a registered static value previously installed via
// Runtime.RegisterForeignStatic — Go has no runtime notion of a foreign
// static field the way a JVM host would, so statics are a registry the
// embedder populates ahead of time, the same shape resolve_class's Bridge
// registry already takes for classes.
func (f *foreignNamespace) Static(args ...value.Value) (value.Value, error) {
	typeName, err := stringArg(args, 0, "foreign.static")
	if err != nil {
		return nil, err
	}
	member, err := stringArg(args, 1, "foreign.static")
	if err != nil {
		return nil, err
	}
	v, ok := f.rt.lookupForeignStatic(typeName, member)
	if !ok {
		return nil, nerr.New(nerr.UnknownMember, "foreign static %s.%s not registered", typeName, member)
	}
	return v, nil
}

// Field gets (2 args) or sets (3 args) an exported field on a foreign
// delegate by reflection, the field-access counterpart to
// internal/foreign's method/bean-getter resolution, which only covers
// methods.
func (f *foreignNamespace) Field(args ...value.Value) (value.Value, error) {
	ext, ok := argOrNull(args, 0).(*value.External)
	if !ok {
		return nil, nerr.New(nerr.TypeMismatch, "foreign.field: first argument must be a foreign object")
	}
	name, err := stringArg(args, 1, "foreign.field")
	if err != nil {
		return nil, err
	}
	rv := reflect.ValueOf(ext.Delegate)
	for rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	fv := rv.FieldByName(exportedFieldName(name))
	if !fv.IsValid() {
		return nil, nerr.New(nerr.UnknownMember, "foreign.field: %s has no field %q", ext.ClassName, name)
	}
	if len(args) >= 3 {
		if !fv.CanSet() {
			return nil, nerr.New(nerr.SecurityDenied, "foreign.field: %s.%s is not settable", ext.ClassName, name)
		}
		newVal := value.ToForeign(argOrNull(args, 2))
		fv.Set(reflect.ValueOf(newVal).Convert(fv.Type()))
		return value.Unit, nil
	}
	return value.FromForeign(fv.Interface()), nil
}

func exportedFieldName(name string) string {
	if name == "" {
		return name
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

// New constructs a registered foreign class via Bridge.Instantiate.
func (f *foreignNamespace) New(args ...value.Value) (value.Value, error) {
	name, err := stringArg(args, 0, "foreign.new")
	if err != nil {
		return nil, err
	}
	ext, instErr := f.rt.bridge.Instantiate(name, args[1:])
	if instErr != nil {
		return nil, instErr
	}
	return ext, nil
}

// IsInstance reports whether a value is a foreign object of the given
// (qualified or short) class name.
func (f *foreignNamespace) IsInstance(args ...value.Value) (value.Value, error) {
	ext, ok := argOrNull(args, 0).(*value.External)
	if !ok {
		return value.Bool(false), nil
	}
	name, err := stringArg(args, 1, "foreign.isInstance")
	if err != nil {
		return nil, err
	}
	if ext.ClassName == name {
		return value.Bool(true), nil
	}
	t, ok := f.rt.bridge.ResolveClass(name)
	if !ok {
		return value.Bool(false), nil
	}
	return value.Bool(reflect.TypeOf(ext.Delegate).AssignableTo(t) || reflect.TypeOf(ext.Delegate) == t), nil
}

// Class returns a foreign object's registered class name.
func (f *foreignNamespace) Class(args ...value.Value) (value.Value, error) {
	ext, ok := argOrNull(args, 0).(*value.External)
	if !ok {
		return nil, nerr.New(nerr.TypeMismatch, "foreign.class: argument must be a foreign object")
	}
	return value.String(ext.ClassName), nil
}

// dispatcherTags backs the `Dispatchers` global's IO/Default/Unconfined
// tags via the same bean-getter reflection path as any other foreign
// object's no-argument property reads — this engine has a single goroutine-
// per-async-block scheduler rather than a real multi-pool dispatcher, so
// the tags are opaque labels a host-provided scheduler could branch on.
type dispatcherTags struct{}

func (dispatcherTags) IO() string         { return "IO" }
func (dispatcherTags) Default() string    { return "Default" }
func (dispatcherTags) Unconfined() string { return "Unconfined" }

func (rt *Runtime) lookupForeignStatic(typeName, member string) (value.Value, bool) {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	if byMember, ok := rt.foreignStatics[typeName]; ok {
		v, ok := byMember[member]
		return v, ok
	}
	return nil, false
}

// RegisterForeignStatic installs a static value an embedder wants scripts to
// reach via `foreign.static("TypeName", "member")`.
func (rt *Runtime) RegisterForeignStatic(typeName, member string, v value.Value) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if rt.foreignStatics == nil {
		rt.foreignStatics = make(map[string]map[string]value.Value)
	}
	if rt.foreignStatics[typeName] == nil {
		rt.foreignStatics[typeName] = make(map[string]value.Value)
	}
	rt.foreignStatics[typeName][member] = v
}

// registerForeignNamespace installs the `foreign` global object, which uses
// the reflection-method dispatch path rather than a dedicated AST/dispatch
// extension, since it is a plain Go struct wrapped as External. The
// `Dispatchers` namespace is installed by registerConcurrencyBuiltins.
func (rt *Runtime) registerForeignNamespace() {
	rt.eval.Globals.DefineVal("foreign", value.NewExternal(&foreignNamespace{rt: rt}, "foreign"))
}
