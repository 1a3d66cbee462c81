// Package runtime wires every engine component into the embedding surface
// spec §6 describes: new_interpreter, register_builtins, eval/execute, and
// the extension/annotation registration hooks. It is the only package that
// imports both internal/hir and internal/vm, since both tiers are defined
// against a Host interface specifically so neither needs to know about
// Runtime — Runtime is the concrete type that finally closes the loop,
// mirroring how the teacher's cmd/dwscript wires lexer/parser/semantic/
// interp together at its own outermost layer rather than any of those
// packages depending on each other directly.
package runtime

import (
	"io"
	"os"
	"sync"

	"github.com/nyxlang/nyx/internal/diag"
	nerr "github.com/nyxlang/nyx/internal/errors"
	"github.com/nyxlang/nyx/internal/foreign"
	"github.com/nyxlang/nyx/internal/hir"
	"github.com/nyxlang/nyx/internal/mir"
	"github.com/nyxlang/nyx/internal/resolve"
	"github.com/nyxlang/nyx/internal/security"
	"github.com/nyxlang/nyx/internal/value"
	"github.com/nyxlang/nyx/internal/vm"
)

// Runtime is the engine instance an embedder constructs with NewInterpreter.
// It satisfies both hir.Host and vm.Host so either execution tier can run
// against the same class registry, extension tables, and policy.
type Runtime struct {
	policy *security.Policy
	bridge *foreign.Bridge

	Stdout io.Writer
	Stderr io.Writer
	Stdin  io.Reader

	mu       sync.RWMutex
	classes  map[string]*value.Class
	enums    map[string]*value.Enum
	builtins map[string]value.Callable

	extensions *extensionTable
	stdlib     *stdlibTable

	foreignStatics map[string]map[string]value.Value

	annotations map[string]*AnnotationHandle

	eval *hir.Evaluator

	// Log is the engine's own diagnostic sink (spec §4.12), separate from
	// Stdout/Stderr which carry script-visible output. Defaults to
	// diag.Default(); an embedder can replace it before RegisterBuiltins.
	Log *diag.Logger
}

// NewInterpreter constructs an engine against policy (Unrestricted() if
// nil, per §4.1's "a zero-value policy is unrestricted" note reflected in
// config.Load), wired to the given I/O streams. This is spec §6's
// `new_interpreter(policy, stdout, stderr, stdin)`.
func NewInterpreter(policy *security.Policy, stdout, stderr io.Writer, stdin io.Reader) *Runtime {
	if policy == nil {
		policy = security.Unrestricted()
	}
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	if stdin == nil {
		stdin = os.Stdin
	}
	rt := &Runtime{
		policy:      policy,
		bridge:      foreign.NewBridge(policy),
		Stdout:      stdout,
		Stderr:      stderr,
		Stdin:       stdin,
		classes:     make(map[string]*value.Class),
		enums:       make(map[string]*value.Enum),
		builtins:    make(map[string]value.Callable),
		extensions:  newExtensionTable(),
		stdlib:      newStdlibTable(),
		annotations: make(map[string]*AnnotationHandle),
		Log:         diag.Default(),
	}
	rt.eval = hir.NewEvaluator(rt)
	return rt
}

// GetEnvironment returns the evaluator's global environment, the same frame
// GetGlobals returns; the environment of a call in progress is not exposed.
func (rt *Runtime) GetEnvironment() *value.Environment { return rt.eval.Globals }

// GetGlobals returns the top-level global environment, spec §6's
// `get_globals()` accessor.
func (rt *Runtime) GetGlobals() *value.Environment { return rt.eval.Globals }

// Policy returns the engine's security policy. Implements hir.Host/vm.Host.
func (rt *Runtime) Policy() *security.Policy { return rt.policy }

// Foreign returns the foreign bridge. Implements hir.Host/vm.Host.
func (rt *Runtime) Foreign() resolve.ForeignReflector { return rt.bridge }

// Extensions returns the user-extension table. Implements hir.Host/vm.Host.
func (rt *Runtime) Extensions() resolve.ExtensionTable { return rt.extensions }

// Stdlib returns the built-in-module extension table. Implements
// hir.Host/vm.Host.
func (rt *Runtime) Stdlib() resolve.StdlibExtensionTable { return rt.stdlib }

// LookupBuiltin resolves a top-level builtin function by name (the §6.1
// set, registered by RegisterBuiltins).
func (rt *Runtime) LookupBuiltin(name string) (value.Callable, bool) {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	c, ok := rt.builtins[name]
	return c, ok
}

// LookupClass resolves a declared class by name.
func (rt *Runtime) LookupClass(name string) (*value.Class, bool) {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	c, ok := rt.classes[name]
	return c, ok
}

// RegisterClass registers a compiled class declaration, called by both
// hir.Evaluator.registerClass and vm.Interpreter.LoadModule.
func (rt *Runtime) RegisterClass(c *value.Class) {
	rt.mu.Lock()
	rt.classes[c.Name] = c
	rt.mu.Unlock()
	if err := rt.applyAnnotations(c); err != nil {
		// A processor failing during class registration has nowhere to
		// propagate to (RegisterClass's callers predate try-catch scope);
		// record it the way an uncaught background error would be.
		rt.Log.Error("annotation processor failed for class %s: %v", c.Name, err)
	}
}

// LookupEnum resolves a declared enum by name.
func (rt *Runtime) LookupEnum(name string) (*value.Enum, bool) {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	e, ok := rt.enums[name]
	return e, ok
}

// RegisterEnum registers a compiled enum declaration.
func (rt *Runtime) RegisterEnum(e *value.Enum) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.enums[e.Name] = e
}

// ResolveForeignPackageWildcard implements the `import foreign.pkg.*`
// directive shape (mir.ImportWildcard / the HIR equivalent): a foreign
// package has no meaningful single Value, so this always reports a miss
// and relies on per-class `ResolveClass` lookups at use sites instead. It
// exists only so Host satisfies both hir and vm's identical interface
// shape without vm needing a second foreign entry point.
func (rt *Runtime) ResolveForeignPackageWildcard(name string) (value.Value, bool) {
	return nil, false
}

// RegisterExtension implements spec §6's `register_extension(type_name,
// name, callable)`.
func (rt *Runtime) RegisterExtension(typeName, name string, callable value.Callable) {
	rt.extensions.Register(typeName, name, callable)
}

// RegisterExtensionProperty registers a user extension property, the
// property-access counterpart to RegisterExtension.
func (rt *Runtime) RegisterExtensionProperty(typeName, name string, v value.Value) {
	rt.extensions.RegisterProperty(typeName, name, v)
}

// Bridge exposes the foreign bridge directly for embedders that need to
// Register/RegisterConstructor host Go types ahead of running a script.
func (rt *Runtime) Bridge() *foreign.Bridge { return rt.bridge }

// Evaluator exposes the HIR evaluator directly, for callers (cmd/nyxrun,
// tests) that already hold pre-built HIR modules/expressions.
func (rt *Runtime) Evaluator() *hir.Evaluator { return rt.eval }

// Eval evaluates a single pre-built HIR expression against the runtime's
// top-level environment, spec §6's `eval(expression)`.
func (rt *Runtime) Eval(expr hir.Node) (value.Value, error) {
	return rt.eval.Eval(expr)
}

// Execute runs a pre-built module, HIR or MIR, spec §6's
// `execute(module)`/`execute_module(module)` — either path is valid per
// spec §6's "Modules arrive as HIR or MIR; either path is valid."
func (rt *Runtime) Execute(module any) (value.Value, error) {
	switch m := module.(type) {
	case *hir.Module:
		return rt.eval.ExecuteModule(m)
	case *mir.Module:
		return rt.executeMIR(m)
	default:
		return nil, nerr.New(nerr.InternalInvariant, "execute_module: unsupported module type %T", module)
	}
}

// executeMIR runs a MIR module's `main` function via a freshly loaded
// vm.Interpreter, the MIR-tier counterpart to hir.Evaluator.ExecuteModule.
func (rt *Runtime) executeMIR(m *mir.Module) (value.Value, error) {
	vmi := vm.New(rt, m)
	if err := vmi.LoadModule(); err != nil {
		return nil, err
	}
	main, ok := m.Functions["main"]
	if !ok {
		return value.Unit, nil
	}
	return vmi.InvokeFunction(main, nil, nil)
}
