package hir

import (
	"fmt"

	nerr "github.com/nyxlang/nyx/internal/errors"
	"github.com/nyxlang/nyx/internal/resolve"
	"github.com/nyxlang/nyx/internal/security"
	"github.com/nyxlang/nyx/internal/value"
)

// Host is the embedding surface the evaluator needs from its owning
// runtime: builtin lookup, class registry, extension tables, security
// policy, and the foreign bridge. Kept as an interface so internal/hir
// doesn't import internal/runtime (which in turn wires internal/hir) —
// the dependency points inward, runtime depends on hir, not vice versa.
type Host interface {
	LookupBuiltin(name string) (value.Callable, bool)
	LookupClass(name string) (*value.Class, bool)
	RegisterClass(*value.Class)
	LookupEnum(name string) (*value.Enum, bool)
	Extensions() resolve.ExtensionTable
	Stdlib() resolve.StdlibExtensionTable
	Foreign() resolve.ForeignReflector
	Policy() *security.Policy
	ResolveForeignPackageWildcard(name string) (value.Value, bool)
}

// signal is the internal control-flow mechanism for break/continue/return,
// implemented as typed sentinel errors per spec §9 ("use explicit signals
// ... rather than exception-based control flow where feasible; reserve
// exception-based control only for labelled non-local escapes").
type signal struct {
	kind  signalKind
	label string
	value value.Value
}

type signalKind uint8

const (
	sigReturn signalKind = iota
	sigBreak
	sigContinue
)

func (s *signal) Error() string { return fmt.Sprintf("internal control signal: %d", s.kind) }

// throwSignal wraps a user-level throw (exception-based control, reserved
// for non-local escapes per the design note) so try/catch and the
// evaluator's error plumbing can distinguish it from an engine error.
type throwSignal struct {
	payload value.Value
	err     *nerr.RuntimeError
}

func (t *throwSignal) Error() string { return t.err.Error() }

// Evaluator walks HIR nodes. One Evaluator instance corresponds to one
// interpreter instance (spec §5: single-threaded per interpreter); async
// children get their own Evaluator sharing the read-mostly Host.
type Evaluator struct {
	Host       Host
	Globals    *value.Environment
	env        *value.Environment
	callStack  *nerr.CallStack
	loopCount  int64
	thisStack  []value.Value
	classStack []*value.Class // enclosing class during method body evaluation, for visibility checks
	classDecls map[string]*ClassDecl // retained for field-initializer re-evaluation on instantiation
}

func NewEvaluator(host Host) *Evaluator {
	globals := value.NewEnvironment()
	depth := 0
	if host.Policy() != nil {
		depth = host.Policy().MaxRecursionDepth
	}
	return &Evaluator{
		Host:       host,
		Globals:    globals,
		env:        globals,
		callStack:  nerr.NewCallStack(depth),
		classDecls: make(map[string]*ClassDecl),
	}
}

// Fork creates a child Evaluator for an async task (C9): shares Host and
// Globals (read-mostly after registration, per spec §5), but owns its own
// call stack, env cursor, and loop counter.
func (e *Evaluator) Fork() *Evaluator {
	depth := 0
	if e.Host.Policy() != nil {
		depth = e.Host.Policy().MaxRecursionDepth
	}
	return &Evaluator{
		Host:       e.Host,
		Globals:    e.Globals,
		env:        e.Globals,
		callStack:  nerr.NewCallStack(depth),
		classDecls: e.classDecls,
	}
}

// ExecuteModule runs a module's top-level statements after registering its
// classes and functions, then returns the value of `main` if declared, else
// Unit. This is the engine's entry point (spec §6).
func (e *Evaluator) ExecuteModule(m *Module) (value.Value, error) {
	for _, c := range m.Classes {
		if _, err := e.registerClass(c); err != nil {
			return nil, err
		}
	}
	for _, fn := range m.Functions {
		closure := &value.Closure{Name: fn.Name, Params: paramNames(fn.Params), Body: fn.Body, Captured: e.Globals}
		if err := e.Globals.DefineVal(fn.Name, closure); err != nil {
			return nil, err
		}
	}
	for _, stmt := range m.TopLevel {
		if _, err := e.Exec(stmt); err != nil {
			return nil, unwrapTopLevel(err)
		}
	}
	if mainFn, ok := e.Globals.TryGet("main"); ok {
		if callable, ok2 := mainFn.(value.Callable); ok2 {
			return callable.Call(e, nil)
		}
	}
	return value.Unit, nil
}

func unwrapTopLevel(err error) error {
	if ts, ok := err.(*throwSignal); ok {
		return ts.err
	}
	return err
}

func paramNames(params []Param) []string {
	names := make([]string, len(params))
	for i, p := range params {
		names[i] = p.Name
	}
	return names
}

// Eval evaluates an expression node and returns its Value. Hot-path node
// kinds are dispatched via the Kind() switch below, bypassing a generic
// visitor, per spec §4.5.
func (e *Evaluator) Eval(n Node) (value.Value, error) {
	switch n.Kind() {
	case NIdentifier:
		return e.evalIdentifier(n.(*Identifier))
	case NLiteral:
		return e.evalLiteral(n.(*Literal))
	case NBinary:
		return e.evalBinary(n.(*Binary))
	case NUnary:
		return e.evalUnary(n.(*Unary))
	case NCall:
		return e.evalCall(n.(*Call))
	case NMemberAccess:
		return e.evalMemberAccess(n.(*MemberAccess))
	case NAssignment:
		return e.evalAssignment(n.(*Assignment))
	case NConditional:
		return e.evalConditional(n.(*Conditional))
	case NBlock:
		return e.evalBlockExpr(n.(*Block))
	case NLambda:
		return e.evalLambda(n.(*Lambda))
	case NCollectionLiteral:
		return e.evalCollectionLiteral(n.(*CollectionLiteral))
	case NRangeExpr:
		return e.evalRange(n.(*RangeExpr))
	case NThis:
		return e.evalThis()
	case NTypeCheck:
		return e.evalTypeCheck(n.(*TypeCheck))
	case NTypeCast:
		return e.evalTypeCast(n.(*TypeCast))
	case NMethodRef:
		return e.evalMethodRef(n.(*MethodRef))
	case NNullAssert:
		return e.evalNullAssert(n.(*NullAssert))
	case NIndex:
		return e.evalIndex(n.(*Index))
	case NAwait:
		return e.evalAwait(n.(*Await))
	case NErrorPropagate:
		return e.evalErrorPropagate(n.(*ErrorPropagate))
	default:
		// Less frequent nodes (declarations/statements used in expression
		// position, e.g. a bare statement evaluated for its side effect)
		// go through Exec's visitor path.
		return e.Exec(n)
	}
}

// InvokeClosure implements value.Closure's Call indirection.
func (e *Evaluator) InvokeClosure(c *value.Closure, args []value.Value) (value.Value, error) {
	if err := e.callStack.Push(closureName(c), nerr.Location{}); err != nil {
		return nil, err
	}
	defer e.callStack.Pop()
	if e.Host.Policy() != nil {
		if err := e.Host.Policy().CheckRecursionDepth(e.callStack.Depth()); err != nil {
			return nil, err
		}
	}

	captured, _ := c.Captured.(*value.Environment)
	if captured == nil {
		captured = e.Globals
	}
	callEnv := value.NewEnclosedEnvironment(captured)
	if c.This != nil {
		_ = callEnv.DefineVal("this", c.This)
	}
	if err := bindParams(callEnv, c.Params, args); err != nil {
		return nil, err
	}

	body, ok := c.Body.(Node)
	if !ok {
		return nil, nerr.New(nerr.InternalInvariant, "closure %q has no executable body", closureName(c))
	}

	savedEnv := e.env
	if c.This != nil {
		e.thisStack = append(e.thisStack, c.This)
	}
	e.env = callEnv
	result, err := e.execBody(body)
	e.env = savedEnv
	if c.This != nil {
		e.thisStack = e.thisStack[:len(e.thisStack)-1]
	}
	if err != nil {
		if sig, ok := err.(*signal); ok && sig.kind == sigReturn {
			return sig.value, nil
		}
		return nil, err
	}
	return result, nil
}

func closureName(c *value.Closure) string {
	if c.Name != "" {
		return c.Name
	}
	return "<lambda>"
}

func bindParams(env *value.Environment, params []string, args []value.Value) error {
	if len(args) > len(params) {
		return nerr.New(nerr.ArityMismatch, "expected %d arguments, got %d", len(params), len(args))
	}
	for i, p := range params {
		var v value.Value = value.Null
		if i < len(args) {
			v = args[i]
		}
		if err := env.DefineVar(p, v); err != nil {
			return err
		}
	}
	return nil
}

// execBody runs a closure/method body, which is either a Block (statement
// sequence, last-expression value) or a bare expression (single-expression
// function syntax `fun f(x) = x + 1`).
func (e *Evaluator) execBody(body Node) (value.Value, error) {
	if block, ok := body.(*Block); ok {
		return e.evalBlockExpr(block)
	}
	return e.Eval(body)
}

// CallMethod implements value.OverloadCaller for the operator module: it
// looks up `methodName` in receiver's class via Class.LookupMethod (not the
// full member resolver) and invokes it
// with args, reporting handled=false if no such method exists (so the
// operator module can continue its own primitive fallback instead of
// erroring).
func (e *Evaluator) CallMethod(receiver value.Value, methodName string, args []value.Value) (value.Value, bool, error) {
	obj, ok := receiver.(*value.Object)
	if !ok {
		return nil, false, nil
	}
	m, owner := obj.Class.LookupMethod(methodName)
	if m == nil {
		return nil, false, nil
	}
	result, err := e.invokeMethodOn(obj, owner, m, args)
	return result, true, err
}

// InvokeMethodBody implements resolve's methodCallable indirection: args[0]
// is the bound receiver, the rest are the call arguments.
func (e *Evaluator) InvokeMethodBody(body any, args []value.Value) (value.Value, error) {
	m, ok := body.(*methodBody)
	if !ok {
		return nil, nerr.New(nerr.InternalInvariant, "malformed method body handle")
	}
	if len(args) == 0 {
		return nil, nerr.New(nerr.InternalInvariant, "method invoked without a bound receiver")
	}
	return e.invokeMethodOn(args[0], m.owner, m.slot, args[1:])
}

// methodBody is the concrete Body payload stored in value.MethodSlot,
// carrying enough to re-enter the HIR method declaration registerClass saw.
type methodBody struct {
	owner *value.Class
	slot  *value.MethodSlot
	decl  *MethodDecl
}

func (e *Evaluator) invokeMethodOn(receiver value.Value, owner *value.Class, slot *value.MethodSlot, args []value.Value) (value.Value, error) {
	mb, ok := slot.Body.(*methodBody)
	if !ok || mb.decl == nil {
		return nil, nerr.New(nerr.InternalInvariant, "method %q has no executable body", slot.Name)
	}
	if err := e.callStack.Push(owner.Name+"."+slot.Name, nerr.Location{}); err != nil {
		return nil, err
	}
	defer e.callStack.Pop()

	methodEnv := value.NewEnclosedEnvironment(e.Globals)
	_ = methodEnv.DefineVal("this", receiver)
	if err := bindParams(methodEnv, paramNames(mb.decl.Params), args); err != nil {
		return nil, err
	}

	savedEnv, savedClass := e.env, e.currentClass()
	e.env = methodEnv
	e.classStack = append(e.classStack, owner)
	e.thisStack = append(e.thisStack, receiver)
	result, err := e.execBody(mb.decl.Body)
	e.thisStack = e.thisStack[:len(e.thisStack)-1]
	e.classStack = e.classStack[:len(e.classStack)-1]
	e.env = savedEnv
	_ = savedClass

	if err != nil {
		if sig, ok := err.(*signal); ok && sig.kind == sigReturn {
			return sig.value, nil
		}
		return nil, err
	}
	return result, nil
}

func (e *Evaluator) currentClass() *value.Class {
	if len(e.classStack) == 0 {
		return nil
	}
	return e.classStack[len(e.classStack)-1]
}

func (e *Evaluator) currentThis() (value.Value, bool) {
	if len(e.thisStack) == 0 {
		return nil, false
	}
	return e.thisStack[len(e.thisStack)-1], true
}
