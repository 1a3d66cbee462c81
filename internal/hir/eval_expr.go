package hir

import (
	nerr "github.com/nyxlang/nyx/internal/errors"
	"github.com/nyxlang/nyx/internal/resolve"
	"github.com/nyxlang/nyx/internal/value"
)

func (e *Evaluator) evalLiteral(lit *Literal) (value.Value, error) {
	switch lit.LitKind {
	case LitNull:
		return value.Null, nil
	case LitUnit:
		return value.Unit, nil
	case LitBool:
		return value.Bool(lit.Bool), nil
	case LitInt:
		return value.Int(lit.Int), nil
	case LitLong:
		return value.Long(lit.Long), nil
	case LitDouble:
		return value.Double(lit.Double), nil
	case LitChar:
		return value.Char(lit.Char), nil
	case LitString:
		return value.String(lit.Str), nil
	}
	return nil, nerr.Newf(nerr.InternalInvariant, lit.Location, "unrecognized literal kind %d", lit.LitKind)
}

func (e *Evaluator) evalBinary(b *Binary) (value.Value, error) {
	// Short-circuit boolean operators evaluate Right lazily.
	if b.Op == "&&" || b.Op == "and" {
		l, err := e.Eval(b.Left)
		if err != nil {
			return nil, err
		}
		if !value.Truthy(l) {
			return value.Bool(false), nil
		}
		r, err := e.Eval(b.Right)
		if err != nil {
			return nil, err
		}
		return value.Bool(value.Truthy(r)), nil
	}
	if b.Op == "||" || b.Op == "or" {
		l, err := e.Eval(b.Left)
		if err != nil {
			return nil, err
		}
		if value.Truthy(l) {
			return value.Bool(true), nil
		}
		r, err := e.Eval(b.Right)
		if err != nil {
			return nil, err
		}
		return value.Bool(value.Truthy(r)), nil
	}

	left, err := e.Eval(b.Left)
	if err != nil {
		return nil, err
	}
	right, err := e.Eval(b.Right)
	if err != nil {
		return nil, err
	}
	result, err := value.Binary(b.Op, left, right, e)
	if err != nil {
		if re, ok := err.(*nerr.RuntimeError); ok && re.Location.IsZero() {
			re.Location = b.Location
		}
		return nil, err
	}
	return result, nil
}

func (e *Evaluator) evalUnary(u *Unary) (value.Value, error) {
	operand, err := e.Eval(u.Operand)
	if err != nil {
		return nil, err
	}
	if u.Op == "++" || u.Op == "--" {
		result, err := value.Unary(u.Op, operand, e)
		if err != nil {
			return nil, err
		}
		if err := e.assignTo(u.Operand, result); err != nil {
			return nil, err
		}
		if u.Postfix {
			return operand, nil
		}
		return result, nil
	}
	return value.Unary(u.Op, operand, e)
}

func (e *Evaluator) evalCall(c *Call) (value.Value, error) {
	callee, args, shortCircuit, err := e.resolveCallee(c)
	if err != nil {
		return nil, err
	}
	if shortCircuit {
		return value.Null, nil
	}
	if class, ok := callee.(*value.Class); ok {
		obj, err := e.NewInstance(class, args)
		if err != nil {
			if re, ok := err.(*nerr.RuntimeError); ok && re.Location.IsZero() {
				re.Location = c.Location
			}
			return nil, err
		}
		return obj, nil
	}
	callable, ok := callee.(value.Callable)
	if !ok {
		return nil, nerr.Newf(nerr.TypeMismatch, c.Location, "%s is not callable", callee.TypeName())
	}
	result, err := callable.Call(e, args)
	if err != nil {
		if re, ok := err.(*nerr.RuntimeError); ok && re.Location.IsZero() {
			re.Location = c.Location
		}
		return nil, err
	}
	return result, nil
}

// resolveCallee distinguishes a bare-identifier/member-access call target
// (resolved in callee position, so the member resolver returns an
// unevaluated Callable instead of auto-invoking a zero-arity member) from a
// callee expression that is itself a general expression.
func (e *Evaluator) resolveCallee(c *Call) (value.Value, []value.Value, bool, error) {
	if ma, ok := c.Callee.(*MemberAccess); ok {
		target, err := e.Eval(ma.Object)
		if err != nil {
			return nil, nil, false, err
		}
		if ma.Safe && value.IsNull(target) {
			return nil, nil, true, nil
		}
		member, err := e.lookupMember(target, ma.Name, true)
		if err != nil {
			return nil, nil, false, err
		}
		args, err := e.evalArgs(c.Args)
		if err != nil {
			return nil, nil, false, err
		}
		return member, args, false, nil
	}
	var callee value.Value
	var err error
	if id, ok := c.Callee.(*Identifier); ok {
		callee, err = e.evalIdentifierCallee(id)
	} else {
		callee, err = e.Eval(c.Callee)
	}
	if err != nil {
		return nil, nil, false, err
	}
	args, err := e.evalArgs(c.Args)
	if err != nil {
		return nil, nil, false, err
	}
	return callee, args, false, nil
}

// evalIdentifierCallee mirrors evalIdentifier but never auto-invokes: a
// zero-arg function used as a call target must be invoked with the call's
// own argument list, not pre-evaluated by the identifier lookup.
func (e *Evaluator) evalIdentifierCallee(id *Identifier) (value.Value, error) {
	if id.Depth < 0 {
		if _, ok := e.env.TryGet(id.Name); !ok {
			if this, ok := e.currentThis(); ok {
				if obj, ok2 := this.(*value.Object); ok2 {
					v, err := e.lookupOnTarget(obj, id.Name, true)
					if err == nil {
						return v, nil
					}
					if !nerr.IsKind(err, nerr.UnknownMember) {
						return nil, err
					}
				}
			}
		}
	}
	return e.evalIdentifier(id)
}

func (e *Evaluator) evalArgs(named []NamedArg) ([]value.Value, error) {
	args := make([]value.Value, len(named))
	for i, a := range named {
		v, err := e.Eval(a.Value)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	return args, nil
}

// lookupMember is the shared entry point into the member resolver (C4),
// used by member access in both value and callee position.
func (e *Evaluator) lookupMember(target value.Value, name string, calleePosition bool) (value.Value, error) {
	return e.lookupOnTarget(target, name, calleePosition)
}

func (e *Evaluator) lookupOnTarget(target value.Value, name string, calleePosition bool) (value.Value, error) {
	if value.IsNull(target) {
		return nil, nerr.New(nerr.NullDereference, "cannot access member %q of null", name)
	}
	ctx := &resolve.Context{
		Target:         target,
		Name:           name,
		CallingClass:   e.currentClass(),
		CalleePosition: calleePosition,
		Extensions:     e.Host.Extensions(),
		Stdlib:         e.Host.Stdlib(),
		Foreign:        e.Host.Foreign(),
		Invoke: func(c value.Callable) (value.Value, error) {
			return c.Call(e, nil)
		},
	}
	return resolve.Resolve(ctx)
}

// lookupOnTargetWrapper is used by evalIdentifier's implicit-this path;
// kept as a thin wrapper for readability at the call site.
func (e *Evaluator) lookupOnTargetWrapper(obj *value.Object, name string) (value.Value, bool, error) {
	v, err := e.lookupOnTarget(obj, name, false)
	if err != nil {
		if nerr.IsKind(err, nerr.UnknownMember) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return v, true, nil
}

func (e *Evaluator) evalMemberAccess(m *MemberAccess) (value.Value, error) {
	target, err := e.Eval(m.Object)
	if err != nil {
		return nil, err
	}
	if m.Safe && value.IsNull(target) {
		return value.Null, nil
	}
	v, err := e.lookupMember(target, m.Name, false)
	if err != nil {
		if re, ok := err.(*nerr.RuntimeError); ok && re.Location.IsZero() {
			re.Location = m.Location
		}
		return nil, err
	}
	return v, nil
}

func (e *Evaluator) evalAssignment(a *Assignment) (value.Value, error) {
	var newVal value.Value
	if a.Op == "=" {
		v, err := e.Eval(a.Value)
		if err != nil {
			return nil, err
		}
		newVal = v
	} else {
		cur, err := e.Eval(a.Target)
		if err != nil {
			return nil, err
		}
		rhs, err := e.Eval(a.Value)
		if err != nil {
			return nil, err
		}
		op := a.Op[:len(a.Op)-1] // "+=" -> "+"
		v, err := value.Binary(op, cur, rhs, e)
		if err != nil {
			return nil, err
		}
		newVal = v
	}
	if err := e.assignTo(a.Target, newVal); err != nil {
		return nil, err
	}
	return newVal, nil
}

func (e *Evaluator) assignTo(target Node, v value.Value) error {
	switch t := target.(type) {
	case *Identifier:
		if t.Depth >= 0 {
			e.env.AssignAtSlot(t.Depth, t.Slot, v)
			return nil
		}
		ok, err := e.env.TryAssign(t.Name, v)
		if err != nil {
			return err
		}
		if !ok {
			return nerr.Newf(nerr.UnknownName, t.Location, "unknown name %q", t.Name)
		}
		return nil
	case *MemberAccess:
		obj, err := e.Eval(t.Object)
		if err != nil {
			return err
		}
		inst, ok := obj.(*value.Object)
		if !ok {
			return nerr.Newf(nerr.TypeMismatch, t.Location, "cannot assign to member %q of %s", t.Name, obj.TypeName())
		}
		inst.SetField(t.Name, v)
		return nil
	case *Index:
		obj, err := e.Eval(t.Object)
		if err != nil {
			return err
		}
		idx, err := e.Eval(t.Index)
		if err != nil {
			return err
		}
		return assignIndex(obj, idx, v)
	}
	return nerr.Newf(nerr.InternalInvariant, target.Loc(), "invalid assignment target")
}

func assignIndex(obj, idx, v value.Value) error {
	switch o := obj.(type) {
	case *value.List:
		i, ok := idx.(value.Int)
		if !ok {
			return nerr.New(nerr.TypeMismatch, "list index must be Int")
		}
		return o.Set(int(i), v)
	case *value.Array:
		i, ok := idx.(value.Int)
		if !ok {
			return nerr.New(nerr.TypeMismatch, "array index must be Int")
		}
		return o.Set(int(i), v)
	case *value.Map:
		o.Put(idx, v)
		return nil
	}
	return nerr.New(nerr.TypeMismatch, "%s is not indexable for assignment", obj.TypeName())
}

func (e *Evaluator) evalConditional(c *Conditional) (value.Value, error) {
	cond, err := e.Eval(c.Cond)
	if err != nil {
		return nil, err
	}
	if value.Truthy(cond) {
		return e.Eval(c.Then)
	}
	if c.Else != nil {
		return e.Eval(c.Else)
	}
	return value.Unit, nil
}

// evalBlockExpr runs a block as an expression: last statement's value is the
// block's value (the common case is an ExprStmt as the final statement).
func (e *Evaluator) evalBlockExpr(b *Block) (value.Value, error) {
	if !b.Transparent {
		saved := e.env
		e.env = value.NewEnclosedEnvironment(e.env)
		defer func() { e.env = saved }()
	}
	var last value.Value = value.Unit
	for _, stmt := range b.Statements {
		v, err := e.Exec(stmt)
		if err != nil {
			return nil, err
		}
		last = v
	}
	return last, nil
}

// evalLambda implements the minimal-closure capture strategy (spec §9): it
// walks the lambda body collecting free identifiers, and if every one of
// them is bound immutably in the enclosing scope, builds a small dedicated
// capture environment holding just those bindings; otherwise (any mutable
// capture present) the lambda shares the current environment directly so
// later mutations remain visible, matching the teacher's closures-share-env
// default.
func (e *Evaluator) evalLambda(l *Lambda) (value.Value, error) {
	free := freeIdentifiers(l)
	captured := e.env
	if allImmutable(e.env, free, l.Params) {
		minimal := value.NewEnclosedEnvironment(nil)
		for name := range free {
			if v, ok := e.env.TryGet(name); ok {
				_ = minimal.DefineVal(name, v)
			}
		}
		captured = minimal
	}
	var this value.Value
	if t, ok := e.currentThis(); ok {
		this = t
	}
	return &value.Closure{Name: l.Name, Params: paramNames(l.Params), Body: l.Body, Captured: captured, This: this}, nil
}

func allImmutable(env *value.Environment, free map[string]bool, params []Param) bool {
	paramNamesSet := make(map[string]bool, len(params))
	for _, p := range params {
		paramNamesSet[p.Name] = true
	}
	for name := range free {
		if paramNamesSet[name] {
			continue
		}
		isVal, err := env.IsVal(name)
		if err != nil || !isVal {
			return false
		}
	}
	return true
}

// freeIdentifiers performs a syntactic scan for identifiers referenced in
// the lambda body (nested lambda bodies included). It does not filter out
// the lambda's own parameters (allImmutable skips those) and does not track
// nested shadowing precisely — a conservative over-approximation
// is safe here since it only affects which capture strategy is chosen, not
// correctness (the shared-environment fallback is always correct).
func freeIdentifiers(l *Lambda) map[string]bool {
	free := make(map[string]bool)
	var walk func(n Node)
	walk = func(n Node) {
		if n == nil {
			return
		}
		switch t := n.(type) {
		case *Identifier:
			free[t.Name] = true
		case *Binary:
			walk(t.Left)
			walk(t.Right)
		case *Unary:
			walk(t.Operand)
		case *Call:
			walk(t.Callee)
			for _, a := range t.Args {
				walk(a.Value)
			}
		case *MemberAccess:
			walk(t.Object)
		case *Assignment:
			walk(t.Target)
			walk(t.Value)
		case *Conditional:
			walk(t.Cond)
			walk(t.Then)
			walk(t.Else)
		case *Block:
			for _, s := range t.Statements {
				walk(s)
			}
		case *Lambda:
			walk(t.Body)
		case *CollectionLiteral:
			for _, el := range t.Elements {
				walk(el)
			}
			for _, k := range t.Keys {
				walk(k)
			}
		case *RangeExpr:
			walk(t.Start)
			walk(t.End)
		case *Index:
			walk(t.Object)
			walk(t.Index)
		case *TypeCheck:
			walk(t.Value)
		case *TypeCast:
			walk(t.Value)
		case *NullAssert:
			walk(t.Value)
		case *Await:
			walk(t.Value)
		case *ErrorPropagate:
			walk(t.Value)
		case *ExprStmt:
			walk(t.Expr)
		case *ValDecl:
			walk(t.Init)
		case *VarDecl:
			walk(t.Init)
		case *ReturnStmt:
			walk(t.Value)
		case *IfStmt:
			walk(t.Cond)
			walk(t.Then)
			walk(t.Else)
		case *WhileStmt:
			walk(t.Cond)
			walk(t.Body)
		case *ForStmt:
			walk(t.Iterable)
			walk(t.Body)
		}
	}
	walk(l.Body)
	return free
}

func (e *Evaluator) evalCollectionLiteral(c *CollectionLiteral) (value.Value, error) {
	switch c.CollKind {
	case CollList:
		elems := make([]value.Value, len(c.Elements))
		for i, el := range c.Elements {
			v, err := e.Eval(el)
			if err != nil {
				return nil, err
			}
			elems[i] = v
		}
		return value.NewList(elems...), nil
	case CollMap:
		m := value.NewMap()
		for i, keyNode := range c.Keys {
			k, err := e.Eval(keyNode)
			if err != nil {
				return nil, err
			}
			v, err := e.Eval(c.Elements[i])
			if err != nil {
				return nil, err
			}
			m.Put(k, v)
		}
		return m, nil
	case CollArray:
		elems := make([]value.Value, len(c.Elements))
		for i, el := range c.Elements {
			v, err := e.Eval(el)
			if err != nil {
				return nil, err
			}
			elems[i] = v
		}
		arr := value.NewArray(elementTypeOf(c.ElemType), len(elems))
		for i, v := range elems {
			if err := arr.Set(i, v); err != nil {
				return nil, err
			}
		}
		return arr, nil
	}
	return nil, nerr.Newf(nerr.InternalInvariant, c.Location, "unrecognized collection kind %d", c.CollKind)
}

func elementTypeOf(tag string) value.ElementType {
	switch tag {
	case "Int":
		return value.ElemInt
	case "Long":
		return value.ElemLong
	case "Double":
		return value.ElemDouble
	case "Float":
		return value.ElemFloat
	case "Bool":
		return value.ElemBool
	case "Char":
		return value.ElemChar
	default:
		return value.ElemObject
	}
}

func (e *Evaluator) evalRange(r *RangeExpr) (value.Value, error) {
	start, err := e.Eval(r.Start)
	if err != nil {
		return nil, err
	}
	end, err := e.Eval(r.End)
	if err != nil {
		return nil, err
	}
	si, ok := start.(value.Int)
	if !ok {
		return nil, nerr.Newf(nerr.TypeMismatch, r.Location, "range bounds must be Int")
	}
	ei, ok := end.(value.Int)
	if !ok {
		return nil, nerr.Newf(nerr.TypeMismatch, r.Location, "range bounds must be Int")
	}
	return value.NewRange(si, ei, r.Inclusive), nil
}

func (e *Evaluator) evalThis() (value.Value, error) {
	if t, ok := e.currentThis(); ok {
		return t, nil
	}
	return nil, nerr.New(nerr.InternalInvariant, "'this' referenced outside a method body")
}

func (e *Evaluator) evalTypeCheck(t *TypeCheck) (value.Value, error) {
	v, err := e.Eval(t.Value)
	if err != nil {
		return nil, err
	}
	matches := valueMatchesType(v, t.TypeName, e.Host)
	if t.Negate {
		matches = !matches
	}
	return value.Bool(matches), nil
}

func valueMatchesType(v value.Value, typeName string, host Host) bool {
	switch typeName {
	case "Int", "Long", "Double", "Bool", "Char", "String", "Null", "Unit", "List", "Map", "Range", "Pair", "Array":
		return v.TypeName() == typeName
	}
	obj, ok := v.(*value.Object)
	if !ok {
		return v.TypeName() == typeName
	}
	target, ok := host.LookupClass(typeName)
	if !ok {
		return false
	}
	return obj.Class.IsSubclassOf(target)
}

func (e *Evaluator) evalTypeCast(t *TypeCast) (value.Value, error) {
	v, err := e.Eval(t.Value)
	if err != nil {
		return nil, err
	}
	if valueMatchesType(v, t.TypeName, e.Host) {
		return v, nil
	}
	if t.Safe {
		return value.Null, nil
	}
	return nil, nerr.Newf(nerr.Cast, t.Location, "cannot cast %s to %s", v.TypeName(), t.TypeName)
}

func (e *Evaluator) evalMethodRef(m *MethodRef) (value.Value, error) {
	if m.Object == nil {
		if fn, err := e.evalIdentifier(&Identifier{Name: m.Name, Depth: -1}); err == nil {
			return fn, nil
		}
		if fn, ok := e.Host.LookupBuiltin(m.Name); ok {
			return fn, nil
		}
		return nil, nerr.New(nerr.UnknownName, "unknown function reference %q", m.Name)
	}
	target, err := e.Eval(m.Object)
	if err != nil {
		return nil, err
	}
	return e.lookupMember(target, m.Name, true)
}

func (e *Evaluator) evalNullAssert(n *NullAssert) (value.Value, error) {
	v, err := e.Eval(n.Value)
	if err != nil {
		return nil, err
	}
	if value.IsNull(v) {
		return nil, nerr.Newf(nerr.NullDereference, n.Location, "null assertion failed")
	}
	return v, nil
}

func (e *Evaluator) evalIndex(idx *Index) (value.Value, error) {
	obj, err := e.Eval(idx.Object)
	if err != nil {
		return nil, err
	}
	i, err := e.Eval(idx.Index)
	if err != nil {
		return nil, err
	}
	switch o := obj.(type) {
	case *value.List:
		ii, ok := i.(value.Int)
		if !ok {
			return nil, nerr.Newf(nerr.TypeMismatch, idx.Location, "list index must be Int")
		}
		v, err := o.Get(int(ii))
		if err != nil {
			return nil, nerr.Newf(nerr.IndexOutOfBounds, idx.Location, "%s", err.Error())
		}
		return v, nil
	case *value.Array:
		ii, ok := i.(value.Int)
		if !ok {
			return nil, nerr.Newf(nerr.TypeMismatch, idx.Location, "array index must be Int")
		}
		v, err := o.Get(int(ii))
		if err != nil {
			return nil, nerr.Newf(nerr.IndexOutOfBounds, idx.Location, "%s", err.Error())
		}
		return v, nil
	case *value.Map:
		if v, ok := o.Get(i); ok {
			return v, nil
		}
		return value.Null, nil
	case value.String:
		ii, ok := i.(value.Int)
		if !ok {
			return nil, nerr.Newf(nerr.TypeMismatch, idx.Location, "string index must be Int")
		}
		runes := []rune(string(o))
		if int(ii) < 0 || int(ii) >= len(runes) {
			return nil, nerr.Newf(nerr.IndexOutOfBounds, idx.Location, "index %d out of bounds for string of length %d", ii, len(runes))
		}
		return value.Char(runes[ii]), nil
	}
	return nil, nerr.Newf(nerr.TypeMismatch, idx.Location, "%s is not indexable", obj.TypeName())
}

func (e *Evaluator) evalAwait(a *Await) (value.Value, error) {
	v, err := e.Eval(a.Value)
	if err != nil {
		return nil, err
	}
	def, ok := v.(*value.Deferred)
	if !ok {
		return nil, nerr.Newf(nerr.TypeMismatch, a.Location, "await expects a Deferred, got %s", v.TypeName())
	}
	return def.Impl.Await()
}

// evalErrorPropagate implements the `?` operator. A null operand returns
// null early from the enclosing function. A `Result` Object as produced by
// `runCatching` (SPEC_FULL §6.1; fields ok/value/error) yields its `.value`
// when `.ok` is true and otherwise returns the Result itself early from the
// enclosing function. Any other value yields itself.
func (e *Evaluator) evalErrorPropagate(ep *ErrorPropagate) (value.Value, error) {
	v, err := e.Eval(ep.Value)
	if err != nil {
		return nil, err
	}
	if value.IsNull(v) {
		return nil, &signal{kind: sigReturn, value: value.Null}
	}
	obj, ok := v.(*value.Object)
	if !ok {
		return v, nil
	}
	okVal, isResult := obj.GetField("ok")
	if !isResult {
		return v, nil
	}
	if b, _ := okVal.(value.Bool); !bool(b) {
		return nil, &signal{kind: sigReturn, value: obj}
	}
	successVal, _ := obj.GetField("value")
	return successVal, nil
}

func (e *Evaluator) throwValue(v value.Value, loc nerr.Location) error {
	msg := v.String()
	if obj, ok := v.(*value.Object); ok {
		if m, ok2 := obj.GetField("message"); ok2 {
			if s, ok3 := m.(value.String); ok3 {
				msg = string(s)
			}
		}
	}
	re := nerr.Newf(nerr.UserThrown, loc, "%s", msg).WithPayload(v).WithStack(e.callStack.Snapshot())
	return &throwSignal{payload: v, err: re}
}
