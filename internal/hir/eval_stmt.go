package hir

import (
	nerr "github.com/nyxlang/nyx/internal/errors"
	"github.com/nyxlang/nyx/internal/value"
)

// Exec runs a statement/declaration node, returning the value an enclosing
// block expression should treat as its contribution (Unit for declarations
// and statements with no natural value, the expression's value for an
// expression statement, etc). Control-flow
// statements return through the typed *signal error channel rather than a
// value, per spec §9's guidance to prefer explicit signals over exceptions
// for local control flow.
func (e *Evaluator) Exec(n Node) (value.Value, error) {
	switch t := n.(type) {
	case *ValDecl:
		return e.execValDecl(t, false)
	case *VarDecl:
		return e.execValDecl(t, true)
	case *FunctionDecl:
		closure := &value.Closure{Name: t.Name, Params: paramNames(t.Params), Body: t.Body, Captured: e.env}
		if err := e.env.DefineVal(t.Name, closure); err != nil {
			return nil, err
		}
		return value.Unit, nil
	case *ClassDecl:
		_, err := e.registerClass(t)
		return value.Unit, err
	case *IfStmt:
		return e.execIf(t)
	case *WhileStmt:
		return e.execWhile(t)
	case *ForStmt:
		return e.execFor(t)
	case *TryStmt:
		return e.execTry(t)
	case *ReturnStmt:
		return e.execReturn(t)
	case *BreakStmt:
		return nil, &signal{kind: sigBreak, label: t.Label}
	case *ContinueStmt:
		return nil, &signal{kind: sigContinue, label: t.Label}
	case *ThrowStmt:
		return e.execThrow(t)
	case *ExprStmt:
		return e.Eval(t.Expr)
	default:
		// Hot-path expression node reached Exec via the Eval default case's
		// mutual recursion guard; evaluate it directly for its value.
		return e.Eval(n)
	}
}

func (e *Evaluator) execValDecl(decl Node, mutable bool) (value.Value, error) {
	var name string
	var init Node
	var destructure []string
	switch d := decl.(type) {
	case *ValDecl:
		name, init, destructure = d.Name, d.Init, d.Destructure
	case *VarDecl:
		name, init, destructure = d.Name, d.Init, d.Destructure
	}
	v, err := e.Eval(init)
	if err != nil {
		return nil, err
	}
	if len(destructure) > 0 {
		if err := e.bindDestructure(destructure, v, mutable); err != nil {
			return nil, err
		}
		return value.Unit, nil
	}
	if mutable {
		err = e.env.DefineVar(name, v)
	} else {
		err = e.env.DefineVal(name, v)
	}
	return value.Unit, err
}

// bindDestructure implements `val (a, b) = pair`-style bindings over a Pair
// or a data-class Object, reading each component through componentOf rather
// than the member resolver.
func (e *Evaluator) bindDestructure(names []string, v value.Value, mutable bool) error {
	for i, name := range names {
		if name == "_" {
			continue
		}
		component, err := e.componentOf(v, i+1)
		if err != nil {
			return err
		}
		if mutable {
			if err := e.env.DefineVar(name, component); err != nil {
				return err
			}
		} else if err := e.env.DefineVal(name, component); err != nil {
			return err
		}
	}
	return nil
}

func (e *Evaluator) componentOf(v value.Value, n int) (value.Value, error) {
	switch t := v.(type) {
	case *value.Pair:
		if n == 1 {
			return t.First, nil
		}
		if n == 2 {
			return t.Second, nil
		}
	case *value.Object:
		if c, ok := t.ComponentN(n); ok {
			return c, nil
		}
	}
	return nil, nerr.New(nerr.TypeMismatch, "%s has no component%d", v.TypeName(), n)
}

func (e *Evaluator) execIf(s *IfStmt) (value.Value, error) {
	cond, err := e.Eval(s.Cond)
	if err != nil {
		return nil, err
	}
	if value.Truthy(cond) {
		return e.Eval(s.Then)
	}
	if s.Else != nil {
		return e.Eval(s.Else)
	}
	return value.Unit, nil
}

func (e *Evaluator) execWhile(s *WhileStmt) (value.Value, error) {
	var iterations int64
	for {
		cond, err := e.Eval(s.Cond)
		if err != nil {
			return nil, err
		}
		if !value.Truthy(cond) {
			break
		}
		iterations++
		if p := e.Host.Policy(); p != nil {
			if err := p.CheckLoopIteration(iterations); err != nil {
				return nil, err
			}
		}
		if _, err := e.Eval(s.Body); err != nil {
			if sig, ok := err.(*signal); ok {
				if sig.kind == sigBreak && (sig.label == "" || sig.label == s.Label) {
					break
				}
				if sig.kind == sigContinue && (sig.label == "" || sig.label == s.Label) {
					continue
				}
			}
			return nil, err
		}
	}
	return value.Unit, nil
}

func (e *Evaluator) execFor(s *ForStmt) (value.Value, error) {
	iterable, err := e.Eval(s.Iterable)
	if err != nil {
		return nil, err
	}
	elems, err := elementsOf(iterable)
	if err != nil {
		return nil, err
	}
	var iterations int64
	savedEnv := e.env
	e.env = value.NewEnclosedEnvironment(savedEnv)
	defer func() { e.env = savedEnv }()
	_ = e.env.DefineVar(s.VarName, value.Null)
	for _, el := range elems {
		iterations++
		if p := e.Host.Policy(); p != nil {
			if err := p.CheckLoopIteration(iterations); err != nil {
				return nil, err
			}
		}
		_ = e.env.Redefine(s.VarName, el, true)
		if _, err := e.Eval(s.Body); err != nil {
			if sig, ok := err.(*signal); ok {
				if sig.kind == sigBreak && (sig.label == "" || sig.label == s.Label) {
					break
				}
				if sig.kind == sigContinue && (sig.label == "" || sig.label == s.Label) {
					continue
				}
			}
			return nil, err
		}
	}
	return value.Unit, nil
}

func elementsOf(v value.Value) ([]value.Value, error) {
	switch t := v.(type) {
	case *value.Range:
		return t.Elements(), nil
	case *value.List:
		return t.Elements, nil
	case *value.Array:
		out := make([]value.Value, t.Length)
		for i := 0; i < t.Length; i++ {
			el, err := t.Get(i)
			if err != nil {
				return nil, err
			}
			out[i] = el
		}
		return out, nil
	case value.String:
		runes := []rune(string(t))
		out := make([]value.Value, len(runes))
		for i, r := range runes {
			out[i] = value.Char(r)
		}
		return out, nil
	}
	return nil, nerr.New(nerr.TypeMismatch, "%s is not iterable", v.TypeName())
}

// execTry implements try/catch/finally: the declared catch-clause type is
// matched via Class.IsSubclassOf walking the thrown value's class. Finally
// always runs; if it raises its own error, that error masks whatever the
// try/catch block produced (including a pending return), per the Open
// Question resolution recorded in DESIGN.md.
func (e *Evaluator) execTry(s *TryStmt) (value.Value, error) {
	result, tryErr := e.Eval(s.Try)
	if ts, ok := tryErr.(*throwSignal); ok {
		if handled, v, herr := e.runCatch(s.Catches, ts); handled {
			result, tryErr = v, herr
		}
	}
	if s.Finally != nil {
		if _, ferr := e.Eval(s.Finally); ferr != nil {
			return nil, ferr
		}
	}
	return result, tryErr
}

// runCatch finds the first matching catch clause (declared-type subtype
// match, empty TypeName matches anything) and evaluates its body with the
// exception bound to ExcName in a fresh frame.
func (e *Evaluator) runCatch(catches []CatchClause, ts *throwSignal) (bool, value.Value, error) {
	for _, c := range catches {
		if !exceptionMatches(ts.payload, c.TypeName, e.Host) {
			continue
		}
		savedEnv := e.env
		e.env = value.NewEnclosedEnvironment(savedEnv)
		_ = e.env.DefineVal(c.ExcName, ts.payload)
		v, err := e.Eval(c.Body)
		e.env = savedEnv
		return true, v, err
	}
	return false, nil, nil
}

func exceptionMatches(payload value.Value, typeName string, host Host) bool {
	if typeName == "" {
		return true
	}
	return valueMatchesType(payload, typeName, host)
}

func (e *Evaluator) execReturn(s *ReturnStmt) (value.Value, error) {
	var v value.Value = value.Unit
	if s.Value != nil {
		var err error
		v, err = e.Eval(s.Value)
		if err != nil {
			return nil, err
		}
	}
	return nil, &signal{kind: sigReturn, value: v}
}

func (e *Evaluator) execThrow(s *ThrowStmt) (value.Value, error) {
	v, err := e.Eval(s.Value)
	if err != nil {
		return nil, err
	}
	return nil, e.throwValue(v, s.Location)
}
