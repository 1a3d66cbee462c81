// Package resolver implements the pre-execution variable resolver pass (spec
// component C6): a static walk over an hir.Module that annotates every
// Identifier it can prove names a local binding of its own function, method,
// constructor, or lambda activation with a (Depth, Slot) pair, so
// Evaluator.Eval can read it with Environment.GetAtSlot instead of a
// name-based walk. Identifiers the pass cannot prove local — module-level
// names, captured variables, implicit-this members, builtins — are left
// untouched at Depth -1, which hir's evaluator already falls back to name
// resolution for.
//
// HIR builders are expected to construct every Identifier with Depth: -1
// before running Resolve; the pass only ever narrows that to a concrete
// slot, it never has to un-resolve one.
package resolver

import "github.com/nyxlang/nyx/internal/hir"

// scope is one statically-tracked frame, mirroring exactly one
// value.Environment frame the evaluator will open at the matching point:
// a call's param frame, a non-transparent Block, a for-loop's single-variable
// frame, or a catch clause's frame.
type scope struct {
	parent *scope
	slots  map[string]int
	next   int
}

func newScope(parent *scope) *scope {
	return &scope{parent: parent, slots: make(map[string]int)}
}

func (s *scope) define(name string) {
	s.slots[name] = s.next
	s.next++
}

// lookup walks outward from s, returning how many frame-links were crossed
// (0 meaning s itself) and the slot index, or ok=false if name isn't bound
// anywhere in the chain this activation statically tracks.
func lookup(s *scope, name string) (depth, slot int, ok bool) {
	for cur, d := s, 0; cur != nil; cur, d = cur.parent, d+1 {
		if idx, found := cur.slots[name]; found {
			return d, idx, true
		}
	}
	return 0, 0, false
}

// actCtx threads the current scope chain plus whether the enclosing
// activation has a `this` slot reserved (methods, constructors, and any
// lambda lexically nested inside one, since evalLambda forwards the
// enclosing `this` into every lambda closure it builds — see hir/eval_expr.go).
type actCtx struct {
	scope   *scope
	hasThis bool
}

// Resolve annotates every function, method, constructor, field initializer,
// and nested lambda in m in place. Top-level statements are walked too (so
// blocks, loops, and lambdas declared at module scope still get their own
// internal slots resolved), but the module scope itself is never
// slot-tracked: top-level names live in Evaluator.Globals and are always
// resolved by name.
func Resolve(m *hir.Module) {
	for _, fn := range m.Functions {
		resolveActivation(fn.Params, false, fn.Body)
	}
	for _, c := range m.Classes {
		resolveClass(c)
	}
	top := &actCtx{scope: nil, hasThis: false}
	for _, stmt := range m.TopLevel {
		walk(top, stmt)
	}
}

func resolveClass(c *hir.ClassDecl) {
	for i := range c.Methods {
		resolveActivation(c.Methods[i].Params, true, c.Methods[i].Body)
	}
	for i := range c.Constructors {
		resolveActivation(c.Constructors[i].Params, true, c.Constructors[i].Body)
	}
	for i := range c.Fields {
		if c.Fields[i].Init != nil {
			resolveActivation(nil, true, c.Fields[i].Init)
		}
	}
}

// resolveActivation walks a function/method/constructor/lambda body with a
// fresh root frame, mirroring the param (and, for methods/constructors/
// this-carrying lambdas, `this`) frame the evaluator builds on entry. A
// param's default-value expression is walked in the scope as it stands after
// earlier params are defined, matching left-to-right default evaluation.
func resolveActivation(params []hir.Param, hasThis bool, body hir.Node) {
	root := newScope(nil)
	if hasThis {
		root.define("this")
	}
	ctx := &actCtx{scope: root, hasThis: hasThis}
	for _, p := range params {
		root.define(p.Name)
		if p.Default != nil {
			walk(ctx, p.Default)
		}
	}
	walk(ctx, body)
}

func walk(ctx *actCtx, n hir.Node) {
	switch t := n.(type) {
	case nil:
	case *hir.Identifier:
		if d, slot, ok := lookup(ctx.scope, t.Name); ok {
			t.Depth, t.Slot = d, slot
		}
	case *hir.Literal, *hir.This, *hir.BreakStmt, *hir.ContinueStmt:
		// leaves
	case *hir.Binary:
		walk(ctx, t.Left)
		walk(ctx, t.Right)
	case *hir.Unary:
		walk(ctx, t.Operand)
	case *hir.Call:
		walk(ctx, t.Callee)
		for i := range t.Args {
			walk(ctx, t.Args[i].Value)
		}
	case *hir.MemberAccess:
		walk(ctx, t.Object)
	case *hir.Assignment:
		walk(ctx, t.Target)
		walk(ctx, t.Value)
	case *hir.Conditional:
		walk(ctx, t.Cond)
		walk(ctx, t.Then)
		walk(ctx, t.Else)
	case *hir.Block:
		inner := ctx
		if !t.Transparent {
			inner = &actCtx{scope: newScope(ctx.scope), hasThis: ctx.hasThis}
		}
		for _, stmt := range t.Statements {
			walk(inner, stmt)
		}
	case *hir.Lambda:
		resolveActivation(t.Params, ctx.hasThis, t.Body)
	case *hir.CollectionLiteral:
		for _, el := range t.Elements {
			walk(ctx, el)
		}
		for _, k := range t.Keys {
			walk(ctx, k)
		}
	case *hir.RangeExpr:
		walk(ctx, t.Start)
		walk(ctx, t.End)
	case *hir.TypeCheck:
		walk(ctx, t.Value)
	case *hir.TypeCast:
		walk(ctx, t.Value)
	case *hir.MethodRef:
		walk(ctx, t.Object)
	case *hir.NullAssert:
		walk(ctx, t.Value)
	case *hir.Index:
		walk(ctx, t.Object)
		walk(ctx, t.Index)
	case *hir.Await:
		walk(ctx, t.Value)
	case *hir.ErrorPropagate:
		walk(ctx, t.Value)
	case *hir.ValDecl:
		walk(ctx, t.Init)
		defineDecl(ctx, t.Name, t.Destructure)
	case *hir.VarDecl:
		walk(ctx, t.Init)
		defineDecl(ctx, t.Name, t.Destructure)
	case *hir.FunctionDecl:
		// A locally-declared function never captures `this` (hir's Exec
		// builds its Closure with no This field), regardless of what
		// activation it's nested in.
		resolveActivation(t.Params, false, t.Body)
	case *hir.ClassDecl:
		resolveClass(t)
	case *hir.IfStmt:
		walk(ctx, t.Cond)
		walk(ctx, t.Then)
		walk(ctx, t.Else)
	case *hir.WhileStmt:
		walk(ctx, t.Cond)
		walk(ctx, t.Body)
	case *hir.ForStmt:
		walk(ctx, t.Iterable)
		loopCtx := &actCtx{scope: newScope(ctx.scope), hasThis: ctx.hasThis}
		loopCtx.scope.define(t.VarName)
		walk(loopCtx, t.Body)
	case *hir.TryStmt:
		walk(ctx, t.Try)
		for i := range t.Catches {
			c := &t.Catches[i]
			catchCtx := &actCtx{scope: newScope(ctx.scope), hasThis: ctx.hasThis}
			catchCtx.scope.define(c.ExcName)
			walk(catchCtx, c.Body)
		}
		if t.Finally != nil {
			walk(ctx, t.Finally)
		}
	case *hir.ReturnStmt:
		walk(ctx, t.Value)
	case *hir.ThrowStmt:
		walk(ctx, t.Value)
	case *hir.ExprStmt:
		walk(ctx, t.Expr)
	}
}

// defineDecl records a val/var binding's slot(s) in the current frame. At
// module scope (ctx.scope == nil) it's a no-op: top-level bindings live in
// Globals and stay name-resolved, per Resolve's doc comment.
func defineDecl(ctx *actCtx, name string, destructure []string) {
	if ctx.scope == nil {
		return
	}
	if len(destructure) > 0 {
		for _, n := range destructure {
			if n != "_" {
				ctx.scope.define(n)
			}
		}
		return
	}
	ctx.scope.define(name)
}
