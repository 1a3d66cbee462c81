package resolver

import (
	"testing"

	"github.com/nyxlang/nyx/internal/hir"
)

func ident(name string) *hir.Identifier {
	return &hir.Identifier{Name: name, Depth: -1, Slot: -1}
}

func TestResolveFunctionParams(t *testing.T) {
	x := ident("x")
	y := ident("y")
	fn := &hir.FunctionDecl{
		Name:   "add",
		Params: []hir.Param{{Name: "x"}, {Name: "y"}},
		Body:   &hir.Binary{Op: "+", Left: x, Right: y},
	}
	Resolve(&hir.Module{Functions: []*hir.FunctionDecl{fn}})

	if x.Depth != 0 || x.Slot != 0 {
		t.Fatalf("x: want depth 0 slot 0, got depth=%d slot=%d", x.Depth, x.Slot)
	}
	if y.Depth != 0 || y.Slot != 1 {
		t.Fatalf("y: want depth 0 slot 1, got depth=%d slot=%d", y.Depth, y.Slot)
	}
}

func TestResolveNestedBlockShadowsOuterSlot(t *testing.T) {
	outerRef := ident("n")
	innerDecl := ident("n") // unused directly; exercises a fresh inner slot
	innerRef := ident("n")
	fn := &hir.FunctionDecl{
		Name:   "f",
		Params: []hir.Param{{Name: "n"}},
		Body: &hir.Block{Statements: []hir.Node{
			&hir.ExprStmt{Expr: outerRef},
			&hir.Block{Statements: []hir.Node{
				&hir.ValDecl{Name: "n", Init: innerDecl},
				&hir.ExprStmt{Expr: innerRef},
			}},
		}},
	}
	Resolve(&hir.Module{Functions: []*hir.FunctionDecl{fn}})

	if outerRef.Depth != 1 || outerRef.Slot != 0 {
		t.Fatalf("outerRef: want depth 1 slot 0 (param frame one level up from the function's own block), got depth=%d slot=%d", outerRef.Depth, outerRef.Slot)
	}
	if innerDecl.Depth != 2 || innerDecl.Slot != 0 {
		t.Fatalf("innerDecl init: want to still see the param n two frames up (function's own block, then the nested block), got depth=%d slot=%d", innerDecl.Depth, innerDecl.Slot)
	}
	if innerRef.Depth != 0 || innerRef.Slot != 0 {
		t.Fatalf("innerRef: want the inner block's own n at depth 0 slot 0, got depth=%d slot=%d", innerRef.Depth, innerRef.Slot)
	}
}

func TestResolveForLoopVar(t *testing.T) {
	bodyRef := ident("i")
	fn := &hir.FunctionDecl{
		Name: "f",
		Body: &hir.ForStmt{
			VarName:  "i",
			Iterable: &hir.RangeExpr{Start: &hir.Literal{LitKind: hir.LitInt, Int: 0}, End: &hir.Literal{LitKind: hir.LitInt, Int: 10}},
			Body:     &hir.ExprStmt{Expr: bodyRef},
		},
	}
	Resolve(&hir.Module{Functions: []*hir.FunctionDecl{fn}})
	if bodyRef.Depth != 0 || bodyRef.Slot != 0 {
		t.Fatalf("loop var ref: want depth 0 slot 0, got depth=%d slot=%d", bodyRef.Depth, bodyRef.Slot)
	}
}

func TestResolveMethodReservesThisSlot(t *testing.T) {
	paramRef := ident("amount")
	class := &hir.ClassDecl{
		Name: "Account",
		Methods: []hir.MethodDecl{
			{Name: "deposit", Params: []hir.Param{{Name: "amount"}}, Body: &hir.ExprStmt{Expr: paramRef}},
		},
	}
	Resolve(&hir.Module{Classes: []*hir.ClassDecl{class}})
	if paramRef.Depth != 0 || paramRef.Slot != 1 {
		t.Fatalf("amount: want slot 1 (this occupies slot 0), got depth=%d slot=%d", paramRef.Depth, paramRef.Slot)
	}
}

func TestResolveLambdaCapturedFreeVarStaysUnresolved(t *testing.T) {
	captured := ident("total")
	lambdaParamRef := ident("x")
	fn := &hir.FunctionDecl{
		Name:   "f",
		Params: []hir.Param{{Name: "total"}},
		Body: &hir.ExprStmt{Expr: &hir.Lambda{
			Params: []hir.Param{{Name: "x"}},
			Body:   &hir.Binary{Op: "+", Left: lambdaParamRef, Right: captured},
		}},
	}
	Resolve(&hir.Module{Functions: []*hir.FunctionDecl{fn}})

	if lambdaParamRef.Depth != 0 || lambdaParamRef.Slot != 0 {
		t.Fatalf("lambda param x: want depth 0 slot 0 in its own frame, got depth=%d slot=%d", lambdaParamRef.Depth, lambdaParamRef.Slot)
	}
	if captured.Depth != -1 {
		t.Fatalf("captured outer var: want left unresolved (depth -1) since the lambda may share or flatten its capture env at runtime, got depth=%d slot=%d", captured.Depth, captured.Slot)
	}
}

func TestResolveTopLevelStaysUnresolved(t *testing.T) {
	topRef := ident("g")
	m := &hir.Module{TopLevel: []hir.Node{
		&hir.ValDecl{Name: "g", Init: &hir.Literal{LitKind: hir.LitInt, Int: 1}},
		&hir.ExprStmt{Expr: topRef},
	}}
	Resolve(m)
	if topRef.Depth != -1 {
		t.Fatalf("module-level name: want left unresolved, got depth=%d slot=%d", topRef.Depth, topRef.Slot)
	}
}
