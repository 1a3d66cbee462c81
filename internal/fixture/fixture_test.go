package fixture

import (
	"testing"

	"github.com/nyxlang/nyx/internal/hir"
)

func TestLoadUnknownNameErrors(t *testing.T) {
	if _, err := Load("nope"); err == nil {
		t.Fatal("want error for unknown fixture name")
	}
}

func TestLoadMIRUnknownNameErrors(t *testing.T) {
	if _, err := LoadMIR("nope"); err == nil {
		t.Fatal("want error for unknown MIR fixture name")
	}
}

func TestNamesIncludeEveryLoadableFixture(t *testing.T) {
	for _, name := range Names() {
		if _, err := Load(name); err != nil {
			t.Errorf("Names() lists %q but Load failed: %v", name, err)
		}
	}
}

func TestMIRNamesIncludeEveryLoadableMIRFixture(t *testing.T) {
	for _, name := range MIRNames() {
		if _, err := LoadMIR(name); err != nil {
			t.Errorf("MIRNames() lists %q but LoadMIR failed: %v", name, err)
		}
	}
}

// TestHelloIdentifiersAreModuleLevelUnresolved pins the Depth==-1 convention
// fixture.Load relies on: println and the top-level call target are free
// names a real front-end would leave for Host.LookupBuiltin, not slots
// resolver.Resolve assigns.
func TestHelloIdentifiersAreModuleLevelUnresolved(t *testing.T) {
	m, err := Load("hello")
	if err != nil {
		t.Fatal(err)
	}
	if len(m.TopLevel) != 1 {
		t.Fatalf("want 1 top-level statement, got %d", len(m.TopLevel))
	}
	stmt, ok := m.TopLevel[0].(*hir.ExprStmt)
	if !ok {
		t.Fatalf("want an expression statement, got %T", m.TopLevel[0])
	}
	call, ok := stmt.Expr.(*hir.Call)
	if !ok {
		t.Fatalf("want a call, got %T", stmt.Expr)
	}
	callee, ok := call.Callee.(*hir.Identifier)
	if !ok {
		t.Fatalf("want an identifier callee, got %T", call.Callee)
	}
	if callee.Depth != -1 {
		t.Errorf("want %s left unresolved (Depth -1), got Depth %d", callee.Name, callee.Depth)
	}
}

// TestFibonacciResolvesParamSlot exercises resolver.Resolve actually running
// over a fixture module: fib's own parameter n must end up resolved to a
// local slot, not left at the -1 a hand-authored node starts with.
func TestFibonacciResolvesParamSlot(t *testing.T) {
	m, err := Load("fibonacci")
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Functions) != 1 || m.Functions[0].Name != "fib" {
		t.Fatalf("want a single fib function, got %+v", m.Functions)
	}
	body, ok := m.Functions[0].Body.(*hir.Block)
	if !ok || len(body.Statements) == 0 {
		t.Fatalf("want a non-empty block body, got %T", m.Functions[0].Body)
	}
	ifStmt, ok := body.Statements[0].(*hir.IfStmt)
	if !ok {
		t.Fatalf("want an if statement, got %T", body.Statements[0])
	}
	cond, ok := ifStmt.Cond.(*hir.Binary)
	if !ok {
		t.Fatalf("want a binary condition, got %T", ifStmt.Cond)
	}
	n, ok := cond.Left.(*hir.Identifier)
	if !ok || n.Name != "n" {
		t.Fatalf("want identifier n on the left of the condition, got %+v", cond.Left)
	}
	if n.Depth < 0 {
		t.Errorf("want n resolved to a local slot, got Depth %d", n.Depth)
	}
}

func TestCounterModuleDeclaresOneClass(t *testing.T) {
	m, err := Load("counter")
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Classes) != 1 || m.Classes[0].Name != "Counter" {
		t.Fatalf("want a single Counter class, got %+v", m.Classes)
	}
	if len(m.Classes[0].Methods) != 2 {
		t.Fatalf("want increment+get methods, got %d", len(m.Classes[0].Methods))
	}
}

func TestHelloMIRHasMainFunction(t *testing.T) {
	m, err := LoadMIR("hello")
	if err != nil {
		t.Fatal(err)
	}
	main, ok := m.Functions["main"]
	if !ok {
		t.Fatal("want a main function in the hello MIR module")
	}
	if len(main.Blocks) != 1 {
		t.Fatalf("want a single block, got %d", len(main.Blocks))
	}
}
