package runtime

import (
	"bytes"
	"strings"
	"testing"

	"github.com/nyxlang/nyx/internal/fixture"
)

// newTestRuntime builds an unrestricted engine with builtins registered and
// stdout captured, the shape every test below needs.
func newTestRuntime() (*Runtime, *bytes.Buffer) {
	var out bytes.Buffer
	rt := NewInterpreter(nil, &out, &out, nil)
	rt.RegisterBuiltins()
	return rt, &out
}

func TestExecuteHIRHelloPrintsGreeting(t *testing.T) {
	rt, out := newTestRuntime()
	m, err := fixture.Load("hello")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := rt.Execute(m); err != nil {
		t.Fatalf("execute hello: %v", err)
	}
	if got := out.String(); strings.TrimSpace(got) != "Hello, Nyx!" {
		t.Fatalf("want %q, got %q", "Hello, Nyx!", got)
	}
}

func TestExecuteHIRFibonacciComputesTenthTerm(t *testing.T) {
	rt, out := newTestRuntime()
	m, err := fixture.Load("fibonacci")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := rt.Execute(m); err != nil {
		t.Fatalf("execute fibonacci: %v", err)
	}
	if got := strings.TrimSpace(out.String()); got != "55" {
		t.Fatalf("fib(10): want 55, got %q", got)
	}
}

func TestExecuteHIRCounterIncrementsTwice(t *testing.T) {
	rt, out := newTestRuntime()
	m, err := fixture.Load("counter")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := rt.Execute(m); err != nil {
		t.Fatalf("execute counter: %v", err)
	}
	if got := strings.TrimSpace(out.String()); got != "2" {
		t.Fatalf("counter after two increments: want 2, got %q", got)
	}
}

// TestExecuteMIRHelloUsesBuiltinFallback exercises the execInvokeStatic
// fallback to Host.LookupBuiltin for unqualified calls with no same-module
// function match (internal/vm/calls.go) — without it this would fail with
// ClassNotFound instead of printing anything.
func TestExecuteMIRHelloUsesBuiltinFallback(t *testing.T) {
	rt, out := newTestRuntime()
	m, err := fixture.LoadMIR("hello")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := rt.Execute(m); err != nil {
		t.Fatalf("execute MIR hello: %v", err)
	}
	if got := strings.TrimSpace(out.String()); got != "Hello, Nyx!" {
		t.Fatalf("want %q, got %q", "Hello, Nyx!", got)
	}
}
