// Package fixture stands in for the external front-end spec §1 puts out of
// scope: nyxrun has no lexer or parser of its own, so it runs against
// pre-built HIR/MIR modules this package hand-assembles directly out of
// internal/hir and internal/mir node literals, the same way the teacher's
// internal/parser produces an *ast.Program for internal/interp to walk.
//
// Every HIR module returned by Load has already been through
// internal/resolver's variable-resolution pass, mirroring the
// parse-then-resolve pipeline a real front-end would run before handing a
// module to internal/hir.Evaluator.
package fixture

import (
	nerr "github.com/nyxlang/nyx/internal/errors"
	"github.com/nyxlang/nyx/internal/hir"
	"github.com/nyxlang/nyx/internal/mir"
	"github.com/nyxlang/nyx/internal/resolver"
)

// Names lists the fixtures Load/LoadMIR recognize, in a stable display order
// for `nyxrun run --list` and similar introspection.
func Names() []string { return []string{"hello", "fibonacci", "counter"} }

// MIRNames lists the subset of fixtures available as a pre-compiled MIR
// module (spec §6.5's `--mir` path), smaller than Names because hand-
// assembling register-based bytecode is far more tedious than HIR trees.
func MIRNames() []string { return []string{"hello"} }

func ident(name string) *hir.Identifier { return &hir.Identifier{Name: name, Depth: -1, Slot: -1} }

func lit(v int32) *hir.Literal { return &hir.Literal{LitKind: hir.LitInt, Int: v} }

func str(s string) *hir.Literal { return &hir.Literal{LitKind: hir.LitString, Str: s} }

func posArg(n hir.Node) hir.NamedArg { return hir.NamedArg{Value: n} }

func call(callee hir.Node, args ...hir.Node) *hir.Call {
	named := make([]hir.NamedArg, len(args))
	for i, a := range args {
		named[i] = posArg(a)
	}
	return &hir.Call{Callee: callee, Args: named}
}

// Load returns a hand-assembled, resolver-run HIR module by name.
func Load(name string) (*hir.Module, error) {
	var m *hir.Module
	switch name {
	case "hello":
		m = helloModule()
	case "fibonacci":
		m = fibonacciModule()
	case "counter":
		m = counterModule()
	default:
		return nil, nerr.New(nerr.InternalInvariant, "fixture: no HIR module named %q", name)
	}
	resolver.Resolve(m)
	return m, nil
}

// helloModule is the "hello world" of the §6.1 builtin set: a single
// module-level statement calling println, exercising the Depth==-1
// module-level-identifier fallback documented on hir.Identifier.
func helloModule() *hir.Module {
	return &hir.Module{
		Name: "hello",
		TopLevel: []hir.Node{
			&hir.ExprStmt{Expr: call(ident("println"), str("Hello, Nyx!"))},
		},
	}
}

// fibonacciModule exercises a recursive top-level function: parameter
// resolution, an IfStmt with both branches, and two self-calls per level,
// with "fib" itself left unresolved (depth -1) since a function name is a
// module-level binding, found at call time via the evaluator's Globals
// environment rather than a resolved activation-record slot.
func fibonacciModule() *hir.Module {
	cond := &hir.Binary{Op: "<", Left: ident("n"), Right: lit(2)}
	thenBranch := &hir.ReturnStmt{Value: ident("n")}
	elseBranch := &hir.ReturnStmt{Value: &hir.Binary{
		Op:   "+",
		Left: call(ident("fib"), &hir.Binary{Op: "-", Left: ident("n"), Right: lit(1)}),
		Right: call(ident("fib"), &hir.Binary{Op: "-", Left: ident("n"), Right: lit(2)}),
	}}
	fib := &hir.FunctionDecl{
		Name:   "fib",
		Params: []hir.Param{{Name: "n"}},
		Body:   &hir.Block{Statements: []hir.Node{&hir.IfStmt{Cond: cond, Then: thenBranch, Else: elseBranch}}},
	}
	return &hir.Module{
		Name:      "fibonacci",
		Functions: []*hir.FunctionDecl{fib},
		TopLevel: []hir.Node{
			&hir.ExprStmt{Expr: call(ident("println"), call(ident("fib"), lit(10)))},
		},
	}
}

// counterModule exercises class declaration, field initializers, `this`
// member access/assignment, and method invocation on a fresh instance.
func counterModule() *hir.Module {
	class := &hir.ClassDecl{
		Name: "Counter",
		Fields: []hir.FieldDecl{
			{Name: "count", Mutable: true, Init: lit(0)},
		},
		Methods: []hir.MethodDecl{
			{
				Name: "increment",
				Body: &hir.Block{Statements: []hir.Node{
					&hir.ExprStmt{Expr: &hir.Assignment{
						Target: &hir.MemberAccess{Object: &hir.This{}, Name: "count"},
						Op:     "+=",
						Value:  lit(1),
					}},
				}},
			},
			{
				Name: "get",
				Body: &hir.ReturnStmt{Value: &hir.MemberAccess{Object: &hir.This{}, Name: "count"}},
			},
		},
	}
	counterVar := &hir.ValDecl{Name: "c", Init: call(ident("Counter"))}
	bumpTwice := []hir.Node{
		&hir.ExprStmt{Expr: call(&hir.MemberAccess{Object: ident("c"), Name: "increment"})},
		&hir.ExprStmt{Expr: call(&hir.MemberAccess{Object: ident("c"), Name: "increment"})},
	}
	printResult := &hir.ExprStmt{Expr: call(ident("println"), call(&hir.MemberAccess{Object: ident("c"), Name: "get"}))}
	top := append([]hir.Node{counterVar}, bumpTwice...)
	top = append(top, printResult)
	return &hir.Module{
		Name:     "counter",
		Classes:  []*hir.ClassDecl{class},
		TopLevel: top,
	}
}

// LoadMIR returns a hand-assembled MIR module by name, the register-based
// counterpart to Load for spec §6.5's `--mir` execution path and the
// `disasm` subcommand.
func LoadMIR(name string) (*mir.Module, error) {
	switch name {
	case "hello":
		return helloMIRModule(), nil
	default:
		return nil, nerr.New(nerr.InternalInvariant, "fixture: no MIR module named %q", name)
	}
}

// helloMIRModule is MIR's equivalent of helloModule: a zero-param, zero-
// this main() that loads a string constant into r0, calls the println
// builtin through INVOKE_STATIC with an empty Owner (resolved by
// internal/vm's builtin fallback), and returns Unit.
func helloMIRModule() *mir.Module {
	main := &mir.Function{
		Name:      "main",
		FrameSize: 2,
		Blocks: []*mir.Block{
			{
				ID: 0,
				Instructions: []mir.Instruction{
					{Op: mir.OpConstString, Dst: 0, StrVal: "Hello, Nyx!"},
					{Op: mir.OpInvokeStatic, Dst: 1, Name: "println", Args: []int{0}},
				},
				Term: mir.Terminator{Kind: mir.TermReturn, Value: 1},
			},
		},
	}
	return &mir.Module{
		Name:      "hello",
		Functions: map[string]*mir.Function{"main": main},
		Classes:   map[string]*mir.ClassDef{},
	}
}
