// Package security implements the engine's immutable policy gate (spec
// component C3): class/package allow/deny, method deny, feature toggles,
// and resource caps, consulted by every foreign-call site.
package security

import (
	"strings"

	nerr "github.com/nyxlang/nyx/internal/errors"
)

// Level is a named preset, mirroring §6.3's recognized `level` values. It is
// informational only — what actually gates access is the set of allow/deny
// lists and feature flags, which config.Load populates according to Level
// when the caller hasn't overridden them.
type Level string

const (
	LevelUnrestricted Level = "unrestricted"
	LevelStandard     Level = "standard"
	LevelStrict       Level = "strict"
	LevelCustom       Level = "custom"
)

// Policy is an immutable security policy record. Construct via NewPolicy or
// config.Load; there is no in-place mutation API — a new policy must be
// built and swapped in by the embedder.
type Policy struct {
	Level Level

	AllowPackages []string
	DenyPackages  []string
	AllowClasses  []string
	DenyClasses   []string
	DenyMethods   []string

	AllowForeignInterop  bool
	AllowSetAccessible   bool
	AllowStdio           bool
	AllowFileIO          bool
	AllowNetwork         bool
	AllowProcessExec     bool

	// 0 means unlimited for every cap below.
	MaxExecutionTimeMS int64
	MaxRecursionDepth  int
	MaxLoopIterations  int64
	MaxAsyncTasks      int
}

// Unrestricted returns a policy with every feature enabled and no caps —
// suitable for embedding in trusted contexts or tests.
func Unrestricted() *Policy {
	return &Policy{
		Level:               LevelUnrestricted,
		AllowForeignInterop: true,
		AllowSetAccessible:  true,
		AllowStdio:          true,
		AllowFileIO:         true,
		AllowNetwork:        true,
		AllowProcessExec:    true,
	}
}

// Standard returns a conservative default: stdio and foreign interop
// allowed, file/network/process and set-accessible denied, generous but
// finite resource caps.
func Standard() *Policy {
	return &Policy{
		Level:               LevelStandard,
		AllowForeignInterop: true,
		AllowStdio:          true,
		MaxRecursionDepth:   2048,
		MaxLoopIterations:   50_000_000,
		MaxAsyncTasks:       256,
	}
}

// isDenied reports whether name matches any entry in the deny list exactly.
func isDenied(name string, deny []string) bool {
	for _, d := range deny {
		if d == name {
			return true
		}
	}
	return false
}

func isAllowed(name string, allow []string) bool {
	for _, a := range allow {
		if a == name {
			return true
		}
	}
	return false
}

func hasPackagePrefix(fullName string, pkgs []string) bool {
	for _, p := range pkgs {
		if strings.HasPrefix(fullName, p) {
			return true
		}
	}
	return false
}

// IsClassAllowed implements the §4.3 evaluation order:
// denied-class -> allowed-class -> any deny-package-prefix -> (if allow-list
// nonempty, require match) -> else allow.
func (p *Policy) IsClassAllowed(fullName string) bool {
	if isDenied(fullName, p.DenyClasses) {
		return false
	}
	if isAllowed(fullName, p.AllowClasses) {
		return true
	}
	if hasPackagePrefix(fullName, p.DenyPackages) {
		return false
	}
	if len(p.AllowPackages) > 0 {
		return hasPackagePrefix(fullName, p.AllowPackages)
	}
	return true
}

// IsMethodAllowed checks the deny-methods list. Methods are addressed as
// "ClassName.methodName" or a bare method name to deny it on every class.
func (p *Policy) IsMethodAllowed(className, methodName string) bool {
	qualified := className + "." + methodName
	return !isDenied(qualified, p.DenyMethods) && !isDenied(methodName, p.DenyMethods)
}

// Require* helpers raise SecurityDenied on violation, for direct use at
// foreign-call sites (C10) and builtin registration (stdio, file I/O,
// network, process exec, accessible-override).
func (p *Policy) RequireClass(fullName string) error {
	if !p.IsClassAllowed(fullName) {
		return nerr.New(nerr.SecurityDenied, "access to class %q is denied by policy", fullName)
	}
	return nil
}

func (p *Policy) RequireMethod(className, methodName string) error {
	if !p.IsMethodAllowed(className, methodName) {
		return nerr.New(nerr.SecurityDenied, "call to method %q on %q is denied by policy", methodName, className)
	}
	return nil
}

func (p *Policy) RequireFeature(enabled bool, action string) error {
	if !enabled {
		return nerr.New(nerr.SecurityDenied, "%s is denied by policy", action)
	}
	return nil
}

func (p *Policy) RequireStdio() error          { return p.RequireFeature(p.AllowStdio, "stdio access") }
func (p *Policy) RequireFileIO() error         { return p.RequireFeature(p.AllowFileIO, "file I/O") }
func (p *Policy) RequireNetwork() error        { return p.RequireFeature(p.AllowNetwork, "network access") }
func (p *Policy) RequireProcessExec() error    { return p.RequireFeature(p.AllowProcessExec, "process execution") }
func (p *Policy) RequireForeignInterop() error { return p.RequireFeature(p.AllowForeignInterop, "foreign interop") }
func (p *Policy) RequireSetAccessible() error  { return p.RequireFeature(p.AllowSetAccessible, "accessible override") }

// CheckRecursionDepth raises RecursionLimit if depth exceeds the cap (0 =
// unlimited).
func (p *Policy) CheckRecursionDepth(depth int) error {
	if p.MaxRecursionDepth > 0 && depth > p.MaxRecursionDepth {
		return nerr.New(nerr.RecursionLimit, "maximum recursion depth (%d) exceeded", p.MaxRecursionDepth)
	}
	return nil
}

// CheckLoopIteration raises LoopLimit if count exceeds the cap. Intended to
// be called on loop back-edges by both the HIR evaluator and MIR
// interpreter.
func (p *Policy) CheckLoopIteration(count int64) error {
	if p.MaxLoopIterations > 0 && count > p.MaxLoopIterations {
		return nerr.New(nerr.LoopLimit, "maximum loop iterations (%d) exceeded", p.MaxLoopIterations)
	}
	return nil
}

// CheckAsyncTaskCount raises SecurityDenied if spawning one more async task
// would exceed the cap.
func (p *Policy) CheckAsyncTaskCount(current int) error {
	if p.MaxAsyncTasks > 0 && current >= p.MaxAsyncTasks {
		return nerr.New(nerr.SecurityDenied, "maximum concurrent async tasks (%d) exceeded", p.MaxAsyncTasks)
	}
	return nil
}
