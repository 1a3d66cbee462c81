// Package config loads a security.Policy from a YAML document, the ambient
// configuration-loading concern SPEC_FULL.md §4.11 adds around spec §6.3.
// It uses github.com/goccy/go-yaml, the YAML library already present in the
// teacher's dependency graph.
package config

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"

	"github.com/nyxlang/nyx/internal/security"
)

// policyDoc mirrors §6.3's recognized option names one-to-one so the YAML
// shape matches the spec's configuration surface directly.
type policyDoc struct {
	Level string `yaml:"level"`

	AllowPackages []string `yaml:"allow_packages"`
	DenyPackages  []string `yaml:"deny_packages"`
	AllowClasses  []string `yaml:"allow_classes"`
	DenyClasses   []string `yaml:"deny_classes"`
	DenyMethods   []string `yaml:"deny_methods"`

	AllowForeignInterop bool `yaml:"allow_foreign_interop"`
	AllowSetAccessible  bool `yaml:"allow_set_accessible"`
	AllowStdio          bool `yaml:"allow_stdio"`
	AllowFileIO         bool `yaml:"allow_file_io"`
	AllowNetwork        bool `yaml:"allow_network"`
	AllowProcessExec    bool `yaml:"allow_process_exec"`

	MaxExecutionTimeMS int64 `yaml:"max_execution_time_ms"`
	MaxRecursionDepth  int   `yaml:"max_recursion_depth"`
	MaxLoopIterations  int64 `yaml:"max_loop_iterations"`
	MaxAsyncTasks      int   `yaml:"max_async_tasks"`
}

// LoadFile reads and parses a policy YAML document from path.
func LoadFile(path string) (*security.Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading policy file: %w", err)
	}
	return Load(data)
}

// Load parses a policy YAML document from raw bytes. An empty/zero `level`
// defaults to "unrestricted", per SPEC_FULL.md §4.11's note that a
// zero-value policy is unrestricted.
func Load(data []byte) (*security.Policy, error) {
	var doc policyDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing policy YAML: %w", err)
	}

	base := baseForLevel(security.Level(doc.Level))

	policy := &security.Policy{
		Level:               security.Level(doc.Level),
		AllowPackages:       doc.AllowPackages,
		DenyPackages:        doc.DenyPackages,
		AllowClasses:        doc.AllowClasses,
		DenyClasses:         doc.DenyClasses,
		DenyMethods:         doc.DenyMethods,
		AllowForeignInterop: doc.AllowForeignInterop || base.AllowForeignInterop,
		AllowSetAccessible:  doc.AllowSetAccessible || base.AllowSetAccessible,
		AllowStdio:          doc.AllowStdio || base.AllowStdio,
		AllowFileIO:         doc.AllowFileIO || base.AllowFileIO,
		AllowNetwork:        doc.AllowNetwork || base.AllowNetwork,
		AllowProcessExec:    doc.AllowProcessExec || base.AllowProcessExec,
		MaxExecutionTimeMS:  firstNonZero(doc.MaxExecutionTimeMS, base.MaxExecutionTimeMS),
		MaxRecursionDepth:   firstNonZeroInt(doc.MaxRecursionDepth, base.MaxRecursionDepth),
		MaxLoopIterations:   firstNonZero(doc.MaxLoopIterations, base.MaxLoopIterations),
		MaxAsyncTasks:       firstNonZeroInt(doc.MaxAsyncTasks, base.MaxAsyncTasks),
	}
	if policy.Level == "" {
		policy.Level = security.LevelUnrestricted
	}
	return policy, nil
}

func baseForLevel(level security.Level) *security.Policy {
	switch level {
	case security.LevelStrict:
		p := security.Standard()
		p.Level = security.LevelStrict
		p.MaxRecursionDepth = 512
		p.MaxLoopIterations = 1_000_000
		p.MaxAsyncTasks = 16
		return p
	case security.LevelStandard:
		return security.Standard()
	case security.LevelUnrestricted, "":
		return security.Unrestricted()
	default: // custom: no implicit feature grants beyond what the doc states
		return &security.Policy{}
	}
}

func firstNonZero(a, b int64) int64 {
	if a != 0 {
		return a
	}
	return b
}

func firstNonZeroInt(a, b int) int {
	if a != 0 {
		return a
	}
	return b
}
