package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nyxlang/nyx/internal/config"
	"github.com/nyxlang/nyx/internal/fixture"
	"github.com/nyxlang/nyx/internal/runtime"
	"github.com/nyxlang/nyx/internal/security"
)

var (
	policyPath string
	evalName   string
	useMIR     bool
	useHIR     bool
	listOnly   bool
)

var runCmd = &cobra.Command{
	Use:   "run <fixture-name>",
	Short: "Execute a fixture module through the engine",
	Long: `Execute a pre-built HIR or MIR fixture module (internal/fixture) through
internal/runtime, spec §6.5's embedding exercise.

Examples:
  # Run the "hello" fixture's HIR form (the default)
  nyxrun run hello

  # Run its MIR form instead
  nyxrun run --mir hello

  # Run under a strict security policy
  nyxrun run --policy strict.yaml counter

  # List the fixtures available
  nyxrun run --list`,
	Args: cobra.MaximumNArgs(1),
	RunE: runFixture,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&policyPath, "policy", "", "security policy YAML file (default: unrestricted)")
	runCmd.Flags().StringVarP(&evalName, "eval", "e", "", "fixture name to run, as an alternative to the positional argument")
	runCmd.Flags().BoolVar(&useMIR, "mir", false, "run the module's MIR form instead of HIR")
	runCmd.Flags().BoolVar(&useHIR, "hir", false, "run the module's HIR form (the default)")
	runCmd.Flags().BoolVar(&listOnly, "list", false, "list available fixture names and exit")
}

func runFixture(_ *cobra.Command, args []string) error {
	if listOnly {
		names := fixture.Names()
		if useMIR {
			names = fixture.MIRNames()
		}
		for _, n := range names {
			fmt.Println(n)
		}
		return nil
	}
	if useMIR && useHIR {
		return fmt.Errorf("--mir and --hir are mutually exclusive")
	}

	name := evalName
	if name == "" {
		if len(args) != 1 {
			return fmt.Errorf("run requires a fixture name, either positionally or via --eval (see --list)")
		}
		name = args[0]
	} else if len(args) != 0 {
		return fmt.Errorf("pass a fixture name either positionally or via --eval, not both")
	}

	policy, err := loadPolicy()
	if err != nil {
		return err
	}
	logger.Debug("loaded policy level=%s", policy.Level)

	rt := runtime.NewInterpreter(policy, os.Stdout, os.Stderr, os.Stdin)
	rt.RegisterBuiltins()

	var module any
	if useMIR {
		m, err := fixture.LoadMIR(name)
		if err != nil {
			return err
		}
		module = m
	} else {
		m, err := fixture.Load(name)
		if err != nil {
			return err
		}
		module = m
	}

	result, err := rt.Execute(module)
	if err != nil {
		return fmt.Errorf("execution failed: %w", err)
	}
	fmt.Println(result.String())
	return nil
}

func loadPolicy() (*security.Policy, error) {
	if policyPath == "" {
		return security.Unrestricted(), nil
	}
	return config.LoadFile(policyPath)
}
