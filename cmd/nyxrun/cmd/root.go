package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nyxlang/nyx/internal/diag"
)

var (
	// Version information (set by build flags)
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var verbose bool

// logger is the CLI's own diagnostic sink, separate from the script's
// Stdout/Stderr: -v raises it to Debug so the CLI's own notices (such as the
// loaded policy level) surface during a `run` invocation. It is not handed
// to the engine; runtime.Runtime keeps its own Log, which -v does not change.
var logger = diag.Default()

var rootCmd = &cobra.Command{
	Use:   "nyxrun",
	Short: "Nyx embedding-surface runner",
	Long: `nyxrun drives the Nyx engine (internal/runtime) against pre-built
HIR or MIR modules. It performs no lexing or parsing of its own — modules
come from internal/fixture, a stand-in for the external front-end spec §1
puts out of scope for this repository.`,
	Version: Version,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(`{{with .Name}}{{printf "%%s " .}}{{end}}{{printf "version %%s" .Version}}
Commit: %s
Built:  %s
`, GitCommit, BuildDate))

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose diagnostic output")
	cobra.OnInitialize(func() {
		if verbose {
			logger = diag.New(os.Stderr, diag.LevelDebug)
		}
	})
}
