package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nyxlang/nyx/internal/bytecode"
	"github.com/nyxlang/nyx/internal/fixture"
)

var disasmCmd = &cobra.Command{
	Use:   "disasm <fixture-name>",
	Short: "Print MIR disassembly for a fixture module",
	Long: `Print a block/instruction listing of a fixture module's compiled MIR form
(internal/bytecode), mirroring the teacher's dwscript compile/disassembler
conventions.

Examples:
  nyxrun disasm hello`,
	Args: cobra.ExactArgs(1),
	RunE: runDisasm,
}

func init() {
	rootCmd.AddCommand(disasmCmd)
}

func runDisasm(_ *cobra.Command, args []string) error {
	m, err := fixture.LoadMIR(args[0])
	if err != nil {
		return fmt.Errorf("loading MIR fixture %q: %w (available: %v)", args[0], err, fixture.MIRNames())
	}
	bytecode.NewDisassembler(m, os.Stdout).Disassemble()
	return nil
}
