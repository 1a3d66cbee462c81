// Command nyxrun is the engine's embedding-surface exercise CLI (spec
// §6.5): it loads pre-built HIR/MIR modules from internal/fixture (standing
// in for the lexer/parser this repo deliberately leaves out of scope, per
// spec §1) and drives them through internal/runtime.
package main

import (
	"fmt"
	"os"

	"github.com/nyxlang/nyx/cmd/nyxrun/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
