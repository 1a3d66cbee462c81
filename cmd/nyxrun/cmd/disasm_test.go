package cmd

import (
	"strings"
	"testing"
)

func TestRunDisasmHelloPrintsInstructions(t *testing.T) {
	out, err := captureStdout(t, func() error { return runDisasm(disasmCmd, []string{"hello"}) })
	if err != nil {
		t.Fatalf("disasm hello: %v", err)
	}
	if !strings.Contains(out, "== hello ==") || !strings.Contains(out, "INVOKE_STATIC") {
		t.Errorf("want MIR disassembly in output, got %q", out)
	}
}

func TestRunDisasmUnknownFixtureErrors(t *testing.T) {
	if err := runDisasm(disasmCmd, []string{"does-not-exist"}); err == nil {
		t.Fatal("want error for a fixture with no MIR form")
	}
}
