package bytecode

import (
	"bytes"
	"strings"
	"testing"

	"github.com/nyxlang/nyx/internal/fixture"
	"github.com/nyxlang/nyx/internal/mir"
)

func TestDisassembleHelloListsConstAndInvoke(t *testing.T) {
	m, err := fixture.LoadMIR("hello")
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	NewDisassembler(m, &buf).Disassemble()
	out := buf.String()

	for _, want := range []string{
		"== hello ==",
		"function main(",
		"block 0 (entry):",
		"CONST_STRING r0, \"Hello, Nyx!\"",
		"INVOKE_STATIC r1, <module>.println([0])",
		"RETURN r1",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("disassembly missing %q, got:\n%s", want, out)
		}
	}
}

func TestOpNameCoversEveryOpcode(t *testing.T) {
	// Every op in mir.Op's const block (OpConstInt through OpClosure) must
	// have a mnemonic; "UNKNOWN_OP" is reserved for values outside it.
	for op := mir.OpConstInt; op <= mir.OpClosure; op++ {
		if got := opName(op); got == "UNKNOWN_OP" {
			t.Errorf("opName(%d) has no mnemonic", op)
		}
	}
	if got := opName(255); got != "UNKNOWN_OP" {
		t.Fatalf("want UNKNOWN_OP for an unrecognized opcode, got %q", got)
	}
}
