// Package bytecode provides human-readable disassembly of compiled MIR
// modules (internal/mir), the `nyxrun disasm` subcommand's backing
// implementation. It mirrors the teacher's own internal/bytecode package:
// a Disassembler wrapping an io.Writer, walking one unit at a time and
// printing an opcode name plus its operands per line.
//
// Nothing here executes MIR — that's internal/vm's job — this package only
// renders it.
package bytecode

import (
	"fmt"
	"io"
	"sort"

	"github.com/nyxlang/nyx/internal/mir"
)

// Disassembler prints a mir.Module's functions in a block/instruction
// listing to writer.
type Disassembler struct {
	writer io.Writer
	module *mir.Module
}

// NewDisassembler creates a disassembler for module, writing to w.
func NewDisassembler(module *mir.Module, w io.Writer) *Disassembler {
	return &Disassembler{writer: w, module: module}
}

// Disassemble prints every function in the module, in a stable (sorted)
// name order so output is deterministic across runs.
func (d *Disassembler) Disassemble() {
	fmt.Fprintf(d.writer, "== %s ==\n", d.module.Name)
	names := make([]string, 0, len(d.module.Functions))
	for name := range d.module.Functions {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		d.disassembleFunction(d.module.Functions[name])
	}
}

func (d *Disassembler) disassembleFunction(fn *mir.Function) {
	owner := ""
	if fn.Owner != "" {
		owner = fn.Owner + "."
	}
	fmt.Fprintf(d.writer, "\nfunction %s%s(params=%d, frameSize=%d, hasThis=%v)\n", owner, fn.Name, fn.Params, fn.FrameSize, fn.HasThis)
	for _, b := range fn.Blocks {
		d.disassembleBlock(b, b.ID == fn.EntryBlock)
	}
}

func (d *Disassembler) disassembleBlock(b *mir.Block, entry bool) {
	marker := ""
	if entry {
		marker = " (entry)"
	}
	fmt.Fprintf(d.writer, "  block %d%s:\n", b.ID, marker)
	for i, ins := range b.Instructions {
		fmt.Fprintf(d.writer, "    %04d %s\n", i, formatInstruction(&ins))
	}
	fmt.Fprintf(d.writer, "    term %s\n", formatTerminator(&b.Term))
}

func formatInstruction(ins *mir.Instruction) string {
	name := opName(ins.Op)
	switch ins.Op {
	case mir.OpConstInt:
		return fmt.Sprintf("%s r%d, #%d", name, ins.Dst, ins.IntVal)
	case mir.OpConstLong:
		return fmt.Sprintf("%s r%d, #%d", name, ins.Dst, ins.LongVal)
	case mir.OpConstDouble:
		return fmt.Sprintf("%s r%d, #%g", name, ins.Dst, ins.DoubleVal)
	case mir.OpConstFloat:
		return fmt.Sprintf("%s r%d, #%g", name, ins.Dst, ins.FloatVal)
	case mir.OpConstString:
		return fmt.Sprintf("%s r%d, %q", name, ins.Dst, ins.StrVal)
	case mir.OpConstBool:
		return fmt.Sprintf("%s r%d, #%v", name, ins.Dst, ins.BoolVal)
	case mir.OpConstChar:
		return fmt.Sprintf("%s r%d, #%q", name, ins.Dst, ins.CharVal)
	case mir.OpConstNull:
		return fmt.Sprintf("%s r%d", name, ins.Dst)
	case mir.OpConstClass:
		return fmt.Sprintf("%s r%d, %s", name, ins.Dst, ins.Name)
	case mir.OpMove:
		return fmt.Sprintf("%s r%d, r%d", name, ins.Dst, ins.A)
	case mir.OpBinary:
		return fmt.Sprintf("%s r%d, r%d, r%d  ; %s", name, ins.Dst, ins.A, ins.B, ins.BinOp.Symbol())
	case mir.OpUnary:
		return fmt.Sprintf("%s r%d, r%d  ; %s", name, ins.Dst, ins.A, ins.UnOp.Symbol())
	case mir.OpNewObject:
		return fmt.Sprintf("%s r%d, %s, args=%v", name, ins.Dst, ins.Name, ins.Args)
	case mir.OpGetField, mir.OpSetField:
		return fmt.Sprintf("%s r%d, r%d, %s", name, ins.Dst, ins.A, ins.Name)
	case mir.OpGetStatic, mir.OpSetStatic:
		return fmt.Sprintf("%s r%d, %s.%s", name, ins.Dst, ins.Owner, ins.Name)
	case mir.OpInvokeVirtual, mir.OpInvokeInterface, mir.OpInvokeSpecial:
		return fmt.Sprintf("%s r%d, r%d.%s(%v)", name, ins.Dst, ins.A, ins.Name, ins.Args)
	case mir.OpInvokeStatic:
		owner := ins.Owner
		if owner == "" {
			owner = "<module>"
		}
		return fmt.Sprintf("%s r%d, %s.%s(%v)", name, ins.Dst, owner, ins.Name, ins.Args)
	case mir.OpIndexGet:
		return fmt.Sprintf("%s r%d, r%d[r%d]", name, ins.Dst, ins.A, ins.B)
	case mir.OpIndexSet:
		return fmt.Sprintf("%s r%d[r%d] = r%d", name, ins.A, ins.B, ins.Dst)
	case mir.OpNewArray:
		return fmt.Sprintf("%s r%d, elem=%d, len=r%d", name, ins.Dst, ins.ElemType, ins.A)
	case mir.OpNewCollection:
		return fmt.Sprintf("%s r%d, %s, args=%v", name, ins.Dst, ins.Name, ins.Args)
	case mir.OpTypeCheck, mir.OpTypeCast:
		return fmt.Sprintf("%s r%d, r%d, %s", name, ins.Dst, ins.A, ins.Name)
	case mir.OpClosure:
		return fmt.Sprintf("%s r%d, %s", name, ins.Dst, ins.Name)
	default:
		return fmt.Sprintf("%s r%d, a=%d, b=%d", name, ins.Dst, ins.A, ins.B)
	}
}

func formatTerminator(t *mir.Terminator) string {
	switch t.Kind {
	case mir.TermGoto:
		return fmt.Sprintf("GOTO %d", t.Target)
	case mir.TermBranch:
		if t.CompareValid {
			return fmt.Sprintf("BRANCH (r%d %s r%d) ? %d : %d", t.A, t.CompareOp.Symbol(), t.B, t.Target, t.Else)
		}
		return fmt.Sprintf("BRANCH r%d ? %d : %d", t.Cond, t.Target, t.Else)
	case mir.TermReturn:
		return fmt.Sprintf("RETURN r%d", t.Value)
	case mir.TermTailCall:
		return fmt.Sprintf("TAILCALL %s(%v)", t.Callee, t.Args)
	case mir.TermSwitch:
		return fmt.Sprintf("SWITCH r%d, cases=%d, default=%d", t.Cond, len(t.SwitchKeys), t.SwitchDefault)
	case mir.TermThrow:
		return fmt.Sprintf("THROW r%d", t.ThrowValue)
	case mir.TermUnreachable:
		return "UNREACHABLE"
	default:
		return "?"
	}
}

func opName(op mir.Op) string {
	switch op {
	case mir.OpConstInt:
		return "CONST_INT"
	case mir.OpConstLong:
		return "CONST_LONG"
	case mir.OpConstDouble:
		return "CONST_DOUBLE"
	case mir.OpConstFloat:
		return "CONST_FLOAT"
	case mir.OpConstString:
		return "CONST_STRING"
	case mir.OpConstBool:
		return "CONST_BOOL"
	case mir.OpConstChar:
		return "CONST_CHAR"
	case mir.OpConstNull:
		return "CONST_NULL"
	case mir.OpConstClass:
		return "CONST_CLASS"
	case mir.OpMove:
		return "MOVE"
	case mir.OpBinary:
		return "BINARY"
	case mir.OpUnary:
		return "UNARY"
	case mir.OpNewObject:
		return "NEW_OBJECT"
	case mir.OpGetField:
		return "GET_FIELD"
	case mir.OpSetField:
		return "SET_FIELD"
	case mir.OpGetStatic:
		return "GET_STATIC"
	case mir.OpSetStatic:
		return "SET_STATIC"
	case mir.OpInvokeVirtual:
		return "INVOKE_VIRTUAL"
	case mir.OpInvokeInterface:
		return "INVOKE_INTERFACE"
	case mir.OpInvokeSpecial:
		return "INVOKE_SPECIAL"
	case mir.OpInvokeStatic:
		return "INVOKE_STATIC"
	case mir.OpIndexGet:
		return "INDEX_GET"
	case mir.OpIndexSet:
		return "INDEX_SET"
	case mir.OpNewArray:
		return "NEW_ARRAY"
	case mir.OpNewCollection:
		return "NEW_COLLECTION"
	case mir.OpTypeCheck:
		return "TYPE_CHECK"
	case mir.OpTypeCast:
		return "TYPE_CAST"
	case mir.OpClosure:
		return "CLOSURE"
	default:
		return "UNKNOWN_OP"
	}
}
