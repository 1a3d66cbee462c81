package vm

import (
	nerr "github.com/nyxlang/nyx/internal/errors"
	"github.com/nyxlang/nyx/internal/mir"
	"github.com/nyxlang/nyx/internal/value"
)

// execBinary implements BINARY's raw-int specialization (spec §4.7): when
// both operands carry the raw-int sentinel, arithmetic/bitwise ops stay
// entirely in RawLocals and comparisons produce a boxed Bool without ever
// materializing a boxed Int for the operands. Anything else (one operand
// boxed, a Long/Double/Object/overloaded operator) falls through to
// value.Binary, the same primitive+overload dispatch HIR uses.
func (vmi *Interpreter) execBinary(f *mir.Frame, ins *mir.Instruction) error {
	if f.IsRaw(ins.A) && f.IsRaw(ins.B) {
		a, b := f.RawLocals[ins.A], f.RawLocals[ins.B]
		if ins.BinOp.IsArithmeticOrBitwise() {
			res, err := rawIntOp(ins.BinOp, a, b)
			if err != nil {
				return err
			}
			f.WriteRawInt(ins.Dst, res)
			return nil
		}
		if ins.BinOp.IsComparison() {
			f.Set(ins.Dst, value.Bool(rawIntCompare(ins.BinOp, a, b)))
			return nil
		}
	}

	left, right := f.Get(ins.A), f.Get(ins.B)
	result, err := value.Binary(ins.BinOp.Symbol(), left, right, vmi)
	if err != nil {
		return err
	}
	f.Set(ins.Dst, result)
	return nil
}

func rawIntOp(op mir.BinOp, a, b int64) (int64, error) {
	switch op {
	case mir.BAdd:
		return a + b, nil
	case mir.BSub:
		return a - b, nil
	case mir.BMul:
		return a * b, nil
	case mir.BDiv:
		if b == 0 {
			return 0, nerr.New(nerr.ArithmeticError, "division by zero")
		}
		return a / b, nil
	case mir.BMod:
		if b == 0 {
			return 0, nerr.New(nerr.ArithmeticError, "division by zero")
		}
		return a % b, nil
	case mir.BShl:
		return a << uint(b&63), nil
	case mir.BShr:
		return a >> uint(b&63), nil
	case mir.BUshr:
		return int64(uint64(a) >> uint(b&63)), nil
	case mir.BBand:
		return a & b, nil
	case mir.BBor:
		return a | b, nil
	case mir.BBxor:
		return a ^ b, nil
	default:
		return 0, nerr.New(nerr.InternalInvariant, "unsupported raw-int operator")
	}
}

func rawIntCompare(op mir.BinOp, a, b int64) bool {
	switch op {
	case mir.BEq:
		return a == b
	case mir.BNe:
		return a != b
	case mir.BLt:
		return a < b
	case mir.BGt:
		return a > b
	case mir.BLe:
		return a <= b
	case mir.BGe:
		return a >= b
	default:
		return false
	}
}

// execUnary implements UNARY, unboxing a raw int in place when possible.
func (vmi *Interpreter) execUnary(f *mir.Frame, ins *mir.Instruction) error {
	if f.IsRaw(ins.A) && (ins.UnOp == mir.UNeg || ins.UnOp == mir.UPos || ins.UnOp == mir.UBnot) {
		a := f.RawLocals[ins.A]
		switch ins.UnOp {
		case mir.UNeg:
			f.WriteRawInt(ins.Dst, -a)
		case mir.UPos:
			f.WriteRawInt(ins.Dst, a)
		case mir.UBnot:
			f.WriteRawInt(ins.Dst, ^a)
		}
		return nil
	}
	operand := f.Get(ins.A)
	result, err := value.Unary(ins.UnOp.Symbol(), operand, vmi)
	if err != nil {
		return err
	}
	f.Set(ins.Dst, result)
	return nil
}
