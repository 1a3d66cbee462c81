package value

import (
	"fmt"

	nerr "github.com/nyxlang/nyx/internal/errors"
)

// OverloadCaller is implemented by whatever layer (HIR evaluator or MIR
// interpreter) is driving operator dispatch, so the operator module can
// fall through to a user-defined operator method on Object without
// importing internal/hir or internal/vm.
type OverloadCaller interface {
	CallMethod(receiver Value, methodName string, args []Value) (Value, bool, error)
}

// operatorMethodNames is the opcode -> method-name table referenced by
// spec §9 ("Operator overloading via name lookup"): the operator module
// consults this table before falling back to primitive arithmetic, or
// after primitive arithmetic fails to apply (see Binary).
var operatorMethodNames = map[string]string{
	"+": "plus", "-": "minus", "*": "times", "/": "div", "%": "rem",
	"compareTo": "compareTo",
}

var unaryMethodNames = map[string]string{
	"-": "unaryMinus", "+": "unaryPlus", "++": "inc", "--": "dec",
}

// Binary evaluates a binary arithmetic/comparison operator. It:
//  1. Returns specialized results for Int×Int, Double×Double, String `+` any.
//  2. Falls through to operator overloads on Object.
//  3. Raises ArithmeticError for DIV/MOD by zero on integer types.
func Binary(op string, left, right Value, caller OverloadCaller) (Value, error) {
	if op == "+" && (left.Kind() == KindString || right.Kind() == KindString) {
		return String(left.String() + right.String()), nil
	}

	if lo, ok := left.(*Object); ok {
		if name, ok2 := operatorMethodNames[op]; ok2 {
			if result, handled, err := tryOverload(caller, lo, name, right); handled {
				return result, err
			}
		}
	}

	switch l := left.(type) {
	case Int:
		switch r := right.(type) {
		case Int:
			return intBinary(op, l, r)
		case Long:
			return longBinary(op, Long(l), r)
		case Double:
			return doubleBinary(op, Double(l), r)
		}
	case Long:
		switch r := right.(type) {
		case Int:
			return longBinary(op, l, Long(r))
		case Long:
			return longBinary(op, l, r)
		case Double:
			return doubleBinary(op, Double(l), r)
		}
	case Double:
		switch r := right.(type) {
		case Int:
			return doubleBinary(op, l, Double(r))
		case Long:
			return doubleBinary(op, l, Double(r))
		case Double:
			return doubleBinary(op, l, r)
		}
	case Bool:
		if r, ok := right.(Bool); ok {
			return boolBinary(op, l, r)
		}
	}

	if isComparisonOp(op) {
		return comparisonFallback(op, left, right)
	}

	return nil, nerr.New(nerr.TypeMismatch, "operator %q not applicable to %s and %s", op, left.TypeName(), right.TypeName())
}

func tryOverload(caller OverloadCaller, receiver Value, name string, args ...Value) (Value, bool, error) {
	if caller == nil {
		return nil, false, nil
	}
	result, handled, err := caller.CallMethod(receiver, name, args)
	return result, handled, err
}

// Unary evaluates a unary operator (NEG/POS/NOT/BNOT or inc/dec), falling
// through to Object overloads the same way Binary does.
func Unary(op string, operand Value, caller OverloadCaller) (Value, error) {
	if oo, ok := operand.(*Object); ok {
		if name, ok2 := unaryMethodNames[op]; ok2 {
			if result, handled, err := tryOverload(caller, oo, name); handled {
				return result, err
			}
		}
	}
	switch op {
	case "-":
		switch n := operand.(type) {
		case Int:
			return -n, nil
		case Long:
			return -n, nil
		case Double:
			return -n, nil
		}
	case "+":
		switch operand.(type) {
		case Int, Long, Double:
			return operand, nil
		}
	case "++", "--":
		delta := Int(1)
		if op == "--" {
			delta = -1
		}
		switch n := operand.(type) {
		case Int:
			return n + delta, nil
		case Long:
			return n + Long(delta), nil
		case Double:
			return n + Double(delta), nil
		}
	case "!", "not":
		return Bool(!Truthy(operand)), nil
	case "~":
		switch n := operand.(type) {
		case Int:
			return ^n, nil
		case Long:
			return ^n, nil
		}
	}
	return nil, nerr.New(nerr.TypeMismatch, "unary operator %q not applicable to %s", op, operand.TypeName())
}

func isComparisonOp(op string) bool {
	switch op {
	case "==", "!=", "<", ">", "<=", ">=":
		return true
	}
	return false
}

func comparisonFallback(op string, left, right Value) (Value, error) {
	switch op {
	case "==":
		return Bool(Equals(left, right)), nil
	case "!=":
		return Bool(!Equals(left, right)), nil
	}
	return nil, nerr.New(nerr.TypeMismatch, "operator %q not applicable to %s and %s", op, left.TypeName(), right.TypeName())
}

func intBinary(op string, l, r Int) (Value, error) {
	switch op {
	case "+":
		return l + r, nil
	case "-":
		return l - r, nil
	case "*":
		return l * r, nil
	case "/":
		if r == 0 {
			return nil, nerr.New(nerr.ArithmeticError, "Division by zero")
		}
		return l / r, nil
	case "%":
		if r == 0 {
			return nil, nerr.New(nerr.ArithmeticError, "Division by zero")
		}
		return l % r, nil
	case "&":
		return l & r, nil
	case "|":
		return l | r, nil
	case "^":
		return l ^ r, nil
	case "<<":
		return l << uint(r), nil
	case ">>":
		return l >> uint(r), nil
	case "==":
		return Bool(l == r), nil
	case "!=":
		return Bool(l != r), nil
	case "<":
		return Bool(l < r), nil
	case ">":
		return Bool(l > r), nil
	case "<=":
		return Bool(l <= r), nil
	case ">=":
		return Bool(l >= r), nil
	}
	return nil, fmt.Errorf("unsupported Int operator %q", op)
}

func longBinary(op string, l, r Long) (Value, error) {
	switch op {
	case "+":
		return l + r, nil
	case "-":
		return l - r, nil
	case "*":
		return l * r, nil
	case "/":
		if r == 0 {
			return nil, nerr.New(nerr.ArithmeticError, "Division by zero")
		}
		return l / r, nil
	case "%":
		if r == 0 {
			return nil, nerr.New(nerr.ArithmeticError, "Division by zero")
		}
		return l % r, nil
	case "==":
		return Bool(l == r), nil
	case "!=":
		return Bool(l != r), nil
	case "<":
		return Bool(l < r), nil
	case ">":
		return Bool(l > r), nil
	case "<=":
		return Bool(l <= r), nil
	case ">=":
		return Bool(l >= r), nil
	}
	return nil, fmt.Errorf("unsupported Long operator %q", op)
}

func doubleBinary(op string, l, r Double) (Value, error) {
	switch op {
	case "+":
		return l + r, nil
	case "-":
		return l - r, nil
	case "*":
		return l * r, nil
	case "/":
		return l / r, nil // IEEE-754 semantics: division by zero yields +/-Inf or NaN, not an error
	case "==":
		return Bool(l == r), nil
	case "!=":
		return Bool(l != r), nil
	case "<":
		return Bool(l < r), nil
	case ">":
		return Bool(l > r), nil
	case "<=":
		return Bool(l <= r), nil
	case ">=":
		return Bool(l >= r), nil
	}
	return nil, fmt.Errorf("unsupported Double operator %q", op)
}

func boolBinary(op string, l, r Bool) (Value, error) {
	switch op {
	case "&&", "and":
		return l && r, nil
	case "||", "or":
		return l || r, nil
	case "==":
		return Bool(l == r), nil
	case "!=":
		return Bool(l != r), nil
	}
	return nil, fmt.Errorf("unsupported Bool operator %q", op)
}
