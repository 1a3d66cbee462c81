package value

import (
	"fmt"
	"strconv"
)

// ToForeign converts a Value to a plain Go value suitable for crossing the
// foreign bridge (C10). Primitive tags convert to their natural Go type;
// reference types pass through as themselves (identity preserved, per
// invariant #2) so fromForeign can hand back the exact same Value.
func ToForeign(v Value) any {
	switch n := v.(type) {
	case Bool:
		return bool(n)
	case Int:
		return int32(n)
	case Long:
		return int64(n)
	case Double:
		return float64(n)
	case Char:
		return rune(n)
	case String:
		return string(n)
	case nullValue:
		return nil
	default:
		return v
	}
}

// FromForeign converts a foreign Go value to a Value, preserving identity
// for already-Value inputs (invariant #2) and boxing recognized primitive
// Go types. Anything else becomes an External.
func FromForeign(x any) Value {
	switch n := x.(type) {
	case nil:
		return Null
	case Value:
		return n
	case bool:
		return Bool(n)
	case int:
		return Int(n)
	case int32:
		return Int(n)
	case int64:
		return Long(n)
	case float32:
		return Double(n)
	case float64:
		return Double(n)
	case string:
		return String(n)
	default:
		return NewExternal(x, fmt.Sprintf("%T", x))
	}
}

// ToInt converts v to Int, as the `toInt` builtin (truncating floats,
// parsing strings) or returns an error for non-numeric, non-numeric-string
// input.
func ToInt(v Value) (Int, error) {
	switch n := v.(type) {
	case Int:
		return n, nil
	case Long:
		return Int(n), nil
	case Double:
		return Int(n), nil
	case Bool:
		if n {
			return 1, nil
		}
		return 0, nil
	case Char:
		return Int(n), nil
	case String:
		i, err := strconv.ParseInt(string(n), 10, 32)
		if err != nil {
			return 0, fmt.Errorf("cannot convert %q to Int", string(n))
		}
		return Int(i), nil
	}
	return 0, fmt.Errorf("cannot convert %s to Int", v.TypeName())
}

func ToLong(v Value) (Long, error) {
	switch n := v.(type) {
	case Int:
		return Long(n), nil
	case Long:
		return n, nil
	case Double:
		return Long(n), nil
	case String:
		i, err := strconv.ParseInt(string(n), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("cannot convert %q to Long", string(n))
		}
		return Long(i), nil
	}
	return 0, fmt.Errorf("cannot convert %s to Long", v.TypeName())
}

func ToDouble(v Value) (Double, error) {
	switch n := v.(type) {
	case Int:
		return Double(n), nil
	case Long:
		return Double(n), nil
	case Double:
		return n, nil
	case String:
		f, err := strconv.ParseFloat(string(n), 64)
		if err != nil {
			return 0, fmt.Errorf("cannot convert %q to Double", string(n))
		}
		return Double(f), nil
	}
	return 0, fmt.Errorf("cannot convert %s to Double", v.TypeName())
}

func ToBoolean(v Value) (Bool, error) {
	switch n := v.(type) {
	case Bool:
		return n, nil
	case String:
		b, err := strconv.ParseBool(string(n))
		if err != nil {
			return false, fmt.Errorf("cannot convert %q to Bool", string(n))
		}
		return Bool(b), nil
	}
	return false, fmt.Errorf("cannot convert %s to Bool", v.TypeName())
}

func ToChar(v Value) (Char, error) {
	switch n := v.(type) {
	case Char:
		return n, nil
	case Int:
		return Char(n), nil
	case String:
		r := []rune(string(n))
		if len(r) != 1 {
			return 0, fmt.Errorf("cannot convert %q to Char: must be a single character", string(n))
		}
		return Char(r[0]), nil
	}
	return 0, fmt.Errorf("cannot convert %s to Char", v.TypeName())
}

// ToStringValue implements the `toString` builtin: everything has a
// string representation via Value.String.
func ToStringValue(v Value) String {
	if v == nil {
		return "null"
	}
	return String(v.String())
}
