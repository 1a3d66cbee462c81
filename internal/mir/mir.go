// Package mir defines the register-based intermediate representation that
// backs the MIR interpreter (spec component C7): modules, functions, basic
// blocks, instructions, and the runtime Frame shape they execute over.
// Nothing in this package executes MIR; internal/vm owns the interpreter
// loop and walks these types.
package mir

import "github.com/nyxlang/nyx/internal/value"

// ClassKind mirrors the kind a MIR-compiled class declaration carries,
// distinct from value.ClassFlags because enum/object/annotation declarations
// shape construction and dispatch differently than a plain class even though
// they all end up as a *value.Class at runtime.
type ClassKind uint8

const (
	ClassKindClass ClassKind = iota
	ClassKindInterface
	ClassKindEnum
	ClassKindObject
	ClassKindAnnotation
)

// ImportKind distinguishes the four import directive shapes a MIR module can
// declare (spec §3.4).
type ImportKind uint8

const (
	ImportForeignClass ImportKind = iota
	ImportForeignStatic
	ImportWildcard
	ImportLanguageModule
)

// ImportDirective is one entry in a module's import table.
type ImportDirective struct {
	Kind  ImportKind
	Name  string
	Alias string
}

// Module is a compiled MIR unit: its functions, classes, and the foreign/
// language imports those functions and classes may reference.
type Module struct {
	Name      string
	Functions map[string]*Function
	Classes   map[string]*ClassDef
	Imports   []ImportDirective
}

// ClassDef is a MIR-level class declaration. Extension functions/properties
// (spec §3.4) attach to the owning class by TargetType rather than living
// inside ClassDef, since an extension can target a class this module doesn't
// itself declare.
type ClassDef struct {
	Name         string
	Kind         ClassKind
	SuperName    string
	Interfaces   []string
	Fields       []value.FieldSlot
	ForeignSuper string
}

// Extension is a module-level extension function or property (spec §3.4);
// it is resolved through internal/resolve's ExtensionTable, not through
// ClassDef, so a class can be extended from any module that imports it.
type Extension struct {
	TargetType string
	Name       string
	Fn         *Function
	IsProperty bool
}

// TryRange is one entry of a function's try/catch range table: instructions
// in [TryStart, TryEnd) that raise are redirected to Handler with the thrown
// value bound into ExceptionLocal.
type TryRange struct {
	TryStart, TryEnd int
	Handler          int
	ExceptionLocal   int
}

// Function is one compiled MIR function, method, or constructor body.
// Locals [0, Params) hold parameters (preceded by a reserved `this` slot at
// index 0 when HasThis is set); everything at or above Params is scratch
// space the compiler allocated for intermediates and block-local bindings,
// sized to FrameSize.
type Function struct {
	Name             string
	Owner            string // owning class name, empty for free functions
	Params           int
	HasThis          bool
	Static           bool
	Constructor      bool
	FrameSize        int
	Blocks           []*Block
	EntryBlock       int
	TailCallEligible bool
	TryRanges        []TryRange
	TypeParams       []string

	// staticCache memoizes the last same-module call target resolved from
	// inside this function (spec §4.7; see vm's resolveLocalFunction), so a
	// repeated call to that target skips the module function lookup.
	staticCache *Function
}

// StaticCache returns the function's memoized same-module call target, if
// the interpreter has already resolved one (nil otherwise).
func (fn *Function) StaticCache() *Function { return fn.staticCache }

// SetStaticCache memoizes target as fn's same-module call resolution.
func (fn *Function) SetStaticCache(target *Function) { fn.staticCache = target }

// Block is one basic block: a straight-line run of instructions ending in
// exactly one Terminator.
type Block struct {
	ID           int
	Instructions []Instruction
	Term         Terminator
}

// Op is a MIR instruction opcode (spec §4.7).
type Op uint8

const (
	OpConstInt Op = iota
	OpConstLong
	OpConstDouble
	OpConstFloat
	OpConstString
	OpConstBool
	OpConstChar
	OpConstNull
	OpConstClass
	OpMove
	OpBinary
	OpUnary
	OpNewObject
	OpGetField
	OpSetField
	OpGetStatic
	OpSetStatic
	OpInvokeVirtual
	OpInvokeInterface
	OpInvokeSpecial
	OpInvokeStatic
	OpIndexGet
	OpIndexSet
	OpNewArray
	OpNewCollection
	OpTypeCheck
	OpTypeCast
	OpClosure
)

// BinOp enumerates BINARY's operator field.
type BinOp uint8

const (
	BAdd BinOp = iota
	BSub
	BMul
	BDiv
	BMod
	BEq
	BNe
	BLt
	BGt
	BLe
	BGe
	BAnd
	BOr
	BShl
	BShr
	BUshr
	BBand
	BBor
	BBxor
)

// IsArithmeticOrBitwise reports whether op stays in the raw-int fast path
// (produces another raw int rather than a boxed Bool).
func (op BinOp) IsArithmeticOrBitwise() bool {
	switch op {
	case BAdd, BSub, BMul, BDiv, BMod, BShl, BShr, BUshr, BBand, BBor, BBxor:
		return true
	default:
		return false
	}
}

// IsComparison reports whether op produces a boxed Bool.
func (op BinOp) IsComparison() bool {
	switch op {
	case BEq, BNe, BLt, BGt, BLe, BGe:
		return true
	default:
		return false
	}
}

// Symbol returns the source-level operator token, used to drive
// value.Binary's generic (non-raw) path.
func (op BinOp) Symbol() string {
	switch op {
	case BAdd:
		return "+"
	case BSub:
		return "-"
	case BMul:
		return "*"
	case BDiv:
		return "/"
	case BMod:
		return "%"
	case BEq:
		return "=="
	case BNe:
		return "!="
	case BLt:
		return "<"
	case BGt:
		return ">"
	case BLe:
		return "<="
	case BGe:
		return ">="
	case BAnd:
		return "&&"
	case BOr:
		return "||"
	case BShl:
		return "<<"
	case BShr:
		return ">>"
	case BUshr:
		return ">>>"
	case BBand:
		return "&"
	case BBor:
		return "|"
	case BBxor:
		return "^"
	default:
		return "?"
	}
}

// UnOp enumerates UNARY's operator field.
type UnOp uint8

const (
	UNeg UnOp = iota
	UPos
	UNot
	UBnot
)

func (op UnOp) Symbol() string {
	switch op {
	case UNeg:
		return "-"
	case UPos:
		return "+"
	case UNot:
		return "!"
	case UBnot:
		return "~"
	default:
		return "?"
	}
}

// InlineCache is the per-instruction cache slot an INVOKE_VIRTUAL
// instruction carries (spec §4.7): keyed on the receiver's concrete class,
// it remembers the resolved callable so repeated calls on a monomorphic
// call site skip the full dispatch chain.
type InlineCache struct {
	Class    *value.Class
	Callable value.Callable
}

// Instruction is one MIR instruction. Not every field is meaningful for
// every Op; which ones apply is documented per-Op in internal/vm's executor.
type Instruction struct {
	Op  Op
	Dst int
	A   int
	B   int

	BinOp BinOp
	UnOp  UnOp

	IntVal    int32
	LongVal   int64
	DoubleVal float64
	FloatVal  float32
	StrVal    string
	BoolVal   bool
	CharVal   rune

	Owner    string
	Name     string
	Args     []int
	TypeArgs []string
	ElemType value.ElementType
	SafeCast bool

	Cache *InlineCache
}

// TermKind enumerates a block's terminator shape.
type TermKind uint8

const (
	TermGoto TermKind = iota
	TermBranch
	TermReturn
	TermTailCall
	TermSwitch
	TermThrow
	TermUnreachable
)

// SwitchCase is one dense-table entry of a SWITCH terminator. Key is an
// int64 for integer/enum-ordinal switches or a string for string switches.
type SwitchCase struct {
	Key    any
	Target int
}

// Terminator ends every Block. BRANCH fuses a compare-and-branch when
// CompareValid is set (the compare reads A and B directly without a
// preceding BINARY), matching spec §4.7's "fused compare-and-branch" note;
// otherwise it branches on the truthiness of local Cond.
type Terminator struct {
	Kind TermKind

	Target int
	Else   int

	Cond         int
	CompareValid bool
	CompareOp    BinOp
	A, B         int

	Value int

	Callee string
	Args   []int

	SwitchKeys    []SwitchCase
	SwitchDefault int

	ThrowValue int
}
