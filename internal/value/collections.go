package value

import (
	"fmt"
	"strings"
)

// List is an insertion-ordered, growable sequence. Backed by a Go slice;
// mutation methods are used by the INDEX_SET opcode and list builtins.
type List struct {
	Elements []Value
}

func NewList(elems ...Value) *List { return &List{Elements: elems} }

func (l *List) Kind() Kind       { return KindList }
func (l *List) TypeName() string { return "List" }
func (l *List) Truthy() bool     { return true }
func (l *List) String() string {
	parts := make([]string, len(l.Elements))
	for i, e := range l.Elements {
		parts[i] = displayString(e)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
func (l *List) RefEquals(o Value) bool {
	ol, ok := o.(*List)
	return ok && l == ol
}
func (l *List) Equals(o Value) bool {
	ol, ok := o.(*List)
	if !ok || len(l.Elements) != len(ol.Elements) {
		return false
	}
	for i := range l.Elements {
		if !Equals(l.Elements[i], ol.Elements[i]) {
			return false
		}
	}
	return true
}

func (l *List) Get(i int) (Value, error) {
	if i < 0 || i >= len(l.Elements) {
		return nil, fmt.Errorf("index %d out of bounds for list of size %d", i, len(l.Elements))
	}
	return l.Elements[i], nil
}

func (l *List) Set(i int, v Value) error {
	if i < 0 || i >= len(l.Elements) {
		return fmt.Errorf("index %d out of bounds for list of size %d", i, len(l.Elements))
	}
	l.Elements[i] = v
	return nil
}

func (l *List) Append(v Value) { l.Elements = append(l.Elements, v) }
func (l *List) Size() int      { return len(l.Elements) }

// MapEntry preserves insertion order alongside the key/value pair.
type MapEntry struct {
	Key   Value
	Value Value
}

// Map is an insertion-ordered dictionary. Keys compare by value equality
// (Equals), so lookup is linear — this mirrors the language's semantics
// (value equality keys, not hash identity) at the cost of O(n) lookup,
// acceptable for a reference tree-walk/bytecode core; a production stdlib
// extension could add a hashable fast path for primitive keys.
type Map struct {
	Entries []MapEntry
}

func NewMap() *Map { return &Map{} }

func (m *Map) Kind() Kind       { return KindMap }
func (m *Map) TypeName() string { return "Map" }
func (m *Map) Truthy() bool     { return true }
func (m *Map) String() string {
	parts := make([]string, len(m.Entries))
	for i, e := range m.Entries {
		parts[i] = fmt.Sprintf("%s: %s", displayString(e.Key), displayString(e.Value))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
func (m *Map) RefEquals(o Value) bool {
	om, ok := o.(*Map)
	return ok && m == om
}

func (m *Map) indexOf(key Value) int {
	for i, e := range m.Entries {
		if Equals(e.Key, key) {
			return i
		}
	}
	return -1
}

func (m *Map) Get(key Value) (Value, bool) {
	if i := m.indexOf(key); i >= 0 {
		return m.Entries[i].Value, true
	}
	return nil, false
}

func (m *Map) Put(key, val Value) {
	if i := m.indexOf(key); i >= 0 {
		m.Entries[i].Value = val
		return
	}
	m.Entries = append(m.Entries, MapEntry{Key: key, Value: val})
}

func (m *Map) Delete(key Value) bool {
	if i := m.indexOf(key); i >= 0 {
		m.Entries = append(m.Entries[:i], m.Entries[i+1:]...)
		return true
	}
	return false
}

func (m *Map) Keys() *List {
	out := make([]Value, len(m.Entries))
	for i, e := range m.Entries {
		out[i] = e.Key
	}
	return NewList(out...)
}

func (m *Map) Values() *List {
	out := make([]Value, len(m.Entries))
	for i, e := range m.Entries {
		out[i] = e.Value
	}
	return NewList(out...)
}

func (m *Map) Size() int { return len(m.Entries) }

// Range models an integer range with a direction derived from start/end, as
// required by invariant #4: ascending if start <= end, else descending.
type Range struct {
	Start, End Int
	Inclusive  bool
}

func NewRange(start, end Int, inclusive bool) *Range {
	return &Range{Start: start, End: end, Inclusive: inclusive}
}

func (r *Range) Kind() Kind       { return KindRange }
func (r *Range) TypeName() string { return "Range" }
func (r *Range) Truthy() bool     { return true }
func (r *Range) String() string {
	op := "until"
	if r.Inclusive {
		op = ".."
	}
	return fmt.Sprintf("%d%s%d", r.Start, op, r.End)
}
func (r *Range) Equals(o Value) bool {
	or, ok := o.(*Range)
	return ok && *r == *or
}

// Size returns |end-start| + (inclusive?1:0).
func (r *Range) Size() int {
	diff := int(r.End) - int(r.Start)
	if diff < 0 {
		diff = -diff
	}
	if r.Inclusive {
		diff++
	}
	return diff
}

// Ascending reports the iteration direction.
func (r *Range) Ascending() bool { return r.Start <= r.End }

// Elements materializes the range as a slice of Int values, in iteration
// order (ascending or descending per Ascending).
func (r *Range) Elements() []Value {
	n := r.Size()
	out := make([]Value, 0, n)
	if r.Ascending() {
		end := r.End
		if r.Inclusive {
			end++
		}
		for i := r.Start; i < end; i++ {
			out = append(out, i)
		}
	} else {
		end := r.End
		if r.Inclusive {
			end--
		}
		for i := r.Start; i > end; i-- {
			out = append(out, i)
		}
	}
	return out
}

// Pair is a 2-tuple exposing .first/.second (and component1/component2 via
// the member resolver's built-in-member strategy).
type Pair struct {
	First, Second Value
}

func NewPair(a, b Value) *Pair { return &Pair{First: a, Second: b} }

func (p *Pair) Kind() Kind       { return KindPair }
func (p *Pair) TypeName() string { return "Pair" }
func (p *Pair) Truthy() bool     { return true }
func (p *Pair) String() string {
	return fmt.Sprintf("(%s, %s)", displayString(p.First), displayString(p.Second))
}
func (p *Pair) Equals(o Value) bool {
	op, ok := o.(*Pair)
	return ok && Equals(p.First, op.First) && Equals(p.Second, op.Second)
}

// ElementType tags the primitive backing storage of an Array, per spec 3.1:
// "raw backing storage for primitives".
type ElementType uint8

const (
	ElemInt ElementType = iota
	ElemLong
	ElemDouble
	ElemFloat
	ElemBool
	ElemChar
	ElemObject
)

// Array is a fixed-length, typed array. Primitive element types use raw Go
// slices as backing storage to avoid boxing every element as a Value;
// Get/Set box/unbox at the boundary. ElemObject arrays box directly.
type Array struct {
	ElemType ElementType
	Length   int

	rawInt    []int32
	rawLong   []int64
	rawDouble []float64
	rawFloat  []float32
	rawBool   []bool
	rawChar   []rune
	objects   []Value
}

func NewArray(et ElementType, length int) *Array {
	a := &Array{ElemType: et, Length: length}
	switch et {
	case ElemInt:
		a.rawInt = make([]int32, length)
	case ElemLong:
		a.rawLong = make([]int64, length)
	case ElemDouble:
		a.rawDouble = make([]float64, length)
	case ElemFloat:
		a.rawFloat = make([]float32, length)
	case ElemBool:
		a.rawBool = make([]bool, length)
	case ElemChar:
		a.rawChar = make([]rune, length)
	default:
		a.objects = make([]Value, length)
	}
	return a
}

func (a *Array) Kind() Kind       { return KindArray }
func (a *Array) TypeName() string { return "Array" }
func (a *Array) Truthy() bool     { return true }
func (a *Array) String() string {
	parts := make([]string, a.Length)
	for i := 0; i < a.Length; i++ {
		v, _ := a.Get(i)
		parts[i] = displayString(v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
func (a *Array) RefEquals(o Value) bool {
	oa, ok := o.(*Array)
	return ok && a == oa
}

func (a *Array) Get(i int) (Value, error) {
	if i < 0 || i >= a.Length {
		return nil, fmt.Errorf("index %d out of bounds for array of length %d", i, a.Length)
	}
	switch a.ElemType {
	case ElemInt:
		return Int(a.rawInt[i]), nil
	case ElemLong:
		return Long(a.rawLong[i]), nil
	case ElemDouble:
		return Double(a.rawDouble[i]), nil
	case ElemFloat:
		return Double(a.rawFloat[i]), nil
	case ElemBool:
		return Bool(a.rawBool[i]), nil
	case ElemChar:
		return Char(a.rawChar[i]), nil
	default:
		return a.objects[i], nil
	}
}

func (a *Array) Set(i int, v Value) error {
	if i < 0 || i >= a.Length {
		return fmt.Errorf("index %d out of bounds for array of length %d", i, a.Length)
	}
	switch a.ElemType {
	case ElemInt:
		a.rawInt[i] = int32(mustInt(v))
	case ElemLong:
		a.rawLong[i] = int64(mustLong(v))
	case ElemDouble:
		a.rawDouble[i] = float64(mustDouble(v))
	case ElemFloat:
		a.rawFloat[i] = float32(mustDouble(v))
	case ElemBool:
		a.rawBool[i] = bool(Truthy(v) && v.Kind() == KindBool)
	case ElemChar:
		a.rawChar[i] = rune(mustChar(v))
	default:
		a.objects[i] = v
	}
	return nil
}

func mustInt(v Value) Int {
	switch n := v.(type) {
	case Int:
		return n
	case Long:
		return Int(n)
	case Double:
		return Int(n)
	}
	return 0
}
func mustLong(v Value) Long {
	switch n := v.(type) {
	case Int:
		return Long(n)
	case Long:
		return n
	case Double:
		return Long(n)
	}
	return 0
}
func mustDouble(v Value) Double {
	switch n := v.(type) {
	case Int:
		return Double(n)
	case Long:
		return Double(n)
	case Double:
		return n
	}
	return 0
}
func mustChar(v Value) Char {
	if c, ok := v.(Char); ok {
		return c
	}
	return 0
}

func displayString(v Value) string {
	if v == nil {
		return "null"
	}
	if v.Kind() == KindString {
		return fmt.Sprintf("%q", string(v.(String)))
	}
	return v.String()
}
