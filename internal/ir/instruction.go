package ir

import (
	"fmt"

	"midir/internal/types"
)

// Instruction is the capability set shared by every non-terminator IR
// operation inside a BasicBlock. GetResult returns nil for instructions that
// produce no value (Store); everything else produces exactly one SSA value,
// namely the Instruction pointer itself.
type Instruction interface {
	Value
	OperandHolder

	Block() *BasicBlock
	setBlock(b *BasicBlock)
	GetResult() Value
	// Pure reports whether the instruction is free of observable side
	// effects and can therefore be deleted whenever its result is unused.
	Pure() bool
	String() string
}

// instBase is embedded by every concrete Instruction; it tracks parentage
// (which BasicBlock currently owns this instruction, nil once removed).
type instBase struct {
	valueBase
	block *BasicBlock
}

func (i *instBase) Block() *BasicBlock   { return i.block }
func (i *instBase) setBlock(b *BasicBlock) { i.block = b }

// BinaryOpKind enumerates the binary operators. Comparisons always produce
// bool (Integer(1)); the arithmetic/bitwise operators produce the operand
// width.
type BinaryOpKind int

const (
	Add BinaryOpKind = iota
	Sub
	Mul
	Div
	Mod
	And
	Or
	Xor
	Shl
	Shr
	Eq
	Ne
	Lt
	Le
	Gt
	Ge
)

func (k BinaryOpKind) String() string {
	switch k {
	case Add:
		return "add"
	case Sub:
		return "sub"
	case Mul:
		return "mul"
	case Div:
		return "div"
	case Mod:
		return "mod"
	case And:
		return "and"
	case Or:
		return "or"
	case Xor:
		return "xor"
	case Shl:
		return "shl"
	case Shr:
		return "shr"
	case Eq:
		return "eq"
	case Ne:
		return "ne"
	case Lt:
		return "lt"
	case Le:
		return "le"
	case Gt:
		return "gt"
	case Ge:
		return "ge"
	default:
		return "?binop"
	}
}

// IsComparison reports whether k always produces bool.
func (k BinaryOpKind) IsComparison() bool {
	switch k {
	case Eq, Ne, Lt, Le, Gt, Ge:
		return true
	default:
		return false
	}
}

// UnaryOpKind enumerates the unary operators.
type UnaryOpKind int

const (
	Neg UnaryOpKind = iota
	Not
)

func (k UnaryOpKind) String() string {
	switch k {
	case Neg:
		return "neg"
	case Not:
		return "not"
	default:
		return "?unop"
	}
}

// ComputeBinary applies op to two's-complement operands a, b of the given
// width, wrapping the result the same way an interpreter-executed BinaryOp
// would. This is the single arithmetic core shared by ConstantFolding
// and the Interpreter, so the two can never disagree.
func ComputeBinary(op BinaryOpKind, width int, a, b int64) (int64, bool, error) {
	it := &types.Integer{Width: width}
	switch op {
	case Add:
		return it.Wrap(a + b), false, nil
	case Sub:
		return it.Wrap(a - b), false, nil
	case Mul:
		return it.Wrap(a * b), false, nil
	case Div:
		if b == 0 {
			return 0, false, fmt.Errorf("division by zero")
		}
		return it.Wrap(a / b), false, nil
	case Mod:
		if b == 0 {
			return 0, false, fmt.Errorf("modulo by zero")
		}
		return it.Wrap(a % b), false, nil
	case And:
		return it.Wrap(a & b), false, nil
	case Or:
		return it.Wrap(a | b), false, nil
	case Xor:
		return it.Wrap(a ^ b), false, nil
	case Shl:
		return it.Wrap(a << uint(b)), false, nil
	case Shr:
		return it.Wrap(a >> uint(b)), false, nil
	case Eq:
		return boolInt(a == b), true, nil
	case Ne:
		return boolInt(a != b), true, nil
	case Lt:
		return boolInt(a < b), true, nil
	case Le:
		return boolInt(a <= b), true, nil
	case Gt:
		return boolInt(a > b), true, nil
	case Ge:
		return boolInt(a >= b), true, nil
	default:
		return 0, false, fmt.Errorf("unknown binary operator")
	}
}

// ComputeUnary applies op to a two's-complement operand of the given width.
func ComputeUnary(op UnaryOpKind, width int, a int64) (int64, error) {
	it := &types.Integer{Width: width}
	switch op {
	case Neg:
		return it.Wrap(-a), nil
	case Not:
		if width == 1 {
			return boolInt(a == 0), nil
		}
		return it.Wrap(^a), nil
	default:
		return 0, fmt.Errorf("unknown unary operator")
	}
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// Alloc allocates a fresh memory cell holding a value of InnerType and
// produces a Pointer(InnerType). It is the sole way pointers arise; there is
// no pointer arithmetic.
type Alloc struct {
	instBase
	InnerType types.Type
}

func NewAlloc(inner types.Type) *Alloc {
	a := &Alloc{InnerType: inner}
	a.typ = &types.Pointer{Elem: inner}
	return a
}

func (a *Alloc) GetResult() Value       { return a }
func (a *Alloc) Pure() bool             { return true }
func (a *Alloc) Operands() []Value      { return nil }
func (a *Alloc) setOperand(int, Value)  {}
func (a *Alloc) String() string         { return fmt.Sprintf("alloc %s", a.InnerType.String()) }

// Store writes Value into the cell pointed to by Pointer. It produces no
// value and is impure (it is an observable side effect).
type Store struct {
	instBase
	Pointer Value
	Val     Value
}

func NewStore(ptr, val Value) *Store {
	s := &Store{Pointer: ptr, Val: val}
	s.typ = types.VoidType()
	attachOperands(s)
	return s
}

func (s *Store) GetResult() Value  { return nil }
func (s *Store) Pure() bool        { return false }
func (s *Store) Operands() []Value { return []Value{s.Pointer, s.Val} }
func (s *Store) setOperand(i int, v Value) {
	switch i {
	case 0:
		s.Pointer = v
	case 1:
		s.Val = v
	}
}
func (s *Store) String() string {
	return fmt.Sprintf("store %s, %s", formatOperand(s.Pointer), formatOperand(s.Val))
}

// Load reads the cell pointed to by Pointer and produces a value of the
// pointer's element type. It is pure: re-ordering or removing an unused Load
// is always safe (the interpreter still requires the cell be initialized,
// but that is a dynamic property, not a static side effect).
type Load struct {
	instBase
	Pointer Value
}

func NewLoad(ptr Value) *Load {
	l := &Load{Pointer: ptr}
	if p, ok := ptr.Type().(*types.Pointer); ok {
		l.typ = p.Elem
	}
	attachOperands(l)
	return l
}

func (l *Load) GetResult() Value  { return l }
func (l *Load) Pure() bool        { return true }
func (l *Load) Operands() []Value { return []Value{l.Pointer} }
func (l *Load) setOperand(i int, v Value) {
	if i == 0 {
		l.Pointer = v
	}
}
func (l *Load) String() string { return fmt.Sprintf("load %s", formatOperand(l.Pointer)) }

// BinaryOp computes Op(Left, Right).
type BinaryOp struct {
	instBase
	Op          BinaryOpKind
	Left, Right Value
}

func NewBinaryOp(op BinaryOpKind, left, right Value) *BinaryOp {
	b := &BinaryOp{Op: op, Left: left, Right: right}
	if op.IsComparison() {
		b.typ = types.Bool()
	} else {
		b.typ = left.Type()
	}
	attachOperands(b)
	return b
}

func (b *BinaryOp) GetResult() Value  { return b }
func (b *BinaryOp) Pure() bool        { return true }
func (b *BinaryOp) Operands() []Value { return []Value{b.Left, b.Right} }
func (b *BinaryOp) setOperand(i int, v Value) {
	switch i {
	case 0:
		b.Left = v
	case 1:
		b.Right = v
	}
}
func (b *BinaryOp) String() string {
	return fmt.Sprintf("%s %s, %s", b.Op, formatOperand(b.Left), formatOperand(b.Right))
}

// UnaryOp computes Op(Val).
type UnaryOp struct {
	instBase
	Op  UnaryOpKind
	Val Value
}

func NewUnaryOp(op UnaryOpKind, val Value) *UnaryOp {
	u := &UnaryOp{Op: op, Val: val}
	u.typ = val.Type()
	attachOperands(u)
	return u
}

func (u *UnaryOp) GetResult() Value  { return u }
func (u *UnaryOp) Pure() bool        { return true }
func (u *UnaryOp) Operands() []Value { return []Value{u.Val} }
func (u *UnaryOp) setOperand(i int, v Value) {
	if i == 0 {
		u.Val = v
	}
}
func (u *UnaryOp) String() string { return fmt.Sprintf("%s %s", u.Op, formatOperand(u.Val)) }

// PhiSource pairs an incoming value with the predecessor block it arrives
// from. Sources are stored as an ordered slice rather than a map so that
// operand slots have stable indices for ReplaceOperand.
type PhiSource struct {
	Pred  *BasicBlock
	Value Value
}

// Phi selects one of several incoming values based on which predecessor
// control arrived from. domain(Sources) must equal the owning block's
// predecessor set.
type Phi struct {
	instBase
	Sources []*PhiSource
}

func NewPhi(typ types.Type) *Phi {
	p := &Phi{}
	p.typ = typ
	return p
}

func (p *Phi) GetResult() Value  { return p }
func (p *Phi) Pure() bool        { return true }
func (p *Phi) Operands() []Value {
	ops := make([]Value, len(p.Sources))
	for i, s := range p.Sources {
		ops[i] = s.Value
	}
	return ops
}
func (p *Phi) setOperand(i int, v Value) {
	if i >= 0 && i < len(p.Sources) {
		p.Sources[i].Value = v
	}
}

// SourceFor returns the incoming value for pred, and whether it was found.
func (p *Phi) SourceFor(pred *BasicBlock) (Value, bool) {
	for _, s := range p.Sources {
		if s.Pred == pred {
			return s.Value, true
		}
	}
	return nil, false
}

// AddSource appends an incoming (pred, value) pair and registers the use.
func (p *Phi) AddSource(pred *BasicBlock, val Value) {
	p.Sources = append(p.Sources, &PhiSource{Pred: pred, Value: val})
	idx := len(p.Sources) - 1
	registerUse(val, p, idx)
}

// RemoveSource drops the source for pred, unregistering its use and
// re-indexing the remaining sources' use-sites so every Use.Index still
// matches its slot in Sources.
func (p *Phi) RemoveSource(pred *BasicBlock) {
	for i, src := range p.Sources {
		if src.Pred != pred {
			continue
		}
		unregisterUse(src.Value, p, i)
		p.Sources = append(p.Sources[:i], p.Sources[i+1:]...)
		for j := i; j < len(p.Sources); j++ {
			unregisterUse(p.Sources[j].Value, p, j+1)
			registerUse(p.Sources[j].Value, p, j)
		}
		return
	}
}

func (p *Phi) String() string {
	s := "phi " + p.typ.String() + " ["
	for i, src := range p.Sources {
		if i > 0 {
			s += ", "
		}
		s += src.Pred.Label + ": " + formatOperand(src.Value)
	}
	return s + "]"
}

// Call invokes Target with Args and produces Target's declared return type.
// A Call is pure only when Target is marked pure (e.g. has no observable
// effect); calls into functions with any impure instruction are impure.
type Call struct {
	instBase
	Target *Function
	Args   []Value
}

func NewCall(target *Function, args []Value) *Call {
	c := &Call{Target: target, Args: args}
	c.typ = target.ReturnType
	attachOperands(c)
	return c
}

func (c *Call) GetResult() Value {
	if _, ok := c.typ.(*types.Void); ok {
		return nil
	}
	return c
}
func (c *Call) Pure() bool { return c.Target != nil && c.Target.Pure() }
func (c *Call) Operands() []Value {
	ops := make([]Value, len(c.Args)+1)
	copy(ops, c.Args)
	ops[len(c.Args)] = c.Target
	return ops
}
func (c *Call) setOperand(i int, v Value) {
	if i == len(c.Args) {
		c.Target = v.(*Function)
		return
	}
	if i >= 0 && i < len(c.Args) {
		c.Args[i] = v
	}
}
func (c *Call) String() string {
	s := fmt.Sprintf("call @%s(", c.Target.Name)
	for i, a := range c.Args {
		if i > 0 {
			s += ", "
		}
		s += formatOperand(a)
	}
	return s + ")"
}
