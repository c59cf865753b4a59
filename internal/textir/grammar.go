// Package textir implements the canonical textual IR format: a
// participle-based PEG grammar and stateful lexer over the IR text form,
// plus a Builder that resolves the parsed names into a wired internal/ir
// graph, and a Printer that renders a Program back out through an
// ir.NameEnv.
package textir

// File is the root grammar node: a sequence of function definitions.
type File struct {
	Functions []*FuncDecl `@@*`
}

// FuncDecl parses `fun @name(%p0: i32, %p1: i1) : i32 { ... }`.
type FuncDecl struct {
	Name   string       `"fun" "@" @Ident "("`
	Params []*ParamDecl `[ @@ ( "," @@ )* ] ")"`
	Ret    *TypeRef     `[ ":" @@ ]`
	Blocks []*BlockDecl `"{" @@+ "}"`
}

// ParamDecl parses `%name: Type`.
type ParamDecl struct {
	Name string  `"%" @Ident ":"`
	Type *TypeRef `@@`
}

// TypeRef parses `i32`, `bool`, `void`, or `ptr<T>`.
type TypeRef struct {
	Ptr  *TypeRef `( "ptr" "<" @@ ">" )`
	Name string   `| @Ident`
}

// BlockDecl parses `label: instr* terminator`.
type BlockDecl struct {
	Label   string       `@Ident ":"`
	Instrs  []*InstrDecl `@@*`
	Term    *TermDecl    `@@`
}

// InstrDecl parses an optional `%name =` result binding followed by one
// instruction body.
type InstrDecl struct {
	Result *string    `[ "%" @Ident "=" ]`
	Body   *InstrBody `@@`
}

// InstrBody is the alternation over every non-terminator instruction kind.
type InstrBody struct {
	Alloc  *AllocInstr  `  @@`
	Store  *StoreInstr  `| @@`
	Load   *LoadInstr   `| @@`
	Binary *BinaryInstr `| @@`
	Unary  *UnaryInstr  `| @@`
	Phi    *PhiInstr    `| @@`
	Call   *CallInstr   `| @@`
}

type AllocInstr struct {
	Type *TypeRef `"alloc" @@`
}

type StoreInstr struct {
	Ptr *Operand `"store" @@ ","`
	Val *Operand `@@`
}

type LoadInstr struct {
	Ptr *Operand `"load" @@`
}

type BinaryInstr struct {
	Op    string   `@("add"|"sub"|"mul"|"div"|"mod"|"and"|"or"|"xor"|"shl"|"shr"|"eq"|"ne"|"lt"|"le"|"gt"|"ge")`
	Left  *Operand `@@ ","`
	Right *Operand `@@`
}

type UnaryInstr struct {
	Op  string   `@("neg"|"not")`
	Val *Operand `@@`
}

// PhiInstr parses `phi Type [ pred: val, pred: val ]`.
type PhiInstr struct {
	Type    *TypeRef         `"phi" @@ "["`
	Sources []*PhiSourceDecl `[ @@ ( "," @@ )* ] "]"`
}

type PhiSourceDecl struct {
	Pred string   `@Ident ":"`
	Val  *Operand `@@`
}

// CallInstr parses `call @target(args...)`.
type CallInstr struct {
	Target string     `"call" "@" @Ident "("`
	Args   []*Operand `[ @@ ( "," @@ )* ] ")"`
}

// TermDecl is the alternation over every terminator kind.
type TermDecl struct {
	Branch *BranchTerm `  @@`
	Jump   *JumpTerm   `| @@`
	Return *ReturnTerm `| @@`
	Exit   *ExitTerm   `| @@`
}

type BranchTerm struct {
	Cond    *Operand `"branch" @@ ","`
	IfTrue  string   `@Ident ","`
	IfFalse string   `@Ident`
}

type JumpTerm struct {
	Target string `"jump" @Ident`
}

type ReturnTerm struct {
	Val *Operand `"return" [ @@ ]`
}

type ExitTerm struct {
	Present bool `@"exit"`
}

// Operand is one of: a typed integer constant (`5 i32`), `undef Type`, or a
// `%name` reference resolved against the enclosing function's value map.
type Operand struct {
	Const *ConstOperand `  @@`
	Undef *UndefOperand `| @@`
	Ref   *string       `| "%" @Ident`
}

type ConstOperand struct {
	Value int64    `@Int`
	Type  *TypeRef `@@`
}

type UndefOperand struct {
	Present bool     `@"undef"`
	Type    *TypeRef `@@`
}
