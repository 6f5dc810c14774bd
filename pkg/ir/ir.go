package ir

import "github.com/iridescent-lang/iridescentc/pkg/ast"

// ----------------------------------------------------------------------------
// General information

// This file mirrors vm.go's shape: a shared 'Operation' interface implemented
// by a handful of generic, enum-tagged structs (vm.MemoryOp{Operation,
// Segment, Offset}, vm.ArithmeticOp{Operation}) rather than one Go type per
// opcode. The IR here follows the same idiom: most of the stack-effect
// opcodes of spec §4.3 share one ArithmeticOp{Op, Type} struct, keyed exactly
// like the MIPS template table of spec §6.2 ("op" then "int"/"long"), so the
// later mips.CodeGenerator can switch on (Op, Type) the same way
// vm.CodeGenerator.Generate switches on Go type.

// Program is the ordered set of per-function modules, the direct analogue of
// vm.Program ([]Module, one per Jack class) — here one FuncModule per
// Iridescent function, in declaration order (ast.Program.Functions is
// already order-preserving, so Program inherits spec §8's determinism
// requirement for free).
type Program []FuncModule

// FuncModule is one function's lowered instruction stream plus the frame
// size the MIPS prologue needs to reserve (spec §4.4 FUNC_START).
type FuncModule struct {
	Name      string
	FrameSize int
	Ops       Module
}

// Module is a linear list of IR operations, the direct analogue of vm.Module.
type Module []Operation

// Operation is the shared marker for every IR instruction, mirroring
// vm.Operation (an empty interface switched on by Go type in codegen).
type Operation interface{}

// Op names every opcode spec §6.2's MIPS template table is keyed by. Keeping
// this as a string type (rather than inventing Go-only opcode names) means
// the field can be used directly as a template-table key with no translation
// layer between pkg/ir and pkg/mips.
type Op string

const (
	OpPush  Op = "push"
	OpLoad  Op = "load"
	OpStore Op = "store"

	OpAdd  Op = "add"
	OpSub  Op = "sub"
	OpMult Op = "mult"
	OpDiv  Op = "div"

	OpBitwiseAnd Op = "bitwise_and"
	OpBitwiseOr  Op = "bitwise_or"
	OpBitwiseXor Op = "bitwise_xor"
	OpSll        Op = "sll"
	OpSrl        Op = "srl"
	OpSra        Op = "sra"

	OpNumericalNeg Op = "numerical_neg"
	OpComplement   Op = "complement"

	OpTestEqual         Op = "test_equal"
	OpTestUnequal       Op = "test_unequal"
	OpTestGreaterThan   Op = "test_greater_than"
	OpTestGreaterEqual  Op = "test_greater_equal"
	OpTestLessThan      Op = "test_less_than"
	OpTestLessEqual     Op = "test_less_equal"

	OpLogicalAnd Op = "logical_and"
	OpLogicalOr  Op = "logical_or"
	OpLogicalXor Op = "logical_xor"
	OpLogicalNeg Op = "logical_neg"

	OpJump     Op = "jump"
	OpJumpZero Op = "jump_zero"
	OpLabel    Op = "label"

	OpStartFunc Op = "start_func"
	OpReturn    Op = "return"
	OpCall      Op = "call"

	OpPrint Op = "print"
	OpInput Op = "input"
	OpCast  Op = "cast"
)

// ----------------------------------------------------------------------------
// Stack/memory ops

// PushOp pushes a compile-time-constant value (spec §4.3 "PUSH L : type").
type PushOp struct {
	Type ast.PrimType
	Lit  ast.Literal
}

// LoadOp pushes the value currently stored at a frame-relative offset.
type LoadOp struct {
	Type   ast.PrimType
	Offset int
}

// StoreOp pops the top of the stack into a frame-relative offset.
type StoreOp struct {
	Type   ast.PrimType
	Offset int
}

// ----------------------------------------------------------------------------
// Arithmetic/logical/comparison ops

// ArithmeticOp covers every binary/unary numeric opcode (add..complement,
// shifts, comparisons): it pops its operand(s) and pushes one result, typed
// by the operand type (comparisons still carry the operand type, since the
// MIPS template table is keyed on it — the result is always a 4-byte bool).
type ArithmeticOp struct {
	Op   Op
	Type ast.PrimType
}

// LogicalOp covers the boolean connectives and '!' — always 4-byte operands,
// so (unlike ArithmeticOp) there is no type variant to key on.
type LogicalOp struct{ Op Op }

// CastOp converts the top-of-stack value from one numeric type to another.
type CastOp struct{ From, To ast.PrimType }

// ----------------------------------------------------------------------------
// Control flow

type LabelOp struct{ Name string }
type JumpOp struct{ Label string }

// JumpZeroOp pops one value and jumps to Label when it is the MIPS-level
// false representation (zero) — see spec §9 item 1 and SPEC_FULL's resolved
// Open Question: "jump to the else/exit label when the condition is false".
type JumpZeroOp struct{ Label string }

// ----------------------------------------------------------------------------
// Functions

type StartFuncOp struct {
	Name      string
	FrameSize int
}

// ReturnOp unwinds the current frame; HasValue is false only for a bare
// 'return;' inside a void function.
type ReturnOp struct {
	Type     ast.PrimType
	HasValue bool
}

// CallOp invokes a function after its arguments have already been lowered
// left-to-right onto the stack (spec §9 item 5 / SPEC_FULL §5.5).
type CallOp struct {
	Name     string
	ArgTypes []ast.PrimType
	Return   ast.PrimType
}

// ----------------------------------------------------------------------------
// I/O

type PrintOp struct{ Type ast.PrimType }

// InputOp reads up to Max bytes from stdin into a scratch buffer and stores
// the result at Offset. Type picks what ends up at Offset: 'string' stores
// the buffer pointer directly; any other Type parses the raw bytes with the
// '__fromstring_int' runtime helper (spec §6.4) and stores its 32-bit result,
// sign-extended into both words for a long-class Type.
type InputOp struct {
	Type   ast.PrimType
	Max    int
	Offset int
}
