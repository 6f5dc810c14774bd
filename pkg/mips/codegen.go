package mips

import (
	"fmt"
	"strings"

	"github.com/iridescent-lang/iridescentc/pkg/ast"
	"github.com/iridescent-lang/iridescentc/pkg/ir"
)

// CodeGenerator renders a lowered ir.Program to MIPS assembly text, one line
// per emitted instruction. Mirrors ir.CodeGenerator's shape (a Generate<X>Op
// method per IR op, individually testable, switched over by a Generate
// dispatcher) one layer further down the pipeline.
type CodeGenerator struct {
	program ir.Program

	strings []string // literal string constants, in first-seen order
	buffers []int    // input() scratch buffer sizes, in first-seen order
}

func NewCodeGenerator(program ir.Program) *CodeGenerator {
	return &CodeGenerator{program: program}
}

// Generate walks every function's IR and renders it to MIPS assembly,
// followed by a '.data' section for any string constants/input buffers
// collected along the way, and finally the runtime prelude appended
// verbatim (spec §4.4 "Output assembly").
func (cg *CodeGenerator) Generate() ([]string, error) {
	var body []string
	for _, module := range cg.program {
		for _, operation := range module.Ops {
			lines, err := cg.generateOne(operation, module.FrameSize)
			if err != nil {
				return nil, fmt.Errorf("mips: in function %q: %w", module.Name, err)
			}
			body = append(body, lines...)
		}
	}

	var out []string
	if len(cg.strings) > 0 || len(cg.buffers) > 0 {
		out = append(out, ".data")
		for i, raw := range cg.strings {
			out = append(out, fmt.Sprintf("__str_%d: .asciiz %s", i, raw))
		}
		for i, size := range cg.buffers {
			out = append(out, fmt.Sprintf("__inbuf_%d: .space %d", i, size))
		}
	}

	out = append(out, ".text", ".globl main")
	out = append(out, body...)
	out = append(out, strings.Split(Prelude, "\n")...)
	return out, nil
}

func (cg *CodeGenerator) generateOne(operation ir.Operation, frameSize int) ([]string, error) {
	switch op := operation.(type) {
	case ir.PushOp:
		return cg.GeneratePushOp(op)
	case ir.LoadOp:
		return cg.GenerateLoadOp(op)
	case ir.StoreOp:
		return cg.GenerateStoreOp(op)
	case ir.ArithmeticOp:
		return cg.GenerateArithmeticOp(op)
	case ir.LogicalOp:
		return cg.GenerateLogicalOp(op)
	case ir.CastOp:
		return cg.GenerateCastOp(op)
	case ir.LabelOp:
		return cg.GenerateLabelOp(op)
	case ir.JumpOp:
		return cg.GenerateJumpOp(op)
	case ir.JumpZeroOp:
		return cg.GenerateJumpZeroOp(op)
	case ir.StartFuncOp:
		return cg.GenerateStartFuncOp(op)
	case ir.ReturnOp:
		return cg.GenerateReturnOp(op, frameSize)
	case ir.CallOp:
		return cg.GenerateCallOp(op)
	case ir.PrintOp:
		return cg.GeneratePrintOp(op)
	case ir.InputOp:
		return cg.GenerateInputOp(op)
	default:
		return nil, fmt.Errorf("mips: unrecognized operation %T", operation)
	}
}

// ----------------------------------------------------------------------------
// Template lookup helpers

// typeClass maps a primitive type onto the class key spec §6.2's template
// table is keyed by. Floating-point types have no class: spec.md's
// floating-point code generation is explicitly out of scope.
func typeClass(t ast.PrimType) (string, error) {
	if t == ast.Float || t == ast.Double {
		return "", fmt.Errorf("floating-point code generation is not supported for type %q", t)
	}
	if t.SlotSize() == 8 {
		return "long", nil
	}
	return "int", nil
}

func template(op, class string) ([]string, error) {
	variants, ok := Templates[op]
	if !ok {
		return nil, fmt.Errorf("no template registered for op %q", op)
	}
	lines, ok := variants[class]
	if !ok {
		return nil, fmt.Errorf("op %q has no %q template variant", op, class)
	}
	return lines, nil
}

// fill substitutes each positional '{n}' placeholder in lines with args[n],
// returning a fresh slice so the cached template table is never mutated.
func fill(lines []string, args ...any) []string {
	out := make([]string, len(lines))
	for i, line := range lines {
		for j, arg := range args {
			line = strings.ReplaceAll(line, fmt.Sprintf("{%d}", j), fmt.Sprint(arg))
		}
		out[i] = line
	}
	return out
}

func splitLong(v int64) (lo, hi int32) {
	u := uint64(v)
	return int32(uint32(u)), int32(uint32(u >> 32))
}

// ----------------------------------------------------------------------------
// Stack/memory ops

// GeneratePushOp renders a literal push. String literals bypass the
// template table entirely (spec §6.2 only covers int/long push shapes): the
// constant is interned into the '.data' section and its address is pushed
// as the low word of an 8-byte slot, so later load/store of a string
// variable can still go through the generic "long" template.
func (cg *CodeGenerator) GeneratePushOp(op ir.PushOp) ([]string, error) {
	if op.Type == ast.String {
		label := cg.internString(op.Lit.Raw)
		return []string{
			fmt.Sprintf("la $t0, %s", label),
			"sw $zero, 0($sp)",
			"sw $t0, -4($sp)",
			"addiu $sp, $sp, -8",
		}, nil
	}

	class, err := typeClass(op.Type)
	if err != nil {
		return nil, err
	}

	lines, err := template(string(ir.OpPush), class)
	if err != nil {
		return nil, err
	}
	if class == "long" {
		lo, hi := splitLong(op.Lit.IntVal)
		return fill(lines, lo, hi), nil
	}
	return fill(lines, op.Lit.IntVal), nil
}

func (cg *CodeGenerator) GenerateLoadOp(op ir.LoadOp) ([]string, error) {
	class, err := typeClass(op.Type)
	if err != nil {
		return nil, err
	}
	lines, err := template(string(ir.OpLoad), class)
	if err != nil {
		return nil, err
	}
	if class == "long" {
		return fill(lines, op.Offset, op.Offset-4), nil
	}
	return fill(lines, op.Offset), nil
}

func (cg *CodeGenerator) GenerateStoreOp(op ir.StoreOp) ([]string, error) {
	class, err := typeClass(op.Type)
	if err != nil {
		return nil, err
	}
	lines, err := template(string(ir.OpStore), class)
	if err != nil {
		return nil, err
	}
	if class == "long" {
		return fill(lines, op.Offset, op.Offset-4), nil
	}
	return fill(lines, op.Offset), nil
}

// ----------------------------------------------------------------------------
// Arithmetic/logical/comparison ops

func (cg *CodeGenerator) GenerateArithmeticOp(op ir.ArithmeticOp) ([]string, error) {
	if op.Op == "" {
		return nil, fmt.Errorf("mips: arithmetic op has no Op set")
	}
	class, err := typeClass(op.Type)
	if err != nil {
		return nil, err
	}
	lines, err := template(string(op.Op), class)
	if err != nil {
		return nil, err
	}
	return append([]string(nil), lines...), nil
}

func (cg *CodeGenerator) GenerateLogicalOp(op ir.LogicalOp) ([]string, error) {
	if op.Op == "" {
		return nil, fmt.Errorf("mips: logical op has no Op set")
	}
	lines, err := template(string(op.Op), "_")
	if err != nil {
		return nil, err
	}
	return append([]string(nil), lines...), nil
}

// GenerateCastOp is bespoke (spec §6.2's template table has no 'cast' entry):
// a cast only ever changes how many words a value occupies and, narrowing to
// byte, how many of its bits survive — there's no template-table shape
// general enough to cover "pop N words, push M" for every (From, To) pair.
func (cg *CodeGenerator) GenerateCastOp(op ir.CastOp) ([]string, error) {
	from, err := typeClass(op.From)
	if err != nil {
		return nil, err
	}
	to, err := typeClass(op.To)
	if err != nil {
		return nil, err
	}

	switch {
	case from == "int" && to == "int":
		return maskTo(op.To), nil
	case from == "int" && to == "long":
		return []string{
			"addiu $sp, $sp, 4",
			"lw $t0, 0($sp)",
			"sra $t1, $t0, 31",
			"sw $t1, 0($sp)",
			"sw $t0, -4($sp)",
			"addiu $sp, $sp, -8",
		}, nil
	case from == "long" && to == "int":
		lines := []string{
			"addiu $sp, $sp, 8",
			"lw $t0, -4($sp)",
			"sw $t0, 0($sp)",
			"addiu $sp, $sp, -4",
		}
		return append(lines, maskTo(op.To)...), nil
	default: // long -> long: already an 8-byte slot, nothing to do
		return nil, nil
	}
}

// maskTo narrows a freshly-pushed 4-byte int-class value down to the
// destination's bit width. Only 'byte' actually loses bits; every other
// int-class type (int/char) already occupies the full word.
func maskTo(t ast.PrimType) []string {
	if t != ast.Byte {
		return nil
	}
	return []string{
		"addiu $sp, $sp, 4",
		"lw $t0, 0($sp)",
		"andi $t0, $t0, 0xff",
		"sw $t0, 0($sp)",
		"addiu $sp, $sp, -4",
	}
}

// ----------------------------------------------------------------------------
// Control flow

func (cg *CodeGenerator) GenerateLabelOp(op ir.LabelOp) ([]string, error) {
	lines, err := template(string(ir.OpLabel), "_")
	if err != nil {
		return nil, err
	}
	return fill(lines, op.Name), nil
}

func (cg *CodeGenerator) GenerateJumpOp(op ir.JumpOp) ([]string, error) {
	lines, err := template(string(ir.OpJump), "_")
	if err != nil {
		return nil, err
	}
	return fill(lines, op.Label), nil
}

func (cg *CodeGenerator) GenerateJumpZeroOp(op ir.JumpZeroOp) ([]string, error) {
	lines, err := template(string(ir.OpJumpZero), "_")
	if err != nil {
		return nil, err
	}
	return fill(lines, op.Label), nil
}

// ----------------------------------------------------------------------------
// Functions

func (cg *CodeGenerator) GenerateStartFuncOp(op ir.StartFuncOp) ([]string, error) {
	lines, err := template(string(ir.OpStartFunc), "_")
	if err != nil {
		return nil, err
	}
	return fill(lines, op.Name, op.FrameSize), nil
}

// GenerateReturnOp needs the enclosing function's frame size to emit the
// epilogue's 'addiu $sp,$sp,{0}' — ir.ReturnOp itself carries no frame size
// (it's a property of the function, not the individual return), so the
// caller (Generate) threads it through from the enclosing FuncModule.
func (cg *CodeGenerator) GenerateReturnOp(op ir.ReturnOp, frameSize int) ([]string, error) {
	class := "void"
	if op.HasValue {
		c, err := typeClass(op.Type)
		if err != nil {
			return nil, err
		}
		class = c
	}
	lines, err := template(string(ir.OpReturn), class)
	if err != nil {
		return nil, err
	}
	return fill(lines, frameSize), nil
}

// GenerateCallOp is bespoke: spec §6.2's template table has no 'call' entry
// since a call site is just 'jal name' (arguments are already on the stack
// from preceding PushOp/etc lowering, spec §9 item 5), plus — since this
// back-end returns values in $a0/$a1 rather than on the stack — pushing the
// callee's result so the rest of the expression stack machine sees it the
// same way a PushOp/LoadOp result would look.
func (cg *CodeGenerator) GenerateCallOp(op ir.CallOp) ([]string, error) {
	if op.Name == "" {
		return nil, fmt.Errorf("mips: call op has no callee name")
	}
	lines := []string{fmt.Sprintf("jal %s", op.Name)}
	if op.Return == ast.Void {
		return lines, nil
	}

	class, err := typeClass(op.Return)
	if err != nil {
		return nil, err
	}
	if class == "long" {
		return append(lines, "sw $a1, 0($sp)", "sw $a0, -4($sp)", "addiu $sp, $sp, -8"), nil
	}
	return append(lines, "sw $a0, 0($sp)", "addiu $sp, $sp, -4"), nil
}

// ----------------------------------------------------------------------------
// I/O

// GeneratePrintOp is bespoke (spec §6.2 lists 'print' among the ops the
// template table doesn't cover): each type reaches stdout through the SPIM
// syscall convention appropriate to it. 'long' operands print only their
// low word — a documented simplification, there being no 64-bit print
// syscall and the runtime prelude exposing no helper for one.
func (cg *CodeGenerator) GeneratePrintOp(op ir.PrintOp) ([]string, error) {
	switch op.Type {
	case ast.Float, ast.Double:
		return nil, fmt.Errorf("mips: floating-point code generation is not supported for type %q", op.Type)
	case ast.String:
		return []string{
			"addiu $sp, $sp, 8",
			"lw $a0, -4($sp)",
			"li $v0, 4",
			"syscall",
		}, nil
	case ast.Char:
		return []string{
			"addiu $sp, $sp, 4",
			"lw $a0, 0($sp)",
			"li $v0, 11",
			"syscall",
		}, nil
	case ast.Long:
		return []string{
			"addiu $sp, $sp, 8",
			"lw $a0, -4($sp)",
			"li $v0, 1",
			"syscall",
		}, nil
	default: // int, byte, bool
		return []string{
			"addiu $sp, $sp, 4",
			"lw $a0, 0($sp)",
			"li $v0, 1",
			"syscall",
		}, nil
	}
}

// GenerateInputOp is bespoke: it reads raw bytes via the SPIM 'read string'
// syscall into an interned scratch buffer, then either stores the buffer
// pointer directly (string) or routes the bytes through '__fromstring_int'
// (any numeric type) before storing the parsed value.
func (cg *CodeGenerator) GenerateInputOp(op ir.InputOp) ([]string, error) {
	if op.Max < 2 {
		return nil, fmt.Errorf("mips: input buffer size must be at least 2, got %d", op.Max)
	}

	buf := cg.internBuffer(op.Max)
	lines := []string{
		fmt.Sprintf("la $a0, %s", buf),
		fmt.Sprintf("li $a1, %d", op.Max),
		"li $v0, 8",
		"syscall",
	}

	if op.Type == ast.String {
		return append(lines,
			fmt.Sprintf("sw $zero, %d($fp)", op.Offset),
			fmt.Sprintf("la $t0, %s", buf),
			fmt.Sprintf("sw $t0, %d($fp)", op.Offset-4),
		), nil
	}

	class, err := typeClass(op.Type)
	if err != nil {
		return nil, err
	}

	lines = append(lines, fmt.Sprintf("la $a0, %s", buf), "jal __fromstring_int")
	if class == "long" {
		return append(lines,
			"sra $t0, $v0, 31",
			fmt.Sprintf("sw $t0, %d($fp)", op.Offset),
			fmt.Sprintf("sw $v0, %d($fp)", op.Offset-4),
		), nil
	}
	return append(lines, fmt.Sprintf("sw $v0, %d($fp)", op.Offset)), nil
}

// ----------------------------------------------------------------------------
// '.data' interning

func (cg *CodeGenerator) internString(raw string) string {
	for i, s := range cg.strings {
		if s == raw {
			return fmt.Sprintf("__str_%d", i)
		}
	}
	cg.strings = append(cg.strings, raw)
	return fmt.Sprintf("__str_%d", len(cg.strings)-1)
}

func (cg *CodeGenerator) internBuffer(size int) string {
	label := fmt.Sprintf("__inbuf_%d", len(cg.buffers))
	cg.buffers = append(cg.buffers, size)
	return label
}
