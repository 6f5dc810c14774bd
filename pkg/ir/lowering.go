package ir

import (
	"fmt"

	"github.com/iridescent-lang/iridescentc/pkg/ast"
	"github.com/iridescent-lang/iridescentc/pkg/sema"
)

// ----------------------------------------------------------------------------
// Lowerer

// Lowerer walks a sema-validated ast.Program and produces its ir.Program
// counterpart, mirroring vm.Lowerer's shape (a struct wrapping the input,
// one Handle-style method per node kind) generalised from "walk a raw parse
// tree" to "walk the typed AST" since pkg/ast already did that DFS once.
type Lowerer struct {
	functions sema.FunctionTable
}

func NewLowerer(functions sema.FunctionTable) Lowerer {
	return Lowerer{functions: functions}
}

// slot is one resolved local's frame offset and type.
type slot struct {
	offset int
	typ    ast.PrimType
}

// loopFrame is the break/continue target pair of one open loop, the direct
// analogue of spec §4.3's "push LoopFrame{break=L_end, continue=L_top}".
type loopFrame struct{ breakLabel, continueLabel string }

// funcCtx carries all per-function lowering state: frame layout, the block
// stack for name resolution/shadowing (mirrors sema.ScopeTable), the open
// loops, and a monotonic label counter reset at each function boundary
// (spec §5 "Label/offset counters are per-function").
type funcCtx struct {
	fn           ast.FunctionDecl
	blocks       []map[string]slot
	cursor       int // current downward extent from $fp, in bytes
	frameSize    int // high-water mark of cursor
	labelCounter int
	loops        []loopFrame
}

func newFuncCtx(fn ast.FunctionDecl) *funcCtx {
	return &funcCtx{fn: fn, blocks: []map[string]slot{{}}}
}

func (c *funcCtx) pushBlock() { c.blocks = append(c.blocks, map[string]slot{}) }
func (c *funcCtx) popBlock()  { c.blocks = c.blocks[:len(c.blocks)-1] }

func (c *funcCtx) declare(name string, typ ast.PrimType) slot {
	size := typ.SlotSize()
	extent := c.cursor
	if rem := extent % size; rem != 0 {
		extent += size - rem
	}
	extent += size

	c.cursor = extent
	if extent > c.frameSize {
		c.frameSize = extent
	}

	s := slot{offset: -extent, typ: typ}
	c.blocks[len(c.blocks)-1][name] = s
	return s
}

func (c *funcCtx) resolve(name string) (slot, error) {
	for i := len(c.blocks) - 1; i >= 0; i-- {
		if s, ok := c.blocks[i][name]; ok {
			return s, nil
		}
	}
	return slot{}, fmt.Errorf("ir: unresolved identifier '%s' (sema should have rejected this)", name)
}

func (c *funcCtx) newLabel(tag string) string {
	c.labelCounter++
	return fmt.Sprintf("L_%s_%d_%s", c.fn.Name, c.labelCounter, tag)
}

func (c *funcCtx) pushLoop(frame loopFrame) { c.loops = append(c.loops, frame) }
func (c *funcCtx) popLoop()                 { c.loops = c.loops[:len(c.loops)-1] }

func (c *funcCtx) currentLoop() (loopFrame, error) {
	if len(c.loops) == 0 {
		return loopFrame{}, fmt.Errorf("ir: break/continue outside of a loop (sema should have rejected this)")
	}
	return c.loops[len(c.loops)-1], nil
}

// ----------------------------------------------------------------------------
// Program / function lowering

func (l *Lowerer) Lower(program ast.Program) (Program, error) {
	var out Program
	for _, fn := range program.Functions {
		mod, err := l.lowerFunction(fn)
		if err != nil {
			return nil, err
		}
		out = append(out, mod)
	}
	return out, nil
}

func (l *Lowerer) lowerFunction(fn ast.FunctionDecl) (FuncModule, error) {
	ctx := newFuncCtx(fn)

	paramSlots := make([]slot, len(fn.Params))
	for i, param := range fn.Params {
		paramSlots[i] = ctx.declare(param.Name, param.Type)
	}

	var body []Operation
	// Caller pushed arguments left-to-right, so the top of the stack holds
	// the rightmost argument; popping (storing) in reverse order lines each
	// value up with its parameter slot (spec §9 item 5 / SPEC_FULL §5.5).
	for i := len(paramSlots) - 1; i >= 0; i-- {
		body = append(body, StoreOp{Type: paramSlots[i].typ, Offset: paramSlots[i].offset})
	}

	for _, stmt := range fn.Body {
		ops, err := l.lowerStatement(ctx, stmt)
		if err != nil {
			return FuncModule{}, err
		}
		body = append(body, ops...)
	}

	// A non-void function is only accepted by sema.Analyser when every path
	// through its body already ends in an explicit Return, so nothing needs
	// synthesizing there — doing so unconditionally off "is the last emitted
	// op a ReturnOp" is wrong: an if/else whose branches both return still
	// ends the instruction stream on the shared end label, not a ReturnOp.
	// A void function has no such guarantee and may fall off the end, unless
	// it already ends in its own explicit bare 'return;'.
	if fn.Return == ast.Void && !endsInReturn(body) {
		body = append(body, ReturnOp{Type: ast.Void, HasValue: false})
	}

	ops := append([]Operation{StartFuncOp{Name: fn.Name, FrameSize: ctx.frameSize}}, body...)
	return FuncModule{Name: fn.Name, FrameSize: ctx.frameSize, Ops: ops}, nil
}

func endsInReturn(ops []Operation) bool {
	if len(ops) == 0 {
		return false
	}
	_, ok := ops[len(ops)-1].(ReturnOp)
	return ok
}

// ----------------------------------------------------------------------------
// Statements

func (l *Lowerer) lowerStatement(ctx *funcCtx, stmt ast.Statement) ([]Operation, error) {
	switch s := stmt.(type) {
	case ast.VarDecl:
		return l.lowerVarDecl(ctx, s)
	case ast.VarAssign:
		return l.lowerVarAssign(ctx, s)
	case ast.Return:
		return l.lowerReturn(ctx, s)
	case ast.If:
		return l.lowerIf(ctx, s)
	case ast.While:
		return l.lowerWhile(ctx, s)
	case ast.IndefiniteLoop:
		return l.lowerIndefiniteLoop(ctx, s)
	case ast.ForLoop:
		return l.lowerForLoop(ctx, s)
	case ast.Print:
		return l.lowerPrint(ctx, s)
	case ast.Input:
		return l.lowerInput(ctx, s)
	case ast.Break:
		frame, err := ctx.currentLoop()
		if err != nil {
			return nil, err
		}
		return []Operation{JumpOp{Label: frame.breakLabel}}, nil
	case ast.Continue:
		frame, err := ctx.currentLoop()
		if err != nil {
			return nil, err
		}
		return []Operation{JumpOp{Label: frame.continueLabel}}, nil
	case ast.FunctionCallStmt:
		ops, _, err := l.lowerFuncCall(ctx, s.Call)
		return ops, err
	default:
		return nil, fmt.Errorf("ir: unrecognized statement %T", stmt)
	}
}

func (l *Lowerer) lowerVarDecl(ctx *funcCtx, decl ast.VarDecl) ([]Operation, error) {
	rhs, err := l.lowerRHS(ctx, decl.Type, decl.Expr, decl.BoolExpr, decl.Ternary)
	if err != nil {
		return nil, err
	}
	s := ctx.declare(decl.Name, decl.Type)
	return append(rhs, StoreOp{Type: decl.Type, Offset: s.offset}), nil
}

func (l *Lowerer) lowerVarAssign(ctx *funcCtx, assign ast.VarAssign) ([]Operation, error) {
	s, err := ctx.resolve(assign.Name)
	if err != nil {
		return nil, err
	}

	boolExpr := assign.BoolExpr
	expr := assign.Expr
	// Mirrors sema.Analyser.analyseVarAssign's fallback: a bare identifier
	// RHS was built as an Expression (pkg/ast has no declared type to
	// disambiguate with at parse time); reinterpret it the same way here.
	if s.typ == ast.Bool && boolExpr == nil {
		if ident, ok := expr.(ast.Identifier); ok {
			boolExpr, expr = ast.BoolVar{Name: ident.Name}, nil
		}
	}

	rhs, err := l.lowerRHS(ctx, s.typ, expr, boolExpr, assign.Ternary)
	if err != nil {
		return nil, err
	}
	return append(rhs, StoreOp{Type: s.typ, Offset: s.offset}), nil
}

// lowerRHS lowers whichever of the three mutually-exclusive RHS shapes is
// present, leaving exactly one value of 'declType' on the stack.
func (l *Lowerer) lowerRHS(ctx *funcCtx, declType ast.PrimType, expr ast.Expression, boolExpr ast.BooleanExpression, ternary *ast.TernaryExpr) ([]Operation, error) {
	switch {
	case ternary != nil:
		return l.lowerTernary(ctx, *ternary)
	case boolExpr != nil:
		return l.lowerBoolExpr(ctx, boolExpr)
	default:
		return l.lowerExpr(ctx, expr)
	}
}

func (l *Lowerer) lowerReturn(ctx *funcCtx, ret ast.Return) ([]Operation, error) {
	if ret.Expr == nil {
		return []Operation{ReturnOp{Type: ctx.fn.Return, HasValue: false}}, nil
	}
	ops, err := l.lowerExpr(ctx, ret.Expr)
	if err != nil {
		return nil, err
	}
	return append(ops, ReturnOp{Type: ctx.fn.Return, HasValue: true}), nil
}

// lowerIf implements spec §4.3's If/Elif/Else rule: a chain of
// condition-then-next-label blocks, sharing one end label; a present Else
// simply falls through the final "next" label with no test of its own.
func (l *Lowerer) lowerIf(ctx *funcCtx, stmt ast.If) ([]Operation, error) {
	var ops []Operation
	endLabel := ctx.newLabel("if_end")

	type branch struct {
		cond ast.BooleanExpression
		body []ast.Statement
	}
	branches := append([]branch{{stmt.Cond, stmt.Then}}, func() []branch {
		var bs []branch
		for _, elif := range stmt.Elifs {
			bs = append(bs, branch{elif.Cond, elif.Body})
		}
		return bs
	}()...)

	for _, b := range branches {
		condOps, err := l.lowerBoolExpr(ctx, b.cond)
		if err != nil {
			return nil, err
		}
		nextLabel := ctx.newLabel("if_next")

		ops = append(ops, condOps...)
		ops = append(ops, JumpZeroOp{Label: nextLabel})

		ctx.pushBlock()
		bodyOps, err := l.lowerBlock(ctx, b.body)
		ctx.popBlock()
		if err != nil {
			return nil, err
		}
		ops = append(ops, bodyOps...)
		ops = append(ops, JumpOp{Label: endLabel})
		ops = append(ops, LabelOp{Name: nextLabel})
	}

	if stmt.Else != nil {
		ctx.pushBlock()
		elseOps, err := l.lowerBlock(ctx, stmt.Else)
		ctx.popBlock()
		if err != nil {
			return nil, err
		}
		ops = append(ops, elseOps...)
	}

	ops = append(ops, LabelOp{Name: endLabel})
	return ops, nil
}

func (l *Lowerer) lowerWhile(ctx *funcCtx, stmt ast.While) ([]Operation, error) {
	topLabel := ctx.newLabel("while_top")
	endLabel := ctx.newLabel("while_end")

	condOps, err := l.lowerBoolExpr(ctx, stmt.Cond)
	if err != nil {
		return nil, err
	}

	ops := []Operation{LabelOp{Name: topLabel}}
	ops = append(ops, condOps...)
	ops = append(ops, JumpZeroOp{Label: endLabel})

	ctx.pushLoop(loopFrame{breakLabel: endLabel, continueLabel: topLabel})
	ctx.pushBlock()
	bodyOps, err := l.lowerBlock(ctx, stmt.Body)
	ctx.popBlock()
	ctx.popLoop()
	if err != nil {
		return nil, err
	}

	ops = append(ops, bodyOps...)
	ops = append(ops, JumpOp{Label: topLabel})
	ops = append(ops, LabelOp{Name: endLabel})
	return ops, nil
}

func (l *Lowerer) lowerIndefiniteLoop(ctx *funcCtx, stmt ast.IndefiniteLoop) ([]Operation, error) {
	topLabel := ctx.newLabel("loop_top")
	endLabel := ctx.newLabel("loop_end")

	ops := []Operation{LabelOp{Name: topLabel}}

	ctx.pushLoop(loopFrame{breakLabel: endLabel, continueLabel: topLabel})
	ctx.pushBlock()
	bodyOps, err := l.lowerBlock(ctx, stmt.Body)
	ctx.popBlock()
	ctx.popLoop()
	if err != nil {
		return nil, err
	}

	ops = append(ops, bodyOps...)
	ops = append(ops, JumpOp{Label: topLabel})
	ops = append(ops, LabelOp{Name: endLabel})
	return ops, nil
}

func (l *Lowerer) lowerForLoop(ctx *funcCtx, stmt ast.ForLoop) ([]Operation, error) {
	startOps, err := l.lowerExpr(ctx, stmt.Start)
	if err != nil {
		return nil, err
	}

	ctx.pushBlock()
	s := ctx.declare(stmt.VarName, stmt.VarType)

	topLabel := ctx.newLabel("for_top")
	contLabel := ctx.newLabel("for_cont")
	endLabel := ctx.newLabel("for_end")

	ops := append(startOps, StoreOp{Type: stmt.VarType, Offset: s.offset})
	ops = append(ops, LabelOp{Name: topLabel})
	ops = append(ops, LoadOp{Type: stmt.VarType, Offset: s.offset})

	untilOps, err := l.lowerExpr(ctx, stmt.Until)
	if err != nil {
		ctx.popBlock()
		return nil, err
	}
	ops = append(ops, untilOps...)
	ops = append(ops, ArithmeticOp{Op: OpTestLessThan, Type: stmt.VarType})
	ops = append(ops, JumpZeroOp{Label: endLabel})

	ctx.pushLoop(loopFrame{breakLabel: endLabel, continueLabel: contLabel})
	bodyOps, err := l.lowerBlock(ctx, stmt.Body)
	ctx.popLoop()
	if err != nil {
		ctx.popBlock()
		return nil, err
	}
	ops = append(ops, bodyOps...)

	ops = append(ops, LabelOp{Name: contLabel})
	ops = append(ops, LoadOp{Type: stmt.VarType, Offset: s.offset})

	if stmt.Step != nil {
		stepOps, err := l.lowerExpr(ctx, stmt.Step)
		if err != nil {
			ctx.popBlock()
			return nil, err
		}
		ops = append(ops, stepOps...)
	} else {
		ops = append(ops, PushOp{Type: stmt.VarType, Lit: ast.Literal{Type: stmt.VarType, Raw: "1", IntVal: 1}})
	}
	ops = append(ops, ArithmeticOp{Op: OpAdd, Type: stmt.VarType})
	ops = append(ops, StoreOp{Type: stmt.VarType, Offset: s.offset})
	ops = append(ops, JumpOp{Label: topLabel})
	ops = append(ops, LabelOp{Name: endLabel})

	ctx.popBlock()
	return ops, nil
}

func (l *Lowerer) lowerPrint(ctx *funcCtx, stmt ast.Print) ([]Operation, error) {
	var ops []Operation
	for _, item := range stmt.Items {
		itemOps, err := l.lowerExpr(ctx, item)
		if err != nil {
			return nil, err
		}
		typ, err := l.typeOf(ctx, item)
		if err != nil {
			return nil, err
		}
		ops = append(ops, itemOps...)
		ops = append(ops, PrintOp{Type: typ})
	}
	return ops, nil
}

func (l *Lowerer) lowerInput(ctx *funcCtx, stmt ast.Input) ([]Operation, error) {
	s, err := ctx.resolve(stmt.VarName)
	if err != nil {
		return nil, err
	}
	return []Operation{InputOp{Type: s.typ, Max: stmt.Max, Offset: s.offset}}, nil
}

func (l *Lowerer) lowerBlock(ctx *funcCtx, body []ast.Statement) ([]Operation, error) {
	var ops []Operation
	for _, stmt := range body {
		stmtOps, err := l.lowerStatement(ctx, stmt)
		if err != nil {
			return nil, err
		}
		ops = append(ops, stmtOps...)
	}
	return ops, nil
}

func (l *Lowerer) lowerTernary(ctx *funcCtx, ternary ast.TernaryExpr) ([]Operation, error) {
	condOps, err := l.lowerBoolExpr(ctx, ternary.Cond)
	if err != nil {
		return nil, err
	}
	thenOps, err := l.lowerExpr(ctx, ternary.Then)
	if err != nil {
		return nil, err
	}
	elseOps, err := l.lowerExpr(ctx, ternary.Else)
	if err != nil {
		return nil, err
	}

	elseLabel := ctx.newLabel("ternary_else")
	endLabel := ctx.newLabel("ternary_end")

	ops := append([]Operation{}, condOps...)
	ops = append(ops, JumpZeroOp{Label: elseLabel})
	ops = append(ops, thenOps...)
	ops = append(ops, JumpOp{Label: endLabel})
	ops = append(ops, LabelOp{Name: elseLabel})
	ops = append(ops, elseOps...)
	ops = append(ops, LabelOp{Name: endLabel})
	return ops, nil
}

// ----------------------------------------------------------------------------
// Expressions

func (l *Lowerer) lowerExpr(ctx *funcCtx, expr ast.Expression) ([]Operation, error) {
	switch e := expr.(type) {
	case ast.Literal:
		return []Operation{PushOp{Type: e.Type, Lit: e}}, nil

	case ast.Identifier:
		s, err := ctx.resolve(e.Name)
		if err != nil {
			return nil, err
		}
		return []Operation{LoadOp{Type: s.typ, Offset: s.offset}}, nil

	case ast.FunctionCall:
		ops, _, err := l.lowerFuncCall(ctx, e)
		return ops, err

	case ast.TypeCast:
		operandOps, err := l.lowerExpr(ctx, e.Operand)
		if err != nil {
			return nil, err
		}
		operandType, err := l.typeOf(ctx, e.Operand)
		if err != nil {
			return nil, err
		}
		return append(operandOps, CastOp{From: operandType, To: e.Target}), nil

	case ast.Binary:
		lhsOps, err := l.lowerExpr(ctx, e.Lhs)
		if err != nil {
			return nil, err
		}
		rhsOps, err := l.lowerExpr(ctx, e.Rhs)
		if err != nil {
			return nil, err
		}
		typ, err := l.typeOf(ctx, e.Lhs)
		if err != nil {
			return nil, err
		}
		ops := append(append([]Operation{}, lhsOps...), rhsOps...)
		return append(ops, ArithmeticOp{Op: binOpCode(e.Op), Type: typ}), nil

	case ast.Unary:
		operandOps, err := l.lowerExpr(ctx, e.Operand)
		if err != nil {
			return nil, err
		}
		typ, err := l.typeOf(ctx, e.Operand)
		if err != nil {
			return nil, err
		}
		return append(operandOps, ArithmeticOp{Op: unOpCode(e.Op), Type: typ}), nil

	default:
		return nil, fmt.Errorf("ir: unrecognized expression %T", expr)
	}
}

func (l *Lowerer) lowerFuncCall(ctx *funcCtx, call ast.FunctionCall) ([]Operation, ast.PrimType, error) {
	sig, found := l.functions.Get(call.Name)
	if !found {
		return nil, "", fmt.Errorf("ir: call to undeclared function '%s' (sema should have rejected this)", call.Name)
	}

	var ops []Operation
	for _, arg := range call.Args {
		argOps, err := l.lowerExpr(ctx, arg)
		if err != nil {
			return nil, "", err
		}
		ops = append(ops, argOps...)
	}
	ops = append(ops, CallOp{Name: call.Name, ArgTypes: sig.Params, Return: sig.Return})
	return ops, sig.Return, nil
}

func (l *Lowerer) lowerBoolExpr(ctx *funcCtx, expr ast.BooleanExpression) ([]Operation, error) {
	switch e := expr.(type) {
	case ast.BoolLiteral:
		value := int64(0)
		if e.Value {
			value = 1
		}
		return []Operation{PushOp{Type: ast.Bool, Lit: ast.Literal{Type: ast.Bool, BoolVal: e.Value, IntVal: value}}}, nil

	case ast.BoolVar:
		s, err := ctx.resolve(e.Name)
		if err != nil {
			return nil, err
		}
		return []Operation{LoadOp{Type: ast.Bool, Offset: s.offset}}, nil

	case ast.Comparison:
		lhsOps, err := l.lowerExpr(ctx, e.Lhs)
		if err != nil {
			return nil, err
		}
		rhsOps, err := l.lowerExpr(ctx, e.Rhs)
		if err != nil {
			return nil, err
		}
		typ, err := l.typeOf(ctx, e.Lhs)
		if err != nil {
			return nil, err
		}
		ops := append(append([]Operation{}, lhsOps...), rhsOps...)
		return append(ops, ArithmeticOp{Op: cmpOpCode(e.Op), Type: typ}), nil

	case ast.BoolUnary:
		operandOps, err := l.lowerBoolExpr(ctx, e.Operand)
		if err != nil {
			return nil, err
		}
		return append(operandOps, LogicalOp{Op: OpLogicalNeg}), nil

	case ast.BoolBinary:
		lhsOps, err := l.lowerBoolExpr(ctx, e.Lhs)
		if err != nil {
			return nil, err
		}
		rhsOps, err := l.lowerBoolExpr(ctx, e.Rhs)
		if err != nil {
			return nil, err
		}
		ops := append(append([]Operation{}, lhsOps...), rhsOps...)
		return append(ops, LogicalOp{Op: connectiveOpCode(e.Op)}), nil

	default:
		return nil, fmt.Errorf("ir: unrecognized boolean expression %T", expr)
	}
}

func binOpCode(op ast.BinOp) Op {
	switch op {
	case ast.OpAdd:
		return OpAdd
	case ast.OpSub:
		return OpSub
	case ast.OpMul:
		return OpMult
	case ast.OpDiv:
		return OpDiv
	case ast.OpAnd:
		return OpBitwiseAnd
	case ast.OpOr:
		return OpBitwiseOr
	case ast.OpXor:
		return OpBitwiseXor
	case ast.OpShl:
		return OpSll
	case ast.OpShr:
		return OpSrl
	case ast.OpAShr:
		return OpSra
	default:
		return Op(op)
	}
}

func unOpCode(op ast.UnOp) Op {
	switch op {
	case ast.OpNeg:
		return OpNumericalNeg
	case ast.OpCompl:
		return OpComplement
	default:
		return Op(op)
	}
}

func cmpOpCode(op ast.CmpOp) Op {
	switch op {
	case ast.CmpEq:
		return OpTestEqual
	case ast.CmpNe:
		return OpTestUnequal
	case ast.CmpGt:
		return OpTestGreaterThan
	case ast.CmpGe:
		return OpTestGreaterEqual
	case ast.CmpLt:
		return OpTestLessThan
	case ast.CmpLe:
		return OpTestLessEqual
	default:
		return Op(op)
	}
}

func connectiveOpCode(op ast.BoolConnective) Op {
	switch op {
	case ast.ConnAnd:
		return OpLogicalAnd
	case ast.ConnOr:
		return OpLogicalOr
	case ast.ConnXor:
		return OpLogicalXor
	default:
		return Op(op)
	}
}

// typeOf recomputes an already sema-validated Expression's static type, so
// each IR op can be tagged with the (op, type) pair spec §6.2's template
// table is keyed on. This mirrors sema.Analyser.typeOfExpr but trusts its
// input (lowering only ever sees a program that already passed Check).
func (l *Lowerer) typeOf(ctx *funcCtx, expr ast.Expression) (ast.PrimType, error) {
	switch e := expr.(type) {
	case ast.Literal:
		return e.Type, nil
	case ast.Identifier:
		s, err := ctx.resolve(e.Name)
		return s.typ, err
	case ast.FunctionCall:
		sig, found := l.functions.Get(e.Name)
		if !found {
			return "", fmt.Errorf("ir: call to undeclared function '%s'", e.Name)
		}
		return sig.Return, nil
	case ast.TypeCast:
		return e.Target, nil
	case ast.Binary:
		return l.typeOf(ctx, e.Lhs)
	case ast.Unary:
		return l.typeOf(ctx, e.Operand)
	default:
		return "", fmt.Errorf("ir: unrecognized expression %T", expr)
	}
}
