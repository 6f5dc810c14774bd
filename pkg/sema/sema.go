package sema

import (
	"fmt"

	"github.com/iridescent-lang/iridescentc/pkg/ast"
	"github.com/iridescent-lang/iridescentc/pkg/utils"
)

// Analyser is the semantic-analysis phase: it walks a parsed ast.Program and
// rejects anything spec §4 (and §7's error taxonomy) calls a fatal error,
// before pkg/ir ever sees the tree. Structurally this follows
// jack.TypeChecker (an Analyser struct wrapping the program plus a
// ScopeTable, HandleX per node kind returning an error) — jack's own
// HandleStatement is a stub ("not implemented yet"), so the per-statement
// rules below are original, grounded in spec §4's invariants rather than in
// any working teacher logic.
type Analyser struct {
	program   ast.Program
	functions FunctionTable
	scopes    *ScopeTable
	loops     LoopStack
	current   ast.FunctionDecl
}

func NewAnalyser(program ast.Program) *Analyser {
	return &Analyser{program: program, functions: utils.OrderedMap[string, FunctionSignature]{}}
}

// Check runs both passes: function signature collection, then per-function
// body analysis. It returns the first *ast.PosError encountered, matching
// spec §7 (fatal-on-first, no recovery). On success it also returns the
// FunctionTable built in pass 1, so pkg/ir can resolve call signatures
// without re-deriving them from the AST.
func (a *Analyser) Check() (FunctionTable, error) {
	if err := a.collectFunctions(); err != nil {
		return nil, err
	}

	for _, fn := range a.program.Functions {
		if err := a.AnalyseFunction(fn); err != nil {
			return nil, err
		}
	}

	return a.functions, nil
}

func (a *Analyser) collectFunctions() error {
	for _, fn := range a.program.Functions {
		if _, found := a.functions.Get(fn.Name); found {
			return ast.NewError(fn.Pos, "scope", fmt.Sprintf("function '%s' redeclared", fn.Name), nil)
		}

		sig := FunctionSignature{Name: fn.Name, Return: fn.Return}
		for _, param := range fn.Params {
			sig.Params = append(sig.Params, param.Type)
		}
		a.functions.Set(fn.Name, sig)
	}

	if _, found := a.functions.Get("main"); !found {
		return ast.NewError(ast.Pos{}, "scope", "program has no 'main' function", nil)
	}

	return nil
}

// AnalyseFunction type-checks one function body in its own fresh ScopeTable.
func (a *Analyser) AnalyseFunction(fn ast.FunctionDecl) error {
	a.current = fn
	a.scopes = NewScopeTable()
	a.loops = LoopStack{}

	for _, param := range fn.Params {
		a.scopes.RegisterVariable(Symbol{Name: param.Name, Type: param.Type, Mutable: false})
	}

	for _, stmt := range fn.Body {
		if err := a.AnalyseStatement(stmt); err != nil {
			return err
		}
	}

	if fn.Return != ast.Void && !bodyAlwaysReturns(fn.Body) {
		return ast.NewError(fn.Pos, "control-flow", fmt.Sprintf("function '%s' does not return on every path", fn.Name), nil)
	}

	return nil
}

// bodyAlwaysReturns is a deliberately simple, syntactic check (not a full
// CFG reachability analysis): the last statement must be a Return, or an If
// whose Then, every Elif and a present Else all themselves always return.
func bodyAlwaysReturns(body []ast.Statement) bool {
	if len(body) == 0 {
		return false
	}

	switch stmt := body[len(body)-1].(type) {
	case ast.Return:
		return true
	case ast.If:
		if stmt.Else == nil || !bodyAlwaysReturns(stmt.Else) || !bodyAlwaysReturns(stmt.Then) {
			return false
		}
		for _, elif := range stmt.Elifs {
			if !bodyAlwaysReturns(elif.Body) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// ----------------------------------------------------------------------------
// Statements

func (a *Analyser) AnalyseStatement(stmt ast.Statement) error {
	switch s := stmt.(type) {
	case ast.VarDecl:
		return a.analyseVarDecl(s)
	case ast.VarAssign:
		return a.analyseVarAssign(s)
	case ast.Return:
		return a.analyseReturn(s)
	case ast.If:
		return a.analyseIf(s)
	case ast.While:
		return a.analyseWhile(s)
	case ast.IndefiniteLoop:
		return a.analyseIndefiniteLoop(s)
	case ast.ForLoop:
		return a.analyseForLoop(s)
	case ast.Print:
		return a.analysePrint(s)
	case ast.Input:
		return a.analyseInput(s)
	case ast.Break:
		return a.analyseBreak(s)
	case ast.Continue:
		return a.analyseContinue(s)
	case ast.FunctionCallStmt:
		_, err := a.typeOfCall(s.Call, s.Pos)
		return err
	default:
		return ast.NewError(ast.Pos{}, "ast", fmt.Sprintf("unrecognized statement %T", stmt), nil)
	}
}

func (a *Analyser) analyseVarDecl(decl ast.VarDecl) error {
	if decl.Type == ast.Void {
		return ast.NewError(decl.Pos, "type", fmt.Sprintf("variable '%s' cannot be declared 'void'", decl.Name), nil)
	}

	switch {
	case decl.Ternary != nil:
		if err := a.checkTernary(*decl.Ternary, decl.Type); err != nil {
			return err
		}
	case decl.Type == ast.Bool:
		if decl.BoolExpr == nil {
			return ast.NewError(decl.Pos, "type", fmt.Sprintf("'%s' is declared bool but initialised with a non-boolean expression", decl.Name), nil)
		}
		if err := a.checkBoolExpr(decl.BoolExpr); err != nil {
			return err
		}
	default:
		if decl.Expr == nil {
			return ast.NewError(decl.Pos, "type", fmt.Sprintf("'%s' is declared '%s' but initialised with a boolean expression", decl.Name, decl.Type), nil)
		}
		exprType, err := a.typeOfExpr(decl.Expr)
		if err != nil {
			return err
		}
		if exprType != decl.Type {
			return ast.NewError(decl.Pos, "type", fmt.Sprintf("cannot initialise '%s' (%s) with a value of type %s", decl.Name, decl.Type, exprType), nil)
		}
	}

	a.scopes.RegisterVariable(Symbol{Name: decl.Name, Type: decl.Type, Mutable: decl.Mutable})
	return nil
}

func (a *Analyser) analyseVarAssign(assign ast.VarAssign) error {
	sym, err := a.scopes.ResolveVariable(assign.Name)
	if err != nil {
		return ast.NewError(assign.Pos, "scope", err.Error(), err)
	}
	if !sym.Mutable {
		return ast.NewError(assign.Pos, "scope", fmt.Sprintf("cannot assign to immutable variable '%s'", assign.Name), nil)
	}

	switch {
	case assign.Ternary != nil:
		return a.checkTernary(*assign.Ternary, sym.Type)
	case sym.Type == ast.Bool:
		boolExpr := assign.BoolExpr
		if boolExpr == nil {
			// The parser defaulted a bare identifier RHS to Expr because
			// var_assign carries no declared type of its own
			// (pkg/ast.HandleRHS); reinterpret it here now that we know better.
			// A function-call RHS is not reinterpreted and is rejected below.
			if ident, ok := assign.Expr.(ast.Identifier); ok {
				boolExpr = ast.BoolVar{Name: ident.Name}
			}
		}
		if boolExpr == nil {
			return ast.NewError(assign.Pos, "type", fmt.Sprintf("'%s' is bool but assigned a non-boolean expression", assign.Name), nil)
		}
		return a.checkBoolExpr(boolExpr)
	default:
		if assign.Expr == nil {
			return ast.NewError(assign.Pos, "type", fmt.Sprintf("'%s' assigned a boolean expression", assign.Name), nil)
		}
		exprType, err := a.typeOfExpr(assign.Expr)
		if err != nil {
			return err
		}
		if exprType != sym.Type {
			return ast.NewError(assign.Pos, "type", fmt.Sprintf("cannot assign value of type %s to '%s' (%s)", exprType, assign.Name, sym.Type), nil)
		}
		return nil
	}
}

func (a *Analyser) analyseReturn(ret ast.Return) error {
	if ret.Expr == nil {
		if a.current.Return != ast.Void {
			return ast.NewError(ret.Pos, "type", fmt.Sprintf("function '%s' must return a value of type %s", a.current.Name, a.current.Return), nil)
		}
		return nil
	}

	exprType, err := a.typeOfExpr(ret.Expr)
	if err != nil {
		return err
	}
	if exprType != a.current.Return {
		return ast.NewError(ret.Pos, "type", fmt.Sprintf("function '%s' returns %s, got %s", a.current.Name, a.current.Return, exprType), nil)
	}
	return nil
}

func (a *Analyser) analyseIf(stmt ast.If) error {
	if err := a.checkBoolExpr(stmt.Cond); err != nil {
		return err
	}
	if err := a.analyseBlock(stmt.Then); err != nil {
		return err
	}
	for _, elif := range stmt.Elifs {
		if err := a.checkBoolExpr(elif.Cond); err != nil {
			return err
		}
		if err := a.analyseBlock(elif.Body); err != nil {
			return err
		}
	}
	if stmt.Else != nil {
		if err := a.analyseBlock(stmt.Else); err != nil {
			return err
		}
	}
	return nil
}

func (a *Analyser) analyseWhile(stmt ast.While) error {
	if err := a.checkBoolExpr(stmt.Cond); err != nil {
		return err
	}
	a.loops.Push()
	defer a.loops.Pop() //nolint:errcheck
	return a.analyseBlock(stmt.Body)
}

func (a *Analyser) analyseIndefiniteLoop(stmt ast.IndefiniteLoop) error {
	frame := a.loops.Push()
	defer a.loops.Pop() //nolint:errcheck

	if err := a.analyseBlock(stmt.Body); err != nil {
		return err
	}
	if !frame.HasBreak {
		return ast.NewError(stmt.Pos, "control-flow", "'loop' body has no reachable 'break', it can never terminate", nil)
	}
	return nil
}

func (a *Analyser) analyseForLoop(stmt ast.ForLoop) error {
	if stmt.VarType != ast.Int && stmt.VarType != ast.Long {
		return ast.NewError(stmt.Pos, "type", "for-loop counter must be 'int' or 'long'", nil)
	}

	startType, err := a.typeOfExpr(stmt.Start)
	if err != nil {
		return err
	}
	if startType != stmt.VarType {
		return ast.NewError(stmt.Pos, "type", "for-loop start expression does not match counter type", nil)
	}
	untilType, err := a.typeOfExpr(stmt.Until)
	if err != nil {
		return err
	}
	if untilType != stmt.VarType {
		return ast.NewError(stmt.Pos, "type", "for-loop 'until' expression does not match counter type", nil)
	}

	if stmt.Step != nil {
		if lit, ok := stmt.Step.(ast.Literal); ok && lit.Type.IsNumeric() && lit.IntVal < 0 {
			return ast.NewError(stmt.Pos, "type", "for-loop 'step' must not be a negative constant", nil)
		}
		// The grammar has no signed literals: a negative constant step is
		// written as a unary minus applied to a literal, e.g. '(2)-'.
		if neg, ok := stmt.Step.(ast.Unary); ok && neg.Op == ast.OpNeg {
			if lit, ok := neg.Operand.(ast.Literal); ok && lit.Type.IsNumeric() && lit.IntVal > 0 {
				return ast.NewError(stmt.Pos, "type", "for-loop 'step' must not be a negative constant", nil)
			}
		}
		stepType, err := a.typeOfExpr(stmt.Step)
		if err != nil {
			return err
		}
		if stepType != stmt.VarType {
			return ast.NewError(stmt.Pos, "type", "for-loop 'step' expression does not match counter type", nil)
		}
	}

	a.scopes.PushBlock()
	defer a.scopes.PopBlock()
	a.scopes.RegisterVariable(Symbol{Name: stmt.VarName, Type: stmt.VarType, Mutable: false})

	a.loops.Push()
	defer a.loops.Pop() //nolint:errcheck
	return a.analyseBlock(stmt.Body)
}

func (a *Analyser) analysePrint(stmt ast.Print) error {
	for _, item := range stmt.Items {
		if _, err := a.typeOfExpr(item); err != nil {
			return err
		}
	}
	return nil
}

func (a *Analyser) analyseInput(stmt ast.Input) error {
	if stmt.Max < 2 {
		return ast.NewError(stmt.Pos, "type", "'input' max length must be at least 2", nil)
	}
	sym, err := a.scopes.ResolveVariable(stmt.VarName)
	if err != nil {
		return ast.NewError(stmt.Pos, "scope", err.Error(), err)
	}
	if !sym.Mutable {
		return ast.NewError(stmt.Pos, "scope", fmt.Sprintf("'input' target '%s' must be 'mut'", stmt.VarName), nil)
	}
	return nil
}

func (a *Analyser) analyseBreak(stmt ast.Break) error {
	if !a.loops.InLoop() {
		return ast.NewError(stmt.Pos, "control-flow", "'break' outside of a loop", nil)
	}
	frame, _ := a.loops.Current()
	frame.HasBreak = true
	return nil
}

func (a *Analyser) analyseContinue(stmt ast.Continue) error {
	if !a.loops.InLoop() {
		return ast.NewError(stmt.Pos, "control-flow", "'continue' outside of a loop", nil)
	}
	return nil
}

// analyseBlock runs 'body' in a fresh nested scope, so names declared inside
// an if/while/loop/for body don't leak into the enclosing block.
func (a *Analyser) analyseBlock(body []ast.Statement) error {
	a.scopes.PushBlock()
	defer a.scopes.PopBlock()

	for _, stmt := range body {
		if err := a.AnalyseStatement(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (a *Analyser) checkTernary(ternary ast.TernaryExpr, wantType ast.PrimType) error {
	if err := a.checkBoolExpr(ternary.Cond); err != nil {
		return err
	}
	thenType, err := a.typeOfExpr(ternary.Then)
	if err != nil {
		return err
	}
	elseType, err := a.typeOfExpr(ternary.Else)
	if err != nil {
		return err
	}
	if thenType != wantType || elseType != wantType {
		return ast.NewError(ternary.Pos, "type", fmt.Sprintf("ternary branches must both be %s, got %s/%s", wantType, thenType, elseType), nil)
	}
	return nil
}
