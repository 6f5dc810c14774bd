package ast

import (
	pc "github.com/prataprc/goparsec"
)

// ----------------------------------------------------------------------------
// AST Builder

// This file is the DFS walk from the raw, rule-named parse tree (parsing.go)
// to the typed Program (ast.go), mirroring vm.Parser.FromAST/Handle* in the
// teacher repository: every Handle function checks the node name and child
// count it expects, then recurses. jack.Parser never got this far (its
// FromAST is a stub returning "not implemented yet"); vm.Parser is the only
// fully working reference, so its shape is what's followed here.
//
// Every node built here carries a zero Pos: neither pkg/jack nor pkg/vm in
// the teacher repository ever extracts a source offset from a goparsec
// Queryable/Scanner, and this package follows that same posture rather than
// guessing at surface the teacher itself never exercises. pkg/sema does NOT
// repair this — it only forwards or re-literals Pos{} itself (see e.g.
// sema.go's "no main function" error) — so every *ast.PosError in this
// compiler currently reports position "0:0". This is a known, acknowledged
// deviation from spec §7's "reported with source position (line, column)"
// requirement; see DESIGN.md for the rationale and what threading real
// positions through would require.

func (p *Parser) FromAST(root pc.Queryable) (Program, error) {
	if root.GetName() != "program" {
		return Program{}, NewError(Pos{}, "ast", "expected node 'program', found '"+root.GetName()+"'", nil)
	}

	program := Program{}
	for _, child := range root.GetChildren() {
		fn, err := p.HandleFunctionDecl(child)
		if err != nil {
			return Program{}, err
		}
		program.Functions = append(program.Functions, fn)
	}

	return program, nil
}

func (p *Parser) HandleFunctionDecl(node pc.Queryable) (FunctionDecl, error) {
	if node.GetName() != "function_decl" {
		return FunctionDecl{}, NewError(Pos{}, "ast", "expected node 'function_decl', found '"+node.GetName()+"'", nil)
	}
	children := node.GetChildren()
	if len(children) != 9 {
		return FunctionDecl{}, NewError(Pos{}, "ast", "malformed 'function_decl' node", nil)
	}

	fn := FunctionDecl{
		Return: PrimType(children[1].GetValue()),
		Name:   children[2].GetValue(),
	}

	for _, paramNode := range children[4].GetChildren() {
		param, err := p.HandleParam(paramNode)
		if err != nil {
			return FunctionDecl{}, err
		}
		fn.Params = append(fn.Params, param)
	}

	for _, stmtNode := range children[7].GetChildren() {
		stmt, err := p.HandleStatement(stmtNode)
		if err != nil {
			return FunctionDecl{}, err
		}
		fn.Body = append(fn.Body, stmt)
	}

	return fn, nil
}

func (p *Parser) HandleParam(node pc.Queryable) (Param, error) {
	if node.GetName() != "param" {
		return Param{}, NewError(Pos{}, "ast", "expected node 'param', found '"+node.GetName()+"'", nil)
	}
	children := node.GetChildren()
	if len(children) != 2 {
		return Param{}, NewError(Pos{}, "ast", "malformed 'param' node", nil)
	}
	return Param{Type: PrimType(children[0].GetValue()), Name: children[1].GetValue()}, nil
}

// ----------------------------------------------------------------------------
// Statements

func (p *Parser) HandleStatement(node pc.Queryable) (Statement, error) {
	switch node.GetName() {
	case "var_decl":
		return p.HandleVarDecl(node)
	case "var_assign":
		return p.HandleVarAssign(node)
	case "return_stmt":
		return p.HandleReturnStmt(node)
	case "if_stmt":
		return p.HandleIfStmt(node)
	case "while_stmt":
		return p.HandleWhileStmt(node)
	case "indef_loop_stmt":
		return p.HandleIndefLoopStmt(node)
	case "for_loop_stmt":
		return p.HandleForLoopStmt(node)
	case "print_stmt":
		return p.HandlePrintStmt(node)
	case "input_stmt":
		return p.HandleInputStmt(node)
	case "break_stmt":
		return Break{}, nil
	case "continue_stmt":
		return Continue{}, nil
	case "func_call_stmt":
		call, err := p.HandleFuncCall(node.GetChildren()[0])
		if err != nil {
			return nil, err
		}
		return FunctionCallStmt{Call: call}, nil
	default:
		return nil, NewError(Pos{}, "ast", "unrecognized statement node '"+node.GetName()+"'", nil)
	}
}

func (p *Parser) HandleVarDecl(node pc.Queryable) (Statement, error) {
	children := node.GetChildren()
	if len(children) != 7 {
		return nil, NewError(Pos{}, "ast", "malformed 'var_decl' node", nil)
	}

	decl := VarDecl{
		Mutable: len(children[1].GetChildren()) == 1,
		Type:    PrimType(children[2].GetValue()),
		Name:    children[3].GetValue(),
	}

	expr, boolExpr, ternary, err := p.HandleRHS(decl.Type, children[5])
	if err != nil {
		return nil, err
	}
	decl.Expr, decl.BoolExpr, decl.Ternary = expr, boolExpr, ternary

	return decl, nil
}

func (p *Parser) HandleVarAssign(node pc.Queryable) (Statement, error) {
	children := node.GetChildren()
	if len(children) != 4 {
		return nil, NewError(Pos{}, "ast", "malformed 'var_assign' node", nil)
	}

	// The declared type of the target is not visible at this node; resolving
	// Expr vs BoolExpr for a bare identifier RHS is deferred to the
	// semantic analyser, which already has the symbol table needed to know
	// it (see pkg/sema). Here we keep whichever shape parsed.
	assign := VarAssign{Name: children[0].GetValue()}

	expr, boolExpr, ternary, err := p.HandleRHS(Void, children[2])
	if err != nil {
		return nil, err
	}
	assign.Expr, assign.BoolExpr, assign.Ternary = expr, boolExpr, ternary

	return assign, nil
}

// HandleRHS dispatches a var_decl_rhs/var_assign_rhs subtree to exactly one
// of Expression, BooleanExpression or *TernaryExpr. 'declType' disambiguates
// the one genuinely ambiguous shape (a bare identifier, which parses
// identically whether it denotes a numeric/string/char variable or a bool
// one) by routing Bool-typed declarations through the boolean builder;
// Void is passed for var_assign, whose target type is resolved later by
// pkg/sema, so a bare identifier there defaults to Expression and is
// corrected downstream if the symbol turns out to be boolean.
func (p *Parser) HandleRHS(declType PrimType, node pc.Queryable) (Expression, BooleanExpression, *TernaryExpr, error) {
	if node.GetName() == "ternary_expr" {
		ternary, err := p.HandleTernaryExpr(node)
		if err != nil {
			return nil, nil, nil, err
		}
		return nil, nil, &ternary, nil
	}

	switch node.GetName() {
	case "bool_binary", "bool_unary", "comparison", "TRUE", "FALSE":
		boolExpr, err := p.HandleBoolExpr(node)
		return nil, boolExpr, nil, err
	case "IDENT":
		if declType == Bool {
			return nil, BoolVar{Name: node.GetValue()}, nil, nil
		}
		return Identifier{Name: node.GetValue()}, nil, nil, nil
	default:
		expr, err := p.HandleExpr(node)
		return expr, nil, nil, err
	}
}

func (p *Parser) HandleReturnStmt(node pc.Queryable) (Statement, error) {
	children := node.GetChildren()
	if len(children) != 3 {
		return nil, NewError(Pos{}, "ast", "malformed 'return_stmt' node", nil)
	}

	ret := Return{}
	if exprChildren := children[1].GetChildren(); len(exprChildren) == 1 {
		expr, err := p.HandleExpr(exprChildren[0])
		if err != nil {
			return nil, err
		}
		ret.Expr = expr
	}
	return ret, nil
}

func (p *Parser) HandleIfStmt(node pc.Queryable) (Statement, error) {
	children := node.GetChildren()
	if len(children) != 7 {
		return nil, NewError(Pos{}, "ast", "malformed 'if_stmt' node", nil)
	}

	cond, err := p.HandleBoolExpr(children[1])
	if err != nil {
		return nil, err
	}
	thenBody, err := p.HandleStatementList(children[3])
	if err != nil {
		return nil, err
	}

	stmt := If{Cond: cond, Then: thenBody}

	for _, elifNode := range children[5].GetChildren() {
		elif, err := p.HandleElifClause(elifNode)
		if err != nil {
			return nil, err
		}
		stmt.Elifs = append(stmt.Elifs, elif)
	}

	if elseChildren := children[6].GetChildren(); len(elseChildren) == 1 {
		elseBody, err := p.HandleElseClause(elseChildren[0])
		if err != nil {
			return nil, err
		}
		stmt.Else = elseBody
	}

	return stmt, nil
}

func (p *Parser) HandleElifClause(node pc.Queryable) (ElifBranch, error) {
	if node.GetName() != "elif_clause" {
		return ElifBranch{}, NewError(Pos{}, "ast", "expected node 'elif_clause', found '"+node.GetName()+"'", nil)
	}
	children := node.GetChildren()
	if len(children) != 5 {
		return ElifBranch{}, NewError(Pos{}, "ast", "malformed 'elif_clause' node", nil)
	}

	cond, err := p.HandleBoolExpr(children[1])
	if err != nil {
		return ElifBranch{}, err
	}
	body, err := p.HandleStatementList(children[3])
	if err != nil {
		return ElifBranch{}, err
	}
	return ElifBranch{Cond: cond, Body: body}, nil
}

func (p *Parser) HandleElseClause(node pc.Queryable) ([]Statement, error) {
	if node.GetName() != "else_clause" {
		return nil, NewError(Pos{}, "ast", "expected node 'else_clause', found '"+node.GetName()+"'", nil)
	}
	children := node.GetChildren()
	if len(children) != 4 {
		return nil, NewError(Pos{}, "ast", "malformed 'else_clause' node", nil)
	}
	return p.HandleStatementList(children[2])
}

func (p *Parser) HandleWhileStmt(node pc.Queryable) (Statement, error) {
	children := node.GetChildren()
	if len(children) != 5 {
		return nil, NewError(Pos{}, "ast", "malformed 'while_stmt' node", nil)
	}

	cond, err := p.HandleBoolExpr(children[1])
	if err != nil {
		return nil, err
	}
	body, err := p.HandleStatementList(children[3])
	if err != nil {
		return nil, err
	}
	return While{Cond: cond, Body: body}, nil
}

func (p *Parser) HandleIndefLoopStmt(node pc.Queryable) (Statement, error) {
	children := node.GetChildren()
	if len(children) != 4 {
		return nil, NewError(Pos{}, "ast", "malformed 'indef_loop_stmt' node", nil)
	}
	body, err := p.HandleStatementList(children[2])
	if err != nil {
		return nil, err
	}
	return IndefiniteLoop{Body: body}, nil
}

func (p *Parser) HandleForLoopStmt(node pc.Queryable) (Statement, error) {
	children := node.GetChildren()
	if len(children) != 11 {
		return nil, NewError(Pos{}, "ast", "malformed 'for_loop_stmt' node", nil)
	}

	loop := ForLoop{VarType: PrimType(children[1].GetValue()), VarName: children[2].GetValue()}

	start, err := p.HandleExpr(children[4])
	if err != nil {
		return nil, err
	}
	loop.Start = start

	until, err := p.HandleExpr(children[6])
	if err != nil {
		return nil, err
	}
	loop.Until = until

	if stepChildren := children[7].GetChildren(); len(stepChildren) == 1 {
		stepClause := stepChildren[0]
		if stepClause.GetName() != "step_clause" || len(stepClause.GetChildren()) != 2 {
			return nil, NewError(Pos{}, "ast", "malformed 'step_clause' node", nil)
		}
		step, err := p.HandleExpr(stepClause.GetChildren()[1])
		if err != nil {
			return nil, err
		}
		loop.Step = step
	}

	body, err := p.HandleStatementList(children[9])
	if err != nil {
		return nil, err
	}
	loop.Body = body

	return loop, nil
}

func (p *Parser) HandlePrintStmt(node pc.Queryable) (Statement, error) {
	children := node.GetChildren()
	if len(children) != 5 {
		return nil, NewError(Pos{}, "ast", "malformed 'print_stmt' node", nil)
	}

	stmt := Print{}
	for _, argNode := range children[2].GetChildren() {
		expr, err := p.HandleExpr(argNode)
		if err != nil {
			return nil, err
		}
		stmt.Items = append(stmt.Items, expr)
	}
	return stmt, nil
}

func (p *Parser) HandleInputStmt(node pc.Queryable) (Statement, error) {
	children := node.GetChildren()
	if len(children) != 7 {
		return nil, NewError(Pos{}, "ast", "malformed 'input_stmt' node", nil)
	}

	max, err := parseIntLiteral(children[4].GetValue(), Pos{})
	if err != nil {
		return nil, err
	}
	return Input{VarName: children[2].GetValue(), Max: int(max.IntVal)}, nil
}

// HandleStatementList walks a Kleene-produced body node ("then_body",
// "while_body", "loop_body", ...), converting each repeated statement child.
func (p *Parser) HandleStatementList(node pc.Queryable) ([]Statement, error) {
	var stmts []Statement
	for _, child := range node.GetChildren() {
		stmt, err := p.HandleStatement(child)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
	return stmts, nil
}

// ----------------------------------------------------------------------------
// Expressions

func (p *Parser) HandleExpr(node pc.Queryable) (Expression, error) {
	switch node.GetName() {
	case "binary_expr":
		return p.HandleBinaryExpr(node)
	case "unary_expr":
		return p.HandleUnaryExpr(node)
	case "type_cast":
		return p.HandleTypeCast(node)
	case "func_call":
		return p.HandleFuncCall(node)
	case "FLOAT":
		return parseFloatLiteral(node.GetValue(), Pos{})
	case "INT":
		return parseIntLiteral(node.GetValue(), Pos{})
	case "STRING":
		return parseStringLiteral(node.GetValue(), Pos{}), nil
	case "CHAR_LIT":
		return parseCharLiteral(node.GetValue(), Pos{})
	case "IDENT":
		return Identifier{Name: node.GetValue()}, nil
	default:
		return nil, NewError(Pos{}, "ast", "unrecognized expression node '"+node.GetName()+"'", nil)
	}
}

func (p *Parser) HandleBinaryExpr(node pc.Queryable) (Expression, error) {
	children := node.GetChildren()
	if len(children) != 6 {
		return nil, NewError(Pos{}, "ast", "malformed 'binary_expr' node", nil)
	}
	lhs, err := p.HandleExpr(children[1])
	if err != nil {
		return nil, err
	}
	rhs, err := p.HandleExpr(children[3])
	if err != nil {
		return nil, err
	}
	return Binary{Op: BinOp(children[5].GetValue()), Lhs: lhs, Rhs: rhs}, nil
}

func (p *Parser) HandleUnaryExpr(node pc.Queryable) (Expression, error) {
	children := node.GetChildren()
	if len(children) != 4 {
		return nil, NewError(Pos{}, "ast", "malformed 'unary_expr' node", nil)
	}
	operand, err := p.HandleExpr(children[1])
	if err != nil {
		return nil, err
	}
	return Unary{Op: UnOp(children[3].GetValue()), Operand: operand}, nil
}

func (p *Parser) HandleTypeCast(node pc.Queryable) (Expression, error) {
	children := node.GetChildren()
	if len(children) != 4 {
		return nil, NewError(Pos{}, "ast", "malformed 'type_cast' node", nil)
	}
	operand, err := p.HandleExpr(children[2])
	if err != nil {
		return nil, err
	}
	return TypeCast{Target: PrimType(children[0].GetValue()), Operand: operand}, nil
}

func (p *Parser) HandleFuncCall(node pc.Queryable) (FunctionCall, error) {
	if node.GetName() != "func_call" {
		return FunctionCall{}, NewError(Pos{}, "ast", "expected node 'func_call', found '"+node.GetName()+"'", nil)
	}
	children := node.GetChildren()
	if len(children) != 4 {
		return FunctionCall{}, NewError(Pos{}, "ast", "malformed 'func_call' node", nil)
	}

	call := FunctionCall{Name: children[0].GetValue()}
	for _, argNode := range children[2].GetChildren() {
		arg, err := p.HandleExpr(argNode)
		if err != nil {
			return FunctionCall{}, err
		}
		call.Args = append(call.Args, arg)
	}
	return call, nil
}

// ----------------------------------------------------------------------------
// Boolean expressions

func (p *Parser) HandleBoolExpr(node pc.Queryable) (BooleanExpression, error) {
	switch node.GetName() {
	case "bool_binary":
		return p.HandleBoolBinary(node)
	case "bool_unary":
		return p.HandleBoolUnary(node)
	case "comparison":
		return p.HandleComparison(node)
	case "TRUE":
		return BoolLiteral{Value: true}, nil
	case "FALSE":
		return BoolLiteral{Value: false}, nil
	case "IDENT":
		return BoolVar{Name: node.GetValue()}, nil
	default:
		return nil, NewError(Pos{}, "ast", "unrecognized boolean expression node '"+node.GetName()+"'", nil)
	}
}

func (p *Parser) HandleBoolBinary(node pc.Queryable) (BooleanExpression, error) {
	children := node.GetChildren()
	if len(children) != 6 {
		return nil, NewError(Pos{}, "ast", "malformed 'bool_binary' node", nil)
	}
	lhs, err := p.HandleBoolExpr(children[1])
	if err != nil {
		return nil, err
	}
	rhs, err := p.HandleBoolExpr(children[3])
	if err != nil {
		return nil, err
	}
	return BoolBinary{Op: BoolConnective(children[5].GetValue()), Lhs: lhs, Rhs: rhs}, nil
}

func (p *Parser) HandleBoolUnary(node pc.Queryable) (BooleanExpression, error) {
	children := node.GetChildren()
	if len(children) != 4 {
		return nil, NewError(Pos{}, "ast", "malformed 'bool_unary' node", nil)
	}
	operand, err := p.HandleBoolExpr(children[1])
	if err != nil {
		return nil, err
	}
	return BoolUnary{Operand: operand}, nil
}

func (p *Parser) HandleComparison(node pc.Queryable) (BooleanExpression, error) {
	children := node.GetChildren()
	if len(children) != 6 {
		return nil, NewError(Pos{}, "ast", "malformed 'comparison' node", nil)
	}
	lhs, err := p.HandleExpr(children[1])
	if err != nil {
		return nil, err
	}
	rhs, err := p.HandleExpr(children[3])
	if err != nil {
		return nil, err
	}
	return Comparison{Op: CmpOp(children[5].GetValue()), Lhs: lhs, Rhs: rhs}, nil
}

func (p *Parser) HandleTernaryExpr(node pc.Queryable) (TernaryExpr, error) {
	children := node.GetChildren()
	if len(children) != 8 {
		return TernaryExpr{}, NewError(Pos{}, "ast", "malformed 'ternary_expr' node", nil)
	}

	cond, err := p.HandleBoolExpr(children[1])
	if err != nil {
		return TernaryExpr{}, err
	}
	then, err := p.HandleExpr(children[3])
	if err != nil {
		return TernaryExpr{}, err
	}
	els, err := p.HandleExpr(children[5])
	if err != nil {
		return TernaryExpr{}, err
	}
	return TernaryExpr{Cond: cond, Then: then, Else: els}, nil
}
