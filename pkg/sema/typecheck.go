package sema

import (
	"fmt"

	"github.com/iridescent-lang/iridescentc/pkg/ast"
)

// isIntegral reports whether 't' supports the bitwise family (&, |, ^, <<,
// >>, >>>, ~): int/long/byte, but not float/double/char.
func isIntegral(t ast.PrimType) bool {
	switch t {
	case ast.Int, ast.Long, ast.Byte:
		return true
	default:
		return false
	}
}

func isBitwise(op ast.BinOp) bool {
	switch op {
	case ast.OpAnd, ast.OpOr, ast.OpXor, ast.OpShl, ast.OpShr, ast.OpAShr:
		return true
	default:
		return false
	}
}

// typeOfExpr computes the static type of an Expression tree, rejecting any
// operand-type mismatch along the way. Iridescent has no implicit numeric
// promotion (spec §3): both sides of a Binary must already share a type, and
// the only way to change a value's type is an explicit TypeCast.
func (a *Analyser) typeOfExpr(expr ast.Expression) (ast.PrimType, error) {
	switch e := expr.(type) {
	case ast.Literal:
		return e.Type, nil

	case ast.Identifier:
		sym, err := a.scopes.ResolveVariable(e.Name)
		if err != nil {
			return "", ast.NewError(e.Pos, "scope", err.Error(), err)
		}
		return sym.Type, nil

	case ast.FunctionCall:
		return a.typeOfCall(e, e.Pos)

	case ast.TypeCast:
		operandType, err := a.typeOfExpr(e.Operand)
		if err != nil {
			return "", err
		}
		if !operandType.IsNumeric() || !e.Target.IsNumeric() {
			return "", ast.NewError(e.Pos, "type", fmt.Sprintf("cannot cast %s to %s", operandType, e.Target), nil)
		}
		return e.Target, nil

	case ast.Binary:
		lhsType, err := a.typeOfExpr(e.Lhs)
		if err != nil {
			return "", err
		}
		rhsType, err := a.typeOfExpr(e.Rhs)
		if err != nil {
			return "", err
		}
		if lhsType != rhsType {
			return "", ast.NewError(e.Pos, "type", fmt.Sprintf("operand type mismatch for '%s': %s vs %s", e.Op, lhsType, rhsType), nil)
		}
		if isBitwise(e.Op) && !isIntegral(lhsType) {
			return "", ast.NewError(e.Pos, "type", fmt.Sprintf("'%s' requires an integral operand, got %s", e.Op, lhsType), nil)
		}
		if !lhsType.IsNumeric() {
			return "", ast.NewError(e.Pos, "type", fmt.Sprintf("'%s' requires numeric operands, got %s", e.Op, lhsType), nil)
		}
		return lhsType, nil

	case ast.Unary:
		operandType, err := a.typeOfExpr(e.Operand)
		if err != nil {
			return "", err
		}
		if e.Op == ast.OpCompl && !isIntegral(operandType) {
			return "", ast.NewError(e.Pos, "type", fmt.Sprintf("'~' requires an integral operand, got %s", operandType), nil)
		}
		if !operandType.IsNumeric() {
			return "", ast.NewError(e.Pos, "type", fmt.Sprintf("'%s' requires a numeric operand, got %s", e.Op, operandType), nil)
		}
		return operandType, nil

	default:
		return "", ast.NewError(ast.Pos{}, "ast", fmt.Sprintf("unrecognized expression %T", expr), nil)
	}
}

// typeOfCall resolves 'call' against the function table, checking arity and
// per-argument types, and returns the callee's declared return type.
func (a *Analyser) typeOfCall(call ast.FunctionCall, pos ast.Pos) (ast.PrimType, error) {
	sig, found := a.functions.Get(call.Name)
	if !found {
		return "", ast.NewError(pos, "scope", fmt.Sprintf("call to undeclared function '%s'", call.Name), nil)
	}
	if len(call.Args) != len(sig.Params) {
		return "", ast.NewError(pos, "type", fmt.Sprintf("'%s' expects %d argument(s), got %d", call.Name, len(sig.Params), len(call.Args)), nil)
	}
	for i, arg := range call.Args {
		argType, err := a.typeOfExpr(arg)
		if err != nil {
			return "", err
		}
		if argType != sig.Params[i] {
			return "", ast.NewError(pos, "type", fmt.Sprintf("'%s' argument %d: expected %s, got %s", call.Name, i+1, sig.Params[i], argType), nil)
		}
	}
	return sig.Return, nil
}

// checkBoolExpr walks a BooleanExpression tree, validating comparison operand
// types and bool-variable resolution. Unlike typeOfExpr it returns only an
// error: every BooleanExpression node is, by construction, boolean-typed.
func (a *Analyser) checkBoolExpr(expr ast.BooleanExpression) error {
	switch e := expr.(type) {
	case ast.BoolLiteral:
		return nil

	case ast.BoolVar:
		sym, err := a.scopes.ResolveVariable(e.Name)
		if err != nil {
			return ast.NewError(e.Pos, "scope", err.Error(), err)
		}
		if sym.Type != ast.Bool {
			return ast.NewError(e.Pos, "type", fmt.Sprintf("'%s' is %s, not bool", e.Name, sym.Type), nil)
		}
		return nil

	case ast.Comparison:
		lhsType, err := a.typeOfExpr(e.Lhs)
		if err != nil {
			return err
		}
		rhsType, err := a.typeOfExpr(e.Rhs)
		if err != nil {
			return err
		}
		if lhsType != rhsType {
			return ast.NewError(e.Pos, "type", fmt.Sprintf("comparison operand type mismatch: %s vs %s", lhsType, rhsType), nil)
		}
		if !lhsType.IsNumeric() {
			return ast.NewError(e.Pos, "type", fmt.Sprintf("comparison requires numeric operands, got %s", lhsType), nil)
		}
		return nil

	case ast.BoolUnary:
		return a.checkBoolExpr(e.Operand)

	case ast.BoolBinary:
		if err := a.checkBoolExpr(e.Lhs); err != nil {
			return err
		}
		return a.checkBoolExpr(e.Rhs)

	default:
		return ast.NewError(ast.Pos{}, "ast", fmt.Sprintf("unrecognized boolean expression %T", expr), nil)
	}
}
