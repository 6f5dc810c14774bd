package ast

import (
	"fmt"
	"io"
	"os"

	pc "github.com/prataprc/goparsec"
)

// ----------------------------------------------------------------------------
// Parser combinator(s)

// This section defines the grammar of spec §6.3 using goparsec parser
// combinators, in exactly the shape pkg/jack and pkg/vm use in the teacher
// repository: a package-level 'pc.AST' combinator tree built once, consumed
// by Parsewith against a freshly scanned input, then walked by FromAST keyed
// purely on rule name (builder.go) — the core never needs to know it was
// goparsec that produced the tree.
//
// Two idioms carried over from the teacher grammar are worth flagging because
// builder.go relies on them:
//   - OrdChoice is transparent: the node it contributes to the tree is always
//     whichever alternative matched, never an "ordchoice" wrapper node (see
//     vm.Parser.FromAST switching directly on "memory_op", "label_decl", ...
//     even though they're all reached through pOperation's OrdChoice).
//   - Kleene(name, cb, parser, sep...) produces its own named node whose
//     children are the repeated 'parser' matches, with 'sep' (when given)
//     consumed and never surfacing as a child — this is how the teacher's
//     "arguments"/"args" comma lists round-trip cleanly.
//
// Because Iridescent's expression grammar is genuinely recursive (a term can
// contain a parenthesised sub-expression, a boolean_expr can nest further
// boolean_expr), some productions must refer to themselves before they are
// fully constructed. Go forbids an initialization cycle between package-level
// vars, so each recursive production is fronted by a small *Ref function
// (not a var) that defers to the not-yet-initialized var at call time — by
// the time parsing actually runs, every combinator below has been built.
//
// Structural optionality (an absent 'mut', an absent 'else', a for-loop with
// no 'step' clause) is modeled with a zero-or-one Kleene rather than Maybe,
// so the corresponding node is always present in the parent's positional
// child list, just with zero or one children of its own.

var grammar = pc.NewAST("iridescent_program", 0)

// ----------------------------------------------------------------------------
// Program / function structure

var (
	pProgram = grammar.ManyUntil("program", nil, pFunctionDecl, pc.End())

	pFunctionDecl = grammar.And("function_decl", nil,
		pKwFn, pType, pIdent, pLParen,
		grammar.Kleene("params", nil, pParam, pComma), pRParen,
		pLBrace, grammar.Kleene("body", nil, pStatementRef), pRBrace,
	)

	pParam = grammar.And("param", nil, pType, pIdent)
)

// ----------------------------------------------------------------------------
// Statements

func pStatementRef(s pc.Scanner) (pc.Queryable, pc.Scanner) { return pStatement(s) }

var pStatement = grammar.OrdChoice("statement", nil,
	pVarDecl, pVarAssign, pReturnStmt, pIfStmt, pWhileStmt, pIndefLoopStmt,
	pForLoopStmt, pPrintStmt, pInputStmt, pBreakStmt, pContinueStmt, pFuncCallStmt,
)

var (
	pVarDecl = grammar.And("var_decl", nil,
		pKwLet, grammar.Kleene("maybe_mut", nil, pc.Atom("mut", "MUT")),
		pType, pIdent, pEquals, pVarDeclRhs, pSemi,
	)
	pVarDeclRhs = grammar.OrdChoice("var_decl_rhs", nil, pTernaryExpr, pTypeCast, pFuncCallRef, pBoolExprRef, pExprRef)

	pVarAssign = grammar.And("var_assign", nil, pIdent, pEquals, pVarDeclRhs, pSemi)

	pReturnStmt = grammar.And("return_stmt", nil,
		pKwReturn, grammar.Kleene("maybe_return_expr", nil, pExprRef), pSemi,
	)

	pIfStmt = grammar.And("if_stmt", nil,
		pKwIf, pBoolExprRef, pLBrace, grammar.Kleene("then_body", nil, pStatementRef), pRBrace,
		grammar.Kleene("elifs", nil, pElifClause),
		grammar.Kleene("maybe_else", nil, pElseClause),
	)
	pElifClause = grammar.And("elif_clause", nil,
		pKwElif, pBoolExprRef, pLBrace, grammar.Kleene("elif_body", nil, pStatementRef), pRBrace,
	)
	pElseClause = grammar.And("else_clause", nil,
		pKwElse, pLBrace, grammar.Kleene("else_body", nil, pStatementRef), pRBrace,
	)

	pWhileStmt = grammar.And("while_stmt", nil,
		pKwWhile, pBoolExprRef, pLBrace, grammar.Kleene("while_body", nil, pStatementRef), pRBrace,
	)

	pIndefLoopStmt = grammar.And("indef_loop_stmt", nil,
		pKwLoop, pLBrace, grammar.Kleene("loop_body", nil, pStatementRef), pRBrace,
	)

	pForLoopStmt = grammar.And("for_loop_stmt", nil,
		pKwFor, pType, pIdent, pEquals, pExprRef, pKwUntil, pExprRef,
		grammar.Kleene("maybe_step", nil, grammar.And("step_clause", nil, pKwStep, pExprRef)),
		pLBrace, grammar.Kleene("for_body", nil, pStatementRef), pRBrace,
	)

	pPrintStmt = grammar.And("print_stmt", nil,
		pKwPrint, pLParen, grammar.Kleene("print_args", nil, pExprRef, pComma), pRParen, pSemi,
	)

	pInputStmt = grammar.And("input_stmt", nil,
		pKwInput, pLParen, pIdent, pComma, pc.Int(), pRParen, pSemi,
	)

	pBreakStmt    = grammar.And("break_stmt", nil, pKwBreak, pSemi)
	pContinueStmt = grammar.And("continue_stmt", nil, pKwContinue, pSemi)

	pFuncCallStmt = grammar.And("func_call_stmt", nil, pFuncCallRef, pSemi)
)

// ----------------------------------------------------------------------------
// Expressions (postfix, parenthesised — spec §6.3)

func pExprRef(s pc.Scanner) (pc.Queryable, pc.Scanner)     { return pExpr(s) }
func pFuncCallRef(s pc.Scanner) (pc.Queryable, pc.Scanner) { return pFuncCall(s) }

var (
	// pExpr covers every numeric/string/char-sorted expression: a fully
	// parenthesised binary or unary application, a type cast, a function
	// call, or a bare literal/identifier leaf. There is no precedence to
	// resolve for the first two forms because parentheses bound each
	// operator's operand(s) exactly; a leaf is tried only once every
	// parenthesised/prefixed form has failed, so 'foo()' is never swallowed
	// as a lone identifier followed by dangling parens.
	pExpr = grammar.OrdChoice("expression", nil,
		pTypeCast, pFuncCallRef, pBinaryExpr, pUnaryExpr, pLiteral, pIdent,
	)

	pBinaryExpr = grammar.And("binary_expr", nil,
		pLParen, pExprRef, pComma, pExprRef, pRParen, pBinOp,
	)
	pUnaryExpr = grammar.And("unary_expr", nil, pLParen, pExprRef, pRParen, pUnOp)

	pTypeCast = grammar.And("type_cast", nil, pType, pLParen, pExprRef, pRParen)
	pFuncCall = grammar.And("func_call", nil, pIdent, pLParen, grammar.Kleene("call_args", nil, pExprRef, pComma), pRParen)

	pBinOp = grammar.OrdChoice("bin_op", nil,
		pc.Atom("+", "PLUS"), pc.Atom("-", "MINUS"), pc.Atom("*", "STAR"), pc.Atom("/", "SLASH"),
		pc.Atom("<<", "SHL"), pc.Atom(">>>", "ASHR"), pc.Atom(">>", "SHR"),
		pc.Atom("&", "AMP"), pc.Atom("|", "PIPE"), pc.Atom("^", "CARET"),
	)
	pUnOp = grammar.OrdChoice("un_op", nil, pc.Atom("-", "MINUS"), pc.Atom("~", "TILDE"))
)

// ----------------------------------------------------------------------------
// Boolean expressions (spec §6.3: a distinct sort from Expression)

func pBoolExprRef(s pc.Scanner) (pc.Queryable, pc.Scanner) { return pBoolExpr(s) }

var (
	pBoolExpr = grammar.OrdChoice("boolean_expr", nil, pBoolBinary, pBoolUnary, pBoolTerm)

	pBoolBinary = grammar.And("bool_binary", nil,
		pLParen, pBoolExprRef, pComma, pBoolExprRef, pRParen, pConnective,
	)
	pBoolUnary = grammar.And("bool_unary", nil, pLParen, pBoolExprRef, pRParen, pc.Atom("!", "BANG"))

	// pBoolTerm is the leaf of the boolean sort: a numeric comparison, a
	// literal, or a bare bool-typed identifier used directly as a condition.
	pBoolTerm   = grammar.OrdChoice("boolean_term", nil, pComparison, pBoolLiteral, pIdent)
	pComparison = grammar.And("comparison", nil, pLParen, pExprRef, pComma, pExprRef, pRParen, pCmpOp)

	pCmpOp = grammar.OrdChoice("cmp_op", nil,
		pc.Atom("==", "EQ"), pc.Atom("!=", "NE"),
		pc.Atom(">=", "GE"), pc.Atom(">", "GT"),
		pc.Atom("<=", "LE"), pc.Atom("<", "LT"),
	)
	pConnective = grammar.OrdChoice("connective", nil,
		pc.Atom("&&", "AND"), pc.Atom("||", "OR"), pc.Atom("^^", "XOR"),
	)

	pBoolLiteral = grammar.OrdChoice("bool_literal", nil, pc.Atom("true", "TRUE"), pc.Atom("false", "FALSE"))
)

// Ternary: "(" cond "," then "," else ")" "?" — valid only as a VarDecl RHS
// (spec §3); §6.3 publishes no concrete syntax for it, so this mirrors the
// postfix-parenthesised convention used everywhere else in the grammar.
var pTernaryExpr = grammar.And("ternary_expr", nil,
	pLParen, pBoolExprRef, pComma, pExprRef, pComma, pExprRef, pRParen, pc.Atom("?", "QMARK"),
)

// ----------------------------------------------------------------------------
// Literals, identifiers, keywords, punctuation

var (
	pLiteral = grammar.OrdChoice("literal", nil,
		pFloatLiteral, pIntLiteral,
		pc.Token(`"(?:\\.|[^"\\])*"`, "STRING"),
		pc.Token(`'(?:\\.|.)'`, "CHAR_LIT"),
	)
	// Integer literal: optional 0b/0x prefix, decimal otherwise, optional l/b suffix.
	pIntLiteral = pc.Token(`0[bB][01]+[lLbB]?|0[xX][0-9a-fA-F]+[lLbB]?|[0-9]+[lLbB]?`, "INT")
	// Float literal: 'X.Y' with optional 'd' suffix.
	pFloatLiteral = pc.Token(`[0-9]+\.[0-9]+[dD]?`, "FLOAT")

	pIdent = pc.Token(`[A-Za-z_][0-9a-zA-Z_]*`, "IDENT")

	pType = grammar.OrdChoice("data_type", nil,
		pc.Atom("int", "INT_KW"), pc.Atom("long", "LONG_KW"), pc.Atom("byte", "BYTE_KW"),
		pc.Atom("float", "FLOAT_KW"), pc.Atom("double", "DOUBLE_KW"), pc.Atom("char", "CHAR_KW"),
		pc.Atom("string", "STRING_KW"), pc.Atom("bool", "BOOL_KW"), pc.Atom("void", "VOID_KW"),
	)

	pKwFn       = pc.Atom("fn", "FN")
	pKwLet      = pc.Atom("let", "LET")
	pKwReturn   = pc.Atom("return", "RETURN")
	pKwIf       = pc.Atom("if", "IF")
	pKwElif     = pc.Atom("elif", "ELIF")
	pKwElse     = pc.Atom("else", "ELSE")
	pKwWhile    = pc.Atom("while", "WHILE")
	pKwLoop     = pc.Atom("loop", "LOOP")
	pKwFor      = pc.Atom("for", "FOR")
	pKwUntil    = pc.Atom("until", "UNTIL")
	pKwStep     = pc.Atom("step", "STEP")
	pKwPrint    = pc.Atom("print", "PRINT")
	pKwInput    = pc.Atom("input", "INPUT")
	pKwBreak    = pc.Atom("break", "BREAK")
	pKwContinue = pc.Atom("continue", "CONTINUE")

	pEquals = pc.Atom("=", "EQUALS")
	pComma  = pc.Atom(",", "COMMA")
	pSemi   = pc.Atom(";", "SEMI")
	pLParen = pc.Atom("(", "LPAREN")
	pRParen = pc.Atom(")", "RPAREN")
	pLBrace = pc.Atom("{", "LBRACE")
	pRBrace = pc.Atom("}", "RBRACE")
)

// ----------------------------------------------------------------------------
// Parser

// Parser turns Iridescent source text into a typed Program. Like
// jack.Parser/vm.Parser, it is a thin façade over two steps: FromSource
// (text -> raw pc.Queryable parse tree via goparsec) and FromAST (DFS walk
// producing the in-memory Program), kept separate so each can be unit
// tested against fixed parse trees without re-running the scanner.
type Parser struct{ reader io.Reader }

func NewParser(r io.Reader) Parser { return Parser{reader: r} }

func (p *Parser) Parse() (Program, error) {
	content, err := io.ReadAll(p.reader)
	if err != nil {
		return Program{}, fmt.Errorf("cannot read from 'io.Reader': %w", err)
	}

	root, ok := p.FromSource(content)
	if !ok {
		return Program{}, NewError(Pos{}, "syntax", "failed to parse program", nil)
	}

	return p.FromAST(root)
}

// FromSource scans 'source' and returns the raw, rule-named parse tree.
func (p *Parser) FromSource(source []byte) (pc.Queryable, bool) {
	if os.Getenv("PARSEC_DEBUG") != "" {
		grammar.SetDebug()
	}

	root, _ := grammar.Parsewith(pProgram, pc.NewScanner(source))

	if os.Getenv("EXPORT_AST") != "" {
		if file, ferr := os.Create(fmt.Sprintf("%s/debug.ast.dot", os.Getenv("DEBUG_FOLDER"))); ferr == nil {
			defer file.Close()
			file.WriteString(grammar.Dotstring("\"Iridescent AST\""))
		}
	}
	if os.Getenv("PRINT_AST") != "" {
		grammar.Prettyprint()
	}

	// TODO (iridescentc): success is really "reached EOF with no leftover
	// tokens"; goparsec surfaces that via the returned scanner's remainder,
	// not as a bool, so a nil root is the only failure case caught here.
	return root, root != nil
}
