package ast_test

import (
	"strings"
	"testing"

	"github.com/iridescent-lang/iridescentc/pkg/ast"
)

func TestParseFunctionDecl(t *testing.T) {
	test := func(source string, wantFuncs int, wantErr bool) {
		parser := ast.NewParser(strings.NewReader(source))
		program, err := parser.Parse()

		if (err != nil) != wantErr {
			t.Fatalf("source %q: unexpected error state: %v", source, err)
		}
		if err != nil {
			return
		}
		if len(program.Functions) != wantFuncs {
			t.Fatalf("source %q: expected %d functions, got %d", source, wantFuncs, len(program.Functions))
		}
	}

	t.Run("Valid programs", func(t *testing.T) {
		test("fn int main() { return 7; }", 1, false)
		test("fn void noop() { }", 1, false)
		test("fn int add(int a, int b) { return (a,b)+; }", 1, false)
		test("fn int a() { return 1; } fn int b() { return 2; }", 2, false)
	})
}

func TestParseVarDecl(t *testing.T) {
	parser := ast.NewParser(strings.NewReader(`fn int main() {
		let int x = 7;
		let mut long y = 10l;
		let bool ok = true;
		let int z = (x,y)+;
		return x;
	}`))

	program, err := parser.Parse()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(program.Functions) != 1 {
		t.Fatalf("expected 1 function, got %d", len(program.Functions))
	}

	body := program.Functions[0].Body
	if len(body) != 5 {
		t.Fatalf("expected 5 statements, got %d", len(body))
	}

	decl, ok := body[0].(ast.VarDecl)
	if !ok {
		t.Fatalf("expected first statement to be a VarDecl, got %T", body[0])
	}
	if decl.Mutable {
		t.Fatalf("expected 'x' to be immutable")
	}
	if decl.Expr == nil {
		t.Fatalf("expected 'x' to carry a plain Expr RHS")
	}

	mutDecl, ok := body[1].(ast.VarDecl)
	if !ok || !mutDecl.Mutable {
		t.Fatalf("expected second statement to be a mutable VarDecl")
	}

	boolDecl, ok := body[2].(ast.VarDecl)
	if !ok {
		t.Fatalf("expected third statement to be a VarDecl, got %T", body[2])
	}
	if boolDecl.BoolExpr == nil {
		t.Fatalf("expected bool-typed VarDecl to carry a BoolExpr RHS")
	}
	if lit, ok := boolDecl.BoolExpr.(ast.BoolLiteral); !ok || !lit.Value {
		t.Fatalf("expected bool literal 'true', got %#v", boolDecl.BoolExpr)
	}
}

func TestParseControlFlow(t *testing.T) {
	parser := ast.NewParser(strings.NewReader(`fn int main() {
		let int x = 0;
		if (x,0)== {
			return 1;
		} elif (x,1)== {
			return 2;
		} else {
			return 3;
		}
	}`))

	program, err := parser.Parse()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ifStmt, ok := program.Functions[0].Body[1].(ast.If)
	if !ok {
		t.Fatalf("expected second statement to be an If, got %T", program.Functions[0].Body[1])
	}
	if len(ifStmt.Elifs) != 1 {
		t.Fatalf("expected 1 elif clause, got %d", len(ifStmt.Elifs))
	}
	if len(ifStmt.Else) != 1 {
		t.Fatalf("expected else body with 1 statement, got %d", len(ifStmt.Else))
	}
}

func TestParseLoops(t *testing.T) {
	test := func(source string, wantErr bool) {
		_, err := ast.NewParser(strings.NewReader(source)).Parse()
		if (err != nil) != wantErr {
			t.Fatalf("source %q: unexpected error state: %v", source, err)
		}
	}

	test(`fn int main() { while true { break; } return 0; }`, false)
	test(`fn int main() { loop { break; } return 0; }`, false)
	test(`fn int main() { for int i = 0 until 10 { continue; } return 0; }`, false)
	test(`fn int main() { for int i = 0 until 10 step 2 { continue; } return 0; }`, false)
}

func TestParseTernary(t *testing.T) {
	parser := ast.NewParser(strings.NewReader(`fn int main() {
		let int x = (true, 1, 2)?;
		return x;
	}`))

	program, err := parser.Parse()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	decl, ok := program.Functions[0].Body[0].(ast.VarDecl)
	if !ok {
		t.Fatalf("expected a VarDecl, got %T", program.Functions[0].Body[0])
	}
	if decl.Ternary == nil {
		t.Fatalf("expected a ternary RHS")
	}
}

func TestParsePrintAndInput(t *testing.T) {
	test := func(source string, wantErr bool) {
		_, err := ast.NewParser(strings.NewReader(source)).Parse()
		if (err != nil) != wantErr {
			t.Fatalf("source %q: unexpected error state: %v", source, err)
		}
	}

	test(`fn void main() { print("hello"); return; }`, false)
	test(`fn void main() { let int x = 0; print(x); return; }`, false)
	test(`fn void main() { input(x, 16); return; }`, false)
}
