package sema_test

import (
	"strings"
	"testing"

	"github.com/iridescent-lang/iridescentc/pkg/ast"
	"github.com/iridescent-lang/iridescentc/pkg/sema"
)

func check(t *testing.T, source string) error {
	t.Helper()
	program, err := ast.NewParser(strings.NewReader(source)).Parse()
	if err != nil {
		t.Fatalf("source failed to parse: %v", err)
	}
	_, err = sema.NewAnalyser(program).Check()
	return err
}

func TestAnalyserValidPrograms(t *testing.T) {
	test := func(source string) {
		t.Helper()
		if err := check(t, source); err != nil {
			t.Fatalf("source %q: unexpected error: %v", source, err)
		}
	}

	test(`fn int main() { return 0; }`)
	test(`fn int add(int a, int b) { return (a,b)+; } fn int main() { return add(1, 2); }`)
	test(`fn int main() {
		let int x = 1;
		let mut int y = 2;
		y = (x,y)+;
		return y;
	}`)
	test(`fn int main() {
		let bool ok = true;
		if ok { return 1; } else { return 0; }
	}`)
	test(`fn int main() {
		let mut int total = 0;
		for int i = 0 until 10 step 1 {
			total = (total,i)+;
		}
		return total;
	}`)
	test(`fn int main() {
		loop {
			break;
		}
		return 0;
	}`)
	test(`fn int main() {
		let int x = (true, 1, 2)?;
		return x;
	}`)
	test(`fn void main() { print("hi"); return; }`)
	test(`fn void main() { let mut int x = 0; input(x, 8); return; }`)
}

func TestAnalyserRejectsBareLoopWithoutBreak(t *testing.T) {
	err := check(t, `fn int main() { loop { let int x = 1; } return 0; }`)
	if err == nil {
		t.Fatalf("expected an error for a 'loop' with no reachable 'break'")
	}
}

func TestAnalyserRejectsMissingMain(t *testing.T) {
	err := check(t, `fn int helper() { return 0; }`)
	if err == nil {
		t.Fatalf("expected an error for a program with no 'main' function")
	}
}

func TestAnalyserRejectsImmutableReassignment(t *testing.T) {
	err := check(t, `fn int main() {
		let int x = 1;
		x = 2;
		return x;
	}`)
	if err == nil {
		t.Fatalf("expected an error when assigning to an immutable variable")
	}
}

func TestAnalyserRejectsTypeMismatch(t *testing.T) {
	test := func(source string) {
		t.Helper()
		if err := check(t, source); err == nil {
			t.Fatalf("source %q: expected a type error", source)
		}
	}

	test(`fn int main() { let long x = 1; return x; }`)
	test(`fn int main() { return; }`)
	test(`fn void main() { return 1; }`)
	test(`fn int main() { let float x = (1,2)&; return x; }`)
}

func TestAnalyserRejectsBreakOutsideLoop(t *testing.T) {
	err := check(t, `fn int main() { break; return 0; }`)
	if err == nil {
		t.Fatalf("expected an error for 'break' outside a loop")
	}
}

func TestAnalyserRejectsUndeclaredVariable(t *testing.T) {
	err := check(t, `fn int main() { return missing; }`)
	if err == nil {
		t.Fatalf("expected an error for an undeclared variable reference")
	}
}

func TestAnalyserRejectsFunctionArityMismatch(t *testing.T) {
	err := check(t, `fn int add(int a, int b) { return (a,b)+; }
	fn int main() { return add(1); }`)
	if err == nil {
		t.Fatalf("expected an error for a call with the wrong argument count")
	}
}

func TestAnalyserRejectsForLoopWithNonIntCounter(t *testing.T) {
	err := check(t, `fn int main() { for float i = 0.0 until 1.0 { } return 0; }`)
	if err == nil {
		t.Fatalf("expected an error for a for-loop counter that isn't int/long")
	}
}
