package sema_test

import (
	"testing"

	"github.com/iridescent-lang/iridescentc/pkg/ast"
	"github.com/iridescent-lang/iridescentc/pkg/sema"
)

func TestScopeTableResolution(t *testing.T) {
	test := func(st *sema.ScopeTable, lookup string, expected sema.Symbol, fail bool) {
		sym, err := st.ResolveVariable(lookup)
		if (err != nil) != fail {
			t.Fatalf("lookup %q: unexpected error state: %v", lookup, err)
		}
		if err == nil && sym != expected {
			t.Errorf("lookup %q: expected %+v, got %+v", lookup, expected, sym)
		}
	}

	t.Run("Without shadowing", func(t *testing.T) {
		st := sema.NewScopeTable()
		st.RegisterVariable(sema.Symbol{Name: "a", Type: ast.Int})
		st.RegisterVariable(sema.Symbol{Name: "b", Type: ast.Bool, Mutable: true})

		test(st, "a", sema.Symbol{Name: "a", Type: ast.Int}, false)
		test(st, "b", sema.Symbol{Name: "b", Type: ast.Bool, Mutable: true}, false)
		test(st, "c", sema.Symbol{}, true)
	})

	t.Run("With shadowing across nested blocks", func(t *testing.T) {
		st := sema.NewScopeTable()
		st.RegisterVariable(sema.Symbol{Name: "x", Type: ast.Int})

		st.PushBlock()
		st.RegisterVariable(sema.Symbol{Name: "x", Type: ast.Long, Mutable: true})
		test(st, "x", sema.Symbol{Name: "x", Type: ast.Long, Mutable: true}, false)

		st.PopBlock()
		test(st, "x", sema.Symbol{Name: "x", Type: ast.Int}, false)
	})

	t.Run("With block deallocation", func(t *testing.T) {
		st := sema.NewScopeTable()
		st.RegisterVariable(sema.Symbol{Name: "outer", Type: ast.String})

		st.PushBlock()
		st.RegisterVariable(sema.Symbol{Name: "inner", Type: ast.Char})
		test(st, "inner", sema.Symbol{Name: "inner", Type: ast.Char}, false)
		st.PopBlock()

		test(st, "inner", sema.Symbol{}, true)
		test(st, "outer", sema.Symbol{Name: "outer", Type: ast.String}, false)
	})
}

func TestLoopStack(t *testing.T) {
	ls := sema.LoopStack{}
	if ls.InLoop() {
		t.Fatalf("expected an empty LoopStack to report InLoop() == false")
	}

	frame := ls.Push()
	if !ls.InLoop() {
		t.Fatalf("expected InLoop() == true after Push")
	}

	frame.HasBreak = true
	current, err := ls.Current()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !current.HasBreak {
		t.Fatalf("expected HasBreak to propagate through Current()")
	}

	if _, err := ls.Pop(); err != nil {
		t.Fatalf("unexpected error popping: %v", err)
	}
	if ls.InLoop() {
		t.Fatalf("expected InLoop() == false after Pop")
	}
}
