package ir_test

import (
	"testing"

	"github.com/iridescent-lang/iridescentc/pkg/ast"
	"github.com/iridescent-lang/iridescentc/pkg/ir"
)

func TestPushOp(t *testing.T) {
	codegen := ir.NewCodeGenerator(ir.Program{})

	test := func(inst ir.PushOp, expected string, fail bool) {
		res, err := codegen.GeneratePushOp(inst)
		if res != expected {
			t.Fail()
		}
		if err != nil && !fail {
			t.Fail()
		}
	}

	t.Run("Valid data", func(t *testing.T) {
		test(ir.PushOp{Type: ast.Int, Lit: ast.Literal{Raw: "5"}}, "push int 5", false)
		test(ir.PushOp{Type: ast.Long, Lit: ast.Literal{Raw: "100l"}}, "push long 100l", false)
		test(ir.PushOp{Type: ast.Bool, Lit: ast.Literal{Raw: "true"}}, "push bool true", false)
	})
}

func TestLoadOp(t *testing.T) {
	codegen := ir.NewCodeGenerator(ir.Program{})

	test := func(inst ir.LoadOp, expected string, fail bool) {
		res, err := codegen.GenerateLoadOp(inst)
		if res != expected {
			t.Fail()
		}
		if err != nil && !fail {
			t.Fail()
		}
	}

	t.Run("Valid data", func(t *testing.T) {
		test(ir.LoadOp{Type: ast.Int, Offset: -4}, "load int -4", false)
		test(ir.LoadOp{Type: ast.Long, Offset: -16}, "load long -16", false)
	})
}

func TestStoreOp(t *testing.T) {
	codegen := ir.NewCodeGenerator(ir.Program{})

	test := func(inst ir.StoreOp, expected string, fail bool) {
		res, err := codegen.GenerateStoreOp(inst)
		if res != expected {
			t.Fail()
		}
		if err != nil && !fail {
			t.Fail()
		}
	}

	t.Run("Valid data", func(t *testing.T) {
		test(ir.StoreOp{Type: ast.Int, Offset: -4}, "store int -4", false)
		test(ir.StoreOp{Type: ast.Byte, Offset: -8}, "store byte -8", false)
	})
}

func TestArithmeticOp(t *testing.T) {
	codegen := ir.NewCodeGenerator(ir.Program{})

	test := func(inst ir.ArithmeticOp, expected string, fail bool) {
		res, err := codegen.GenerateArithmeticOp(inst)
		if res != expected {
			t.Fail()
		}
		if err != nil && !fail {
			t.Fail()
		}
	}

	t.Run("Valid data", func(t *testing.T) {
		test(ir.ArithmeticOp{Op: ir.OpAdd, Type: ast.Int}, "add int", false)
		test(ir.ArithmeticOp{Op: ir.OpSub, Type: ast.Long}, "sub long", false)
		test(ir.ArithmeticOp{Op: ir.OpMult, Type: ast.Int}, "mult int", false)
		test(ir.ArithmeticOp{Op: ir.OpTestGreaterThan, Type: ast.Int}, "test_greater_than int", false)
		test(ir.ArithmeticOp{Op: ir.OpComplement, Type: ast.Int}, "complement int", false)
	})

	t.Run("Invalid data", func(t *testing.T) {
		test(ir.ArithmeticOp{Op: "", Type: ast.Int}, "", true)
	})
}

func TestLogicalOp(t *testing.T) {
	codegen := ir.NewCodeGenerator(ir.Program{})

	test := func(inst ir.LogicalOp, expected string, fail bool) {
		res, err := codegen.GenerateLogicalOp(inst)
		if res != expected {
			t.Fail()
		}
		if err != nil && !fail {
			t.Fail()
		}
	}

	t.Run("Valid data", func(t *testing.T) {
		test(ir.LogicalOp{Op: ir.OpLogicalAnd}, "logical_and", false)
		test(ir.LogicalOp{Op: ir.OpLogicalOr}, "logical_or", false)
		test(ir.LogicalOp{Op: ir.OpLogicalNeg}, "logical_neg", false)
	})

	t.Run("Invalid data", func(t *testing.T) {
		test(ir.LogicalOp{Op: ""}, "", true)
	})
}

func TestCastOp(t *testing.T) {
	codegen := ir.NewCodeGenerator(ir.Program{})

	test := func(inst ir.CastOp, expected string, fail bool) {
		res, err := codegen.GenerateCastOp(inst)
		if res != expected {
			t.Fail()
		}
		if err != nil && !fail {
			t.Fail()
		}
	}

	t.Run("Valid data", func(t *testing.T) {
		test(ir.CastOp{From: ast.Int, To: ast.Long}, "cast int long", false)
		test(ir.CastOp{From: ast.Float, To: ast.Double}, "cast float double", false)
	})
}

func TestLabelOp(t *testing.T) {
	codegen := ir.NewCodeGenerator(ir.Program{})

	test := func(inst ir.LabelOp, expected string, fail bool) {
		res, err := codegen.GenerateLabelOp(inst)
		if res != expected {
			t.Fail()
		}
		if err != nil && !fail {
			t.Fail()
		}
	}

	t.Run("Valid data", func(t *testing.T) {
		test(ir.LabelOp{Name: "L_main_0_endif"}, "label L_main_0_endif", false)
		test(ir.LabelOp{Name: "L_add_1_loop"}, "label L_add_1_loop", false)
	})

	t.Run("Invalid data", func(t *testing.T) {
		test(ir.LabelOp{Name: ""}, "", true)
	})
}

func TestJumpOp(t *testing.T) {
	codegen := ir.NewCodeGenerator(ir.Program{})

	test := func(inst ir.JumpOp, expected string, fail bool) {
		res, err := codegen.GenerateJumpOp(inst)
		if res != expected {
			t.Fail()
		}
		if err != nil && !fail {
			t.Fail()
		}
	}

	t.Run("Valid data", func(t *testing.T) {
		test(ir.JumpOp{Label: "L_main_0_end"}, "jump L_main_0_end", false)
	})

	t.Run("Invalid data", func(t *testing.T) {
		test(ir.JumpOp{Label: ""}, "", true)
	})
}

func TestJumpZeroOp(t *testing.T) {
	codegen := ir.NewCodeGenerator(ir.Program{})

	test := func(inst ir.JumpZeroOp, expected string, fail bool) {
		res, err := codegen.GenerateJumpZeroOp(inst)
		if res != expected {
			t.Fail()
		}
		if err != nil && !fail {
			t.Fail()
		}
	}

	t.Run("Valid data", func(t *testing.T) {
		test(ir.JumpZeroOp{Label: "L_main_0_else"}, "jump_zero L_main_0_else", false)
	})

	t.Run("Invalid data", func(t *testing.T) {
		test(ir.JumpZeroOp{Label: ""}, "", true)
	})
}

func TestStartFuncOp(t *testing.T) {
	codegen := ir.NewCodeGenerator(ir.Program{})

	test := func(inst ir.StartFuncOp, expected string, fail bool) {
		res, err := codegen.GenerateStartFuncOp(inst)
		if res != expected {
			t.Fail()
		}
		if err != nil && !fail {
			t.Fail()
		}
	}

	t.Run("Valid data", func(t *testing.T) {
		test(ir.StartFuncOp{Name: "main", FrameSize: 0}, "start_func main 0", false)
		test(ir.StartFuncOp{Name: "add", FrameSize: 12}, "start_func add 12", false)
	})

	t.Run("Invalid data", func(t *testing.T) {
		test(ir.StartFuncOp{Name: "", FrameSize: 4}, "", true)
	})
}

func TestReturnOp(t *testing.T) {
	codegen := ir.NewCodeGenerator(ir.Program{})

	test := func(inst ir.ReturnOp, expected string, fail bool) {
		res, err := codegen.GenerateReturnOp(inst)
		if res != expected {
			t.Fail()
		}
		if err != nil && !fail {
			t.Fail()
		}
	}

	t.Run("Valid data", func(t *testing.T) {
		test(ir.ReturnOp{HasValue: false}, "return", false)
		test(ir.ReturnOp{Type: ast.Int, HasValue: true}, "return int", false)
	})
}

func TestCallOp(t *testing.T) {
	codegen := ir.NewCodeGenerator(ir.Program{})

	test := func(inst ir.CallOp, expected string, fail bool) {
		res, err := codegen.GenerateCallOp(inst)
		if res != expected {
			t.Fail()
		}
		if err != nil && !fail {
			t.Fail()
		}
	}

	t.Run("Valid data", func(t *testing.T) {
		test(ir.CallOp{Name: "add", ArgTypes: []ast.PrimType{ast.Int, ast.Int}}, "call add 2", false)
		test(ir.CallOp{Name: "main", ArgTypes: nil}, "call main 0", false)
	})

	t.Run("Invalid data", func(t *testing.T) {
		test(ir.CallOp{Name: "", ArgTypes: nil}, "", true)
	})
}

func TestPrintOp(t *testing.T) {
	codegen := ir.NewCodeGenerator(ir.Program{})

	test := func(inst ir.PrintOp, expected string, fail bool) {
		res, err := codegen.GeneratePrintOp(inst)
		if res != expected {
			t.Fail()
		}
		if err != nil && !fail {
			t.Fail()
		}
	}

	t.Run("Valid data", func(t *testing.T) {
		test(ir.PrintOp{Type: ast.String}, "print string", false)
		test(ir.PrintOp{Type: ast.Int}, "print int", false)
	})
}

func TestInputOp(t *testing.T) {
	codegen := ir.NewCodeGenerator(ir.Program{})

	test := func(inst ir.InputOp, expected string, fail bool) {
		res, err := codegen.GenerateInputOp(inst)
		if res != expected {
			t.Fail()
		}
		if err != nil && !fail {
			t.Fail()
		}
	}

	t.Run("Valid data", func(t *testing.T) {
		test(ir.InputOp{Type: ast.Int, Max: 8, Offset: -4}, "input int 8 -4", false)
		test(ir.InputOp{Type: ast.String, Max: 32, Offset: -8}, "input string 32 -8", false)
	})

	t.Run("Invalid data", func(t *testing.T) {
		test(ir.InputOp{Type: ast.Int, Max: 1, Offset: -4}, "", true)
		test(ir.InputOp{Type: ast.Int, Max: 0, Offset: -4}, "", true)
	})
}
