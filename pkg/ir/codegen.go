package ir

import "fmt"

// ----------------------------------------------------------------------------
// Code Generator

// CodeGenerator renders an ir.Program back to a readable per-opcode text
// format, the direct analogue of vm.CodeGenerator: useful for golden tests
// and for inspecting what the Lowerer produced without reading MIPS.
type CodeGenerator struct{ program Program }

func NewCodeGenerator(p Program) CodeGenerator { return CodeGenerator{program: p} }

// Generate renders each function's operations to one text line per
// instruction, keyed by function name — the direct analogue of
// vm.CodeGenerator.Generate's map[string][]string return.
func (cg *CodeGenerator) Generate() (map[string][]string, error) {
	out := map[string][]string{}

	for _, module := range cg.program {
		for _, operation := range module.Ops {
			var generated string
			var err error

			switch op := operation.(type) {
			case PushOp:
				generated, err = cg.GeneratePushOp(op)
			case LoadOp:
				generated, err = cg.GenerateLoadOp(op)
			case StoreOp:
				generated, err = cg.GenerateStoreOp(op)
			case ArithmeticOp:
				generated, err = cg.GenerateArithmeticOp(op)
			case LogicalOp:
				generated, err = cg.GenerateLogicalOp(op)
			case CastOp:
				generated, err = cg.GenerateCastOp(op)
			case LabelOp:
				generated, err = cg.GenerateLabelOp(op)
			case JumpOp:
				generated, err = cg.GenerateJumpOp(op)
			case JumpZeroOp:
				generated, err = cg.GenerateJumpZeroOp(op)
			case StartFuncOp:
				generated, err = cg.GenerateStartFuncOp(op)
			case ReturnOp:
				generated, err = cg.GenerateReturnOp(op)
			case CallOp:
				generated, err = cg.GenerateCallOp(op)
			case PrintOp:
				generated, err = cg.GeneratePrintOp(op)
			case InputOp:
				generated, err = cg.GenerateInputOp(op)
			default:
				err = fmt.Errorf("ir: unrecognized operation %T", operation)
			}

			if err != nil {
				return nil, err
			}
			out[module.Name] = append(out[module.Name], generated)
		}
	}

	return out, nil
}

// GeneratePushOp converts a 'PushOp' operation to its text format.
func (cg *CodeGenerator) GeneratePushOp(op PushOp) (string, error) {
	return fmt.Sprintf("push %s %s", op.Type, op.Lit.Raw), nil
}

// GenerateLoadOp converts a 'LoadOp' operation to its text format.
func (cg *CodeGenerator) GenerateLoadOp(op LoadOp) (string, error) {
	return fmt.Sprintf("load %s %d", op.Type, op.Offset), nil
}

// GenerateStoreOp converts a 'StoreOp' operation to its text format.
func (cg *CodeGenerator) GenerateStoreOp(op StoreOp) (string, error) {
	return fmt.Sprintf("store %s %d", op.Type, op.Offset), nil
}

// GenerateArithmeticOp converts an 'ArithmeticOp' operation to its text format.
func (cg *CodeGenerator) GenerateArithmeticOp(op ArithmeticOp) (string, error) {
	if op.Op == "" {
		return "", fmt.Errorf("ir: unable to produce empty arithmetic operation")
	}
	return fmt.Sprintf("%s %s", op.Op, op.Type), nil
}

// GenerateLogicalOp converts a 'LogicalOp' operation to its text format.
func (cg *CodeGenerator) GenerateLogicalOp(op LogicalOp) (string, error) {
	if op.Op == "" {
		return "", fmt.Errorf("ir: unable to produce empty logical operation")
	}
	return string(op.Op), nil
}

// GenerateCastOp converts a 'CastOp' operation to its text format.
func (cg *CodeGenerator) GenerateCastOp(op CastOp) (string, error) {
	return fmt.Sprintf("cast %s %s", op.From, op.To), nil
}

// GenerateLabelOp converts a 'LabelOp' operation to its text format.
func (cg *CodeGenerator) GenerateLabelOp(op LabelOp) (string, error) {
	if op.Name == "" {
		return "", fmt.Errorf("ir: unable to produce empty label declaration")
	}
	return fmt.Sprintf("label %s", op.Name), nil
}

// GenerateJumpOp converts a 'JumpOp' operation to its text format.
func (cg *CodeGenerator) GenerateJumpOp(op JumpOp) (string, error) {
	if op.Label == "" {
		return "", fmt.Errorf("ir: unable to produce empty jump target")
	}
	return fmt.Sprintf("jump %s", op.Label), nil
}

// GenerateJumpZeroOp converts a 'JumpZeroOp' operation to its text format.
func (cg *CodeGenerator) GenerateJumpZeroOp(op JumpZeroOp) (string, error) {
	if op.Label == "" {
		return "", fmt.Errorf("ir: unable to produce empty jump_zero target")
	}
	return fmt.Sprintf("jump_zero %s", op.Label), nil
}

// GenerateStartFuncOp converts a 'StartFuncOp' operation to its text format.
func (cg *CodeGenerator) GenerateStartFuncOp(op StartFuncOp) (string, error) {
	if op.Name == "" {
		return "", fmt.Errorf("ir: unable to produce empty function declaration")
	}
	return fmt.Sprintf("start_func %s %d", op.Name, op.FrameSize), nil
}

// GenerateReturnOp converts a 'ReturnOp' operation to its text format.
func (cg *CodeGenerator) GenerateReturnOp(op ReturnOp) (string, error) {
	if op.HasValue {
		return fmt.Sprintf("return %s", op.Type), nil
	}
	return "return", nil
}

// GenerateCallOp converts a 'CallOp' operation to its text format.
func (cg *CodeGenerator) GenerateCallOp(op CallOp) (string, error) {
	if op.Name == "" {
		return "", fmt.Errorf("ir: unable to produce empty function call")
	}
	return fmt.Sprintf("call %s %d", op.Name, len(op.ArgTypes)), nil
}

// GeneratePrintOp converts a 'PrintOp' operation to its text format.
func (cg *CodeGenerator) GeneratePrintOp(op PrintOp) (string, error) {
	return fmt.Sprintf("print %s", op.Type), nil
}

// GenerateInputOp converts an 'InputOp' operation to its text format.
func (cg *CodeGenerator) GenerateInputOp(op InputOp) (string, error) {
	if op.Max < 2 {
		return "", fmt.Errorf("ir: input buffer size must be at least 2, got %d", op.Max)
	}
	return fmt.Sprintf("input %s %d %d", op.Type, op.Max, op.Offset), nil
}
