package sema

import (
	"fmt"

	"github.com/iridescent-lang/iridescentc/pkg/ast"
	"github.com/iridescent-lang/iridescentc/pkg/utils"
)

// Symbol is one declared variable: a function parameter or a 'let' binding.
type Symbol struct {
	Name    string
	Type    ast.PrimType
	Mutable bool
}

// Scope is a single block's variable bindings (one function body, one
// if/elif/else/while/for/loop body), mirroring jack.Scope — a flat stack so
// that shadowing a name in the same block simply pushes over the old entry.
type Scope struct{ entries utils.Stack[Symbol] }

// ScopeTable is a stack of nested Scopes, innermost last. Unlike
// jack.ScopeTable (which has fixed field/static/local/parameter scopes
// because Jack has classes), Iridescent has only block nesting: a function's
// parameters live in the outermost Scope, each nested '{ ... }' pushes one more.
type ScopeTable struct{ blocks utils.Stack[Scope] }

func NewScopeTable() *ScopeTable {
	st := &ScopeTable{}
	st.PushBlock()
	return st
}

func (st *ScopeTable) PushBlock() { st.blocks.Push(Scope{}) }

func (st *ScopeTable) PopBlock() { st.blocks.Pop() } //nolint:errcheck // balanced by construction

// RegisterVariable declares 'sym' in the current (innermost) block.
func (st *ScopeTable) RegisterVariable(sym Symbol) {
	top, err := st.blocks.Pop()
	if err != nil {
		top = Scope{}
	}
	top.entries.Push(sym)
	st.blocks.Push(top)
}

// ResolveVariable searches from the innermost block outward, matching the
// shadowing semantics any block-scoped language expects: the nearest
// enclosing declaration wins.
func (st *ScopeTable) ResolveVariable(name string) (Symbol, error) {
	for block := range st.blocks.Iterator() {
		for sym := range block.entries.Iterator() {
			if sym.Name == name {
				return sym, nil
			}
		}
	}
	return Symbol{}, fmt.Errorf("variable '%s' undeclared, not found in any enclosing scope", name)
}

// ----------------------------------------------------------------------------
// Function table

// FunctionSignature is the name/return-type/parameter-types triple a call
// site is checked against.
type FunctionSignature struct {
	Name   string
	Return ast.PrimType
	Params []ast.PrimType
}

// FunctionTable maps function name to FunctionSignature, keyed with an
// OrderedMap so that iterating declared functions (diagnostics, the IR
// Lowerer's emission order) is deterministic (spec §8).
type FunctionTable = utils.OrderedMap[string, FunctionSignature]

// ----------------------------------------------------------------------------
// Loop context

// LoopFrame tracks one nested loop's break-reachability (spec §4.2: a bare
// 'loop { }' must contain a lexically reachable 'break', otherwise it can
// never terminate and the program is rejected at compile time).
type LoopFrame struct{ HasBreak bool }

// LoopStack is the stack of currently-open loops a break/continue resolves
// against; it is non-empty exactly while the analyser is inside a
// while/loop/for body.
type LoopStack struct{ frames utils.Stack[*LoopFrame] }

func (ls *LoopStack) Push() *LoopFrame {
	frame := &LoopFrame{}
	ls.frames.Push(frame)
	return frame
}

func (ls *LoopStack) Pop() (*LoopFrame, error) { return ls.frames.Pop() }

func (ls *LoopStack) Current() (*LoopFrame, error) { return ls.frames.Top() }

func (ls *LoopStack) InLoop() bool { return !ls.frames.IsEmpty() }
