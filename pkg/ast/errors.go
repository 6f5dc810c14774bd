package ast

import "fmt"

// PosError is the shared fatal-error type for every compiler phase (spec §7):
// syntax, AST-construction, scope, type and control-flow errors all carry a
// source Pos and a short message, and compilation aborts on the first one
// raised (no recovery, no warnings).
type PosError struct {
	Pos     Pos
	Phase   string // "syntax", "ast", "scope", "type", "control-flow", "backend"
	Message string
	Cause   error
}

func (e *PosError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%d:%d: %s error: %s: %s", e.Pos.Line, e.Pos.Column, e.Phase, e.Message, e.Cause)
	}
	return fmt.Sprintf("%d:%d: %s error: %s", e.Pos.Line, e.Pos.Column, e.Phase, e.Message)
}

func (e *PosError) Unwrap() error { return e.Cause }

// NewError builds a PosError for the given phase, optionally wrapping 'cause'.
func NewError(pos Pos, phase, message string, cause error) *PosError {
	return &PosError{Pos: pos, Phase: phase, Message: message, Cause: cause}
}
