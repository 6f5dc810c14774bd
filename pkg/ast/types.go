package ast

// ----------------------------------------------------------------------------
// Primitive types

// PrimType enumerates the closed set of primitive types in Iridescent (spec §3).
// There is deliberately no way to construct a user-defined/composite type: the
// language has no structs, arrays or classes, only these primitives.
type PrimType string

const (
	Int    PrimType = "int"
	Long   PrimType = "long"
	Byte   PrimType = "byte"
	Float  PrimType = "float"
	Double PrimType = "double"
	Char   PrimType = "char"
	String PrimType = "string"
	Bool   PrimType = "bool"
	Void   PrimType = "void" // only valid as a function return type
)

// IsPrimType reports whether 'kw' names one of the primitive type keywords.
func IsPrimType(kw string) bool {
	switch PrimType(kw) {
	case Int, Long, Byte, Float, Double, Char, String, Bool, Void:
		return true
	default:
		return false
	}
}

// SlotSize returns the stack-slot width (in bytes) of a value of this type, per
// spec §3: int/byte/float/bool/char occupy one 4-byte slot, long/double/string
// occupy one 8-byte slot (string is conceptually a pointer, realised as an 8
// byte pointer pair in the MIPS back-end but treated as a single slot here).
func (t PrimType) SlotSize() int {
	switch t {
	case Long, Double, String:
		return 8
	default:
		return 4
	}
}

// IsNumeric reports whether the type participates in arithmetic/cast rules.
func (t PrimType) IsNumeric() bool {
	switch t {
	case Int, Long, Byte, Float, Double, Char:
		return true
	default:
		return false
	}
}

// ----------------------------------------------------------------------------
// Source positions

// Pos identifies where in the source text a node originated, so that every
// fatal error (spec §7) can be reported with line/column.
type Pos struct {
	Line   int
	Column int
}
