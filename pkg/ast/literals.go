package ast

import (
	"strconv"
	"strings"
)

// ----------------------------------------------------------------------------
// Literal parsing

// This section turns a raw lexeme (as produced by the goparsec number/string
// tokens in parsing.go) into a typed Literal node, honouring the bases and
// suffixes of spec §4.1/§6.3: '0b...'/'0x...'/decimal, suffix 'l' -> long,
// 'b' -> byte, 'd' -> double, and 'X.Y' -> float. Overflow of the realised
// signed range is a fatal AST-construction error (spec §7, §8).

// parseIntLiteral parses an integer lexeme (optionally base-prefixed and
// suffixed) into a Literal, defaulting to 'int' when no suffix is present.
func parseIntLiteral(lexeme string, pos Pos) (Literal, error) {
	suffix, body := PrimType(""), lexeme

	switch {
	case strings.HasSuffix(lexeme, "l"), strings.HasSuffix(lexeme, "L"):
		suffix, body = Long, lexeme[:len(lexeme)-1]
	case strings.HasSuffix(lexeme, "b"), strings.HasSuffix(lexeme, "B"):
		suffix, body = Byte, lexeme[:len(lexeme)-1]
	}

	base := 10
	switch {
	case strings.HasPrefix(body, "0b"), strings.HasPrefix(body, "0B"):
		base, body = 2, body[2:]
	case strings.HasPrefix(body, "0x"), strings.HasPrefix(body, "0X"):
		base, body = 16, body[2:]
	}

	bitSize := 64
	value, err := strconv.ParseInt(body, base, bitSize)
	if err != nil {
		// Re-parse unsigned to distinguish "not a number" from "overflow", so the
		// error message matches the taxonomy in spec §7 ("malformed literal
		// overflow of signed range").
		if _, uerr := strconv.ParseUint(body, base, 64); uerr == nil {
			return Literal{}, NewError(pos, "ast", "integer literal overflows signed range: "+lexeme, nil)
		}
		return Literal{}, NewError(pos, "ast", "malformed integer literal: "+lexeme, err)
	}

	switch suffix {
	case Long:
		return Literal{Type: Long, Raw: lexeme, IntVal: value, Pos: pos}, nil
	case Byte:
		if value < 0 || value > 255 {
			return Literal{}, NewError(pos, "ast", "byte literal out of range 0..=255: "+lexeme, nil)
		}
		return Literal{Type: Byte, Raw: lexeme, IntVal: value, Pos: pos}, nil
	default:
		if value < -(1<<31) || value > (1<<31)-1 {
			return Literal{}, NewError(pos, "ast", "int literal overflows 32-bit signed range: "+lexeme, nil)
		}
		return Literal{Type: Int, Raw: lexeme, IntVal: value, Pos: pos}, nil
	}
}

// parseFloatLiteral parses an 'X.Y' lexeme, honouring the 'd' suffix for double.
func parseFloatLiteral(lexeme string, pos Pos) (Literal, error) {
	typ, body := Float, lexeme

	if strings.HasSuffix(lexeme, "d") || strings.HasSuffix(lexeme, "D") {
		typ, body = Double, lexeme[:len(lexeme)-1]
	}

	value, err := strconv.ParseFloat(body, 64)
	if err != nil {
		return Literal{}, NewError(pos, "ast", "malformed float literal: "+lexeme, err)
	}

	return Literal{Type: typ, Raw: lexeme, FloatVal: value, Pos: pos}, nil
}

// parseStringLiteral strips the surrounding quotes; escape handling is
// deliberately minimal (spec §4.1): only '\\' and '\"' are unescaped, the
// rest of the UTF-8 content is kept verbatim.
func parseStringLiteral(lexeme string, pos Pos) Literal {
	trimmed := lexeme
	if len(trimmed) >= 2 && trimmed[0] == '"' && trimmed[len(trimmed)-1] == '"' {
		trimmed = trimmed[1 : len(trimmed)-1]
	}

	replacer := strings.NewReplacer(`\"`, `"`, `\\`, `\`)
	return Literal{Type: String, Raw: lexeme, StrVal: replacer.Replace(trimmed), Pos: pos}
}

// parseCharLiteral strips the surrounding quotes of a single-character lexeme.
func parseCharLiteral(lexeme string, pos Pos) (Literal, error) {
	trimmed := lexeme
	if len(trimmed) >= 2 && trimmed[0] == '\'' && trimmed[len(trimmed)-1] == '\'' {
		trimmed = trimmed[1 : len(trimmed)-1]
	}
	if len(trimmed) != 1 {
		return Literal{}, NewError(pos, "ast", "malformed char literal: "+lexeme, nil)
	}
	return Literal{Type: Char, Raw: lexeme, CharVal: trimmed[0], Pos: pos}, nil
}

func parseBoolLiteral(lexeme string, pos Pos) Literal {
	return Literal{Type: Bool, Raw: lexeme, BoolVal: lexeme == "true", Pos: pos}
}
