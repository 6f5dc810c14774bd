package mips

import (
	_ "embed"
	"encoding/json"
)

// ----------------------------------------------------------------------------
// Embedded assets

// Templates is the emission template table (spec §6.2): keyed first by IR
// op name, then by a type class ("int", "long", "void", or "_" for ops with
// no type variant), each entry a list of MIPS lines with positional '{}'
// placeholders. Loaded the same way jack/stdlib.go loads its ABI table:
// embed the JSON, unmarshal it once at package init.
var Templates = map[string]map[string][]string{}

//go:embed templates.json
var templatesJSON string

func init() { json.Unmarshal([]byte(templatesJSON), &Templates) }

// Prelude is the runtime helper text (spec §6.4), appended verbatim after
// the emitted program. Kept as an opaque text blob, per spec §6.4's own
// wording — nothing in this package parses or transforms it.
//
//go:embed prelude.s
var Prelude string
