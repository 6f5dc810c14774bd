package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// compile writes source to a temp '.iri' file, runs Handler against it with
// the '-mips' target, and returns the generated '.asm' file's contents.
// There's no MIPS emulator in this repo (unlike the nand2tetris CPUEmulator
// the teacher's own cmd/*_test.go files shell out to), so these tests check
// the emitted assembly's structure rather than its executed result.
func compile(t *testing.T, source string) string {
	t.Helper()

	dir := t.TempDir()
	input := filepath.Join(dir, "program.iri")
	if err := os.WriteFile(input, []byte(source), 0o644); err != nil {
		t.Fatalf("failed to write input fixture: %v", err)
	}
	outputBase := filepath.Join(dir, "program")

	status := Handler([]string{input, outputBase}, map[string]string{"mips": "true"})
	if status != 0 {
		t.Fatalf("unexpected exit status code: expected 0, got %d", status)
	}

	asm, err := os.ReadFile(outputBase + ".asm")
	if err != nil {
		t.Fatalf("failed to read generated output: %v", err)
	}
	return string(asm)
}

// TestCompilerScenarios covers the 6 concrete end-to-end scenarios of spec §8.
func TestCompilerScenarios(t *testing.T) {
	t.Run("division of a sum", func(t *testing.T) {
		out := compile(t, `fn int main(){ let int x = ((7,7)+,2)/; return x; }`)
		requireContains(t, out, "main:", "div $t0, $t1", "lw $a0, 0($sp)")
	})

	t.Run("long multiply-then-add", func(t *testing.T) {
		out := compile(t, `fn long main(){ let long y = ((1000000l,1000000l)*,0l)+; return y; }`)
		requireContains(t, out, "main:", "multu $t0, $t2", "addu $t0, $t0, $t2", "lw $a1, 0($sp)")
	})

	t.Run("while loop accumulator", func(t *testing.T) {
		out := compile(t, `fn int main(){ let mut int i=0; let mut int s=0; while (i,10)< { s=(s,i)+; i=(i,1)+; } return s; }`)
		requireContains(t, out, "main:", "slt $t2, $t0, $t1", "beqz $t0, L_main_", "j L_main_")
	})

	t.Run("if/else branch", func(t *testing.T) {
		out := compile(t, `fn int main(){ let int a = 5; if (a,3)> { return 1; } else { return 0; } }`)
		requireContains(t, out, "main:", "slt $t2, $t1, $t0", "beqz $t0, L_main_")
	})

	t.Run("for loop sum", func(t *testing.T) {
		out := compile(t, `fn int main(){ let mut int n = 0; for int i = 1 until 5 { n = (n,i)+; } return n; }`)
		requireContains(t, out, "main:", "add $t0, $t0, $t1")
	})

	t.Run("round-trip cast", func(t *testing.T) {
		out := compile(t, `fn int main(){ let int x = int(long(5)); return x; }`)
		requireContains(t, out, "main:", "sra $t1, $t0, 31")
	})
}

func TestCompilerAppendsRuntimePrelude(t *testing.T) {
	out := compile(t, `fn void main(){ print("hi"); return; }`)
	requireContains(t, out, ".data", `.asciiz "hi"`, "li $v0, 4", "__strlen:", "__fromstring_int:")
}

func TestCompilerRejectsWrongExtension(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "program.txt")
	if err := os.WriteFile(input, []byte(`fn int main(){ return 0; }`), 0o644); err != nil {
		t.Fatalf("failed to write input fixture: %v", err)
	}

	status := Handler([]string{input, filepath.Join(dir, "program")}, map[string]string{"mips": "true"})
	if status == 0 {
		t.Fatalf("expected a non-zero exit status for a non-'.iri' input")
	}
}

func TestCompilerRejectsUnimplementedTargets(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "program.iri")
	if err := os.WriteFile(input, []byte(`fn int main(){ return 0; }`), 0o644); err != nil {
		t.Fatalf("failed to write input fixture: %v", err)
	}
	outputBase := filepath.Join(dir, "program")

	for _, target := range []string{"x64", "ird"} {
		status := Handler([]string{input, outputBase}, map[string]string{target: "true"})
		if status == 0 {
			t.Fatalf("expected a non-zero exit status for unimplemented target %q", target)
		}
	}
}

func TestCompilerRejectsNoTarget(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "program.iri")
	if err := os.WriteFile(input, []byte(`fn int main(){ return 0; }`), 0o644); err != nil {
		t.Fatalf("failed to write input fixture: %v", err)
	}
	outputBase := filepath.Join(dir, "program")

	if status := Handler([]string{input, outputBase}, map[string]string{}); status == 0 {
		t.Fatalf("expected a non-zero exit status when no target flag is provided")
	}
}

func requireContains(t *testing.T, haystack string, needles ...string) {
	t.Helper()
	for _, needle := range needles {
		if !strings.Contains(haystack, needle) {
			t.Fatalf("expected generated output to contain %q, got:\n%s", needle, haystack)
		}
	}
}
