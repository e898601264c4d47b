package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writePool(t *testing.T, start int) string {
	t.Helper()
	var b strings.Builder
	fmt.Fprintf(&b, "quiz:\n  startinglevel: %d\n  lowestlevel: 1\n  highestlevel: 5\n  minimumquestions: 2\n  maximumquestions: 6\n  standarderror: 1\nquestions:\n", start)
	for lvl := 1; lvl <= 4; lvl++ {
		for k := 0; k < 3; k++ {
			fmt.Fprintf(&b, "  - {id: %d, category: c, type: true_false, answer: [\"true\"], tags: [adpq_%d]}\n", lvl*10+k, lvl)
		}
	}
	path := filepath.Join(t.TempDir(), "pool.yaml")
	if err := os.WriteFile(path, []byte(b.String()), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestValidate(t *testing.T) {
	out, err := run(t, "validate", "--pool", writePool(t, 3))
	if err != nil {
		t.Fatalf("validate: %v\n%s", err, out)
	}
	if !strings.Contains(out, "OK: 12 questions") {
		t.Errorf("unexpected output:\n%s", out)
	}

	if _, err := run(t, "validate", "--pool", writePool(t, 5)); err == nil || !strings.Contains(err.Error(), "questionpool") {
		t.Errorf("missing starting level: %v", err)
	}
}

func TestValidatePartialQuizSection(t *testing.T) {
	var b strings.Builder
	b.WriteString("quiz:\n  startinglevel: 5\nquestions:\n")
	for lvl := 1; lvl <= 10; lvl++ {
		fmt.Fprintf(&b, "  - {id: %d, category: c, type: true_false, answer: [\"true\"], level: %d}\n", lvl, lvl)
	}
	path := filepath.Join(t.TempDir(), "pool.yaml")
	if err := os.WriteFile(path, []byte(b.String()), 0o600); err != nil {
		t.Fatal(err)
	}
	out, err := run(t, "validate", "--pool", path)
	if err != nil {
		t.Fatalf("validate: %v\n%s", err, out)
	}
	if !strings.Contains(out, "OK: 10 questions, levels 1-10, starting at 5") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestSimulate(t *testing.T) {
	path := writePool(t, 3)
	out, err := run(t, "simulate", "--pool", path, "--examinees", "20", "--seed", "3", "--format", "markdown", "--details")
	if err != nil {
		t.Fatalf("simulate: %v\n%s", err, out)
	}
	for _, w := range []string{"| Metric", "RMSE", "Estimate"} {
		if !strings.Contains(out, w) {
			t.Errorf("output missing %q:\n%s", w, out)
		}
	}
	if _, err := run(t, "simulate", "--pool", path, "--format", "pdf", "--details=false"); err == nil {
		t.Error("expected error for unknown format")
	}
}
