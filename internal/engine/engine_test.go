package engine_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/emberlang/ember/internal/engine"
)

func TestPrintln(t *testing.T) {
	h := setup(t)

	h.script("println(1 + 2);", "3\n")
}

func TestFunctionCall(t *testing.T) {
	h := setup(t)

	h.script("fn add(a, b) { return a + b; } println(add(2, 3));", "5\n")
}

func TestCounterClosure(t *testing.T) {
	h := setup(t)

	h.script("x = 0; fn mk() { fn inc() { x `= x + 1; return x; } return inc; } f = mk(); println(f()); println(f());",
		"1\n2\n")
}

func TestScatterAssignment(t *testing.T) {
	h := setup(t)

	h.script("x = [1, 2, 3]; x[[2, 3]] `= [20, 30]; println(x);", "[1, 20, 30]\n")
}

func TestSteppedRange(t *testing.T) {
	h := setup(t)

	h.script("x = 1..2..9; println(x);", "[1, 3, 5, 7, 9]\n")
}

func TestEarlyReturn(t *testing.T) {
	h := setup(t)

	h.script("fn f() { if (true) { return 7; } return 0; } println(f());", "7\n")
}

func TestRuntimeErrorExitCode(t *testing.T) {
	h := setup(t)

	code := h.file("println([1, 2] + [3]);")

	if code != engine.ExitRuntime {
		t.Errorf("expected exit %d, got %d", engine.ExitRuntime, code)
	}

	if h.out.Len() != 0 {
		t.Errorf("expected no stdout, got %q", h.out.String())
	}

	if !strings.Contains(h.errw.String(), "numbers or strings") {
		t.Errorf("expected a type mismatch diagnostic, got %q", h.errw.String())
	}
}

func TestParseErrorExitCode(t *testing.T) {
	h := setup(t)

	if code := h.file("1 +;"); code != engine.ExitData {
		t.Errorf("expected exit %d, got %d", engine.ExitData, code)
	}
}

func TestResolveErrorExitCode(t *testing.T) {
	h := setup(t)

	if code := h.file("return 1;"); code != engine.ExitData {
		t.Errorf("expected exit %d, got %d", engine.ExitData, code)
	}
}

func TestCleanExitCode(t *testing.T) {
	h := setup(t)

	if code := h.file("println(1);"); code != engine.ExitOK {
		t.Errorf("expected exit %d, got %d", engine.ExitOK, code)
	}
}

func TestMissingFile(t *testing.T) {
	h := setup(t)

	e := engine.New(strings.NewReader(""), h.out, h.errw)

	if code := e.RunFile(filepath.Join(t.TempDir(), "no-such.em")); code != engine.ExitNoInput {
		t.Errorf("expected exit %d, got %d", engine.ExitNoInput, code)
	}
}

func TestStaticErrorsSkipEvaluation(t *testing.T) {
	h := setup(t)

	// The first statement is fine but the second fails to parse;
	// nothing may run.
	h.file("println(1); 1 +;")

	if h.out.Len() != 0 {
		t.Errorf("expected no output, got %q", h.out.String())
	}
}

func TestDiagnosticFormat(t *testing.T) {
	h := setup(t)

	h.file("\nmissing;")

	if !strings.HasPrefix(h.errw.String(), h.path+":2: error: ") {
		t.Errorf("expected a name:line: error: prefix, got %q", h.errw.String())
	}
}

func TestReplEcho(t *testing.T) {
	h := setup(t)

	e := engine.New(strings.NewReader(""), h.out, h.errw)

	for _, tc := range []struct {
		entry string
		want  string
	}{
		{"1 + 2\n", "3"},
		{`"hi"` + "\n", `"hi"`}, // The REPL echo quotes strings.
		{"x = 41\n", "41"},
		{"x + 1\n", "42"},
		{"println(9)\n", ""}, // A nix-valued call echoes nothing.
	} {
		if got := e.Run("repl", tc.entry, true); got != tc.want {
			t.Errorf("%q: expected echo %q, got %q", tc.entry, tc.want, got)
		}
	}
}

func TestReplSurvivesErrors(t *testing.T) {
	h := setup(t)

	e := engine.New(strings.NewReader(""), h.out, h.errw)

	e.Run("repl", "1 / 0;\n", true)

	if !strings.Contains(h.errw.String(), "divide by 0") {
		t.Fatalf("expected a divide by zero diagnostic, got %q", h.errw.String())
	}

	// The next entry runs normally, and globals persist across
	// entries.
	e.Run("repl", "x = 2;\n", true)

	if got := e.Run("repl", "x * 3\n", true); got != "6" {
		t.Errorf("expected echo %q, got %q", "6", got)
	}
}

func TestReplClosuresPersist(t *testing.T) {
	h := setup(t)

	e := engine.New(strings.NewReader(""), h.out, h.errw)

	e.Run("repl", "fn mk() { n = 0; fn inc() { n `= n + 1; return n; } return inc; }\n", true)
	e.Run("repl", "f = mk();\n", true)

	if got := e.Run("repl", "f()\n", true); got != "1" {
		t.Errorf("expected echo %q, got %q", "1", got)
	}

	if got := e.Run("repl", "f()\n", true); got != "2" {
		t.Errorf("expected echo %q, got %q", "2", got)
	}
}

func TestReadFromStdin(t *testing.T) {
	h := setup(t)

	e := engine.New(strings.NewReader("world\n"), h.out, h.errw)
	e.Run("test", `println("hello " + read());`, false)

	if h.out.String() != "hello world\n" {
		t.Errorf("expected %q, got %q", "hello world\n", h.out.String())
	}
}

type harness struct {
	out  *strings.Builder
	errw *strings.Builder
	path string
	t    *testing.T
}

func setup(t *testing.T) *harness {
	t.Helper()

	return &harness{
		out:  &strings.Builder{},
		errw: &strings.Builder{},
		t:    t,
	}
}

// script runs source and checks what it printed.
func (h *harness) script(source, want string) {
	h.t.Helper()

	e := engine.New(strings.NewReader(""), h.out, h.errw)
	e.Run("test", source, false)

	if h.errw.Len() != 0 {
		h.t.Fatalf("%q: unexpected diagnostics: %q", source, h.errw.String())
	}

	if h.out.String() != want {
		h.t.Errorf("%q: expected %q, got %q", source, want, h.out.String())
	}
}

// file writes source to a temporary script and runs it, returning the
// exit code.
func (h *harness) file(source string) int {
	h.t.Helper()

	h.path = filepath.Join(h.t.TempDir(), "script.em")

	if err := os.WriteFile(h.path, []byte(source), 0o600); err != nil {
		h.t.Fatal(err)
	}

	e := engine.New(strings.NewReader(""), h.out, h.errw)

	return e.RunFile(h.path)
}
