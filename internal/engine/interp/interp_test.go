package interp_test

import (
	"strings"
	"testing"

	"github.com/emberlang/ember/internal/common/diag"
	"github.com/emberlang/ember/internal/engine/interp"
	"github.com/emberlang/ember/internal/engine/resolver"
	"github.com/emberlang/ember/internal/reader/lexer"
	"github.com/emberlang/ember/internal/reader/parser"
)

func TestArithmetic(t *testing.T) {
	h := setup(t)

	h.run("println(1 + 2);", "3\n")
	h.run("println(2 * 3 + 4);", "10\n")
	h.run("println(2 ^ 3 ^ 2);", "512\n")
	h.run("println(7 / 2);", "3.5\n")
	h.run("println(-(1 + 2));", "-3\n")
	h.run(`println("foo" + "bar");`, "foobar\n")
}

func TestComparisons(t *testing.T) {
	h := setup(t)

	h.run("println(1 < 2);", "true\n")
	h.run("println(1 > 1 + 1e-13);", "false\n")
	h.run("println(1 >= 1 + 1e-13);", "true\n")
	h.run("println(1 == 1 + 1e-13);", "true\n")
	h.run("println(1 != 2);", "true\n")
	h.run("println([1, 2] == [1, 2]);", "true\n")
}

func TestLogicalOperatorsNormalize(t *testing.T) {
	h := setup(t)

	h.run("println(1 and 2);", "true\n")
	h.run(`println("" or nix);`, "true\n")
	h.run("println(nix or 0);", "false\n")
	h.run("println(!0);", "true\n")
}

func TestShortCircuit(t *testing.T) {
	h := setup(t)

	// The right side would divide by zero if evaluated.
	h.run("x = 0; println(false and 1 / x);", "false\n")
	h.run("x = 0; println(true or 1 / x);", "true\n")
}

func TestFunctions(t *testing.T) {
	h := setup(t)

	h.run("fn add(a, b) { return a + b; } println(add(2, 3));", "5\n")
	h.run("fn f() { if (true) { return 7; } return 0; } println(f());", "7\n")
	h.run("fn f() { } println(f());", "nix\n")
	h.run("fn fib(n) { if (n < 2) { return n; } return fib(n - 1) + fib(n - 2); } println(fib(10));", "55\n")
	h.run("twice = fn(x) { return 2 * x; }; println(twice(21));", "42\n")
	h.run("fn add(a, b) { return a + b; } println(add);", "<fn add>\n")
}

func TestClosures(t *testing.T) {
	h := setup(t)

	h.run("x = 0; fn mk() { fn inc() { x `= x + 1; return x; } return inc; } f = mk(); println(f()); println(f());",
		"1\n2\n")

	h.run("fn mk() { n = 0; fn inc() { n `= n + 1; return n; } return inc; } a = mk(); b = mk(); println(a()); println(a()); println(b());",
		"1\n2\n1\n")
}

func TestStrictAssignment(t *testing.T) {
	h := setup(t)

	h.run("x = 1; x `= 2; println(x);", "2\n")
	h.fails("y `= 2;", "Cannot strictly assign")
	h.run("a = 1; a += 2; println(a);", "3\n")
	// b += 1 is b `= (b + 1): the value is evaluated first, so the
	// read of the undefined b fails before the strict write is tried.
	h.fails("b += 1;", "Undefined variable 'b'")
}

func TestScopes(t *testing.T) {
	h := setup(t)

	// A lazy assignment in a block to a name no enclosing scope
	// declares creates a block-local that shadows the global.
	h.run("x = 1; { x = 2; } println(x);", "1\n")
	h.run("fn f() { a = 1; { a = a + 1; } return a; } println(f());", "2\n")
	h.run("fn f() { y = 1; return y; } println(f());", "1\n")
	h.fails("fn f() { z = 1; } f(); println(z);", "Undefined variable")
}

func TestLists(t *testing.T) {
	h := setup(t)

	h.run("x = [1, 2, 3]; println(x[2]);", "2\n")
	h.run("x = [1, 2, 3]; println(x[[2, 3]]);", "[2, 3]\n")
	h.run("x = [1, 2, 3]; x[[2, 3]] `= [20, 30]; println(x);", "[1, 20, 30]\n")
	h.run("x = [1, 2, 3]; x[1] = 9; println(x);", "[9, 2, 3]\n")
	h.run(`println(["a", "b"]);`, "[a, b]\n")
	h.run("println([]);", "[]\n")
}

func TestListAliasingAndCopy(t *testing.T) {
	h := setup(t)

	h.run("x = [1, 2]; y = x; y[1] = 9; println(x);", "[9, 2]\n")
	h.run("x = [1, 2]; y = copy(x); y[1] = 9; println(x);", "[1, 2]\n")
	h.run("fn poke(l) { l[1] = 9; } x = [1, 2]; poke(x); println(x);", "[9, 2]\n")
}

func TestListErrors(t *testing.T) {
	h := setup(t)

	h.fails("[1, \"a\"];", "homogenous")
	h.fails("x = [1, 2]; x[0];", "negative or zero")
	h.fails("x = [1, 2]; x[3];", "greater than the length")
	h.fails("x = [1, 2]; x[1.5];", "integers")
	h.fails("x = [1, 2]; x[1] = \"a\";", "Type mismatch")
	h.fails("x = [1, 2]; x[[1, 2]] `= [9];", "length")
	h.fails("5[1];", "can only be used on lists")
}

func TestRanges(t *testing.T) {
	h := setup(t)

	h.run("println(1..5);", "[1, 2, 3, 4, 5]\n")
	h.run("x = 1..2..9; println(x);", "[1, 3, 5, 7, 9]\n")
	h.run("println(5..1);", "[]\n")

	// The walk adds the step and tests against the upper bound, so a
	// negative step never produces elements when the bound is below
	// the start.
	h.run("println(5..-1..1);", "[]\n")

	h.fails("1..0..5;", "step cannot be 0")
	h.fails("1..\"a\";", "numeric descriptors")
}

func TestIndexingWithRange(t *testing.T) {
	h := setup(t)

	h.run("x = [10, 20, 30, 40]; println(x[2..3]);", "[20, 30]\n")
}

func TestWhile(t *testing.T) {
	h := setup(t)

	h.run("i = 0; s = 0; while (i < 5) { i += 1; s += i; } println(s);", "15\n")
	h.run("i = 0; while (true) { i += 1; if (i == 3) { break; } } println(i);", "3\n")
	h.run("i = 0; s = 0; while (i < 5) { i += 1; if (i == 3) { continue; } s += i; } println(s);", "12\n")
}

func TestFor(t *testing.T) {
	h := setup(t)

	h.run("s = 0; for (i = 1; i <= 5; i += 1) { s += i; } println(s);", "15\n")
	h.run("s = 0; for (i = 1; ; i += 1) { if (i > 3) { break; } s += i; } println(s);", "6\n")

	// continue still runs the increment clause.
	h.run("s = 0; for (i = 1; i <= 5; i += 1) { if (i == 3) { continue; } s += i; } println(s);", "12\n")
}

func TestRangedFor(t *testing.T) {
	h := setup(t)

	h.run("s = 0; for (x in 1..4) { s += x; } println(s);", "10\n")
	h.run("for (w in [\"a\", \"b\"]) { print(w); } println(\"\");", "ab\n")
	h.run("s = 0; for (x in 1..9) { if (x == 3) { break; } s += x; } println(s);", "3\n")
	h.fails("for (x in 5) { }", "isn't an iterable")
}

func TestReadBuiltin(t *testing.T) {
	h := setup(t)
	h.stdin = "world\n"

	h.run("println(\"hello \" + read());", "hello world\n")
}

func TestRuntimeErrors(t *testing.T) {
	h := setup(t)

	h.fails("println([1, 2] + [3]);", "numbers or strings")
	h.fails("1 / 0;", "divide by 0")
	h.fails("-\"a\";", "must be a number")
	h.fails("5();", "not callable")
	h.fails("fn f(a) { } f();", "Expected 1 argument(s) but got 0")
	h.fails("missing;", "Undefined variable")
}

func TestRuntimeErrorStopsProgram(t *testing.T) {
	h := setup(t)

	out, err := h.attempt("println(1); 1 / 0; println(2);")
	if err == nil {
		t.Fatal("expected a runtime error")
	}

	if out != "1\n" {
		t.Errorf("expected output before the error only, got %q", out)
	}
}

func TestEcho(t *testing.T) {
	h := setup(t)

	h.echo("1 + 2", "3")
	h.echo(`"hi"`, `"hi"`)
	h.echo("[1, 2, 3]", "[1, 2, 3]")
	h.echo("nix", "nix")
	h.echo("println(1)", "") // A call producing nix echoes nothing.
}

type harness struct {
	stdin string
	t     *testing.T
}

func setup(t *testing.T) *harness {
	t.Helper()

	return &harness{t: t}
}

// attempt runs source through the whole pipeline and returns whatever
// was printed along with the first runtime error.
func (h *harness) attempt(source string) (string, error) {
	h.t.Helper()

	sink := diag.NewWriter("test", &strings.Builder{})

	tokens := lexer.New(source, sink).Scan()
	program, _ := parser.New(tokens, false, sink).Parse()
	locals := resolver.New(sink).Program(program)

	if sink.Count() != 0 {
		h.t.Fatalf("%q: unexpected static errors", source)
	}

	out := &strings.Builder{}

	i := interp.New(strings.NewReader(h.stdin), out)
	i.Bind(locals)

	err := i.Interpret(program)

	return out.String(), err
}

func (h *harness) run(source, want string) {
	h.t.Helper()

	out, err := h.attempt(source)
	if err != nil {
		h.t.Fatalf("%q: unexpected error: %v", source, err)
	}

	if out != want {
		h.t.Errorf("%q: expected %q, got %q", source, want, out)
	}
}

func (h *harness) fails(source, fragment string) {
	h.t.Helper()

	_, err := h.attempt(source)
	if err == nil {
		h.t.Fatalf("%q: expected a runtime error", source)
	}

	if !strings.Contains(err.Error(), fragment) {
		h.t.Errorf("%q: expected error mentioning %q, got %q", source, fragment, err.Error())
	}
}

func (h *harness) echo(source, want string) {
	h.t.Helper()

	sink := diag.NewWriter("test", &strings.Builder{})

	tokens := lexer.New(source+"\n", sink).Scan()

	_, expr := parser.New(tokens, true, sink).Parse()
	if expr == nil {
		h.t.Fatalf("%q: expected a REPL expression", source)
	}

	out := &strings.Builder{}

	i := interp.New(strings.NewReader(""), out)

	got, err := i.Echo(expr)
	if err != nil {
		h.t.Fatalf("%q: unexpected error: %v", source, err)
	}

	if got != want {
		h.t.Errorf("%q: expected echo %q, got %q", source, want, got)
	}
}
