// Released under an MIT license. See LICENSE.

// Package engine runs ember source through the full pipeline: lex,
// parse, resolve, interpret. A phase that reports errors skips every
// later phase. The engine is also the only place that knows the
// process exit code policy.
package engine

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/emberlang/ember/internal/common/diag"
	"github.com/emberlang/ember/internal/engine/interp"
	"github.com/emberlang/ember/internal/engine/resolver"
	"github.com/emberlang/ember/internal/engine/session"
	"github.com/emberlang/ember/internal/reader"
	"github.com/emberlang/ember/internal/reader/ast"
)

// Exit codes, following the sysexits convention.
const (
	ExitOK      = 0
	ExitUsage   = 64 // Bad command line.
	ExitData    = 65 // Lex, parse, or resolve errors.
	ExitNoInput = 66 // Script file could not be read.
	ExitRuntime = 70 // Runtime error.
)

// T ties the pipeline phases together. The evaluator persists across
// runs so that a REPL session accumulates global state.
type T struct {
	session *session.T
	interp  *interp.T
	errw    io.Writer
}

type engine = T

// New creates an engine reading from in and writing program output to
// out and diagnostics to errw.
func New(in io.Reader, out, errw io.Writer) *engine {
	return &engine{
		session: session.New(),
		interp:  interp.New(in, out),
		errw:    errw,
	}
}

// Code returns the exit code the session's error flags call for.
func (e *engine) Code() int {
	if e.session.HadError() {
		return ExitData
	}

	if e.session.HadRuntimeError() {
		return ExitRuntime
	}

	return ExitOK
}

// Run lexes, parses, resolves, and interprets source. The name labels
// diagnostics. With allowExpression set and the source a single
// trailing expression, the expression's echo text (strings quoted) is
// returned instead of the empty string.
func (e *engine) Run(name, source string, allowExpression bool) string {
	e.session.Reset()

	sink := diag.NewWriter(name, e.errw)

	program, expr := reader.Read(source, allowExpression, sink)
	if sink.Count() > 0 {
		e.session.Error()

		return ""
	}

	resolved := program
	if expr != nil {
		resolved = []ast.Stmt{&ast.ExprStmt{Expression: expr}}
	}

	e.interp.Bind(resolver.New(sink).Program(resolved))

	if sink.Count() > 0 {
		e.session.Error()

		return ""
	}

	if expr != nil {
		echo, err := e.interp.Echo(expr)
		if err != nil {
			e.runtimeError(sink, err)

			return ""
		}

		return echo
	}

	if err := e.interp.Interpret(program); err != nil {
		e.runtimeError(sink, err)
	}

	return ""
}

// RunFile reads and runs a script, returning the process exit code.
func (e *engine) RunFile(path string) int {
	source, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintln(e.errw, "ember: cannot read "+path)

		return ExitNoInput
	}

	e.Run(path, string(source), false)

	return e.Code()
}

func (e *engine) runtimeError(sink *diag.Writer, err error) {
	e.session.RuntimeError()

	var rerr *interp.Error
	if errors.As(err, &rerr) {
		sink.Report(diag.T{
			Stage:   diag.Runtime,
			Line:    rerr.Token.Line(),
			Message: rerr.Message,
			Snippet: rerr.Token.Lexeme(),
		})

		return
	}

	sink.Report(diag.T{Stage: diag.Runtime, Message: err.Error()})
}
