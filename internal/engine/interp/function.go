// Released under an MIT license. See LICENSE.

package interp

import (
	"github.com/emberlang/ember/internal/common/struct/token"
	"github.com/emberlang/ember/internal/common/type/env"
	"github.com/emberlang/ember/internal/common/type/value"
	"github.com/emberlang/ember/internal/reader/ast"
)

// Function is a user-defined function or lambda. It captures the
// environment where it was created; calls run in a fresh scope chained
// to that closure, which is what makes recursive and mutually visible
// definitions work.
type Function struct {
	name    string // Empty for a lambda.
	params  []token.T
	body    []ast.Stmt
	closure *env.T
	interp  *T
}

// Arity returns the number of parameters.
func (f *Function) Arity() int {
	return len(f.params)
}

// Call binds args to parameters in a fresh environment and runs the
// body there. Falling off the end of the body yields nix.
func (f *Function) Call(args []value.T) (value.T, error) {
	frame := env.New(f.closure)

	for n, p := range f.params {
		frame.Define(p.Lexeme(), args[n])
	}

	previous := f.interp.env
	f.interp.env = frame

	defer func() {
		f.interp.env = previous
	}()

	sig, v, err := f.interp.execStatements(f.body)
	if err != nil {
		return value.Nix(), err
	}

	if sig == sigReturn {
		return v, nil
	}

	return value.Nix(), nil
}

// Info returns the function's printed form.
func (f *Function) Info() string {
	if f.name == "" {
		return "<lambda>"
	}

	return "<fn " + f.name + ">"
}
