// Released under an MIT license. See LICENSE.

// Package resolver walks the tree once before evaluation and computes,
// for every variable read and assignment, how many scopes separate the
// use from the binding. Names absent from the resulting map are looked
// up in the root environment at run time.
//
// The resolver also rejects reading a local in its own initializer,
// duplicate definitions in a non-global scope, 'return' outside a
// function, 'break' and 'continue' outside a loop, and 'in'
// expressions outside a for head.
package resolver

import (
	"github.com/emberlang/ember/internal/common/diag"
	"github.com/emberlang/ember/internal/common/struct/token"
	"github.com/emberlang/ember/internal/reader/ast"
)

type fnKind int

const (
	fnNone fnKind = iota
	fnFunction
)

// T holds the state of the resolver.
type T struct {
	sink diag.Sink

	scopes []map[string]bool // Name to defined bit, innermost last.
	locals map[ast.Expr]int

	function  fnKind
	loopDepth int
}

type resolver = T

// New creates a new resolver.
func New(sink diag.Sink) *resolver {
	return &resolver{
		sink:   sink,
		locals: map[ast.Expr]int{},
	}
}

// Program resolves a statement list and returns the node-to-depth map.
func (r *resolver) Program(statements []ast.Stmt) map[ast.Expr]int {
	r.statements(statements)

	return r.locals
}

func (r *resolver) error(t token.T, msg string) {
	r.sink.Report(diag.T{
		Stage:   diag.Resolve,
		Line:    t.Line(),
		Message: msg,
		Snippet: t.Lexeme(),
	})
}

func (r *resolver) beginScope() {
	r.scopes = append(r.scopes, map[string]bool{})
}

func (r *resolver) endScope() {
	r.scopes = r.scopes[:len(r.scopes)-1]
}

// declare records the name in the innermost scope with its defined bit
// clear. Declaring a name twice in the same non-global scope is an
// error.
func (r *resolver) declare(name token.T) {
	if len(r.scopes) == 0 {
		return
	}

	scope := r.scopes[len(r.scopes)-1]

	if _, ok := scope[name.Lexeme()]; ok {
		r.error(name, "A variable named '"+name.Lexeme()+"' already exists in this scope.")
	}

	scope[name.Lexeme()] = false
}

// define sets the name's defined bit in the innermost scope.
func (r *resolver) define(name token.T) {
	if len(r.scopes) == 0 {
		return
	}

	r.scopes[len(r.scopes)-1][name.Lexeme()] = true
}

// known reports whether any enclosing scope declares the name.
func (r *resolver) known(name string) bool {
	for i := len(r.scopes) - 1; i >= 0; i-- {
		if _, ok := r.scopes[i][name]; ok {
			return true
		}
	}

	return false
}

// resolveLocal records the scope distance for e if the name is bound
// in an enclosing scope. Otherwise e stays unresolved and the
// evaluator falls back to the root environment.
func (r *resolver) resolveLocal(e ast.Expr, name token.T) {
	for i := len(r.scopes) - 1; i >= 0; i-- {
		if _, ok := r.scopes[i][name.Lexeme()]; ok {
			r.locals[e] = len(r.scopes) - 1 - i

			return
		}
	}
}

func (r *resolver) statements(statements []ast.Stmt) {
	for _, s := range statements {
		r.stmt(s)
	}
}

func (r *resolver) stmt(s ast.Stmt) {
	switch s := s.(type) {
	case *ast.ExprStmt:
		r.expr(s.Expression)
	case *ast.Block:
		r.beginScope()
		r.statements(s.Statements)
		r.endScope()
	case *ast.If:
		r.expr(s.Condition)
		r.stmt(s.Then)

		if s.Else != nil {
			r.stmt(s.Else)
		}
	case *ast.While:
		r.expr(s.Condition)

		r.loopDepth++
		r.stmt(s.Body)
		r.loopDepth--
	case *ast.For:
		r.beginScope()

		if s.Init != nil {
			r.expr(s.Init)
		}

		r.expr(s.Condition)

		if s.Increment != nil {
			r.expr(s.Increment)
		}

		r.loopDepth++
		r.loopBody(s.Body)
		r.loopDepth--

		r.endScope()
	case *ast.ForIn:
		r.beginScope()

		r.expr(s.In.Iterable)

		r.declare(s.In.Name)
		r.define(s.In.Name)
		r.resolveLocal(s.In, s.In.Name)

		r.loopDepth++
		r.loopBody(s.Body)
		r.loopDepth--

		r.endScope()
	case *ast.Function:
		r.declare(s.Name)
		r.define(s.Name)

		r.fn(s.Params, s.Body)
	case *ast.Return:
		if r.function == fnNone {
			r.error(s.Keyword, "Cannot return from top-level code.")
		}

		if s.Value != nil {
			r.expr(s.Value)
		}
	case *ast.Break:
		if r.loopDepth == 0 {
			r.error(s.Keyword, "Cannot use 'break' outside of a loop.")
		}
	case *ast.Continue:
		if r.loopDepth == 0 {
			r.error(s.Keyword, "Cannot use 'continue' outside of a loop.")
		}
	}
}

// loopBody resolves a for loop's body in the loop head's scope: a
// block body's statements share that scope instead of opening a new
// one.
func (r *resolver) loopBody(body ast.Stmt) {
	if block, ok := body.(*ast.Block); ok {
		r.statements(block.Statements)

		return
	}

	r.stmt(body)
}

// fn resolves a function or lambda body. The loop counter is saved so
// that 'break' cannot cross a call boundary into an enclosing loop.
func (r *resolver) fn(params []token.T, body []ast.Stmt) {
	enclosingFn := r.function
	enclosingLoops := r.loopDepth

	r.function = fnFunction
	r.loopDepth = 0

	r.beginScope()

	for _, p := range params {
		r.declare(p)
		r.define(p)
	}

	r.statements(body)

	r.endScope()

	r.function = enclosingFn
	r.loopDepth = enclosingLoops
}

func (r *resolver) expr(e ast.Expr) {
	switch e := e.(type) {
	case *ast.Literal:
	case *ast.Grouping:
		r.expr(e.Expression)
	case *ast.Unary:
		r.expr(e.Right)
	case *ast.Binary:
		r.expr(e.Left)
		r.expr(e.Right)
	case *ast.Logical:
		r.expr(e.Left)
		r.expr(e.Right)
	case *ast.Variable:
		if len(r.scopes) > 0 {
			defined, declared := r.scopes[len(r.scopes)-1][e.Name.Lexeme()]
			if declared && !defined {
				r.error(e.Name, "Cannot read a local variable in its own initializer.")
			}
		}

		r.resolveLocal(e, e.Name)
	case *ast.Assign:
		r.assign(e)
	case *ast.Call:
		r.expr(e.Callee)

		for _, a := range e.Args {
			r.expr(a)
		}
	case *ast.Lambda:
		r.fn(e.Params, e.Body)
	case *ast.ListExpr:
		for _, el := range e.Elements {
			r.expr(el)
		}
	case *ast.Index:
		r.expr(e.Object)
		r.expr(e.Arg)
	case *ast.IndexAssign:
		r.expr(e.Object)
		r.expr(e.Arg)
		r.expr(e.Value)
	case *ast.Range:
		r.expr(e.First)

		if e.Step != nil {
			r.expr(e.Step)
		}

		r.expr(e.End)
	case *ast.In:
		// ForIn resolves its own head; reaching one here means it
		// appeared outside a for loop.
		r.error(e.Keyword, "The 'in' expression can only be used in a for loop head.")
	}
}

// assign resolves both assignment disciplines. A lazy assignment to a
// name no enclosing scope declares creates the binding in the current
// scope (or stays unresolved at the top level, where the evaluator
// uses the root environment). Strict assignment never creates a
// binding.
func (r *resolver) assign(a *ast.Assign) {
	if a.Op.Is(token.BacktickEqual) {
		r.expr(a.Value)
		r.resolveLocal(a, a.Name)

		return
	}

	fresh := len(r.scopes) > 0 && !r.known(a.Name.Lexeme())

	if fresh {
		r.declare(a.Name)
	}

	r.expr(a.Value)

	if fresh {
		r.define(a.Name)
	}

	r.resolveLocal(a, a.Name)
}
