// Released under an MIT license. See LICENSE.

// Package interp provides the tree-walking evaluator for the ember
// language. Non-local control flow (break, continue, return) is
// modelled as an explicit signal carried up the evaluator's call
// stack rather than as a hidden unwind, and runtime errors are plain
// error values, so environment restoration is syntactic.
package interp

import (
	"bufio"
	"io"
	"math"
	"strconv"

	"github.com/emberlang/ember/internal/common/struct/token"
	"github.com/emberlang/ember/internal/common/type/env"
	"github.com/emberlang/ember/internal/common/type/value"
	"github.com/emberlang/ember/internal/reader/ast"
)

// Error is a runtime error carrying the token where evaluation failed.
type Error struct {
	Token   token.T
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func fail(t token.T, msg string) error {
	return &Error{Token: t, Message: msg}
}

// signal is the evaluator's explicit non-local exit: each statement
// handler propagates it outward until a loop or call boundary absorbs
// it.
type signal int

const (
	sigNone signal = iota
	sigBreak
	sigContinue
	sigReturn
)

// T holds the state of the evaluator.
type T struct {
	globals *env.T
	env     *env.T

	locals map[ast.Expr]int

	in  *bufio.Reader
	out io.Writer
}

type interp = T

// New creates a new evaluator with the built-in functions bound in its
// root environment. Reads and prints go to in and out.
func New(in io.Reader, out io.Writer) *interp {
	globals := env.New(nil)

	i := &interp{
		globals: globals,
		env:     globals,
		locals:  map[ast.Expr]int{},
		in:      bufio.NewReader(in),
		out:     out,
	}

	i.bindNatives()

	return i
}

// Bind merges a resolver depth map into the evaluator. Maps accumulate
// across REPL entries so that closures formed earlier keep resolving.
func (i *interp) Bind(locals map[ast.Expr]int) {
	for e, d := range locals {
		i.locals[e] = d
	}
}

// Interpret executes a program. The first runtime error stops
// execution and is returned.
func (i *interp) Interpret(program []ast.Stmt) error {
	for _, s := range program {
		if _, _, err := i.exec(s); err != nil {
			return err
		}
	}

	return nil
}

// Echo evaluates a single REPL expression and returns its printed
// form, with strings quoted. A call that produced nix echoes nothing.
func (i *interp) Echo(e ast.Expr) (string, error) {
	v, err := i.eval(e)
	if err != nil {
		return "", err
	}

	if _, ok := e.(*ast.Call); ok && v.IsNix() {
		return "", nil
	}

	return v.Echo(), nil
}

// Statements.

func (i *interp) exec(s ast.Stmt) (signal, value.T, error) {
	switch s := s.(type) {
	case *ast.ExprStmt:
		_, err := i.eval(s.Expression)

		return sigNone, value.Nix(), err
	case *ast.Block:
		return i.execBlock(s.Statements, env.New(i.env))
	case *ast.If:
		c, err := i.eval(s.Condition)
		if err != nil {
			return sigNone, value.Nix(), err
		}

		if c.Truthy() {
			return i.exec(s.Then)
		}

		if s.Else != nil {
			return i.exec(s.Else)
		}

		return sigNone, value.Nix(), nil
	case *ast.While:
		return i.execWhile(s)
	case *ast.For:
		return i.execFor(s)
	case *ast.ForIn:
		return i.execForIn(s)
	case *ast.Function:
		fn := &Function{
			name:    s.Name.Lexeme(),
			params:  s.Params,
			body:    s.Body,
			closure: i.env,
			interp:  i,
		}

		i.env.Define(s.Name.Lexeme(), value.FromFn(fn))

		return sigNone, value.Nix(), nil
	case *ast.Return:
		v := value.Nix()

		if s.Value != nil {
			var err error

			v, err = i.eval(s.Value)
			if err != nil {
				return sigNone, value.Nix(), err
			}
		}

		return sigReturn, v, nil
	case *ast.Break:
		return sigBreak, value.Nix(), nil
	case *ast.Continue:
		return sigContinue, value.Nix(), nil
	}

	return sigNone, value.Nix(), nil
}

// execBlock runs statements in e, restoring the previous environment
// on every exit path.
func (i *interp) execBlock(statements []ast.Stmt, e *env.T) (sig signal, v value.T, err error) {
	previous := i.env
	i.env = e

	defer func() {
		i.env = previous
	}()

	return i.execStatements(statements)
}

func (i *interp) execStatements(statements []ast.Stmt) (signal, value.T, error) {
	for _, s := range statements {
		sig, v, err := i.exec(s)
		if sig != sigNone || err != nil {
			return sig, v, err
		}
	}

	return sigNone, value.Nix(), nil
}

func (i *interp) execWhile(s *ast.While) (signal, value.T, error) {
	for {
		c, err := i.eval(s.Condition)
		if err != nil {
			return sigNone, value.Nix(), err
		}

		if !c.Truthy() {
			return sigNone, value.Nix(), nil
		}

		sig, v, err := i.exec(s.Body)
		if err != nil {
			return sigNone, value.Nix(), err
		}

		switch sig {
		case sigBreak:
			return sigNone, value.Nix(), nil
		case sigReturn:
			return sig, v, nil
		}
	}
}

func (i *interp) execFor(s *ast.For) (sig signal, v value.T, err error) {
	// The head and body share one scope for the whole loop.
	previous := i.env
	i.env = env.New(previous)

	defer func() {
		i.env = previous
	}()

	if s.Init != nil {
		if _, err = i.eval(s.Init); err != nil {
			return sigNone, value.Nix(), err
		}
	}

	for {
		c, err := i.eval(s.Condition)
		if err != nil {
			return sigNone, value.Nix(), err
		}

		if !c.Truthy() {
			return sigNone, value.Nix(), nil
		}

		sig, v, err := i.execLoopBody(s.Body)
		if err != nil {
			return sigNone, value.Nix(), err
		}

		switch sig {
		case sigBreak:
			return sigNone, value.Nix(), nil
		case sigReturn:
			return sig, v, nil
		}

		if s.Increment != nil {
			if _, err := i.eval(s.Increment); err != nil {
				return sigNone, value.Nix(), err
			}
		}
	}
}

func (i *interp) execForIn(s *ast.ForIn) (sig signal, v value.T, err error) {
	previous := i.env
	i.env = env.New(previous)

	defer func() {
		i.env = previous
	}()

	iterable, err := i.eval(s.In)
	if err != nil {
		return sigNone, value.Nix(), err
	}

	depth := i.locals[s.In]
	name := s.In.Name.Lexeme()

	for _, element := range iterable.List().Elements() {
		i.env.DefineAt(depth, name, element)

		sig, v, err := i.execLoopBody(s.Body)
		if err != nil {
			return sigNone, value.Nix(), err
		}

		switch sig {
		case sigBreak:
			return sigNone, value.Nix(), nil
		case sigReturn:
			return sig, v, nil
		}
	}

	return sigNone, value.Nix(), nil
}

// execLoopBody runs a for loop's body. A block body shares the loop
// head's scope instead of opening its own.
func (i *interp) execLoopBody(body ast.Stmt) (signal, value.T, error) {
	if block, ok := body.(*ast.Block); ok {
		return i.execStatements(block.Statements)
	}

	return i.exec(body)
}

// Expressions.

func (i *interp) eval(e ast.Expr) (value.T, error) {
	switch e := e.(type) {
	case *ast.Literal:
		return e.Value, nil
	case *ast.Grouping:
		return i.eval(e.Expression)
	case *ast.Unary:
		return i.evalUnary(e)
	case *ast.Binary:
		return i.evalBinary(e)
	case *ast.Logical:
		return i.evalLogical(e)
	case *ast.Variable:
		return i.lookUp(e, e.Name)
	case *ast.Assign:
		return i.evalAssign(e)
	case *ast.Call:
		return i.evalCall(e)
	case *ast.Lambda:
		fn := &Function{
			params:  e.Params,
			body:    e.Body,
			closure: i.env,
			interp:  i,
		}

		return value.FromFn(fn), nil
	case *ast.ListExpr:
		return i.evalList(e)
	case *ast.Index:
		return i.evalIndex(e)
	case *ast.IndexAssign:
		return i.evalIndexAssign(e)
	case *ast.Range:
		return i.evalRange(e)
	case *ast.In:
		// The resolver only lets an in-expression through as a
		// ranged for head. Its value is the iterable.
		iterable, err := i.eval(e.Iterable)
		if err != nil {
			return value.Nix(), err
		}

		if !iterable.IsList() {
			return value.Nix(), fail(e.Keyword, "The specified object for the in-expression isn't an iterable.")
		}

		return iterable, nil
	}

	return value.Nix(), nil
}

// lookUp reads a variable at its resolved depth, or from the root
// environment when unresolved.
func (i *interp) lookUp(e ast.Expr, name token.T) (value.T, error) {
	if depth, ok := i.locals[e]; ok {
		if v, ok := i.env.GetAt(depth, name.Lexeme()); ok {
			return v, nil
		}
	} else if v, ok := i.globals.Get(name.Lexeme()); ok {
		return v, nil
	}

	return value.Nix(), fail(name, "Undefined variable '"+name.Lexeme()+"'.")
}

func (i *interp) evalUnary(e *ast.Unary) (value.T, error) {
	v, err := i.eval(e.Right)
	if err != nil {
		return value.Nix(), err
	}

	if e.Op.Is(token.Minus) {
		if !v.IsNum() {
			return value.Nix(), fail(e.Op, "Operand must be a number.")
		}

		return value.Num(-v.Num()), nil
	}

	return value.Bool(!v.Truthy()), nil
}

func (i *interp) evalBinary(e *ast.Binary) (value.T, error) {
	left, err := i.eval(e.Left)
	if err != nil {
		return value.Nix(), err
	}

	right, err := i.eval(e.Right)
	if err != nil {
		return value.Nix(), err
	}

	numbers := left.IsNum() && right.IsNum()

	switch e.Op.Kind() {
	case token.Plus:
		if numbers {
			return value.Num(left.Num() + right.Num()), nil
		}

		if left.IsStr() && right.IsStr() {
			return value.Str(left.Str() + right.Str()), nil
		}

		return value.Nix(), fail(e.Op, "Both of the operands must be numbers or strings.")
	case token.Minus:
		if !numbers {
			return value.Nix(), fail(e.Op, "Operands must be numbers.")
		}

		return value.Num(left.Num() - right.Num()), nil
	case token.Product:
		if !numbers {
			return value.Nix(), fail(e.Op, "Operands must be numbers.")
		}

		return value.Num(left.Num() * right.Num()), nil
	case token.Division:
		if !numbers {
			return value.Nix(), fail(e.Op, "Operands must be numbers.")
		}

		if value.EqualNums(right.Num(), 0) {
			return value.Nix(), fail(e.Op, "Cannot divide by 0!")
		}

		return value.Num(left.Num() / right.Num()), nil
	case token.Power:
		if !numbers {
			return value.Nix(), fail(e.Op, "Operands must be numbers.")
		}

		return value.Num(math.Pow(left.Num(), right.Num())), nil
	case token.Greater:
		if !numbers {
			return value.Nix(), fail(e.Op, "Operands must be numbers.")
		}

		// Epsilon-equal operands are not strictly ordered.
		if value.EqualNums(left.Num(), right.Num()) {
			return value.Bool(false), nil
		}

		return value.Bool(left.Num() > right.Num()), nil
	case token.GreaterEqual:
		if !numbers {
			return value.Nix(), fail(e.Op, "Operands must be numbers.")
		}

		if value.EqualNums(left.Num(), right.Num()) {
			return value.Bool(true), nil
		}

		return value.Bool(left.Num() > right.Num()), nil
	case token.Less:
		if !numbers {
			return value.Nix(), fail(e.Op, "Operands must be numbers.")
		}

		if value.EqualNums(left.Num(), right.Num()) {
			return value.Bool(false), nil
		}

		return value.Bool(left.Num() < right.Num()), nil
	case token.LessEqual:
		if !numbers {
			return value.Nix(), fail(e.Op, "Operands must be numbers.")
		}

		if value.EqualNums(left.Num(), right.Num()) {
			return value.Bool(true), nil
		}

		return value.Bool(left.Num() < right.Num()), nil
	case token.EqualEqual:
		return value.Bool(value.Equal(left, right)), nil
	case token.NotEqual:
		return value.Bool(!value.Equal(left, right)), nil
	}

	return value.Nix(), nil
}

// evalLogical short-circuits and always normalizes the result to a
// boolean rather than returning an operand.
func (i *interp) evalLogical(e *ast.Logical) (value.T, error) {
	left, err := i.eval(e.Left)
	if err != nil {
		return value.Nix(), err
	}

	if e.Op.Is(token.Or) {
		if left.Truthy() {
			return value.Bool(true), nil
		}
	} else if !left.Truthy() {
		return value.Bool(false), nil
	}

	right, err := i.eval(e.Right)
	if err != nil {
		return value.Nix(), err
	}

	return value.Bool(right.Truthy()), nil
}

func (i *interp) evalAssign(e *ast.Assign) (value.T, error) {
	v, err := i.eval(e.Value)
	if err != nil {
		return value.Nix(), err
	}

	name := e.Name.Lexeme()
	strict := e.Op.Is(token.BacktickEqual)

	if depth, ok := i.locals[e]; ok {
		if strict {
			if !i.env.SetAt(depth, name, v) {
				return value.Nix(), fail(e.Name, "Cannot strictly assign to undefined variable '"+name+"'.")
			}
		} else {
			i.env.DefineAt(depth, name, v)
		}

		return v, nil
	}

	// The name is global, or does not exist.
	if strict {
		if !i.globals.Set(name, v) {
			return value.Nix(), fail(e.Name, "Cannot strictly assign to undefined variable '"+name+"'.")
		}
	} else {
		i.globals.Define(name, v)
	}

	return v, nil
}

func (i *interp) evalCall(e *ast.Call) (value.T, error) {
	callee, err := i.eval(e.Callee)
	if err != nil {
		return value.Nix(), err
	}

	args := make([]value.T, 0, len(e.Args))

	for _, a := range e.Args {
		v, err := i.eval(a)
		if err != nil {
			return value.Nix(), err
		}

		args = append(args, v)
	}

	if !callee.IsFn() {
		return value.Nix(), fail(e.Paren, "Provided object is not callable.")
	}

	fn := callee.Fn()

	if fn.Arity() != len(args) {
		return value.Nix(), fail(e.Paren, "Expected "+
			strconv.Itoa(fn.Arity())+" argument(s) but got "+
			strconv.Itoa(len(args))+" argument(s).")
	}

	return fn.Call(args)
}

func (i *interp) evalList(e *ast.ListExpr) (value.T, error) {
	elements := make([]value.T, 0, len(e.Elements))
	tag := value.Untyped

	for n, el := range e.Elements {
		v, err := i.eval(el)
		if err != nil {
			return value.Nix(), err
		}

		if n == 0 {
			tag = v.Kind()
		} else if v.Kind() != tag {
			return value.Nix(), fail(e.Bracket, "Lists are homogenous and can't contain different types.")
		}

		elements = append(elements, v)
	}

	return value.FromList(value.NewList(elements, tag)), nil
}

func (i *interp) evalIndex(e *ast.Index) (value.T, error) {
	object, err := i.eval(e.Object)
	if err != nil {
		return value.Nix(), err
	}

	if !object.IsList() {
		return value.Nix(), fail(e.Bracket, "The index operator can only be used on lists.")
	}

	list := object.List()

	index, err := i.eval(e.Arg)
	if err != nil {
		return value.Nix(), err
	}

	if err := verifyIndices(list, index, e.Bracket); err != nil {
		return value.Nix(), err
	}

	if index.IsList() {
		// Gather: the result keeps the source list's tag.
		indices := index.List().Elements()
		elements := make([]value.T, 0, len(indices))

		for _, n := range indices {
			elements = append(elements, list.At(value.Round(n.Num())))
		}

		return value.FromList(value.NewList(elements, list.Tag())), nil
	}

	return list.At(value.Round(index.Num())), nil
}

func (i *interp) evalIndexAssign(e *ast.IndexAssign) (value.T, error) {
	object, err := i.eval(e.Object)
	if err != nil {
		return value.Nix(), err
	}

	if !object.IsList() {
		return value.Nix(), fail(e.Bracket, "The index operator can only be used on lists.")
	}

	list := object.List()

	index, err := i.eval(e.Arg)
	if err != nil {
		return value.Nix(), err
	}

	if err := verifyIndices(list, index, e.Bracket); err != nil {
		return value.Nix(), err
	}

	v, err := i.eval(e.Value)
	if err != nil {
		return value.Nix(), err
	}

	if index.IsList() {
		// Scatter: one value per index, in index order.
		indices := index.List().Elements()

		if !v.IsList() {
			return value.Nix(), fail(e.Op, "The value must be a list.")
		}

		values := v.List()

		if len(indices) != values.Len() {
			return value.Nix(), fail(e.Op, "The value list's length must be equal to the number of indices accessed.")
		}

		if values.Tag() != value.Untyped && values.Tag() != list.Tag() {
			return value.Nix(), fail(e.Op, "Type mismatch for list assignment.")
		}

		for n, idx := range indices {
			list.SetAt(value.Round(idx.Num()), values.Elements()[n])
		}

		return v, nil
	}

	if v.Kind() != list.Tag() {
		return value.Nix(), fail(e.Bracket, "Type mismatch for list assignment.")
	}

	list.SetAt(value.Round(index.Num()), v)

	return v, nil
}

func (i *interp) evalRange(e *ast.Range) (value.T, error) {
	first, err := i.evalRangePart(e.First, e.Op)
	if err != nil {
		return value.Nix(), err
	}

	step := 1.0

	if e.Step != nil {
		step, err = i.evalRangePart(e.Step, e.Op)
		if err != nil {
			return value.Nix(), err
		}

		if value.EqualNums(step, 0) {
			return value.Nix(), fail(e.Op, "Range step cannot be 0.")
		}
	}

	end, err := i.evalRangePart(e.End, e.Op)
	if err != nil {
		return value.Nix(), err
	}

	// The bound is inclusive. A negative step with first > end yields
	// an empty list: the walk only ever adds the step and tests
	// against the upper bound.
	var elements []value.T

	for n := first; n <= end; n += step {
		elements = append(elements, value.Num(n))
	}

	return value.FromList(value.NewList(elements, value.NumType)), nil
}

func (i *interp) evalRangePart(e ast.Expr, op token.T) (float64, error) {
	v, err := i.eval(e)
	if err != nil {
		return 0, err
	}

	if !v.IsNum() {
		return 0, fail(op, "Ranges can only contain numeric descriptors.")
	}

	return v.Num(), nil
}

// verifyIndices checks that index is a number, or a list of numbers,
// and that every index is a positive non-zero integer within the
// list's length. Indices are 1-based.
func verifyIndices(list *value.List, index value.T, bracket token.T) error {
	if index.IsList() {
		indices := index.List()

		if indices.Tag() == value.Untyped {
			return nil
		}

		if indices.Tag() != value.NumType {
			return fail(bracket, "The indexing list must contain numbers.")
		}

		for _, n := range indices.Elements() {
			if err := verifyIndex(list, n.Num(), bracket); err != nil {
				return err
			}
		}

		return nil
	}

	if !index.IsNum() {
		return fail(bracket, "The index must be a list or a number.")
	}

	return verifyIndex(list, index.Num(), bracket)
}

func verifyIndex(list *value.List, n float64, bracket token.T) error {
	if !value.IsInt(n) {
		return fail(bracket, "Indices must be positive, non-zero integers.")
	}

	i := value.Round(n)

	if i <= 0 {
		return fail(bracket, "Indices can't be negative or zero.")
	}

	if i > list.Len() {
		return fail(bracket, "One or more of the indices is greater than the length of the list.")
	}

	return nil
}
