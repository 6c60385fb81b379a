// Released under an MIT license. See LICENSE.

// Package parser provides a recursive descent parser for the ember
// language. Operator precedence is handled by one grammar function per
// level, climbing from assignment up to primary expressions.
package parser

import (
	"strconv"

	"github.com/emberlang/ember/internal/common/diag"
	"github.com/emberlang/ember/internal/common/struct/token"
	"github.com/emberlang/ember/internal/common/type/value"
	"github.com/emberlang/ember/internal/reader/ast"
)

// Functions and lambdas accept at most this many parameters, and calls
// at most this many arguments.
const maxArgs = 127

// T holds the state of the parser.
type T struct {
	sink diag.Sink

	tokens  []token.T
	current int

	allowExpr bool // REPL mode: a single trailing expression is legal.
	foundExpr bool
	loopDepth int
}

type parser = T

// syntaxError unwinds to the nearest statement boundary, where the
// parser synchronizes and resumes. The diagnostic has already been
// reported by the time it is thrown.
type syntaxError struct{}

// New creates a new parser for a token vector. With allowExpression
// set, a buffer holding a single expression without a terminating ';'
// parses as that expression instead of a statement list.
func New(tokens []token.T, allowExpression bool, sink diag.Sink) *parser {
	return &parser{
		sink:      sink,
		tokens:    tokens,
		allowExpr: allowExpression,
	}
}

// Parse consumes every token and returns either a statement list or,
// in REPL mode, a single trailing expression.
func (p *parser) Parse() ([]ast.Stmt, ast.Expr) {
	var statements []ast.Stmt

	for !p.atEnd() {
		s := p.statement()
		if s != nil {
			statements = append(statements, s)
		}

		if p.foundExpr {
			if e, ok := statements[len(statements)-1].(*ast.ExprStmt); ok {
				return nil, e.Expression
			}
		}

		p.allowExpr = false
	}

	return statements, nil
}

func (p *parser) atEnd() bool {
	return p.peek().Is(token.EOF)
}

func (p *parser) peek() token.T {
	return p.tokens[p.current]
}

func (p *parser) peekNext() token.T {
	if p.atEnd() {
		return p.peek()
	}

	return p.tokens[p.current+1]
}

func (p *parser) previous() token.T {
	return p.tokens[p.current-1]
}

func (p *parser) advance() token.T {
	if !p.atEnd() {
		p.current++
	}

	return p.previous()
}

func (p *parser) check(k token.Kind) bool {
	if p.atEnd() {
		return k == token.EOF
	}

	return p.peek().Is(k)
}

func (p *parser) match(ks ...token.Kind) bool {
	for _, k := range ks {
		if p.check(k) {
			p.advance()

			return true
		}
	}

	return false
}

// report emits a parse error without unwinding.
func (p *parser) report(t token.T, msg string) {
	p.sink.Report(diag.T{
		Stage:   diag.Parse,
		Line:    t.Line(),
		Message: msg,
		Snippet: t.Lexeme(),
	})
}

// fail emits a parse error and unwinds to the statement boundary.
func (p *parser) fail(t token.T, msg string) {
	p.report(t, msg)
	panic(syntaxError{})
}

// expect consumes a token of kind k or fails with err.
func (p *parser) expect(k token.Kind, err string) {
	if p.check(k) {
		p.advance()

		return
	}

	p.fail(p.peek(), err)
}

// sync discards tokens until just after the next ';' or just before
// the next statement keyword.
func (p *parser) sync() {
	p.advance()

	for !p.atEnd() {
		if p.previous().Is(token.Semicolon) {
			return
		}

		if p.peek().Is(token.Class, token.If, token.While, token.For, token.Fn, token.Return) {
			return
		}

		p.advance()
	}
}

// Production rules.

func (p *parser) statement() (s ast.Stmt) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}

		if _, ok := r.(syntaxError); !ok {
			panic(r)
		}

		p.sync()

		s = nil
	}()

	switch {
	case p.match(token.Return):
		return p.returnStmt()
	case p.check(token.Fn) && p.peekNext().Is(token.Identifier):
		p.advance() // The 'fn'.

		return p.fnDefn()
	case p.match(token.LeftBrace):
		return &ast.Block{Statements: p.block()}
	case p.match(token.If):
		return p.ifStmt()
	case p.match(token.While):
		return p.whileStmt()
	case p.match(token.For):
		return p.forStmt()
	case p.match(token.Break):
		return p.breakStmt()
	case p.match(token.Continue):
		return p.continueStmt()
	}

	return p.exprStmt()
}

func (p *parser) block() []ast.Stmt {
	var statements []ast.Stmt

	for !p.check(token.RightBrace) && !p.atEnd() {
		s := p.statement()
		if s != nil {
			statements = append(statements, s)
		}
	}

	p.expect(token.RightBrace, "Expected a '}' at the end of the block.")

	return statements
}

func (p *parser) ifStmt() ast.Stmt {
	p.expect(token.LeftParen, "Expected a '(' after 'if'.")
	condition := p.expression()
	p.expect(token.RightParen, "Expected a ')' after if condition.")

	then := p.statement()

	var elseBranch ast.Stmt
	if p.match(token.Else) {
		elseBranch = p.statement()
	}

	return &ast.If{Condition: condition, Then: then, Else: elseBranch}
}

func (p *parser) whileStmt() ast.Stmt {
	p.expect(token.LeftParen, "Expected a '(' after 'while'.")
	condition := p.expression()
	p.expect(token.RightParen, "Expected a ')' after while condition.")

	p.loopDepth++
	body := p.statement()
	p.loopDepth--

	return &ast.While{Condition: condition, Body: body}
}

func (p *parser) forStmt() ast.Stmt {
	p.expect(token.LeftParen, "Expected a '(' after 'for'.")

	var init ast.Expr

	if !p.match(token.Semicolon) {
		init = p.expression()

		if in, ok := init.(*ast.In); ok {
			// A ranged for loop: no further clauses follow.
			p.expect(token.RightParen, "Expected a ')' after the ranged for loop clause.")

			p.loopDepth++
			body := p.statement()
			p.loopDepth--

			return &ast.ForIn{In: in, Body: body}
		}

		p.expect(token.Semicolon, "Expected a ';' after for-loop initialization clause.")
	}

	var condition ast.Expr
	if !p.check(token.Semicolon) {
		condition = p.expression()
	}

	p.expect(token.Semicolon, "Expected a ';' after for-loop condition.")

	var increment ast.Expr
	if !p.check(token.RightParen) {
		increment = p.expression()
	}

	p.expect(token.RightParen, "Expected a ')' after for-loop clauses.")

	p.loopDepth++
	body := p.statement()
	p.loopDepth--

	if condition == nil {
		condition = &ast.Literal{
			Token: token.New(token.True, "true", 0),
			Value: value.Bool(true),
		}
	}

	return &ast.For{Init: init, Condition: condition, Increment: increment, Body: body}
}

func (p *parser) breakStmt() ast.Stmt {
	keyword := p.previous()

	if p.loopDepth == 0 {
		p.report(keyword, "Cannot use 'break' outside of a loop.")
	}

	p.expect(token.Semicolon, "Expected a ';' after 'break'.")

	return &ast.Break{Keyword: keyword}
}

func (p *parser) continueStmt() ast.Stmt {
	keyword := p.previous()

	if p.loopDepth == 0 {
		p.report(keyword, "Cannot use 'continue' outside of a loop.")
	}

	p.expect(token.Semicolon, "Expected a ';' after 'continue'.")

	return &ast.Continue{Keyword: keyword}
}

func (p *parser) exprStmt() ast.Stmt {
	e := p.expression()

	if p.allowExpr && p.atEnd() {
		p.foundExpr = true
	} else {
		p.expect(token.Semicolon, "Invalid Syntax. Did you miss a ';' after the expression?")
	}

	return &ast.ExprStmt{Expression: e}
}

func (p *parser) fnDefn() ast.Stmt {
	p.expect(token.Identifier, "A function name was expected.")
	name := p.previous()

	p.expect(token.LeftParen, "Expected a '(' after function name in definition.")
	params := p.params("function")
	p.expect(token.LeftBrace, "Expected a '{' before function body.")

	return &ast.Function{Name: name, Params: params, Body: p.block()}
}

// params parses a parameter list up to and including the closing ')'.
func (p *parser) params(kind string) []token.T {
	var params []token.T

	if !p.check(token.RightParen) {
		for {
			if len(params) >= maxArgs {
				p.report(p.peek(), "Cannot have more than "+strconv.Itoa(maxArgs)+" parameters in a "+kind+".")
			}

			p.expect(token.Identifier, "Expected a parameter name after ','.")
			params = append(params, p.previous())

			if !p.match(token.Comma) {
				break
			}
		}
	}

	p.expect(token.RightParen, "Expected a ')' after "+kind+" parameters.")

	return params
}

func (p *parser) returnStmt() ast.Stmt {
	keyword := p.previous()

	var val ast.Expr
	if !p.check(token.Semicolon) {
		val = p.expression()
	}

	p.expect(token.Semicolon, "Expected a ';' after return value.")

	return &ast.Return{Keyword: keyword, Value: val}
}

func (p *parser) expression() ast.Expr {
	return p.assignment()
}

func (p *parser) assignment() ast.Expr {
	expr := p.lor()

	if p.match(token.Equal, token.BacktickEqual) {
		op := p.previous()
		val := p.assignment()

		switch target := expr.(type) {
		case *ast.Variable:
			return &ast.Assign{Name: target.Name, Op: op, Value: val}
		case *ast.Index:
			return &ast.IndexAssign{
				Bracket: target.Bracket,
				Object:  target.Object,
				Arg:     target.Arg,
				Op:      op,
				Value:   val,
			}
		}

		p.report(op, "Invalid assignment location.")

		return expr
	}

	if p.match(token.PlusEqual, token.MinusEqual, token.ProductEqual, token.DivisionEqual) {
		op := p.previous()
		val := p.assignment()

		target, ok := expr.(*ast.Variable)
		if !ok {
			p.report(op, "Invalid assignment location.")

			return expr
		}

		// Desugar: a += e becomes a `= (a + e), and likewise for
		// the other compound operators.
		var binOp token.T

		switch op.Kind() {
		case token.PlusEqual:
			binOp = token.New(token.Plus, "+", op.Line())
		case token.MinusEqual:
			binOp = token.New(token.Minus, "-", op.Line())
		case token.ProductEqual:
			binOp = token.New(token.Product, "*", op.Line())
		default:
			binOp = token.New(token.Division, "/", op.Line())
		}

		val = &ast.Binary{Left: target, Op: binOp, Right: val}

		return &ast.Assign{
			Name:  target.Name,
			Op:    token.New(token.BacktickEqual, "`=", op.Line()),
			Value: val,
		}
	}

	if p.match(token.In) {
		in := p.previous()
		iterable := p.assignment()

		if target, ok := expr.(*ast.Variable); ok {
			return &ast.In{Name: target.Name, Keyword: in, Iterable: iterable}
		}

		p.report(in, "Missing identifier for iterating variable.")

		return expr
	}

	return expr
}

func (p *parser) lor() ast.Expr {
	expr := p.land()

	for p.match(token.Or) {
		op := p.previous()
		expr = &ast.Logical{Left: expr, Op: op, Right: p.land()}
	}

	return expr
}

func (p *parser) land() ast.Expr {
	expr := p.equality()

	for p.match(token.And) {
		op := p.previous()
		expr = &ast.Logical{Left: expr, Op: op, Right: p.equality()}
	}

	return expr
}

func (p *parser) equality() ast.Expr {
	expr := p.comparison()

	for p.match(token.NotEqual, token.EqualEqual) {
		op := p.previous()
		expr = &ast.Binary{Left: expr, Op: op, Right: p.comparison()}
	}

	return expr
}

func (p *parser) comparison() ast.Expr {
	expr := p.rangeExpr()

	for p.match(token.Greater, token.GreaterEqual, token.Less, token.LessEqual) {
		op := p.previous()
		expr = &ast.Binary{Left: expr, Op: op, Right: p.rangeExpr()}
	}

	return expr
}

func (p *parser) rangeExpr() ast.Expr {
	expr := p.addition()

	if p.match(token.DotDot) {
		op := p.previous()
		second := p.addition()

		if p.match(token.DotDot) {
			// a..step..b
			return &ast.Range{Op: op, First: expr, Step: second, End: p.addition()}
		}

		return &ast.Range{Op: op, First: expr, End: second}
	}

	return expr
}

func (p *parser) addition() ast.Expr {
	expr := p.product()

	for p.match(token.Plus, token.Minus) {
		op := p.previous()
		expr = &ast.Binary{Left: expr, Op: op, Right: p.product()}
	}

	return expr
}

func (p *parser) product() ast.Expr {
	expr := p.unary()

	for p.match(token.Product, token.Division) {
		op := p.previous()
		expr = &ast.Binary{Left: expr, Op: op, Right: p.unary()}
	}

	return expr
}

func (p *parser) unary() ast.Expr {
	if p.match(token.Not, token.Minus) {
		op := p.previous()

		return &ast.Unary{Op: op, Right: p.unary()}
	}

	return p.exponent()
}

// exponent is right-associative: a^b^c is a^(b^c).
func (p *parser) exponent() ast.Expr {
	base := p.indexOrCall()

	if p.match(token.Power) {
		op := p.previous()

		return &ast.Binary{Left: base, Op: op, Right: p.exponent()}
	}

	return base
}

func (p *parser) indexOrCall() ast.Expr {
	expr := p.primary()

	for {
		switch {
		case p.match(token.LeftParen):
			expr = p.finishCall(expr)
		case p.match(token.LeftBracket):
			bracket := p.previous()

			var arg ast.Expr
			if p.match(token.LeftBracket) {
				// The list-of-indices form: x[[i, j, ...]].
				arg = p.list()
			} else {
				// A number, or a range or list expression.
				arg = p.expression()
			}

			p.expect(token.RightBracket, "Expected a ']' after index end.")

			expr = &ast.Index{Bracket: bracket, Object: expr, Arg: arg}
		default:
			return expr
		}
	}
}

func (p *parser) finishCall(callee ast.Expr) ast.Expr {
	var args []ast.Expr

	if !p.check(token.RightParen) {
		for {
			if len(args) >= maxArgs {
				p.report(p.peek(), "Cannot have more than "+strconv.Itoa(maxArgs)+" arguments.")
			}

			args = append(args, p.expression())

			if !p.match(token.Comma) {
				break
			}
		}
	}

	p.expect(token.RightParen, "Expected a ')' after function arguments.")

	return &ast.Call{Callee: callee, Paren: p.previous(), Args: args}
}

func (p *parser) primary() ast.Expr {
	t := p.peek()

	switch {
	case p.match(token.True):
		return &ast.Literal{Token: t, Value: value.Bool(true)}
	case p.match(token.False):
		return &ast.Literal{Token: t, Value: value.Bool(false)}
	case p.match(token.Nix):
		return &ast.Literal{Token: t, Value: value.Nix()}
	case p.match(token.Number):
		return &ast.Literal{Token: t, Value: value.Num(t.Num())}
	case p.match(token.String):
		return &ast.Literal{Token: t, Value: value.Str(t.Lexeme())}
	case p.match(token.LeftParen):
		expr := p.expression()
		p.expect(token.RightParen, "Expected ')' after expression.")

		return &ast.Grouping{Expression: expr}
	case p.match(token.Identifier):
		return &ast.Variable{Name: t}
	case p.match(token.Fn):
		fn := p.previous()
		p.expect(token.LeftParen, "Expected a '(' after fn.")
		params := p.params("lambda")
		p.expect(token.LeftBrace, "Expected a '{' before lambda body.")

		return &ast.Lambda{Fn: fn, Params: params, Body: p.block()}
	case p.match(token.LeftBracket):
		return p.list()
	}

	p.fail(t, "Invalid Syntax.")

	return nil
}

// list parses a list literal whose opening '[' has been consumed.
func (p *parser) list() ast.Expr {
	bracket := p.previous()

	var elements []ast.Expr

	if !p.check(token.RightBracket) {
		for {
			elements = append(elements, p.expression())

			if !p.match(token.Comma) {
				break
			}
		}
	}

	p.expect(token.RightBracket, "Expected a ']' after list end.")

	return &ast.ListExpr{Bracket: bracket, Elements: elements}
}
