// Released under an MIT license. See LICENSE.

// Package reader encapsulates the ember lexer and parser: source text
// in, a statement list (or a single trailing REPL expression) out.
package reader

import (
	"github.com/emberlang/ember/internal/common/diag"
	"github.com/emberlang/ember/internal/reader/ast"
	"github.com/emberlang/ember/internal/reader/lexer"
	"github.com/emberlang/ember/internal/reader/parser"
)

// Read scans and parses source. Errors from both phases go to the
// sink; when the lexer reports any, parsing is skipped.
func Read(source string, allowExpression bool, sink *diag.Writer) ([]ast.Stmt, ast.Expr) {
	tokens := lexer.New(source, sink).Scan()
	if sink.Count() > 0 {
		return nil, nil
	}

	return parser.New(tokens, allowExpression, sink).Parse()
}
