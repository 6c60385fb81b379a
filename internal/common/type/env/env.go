// Released under an MIT license. See LICENSE.

// Package env provides ember's lexically scoped environment type.
package env

import (
	"github.com/emberlang/ember/internal/common/type/value"
)

// T (env) maps names to values and chains to the enclosing scope.
// The resolver precomputes how many links to follow for every variable
// use, so lookups and assignments address an exact ancestor.
type T struct {
	previous *T
	slots    map[string]value.T
}

type env = T

// New creates a new env enclosed by previous. The root environment has
// a nil previous.
func New(previous *T) *env {
	return &env{
		previous: previous,
		slots:    map[string]value.T{},
	}
}

// Ancestor returns the env depth links up the chain. Depth zero is e
// itself.
func (e *env) Ancestor(depth int) *env {
	for ; depth > 0; depth-- {
		e = e.previous
	}

	return e
}

// Define associates the name k with the value v in the env e, creating
// the binding if it is absent.
func (e *env) Define(k string, v value.T) {
	e.slots[k] = v
}

// DefineAt is Define on the ancestor at depth.
func (e *env) DefineAt(depth int, k string, v value.T) {
	e.Ancestor(depth).Define(k, v)
}

// Enclosing returns the enclosing env.
func (e *env) Enclosing() *env {
	return e.previous
}

// Get retrieves the value bound to k in the env e itself.
func (e *env) Get(k string) (value.T, bool) {
	v, ok := e.slots[k]

	return v, ok
}

// GetAt is Get on the ancestor at depth.
func (e *env) GetAt(depth int, k string) (value.T, bool) {
	return e.Ancestor(depth).Get(k)
}

// Set replaces the value bound to k in the env e. It returns false,
// and binds nothing, if k is absent.
func (e *env) Set(k string, v value.T) bool {
	if _, ok := e.slots[k]; !ok {
		return false
	}

	e.slots[k] = v

	return true
}

// SetAt is Set on the ancestor at depth.
func (e *env) SetAt(depth int, k string, v value.T) bool {
	return e.Ancestor(depth).Set(k, v)
}
