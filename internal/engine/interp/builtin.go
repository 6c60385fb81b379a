// Released under an MIT license. See LICENSE.

package interp

import (
	"fmt"
	"strings"

	"github.com/emberlang/ember/internal/common/type/value"
)

// Native is a built-in function implemented by the host.
type Native struct {
	name  string
	arity int
	fn    func(args []value.T) (value.T, error)
}

// Arity returns the number of arguments the built-in requires.
func (n *Native) Arity() int {
	return n.arity
}

// Call applies the built-in to args.
func (n *Native) Call(args []value.T) (value.T, error) {
	return n.fn(args)
}

// Info returns the built-in's printed form.
func (n *Native) Info() string {
	return "<native " + n.name + ">"
}

// bindNatives defines the built-in functions in the root environment.
func (i *interp) bindNatives() {
	i.native("read", 0, func(_ []value.T) (value.T, error) {
		line, _ := i.in.ReadString('\n')

		return value.Str(strings.TrimRight(line, "\r\n")), nil
	})

	i.native("print", 1, func(args []value.T) (value.T, error) {
		fmt.Fprint(i.out, args[0].String())

		return value.Nix(), nil
	})

	i.native("println", 1, func(args []value.T) (value.T, error) {
		fmt.Fprintln(i.out, args[0].String())

		return value.Nix(), nil
	})

	i.native("copy", 1, func(args []value.T) (value.T, error) {
		v := args[0]
		if v.IsList() {
			return value.FromList(v.List().Copy()), nil
		}

		// Scalars copy by value anyway; callables stay shared.
		return v, nil
	})
}

func (i *interp) native(name string, arity int, fn func(args []value.T) (value.T, error)) {
	i.globals.Define(name, value.FromFn(&Native{name: name, arity: arity, fn: fn}))
}
