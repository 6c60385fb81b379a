/*
Ember is a small, dynamically typed scripting language with first-class
functions, closures, homogenous lists, and ranges. A taste:

    fn fib(n) {
        if (n < 2) { return n; }
        return fib(n - 1) + fib(n - 2);
    }

    for (n in 1..10) {
        println(fib(n));
    }

    odds = 1..2..9;
    odds[[1, 2]] `= [11, 13];

Run a script with "ember path/to/script.em", pipe a program to stdin,
or start "ember" with no arguments for an interactive session.

Ember is released under an MIT-style license.
*/
package main

import (
	"io"
	"os"

	"github.com/emberlang/ember/internal/engine"
	"github.com/emberlang/ember/internal/system/options"
	"github.com/emberlang/ember/internal/ui"
)

func main() {
	options.Parse()

	e := engine.New(os.Stdin, os.Stdout, os.Stderr)

	if path := options.Script(); path != "" {
		os.Exit(e.RunFile(path))
	}

	if options.Interactive() {
		ui.Run(e)

		return
	}

	source, err := io.ReadAll(os.Stdin)
	if err != nil {
		os.Exit(engine.ExitNoInput)
	}

	e.Run("stdin", string(source), false)

	os.Exit(e.Code())
}
