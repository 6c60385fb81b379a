// Released under an MIT license. See LICENSE.

// Package options parses the ember command line.
package options

import (
	"fmt"
	"os"

	"github.com/docopt/docopt-go"
	"github.com/mattn/go-isatty"
)

const version = "ember 0.1.0"

//nolint:gochecknoglobals
var (
	interactive bool
	script      string
	usage       = `ember

Usage:
  ember [SCRIPT]
  ember -h
  ember -v

Arguments:
  SCRIPT  Path to an ember script.

Options:
  -h, --help     Display this help.
  -v, --version  Print ember version.

With no script, and with stdin connected to a TTY, ember starts an
interactive session. With no script and stdin redirected, the program
is read from stdin.
`
)

// Interactive returns true if ember should run a REPL.
func Interactive() bool {
	return interactive
}

// Parse reads the command line. Anything other than zero or one
// positional arguments prints the usage text and exits 64.
func Parse() {
	p := &docopt.Parser{
		HelpHandler: func(err error, output string) {
			if err != nil {
				fmt.Fprint(os.Stderr, usage)
				os.Exit(64)
			}

			fmt.Println(output)
			os.Exit(0)
		},
	}

	opts, err := p.ParseArgs(usage, os.Args[1:], version)
	if err != nil {
		// The handler above exits first. This should never happen.
		panic(err.Error())
	}

	script, _ = opts.String("SCRIPT")

	interactive = script == "" && isatty.IsTerminal(os.Stdin.Fd())
}

// Script returns the script path, or "" when none was given.
func Script() string {
	return script
}
