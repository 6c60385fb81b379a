// Released under an MIT license. See LICENSE.

// Package history persists the REPL's command history between
// sessions.
package history

import (
	"io"
	"os"
	"path"
)

// Load passes the history file to read. The read function is liner's
// ReadHistory.
func Load(read func(r io.Reader) (int, error)) error {
	f, err := file(os.Open)
	if err != nil {
		return err
	}

	_, err = read(f)
	if err != nil {
		return err
	}

	return f.Close()
}

// Save passes the history file to write. The write function is liner's
// WriteHistory.
func Save(write func(w io.Writer) (int, error)) error {
	f, err := file(os.Create)
	if err != nil {
		return err
	}

	_, err = write(f)
	if err != nil {
		return err
	}

	return f.Close()
}

func file(op func(string) (*os.File, error)) (*os.File, error) {
	return op(path.Join(os.Getenv("HOME"), ".ember_history"))
}
