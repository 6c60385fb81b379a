// Released under an MIT license. See LICENSE.

// Package ui provides the interactive command-line interface for the
// ember language.
package ui

import (
	"fmt"
	"strings"

	"github.com/peterh/liner"

	"github.com/emberlang/ember/internal/engine"
	"github.com/emberlang/ember/internal/system/history"
)

// Run drives the read-eval-print loop. Each entry runs independently:
// an error aborts only that entry and control returns to the prompt.
func Run(e *engine.T) {
	cli := liner.NewLiner()
	defer cli.Close()

	cli.SetCtrlCAborts(true)

	_ = history.Load(cli.ReadHistory)

	for {
		line, err := cli.Prompt("> ")

		switch err {
		case nil:
			if strings.TrimSpace(line) == "" {
				continue
			}

			cli.AppendHistory(line)

			if echo := e.Run("repl", line+"\n", true); echo != "" {
				fmt.Println(echo)
			}
		case liner.ErrPromptAborted:
			continue
		default:
			// EOF. End the session.
			fmt.Println()

			_ = history.Save(cli.WriteHistory)

			return
		}
	}
}
