package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/compneuro-ncu/order-task/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		// Aborting on the quit hotkey is an ordinary exit path, not an error.
		if !errors.Is(err, cli.ErrAborted) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(cli.GetExitCode(err))
	}
}
