// Package main provides issuebot, an issue webhook reconciliation service.
package main

import (
	"fmt"
	"os"

	"github.com/tmkelly/issuebot/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}
