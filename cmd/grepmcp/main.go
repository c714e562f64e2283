// Package main provides the entry point for the grepmcp CLI.
package main

import (
	"fmt"
	"os"

	"github.com/grepmcp/grepmcp/cmd/grepmcp/cmd"
	"github.com/grepmcp/grepmcp/internal/errors"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errors.FormatForCLI(err))
		os.Exit(1)
	}
}
