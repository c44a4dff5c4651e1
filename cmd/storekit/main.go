// Package main is the storekit command line entry point.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/rshade/storekit/internal/cli"
	"github.com/rshade/storekit/internal/cli/pagination"
	"github.com/rshade/storekit/internal/config"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev" //nolint:gochecknoglobals // Set by the linker.

// Exit codes.
const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

func main() {
	err := run(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(exitCode(err))
}

func run(args []string) error {
	root := cli.NewRootCmd(version)
	root.SetArgs(args)
	return root.Execute()
}

// exitCode maps configuration and flag mistakes to exitUsage so scripts can
// tell them apart from fetch failures.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, config.ErrInvalidConfig),
		errors.Is(err, pagination.ErrInvalidPage),
		errors.Is(err, pagination.ErrInvalidPageSize),
		errors.Is(err, pagination.ErrInvalidSortOrder),
		errors.Is(err, pagination.ErrInvalidSortFormat),
		errors.Is(err, pagination.ErrEmptySortField),
		errors.Is(err, pagination.ErrInvalidSortField),
		errors.Is(err, pagination.ErrAllWithPage):
		return exitUsage
	default:
		return exitFailure
	}
}
