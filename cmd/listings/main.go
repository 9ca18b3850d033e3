// Package main provides the listings CLI, an operator tool over the
// embedded property-listing store.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/mesh-intelligence/listings/pkg/types"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "0.1.0"

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "listings:", err)
		os.Exit(exitCode(err))
	}
	os.Exit(exitSuccess)
}

// exitCode separates storage failures from mistakes the caller can fix.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitSuccess
	case errors.Is(err, types.ErrTransaction),
		errors.Is(err, types.ErrSchemaVersion),
		errors.Is(err, types.ErrStoreDetached):
		return exitSysError
	default:
		return exitUserError
	}
}
