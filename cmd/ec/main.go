// Command ec is the EntireContext CLI: capture, search and sync AI
// coding session context alongside a git repository.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/entirecontext/ec/cmd/ec/cli"
	"github.com/entirecontext/ec/internal/ecerr"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		var domainErr *ecerr.Error
		if errors.As(err, &domainErr) {
			os.Exit(domainErr.Kind.ExitCode())
		}
		os.Exit(1)
	}
}
