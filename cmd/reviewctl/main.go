// Reviewctl runs the pull request reviewer from the command line.
//
// Usage:
//
//	reviewctl review --repo octo/app --pr 42          # review a pull request once
//	reviewctl review --repo octo/app --pr 42 --action synchronize
//	reviewctl match --include 'src/**' a/src/x.go b/y.go  # show gate decisions
//	reviewctl version
//
// Configuration is read from the same environment variables as the server.
package main

import (
	"os"

	"github.com/igorsal/pr-reviewer/internal/cli"
)

func main() {
	os.Exit(cli.Run())
}
