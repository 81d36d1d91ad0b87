package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/igorsal/pr-reviewer/internal/config"
	"github.com/igorsal/pr-reviewer/internal/interfaces"
	"github.com/igorsal/pr-reviewer/io/github"
	"github.com/igorsal/pr-reviewer/io/openai"
	"github.com/igorsal/pr-reviewer/pkg/version"
)

// Exit codes
const (
	ExitSuccess      = 0
	ExitReviewFailed = 1
	ExitUsageError   = 2
)

// deps builds the collaborators a command needs. Tests replace it.
type deps struct {
	loadConfig func() (*config.Config, error)
	newGitHub  func(cfg *config.Config, logger interfaces.Logger, metrics interfaces.MetricsCollector) (interfaces.GitHubClient, error)
	newChat    func(cfg *config.Config, logger interfaces.Logger, metrics interfaces.MetricsCollector) interfaces.ChatClient
}

func defaultDeps() deps {
	return deps{
		loadConfig: config.Load,
		newGitHub: func(cfg *config.Config, logger interfaces.Logger, metrics interfaces.MetricsCollector) (interfaces.GitHubClient, error) {
			return github.NewClient(cfg.GitHub, logger, metrics)
		},
		newChat: func(cfg *config.Config, logger interfaces.Logger, metrics interfaces.MetricsCollector) interfaces.ChatClient {
			if !cfg.OpenAI.Enabled() {
				return nil
			}
			return openai.NewClient(cfg.OpenAI, logger, metrics)
		},
	}
}

// Run executes the root command and returns an exit code.
func Run() int {
	root := newRootCmd(defaultDeps(), os.Stdout, os.Stderr)
	if err := root.Execute(); err != nil {
		var rerr reviewError
		if errors.As(err, &rerr) {
			return ExitReviewFailed
		}
		return ExitUsageError
	}
	return ExitSuccess
}

func newRootCmd(d deps, stdout, stderr io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "reviewctl",
		Short:         "Review GitHub pull requests with a chat completion model",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.AddCommand(newReviewCmd(d, stderr))
	root.AddCommand(newMatchCmd())
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print reviewctl version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "reviewctl version %s\n", version.Get())
		},
	})

	return root
}

// reviewError marks failures of the review itself, as opposed to bad usage
type reviewError struct {
	err error
}

func (e reviewError) Error() string { return e.err.Error() }

func (e reviewError) Unwrap() error { return e.err }
