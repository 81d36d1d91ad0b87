package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/igorsal/pr-reviewer/internal/models"
	"github.com/igorsal/pr-reviewer/internal/services"
	"github.com/igorsal/pr-reviewer/pkg/logger"
	"github.com/igorsal/pr-reviewer/pkg/metrics"
)

type reviewOptions struct {
	repo   string
	number int
	action string
	asJSON bool
}

func newReviewCmd(d deps, logOut io.Writer) *cobra.Command {
	var opts reviewOptions

	cmd := &cobra.Command{
		Use:   "review",
		Short: "Review one pull request and post the result",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReview(cmd, d, logOut, opts)
		},
	}

	cmd.Flags().StringVar(&opts.repo, "repo", "", "repository as owner/name")
	cmd.Flags().IntVar(&opts.number, "pr", 0, "pull request number")
	cmd.Flags().StringVar(&opts.action, "action", models.ActionOpened, "action to review as: opened, synchronize or reopened")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "print the outcome as JSON")
	_ = cmd.MarkFlagRequired("repo")
	_ = cmd.MarkFlagRequired("pr")

	return cmd
}

func runReview(cmd *cobra.Command, d deps, logOut io.Writer, opts reviewOptions) error {
	owner, repo, err := splitRepo(opts.repo)
	if err != nil {
		return err
	}
	if opts.number <= 0 {
		return fmt.Errorf("--pr must be positive, got %d", opts.number)
	}
	if !models.IsReviewableAction(opts.action) {
		return fmt.Errorf("--action must be one of opened, synchronize, reopened; got %q", opts.action)
	}

	cfg, err := d.loadConfig()
	if err != nil {
		return err
	}

	log := logger.NewAdapterWithWriter(cfg.Logging.Level, "console", logOut)
	collector := metrics.Noop{}

	githubClient, err := d.newGitHub(cfg, log, collector)
	if err != nil {
		return err
	}
	chatClient := d.newChat(cfg, log, collector)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, cfg.Review.Timeout)
	defer cancel()

	event, err := githubClient.GetPullRequest(ctx, owner, repo, opts.number)
	if err != nil {
		return reviewError{err: fmt.Errorf("fetching pull request: %w", err)}
	}
	event.Action = opts.action

	reviewer := services.NewReviewerService(chatClient, githubClient, cfg.Review, log, collector)
	outcome, err := reviewer.ReviewPR(ctx, *event)
	if err != nil {
		return reviewError{err: err}
	}

	if err := printOutcome(cmd.OutOrStdout(), outcome, opts.asJSON); err != nil {
		return err
	}
	if outcome.Status == models.OutcomeSubmissionFailed {
		return reviewError{err: fmt.Errorf("review submission failed: %s", outcome.Message)}
	}
	return nil
}

func printOutcome(w io.Writer, outcome *models.ReviewOutcome, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(outcome)
	}

	_, err := fmt.Fprintf(w, "%s: %s (reviewed %d, failed %d, comments %d)\n",
		outcome.Status, outcome.Message, outcome.FilesReviewed, outcome.FilesFailed, outcome.Comments)
	return err
}

func splitRepo(fullName string) (string, string, error) {
	parts := strings.Split(fullName, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("--repo must be owner/name, got %q", fullName)
	}
	return parts[0], parts[1], nil
}
