package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/igorsal/pr-reviewer/internal/interfaces"
	"github.com/igorsal/pr-reviewer/internal/models"
)

// ErrInvalidPullRequest is returned for closed or locked pull requests
var ErrInvalidPullRequest = errors.New("invalid pull request payload")

// DiffResolver picks the commit range to review for a change event
type DiffResolver struct {
	github interfaces.GitHubClient
	logger interfaces.Logger
}

// NewDiffResolver creates a new diff resolver
func NewDiffResolver(github interfaces.GitHubClient, logger interfaces.Logger) *DiffResolver {
	return &DiffResolver{
		github: github,
		logger: logger,
	}
}

// Resolve compares the pull request's base and head. On a synchronize event
// with at least two known commits the range is narrowed to the last two, so
// only the newest push is reviewed. Compare failures are returned as is.
func (r *DiffResolver) Resolve(ctx context.Context, event models.ChangeEvent) (*models.ResolvedDiff, error) {
	if event.State == models.StateClosed || event.Locked {
		r.logger.Debug("Pull request is closed or locked",
			"pr_number", event.Number,
			"state", event.State,
			"locked", event.Locked,
		)
		return nil, ErrInvalidPullRequest
	}

	compared, err := r.github.CompareCommits(ctx, event.Owner, event.Repo, event.BaseSHA, event.HeadSHA)
	if err != nil {
		return nil, fmt.Errorf("comparing %s...%s: %w", event.BaseSHA, event.HeadSHA, err)
	}

	commits := event.Commits
	if len(commits) == 0 {
		commits = commitSHAs(compared.Commits)
	}

	resolved := &models.ResolvedDiff{
		Base:     event.BaseSHA,
		Head:     event.HeadSHA,
		Files:    compared.Files,
		Commits:  commits,
		CommitID: event.HeadSHA,
	}
	if len(commits) > 0 {
		resolved.CommitID = commits[len(commits)-1]
	}

	r.logger.Debug("Compared commits",
		"base", event.BaseSHA,
		"head", event.HeadSHA,
		"commits", len(commits),
		"files", len(compared.Files),
	)

	if event.Action == models.ActionSynchronize && len(commits) >= 2 {
		base := commits[len(commits)-2]
		head := commits[len(commits)-1]

		narrowed, err := r.github.CompareCommits(ctx, event.Owner, event.Repo, base, head)
		if err != nil {
			return nil, fmt.Errorf("comparing %s...%s: %w", base, head, err)
		}

		r.logger.Debug("Narrowed diff to latest push",
			"base", base,
			"head", head,
			"files", len(narrowed.Files),
		)

		resolved.Base = base
		resolved.Head = head
		resolved.Files = narrowed.Files
	}

	return resolved, nil
}

func commitSHAs(commits []models.CommitRef) []string {
	shas := make([]string, 0, len(commits))
	for _, c := range commits {
		shas = append(shas, c.SHA)
	}
	return shas
}
