package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/igorsal/pr-reviewer/internal/config"
	"github.com/igorsal/pr-reviewer/internal/interfaces"
	"github.com/igorsal/pr-reviewer/internal/models"
)

type ReviewerService struct {
	chatClient   interfaces.ChatClient
	githubClient interfaces.GitHubClient
	resolver     *DiffResolver
	gate         ReviewGate
	logger       interfaces.Logger
	metrics      interfaces.MetricsCollector
}

// NewReviewerService creates a new reviewer service. chatClient may be nil,
// in which case every event ends with the no_chat_bot outcome.
func NewReviewerService(chatClient interfaces.ChatClient, githubClient interfaces.GitHubClient, cfg config.ReviewConfig, logger interfaces.Logger, metrics interfaces.MetricsCollector) *ReviewerService {
	return &ReviewerService{
		chatClient:   chatClient,
		githubClient: githubClient,
		resolver:     NewDiffResolver(githubClient, logger),
		gate:         NewReviewGate(cfg),
		logger:       logger,
		metrics:      metrics,
	}
}

// ReviewPR reviews the files changed by a pull request event and posts one
// comment-only review. Only a failed compare is returned as an error; every
// other early exit is reported through the outcome status.
func (s *ReviewerService) ReviewPR(ctx context.Context, event models.ChangeEvent) (*models.ReviewOutcome, error) {
	startTime := time.Now()

	s.logger.Info("Starting PR review",
		"pr_number", event.Number,
		"repo", event.FullName(),
		"action", event.Action,
		"html_url", event.HTMLURL,
	)

	outcome, err := s.review(ctx, event)

	status := "error"
	if outcome != nil {
		status = string(outcome.Status)
	}
	s.metrics.IncrementCounter("pr_review_total", map[string]string{
		"repository": event.FullName(),
		"action":     event.Action,
		"outcome":    status,
	})
	s.metrics.RecordDuration("pr_review_duration_seconds", time.Since(startTime).Seconds(), map[string]string{
		"repository": event.FullName(),
		"action":     event.Action,
	})

	return outcome, err
}

func (s *ReviewerService) review(ctx context.Context, event models.ChangeEvent) (*models.ReviewOutcome, error) {
	if !models.IsReviewableAction(event.Action) {
		s.logger.Info("Skipping PR action", "action", event.Action)
		return &models.ReviewOutcome{
			Status:  models.OutcomeSkippedAction,
			Message: fmt.Sprintf("Skipped action: %s", event.Action),
		}, nil
	}

	if s.chatClient == nil {
		s.logger.Error("Chat bot initialization failed", nil, "pr_number", event.Number)
		return &models.ReviewOutcome{
			Status:  models.OutcomeNoChatBot,
			Message: "No Chat Bot",
		}, nil
	}

	resolved, err := s.resolver.Resolve(ctx, event)
	if errors.Is(err, ErrInvalidPullRequest) {
		return &models.ReviewOutcome{
			Status:  models.OutcomeInvalidPullRequest,
			Message: ErrInvalidPullRequest.Error(),
		}, nil
	}
	if err != nil {
		s.logger.Error("Failed to resolve PR diff", err, "pr_number", event.Number, "repo", event.FullName())
		return nil, fmt.Errorf("failed to resolve PR diff: %w", err)
	}

	files := s.gate.Filter(resolved.Files)
	if len(files) == 0 {
		s.logger.Debug("No files to review", "pr_number", event.Number, "changed_files", len(resolved.Files))
		return &models.ReviewOutcome{
			Status:  models.OutcomeNoFileChanges,
			Message: "no file changes",
		}, nil
	}

	s.logger.Debug("Reviewing files", "pr_number", event.Number, "files", len(files), "changed_files", len(resolved.Files))

	submission, reviewed, failed := s.aggregate(ctx, event, resolved.CommitID, files)
	outcome := &models.ReviewOutcome{
		FilesReviewed: reviewed,
		FilesFailed:   failed,
		Comments:      len(submission.Comments),
		Submission:    &submission,
	}

	if err := s.githubClient.CreateReview(ctx, submission); err != nil {
		s.logger.Error("Failed to create a review", err,
			"pr_number", event.Number,
			"repo", event.FullName(),
			"commit_id", submission.CommitID,
		)
		outcome.Status = models.OutcomeSubmissionFailed
		outcome.Message = err.Error()
		return outcome, nil
	}

	s.metrics.AddCounter("review_comments_total", float64(len(submission.Comments)), map[string]string{
		"repository": event.FullName(),
	})

	s.logger.Info("Successfully created a review",
		"pr_number", event.Number,
		"html_url", event.HTMLURL,
		"files_reviewed", reviewed,
		"files_failed", failed,
		"comments", len(submission.Comments),
	)

	outcome.Status = models.OutcomeSuccess
	outcome.Message = "success"
	return outcome, nil
}

// aggregate reviews files one at a time in order. A failed file is logged and
// skipped; it never aborts the batch.
func (s *ReviewerService) aggregate(ctx context.Context, event models.ChangeEvent, commitID string, files []models.ChangedFile) (models.ReviewSubmission, int, int) {
	comments := make([]models.ReviewComment, 0)
	reviewed, failed := 0, 0
	repoLabel := event.FullName()

	for _, file := range files {
		verdict, err := s.chatClient.CodeReview(ctx, file.Patch)
		if err != nil {
			failed++
			s.metrics.IncrementCounter("files_reviewed_total", map[string]string{"repository": repoLabel, "result": "failed"})
			s.logger.Error("Failed to review file", err, "pr_number", event.Number, "path", file.Filename)
			continue
		}
		reviewed++

		if verdict == nil || verdict.Approved || verdict.Comment == "" {
			s.metrics.IncrementCounter("files_reviewed_total", map[string]string{"repository": repoLabel, "result": "approved"})
			continue
		}

		s.metrics.IncrementCounter("files_reviewed_total", map[string]string{"repository": repoLabel, "result": "commented"})
		comments = append(comments, models.ReviewComment{
			Path:     file.Filename,
			Body:     verdict.Comment,
			Position: strings.Count(file.Patch, "\n"),
		})
		s.logger.Debug("Collected review comment", "path", file.Filename, "comments", len(comments))
	}

	body := models.ReviewBodyNoComments
	if len(comments) > 0 {
		body = models.ReviewBodyWithComments
	}

	return models.ReviewSubmission{
		Owner:    event.Owner,
		Repo:     event.Repo,
		Number:   event.Number,
		CommitID: commitID,
		Body:     body,
		Event:    models.ReviewEventComment,
		Comments: comments,
	}, reviewed, failed
}
