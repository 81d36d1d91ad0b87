package interfaces

import (
	"context"

	"github.com/igorsal/pr-reviewer/internal/models"
)

// ChatClient reviews a single unified-diff patch with the completion provider
type ChatClient interface {
	CodeReview(ctx context.Context, patch string) (*models.ReviewVerdict, error)
}

// GitHubClient defines the hosting platform operations the reviewer needs
type GitHubClient interface {
	CompareCommits(ctx context.Context, owner, repo, base, head string) (*models.CompareResult, error)
	CreateReview(ctx context.Context, submission models.ReviewSubmission) error
	GetPullRequest(ctx context.Context, owner, repo string, number int) (*models.ChangeEvent, error)
}

// ReviewerService defines the interface for PR review orchestration
type ReviewerService interface {
	ReviewPR(ctx context.Context, event models.ChangeEvent) (*models.ReviewOutcome, error)
}

// Logger defines the logging interface
type Logger interface {
	Debug(msg string, fields ...interface{})
	Info(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Error(msg string, err error, fields ...interface{})
	Fatal(msg string, err error, fields ...interface{})
}

// MetricsCollector defines the interface for collecting metrics
type MetricsCollector interface {
	IncrementCounter(name string, labels map[string]string)
	AddCounter(name string, value float64, labels map[string]string)
	RecordDuration(name string, duration float64, labels map[string]string)
	SetGauge(name string, value float64, labels map[string]string)
}

// CircuitBreaker defines the interface for circuit breaker pattern
type CircuitBreaker interface {
	Execute(req func() (interface{}, error)) (interface{}, error)
	Name() string
	State() string
}
