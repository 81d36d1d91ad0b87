package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gofri/go-github-ratelimit/v2/github_ratelimit"
	gh "github.com/google/go-github/v82/github"
	"github.com/gregjones/httpcache"

	"github.com/igorsal/pr-reviewer/internal/config"
	"github.com/igorsal/pr-reviewer/internal/interfaces"
	"github.com/igorsal/pr-reviewer/internal/models"
	"github.com/igorsal/pr-reviewer/pkg/breaker"
	pkgerrors "github.com/igorsal/pr-reviewer/pkg/errors"
)

var _ interfaces.GitHubClient = (*Client)(nil)

type Client struct {
	gh             *gh.Client
	logger         interfaces.Logger
	circuitBreaker interfaces.CircuitBreaker
	metrics        interfaces.MetricsCollector
}

// NewClient creates a GitHub REST client with the following transport stack:
//  1. httpcache (ETag-based conditional request caching)
//  2. go-github-ratelimit (secondary rate limit middleware, sleeps on 429)
//  3. go-github (token auth, enterprise URLs when BaseURL is set)
func NewClient(cfg config.GitHubConfig, logger interfaces.Logger, metrics interfaces.MetricsCollector) (*Client, error) {
	cacheTransport := httpcache.NewMemoryCacheTransport()
	rateLimitClient := github_ratelimit.NewClient(cacheTransport)
	client := gh.NewClient(rateLimitClient)
	if cfg.Token != "" {
		client = client.WithAuthToken(cfg.Token)
	}

	if cfg.BaseURL != "" {
		var err error
		client, err = client.WithEnterpriseURLs(cfg.BaseURL, cfg.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("configuring GitHub base URL: %w", err)
		}
	}

	return newClient(client, logger, metrics), nil
}

// NewClientWithHTTPClient creates a Client with a custom http.Client and base URL.
// Used by tests to point the client at an httptest server.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL, token string, logger interfaces.Logger, metrics interfaces.MetricsCollector) (*Client, error) {
	client := gh.NewClient(httpClient)
	if token != "" {
		client = client.WithAuthToken(token)
	}

	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	client.BaseURL = u

	return newClient(client, logger, metrics), nil
}

func newClient(client *gh.Client, logger interfaces.Logger, metrics interfaces.MetricsCollector) *Client {
	return &Client{
		gh:             client,
		logger:         logger,
		circuitBreaker: breaker.New("github-api", "github", logger, metrics),
		metrics:        metrics,
	}
}

// CompareCommits returns the files and commits between base and head
func (c *Client) CompareCommits(ctx context.Context, owner, repo, base, head string) (*models.CompareResult, error) {
	result, err := c.call("compare_commits", func() (interface{}, error) {
		comparison, resp, err := c.gh.Repositories.CompareCommits(ctx, owner, repo, base, head, nil)
		if err != nil {
			return nil, classifyError(fmt.Sprintf("comparing %s...%s in %s/%s", base, head, owner, repo), err)
		}
		c.logRateLimit(resp, "compare")
		return mapComparison(comparison), nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*models.CompareResult), nil
}

// CreateReview posts a review with its inline comments in a single request
func (c *Client) CreateReview(ctx context.Context, submission models.ReviewSubmission) error {
	_, err := c.call("create_review", func() (interface{}, error) {
		review := &gh.PullRequestReviewRequest{
			Body:     gh.Ptr(submission.Body),
			Event:    gh.Ptr(submission.Event),
			Comments: draftComments(submission.Comments),
		}
		if submission.CommitID != "" {
			review.CommitID = gh.Ptr(submission.CommitID)
		}

		_, resp, err := c.gh.PullRequests.CreateReview(ctx, submission.Owner, submission.Repo, submission.Number, review)
		if err != nil {
			return nil, classifyError(fmt.Sprintf("creating review for %s/%s#%d", submission.Owner, submission.Repo, submission.Number), err)
		}
		c.logRateLimit(resp, "create-review")
		return nil, nil
	})
	return err
}

// GetPullRequest fetches a pull request and maps it to a change event with an
// empty action. Callers set the action they want reviewed.
func (c *Client) GetPullRequest(ctx context.Context, owner, repo string, number int) (*models.ChangeEvent, error) {
	result, err := c.call("get_pull_request", func() (interface{}, error) {
		pr, resp, err := c.gh.PullRequests.Get(ctx, owner, repo, number)
		if err != nil {
			return nil, classifyError(fmt.Sprintf("fetching %s/%s#%d", owner, repo, number), err)
		}
		c.logRateLimit(resp, "get-pull-request")
		return mapPullRequest(pr, owner, repo), nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*models.ChangeEvent), nil
}

// call runs fn through the circuit breaker and records request metrics
func (c *Client) call(operation string, fn func() (interface{}, error)) (interface{}, error) {
	startTime := time.Now()
	labels := map[string]string{
		"service":   "github",
		"operation": operation,
	}

	result, err := c.circuitBreaker.Execute(fn)

	c.metrics.RecordDuration("github_request_duration_seconds", time.Since(startTime).Seconds(), labels)

	status := "success"
	if err != nil {
		status = "error"
	}
	c.metrics.IncrementCounter("github_requests_total", map[string]string{
		"service":   "github",
		"operation": operation,
		"status":    status,
	})

	if err != nil {
		if breaker.IsOpen(err) {
			c.logger.Error("GitHub API circuit breaker open", err, "operation", operation)
			return nil, pkgerrors.NewUnavailableError("github").WithCause(err)
		}
		return nil, err
	}
	return result, nil
}

func (c *Client) logRateLimit(resp *gh.Response, endpoint string) {
	if resp == nil {
		return
	}
	c.logger.Debug("GitHub API call",
		"endpoint", endpoint,
		"rate_remaining", resp.Rate.Remaining,
		"rate_limit", resp.Rate.Limit,
	)
}

// classifyError maps go-github errors onto the application error taxonomy
func classifyError(action string, err error) error {
	var rateErr *gh.RateLimitError
	var abuseErr *gh.AbuseRateLimitError
	if errors.As(err, &rateErr) || errors.As(err, &abuseErr) {
		return pkgerrors.NewRateLimitError("github").WithCause(err)
	}

	var respErr *gh.ErrorResponse
	if errors.As(err, &respErr) && respErr.Response != nil {
		status := respErr.Response.StatusCode
		switch {
		case status == http.StatusUnauthorized:
			return pkgerrors.NewUnauthorizedError("Invalid GitHub token").WithCause(err)
		case status == http.StatusNotFound:
			return pkgerrors.NewNotFoundError(action + ": not found").WithCause(err)
		case status >= http.StatusInternalServerError:
			return pkgerrors.NewUnavailableError("github").WithContext("status_code", status).WithCause(err)
		default:
			return pkgerrors.NewExternalError("github", action).WithContext("status_code", status).WithCause(err)
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return pkgerrors.NewTimeoutError("github", "request deadline").WithContext("action", action).WithCause(err)
	}
	if errors.Is(err, context.Canceled) {
		return pkgerrors.NewExternalError("github", action).WithCause(err)
	}

	// No HTTP answer at all
	return pkgerrors.NewUnavailableError("github").WithContext("action", action).WithCause(err)
}

func mapComparison(comparison *gh.CommitsComparison) *models.CompareResult {
	result := &models.CompareResult{
		Files:   make([]models.ChangedFile, 0, len(comparison.Files)),
		Commits: make([]models.CommitRef, 0, len(comparison.Commits)),
	}
	for _, f := range comparison.Files {
		result.Files = append(result.Files, models.ChangedFile{
			Filename:    f.GetFilename(),
			Status:      models.FileStatus(f.GetStatus()),
			Patch:       f.GetPatch(),
			ContentsURL: f.GetContentsURL(),
		})
	}
	for _, commit := range comparison.Commits {
		result.Commits = append(result.Commits, models.CommitRef{SHA: commit.GetSHA()})
	}
	return result
}

func mapPullRequest(pr *gh.PullRequest, owner, repo string) *models.ChangeEvent {
	return &models.ChangeEvent{
		Owner:   owner,
		Repo:    repo,
		Number:  pr.GetNumber(),
		State:   pr.GetState(),
		Locked:  pr.GetLocked(),
		BaseSHA: pr.GetBase().GetSHA(),
		HeadSHA: pr.GetHead().GetSHA(),
		HTMLURL: pr.GetHTMLURL(),
		Sender:  pr.GetUser().GetLogin(),
	}
}

func draftComments(comments []models.ReviewComment) []*gh.DraftReviewComment {
	drafts := make([]*gh.DraftReviewComment, 0, len(comments))
	for _, comment := range comments {
		drafts = append(drafts, &gh.DraftReviewComment{
			Path:     gh.Ptr(comment.Path),
			Body:     gh.Ptr(comment.Body),
			Position: gh.Ptr(comment.Position),
		})
	}
	return drafts
}
