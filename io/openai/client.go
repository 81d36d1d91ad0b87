package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/igorsal/pr-reviewer/internal/config"
	"github.com/igorsal/pr-reviewer/internal/interfaces"
	"github.com/igorsal/pr-reviewer/internal/models"
	"github.com/igorsal/pr-reviewer/pkg/breaker"
	pkgerrors "github.com/igorsal/pr-reviewer/pkg/errors"
)

const completionsPath = "/v1/chat/completions"

type Client struct {
	httpClient     *resty.Client
	config         config.OpenAIConfig
	logger         interfaces.Logger
	circuitBreaker interfaces.CircuitBreaker
	metrics        interfaces.MetricsCollector
}

// NewClient creates a new chat completions client with circuit breaker and metrics
func NewClient(cfg config.OpenAIConfig, logger interfaces.Logger, metrics interfaces.MetricsCollector) *Client {
	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.MaxRetries).
		SetRetryWaitTime(1*time.Second).
		SetRetryMaxWaitTime(5*time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= http.StatusInternalServerError
		}).
		SetHeader("Content-Type", "application/json").
		SetAuthToken(cfg.APIKey).
		SetBaseURL(cfg.BaseURL)

	return &Client{
		httpClient:     client,
		config:         cfg,
		logger:         logger,
		circuitBreaker: breaker.New("openai-api", "openai", logger, metrics),
		metrics:        metrics,
	}
}

// CodeReview asks the model for a verdict on one patch. An empty patch is
// approved without a request. A reply that is not a JSON verdict is returned
// as a rejection carrying the raw text.
func (c *Client) CodeReview(ctx context.Context, patch string) (*models.ReviewVerdict, error) {
	if patch == "" {
		return &models.ReviewVerdict{Approved: true}, nil
	}

	startTime := time.Now()
	labels := map[string]string{
		"service":   "openai",
		"operation": "code_review",
	}

	result, err := c.circuitBreaker.Execute(func() (interface{}, error) {
		return c.executeCompletion(ctx, buildReviewPrompt(patch))
	})

	duration := time.Since(startTime).Seconds()
	c.metrics.RecordDuration("openai_request_duration_seconds", duration, labels)

	if err != nil {
		c.metrics.IncrementCounter("openai_requests_total", withStatus(labels, "error"))

		if breaker.IsOpen(err) {
			c.logger.Error("OpenAI circuit breaker open", err, "state", c.circuitBreaker.State())
			return nil, pkgerrors.NewUnavailableError("openai").WithCause(err)
		}

		c.logger.Error("Failed to review patch with OpenAI", err, "patch_length", len(patch))
		return nil, err
	}

	c.metrics.IncrementCounter("openai_requests_total", withStatus(labels, "success"))

	resp := result.(*ChatCompletionResponse)
	verdict := verdictFromResponse(resp)

	c.logger.Debug("Received review verdict",
		"model", resp.Model,
		"approved", verdict.Approved,
		"completion_tokens", resp.Usage.CompletionTokens,
		"duration_ms", duration*1000,
	)

	return verdict, nil
}

func (c *Client) executeCompletion(ctx context.Context, prompt string) (*ChatCompletionResponse, error) {
	req := ChatCompletionRequest{
		Model: c.config.Model,
		Messages: []Message{
			{Role: "user", Content: prompt},
		},
		Temperature:         c.config.Temperature,
		TopP:                c.config.TopP,
		MaxCompletionTokens: c.config.MaxTokens,
		ResponseFormat:      &ResponseFormat{Type: "json_object"},
	}

	var completion ChatCompletionResponse
	var apiErr ErrorResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&completion).
		SetError(&apiErr).
		Post(completionsPath)

	if err != nil {
		return nil, transportError(err, c.config.Timeout)
	}

	if resp.IsError() {
		message := apiErr.Error.Message
		if message == "" {
			message = string(resp.Body())
		}

		switch resp.StatusCode() {
		case http.StatusUnauthorized:
			return nil, pkgerrors.NewUnauthorizedError("Invalid OpenAI API key")
		case http.StatusTooManyRequests:
			return nil, pkgerrors.NewRateLimitError("openai")
		case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return nil, pkgerrors.NewUnavailableError("openai").WithContext("status_code", resp.StatusCode())
		default:
			return nil, pkgerrors.NewProviderError("openai", fmt.Sprintf("HTTP %d: %s", resp.StatusCode(), message)).
				WithContext("status_code", resp.StatusCode())
		}
	}

	return &completion, nil
}

// transportError classifies a request that got no HTTP answer. A cancelled
// caller stays a plain provider error; deadlines become timeouts and anything
// else marks the provider unavailable.
func transportError(err error, timeout time.Duration) error {
	if errors.Is(err, context.Canceled) {
		return pkgerrors.NewProviderError("openai", err.Error()).WithCause(err)
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return pkgerrors.NewTimeoutError("openai", timeout.String()).WithCause(err)
	}

	return pkgerrors.NewUnavailableError("openai").WithCause(err)
}

// verdictFromResponse reads the first choice. No choices approves the patch.
func verdictFromResponse(resp *ChatCompletionResponse) *models.ReviewVerdict {
	if len(resp.Choices) == 0 {
		return &models.ReviewVerdict{Approved: true}
	}

	content := resp.Choices[0].Message.Content
	var verdict models.ReviewVerdict
	if err := json.Unmarshal([]byte(content), &verdict); err != nil {
		return &models.ReviewVerdict{Approved: false, Comment: content}
	}
	return &verdict
}

func buildReviewPrompt(patch string) string {
	return reviewInstruction + patch
}

func withStatus(labels map[string]string, status string) map[string]string {
	out := make(map[string]string, len(labels)+1)
	for k, v := range labels {
		out[k] = v
	}
	out["status"] = status
	return out
}

const reviewInstruction = `Review the following code changes
Provide your feedback and suggestions for the following code changes in this format:
{
   "approved": boolean // true if the code looks good to merge and is up to standards, false if there are issues
   "comment": string // your review comments on the code; be detailed and use markdown where useful, the overall response must be valid JSON
}
Make sure that your response is a valid JSON object
`
