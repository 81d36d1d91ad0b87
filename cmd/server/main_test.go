package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/igorsal/pr-reviewer/api/handlers"
	"github.com/igorsal/pr-reviewer/internal/config"
	"github.com/igorsal/pr-reviewer/internal/models"
	"github.com/igorsal/pr-reviewer/pkg/logger"
	"github.com/igorsal/pr-reviewer/pkg/metrics"
)

type stubReviewer struct{}

func (stubReviewer) ReviewPR(context.Context, models.ChangeEvent) (*models.ReviewOutcome, error) {
	return &models.ReviewOutcome{Status: models.OutcomeSuccess}, nil
}

type stubGitHub struct{}

func (stubGitHub) CompareCommits(context.Context, string, string, string, string) (*models.CompareResult, error) {
	return &models.CompareResult{}, nil
}

func (stubGitHub) CreateReview(context.Context, models.ReviewSubmission) error { return nil }

func (stubGitHub) GetPullRequest(_ context.Context, owner, repo string, number int) (*models.ChangeEvent, error) {
	return &models.ChangeEvent{Owner: owner, Repo: repo, Number: number, State: models.StateOpen}, nil
}

func testApplication(manualToken string) *Application {
	cfg := &config.Config{
		Review: config.ReviewConfig{Timeout: time.Minute},
		Manual: config.ManualConfig{Token: manualToken},
	}
	log := logger.NewNop()
	app := &Application{
		config:          cfg,
		logger:          log,
		metrics:         metrics.Noop{},
		githubClient:    stubGitHub{},
		reviewerService: stubReviewer{},
	}
	app.webhookHandler = handlers.NewWebhookHandler(app.reviewerService, "", time.Minute, log)
	return app
}

func serve(app *Application, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	app.newRouter().ServeHTTP(rec, req)
	return rec
}

func TestRouter_Health(t *testing.T) {
	rec := serve(testApplication(""), httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"chat_bot":"missing"`)
}

func TestRouter_ManualReviewDisabledWithoutToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/manual-review", bytes.NewBufferString(`{"owner":"o","repo":"r","number":1}`))

	rec := serve(testApplication(""), req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_ManualReviewRequiresToken(t *testing.T) {
	app := testApplication("t0ken")
	body := `{"owner":"o","repo":"r","number":1}`

	unauth := serve(app, httptest.NewRequest(http.MethodPost, "/manual-review", bytes.NewBufferString(body)))
	assert.Equal(t, http.StatusUnauthorized, unauth.Code)

	req := httptest.NewRequest(http.MethodPost, "/manual-review", bytes.NewBufferString(body))
	req.Header.Set("Authorization", "Bearer t0ken")
	ok := serve(app, req)
	assert.Equal(t, http.StatusOK, ok.Code)
	assert.Contains(t, ok.Body.String(), `"status":"success"`)
}

func TestRouter_WebhookRejectsGet(t *testing.T) {
	rec := serve(testApplication(""), httptest.NewRequest(http.MethodGet, "/webhook", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
