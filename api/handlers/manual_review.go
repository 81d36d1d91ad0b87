package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/igorsal/pr-reviewer/api/middleware"
	"github.com/igorsal/pr-reviewer/internal/interfaces"
	"github.com/igorsal/pr-reviewer/internal/models"
	pkgerrors "github.com/igorsal/pr-reviewer/pkg/errors"
)

const (
	MaxBodySize = 1 * 1024 * 1024 // 1MB max
)

// ManualReviewHandler runs the review pipeline synchronously for a pull
// request named in the request body.
type ManualReviewHandler struct {
	reviewer  interfaces.ReviewerService
	github    interfaces.GitHubClient
	timeout   time.Duration
	validator *validator.Validate
	logger    interfaces.Logger
}

type ManualReviewRequest struct {
	Owner  string `json:"owner" validate:"required"`
	Repo   string `json:"repo" validate:"required"`
	Number int    `json:"number" validate:"required,gt=0"`
	Action string `json:"action,omitempty" validate:"omitempty,oneof=opened synchronize reopened"`
}

func NewManualReviewHandler(reviewer interfaces.ReviewerService, github interfaces.GitHubClient, timeout time.Duration, logger interfaces.Logger) *ManualReviewHandler {
	return &ManualReviewHandler{
		reviewer:  reviewer,
		github:    github,
		timeout:   timeout,
		validator: validator.New(),
		logger:    logger,
	}
}

func (h *ManualReviewHandler) Handle(w http.ResponseWriter, r *http.Request) {
	var req ManualReviewRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodySize)).Decode(&req); err != nil {
		middleware.WriteError(w, r, h.logger, pkgerrors.NewValidationError("invalid request body").WithCause(err))
		return
	}

	if err := h.validator.Struct(req); err != nil {
		middleware.WriteError(w, r, h.logger, pkgerrors.NewValidationError(err.Error()))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	event, err := h.github.GetPullRequest(ctx, req.Owner, req.Repo, req.Number)
	if err != nil {
		middleware.WriteError(w, r, h.logger, asUpstreamError(err, "failed to fetch pull request"))
		return
	}

	event.Action = req.Action
	if event.Action == "" {
		event.Action = models.ActionOpened
	}

	h.logger.Info("Manual review requested",
		"pr_number", event.Number,
		"repo", event.FullName(),
		"action", event.Action,
	)

	outcome, err := h.reviewer.ReviewPR(ctx, *event)
	if err != nil {
		middleware.WriteError(w, r, h.logger, pkgerrors.NewExternalError("github", "failed to resolve pull request diff").WithCause(err))
		return
	}

	writeJSON(w, http.StatusOK, outcome, h.logger)
}

// asUpstreamError keeps AppErrors as they are and reports anything else as a
// bad gateway.
func asUpstreamError(err error, message string) error {
	if pkgerrors.IsAppError(err) {
		return err
	}
	return pkgerrors.NewExternalError("github", message).WithCause(err)
}
