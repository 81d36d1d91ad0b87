package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	gh "github.com/google/go-github/v82/github"

	"github.com/igorsal/pr-reviewer/api/middleware"
	"github.com/igorsal/pr-reviewer/internal/interfaces"
	"github.com/igorsal/pr-reviewer/internal/models"
	pkgerrors "github.com/igorsal/pr-reviewer/pkg/errors"
)

const pullRequestEvent = "pull_request"

// WebhookHandler accepts GitHub webhook deliveries and runs reviews in the
// background so the delivery is acknowledged within GitHub's timeout.
type WebhookHandler struct {
	reviewer interfaces.ReviewerService
	secret   []byte
	timeout  time.Duration
	logger   interfaces.Logger

	inflight sync.WaitGroup
}

type WebhookResponse struct {
	Status     string `json:"status"`
	Event      string `json:"event"`
	DeliveryID string `json:"delivery_id,omitempty"`
}

// NewWebhookHandler creates a new webhook handler. An empty secret disables
// signature validation.
func NewWebhookHandler(reviewer interfaces.ReviewerService, secret string, timeout time.Duration, logger interfaces.Logger) *WebhookHandler {
	return &WebhookHandler{
		reviewer: reviewer,
		secret:   []byte(secret),
		timeout:  timeout,
		logger:   logger,
	}
}

// Handle processes webhook deliveries
func (h *WebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	eventType := gh.WebHookType(r)
	deliveryID := gh.DeliveryID(r)

	payload, err := gh.ValidatePayload(r, h.secret)
	if err != nil {
		h.logger.Warn("Rejected webhook delivery", "event", eventType, "delivery_id", deliveryID, "error", err.Error())
		middleware.WriteError(w, r, h.logger, pkgerrors.NewUnauthorizedError("invalid webhook signature").WithCause(err))
		return
	}

	if eventType != pullRequestEvent {
		h.logger.Debug("Ignoring webhook event", "event", eventType, "delivery_id", deliveryID)
		writeJSON(w, http.StatusAccepted, WebhookResponse{Status: "ignored", Event: eventType, DeliveryID: deliveryID}, h.logger)
		return
	}

	parsed, err := gh.ParseWebHook(eventType, payload)
	if err != nil {
		middleware.WriteError(w, r, h.logger, pkgerrors.NewValidationError("invalid pull_request payload").WithCause(err))
		return
	}

	prEvent, ok := parsed.(*gh.PullRequestEvent)
	if !ok || prEvent.GetPullRequest() == nil || prEvent.GetRepo() == nil {
		middleware.WriteError(w, r, h.logger, pkgerrors.NewValidationError("invalid pull_request payload"))
		return
	}

	event := changeEventFromWebhook(prEvent)
	h.logger.Info("Received GitHub PR webhook",
		"pr_number", event.Number,
		"repo", event.FullName(),
		"action", event.Action,
		"sender", event.Sender,
		"delivery_id", deliveryID,
	)

	h.dispatch(r.Context(), event)

	writeJSON(w, http.StatusAccepted, WebhookResponse{Status: "accepted", Event: eventType, DeliveryID: deliveryID}, h.logger)
}

// dispatch runs the review detached from the request's cancellation, bounded
// by the review timeout.
func (h *WebhookHandler) dispatch(parent context.Context, event models.ChangeEvent) {
	h.inflight.Add(1)
	go func() {
		defer h.inflight.Done()

		ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), h.timeout)
		defer cancel()

		outcome, err := h.reviewer.ReviewPR(ctx, event)
		if err != nil {
			h.logger.Error("PR review failed", err, "pr_number", event.Number, "repo", event.FullName())
			return
		}

		h.logger.Info("PR review finished",
			"pr_number", event.Number,
			"repo", event.FullName(),
			"outcome", outcome.Status,
			"message", outcome.Message,
		)
	}()
}

// Wait blocks until every dispatched review has finished
func (h *WebhookHandler) Wait() {
	h.inflight.Wait()
}

func changeEventFromWebhook(e *gh.PullRequestEvent) models.ChangeEvent {
	pr := e.GetPullRequest()
	repo := e.GetRepo()

	number := e.GetNumber()
	if number == 0 {
		number = pr.GetNumber()
	}

	return models.ChangeEvent{
		Action:  e.GetAction(),
		Owner:   repo.GetOwner().GetLogin(),
		Repo:    repo.GetName(),
		Number:  number,
		State:   pr.GetState(),
		Locked:  pr.GetLocked(),
		BaseSHA: pr.GetBase().GetSHA(),
		HeadSHA: pr.GetHead().GetSHA(),
		HTMLURL: pr.GetHTMLURL(),
		Sender:  e.GetSender().GetLogin(),
	}
}
