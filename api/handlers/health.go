package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/igorsal/pr-reviewer/internal/interfaces"
	"github.com/igorsal/pr-reviewer/pkg/version"
)

type HealthHandler struct {
	chatEnabled bool
	logger      interfaces.Logger
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
	ChatBot   string `json:"chat_bot"`
}

// NewHealthHandler creates a new health handler. chatEnabled reports whether
// a completion provider credential is configured.
func NewHealthHandler(chatEnabled bool, logger interfaces.Logger) *HealthHandler {
	return &HealthHandler{
		chatEnabled: chatEnabled,
		logger:      logger,
	}
}

// Handle processes health check requests
func (h *HealthHandler) Handle(w http.ResponseWriter, r *http.Request) {
	chatBot := "configured"
	if !h.chatEnabled {
		chatBot = "missing"
	}

	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   version.Get(),
		ChatBot:   chatBot,
	}

	writeJSON(w, http.StatusOK, response, h.logger)
	h.logger.Debug("Health check completed successfully")
}

func writeJSON(w http.ResponseWriter, status int, v any, logger interfaces.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode response", err)
	}
}
