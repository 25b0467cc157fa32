package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/studyshare/backend/internal/response"
)

// Pinger reports whether a backing store is reachable
type Pinger interface {
	PingContext(ctx context.Context) error
}

type healthHandler struct {
	db  Pinger
	now func() time.Time
}

func NewHealthHandler(db Pinger) *healthHandler {
	return &healthHandler{db: db, now: time.Now}
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

func (h *healthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	err := h.db.PingContext(ctx)
	if err != nil {
		slog.Error("health check failed", "error", err)
		response.JSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable", Timestamp: h.now().UTC()})
		return
	}

	response.JSON(w, http.StatusOK, healthResponse{Status: "ok", Timestamp: h.now().UTC()})
}

// NotFound answers unmatched routes with the standard error body
func NotFound(w http.ResponseWriter, r *http.Request) {
	response.Error(w, http.StatusNotFound, "Not Found")
}
