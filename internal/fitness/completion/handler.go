package completion

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/matthew-ngzc/fitandfast/internal/telemetry/metrics"
	"github.com/matthew-ngzc/fitandfast/internal/telemetry/tracing"
	"github.com/matthew-ngzc/fitandfast/pkg"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type completionService interface {
	Complete(ctx context.Context, req Request) (*Summary, error)
}

type Handler struct {
	service        completionService
	metricsManager *metrics.Manager
}

func NewHandler(service completionService, metricsManager *metrics.Manager) *Handler {
	return &Handler{
		service:        service,
		metricsManager: metricsManager,
	}
}

func (h *Handler) HandleComplete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.completion.complete")
	defer span.End()

	if r.Header.Get("Content-Type") != "application/json" {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Errorf("complete workout, unmarshal json params: %s", err)
		http.Error(w, "complete workout failed", http.StatusBadRequest)
		return
	}

	if req.UserID == uuid.Nil {
		http.Error(w, "user id missing", http.StatusBadRequest)
		return
	}
	if req.WorkoutID <= 0 {
		http.Error(w, "workout id missing", http.StatusBadRequest)
		return
	}

	summary, err := h.service.Complete(ctx, req)
	if err != nil {
		if errors.Is(err, ErrWorkoutNotFound) {
			http.Error(w, "workout not found", http.StatusNotFound)
			return
		}
		log.Errorf("complete workout: %s", err)
		http.Error(w, "complete workout failed", http.StatusInternalServerError)
		return
	}

	if h.metricsManager != nil {
		h.metricsManager.CounterCompletions.Inc()
	}

	summaryJson, err := json.Marshal(summary)
	if err != nil {
		log.Errorf("failed to marshal completion summary: %s", err)
		http.Error(w, "complete workout failed", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, summaryJson, http.StatusCreated)
}
