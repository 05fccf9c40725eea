package recommend

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/matthew-ngzc/fitandfast/internal/fitness/catalog"
	"github.com/matthew-ngzc/fitandfast/internal/telemetry/metrics"
	"github.com/matthew-ngzc/fitandfast/internal/telemetry/tracing"
	"github.com/matthew-ngzc/fitandfast/pkg"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
)

type dailySelector interface {
	Daily(ctx context.Context, userID uuid.UUID) (catalog.Workout, Source)
}

type Handler struct {
	selector       dailySelector
	metricsManager *metrics.Manager
}

func NewHandler(selector dailySelector, metricsManager *metrics.Manager) *Handler {
	return &Handler{
		selector:       selector,
		metricsManager: metricsManager,
	}
}

type dailyResponse struct {
	Workout catalog.Workout `json:"workout"`
	Source  Source          `json:"source"`
}

func (h *Handler) HandleDaily(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.recommend.daily")
	defer span.End()

	userID, err := uuid.Parse(r.URL.Query().Get("userId"))
	if err != nil {
		http.Error(w, "invalid user id", http.StatusBadRequest)
		return
	}

	workout, source := h.selector.Daily(ctx, userID)

	if h.metricsManager != nil {
		h.metricsManager.CounterRecommendations.
			With(prometheus.Labels{"source": string(source)}).
			Inc()
	}

	respJson, err := json.Marshal(dailyResponse{
		Workout: workout,
		Source:  source,
	})
	if err != nil {
		log.Errorf("failed to marshal daily recommendation: %s", err)
		http.Error(w, "get recommendation failed", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, respJson)
}
