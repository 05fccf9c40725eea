package streak

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/matthew-ngzc/fitandfast/internal/fitness/profile"
	"github.com/matthew-ngzc/fitandfast/internal/telemetry/tracing"
	"github.com/matthew-ngzc/fitandfast/pkg"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type progressReader interface {
	GetProgress(ctx context.Context, userID uuid.UUID) (*profile.ProgressState, error)
}

type Handler struct {
	progress progressReader
}

func NewHandler(progress progressReader) *Handler {
	return &Handler{
		progress: progress,
	}
}

func (h *Handler) HandleGetProgress(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.streak.progress")
	defer span.End()

	userID, err := uuid.Parse(r.URL.Query().Get("userId"))
	if err != nil {
		http.Error(w, "invalid user id", http.StatusBadRequest)
		return
	}

	state, err := h.progress.GetProgress(ctx, userID)
	if err != nil {
		if errors.Is(err, profile.ErrProfileNotFound) {
			http.Error(w, "user not found", http.StatusNotFound)
			return
		}
		log.Errorf("get progress state: %s", err)
		http.Error(w, "get progress failed", http.StatusInternalServerError)
		return
	}

	stateJson, err := json.Marshal(state)
	if err != nil {
		log.Errorf("failed to marshal progress state: %s", err)
		http.Error(w, "get progress failed", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, stateJson)
}
