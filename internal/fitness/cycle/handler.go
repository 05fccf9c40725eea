package cycle

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/matthew-ngzc/fitandfast/internal/telemetry/tracing"
	"github.com/matthew-ngzc/fitandfast/pkg"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type profileSource interface {
	CycleProfile(ctx context.Context, userID uuid.UUID) (Profile, error)
}

type Handler struct {
	profiles profileSource
	now      func() time.Time
}

func NewHandler(profiles profileSource) *Handler {
	return &Handler{
		profiles: profiles,
		now:      time.Now,
	}
}

// HandleGet returns where the user currently is in their cycle.
// A missing profile is not an error here, the calculation falls back to
// its defaults, so this endpoint always answers.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.cycle.get")
	defer span.End()

	userID, err := uuid.Parse(r.URL.Query().Get("userId"))
	if err != nil {
		http.Error(w, "invalid user id", http.StatusBadRequest)
		return
	}

	cycleProfile, err := h.profiles.CycleProfile(ctx, userID)
	if err != nil {
		log.Warnf("get cycle profile [%s]: %s, using defaults", userID, err)
		cycleProfile = Profile{}
	}

	info := Calculate(cycleProfile, h.now())

	infoJson, err := json.Marshal(info)
	if err != nil {
		log.Errorf("failed to marshal cycle info: %s", err)
		http.Error(w, "get cycle info failed", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, infoJson)
}
