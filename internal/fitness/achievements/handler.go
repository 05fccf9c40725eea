package achievements

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/matthew-ngzc/fitandfast/internal/telemetry/tracing"
	"github.com/matthew-ngzc/fitandfast/pkg"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type statusStore interface {
	ListForUser(ctx context.Context, userID uuid.UUID) ([]RuleWithStatus, error)
	SeedStatuses(ctx context.Context, userID uuid.UUID) error
}

type Handler struct {
	store statusStore
}

func NewHandler(store statusStore) *Handler {
	return &Handler{
		store: store,
	}
}

type listResponse struct {
	Achievements []RuleWithStatus `json:"achievements"`
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.achievements.list")
	defer span.End()

	userID, err := uuid.Parse(r.URL.Query().Get("userId"))
	if err != nil {
		http.Error(w, "invalid user id", http.StatusBadRequest)
		return
	}

	achievements, err := h.store.ListForUser(ctx, userID)
	if err != nil {
		log.Errorf("list achievements: %s", err)
		http.Error(w, "list achievements failed", http.StatusInternalServerError)
		return
	}

	respJson, err := json.Marshal(listResponse{Achievements: achievements})
	if err != nil {
		log.Errorf("failed to marshal achievements: %s", err)
		http.Error(w, "list achievements failed", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, respJson)
}

// HandleSeed creates the missing status rows for a user. Invoked by the
// account provisioning flow after a new registration.
func (h *Handler) HandleSeed(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.achievements.seed")
	defer span.End()

	userID, err := uuid.Parse(r.URL.Query().Get("userId"))
	if err != nil {
		http.Error(w, "invalid user id", http.StatusBadRequest)
		return
	}

	if err := h.store.SeedStatuses(ctx, userID); err != nil {
		log.Errorf("seed achievement statuses: %s", err)
		http.Error(w, "seed achievements failed", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponse(w, pkg.ContentType.Text, "seeded", http.StatusCreated)
}
