package history

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/matthew-ngzc/fitandfast/internal/telemetry/tracing"
	"github.com/matthew-ngzc/fitandfast/pkg"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type recordsStore interface {
	ListForUser(ctx context.Context, params ListParams) ([]Record, int, error)
}

type Handler struct {
	store recordsStore
}

func NewHandler(store recordsStore) *Handler {
	return &Handler{
		store: store,
	}
}

type listResponse struct {
	Records []Record `json:"records"`
	Total   int      `json:"total"`
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.history.list")
	defer span.End()

	vars := mux.Vars(r)

	userID, err := uuid.Parse(r.URL.Query().Get("userId"))
	if err != nil {
		http.Error(w, "invalid user id", http.StatusBadRequest)
		return
	}

	page, err := strconv.Atoi(vars["page"])
	if err != nil {
		http.Error(w, "invalid page", http.StatusBadRequest)
		return
	}
	size, err := strconv.Atoi(vars["size"])
	if err != nil {
		http.Error(w, "invalid size", http.StatusBadRequest)
		return
	}

	records, total, err := h.store.ListForUser(ctx, ListParams{
		UserID: userID,
		Page:   page,
		Size:   size,
	})
	if err != nil {
		log.Errorf("list history: %s", err)
		http.Error(w, "list history failed", http.StatusInternalServerError)
		return
	}

	respJson, err := json.Marshal(listResponse{
		Records: records,
		Total:   total,
	})
	if err != nil {
		log.Errorf("failed to marshal history records: %s", err)
		http.Error(w, "list history failed", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, respJson)
}
