package achievements

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type statusStoreMock struct {
	achievements []RuleWithStatus
	seededFor    []uuid.UUID
	listErr      error
	seedErr      error
}

func (m *statusStoreMock) ListForUser(_ context.Context, _ uuid.UUID) ([]RuleWithStatus, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.achievements, nil
}

func (m *statusStoreMock) SeedStatuses(_ context.Context, userID uuid.UUID) error {
	if m.seedErr != nil {
		return m.seedErr
	}
	m.seededFor = append(m.seededFor, userID)
	return nil
}

func TestHandler_HandleList(t *testing.T) {
	store := &statusStoreMock{achievements: []RuleWithStatus{
		{
			Rule: Rule{
				ID:        1,
				Title:     TitleFiveDayStreak,
				Kind:      KindStreakDays,
				Threshold: 5,
			},
			Completed: true,
		},
		{
			Rule: Rule{
				ID:        3,
				Title:     TitleTenWorkouts,
				Kind:      KindWorkoutCount,
				Threshold: 10,
			},
			Completed: false,
		},
	}}
	handler := NewHandler(store)

	req := httptest.NewRequest("GET", "/fitness/achievements?userId="+uuid.New().String(), nil)
	rr := httptest.NewRecorder()
	handler.HandleList(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var resp listResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Achievements, 2)
	assert.Equal(t, TitleFiveDayStreak, resp.Achievements[0].Title)
	assert.True(t, resp.Achievements[0].Completed)
	assert.False(t, resp.Achievements[1].Completed)
}

func TestHandler_HandleList_InvalidUserID(t *testing.T) {
	handler := NewHandler(&statusStoreMock{})

	req := httptest.NewRequest("GET", "/fitness/achievements?userId=nope", nil)
	rr := httptest.NewRecorder()
	handler.HandleList(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandler_HandleSeed(t *testing.T) {
	userID := uuid.New()
	store := &statusStoreMock{}
	handler := NewHandler(store)

	req := httptest.NewRequest("POST", "/fitness/achievements/seed?userId="+userID.String(), nil)
	rr := httptest.NewRecorder()
	handler.HandleSeed(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, []uuid.UUID{userID}, store.seededFor)
}

func TestHandler_HandleSeed_StoreError(t *testing.T) {
	store := &statusStoreMock{seedErr: assert.AnError}
	handler := NewHandler(store)

	req := httptest.NewRequest("POST", "/fitness/achievements/seed?userId="+uuid.New().String(), nil)
	rr := httptest.NewRecorder()
	handler.HandleSeed(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}
