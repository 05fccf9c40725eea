package completion

import (
	"context"
	"testing"
	"time"

	"github.com/matthew-ngzc/fitandfast/internal/fitness/catalog"
	"github.com/matthew-ngzc/fitandfast/internal/fitness/history"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type workoutCatalogMock struct {
	workouts map[int]*catalog.Workout
}

func (m *workoutCatalogMock) GetByID(_ context.Context, id int) (*catalog.Workout, error) {
	w, ok := m.workouts[id]
	if !ok {
		return nil, catalog.ErrWorkoutNotFound
	}
	return w, nil
}

type historyStoreMock struct {
	records []history.Record
	addErr  error
}

func (m *historyStoreMock) Add(_ context.Context, record history.Record) (int, error) {
	if m.addErr != nil {
		return 0, m.addErr
	}
	m.records = append(m.records, record)
	return len(m.records), nil
}

func (m *historyStoreMock) CountForUser(_ context.Context, userID uuid.UUID) (int, error) {
	count := 0
	for _, r := range m.records {
		if r.UserID == userID {
			count++
		}
	}
	return count, nil
}

func (m *historyStoreMock) TotalCaloriesForUser(_ context.Context, userID uuid.UUID) (int, error) {
	total := 0
	for _, r := range m.records {
		if r.UserID == userID {
			total += r.CaloriesBurned
		}
	}
	return total, nil
}

type streakTrackerMock struct {
	updatedFor []uuid.UUID
	updateErr  error
}

func (m *streakTrackerMock) Update(_ context.Context, userID uuid.UUID) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.updatedFor = append(m.updatedFor, userID)
	return nil
}

type achievementsEngineMock struct {
	evaluatedCounts []int
}

func (m *achievementsEngineMock) EvaluateWorkoutCount(_ context.Context, _ uuid.UUID, count int) error {
	m.evaluatedCounts = append(m.evaluatedCounts, count)
	return nil
}

var testWorkout = &catalog.Workout{
	ID:              42,
	Name:            "Power Yoga",
	Category:        catalog.CategoryYoga,
	Level:           catalog.LevelIntermediate,
	CaloriesBurned:  200,
	DurationMinutes: 30,
}

func newTestOrchestrator(
	workouts *workoutCatalogMock,
	historyStore *historyStoreMock,
	streak *streakTrackerMock,
	achievements *achievementsEngineMock,
) *Orchestrator {
	o := NewOrchestrator(workouts, historyStore, streak, achievements)
	o.now = func() time.Time {
		return time.Date(2025, time.March, 21, 18, 0, 0, 0, time.UTC)
	}
	return o
}

func TestOrchestrator_Complete(t *testing.T) {
	userID := uuid.New()
	workouts := &workoutCatalogMock{workouts: map[int]*catalog.Workout{42: testWorkout}}
	historyStore := &historyStoreMock{}
	streak := &streakTrackerMock{}
	achievements := &achievementsEngineMock{}

	orchestrator := newTestOrchestrator(workouts, historyStore, streak, achievements)

	summary, err := orchestrator.Complete(context.Background(), Request{
		UserID:    userID,
		WorkoutID: 42,
	})
	require.NoError(t, err)
	require.NotNil(t, summary)

	assert.Equal(t, 1, summary.HistoryID)
	assert.Equal(t, 42, summary.WorkoutID)
	assert.Equal(t, userID, summary.UserID)
	// defaults come from the catalog entry
	assert.Equal(t, 200, summary.CaloriesBurned)
	assert.Equal(t, 1, summary.TotalWorkouts)
	assert.Equal(t, 200, summary.TotalCalories)

	require.Len(t, historyStore.records, 1)
	assert.Equal(t, 30, historyStore.records[0].DurationMinutes)
	assert.Equal(t, []uuid.UUID{userID}, streak.updatedFor)
	assert.Equal(t, []int{1}, achievements.evaluatedCounts)
}

func TestOrchestrator_Complete_ExplicitCaloriesAndDuration(t *testing.T) {
	userID := uuid.New()
	workouts := &workoutCatalogMock{workouts: map[int]*catalog.Workout{42: testWorkout}}
	historyStore := &historyStoreMock{}

	orchestrator := newTestOrchestrator(
		workouts, historyStore, &streakTrackerMock{}, &achievementsEngineMock{},
	)

	summary, err := orchestrator.Complete(context.Background(), Request{
		UserID:          userID,
		WorkoutID:       42,
		CaloriesBurned:  310,
		DurationMinutes: 45,
	})
	require.NoError(t, err)

	assert.Equal(t, 310, summary.CaloriesBurned)
	require.Len(t, historyStore.records, 1)
	assert.Equal(t, 310, historyStore.records[0].CaloriesBurned)
	assert.Equal(t, 45, historyStore.records[0].DurationMinutes)
}

func TestOrchestrator_Complete_UnknownWorkoutWritesNothing(t *testing.T) {
	historyStore := &historyStoreMock{}
	streak := &streakTrackerMock{}
	achievements := &achievementsEngineMock{}

	orchestrator := newTestOrchestrator(
		&workoutCatalogMock{workouts: map[int]*catalog.Workout{}},
		historyStore, streak, achievements,
	)

	summary, err := orchestrator.Complete(context.Background(), Request{
		UserID:    uuid.New(),
		WorkoutID: 999,
	})
	require.ErrorIs(t, err, ErrWorkoutNotFound)
	assert.Nil(t, summary)

	assert.Empty(t, historyStore.records)
	assert.Empty(t, streak.updatedFor)
	assert.Empty(t, achievements.evaluatedCounts)
}

func TestOrchestrator_Complete_CountReachesAchievementThreshold(t *testing.T) {
	userID := uuid.New()
	workouts := &workoutCatalogMock{workouts: map[int]*catalog.Workout{42: testWorkout}}
	historyStore := &historyStoreMock{}
	achievements := &achievementsEngineMock{}

	orchestrator := newTestOrchestrator(
		workouts, historyStore, &streakTrackerMock{}, achievements,
	)

	for i := 0; i < 10; i++ {
		_, err := orchestrator.Complete(context.Background(), Request{
			UserID:    userID,
			WorkoutID: 42,
		})
		require.NoError(t, err)
	}

	// the engine sees the running total after every completion
	require.Len(t, achievements.evaluatedCounts, 10)
	assert.Equal(t, 10, achievements.evaluatedCounts[9])
}

func TestOrchestrator_Complete_StreakErrorAborts(t *testing.T) {
	workouts := &workoutCatalogMock{workouts: map[int]*catalog.Workout{42: testWorkout}}
	achievements := &achievementsEngineMock{}

	orchestrator := newTestOrchestrator(
		workouts, &historyStoreMock{}, &streakTrackerMock{updateErr: assert.AnError}, achievements,
	)

	summary, err := orchestrator.Complete(context.Background(), Request{
		UserID:    uuid.New(),
		WorkoutID: 42,
	})
	require.Error(t, err)
	assert.Nil(t, summary)
	assert.Empty(t, achievements.evaluatedCounts)
}
