package completion

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/matthew-ngzc/fitandfast/internal/fitness/catalog"
	"github.com/matthew-ngzc/fitandfast/internal/fitness/history"
	"github.com/matthew-ngzc/fitandfast/internal/telemetry/tracing"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// ErrWorkoutNotFound is returned when the completed workout does not resolve
// in the catalog. Nothing gets written in that case.
var ErrWorkoutNotFound = catalog.ErrWorkoutNotFound

type Request struct {
	UserID          uuid.UUID `json:"user_id"`
	WorkoutID       int       `json:"workout_id"`
	CaloriesBurned  int       `json:"calories_burned,omitempty"`
	DurationMinutes int       `json:"duration_minutes,omitempty"`
}

type Summary struct {
	HistoryID      int       `json:"history_id"`
	WorkoutID      int       `json:"workout_id"`
	UserID         uuid.UUID `json:"user_id"`
	CaloriesBurned int       `json:"calories_burned"`
	TotalWorkouts  int       `json:"total_workouts"`
	TotalCalories  int       `json:"total_calories"`
}

type workoutCatalog interface {
	GetByID(ctx context.Context, id int) (*catalog.Workout, error)
}

type historyStore interface {
	Add(ctx context.Context, record history.Record) (int, error)
	CountForUser(ctx context.Context, userID uuid.UUID) (int, error)
	TotalCaloriesForUser(ctx context.Context, userID uuid.UUID) (int, error)
}

type streakTracker interface {
	Update(ctx context.Context, userID uuid.UUID) error
}

type achievementsEngine interface {
	EvaluateWorkoutCount(ctx context.Context, userID uuid.UUID, count int) error
}

// Orchestrator is the single entry point for "user finished workout W".
// It sequences the completion cascade: history append, streak update,
// workout-count achievements, response assembly.
type Orchestrator struct {
	catalog      workoutCatalog
	history      historyStore
	streak       streakTracker
	achievements achievementsEngine
	now          func() time.Time
}

func NewOrchestrator(
	workouts workoutCatalog,
	historyStore historyStore,
	streak streakTracker,
	achievements achievementsEngine,
) *Orchestrator {
	return &Orchestrator{
		catalog:      workouts,
		history:      historyStore,
		streak:       streak,
		achievements: achievements,
		now:          time.Now,
	}
}

func (o *Orchestrator) Complete(ctx context.Context, req Request) (_ *Summary, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "completion.complete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("user.id", req.UserID.String()))
	span.SetAttributes(attribute.Int("workout.id", req.WorkoutID))

	// fail fast on an unknown workout, before anything is written
	workout, err := o.catalog.GetByID(ctx, req.WorkoutID)
	if err != nil {
		if errors.Is(err, catalog.ErrWorkoutNotFound) {
			return nil, fmt.Errorf("complete workout %d: %w", req.WorkoutID, ErrWorkoutNotFound)
		}
		return nil, fmt.Errorf("resolve workout %d: %w", req.WorkoutID, err)
	}

	calories := req.CaloriesBurned
	if calories <= 0 {
		calories = workout.CaloriesBurned
	}
	duration := req.DurationMinutes
	if duration <= 0 {
		duration = workout.DurationMinutes
	}

	historyID, err := o.history.Add(ctx, history.Record{
		UserID:          req.UserID,
		WorkoutID:       workout.ID,
		CompletedAt:     o.now(),
		CaloriesBurned:  calories,
		DurationMinutes: duration,
	})
	if err != nil {
		return nil, fmt.Errorf("append history record: %w", err)
	}
	span.SetAttributes(attribute.Int("history.id", historyID))

	if err := o.streak.Update(ctx, req.UserID); err != nil {
		return nil, fmt.Errorf("update streak: %w", err)
	}

	totalWorkouts, err := o.history.CountForUser(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("count workouts: %w", err)
	}

	if err := o.achievements.EvaluateWorkoutCount(ctx, req.UserID, totalWorkouts); err != nil {
		return nil, fmt.Errorf("evaluate workout count achievements: %w", err)
	}

	totalCalories, err := o.history.TotalCaloriesForUser(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("sum calories: %w", err)
	}

	return &Summary{
		HistoryID:      historyID,
		WorkoutID:      workout.ID,
		UserID:         req.UserID,
		CaloriesBurned: calories,
		TotalWorkouts:  totalWorkouts,
		TotalCalories:  totalCalories,
	}, nil
}
