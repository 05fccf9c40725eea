package streak

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/matthew-ngzc/fitandfast/internal/fitness/profile"
	"github.com/matthew-ngzc/fitandfast/internal/telemetry/tracing"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

type progressStore interface {
	WithProgressLock(ctx context.Context, userID uuid.UUID, fn func(ctx context.Context, state *profile.ProgressState) error) error
}

type historyStore interface {
	HasOnDate(ctx context.Context, userID uuid.UUID, day time.Time) (bool, error)
}

type achievementsEngine interface {
	EvaluateStreak(ctx context.Context, userID uuid.UUID, streakDays int) error
}

// Tracker maintains per-user daily continuity state. Update is meant to be
// called exactly once per completion event; it is NOT idempotent per day,
// two calls for two same-day completions bump the streak twice.
type Tracker struct {
	progress     progressStore
	history      historyStore
	achievements achievementsEngine
	now          func() time.Time
}

func NewTracker(progress progressStore, history historyStore, achievements achievementsEngine) *Tracker {
	return &Tracker{
		progress:     progress,
		history:      history,
		achievements: achievements,
		now:          time.Now,
	}
}

// Update applies one completion event to the user's streak state:
//
//  1. no workout yesterday -> current streak resets to 0
//  2. a workout today -> current streak +1 (this runs even right after the
//     reset, so a fresh start nets a streak of 1 in the same call)
//  3. longest streak raised to match when exceeded
//  4. streak achievements evaluated against the new current streak
//
// The whole read-modify-write runs with the user's progress row locked.
// A user without a profile is a no-op: partially provisioned accounts can
// complete workouts before their profile exists.
func (t *Tracker) Update(ctx context.Context, userID uuid.UUID) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "streak.update")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("user.id", userID.String()))

	now := t.now()
	yesterday := now.AddDate(0, 0, -1)

	err = t.progress.WithProgressLock(ctx, userID, func(ctx context.Context, state *profile.ProgressState) error {
		completedYesterday, err := t.history.HasOnDate(ctx, userID, yesterday)
		if err != nil {
			return fmt.Errorf("check history for yesterday: %w", err)
		}
		if !completedYesterday {
			state.CurrentStreak = 0
		}

		completedToday, err := t.history.HasOnDate(ctx, userID, now)
		if err != nil {
			return fmt.Errorf("check history for today: %w", err)
		}
		if completedToday {
			state.CurrentStreak++
		}

		if state.CurrentStreak > state.LongestStreak {
			state.LongestStreak = state.CurrentStreak
		}

		span.SetAttributes(attribute.Int("streak.current", state.CurrentStreak))
		span.SetAttributes(attribute.Int("streak.longest", state.LongestStreak))

		if completedToday {
			if err := t.achievements.EvaluateStreak(ctx, userID, state.CurrentStreak); err != nil {
				return fmt.Errorf("evaluate streak achievements: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		if errors.Is(err, profile.ErrProfileNotFound) {
			log.Warnf("streak update for user [%s]: no profile, skipping", userID)
			return nil
		}
		return fmt.Errorf("update streak: %w", err)
	}

	return nil
}
