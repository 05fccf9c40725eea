package profile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/matthew-ngzc/fitandfast/internal/fitness/catalog"
	"github.com/matthew-ngzc/fitandfast/internal/fitness/cycle"
	"github.com/matthew-ngzc/fitandfast/internal/telemetry/tracing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func (r *Repo) Get(ctx context.Context, userID uuid.UUID) (_ *Profile, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.profile.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("user.id", userID.String()))

	var p Profile
	var preferredCategory, fitnessLevel, pregnancyStatus *string
	var lastPeriodStart *time.Time
	var cycleLengthDays, periodLengthDays *int
	err = r.db.QueryRow(
		ctx,
		`SELECT user_id, preferred_category, fitness_level, pregnancy_status,
				current_streak, longest_streak,
				last_period_start, cycle_length_days, period_length_days
			FROM user_profile
			WHERE user_id = $1;`,
		userID,
	).Scan(
		&p.UserID, &preferredCategory, &fitnessLevel, &pregnancyStatus,
		&p.Progress.CurrentStreak, &p.Progress.LongestStreak,
		&lastPeriodStart, &cycleLengthDays, &periodLengthDays,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("query user profile: %w", err)
	}

	p.Progress.UserID = p.UserID
	if preferredCategory != nil {
		p.Preferences.PreferredCategory = catalog.Category(*preferredCategory)
	}
	if fitnessLevel != nil {
		p.Preferences.FitnessLevel = *fitnessLevel
	}
	if pregnancyStatus != nil {
		p.Preferences.PregnancyStatus = *pregnancyStatus
	}
	p.Cycle = cycle.Profile{
		LastPeriodStart: lastPeriodStart,
	}
	if cycleLengthDays != nil {
		p.Cycle.CycleLengthDays = *cycleLengthDays
	}
	if periodLengthDays != nil {
		p.Cycle.PeriodLengthDays = *periodLengthDays
	}

	return &p, nil
}

// CycleProfile returns just the cycle data of the user profile.
func (r *Repo) CycleProfile(ctx context.Context, userID uuid.UUID) (_ cycle.Profile, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.profile.cycleprofile")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("user.id", userID.String()))

	var p cycle.Profile
	var cycleLengthDays, periodLengthDays *int
	err = r.db.QueryRow(
		ctx,
		`SELECT last_period_start, cycle_length_days, period_length_days
			FROM user_profile
			WHERE user_id = $1;`,
		userID,
	).Scan(&p.LastPeriodStart, &cycleLengthDays, &periodLengthDays)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return cycle.Profile{}, ErrProfileNotFound
		}
		return cycle.Profile{}, fmt.Errorf("query cycle profile: %w", err)
	}

	if cycleLengthDays != nil {
		p.CycleLengthDays = *cycleLengthDays
	}
	if periodLengthDays != nil {
		p.PeriodLengthDays = *periodLengthDays
	}

	return p, nil
}

func (r *Repo) GetProgress(ctx context.Context, userID uuid.UUID) (_ *ProgressState, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.profile.getprogress")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("user.id", userID.String()))

	state := ProgressState{UserID: userID}
	err = r.db.QueryRow(
		ctx,
		`SELECT current_streak, longest_streak FROM user_profile WHERE user_id = $1;`,
		userID,
	).Scan(&state.CurrentStreak, &state.LongestStreak)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("query progress state: %w", err)
	}

	return &state, nil
}

// WithProgressLock runs fn with the user's progress row selected FOR UPDATE
// inside a transaction, and persists whatever fn leaves in the state on commit.
// This is the per-user mutual exclusion around the streak read-modify-write:
// two concurrent completions for the same user serialize on the row lock.
func (r *Repo) WithProgressLock(
	ctx context.Context,
	userID uuid.UUID,
	fn func(ctx context.Context, state *ProgressState) error,
) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.profile.progresslock")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("user.id", userID.String()))

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			if rollbackErr := tx.Rollback(ctx); rollbackErr != nil && !errors.Is(rollbackErr, pgx.ErrTxClosed) {
				err = fmt.Errorf("failed to rollback transaction: %w: %w", rollbackErr, err)
			}
		} else {
			err = tx.Commit(ctx)
		}
	}()

	state := ProgressState{UserID: userID}
	err = tx.QueryRow(
		ctx,
		`SELECT current_streak, longest_streak FROM user_profile WHERE user_id = $1 FOR UPDATE;`,
		userID,
	).Scan(&state.CurrentStreak, &state.LongestStreak)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrProfileNotFound
		}
		return fmt.Errorf("lock progress state: %w", err)
	}

	if err = fn(ctx, &state); err != nil {
		return err
	}

	_, err = tx.Exec(
		ctx,
		`UPDATE user_profile SET current_streak = $1, longest_streak = $2 WHERE user_id = $3;`,
		state.CurrentStreak, state.LongestStreak, userID,
	)
	if err != nil {
		return fmt.Errorf("save progress state: %w", err)
	}

	return nil
}
