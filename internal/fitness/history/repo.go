package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/matthew-ngzc/fitandfast/internal/telemetry/tracing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

type ListParams struct {
	UserID uuid.UUID
	Page   int
	Size   int
}

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func (r *Repo) Add(ctx context.Context, record Record) (_ int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.history.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("user.id", record.UserID.String()))
	span.SetAttributes(attribute.Int("workout.id", record.WorkoutID))

	var id int
	err = r.db.QueryRow(
		ctx,
		`INSERT INTO workout_history
				(user_id, workout_id, completed_at, calories_burned, duration_minutes)
				VALUES ($1, $2, $3, $4, $5)
			RETURNING id;`,
		record.UserID, record.WorkoutID, record.CompletedAt,
		record.CaloriesBurned, record.DurationMinutes,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert history record: %w", err)
	}

	span.SetAttributes(attribute.Int("history.id", id))
	return id, nil
}

func (r *Repo) CountForUser(ctx context.Context, userID uuid.UUID) (_ int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.history.count")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("user.id", userID.String()))

	var count int
	err = r.db.QueryRow(
		ctx,
		`SELECT COUNT(*) FROM workout_history WHERE user_id = $1;`,
		userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count history records: %w", err)
	}
	return count, nil
}

func (r *Repo) TotalCaloriesForUser(ctx context.Context, userID uuid.UUID) (_ int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.history.totalcalories")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("user.id", userID.String()))

	var total int
	err = r.db.QueryRow(
		ctx,
		`SELECT COALESCE(SUM(calories_burned), 0) FROM workout_history WHERE user_id = $1;`,
		userID,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum calories: %w", err)
	}
	return total, nil
}

// HasOnDate reports whether the user completed at least one workout on the
// given calendar day, in the day's own location. Calendar day, not a rolling
// 24h window.
func (r *Repo) HasOnDate(ctx context.Context, userID uuid.UUID, day time.Time) (_ bool, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.history.hasondate")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("user.id", userID.String()))
	span.SetAttributes(attribute.String("day", day.Format("2006-01-02")))

	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	var exists bool
	err = r.db.QueryRow(
		ctx,
		`SELECT EXISTS (
			SELECT 1 FROM workout_history
			WHERE user_id = $1 AND completed_at >= $2 AND completed_at < $3
		);`,
		userID, dayStart, dayEnd,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("query history on date: %w", err)
	}
	return exists, nil
}

func (r *Repo) ListForUser(ctx context.Context, params ListParams) (_ []Record, total int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.history.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("user.id", params.UserID.String()))
	span.SetAttributes(attribute.Int("page", params.Page))
	span.SetAttributes(attribute.Int("size", params.Size))

	if params.Page < 1 {
		return nil, -1, errors.New("page must be greater than 0")
	}
	if params.Size < 1 {
		return nil, -1, errors.New("size must be greater than 0")
	}

	total, err = r.CountForUser(ctx, params.UserID)
	if err != nil {
		return nil, -1, err
	}

	limit := params.Size
	offset := (params.Page - 1) * params.Size

	rows, err := r.db.Query(
		ctx,
		`SELECT id, user_id, workout_id, completed_at, calories_burned, duration_minutes
			FROM workout_history
			WHERE user_id = $1
			ORDER BY completed_at DESC
			LIMIT $2
			OFFSET $3;`,
		params.UserID, limit, offset,
	)
	if err != nil {
		return nil, -1, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, -1, err
	}

	records, err := r.rows2records(rows)
	if err != nil {
		return nil, -1, err
	}
	return records, total, nil
}

func (r *Repo) rows2records(rows pgx.Rows) ([]Record, error) {
	var records []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(
			&rec.ID, &rec.UserID, &rec.WorkoutID, &rec.CompletedAt,
			&rec.CaloriesBurned, &rec.DurationMinutes,
		); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	if records == nil {
		records = make([]Record, 0)
	}

	return records, nil
}
