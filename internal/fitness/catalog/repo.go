package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/matthew-ngzc/fitandfast/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

var ErrWorkoutNotFound = errors.New("workout not found")

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func (r *Repo) GetByID(ctx context.Context, id int) (_ *Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.catalog.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("workout.id", id))

	rows, err := r.db.Query(
		ctx,
		`SELECT id, name, description, category, level, calories_burned, duration_minutes, video_url, created_at
			FROM workout
			WHERE id = $1;`,
		id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	workouts, err := r.rows2workouts(rows)
	if err != nil {
		return nil, err
	}

	if len(workouts) != 1 {
		return nil, ErrWorkoutNotFound
	}

	return &workouts[0], nil
}

// List returns all catalog workouts matching the given filter,
// newest first. An empty filter returns the whole catalog.
func (r *Repo) List(ctx context.Context, filter Filter) (_ []Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.catalog.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("filter.category", string(filter.Category)))
	span.SetAttributes(attribute.Int("filter.level", int(filter.Level)))

	rows, err := r.db.Query(
		ctx,
		`SELECT id, name, description, category, level, calories_burned, duration_minutes, video_url, created_at
			FROM workout
			WHERE ($1::text = '' OR category = $1)
			AND ($2::int = 0 OR level = $2)
			ORDER BY created_at DESC;`,
		string(filter.Category), int(filter.Level),
	)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	workouts, err := r.rows2workouts(rows)
	if err != nil {
		return nil, fmt.Errorf("rows2workouts: %w", err)
	}
	return workouts, nil
}

func (r *Repo) rows2workouts(rows pgx.Rows) ([]Workout, error) {
	var workouts []Workout
	for rows.Next() {
		var w Workout
		var level int
		var videoURL *string
		var createdAt time.Time
		if err := rows.Scan(
			&w.ID, &w.Name, &w.Description, &w.Category, &level,
			&w.CaloriesBurned, &w.DurationMinutes, &videoURL, &createdAt,
		); err != nil {
			return nil, err
		}
		w.Level = Level(level)
		w.CreatedAt = createdAt
		if videoURL != nil {
			w.VideoURL = *videoURL
		}
		workouts = append(workouts, w)
	}

	if workouts == nil {
		workouts = make([]Workout, 0)
	}

	return workouts, nil
}
