package achievements

import (
	"context"
	"errors"
	"fmt"

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

// EnsureDefaultRules seeds the reference rules at process bootstrap.
// Existing rows are left untouched.
func (r *Repo) EnsureDefaultRules(ctx context.Context) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.achievements.ensurerules")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	for _, rule := range defaultRules() {
		_, err = r.db.Exec(
			ctx,
			`INSERT INTO achievement (title, description, kind, threshold)
				VALUES ($1, $2, $3, $4)
				ON CONFLICT (title) DO NOTHING;`,
			rule.Title, rule.Description, string(rule.Kind), rule.Threshold,
		)
		if err != nil {
			return fmt.Errorf("seed achievement rule [%s]: %w", rule.Title, err)
		}
	}
	return nil
}

// SeedStatuses creates the missing (user, rule) status rows for a user,
// all not-completed. Called on the user provisioning path.
func (r *Repo) SeedStatuses(ctx context.Context, userID uuid.UUID) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.achievements.seedstatuses")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("user.id", userID.String()))

	_, err = r.db.Exec(
		ctx,
		`INSERT INTO user_achievement (user_id, achievement_id, completed)
			SELECT $1, id, FALSE FROM achievement
			ON CONFLICT (user_id, achievement_id) DO NOTHING;`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("seed achievement statuses: %w", err)
	}
	return nil
}

func (r *Repo) RuleByTitle(ctx context.Context, title string) (_ *Rule, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.achievements.rulebytitle")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("rule.title", title))

	var rule Rule
	var kind string
	err = r.db.QueryRow(
		ctx,
		`SELECT id, title, description, kind, threshold FROM achievement WHERE title = $1;`,
		title,
	).Scan(&rule.ID, &rule.Title, &rule.Description, &kind, &rule.Threshold)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRuleNotFound
		}
		return nil, fmt.Errorf("query achievement rule: %w", err)
	}
	rule.Kind = ThresholdKind(kind)
	return &rule, nil
}

func (r *Repo) RulesByKind(ctx context.Context, kind ThresholdKind) (_ []Rule, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.achievements.rulesbykind")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("rule.kind", string(kind)))

	rows, err := r.db.Query(
		ctx,
		`SELECT id, title, description, kind, threshold FROM achievement WHERE kind = $1 ORDER BY threshold;`,
		string(kind),
	)
	if err != nil {
		return nil, fmt.Errorf("query achievement rules: %w", err)
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	var rules []Rule
	for rows.Next() {
		var rule Rule
		var kindStr string
		if err := rows.Scan(&rule.ID, &rule.Title, &rule.Description, &kindStr, &rule.Threshold); err != nil {
			return nil, err
		}
		rule.Kind = ThresholdKind(kindStr)
		rules = append(rules, rule)
	}

	if rules == nil {
		rules = make([]Rule, 0)
	}

	return rules, nil
}

func (r *Repo) Status(ctx context.Context, userID uuid.UUID, ruleID int) (_ *Status, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.achievements.status")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("user.id", userID.String()))
	span.SetAttributes(attribute.Int("rule.id", ruleID))

	status := Status{UserID: userID, RuleID: ruleID}
	err = r.db.QueryRow(
		ctx,
		`SELECT completed FROM user_achievement WHERE user_id = $1 AND achievement_id = $2;`,
		userID, ruleID,
	).Scan(&status.Completed)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStatusNotFound
		}
		return nil, fmt.Errorf("query achievement status: %w", err)
	}
	return &status, nil
}

func (r *Repo) SaveStatus(ctx context.Context, status Status) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.achievements.savestatus")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("user.id", status.UserID.String()))
	span.SetAttributes(attribute.Int("rule.id", status.RuleID))

	tag, err := r.db.Exec(
		ctx,
		`UPDATE user_achievement SET completed = $1 WHERE user_id = $2 AND achievement_id = $3;`,
		status.Completed, status.UserID, status.RuleID,
	)
	if err != nil {
		return fmt.Errorf("update achievement status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrStatusNotFound
	}
	return nil
}

func (r *Repo) ListForUser(ctx context.Context, userID uuid.UUID) (_ []RuleWithStatus, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.achievements.listforuser")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("user.id", userID.String()))

	rows, err := r.db.Query(
		ctx,
		`SELECT a.id, a.title, a.description, a.kind, a.threshold, ua.completed
			FROM achievement a
			JOIN user_achievement ua ON ua.achievement_id = a.id
			WHERE ua.user_id = $1
			ORDER BY a.id;`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query user achievements: %w", err)
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	var result []RuleWithStatus
	for rows.Next() {
		var rws RuleWithStatus
		var kind string
		if err := rows.Scan(
			&rws.ID, &rws.Title, &rws.Description, &kind, &rws.Threshold, &rws.Completed,
		); err != nil {
			return nil, err
		}
		rws.Kind = ThresholdKind(kind)
		result = append(result, rws)
	}

	if result == nil {
		result = make([]RuleWithStatus, 0)
	}

	return result, nil
}
