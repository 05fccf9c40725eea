package achievements

import (
	"context"
	"errors"
	"fmt"

	"github.com/matthew-ngzc/fitandfast/internal/telemetry/metrics"
	"github.com/matthew-ngzc/fitandfast/internal/telemetry/tracing"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

type rulesStore interface {
	RuleByTitle(ctx context.Context, title string) (*Rule, error)
	RulesByKind(ctx context.Context, kind ThresholdKind) ([]Rule, error)
	Status(ctx context.Context, userID uuid.UUID, ruleID int) (*Status, error)
	SaveStatus(ctx context.Context, status Status) error
}

// Engine flips user achievement flags when their threshold rules are met.
// Unlocks are monotonic: a completed status is never written again.
type Engine struct {
	repo           rulesStore
	metricsManager *metrics.Manager
}

func NewEngine(repo rulesStore, metricsManager *metrics.Manager) *Engine {
	return &Engine{
		repo:           repo,
		metricsManager: metricsManager,
	}
}

// Evaluate unlocks the rule with the given title for the user, once.
// A missing rule or a missing status row is a no-op: status rows are seeded
// per user at registration, and an absent row means "not applicable" rather
// than an invitation to award something surprising.
func (e *Engine) Evaluate(ctx context.Context, userID uuid.UUID, ruleTitle string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "achievements.evaluate")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("user.id", userID.String()))
	span.SetAttributes(attribute.String("rule.title", ruleTitle))

	rule, err := e.repo.RuleByTitle(ctx, ruleTitle)
	if err != nil {
		if errors.Is(err, ErrRuleNotFound) {
			log.Warnf("achievement rule [%s] not found, skipping evaluation", ruleTitle)
			return nil
		}
		return fmt.Errorf("get rule [%s]: %w", ruleTitle, err)
	}

	return e.unlock(ctx, userID, rule)
}

// EvaluateStreak runs every streak rule whose threshold the given streak
// length has reached. Thresholds are minimums, so a streak of 30 unlocks
// the 5 day rule too if it was somehow missed; the monotonic status makes
// repeated matches free.
func (e *Engine) EvaluateStreak(ctx context.Context, userID uuid.UUID, streakDays int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "achievements.evaluate.streak")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("user.id", userID.String()))
	span.SetAttributes(attribute.Int("streak.days", streakDays))

	rules, err := e.repo.RulesByKind(ctx, KindStreakDays)
	if err != nil {
		return fmt.Errorf("get streak rules: %w", err)
	}

	for _, rule := range rules {
		if streakDays < rule.Threshold {
			continue
		}
		if err := e.unlock(ctx, userID, &rule); err != nil {
			return err
		}
	}
	return nil
}

// EvaluateWorkoutCount runs every workout-count rule whose threshold
// the given cumulative count has reached.
func (e *Engine) EvaluateWorkoutCount(ctx context.Context, userID uuid.UUID, count int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "achievements.evaluate.workoutcount")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("user.id", userID.String()))
	span.SetAttributes(attribute.Int("workout.count", count))

	rules, err := e.repo.RulesByKind(ctx, KindWorkoutCount)
	if err != nil {
		return fmt.Errorf("get workout count rules: %w", err)
	}

	for _, rule := range rules {
		if count < rule.Threshold {
			continue
		}
		if err := e.unlock(ctx, userID, &rule); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) unlock(ctx context.Context, userID uuid.UUID, rule *Rule) error {
	status, err := e.repo.Status(ctx, userID, rule.ID)
	if err != nil {
		if errors.Is(err, ErrStatusNotFound) {
			log.Warnf("no achievement status for user [%s] rule [%s], skipping", userID, rule.Title)
			return nil
		}
		return fmt.Errorf("get status for rule [%s]: %w", rule.Title, err)
	}

	if status.Completed {
		// already unlocked, nothing to write
		return nil
	}

	status.Completed = true
	if err := e.repo.SaveStatus(ctx, *status); err != nil {
		return fmt.Errorf("save status for rule [%s]: %w", rule.Title, err)
	}

	log.Infof("user [%s] unlocked achievement [%s]", userID, rule.Title)
	if e.metricsManager != nil {
		e.metricsManager.CounterAchievementsUnlocked.Inc()
	}
	return nil
}
