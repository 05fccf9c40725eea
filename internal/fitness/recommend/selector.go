package recommend

import (
	"context"
	"errors"
	"math/rand"

	"github.com/matthew-ngzc/fitandfast/internal/fitness/catalog"
	"github.com/matthew-ngzc/fitandfast/internal/fitness/profile"
	"github.com/matthew-ngzc/fitandfast/internal/telemetry/tracing"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

// Source says which step of the fallback chain produced the pick.
// Exposed for metrics and tests, not persisted anywhere.
type Source string

const (
	SourcePregnancy  Source = "pregnancy"
	SourcePreference Source = "preference"
	SourceLevel      Source = "level"
	SourceCatalog    Source = "catalog"
	SourceFallback   Source = "fallback"
)

// fallbackWorkout is returned when even the full catalog is empty.
// The recommendation path never comes back empty-handed.
var fallbackWorkout = catalog.Workout{
	Name:            "Quick Cardio Workout",
	Description:     "A short cardio session to get your heart pumping, no equipment needed.",
	Category:        catalog.CategoryLowImpact,
	Level:           catalog.LevelBeginner,
	CaloriesBurned:  150,
	DurationMinutes: 15,
}

type profileStore interface {
	Get(ctx context.Context, userID uuid.UUID) (*profile.Profile, error)
}

type workoutCatalog interface {
	List(ctx context.Context, filter catalog.Filter) ([]catalog.Workout, error)
}

// Selector picks one workout to suggest today, personalized when the
// profile allows it, degrading through an ordered fallback chain otherwise.
type Selector struct {
	profiles profileStore
	catalog  workoutCatalog
	pick     func(n int) int
}

func NewSelector(profiles profileStore, workouts workoutCatalog) *Selector {
	return &Selector{
		profiles: profiles,
		catalog:  workouts,
		pick:     rand.Intn,
	}
}

// Daily returns the workout to suggest to the user today, and the chain
// step that produced it. Picks within a candidate set are uniform-random,
// so repeated calls may differ; nothing is cached per day on purpose.
//
// This path never fails: store errors degrade the same way missing data does.
func (s *Selector) Daily(ctx context.Context, userID uuid.UUID) (catalog.Workout, Source) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "recommend.daily")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID.String()))

	workout, source := s.daily(ctx, userID)
	span.SetAttributes(attribute.String("recommendation.source", string(source)))
	return workout, source
}

func (s *Selector) daily(ctx context.Context, userID uuid.UUID) (catalog.Workout, Source) {
	level := catalog.LevelBeginner

	p, err := s.profiles.Get(ctx, userID)
	if err != nil {
		if !errors.Is(err, profile.ErrProfileNotFound) {
			log.Errorf("daily recommendation, get profile [%s]: %s", userID, err)
		}
		p = nil
	}

	if p == nil || p.Preferences.Empty() {
		// no personalization possible, straight to the level-only step
		return s.relaxed(ctx, level)
	}

	level = catalog.ParseLevel(p.Preferences.FitnessLevel)

	// pregnancy status overrides everything else; note that an empty
	// Prenatal catalog for a pregnant user falls through to the
	// category/level step, never to Postnatal
	switch p.Preferences.PregnancyStatus {
	case profile.PregnancyStatusPregnant:
		if picked, ok := s.listAndPick(ctx, catalog.Filter{Category: catalog.CategoryPrenatal}); ok {
			return picked, SourcePregnancy
		}
	case profile.PregnancyStatusPostpartum:
		if picked, ok := s.listAndPick(ctx, catalog.Filter{Category: catalog.CategoryPostnatal}); ok {
			return picked, SourcePregnancy
		}
	}

	if p.Preferences.PreferredCategory != "" {
		filter := catalog.Filter{
			Category: p.Preferences.PreferredCategory,
			Level:    level,
		}
		if picked, ok := s.listAndPick(ctx, filter); ok {
			return picked, SourcePreference
		}
	}

	return s.relaxed(ctx, level)
}

// relaxed is the tail of the chain: level only, then the whole catalog,
// then the hardcoded fallback.
func (s *Selector) relaxed(ctx context.Context, level catalog.Level) (catalog.Workout, Source) {
	if picked, ok := s.listAndPick(ctx, catalog.Filter{Level: level}); ok {
		return picked, SourceLevel
	}
	if picked, ok := s.listAndPick(ctx, catalog.Filter{}); ok {
		return picked, SourceCatalog
	}
	return fallbackWorkout, SourceFallback
}

func (s *Selector) listAndPick(ctx context.Context, filter catalog.Filter) (catalog.Workout, bool) {
	workouts, err := s.catalog.List(ctx, filter)
	if err != nil {
		log.Errorf("daily recommendation, list catalog %+v: %s", filter, err)
		return catalog.Workout{}, false
	}
	if len(workouts) == 0 {
		return catalog.Workout{}, false
	}
	return workouts[s.pick(len(workouts))], true
}
