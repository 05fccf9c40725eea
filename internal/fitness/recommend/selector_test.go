package recommend

import (
	"context"
	"testing"

	"github.com/matthew-ngzc/fitandfast/internal/fitness/catalog"
	"github.com/matthew-ngzc/fitandfast/internal/fitness/profile"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type profileStoreMock struct {
	profiles map[uuid.UUID]*profile.Profile
	getErr   error
}

func (m *profileStoreMock) Get(_ context.Context, userID uuid.UUID) (*profile.Profile, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	p, ok := m.profiles[userID]
	if !ok {
		return nil, profile.ErrProfileNotFound
	}
	return p, nil
}

type catalogMock struct {
	workouts []catalog.Workout
	listErr  error
	// filters seen, in call order
	filters []catalog.Filter
}

func (m *catalogMock) List(_ context.Context, filter catalog.Filter) ([]catalog.Workout, error) {
	m.filters = append(m.filters, filter)
	if m.listErr != nil {
		return nil, m.listErr
	}

	var matched []catalog.Workout
	for _, w := range m.workouts {
		if filter.Category != "" && w.Category != filter.Category {
			continue
		}
		if filter.Level != 0 && w.Level != filter.Level {
			continue
		}
		matched = append(matched, w)
	}
	return matched, nil
}

func newTestSelector(profiles *profileStoreMock, workouts *catalogMock) *Selector {
	selector := NewSelector(profiles, workouts)
	selector.pick = func(_ int) int { return 0 } // deterministic picks
	return selector
}

func withProfile(userID uuid.UUID, prefs profile.Preferences) *profileStoreMock {
	return &profileStoreMock{
		profiles: map[uuid.UUID]*profile.Profile{
			userID: {UserID: userID, Preferences: prefs},
		},
	}
}

func TestSelector_Daily_PreferredCategory(t *testing.T) {
	userID := uuid.New()
	profiles := withProfile(userID, profile.Preferences{
		PreferredCategory: catalog.CategoryYoga,
		FitnessLevel:      "Intermediate",
	})
	workouts := &catalogMock{workouts: []catalog.Workout{
		{ID: 1, Name: "Power Yoga", Category: catalog.CategoryYoga, Level: catalog.LevelIntermediate},
		{ID: 2, Name: "HIIT Blast", Category: catalog.CategoryHIIT, Level: catalog.LevelIntermediate},
	}}

	picked, source := newTestSelector(profiles, workouts).Daily(context.Background(), userID)

	assert.Equal(t, SourcePreference, source)
	assert.Equal(t, "Power Yoga", picked.Name)
	require.Len(t, workouts.filters, 1)
	assert.Equal(t, catalog.CategoryYoga, workouts.filters[0].Category)
	assert.Equal(t, catalog.LevelIntermediate, workouts.filters[0].Level)
}

func TestSelector_Daily_PregnantOverridesPreference(t *testing.T) {
	userID := uuid.New()
	profiles := withProfile(userID, profile.Preferences{
		PreferredCategory: catalog.CategoryHIIT,
		FitnessLevel:      "Advanced",
		PregnancyStatus:   profile.PregnancyStatusPregnant,
	})
	workouts := &catalogMock{workouts: []catalog.Workout{
		{ID: 1, Name: "Prenatal Stretch", Category: catalog.CategoryPrenatal, Level: catalog.LevelBeginner},
		{ID: 2, Name: "HIIT Blast", Category: catalog.CategoryHIIT, Level: catalog.LevelAdvanced},
	}}

	picked, source := newTestSelector(profiles, workouts).Daily(context.Background(), userID)

	assert.Equal(t, SourcePregnancy, source)
	assert.Equal(t, "Prenatal Stretch", picked.Name)
}

func TestSelector_Daily_PregnantEmptyPrenatalSkipsPostnatal(t *testing.T) {
	userID := uuid.New()
	profiles := withProfile(userID, profile.Preferences{
		PreferredCategory: catalog.CategoryYoga,
		FitnessLevel:      "Beginner",
		PregnancyStatus:   profile.PregnancyStatusPregnant,
	})
	// no Prenatal workouts at all; Postnatal must NOT be offered instead
	workouts := &catalogMock{workouts: []catalog.Workout{
		{ID: 1, Name: "Postnatal Recovery", Category: catalog.CategoryPostnatal, Level: catalog.LevelBeginner},
		{ID: 2, Name: "Gentle Yoga", Category: catalog.CategoryYoga, Level: catalog.LevelBeginner},
	}}

	picked, source := newTestSelector(profiles, workouts).Daily(context.Background(), userID)

	assert.Equal(t, SourcePreference, source)
	assert.Equal(t, "Gentle Yoga", picked.Name)
}

func TestSelector_Daily_PostpartumPrefersPostnatal(t *testing.T) {
	userID := uuid.New()
	profiles := withProfile(userID, profile.Preferences{
		FitnessLevel:    "Beginner",
		PregnancyStatus: profile.PregnancyStatusPostpartum,
	})
	workouts := &catalogMock{workouts: []catalog.Workout{
		{ID: 1, Name: "Postnatal Recovery", Category: catalog.CategoryPostnatal, Level: catalog.LevelBeginner},
	}}

	picked, source := newTestSelector(profiles, workouts).Daily(context.Background(), userID)

	assert.Equal(t, SourcePregnancy, source)
	assert.Equal(t, "Postnatal Recovery", picked.Name)
}

func TestSelector_Daily_NoProfileUsesBeginnerLevel(t *testing.T) {
	workouts := &catalogMock{workouts: []catalog.Workout{
		{ID: 1, Name: "Starter Cardio", Category: catalog.CategoryCardio, Level: catalog.LevelBeginner},
		{ID: 2, Name: "Heavy Lifts", Category: catalog.CategoryStrength, Level: catalog.LevelAdvanced},
	}}

	picked, source := newTestSelector(&profileStoreMock{}, workouts).Daily(context.Background(), uuid.New())

	assert.Equal(t, SourceLevel, source)
	assert.Equal(t, "Starter Cardio", picked.Name)
	require.Len(t, workouts.filters, 1)
	assert.Equal(t, catalog.LevelBeginner, workouts.filters[0].Level)
}

func TestSelector_Daily_RelaxesToWholeCatalog(t *testing.T) {
	userID := uuid.New()
	profiles := withProfile(userID, profile.Preferences{
		PreferredCategory: catalog.CategoryYoga,
		FitnessLevel:      "Advanced",
	})
	// nothing matches the preference or the level, but the catalog
	// itself is not empty
	workouts := &catalogMock{workouts: []catalog.Workout{
		{ID: 1, Name: "Starter Cardio", Category: catalog.CategoryCardio, Level: catalog.LevelBeginner},
	}}

	picked, source := newTestSelector(profiles, workouts).Daily(context.Background(), userID)

	assert.Equal(t, SourceCatalog, source)
	assert.Equal(t, "Starter Cardio", picked.Name)
}

func TestSelector_Daily_EmptyCatalogFallback(t *testing.T) {
	picked, source := newTestSelector(&profileStoreMock{}, &catalogMock{}).
		Daily(context.Background(), uuid.New())

	assert.Equal(t, SourceFallback, source)
	assert.Equal(t, "Quick Cardio Workout", picked.Name)
	assert.Equal(t, catalog.CategoryLowImpact, picked.Category)
	assert.Equal(t, 150, picked.CaloriesBurned)
	assert.Equal(t, 15, picked.DurationMinutes)
}

func TestSelector_Daily_StoreErrorsDegrade(t *testing.T) {
	profiles := &profileStoreMock{getErr: assert.AnError}
	workouts := &catalogMock{listErr: assert.AnError}

	picked, source := newTestSelector(profiles, workouts).Daily(context.Background(), uuid.New())

	assert.Equal(t, SourceFallback, source)
	assert.Equal(t, "Quick Cardio Workout", picked.Name)
}

func TestSelector_Daily_PickIsUsed(t *testing.T) {
	workouts := &catalogMock{workouts: []catalog.Workout{
		{ID: 1, Name: "First", Category: catalog.CategoryCardio, Level: catalog.LevelBeginner},
		{ID: 2, Name: "Second", Category: catalog.CategoryCardio, Level: catalog.LevelBeginner},
	}}
	selector := NewSelector(&profileStoreMock{}, workouts)
	selector.pick = func(n int) int {
		require.Equal(t, 2, n)
		return 1
	}

	picked, _ := selector.Daily(context.Background(), uuid.New())
	assert.Equal(t, "Second", picked.Name)
}
