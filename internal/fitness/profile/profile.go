package profile

import (
	"errors"

	"github.com/matthew-ngzc/fitandfast/internal/fitness/catalog"
	"github.com/matthew-ngzc/fitandfast/internal/fitness/cycle"

	"github.com/google/uuid"
)

var ErrProfileNotFound = errors.New("user profile not found")

const (
	PregnancyStatusPregnant   = "pregnant"
	PregnancyStatusPostpartum = "postpartum"
)

// Preferences are free-form strings coming from the user profile screen.
// The fitness level is mapped to a catalog level with catalog.ParseLevel.
type Preferences struct {
	PreferredCategory catalog.Category `json:"preferred_category"`
	FitnessLevel      string           `json:"fitness_level"`
	PregnancyStatus   string           `json:"pregnancy_status"`
}

func (p Preferences) Empty() bool {
	return p.PreferredCategory == "" && p.FitnessLevel == "" && p.PregnancyStatus == ""
}

// ProgressState tracks workout day continuity per user.
// Invariant: LongestStreak >= CurrentStreak, kept by the streak tracker.
type ProgressState struct {
	UserID        uuid.UUID `json:"user_id"`
	CurrentStreak int       `json:"current_streak"`
	LongestStreak int       `json:"longest_streak"`
}

type Profile struct {
	UserID      uuid.UUID     `json:"user_id"`
	Preferences Preferences   `json:"preferences"`
	Progress    ProgressState `json:"progress"`
	Cycle       cycle.Profile `json:"cycle"`
}
