package achievements

import (
	"errors"

	"github.com/google/uuid"
)

var (
	ErrRuleNotFound   = errors.New("achievement rule not found")
	ErrStatusNotFound = errors.New("user achievement status not found")
)

type ThresholdKind string

const (
	KindStreakDays   ThresholdKind = "streak_days"
	KindWorkoutCount ThresholdKind = "workout_count"
)

// Titles of the rules that ship with the app. Rules are reference data,
// seeded at bootstrap; everything beyond the title lives in the table.
const (
	TitleFiveDayStreak   = "5 Day Streak"
	TitleThirtyDayStreak = "30 Day Streak"
	TitleTenWorkouts     = "10 Workouts"
)

type Rule struct {
	ID          int           `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Kind        ThresholdKind `json:"kind"`
	Threshold   int           `json:"threshold"`
}

// Status is the per-(user, rule) completion flag. Completed only ever
// flips false -> true, never back.
type Status struct {
	UserID    uuid.UUID `json:"user_id"`
	RuleID    int       `json:"rule_id"`
	Completed bool      `json:"completed"`
}

// RuleWithStatus is what the achievements listing endpoint returns.
type RuleWithStatus struct {
	Rule
	Completed bool `json:"completed"`
}

func defaultRules() []Rule {
	return []Rule{
		{
			Title:       TitleFiveDayStreak,
			Description: "Completed a workout 5 days in a row",
			Kind:        KindStreakDays,
			Threshold:   5,
		},
		{
			Title:       TitleThirtyDayStreak,
			Description: "Completed a workout 30 days in a row",
			Kind:        KindStreakDays,
			Threshold:   30,
		},
		{
			Title:       TitleTenWorkouts,
			Description: "Completed 10 workouts in total",
			Kind:        KindWorkoutCount,
			Threshold:   10,
		},
	}
}
