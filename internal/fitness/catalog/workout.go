package catalog

import (
	"strings"
	"time"
)

type Category string

const (
	CategoryYoga      Category = "Yoga"
	CategoryHIIT      Category = "HIIT"
	CategoryStrength  Category = "Strength"
	CategoryCardio    Category = "Cardio"
	CategoryLowImpact Category = "Low Impact"
	CategoryPrenatal  Category = "Prenatal"
	CategoryPostnatal Category = "Postnatal"
)

// Level of a workout. Stored as an int in the catalog table,
// so the three levels are comparable.
type Level int

const (
	LevelBeginner Level = iota + 1
	LevelIntermediate
	LevelAdvanced
)

func (l Level) String() string {
	switch l {
	case LevelIntermediate:
		return "intermediate"
	case LevelAdvanced:
		return "advanced"
	default:
		return "beginner"
	}
}

// ParseLevel maps a textual fitness level to a Level, case-insensitively.
// Unknown or empty values map to the lowest level.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "intermediate":
		return LevelIntermediate
	case "advanced":
		return LevelAdvanced
	default:
		return LevelBeginner
	}
}

type Workout struct {
	ID              int       `json:"id"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	Category        Category  `json:"category"`
	Level           Level     `json:"level"`
	CaloriesBurned  int       `json:"calories_burned"`
	DurationMinutes int       `json:"duration_minutes"`
	VideoURL        string    `json:"video_url,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// Filter narrows a catalog listing. Zero values mean "no filter".
type Filter struct {
	Category Category
	Level    Level
}
