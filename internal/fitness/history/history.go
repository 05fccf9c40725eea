package history

import (
	"time"

	"github.com/google/uuid"
)

// Record is one completed workout. Created exactly once per completion
// event and never updated afterwards.
type Record struct {
	ID              int       `json:"id"`
	UserID          uuid.UUID `json:"user_id"`
	WorkoutID       int       `json:"workout_id"`
	CompletedAt     time.Time `json:"completed_at"`
	CaloriesBurned  int       `json:"calories_burned"`
	DurationMinutes int       `json:"duration_minutes"`
}
