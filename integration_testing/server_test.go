package integration_testing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/matthew-ngzc/fitandfast/internal/fitness/completion"
	"github.com/matthew-ngzc/fitandfast/internal/fitness/recommend"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var suite *Suite

func TestMain(m *testing.M) {
	if os.Getenv("FITANDFAST_INTEGRATION_TESTS") == "" {
		fmt.Println("FITANDFAST_INTEGRATION_TESTS not set, skipping integration tests")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	suite = newSuite(ctx)

	// give the http server a moment to come up
	time.Sleep(time.Second)

	code := m.Run()

	cancel()
	suite.cleanup()
	os.Exit(code)
}

func seedWorkout(t *testing.T, name, category string, level, calories, duration int) int {
	t.Helper()
	var id int
	err := suite.DB.QueryRow(
		`INSERT INTO workout (name, category, level, calories_burned, duration_minutes)
			VALUES ($1, $2, $3, $4, $5) RETURNING id;`,
		name, category, level, calories, duration,
	).Scan(&id)
	require.NoError(t, err)
	return id
}

func seedProfile(t *testing.T, userID uuid.UUID, category, level string) {
	t.Helper()
	_, err := suite.DB.Exec(
		`INSERT INTO user_profile (user_id, preferred_category, fitness_level)
			VALUES ($1, $2, $3) ON CONFLICT (user_id) DO NOTHING;`,
		userID, category, level,
	)
	require.NoError(t, err)
}

func completeWorkout(t *testing.T, req completion.Request) (*http.Response, *completion.Summary) {
	t.Helper()
	reqJson, err := json.Marshal(req)
	require.NoError(t, err)

	resp, err := http.Post(
		serverEndpoint+"/fitness/complete",
		"application/json",
		bytes.NewReader(reqJson),
	)
	require.NoError(t, err)

	if resp.StatusCode != http.StatusCreated {
		return resp, nil
	}

	var summary completion.Summary
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&summary))
	require.NoError(t, resp.Body.Close())
	return resp, &summary
}

func TestServer_CompleteWorkout(t *testing.T) {
	userID := uuid.New()
	seedProfile(t, userID, "Yoga", "Beginner")
	workoutID := seedWorkout(t, "Morning Yoga Flow", "Yoga", 1, 120, 20)

	resp, summary := completeWorkout(t, completion.Request{
		UserID:    userID,
		WorkoutID: workoutID,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.NotNil(t, summary)

	assert.Equal(t, workoutID, summary.WorkoutID)
	assert.Equal(t, userID, summary.UserID)
	// calories fall back to the catalog value when not sent
	assert.Equal(t, 120, summary.CaloriesBurned)
	assert.Equal(t, 1, summary.TotalWorkouts)
	assert.Equal(t, 120, summary.TotalCalories)

	var currentStreak, longestStreak int
	require.NoError(t, suite.DB.QueryRow(
		`SELECT current_streak, longest_streak FROM user_profile WHERE user_id = $1;`,
		userID,
	).Scan(&currentStreak, &longestStreak))
	assert.Equal(t, 1, currentStreak)
	assert.Equal(t, 1, longestStreak)
}

func TestServer_CompleteWorkout_UnknownWorkout(t *testing.T) {
	userID := uuid.New()
	seedProfile(t, userID, "Yoga", "Beginner")

	resp, _ := completeWorkout(t, completion.Request{
		UserID:    userID,
		WorkoutID: 999999,
	})
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.NoError(t, resp.Body.Close())

	var count int
	require.NoError(t, suite.DB.QueryRow(
		`SELECT COUNT(*) FROM workout_history WHERE user_id = $1;`,
		userID,
	).Scan(&count))
	assert.Zero(t, count)
}

func TestServer_DailyRecommendation(t *testing.T) {
	userID := uuid.New()
	seedProfile(t, userID, "Yoga", "Beginner")
	seedWorkout(t, "Sunrise Stretch", "Yoga", 1, 90, 15)

	resp, err := http.Get(serverEndpoint + "/fitness/recommendation?userId=" + userID.String())
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var recResp struct {
		Workout struct {
			Name     string `json:"name"`
			Category string `json:"category"`
		} `json:"workout"`
		Source recommend.Source `json:"source"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&recResp))
	require.NoError(t, resp.Body.Close())

	assert.NotEmpty(t, recResp.Workout.Name)
	assert.NotEmpty(t, recResp.Source)
}

func TestServer_DailyRecommendation_LevelPersonalization(t *testing.T) {
	userID := uuid.New()
	seedProfile(t, userID, "HIIT", "Intermediate")

	// the only intermediate HIIT workout in the catalog; a stored textual
	// fitness level must reach the category+level filter intact
	workoutID := seedWorkout(t, "Interval Circuit", "HIIT", 2, 250, 25)
	seedWorkout(t, "HIIT Basics", "HIIT", 1, 180, 20)

	resp, err := http.Get(serverEndpoint + "/fitness/recommendation?userId=" + userID.String())
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var recResp struct {
		Workout struct {
			ID    int    `json:"id"`
			Name  string `json:"name"`
			Level int    `json:"level"`
		} `json:"workout"`
		Source recommend.Source `json:"source"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&recResp))
	require.NoError(t, resp.Body.Close())

	assert.Equal(t, recommend.SourcePreference, recResp.Source)
	assert.Equal(t, workoutID, recResp.Workout.ID)
	assert.Equal(t, "Interval Circuit", recResp.Workout.Name)
	assert.Equal(t, 2, recResp.Workout.Level)
}

func TestServer_CycleInfo_DefaultsForUnknownUser(t *testing.T) {
	resp, err := http.Get(serverEndpoint + "/fitness/cycle?userId=" + uuid.New().String())
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var info struct {
		Phase      string `json:"phase"`
		DayOfCycle int    `json:"day_of_cycle"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&info))
	require.NoError(t, resp.Body.Close())

	assert.NotEmpty(t, info.Phase)
	assert.Positive(t, info.DayOfCycle)
}

func TestServer_Achievements(t *testing.T) {
	userID := uuid.New()
	seedProfile(t, userID, "Yoga", "Beginner")

	resp, err := http.Post(
		serverEndpoint+"/fitness/achievements/seed?userId="+userID.String(),
		"application/json",
		nil,
	)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.NoError(t, resp.Body.Close())

	resp, err = http.Get(serverEndpoint + "/fitness/achievements?userId=" + userID.String())
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var listResp struct {
		Achievements []struct {
			Title     string `json:"title"`
			Completed bool   `json:"completed"`
		} `json:"achievements"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&listResp))
	require.NoError(t, resp.Body.Close())

	require.Len(t, listResp.Achievements, 3)
	for _, a := range listResp.Achievements {
		assert.False(t, a.Completed)
	}
}
