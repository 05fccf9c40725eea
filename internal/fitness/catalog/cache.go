package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/matthew-ngzc/fitandfast/internal/telemetry/tracing"

	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

const catalogCacheTTL = 10 * time.Minute

type listStore interface {
	GetByID(ctx context.Context, id int) (*Workout, error)
	List(ctx context.Context, filter Filter) ([]Workout, error)
}

// Cache puts a redis layer in front of the catalog repo. The catalog barely
// changes, while the recommendation read path lists it on every call.
// Redis being down never surfaces to callers, reads just fall through to postgres.
type Cache struct {
	repo        listStore
	redisClient *redis.Client
}

func NewCache(repo listStore, redisClient *redis.Client) *Cache {
	return &Cache{
		repo:        repo,
		redisClient: redisClient,
	}
}

func (c *Cache) GetByID(ctx context.Context, id int) (*Workout, error) {
	// single workout lookups are cheap and rare, no caching here
	return c.repo.GetByID(ctx, id)
}

func (c *Cache) List(ctx context.Context, filter Filter) (_ []Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "cache.catalog.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	key := listKey(filter)

	cmd := c.redisClient.Get(ctx, key)
	if cmd.Err() == nil {
		var workouts []Workout
		if unmarshalErr := json.Unmarshal([]byte(cmd.Val()), &workouts); unmarshalErr == nil {
			span.SetAttributes(attribute.Bool("catalog.from-cache", true))
			return workouts, nil
		} else {
			log.Errorf("unmarshal cached catalog for [%s]: %s", key, unmarshalErr)
			// fall through to the repo
		}
	}

	span.SetAttributes(attribute.Bool("catalog.from-cache", false))

	workouts, err := c.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	workoutsJson, err := json.Marshal(workouts)
	if err != nil {
		log.Errorf("marshal catalog for cache [%s]: %s", key, err)
		return workouts, nil
	}

	if err := c.redisClient.Set(ctx, key, workoutsJson, catalogCacheTTL).Err(); err != nil {
		log.Errorf("cache catalog listing [%s]: %s", key, err)
	}

	return workouts, nil
}

func listKey(filter Filter) string {
	return fmt.Sprintf("workout-catalog::%s::%d", filter.Category, filter.Level)
}
