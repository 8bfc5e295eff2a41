package utils

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/go-redis/redis/v8"
)

// RedisStatusStore keeps the latest scrape run outcome per run type so the
// admin surface can answer "what happened last" without a DB round trip.
type RedisStatusStore struct {
	inner     *redis.Client
	keyParser RedisKeyParser
}

var ctx = context.Background()

func GetRedisStatusStore() (*RedisStatusStore, error) {
	redisClient := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", os.Getenv("REDIS_HOST"), os.Getenv("REDIS_PORT")),
		Password: os.Getenv("REDIS_PASSWD"),
		DB:       0, // use default DB
	})
	if _, err := redisClient.Ping(ctx).Result(); err != nil {
		return nil, err
	}
	return &RedisStatusStore{
		inner:     redisClient,
		keyParser: RedisKeyParser{delimiter: "__"},
	}, nil
}

type RedisKeyParser struct {
	delimiter string
}

func (r RedisKeyParser) ValidateId(id string) bool {
	return !strings.Contains(id, r.delimiter)
}

func (r RedisKeyParser) EncodeRunKey(runType string) (string, error) {
	if !r.ValidateId(runType) {
		return "", fmt.Errorf("invalid run type: %s", runType)
	}
	return fmt.Sprintf("run%s%s", r.delimiter, runType), nil
}

// RecordRunResult stores the serialized result of a finished run under its
// run type and under "latest".
func (r *RedisStatusStore) RecordRunResult(runType string, payload string) error {
	key, err := r.keyParser.EncodeRunKey(runType)
	if err != nil {
		return err
	}
	if err := r.inner.Set(ctx, key, payload, 0).Err(); err != nil {
		return err
	}
	latest, _ := r.keyParser.EncodeRunKey("latest")
	return r.inner.Set(ctx, latest, payload, 0).Err()
}

// LatestRunResult returns the serialized result last recorded for runType,
// or "" when none was recorded yet.
func (r *RedisStatusStore) LatestRunResult(runType string) (string, error) {
	key, err := r.keyParser.EncodeRunKey(runType)
	if err != nil {
		return "", err
	}
	payload, err := r.inner.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", nil
	}
	return payload, err
}
