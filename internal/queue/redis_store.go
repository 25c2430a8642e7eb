package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nadmax/pulse/internal/job"
	"github.com/redis/go-redis/v9"
)

const (
	jobKeyPrefix     = "job:"
	DefaultRetention = 24 * time.Hour
)

// RedisStore keeps each job record as JSON under job:<id>. Completed and failed
// records expire after the retention period.
type RedisStore struct {
	client    *redis.Client
	retention time.Duration
}

// NewRedisStore wraps an already connected client. A non-positive retention uses DefaultRetention.
func NewRedisStore(client *redis.Client, retention time.Duration) *RedisStore {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &RedisStore{client: client, retention: retention}
}

func (s *RedisStore) Save(ctx context.Context, j *job.Job) error {
	data, err := j.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to encode job %s: %w", j.ID, err)
	}

	var ttl time.Duration
	if j.Terminal() {
		ttl = s.retention
	}

	return s.client.Set(ctx, jobKeyPrefix+j.ID, data, ttl).Err()
}

func (s *RedisStore) Get(ctx context.Context, id string) (*job.Job, error) {
	data, err := s.client.Get(ctx, jobKeyPrefix+id).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, err
	}

	return job.FromJSON(data)
}

func (s *RedisStore) List(ctx context.Context) ([]*job.Job, error) {
	var keys []string
	iter := s.client.Scan(ctx, 0, jobKeyPrefix+"*", 200).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return []*job.Job{}, nil
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	jobs := make([]*job.Job, 0, len(values))
	for _, v := range values {
		data, ok := v.(string)
		if !ok {
			continue
		}
		j, err := job.FromJSON(data)
		if err != nil {
			continue
		}
		jobs = append(jobs, j)
	}

	return jobs, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
