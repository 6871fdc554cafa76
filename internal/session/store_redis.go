package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	platformredis "carteirinha/internal/platform/redis"
	"carteirinha/internal/student/models"
	"carteirinha/pkg/platform/sentinel"
)

// RedisStore keeps the session under a single Redis key, for deployments
// where the shell runs on shared kiosks rather than a personal device.
type RedisStore struct {
	client *platformredis.Client
}

// NewRedisStore wraps an already-connected Redis client.
func NewRedisStore(client *platformredis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Load(ctx context.Context) (models.Student, error) {
	data, err := s.client.Get(ctx, cacheKey).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return models.Student{}, sentinel.ErrNotFound
		}
		return models.Student{}, fmt.Errorf("load session: %w", err)
	}
	var st models.Student
	if err := json.Unmarshal(data, &st); err != nil {
		// Same policy as the file store: a corrupt cache is a miss.
		_ = s.client.Del(ctx, cacheKey).Err()
		return models.Student{}, sentinel.ErrNotFound
	}
	return st, nil
}

func (s *RedisStore) Save(ctx context.Context, student models.Student) error {
	data, err := json.Marshal(student)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.client.Set(ctx, cacheKey, data, 0).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, cacheKey).Err(); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
