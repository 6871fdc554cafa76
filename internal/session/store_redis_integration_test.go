//go:build integration

package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"carteirinha/internal/platform/config"
	platformredis "carteirinha/internal/platform/redis"
	"carteirinha/internal/student/models"
	"carteirinha/pkg/domain"
	"carteirinha/pkg/platform/sentinel"
	"carteirinha/pkg/testutil/containers"
)

type RedisStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *RedisStore
}

func (s *RedisStoreSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())

	client, err := platformredis.New(config.RedisConfig{URL: s.redis.URL})
	s.Require().NoError(err)
	s.Require().NotNil(client)
	s.store = NewRedisStore(client)
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func TestRedisStoreSuite(t *testing.T) {
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) TestEmptyCacheIsAMiss() {
	_, err := s.store.Load(context.Background())
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *RedisStoreSuite) TestRoundTrip() {
	ctx := context.Background()
	cpf, _ := domain.ParseCPF("123.456.789-00")
	st := models.Student{
		CPF:       cpf,
		Name:      "ANA SILVA",
		Matricula: "123456",
		UsageCode: "AB12CD34",
	}

	s.Require().NoError(s.store.Save(ctx, st))

	loaded, err := s.store.Load(ctx)
	s.Require().NoError(err)
	s.Equal(st, loaded)
}

func (s *RedisStoreSuite) TestCorruptEntryIsDroppedAndMisses() {
	ctx := context.Background()
	s.Require().NoError(s.redis.Client.Set(ctx, cacheKey, "{not json", 0).Err())

	_, err := s.store.Load(ctx)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	exists, err := s.redis.Client.Exists(ctx, cacheKey).Result()
	s.Require().NoError(err)
	s.Zero(exists, "corrupt entry must be deleted")
}

func (s *RedisStoreSuite) TestClearIsIdempotent() {
	ctx := context.Background()
	cpf, _ := domain.ParseCPF("123.456.789-00")
	s.Require().NoError(s.store.Save(ctx, models.Student{CPF: cpf}))

	s.Require().NoError(s.store.Clear(ctx))
	_, err := s.store.Load(ctx)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	s.Require().NoError(s.store.Clear(ctx), "clearing an empty cache is a no-op")
}
