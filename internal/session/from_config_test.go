package session

import (
	"path/filepath"
	"testing"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"

	"carteirinha/internal/platform/config"
	platformredis "carteirinha/internal/platform/redis"
)

func TestFromConfig(t *testing.T) {
	cfg := config.Config{SessionFile: filepath.Join(t.TempDir(), "session.json")}

	t.Run("without redis the file cache backs the session", func(t *testing.T) {
		store := FromConfig(cfg, nil, discardLogger())
		assert.IsType(t, &FileStore{}, store)
	})

	t.Run("a connected redis client wins over the file", func(t *testing.T) {
		client := &platformredis.Client{Client: goredis.NewClient(&goredis.Options{})}
		defer client.Close()

		store := FromConfig(cfg, client, discardLogger())
		assert.IsType(t, &RedisStore{}, store)
	})
}
