package session

import (
	"log/slog"

	"carteirinha/internal/platform/config"
	platformredis "carteirinha/internal/platform/redis"
)

// FromConfig selects the cache backend for a deployment: the Redis cache when
// a client is connected (shared-kiosk installs), otherwise the JSON file under
// cfg.SessionFile (personal-device installs). Both hold the record under the
// same well-known key, so switching backends only costs one re-authentication.
func FromConfig(cfg config.Config, client *platformredis.Client, logger *slog.Logger) Store {
	if client != nil {
		return NewRedisStore(client)
	}
	return NewFileStore(cfg.SessionFile, logger)
}
