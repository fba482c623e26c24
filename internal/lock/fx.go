package lock

import (
	"strings"

	"github.com/reclaimhq/reclaim/internal/config"
	redis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

var Module = fx.Module("lock",
	fx.Provide(newRedisClient),
	fx.Provide(NewLocker),
)

// newRedisClient returns nil when no Redis address is configured; the worker
// then runs unguarded, which is fine for the single-instance deployment.
func newRedisClient(cfg config.Config) *redis.Client {
	addr := strings.TrimSpace(cfg.RedisAddr)
	if addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.RedisPassword,
	})
}
