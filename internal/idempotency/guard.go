// Package idempotency claims keys in Valkey so an event or a scheduled slot is
// processed once across replicas.
package idempotency

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/BarkinBalci/lifecycle-analytics-service/internal/config"
)

// NewClient creates a Valkey client and verifies the connection
func NewClient(ctx context.Context, cfg *config.Valkey) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         net.JoinHostPort(cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
		MaxRetries:   2,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping Valkey: %w", err)
	}
	return client, nil
}

// Guard claims keys with SET NX and a TTL
type Guard struct {
	client   redis.Cmdable
	prefix   string
	ttl      time.Duration
	failOpen bool
	log      *zap.Logger
}

// NewGuard creates a guard. With failOpen a Valkey error lets the caller proceed.
func NewGuard(client redis.Cmdable, prefix string, ttl time.Duration, failOpen bool, log *zap.Logger) *Guard {
	return &Guard{
		client:   client,
		prefix:   prefix,
		ttl:      ttl,
		failOpen: failOpen,
		log:      log,
	}
}

// Claim returns true when the key was not claimed before
func (g *Guard) Claim(ctx context.Context, key string) (bool, error) {
	ok, err := g.client.SetNX(ctx, g.prefix+key, time.Now().Unix(), g.ttl).Result()
	if err != nil {
		if g.failOpen {
			g.log.Warn("Idempotency check failed, proceeding",
				zap.String("key", key),
				zap.Error(err))
			return true, nil
		}
		return false, fmt.Errorf("failed to claim idempotency key: %w", err)
	}
	return ok, nil
}

// Release drops a claim so a retry of a failed operation is not treated as a duplicate
func (g *Guard) Release(ctx context.Context, key string) error {
	if err := g.client.Del(ctx, g.prefix+key).Err(); err != nil {
		return fmt.Errorf("failed to release idempotency key: %w", err)
	}
	return nil
}

// Noop claims every key
type Noop struct{}

func (Noop) Claim(context.Context, string) (bool, error) { return true, nil }

func (Noop) Release(context.Context, string) error { return nil }
