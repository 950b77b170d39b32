package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/yungbote/eigo-backend/internal/pkg/logger"
	"github.com/yungbote/eigo-backend/internal/platform/oidc"
	"github.com/yungbote/eigo-backend/internal/platform/redislock"
)

type Clients struct {
	Redis    redis.UniversalClient
	Locks    *redislock.Locker
	Google   oidc.Provider
	Verifier oidc.Verifier
}

func wireClients(ctx context.Context, log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")
	var out Clients

	// Redis is optional; without it refreshes are serialized per process only.
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			_ = rdb.Close()
			return Clients{}, fmt.Errorf("ping redis %s: %w", cfg.RedisAddr, err)
		}
		out.Redis = rdb
		out.Locks = redislock.New(rdb, "eigo:lock:")
	} else {
		log.Warn("REDIS_ADDR not set; token refresh locking is process-local")
	}

	httpClient := &http.Client{Timeout: 10 * time.Second}
	provider, err := oidc.NewGoogleProvider(oidc.GoogleConfig{
		ClientID:     cfg.Google.ClientID,
		ClientSecret: cfg.Google.ClientSecret,
		RedirectURL:  cfg.Google.RedirectURL,
		HTTPClient:   httpClient,
	})
	if err != nil {
		out.Close()
		return Clients{}, fmt.Errorf("init google oauth: %w", err)
	}
	verifier, err := oidc.NewGoogleVerifier(httpClient, cfg.Google.ClientID)
	if err != nil {
		out.Close()
		return Clients{}, fmt.Errorf("init google verifier: %w", err)
	}
	out.Google = provider
	out.Verifier = verifier
	return out, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
}
