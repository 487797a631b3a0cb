package shared

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/redis/go-redis/v9"

	"github.com/assetflow/assetflow/internal/authz"
)

// sessionPayload mirrors the record written by the external login service.
type sessionPayload struct {
	UserID     int64  `json:"user_id"`
	Role       string `json:"role"`
	Email      string `json:"email"`
	Name       string `json:"name,omitempty"`
	Department string `json:"department,omitempty"`
}

// RedisResolver resolves session cookies against the Redis session store.
// It is read-only: session issuance and expiry belong to the login service.
type RedisResolver struct {
	client     *redis.Client
	cookieName string
	logger     *slog.Logger
}

// NewRedisResolver constructs a RedisResolver.
func NewRedisResolver(client *redis.Client, cookieName string, logger *slog.Logger) *RedisResolver {
	return &RedisResolver{client: client, cookieName: cookieName, logger: logger}
}

// Resolve looks up the request's session cookie. Missing cookie, missing
// key, malformed payload, and backend errors all resolve to Unauthenticated.
func (rr *RedisResolver) Resolve(ctx context.Context, r *http.Request) Resolution {
	cookie, err := r.Cookie(rr.cookieName)
	if err != nil || cookie.Value == "" {
		return Unauthenticated()
	}

	raw, err := rr.client.Get(ctx, rr.redisKey(cookie.Value)).Bytes()
	if err != nil {
		if rr.logger != nil && !errors.Is(err, redis.Nil) {
			rr.logger.Warn("session lookup failed", slog.Any("error", err))
		}
		return Unauthenticated()
	}

	var stored sessionPayload
	if err := json.Unmarshal(raw, &stored); err != nil {
		if rr.logger != nil {
			rr.logger.Warn("session payload malformed", slog.Any("error", err))
		}
		return Unauthenticated()
	}

	role, err := authz.ParseRole(stored.Role)
	if err != nil {
		if rr.logger != nil {
			rr.logger.Warn("session carries unknown role", slog.String("role", stored.Role))
		}
		return Unauthenticated()
	}

	return Authenticated(Principal{
		ID:         stored.UserID,
		Role:       role,
		Email:      stored.Email,
		Name:       stored.Name,
		Department: stored.Department,
	})
}

func (rr *RedisResolver) redisKey(id string) string {
	return "session:" + id
}
