package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/casepulse/casepulse-backend/internal/platform/logger"
)

// SessionCredentials is a user's logged-in session with the remote court
// records system, cached by an out-of-band login flow.
type SessionCredentials struct {
	UserID   uuid.UUID `json:"user_id"`
	Cookies  string    `json:"cookies"`
	ClientIP string    `json:"client_ip,omitempty"`
}

// CredentialCache reads cached session credentials. Fetch tasks fail fast
// when a user has no cached session rather than attempting a login.
type CredentialCache interface {
	Get(ctx context.Context, userID uuid.UUID) (*SessionCredentials, error)
	Put(ctx context.Context, creds *SessionCredentials, ttl time.Duration) error
}

type credentialCache struct {
	log *logger.Logger
	rdb *goredis.Client
}

func NewCredentialCache(log *logger.Logger, rdb *goredis.Client) (CredentialCache, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if rdb == nil {
		return nil, fmt.Errorf("redis client required")
	}
	return &credentialCache{
		log: log.With("service", "CredentialCache"),
		rdb: rdb,
	}, nil
}

func credentialKey(userID uuid.UUID) string {
	return "court:session:" + userID.String()
}

// Get returns (nil, nil) when no session is cached for the user.
func (c *credentialCache) Get(ctx context.Context, userID uuid.UUID) (*SessionCredentials, error) {
	if userID == uuid.Nil {
		return nil, nil
	}
	raw, err := c.rdb.Get(ctx, credentialKey(userID)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("credential cache get: %w", err)
	}
	var creds SessionCredentials
	if err := json.Unmarshal(raw, &creds); err != nil {
		return nil, fmt.Errorf("credential cache decode: %w", err)
	}
	return &creds, nil
}

func (c *credentialCache) Put(ctx context.Context, creds *SessionCredentials, ttl time.Duration) error {
	if creds == nil || creds.UserID == uuid.Nil {
		return fmt.Errorf("credentials with user id required")
	}
	raw, err := json.Marshal(creds)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, credentialKey(creds.UserID), raw, ttl).Err()
}
