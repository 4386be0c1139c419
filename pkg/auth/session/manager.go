package session

import (
	"context"
	"errors"
	"strings"
	"time"

	redisclient "github.com/novatech/management-backend/pkg/redis"
)

var (
	ErrMissingAccessID = errors.New("access id is required")
	ErrInvalidTTL      = errors.New("session ttl must be positive")
)

type sessionStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

// Checker is what the auth middleware needs to reject logged-out tokens.
type Checker interface {
	HasSession(ctx context.Context, accessID string) (bool, error)
}

// Manager keeps one redis key per issued access token (its jti). Logout
// deletes the key; expiry follows the token lifetime.
type Manager struct {
	store  sessionStore
	keyFor func(accessID string) string
}

func NewManager(client *redisclient.Client) (*Manager, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	return &Manager{store: client, keyFor: client.AccessSessionKey}, nil
}

func (m *Manager) key(accessID string) (string, error) {
	accessID = strings.TrimSpace(accessID)
	if accessID == "" {
		return "", ErrMissingAccessID
	}
	return m.keyFor(accessID), nil
}

func (m *Manager) Start(ctx context.Context, accessID string, ttl time.Duration) error {
	if ttl <= 0 {
		return ErrInvalidTTL
	}
	key, err := m.key(accessID)
	if err != nil {
		return err
	}
	return m.store.Set(ctx, key, time.Now().UTC().Unix(), ttl)
}

// Revoke is idempotent; revoking an unknown id is not an error.
func (m *Manager) Revoke(ctx context.Context, accessID string) error {
	key, err := m.key(accessID)
	if err != nil {
		return err
	}
	return m.store.Del(ctx, key)
}

func (m *Manager) HasSession(ctx context.Context, accessID string) (bool, error) {
	key, err := m.key(accessID)
	if err != nil {
		return false, err
	}
	_, err = m.store.Get(ctx, key)
	switch {
	case err == nil:
		return true, nil
	case redisclient.IsNil(err):
		return false, nil
	default:
		return false, err
	}
}
