// Package cache keeps short-lived copies of directory reads in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/support-desk/internal/domain"
)

const consultantsKey = "support-desk:directory:consultants"

// directoryEntry is the cached shape of a staff account. Password hashes are
// never written to the cache.
type directoryEntry struct {
	ID       string      `json:"id"`
	Email    string      `json:"email"`
	FullName string      `json:"full_name"`
	Role     domain.Role `json:"role"`
}

// ConsultantCache stores the consultant directory under one key.
type ConsultantCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewConsultantCache returns a cache backed by client.
func NewConsultantCache(client redis.Cmdable, ttl time.Duration) *ConsultantCache {
	return &ConsultantCache{client: client, ttl: ttl}
}

// Get returns the cached directory. The boolean is false on a miss.
func (c *ConsultantCache) Get(ctx context.Context) ([]domain.User, bool, error) {
	raw, err := c.client.Get(ctx, consultantsKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read consultant cache: %w", err)
	}
	users, err := decodeDirectory(raw)
	if err != nil {
		return nil, false, err
	}
	return users, true, nil
}

// Set replaces the cached directory.
func (c *ConsultantCache) Set(ctx context.Context, users []domain.User) error {
	raw, err := encodeDirectory(users)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, consultantsKey, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("write consultant cache: %w", err)
	}
	return nil
}

// Invalidate drops the cached directory.
func (c *ConsultantCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, consultantsKey).Err(); err != nil {
		return fmt.Errorf("invalidate consultant cache: %w", err)
	}
	return nil
}

func encodeDirectory(users []domain.User) ([]byte, error) {
	entries := make([]directoryEntry, len(users))
	for i, u := range users {
		entries[i] = directoryEntry{ID: u.ID, Email: u.Email, FullName: u.FullName, Role: u.Role}
	}
	raw, err := json.Marshal(entries)
	if err != nil {
		return nil, fmt.Errorf("encode consultant cache: %w", err)
	}
	return raw, nil
}

func decodeDirectory(raw []byte) ([]domain.User, error) {
	var entries []directoryEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("decode consultant cache: %w", err)
	}
	users := make([]domain.User, len(entries))
	for i, e := range entries {
		users[i] = domain.User{ID: e.ID, Email: e.Email, FullName: e.FullName, Role: e.Role}
	}
	return users, nil
}
