// Package redis provides a Redis checkpoint medium and a distributed locker.
package redis

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	backend "github.com/redis/go-redis/v9"
)

// DefaultNamespace prefixes every physical key written by Medium.
const DefaultNamespace = "storyline:"

// noExpiry is the index score used when entries never expire (2100-01-01).
const noExpiry = 4102444800

// Medium implements ports.ListableMedium using Redis.
// Keys are indexed in a sorted set scored by expiry so they can be listed
// without SCAN.
type Medium struct {
	client    *backend.Client
	namespace string
	ttl       time.Duration
	now       func() time.Time
}

type Option func(*Medium)

// WithTTL sets the expiration for stored items. Zero means no expiration.
func WithTTL(ttl time.Duration) Option {
	return func(m *Medium) {
		m.ttl = ttl
	}
}

// WithNamespace sets the physical key prefix.
func WithNamespace(namespace string) Option {
	return func(m *Medium) {
		m.namespace = namespace
	}
}

// WithClock overrides the clock used to score the index.
func WithClock(now func() time.Time) Option {
	return func(m *Medium) {
		m.now = now
	}
}

// New creates a new Redis medium with options.
func New(address, password string, db int, opts ...Option) *Medium {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis medium from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Medium {
	m := &Medium{
		client:    client,
		namespace: DefaultNamespace,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Medium) key(key string) string {
	return m.namespace + key
}

func (m *Medium) indexKey() string {
	return m.namespace + "index"
}

// GetItem reads key from Redis.
func (m *Medium) GetItem(ctx context.Context, key string) (string, bool, error) {
	val, err := m.client.Get(ctx, m.key(key)).Result()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to get from redis: %w", err)
	}
	return val, true, nil
}

// SetItem writes the value and indexes the key in one pipeline.
func (m *Medium) SetItem(ctx context.Context, key, value string) error {
	score := float64(noExpiry)
	if m.ttl > 0 {
		score = float64(m.now().Add(m.ttl).Unix())
	}

	pipe := m.client.Pipeline()
	pipe.Set(ctx, m.key(key), value, m.ttl)
	pipe.ZAdd(ctx, m.indexKey(), backend.Z{Score: score, Member: key})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

// RemoveItem deletes the value and its index entry.
func (m *Medium) RemoveItem(ctx context.Context, key string) error {
	pipe := m.client.Pipeline()
	pipe.Del(ctx, m.key(key))
	pipe.ZRem(ctx, m.indexKey(), key)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete from redis: %w", err)
	}
	return nil
}

// Keys lists indexed keys starting with prefix.
// Expired index entries are pruned first.
func (m *Medium) Keys(ctx context.Context, prefix string) ([]string, error) {
	now := float64(m.now().Unix())
	err := m.client.ZRemRangeByScore(ctx, m.indexKey(), "-inf", fmt.Sprintf("(%f", now)).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to prune expired keys: %w", err)
	}

	members, err := m.client.ZRange(ctx, m.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}

	keys := make([]string, 0, len(members))
	for _, k := range members {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Client returns the underlying redis client, e.g. to share it with a Locker.
func (m *Medium) Client() *backend.Client {
	return m.client
}

// Close closes the redis client.
func (m *Medium) Close() error {
	return m.client.Close()
}
