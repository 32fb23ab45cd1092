package config

import (
	"fmt"

	"github.com/aretw0/storyline/pkg/adapters/file"
	"github.com/aretw0/storyline/pkg/adapters/memory"
	"github.com/aretw0/storyline/pkg/adapters/redis"
	"github.com/aretw0/storyline/pkg/adapters/sqlite"
	"github.com/aretw0/storyline/pkg/persistence/middleware"
	"github.com/aretw0/storyline/pkg/ports"
)

// Storage is an opened checkpoint medium with its optional distributed locker.
type Storage struct {
	Medium ports.Medium
	Locker ports.DistributedLocker
	close  func() error
}

// Close releases the backend connection, if any.
func (s *Storage) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// OpenStorage opens the medium selected by Store, wrapped with encryption when
// CheckpointKey is set. Only the redis backend provides a locker.
func (c Config) OpenStorage() (*Storage, error) {
	s := &Storage{}
	switch c.Store {
	case StoreMemory:
		s.Medium = memory.NewMedium()
	case StoreFile:
		s.Medium = file.New(c.Dir)
	case StoreRedis:
		m := redis.New(c.RedisAddr, c.RedisPassword, c.RedisDB, redis.WithTTL(c.RedisTTL))
		s.Medium = m
		s.Locker = redis.NewLocker(m.Client(), redis.DefaultNamespace)
		s.close = m.Close
	case StoreSQLite:
		m, err := sqlite.Open(c.SQLitePath)
		if err != nil {
			return nil, err
		}
		s.Medium = m
		s.close = m.Close
	default:
		return nil, fmt.Errorf("unknown store %q", c.Store)
	}

	if c.CheckpointKey != "" {
		mw, err := c.encryption()
		if err != nil {
			_ = s.Close()
			return nil, err
		}
		s.Medium = middleware.Apply(s.Medium, mw)
	}
	return s, nil
}

func (c Config) encryption() (middleware.Middleware, error) {
	active, err := middleware.ParseKey(c.CheckpointKey)
	if err != nil {
		return nil, fmt.Errorf("STORYLINE_CHECKPOINT_KEY: %w", err)
	}
	var fallback [][]byte
	for i, raw := range c.FallbackKeys {
		key, err := middleware.ParseKey(raw)
		if err != nil {
			return nil, fmt.Errorf("STORYLINE_CHECKPOINT_FALLBACK_KEYS[%d]: %w", i, err)
		}
		fallback = append(fallback, key)
	}
	return middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    active,
		FallbackKeys: fallback,
	}), nil
}
