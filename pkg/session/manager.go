package session

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/aretw0/storyline"
	"github.com/aretw0/storyline/internal/logging"
	"github.com/aretw0/storyline/pkg/domain"
	"github.com/aretw0/storyline/pkg/ports"
)

// DefaultLockTTL bounds how long a distributed lock outlives a crashed holder.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates story access, ensuring safe concurrent operations.
// It uses Reference Counting to garbage collect unused locks.
type Manager struct {
	mu    sync.Mutex            // Global lock for the locks map
	locks map[string]*lockEntry // Map of active locks

	storiesMu sync.RWMutex
	stories   map[string]*domain.Story
	sessions  map[string]*storyline.Session

	sessionOpts []storyline.Option
	storyOpts   func(*domain.Story) []storyline.Option
	locker      ports.DistributedLocker
	lockTTL     time.Duration
	logger      *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the distributed lock lease.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithSessionOptions are applied to every session the Manager opens,
// typically storyline.WithMedium and storyline.WithLifecycleHooks.
func WithSessionOptions(opts ...storyline.Option) Option {
	return func(m *Manager) {
		m.sessionOpts = append(m.sessionOpts, opts...)
	}
}

// WithStoryOptions derives extra session options from the story being opened,
// such as lifecycle hooks labelled with its id.
func WithStoryOptions(fn func(*domain.Story) []storyline.Option) Option {
	return func(m *Manager) {
		m.storyOpts = fn
	}
}

// NewManager creates a new Manager with no stories.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		locks:    make(map[string]*lockEntry),
		stories:  make(map[string]*domain.Story),
		sessions: make(map[string]*storyline.Session),
		lockTTL:  DefaultLockTTL,
		logger:   logging.NewNop(), // Default to no-op
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Register makes a story available. Story ids must be unique.
func (m *Manager) Register(story *domain.Story) error {
	if story == nil || story.Graph == nil || story.ID == "" {
		return fmt.Errorf("register story: %w", domain.ErrStoryNotFound)
	}

	m.storiesMu.Lock()
	defer m.storiesMu.Unlock()
	if _, exists := m.stories[story.ID]; exists {
		return fmt.Errorf("story %q is already registered", story.ID)
	}
	m.stories[story.ID] = story
	return nil
}

// Story returns a registered story.
func (m *Manager) Story(id string) (*domain.Story, bool) {
	m.storiesMu.RLock()
	defer m.storiesMu.RUnlock()
	s, ok := m.stories[id]
	return s, ok
}

// StoryIDs returns the registered story ids, sorted.
func (m *Manager) StoryIDs() []string {
	m.storiesMu.RLock()
	defer m.storiesMu.RUnlock()
	ids := make([]string, 0, len(m.stories))
	for id := range m.stories {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// WithSession runs fn with exclusive access to the session of storyID.
// The session is opened and resumed from its checkpoint on first use.
func (m *Manager) WithSession(ctx context.Context, storyID string, fn func(context.Context, *storyline.Session) error) error {
	story, ok := m.Story(storyID)
	if !ok {
		return fmt.Errorf("%q: %w", storyID, domain.ErrStoryNotFound)
	}

	return m.WithLock(ctx, storyID, func(ctx context.Context) error {
		s, err := m.session(ctx, story)
		if err != nil {
			return err
		}
		return fn(ctx, s)
	})
}

// Forget drops the cached session of storyID. Its checkpoint is kept.
func (m *Manager) Forget(ctx context.Context, storyID string) error {
	return m.WithLock(ctx, storyID, func(ctx context.Context) error {
		m.storiesMu.Lock()
		delete(m.sessions, storyID)
		m.storiesMu.Unlock()
		return nil
	})
}

// session must be called while holding the story lock.
func (m *Manager) session(ctx context.Context, story *domain.Story) (*storyline.Session, error) {
	m.storiesMu.RLock()
	s, cached := m.sessions[story.ID]
	m.storiesMu.RUnlock()

	if cached {
		if m.locker != nil {
			// Another replica may have moved on since we last held the lock.
			s.Sync(ctx)
		}
		return s, nil
	}

	opts := append([]storyline.Option{storyline.WithLogger(m.logger)}, m.sessionOpts...)
	if m.storyOpts != nil {
		opts = append(opts, m.storyOpts(story)...)
	}
	s, err := storyline.New(story, opts...)
	if err != nil {
		return nil, err
	}
	s.Resume(ctx)

	m.storiesMu.Lock()
	m.sessions[story.ID] = s
	m.storiesMu.Unlock()
	return s, nil
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(key) after unlocking.
func (m *Manager) acquire(key string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[key]
	if !exists {
		entry = &lockEntry{}
		m.locks[key] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[key]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, key)
	}
}

// WithLock executes a function while holding the lock for the story.
func (m *Manager) WithLock(ctx context.Context, storyID string, fn func(context.Context) error) error {
	entry := m.acquire(storyID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(storyID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, storyID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"story", storyID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
