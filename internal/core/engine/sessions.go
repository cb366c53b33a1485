package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/handlescan/handlescan/internal/core"
)

// ErrStaleSession is returned by an adapter's submit step when the platform
// rejected the session artifact rather than judging the query. The shared
// retry helper invalidates the session and re-acquires exactly once.
var ErrStaleSession = errors.New("platform rejected session artifact")

// SetupFunc acquires a fresh session for one platform.
type SetupFunc func(ctx context.Context) (*core.Session, error)

// SessionStore persists sessions across runs.
type SessionStore interface {
	LoadSessions(ctx context.Context) ([]*core.Session, error)
	SaveSession(ctx context.Context, session *core.Session) error
	DeleteSession(ctx context.Context, platform string) error
}

// SessionCache holds setup artifacts per platform. Each platform has its own
// slot lock, so concurrent callers for one platform converge on a single
// in-flight setup while unrelated platforms never contend.
type SessionCache struct {
	mu      sync.Mutex
	entries map[string]*sessionEntry

	store SessionStore
	ttl   time.Duration
	clock func() time.Time
}

type sessionEntry struct {
	mu      sync.Mutex
	session *core.Session
	flight  *setupFlight
}

type setupFlight struct {
	done    chan struct{}
	session *core.Session
	err     error
}

// NewSessionCache builds a cache. store may be nil for in-run caching only;
// ttl bounds the age of persisted sessions accepted by LoadPersisted.
func NewSessionCache(store SessionStore, ttl time.Duration) *SessionCache {
	return &SessionCache{
		entries: make(map[string]*sessionEntry),
		store:   store,
		ttl:     ttl,
	}
}

// GetOrCreate returns the cached session for the platform, or runs setup to
// acquire one. Concurrent callers share a single setup flight and receive
// the same session or the same failure. A failed flight leaves the slot
// empty, so a later caller may try again.
func (c *SessionCache) GetOrCreate(ctx context.Context, platform string, setup SetupFunc) (*core.Session, error) {
	if c == nil {
		return nil, errors.New("session cache is not configured")
	}
	if setup == nil {
		return nil, fmt.Errorf("no setup for platform %q", platform)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	entry := c.entry(platform)

	entry.mu.Lock()
	if entry.session != nil {
		session := entry.session
		entry.mu.Unlock()
		return session, nil
	}
	if flight := entry.flight; flight != nil {
		entry.mu.Unlock()
		select {
		case <-flight.done:
			return flight.session, flight.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	flight := &setupFlight{done: make(chan struct{})}
	entry.flight = flight
	entry.mu.Unlock()

	session, err := setup(ctx)
	if err == nil && session == nil {
		err = fmt.Errorf("setup for platform %q returned no session", platform)
	}
	if err == nil {
		session.Platform = platform
		if session.AcquiredAt.IsZero() {
			session.AcquiredAt = c.now()
		}
	}

	entry.mu.Lock()
	if err == nil {
		entry.session = session
	}
	entry.flight = nil
	entry.mu.Unlock()

	flight.session = session
	flight.err = err
	close(flight.done)

	if err == nil && c.store != nil {
		_ = c.store.SaveSession(ctx, session)
	}

	return session, err
}

// Invalidate drops the cached session for the platform, but only when stale
// is still the current one; a session already replaced by another caller is
// left alone.
func (c *SessionCache) Invalidate(platform string, stale *core.Session) {
	if c == nil || stale == nil {
		return
	}

	entry := c.entry(platform)
	entry.mu.Lock()
	current := entry.session == stale
	if current {
		entry.session = nil
	}
	entry.mu.Unlock()

	if current && c.store != nil {
		_ = c.store.DeleteSession(context.Background(), platform)
	}
}

// Peek returns the cached session without triggering setup.
func (c *SessionCache) Peek(platform string) *core.Session {
	if c == nil {
		return nil
	}
	entry := c.entry(platform)
	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.session
}

// Snapshot returns the currently cached sessions, ordered by platform.
func (c *SessionCache) Snapshot() []*core.Session {
	if c == nil {
		return nil
	}

	c.mu.Lock()
	entries := make([]*sessionEntry, 0, len(c.entries))
	for _, entry := range c.entries {
		entries = append(entries, entry)
	}
	c.mu.Unlock()

	sessions := make([]*core.Session, 0, len(entries))
	for _, entry := range entries {
		entry.mu.Lock()
		if entry.session != nil {
			sessions = append(sessions, entry.session)
		}
		entry.mu.Unlock()
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].Platform < sessions[j].Platform
	})
	return sessions
}

// SyncPersisted writes every cached session back to the store. Acquire-time
// saves are best effort; this runs at shutdown to catch any that missed.
func (c *SessionCache) SyncPersisted(ctx context.Context) error {
	if c == nil || c.store == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var firstErr error
	for _, session := range c.Snapshot() {
		if err := c.store.SaveSession(ctx, session); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// LoadPersisted fills the cache from the store, skipping sessions older than
// the cache TTL. Returns how many sessions were accepted; callers treat
// errors as a degrade-to-empty condition, never fatal.
func (c *SessionCache) LoadPersisted(ctx context.Context) (int, error) {
	if c == nil || c.store == nil {
		return 0, nil
	}

	sessions, err := c.store.LoadSessions(ctx)
	if err != nil {
		return 0, err
	}

	loaded := 0
	now := c.now()
	for _, session := range sessions {
		if session == nil || session.Platform == "" {
			continue
		}
		if c.ttl > 0 && session.Age(now) > c.ttl {
			continue
		}
		entry := c.entry(session.Platform)
		entry.mu.Lock()
		if entry.session == nil {
			entry.session = session
			loaded++
		}
		entry.mu.Unlock()
	}

	return loaded, nil
}

func (c *SessionCache) entry(platform string) *sessionEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[platform]
	if !ok {
		entry = &sessionEntry{}
		c.entries[platform] = entry
	}
	return entry
}

func (c *SessionCache) now() time.Time {
	if c != nil && c.clock != nil {
		return c.clock()
	}
	return time.Now().UTC()
}
