package engine

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/handlescan/handlescan/internal/core"
)

type stubSessionStore struct {
	mu       sync.Mutex
	sessions []*core.Session
	loadErr  error
	saveErr  error
	saved    []*core.Session
	deleted  []string
}

func (s *stubSessionStore) LoadSessions(ctx context.Context) ([]*core.Session, error) {
	return s.sessions, s.loadErr
}

func (s *stubSessionStore) SaveSession(ctx context.Context, session *core.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saved = append(s.saved, session)
	return nil
}

func (s *stubSessionStore) DeleteSession(ctx context.Context, platform string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, platform)
	return nil
}

func TestGetOrCreateCachesSession(t *testing.T) {
	cache := NewSessionCache(nil, 0)

	var setups int64
	setup := func(context.Context) (*core.Session, error) {
		atomic.AddInt64(&setups, 1)
		return &core.Session{Values: map[string]string{"token": "abc"}}, nil
	}

	first, err := cache.GetOrCreate(context.Background(), "usersite", setup)
	require.NoError(t, err)
	require.Equal(t, "abc", first.Value("token"))
	require.Equal(t, "usersite", first.Platform)
	require.False(t, first.AcquiredAt.IsZero())

	second, err := cache.GetOrCreate(context.Background(), "usersite", setup)
	require.NoError(t, err)
	require.Same(t, first, second)
	require.Equal(t, int64(1), atomic.LoadInt64(&setups))
}

func TestGetOrCreateSingleFlight(t *testing.T) {
	cache := NewSessionCache(nil, 0)

	var setups int64
	release := make(chan struct{})
	setup := func(context.Context) (*core.Session, error) {
		atomic.AddInt64(&setups, 1)
		<-release
		return &core.Session{Values: map[string]string{"token": "shared"}}, nil
	}

	const callers = 8
	sessions := make([]*core.Session, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			session, err := cache.GetOrCreate(context.Background(), "usersite", setup)
			require.NoError(t, err)
			sessions[i] = session
		}(i)
	}

	// Give the callers time to pile onto the single flight before it
	// completes.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	require.Equal(t, int64(1), atomic.LoadInt64(&setups))
	for i := 1; i < callers; i++ {
		require.Same(t, sessions[0], sessions[i])
	}
}

func TestGetOrCreateSharesFlightFailure(t *testing.T) {
	cache := NewSessionCache(nil, 0)

	var setups int64
	release := make(chan struct{})
	setup := func(context.Context) (*core.Session, error) {
		atomic.AddInt64(&setups, 1)
		<-release
		return nil, errors.New("handshake rejected")
	}

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := 0; i < len(errs); i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = cache.GetOrCreate(context.Background(), "usersite", setup)
		}(i)
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	require.Equal(t, int64(1), atomic.LoadInt64(&setups))
	for _, err := range errs {
		require.Error(t, err)
		require.Contains(t, err.Error(), "handshake rejected")
	}

	// The failed flight leaves the slot empty, so a fresh caller retries.
	session, err := cache.GetOrCreate(context.Background(), "usersite", func(context.Context) (*core.Session, error) {
		return &core.Session{Values: map[string]string{"token": "fresh"}}, nil
	})
	require.NoError(t, err)
	require.Equal(t, "fresh", session.Value("token"))
}

func TestGetOrCreateWaiterHonorsCancellation(t *testing.T) {
	cache := NewSessionCache(nil, 0)

	started := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_, _ = cache.GetOrCreate(context.Background(), "usersite", func(context.Context) (*core.Session, error) {
			close(started)
			<-release
			return &core.Session{Values: map[string]string{}}, nil
		})
	}()
	<-started

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := cache.GetOrCreate(ctx, "usersite", func(context.Context) (*core.Session, error) {
		return &core.Session{Values: map[string]string{}}, nil
	})
	require.ErrorIs(t, err, context.Canceled)
	close(release)
}

func TestInvalidateDropsOnlyCurrentSession(t *testing.T) {
	store := &stubSessionStore{}
	cache := NewSessionCache(store, 0)

	first, err := cache.GetOrCreate(context.Background(), "usersite", func(context.Context) (*core.Session, error) {
		return &core.Session{Values: map[string]string{"token": "one"}}, nil
	})
	require.NoError(t, err)

	cache.Invalidate("usersite", first)
	require.Nil(t, cache.Peek("usersite"))
	require.Equal(t, []string{"usersite"}, store.deleted)

	second, err := cache.GetOrCreate(context.Background(), "usersite", func(context.Context) (*core.Session, error) {
		return &core.Session{Values: map[string]string{"token": "two"}}, nil
	})
	require.NoError(t, err)

	// Invalidating with the superseded session is a no-op.
	cache.Invalidate("usersite", first)
	require.Same(t, second, cache.Peek("usersite"))
	require.Len(t, store.deleted, 1)
}

func TestLoadPersistedSkipsExpired(t *testing.T) {
	now := time.Now().UTC()
	store := &stubSessionStore{
		sessions: []*core.Session{
			{Platform: "fresh", Values: map[string]string{"token": "a"}, AcquiredAt: now.Add(-time.Minute)},
			{Platform: "expired", Values: map[string]string{"token": "b"}, AcquiredAt: now.Add(-48 * time.Hour)},
			nil,
		},
	}

	cache := NewSessionCache(store, time.Hour)
	loaded, err := cache.LoadPersisted(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, loaded)
	require.NotNil(t, cache.Peek("fresh"))
	require.Nil(t, cache.Peek("expired"))
}

func TestLoadPersistedReportsStoreError(t *testing.T) {
	store := &stubSessionStore{loadErr: errors.New("disk gone")}
	cache := NewSessionCache(store, 0)

	loaded, err := cache.LoadPersisted(context.Background())
	require.Error(t, err)
	require.Zero(t, loaded)
}

func TestGetOrCreatePersistsSession(t *testing.T) {
	store := &stubSessionStore{}
	cache := NewSessionCache(store, 0)

	_, err := cache.GetOrCreate(context.Background(), "usersite", func(context.Context) (*core.Session, error) {
		return &core.Session{Values: map[string]string{"token": "saved"}}, nil
	})
	require.NoError(t, err)
	require.Len(t, store.saved, 1)
	require.Equal(t, "usersite", store.saved[0].Platform)
}

func TestSnapshotOrdersByPlatform(t *testing.T) {
	cache := NewSessionCache(nil, 0)

	for _, name := range []string{"zeta", "alpha", "mid"} {
		_, err := cache.GetOrCreate(context.Background(), name, func(context.Context) (*core.Session, error) {
			return &core.Session{Values: map[string]string{"token": "t"}}, nil
		})
		require.NoError(t, err)
	}

	snapshot := cache.Snapshot()
	require.Len(t, snapshot, 3)
	require.Equal(t, "alpha", snapshot[0].Platform)
	require.Equal(t, "mid", snapshot[1].Platform)
	require.Equal(t, "zeta", snapshot[2].Platform)
}

func TestSyncPersistedWritesCachedSessions(t *testing.T) {
	store := &stubSessionStore{saveErr: errors.New("disk full")}
	cache := NewSessionCache(store, 0)

	_, err := cache.GetOrCreate(context.Background(), "usersite", func(context.Context) (*core.Session, error) {
		return &core.Session{Values: map[string]string{"token": "t"}}, nil
	})
	require.NoError(t, err)
	require.Empty(t, store.saved)

	// The acquire-time save failed; the shutdown sync retries it.
	store.mu.Lock()
	store.saveErr = nil
	store.mu.Unlock()

	require.NoError(t, cache.SyncPersisted(context.Background()))
	require.Len(t, store.saved, 1)
	require.Equal(t, "usersite", store.saved[0].Platform)

	store.mu.Lock()
	store.saveErr = errors.New("disk full again")
	store.mu.Unlock()
	require.Error(t, cache.SyncPersisted(context.Background()))
}
