package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/handlescan/handlescan/internal/core"
)

// SaveSession upserts one platform's signup artifacts.
func (s *Store) SaveSession(ctx context.Context, session *core.Session) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}
	if session == nil || strings.TrimSpace(session.Platform) == "" {
		return errors.New("session platform is required")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	artifacts, err := json.Marshal(session.Values)
	if err != nil {
		return fmt.Errorf("encode session artifacts: %w", err)
	}

	acquired := session.AcquiredAt
	if acquired.IsZero() {
		acquired = time.Now().UTC()
	}

	_, err = s.DB.ExecContext(ctx, `
		INSERT INTO sessions (platform, artifacts, acquired_at)
		VALUES (?, ?, ?)
		ON CONFLICT(platform) DO UPDATE SET
			artifacts = excluded.artifacts,
			acquired_at = excluded.acquired_at
	`, session.Platform, string(artifacts), acquired.Unix())
	if err != nil {
		return fmt.Errorf("store session: %w", err)
	}

	return nil
}

// LoadSessions returns every persisted session, oldest first.
func (s *Store) LoadSessions(ctx context.Context) ([]*core.Session, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	rows, err := s.DB.QueryContext(ctx, `
		SELECT platform, artifacts, acquired_at
		FROM sessions
		ORDER BY acquired_at ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("fetch sessions: %w", err)
	}
	defer rows.Close() // nolint:errcheck // best-effort cleanup on SQL rows

	var sessions []*core.Session
	for rows.Next() {
		var (
			platform   string
			artifacts  string
			acquiredAt int64
		)
		if err := rows.Scan(&platform, &artifacts, &acquiredAt); err != nil {
			return nil, fmt.Errorf("scan session row: %w", err)
		}

		values := map[string]string{}
		if artifacts != "" {
			if err := json.Unmarshal([]byte(artifacts), &values); err != nil {
				return nil, fmt.Errorf("decode session artifacts for %s: %w", platform, err)
			}
		}

		sessions = append(sessions, &core.Session{
			Platform:   platform,
			Values:     values,
			AcquiredAt: time.Unix(acquiredAt, 0).UTC(),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("fetch sessions: %w", err)
	}

	return sessions, nil
}

// DeleteSession removes one platform's persisted session.
func (s *Store) DeleteSession(ctx context.Context, platform string) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	if _, err := s.DB.ExecContext(ctx, `DELETE FROM sessions WHERE platform = ?`, platform); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// ClearSessions removes every persisted session and reports how many
// rows were dropped.
func (s *Store) ClearSessions(ctx context.Context) (int64, error) {
	if s == nil || s.DB == nil {
		return 0, errors.New("store is not initialized")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	res, err := s.DB.ExecContext(ctx, `DELETE FROM sessions`)
	if err != nil {
		return 0, fmt.Errorf("clear sessions: %w", err)
	}
	count, _ := res.RowsAffected()
	return count, nil
}
