package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/snapbooth/identity/app/entity"
	"github.com/snapbooth/identity/config"
)

type SessionStore interface {
	Create(ctx context.Context, session *entity.Session) error
	FindByID(ctx context.Context, id string) (*entity.Session, error)
	Touch(ctx context.Context, id string, at time.Time) error
	Delete(ctx context.Context, id string) (bool, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type SessionService struct {
	store SessionStore
	cfg   *config.Config
}

func NewSessionService(store SessionStore, cfg *config.Config) *SessionService {
	return &SessionService{store: store, cfg: cfg}
}

// Issue creates a session with a fresh id and CSRF token for the given user.
// The CSRF token is surfaced to the caller only through the returned record.
func (s *SessionService) Issue(ctx context.Context, userID uint64) (*entity.Session, error) {
	id, err := GenerateSessionID(userID)
	if err != nil {
		return nil, err
	}
	csrfToken, err := GenerateCSRFToken()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	session := &entity.Session{
		ID:           id,
		UserID:       userID,
		CSRFToken:    csrfToken,
		CreatedAt:    now,
		LastAccessed: now,
	}
	if err := s.store.Create(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// Authenticate resolves a session id, enforcing the idle timeout: a session
// idle beyond the configured window is deleted and treated as unknown. A
// valid session has its last-accessed timestamp refreshed. Returns (nil, nil)
// for any invalid id so callers cannot distinguish unknown from expired.
func (s *SessionService) Authenticate(ctx context.Context, sessionID string) (*entity.Session, error) {
	if sessionID == "" {
		return nil, nil
	}

	session, err := s.store.FindByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, nil
	}

	now := time.Now()
	if now.Sub(session.LastAccessed) > s.cfg.SessionIdleTimeout {
		if _, err := s.store.Delete(ctx, sessionID); err != nil {
			return nil, err
		}
		logrus.WithField("user_id", session.UserID).Debug("Session expired after idle timeout")
		return nil, nil
	}

	// Concurrent touches race harmlessly; last-accessed only moves forward.
	if err := s.store.Touch(ctx, sessionID, now); err != nil {
		return nil, err
	}
	session.LastAccessed = now
	return session, nil
}

// Revoke deletes the session. Idempotent: revoking an absent session
// reports false without error.
func (s *SessionService) Revoke(ctx context.Context, sessionID string) (bool, error) {
	return s.store.Delete(ctx, sessionID)
}

// Sweep bulk-deletes sessions idle longer than olderThan. Meant for the
// sweep command, not request-path code.
func (s *SessionService) Sweep(ctx context.Context, olderThan time.Duration) (int64, error) {
	return s.store.DeleteOlderThan(ctx, time.Now().Add(-olderThan))
}
