package repository

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/sis-portal/internal/models"
	"github.com/noah-isme/sis-portal/internal/store"
)

// SessionRepository persists the single currentUser session object.
type SessionRepository struct {
	store  *store.RecordStore
	logger *zap.Logger
}

// NewSessionRepository constructs the repository.
func NewSessionRepository(s *store.RecordStore, logger *zap.Logger) *SessionRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionRepository{store: s, logger: logger}
}

// Current returns the stored session, if any.
func (r *SessionRepository) Current(ctx context.Context) (*models.Session, bool) {
	var session models.Session
	ok, err := r.store.Get(ctx, store.KeyCurrentUser, &session)
	if err != nil {
		r.logger.Warn("reading session failed", zap.Error(err))
		return nil, false
	}
	if !ok || session.UserID == "" {
		return nil, false
	}
	return &session, true
}

// Save replaces the stored session.
func (r *SessionRepository) Save(ctx context.Context, session models.Session) bool {
	return r.store.Set(ctx, store.KeyCurrentUser, session)
}

// Clear removes the stored session.
func (r *SessionRepository) Clear(ctx context.Context) bool {
	return r.store.Remove(ctx, store.KeyCurrentUser)
}
