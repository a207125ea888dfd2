package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Freeeeeet/edubook/internal/model"
	"github.com/Freeeeeet/edubook/internal/repository/base"
	"go.uber.org/zap"
)

// SessionRepository слот текущей сессии: один профиль без пароля под KeySession
type SessionRepository struct {
	db *base.Repository
}

func NewSessionRepository(db *base.Repository) *SessionRepository {
	return &SessionRepository{db: db}
}

// Load читает сессию. nil - пользователь не вошёл.
// Битая запись удаляется и считается отсутствующей.
func (r *SessionRepository) Load(ctx context.Context) (*model.Profile, error) {
	raw, ok, err := r.db.Store().Get(ctx, KeySession)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if !ok || raw == "" {
		return nil, nil
	}

	var profile model.Profile
	if err := json.Unmarshal([]byte(raw), &profile); err != nil {
		r.db.Logger().Warn("Session value corrupt, signing out",
			zap.String("key", KeySession),
			zap.Error(fmt.Errorf("%w: %v", ErrStoreCorrupt, err)),
		)
		return nil, r.Clear(ctx)
	}
	if profile.ID == "" {
		r.db.Logger().Warn("Session has no user id, signing out",
			zap.String("key", KeySession),
			zap.String("email", profile.Email),
		)
		return nil, r.Clear(ctx)
	}

	return &profile, nil
}

// Save записывает профиль в слот сессии
func (r *SessionRepository) Save(ctx context.Context, profile *model.Profile) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := r.db.Store().Set(ctx, KeySession, string(data)); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Clear очищает слот сессии
func (r *SessionRepository) Clear(ctx context.Context) error {
	if err := r.db.Store().Remove(ctx, KeySession); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
