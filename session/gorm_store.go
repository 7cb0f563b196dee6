package session

import (
	"context"

	"github.com/habiliai/agentrouter/entity"
	"github.com/habiliai/agentrouter/errors"
	"github.com/habiliai/agentrouter/internal/db"
	"gorm.io/gorm"
)

// GormStore keeps one SessionState row per session key.
type GormStore struct {
	db *gorm.DB
}

var (
	_ Store = (*GormStore)(nil)
)

func NewGormStore(ctx context.Context, gdb *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(ctx, gdb); err != nil {
		return nil, errors.Wrapf(err, "failed to migrate session table")
	}
	return &GormStore{db: gdb}, nil
}

func (s *GormStore) Load(ctx context.Context, key string) (*entity.SessionState, error) {
	_, tx := db.OpenSession(ctx, s.db)

	var state entity.SessionState
	if err := tx.Where("session_key = ?", key).First(&state).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.Wrapf(errors.ErrNotFound, "session %q not found", key)
		}
		return nil, errors.Wrapf(err, "failed to load session %q", key)
	}
	return &state, nil
}

func (s *GormStore) Save(ctx context.Context, state *entity.SessionState) error {
	_, tx := db.OpenSession(ctx, s.db)
	return state.Save(tx)
}

func (s *GormStore) Delete(ctx context.Context, key string) error {
	_, tx := db.OpenSession(ctx, s.db)
	return errors.Wrapf(
		tx.Where("session_key = ?", key).Delete(&entity.SessionState{}).Error,
		"failed to delete session %q", key,
	)
}
