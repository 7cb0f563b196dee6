package session

import (
	"context"
	"sync"

	"github.com/habiliai/agentrouter/entity"
	"github.com/habiliai/agentrouter/errors"
)

type (
	// Store persists session states by key. Load returns errors.ErrNotFound for
	// unknown keys. Implementations need not serialise writers per key; the
	// Manager does that.
	Store interface {
		Load(ctx context.Context, key string) (*entity.SessionState, error)
		Save(ctx context.Context, state *entity.SessionState) error
		Delete(ctx context.Context, key string) error
	}

	InMemoryStore struct {
		mu       sync.RWMutex
		sessions map[string]*entity.SessionState
	}
)

var (
	_ Store = (*InMemoryStore)(nil)
)

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		sessions: make(map[string]*entity.SessionState),
	}
}

func (s *InMemoryStore) Load(_ context.Context, key string) (*entity.SessionState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.sessions[key]
	if !ok {
		return nil, errors.Wrapf(errors.ErrNotFound, "session %q not found", key)
	}
	return state.Clone(), nil
}

func (s *InMemoryStore) Save(_ context.Context, state *entity.SessionState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[state.SessionKey] = state.Clone()
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, key)
	return nil
}
