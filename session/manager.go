package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/habiliai/agentrouter/entity"
	"github.com/habiliai/agentrouter/errors"
	"github.com/habiliai/agentrouter/internal/mylog"
)

type (
	// Manager is the session state store. Every read-modify-write of one
	// session key runs under that key's lock, so dispatches on the same
	// session never interleave while different sessions proceed in parallel.
	Manager struct {
		store  Store
		logger *slog.Logger

		mtx   sync.Mutex
		locks map[string]*keyLock
	}

	keyLock struct {
		sem  chan struct{}
		refs int
	}
)

func NewManager(store Store, logger *slog.Logger) *Manager {
	if store == nil {
		store = NewInMemoryStore()
	}
	if logger == nil {
		logger = mylog.Discard()
	}
	return &Manager{
		store:  store,
		logger: logger,
		locks:  make(map[string]*keyLock),
	}
}

func (m *Manager) acquire(ctx context.Context, key string) (func(), error) {
	m.mtx.Lock()
	l, ok := m.locks[key]
	if !ok {
		l = &keyLock{sem: make(chan struct{}, 1)}
		m.locks[key] = l
	}
	l.refs++
	m.mtx.Unlock()

	release := func() {
		m.mtx.Lock()
		l.refs--
		if l.refs == 0 {
			delete(m.locks, key)
		}
		m.mtx.Unlock()
	}

	select {
	case l.sem <- struct{}{}:
		return func() {
			<-l.sem
			release()
		}, nil
	case <-ctx.Done():
		release()
		return nil, errors.WithStack(ctx.Err())
	}
}

func (m *Manager) loadOrNew(ctx context.Context, key string) (*entity.SessionState, error) {
	state, err := m.store.Load(ctx, key)
	if errors.Is(err, errors.ErrNotFound) {
		return entity.NewSessionState(key), nil
	}
	return state, err
}

// Update runs fn on the session for key, creating it if needed, and saves
// the result. The state is saved even when fn fails so that changes fn made
// before failing are kept.
func (m *Manager) Update(ctx context.Context, key string, fn func(state *entity.SessionState) error) error {
	unlock, err := m.acquire(ctx, key)
	if err != nil {
		return err
	}
	defer unlock()

	state, err := m.loadOrNew(ctx, key)
	if err != nil {
		return err
	}

	fnErr := fn(state)
	if err := m.store.Save(ctx, state); err != nil {
		m.logger.Error("failed to save session", "session", key, mylog.Err(err))
		if fnErr != nil {
			return fnErr
		}
		return err
	}

	return fnErr
}

// Get returns a snapshot of the session for key. Unknown keys yield a fresh,
// unsaved state.
func (m *Manager) Get(ctx context.Context, key string) (*entity.SessionState, error) {
	unlock, err := m.acquire(ctx, key)
	if err != nil {
		return nil, err
	}
	defer unlock()

	state, err := m.loadOrNew(ctx, key)
	if err != nil {
		return nil, err
	}
	return state.Clone(), nil
}

// Activate marks the session active, assigning a session id the first time.
func (m *Manager) Activate(ctx context.Context, key string) (*entity.SessionState, error) {
	var snapshot *entity.SessionState
	err := m.Update(ctx, key, func(state *entity.SessionState) error {
		state.Activate()
		snapshot = state.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

func (m *Manager) ActiveAgentLabel(ctx context.Context, key string) (string, error) {
	state, err := m.Get(ctx, key)
	if err != nil {
		return "", err
	}
	return state.ActiveAgentLabel(), nil
}

func (m *Manager) Delete(ctx context.Context, key string) error {
	unlock, err := m.acquire(ctx, key)
	if err != nil {
		return err
	}
	defer unlock()

	return m.store.Delete(ctx, key)
}
