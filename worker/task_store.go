package worker

import (
	"sync"

	"github.com/habiliai/agentrouter/entity"
	"github.com/habiliai/agentrouter/errors"
)

type taskStore struct {
	mu    sync.RWMutex
	tasks map[string]entity.Task
}

func newTaskStore() *taskStore {
	return &taskStore{
		tasks: make(map[string]entity.Task),
	}
}

func (s *taskStore) get(id string) (entity.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	task, ok := s.tasks[id]
	if !ok {
		return entity.Task{}, errors.Wrapf(errors.ErrNotFound, "task %s not found", id)
	}
	return task, nil
}

func (s *taskStore) put(task entity.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tasks[task.ID] = task
}
