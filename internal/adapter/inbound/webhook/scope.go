package webhook

import (
	"sync"

	"github.com/jonny/sheetbot/internal/domain/model"
)

// TaskRunner runs background tasks outside the request lifecycle.
type TaskRunner interface {
	Go(task model.BackgroundTask)
}

// taskScope holds the tasks a request schedules until its response has been
// flushed. Tasks of a request that fails after scheduling are dropped.
type taskScope struct {
	mu       sync.Mutex
	tasks    []model.BackgroundTask
	released bool
}

func (s *taskScope) executionContext() *model.ExecutionContext {
	return &model.ExecutionContext{WaitUntil: s.add}
}

func (s *taskScope) add(task model.BackgroundTask) {
	if task == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return
	}
	s.tasks = append(s.tasks, task)
}

// release hands every collected task to runner, once.
func (s *taskScope) release(runner TaskRunner) int {
	s.mu.Lock()
	tasks := s.tasks
	s.tasks = nil
	s.released = true
	s.mu.Unlock()

	for _, t := range tasks {
		runner.Go(t)
	}
	return len(tasks)
}

func (s *taskScope) discard() {
	s.mu.Lock()
	s.tasks = nil
	s.released = true
	s.mu.Unlock()
}
