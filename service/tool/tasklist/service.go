// Package tasklist lets agents maintain a visible task list. The current
// in-progress entries feed the approval context shown to reviewers.
package tasklist

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/dataroomhq/diligence/model"
	"github.com/dataroomhq/diligence/service/tool"
)

// Input replaces the whole task list.
type Input struct {
	Todos []model.Todo `json:"todos"`
}

// Notifier observes task-list updates, typically to push a todos_update
// envelope over the session channel.
type Notifier func(todos []model.Todo)

// Service provides the write_todos tool and remembers the current list.
type Service struct {
	mu       sync.RWMutex
	todos    []model.Todo
	notifier Notifier
}

// New creates the task-list tool service.
func New(notifier Notifier) *Service {
	return &Service{notifier: notifier}
}

// Definitions returns the task-list tool definition.
func (s *Service) Definitions() []*tool.Definition {
	return []*tool.Definition{
		{
			Name:        "write_todos",
			Description: "Replace the task list. Each entry has content and a status: pending, in_progress or completed.",
			Input:       reflect.TypeOf(&Input{}),
			Handler:     s.write,
		},
	}
}

// Todos returns the current task list.
func (s *Service) Todos() []model.Todo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Todo(nil), s.todos...)
}

func (s *Service) write(_ context.Context, in interface{}) (string, error) {
	input := in.(*Input)
	s.mu.Lock()
	s.todos = append([]model.Todo(nil), input.Todos...)
	notifier := s.notifier
	todos := s.todos
	s.mu.Unlock()
	if notifier != nil {
		notifier(todos)
	}
	return fmt.Sprintf("Task list updated (%d items)", len(input.Todos)), nil
}
