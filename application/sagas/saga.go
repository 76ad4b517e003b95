// Package sagas orchestrates multi-step operations with compensation.
// A saga runs its steps in order; when one fails terminally, the
// compensations of every completed step run in reverse.
package sagas

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Step is one unit of a saga
type Step struct {
	Name string

	// Execute performs the step
	Execute func(ctx context.Context) error

	// Compensate undoes the step after a later one fails; nil means
	// the step needs no undo
	Compensate func(ctx context.Context) error

	// MaxRetries re-runs a failed Execute before giving up
	MaxRetries int

	// RetryDelay spaces the retries
	RetryDelay time.Duration
}

// State tracks a saga through its lifecycle
type State string

const (
	StatePending      State = "pending"
	StateRunning      State = "running"
	StateCompleted    State = "completed"
	StateCompensating State = "compensating"
	StateCompensated  State = "compensated"
)

// Saga runs a series of steps with compensation on failure
type Saga struct {
	id     string
	name   string
	steps  []Step
	state  State
	logger *zap.Logger
}

// NewSaga creates a saga
func NewSaga(name string, logger *zap.Logger) *Saga {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Saga{
		id:     uuid.New().String(),
		name:   name,
		state:  StatePending,
		logger: logger.With(zap.String("saga", name)),
	}
}

// AddStep appends a step; steps run in the order added
func (s *Saga) AddStep(step Step) *Saga {
	s.steps = append(s.steps, step)
	return s
}

// State returns the saga's current state
func (s *Saga) State() State { return s.state }

// Execute runs the saga to completion or compensation
func (s *Saga) Execute(ctx context.Context) error {
	s.state = StateRunning
	s.logger.Debug("saga starting", zap.Int("steps", len(s.steps)))

	completed := 0
	for _, step := range s.steps {
		if err := s.runStep(ctx, step); err != nil {
			s.logger.Error("saga step failed",
				zap.String("step", step.Name),
				zap.Error(err),
			)
			s.compensate(ctx, completed)
			return fmt.Errorf("saga %s failed at %s: %w", s.name, step.Name, err)
		}
		completed++
	}

	s.state = StateCompleted
	return nil
}

func (s *Saga) runStep(ctx context.Context, step Step) error {
	var err error
	for attempt := 0; attempt <= step.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(step.RetryDelay):
			case <-ctx.Done():
				return ctx.Err()
			}
			s.logger.Debug("retrying saga step",
				zap.String("step", step.Name),
				zap.Int("attempt", attempt),
			)
		}
		if err = step.Execute(ctx); err == nil {
			return nil
		}
	}
	return err
}

// compensate undoes the first n steps in reverse order. Compensation
// errors are logged and swallowed so every undo gets its chance.
func (s *Saga) compensate(ctx context.Context, n int) {
	s.state = StateCompensating
	for i := n - 1; i >= 0; i-- {
		step := s.steps[i]
		if step.Compensate == nil {
			continue
		}
		if err := step.Compensate(ctx); err != nil {
			s.logger.Error("saga compensation failed",
				zap.String("step", step.Name),
				zap.Error(err),
			)
		}
	}
	s.state = StateCompensated
}
