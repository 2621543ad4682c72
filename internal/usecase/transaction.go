package usecase

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// Transaction runs steps that span several stores. When a step fails the
// compensations of the steps that already ran are executed in reverse.
type Transaction struct {
	steps []step
	log   zerolog.Logger
}

type step struct {
	name       string
	fn         func(context.Context) error
	compensate func(context.Context) error
}

func NewTransaction(log zerolog.Logger) *Transaction {
	return &Transaction{log: log}
}

// AddStep registers fn. compensate may be nil for steps with nothing to undo.
func (t *Transaction) AddStep(name string, fn, compensate func(context.Context) error) {
	t.steps = append(t.steps, step{name: name, fn: fn, compensate: compensate})
}

func (t *Transaction) Execute(ctx context.Context) error {
	for i, s := range t.steps {
		if err := s.fn(ctx); err != nil {
			t.rollback(ctx, i)
			return fmt.Errorf("step '%s' failed: %w (rolled back %d steps)", s.name, err, i)
		}
	}
	return nil
}

func (t *Transaction) rollback(ctx context.Context, failedAt int) {
	// compensations must run even if the request was cancelled
	ctx = context.WithoutCancel(ctx)

	for i := failedAt - 1; i >= 0; i-- {
		s := t.steps[i]
		if s.compensate == nil {
			continue
		}
		if err := s.compensate(ctx); err != nil {
			t.log.Error().Err(err).Str("step", s.name).Msg("⚠️ compensation failed, data may be inconsistent")
		}
	}
}
