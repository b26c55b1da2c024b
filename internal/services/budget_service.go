package services

import (
	"context"
	"fmt"
	"sync"

	"tally/internal/core"
	applog "tally/internal/log"
	"tally/internal/storage"
)

// DefaultBudget applies when no budget has been stored yet.
var DefaultBudget = core.Money{Cents: 100000}

// BudgetService holds the single spending budget.
type BudgetService struct {
	mu     sync.RWMutex
	kv     storage.KeyValue
	logger *applog.Logger
	value  core.Money
}

// NewBudgetService loads the stored budget, falling back to DefaultBudget
// when it is absent, unreadable or not a non-negative number.
func NewBudgetService(ctx context.Context, kv storage.KeyValue, logger *applog.Logger) *BudgetService {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	s := &BudgetService{
		kv:     kv,
		logger: logger.WithComponent(applog.ComponentBudget),
		value:  DefaultBudget,
	}

	raw, ok, err := kv.Get(ctx, storage.KeyBudget)
	switch {
	case err != nil:
		s.logger.WarnContext(ctx, "Failed to read budget, using default",
			applog.FieldOperation, applog.OpLoad, applog.FieldError, err)
	case ok:
		cents, perr := core.ParseNonNegativeCents(raw)
		if perr != nil {
			s.logger.WarnContext(ctx, "Malformed stored budget, using default", "value", raw)
			break
		}
		s.value = core.Money{Cents: cents}
	}
	return s
}

func (s *BudgetService) Value() core.Money {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

// Set stores a new budget from free-form input. Input that is empty, not a
// number or negative becomes zero; Set never rejects input. The returned
// error only reports a persistence failure, in which case the previous
// value is kept.
func (s *BudgetService) Set(ctx context.Context, input string) (core.Money, error) {
	cents, err := core.ParseLenientCents(input)
	if err != nil {
		cents = 0
	}
	m := core.Money{Cents: cents}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.kv.Set(ctx, storage.KeyBudget, m.Decimal().String()); err != nil {
		s.logger.ErrorContext(ctx, "Failed to persist budget",
			applog.FieldOperation, applog.OpPersist, applog.FieldError, err)
		return s.value, fmt.Errorf("persist budget: %w", err)
	}
	s.value = m
	s.logger.InfoContext(ctx, "Budget updated", applog.FieldAmountCents, m.Cents)
	return m, nil
}
