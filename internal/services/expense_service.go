package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"tally/internal/core"
	applog "tally/internal/log"
	"tally/internal/storage"
)

// Change operations reported to a ChangeNotifier.
const (
	ChangeAdd    = "add"
	ChangeUpdate = "update"
	ChangeDelete = "delete"
)

// ChangeNotifier is told about every committed mutation of the expense set.
type ChangeNotifier interface {
	PublishExpenseChange(ctx context.Context, op string, ids []string, revision int64) error
}

// ExpenseService owns the ordered expense set and mirrors it to storage.
// The set is always sorted by date, newest first.
type ExpenseService struct {
	mu       sync.RWMutex
	kv       storage.KeyValue
	notifier ChangeNotifier
	logger   *applog.Logger
	newID    func() string

	expenses []core.Expense
	revision int64
}

// NewExpenseService loads the persisted set from kv. A missing, unreadable
// or malformed value yields an empty set; it is never fatal.
func NewExpenseService(ctx context.Context, kv storage.KeyValue, notifier ChangeNotifier, logger *applog.Logger) *ExpenseService {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	s := &ExpenseService{
		kv:       kv,
		notifier: notifier,
		logger:   logger.WithComponent(applog.ComponentExpense),
		newID:    uuid.NewString,
	}
	s.expenses = s.load(ctx)
	return s
}

func (s *ExpenseService) load(ctx context.Context) []core.Expense {
	raw, ok, err := s.kv.Get(ctx, storage.KeyExpenses)
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to read expenses, starting empty",
			applog.FieldOperation, applog.OpLoad, applog.FieldError, err)
		return []core.Expense{}
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return []core.Expense{}
	}
	expenses, err := DecodeExpenses([]byte(raw))
	if err != nil {
		s.logger.WarnContext(ctx, "Malformed persisted expenses, starting empty",
			applog.FieldOperation, applog.OpLoad, applog.FieldError, err)
		return []core.Expense{}
	}
	sortByDateDesc(expenses)
	s.logger.InfoContext(ctx, "Expenses loaded", applog.FieldCount, len(expenses))
	return expenses
}

// DecodeExpenses parses a persisted JSON array of expense records.
func DecodeExpenses(b []byte) ([]core.Expense, error) {
	var expenses []core.Expense
	if err := json.Unmarshal(b, &expenses); err != nil {
		return nil, fmt.Errorf("decode expenses: %w", err)
	}
	if expenses == nil {
		expenses = []core.Expense{}
	}
	return expenses, nil
}

// List returns a copy of the full set in store order.
func (s *ExpenseService) List() []core.Expense {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]core.Expense(nil), s.expenses...)
}

// Get returns the record with the given id.
func (s *ExpenseService) Get(id string) (core.Expense, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.expenses {
		if e.ID == id {
			return e, true
		}
	}
	return core.Expense{}, false
}

// Revision increases on every committed mutation.
func (s *ExpenseService) Revision() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

// Add assigns a fresh id to draft and inserts it.
func (s *ExpenseService) Add(ctx context.Context, draft core.Expense) (core.Expense, error) {
	added, err := s.AddAll(ctx, []core.Expense{draft})
	if err != nil {
		return core.Expense{}, err
	}
	return added[0], nil
}

// AddAll inserts drafts as if Add were called once per draft, in order,
// but validates all of them first and persists once: either every draft is
// added or none is.
//
// Each new record is prepended before a stable date sort, so among records
// sharing a date the most recently inserted comes first.
func (s *ExpenseService) AddAll(ctx context.Context, drafts []core.Expense) ([]core.Expense, error) {
	if len(drafts) == 0 {
		return nil, nil
	}
	added := make([]core.Expense, len(drafts))
	for i, d := range drafts {
		d.Description = strings.TrimSpace(d.Description)
		if err := d.Validate(); err != nil {
			return nil, fmt.Errorf("expense %d: %w", i+1, err)
		}
		d.ID = s.newID()
		added[i] = d
	}

	s.mu.Lock()
	next := make([]core.Expense, 0, len(s.expenses)+len(added))
	for i := len(added) - 1; i >= 0; i-- {
		next = append(next, added[i])
	}
	next = append(next, s.expenses...)
	sortByDateDesc(next)
	rev, err := s.commitLocked(ctx, next)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(added))
	for i, e := range added {
		ids[i] = e.ID
		s.logger.InfoContext(ctx, "Expense added", applog.NewFields().
			WithExpense(e.ID, e.Description, e.Amount.Cents, e.Category).
			WithOperation(applog.OpCreate).ToSlice()...)
	}
	s.notify(ctx, ChangeAdd, ids, rev)
	return added, nil
}

// Update replaces the record whose id matches e.ID. An unknown id is a
// no-op and reports false.
func (s *ExpenseService) Update(ctx context.Context, e core.Expense) (bool, error) {
	e.Description = strings.TrimSpace(e.Description)
	if err := e.Validate(); err != nil {
		return false, err
	}

	s.mu.Lock()
	idx := -1
	for i := range s.expenses {
		if s.expenses[i].ID == e.ID {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		s.logger.DebugContext(ctx, "Update for unknown expense ignored", applog.FieldExpenseID, e.ID)
		return false, nil
	}
	next := append([]core.Expense(nil), s.expenses...)
	next[idx] = e
	sortByDateDesc(next)
	rev, err := s.commitLocked(ctx, next)
	s.mu.Unlock()
	if err != nil {
		return false, err
	}

	s.logger.InfoContext(ctx, "Expense updated", applog.NewFields().
		WithExpense(e.ID, e.Description, e.Amount.Cents, e.Category).
		WithOperation(applog.OpUpdate).ToSlice()...)
	s.notify(ctx, ChangeUpdate, []string{e.ID}, rev)
	return true, nil
}

// Delete removes every record whose id is in ids and returns the ids that
// were actually removed. Unknown ids are ignored.
func (s *ExpenseService) Delete(ctx context.Context, ids []string) ([]string, error) {
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}

	s.mu.Lock()
	next := make([]core.Expense, 0, len(s.expenses))
	var removed []string
	for _, e := range s.expenses {
		if _, ok := drop[e.ID]; ok {
			removed = append(removed, e.ID)
			continue
		}
		next = append(next, e)
	}
	if len(removed) == 0 {
		s.mu.Unlock()
		return nil, nil
	}
	rev, err := s.commitLocked(ctx, next)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "Expenses deleted",
		applog.FieldOperation, applog.OpDelete, applog.FieldCount, len(removed))
	s.notify(ctx, ChangeDelete, removed, rev)
	return removed, nil
}

// commitLocked persists next and, only if that succeeds, makes it the
// current set. The caller holds s.mu.
func (s *ExpenseService) commitLocked(ctx context.Context, next []core.Expense) (int64, error) {
	b, err := json.Marshal(next)
	if err != nil {
		return s.revision, fmt.Errorf("encode expenses: %w", err)
	}
	if err := s.kv.Set(ctx, storage.KeyExpenses, string(b)); err != nil {
		s.logger.ErrorContext(ctx, "Failed to persist expenses",
			applog.FieldOperation, applog.OpPersist, applog.FieldError, err)
		return s.revision, fmt.Errorf("persist expenses: %w", err)
	}
	s.expenses = next
	s.revision++
	return s.revision, nil
}

func (s *ExpenseService) notify(ctx context.Context, op string, ids []string, rev int64) {
	if s.notifier == nil {
		return
	}
	// The change is already durable; a lost notification only delays mirrors.
	if err := s.notifier.PublishExpenseChange(ctx, op, ids, rev); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish expense change",
			applog.FieldOperation, op, applog.FieldRevision, rev, applog.FieldError, err)
	}
}

func sortByDateDesc(es []core.Expense) {
	sort.SliceStable(es, func(i, j int) bool {
		return es[i].Date.After(es[j].Date)
	})
}
