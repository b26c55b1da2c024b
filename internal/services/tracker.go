package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"tally/internal/cache"
	"tally/internal/core"
)

// ErrNotConfirmed is returned by deletes issued without explicit confirmation.
var ErrNotConfirmed = errors.New("delete requires confirmation")

// Summary is the derived dashboard view of a filtered subset.
type Summary struct {
	Count     int                  `json:"count"`
	Total     core.Money           `json:"total"`
	Budget    core.BudgetStatus    `json:"budget"`
	Breakdown []core.CategoryShare `json:"breakdown"`
	Trend     []core.DayBucket     `json:"trend"`
}

// Tracker is the application state container. It owns the persisted
// services plus the transient view state: the current filter, the set of
// selected expenses and the assistant transcript.
type Tracker struct {
	Expenses *ExpenseService
	Budget   *BudgetService
	Prefs    *PreferenceService

	now       func() time.Time
	summaries *cache.LRU[Summary]

	mu         sync.Mutex
	criteria   core.FilterCriteria
	selected   map[string]struct{}
	transcript []core.ChatMessage
}

// TrackerOption configures a Tracker.
type TrackerOption func(*Tracker)

// WithClock overrides the time source used to resolve "today".
func WithClock(now func() time.Time) TrackerOption {
	return func(t *Tracker) { t.now = now }
}

// WithSummaryCache memoizes Summary results in c.
func WithSummaryCache(c *cache.LRU[Summary]) TrackerOption {
	return func(t *Tracker) { t.summaries = c }
}

func NewTracker(expenses *ExpenseService, budget *BudgetService, prefs *PreferenceService, opts ...TrackerOption) *Tracker {
	t := &Tracker{
		Expenses: expenses,
		Budget:   budget,
		Prefs:    prefs,
		now:      time.Now,
		selected: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Tracker) Now() time.Time {
	return t.now()
}

// Today is the current local calendar date.
func (t *Tracker) Today() core.Date {
	return core.DateOf(t.now())
}

func (t *Tracker) Criteria() core.FilterCriteria {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.criteria
}

func (t *Tracker) SetCriteria(c core.FilterCriteria) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.criteria = c
}

// Visible returns the store filtered by the current criteria.
func (t *Tracker) Visible() []core.Expense {
	return core.Filter(t.Expenses.List(), t.Criteria())
}

// Summary computes total, budget usage, breakdown and trend over the
// subset matching c.
func (t *Tracker) Summary(c core.FilterCriteria) Summary {
	today := t.Today()
	budget := t.Budget.Value()
	key := fmt.Sprintf("%d|%d|%s|%s", t.Expenses.Revision(), budget.Cents, today, c.Key())
	if t.summaries != nil {
		if s, ok := t.summaries.Get(key); ok {
			return s
		}
	}

	subset := core.Filter(t.Expenses.List(), c)
	total := core.Total(subset)
	s := Summary{
		Count:     len(subset),
		Total:     total,
		Budget:    core.NewBudgetStatus(total, budget),
		Breakdown: core.Breakdown(subset),
		Trend:     core.Trend(subset, today),
	}
	if t.summaries != nil {
		t.summaries.Set(key, s)
	}
	return s
}

// AddExpenses adds drafts atomically through the expense store.
func (t *Tracker) AddExpenses(ctx context.Context, drafts []core.Expense) ([]core.Expense, error) {
	return t.Expenses.AddAll(ctx, drafts)
}

// DeleteExpenses removes ids from the store once confirmed, and drops them
// from the selection.
func (t *Tracker) DeleteExpenses(ctx context.Context, ids []string, confirmed bool) ([]string, error) {
	if !confirmed {
		return nil, ErrNotConfirmed
	}
	removed, err := t.Expenses.Delete(ctx, ids)
	if err != nil {
		return nil, err
	}
	t.mu.Lock()
	for _, id := range removed {
		delete(t.selected, id)
	}
	t.mu.Unlock()
	return removed, nil
}

// DeleteSelected deletes every selected expense.
func (t *Tracker) DeleteSelected(ctx context.Context, confirmed bool) ([]string, error) {
	return t.DeleteExpenses(ctx, t.Selected(), confirmed)
}

// Select marks ids as selected. Ids not in the store are ignored.
func (t *Tracker) Select(ids ...string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, id := range ids {
		if _, ok := t.Expenses.Get(id); ok {
			t.selected[id] = struct{}{}
		}
	}
}

func (t *Tracker) Deselect(ids ...string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, id := range ids {
		delete(t.selected, id)
	}
}

// ToggleSelection flips the selection state of id and reports whether it
// is now selected.
func (t *Tracker) ToggleSelection(id string) bool {
	t.mu.Lock()
	_, on := t.selected[id]
	t.mu.Unlock()
	if on {
		t.Deselect(id)
		return false
	}
	t.Select(id)
	return t.IsSelected(id)
}

// SelectVisible selects every expense matching the current criteria.
func (t *Tracker) SelectVisible() {
	visible := t.Visible()
	ids := make([]string, len(visible))
	for i, e := range visible {
		ids[i] = e.ID
	}
	t.Select(ids...)
}

func (t *Tracker) ClearSelection() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.selected = make(map[string]struct{})
}

func (t *Tracker) IsSelected(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.selected[id]
	return ok
}

// Selected returns the selected ids in store order.
func (t *Tracker) Selected() []string {
	all := t.Expenses.List()
	t.mu.Lock()
	defer t.mu.Unlock()
	ids := make([]string, 0, len(t.selected))
	for _, e := range all {
		if _, ok := t.selected[e.ID]; ok {
			ids = append(ids, e.ID)
		}
	}
	return ids
}

func (t *Tracker) AppendMessage(msg core.ChatMessage) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.transcript = append(t.transcript, msg)
}

// Transcript returns a copy of the chat history, oldest first.
func (t *Tracker) Transcript() []core.ChatMessage {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]core.ChatMessage{}, t.transcript...)
}
