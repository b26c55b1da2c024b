package memory

import (
	"context"
	"sync"

	"tally/internal/core"
	"tally/internal/sheets"
)

// Mirror keeps the last mirrored rows in memory. It backs the worker when
// no spreadsheet is configured and doubles as a test fake.
type Mirror struct {
	mu       sync.Mutex
	rows     [][]any
	replaces int
	err      error
}

var _ sheets.Mirror = (*Mirror)(nil)

func New() *Mirror { return &Mirror{} }

func (m *Mirror) Replace(_ context.Context, expenses []core.Expense) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.rows = sheets.Rows(expenses)
	m.replaces++
	return nil
}

// FailWith makes subsequent Replace calls return err; nil clears it.
func (m *Mirror) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Rows returns the mirrored rows, header included.
func (m *Mirror) Rows() [][]any {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]any, len(m.rows))
	copy(out, m.rows)
	return out
}

// Replaces counts successful Replace calls.
func (m *Mirror) Replaces() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.replaces
}
