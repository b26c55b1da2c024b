package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// MemoryStore is a process-local KeyValue, used for development and tests.
type MemoryStore struct {
	mu     sync.Mutex
	values map[string]string
}

var _ KeyValue = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

// NewMemoryFromFiles seeds the store from <base>/seed_expenses.json and
// <base>/seed_budget.txt when present. Missing files are not an error.
func NewMemoryFromFiles(base string) *MemoryStore {
	s := NewMemoryStore()
	if b, err := os.ReadFile(filepath.Join(base, "seed_expenses.json")); err == nil {
		s.values[KeyExpenses] = string(b)
	}
	if b, err := os.ReadFile(filepath.Join(base, "seed_budget.txt")); err == nil {
		if v := strings.TrimSpace(string(b)); v != "" {
			s.values[KeyBudget] = v
		}
	}
	return s
}

// Get implements KeyValue.
func (s *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok, nil
}

// Set implements KeyValue.
func (s *MemoryStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}
