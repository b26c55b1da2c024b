// Package storage persists the tracker's state as string values under a
// handful of well-known keys, the same contract a browser's local storage
// offers.
package storage

import "context"

// Well-known keys.
const (
	KeyExpenses = "expenses" // JSON array of expense records
	KeyBudget   = "budget"   // decimal string
	KeyTheme    = "theme"    // "light" or "dark"
)

// KeyValue is a string-valued key-value store. Get reports ok=false for a
// missing key; err is reserved for an unavailable backend.
type KeyValue interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
}
