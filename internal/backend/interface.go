// Package backend builds the storage and change-notification stack selected
// by configuration.
package backend

import (
	"context"

	"tally/internal/services"
	"tally/internal/storage"
)

// CleanupFunc releases resources held by a backend.
type CleanupFunc func() error

// BackendResult is what the composition root wires into the services.
// Notifier is nil when change notifications are disabled or unavailable.
type BackendResult struct {
	Store    storage.KeyValue
	Notifier services.ChangeNotifier
	Ready    func(ctx context.Context) error
	Cleanup  CleanupFunc
}

// Factory creates backends based on configuration.
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

type Config struct {
	Type BackendType

	// SQLite
	SQLiteDBPath string

	// Memory: directory holding optional seed files.
	DataDirectory string

	// AMQP notifications, optional
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
