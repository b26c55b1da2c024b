package backend

import (
	"context"
	"errors"
	"fmt"

	"tally/internal/amqp"
	applog "tally/internal/log"
	"tally/internal/storage"
)

// DefaultFactory implements Factory.
type DefaultFactory struct {
	logger *applog.Logger
	// dialNotifier is swapped in tests to avoid a broker.
	dialNotifier func(cfg Config, logger *applog.Logger) (notifier, error)
}

type notifier interface {
	PublishExpenseChange(ctx context.Context, op string, ids []string, revision int64) error
	Close() error
}

func NewFactory(logger *applog.Logger) *DefaultFactory {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &DefaultFactory{
		logger: logger.WithComponent(applog.ComponentStorage),
		dialNotifier: func(cfg Config, logger *applog.Logger) (notifier, error) {
			return amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		},
	}
}

func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		res *BackendResult
		err error
	)
	switch config.Type {
	case SQLiteBackend:
		res, err = f.createSQLiteBackend(ctx, config)
	case MemoryBackend:
		res = f.createMemoryBackend(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}

	f.attachNotifier(ctx, config, res)
	return res, nil
}

func (f *DefaultFactory) createSQLiteBackend(ctx context.Context, config Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}
	f.logger.InfoContext(ctx, "Initialized SQLite backend", "db_path", config.SQLiteDBPath)
	return &BackendResult{
		Store:   repo,
		Ready:   repo.Ping,
		Cleanup: repo.Close,
	}, nil
}

func (f *DefaultFactory) createMemoryBackend(ctx context.Context, config Config) *BackendResult {
	store := storage.NewMemoryFromFiles(config.DataDirectory)
	f.logger.InfoContext(ctx, "Initialized memory backend", "data_directory", config.DataDirectory)
	return &BackendResult{
		Store:   store,
		Ready:   func(context.Context) error { return nil },
		Cleanup: func() error { return nil },
	}
}

// attachNotifier dials AMQP when configured. A broker that is down at
// startup only disables notifications.
func (f *DefaultFactory) attachNotifier(ctx context.Context, config Config, res *BackendResult) {
	if config.AMQPURL == "" {
		return
	}
	n, err := f.dialNotifier(config, f.logger)
	if err != nil {
		f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without notifications", applog.FieldError, err)
		return
	}
	f.logger.InfoContext(ctx, "Initialized AMQP client", "exchange", config.AMQPExchange, "queue", config.AMQPQueue)
	res.Notifier = n
	storeCleanup := res.Cleanup
	res.Cleanup = func() error {
		return errors.Join(n.Close(), storeCleanup())
	}
}
