package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"salesjournal/internal/amqp"
	"salesjournal/internal/kv"
	kvfile "salesjournal/internal/kv/file"
	"salesjournal/internal/kv/memory"
	"salesjournal/internal/kv/sqlite"
	"salesjournal/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
	opts   []storage.Option
}

// NewFactory creates a new backend factory. opts are passed to every
// transaction store it builds.
func NewFactory(logger *slog.Logger, opts ...storage.Option) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger, opts: opts}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		store   kv.Store
		closers []func() error
	)
	switch config.Type {
	case SQLiteBackend:
		s, err := sqlite.New(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite store: %w", err)
		}
		store = s
		closers = append(closers, s.Close)
		f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
	case FileBackend:
		s, err := kvfile.New(config.DataFilePath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize file store: %w", err)
		}
		store = s
		f.logger.Info("Initialized file backend", "path", config.DataFilePath)
	case MemoryBackend:
		store = memory.New()
		f.logger.Info("Initialized memory backend")
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}

	result := &BackendResult{
		KV:    store,
		Store: storage.NewTransactionStore(store, f.opts...),
	}

	if config.AMQPURL != "" {
		client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPRoutingKey)
		if err != nil {
			f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without events", "error", err)
		} else {
			result.Publisher = client
			closers = append(closers, client.Close)
			f.logger.InfoContext(ctx, "Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"routing_key", config.AMQPRoutingKey)
		}
	}

	result.Cleanup = func() error {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}
	return result, nil
}
