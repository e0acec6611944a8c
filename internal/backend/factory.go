package backend

import (
	"context"
	"fmt"

	"expenses/internal/log"
	"expenses/internal/storage"
	"expenses/internal/store/local"
	"expenses/internal/store/remote"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Discard()
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentBackend),
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case LocalBackend:
		return f.createLocalBackend(ctx, config)
	case RemoteBackend:
		return f.createRemoteBackend(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createLocalBackend(ctx context.Context, config Config) (*BackendResult, error) {
	kv, err := openKV(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s kv store: %w", config.KVDriver, err)
	}

	s := local.New(kv,
		local.WithLatency(config.Latency),
		local.WithLogger(f.logger))

	f.logger.Info("Initialized local backend",
		log.FieldKVDriver, string(config.KVDriver),
		"latency", config.Latency.String())

	return &BackendResult{
		Store:   s,
		Cleanup: s.Close,
	}, nil
}

func openKV(ctx context.Context, config Config) (storage.KV, error) {
	switch config.KVDriver {
	case SQLiteDriver:
		return storage.NewSQLiteKV(config.SQLiteDBPath)
	case RedisDriver:
		return storage.NewRedisKV(ctx, config.RedisURL, config.RedisPrefix)
	case PostgresDriver:
		return storage.NewPostgresKV(ctx, config.DatabaseURL)
	case MemoryDriver:
		return storage.NewMemoryKV(), nil
	default:
		return nil, fmt.Errorf("unsupported kv driver: %s", config.KVDriver)
	}
}

func (f *DefaultFactory) createRemoteBackend(config Config) (*BackendResult, error) {
	c, err := remote.New(config.RemoteBaseURL, config.RemoteTimeout, remote.WithLogger(f.logger))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize remote client: %w", err)
	}

	f.logger.Info("Initialized remote backend", "base_url", config.RemoteBaseURL)

	return &BackendResult{
		Store:   c,
		Cleanup: c.Close,
	}, nil
}
