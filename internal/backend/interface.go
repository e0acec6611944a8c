package backend

import (
	"context"
	"time"

	"expenses/internal/store"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the store instance and optional cleanup function
type BackendResult struct {
	Store   store.Store
	Cleanup CleanupFunc
}

// Factory creates stores based on configuration
type Factory interface {
	// CreateBackend creates a store instance based on the provided config
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// Local store
	KVDriver     KVDriver
	SQLiteDBPath string
	RedisURL     string
	RedisPrefix  string
	DatabaseURL  string
	Latency      time.Duration

	// Remote store
	RemoteBaseURL string
	RemoteTimeout time.Duration
}

// BackendType represents the type of backend
type BackendType string

const (
	LocalBackend  BackendType = "local"
	RemoteBackend BackendType = "remote"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case LocalBackend, RemoteBackend:
		return true
	default:
		return false
	}
}

// KVDriver selects the key-value backend of the local store.
type KVDriver string

const (
	SQLiteDriver   KVDriver = "sqlite"
	MemoryDriver   KVDriver = "memory"
	RedisDriver    KVDriver = "redis"
	PostgresDriver KVDriver = "postgres"
)

func (d KVDriver) IsValid() bool {
	switch d {
	case SQLiteDriver, MemoryDriver, RedisDriver, PostgresDriver:
		return true
	default:
		return false
	}
}
