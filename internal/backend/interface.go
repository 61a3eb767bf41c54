package backend

import (
	"context"
	"time"

	"farmstead/internal/store"
)

// Backend represents a unified backend interface that provides all necessary operations
type Backend interface {
	store.BoardStore
	store.Ledger
	store.TaxonomyReader
	store.PlantingStore
}

// BackendResult contains the backend instance, its cached views and an
// optional cleanup function.
type BackendResult struct {
	Backend Backend
	// Boards and Ledger wrap Backend with the configured read cache.
	Boards *store.CachedBoards
	Ledger *store.CachedLedger
	// Caches lists the in-process caches so a cache.Manager can expire them.
	Caches []any
	// Ping reports backend reachability for readiness probes.
	Ping    func(ctx context.Context) error
	Cleanup func() error
}

// Close runs the cleanup function if there is one.
func (r *BackendResult) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Factory creates backends based on configuration
type Factory interface {
	// CreateBackend creates a backend instance based on the provided config
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// Memory seeds and file documents
	DataDirectory string

	// SQLite specific
	SQLiteDBPath string

	// Redis, used by the redis backend and, when set, for the read cache
	RedisURL    string
	RedisPrefix string

	CacheSize int
	CacheTTL  time.Duration
}

// BackendType represents the type of backend
type BackendType string

const (
	MemoryBackend BackendType = "memory"
	FileBackend   BackendType = "file"
	SQLiteBackend BackendType = "sqlite"
	RedisBackend  BackendType = "redis"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid reports whether bt names a supported backend.
func (bt BackendType) IsValid() bool {
	for _, t := range backendTypes {
		if t == bt {
			return true
		}
	}
	return false
}
