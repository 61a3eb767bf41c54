package backend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"farmstead/internal/cache"
	"farmstead/internal/core"
	"farmstead/internal/log"
	"farmstead/internal/storage"
	"farmstead/internal/store"
	"farmstead/internal/store/kv"
	"farmstead/internal/store/memory"
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

	var (
		client   *redis.Client
		cleanups []func() error
	)
	if config.RedisURL != "" {
		var err error
		client, err = f.connectRedis(ctx, config.RedisURL)
		if err != nil {
			if config.Type == RedisBackend {
				return nil, err
			}
			f.logger.Warn("Redis unavailable, using in-process cache", log.FieldError, err)
			client = nil
		} else {
			cleanups = append(cleanups, client.Close)
		}
	}

	result := &BackendResult{Ping: func(context.Context) error { return nil }}

	switch config.Type {
	case MemoryBackend:
		dataDir := config.DataDirectory
		if dataDir == "" {
			dataDir = "data"
		}
		result.Backend = memory.NewFromFiles(dataDir)
		f.logger.Info("Initialized memory backend", "data_directory", dataDir)

	case FileBackend:
		fileKV, err := kv.NewFileKV(config.DataDirectory)
		if err != nil {
			closeAll(cleanups)
			return nil, fmt.Errorf("failed to initialize file store: %w", err)
		}
		result.Backend = kv.New(fileKV, f.logger)
		f.logger.Info("Initialized file backend", "data_directory", config.DataDirectory)

	case SQLiteBackend:
		repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath, f.logger)
		if err != nil {
			closeAll(cleanups)
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		result.Backend = repo
		result.Ping = repo.Ping
		cleanups = append(cleanups, repo.Close)
		f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)

	case RedisBackend:
		redisKV := kv.NewRedisKV(client, config.RedisPrefix)
		result.Backend = kv.New(redisKV, f.logger)
		result.Ping = redisKV.Ping
		f.logger.Info("Initialized Redis backend", "prefix", config.RedisPrefix)

	default:
		closeAll(cleanups)
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}

	boardCache, ledgerCache := f.caches(client, config)
	result.Boards = store.NewCachedBoards(result.Backend, boardCache)
	result.Ledger = store.NewCachedLedger(result.Backend, ledgerCache)
	result.Caches = []any{boardCache, ledgerCache}
	result.Cleanup = func() error { return closeAll(cleanups) }

	return result, nil
}

func (f *DefaultFactory) connectRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func (f *DefaultFactory) caches(client *redis.Client, config Config) (cache.Cache[core.Board], cache.Cache[[]core.LedgerEntry]) {
	if client != nil {
		f.logger.Info("Using Redis read cache", "ttl", config.CacheTTL.String())
		return cache.NewRedisCache[core.Board](client, config.RedisPrefix+"cache:board:", config.CacheTTL, f.logger),
			cache.NewRedisCache[[]core.LedgerEntry](client, config.RedisPrefix+"cache:ledger:", config.CacheTTL, f.logger)
	}
	size := config.CacheSize
	if size < 1 {
		size = 8
	}
	return cache.NewLRUCache[core.Board](size, config.CacheTTL),
		cache.NewLRUCache[[]core.LedgerEntry](size, config.CacheTTL)
}

func closeAll(fns []func() error) error {
	var errs []error
	for i := len(fns) - 1; i >= 0; i-- {
		if err := fns[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
