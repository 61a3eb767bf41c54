package backend

import (
	"errors"
	"fmt"
	"strings"

	"farmstead/internal/config"
)

var backendTypes = []BackendType{MemoryBackend, FileBackend, SQLiteBackend, RedisBackend}

// FromAppConfig picks the backend settings out of the application config.
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, errors.New("app config is nil")
	}
	t := BackendType(appConfig.DataBackend)
	if !t.IsValid() {
		return Config{}, fmt.Errorf("unknown data backend %q (want %s)", appConfig.DataBackend, typeList())
	}
	return Config{
		Type:          t,
		DataDirectory: appConfig.DataDir,
		SQLiteDBPath:  appConfig.SQLiteDBPath,
		RedisURL:      appConfig.RedisURL,
		RedisPrefix:   appConfig.RedisPrefix,
		CacheSize:     appConfig.CacheSize,
		CacheTTL:      appConfig.CacheTTL,
	}, nil
}

// Validate checks that the setting the chosen backend depends on is present.
// The memory backend needs nothing; its data directory only supplies seeds.
func (c Config) Validate() error {
	var missing string
	switch c.Type {
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			missing = "SQLite database path"
		}
	case FileBackend:
		if c.DataDirectory == "" {
			missing = "data directory"
		}
	case RedisBackend:
		if c.RedisURL == "" {
			missing = "Redis URL"
		}
	case MemoryBackend:
	default:
		return fmt.Errorf("unknown backend type %q", c.Type)
	}
	if missing != "" {
		return fmt.Errorf("%s is required for the %s backend", missing, c.Type)
	}
	return nil
}

func typeList() string {
	names := make([]string, len(backendTypes))
	for i, t := range backendTypes {
		names[i] = t.String()
	}
	return strings.Join(names, ", ")
}
