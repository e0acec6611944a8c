package backend

import (
	"fmt"

	"expenses/internal/config"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	backendType := BackendType(appConfig.DataBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}

	return Config{
		Type: backendType,

		KVDriver:     KVDriver(appConfig.KVDriver),
		SQLiteDBPath: appConfig.SQLiteDBPath,
		RedisURL:     appConfig.RedisURL,
		RedisPrefix:  "expenses:",
		DatabaseURL:  appConfig.DatabaseURL,
		Latency:      appConfig.LocalLatency,

		RemoteBaseURL: appConfig.RemoteBaseURL,
		RemoteTimeout: appConfig.RemoteTimeout,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}

	switch c.Type {
	case LocalBackend:
		if !c.KVDriver.IsValid() {
			return fmt.Errorf("invalid kv driver: %s", c.KVDriver)
		}
		switch c.KVDriver {
		case SQLiteDriver:
			if c.SQLiteDBPath == "" {
				return fmt.Errorf("SQLite database path is required for sqlite driver")
			}
		case RedisDriver:
			if c.RedisURL == "" {
				return fmt.Errorf("redis url is required for redis driver")
			}
		case PostgresDriver:
			if c.DatabaseURL == "" {
				return fmt.Errorf("database url is required for postgres driver")
			}
		}

	case RemoteBackend:
		if c.RemoteBaseURL == "" {
			return fmt.Errorf("remote base url is required for remote backend")
		}
	}

	return nil
}

// GetBackendTypeStrings returns all valid backend type strings
func GetBackendTypeStrings() []string {
	return []string{LocalBackend.String(), RemoteBackend.String()}
}
