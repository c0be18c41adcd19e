// Package config provides a type-safe, generic and cached way to load
// application configuration from environment variables.
//
// It wraps github.com/joho/godotenv and github.com/caarlos0/env/v11 to
// deliver a convenient API that:
//
//   - Loads values from one or multiple .env files, falling back to the
//     default .env in the working directory.
//   - Parses the environment into any Go struct using field tags.
//   - Caches each successfully loaded configuration type so it is only
//     parsed once for the lifetime of the process.
//   - Exposes helpers that panic on failure (MustLoadEnv, MustLoad) for
//     configuration the application cannot start without.
//
// # Usage
//
// Describe the configuration as a struct with env tags:
//
//	type StorageConfig struct {
//		ConnURL  string `env:"PG_CONN_URL,required"`
//		MaxConns int    `env:"PG_MAX_OPEN_CONNS" envDefault:"10"`
//	}
//
// Then populate it:
//
//	var cfg StorageConfig
//	if err := config.Load(&cfg); err != nil {
//		log.Fatalf("parsing env: %v", err)
//	}
//
// Subsequent calls to config.Load for the same type are served from the
// in-memory cache without re-parsing.
//
// # Testing Helpers
//
// Use ResetCache to clear the global cache between tests, or
// ForceReloadConfig to reload one struct after the process environment
// changes.
package config
