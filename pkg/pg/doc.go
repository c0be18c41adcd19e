// Package pg provides utilities for interacting with PostgreSQL using the
// pgx/v5 driver. It offers a thin layer around connection pooling, schema
// migrations, health checks, and common error helpers so the service can
// bootstrap its database with a few lines of code.
//
// The package keeps a small API surface and relies on upstream libraries
// (pgx/v5 for connectivity, goose/v3 for migrations) so callers can freely
// extend the behaviour where needed.
//
// # Usage
//
//	var cfg pg.Config
//	config.MustLoad(&cfg)
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		panic(err)
//	}
//	defer pool.Close()
//
//	if err := pg.MigrateFS(ctx, pool, cfg, slog.Default(), migrations.FS, "."); err != nil {
//		panic(err)
//	}
//
// All configuration values are provided through environment variables; see
// the field tags on Config for variable names and defaults.
//
// Error helpers such as [IsDuplicateKeyError] and [IsNotFoundError] unwrap
// pgx and *pgconn.PgError values so storage code can classify failures
// without inspecting SQLSTATE codes inline.
package pg
