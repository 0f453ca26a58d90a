// Package pg provides the PostgreSQL layer for the authentication core:
// connection pooling over pgx/v5, goose schema migrations for the sessions
// table, health checks, and error classifiers that separate logical outcomes
// (no rows, duplicate key) from connectivity failures.
//
// The classifiers are what the session store builds its error taxonomy on:
// a duplicate key on insert means an identifier collision to regenerate,
// while anything the classifiers do not recognize is treated as a retryable
// infrastructure failure.
//
// # Usage
//
//	var cfg pg.Config
//	config.MustLoad(&cfg)
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//	    // database never became available, refuse to start
//	}
//	defer pool.Close()
//
//	if err := pg.Migrate(ctx, pool, cfg, slog.Default()); err != nil {
//	    // schema out of date and unfixable
//	}
//
// The pool is shared by all data access; size the session manager's async
// executor to cfg.MaxOpenConns so blocking work is bounded by it.
package pg
