// Package sql implements the dialect.Driver interface over database/sql and
// provides the statements codefirst issues at runtime.
//
// # Drivers
//
//	drv, err := sql.Open(dialect.Postgres, dsn)
//	if err != nil {
//	    return err
//	}
//	defer drv.Close()
//
// Debug wraps any dialect.Driver and logs statements with log/slog at debug level:
//
//	drv = sql.Debug(drv, sql.DebugWithLogger(logger))
//
// # Optimistic Concurrency
//
// Columns configured with ConcurrencyToken are checked on update. The
// original value read by the caller becomes part of the WHERE clause, and an
// update that matches no row fails with a *codefirst.ConcurrencyError:
//
//	_, err := sql.Update(drv.Dialect(), "orders").
//	    Set("status", "shipped").
//	    Where("id", id).
//	    CheckToken("modified_at", loaded.ModifiedAt).
//	    Exec(ctx, drv)
//	if codefirst.IsConcurrencyError(err) {
//	    // reload and retry
//	}
package sql
