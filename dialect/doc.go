// Package dialect provides the database dialect abstraction for codefirst.
//
// The model builder resolves column types per dialect, and the migrator and
// the concurrency-checked update builder run on top of a dialect Driver.
//
// # Supported Dialects
//
//	dialect.Postgres = "postgres"
//	dialect.MySQL    = "mysql"
//	dialect.SQLite   = "sqlite"
//
// # Driver Interface
//
//	type Driver interface {
//	    Exec(ctx context.Context, query string, args, v any) error
//	    Query(ctx context.Context, query string, args, v any) error
//	    Tx(ctx context.Context) (Tx, error)
//	    Close() error
//	    Dialect() string
//	}
//
// # Usage
//
//	drv, err := sql.Open(dialect.SQLite, "file:app.db?_pragma=foreign_keys(1)")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer drv.Close()
//
// # Sub-packages
//
//   - dialect/sql: database/sql driver and statement builders
//   - dialect/sql/schema: table model, validation and atlas migrations
//   - dialect/sqlschema: SQL annotations for fields and schemas
package dialect
