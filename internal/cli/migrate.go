package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"ariga.io/atlas/sql/migrate"
	"ariga.io/atlas/sql/sqltool"
	"github.com/go-sql-driver/mysql"
	"github.com/spf13/cobra"

	"github.com/syssam/codefirst/compiler/gen"
	"github.com/syssam/codefirst/dialect"
	"github.com/syssam/codefirst/dialect/sql"
	"github.com/syssam/codefirst/dialect/sql/schema"

	// Drivers of the supported dialects.
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// memoryDSN is used when no data source is given for SQLite.
const memoryDSN = "file:codefirst?mode=memory&_pragma=foreign_keys(1)"

// dbFlags select the database to compare the model with.
type dbFlags struct {
	dialect      string
	dsn          string
	dropColumn   bool
	dropIndex    bool
	baseline     string
	allowNotNull bool
}

func (f *dbFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.dialect, "dialect", dialect.SQLite, "Database dialect: sqlite, postgres or mysql")
	cmd.Flags().StringVar(&f.dsn, "dsn", "", "Data source name (default an in-memory SQLite database)")
	cmd.Flags().BoolVar(&f.dropColumn, "drop-column", false, "Drop columns that are no longer declared")
	cmd.Flags().BoolVar(&f.dropIndex, "drop-index", false, "Drop indexes that are no longer declared")
	cmd.Flags().StringVar(&f.baseline, "baseline", "", "Snapshot file ("+gen.SnapshotFile+") to check the model against for breaking changes")
	cmd.Flags().BoolVar(&f.allowNotNull, "allow-not-null", false, "Allow nullable columns to become NOT NULL")
}

// source validates the flags and returns the data source name.
func (f *dbFlags) source() (string, error) {
	if !dialect.Valid(f.dialect) {
		return "", fmt.Errorf("unsupported dialect %q", f.dialect)
	}
	switch f.dialect {
	case dialect.SQLite:
		if f.dsn == "" {
			return memoryDSN, nil
		}
	case dialect.MySQL:
		cfg, err := mysql.ParseDSN(f.dsn)
		if err != nil {
			return "", fmt.Errorf("invalid mysql dsn: %w", err)
		}
		if cfg.DBName == "" {
			return "", errors.New("invalid mysql dsn: missing database name")
		}
		// Concurrency checks count the matched rows, not the changed ones.
		cfg.ClientFoundRows = true
		return cfg.FormatDSN(), nil
	default:
		if f.dsn == "" {
			return "", fmt.Errorf("--dsn is required for %s", f.dialect)
		}
	}
	return f.dsn, nil
}

// open opens the database and returns the driver for the migrator and the
// closer of the underlying connection.
func (o *options) open(name, dsn string) (dialect.Driver, io.Closer, error) {
	drv, err := sql.Open(name, dsn)
	if err != nil {
		return nil, nil, err
	}
	if name == dialect.SQLite {
		// Every connection to an in-memory database opens a new one.
		drv.DB().SetMaxOpenConns(1)
	}
	if o.verbose {
		return sql.Debug(drv, sql.DebugWithLogger(o.logger)), drv, nil
	}
	return drv, drv, nil
}

// migrator opens the database and builds the tables of the model for it.
func (o *options) migrator(f *dbFlags, opts ...schema.MigrateOption) (*schema.Atlas, []*schema.Table, io.Closer, error) {
	dsn, err := f.source()
	if err != nil {
		return nil, nil, nil, err
	}
	g, err := o.graph()
	if err != nil {
		return nil, nil, nil, err
	}
	tables, err := g.Tables(f.dialect)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := o.validate(f.dialect, tables); err != nil {
		return nil, nil, nil, err
	}
	if f.baseline != "" {
		if err := o.compare(f, tables); err != nil {
			return nil, nil, nil, err
		}
	}
	drv, closer, err := o.open(f.dialect, dsn)
	if err != nil {
		return nil, nil, nil, err
	}
	opts = append([]schema.MigrateOption{
		schema.WithLogger(o.logger),
		schema.WithDropColumn(f.dropColumn),
		schema.WithDropIndex(f.dropIndex),
	}, opts...)
	m, err := schema.NewMigrate(drv, opts...)
	if err != nil {
		closer.Close()
		return nil, nil, nil, err
	}
	return m, tables, closer, nil
}

// validate logs the warnings of the tables and fails on errors.
func (o *options) validate(name string, tables []*schema.Table) error {
	res := schema.ValidateSchema(tables, schema.ForDialect(name))
	o.warn(res)
	if res.HasErrors() {
		return fmt.Errorf("invalid model:\n%s", res)
	}
	return nil
}

// compare checks the tables against the snapshot of the baseline file and
// fails on breaking changes the flags do not allow.
func (o *options) compare(f *dbFlags, tables []*schema.Table) error {
	buf, err := os.ReadFile(f.baseline)
	if err != nil {
		return fmt.Errorf("read baseline: %w", err)
	}
	s, err := gen.DecodeSnapshot(buf)
	if err != nil {
		return err
	}
	current, err := s.Tables()
	if err != nil {
		return err
	}
	var opts []schema.ValidateOption
	if f.dropColumn {
		opts = append(opts, schema.AllowDropColumn())
	}
	if f.dropIndex {
		opts = append(opts, schema.AllowDropIndex())
	}
	if f.allowNotNull {
		opts = append(opts, schema.AllowNullToNotNull())
	}
	res := schema.ValidateDiff(current, tables, opts...)
	o.warn(res)
	if res.HasErrors() {
		return fmt.Errorf("breaking changes since snapshot %s:\n%s", s.ID, res)
	}
	if res.HasBreakingChanges() {
		o.logger.Warn("breaking changes allowed by flags", "snapshot", s.ID)
	}
	o.logger.Debug("model checked against baseline", "snapshot", s.ID)
	return nil
}

func (o *options) warn(res *schema.ValidationResult) {
	for _, w := range res.Warnings {
		o.logger.Warn(w.Message, "table", w.Table, "column", w.Column, "breaking", w.Breaking)
	}
}

func newPlanCmd(opts *options) *cobra.Command {
	f := &dbFlags{}
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Print the statements that bring the database to the model",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.plan(cmd.Context(), cmd.OutOrStdout(), f)
		},
	}
	f.register(cmd)
	return cmd
}

func (o *options) plan(ctx context.Context, out io.Writer, f *dbFlags) error {
	m, tables, closer, err := o.migrator(f)
	if err != nil {
		return err
	}
	defer closer.Close()
	plan, err := m.Plan(ctx, "changes", tables...)
	if err != nil {
		return err
	}
	if len(plan.Changes) == 0 {
		fmt.Fprintln(out, "-- schema is up to date")
		return nil
	}
	for _, c := range plan.Changes {
		if c.Comment != "" {
			fmt.Fprintf(out, "-- %s\n", c.Comment)
		}
		fmt.Fprintf(out, "%s;\n", c.Cmd)
	}
	return nil
}

func newApplyCmd(opts *options) *cobra.Command {
	f := &dbFlags{}
	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Apply the schema changes of the model to the database",
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, tables, closer, err := opts.migrator(f)
			if err != nil {
				return err
			}
			defer closer.Close()
			return m.Create(cmd.Context(), tables...)
		},
	}
	f.register(cmd)
	return cmd
}

func newDiffCmd(opts *options) *cobra.Command {
	var (
		f      = &dbFlags{}
		dir    string
		format string
		name   string
	)
	cmd := &cobra.Command{
		Use:   "diff",
		Short: "Write the schema changes of the model to a versioned migration file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := migrationDir(format, dir)
			if err != nil {
				return err
			}
			migrateOpts := []schema.MigrateOption{schema.WithDir(d)}
			if format == "atlas" {
				migrateOpts = append(migrateOpts, schema.WithFormatter(migrate.DefaultFormatter))
			}
			m, tables, closer, err := opts.migrator(f, migrateOpts...)
			if err != nil {
				return err
			}
			defer closer.Close()
			return m.NamedDiff(cmd.Context(), name, tables...)
		},
	}
	f.register(cmd)
	cmd.Flags().StringVar(&dir, "dir", "migrations", "Migration directory")
	cmd.Flags().StringVar(&format, "format", "atlas", "Migration file format: atlas, golang-migrate, goose, dbmate, flyway or liquibase")
	cmd.Flags().StringVar(&name, "name", "changes", "Name of the migration file")
	return cmd
}

// migrationDir opens the migration directory in the given format.
func migrationDir(format, path string) (migrate.Dir, error) {
	switch format {
	case "atlas":
		return migrate.NewLocalDir(path)
	case "golang-migrate":
		return sqltool.NewGolangMigrateDir(path)
	case "goose":
		return sqltool.NewGooseDir(path)
	case "dbmate":
		return sqltool.NewDBMateDir(path)
	case "flyway":
		return sqltool.NewFlywayDir(path)
	case "liquibase":
		return sqltool.NewLiquibaseDir(path)
	}
	return nil, fmt.Errorf("unknown migration format %q", format)
}
