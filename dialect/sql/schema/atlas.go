package schema

import (
	"cmp"
	"context"
	stdsql "database/sql"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"ariga.io/atlas/sql/migrate"
	"ariga.io/atlas/sql/mysql"
	"ariga.io/atlas/sql/postgres"
	"ariga.io/atlas/sql/schema"
	"ariga.io/atlas/sql/sqlite"
	"ariga.io/atlas/sql/sqltool"

	"github.com/syssam/codefirst/dialect"
	"github.com/syssam/codefirst/dialect/sql"
	"github.com/syssam/codefirst/schema/field"
)

type (
	// Differ is the interface that wraps the Diff method.
	Differ interface {
		// Diff returns the changes that need to be applied to bring
		// the current schema to the desired one.
		Diff(current, desired *schema.Schema) ([]schema.Change, error)
	}

	// The DiffFunc type is an adapter to allow the use of ordinary function as Differ.
	DiffFunc func(current, desired *schema.Schema) ([]schema.Change, error)

	// DiffHook defines the "diff middleware". A function that gets a Differ and returns a Differ.
	DiffHook func(Differ) Differ

	// ColumnHook is called with every column of the model and the Atlas
	// column built for it, before the schemas are compared. It is the place
	// where column annotations become attributes of the migration.
	ColumnHook func(*Column, *schema.Column) error
)

// Diff calls f(current, desired).
func (f DiffFunc) Diff(current, desired *schema.Schema) ([]schema.Change, error) {
	return f(current, desired)
}

// Atlas atlas migration engine.
type Atlas struct {
	drv         dialect.Driver
	dialect     string
	schema      string
	dropColumns bool
	dropIndexes bool
	diffHooks   []DiffHook
	columnHooks []ColumnHook
	dir         migrate.Dir
	fmt         migrate.Formatter
	logger      *slog.Logger
}

// MigrateOption allows configuring Atlas using functional arguments.
type MigrateOption func(*Atlas)

// WithSchemaName sets the database schema the tables are migrated in.
// An empty name selects the schema of the connection.
func WithSchemaName(name string) MigrateOption {
	return func(a *Atlas) {
		a.schema = name
	}
}

// WithDropColumn sets the columns dropping option to the migration.
// Defaults to false.
func WithDropColumn(b bool) MigrateOption {
	return func(a *Atlas) {
		a.dropColumns = b
	}
}

// WithDropIndex sets the indexes dropping option to the migration.
// Defaults to false.
func WithDropIndex(b bool) MigrateOption {
	return func(a *Atlas) {
		a.dropIndexes = b
	}
}

// WithDiffHook adds a list of DiffHook to the schema migration.
//
//	schema.WithDiffHook(func(next schema.Differ) schema.Differ {
//		return schema.DiffFunc(func(current, desired *atlas.Schema) ([]atlas.Change, error) {
//			// Code before standard diff.
//			changes, err := next.Diff(current, desired)
//			if err != nil {
//				return nil, err
//			}
//			// After diff, you can filter
//			// changes or return new ones.
//			return changes, nil
//		})
//	})
func WithDiffHook(hooks ...DiffHook) MigrateOption {
	return func(a *Atlas) {
		a.diffHooks = append(a.diffHooks, hooks...)
	}
}

// WithColumnHook adds a list of ColumnHook to the schema migration.
//
//	schema.WithColumnHook(func(c *schema.Column, ac *atlas.Column) error {
//		if v, ok := c.Annotations["Collation"].(string); ok {
//			ac.AddAttrs(&atlas.Collation{V: v})
//		}
//		return nil
//	})
func WithColumnHook(hooks ...ColumnHook) MigrateOption {
	return func(a *Atlas) {
		a.columnHooks = append(a.columnHooks, hooks...)
	}
}

// WithDir sets the atlas migration directory to use to store migration files.
func WithDir(dir migrate.Dir) MigrateOption {
	return func(a *Atlas) {
		a.dir = dir
	}
}

// WithFormatter sets atlas formatter to use to write changes to migration files.
func WithFormatter(fmt migrate.Formatter) MigrateOption {
	return func(a *Atlas) {
		a.fmt = fmt
	}
}

// WithLogger sets the logger used to report planned and applied changes.
func WithLogger(l *slog.Logger) MigrateOption {
	return func(a *Atlas) {
		a.logger = l
	}
}

// NewMigrate creates a new Atlas form the given dialect driver.
func NewMigrate(drv dialect.Driver, opts ...MigrateOption) (*Atlas, error) {
	a := &Atlas{drv: drv, dialect: drv.Dialect(), logger: slog.Default()}
	for _, opt := range opts {
		opt(a)
	}
	if a.dir != nil && a.fmt == nil {
		switch a.dir.(type) {
		case *sqltool.GooseDir:
			a.fmt = sqltool.GooseFormatter
		case *sqltool.DBMateDir:
			a.fmt = sqltool.DBMateFormatter
		case *sqltool.FlywayDir:
			a.fmt = sqltool.FlywayFormatter
		case *sqltool.LiquibaseDir:
			a.fmt = sqltool.LiquibaseFormatter
		default:
			a.fmt = sqltool.GolangMigrateFormatter
		}
	}
	return a, nil
}

// Create creates all schema resources in the database. It works in an "append-only"
// mode, which means, it only creates tables, appends columns to tables or modifies
// column types. Tables are never dropped; columns and indexes are dropped only when
// enabled with WithDropColumn and WithDropIndex.
func (a *Atlas) Create(ctx context.Context, tables ...*Table) error {
	drv, err := a.atlasDriver()
	if err != nil {
		return err
	}
	changes, err := a.changes(ctx, drv, tables)
	if err != nil {
		return err
	}
	if len(changes) == 0 {
		a.logger.InfoContext(ctx, "schema is up to date", "dialect", a.dialect)
		return nil
	}
	a.logger.InfoContext(ctx, "applying schema changes", "dialect", a.dialect, "changes", len(changes))
	if err := drv.ApplyChanges(ctx, changes); err != nil {
		return fmt.Errorf("sql/schema: apply changes: %w", err)
	}
	return nil
}

// Plan returns the migration plan that brings the database to the given tables.
func (a *Atlas) Plan(ctx context.Context, name string, tables ...*Table) (*migrate.Plan, error) {
	drv, err := a.atlasDriver()
	if err != nil {
		return nil, err
	}
	changes, err := a.changes(ctx, drv, tables)
	if err != nil {
		return nil, err
	}
	if len(changes) == 0 {
		return &migrate.Plan{Name: name}, nil
	}
	plan, err := drv.PlanChanges(ctx, name, changes)
	if err != nil {
		return nil, fmt.Errorf("sql/schema: plan changes: %w", err)
	}
	return plan, nil
}

// Diff compares the state read from the connected database with the given tables
// and writes the changes to the migration directory.
func (a *Atlas) Diff(ctx context.Context, tables ...*Table) error {
	return a.NamedDiff(ctx, "changes", tables...)
}

// NamedDiff compares the state read from the connected database with the given tables
// and writes the changes to a migration file with the given name.
func (a *Atlas) NamedDiff(ctx context.Context, name string, tables ...*Table) error {
	if a.dir == nil {
		return errors.New("sql/schema: no migration directory given")
	}
	if err := migrate.Validate(a.dir); err != nil {
		return fmt.Errorf("sql/schema: validating migration directory: %w", err)
	}
	plan, err := a.Plan(ctx, name, tables...)
	if err != nil {
		return err
	}
	if len(plan.Changes) == 0 {
		a.logger.InfoContext(ctx, "no schema changes to write", "name", name)
		return nil
	}
	if err := migrate.NewPlanner(nil, a.dir, migrate.PlanFormat(a.fmt)).WritePlan(plan); err != nil {
		return fmt.Errorf("sql/schema: write plan: %w", err)
	}
	a.logger.InfoContext(ctx, "migration file written", "name", name, "changes", len(plan.Changes))
	return nil
}

func (a *Atlas) atlasDriver() (migrate.Driver, error) {
	conn := &db{ExecQuerier: a.drv}
	switch a.dialect {
	case dialect.SQLite:
		return sqlite.Open(conn)
	case dialect.Postgres:
		return postgres.Open(conn)
	case dialect.MySQL:
		return mysql.Open(conn)
	default:
		return nil, fmt.Errorf("sql/schema: unsupported dialect %q", a.dialect)
	}
}

func (a *Atlas) changes(ctx context.Context, drv migrate.Driver, tables []*Table) ([]schema.Change, error) {
	current, err := drv.InspectSchema(ctx, a.schema, &schema.InspectOptions{
		Mode: schema.InspectTables,
	})
	if err != nil {
		return nil, fmt.Errorf("sql/schema: inspect schema: %w", err)
	}
	desired, err := a.realm(current.Name, tables)
	if err != nil {
		return nil, err
	}
	skip := []schema.Change{&schema.DropTable{}}
	if !a.dropColumns {
		skip = append(skip, &schema.DropColumn{})
	}
	if !a.dropIndexes {
		skip = append(skip, &schema.DropIndex{})
	}
	var differ Differ = DiffFunc(func(current, desired *schema.Schema) ([]schema.Change, error) {
		return drv.SchemaDiff(current, desired, schema.DiffSkipChanges(skip...))
	})
	for i := len(a.diffHooks) - 1; i >= 0; i-- {
		differ = a.diffHooks[i](differ)
	}
	return differ.Diff(current, desired)
}

// realm converts the tables to an Atlas schema with the given name.
func (a *Atlas) realm(name string, tables []*Table) (*schema.Schema, error) {
	s := schema.New(name)
	for _, t := range tables {
		at, err := a.atTable(t)
		if err != nil {
			return nil, err
		}
		s.AddTables(at)
	}
	return s, nil
}

func (a *Atlas) atTable(t *Table) (*schema.Table, error) {
	at := schema.NewTable(t.Name)
	if t.Comment != "" {
		at.SetComment(t.Comment)
	}
	columns := slices.Clone(t.Columns)
	slices.SortStableFunc(columns, func(x, y *Column) int {
		switch {
		case x.Order != nil && y.Order != nil:
			return cmp.Compare(*x.Order, *y.Order)
		case x.Order != nil:
			return -1
		case y.Order != nil:
			return 1
		}
		return 0
	})
	for _, c := range columns {
		ac, err := a.atColumn(c)
		if err != nil {
			return nil, fmt.Errorf("sql/schema: table %q: %w", t.Name, err)
		}
		at.AddColumns(ac)
		if c.Unique && !c.PrimaryKey() {
			at.AddIndexes(schema.NewUniqueIndex(fmt.Sprintf("%s_%s_key", t.Name, c.Name)).AddColumns(ac))
		}
	}
	if len(t.PrimaryKey) > 0 {
		pk := make([]*schema.Column, 0, len(t.PrimaryKey))
		for _, c := range t.PrimaryKey {
			ac, ok := at.Column(c.Name)
			if !ok {
				return nil, fmt.Errorf("sql/schema: table %q: primary key column %q not found", t.Name, c.Name)
			}
			pk = append(pk, ac)
		}
		at.SetPrimaryKey(schema.NewPrimaryKey(pk...))
	}
	for _, idx := range t.Indexes {
		ai := schema.NewIndex(idx.Name).SetUnique(idx.Unique)
		for _, c := range idx.Columns {
			if ac, ok := at.Column(c.Name); ok {
				ai.AddColumns(ac)
			}
		}
		at.AddIndexes(ai)
	}
	for _, c := range t.Checks {
		at.AddChecks(schema.NewCheck().SetName(c.Name).SetExpr(c.Expr))
	}
	return at, nil
}

func (a *Atlas) atColumn(c *Column) (*schema.Column, error) {
	t, err := a.atType(c)
	if err != nil {
		return nil, err
	}
	ac := schema.NewColumn(c.Name).SetType(t).SetNull(c.Nullable)
	if c.Default != "" {
		ac.SetDefault(&schema.RawExpr{X: c.Default})
	}
	if c.Comment != "" {
		ac.SetComment(c.Comment)
	}
	if c.OnUpdate != "" {
		switch a.dialect {
		case dialect.MySQL:
			ac.AddAttrs(&mysql.OnUpdate{A: c.OnUpdate})
		default:
			a.logger.Warn("on update expressions are only maintained by mysql, refresh the column with sql.UpdateBuilder.CheckTimestamp", "column", c.Name, "dialect", a.dialect)
		}
	}
	if c.Increment {
		switch a.dialect {
		case dialect.MySQL:
			ac.AddAttrs(&mysql.AutoIncrement{})
		case dialect.SQLite:
			ac.AddAttrs(&sqlite.AutoIncrement{})
		case dialect.Postgres:
			ac.AddAttrs(&postgres.Identity{Generation: "BY DEFAULT"})
		}
	}
	for _, h := range a.columnHooks {
		if err := h(c, ac); err != nil {
			return nil, fmt.Errorf("column %q: %w", c.Name, err)
		}
	}
	return ac, nil
}

func (a *Atlas) atType(c *Column) (schema.Type, error) {
	if c.SchemaType != "" {
		return a.parseType(c.SchemaType)
	}
	name, err := c.TypeName(a.dialect)
	if err != nil {
		return nil, err
	}
	var precision *int
	if c.Precision != nil {
		precision = new(int)
		*precision = int(*c.Precision)
	}
	switch c.Type {
	case field.TypeTime, field.TypeTimeTZ:
		return &schema.TimeType{T: name, Precision: precision}, nil
	case field.TypeDuration:
		switch a.dialect {
		case dialect.Postgres:
			return &postgres.IntervalType{T: name, Precision: precision}, nil
		case dialect.MySQL:
			return &schema.TimeType{T: name, Precision: precision}, nil
		default:
			return &schema.IntegerType{T: name}, nil
		}
	case field.TypeInt, field.TypeInt64:
		return &schema.IntegerType{T: name}, nil
	case field.TypeBool:
		return &schema.BoolType{T: name}, nil
	case field.TypeString:
		if name == "varchar" {
			size := int(c.Size)
			if size == 0 {
				size = defaultVarcharSize
			}
			return &schema.StringType{T: name, Size: size}, nil
		}
		return &schema.StringType{T: name}, nil
	}
	return nil, fmt.Errorf("unsupported type %q for column %q", c.Type, c.Name)
}

func (a *Atlas) parseType(typ string) (schema.Type, error) {
	switch a.dialect {
	case dialect.MySQL:
		return mysql.ParseType(typ)
	case dialect.Postgres:
		return postgres.ParseType(typ)
	default:
		return sqlite.ParseType(typ)
	}
}

// db is a wrapper around dialect.ExecQuerier that implements the
// Atlas schema.ExecQuerier, so statements flow through the driver
// and its wrappers like sql.DebugDriver.
type db struct{ dialect.ExecQuerier }

func (d *db) QueryContext(ctx context.Context, query string, args ...any) (*stdsql.Rows, error) {
	rows := &sql.Rows{}
	if err := d.ExecQuerier.Query(ctx, query, args, rows); err != nil {
		return nil, err
	}
	r, ok := rows.ColumnScanner.(*stdsql.Rows)
	if !ok {
		return nil, fmt.Errorf("sql/schema: unexpected rows type %T", rows.ColumnScanner)
	}
	return r, nil
}

func (d *db) ExecContext(ctx context.Context, query string, args ...any) (stdsql.Result, error) {
	var r stdsql.Result
	if err := d.ExecQuerier.Exec(ctx, query, args, &r); err != nil {
		return nil, err
	}
	return r, nil
}
