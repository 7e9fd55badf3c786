package schema

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"text/template"

	"ariga.io/atlas/sql/migrate"
	"ariga.io/atlas/sql/postgres"
	"ariga.io/atlas/sql/schema"
	"ariga.io/atlas/sql/sqltool"

	"github.com/syssam/codefirst/dialect"
	"github.com/syssam/codefirst/dialect/sql"
	"github.com/syssam/codefirst/schema/field"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func openSQLite(t *testing.T) *sql.Driver {
	t.Helper()
	drv, err := sql.Open(dialect.SQLite, "file:"+t.Name()+"?mode=memory&_pragma=foreign_keys(1)")
	require.NoError(t, err)
	drv.DB().SetMaxOpenConns(1)
	t.Cleanup(func() { drv.Close() })
	return drv
}

func ordersTable() *Table {
	t := NewTable("orders")
	t.AddPrimary(&Column{Name: "id", Type: field.TypeInt, Increment: true})
	t.AddColumn(&Column{Name: "placed_at", Type: field.TypeTime, Default: "CURRENT_TIMESTAMP", Generated: field.GeneratedIdentity})
	t.AddColumn(&Column{Name: "shipped_at", Type: field.TypeTime, Nullable: true})
	t.AddColumn(&Column{
		Name:             "modified_at",
		Type:             field.TypeTime,
		Precision:        ptr(uint8(3)),
		Default:          "CURRENT_TIMESTAMP",
		OnUpdate:         "CURRENT_TIMESTAMP",
		Generated:        field.GeneratedComputed,
		ConcurrencyToken: true,
	})
	return t
}

func ptr[T any](v T) *T { return &v }

func TestMigrate_Formatter(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)

	var m *Atlas
	for _, tt := range []struct {
		dir migrate.Dir
		fmt migrate.Formatter
	}{
		{&migrate.LocalDir{}, sqltool.GolangMigrateFormatter},
		{&sqltool.GolangMigrateDir{}, sqltool.GolangMigrateFormatter},
		{&sqltool.GooseDir{}, sqltool.GooseFormatter},
		{&sqltool.DBMateDir{}, sqltool.DBMateFormatter},
		{&sqltool.FlywayDir{}, sqltool.FlywayFormatter},
		{&sqltool.LiquibaseDir{}, sqltool.LiquibaseFormatter},
		{struct{ migrate.Dir }{}, sqltool.GolangMigrateFormatter},
	} {
		m, err = NewMigrate(sql.OpenDB(dialect.SQLite, db), WithDir(tt.dir))
		require.NoError(t, err)
		require.Equal(t, tt.fmt, m.fmt)
	}

	// A given formatter is not overridden.
	m, err = NewMigrate(sql.OpenDB(dialect.SQLite, db), WithDir(&migrate.LocalDir{}), WithFormatter(migrate.DefaultFormatter))
	require.NoError(t, err)
	require.Equal(t, migrate.DefaultFormatter, m.fmt)
}

func TestMigrate_UnsupportedDialect(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	m, err := NewMigrate(sql.OpenDB("oracle", db))
	require.NoError(t, err)
	require.ErrorContains(t, m.Create(context.Background(), ordersTable()), `unsupported dialect "oracle"`)
}

func TestMigrate_Create(t *testing.T) {
	ctx := context.Background()
	drv := openSQLite(t)

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	m, err := NewMigrate(drv, WithLogger(logger))
	require.NoError(t, err)
	require.NoError(t, m.Create(ctx, ordersTable()))
	assert.Contains(t, buf.String(), "applying schema changes")

	rows, err := drv.DB().QueryContext(ctx, "SELECT name, type, `notnull`, dflt_value FROM pragma_table_info('orders') ORDER BY cid")
	require.NoError(t, err)
	defer rows.Close()
	type info struct {
		name, typ string
		notNull   bool
		dflt      *string
	}
	var cols []info
	for rows.Next() {
		var c info
		require.NoError(t, rows.Scan(&c.name, &c.typ, &c.notNull, &c.dflt))
		// SQLite keeps the declared case of AUTOINCREMENT keys.
		c.typ = strings.ToLower(c.typ)
		cols = append(cols, c)
	}
	require.NoError(t, rows.Err())
	require.Len(t, cols, 4)
	assert.Equal(t, "id", cols[0].name)
	assert.Equal(t, "integer", cols[0].typ)
	assert.Equal(t, "placed_at", cols[1].name)
	assert.Equal(t, "datetime", cols[1].typ)
	assert.True(t, cols[1].notNull)
	require.NotNil(t, cols[1].dflt)
	assert.Equal(t, "CURRENT_TIMESTAMP", strings.Trim(*cols[1].dflt, "()"))
	assert.Equal(t, "shipped_at", cols[2].name)
	assert.False(t, cols[2].notNull)
	assert.Equal(t, "modified_at", cols[3].name)
}

func TestMigrate_Plan(t *testing.T) {
	ctx := context.Background()
	m, err := NewMigrate(openSQLite(t))
	require.NoError(t, err)

	users := NewTable("users")
	users.AddPrimary(&Column{Name: "id", Type: field.TypeInt, Increment: true})
	users.AddColumn(&Column{Name: "created_at", Type: field.TypeTime})
	plan, err := m.Plan(ctx, "add_users", users)
	require.NoError(t, err)
	assert.Equal(t, "add_users", plan.Name)
	require.Len(t, plan.Changes, 1)
	assert.Equal(t, "CREATE TABLE `users` (`id` integer NOT NULL PRIMARY KEY AUTOINCREMENT, `created_at` datetime NOT NULL)", plan.Changes[0].Cmd)

	// Diff hooks wrap the default differ.
	m, err = NewMigrate(openSQLite(t), WithDiffHook(func(Differ) Differ {
		return DiffFunc(func(_, _ *schema.Schema) ([]schema.Change, error) {
			return nil, nil
		})
	}))
	require.NoError(t, err)
	plan, err = m.Plan(ctx, "noop", users)
	require.NoError(t, err)
	assert.Empty(t, plan.Changes)
}

func TestMigrate_ColumnOrder(t *testing.T) {
	ctx := context.Background()
	m, err := NewMigrate(openSQLite(t))
	require.NoError(t, err)

	tbl := NewTable("events")
	tbl.AddColumn(&Column{Name: "happened_at", Type: field.TypeTime})
	tbl.AddColumn(&Column{Name: "id", Type: field.TypeInt, Order: ptr(0)})
	plan, err := m.Plan(ctx, "add_events", tbl)
	require.NoError(t, err)
	require.Len(t, plan.Changes, 1)
	assert.Equal(t, "CREATE TABLE `events` (`id` integer NOT NULL, `happened_at` datetime NOT NULL)", plan.Changes[0].Cmd)
}

func TestMigrate_ColumnHook(t *testing.T) {
	ctx := context.Background()
	readings := func() *Table {
		tbl := NewTable("readings")
		tbl.AddColumn(&Column{Name: "taken_at", Type: field.TypeTime})
		tbl.AddColumn(&Column{
			Name:        "taken_on",
			Type:        field.TypeString,
			Annotations: map[string]any{"Expr": "date(taken_at)"},
		})
		return tbl
	}
	generated := func(c *Column, ac *schema.Column) error {
		if x, ok := c.Annotations["Expr"].(string); ok {
			ac.AddAttrs(&schema.GeneratedExpr{Expr: x, Type: "VIRTUAL"})
		}
		return nil
	}

	m, err := NewMigrate(openSQLite(t))
	require.NoError(t, err)
	plan, err := m.Plan(ctx, "add_readings", readings())
	require.NoError(t, err)
	require.Len(t, plan.Changes, 1)
	assert.Equal(t, "CREATE TABLE `readings` (`taken_at` datetime NOT NULL, `taken_on` text NOT NULL)", plan.Changes[0].Cmd)

	m, err = NewMigrate(openSQLite(t), WithColumnHook(generated))
	require.NoError(t, err)
	plan, err = m.Plan(ctx, "add_readings", readings())
	require.NoError(t, err)
	require.Len(t, plan.Changes, 1)
	assert.Equal(t, "CREATE TABLE `readings` (`taken_at` datetime NOT NULL, `taken_on` text NOT NULL AS (date(taken_at)) VIRTUAL)", plan.Changes[0].Cmd)

	m, err = NewMigrate(openSQLite(t), WithColumnHook(func(c *Column, _ *schema.Column) error {
		if c.Annotations != nil {
			return errors.New("unknown annotation")
		}
		return nil
	}))
	require.NoError(t, err)
	_, err = m.Plan(ctx, "add_readings", readings())
	assert.ErrorContains(t, err, `table "readings": column "taken_on": unknown annotation`)
}

func TestMigrate_NamedDiff(t *testing.T) {
	ctx := context.Background()
	drv := openSQLite(t)

	p := t.TempDir()
	d, err := migrate.NewLocalDir(p)
	require.NoError(t, err)
	f, err := migrate.NewTemplateFormatter(
		template.Must(template.New("").Parse("{{ .Name }}.sql")),
		template.Must(template.New("").Parse(
			`{{ range .Changes }}{{ printf "%s;\n" .Cmd }}{{ end }}`,
		)),
	)
	require.NoError(t, err)

	m, err := NewMigrate(drv, WithDir(d), WithFormatter(f))
	require.NoError(t, err)
	tbl := NewTable("audits")
	tbl.AddColumn(&Column{Name: "logged_at", Type: field.TypeTime})
	require.NoError(t, m.NamedDiff(ctx, "add_audits", tbl))
	c, err := os.ReadFile(filepath.Join(p, "add_audits.sql"))
	require.NoError(t, err)
	assert.Equal(t, "CREATE TABLE `audits` (`logged_at` datetime NOT NULL);\n", string(c))
	require.FileExists(t, filepath.Join(p, migrate.HashFileName))
	require.NoError(t, migrate.Validate(d))

	// A tampered directory is rejected.
	require.NoError(t, d.WriteFile("tmp.sql", nil))
	require.ErrorIs(t, m.NamedDiff(ctx, "again", tbl), migrate.ErrChecksumMismatch)

	m, err = NewMigrate(drv)
	require.NoError(t, err)
	require.ErrorContains(t, m.Diff(ctx, tbl), "no migration directory")
}

func TestColumn_TypeName(t *testing.T) {
	tests := []struct {
		typ                   field.Type
		sqlite, pg, mysqlType string
	}{
		{field.TypeTime, "datetime", "timestamp", "datetime"},
		{field.TypeTimeTZ, "datetime", "timestamptz", "timestamp"},
		{field.TypeDuration, "integer", "interval", "time"},
		{field.TypeInt64, "integer", "bigint", "bigint"},
		{field.TypeBool, "bool", "boolean", "bool"},
		{field.TypeString, "text", "varchar", "varchar"},
	}
	for _, tt := range tests {
		t.Run(tt.typ.String(), func(t *testing.T) {
			c := &Column{Name: "c", Type: tt.typ}
			for d, want := range map[string]string{dialect.SQLite: tt.sqlite, dialect.Postgres: tt.pg, dialect.MySQL: tt.mysqlType} {
				got, err := c.TypeName(d)
				require.NoError(t, err)
				assert.Equal(t, want, got, d)
			}
		})
	}

	c := &Column{Name: "c", Type: field.TypeTime, SchemaType: "date"}
	got, err := c.TypeName(dialect.Postgres)
	require.NoError(t, err)
	assert.Equal(t, "date", got)

	_, err = (&Column{Name: "c"}).TypeName(dialect.SQLite)
	assert.Error(t, err)
}

func TestAtlas_Types(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)

	pg, err := NewMigrate(sql.OpenDB(dialect.Postgres, db))
	require.NoError(t, err)
	typ, err := pg.atType(&Column{Name: "ttl", Type: field.TypeDuration, Precision: ptr(uint8(0))})
	require.NoError(t, err)
	require.IsType(t, &postgres.IntervalType{}, typ)
	c, err := pg.atColumn(&Column{Name: "modified_at", Type: field.TypeTimeTZ, Precision: ptr(uint8(3))})
	require.NoError(t, err)
	tt, ok := c.Type.Type.(*schema.TimeType)
	require.True(t, ok)
	assert.Equal(t, "timestamptz", tt.T)
	require.NotNil(t, tt.Precision)
	assert.Equal(t, 3, *tt.Precision)

	my, err := NewMigrate(sql.OpenDB(dialect.MySQL, db))
	require.NoError(t, err)
	c, err = my.atColumn(&Column{Name: "modified_at", Type: field.TypeTime, Default: "CURRENT_TIMESTAMP", OnUpdate: "CURRENT_TIMESTAMP"})
	require.NoError(t, err)
	require.Len(t, c.Attrs, 1)
	require.NotNil(t, c.Default)
	assert.Equal(t, "CURRENT_TIMESTAMP", c.Default.(*schema.RawExpr).X)

	c, err = my.atColumn(&Column{Name: "legacy", Type: field.TypeTime, SchemaType: "datetime(6)"})
	require.NoError(t, err)
	tt, ok = c.Type.Type.(*schema.TimeType)
	require.True(t, ok)
	assert.Equal(t, "datetime", tt.T)
}
