package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ariga.io/atlas/sql/migrate"
	"github.com/fsnotify/fsnotify"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/codefirst/compiler/gen"
	"github.com/syssam/codefirst/dialect"
)

const orders = `
entities:
  - name: Order
    mixins: [row_version]
    properties:
      - name: id
        type: int
      - name: placed_at
        type: time
        order: 1
      - name: shipped_at
        type: time
        optional: true
        comment: set by the carrier
`

func writeModel(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "model.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestPlan(t *testing.T) {
	out, err := run(t, "plan", "-m", writeModel(t, orders))
	require.NoError(t, err)
	assert.Contains(t, out, "CREATE TABLE `orders`")
	assert.Contains(t, out, "`placed_at` datetime NOT NULL")
	assert.Contains(t, out, "`shipped_at` datetime NULL")
	assert.Regexp(t, "`placed_at`.*`modified_at`.*`id`", out)
}

func TestPlan_Example(t *testing.T) {
	out, err := run(t, "plan", "-m", filepath.Join("..", "..", "examples", "orders", "model.yaml"))
	require.NoError(t, err)
	assert.Contains(t, out, "CREATE TABLE `orders` (`placed` datetime NOT NULL")
	assert.Contains(t, out, "`received_at` datetime NOT NULL DEFAULT (CURRENT_TIMESTAMP)")
	assert.Contains(t, out, "`version` integer NOT NULL DEFAULT (1)")
	assert.Contains(t, out, "CONSTRAINT `orders_check` CHECK (shipped_at IS NULL OR shipped_at >= placed)")
}

func TestPlan_Errors(t *testing.T) {
	model := writeModel(t, orders)
	tests := map[string][]string{
		"model: open":                              {"plan", "-m", filepath.Join(t.TempDir(), "missing.yaml")},
		"unsupported dialect \"oracle\"":           {"plan", "-m", model, "--dialect", "oracle"},
		"--dsn is required for postgres":           {"plan", "-m", model, "--dialect", "postgres"},
		"invalid mysql dsn: missing database name": {"plan", "-m", model, "--dialect", "mysql", "--dsn", "root@tcp(localhost:3306)/"},
		"unknown migration format \"sqitch\"":      {"diff", "-m", model, "--format", "sqitch"},
	}
	for want, args := range tests {
		_, err := run(t, args...)
		require.Error(t, err, want)
		assert.Contains(t, err.Error(), want)
	}
}

func TestDBFlags_Source(t *testing.T) {
	f := &dbFlags{dialect: dialect.MySQL, dsn: "root:pass@tcp(localhost:3306)/shop?parseTime=true"}
	dsn, err := f.source()
	require.NoError(t, err)
	cfg, err := mysql.ParseDSN(dsn)
	require.NoError(t, err)
	assert.True(t, cfg.ClientFoundRows)
	assert.True(t, cfg.ParseTime)
	assert.Equal(t, "shop", cfg.DBName)

	dsn, err = (&dbFlags{dialect: dialect.SQLite}).source()
	require.NoError(t, err)
	assert.Equal(t, memoryDSN, dsn)
	dsn, err = (&dbFlags{dialect: dialect.Postgres, dsn: "postgres://localhost/shop"}).source()
	require.NoError(t, err)
	assert.Equal(t, "postgres://localhost/shop", dsn)
}

func TestDiff(t *testing.T) {
	dir := t.TempDir()
	_, err := run(t, "diff", "-m", writeModel(t, orders), "--dir", dir, "--format", "golang-migrate", "--name", "init")
	require.NoError(t, err)
	files, err := filepath.Glob(filepath.Join(dir, "*_init.up.sql"))
	require.NoError(t, err)
	require.Len(t, files, 1)
	buf, err := os.ReadFile(files[0])
	require.NoError(t, err)
	assert.Contains(t, string(buf), "CREATE TABLE `orders`")
}

func TestDiff_AtlasFormat(t *testing.T) {
	dir := t.TempDir()
	_, err := run(t, "diff", "-m", writeModel(t, orders), "--dir", dir, "--name", "init")
	require.NoError(t, err)
	d, err := migrate.NewLocalDir(dir)
	require.NoError(t, err)
	files, err := d.Files()
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.True(t, strings.HasSuffix(files[0].Name(), "_init.sql"), files[0].Name())
	assert.Contains(t, string(files[0].Bytes()), "CREATE TABLE `orders`")
	down, err := filepath.Glob(filepath.Join(dir, "*.down.sql"))
	require.NoError(t, err)
	assert.Empty(t, down)
	require.NoError(t, migrate.Validate(d))
}

func TestApply(t *testing.T) {
	_, err := run(t, "apply", "-m", writeModel(t, orders), "-v")
	require.NoError(t, err)
}

func TestGraphQL(t *testing.T) {
	model := writeModel(t, orders)
	out, err := run(t, "graphql", "-m", model)
	require.NoError(t, err)
	assert.Contains(t, out, "type Order {")
	assert.Contains(t, out, "placedAt: Time!")
	assert.Contains(t, out, "shippedAt: Time")

	path := filepath.Join(t.TempDir(), "schema.graphql")
	out, err = run(t, "graphql", "-m", model, "-o", path)
	require.NoError(t, err)
	assert.Empty(t, out)
	buf, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(buf), "type Order {")
}

func TestSnapshot(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "model")
	_, err := run(t, "snapshot", "-m", writeModel(t, orders), "--out", dir, "--workers", "2")
	require.NoError(t, err)
	for _, name := range []string{"snapshot.go", "order.go"} {
		buf, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err, name)
		assert.Contains(t, string(buf), "package model", name)
	}
}

func TestPlan_Baseline(t *testing.T) {
	dir := t.TempDir()
	_, err := run(t, "snapshot", "-m", writeModel(t, orders), "--out", dir)
	require.NoError(t, err)
	baseline := filepath.Join(dir, gen.SnapshotFile)

	_, err = run(t, "plan", "-m", writeModel(t, orders), "--baseline", baseline)
	require.NoError(t, err)

	required := writeModel(t, strings.Replace(orders, "        optional: true\n", "", 1))
	_, err = run(t, "plan", "-m", required, "--baseline", baseline)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "breaking changes since snapshot")
	assert.Contains(t, err.Error(), "orders.shipped_at: column changing from NULL to NOT NULL")
	_, err = run(t, "plan", "-m", required, "--baseline", baseline, "--allow-not-null")
	require.NoError(t, err)

	dropped := writeModel(t, orders[:strings.Index(orders, "      - name: shipped_at")])
	_, err = run(t, "plan", "-m", dropped, "--baseline", baseline)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "orders.shipped_at: column will be dropped")
	_, err = run(t, "plan", "-m", dropped, "--baseline", baseline, "--drop-column")
	require.NoError(t, err)

	_, err = run(t, "plan", "-m", required, "--baseline", filepath.Join(dir, "missing.msgpack"))
	assert.ErrorContains(t, err, "read baseline")
}

func TestIsModelEvent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.yaml")
	tests := []struct {
		event fsnotify.Event
		want  bool
	}{
		{fsnotify.Event{Name: path, Op: fsnotify.Write}, true},
		{fsnotify.Event{Name: path, Op: fsnotify.Create}, true},
		{fsnotify.Event{Name: path, Op: fsnotify.Rename}, true},
		{fsnotify.Event{Name: path, Op: fsnotify.Chmod}, false},
		{fsnotify.Event{Name: path, Op: fsnotify.Remove}, false},
		{fsnotify.Event{Name: path + ".swp", Op: fsnotify.Write}, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, isModelEvent(tt.event, path), tt.event.String())
	}
}
