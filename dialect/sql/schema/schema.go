// Package schema holds the table definitions that codefirst derives from
// entity schemas and migrates them with Atlas.
package schema

import (
	"fmt"

	"github.com/syssam/codefirst/dialect"
	"github.com/syssam/codefirst/schema/field"
)

// Table schema definition for SQL dialects.
type Table struct {
	Name       string
	Schema     string
	Comment    string
	Columns    []*Column
	columns    map[string]*Column
	Indexes    []*Index
	PrimaryKey []*Column
	Checks     []*Check
}

// NewTable returns a new table with the given name.
func NewTable(name string) *Table {
	return &Table{
		Name:    name,
		columns: make(map[string]*Column),
	}
}

// SetComment sets the table comment.
func (t *Table) SetComment(c string) *Table {
	t.Comment = c
	return t
}

// SetSchema sets the database schema of the table.
func (t *Table) SetSchema(s string) *Table {
	t.Schema = s
	return t
}

// AddPrimary adds a new primary key to the table.
func (t *Table) AddPrimary(c *Column) *Table {
	c.Key = PrimaryKey
	t.AddColumn(c)
	t.PrimaryKey = append(t.PrimaryKey, c)
	return t
}

// AddColumn adds a new column to the table.
func (t *Table) AddColumn(c *Column) *Table {
	if t.columns == nil {
		t.columns = make(map[string]*Column)
	}
	t.columns[c.Name] = c
	t.Columns = append(t.Columns, c)
	return t
}

// HasColumn reports if the table contains a column with the given name.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.Column(name)
	return ok
}

// Column returns the column that matches the given name.
func (t *Table) Column(name string) (*Column, bool) {
	if c, ok := t.columns[name]; ok {
		return c, true
	}
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// AddIndex creates and adds a new index to the table from the given options.
func (t *Table) AddIndex(name string, unique bool, columns []string) *Table {
	idx := &Index{Name: name, Unique: unique}
	for _, name := range columns {
		if c, ok := t.Column(name); ok {
			idx.Columns = append(idx.Columns, c)
		}
	}
	t.Indexes = append(t.Indexes, idx)
	return t
}

// AddCheck adds a named CHECK constraint to the table.
func (t *Table) AddCheck(name, expr string) *Table {
	t.Checks = append(t.Checks, &Check{Name: name, Expr: expr})
	return t
}

// ConcurrencyTokens returns the names of the columns that guard updates.
func (t *Table) ConcurrencyTokens() []string {
	var names []string
	for _, c := range t.Columns {
		if c.ConcurrencyToken {
			names = append(names, c.Name)
		}
	}
	return names
}

// Column key types.
const (
	PrimaryKey = "PRI"
	UniqueKey  = "UNI"
)

// Column schema definition for SQL dialects.
type Column struct {
	Name             string                // column name.
	Type             field.Type            // column type.
	SchemaType       string                // provider specific type, resolved for the target dialect.
	Size             int64                 // max size parameter for string types.
	Precision        *uint8                // fractional seconds precision for temporal types.
	Key              string                // key definition (PRI, UNI or MUL).
	Unique           bool                  // column with unique constraint.
	Increment        bool                  // auto increment attribute.
	Nullable         bool                  // null or not null attribute.
	Default          string                // default value as a raw SQL expression.
	OnUpdate         string                // value set on update as a raw SQL expression.
	ConcurrencyToken bool                  // optimistic concurrency token.
	Generated        field.GeneratedOption // how the database produces values.
	Annotations      map[string]any        // column annotations set by the model.
	Comment          string                // optional column comment.
	Order            *int                  // explicit column position.
}

// UniqueKey returns boolean indicates if this column is a unique key.
// Used by the migration tool when parsing the `DESCRIBE TABLE` output Go objects.
func (c *Column) UniqueKey() bool { return c.Key == UniqueKey }

// PrimaryKey returns boolean indicates if this column is on of the primary key columns.
// Used by the migration tool when parsing the `DESCRIBE TABLE` output Go objects.
func (c *Column) PrimaryKey() bool { return c.Key == PrimaryKey }

// TypeName returns the column type in the given dialect, ignoring size and precision.
func (c *Column) TypeName(name string) (string, error) {
	if c.SchemaType != "" {
		return c.SchemaType, nil
	}
	switch c.Type {
	case field.TypeTime:
		switch name {
		case dialect.Postgres:
			return "timestamp", nil
		default:
			return "datetime", nil
		}
	case field.TypeTimeTZ:
		switch name {
		case dialect.Postgres:
			return "timestamptz", nil
		case dialect.MySQL:
			return "timestamp", nil
		default:
			return "datetime", nil
		}
	case field.TypeDuration:
		switch name {
		case dialect.Postgres:
			return "interval", nil
		case dialect.MySQL:
			return "time", nil
		default:
			return "integer", nil
		}
	case field.TypeInt, field.TypeInt64:
		if name == dialect.SQLite {
			return "integer", nil
		}
		return "bigint", nil
	case field.TypeBool:
		if name == dialect.Postgres {
			return "boolean", nil
		}
		return "bool", nil
	case field.TypeString:
		if name == dialect.SQLite || c.Size > maxVarcharSize {
			return "text", nil
		}
		return "varchar", nil
	}
	return "", fmt.Errorf("unsupported type %q for column %q", c.Type, c.Name)
}

const (
	defaultVarcharSize = 255
	maxVarcharSize     = 1 << 14
)

// Check is a CHECK constraint of a table.
type Check struct {
	Name string
	Expr string
}

// Index definition for table index.
type Index struct {
	Name    string
	Unique  bool
	Columns []*Column
}
