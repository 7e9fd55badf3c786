package gen

import (
	"fmt"
	"maps"

	"github.com/syssam/codefirst/dialect"
	"github.com/syssam/codefirst/dialect/sql/schema"
	"github.com/syssam/codefirst/schema/field"
)

// Tables returns the schema definitions of the tables of the graph for
// the given dialect. Types and fields annotated with sqlschema.Skip are
// left out.
func (g *Graph) Tables(name string) ([]*schema.Table, error) {
	if !dialect.Valid(name) {
		return nil, NewConfigError("Dialect", name, "unsupported dialect")
	}
	tables := make([]*schema.Table, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		ant := n.SQL()
		if ant != nil && ant.Skip {
			continue
		}
		t := schema.NewTable(n.Table())
		comments := true
		if ant != nil {
			t.SetSchema(ant.Schema)
			comments, _ = ant.GetWithComments()
			if ant.Check != "" {
				t.AddCheck(t.Name+"_check", ant.Check)
			}
		}
		for _, f := range n.Fields {
			fa := f.SQL()
			if fa != nil && fa.Skip {
				if f.Key {
					return nil, NewSchemaError(n.Name, f.Name, "key fields cannot be skipped", nil)
				}
				continue
			}
			c, err := f.column(name, comments)
			if err != nil {
				return nil, err
			}
			if f.Key {
				t.AddPrimary(c)
			} else {
				t.AddColumn(c)
			}
			if fa != nil && fa.Check != "" {
				t.AddCheck(fmt.Sprintf("%s_%s_check", t.Name, c.Name), fa.Check)
			}
		}
		tables = append(tables, t)
	}
	return tables, nil
}

// column builds the column of the field for the given dialect.
func (f Field) column(name string, comments bool) (*schema.Column, error) {
	c := &schema.Column{
		Name:             f.Column,
		Type:             f.Type.Type,
		SchemaType:       f.ColumnType(name),
		Precision:        f.Precision,
		Unique:           f.Unique,
		Nullable:         f.Nullable,
		ConcurrencyToken: f.ConcurrencyToken,
		Generated:        f.Generated,
		Annotations:      maps.Clone(f.ColumnAnnotations()),
		Order:            f.Order,
	}
	if p := f.Precision; p != nil && *p > schema.MaxPrecision && name != dialect.SQLite {
		return nil, NewSchemaError(f.typ.Name, f.Name, fmt.Sprintf("precision %d exceeds the maximum of %d supported by %s", *p, schema.MaxPrecision, name), nil)
	}
	ant := f.SQL()
	if ant != nil {
		if v, ok := ant.GetWithComments(); ok {
			comments = v
		}
		c.Default, _ = ant.DefaultFor(name)
	}
	if comments {
		c.Comment = f.Comment()
	}
	switch f.Generated {
	case field.GeneratedIdentity:
		switch {
		case f.Type.Type.Numeric():
			if !f.Key && name != dialect.Postgres {
				return nil, NewSchemaError(f.typ.Name, f.Name, fmt.Sprintf("identity columns that are not the key are not supported by %s", name), nil)
			}
			c.Increment = true
		case f.IsTime():
			if c.Default == "" {
				c.Default = currentTimestamp(name, f.Precision)
			}
		case c.Default == "":
			return nil, NewSchemaError(f.typ.Name, f.Name, fmt.Sprintf("identity %s fields require a sqlschema.DefaultExpr", f.Type), nil)
		}
	case field.GeneratedComputed:
		switch {
		case f.IsTime():
			now := currentTimestamp(name, f.Precision)
			if c.Default == "" {
				c.Default = now
			}
			c.OnUpdate = now
		case c.Default == "":
			return nil, NewSchemaError(f.typ.Name, f.Name, fmt.Sprintf("computed %s fields require a sqlschema.DefaultExpr", f.Type), nil)
		}
	}
	return c, nil
}

// currentTimestamp returns the expression that yields the current time.
// MySQL rejects a default with less fractional digits than the column.
func currentTimestamp(name string, precision *uint8) string {
	if name == dialect.MySQL && precision != nil && *precision > 0 {
		return fmt.Sprintf("CURRENT_TIMESTAMP(%d)", *precision)
	}
	return "CURRENT_TIMESTAMP"
}
