// Package sqlschema provides SQL specific annotations for codefirst schemas.
//
// Import this package as:
//
//	import "github.com/syssam/codefirst/dialect/sqlschema"
//
// Functional style:
//
//	field.Time("published_at").
//		Annotations(sqlschema.DefaultExpr("CURRENT_TIMESTAMP"))
//
// Struct literal style:
//
//	sqlschema.Annotation{
//	    ColumnType: "datetime(3)",
//	    Check:      "published_at > created_at",
//	}
//
// # Schema Annotations
//
//	func (Order) Annotations() []schema.Annotation {
//	    return []schema.Annotation{
//	        sqlschema.Table("orders"),
//	    }
//	}
//
// # Dialect Defaults
//
//	field.Time("expires_at").
//		Annotations(sqlschema.DefaultExprs(map[string]string{
//			dialect.MySQL:    "(CURRENT_TIMESTAMP + INTERVAL 1 DAY)",
//			dialect.Postgres: "now() + interval '1 day'",
//		}))
package sqlschema

import (
	"maps"

	"github.com/syssam/codefirst/schema"
)

// AnnotationName is the name used for SQL annotations.
const AnnotationName = "sql"

// Annotation holds SQL specific settings for schemas and fields.
type Annotation struct {
	// Table overrides the database table name for an entity.
	Table string

	// Schema specifies the database schema of the entity table.
	Schema string

	// Skip excludes the field or entity from migrations.
	Skip bool

	// ColumnType sets a custom database column type.
	// The ColumnType field facet takes precedence over it.
	ColumnType string

	// Check adds a CHECK constraint expression.
	Check string

	// Default is the SQL literal default value.
	Default string

	// DefaultExpr is a SQL expression for the default value.
	DefaultExpr string

	// DefaultExprs provides dialect specific default expressions.
	DefaultExprs map[string]string

	// WithComments controls whether comments are stored.
	WithComments *bool
}

// Name implements schema.Annotation.
func (Annotation) Name() string {
	return AnnotationName
}

// Merge implements the schema.Merger interface.
// Set values of other override the values of a.
func (a Annotation) Merge(other schema.Annotation) schema.Annotation {
	var o Annotation
	switch v := other.(type) {
	case Annotation:
		o = v
	case *Annotation:
		if v == nil {
			return a
		}
		o = *v
	default:
		return a
	}
	return Merge(a, o)
}

var (
	_ schema.Annotation = (*Annotation)(nil)
	_ schema.Merger     = Annotation{}
)

// Table sets the database table name for an entity.
func Table(name string) Annotation {
	return Annotation{Table: name}
}

// Schema sets the database schema of the entity table.
func Schema(name string) Annotation {
	return Annotation{Schema: name}
}

// Skip marks the entity or field to be skipped in migrations.
func Skip() Annotation {
	return Annotation{Skip: true}
}

// WithComments controls whether the field comment is stored in the database.
// By default, comments are stored.
//
//	field.Time("synced_at").
//	    Comment("Internal bookkeeping").
//	    Annotations(sqlschema.WithComments(false))
func WithComments(enable bool) Annotation {
	return Annotation{WithComments: &enable}
}

// ColumnType sets a custom database column type.
//
//	field.Time("created_at").
//	    Annotations(sqlschema.ColumnType("datetime(3)"))
func ColumnType(typ string) Annotation {
	return Annotation{ColumnType: typ}
}

// Check adds a CHECK constraint to the column.
func Check(expr string) Annotation {
	return Annotation{Check: expr}
}

// Default sets a SQL literal default value for migrations.
// The value is used as-is in the DEFAULT clause.
//
//	field.Time("created_at").
//	    Default(time.Now).
//	    Annotations(sqlschema.Default("CURRENT_TIMESTAMP"))
func Default(value string) Annotation {
	return Annotation{Default: value}
}

// DefaultExpr sets a SQL expression as the default value for migrations.
// The expression is used as-is in the DEFAULT clause (not quoted).
func DefaultExpr(expr string) Annotation {
	return Annotation{DefaultExpr: expr}
}

// DefaultExprs sets dialect specific default expressions.
func DefaultExprs(exprs map[string]string) Annotation {
	return Annotation{DefaultExprs: exprs}
}

// GetWithComments returns whether comments should be stored and whether it was set.
func (a Annotation) GetWithComments() (bool, bool) {
	if a.WithComments == nil {
		return true, false
	}
	return *a.WithComments, true
}

// DefaultFor returns the default expression for the given dialect. Dialect
// expressions win over DefaultExpr, which wins over the Default literal.
func (a Annotation) DefaultFor(dialect string) (string, bool) {
	if expr, ok := a.DefaultExprs[dialect]; ok {
		return expr, true
	}
	if a.DefaultExpr != "" {
		return a.DefaultExpr, true
	}
	return a.Default, a.Default != ""
}

// Merge combines multiple SQL annotations into one.
// Later annotations override earlier ones.
func Merge(annotations ...Annotation) Annotation {
	result := Annotation{}
	for _, a := range annotations {
		if a.Table != "" {
			result.Table = a.Table
		}
		if a.Schema != "" {
			result.Schema = a.Schema
		}
		if a.Skip {
			result.Skip = a.Skip
		}
		if a.WithComments != nil {
			result.WithComments = a.WithComments
		}
		if a.ColumnType != "" {
			result.ColumnType = a.ColumnType
		}
		if a.Check != "" {
			result.Check = a.Check
		}
		if a.Default != "" {
			result.Default = a.Default
		}
		if a.DefaultExpr != "" {
			result.DefaultExpr = a.DefaultExpr
		}
		if len(a.DefaultExprs) > 0 {
			if result.DefaultExprs == nil {
				result.DefaultExprs = make(map[string]string, len(a.DefaultExprs))
			}
			maps.Copy(result.DefaultExprs, a.DefaultExprs)
		}
	}
	return result
}

// Collect merges all SQL annotations found in the list. It returns false
// if the list holds none.
func Collect(annotations []schema.Annotation) (Annotation, bool) {
	var (
		found  bool
		result Annotation
	)
	for _, ann := range annotations {
		switch a := ann.(type) {
		case Annotation:
			result, found = Merge(result, a), true
		case *Annotation:
			if a != nil {
				result, found = Merge(result, *a), true
			}
		}
	}
	return result, found
}
