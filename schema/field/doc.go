// Package field provides fluent builders for configuring entity properties.
//
// Every call on a builder writes one facet to the property Descriptor and
// returns the same builder, so calls chain:
//
//	field.Time("modified_at").
//	    ColumnName("modified").
//	    ColumnType("datetime2").
//	    Precision(3).
//	    ConcurrencyToken().
//	    DatabaseGenerated(field.GeneratedComputed)
//
// The Descriptor is consumed later by the model builder (compiler/gen) and
// the migrator (dialect/sql/schema).
//
// # Time Properties
//
//	field.Time("created_at")   // date and time, no zone
//	field.TimeTZ("starts_at")  // date and time with offset
//	field.Duration("timeout")  // time span
//
// Time properties are required (NOT NULL) unless Optional is called.
//
// # Removable Facets
//
// Column order, concurrency token and database generated strategy accept a
// nil value through their Set variants. A removed facet is left to the
// model builder's conventions:
//
//	field.Time("at").SetConcurrencyToken(nil)
//	field.Time("at").SetDatabaseGenerated(nil)
//	field.Time("at").SetColumnOrder(nil)
//
// Column annotations are removed by passing a nil value:
//
//	field.Time("at").ColumnAnnotation("Audit", nil)
//
// # Errors
//
// Builders never panic. Invalid input (an empty column name, a negative
// order, a default of the wrong type) is recorded in Descriptor.Err and the
// loader rejects the field.
package field
