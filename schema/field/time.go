package field

import (
	"time"

	"github.com/syssam/codefirst/schema"
)

var (
	zeroTime     time.Time
	zeroDuration time.Duration
)

// TimeBuilder is the builder for date and time properties.
//
// It embeds the PrimitiveBuilder and re-declares every facet so each call
// returns the TimeBuilder and chaining keeps the time specific options
// (Precision, UpdateDefault) in reach.
type TimeBuilder struct {
	*PrimitiveBuilder
}

// Time returns a new Field with type time.Time stored without time zone.
//
//	field.Time("created_at").
//		Default(time.Now).
//		Precision(3)
func Time(name string) *TimeBuilder {
	return newTime(name, TypeTime, "time.Time")
}

// TimeTZ returns a new Field with type time.Time stored with its offset.
func TimeTZ(name string) *TimeBuilder {
	return newTime(name, TypeTimeTZ, "time.Time")
}

// Duration returns a new Field with type time.Duration stored as a time span.
func Duration(name string) *TimeBuilder {
	return newTime(name, TypeDuration, "time.Duration")
}

func newTime(name string, t Type, ident string) *TimeBuilder {
	b := newPrimitive(name, t)
	b.desc.Info.Ident = ident
	return &TimeBuilder{PrimitiveBuilder: b}
}

// Optional configures the property to be optional.
// The database column used to store this property will be nullable.
func (b *TimeBuilder) Optional() *TimeBuilder {
	b.PrimitiveBuilder.Optional()
	return b
}

// Required configures the property to be required.
// The database column used to store this property will be non-nullable.
// Time properties are required by default.
func (b *TimeBuilder) Required() *TimeBuilder {
	b.PrimitiveBuilder.Required()
	return b
}

// DatabaseGenerated configures how values for the property are generated by the database.
func (b *TimeBuilder) DatabaseGenerated(opt GeneratedOption) *TimeBuilder {
	b.PrimitiveBuilder.DatabaseGenerated(opt)
	return b
}

// SetDatabaseGenerated configures how values for the property are generated
// by the database. A nil option removes the facet, which behaves like GeneratedNone.
func (b *TimeBuilder) SetDatabaseGenerated(opt *GeneratedOption) *TimeBuilder {
	b.PrimitiveBuilder.SetDatabaseGenerated(opt)
	return b
}

// ConcurrencyToken configures the property to be used as an optimistic concurrency token.
func (b *TimeBuilder) ConcurrencyToken() *TimeBuilder {
	b.PrimitiveBuilder.ConcurrencyToken()
	return b
}

// SetConcurrencyToken configures whether the property is used as an
// optimistic concurrency token. A nil value removes the facet, which behaves like false.
func (b *TimeBuilder) SetConcurrencyToken(v *bool) *TimeBuilder {
	b.PrimitiveBuilder.SetConcurrencyToken(v)
	return b
}

// ColumnName configures the name of the database column used to store the property.
func (b *TimeBuilder) ColumnName(name string) *TimeBuilder {
	b.PrimitiveBuilder.ColumnName(name)
	return b
}

// ColumnAnnotation sets an annotation on the database column used to store
// the property. A nil value removes a previously set annotation.
func (b *TimeBuilder) ColumnAnnotation(name string, value any) *TimeBuilder {
	b.PrimitiveBuilder.ColumnAnnotation(name, value)
	return b
}

// ColumnType configures the provider specific data type of the database column.
func (b *TimeBuilder) ColumnType(typ string) *TimeBuilder {
	b.PrimitiveBuilder.ColumnType(typ)
	return b
}

// ColumnOrder configures the order of the database column used to store the
// property. It also defines the key ordering of composite keys.
func (b *TimeBuilder) ColumnOrder(order int) *TimeBuilder {
	b.PrimitiveBuilder.ColumnOrder(order)
	return b
}

// SetColumnOrder configures the column order. A nil order removes the facet.
func (b *TimeBuilder) SetColumnOrder(order *int) *TimeBuilder {
	b.PrimitiveBuilder.SetColumnOrder(order)
	return b
}

// Precision configures the fractional seconds precision of the property.
// Providers that do not support precision for the column type ignore it.
func (b *TimeBuilder) Precision(p uint8) *TimeBuilder {
	b.desc.Precision = &p
	return b
}

// PrimaryKey marks the property as part of the entity key.
func (b *TimeBuilder) PrimaryKey() *TimeBuilder {
	b.PrimitiveBuilder.PrimaryKey()
	return b
}

// Default sets the function that is applied to set default value
// of the field on creation. For example:
//
//	field.Time("created_at").
//		Default(time.Now)
func (b *TimeBuilder) Default(fn any) *TimeBuilder {
	b.desc.checkDefaultFunc(fn, "Default")
	b.desc.Default = fn
	return b
}

// UpdateDefault sets the function that is applied to set default value
// of the field on update. For example:
//
//	field.Time("updated_at").
//		Default(time.Now).
//		UpdateDefault(time.Now)
func (b *TimeBuilder) UpdateDefault(fn any) *TimeBuilder {
	b.desc.checkDefaultFunc(fn, "UpdateDefault")
	b.desc.UpdateDefault = fn
	return b
}

// Immutable indicates that this field cannot be updated.
func (b *TimeBuilder) Immutable() *TimeBuilder {
	b.PrimitiveBuilder.Immutable()
	return b
}

// Unique makes the field unique within all vertices of this type.
func (b *TimeBuilder) Unique() *TimeBuilder {
	b.PrimitiveBuilder.Unique()
	return b
}

// Comment sets the comment of the field.
func (b *TimeBuilder) Comment(c string) *TimeBuilder {
	b.PrimitiveBuilder.Comment(c)
	return b
}

// SchemaType overrides the default database type with a custom
// schema type (per dialect) for time.
//
//	field.Time("created_at").
//		SchemaType(map[string]string{
//			dialect.MySQL:    "datetime",
//			dialect.Postgres: "date",
//		})
func (b *TimeBuilder) SchemaType(types map[string]string) *TimeBuilder {
	b.PrimitiveBuilder.SchemaType(types)
	return b
}

// Annotations adds a list of annotations to the field object to be used by
// codegen extensions.
//
//	field.Time("deleted_at").
//		Annotations(sqlschema.Default("CURRENT_TIMESTAMP"))
func (b *TimeBuilder) Annotations(annotations ...schema.Annotation) *TimeBuilder {
	b.PrimitiveBuilder.Annotations(annotations...)
	return b
}

// Deprecated marks the field as deprecated.
func (b *TimeBuilder) Deprecated(reason ...string) *TimeBuilder {
	b.PrimitiveBuilder.Deprecated(reason...)
	return b
}
