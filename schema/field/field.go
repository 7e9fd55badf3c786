package field

import (
	"errors"
	"fmt"
	"maps"
	"reflect"
	"regexp"
	"strings"

	"github.com/syssam/codefirst/schema"
)

// A Descriptor for field configuration.
//
// Facets that can be removed from a property are pointers: nil means the
// model builder applies its convention.
type Descriptor struct {
	Name              string              // field name.
	Info              *TypeInfo           // field type info.
	Key               bool                // part of the primary key.
	Nullable          *bool               // nullable column.
	ColumnName        string              // column name override.
	ColumnType        string              // provider specific column type.
	ColumnOrder       *int                // column position in the table.
	Precision         *uint8              // fractional seconds precision.
	ConcurrencyToken  *bool               // optimistic concurrency token.
	Generated         *GeneratedOption    // database generated value strategy.
	ColumnAnnotations map[string]any      // column annotations for migrations.
	Default           any                 // default value on create.
	UpdateDefault     any                 // default value on update.
	Immutable         bool                // immutable field.
	Unique            bool                // unique index of field.
	Comment           string              // field comment.
	SchemaType        map[string]string   // override the schema type.
	Annotations       []schema.Annotation // field annotations.
	Deprecated        bool                // mark the field as deprecated.
	DeprecatedReason  string              // deprecation reason.
	Err               error
}

// IsNullable reports the configured nullability and whether it was set.
func (d *Descriptor) IsNullable() (nullable, ok bool) {
	if d.Nullable == nil {
		return false, false
	}
	return *d.Nullable, true
}

// IsConcurrencyToken reports if the field takes part in optimistic
// concurrency checks. An unset facet behaves like false.
func (d *Descriptor) IsConcurrencyToken() bool {
	return d.ConcurrencyToken != nil && *d.ConcurrencyToken
}

// GeneratedOption returns the configured strategy. An unset facet behaves like GeneratedNone.
func (d *Descriptor) GeneratedOption() GeneratedOption {
	if d.Generated == nil {
		return GeneratedNone
	}
	return *d.Generated
}

// StorageName returns the configured column name, or the field name.
func (d *Descriptor) StorageName() string {
	if d.ColumnName != "" {
		return d.ColumnName
	}
	return d.Name
}

func (d *Descriptor) addError(err error) {
	d.Err = errors.Join(d.Err, err)
}

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidIdentifier reports if s can be used as an annotation name.
func ValidIdentifier(s string) bool {
	return identRe.MatchString(s)
}

// PrimitiveBuilder is the builder for primitive properties. It holds the
// facets shared by all scalar columns.
type PrimitiveBuilder struct {
	desc *Descriptor
}

// Bool returns a new Field with type bool.
func Bool(name string) *PrimitiveBuilder {
	return newPrimitive(name, TypeBool)
}

// Int returns a new Field with type int.
func Int(name string) *PrimitiveBuilder {
	return newPrimitive(name, TypeInt)
}

// Int64 returns a new Field with type int64.
func Int64(name string) *PrimitiveBuilder {
	return newPrimitive(name, TypeInt64)
}

// String returns a new Field with type string.
func String(name string) *PrimitiveBuilder {
	return newPrimitive(name, TypeString)
}

func newPrimitive(name string, t Type) *PrimitiveBuilder {
	return &PrimitiveBuilder{desc: &Descriptor{
		Name: name,
		Info: &TypeInfo{Type: t},
	}}
}

// Optional configures the property to be optional.
// The database column used to store this property will be nullable.
func (b *PrimitiveBuilder) Optional() *PrimitiveBuilder {
	b.desc.Nullable = ptr(true)
	return b
}

// Required configures the property to be required.
// The database column used to store this property will be non-nullable.
func (b *PrimitiveBuilder) Required() *PrimitiveBuilder {
	b.desc.Nullable = ptr(false)
	return b
}

// DatabaseGenerated configures how values for the property are generated by the database.
func (b *PrimitiveBuilder) DatabaseGenerated(opt GeneratedOption) *PrimitiveBuilder {
	if !opt.Valid() {
		b.desc.addError(fmt.Errorf("unknown database generated option %q", opt))
		return b
	}
	b.desc.Generated = &opt
	return b
}

// SetDatabaseGenerated is like DatabaseGenerated, but a nil option removes
// the facet from the property. A removed facet behaves like GeneratedNone.
func (b *PrimitiveBuilder) SetDatabaseGenerated(opt *GeneratedOption) *PrimitiveBuilder {
	if opt == nil {
		b.desc.Generated = nil
		return b
	}
	return b.DatabaseGenerated(*opt)
}

// ConcurrencyToken configures the property to be used as an optimistic concurrency token.
func (b *PrimitiveBuilder) ConcurrencyToken() *PrimitiveBuilder {
	b.desc.ConcurrencyToken = ptr(true)
	return b
}

// SetConcurrencyToken configures whether the property is used as an optimistic
// concurrency token. A nil value removes the facet, which behaves like false.
func (b *PrimitiveBuilder) SetConcurrencyToken(v *bool) *PrimitiveBuilder {
	if v == nil {
		b.desc.ConcurrencyToken = nil
		return b
	}
	b.desc.ConcurrencyToken = ptr(*v)
	return b
}

// ColumnName configures the name of the database column used to store the property.
func (b *PrimitiveBuilder) ColumnName(name string) *PrimitiveBuilder {
	if strings.TrimSpace(name) == "" {
		b.desc.addError(errors.New("column name must not be empty"))
		return b
	}
	b.desc.ColumnName = name
	return b
}

// ColumnAnnotation sets an annotation on the database column used to store
// the property. The value can later be used when processing the column, for
// example when creating migrations. A nil value removes the annotation.
func (b *PrimitiveBuilder) ColumnAnnotation(name string, value any) *PrimitiveBuilder {
	if !ValidIdentifier(name) {
		b.desc.addError(fmt.Errorf("invalid column annotation name %q", name))
		return b
	}
	if value == nil {
		delete(b.desc.ColumnAnnotations, name)
		return b
	}
	if b.desc.ColumnAnnotations == nil {
		b.desc.ColumnAnnotations = make(map[string]any)
	}
	b.desc.ColumnAnnotations[name] = value
	return b
}

// ColumnType configures the provider specific data type of the database column.
func (b *PrimitiveBuilder) ColumnType(typ string) *PrimitiveBuilder {
	if strings.TrimSpace(typ) == "" {
		b.desc.addError(errors.New("column type must not be empty"))
		return b
	}
	b.desc.ColumnType = typ
	return b
}

// ColumnOrder configures the order of the database column used to store the
// property. It also defines the key ordering of composite keys.
func (b *PrimitiveBuilder) ColumnOrder(order int) *PrimitiveBuilder {
	if order < 0 {
		b.desc.addError(fmt.Errorf("column order must be non-negative, got %d", order))
		return b
	}
	b.desc.ColumnOrder = &order
	return b
}

// SetColumnOrder is like ColumnOrder, but a nil order removes the facet.
func (b *PrimitiveBuilder) SetColumnOrder(order *int) *PrimitiveBuilder {
	if order == nil {
		b.desc.ColumnOrder = nil
		return b
	}
	return b.ColumnOrder(*order)
}

// PrimaryKey marks the property as part of the entity key.
func (b *PrimitiveBuilder) PrimaryKey() *PrimitiveBuilder {
	b.desc.Key = true
	return b
}

// Default sets the default value of the field.
func (b *PrimitiveBuilder) Default(v any) *PrimitiveBuilder {
	b.desc.Default = v
	return b
}

// Immutable indicates that this field cannot be updated.
func (b *PrimitiveBuilder) Immutable() *PrimitiveBuilder {
	b.desc.Immutable = true
	return b
}

// Unique makes the field unique within all vertices of this type.
func (b *PrimitiveBuilder) Unique() *PrimitiveBuilder {
	b.desc.Unique = true
	return b
}

// Comment sets the comment of the field.
func (b *PrimitiveBuilder) Comment(c string) *PrimitiveBuilder {
	b.desc.Comment = c
	return b
}

// SchemaType overrides the default database type with a custom
// schema type (per dialect).
//
//	field.Int64("amount").
//		SchemaType(map[string]string{
//			dialect.MySQL:    "bigint unsigned",
//		})
func (b *PrimitiveBuilder) SchemaType(types map[string]string) *PrimitiveBuilder {
	if b.desc.SchemaType == nil {
		b.desc.SchemaType = make(map[string]string, len(types))
	}
	maps.Copy(b.desc.SchemaType, types)
	return b
}

// Annotations adds a list of annotations to the field object to be used by
// codegen extensions.
func (b *PrimitiveBuilder) Annotations(annotations ...schema.Annotation) *PrimitiveBuilder {
	b.desc.Annotations = append(b.desc.Annotations, annotations...)
	return b
}

// Deprecated marks the field as deprecated.
func (b *PrimitiveBuilder) Deprecated(reason ...string) *PrimitiveBuilder {
	b.desc.Deprecated = true
	if len(reason) > 0 {
		b.desc.DeprecatedReason = reason[0]
	}
	return b
}

// Descriptor implements the codefirst.Field interface by returning its descriptor.
func (b *PrimitiveBuilder) Descriptor() *Descriptor {
	return b.desc
}

// checkDefaultFunc verifies that a time default is a func() returning the
// property's Go type.
func (d *Descriptor) checkDefaultFunc(fn any, option string) {
	want := reflect.TypeOf(zeroTime)
	if d.Info.Type == TypeDuration {
		want = reflect.TypeOf(zeroDuration)
	}
	t := reflect.TypeOf(fn)
	if t == nil || t.Kind() != reflect.Func || t.NumIn() != 0 || t.NumOut() != 1 || t.Out(0) != want {
		d.addError(fmt.Errorf("expect type (func() %s) for %s, got %T", want, option, fn))
	}
}

func ptr[T any](v T) *T { return &v }
