// Package mixin provides the base mixin implementation and the built-in time
// mixins for codefirst schemas.
//
// Creating Custom Mixins:
//
//	type AuditMixin struct {
//	    mixin.Schema
//	}
//
//	func (AuditMixin) Fields() []codefirst.Field {
//	    return []codefirst.Field{
//	        field.Time("audited_at").Optional(),
//	    }
//	}
//
// Using Mixins:
//
//	func (Order) Mixin() []codefirst.Mixin {
//	    return []codefirst.Mixin{
//	        mixin.Time{},
//	        mixin.RowVersion{},
//	    }
//	}
package mixin

import (
	"time"

	"github.com/syssam/codefirst"
	"github.com/syssam/codefirst/schema"
	"github.com/syssam/codefirst/schema/field"
)

// Schema is the default implementation for the codefirst.Mixin interface.
// It should be embedded in all custom mixin definitions.
type Schema struct{}

// Fields returns the fields of the mixin.
func (Schema) Fields() []codefirst.Field { return nil }

// Annotations returns the annotations of the mixin.
func (Schema) Annotations() []schema.Annotation { return nil }

// schema mixin must implement `Mixin` interface.
var _ codefirst.Mixin = (*Schema)(nil)

// Time adds created_at and updated_at timestamp fields to a schema.
// created_at is set on creation and is immutable.
// updated_at is set on creation and on each update.
type Time struct {
	Schema
}

// Fields returns the time tracking fields.
func (Time) Fields() []codefirst.Field {
	return []codefirst.Field{
		field.Time("created_at").
			Default(time.Now).
			Immutable().
			Comment("Timestamp when the entity was created"),
		field.Time("updated_at").
			Default(time.Now).
			UpdateDefault(time.Now).
			Comment("Timestamp when the entity was last updated"),
	}
}

// SoftDelete adds a nullable deleted_at field for soft deletion support.
type SoftDelete struct {
	Schema
}

// Fields returns the soft delete field.
func (SoftDelete) Fields() []codefirst.Field {
	return []codefirst.Field{
		field.Time("deleted_at").
			Optional().
			Comment("Timestamp when the entity was soft deleted (NULL means not deleted)"),
	}
}

// RowVersion adds a modified_at column that guards updates as an optimistic
// concurrency token. MySQL refreshes it on every write with ON UPDATE. With
// other databases, updates refresh it through sql.UpdateBuilder.CheckTimestamp.
type RowVersion struct {
	Schema
	// Precision of the column, defaults to microseconds.
	Precision *uint8
}

// Fields returns the row version field.
func (m RowVersion) Fields() []codefirst.Field {
	p := uint8(6)
	if m.Precision != nil {
		p = *m.Precision
	}
	return []codefirst.Field{
		field.Time("modified_at").
			ConcurrencyToken().
			DatabaseGenerated(field.GeneratedComputed).
			Precision(p).
			Comment("Row version refreshed on every update"),
	}
}

// AnnotateFields wraps a mixin and adds annotations to all its fields.
//
//	mixin.AnnotateFields(
//	    mixin.Time{},
//	    sqlschema.WithComments(false),
//	)
func AnnotateFields(m codefirst.Mixin, annotations ...schema.Annotation) codefirst.Mixin {
	return fieldAnnotator{Mixin: m, annotations: annotations}
}

type fieldAnnotator struct {
	codefirst.Mixin
	annotations []schema.Annotation
}

func (a fieldAnnotator) Fields() []codefirst.Field {
	fields := a.Mixin.Fields()
	for i := range fields {
		desc := fields[i].Descriptor()
		desc.Annotations = append(desc.Annotations, a.annotations...)
	}
	return fields
}
