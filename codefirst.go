// Package codefirst is the entry point of the code-first model builder.
//
// An entity schema is a Go type that embeds Schema and declares its
// properties with the builders of the schema/field package. The compiler
// loads schemas, applies naming and nullability conventions and produces
// tables for the migrator.
package codefirst

import (
	"github.com/syssam/codefirst/schema"
	"github.com/syssam/codefirst/schema/field"
)

type (
	// The Interface type describes the requirements for an exported type defined in the schema package.
	// It functions as the interface between the user's schema types and codegen loader.
	// Users should use the Schema type for embedding as follows:
	//
	//	type T struct {
	//		codefirst.Schema
	//	}
	Interface interface {
		// Fields returns the fields of the schema.
		Fields() []Field
		// Mixin returns an optional list of Mixin to extends
		// the schema.
		Mixin() []Mixin
		// Annotations returns a list of schema annotations to be used by
		// codegen extensions.
		Annotations() []schema.Annotation
	}

	// A Field interface returns a field descriptor for vertex fields/properties.
	// The usage for the interface is as follows:
	//
	//	func (T) Fields() []codefirst.Field {
	//		return []codefirst.Field{
	//			field.Time("created_at"),
	//		}
	//	}
	Field interface {
		Descriptor() *field.Descriptor
	}

	// The Mixin type describes a set of methods that can extend
	// other methods in the schema without calling them directly.
	//
	//	type TimeMixin struct{}
	//
	//	func (TimeMixin) Fields() []codefirst.Field {
	//		return []codefirst.Field{
	//			field.Time("created_at").
	//				Immutable().
	//				Default(time.Now),
	//		}
	//	}
	Mixin interface {
		// Fields returns a slice of fields to add to the schema.
		Fields() []Field
		// Annotations returns a list of schema annotations to be used by
		// codegen extensions.
		Annotations() []schema.Annotation
	}

	// Schema is the default implementation for the schema Interface.
	// It can be embedded in end-user schemas as follows:
	//
	//	type T struct {
	//		codefirst.Schema
	//	}
	Schema struct{}
)

// Fields of the schema.
func (Schema) Fields() []Field { return nil }

// Mixin of the schema.
func (Schema) Mixin() []Mixin { return nil }

// Annotations of the schema.
func (Schema) Annotations() []schema.Annotation { return nil }

var _ Interface = (*Schema)(nil)
