// Package graphql renders a GraphQL schema (SDL) for the entities of a
// codefirst model.
//
// Time properties map to the Time scalar and durations to the Duration
// scalar. Nullable columns produce nullable GraphQL fields.
//
//	func (Order) Annotations() []schema.Annotation {
//	    return []schema.Annotation{
//	        graphql.Type("PurchaseOrder"),
//	    }
//	}
//
//	field.Time("synced_at").
//		Annotations(graphql.Skip(graphql.SkipField))
package graphql

import (
	"github.com/syssam/codefirst/schema"
)

// AnnotationName is the name used for GraphQL annotations.
const AnnotationName = "graphql"

// SkipMode defines what to skip in GraphQL generation.
type SkipMode uint

const (
	// SkipType skips the entire type from GraphQL schema.
	SkipType SkipMode = 1 << iota
	// SkipField skips a single field of a type.
	SkipField

	// SkipAll skips all GraphQL generation.
	SkipAll = SkipType | SkipField
)

// Is reports if the mode includes m.
func (s SkipMode) Is(m SkipMode) bool { return s&m != 0 }

// Directive represents a custom GraphQL directive to apply.
type Directive struct {
	Name string
	Args map[string]any
}

// Annotation holds GraphQL settings for schemas and fields.
type Annotation struct {
	// Skip excludes the type or field from the schema.
	Skip SkipMode `json:"Skip,omitempty"`
	// Type overrides the GraphQL type name of an entity.
	Type string `json:"Type,omitempty"`
	// FieldName overrides the GraphQL name of a field.
	FieldName string `json:"FieldName,omitempty"`
	// Directives are added to the type or field definition.
	Directives []Directive `json:"Directives,omitempty"`
}

// Name implements schema.Annotation interface.
func (Annotation) Name() string {
	return AnnotationName
}

// Merge implements the schema.Merger interface.
func (a Annotation) Merge(other schema.Annotation) schema.Annotation {
	var o Annotation
	switch other := other.(type) {
	case Annotation:
		o = other
	case *Annotation:
		if other == nil {
			return a
		}
		o = *other
	default:
		return a
	}
	result := a
	result.Skip |= o.Skip
	if o.Type != "" {
		result.Type = o.Type
	}
	if o.FieldName != "" {
		result.FieldName = o.FieldName
	}
	if len(o.Directives) > 0 {
		result.Directives = append(append([]Directive(nil), result.Directives...), o.Directives...)
	}
	return result
}

var (
	_ schema.Annotation = (*Annotation)(nil)
	_ schema.Merger     = (*Annotation)(nil)
)

// Skip returns an annotation that excludes the type or field.
func Skip(modes ...SkipMode) Annotation {
	var mode SkipMode
	for _, m := range modes {
		mode |= m
	}
	if mode == 0 {
		mode = SkipAll
	}
	return Annotation{Skip: mode}
}

// Type returns an annotation that overrides the GraphQL type name.
func Type(name string) Annotation {
	return Annotation{Type: name}
}

// FieldName returns an annotation that overrides the GraphQL field name.
func FieldName(name string) Annotation {
	return Annotation{FieldName: name}
}

// Directives returns an annotation that adds directives to the definition.
func Directives(directives ...Directive) Annotation {
	return Annotation{Directives: directives}
}
