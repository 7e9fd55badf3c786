// Package model reads entity declarations from a YAML model file and turns
// them into codefirst schemas built with the field builders.
//
//	entities:
//	  - name: Order
//	    mixins: [time, row_version]
//	    properties:
//	      - name: id
//	        type: int
//	      - name: placed_at
//	        type: time
//	        column: placed
//	        order: 1
//	        precision: 3
package model

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/syssam/codefirst"
	"github.com/syssam/codefirst/contrib/graphql"
	"github.com/syssam/codefirst/dialect/sqlschema"
	"github.com/syssam/codefirst/schema"
	"github.com/syssam/codefirst/schema/field"
	"github.com/syssam/codefirst/schema/mixin"
)

// File is the root of a model file.
type File struct {
	Entities []Entity `yaml:"entities"`
}

// Entity declares an entity and its properties.
type Entity struct {
	Name       string     `yaml:"name"`
	Table      string     `yaml:"table,omitempty"`
	Schema     string     `yaml:"schema,omitempty"`
	Comments   *bool      `yaml:"comments,omitempty"`
	Check      string     `yaml:"check,omitempty"`
	Mixins     []string   `yaml:"mixins,omitempty"`
	GraphQL    *GraphQL   `yaml:"graphql,omitempty"`
	Properties []Property `yaml:"properties"`
}

// Property declares a property with the facets of the field builders.
// Pointer facets are removed from the property when left out.
type Property struct {
	Name             string         `yaml:"name"`
	Type             string         `yaml:"type"`
	Key              bool           `yaml:"key,omitempty"`
	Optional         bool           `yaml:"optional,omitempty"`
	Required         bool           `yaml:"required,omitempty"`
	Generated        *string        `yaml:"generated,omitempty"`
	ConcurrencyToken *bool          `yaml:"concurrency_token,omitempty"`
	Column           string         `yaml:"column,omitempty"`
	ColumnType       string         `yaml:"column_type,omitempty"`
	Order            *int           `yaml:"order,omitempty"`
	Precision        *uint8         `yaml:"precision,omitempty"`
	Annotations      map[string]any `yaml:"annotations,omitempty"`
	Unique           bool           `yaml:"unique,omitempty"`
	Immutable        bool           `yaml:"immutable,omitempty"`
	Comment          string         `yaml:"comment,omitempty"`
	Deprecated       *string        `yaml:"deprecated,omitempty"`
	Default          string         `yaml:"default,omitempty"`
	DefaultExpr      string         `yaml:"default_expr,omitempty"`
	Check            string         `yaml:"check,omitempty"`
	GraphQL          *GraphQL       `yaml:"graphql,omitempty"`
}

// GraphQL holds the GraphQL settings of an entity or property.
type GraphQL struct {
	Skip bool   `yaml:"skip,omitempty"`
	Name string `yaml:"name,omitempty"`
}

// Parse decodes a model file. Unknown keys are rejected.
func Parse(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	f := &File{}
	if err := dec.Decode(f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("model: empty model file")
		}
		return nil, fmt.Errorf("model: decode: %w", err)
	}
	return f, nil
}

// ReadFile reads and decodes the model file at the given path.
func ReadFile(path string) (*File, error) {
	r, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("model: %w", err)
	}
	defer r.Close()
	return Parse(r)
}

// Schemas builds the codefirst schemas declared in the file.
func (f *File) Schemas() ([]codefirst.Interface, error) {
	if len(f.Entities) == 0 {
		return nil, errors.New("model: no entities declared")
	}
	var (
		seen    = make(map[string]bool, len(f.Entities))
		schemas = make([]codefirst.Interface, 0, len(f.Entities))
	)
	for _, e := range f.Entities {
		if e.Name == "" {
			return nil, errors.New("model: entity without name")
		}
		if seen[e.Name] {
			return nil, fmt.Errorf("model: duplicate entity %q", e.Name)
		}
		seen[e.Name] = true
		s, err := e.schema()
		if err != nil {
			return nil, fmt.Errorf("model: entity %q: %w", e.Name, err)
		}
		schemas = append(schemas, s)
	}
	return schemas, nil
}

// entity is a codefirst.Interface built from a model file.
type entity struct {
	codefirst.Schema
	name        string
	fields      []codefirst.Field
	mixins      []codefirst.Mixin
	annotations []schema.Annotation
}

// Name returns the entity name. The loader prefers it over the Go type name.
func (e *entity) Name() string                     { return e.name }
func (e *entity) Fields() []codefirst.Field        { return e.fields }
func (e *entity) Mixin() []codefirst.Mixin         { return e.mixins }
func (e *entity) Annotations() []schema.Annotation { return e.annotations }

var mixins = map[string]func() codefirst.Mixin{
	"time":        func() codefirst.Mixin { return mixin.Time{} },
	"soft_delete": func() codefirst.Mixin { return mixin.SoftDelete{} },
	"row_version": func() codefirst.Mixin { return mixin.RowVersion{} },
}

func (e Entity) schema() (*entity, error) {
	s := &entity{name: e.Name}
	for _, name := range e.Mixins {
		m, ok := mixins[name]
		if !ok {
			return nil, fmt.Errorf("unknown mixin %q", name)
		}
		s.mixins = append(s.mixins, m())
	}
	if e.Table != "" {
		s.annotations = append(s.annotations, sqlschema.Table(e.Table))
	}
	if e.Schema != "" {
		s.annotations = append(s.annotations, sqlschema.Schema(e.Schema))
	}
	if e.Comments != nil {
		s.annotations = append(s.annotations, sqlschema.WithComments(*e.Comments))
	}
	if e.Check != "" {
		s.annotations = append(s.annotations, sqlschema.Check(e.Check))
	}
	if g := e.GraphQL; g != nil {
		if g.Skip {
			s.annotations = append(s.annotations, graphql.Skip(graphql.SkipType))
		}
		if g.Name != "" {
			s.annotations = append(s.annotations, graphql.Type(g.Name))
		}
	}
	for _, p := range e.Properties {
		fd, err := p.field()
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", p.Name, err)
		}
		s.fields = append(s.fields, fd)
	}
	return s, nil
}

// facets is implemented by the field builders. Each method returns the
// builder itself.
type facets[B any] interface {
	Optional() B
	Required() B
	SetDatabaseGenerated(*field.GeneratedOption) B
	SetConcurrencyToken(*bool) B
	ColumnName(string) B
	ColumnAnnotation(string, any) B
	ColumnType(string) B
	SetColumnOrder(*int) B
	PrimaryKey() B
	Unique() B
	Immutable() B
	Comment(string) B
	Annotations(...schema.Annotation) B
	Deprecated(...string) B
	Descriptor() *field.Descriptor
}

func (p Property) field() (codefirst.Field, error) {
	if p.Name == "" {
		return nil, errors.New("missing name")
	}
	if p.Optional && p.Required {
		return nil, errors.New("optional and required are exclusive")
	}
	var gen *field.GeneratedOption
	if p.Generated != nil {
		opt, err := field.ParseGeneratedOption(*p.Generated)
		if err != nil {
			return nil, err
		}
		gen = &opt
	}
	switch p.Type {
	case "time", "timetz", "duration":
		var b *field.TimeBuilder
		switch p.Type {
		case "time":
			b = field.Time(p.Name)
		case "timetz":
			b = field.TimeTZ(p.Name)
		default:
			b = field.Duration(p.Name)
		}
		if p.Precision != nil {
			b.Precision(*p.Precision)
		}
		return apply(b, p, gen), nil
	case "int", "int64", "string", "bool":
		if p.Precision != nil {
			return nil, fmt.Errorf("precision is not supported for %s properties", p.Type)
		}
		var b *field.PrimitiveBuilder
		switch p.Type {
		case "int":
			b = field.Int(p.Name)
		case "int64":
			b = field.Int64(p.Name)
		case "string":
			b = field.String(p.Name)
		default:
			b = field.Bool(p.Name)
		}
		return apply(b, p, gen), nil
	}
	return nil, fmt.Errorf("unknown type %q", p.Type)
}

// apply configures the facets declared by the property on the builder.
func apply[B facets[B]](b B, p Property, gen *field.GeneratedOption) B {
	switch {
	case p.Optional:
		b.Optional()
	case p.Required:
		b.Required()
	}
	b.SetDatabaseGenerated(gen).
		SetConcurrencyToken(p.ConcurrencyToken).
		SetColumnOrder(p.Order)
	if p.Column != "" {
		b.ColumnName(p.Column)
	}
	if p.ColumnType != "" {
		b.ColumnType(p.ColumnType)
	}
	names := make([]string, 0, len(p.Annotations))
	for name := range p.Annotations {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		b.ColumnAnnotation(name, p.Annotations[name])
	}
	if p.Key {
		b.PrimaryKey()
	}
	if p.Unique {
		b.Unique()
	}
	if p.Immutable {
		b.Immutable()
	}
	if p.Comment != "" {
		b.Comment(p.Comment)
	}
	if p.Deprecated != nil {
		b.Deprecated(*p.Deprecated)
	}
	if p.Default != "" {
		b.Annotations(sqlschema.Default(p.Default))
	}
	if p.DefaultExpr != "" {
		b.Annotations(sqlschema.DefaultExpr(p.DefaultExpr))
	}
	if p.Check != "" {
		b.Annotations(sqlschema.Check(p.Check))
	}
	if g := p.GraphQL; g != nil {
		if g.Skip {
			b.Annotations(graphql.Skip(graphql.SkipField))
		}
		if g.Name != "" {
			b.Annotations(graphql.FieldName(g.Name))
		}
	}
	return b
}
