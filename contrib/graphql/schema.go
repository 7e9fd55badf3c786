package graphql

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
	"unicode"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/formatter"

	"github.com/syssam/codefirst/compiler/gen"
	"github.com/syssam/codefirst/schema/field"
)

// Scalars used for temporal properties.
const (
	TimeScalar     = "Time"
	DurationScalar = "Duration"
)

// Schema renders the GraphQL SDL of the graph.
func Schema(g *gen.Graph) (string, error) {
	doc, err := Document(g)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	formatter.NewFormatter(&b).FormatSchemaDocument(doc)
	return b.String(), nil
}

// Document builds the GraphQL schema document of the graph: one object type
// per entity, preceded by the scalars its fields use.
func Document(g *gen.Graph) (*ast.SchemaDocument, error) {
	var (
		doc     = &ast.SchemaDocument{}
		types   ast.DefinitionList
		scalars = make(map[string]bool)
		names   = make(map[string]string)
	)
	for _, t := range g.Nodes {
		ant := annotate(t.Annotations)
		if ant.Skip.Is(SkipType) {
			continue
		}
		def := &ast.Definition{
			Kind: ast.Object,
			Name: t.Name,
		}
		if ant.Type != "" {
			def.Name = ant.Type
		}
		if other, ok := names[def.Name]; ok {
			return nil, fmt.Errorf("graphql: type %q of %s is already used by %s", def.Name, t.Name, other)
		}
		names[def.Name] = t.Name
		dirs, err := directives(ant.Directives)
		if err != nil {
			return nil, fmt.Errorf("graphql: type %s: %w", t.Name, err)
		}
		def.Directives = dirs
		for _, f := range t.Fields {
			fd, err := fieldDefinition(t, f)
			if err != nil {
				return nil, fmt.Errorf("graphql: type %s field %s: %w", t.Name, f.Name, err)
			}
			if fd == nil {
				continue
			}
			if s := fd.Type.Name(); s == TimeScalar || s == DurationScalar {
				scalars[s] = true
			}
			def.Fields = append(def.Fields, fd)
		}
		types = append(types, def)
	}
	for _, s := range slices.Sorted(maps.Keys(scalars)) {
		doc.Definitions = append(doc.Definitions, &ast.Definition{Kind: ast.Scalar, Name: s})
	}
	doc.Definitions = append(doc.Definitions, types...)
	return doc, nil
}

// fieldDefinition returns the definition of the field, or nil if it is skipped.
func fieldDefinition(t *gen.Type, f *gen.Field) (*ast.FieldDefinition, error) {
	ant := annotate(f.Annotations)
	if ant.Skip.Is(SkipField) {
		return nil, nil
	}
	name := camel(f.StructField())
	if ant.FieldName != "" {
		name = ant.FieldName
	}
	typ, err := typeName(f.Type.Type)
	if err != nil {
		return nil, err
	}
	if f.Key && len(t.Key) == 1 {
		typ = "ID"
	}
	fd := &ast.FieldDefinition{
		Name:        name,
		Description: f.Comment(),
		Type:        ast.NonNullNamedType(typ, nil),
	}
	if f.Nullable {
		fd.Type = ast.NamedType(typ, nil)
	}
	if f.Deprecated() {
		reason := f.DeprecatedReason()
		if reason == "" {
			reason = "No longer supported"
		}
		fd.Directives = append(fd.Directives, &ast.Directive{
			Name: "deprecated",
			Arguments: ast.ArgumentList{
				{Name: "reason", Value: &ast.Value{Kind: ast.StringValue, Raw: reason}},
			},
		})
	}
	dirs, err := directives(ant.Directives)
	if err != nil {
		return nil, err
	}
	fd.Directives = append(fd.Directives, dirs...)
	return fd, nil
}

func typeName(t field.Type) (string, error) {
	switch t {
	case field.TypeTime, field.TypeTimeTZ:
		return TimeScalar, nil
	case field.TypeDuration:
		return DurationScalar, nil
	case field.TypeInt, field.TypeInt64:
		return "Int", nil
	case field.TypeBool:
		return "Boolean", nil
	case field.TypeString:
		return "String", nil
	}
	return "", fmt.Errorf("unsupported field type %s", t)
}

func directives(ds []Directive) (ast.DirectiveList, error) {
	list := make(ast.DirectiveList, 0, len(ds))
	for _, d := range ds {
		dir := &ast.Directive{Name: d.Name}
		for _, name := range slices.Sorted(maps.Keys(d.Args)) {
			v, err := value(d.Args[name])
			if err != nil {
				return nil, fmt.Errorf("directive @%s argument %s: %w", d.Name, name, err)
			}
			dir.Arguments = append(dir.Arguments, &ast.Argument{Name: name, Value: v})
		}
		list = append(list, dir)
	}
	return list, nil
}

func value(v any) (*ast.Value, error) {
	switch v := v.(type) {
	case string:
		return &ast.Value{Kind: ast.StringValue, Raw: v}, nil
	case bool:
		return &ast.Value{Kind: ast.BooleanValue, Raw: strconv.FormatBool(v)}, nil
	case int:
		return &ast.Value{Kind: ast.IntValue, Raw: strconv.Itoa(v)}, nil
	case int64:
		return &ast.Value{Kind: ast.IntValue, Raw: strconv.FormatInt(v, 10)}, nil
	case float64:
		// Numbers decoded from JSON annotations are float64.
		if v == float64(int64(v)) {
			return &ast.Value{Kind: ast.IntValue, Raw: strconv.FormatInt(int64(v), 10)}, nil
		}
		return &ast.Value{Kind: ast.FloatValue, Raw: strconv.FormatFloat(v, 'f', -1, 64)}, nil
	}
	return nil, fmt.Errorf("unsupported value %T", v)
}

// annotate extracts the graphql annotation from a loaded annotation format.
func annotate(annotations map[string]any) Annotation {
	var ant Annotation
	if v, ok := annotations[AnnotationName]; ok {
		if buf, err := json.Marshal(v); err == nil {
			_ = json.Unmarshal(buf, &ant)
		}
	}
	return ant
}

// camel lowers the leading upper case run of an exported name.
//
//	CreatedAt => createdAt
//	ID        => id
//	URLPath   => urlPath
func camel(s string) string {
	r := []rune(s)
	n := 0
	for n < len(r) && unicode.IsUpper(r[n]) {
		n++
	}
	if n > 1 && n < len(r) {
		n--
	}
	for i := 0; i < n; i++ {
		r[i] = unicode.ToLower(r[i])
	}
	return string(r)
}
