package gen

import (
	"cmp"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/syssam/codefirst/compiler/load"
	"github.com/syssam/codefirst/dialect/sqlschema"
	"github.com/syssam/codefirst/schema/field"
)

// The following types and their exported methods are used by the model
// consumers (migrations, snapshots and SDL).
type (
	// Graph holds the nodes (entities) of the model.
	Graph struct {
		*Config
		// Nodes are the types in the order their schemas were given.
		Nodes []*Type
		// Schemas holds the loaded schemas the graph was built from.
		Schemas []*load.Schema
	}

	// Type represents one entity of the model and the columns of its table.
	Type struct {
		schema *load.Schema
		// Name holds the entity name.
		Name string
		// Fields holds the properties of the type in column order.
		Fields []*Field
		fields map[string]*Field
		// Key holds the fields of the entity key.
		Key []*Field
		// Annotations that were defined for the type in the schema.
		// The mapping is from the Annotation.Name() to a JSON decoded object.
		Annotations map[string]any
	}

	// Field holds the resolved configuration of a property.
	Field struct {
		def *load.Field
		typ *Type
		// Name is the name of the property in the schema.
		Name string
		// Column is the name of the database column that stores the property.
		Column string
		// Type holds the type information of the field.
		Type *field.TypeInfo
		// Nullable reports if the column accepts NULL.
		Nullable bool
		// Key reports if the field is part of the entity key.
		Key bool
		// Unique indicate if this field is a unique field.
		Unique bool
		// Immutable indicates is this field cannot be updated.
		Immutable bool
		// Order is the explicit column order, nil when not configured.
		Order *int
		// Precision is the fractional seconds precision, nil when not configured.
		Precision *uint8
		// ConcurrencyToken reports if the column guards updates.
		ConcurrencyToken bool
		// Generated is how the database produces values for the column.
		Generated field.GeneratedOption
		// Position info of the field.
		Position *load.Position
		// Annotations that were defined for the field in the schema.
		Annotations map[string]any
	}
)

// NewGraph creates a new Graph for the code generation from the given schemas.
func NewGraph(c *Config, schemas ...*load.Schema) (*Graph, error) {
	if c == nil {
		return nil, NewConfigError("Config", nil, "config cannot be nil")
	}
	g := &Graph{Config: c, Schemas: schemas}
	names := make(map[string]bool, len(schemas))
	tables := make(map[string]string, len(schemas))
	for _, s := range schemas {
		if names[s.Name] {
			return nil, NewSchemaError(s.Name, "", "duplicate schema name", nil)
		}
		names[s.Name] = true
		t, err := NewType(s)
		if err != nil {
			return nil, err
		}
		if other, ok := tables[t.Table()]; ok {
			return nil, NewSchemaError(t.Name, "", fmt.Sprintf("table %q is already used by type %s", t.Table(), other), nil)
		}
		tables[t.Table()] = t.Name
		g.Nodes = append(g.Nodes, t)
	}
	return g, nil
}

// NewType creates a new type and its fields from the given schema.
func NewType(s *load.Schema) (*Type, error) {
	if s.Name == "" {
		return nil, NewSchemaError("", "", "missing schema name", nil)
	}
	t := &Type{
		schema:      s,
		Name:        s.Name,
		Annotations: s.Annotations,
		fields:      make(map[string]*Field, len(s.Fields)),
	}
	columns := make(map[string]*Field, len(s.Fields))
	for _, f := range s.Fields {
		tf, err := t.newField(f)
		if err != nil {
			return nil, err
		}
		if _, ok := t.fields[tf.Name]; ok {
			return nil, NewSchemaError(t.Name, tf.Name, "duplicate field name", nil)
		}
		if other, ok := columns[tf.Column]; ok {
			return nil, NewSchemaError(t.Name, tf.Name, fmt.Sprintf("column %q is already used by field %q", tf.Column, other.Name), nil)
		}
		t.fields[tf.Name] = tf
		columns[tf.Column] = tf
		t.Fields = append(t.Fields, tf)
	}
	slices.SortStableFunc(t.Fields, func(x, y *Field) int {
		switch {
		case x.Order != nil && y.Order != nil:
			return cmp.Compare(*x.Order, *y.Order)
		case x.Order != nil:
			return -1
		case y.Order != nil:
			return 1
		}
		return 0
	})
	if err := t.resolveKey(); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Type) newField(f *load.Field) (*Field, error) {
	if !f.Info.Valid() {
		return nil, NewSchemaError(t.Name, f.Name, "missing type info", nil)
	}
	tf := &Field{
		def:              f,
		typ:              t,
		Name:             f.Name,
		Column:           f.ColumnName,
		Type:             f.Info,
		Key:              f.Key,
		Unique:           f.Unique,
		Immutable:        f.Immutable,
		Order:            f.ColumnOrder,
		Precision:        f.Precision,
		ConcurrencyToken: f.ConcurrencyToken != nil && *f.ConcurrencyToken,
		Generated:        field.GeneratedNone,
		Position:         f.Position,
		Annotations:      f.Annotations,
	}
	if tf.Column == "" {
		tf.Column = snake(f.Name)
	}
	if f.Generated != nil {
		tf.Generated = *f.Generated
	}
	switch {
	case f.Nullable != nil:
		tf.Nullable = *f.Nullable
	default:
		// Strings are references and optional unless configured,
		// the rest are values and required.
		tf.Nullable = f.Info.Type == field.TypeString
	}
	if f.Precision != nil && !f.Info.Type.Temporal() {
		return nil, NewSchemaError(t.Name, f.Name, fmt.Sprintf("precision is not supported for %s fields", f.Info.Type), nil)
	}
	return tf, nil
}

// resolveKey collects the key fields. Without explicit key fields, a field
// whose column is "id" or "<type>_id" becomes the key.
func (t *Type) resolveKey() error {
	for _, f := range t.Fields {
		if f.Key {
			t.Key = append(t.Key, f)
		}
	}
	if len(t.Key) == 0 {
		for _, f := range t.Fields {
			if f.Column == "id" || f.Column == snake(t.Name)+"_id" {
				f.Key = true
				t.Key = append(t.Key, f)
				break
			}
		}
	}
	if len(t.Key) == 0 {
		return NewSchemaError(t.Name, "", `missing key; mark a field with PrimaryKey or name it "id"`, nil)
	}
	for _, f := range t.Key {
		if f.def.Nullable != nil && *f.def.Nullable {
			return NewSchemaError(t.Name, f.Name, "key fields cannot be optional", nil)
		}
		f.Nullable = false
	}
	if k := t.Key[0]; len(t.Key) == 1 && k.Type.Type.Numeric() && k.def.Generated == nil {
		k.Generated = field.GeneratedIdentity
	}
	return nil
}

// Label returns the label name of the node/type (snake_case).
func (t Type) Label() string {
	return snake(t.Name)
}

// Table returns SQL table name of the node/type.
func (t Type) Table() string {
	if ant := t.SQL(); ant != nil && ant.Table != "" {
		return ant.Table
	}
	return snake(plural(t.Name))
}

// SQL returns the sqlschema annotation of the type if exists.
func (t Type) SQL() *sqlschema.Annotation {
	return sqlAnnotate(t.Annotations)
}

// Field returns the field with the given name.
func (t *Type) Field(name string) (*Field, bool) {
	f, ok := t.fields[name]
	return f, ok
}

// ConcurrencyTokens returns the fields that guard updates of the type.
func (t *Type) ConcurrencyTokens() []*Field {
	var fields []*Field
	for _, f := range t.Fields {
		if f.ConcurrencyToken {
			fields = append(fields, f)
		}
	}
	return fields
}

// StructField returns the exported Go name of the field.
func (f Field) StructField() string {
	return pascal(f.Name)
}

// Comment returns the comment of the field.
func (f Field) Comment() string {
	return f.def.Comment
}

// HasDefault reports if the field has a default value on create.
func (f Field) HasDefault() bool {
	return f.def.Default
}

// UpdateDefault reports if the field has a default value on update.
func (f Field) UpdateDefault() bool {
	return f.def.UpdateDefault
}

// Deprecated reports if the field was marked as deprecated.
func (f Field) Deprecated() bool {
	return f.def.Deprecated
}

// DeprecatedReason returns the deprecation reason of the field.
func (f Field) DeprecatedReason() string {
	return f.def.DeprecatedReason
}

// ColumnAnnotations returns the annotations of the column.
func (f Field) ColumnAnnotations() map[string]any {
	return f.def.ColumnAnnotations
}

// ColumnType returns the column type configured for the given dialect,
// or an empty string if the dialect default should be used.
// The ColumnType facet wins over the SchemaType map, which wins over the
// sqlschema annotation.
func (f Field) ColumnType(dialect string) string {
	if f.def.ColumnType != "" {
		return f.def.ColumnType
	}
	if typ, ok := f.def.SchemaType[dialect]; ok {
		return typ
	}
	if ant := f.SQL(); ant != nil {
		return ant.ColumnType
	}
	return ""
}

// IsTime reports if the field stores a point in time.
func (f Field) IsTime() bool {
	return f.Type.Type == field.TypeTime || f.Type.Type == field.TypeTimeTZ
}

// SQL returns the sqlschema annotation of the field if exists.
func (f Field) SQL() *sqlschema.Annotation {
	return sqlAnnotate(f.Annotations)
}

// sqlAnnotate extracts the sqlschema annotation from a loaded annotation format.
func sqlAnnotate(annotation map[string]any) *sqlschema.Annotation {
	annotate := &sqlschema.Annotation{}
	if annotation == nil || annotation[annotate.Name()] == nil {
		return nil
	}
	if buf, err := json.Marshal(annotation[annotate.Name()]); err == nil {
		_ = json.Unmarshal(buf, &annotate)
	}
	return annotate
}
