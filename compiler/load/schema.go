package load

import (
	"encoding/json"
	"fmt"
	"maps"
	"reflect"

	"github.com/syssam/codefirst"
	"github.com/syssam/codefirst/schema"
	"github.com/syssam/codefirst/schema/field"
)

// Schema represents a codefirst.Interface that was loaded from a user package
// or built in-process.
type Schema struct {
	Name        string         `json:"name,omitempty"`
	Fields      []*Field       `json:"fields,omitempty"`
	Annotations map[string]any `json:"annotations,omitempty"`
}

// Position describes a position in the schema.
type Position struct {
	Index      int  // Index in the field list.
	MixedIn    bool // Indicates if the schema object was mixed-in.
	MixinIndex int  // Mixin index in the mixin list.
}

// Field represents a codefirst.Field that was loaded from its descriptor.
// Facets that can be removed keep their pointer form, nil means unset.
type Field struct {
	Name              string                 `json:"name,omitempty"`
	Info              *field.TypeInfo        `json:"type,omitempty"`
	Key               bool                   `json:"key,omitempty"`
	Nullable          *bool                  `json:"nullable,omitempty"`
	ColumnName        string                 `json:"column_name,omitempty"`
	ColumnType        string                 `json:"column_type,omitempty"`
	ColumnOrder       *int                   `json:"column_order,omitempty"`
	Precision         *uint8                 `json:"precision,omitempty"`
	ConcurrencyToken  *bool                  `json:"concurrency_token,omitempty"`
	Generated         *field.GeneratedOption `json:"generated,omitempty"`
	ColumnAnnotations map[string]any         `json:"column_annotations,omitempty"`
	Unique            bool                   `json:"unique,omitempty"`
	Immutable         bool                   `json:"immutable,omitempty"`
	Default           bool                   `json:"default,omitempty"`
	DefaultValue      any                    `json:"default_value,omitempty"`
	DefaultKind       reflect.Kind           `json:"default_kind,omitempty"`
	UpdateDefault     bool                   `json:"update_default,omitempty"`
	SchemaType        map[string]string      `json:"schema_type,omitempty"`
	Annotations       map[string]any         `json:"annotations,omitempty"`
	Comment           string                 `json:"comment,omitempty"`
	Deprecated        bool                   `json:"deprecated,omitempty"`
	DeprecatedReason  string                 `json:"deprecated_reason,omitempty"`
	Position          *Position              `json:"position,omitempty"`
}

// NewField creates a loaded field from field descriptor.
// It returns an error if the descriptor contains an error.
func NewField(fd *field.Descriptor) (*Field, error) {
	if fd.Err != nil {
		return nil, fmt.Errorf("field %q: %w", fd.Name, fd.Err)
	}
	if !fd.Info.Valid() {
		return nil, fmt.Errorf("missing type info for field %q", fd.Name)
	}
	sf := &Field{
		Name:              fd.Name,
		Info:              fd.Info,
		Key:               fd.Key,
		Nullable:          fd.Nullable,
		ColumnName:        fd.ColumnName,
		ColumnType:        fd.ColumnType,
		ColumnOrder:       fd.ColumnOrder,
		Precision:         fd.Precision,
		ConcurrencyToken:  fd.ConcurrencyToken,
		Generated:         fd.Generated,
		ColumnAnnotations: maps.Clone(fd.ColumnAnnotations),
		Unique:            fd.Unique,
		Immutable:         fd.Immutable,
		Default:           fd.Default != nil,
		UpdateDefault:     fd.UpdateDefault != nil,
		SchemaType:        fd.SchemaType,
		Annotations:       make(map[string]any),
		Comment:           fd.Comment,
		Deprecated:        fd.Deprecated,
		DeprecatedReason:  fd.DeprecatedReason,
	}
	for _, at := range fd.Annotations {
		sf.addAnnotation(at)
	}
	if sf.Default {
		sf.DefaultKind = reflect.TypeOf(fd.Default).Kind()
		// Functions like time.Now cannot be encoded.
		if _, err := json.Marshal(fd.Default); err == nil {
			sf.DefaultValue = fd.Default
		}
	}
	return sf, nil
}

// StorageName returns the configured column name, or the field name.
func (f *Field) StorageName() string {
	if f.ColumnName != "" {
		return f.ColumnName
	}
	return f.Name
}

// Load loads the given schemas in-process.
func Load(schemas ...codefirst.Interface) ([]*Schema, error) {
	loaded := make([]*Schema, 0, len(schemas))
	for _, s := range schemas {
		ls, err := NewSchema(s)
		if err != nil {
			return nil, err
		}
		loaded = append(loaded, ls)
	}
	return loaded, nil
}

// NewSchema loads a single codefirst.Interface. Mixed-in fields come first,
// followed by the fields of the schema in declaration order.
func NewSchema(schema codefirst.Interface) (*Schema, error) {
	s := &Schema{
		Name:        indirect(reflect.TypeOf(schema)).Name(),
		Annotations: make(map[string]any),
	}
	if n, ok := schema.(interface{ Name() string }); ok {
		s.Name = n.Name()
	}
	if err := s.loadMixin(schema); err != nil {
		return nil, fmt.Errorf("schema %q: %w", s.Name, err)
	}
	// Schema annotations override mixed-in annotations.
	for _, at := range schema.Annotations() {
		s.addAnnotation(at)
	}
	if err := s.loadFields(schema); err != nil {
		return nil, fmt.Errorf("schema %q: %w", s.Name, err)
	}
	return s, nil
}

// MarshalSchema encodes the codefirst.Interface into a JSON
// that can be decoded into the Schema objects declared above.
func MarshalSchema(schema codefirst.Interface) ([]byte, error) {
	s, err := NewSchema(schema)
	if err != nil {
		return nil, err
	}
	return json.Marshal(s)
}

// UnmarshalSchema decodes the given buffer to a loaded schema.
func UnmarshalSchema(buf []byte) (*Schema, error) {
	s := &Schema{}
	if err := json.Unmarshal(buf, s); err != nil {
		return nil, err
	}
	for _, f := range s.Fields {
		if err := f.defaults(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// loadMixin loads mixin to schema from codefirst.Interface.
func (s *Schema) loadMixin(schema codefirst.Interface) error {
	mixin, err := safeMixin(schema)
	if err != nil {
		return err
	}
	for i, mx := range mixin {
		name := indirect(reflect.TypeOf(mx)).Name()
		fields, ferr := safeFields(mx)
		if ferr != nil {
			return fmt.Errorf("mixin %q: %w", name, ferr)
		}
		for j, f := range fields {
			sf, ferr := NewField(f.Descriptor())
			if ferr != nil {
				return fmt.Errorf("mixin %q: %w", name, ferr)
			}
			sf.Position = &Position{
				Index:      j,
				MixedIn:    true,
				MixinIndex: i,
			}
			s.Fields = append(s.Fields, sf)
		}
		for _, at := range mx.Annotations() {
			s.addAnnotation(at)
		}
	}
	return nil
}

// loadFields loads field to schema from codefirst.Interface.
func (s *Schema) loadFields(schema codefirst.Interface) error {
	fields, err := safeFields(schema)
	if err != nil {
		return err
	}
	for i, f := range fields {
		sf, err := NewField(f.Descriptor())
		if err != nil {
			return err
		}
		sf.Position = &Position{Index: i}
		s.Fields = append(s.Fields, sf)
	}
	return nil
}

func (s *Schema) addAnnotation(an schema.Annotation) {
	addAnnotation(s.Annotations, an)
}

func (f *Field) addAnnotation(an schema.Annotation) {
	addAnnotation(f.Annotations, an)
}

// addAnnotation stores the annotation under its name. An annotation with the
// same name is merged if the stored one implements schema.Merger, otherwise
// the first one wins.
func addAnnotation(annotations map[string]any, an schema.Annotation) {
	curr, ok := annotations[an.Name()]
	if !ok {
		annotations[an.Name()] = an
		return
	}
	if m, ok := curr.(schema.Merger); ok {
		annotations[an.Name()] = m.Merge(an)
	}
}

// defaults restores numeric default values that JSON decoded as float64.
func (f *Field) defaults() error {
	if !f.Default || f.Info == nil || !f.Info.Type.Numeric() || f.DefaultKind == reflect.Func || f.DefaultValue == nil {
		return nil
	}
	n, ok := f.DefaultValue.(float64)
	if !ok {
		return fmt.Errorf("unexpected default value type for field: %q", f.Name)
	}
	f.DefaultValue = int64(n)
	return nil
}

// safeFields wraps the schema.Fields and mixin.Fields method with recover to ensure no panics in marshaling.
func safeFields(fd interface{ Fields() []codefirst.Field }) (fields []codefirst.Field, err error) {
	defer func() {
		if v := recover(); v != nil {
			err = fmt.Errorf("%T.Fields panics: %v", fd, v)
			fields = nil
		}
	}()
	return fd.Fields(), nil
}

// safeMixin wraps the schema.Mixin method with recover to ensure no panics in marshaling.
func safeMixin(schema codefirst.Interface) (mixin []codefirst.Mixin, err error) {
	defer func() {
		if v := recover(); v != nil {
			err = fmt.Errorf("schema.Mixin panics: %v", v)
			mixin = nil
		}
	}()
	return schema.Mixin(), nil
}

func indirect(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}
