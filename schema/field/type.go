package field

import (
	"fmt"
)

// A Type represents a field type.
type Type uint8

// List of field types.
const (
	TypeInvalid Type = iota
	TypeBool
	TypeTime
	TypeTimeTZ
	TypeDuration
	TypeInt
	TypeInt64
	TypeString
	endTypes
)

var (
	typeNames = [...]string{
		TypeInvalid:  "invalid",
		TypeBool:     "bool",
		TypeTime:     "time.Time",
		TypeTimeTZ:   "time.Time",
		TypeDuration: "time.Duration",
		TypeInt:      "int",
		TypeInt64:    "int64",
		TypeString:   "string",
	}
	constNames = [...]string{
		TypeInvalid:  "TypeInvalid",
		TypeBool:     "TypeBool",
		TypeTime:     "TypeTime",
		TypeTimeTZ:   "TypeTimeTZ",
		TypeDuration: "TypeDuration",
		TypeInt:      "TypeInt",
		TypeInt64:    "TypeInt64",
		TypeString:   "TypeString",
	}
)

// String returns the string representation of a type.
func (t Type) String() string {
	if t < endTypes {
		return typeNames[t]
	}
	return typeNames[TypeInvalid]
}

// Numeric reports if the given type is a numeric type.
func (t Type) Numeric() bool {
	return t == TypeInt || t == TypeInt64
}

// Temporal reports if the given type stores a point in time or a time span.
func (t Type) Temporal() bool {
	return t == TypeTime || t == TypeTimeTZ || t == TypeDuration
}

// Valid reports if the given type if known type.
func (t Type) Valid() bool {
	return t > TypeInvalid && t < endTypes
}

// ConstName returns the constant name of the type, like "TypeTime".
// Snapshots record column types by this name.
func (t Type) ConstName() string {
	if !t.Valid() {
		return constNames[TypeInvalid]
	}
	return constNames[t]
}

// TypeOf returns the type with the given constant name.
func TypeOf(constName string) (Type, bool) {
	for t := TypeBool; t < endTypes; t++ {
		if constNames[t] == constName {
			return t, true
		}
	}
	return TypeInvalid, false
}

// TypeInfo holds the information regarding field type.
type TypeInfo struct {
	Type  Type
	Ident string
}

// String returns the Go representation of the type.
func (t TypeInfo) String() string {
	if t.Ident != "" {
		return t.Ident
	}
	return t.Type.String()
}

// Valid reports if the type info is valid.
func (t *TypeInfo) Valid() bool {
	return t != nil && t.Type.Valid()
}

// GeneratedOption describes how the database produces values for a column.
type GeneratedOption string

// Database generated value strategies.
const (
	// GeneratedNone means the application supplies the value.
	GeneratedNone GeneratedOption = "none"
	// GeneratedIdentity means the database produces the value when a row is inserted.
	GeneratedIdentity GeneratedOption = "identity"
	// GeneratedComputed means the database produces the value when a row is inserted or updated.
	GeneratedComputed GeneratedOption = "computed"
)

// Valid reports if the option is one of the known strategies.
func (o GeneratedOption) Valid() bool {
	switch o {
	case GeneratedNone, GeneratedIdentity, GeneratedComputed:
		return true
	}
	return false
}

// ParseGeneratedOption parses the textual form of a GeneratedOption.
func ParseGeneratedOption(s string) (GeneratedOption, error) {
	if o := GeneratedOption(s); o.Valid() {
		return o, nil
	}
	return "", fmt.Errorf("field: unknown database generated option %q", s)
}
