package field_test

import (
	"testing"
	"time"

	"github.com/syssam/codefirst"
	"github.com/syssam/codefirst/dialect"
	"github.com/syssam/codefirst/schema"
	"github.com/syssam/codefirst/schema/field"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTime(t *testing.T) {
	now := time.Now()
	fd := field.Time("created_at").
		Default(func() time.Time {
			return now
		}).
		Comment("comment").
		Descriptor()
	assert.NoError(t, fd.Err)
	assert.Equal(t, "created_at", fd.Name)
	assert.Equal(t, field.TypeTime, fd.Info.Type)
	assert.Equal(t, "time.Time", fd.Info.String())
	assert.NotNil(t, fd.Default)
	assert.Equal(t, now, fd.Default.(func() time.Time)())
	assert.Equal(t, "comment", fd.Comment)

	fd = field.Time("updated_at").
		UpdateDefault(func() time.Time {
			return now
		}).
		Descriptor()
	assert.Equal(t, "updated_at", fd.Name)
	assert.Equal(t, now, fd.UpdateDefault.(func() time.Time)())

	assert.Equal(t, field.TypeTimeTZ, field.TimeTZ("at").Descriptor().Info.Type)
	assert.Equal(t, field.TypeDuration, field.Duration("ttl").Descriptor().Info.Type)
	assert.Equal(t, "time.Duration", field.Duration("ttl").Descriptor().Info.String())

	fd = field.Time("deleted_at").Default(1).Descriptor()
	assert.Error(t, fd.Err)
	fd = field.Time("deleted_at").UpdateDefault(func() time.Duration { return 0 }).Descriptor()
	assert.Error(t, fd.Err)
	fd = field.Duration("ttl").Default(func() time.Duration { return time.Minute }).Descriptor()
	assert.NoError(t, fd.Err)
	fd = field.Duration("ttl").Default(time.Now).Descriptor()
	assert.EqualError(t, fd.Err, "expect type (func() time.Duration) for Default, got func() time.Time")
}

func TestTime_Nullability(t *testing.T) {
	fd := field.Time("shipped_at").Descriptor()
	_, ok := fd.IsNullable()
	assert.False(t, ok, "nullability is left to conventions")

	fd = field.Time("shipped_at").Optional().Descriptor()
	nullable, ok := fd.IsNullable()
	assert.True(t, ok)
	assert.True(t, nullable)

	fd = field.Time("shipped_at").Optional().Required().Descriptor()
	nullable, ok = fd.IsNullable()
	assert.True(t, ok)
	assert.False(t, nullable)
}

func TestTime_DatabaseGenerated(t *testing.T) {
	fd := field.Time("created_at").Descriptor()
	assert.Nil(t, fd.Generated)
	assert.Equal(t, field.GeneratedNone, fd.GeneratedOption())

	fd = field.Time("created_at").DatabaseGenerated(field.GeneratedIdentity).Descriptor()
	require.NotNil(t, fd.Generated)
	assert.Equal(t, field.GeneratedIdentity, fd.GeneratedOption())

	computed := field.GeneratedComputed
	fd = field.Time("modified_at").
		DatabaseGenerated(field.GeneratedIdentity).
		SetDatabaseGenerated(&computed).
		Descriptor()
	assert.Equal(t, field.GeneratedComputed, fd.GeneratedOption())

	fd = field.Time("modified_at").
		DatabaseGenerated(field.GeneratedComputed).
		SetDatabaseGenerated(nil).
		Descriptor()
	assert.Nil(t, fd.Generated)
	assert.Equal(t, field.GeneratedNone, fd.GeneratedOption())

	fd = field.Time("modified_at").DatabaseGenerated("sometimes").Descriptor()
	assert.Error(t, fd.Err)
	assert.Nil(t, fd.Generated)
}

func TestTime_ConcurrencyToken(t *testing.T) {
	fd := field.Time("row_version").Descriptor()
	assert.Nil(t, fd.ConcurrencyToken)
	assert.False(t, fd.IsConcurrencyToken())

	fd = field.Time("row_version").ConcurrencyToken().Descriptor()
	assert.True(t, fd.IsConcurrencyToken())

	off := false
	fd = field.Time("row_version").ConcurrencyToken().SetConcurrencyToken(&off).Descriptor()
	require.NotNil(t, fd.ConcurrencyToken)
	assert.False(t, fd.IsConcurrencyToken())

	fd = field.Time("row_version").ConcurrencyToken().SetConcurrencyToken(nil).Descriptor()
	assert.Nil(t, fd.ConcurrencyToken)
	assert.False(t, fd.IsConcurrencyToken())

	// The caller's variable is not aliased.
	on := true
	fd = field.Time("row_version").SetConcurrencyToken(&on).Descriptor()
	on = false
	assert.True(t, fd.IsConcurrencyToken())
}

func TestTime_Column(t *testing.T) {
	fd := field.Time("placed_at").
		ColumnName("placed").
		ColumnType("datetime2").
		ColumnOrder(2).
		Precision(3).
		Descriptor()
	require.NoError(t, fd.Err)
	assert.Equal(t, "placed", fd.ColumnName)
	assert.Equal(t, "placed", fd.StorageName())
	assert.Equal(t, "datetime2", fd.ColumnType)
	require.NotNil(t, fd.ColumnOrder)
	assert.Equal(t, 2, *fd.ColumnOrder)
	require.NotNil(t, fd.Precision)
	assert.Equal(t, uint8(3), *fd.Precision)

	assert.Equal(t, "placed_at", field.Time("placed_at").Descriptor().StorageName())

	fd = field.Time("placed_at").ColumnOrder(1).SetColumnOrder(nil).Descriptor()
	assert.Nil(t, fd.ColumnOrder)
	order := 4
	fd = field.Time("placed_at").SetColumnOrder(&order).Descriptor()
	assert.Equal(t, 4, *fd.ColumnOrder)

	fd = field.Time("placed_at").ColumnName("").Descriptor()
	assert.EqualError(t, fd.Err, "column name must not be empty")
	fd = field.Time("placed_at").ColumnType("").Descriptor()
	assert.EqualError(t, fd.Err, "column type must not be empty")
	fd = field.Time("placed_at").ColumnName("   ").ColumnType(" \t").Descriptor()
	assert.EqualError(t, fd.Err, "column name must not be empty\ncolumn type must not be empty")
	assert.Empty(t, fd.ColumnName)
	assert.Empty(t, fd.ColumnType)
	fd = field.Int("n").ColumnName(" ").Descriptor()
	assert.EqualError(t, fd.Err, "column name must not be empty")
	fd = field.Time("placed_at").ColumnOrder(-1).Descriptor()
	assert.EqualError(t, fd.Err, "column order must be non-negative, got -1")
	assert.Nil(t, fd.ColumnOrder)
}

func TestTime_ColumnAnnotation(t *testing.T) {
	fd := field.Time("placed_at").
		ColumnAnnotation("Collation", "und").
		ColumnAnnotation("Indexed", true).
		Descriptor()
	require.NoError(t, fd.Err)
	assert.Equal(t, map[string]any{"Collation": "und", "Indexed": true}, fd.ColumnAnnotations)

	fd = field.Time("placed_at").
		ColumnAnnotation("Collation", "und").
		ColumnAnnotation("Collation", nil).
		Descriptor()
	assert.Empty(t, fd.ColumnAnnotations)

	// Removing an annotation that was never set is a no-op.
	fd = field.Time("placed_at").ColumnAnnotation("Missing", nil).Descriptor()
	assert.NoError(t, fd.Err)
	assert.Nil(t, fd.ColumnAnnotations)

	for _, name := range []string{"", "1st", "with space", "dash-ed"} {
		fd = field.Time("placed_at").ColumnAnnotation(name, "v").Descriptor()
		assert.Error(t, fd.Err, name)
	}
}

// TestTimeBuilderChaining verifies every facet returns the same builder.
func TestTimeBuilderChaining(t *testing.T) {
	b := field.Time("modified_at")
	computed := field.GeneratedComputed
	on := true
	order := 1
	steps := []func() *field.TimeBuilder{
		b.Optional,
		b.Required,
		func() *field.TimeBuilder { return b.DatabaseGenerated(field.GeneratedIdentity) },
		func() *field.TimeBuilder { return b.SetDatabaseGenerated(&computed) },
		b.ConcurrencyToken,
		func() *field.TimeBuilder { return b.SetConcurrencyToken(&on) },
		func() *field.TimeBuilder { return b.ColumnName("modified") },
		func() *field.TimeBuilder { return b.ColumnAnnotation("Audit", "yes") },
		func() *field.TimeBuilder { return b.ColumnType("timestamp") },
		func() *field.TimeBuilder { return b.ColumnOrder(3) },
		func() *field.TimeBuilder { return b.SetColumnOrder(&order) },
		func() *field.TimeBuilder { return b.Precision(6) },
		func() *field.TimeBuilder { return b.Default(time.Now) },
		func() *field.TimeBuilder { return b.UpdateDefault(time.Now) },
		b.Immutable,
		b.Unique,
		b.PrimaryKey,
		func() *field.TimeBuilder { return b.Comment("c") },
		func() *field.TimeBuilder { return b.SchemaType(map[string]string{dialect.MySQL: "datetime"}) },
		func() *field.TimeBuilder { return b.Annotations(schema.Comment("x")) },
		func() *field.TimeBuilder { return b.Deprecated("gone") },
	}
	for i, step := range steps {
		assert.Same(t, b, step(), "step %d", i)
	}
	fd := b.Descriptor()
	require.NoError(t, fd.Err)
	assert.Equal(t, field.GeneratedComputed, fd.GeneratedOption())
	assert.True(t, fd.IsConcurrencyToken())
	assert.Equal(t, 1, *fd.ColumnOrder)
	assert.Equal(t, uint8(6), *fd.Precision)
	assert.True(t, fd.Immutable)
	assert.True(t, fd.Unique)
	assert.True(t, fd.Key)
	assert.True(t, fd.Deprecated)
	assert.Equal(t, "gone", fd.DeprecatedReason)
	assert.Equal(t, "datetime", fd.SchemaType[dialect.MySQL])
	require.Len(t, fd.Annotations, 1)
}

func TestTime_ErrorsAccumulate(t *testing.T) {
	fd := field.Time("at").
		ColumnName("").
		ColumnOrder(-2).
		ColumnName("at_col").
		Descriptor()
	require.Error(t, fd.Err)
	assert.Contains(t, fd.Err.Error(), "column name must not be empty")
	assert.Contains(t, fd.Err.Error(), "column order must be non-negative")
	// Later calls are still applied.
	assert.Equal(t, "at_col", fd.ColumnName)
}

func TestPrimitive(t *testing.T) {
	fd := field.Int64("id").
		PrimaryKey().
		DatabaseGenerated(field.GeneratedIdentity).
		ColumnOrder(0).
		Descriptor()
	assert.NoError(t, fd.Err)
	assert.Equal(t, field.TypeInt64, fd.Info.Type)
	assert.True(t, fd.Key)
	assert.Equal(t, field.GeneratedIdentity, fd.GeneratedOption())

	fd = field.String("name").Default("unknown").Optional().Descriptor()
	assert.Equal(t, "unknown", fd.Default)
	nullable, _ := fd.IsNullable()
	assert.True(t, nullable)

	assert.Equal(t, field.TypeInt, field.Int("n").Descriptor().Info.Type)
	assert.Equal(t, field.TypeBool, field.Bool("b").Descriptor().Info.Type)

	fd = field.String("name").
		SchemaType(map[string]string{dialect.Postgres: "citext"}).
		SchemaType(map[string]string{dialect.MySQL: "varchar(64)"}).
		Descriptor()
	assert.Equal(t, map[string]string{dialect.Postgres: "citext", dialect.MySQL: "varchar(64)"}, fd.SchemaType)
}

func TestFieldInterface(t *testing.T) {
	fields := []codefirst.Field{
		field.Time("a"),
		field.TimeTZ("b"),
		field.Duration("c"),
		field.Int64("d"),
	}
	for _, f := range fields {
		assert.NotNil(t, f.Descriptor().Info)
	}
}

func TestTypeString(t *testing.T) {
	assert.Equal(t, "invalid", field.TypeInvalid.String())
	assert.Equal(t, "invalid", field.Type(200).String())
	assert.Equal(t, "time.Time", field.TypeTimeTZ.String())
	assert.Equal(t, "TypeDuration", field.TypeDuration.ConstName())
	assert.Equal(t, "TypeInvalid", field.Type(200).ConstName())

	typ, ok := field.TypeOf("TypeTimeTZ")
	require.True(t, ok)
	assert.Equal(t, field.TypeTimeTZ, typ)
	_, ok = field.TypeOf("TypeInvalid")
	assert.False(t, ok)
	_, ok = field.TypeOf("time.Time")
	assert.False(t, ok)
}

func TestTypeInfo(t *testing.T) {
	tests := []struct {
		typ      field.Type
		numeric  bool
		temporal bool
	}{
		{field.TypeBool, false, false},
		{field.TypeTime, false, true},
		{field.TypeTimeTZ, false, true},
		{field.TypeDuration, false, true},
		{field.TypeInt, true, false},
		{field.TypeInt64, true, false},
		{field.TypeString, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.typ.ConstName(), func(t *testing.T) {
			assert.True(t, tt.typ.Valid())
			assert.Equal(t, tt.numeric, tt.typ.Numeric())
			assert.Equal(t, tt.temporal, tt.typ.Temporal())
		})
	}
	assert.False(t, field.TypeInvalid.Valid())
	var info *field.TypeInfo
	assert.False(t, info.Valid())
}

func TestParseGeneratedOption(t *testing.T) {
	for _, s := range []string{"none", "identity", "computed"} {
		o, err := field.ParseGeneratedOption(s)
		require.NoError(t, err)
		assert.Equal(t, s, string(o))
	}
	_, err := field.ParseGeneratedOption("Identity")
	assert.Error(t, err)
}

func BenchmarkTimeBuilder(b *testing.B) {
	for i := 0; i < b.N; i++ {
		field.Time("modified_at").
			ConcurrencyToken().
			DatabaseGenerated(field.GeneratedComputed).
			Precision(3).
			Descriptor()
	}
}
