package mixin_test

import (
	"testing"

	"github.com/syssam/codefirst"
	"github.com/syssam/codefirst/schema"
	"github.com/syssam/codefirst/schema/field"
	"github.com/syssam/codefirst/schema/mixin"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaBaseMixin(t *testing.T) {
	m := mixin.Schema{}
	assert.Nil(t, m.Fields())
	assert.Nil(t, m.Annotations())
	var _ codefirst.Mixin = mixin.Schema{}
	var _ codefirst.Mixin = &mixin.Schema{}
}

func TestTimeMixin(t *testing.T) {
	fields := mixin.Time{}.Fields()
	require.Len(t, fields, 2)

	created := fields[0].Descriptor()
	assert.Equal(t, "created_at", created.Name)
	assert.Equal(t, field.TypeTime, created.Info.Type)
	assert.True(t, created.Immutable)
	assert.NotNil(t, created.Default)
	assert.Nil(t, created.UpdateDefault)
	assert.NoError(t, created.Err)

	updated := fields[1].Descriptor()
	assert.Equal(t, "updated_at", updated.Name)
	assert.False(t, updated.Immutable)
	assert.NotNil(t, updated.UpdateDefault)
	assert.NoError(t, updated.Err)
}

func TestSoftDeleteMixin(t *testing.T) {
	fields := mixin.SoftDelete{}.Fields()
	require.Len(t, fields, 1)
	fd := fields[0].Descriptor()
	assert.Equal(t, "deleted_at", fd.Name)
	nullable, ok := fd.IsNullable()
	assert.True(t, ok)
	assert.True(t, nullable)
}

func TestRowVersionMixin(t *testing.T) {
	fd := mixin.RowVersion{}.Fields()[0].Descriptor()
	assert.Equal(t, "modified_at", fd.Name)
	assert.True(t, fd.IsConcurrencyToken())
	assert.Equal(t, field.GeneratedComputed, fd.GeneratedOption())
	require.NotNil(t, fd.Precision)
	assert.Equal(t, uint8(6), *fd.Precision)

	p := uint8(0)
	fd = mixin.RowVersion{Precision: &p}.Fields()[0].Descriptor()
	assert.Equal(t, uint8(0), *fd.Precision)
}

type testAnnotation string

func (testAnnotation) Name() string { return "TestAnnotation" }

func TestAnnotateFields(t *testing.T) {
	m := mixin.AnnotateFields(mixin.Time{}, testAnnotation("a"), schema.Comment("c"))
	for _, f := range m.Fields() {
		anns := f.Descriptor().Annotations
		require.Len(t, anns, 2)
		assert.Equal(t, "TestAnnotation", anns[0].Name())
		assert.Equal(t, "Comment", anns[1].Name())
	}
	assert.Nil(t, m.Annotations())
}
