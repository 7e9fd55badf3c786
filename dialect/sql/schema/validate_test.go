package schema

import (
	"testing"

	"github.com/syssam/codefirst/dialect"
	"github.com/syssam/codefirst/schema/field"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateTable(t *testing.T) {
	result := ValidateTable(ordersTable())
	assert.False(t, result.HasErrors())
	assert.False(t, result.HasWarnings())
	assert.Equal(t, "No issues found", result.String())

	tbl := NewTable("events")
	tbl.AddColumn(&Column{Name: "at", Type: field.TypeTime})
	tbl.AddColumn(&Column{Name: "at", Type: field.TypeTime})
	tbl.AddColumn(&Column{Name: "version", Type: field.TypeTime, Generated: field.GeneratedComputed})
	tbl.AddColumn(&Column{Name: "stamp", Type: field.TypeTime, ConcurrencyToken: true})
	result = ValidateTable(tbl)
	require.Len(t, result.Errors, 2)
	assert.Equal(t, "events.at: duplicate column name", result.Errors[0].Error())
	assert.Equal(t, "events.version: computed column has no default expression", result.Errors[1].Error())
	require.Len(t, result.Warnings, 2)
	assert.Equal(t, "events: table has no primary key", result.Warnings[0].Error())
	assert.Contains(t, result.Warnings[1].Error(), "events.stamp: concurrency token")
}

func TestValidateDiff(t *testing.T) {
	current := NewTable("orders")
	current.AddPrimary(&Column{Name: "id", Type: field.TypeInt})
	current.AddColumn(&Column{Name: "placed_at", Type: field.TypeTime, Nullable: true, Precision: ptr(uint8(6))})
	current.AddColumn(&Column{Name: "note", Type: field.TypeString})

	desired := NewTable("orders")
	desired.AddPrimary(&Column{Name: "id", Type: field.TypeInt})
	desired.AddColumn(&Column{Name: "placed_at", Type: field.TypeTimeTZ, Precision: ptr(uint8(3))})
	desired.AddColumn(&Column{Name: "shipped_at", Type: field.TypeTime})

	result := ValidateDiff([]*Table{current}, []*Table{desired})
	require.True(t, result.HasErrors())
	assert.True(t, result.HasBreakingChanges())
	var msgs []string
	for _, e := range result.Errors {
		msgs = append(msgs, e.Error())
	}
	assert.ElementsMatch(t, []string{
		"orders.note: column will be dropped",
		"orders.placed_at: column changing from NULL to NOT NULL may fail if column has NULL values",
	}, msgs)
	msgs = msgs[:0]
	for _, w := range result.Warnings {
		msgs = append(msgs, w.Error())
	}
	assert.ElementsMatch(t, []string{
		"orders.shipped_at: new NOT NULL column without default value may fail if table has data",
		"orders.placed_at: column type changing from TypeTime to TypeTimeTZ",
		"orders.placed_at: fractional seconds precision reducing from 6 to 3 truncates stored values",
	}, msgs)

	result = ValidateDiff([]*Table{current}, []*Table{desired}, AllowDropColumn(), AllowNullToNotNull())
	assert.False(t, result.HasErrors())
	assert.True(t, result.HasBreakingChanges())

	result = ValidateDiff([]*Table{current}, nil)
	assert.False(t, result.HasErrors())
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, "orders: table is no longer declared and is kept", result.Warnings[0].Error())
}

func TestValidateTable_Dialect(t *testing.T) {
	result := ValidateTable(ordersTable(), ForDialect(dialect.MySQL))
	assert.False(t, result.HasErrors())
	assert.False(t, result.HasWarnings())

	for _, d := range []string{dialect.SQLite, dialect.Postgres} {
		result = ValidateTable(ordersTable(), ForDialect(d))
		assert.False(t, result.HasErrors(), d)
		require.Len(t, result.Warnings, 1, d)
		assert.Equal(t, "modified_at", result.Warnings[0].Column)
		assert.Contains(t, result.Warnings[0].Message, "not refreshed by "+d)
		assert.Contains(t, result.Warnings[0].Message, "CheckTimestamp")
	}

	tbl := NewTable("events")
	tbl.AddPrimary(&Column{Name: "id", Type: field.TypeInt})
	tbl.AddColumn(&Column{Name: "at", Type: field.TypeTime, Precision: ptr(uint8(9))})
	for _, d := range []string{dialect.MySQL, dialect.Postgres} {
		result = ValidateSchema([]*Table{tbl}, ForDialect(d))
		require.Len(t, result.Errors, 1, d)
		assert.Equal(t, "events.at: fractional seconds precision 9 exceeds the maximum of 6 supported by "+d, result.Errors[0].Error())
	}
	// SQLite stores time as text and has no such limit.
	assert.False(t, ValidateSchema([]*Table{tbl}, ForDialect(dialect.SQLite)).HasErrors())
	assert.False(t, ValidateSchema([]*Table{tbl}).HasErrors())
}
