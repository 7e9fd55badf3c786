// Package schema provides the building blocks for defining codefirst entity schemas.
//
//   - [field]: property builders (time properties and key columns)
//   - [mixin]: reusable schema components
//
// # Quick Start
//
// Define an entity schema by embedding codefirst.Schema:
//
//	type Order struct{ codefirst.Schema }
//
//	func (Order) Mixin() []codefirst.Mixin {
//	    return []codefirst.Mixin{
//	        mixin.Time{},
//	    }
//	}
//
//	func (Order) Fields() []codefirst.Field {
//	    return []codefirst.Field{
//	        field.Int64("id").PrimaryKey().DatabaseGenerated(field.GeneratedIdentity),
//	        field.Time("placed_at").
//	            ColumnName("placed").
//	            ColumnType("datetime2").
//	            Precision(3),
//	        field.Time("shipped_at").Optional(),
//	        field.Time("modified_at").
//	            ConcurrencyToken().
//	            DatabaseGenerated(field.GeneratedComputed),
//	    }
//	}
//
// # Annotations
//
// Annotations attach metadata consumed by generators and migrations. Two
// annotations with the same name are merged when the first implements Merger.
package schema
