// Package gen builds the model of a set of codefirst schemas and derives
// its artifacts from it.
//
// The pipeline follows this flow:
//
//	Schema Definition (schema/*.go)
//	        ↓
//	   codefirst.Interface + field builders
//	        ↓
//	   load.Schema (compiler/load)
//	        ↓
//	   Graph (naming and nullability conventions applied)
//	        ↓
//	   Tables(dialect) / Snapshot / WriteSnapshot
//
// # Conventions
//
// NewGraph applies the model building conventions to the loaded schemas:
//
//   - the table name is the plural snake case of the entity name, unless
//     a sqlschema.Table annotation overrides it;
//   - the column name is the ColumnName facet, or the snake case of the
//     field name;
//   - temporal and numeric properties are required, strings are optional,
//     unless Optional or Required was configured;
//   - columns with an explicit ColumnOrder come first, in ascending order,
//     followed by the rest in declaration order;
//   - a single integer key without a DatabaseGenerated facet is an identity.
//
// # Usage
//
//	schemas, err := load.Load(schema.Order{}, schema.Invoice{})
//	if err != nil {
//		return err
//	}
//	cfg, err := gen.NewConfig(gen.WithTarget("./internal/model"))
//	if err != nil {
//		return err
//	}
//	g, err := gen.NewGraph(cfg, schemas...)
//	if err != nil {
//		return err
//	}
//	tables, err := g.Tables(dialect.Postgres)
package gen
