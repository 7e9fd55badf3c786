package gen

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dave/jennifer/jen"
	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/sync/errgroup"
	"golang.org/x/tools/imports"

	"github.com/syssam/codefirst/dialect/sql/schema"
	"github.com/syssam/codefirst/schema/field"
)

// Snapshot is a point in time description of the model. Two graphs with the
// same types and facets produce snapshots with the same ID.
type Snapshot struct {
	ID    string         `msgpack:"id" json:"id"`
	Types []SnapshotType `msgpack:"types" json:"types"`
}

// SnapshotType describes an entity and its table.
type SnapshotType struct {
	Name    string           `msgpack:"name" json:"name"`
	Table   string           `msgpack:"table" json:"table"`
	Skip    bool             `msgpack:"skip,omitempty" json:"skip,omitempty"`
	Columns []SnapshotColumn `msgpack:"columns" json:"columns"`
}

// SnapshotColumn describes a property and the column that stores it.
type SnapshotColumn struct {
	Field            string            `msgpack:"field" json:"field"`
	Column           string            `msgpack:"column" json:"column"`
	Type             string            `msgpack:"type" json:"type"`
	Nullable         bool              `msgpack:"nullable,omitempty" json:"nullable,omitempty"`
	Key              bool              `msgpack:"key,omitempty" json:"key,omitempty"`
	Unique           bool              `msgpack:"unique,omitempty" json:"unique,omitempty"`
	Immutable        bool              `msgpack:"immutable,omitempty" json:"immutable,omitempty"`
	ConcurrencyToken bool              `msgpack:"concurrency_token,omitempty" json:"concurrency_token,omitempty"`
	Generated        string            `msgpack:"generated,omitempty" json:"generated,omitempty"`
	Order            *int              `msgpack:"order,omitempty" json:"order,omitempty"`
	Precision        *uint8            `msgpack:"precision,omitempty" json:"precision,omitempty"`
	SchemaType       map[string]string `msgpack:"schema_type,omitempty" json:"schema_type,omitempty"`
	Annotations      map[string]any    `msgpack:"annotations,omitempty" json:"annotations,omitempty"`
	Skip             bool              `msgpack:"skip,omitempty" json:"skip,omitempty"`
}

// SnapshotFile is the name of the file holding the encoded snapshot in the
// generated package.
const SnapshotFile = "snapshot.msgpack"

// Snapshot returns the snapshot of the graph.
func (g *Graph) Snapshot() (*Snapshot, error) {
	s := &Snapshot{Types: make([]SnapshotType, 0, len(g.Nodes))}
	for _, n := range g.Nodes {
		st := SnapshotType{
			Name:    n.Name,
			Table:   n.Table(),
			Columns: make([]SnapshotColumn, 0, len(n.Fields)),
		}
		if ant := n.SQL(); ant != nil {
			st.Skip = ant.Skip
		}
		for _, f := range n.Fields {
			sc := SnapshotColumn{
				Field:            f.Name,
				Column:           f.Column,
				Type:             f.Type.Type.ConstName(),
				Nullable:         f.Nullable,
				Key:              f.Key,
				Unique:           f.Unique,
				Immutable:        f.Immutable,
				ConcurrencyToken: f.ConcurrencyToken,
				Order:            f.Order,
				Precision:        f.Precision,
				SchemaType:       f.def.SchemaType,
				Annotations:      f.ColumnAnnotations(),
			}
			if f.Generated != field.GeneratedNone {
				sc.Generated = string(f.Generated)
			}
			if fa := f.SQL(); fa != nil {
				sc.Skip = fa.Skip
			}
			if typ := f.def.ColumnType; typ != "" {
				sc.SchemaType = map[string]string{"*": typ}
			}
			st.Columns = append(st.Columns, sc)
		}
		s.Types = append(s.Types, st)
	}
	buf, err := encode(s.Types)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	s.ID = uuid.NewSHA1(uuid.NameSpaceOID, buf).String()
	return s, nil
}

// Encode returns the msgpack encoding of the snapshot.
func (s *Snapshot) Encode() ([]byte, error) {
	return encode(s)
}

// DecodeSnapshot decodes a snapshot produced by Snapshot.Encode.
func DecodeSnapshot(buf []byte) (*Snapshot, error) {
	s := &Snapshot{}
	if err := msgpack.Unmarshal(buf, s); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if _, err := uuid.Parse(s.ID); err != nil {
		return nil, fmt.Errorf("decode snapshot: invalid id %q: %w", s.ID, err)
	}
	return s, nil
}

// Type returns the snapshot type with the given name.
func (s *Snapshot) Type(name string) (*SnapshotType, bool) {
	for i := range s.Types {
		if s.Types[i].Name == name {
			return &s.Types[i], true
		}
	}
	return nil, false
}

// Tables returns the tables of the snapshot as they were when it was taken.
// Types and columns that are not stored in the database are left out.
func (s *Snapshot) Tables() ([]*schema.Table, error) {
	tables := make([]*schema.Table, 0, len(s.Types))
	for _, st := range s.Types {
		if st.Skip {
			continue
		}
		t := schema.NewTable(st.Table)
		for _, sc := range st.Columns {
			if sc.Skip {
				continue
			}
			typ, ok := field.TypeOf(sc.Type)
			if !ok {
				return nil, fmt.Errorf("snapshot %s: column %s.%s: unknown type %q", s.ID, st.Table, sc.Column, sc.Type)
			}
			c := &schema.Column{
				Name:             sc.Column,
				Type:             typ,
				Nullable:         sc.Nullable,
				Unique:           sc.Unique,
				Precision:        sc.Precision,
				ConcurrencyToken: sc.ConcurrencyToken,
				Generated:        field.GeneratedNone,
				Annotations:      sc.Annotations,
				Order:            sc.Order,
			}
			if sc.Generated != "" {
				c.Generated = field.GeneratedOption(sc.Generated)
			}
			if sc.Key {
				t.AddPrimary(c)
			} else {
				t.AddColumn(c)
			}
		}
		tables = append(tables, t)
	}
	return tables, nil
}

// encode encodes v with sorted map keys to keep the output stable.
func encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetSortMapKeys(true)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// genPkg is the import path of this package, referenced by generated files.
const genPkg = "github.com/syssam/codefirst/compiler/gen"

// WriteSnapshot writes the generated package to the configured target:
// one file per type with its table and column names, the encoded snapshot
// and snapshot.go embedding it. Files are written in parallel.
func (g *Graph) WriteSnapshot(ctx context.Context) error {
	if g.Target == "" {
		return NewConfigError("Target", nil, "missing target directory in config")
	}
	s, err := g.Snapshot()
	if err != nil {
		return err
	}
	buf, err := s.Encode()
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := os.MkdirAll(g.Target, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	files := map[string]*jen.File{
		"snapshot.go": g.snapshotFile(s.ID),
	}
	for _, n := range g.Nodes {
		files[n.Label()+".go"] = g.typeFile(n)
	}
	eg, ctx := errgroup.WithContext(ctx)
	if g.Workers > 0 {
		eg.SetLimit(g.Workers)
	}
	eg.Go(func() error {
		if err := os.WriteFile(filepath.Join(g.Target, SnapshotFile), buf, 0o644); err != nil {
			return &GenerationError{File: SnapshotFile, Cause: err}
		}
		return nil
	})
	for name, f := range files {
		eg.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
				return g.writeFile(name, f)
			}
		})
	}
	return eg.Wait()
}

// writeFile renders the file, formats it with goimports and writes it to
// the target directory.
func (g *Graph) writeFile(name string, f *jen.File) error {
	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		return &GenerationError{File: name, Cause: err}
	}
	path := filepath.Join(g.Target, name)
	formatted, err := imports.Process(path, buf.Bytes(), nil)
	if err != nil {
		return &GenerationError{File: name, Cause: err}
	}
	if err := os.WriteFile(path, formatted, 0o644); err != nil {
		return &GenerationError{File: name, Cause: err}
	}
	return nil
}

func (g *Graph) newFile() *jen.File {
	f := jen.NewFilePath(g.Package)
	if g.Package == "" {
		f = jen.NewFile(g.PackageName())
	}
	if g.Header != "" {
		f.HeaderComment(g.Header)
	}
	return f
}

// typeFile generates the table and column names of a type.
func (g *Graph) typeFile(t *Type) *jen.File {
	f := g.newFile()
	prefix := pascal(t.Name)
	defs := []jen.Code{
		jen.Comment(fmt.Sprintf("%sTable is the table that holds %s entities.", prefix, t.Name)),
		jen.Id(prefix + "Table").Op("=").Lit(t.Table()),
	}
	columns := make([]jen.Code, 0, len(t.Fields))
	for _, fd := range t.Fields {
		id := prefix + "Column" + fd.StructField()
		defs = append(defs,
			jen.Comment(fmt.Sprintf("%s holds the column of the %q field.", id, fd.Name)),
			jen.Id(id).Op("=").Lit(fd.Column),
		)
		columns = append(columns, jen.Id(id))
	}
	f.Const().Defs(defs...)
	f.Comment(fmt.Sprintf("%sColumns holds all SQL columns of %s in column order.", prefix, t.Name))
	f.Var().Id(prefix + "Columns").Op("=").Index().String().Values(columns...)
	if tokens := t.ConcurrencyTokens(); len(tokens) > 0 {
		ids := make([]jen.Code, 0, len(tokens))
		for _, fd := range tokens {
			ids = append(ids, jen.Id(prefix+"Column"+fd.StructField()))
		}
		f.Comment(fmt.Sprintf("%sConcurrencyTokens holds the columns that guard updates of %s.", prefix, t.Name))
		f.Var().Id(prefix + "ConcurrencyTokens").Op("=").Index().String().Values(ids...)
	}
	return f
}

// snapshotFile generates the file embedding the encoded snapshot.
func (g *Graph) snapshotFile(id string) *jen.File {
	f := g.newFile()
	f.Anon("embed")
	f.Comment("SnapshotID identifies the model this package was generated from.")
	f.Const().Id("SnapshotID").Op("=").Lit(id)
	f.Comment("snapshot holds the msgpack encoding of the model.")
	f.Comment("//go:embed " + SnapshotFile)
	f.Var().Id("snapshot").Index().Byte()
	f.Comment("Snapshot decodes the model snapshot embedded in this package.")
	f.Func().Id("Snapshot").Params().Params(jen.Op("*").Qual(genPkg, "Snapshot"), jen.Error()).Block(
		jen.Return(jen.Qual(genPkg, "DecodeSnapshot").Call(jen.Id("snapshot"))),
	)
	return f
}
