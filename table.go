package icecore

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/marmotdata/icecore/catalog"
	"github.com/marmotdata/icecore/iceio"
	"github.com/marmotdata/icecore/schema"
	"github.com/marmotdata/icecore/tablemeta"
)

// Table is a handle on a catalog-managed table: its current metadata
// plus the catalog client used to load and commit it.
type Table struct {
	identifier catalog.Identifier
	catalog    catalog.Client
	io         iceio.FileIO

	meta             *tablemeta.TableMetadata
	metadataLocation string
}

// LoadTable loads a table's current metadata from cat.
func LoadTable(ctx context.Context, cat catalog.Client, io iceio.FileIO, id catalog.Identifier) (*Table, error) {
	meta, loc, err := cat.LoadTable(ctx, id)
	if err != nil {
		return nil, classify(err)
	}
	return &Table{identifier: id, catalog: cat, io: io, meta: meta, metadataLocation: loc}, nil
}

// Metadata returns the table's current metadata as of the last load or
// commit.
func (t *Table) Metadata() *tablemeta.TableMetadata { return t.meta }

// Schema returns the table's current schema.
func (t *Table) Schema() (*schema.Schema, error) {
	s, err := t.meta.CurrentSchema()
	if err != nil {
		return nil, newError(Invalid, err, "table has no current schema")
	}
	return s, nil
}

// NewTransaction starts a staged set of changes against the table's
// current metadata. Nothing is visible to other readers until Commit
// succeeds.
func (t *Table) NewTransaction() *Transaction {
	return &Transaction{table: t, base: t.meta}
}

// Scan starts a scan builder bound to the table's current metadata and
// file IO.
func (t *Table) Scan() *Scan {
	return newScan(t.meta, t.io)
}

// Transaction stages table updates and requirements (e.g. from
// UpdateSchema) and commits them as one optimistic-concurrency catalog
// request (spec.md §4.F, §4.G).
type Transaction struct {
	table *Table
	base  *tablemeta.TableMetadata

	updates      []catalog.TableUpdate
	requirements []catalog.TableRequirement
}

// stage appends updates/requirements produced by a builder (e.g.
// UpdateSchema.Commit) to the transaction.
func (tx *Transaction) stage(updates []catalog.TableUpdate, requirements []catalog.TableRequirement) {
	tx.updates = append(tx.updates, updates...)
	tx.requirements = append(tx.requirements, requirements...)
}

// UpdateSchema starts a schema-evolution builder staged against this
// transaction; its Commit call appends to the transaction rather than
// committing standalone.
func (tx *Transaction) UpdateSchema(caseSensitive, allowIncompatibleChanges bool) (*UpdateSchema, error) {
	sch, err := tx.base.CurrentSchema()
	if err != nil {
		return nil, newError(Invalid, err, "transaction base has no current schema")
	}
	return NewUpdateSchema(tx, sch, caseSensitive, allowIncompatibleChanges), nil
}

// Commit sends every staged update and requirement to the catalog in a
// single request. On success the owning Table's metadata is refreshed
// to the result.
func (tx *Transaction) Commit(ctx context.Context) error {
	if len(tx.updates) == 0 {
		return nil
	}
	req := catalog.CommitTableRequest{
		Identifier:   tx.table.identifier,
		Requirements: tx.requirements,
		Updates:      tx.updates,
	}
	if err := req.Validate(); err != nil {
		return newError(Invalid, err, "invalid commit request")
	}
	resp, err := tx.table.catalog.CommitTable(ctx, req)
	if err != nil {
		return classify(err)
	}
	tx.table.meta = resp.Metadata
	tx.table.metadataLocation = resp.MetadataLocation
	tx.updates = nil
	tx.requirements = nil
	return nil
}

// LoadStatic loads a table's metadata directly from a known
// metadata.json location, bypassing any catalog — useful for reading a
// table whose location is already known (e.g. from a manifest embedded
// in another system), per spec.md §6's static-metadata entry point.
func LoadStatic(ctx context.Context, fileIO iceio.FileIO, metadataLocation string) (*Table, error) {
	in, err := fileIO.NewInput(ctx, metadataLocation)
	if err != nil {
		return nil, newError(IO, err, "open metadata file %q", metadataLocation)
	}
	defer in.Close()
	data, err := io.ReadAll(in)
	if err != nil {
		return nil, newError(IO, err, "read metadata file %q", metadataLocation)
	}
	meta := &tablemeta.TableMetadata{}
	if err := json.Unmarshal(data, meta); err != nil {
		return nil, newError(Invalid, err, "parse metadata file %q", metadataLocation)
	}
	return &Table{catalog: staticClient{}, io: fileIO, meta: meta, metadataLocation: metadataLocation}, nil
}

// staticClient backs a Table loaded via LoadStatic: reads are fine,
// but there is no catalog to commit to.
type staticClient struct{}

func (staticClient) LoadTable(ctx context.Context, id catalog.Identifier) (*tablemeta.TableMetadata, string, error) {
	return nil, "", fmt.Errorf("icecore: table was loaded statically, not from a catalog")
}

func (staticClient) CommitTable(ctx context.Context, req catalog.CommitTableRequest) (*catalog.CommitTableResponse, error) {
	return nil, fmt.Errorf("icecore: table was loaded statically; commits require a catalog")
}
