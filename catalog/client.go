package catalog

import (
	"context"

	"github.com/marmotdata/icecore/tablemeta"
)

// Client is a catalog's commit-capable surface: enough to load a
// table's current metadata location and atomically commit a staged
// transaction against it. Concrete implementations live in
// catalog/rest and catalog/glue.
type Client interface {
	LoadTable(ctx context.Context, id Identifier) (*tablemeta.TableMetadata, string, error)
	CommitTable(ctx context.Context, req CommitTableRequest) (*CommitTableResponse, error)
}
