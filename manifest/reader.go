package manifest

import "context"

// EntryIterator lazily yields manifest entries, one at a time, so a
// caller can stop early without paying to materialize an entire
// manifest. Next returns false once exhausted or on error; callers
// must consult Err after a false return.
type EntryIterator interface {
	Next() bool
	Entry() *ManifestEntry
	Err() error
	Close() error
}

// Reader opens a manifest file (located by URI) and its manifest
// list, without decoding every entry eagerly. DiscardDeleted, when
// true, skips entries whose Status is EntryDeleted — the scan planner
// always passes true per spec.md §4.D step 6.
type Reader interface {
	// ReadManifestList reads the snapshot's manifest-list file and
	// returns the manifest file pointers it contains.
	ReadManifestList(ctx context.Context, uri string) ([]*File, error)
	// OpenManifest opens one manifest file for streaming iteration.
	OpenManifest(ctx context.Context, m *File, discardDeleted bool) (EntryIterator, error)
}
