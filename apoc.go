/*
Package apoc is the caller side of the PCK and LOFTEMPS decoders: it turns
resource request strings into decoded sprites and voxel slices, caches the
results, and catalogues whole directories of sprite sheets in a database.
*/
package apoc

import (
	"log"

	"github.com/bodgit/apoc/pck"
)

// Indexer decodes sprite sheets found on disk into a Catalog.
type Indexer struct {
	db     *Catalog
	logger *log.Logger
	opts   pck.Options
}

// New opens or creates the catalog database in file.
func New(file string, logger *log.Logger) (*Indexer, error) {
	db, err := NewCatalog(file)
	if err != nil {
		return nil, err
	}
	return &Indexer{
		db:     db,
		logger: logger,
	}, nil
}

// SetOptions changes the decoding options used for subsequent scans.
func (ix *Indexer) SetOptions(o pck.Options) {
	ix.opts = o
}

// Catalog returns the underlying catalog.
func (ix *Indexer) Catalog() *Catalog {
	return ix.db
}

// Close closes the catalog.
func (ix *Indexer) Close() error {
	return ix.db.Close()
}
