package engine

import (
	"time"

	"github.com/google/uuid"

	"github.com/gcbaptista/go-prefix-index/internal/prefixindex"
	"github.com/gcbaptista/go-prefix-index/model"
	"github.com/gcbaptista/go-prefix-index/services"
)

// IndexInstance is one completed build opened for searching.
// It implements the services.IndexAccessor interface.
type IndexInstance struct {
	manifest model.BuildManifest
	index    *prefixindex.Index
}

// Manifest returns the build manifest of the instance.
func (i *IndexInstance) Manifest() model.BuildManifest {
	return i.manifest
}

// Search runs a prefix query. The index is immutable, so no locking is needed.
func (i *IndexInstance) Search(query string, limit int) services.SearchResult {
	start := time.Now()
	hits := i.index.Search(query, limit)
	if hits == nil {
		hits = []prefixindex.Hit{}
	}
	return services.SearchResult{
		Hits:    hits,
		Total:   len(hits),
		Took:    time.Since(start).Milliseconds(),
		QueryId: uuid.New().String(),
	}
}
