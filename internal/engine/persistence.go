package engine

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/gcbaptista/go-prefix-index/internal/errors"
	"github.com/gcbaptista/go-prefix-index/internal/persistence"
	"github.com/gcbaptista/go-prefix-index/internal/prefixindex"
	"github.com/gcbaptista/go-prefix-index/model"
)

const manifestFile = "manifest.gob"

// loadIndexesFromDisk opens every build directory under the data directory that has a manifest.
func (e *Engine) loadIndexesFromDisk() {
	log.Printf("Loading indexes from disk: %s", e.dataDir)

	items, err := os.ReadDir(e.dataDir)
	if err != nil {
		log.Printf("Warning: Failed to read data directory %s: %v. No indexes loaded.", e.dataDir, err)
		return
	}

	for _, item := range items {
		if !item.IsDir() {
			continue
		}
		indexName := item.Name()
		indexPath := filepath.Join(e.dataDir, indexName)

		manifest, err := loadManifest(indexPath)
		if err == os.ErrNotExist {
			log.Printf("Info: No manifest in %s, skipping.", indexPath)
			continue
		}
		if err != nil {
			log.Printf("Warning: Failed to load manifest for index %s: %v. Skipping this index.", indexName, err)
			continue
		}
		if manifest.Name != indexName {
			log.Printf("Warning: Index name in manifest ('%s') does not match directory name ('%s') for path %s. Skipping this index.", manifest.Name, indexName, indexPath)
			continue
		}

		instance, err := openInstance(indexPath, *manifest)
		if err != nil {
			log.Printf("Warning: Failed to open index %s: %v. Skipping this index.", indexName, err)
			continue
		}
		e.indexes[indexName] = instance
		log.Printf("Successfully loaded index: %s (%d suffixes)", indexName, manifest.Stats.Suffixes)
	}
}

func loadManifest(indexPath string) (*model.BuildManifest, error) {
	var manifest model.BuildManifest
	if err := persistence.LoadGob(filepath.Join(indexPath, manifestFile), &manifest); err != nil {
		return nil, err
	}
	return &manifest, nil
}

func saveManifest(indexPath string, manifest model.BuildManifest) error {
	if err := persistence.SaveGob(filepath.Join(indexPath, manifestFile), manifest); err != nil {
		return fmt.Errorf("failed to save manifest for index %s: %w", manifest.Name, err)
	}
	return nil
}

// openInstance opens the fulltext and index files named by manifest, relative to indexPath.
// The pair is rejected unless it holds the manifest's suffix count in sorted order.
func openInstance(indexPath string, manifest model.BuildManifest) (*IndexInstance, error) {
	idx, err := prefixindex.Open(
		filepath.Join(indexPath, manifest.FulltextFile),
		filepath.Join(indexPath, manifest.IndexFile),
		manifest.MaxPrefix,
	)
	if err != nil {
		return nil, err
	}
	if idx.Len() != manifest.Stats.Suffixes {
		return nil, fmt.Errorf("%w: index holds %d suffixes, manifest records %d", errors.ErrCorruptIndex, idx.Len(), manifest.Stats.Suffixes)
	}
	if err := idx.Verify(); err != nil {
		return nil, err
	}
	return &IndexInstance{manifest: manifest, index: idx}, nil
}
