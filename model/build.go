package model

import (
	"time"
)

// BuildStats summarizes a finished index build.
type BuildStats struct {
	Documents     int           `json:"documents"`      // Documents appended to the corpus
	Segments      int           `json:"segments"`       // Segments recovered by the re-scan
	Suffixes      int           `json:"suffixes"`       // Entries written to the index file
	CorpusBytes   int           `json:"corpus_bytes"`   // Size of the corpus buffer, without the trailing newline
	TrailingBytes int           `json:"trailing_bytes"` // Unterminated bytes dropped at the end of the corpus
	BadSources    int           `json:"bad_sources"`    // Source records skipped by the document source
	SortTime      time.Duration `json:"sort_time_ns"`   // Time spent sorting and writing the index outputs
	Elapsed       time.Duration `json:"elapsed_ns"`     // Total time spent in Finish
}

// BuildManifest is persisted next to the outputs of a completed build.
type BuildManifest struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	SourceDirs   []string   `json:"source_dirs"`
	FulltextFile string     `json:"fulltext_file"`
	IndexFile    string     `json:"index_file"`
	SuffixesFile string     `json:"suffixes_file"`
	MaxPrefix    int        `json:"max_prefix"`
	Stats        BuildStats `json:"stats"`
	CompletedAt  time.Time  `json:"completed_at"`
}
