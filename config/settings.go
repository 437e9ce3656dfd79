// Package config provides configuration structures for the prefix index builder.
// It defines output locations, sort-key width and I/O batching options.
package config

import (
	"path/filepath"
	"strconv"
	"strings"
)

const (
	// DefaultMaxPrefix is the number of corpus bytes compared when sorting suffixes.
	DefaultMaxPrefix = 20
	// DefaultBatchSize is the number of offsets encoded per index file write.
	DefaultBatchSize = 10000
	// DefaultProgressEvery is the number of segments scanned between progress reports.
	DefaultProgressEvery = 100

	DefaultFulltextFile = "FULLTEXT"
	DefaultIndexFile    = "INDEX"
	DefaultSuffixesFile = "suffixes"
)

// BuildSettings contains all configuration options for a single index build.
//
// Output paths are resolved against OutputDir when they are relative. The three
// outputs are always written together: a build either produces all of them or
// none is considered usable.
type BuildSettings struct {
	Name          string `json:"name"`           // Build name, also the directory name under the data directory
	OutputDir     string `json:"output_dir"`     // Directory for relative output paths
	FulltextFile  string `json:"fulltext_file"`  // Concatenated corpus with boundary markers
	IndexFile     string `json:"index_file"`     // Sorted uint32 little-endian suffix offsets
	SuffixesFile  string `json:"suffixes_file"`  // Debug dump of sort keys, one per line
	MaxPrefix     int    `json:"max_prefix"`     // Sort key width in bytes
	BatchSize     int    `json:"batch_size"`     // Offsets per index write
	ProgressEvery int    `json:"progress_every"` // Segments between progress reports; negative disables
}

// ApplyDefaults applies default values to the build settings
func (s *BuildSettings) ApplyDefaults() {
	if s.MaxPrefix == 0 {
		s.MaxPrefix = DefaultMaxPrefix
	}
	if s.BatchSize == 0 {
		s.BatchSize = DefaultBatchSize
	}
	if s.ProgressEvery == 0 {
		s.ProgressEvery = DefaultProgressEvery
	}
	if s.FulltextFile == "" {
		s.FulltextFile = DefaultFulltextFile
	}
	if s.IndexFile == "" {
		s.IndexFile = DefaultIndexFile
	}
	if s.SuffixesFile == "" {
		s.SuffixesFile = DefaultSuffixesFile
	}
}

// Validate checks the settings and returns one message per problem found.
func (s *BuildSettings) Validate() []string {
	var problems []string

	if s.MaxPrefix <= 0 {
		problems = append(problems, "max_prefix must be positive, got "+strconv.Itoa(s.MaxPrefix))
	}
	if s.BatchSize <= 0 {
		problems = append(problems, "batch_size must be positive, got "+strconv.Itoa(s.BatchSize))
	}

	paths := map[string]string{
		"fulltext_file": s.FulltextFile,
		"index_file":    s.IndexFile,
		"suffixes_file": s.SuffixesFile,
	}
	seen := make(map[string]string)
	for _, field := range []string{"fulltext_file", "index_file", "suffixes_file"} {
		p := paths[field]
		if strings.TrimSpace(p) == "" {
			problems = append(problems, "Field '"+field+"' cannot be empty or whitespace-only")
			continue
		}
		resolved := filepath.Clean(s.resolve(p))
		if other, dup := seen[resolved]; dup {
			problems = append(problems, "Field '"+field+"' points at the same file as '"+other+"'")
		}
		seen[resolved] = field
	}

	return problems
}

// FulltextPath returns the resolved path of the fulltext output.
func (s *BuildSettings) FulltextPath() string { return s.resolve(s.FulltextFile) }

// IndexPath returns the resolved path of the index output.
func (s *BuildSettings) IndexPath() string { return s.resolve(s.IndexFile) }

// SuffixesPath returns the resolved path of the debug suffixes output.
func (s *BuildSettings) SuffixesPath() string { return s.resolve(s.SuffixesFile) }

func (s *BuildSettings) resolve(p string) string {
	if s.OutputDir == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(s.OutputDir, p)
}
