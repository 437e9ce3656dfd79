// Package ri extracts documentation comments from ri YAML description files.
// Each file with a non-empty comment becomes one (name, text) document, named
// after the file path.
package ri

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	engineErrors "github.com/gcbaptista/go-prefix-index/internal/errors"
)

// tagRegex matches a YAML type tag such as " !ruby/object:RI::MethodDescription" and the rest of its line.
var tagRegex = regexp.MustCompile(` \!.*`)

// entityReplacer decodes the HTML entities ri leaves in comment text.
var entityReplacer = strings.NewReplacer(
	"&quot;", "'",
	"&lt;", "<",
	"&gt;", ">",
	"&amp;", "&",
)

// DocumentFunc receives one extracted document.
type DocumentFunc func(name, text string) error

// Stats counts what a walk saw.
type Stats struct {
	Files     int `json:"files"`     // YAML files visited
	Documents int `json:"documents"` // Documents handed to the callback
	Empty     int `json:"empty"`     // Files without comment text
	Bad       int `json:"bad"`       // Files that could not be loaded or were rejected
}

// Extractor walks directory trees for ri YAML files.
type Extractor struct {
	// Extension selects the files to read; defaults to ".yaml".
	Extension string
	// SkipSymlinks ignores symlinked files below the roots.
	SkipSymlinks bool
}

// NewExtractor creates an Extractor for ".yaml" files.
func NewExtractor() *Extractor {
	return &Extractor{Extension: ".yaml"}
}

// Walk visits every matching file below each root in lexical order and calls fn
// for each one with a non-empty description. Files that fail to parse, or whose
// document fn rejects as invalid input, are logged, counted as bad and skipped.
// Any other error from fn stops the walk.
func (e *Extractor) Walk(ctx context.Context, roots []string, fn DocumentFunc) (Stats, error) {
	var stats Stats
	ext := e.Extension
	if ext == "" {
		ext = ".yaml"
	}

	for _, root := range roots {
		if _, err := os.Stat(root); err != nil {
			log.Printf("Warning: skipping source directory %s: %v", root, err)
			continue
		}

		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || filepath.Ext(path) != ext {
				return nil
			}
			if e.SkipSymlinks && d.Type()&fs.ModeSymlink != 0 {
				log.Printf("Warning: skipping symlinked source file %s", path)
				return nil
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			stats.Files++

			desc, err := ReadDescription(path)
			if err != nil {
				stats.Bad++
				log.Printf("Couldn't load %s: %v", path, err)
				return nil
			}
			if desc == "" {
				stats.Empty++
				return nil
			}

			if err := fn(path, desc); err != nil {
				if errors.Is(err, engineErrors.ErrInvalidInput) {
					stats.Bad++
					log.Printf("Warning: skipping %s: %v", path, err)
					return nil
				}
				return err
			}
			stats.Documents++
			return nil
		})
		if err != nil {
			return stats, fmt.Errorf("failed to walk %s: %w", root, err)
		}
	}
	return stats, nil
}

// ReadDescription loads one ri YAML file and returns its decoded comment text.
func ReadDescription(path string) (string, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- paths come from the configured source directories
	if err != nil {
		return "", err
	}
	return ParseDescription(data)
}

// ParseDescription extracts the comment text from ri YAML content. Type tags are
// stripped before parsing; every value of every comment entry is joined with
// newlines in document order and HTML entities are decoded.
func ParseDescription(data []byte) (string, error) {
	cleaned := tagRegex.ReplaceAll(data, nil)

	var root yaml.Node
	if err := yaml.Unmarshal(cleaned, &root); err != nil {
		return "", err
	}
	if len(root.Content) == 0 {
		return "", nil
	}
	doc := root.Content[0]
	if doc.Kind != yaml.MappingNode {
		return "", nil
	}

	var comment *yaml.Node
	for i := 0; i+1 < len(doc.Content); i += 2 {
		if doc.Content[i].Value == "comment" {
			comment = doc.Content[i+1]
			break
		}
	}
	if comment == nil || comment.Kind != yaml.SequenceNode {
		return "", nil
	}

	var parts []string
	for _, entry := range comment.Content {
		if entry.Kind == yaml.MappingNode {
			for i := 1; i < len(entry.Content); i += 2 {
				collectValues(entry.Content[i], &parts)
			}
			continue
		}
		collectValues(entry, &parts)
	}

	return entityReplacer.Replace(strings.Join(parts, "\n")), nil
}

// collectValues flattens a node into scalar strings. Nulls contribute an empty string.
func collectValues(node *yaml.Node, parts *[]string) {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			*parts = append(*parts, "")
			return
		}
		*parts = append(*parts, node.Value)
	case yaml.SequenceNode:
		for _, child := range node.Content {
			collectValues(child, parts)
		}
	case yaml.MappingNode:
		for i := 1; i < len(node.Content); i += 2 {
			collectValues(node.Content[i], parts)
		}
	case yaml.AliasNode:
		if node.Alias != nil {
			collectValues(node.Alias, parts)
		}
	}
}
