package prefixindex

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"sort"

	"github.com/gcbaptista/go-prefix-index/internal/errors"
)

const snippetLength = 60

// Hit is one occurrence of a query in an opened index.
type Hit struct {
	Offset   uint32 `json:"offset"`
	Document string `json:"document"`
	Snippet  string `json:"snippet"`
}

type segmentBounds struct {
	start, end int
	name       string
}

// Index is a read-only view over a fulltext file and its sorted offsets.
type Index struct {
	fulltext  []byte
	offsets   []uint32
	segments  []segmentBounds
	maxPrefix int
}

// Open reads a fulltext file and its index file from disk.
func Open(fulltextPath, indexPath string, maxPrefix int) (*Index, error) {
	fulltext, err := os.ReadFile(fulltextPath) // #nosec G304 -- paths come from build manifests
	if err != nil {
		return nil, fmt.Errorf("failed to read fulltext %s: %w", fulltextPath, err)
	}
	raw, err := os.ReadFile(indexPath) // #nosec G304 -- paths come from build manifests
	if err != nil {
		return nil, fmt.Errorf("failed to read index %s: %w", indexPath, err)
	}
	return Load(fulltext, raw, maxPrefix)
}

// Load interprets in-memory fulltext and index file contents. The newline that
// terminates the fulltext file is removed.
func Load(fulltext, raw []byte, maxPrefix int) (*Index, error) {
	if maxPrefix <= 0 {
		return nil, errors.NewValidationError("max_prefix", "must be positive")
	}
	if len(raw)%4 != 0 {
		return nil, fmt.Errorf("%w: index size %d is not a multiple of 4", errors.ErrCorruptIndex, len(raw))
	}
	fulltext = bytes.TrimSuffix(fulltext, []byte{'\n'})

	offsets := make([]uint32, len(raw)/4)
	for i := range offsets {
		off := binary.LittleEndian.Uint32(raw[4*i:])
		if int(off) >= len(fulltext) {
			return nil, fmt.Errorf("%w: entry %d points at %d past the fulltext end %d", errors.ErrCorruptIndex, i, off, len(fulltext))
		}
		offsets[i] = off
	}

	idx := &Index{fulltext: fulltext, offsets: offsets, maxPrefix: maxPrefix}
	scanner := NewSegmentScanner(fulltext)
	for scanner.Scan() {
		seg := scanner.Segment()
		idx.segments = append(idx.segments, segmentBounds{
			start: seg.Start,
			end:   seg.Start + len(seg.Text),
			name:  seg.Name(),
		})
	}
	return idx, nil
}

// Len returns the number of index entries.
func (x *Index) Len() int {
	return len(x.offsets)
}

// Documents returns the identifiers of every segment in corpus order.
func (x *Index) Documents() []string {
	names := make([]string, len(x.segments))
	for i, s := range x.segments {
		names[i] = s.name
	}
	return names
}

func (x *Index) window(i int) []byte {
	return SortKey(x.fulltext, x.offsets[i], x.maxPrefix)
}

// Search returns the anchors whose following text starts with prefix, in index
// order. Only the first maxPrefix bytes take part in the binary search; longer
// queries are checked against the fulltext afterwards. limit <= 0 means no limit.
func (x *Index) Search(prefix string, limit int) []Hit {
	query := []byte(prefix)
	if len(query) == 0 {
		return nil
	}
	key := query
	if len(key) > x.maxPrefix {
		key = key[:x.maxPrefix]
	}

	first := sort.Search(len(x.offsets), func(i int) bool {
		return bytes.Compare(x.window(i), key) >= 0
	})

	var hits []Hit
	for i := first; i < len(x.offsets) && bytes.HasPrefix(x.window(i), key); i++ {
		off := x.offsets[i]
		if !bytes.HasPrefix(x.fulltext[off:], query) {
			continue
		}
		hits = append(hits, x.hit(off))
		if limit > 0 && len(hits) >= limit {
			break
		}
	}
	return hits
}

func (x *Index) hit(off uint32) Hit {
	h := Hit{Offset: off}
	i := sort.Search(len(x.segments), func(i int) bool {
		return x.segments[i].end > int(off)
	})
	end := len(x.fulltext)
	if i < len(x.segments) && x.segments[i].start <= int(off) {
		h.Document = x.segments[i].name
		end = x.segments[i].end
	}
	if end > int(off)+snippetLength {
		end = int(off) + snippetLength
	}
	h.Snippet = string(x.fulltext[off:end])
	return h
}

// Verify checks that sort keys are non-decreasing in index order.
func (x *Index) Verify() error {
	for i := 1; i < len(x.offsets); i++ {
		if bytes.Compare(x.window(i-1), x.window(i)) > 0 {
			return fmt.Errorf("%w: entries %d and %d are out of order", errors.ErrCorruptIndex, i-1, i)
		}
	}
	return nil
}
