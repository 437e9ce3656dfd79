package prefixindex

import (
	"bytes"
	"strings"

	"github.com/gcbaptista/go-prefix-index/internal/errors"
)

// Corpus accumulates preprocessed document bodies, each followed by its boundary marker.
// It is not safe for concurrent use; documents must be appended sequentially and
// the corpus frozen before it is scanned.
type Corpus struct {
	buf       []byte
	documents int
	frozen    bool
}

// Segment is one document body recovered from a frozen corpus.
type Segment struct {
	Start int    // Corpus offset of the first body byte
	Text  []byte // Body bytes; aliases the corpus buffer
	Token string // Escaped identifier carried by the closing boundary marker
}

// Name returns the unescaped document identifier of the segment.
func (s Segment) Name() string {
	return Unescape(s.Token)
}

// NewCorpus creates an empty corpus with room for sizeHint bytes.
func NewCorpus(sizeHint int) *Corpus {
	if sizeHint < 0 {
		sizeHint = 0
	}
	return &Corpus{buf: make([]byte, 0, sizeHint)}
}

// Append adds one document: the body with every delimiter token stripped,
// followed by the boundary marker for name.
func (c *Corpus) Append(name, text string) error {
	if c.frozen {
		return errors.ErrCorpusFrozen
	}
	if err := ValidateIdentifier(name); err != nil {
		return err
	}

	c.buf = append(c.buf, Preprocess(text)...)
	c.buf = append(c.buf, openMarker...)
	c.buf = append(c.buf, Escape(name)...)
	c.buf = append(c.buf, closeMarker...)
	c.documents++
	return nil
}

// Preprocess removes every occurrence of the boundary delimiters from text.
// Removal repeats until none remain, since deleting one delimiter can join its
// neighbours into a new one ("<<>>>><<" becomes "<<<<").
func Preprocess(text string) string {
	for strings.Contains(text, openMarker) || strings.Contains(text, closeMarker) {
		text = strings.ReplaceAll(text, openMarker, "")
		text = strings.ReplaceAll(text, closeMarker, "")
	}
	return text
}

// Freeze makes the corpus read-only. Further Append calls fail with ErrCorpusFrozen.
func (c *Corpus) Freeze() {
	c.frozen = true
}

// Frozen reports whether Freeze has been called.
func (c *Corpus) Frozen() bool {
	return c.frozen
}

// Bytes returns the corpus buffer. Callers must not modify it.
func (c *Corpus) Bytes() []byte {
	return c.buf
}

// Len returns the corpus size in bytes.
func (c *Corpus) Len() int {
	return len(c.buf)
}

// Documents returns the number of appended documents.
func (c *Corpus) Documents() int {
	return c.documents
}

// SegmentScanner walks a corpus buffer one segment at a time.
type SegmentScanner struct {
	buf []byte
	pos int
	seg Segment
}

// NewSegmentScanner creates a scanner over buf, which must not change while scanning.
func NewSegmentScanner(buf []byte) *SegmentScanner {
	return &SegmentScanner{buf: buf}
}

// Scan advances to the next segment. It returns false when no further boundary
// marker is found; any bytes left after the last marker are reported by Trailing.
func (s *SegmentScanner) Scan() bool {
	rest := s.buf[s.pos:]
	open := bytes.Index(rest, []byte(openMarker))
	if open < 0 {
		return false
	}
	// Escaped tokens never start with '<', so a longer run of '<' belongs to the body.
	for open+len(openMarker) < len(rest) && rest[open+len(openMarker)] == '<' {
		open++
	}
	tokenStart := open + len(openMarker)
	closeRel := bytes.Index(rest[tokenStart:], []byte(closeMarker))
	if closeRel < 0 {
		return false
	}

	s.seg = Segment{
		Start: s.pos,
		Text:  rest[:open],
		Token: string(rest[tokenStart : tokenStart+closeRel]),
	}
	s.pos += tokenStart + closeRel + len(closeMarker)
	return true
}

// Segment returns the segment found by the last successful Scan.
func (s *SegmentScanner) Segment() Segment {
	return s.seg
}

// Pos returns the corpus offset just past the last recovered marker.
func (s *SegmentScanner) Pos() int {
	return s.pos
}

// Trailing returns the bytes after the last recovered marker.
func (s *SegmentScanner) Trailing() []byte {
	return s.buf[s.pos:]
}

// Segments returns every segment of a frozen corpus in append order.
func (c *Corpus) Segments() []Segment {
	var segments []Segment
	scanner := NewSegmentScanner(c.buf)
	for scanner.Scan() {
		segments = append(segments, scanner.Segment())
	}
	return segments
}
