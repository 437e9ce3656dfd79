// Package prefixindex builds a sorted word-start prefix index over a corpus of documents.
//
// Documents are concatenated into a single corpus, each followed by a boundary
// marker carrying its escaped identifier. Finish re-scans the corpus, collects the
// offset of every word start, sorts the offsets by the fixed-width window of corpus
// bytes that follows them and writes the sorted offsets as a flat array of uint32
// little-endian integers. Lookup code binary-searches that array by prefix.
package prefixindex

import (
	"strings"

	"github.com/gcbaptista/go-prefix-index/internal/errors"
)

const (
	openMarker  = "<<<<"
	closeMarker = ">>>>"

	escapeByte = '|'
)

// Escape encodes a document identifier so it can sit inside a boundary marker.
// Every '|' is doubled, then every '<' is prefixed with '|'.
func Escape(id string) string {
	if !strings.ContainsAny(id, "|<") {
		return id
	}
	var sb strings.Builder
	sb.Grow(len(id) + 8)
	for i := 0; i < len(id); i++ {
		switch c := id[i]; c {
		case escapeByte, '<':
			sb.WriteByte(escapeByte)
			sb.WriteByte(c)
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

// Unescape reverses Escape. A '|' followed by '<' or '|' yields the second byte;
// any other byte is copied as is.
func Unescape(token string) string {
	if strings.IndexByte(token, escapeByte) < 0 {
		return token
	}
	var sb strings.Builder
	sb.Grow(len(token))
	for i := 0; i < len(token); i++ {
		c := token[i]
		if c == escapeByte && i+1 < len(token) && (token[i+1] == '<' || token[i+1] == escapeByte) {
			i++
			c = token[i]
		}
		sb.WriteByte(c)
	}
	return sb.String()
}

// ValidateIdentifier rejects identifiers that Escape cannot protect.
// '>' is not escaped, so an identifier containing the closing delimiter or ending
// with '>' would end the marker early when the corpus is split into segments.
func ValidateIdentifier(id string) error {
	if strings.Contains(id, closeMarker) {
		return errors.NewInvalidIdentifierError(id, "contains the closing delimiter "+closeMarker)
	}
	if strings.HasSuffix(id, ">") {
		return errors.NewInvalidIdentifierError(id, "ends with '>'")
	}
	return nil
}
