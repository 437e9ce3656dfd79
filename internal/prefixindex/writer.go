package prefixindex

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"io"
	"sort"
	"strconv"
)

// SortKey returns the window of at most maxPrefix corpus bytes starting at offset.
func SortKey(corpus []byte, offset uint32, maxPrefix int) []byte {
	end := int(offset) + maxPrefix
	if end > len(corpus) {
		end = len(corpus)
	}
	return corpus[offset:end]
}

// SortSuffixes orders offsets by their sort keys, byte-wise ascending.
// The sort is stable: offsets with equal keys keep their extraction order.
func SortSuffixes(corpus []byte, offsets []uint32, maxPrefix int) {
	sort.SliceStable(offsets, func(i, j int) bool {
		return bytes.Compare(SortKey(corpus, offsets[i], maxPrefix), SortKey(corpus, offsets[j], maxPrefix)) < 0
	})
}

// WriteIndex writes offsets as uint32 little-endian integers, batchSize entries per write.
func WriteIndex(w io.Writer, offsets []uint32, batchSize int) error {
	if batchSize <= 0 || batchSize > len(offsets) {
		batchSize = len(offsets)
	}
	if batchSize == 0 {
		return nil
	}
	batch := make([]byte, 4*batchSize)
	for start := 0; start < len(offsets); start += batchSize {
		end := start + batchSize
		if end > len(offsets) {
			end = len(offsets)
		}
		n := 0
		for _, off := range offsets[start:end] {
			binary.LittleEndian.PutUint32(batch[n:], off)
			n += 4
		}
		if _, err := w.Write(batch[:n]); err != nil {
			return err
		}
	}
	return nil
}

// WriteSuffixes writes one double-quoted, Go-escaped sort key per line in offsets order.
func WriteSuffixes(w io.Writer, corpus []byte, offsets []uint32, maxPrefix int) error {
	bw := bufio.NewWriter(w)
	line := make([]byte, 0, 4*maxPrefix+3)
	for _, off := range offsets {
		line = strconv.AppendQuote(line[:0], string(SortKey(corpus, off, maxPrefix)))
		line = append(line, '\n')
		if _, err := bw.Write(line); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteFulltext writes the corpus followed by a single newline.
func WriteFulltext(w io.Writer, corpus []byte) error {
	if _, err := w.Write(corpus); err != nil {
		return err
	}
	_, err := w.Write([]byte{'\n'})
	return err
}
