package prefixindex

// isAnchorByte reports whether c may start an anchor after leading filler: an ASCII letter or '_'.
func isAnchorByte(c byte) bool {
	return c == '_' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

// isWordByte reports whether c belongs to a word run: an ASCII letter, digit or '_'.
func isWordByte(c byte) bool {
	return isAnchorByte(c) || ('0' <= c && c <= '9')
}

// FindSuffixes returns the corpus offsets of the anchors in one segment.
//
// Leading filler (anything but ASCII letters and '_', so digits included) is
// skipped and the first anchor recorded. From there every word run
// [A-Za-z0-9_]+ together with the non-word run after it is consumed, and the
// start of each following word run is recorded as well. Offsets are absolute:
// offset is the corpus position of segment[0].
func FindSuffixes(segment []byte, offset int) []int {
	var suffixes []int
	n := len(segment)
	pos := 0
	for pos < n {
		for pos < n && !isAnchorByte(segment[pos]) {
			pos++
		}
		for pos < n {
			suffixes = append(suffixes, offset+pos)
			start := pos
			for pos < n && isWordByte(segment[pos]) {
				pos++
			}
			if pos == start {
				break
			}
			for pos < n && !isWordByte(segment[pos]) {
				pos++
			}
		}
	}
	return suffixes
}
