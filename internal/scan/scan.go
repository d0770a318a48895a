// Package scan finds literal byte patterns in untrusted buffers.
package scan

import "bytes"

// Index returns the offset of the first occurrence of needle in haystack, or
// -1 if there is none. An empty needle never matches.
func Index(haystack, needle []byte) int {
	if len(needle) == 0 || len(needle) > len(haystack) {
		return -1
	}
	return bytes.Index(haystack, needle)
}

// IndexFrom is like Index but starts searching at from. The returned offset is
// relative to the start of haystack.
func IndexFrom(haystack, needle []byte, from int) int {
	if from < 0 || from > len(haystack) {
		return -1
	}

	i := Index(haystack[from:], needle)
	if i < 0 {
		return -1
	}
	return from + i
}
