package lzss_test

import "github.com/yath/kcextract/internal/lzss"

// compress produces a stream DecodeBlock understands. Matches are searched
// greedily over the last N-F plaintext bytes, so a reference never points at
// a ring slot that has been overwritten or never written.
func compress(src []byte) []byte {
	var out []byte
	flagPos, bit := -1, 8

	for p := 0; p < len(src); bit++ {
		if bit == 8 {
			flagPos = len(out)
			out = append(out, 0)
			bit = 0
		}

		bestLen, bestPos := 0, 0
		lo := max(p-(lzss.N-lzss.F), 0)
		for q := lo; q < p; q++ {
			l := 0
			for l < lzss.F && p+l < len(src) && src[q+l] == src[p+l] {
				l++
			}
			if l > bestLen {
				bestLen, bestPos = l, q
			}
		}

		if bestLen > lzss.Threshold {
			off := (lzss.N - lzss.F + bestPos) & (lzss.N - 1)
			out = append(out, byte(off), byte(off>>8)<<4|byte(bestLen-lzss.Threshold-1))
			p += bestLen
			continue
		}

		out[flagPos] |= 1 << bit
		out = append(out, src[p])
		p++
	}

	return out
}
