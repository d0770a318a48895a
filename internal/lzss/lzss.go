// Package lzss decodes the LZSS variant used by complzss kernelcaches.
//
// The stream is a sequence of flag bytes, each followed by up to eight tokens.
// A set flag bit is a literal byte; a clear bit is a two-byte back-reference
// into a 4096-byte ring: 12 bits of ring position and a 4-bit length nibble.
package lzss

import (
	"io"

	"github.com/golang/glog"
)

const (
	// N is the size of the history ring.
	N = 4096
	// F is the longest match a back-reference can copy.
	F = 18
	// Threshold is added to the length nibble; a reference copies
	// nibble+Threshold+1 bytes.
	Threshold = 2
	// Padding is the initial content of the ring.
	Padding = 0x20
)

// DecodeBlock decodes from r into w until blockSize input bytes have been
// consumed and returns the number of bytes written. A token that would need
// input past blockSize is dropped. Errors from r and w are returned as is.
func DecodeBlock(r io.ByteReader, blockSize uint64, w io.ByteWriter) (uint64, error) {
	var ring [N]byte
	for i := range ring {
		ring[i] = Padding
	}
	pos := N - F

	var (
		flags         uint32
		read, written uint64
	)

	readByte := func() (byte, error) {
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		read++
		return b, nil
	}

	for {
		flags >>= 1
		if flags&0x100 == 0 {
			if read >= blockSize {
				break
			}
			b, err := readByte()
			if err != nil {
				return written, err
			}
			if read >= blockSize {
				break
			}
			// high byte tracks how many flag bits are left
			flags = uint32(b) | 0xff00
		}

		if flags&1 == 0 {
			if read >= blockSize {
				break
			}
			i, err := readByte()
			if err != nil {
				return written, err
			}
			if read >= blockSize {
				break
			}
			j, err := readByte()
			if err != nil {
				return written, err
			}

			off := int(i) | int(j&0xf0)<<4
			n := int(j&0x0f) + Threshold
			for k := 0; k <= n; k++ {
				c := ring[(off+k)&(N-1)]
				if err := w.WriteByte(c); err != nil {
					return written, err
				}
				written++
				ring[pos] = c
				pos = (pos + 1) & (N - 1)
			}
			continue
		}

		if read >= blockSize {
			break
		}
		c, err := readByte()
		if err != nil {
			return written, err
		}
		if err := w.WriteByte(c); err != nil {
			return written, err
		}
		written++
		if read >= blockSize {
			break
		}
		ring[pos] = c
		pos = (pos + 1) & (N - 1)
	}

	glog.V(2).Infof("lzss: consumed %d of %d input bytes, wrote %d", read, blockSize, written)
	return written, nil
}
