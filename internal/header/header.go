// Package header decodes the complzss header that precedes an LZSS
// compressed kernelcache.
package header

import (
	"encoding/binary"
	"fmt"

	"github.com/dustin/go-humanize"
)

const (
	// Magic is the ASCII tag at the start of the header.
	Magic = "complzss"
	// Size is the encoded size of a CompressionHeader in bytes.
	Size = 24
)

var magicValue = binary.BigEndian.Uint64([]byte(Magic))

// CompressionHeader is the big-endian header of an LZSS kernelcache.
type CompressionHeader struct {
	Magic            uint64
	Reserved0        uint32
	UncompressedSize uint32
	CompressedSize   uint32
	Reserved1        uint32
}

func init() {
	if n := binary.Size(CompressionHeader{}); n != Size {
		panic(fmt.Sprintf("header: CompressionHeader is %d bytes, want %d", n, Size))
	}
}

// Parse decodes a header from the first Size bytes of b. Callers must check
// the length first; a short slice panics.
func Parse(b []byte) CompressionHeader {
	if len(b) < Size {
		panic(fmt.Sprintf("header: Parse called with %d bytes, need %d", len(b), Size))
	}

	be := binary.BigEndian
	return CompressionHeader{
		Magic:            be.Uint64(b[0x00:]),
		Reserved0:        be.Uint32(b[0x08:]),
		UncompressedSize: be.Uint32(b[0x0c:]),
		CompressedSize:   be.Uint32(b[0x10:]),
		Reserved1:        be.Uint32(b[0x14:]),
	}
}

// Valid reports whether the magic tag is complzss.
func (h CompressionHeader) Valid() bool {
	return h.Magic == magicValue
}

func (h CompressionHeader) String() string {
	return fmt.Sprintf("magic 0x%016x compressed %s (%d) uncompressed %s (%d)",
		h.Magic,
		humanize.Bytes(uint64(h.CompressedSize)), h.CompressedSize,
		humanize.Bytes(uint64(h.UncompressedSize)), h.UncompressedSize)
}
