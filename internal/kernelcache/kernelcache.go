// Package kernelcache locates and decompresses a kernelcache inside a larger
// firmware blob.
//
// Two container formats are recognised. Legacy images carry a complzss header
// followed by an LZSS stream whose first byte sits just before the Mach-O
// magic; these may be followed by a raw KPP image. Newer images are a bvx2
// (LZFSE) stream with no header of their own.
package kernelcache

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/golang/glog"

	"github.com/yath/kcextract/internal/header"
	"github.com/yath/kcextract/internal/lzss"
	"github.com/yath/kcextract/internal/scan"
)

// Kind is the compression format of a kernelcache.
type Kind int

const (
	KindUnknown Kind = iota
	KindLZSS
	KindLZFSE
)

func (k Kind) String() string {
	switch k {
	case KindLZSS:
		return "lzss"
	case KindLZFSE:
		return "lzfse"
	}
	return "unknown"
}

var (
	lzssMagic  = []byte(header.Magic)
	lzfseMagic = []byte("bvx2")
	machoMagic = []byte{0xcf, 0xfa, 0xed, 0xfe}
)

// lzss turns 17 input bytes into at most 144 output bytes.
const maxLZSSExpansion = 9

// Output is the result of a successful extraction.
type Output struct {
	Kind        Kind
	Header      *header.CompressionHeader // nil for KindLZFSE
	Kernelcache []byte
	KPPPresent  bool
	KPP         []byte
}

// Option configures Extract.
type Option func(*options)

type options struct {
	block BlockDecoder
}

// WithBlockDecoder replaces the LZFSE decoder used for bvx2 images.
func WithBlockDecoder(d BlockDecoder) Option {
	return func(o *options) {
		o.block = d
	}
}

// DetectKind reports which compression format data holds and the offset of
// its magic. complzss takes precedence over bvx2.
func DetectKind(data []byte) (Kind, int, error) {
	if off := scan.Index(data, lzssMagic); off >= 0 {
		return KindLZSS, off, nil
	}
	if off := scan.Index(data, lzfseMagic); off >= 0 {
		return KindLZFSE, off, nil
	}
	return KindUnknown, -1, ErrNoMagic
}

// Extract decompresses the kernelcache held in data. data is not modified and
// nothing in the returned Output aliases it.
func Extract(data []byte, opts ...Option) (*Output, error) {
	o := options{block: LZFSE{}}
	for _, opt := range opts {
		opt(&o)
	}

	kind, off, err := DetectKind(data)
	if err != nil {
		return nil, err
	}
	glog.V(1).Infof("%s magic at 0x%x in %s image", kind, off, humanize.Bytes(uint64(len(data))))

	switch kind {
	case KindLZSS:
		return extractLZSS(data, off)
	case KindLZFSE:
		return extractLZFSE(data, off, o.block)
	}
	return nil, ErrNoMagic
}

func extractLZSS(data []byte, off int) (*Output, error) {
	if len(data)-off < header.Size {
		return nil, fmt.Errorf("%w: %d bytes after magic at 0x%x", ErrImageTooSmall, len(data)-off, off)
	}

	hdr := header.Parse(data[off:])
	glog.V(1).Infof("complzss header: %v", hdr)

	m := scan.Index(data, machoMagic)
	if m < 1 {
		// the stream starts one byte before the magic
		return nil, ErrKernelcacheNotFound
	}
	glog.V(1).Infof("Mach-O at 0x%x", m)

	payload := data[m-1:]
	var out bytes.Buffer
	out.Grow(int(min(uint64(hdr.UncompressedSize), maxLZSSExpansion*uint64(len(payload)))))

	n, err := lzss.DecodeBlock(bytes.NewReader(payload), uint64(hdr.CompressedSize), &out)
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: header declares %d bytes, %d available: %w",
			ErrTruncated, hdr.CompressedSize, len(payload), err)
	}
	if err != nil {
		return nil, fmt.Errorf("can't decompress kernelcache: %w", err)
	}
	if n != uint64(hdr.UncompressedSize) {
		return nil, fmt.Errorf("%w: decoded %d bytes, header declares %d", ErrSizeMismatch, n, hdr.UncompressedSize)
	}
	glog.V(1).Infof("decompressed %s to %s", humanize.Bytes(uint64(hdr.CompressedSize)), humanize.Bytes(n))

	res := &Output{
		Kind:        KindLZSS,
		Header:      &hdr,
		Kernelcache: out.Bytes(),
	}
	if kpp := FindKPP(data); kpp != nil {
		res.KPPPresent = true
		res.KPP = bytes.Clone(kpp)
	}

	return res, nil
}

func extractLZFSE(data []byte, off int, block BlockDecoder) (*Output, error) {
	dec, err := block.DecodeBlock(data[off:])
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBlockDecode, err)
	}
	glog.V(1).Infof("lzfse: decompressed to %s", humanize.Bytes(uint64(len(dec))))

	return &Output{
		Kind:        KindLZFSE,
		Kernelcache: dec,
	}, nil
}
