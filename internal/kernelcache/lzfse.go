package kernelcache

import (
	"bytes"
	"errors"
	"fmt"

	lzfse "github.com/blacktop/go-lzfse"
)

// lzfseEndMagic terminates every lzfse stream.
var lzfseEndMagic = []byte("bvx$")

// BlockDecoder decodes a block-format stream that starts at its magic.
// The decoder owns output sizing: it allocates and returns the decoded
// bytes rather than filling a caller-provided buffer.
type BlockDecoder interface {
	DecodeBlock(src []byte) ([]byte, error)
}

// LZFSE decodes bvx2 streams with the reference lzfse library, which sizes
// and grows its own destination buffer.
type LZFSE struct{}

var _ BlockDecoder = LZFSE{}

func (LZFSE) DecodeBlock(src []byte) (dec []byte, err error) {
	end := bytes.Index(src, lzfseEndMagic)
	if end < 0 {
		return nil, errors.New("lzfse stream has no end-of-stream marker")
	}
	src = src[:end+len(lzfseEndMagic)]

	defer func() {
		if r := recover(); r != nil {
			dec, err = nil, fmt.Errorf("lzfse decoder failed: %v", r)
		}
	}()

	dec = lzfse.DecodeBuffer(src)
	if len(dec) == 0 {
		return nil, errors.New("lzfse decoder produced no output")
	}
	return dec, nil
}
