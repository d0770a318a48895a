package kernelcache

import "errors"

var (
	ErrNoMagic             = errors.New("no recognized compression magic")
	ErrImageTooSmall       = errors.New("image too small for header")
	ErrKernelcacheNotFound = errors.New("can't find kernelcache header")
	ErrSizeMismatch        = errors.New("uncompressed size doesn't match header")
	ErrTruncated           = errors.New("compressed payload truncated")
	ErrBlockDecode         = errors.New("block decompression failed")
)
