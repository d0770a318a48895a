// Package symbols reports on the symbol table of an extracted kernelcache.
package symbols

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/blacktop/go-macho"
	"github.com/golang/glog"
)

var ErrParse = errors.New("cannot parse image to extract symbols")

// Count returns the number of symbol table entries in the Mach-O image, or 0
// if it has no LC_SYMTAB.
func Count(image []byte) (int, error) {
	m, err := macho.NewFile(bytes.NewReader(image))
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrParse, err)
	}
	defer m.Close()

	if m.Symtab == nil {
		glog.V(1).Info("image has no symbol table")
		return 0, nil
	}

	return len(m.Symtab.Syms), nil
}
