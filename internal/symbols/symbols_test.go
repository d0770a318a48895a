package symbols_test

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yath/kcextract/internal/symbols"
)

const (
	mhMagic64    = 0xfeedfacf
	cpuTypeARM64 = 0x0100000c
	mhExecute    = 0x2
	lcSymtab     = 0x2
	lcUUID       = 0x1b

	headerSize = 32
	nlistSize  = 16
)

type machHeader64 struct {
	Magic, CPUType, CPUSubtype, FileType, NCmds, SizeOfCmds, Flags, Reserved uint32
}

type symtabCommand struct {
	Cmd, CmdSize, SymOff, NSyms, StrOff, StrSize uint32
}

type uuidCommand struct {
	Cmd, CmdSize uint32
	UUID         [16]byte
}

type nlist64 struct {
	Strx  uint32
	Type  uint8
	Sect  uint8
	Desc  uint16
	Value uint64
}

func write(t *testing.T, b *bytes.Buffer, v any) {
	t.Helper()
	require.NoError(t, binary.Write(b, binary.LittleEndian, v))
}

// machoWithSymbols builds a minimal arm64 executable with n undefined
// external symbols.
func machoWithSymbols(t *testing.T, n int) []byte {
	t.Helper()

	strtab := []byte{0}
	syms := make([]nlist64, n)
	for i := range syms {
		syms[i] = nlist64{Strx: uint32(len(strtab)), Type: 0x01}
		strtab = append(strtab, fmt.Sprintf("_kernel_sym%d\x00", i)...)
	}

	symOff := uint32(headerSize + binary.Size(symtabCommand{}))
	strOff := symOff + uint32(n*nlistSize)

	var b bytes.Buffer
	write(t, &b, machHeader64{
		Magic:      mhMagic64,
		CPUType:    cpuTypeARM64,
		FileType:   mhExecute,
		NCmds:      1,
		SizeOfCmds: uint32(binary.Size(symtabCommand{})),
	})
	write(t, &b, symtabCommand{
		Cmd:     lcSymtab,
		CmdSize: uint32(binary.Size(symtabCommand{})),
		SymOff:  symOff,
		NSyms:   uint32(n),
		StrOff:  strOff,
		StrSize: uint32(len(strtab)),
	})
	for _, s := range syms {
		write(t, &b, s)
	}
	b.Write(strtab)

	return b.Bytes()
}

func machoWithoutSymtab(t *testing.T) []byte {
	t.Helper()

	var b bytes.Buffer
	write(t, &b, machHeader64{
		Magic:      mhMagic64,
		CPUType:    cpuTypeARM64,
		FileType:   mhExecute,
		NCmds:      1,
		SizeOfCmds: uint32(binary.Size(uuidCommand{})),
	})
	write(t, &b, uuidCommand{
		Cmd:     lcUUID,
		CmdSize: uint32(binary.Size(uuidCommand{})),
		UUID:    [16]byte{0xde, 0xad, 0xbe, 0xef},
	})

	return b.Bytes()
}

func TestCount(t *testing.T) {
	for _, n := range []int{1, 3, 42} {
		t.Run(fmt.Sprintf("%d symbols", n), func(t *testing.T) {
			image := machoWithSymbols(t, n)
			orig := bytes.Clone(image)

			got, err := symbols.Count(image)
			require.NoError(t, err)

			assert.Equal(t, n, got)
			assert.Equal(t, orig, image)
		})
	}
}

func TestCountNoSymtab(t *testing.T) {
	got, err := symbols.Count(machoWithoutSymtab(t))
	require.NoError(t, err)

	assert.Zero(t, got)
}

func TestCountNotMachO(t *testing.T) {
	for _, image := range [][]byte{
		[]byte("definitely not a mach-o image"),
		{0xcf, 0xfa},
	} {
		_, err := symbols.Count(image)

		require.ErrorIs(t, err, symbols.ErrParse)
	}
}
