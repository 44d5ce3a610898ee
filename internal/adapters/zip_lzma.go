package adapters

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/ulikunitz/xz/lzma"
)

// zipMethodLZMA is the APPNOTE compression method id for LZMA entries.
const zipMethodLZMA = 14

// lzmaDecompressor reads a zip LZMA entry: a 2 byte version, a 2 byte
// properties length, the 5 properties bytes, then the raw stream. The
// classic lzma reader wants the properties followed by an 8 byte size, so
// the size is filled in as unknown and the stream must end with a marker.
func lzmaDecompressor(r io.Reader) io.ReadCloser {
	var header [4]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return errorReadCloser{fmt.Errorf("read lzma entry header: %w", err)}
	}
	if size := binary.LittleEndian.Uint16(header[2:]); size != 5 {
		return errorReadCloser{fmt.Errorf("lzma properties size %d, want 5", size)}
	}
	props := make([]byte, 5, 13)
	if _, err := io.ReadFull(r, props); err != nil {
		return errorReadCloser{fmt.Errorf("read lzma properties: %w", err)}
	}
	props = append(props, bytes.Repeat([]byte{0xff}, 8)...)
	lr, err := lzma.NewReader(io.MultiReader(bytes.NewReader(props), r))
	if err != nil {
		return errorReadCloser{err}
	}
	return io.NopCloser(lr)
}

type errorReadCloser struct {
	err error
}

func (e errorReadCloser) Read([]byte) (int, error) { return 0, e.err }

func (e errorReadCloser) Close() error { return nil }
