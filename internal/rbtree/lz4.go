package rbtree

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/pierrec/lz4/v4"
)

// ErrCorruptColumn is returned when a compressed column does not decode to the expected size.
var ErrCorruptColumn = errors.New("corrupt compressed column")

// Column block kinds, stored in the first byte.
const (
	blockRaw byte = iota
	blockLZ4
)

// column is a fixed-width integer arena column.
type column interface {
	~uint32 | ~int64
}

// compressColumn LZ4-compresses a column. Incompressible input is stored raw.
func compressColumn[T column](data []T) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	buf := new(bytes.Buffer)

	err := binary.Write(buf, binary.LittleEndian, data)
	if err != nil {
		return nil, fmt.Errorf("encode column: %w", err)
	}

	compressed := make([]byte, 1+lz4.CompressBlockBound(buf.Len()))

	written, err := lz4.CompressBlock(buf.Bytes(), compressed[1:], nil)
	if err != nil {
		return nil, fmt.Errorf("compress column: %w", err)
	}

	if written == 0 || written >= buf.Len() {
		return append([]byte{blockRaw}, buf.Bytes()...), nil
	}

	compressed[0] = blockLZ4

	return compressed[:1+written], nil
}

// decompressColumn restores a column produced by compressColumn. result must
// be preallocated to the original length.
func decompressColumn[T column](data []byte, result []T) error {
	if len(result) == 0 {
		return nil
	}

	if len(data) == 0 {
		return fmt.Errorf("%w: empty block for %d values", ErrCorruptColumn, len(result))
	}

	want := binary.Size(result)
	raw := data[1:]

	if data[0] == blockLZ4 {
		raw = make([]byte, want)

		n, err := lz4.UncompressBlock(data[1:], raw)
		if err != nil {
			return fmt.Errorf("decompress column: %w", err)
		}

		raw = raw[:n]
	}

	if len(raw) != want {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrCorruptColumn, len(raw), want)
	}

	err := binary.Read(bytes.NewReader(raw), binary.LittleEndian, result)
	if err != nil {
		return fmt.Errorf("decode column: %w", err)
	}

	return nil
}

// deltaEncode replaces each element with the difference from its
// predecessor, in place. Sequentially inserted keys become small repeated
// values that LZ4 packs well.
func deltaEncode(data []int64) {
	for i := len(data) - 1; i > 0; i-- {
		data[i] -= data[i-1]
	}
}

// deltaDecode is the prefix sum undoing deltaEncode.
func deltaDecode(data []int64) {
	for i := 1; i < len(data); i++ {
		data[i] += data[i-1]
	}
}
