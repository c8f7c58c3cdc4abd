package vector

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// magic identifies a kaiwa flat index blob.
var magic = [4]byte{'K', 'F', 'L', '1'}

// ErrDimensionMismatch is returned by ReadIndex when the blob was written for a
// different vector dimension than the caller expects.
var ErrDimensionMismatch = errors.New("index dimension mismatch")

// ErrCorruptIndex is returned when a blob's header disagrees with its body.
var ErrCorruptIndex = errors.New("corrupt index")

const headerSize = 12

// preallocLimit bounds the float32 capacity reserved from an untrusted header.
const preallocLimit = 1 << 20

// EncodedSize returns the byte length of a blob holding count vectors of dim floats,
// or -1 when that length does not fit in an int64.
func EncodedSize(dim, count int) int64 {
	if dim < 0 || count < 0 {
		return -1
	}
	if dim > 0 && int64(count) > (math.MaxInt64-headerSize)/4/int64(dim) {
		return -1
	}
	return headerSize + 4*int64(dim)*int64(count)
}

// WriteTo serializes the index. Format (little endian): magic (4), dimension (4),
// count (4), then count*dimension float32 values.
func (f *FlatIndex) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	var written int64
	header := make([]byte, headerSize)
	copy(header[0:4], magic[:])
	binary.LittleEndian.PutUint32(header[4:8], uint32(f.dimensions))
	binary.LittleEndian.PutUint32(header[8:12], uint32(f.count))
	n, err := bw.Write(header)
	written += int64(n)
	if err != nil {
		return written, fmt.Errorf("write header: %w", err)
	}
	buf := make([]byte, 4)
	for _, v := range f.data {
		binary.LittleEndian.PutUint32(buf, math.Float32bits(v))
		n, err := bw.Write(buf)
		written += int64(n)
		if err != nil {
			return written, fmt.Errorf("write vector: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return written, fmt.Errorf("flush index: %w", err)
	}
	return written, nil
}

// ReadIndex decodes an index written by WriteTo. If expectedDim is positive and differs
// from the stored dimension, the returned error wraps ErrDimensionMismatch.
// Storage grows as vectors arrive, so a header claiming more vectors than the stream
// holds fails with ErrCorruptIndex instead of reserving the claimed size.
func ReadIndex(r io.Reader, expectedDim int) (*FlatIndex, error) {
	return readIndex(r, expectedDim, -1)
}

// ReadIndexSized is ReadIndex for a blob of known length. The header is rejected
// before any vector is read unless it accounts for exactly size bytes.
func ReadIndexSized(r io.Reader, size int64, expectedDim int) (*FlatIndex, error) {
	return readIndex(r, expectedDim, size)
}

func readIndex(r io.Reader, expectedDim int, size int64) (*FlatIndex, error) {
	br := bufio.NewReader(r)
	header := make([]byte, headerSize)
	if _, err := io.ReadFull(br, header); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if [4]byte(header[0:4]) != magic {
		return nil, fmt.Errorf("not a flat index blob")
	}
	dim := int(binary.LittleEndian.Uint32(header[4:8]))
	count := int(binary.LittleEndian.Uint32(header[8:12]))
	if expectedDim > 0 && dim != expectedDim {
		return nil, fmt.Errorf("%w: file has %d, configured %d", ErrDimensionMismatch, dim, expectedDim)
	}
	encoded := EncodedSize(dim, count)
	if encoded < 0 {
		return nil, fmt.Errorf("%w: %d vectors of %d overflows", ErrCorruptIndex, count, dim)
	}
	if size >= 0 && encoded != size {
		return nil, fmt.Errorf("%w: header claims %d vectors of %d, blob is %d bytes",
			ErrCorruptIndex, count, dim, size)
	}
	idx, err := NewFlatIndex(dim)
	if err != nil {
		return nil, err
	}
	raw := make([]byte, 4*dim)
	reserve := preallocLimit
	if count <= preallocLimit/dim {
		reserve = count * dim
	}
	idx.data = make([]float32, 0, reserve)
	for i := 0; i < count; i++ {
		if _, err := io.ReadFull(br, raw); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil, fmt.Errorf("%w: stream ended at vector %d of %d", ErrCorruptIndex, i, count)
			}
			return nil, fmt.Errorf("read vector %d: %w", i, err)
		}
		for j := 0; j < dim; j++ {
			idx.data = append(idx.data, math.Float32frombits(binary.LittleEndian.Uint32(raw[j*4:(j+1)*4])))
		}
	}
	idx.count = count
	return idx, nil
}
