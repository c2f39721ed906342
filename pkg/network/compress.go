package network

import (
	"encoding/binary"
	"errors"

	"github.com/pierrec/lz4"
)

// compress LZ4-compresses source, prefixing the result with source's
// uncompressed length so decompress knows how large a buffer to
// allocate. It returns an error if source turns out incompressible.
func compress(source []byte) ([]byte, error) {
	bound := lz4.CompressBlockBound(len(source))
	buf := make([]byte, 4+bound)
	binary.LittleEndian.PutUint32(buf, uint32(len(source)))

	n, err := lz4.CompressBlock(source, buf[4:], nil)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, errors.New("network: payload is not compressible")
	}
	return buf[:4+n], nil
}

// decompress reverses compress, rejecting a claimed uncompressed size
// larger than maxSize.
func decompress(data []byte, maxSize int) ([]byte, error) {
	if len(data) < 4 {
		return nil, errors.New("network: compressed payload too short")
	}
	size := binary.LittleEndian.Uint32(data)
	if int(size) > maxSize {
		return nil, errors.New("network: decompressed payload too large")
	}
	out := make([]byte, size)
	if size > 0 {
		if _, err := lz4.UncompressBlock(data[4:], out); err != nil {
			return nil, err
		}
	}
	return out, nil
}
