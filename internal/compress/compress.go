package compress

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Algorithm identifies a compression algorithm.
type Algorithm uint8

const (
	// None stores frames raw.
	None Algorithm = 0
	// LZ4 is fast block compression, good for hot pages.
	LZ4 Algorithm = 1
	// Zstd trades speed for ratio.
	Zstd Algorithm = 2
)

// String returns the algorithm name.
func (a Algorithm) String() string {
	switch a {
	case None:
		return "none"
	case LZ4:
		return "lz4"
	case Zstd:
		return "zstd"
	default:
		return fmt.Sprintf("Algorithm(%d)", uint8(a))
	}
}

// ParseAlgorithm parses an algorithm name as accepted in configuration files.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return None, nil
	case "lz4":
		return LZ4, nil
	case "zstd":
		return Zstd, nil
	default:
		return None, fmt.Errorf("compress: unknown algorithm %q", s)
	}
}

// HeaderSize is the size of a frame header in bytes.
const HeaderSize = 9

// ErrCorrupt is returned for frames that cannot be decoded.
var ErrCorrupt = errors.New("compress: corrupt frame")

// maxRatio is the compressed/raw ratio above which a frame is stored raw.
const maxRatio = 0.9

var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() (*zstd.Encoder, error) {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder), nil
	}
	return zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
}

func getZstdDecoder() (*zstd.Decoder, error) {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder), nil
	}
	return zstd.NewReader(nil)
}

// Encode compresses data into a frame.
func Encode(algo Algorithm, data []byte) ([]byte, error) {
	if uint64(len(data)) > math.MaxUint32 {
		return nil, fmt.Errorf("compress: frame too large (%d bytes)", len(data))
	}

	var compressed []byte
	switch algo {
	case None:
	case LZ4:
		buf := make([]byte, lz4.CompressBlockBound(len(data)))
		n, err := lz4.CompressBlock(data, buf, nil)
		if err != nil {
			return nil, err
		}
		compressed = buf[:n] // n == 0 means incompressible
	case Zstd:
		enc, err := getZstdEncoder()
		if err != nil {
			return nil, err
		}
		compressed = enc.EncodeAll(data, nil)
		zstdEncoderPool.Put(enc)
	default:
		return nil, fmt.Errorf("compress: unknown algorithm %d", algo)
	}

	if len(compressed) == 0 || float64(len(compressed)) > float64(len(data))*maxRatio {
		return frame(algo, data, 0), nil
	}
	return frame(algo, compressed, len(data)), nil
}

func frame(algo Algorithm, payload []byte, rawSize int) []byte {
	out := make([]byte, HeaderSize+len(payload))
	out[0] = byte(algo)
	if rawSize == 0 {
		binary.LittleEndian.PutUint32(out[1:], uint32(len(payload)))
		binary.LittleEndian.PutUint32(out[5:], 0)
	} else {
		binary.LittleEndian.PutUint32(out[1:], uint32(rawSize))
		binary.LittleEndian.PutUint32(out[5:], uint32(len(payload)))
	}
	copy(out[HeaderSize:], payload)
	return out
}

// Decode decompresses a frame produced by Encode.
func Decode(data []byte) ([]byte, error) {
	if len(data) < HeaderSize {
		return nil, fmt.Errorf("%w: %d bytes is shorter than the header", ErrCorrupt, len(data))
	}
	algo := Algorithm(data[0])
	rawSize := binary.LittleEndian.Uint32(data[1:])
	compSize := binary.LittleEndian.Uint32(data[5:])
	body := data[HeaderSize:]

	if compSize == 0 {
		if uint64(len(body)) != uint64(rawSize) {
			return nil, fmt.Errorf("%w: raw frame size mismatch", ErrCorrupt)
		}
		return body, nil
	}
	if uint64(len(body)) != uint64(compSize) {
		return nil, fmt.Errorf("%w: compressed size mismatch", ErrCorrupt)
	}

	out := make([]byte, rawSize)
	switch algo {
	case LZ4:
		n, err := lz4.UncompressBlock(body, out)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
		}
		if uint32(n) != rawSize {
			return nil, fmt.Errorf("%w: decompressed size mismatch", ErrCorrupt)
		}
		return out, nil
	case Zstd:
		dec, err := getZstdDecoder()
		if err != nil {
			return nil, err
		}
		defer zstdDecoderPool.Put(dec)
		decoded, err := dec.DecodeAll(body, out[:0])
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
		}
		if uint32(len(decoded)) != rawSize {
			return nil, fmt.Errorf("%w: decompressed size mismatch", ErrCorrupt)
		}
		return decoded, nil
	default:
		return nil, fmt.Errorf("%w: unknown algorithm %d", ErrCorrupt, algo)
	}
}
