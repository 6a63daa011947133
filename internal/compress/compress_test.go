package compress

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecode(t *testing.T) {
	compressible := []byte(strings.Repeat("0 0 0 1 0 0 0 2\n", 256))
	random := []byte{7, 3, 250, 1, 99, 42, 18, 5}

	for _, algo := range []Algorithm{None, LZ4, Zstd} {
		t.Run(algo.String(), func(t *testing.T) {
			for _, data := range [][]byte{compressible, random, {}} {
				enc, err := Encode(algo, data)
				require.NoError(t, err)
				assert.Equal(t, byte(algo), enc[0])

				dec, err := Decode(enc)
				require.NoError(t, err)
				assert.True(t, bytes.Equal(data, dec))
			}
		})
	}
}

func TestEncode_Shrinks(t *testing.T) {
	data := []byte(strings.Repeat("12 0 0 0 0 0 0 0 0 0 0 0 0 0 0 0\n", 64))

	for _, algo := range []Algorithm{LZ4, Zstd} {
		enc, err := Encode(algo, data)
		require.NoError(t, err)
		assert.Less(t, len(enc), len(data), algo.String())
	}
}

func TestEncode_IncompressibleStoredRaw(t *testing.T) {
	data := []byte{1, 2, 3}
	enc, err := Encode(Zstd, data)
	require.NoError(t, err)
	assert.Len(t, enc, HeaderSize+len(data))
	assert.Equal(t, data, enc[HeaderSize:])
}

func TestDecode_Corrupt(t *testing.T) {
	_, err := Decode([]byte{1, 2})
	assert.ErrorIs(t, err, ErrCorrupt)

	enc, err := Encode(LZ4, []byte(strings.Repeat("abc", 100)))
	require.NoError(t, err)
	_, err = Decode(enc[:len(enc)-1])
	assert.ErrorIs(t, err, ErrCorrupt)

	enc[0] = 9
	_, err = Decode(enc)
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestParseAlgorithm(t *testing.T) {
	tests := []struct {
		in   string
		want Algorithm
		err  bool
	}{
		{"", None, false},
		{"none", None, false},
		{"LZ4", LZ4, false},
		{" zstd ", Zstd, false},
		{"gzip", None, true},
	}
	for _, tt := range tests {
		got, err := ParseAlgorithm(tt.in)
		if tt.err {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}
