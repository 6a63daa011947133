package page

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDense_EncodeDecode(t *testing.T) {
	d := NewDense([][]int{{1, -2, 3}, {40, 0, 6}})

	data := d.Encode()
	require.Equal(t, "1 -2 3\n40 0 6\n", string(data))

	got, err := DecodeDense(data)
	require.NoError(t, err)
	r, c := got.Dims()
	assert.Equal(t, 2, r)
	assert.Equal(t, 3, c)
	assert.Equal(t, []int{40, 0, 6}, got.Row(1))
}

func TestDense_DecodeAppendedRows(t *testing.T) {
	var data []byte
	data = append(data, EncodeRow([]int{7, 8})...)
	data = append(data, EncodeRow([]int{9, 10})...)

	d, err := DecodeDense(data)
	require.NoError(t, err)
	assert.Equal(t, 2, d.Len())
	assert.Equal(t, []int{9, 10}, d.Row(1))
}

func TestDense_DecodeRejectsRaggedRows(t *testing.T) {
	_, err := DecodeDense([]byte("1 2\n3\n"))
	require.ErrorIs(t, err, ErrCorrupt)

	_, err = DecodeDense([]byte("1 x\n"))
	require.ErrorIs(t, err, ErrCorrupt)
}

func TestDense_Transpose(t *testing.T) {
	d := NewDense([][]int{{1, 2}, {3, 4}})
	d.Transpose()
	assert.Equal(t, []int{1, 3}, d.Row(0))
	assert.Equal(t, []int{2, 4}, d.Row(1))
}

func TestDense_TransposeWith(t *testing.T) {
	// Block (0,1) of a 3x3 matrix split at M=2 is 2x1, its mirror (1,0) is 1x2.
	upper := NewDense([][]int{{3}, {6}})
	lower := NewDense([][]int{{7, 8}})

	upper.TransposeWith(lower)

	r, c := upper.Dims()
	assert.Equal(t, 2, r)
	assert.Equal(t, 1, c)
	assert.Equal(t, []int{7}, upper.Row(0))
	assert.Equal(t, []int{8}, upper.Row(1))

	r, c = lower.Dims()
	assert.Equal(t, 1, r)
	assert.Equal(t, 2, c)
	assert.Equal(t, []int{3, 6}, lower.Row(0))
}
