package inference

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorgonia.org/tensor"
)

// TestChannels verifies the flat buffer reshapes into [batch][channel][slot]
// views in row-major order.
//
// @example
// go test -v -run TestChannels
func TestChannels(t *testing.T) {
	// 2 batches, 3 channels, 2 slots.
	data := []float32{
		0, 1, // batch 0 channel 0
		2, 3, // batch 0 channel 1
		4, 5, // batch 0 channel 2
		6, 7, // batch 1 channel 0
		8, 9, // batch 1 channel 1
		10, 11, // batch 1 channel 2
	}

	out, err := Channels(data, 2, 3, 2)
	require.NoError(t, err)
	require.Len(t, out, 2)

	assert.Equal(t, [][]float32{{0, 1}, {2, 3}, {4, 5}}, out[0])
	assert.Equal(t, [][]float32{{6, 7}, {8, 9}, {10, 11}}, out[1])
}

func TestChannelsErrors(t *testing.T) {
	t.Run("length mismatch", func(t *testing.T) {
		_, err := Channels(make([]float32, 5), 1, 2, 3)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "needs 6")
	})

	t.Run("negative dimension", func(t *testing.T) {
		_, err := Channels(nil, -1, 2, 3)
		require.Error(t, err)
	})
}

// TestPrototypes verifies the channel axis moves innermost: flat
// [batch][channel][H][W] becomes [batch][H][W][channel].
func TestPrototypes(t *testing.T) {
	// 1 batch, 2 channels, 2x2 spatial.
	data := []float32{
		1, 2, 3, 4, // channel 0: plane [1 2; 3 4]
		5, 6, 7, 8, // channel 1: plane [5 6; 7 8]
	}

	out, err := Prototypes(data, 1, 2, 2, 2)
	require.NoError(t, err)
	require.Len(t, out, 1)

	expected := [][][]float32{
		{{1, 5}, {2, 6}},
		{{3, 7}, {4, 8}},
	}
	assert.Equal(t, expected, out[0])
}

func TestPrototypesLengthMismatch(t *testing.T) {
	_, err := Prototypes(make([]float32, 7), 1, 2, 2, 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "needs 8")
}

func TestVectors(t *testing.T) {
	data := []float32{0.1, 0.9, 0.6, 0.4}

	out, err := Vectors(data, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{0.1, 0.9}, {0.6, 0.4}}, out)

	_, err = Vectors(data, 2, 3)
	require.Error(t, err)
}

// TestFromDense verifies extraction of the flat buffer and shape from a dense
// tensor, and rejection of non-float32 backings.
func TestFromDense(t *testing.T) {
	t.Run("float32 tensor", func(t *testing.T) {
		backing := []float32{1, 2, 3, 4, 5, 6}
		dense := tensor.New(tensor.WithShape(1, 2, 3), tensor.WithBacking(backing))

		data, shape, err := FromDense(dense)
		require.NoError(t, err)
		assert.Equal(t, backing, data)
		assert.Equal(t, []int{1, 2, 3}, shape)
	})

	t.Run("float64 tensor rejected", func(t *testing.T) {
		dense := tensor.New(tensor.WithShape(2), tensor.WithBacking([]float64{1, 2}))

		_, _, err := FromDense(dense)
		require.Error(t, err)
	})

	t.Run("nil tensor", func(t *testing.T) {
		_, _, err := FromDense(nil)
		require.Error(t, err)
	})
}

// TestFromDenseIntoChannels verifies the adapter pairs with Channels for a
// detection-shaped tensor.
func TestFromDenseIntoChannels(t *testing.T) {
	backing := make([]float32, 1*5*4)
	for i := range backing {
		backing[i] = float32(i)
	}
	dense := tensor.New(tensor.WithShape(1, 5, 4), tensor.WithBacking(backing))

	data, shape, err := FromDense(dense)
	require.NoError(t, err)
	require.Equal(t, []int{1, 5, 4}, shape)

	out, err := Channels(data, shape[0], shape[1], shape[2])
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, []float32{0, 1, 2, 3}, out[0][0])
	assert.Equal(t, []float32{16, 17, 18, 19}, out[0][4])
}
