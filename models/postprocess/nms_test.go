package postprocess

import (
	"context"
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/go-yolo/images"
)

// TestGreedySelect verifies greedy NMS selection order, suppression, and the
// score filter.
//
// @example
// go test -v -run TestGreedySelect
func TestGreedySelect(t *testing.T) {
	tests := []struct {
		name     string
		boxes    []images.Rect
		scores   []float32
		opts     Options
		expected []int
	}{
		{
			name: "highest score wins, overlap suppressed",
			boxes: []images.Rect{
				{X1: 0, Y1: 0, X2: 100, Y2: 100},
				{X1: 5, Y1: 5, X2: 105, Y2: 105}, // heavy overlap with box 0
				{X1: 200, Y1: 200, X2: 300, Y2: 300},
			},
			scores:   []float32{0.9, 0.8, 0.7},
			opts:     Options{MaxOutputSize: 10, IoUThreshold: 0.5, ScoreThreshold: math32.Inf(-1)},
			expected: []int{0, 2},
		},
		{
			name: "output cap limits selections",
			boxes: []images.Rect{
				{X1: 0, Y1: 0, X2: 10, Y2: 10},
				{X1: 100, Y1: 100, X2: 110, Y2: 110},
				{X1: 200, Y1: 200, X2: 210, Y2: 210},
			},
			scores:   []float32{0.5, 0.9, 0.7},
			opts:     Options{MaxOutputSize: 2, IoUThreshold: 0.5, ScoreThreshold: math32.Inf(-1)},
			expected: []int{1, 2},
		},
		{
			name: "score threshold is strict, equal score rejected",
			boxes: []images.Rect{
				{X1: 0, Y1: 0, X2: 10, Y2: 10},
				{X1: 100, Y1: 100, X2: 110, Y2: 110},
			},
			scores:   []float32{0.5, 0.9},
			opts:     Options{MaxOutputSize: 10, IoUThreshold: 0.5, ScoreThreshold: 0.5},
			expected: []int{1},
		},
		{
			name: "score ties keep slot order",
			boxes: []images.Rect{
				{X1: 0, Y1: 0, X2: 10, Y2: 10},
				{X1: 100, Y1: 100, X2: 110, Y2: 110},
				{X1: 200, Y1: 200, X2: 210, Y2: 210},
			},
			scores:   []float32{0.7, 0.7, 0.7},
			opts:     Options{MaxOutputSize: 10, IoUThreshold: 0.5, ScoreThreshold: math32.Inf(-1)},
			expected: []int{0, 1, 2},
		},
		{
			name: "zero-area boxes never suppress",
			boxes: []images.Rect{
				{X1: 5, Y1: 5, X2: 5, Y2: 5},
				{X1: 5, Y1: 5, X2: 5, Y2: 5},
			},
			scores:   []float32{0.9, 0.8},
			opts:     Options{MaxOutputSize: 10, IoUThreshold: 0.5, ScoreThreshold: math32.Inf(-1)},
			expected: []int{0, 1},
		},
		{
			name:     "empty input",
			boxes:    []images.Rect{},
			scores:   []float32{},
			opts:     Options{MaxOutputSize: 10, IoUThreshold: 0.5, ScoreThreshold: math32.Inf(-1)},
			expected: []int{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kept := Greedy{}.Select(tt.boxes, tt.scores, tt.opts)
			assert.Equal(t, tt.expected, kept, "kept indices should match")
		})
	}
}

// TestGreedyIoUBoundary verifies that IoU exactly at the threshold keeps both
// boxes while strictly above suppresses.
func TestGreedyIoUBoundary(t *testing.T) {
	// Inter 50, union 150, IoU exactly 1/3 in float32.
	boxes := []images.Rect{
		{X1: 0, Y1: 0, X2: 10, Y2: 10},
		{X1: 0, Y1: 5, X2: 10, Y2: 15},
	}
	scores := []float32{0.9, 0.8}
	boundary := images.CalculateIoU(boxes[0], boxes[1])

	t.Run("equal threshold keeps both", func(t *testing.T) {
		kept := Greedy{}.Select(boxes, scores, Options{
			MaxOutputSize:  10,
			IoUThreshold:   boundary,
			ScoreThreshold: math32.Inf(-1),
		})
		assert.Equal(t, []int{0, 1}, kept)
	})

	t.Run("lower threshold suppresses", func(t *testing.T) {
		kept := Greedy{}.Select(boxes, scores, Options{
			MaxOutputSize:  10,
			IoUThreshold:   boundary - 0.01,
			ScoreThreshold: math32.Inf(-1),
		})
		assert.Equal(t, []int{0}, kept)
	})
}

// TestGreedyReturnAll verifies the MaxOutputSize <= 0 mode: every slot index
// comes back in raw order, independent of scores and overlap.
func TestGreedyReturnAll(t *testing.T) {
	boxes := []images.Rect{
		{X1: 0, Y1: 0, X2: 100, Y2: 100},
		{X1: 0, Y1: 0, X2: 100, Y2: 100}, // identical to box 0
		{X1: 50, Y1: 50, X2: 150, Y2: 150},
	}
	scores := []float32{0.1, 0.9, 0.5}

	for _, size := range []int{0, -1} {
		kept := Greedy{}.Select(boxes, scores, Options{
			MaxOutputSize:  size,
			IoUThreshold:   0.5,
			ScoreThreshold: 0.99, // ignored in this mode
		})
		assert.Equal(t, []int{0, 1, 2}, kept, "max output size %d should return every slot in order", size)
	}
}

// TestGreedySelectContextEquivalence verifies the cancellable variant produces
// exactly the same indices as the blocking one.
func TestGreedySelectContextEquivalence(t *testing.T) {
	boxes := []images.Rect{
		{X1: 0, Y1: 0, X2: 100, Y2: 100},
		{X1: 10, Y1: 10, X2: 110, Y2: 110},
		{X1: 300, Y1: 300, X2: 400, Y2: 400},
		{X1: 305, Y1: 305, X2: 405, Y2: 405},
	}
	scores := []float32{0.6, 0.8, 0.7, 0.4}
	opts := Options{MaxOutputSize: 10, IoUThreshold: 0.3, ScoreThreshold: math32.Inf(-1)}

	blocking := Greedy{}.Select(boxes, scores, opts)
	suspending, err := Greedy{}.SelectContext(context.Background(), boxes, scores, opts)

	require.NoError(t, err)
	assert.Equal(t, blocking, suspending, "both variants should select identical indices")
}

func TestGreedySelectContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	boxes := []images.Rect{{X1: 0, Y1: 0, X2: 10, Y2: 10}}
	scores := []float32{0.9}

	kept, err := Greedy{}.SelectContext(ctx, boxes, scores, Options{
		MaxOutputSize:  10,
		IoUThreshold:   0.5,
		ScoreThreshold: math32.Inf(-1),
	})

	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, kept)
}

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()

	assert.Equal(t, 0, opts.MaxOutputSize)
	assert.Equal(t, DefaultIoUThreshold, opts.IoUThreshold)
	assert.True(t, math32.IsInf(opts.ScoreThreshold, -1),
		"default score threshold should be -Inf")
}

// BenchmarkGreedySelect measures NMS at a realistic candidate count.
//
// @example
// go test -bench=BenchmarkGreedySelect -benchmem
func BenchmarkGreedySelect(b *testing.B) {
	const n = 8400
	boxes := make([]images.Rect, n)
	scores := make([]float32, n)
	for i := 0; i < n; i++ {
		x := float32(i%640) * 0.9
		y := float32(i/640) * 7.3
		boxes[i] = images.Rect{X1: x, Y1: y, X2: x + 40, Y2: y + 40}
		scores[i] = float32(i%100) / 100
	}
	opts := Options{MaxOutputSize: 100, IoUThreshold: 0.5, ScoreThreshold: 0.25}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Greedy{}.Select(boxes, scores, opts)
	}
}
