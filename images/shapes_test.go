package images

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestCalculateIoU verifies Intersection over Union calculations.
//
// IoU is the suppression criterion for NMS, so boundary behavior here decides
// which detections survive.
//
// @example
// go test -v -run TestCalculateIoU
func TestCalculateIoU(t *testing.T) {
	tests := []struct {
		name        string
		r           Rect
		o           Rect
		expectedIoU float32
		tolerance   float32
	}{
		{
			name:        "identical boxes",
			r:           Rect{X1: 0, Y1: 0, X2: 100, Y2: 100},
			o:           Rect{X1: 0, Y1: 0, X2: 100, Y2: 100},
			expectedIoU: 1.0,
			tolerance:   0.0001,
		},
		{
			name:        "partial overlap",
			r:           Rect{X1: 0, Y1: 0, X2: 100, Y2: 100},
			o:           Rect{X1: 50, Y1: 50, X2: 150, Y2: 150},
			expectedIoU: 0.142857, // 2500 / 17500
			tolerance:   0.0001,
		},
		{
			name:        "no overlap",
			r:           Rect{X1: 0, Y1: 0, X2: 50, Y2: 50},
			o:           Rect{X1: 100, Y1: 100, X2: 150, Y2: 150},
			expectedIoU: 0.0,
			tolerance:   0.0001,
		},
		{
			name:        "edge touching",
			r:           Rect{X1: 0, Y1: 0, X2: 50, Y2: 50},
			o:           Rect{X1: 50, Y1: 0, X2: 100, Y2: 50},
			expectedIoU: 0.0,
			tolerance:   0.0001,
		},
		{
			name:        "small box inside large box",
			r:           Rect{X1: 0, Y1: 0, X2: 100, Y2: 100},
			o:           Rect{X1: 40, Y1: 40, X2: 60, Y2: 60},
			expectedIoU: 0.04, // 400 / 10000
			tolerance:   0.0001,
		},
		{
			name:        "zero-area box yields zero against anything",
			r:           Rect{X1: 10, Y1: 10, X2: 10, Y2: 10},
			o:           Rect{X1: 0, Y1: 0, X2: 100, Y2: 100},
			expectedIoU: 0.0,
			tolerance:   0.0001,
		},
		{
			name:        "two zero-area boxes",
			r:           Rect{X1: 5, Y1: 5, X2: 5, Y2: 5},
			o:           Rect{X1: 5, Y1: 5, X2: 5, Y2: 5},
			expectedIoU: 0.0,
			tolerance:   0.0001,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CalculateIoU(tt.r, tt.o)
			assert.InDelta(t, tt.expectedIoU, result, float64(tt.tolerance),
				"IoU should be within tolerance")

			// Verify commutativity
			reverse := CalculateIoU(tt.o, tt.r)
			assert.InDelta(t, result, reverse, 0.0001,
				"IoU should be commutative")
		})
	}
}

func TestRectDimensions(t *testing.T) {
	r := Rect{X1: 10, Y1: 20, X2: 50, Y2: 100}

	assert.Equal(t, float32(40), r.Width())
	assert.Equal(t, float32(80), r.Height())
	assert.Equal(t, float32(3200), r.Area())
}

// BenchmarkCalculateIoU measures the NMS inner loop's hot path.
//
// @example
// go test -bench=BenchmarkCalculateIoU -benchmem
func BenchmarkCalculateIoU(b *testing.B) {
	r := Rect{X1: 10, Y1: 20, X2: 100, Y2: 200}
	o := Rect{X1: 50, Y1: 60, X2: 150, Y2: 250}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = CalculateIoU(r, o)
	}
}
