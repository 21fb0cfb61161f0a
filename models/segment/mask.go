package segment

import (
	"github.com/chewxy/math32"
	"github.com/pkg/errors"

	"github.com/nvr-ai/go-yolo/images"
)

// CompositeMask combines one box's coefficient vector with the batch's shared
// prototype channels into a dense per-pixel probability mask.
//
// For every pixel the prototype channels are reduced to a single raw value by
// the dot product with the coefficients, then squashed through the logistic
// sigmoid, so the output lies in (0, 1). The raw sum is linear in the
// coefficients; the mask itself is not, because of the sigmoid.
//
// This is O(H*W*M) and the most compute-intensive primitive in the engine;
// rows are processed in parallel across CPUs.
//
// Arguments:
//   - coefficients: The box's mask-coefficient vector, length M.
//   - prototypes: The batch's prototype tensor, [H][W][M].
//
// Returns:
//   - A dense H x W probability mask.
//   - An error when the coefficient length does not match the prototype
//     channel count.
func CompositeMask(coefficients []float32, prototypes [][][]float32) ([][]float32, error) {
	height := len(prototypes)
	if height == 0 || len(prototypes[0]) == 0 {
		return nil, errors.New("segment: prototype tensor has empty spatial dimensions")
	}
	width := len(prototypes[0])
	if got := len(prototypes[0][0]); got != len(coefficients) {
		return nil, errors.Errorf(
			"segment: coefficient vector has length %d, prototype tensor has %d channels",
			len(coefficients), got,
		)
	}

	mask := make([][]float32, height)
	images.Parallel(height, func(partStart, partEnd int) {
		for y := partStart; y < partEnd; y++ {
			srcRow := prototypes[y]
			row := make([]float32, width)
			for x := 0; x < width; x++ {
				pixel := srcRow[x]
				raw := float32(0)
				for m, c := range coefficients {
					raw += c * pixel[m]
				}
				row[x] = sigmoid(raw)
			}
			mask[y] = row
		}
	})

	return mask, nil
}

// sigmoid is the logistic function 1 / (1 + e^-x).
func sigmoid(x float32) float32 {
	return 1 / (1 + math32.Exp(-x))
}
