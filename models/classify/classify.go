// Package classify - decodes classification output vectors. No geometry, no
// NMS: one confidence vector per batch reduces to its arg-max.
package classify

import (
	"context"

	"github.com/pkg/errors"
)

// Result is one batch's classification outcome.
type Result struct {
	// ClassIndex is the arg-max of the confidence vector. Ties keep the
	// lowest index, consistent with the box-scoring primitive.
	ClassIndex int `json:"class_index"`
	// Confidence is the value at ClassIndex, the maximum of Confidences.
	Confidence float32 `json:"confidence"`
	// Confidences is a copy of the batch's dense confidence vector.
	Confidences []float32 `json:"confidences"`
}

// Decode reduces each batch's confidence vector to its best class.
//
// An empty first batch vector short-circuits the whole call to an empty
// result without error, matching the box decoders' convention; any other
// length mismatch against numClasses is a structural error reported before
// processing.
//
// Arguments:
//   - output: One confidence vector per batch.
//   - numClasses: The expected vector length.
//
// Returns:
//   - One Result per batch, in input batch order.
//   - A structural error on length mismatch.
func Decode(output [][]float32, numClasses int) ([]Result, error) {
	return DecodeContext(context.Background(), output, numClasses)
}

// DecodeContext is the cancellable variant. Classification has no selection
// step, so the context is observed once up front; results are identical to
// Decode for the same inputs.
func DecodeContext(ctx context.Context, output [][]float32, numClasses int) ([]Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if numClasses <= 0 {
		return nil, errors.Errorf("classify: num_classes must be positive, got %d", numClasses)
	}
	if len(output) == 0 || len(output[0]) == 0 {
		return []Result{}, nil
	}
	for b, vector := range output {
		if len(vector) != numClasses {
			return nil, errors.Errorf(
				"classify: batch %d has %d confidences, want %d", b, len(vector), numClasses,
			)
		}
	}

	results := make([]Result, len(output))
	for b, vector := range output {
		best := vector[0]
		bestClass := 0
		for c, score := range vector {
			if score > best {
				best = score
				bestClass = c
			}
		}

		confidences := make([]float32, numClasses)
		copy(confidences, vector)

		results[b] = Result{
			ClassIndex:  bestClass,
			Confidence:  best,
			Confidences: confidences,
		}
	}

	return results, nil
}
