package postprocess

import (
	"context"

	"github.com/pkg/errors"

	"github.com/nvr-ai/go-yolo/images"
	"github.com/nvr-ai/go-yolo/models/layout"
)

// ValidateBatches applies the shared validate-then-process rules for box
// tensors: a first batch with zero channels is the intentional "no
// detections" signal and short-circuits the whole call to an empty result
// (empty == true, no error); any other channel-count mismatch or ragged slot
// count is a structural error reported before per-candidate work begins.
//
// The zero-channel case is a deliberately narrow exception: a zero-length
// first batch is accepted even when a non-zero batch of the same total length
// would be rejected, and callers rely on that asymmetry.
func ValidateBatches(output [][][]float32, l layout.Layout) (empty bool, err error) {
	if len(output) == 0 || len(output[0]) == 0 {
		return true, nil
	}
	for b, channels := range output {
		if err := l.CheckChannels(len(channels)); err != nil {
			return false, errors.Wrapf(err, "batch %d", b)
		}
		if !UniformSlots(channels) {
			return false, errors.Errorf("batch %d: ragged slot counts across channels", b)
		}
	}
	return false, nil
}

// SelectBatch runs the scoring primitive and the selection step for one
// batch and returns the surviving slot indices. Scoring reads only the class
// channels; trailing keypoint or mask-coefficient channels never participate,
// so the detection, pose, and segmentation decoders share this path
// unchanged. Cancellation, when the context carries it, is observed only
// inside the selection step.
func SelectBatch(
	ctx context.Context,
	channels [][]float32,
	numClasses int,
	suppressor ContextSuppressor,
	opts Options,
) ([]int, error) {
	candidates := DecodeCandidates(channels, numClasses)

	boxes := make([]images.Rect, len(candidates))
	scores := make([]float32, len(candidates))
	for i, c := range candidates {
		boxes[i] = c.Box
		scores[i] = c.Score
	}

	return suppressor.SelectContext(ctx, boxes, scores, opts)
}
