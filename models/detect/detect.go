// Package detect - decodes detection-task output tensors into bounding boxes.
package detect

import (
	"context"

	"github.com/nvr-ai/go-yolo/models/layout"
	"github.com/nvr-ai/go-yolo/models/postprocess"
)

// Decoder turns raw detection tensors, shaped [batch][channel][slot] with
// channels = 4 + num_classes, into per-batch bounding box lists. A Decoder
// keeps no state between calls and is safe for concurrent use.
type Decoder struct {
	// Layout describes the expected channel layout.
	Layout layout.Layout
	// Suppressor performs the NMS selection step. Defaults to the pure-Go
	// greedy implementation.
	Suppressor postprocess.ContextSuppressor
}

// NewDecoder creates a detection decoder for the given class count.
//
// Arguments:
//   - numClasses: The number of class-confidence channels the model emits.
//
// Returns:
//   - A configured Decoder using greedy NMS.
func NewDecoder(numClasses int) *Decoder {
	return &Decoder{
		Layout:     layout.Detect(numClasses),
		Suppressor: postprocess.Greedy{},
	}
}

// Decode runs the blocking variant of the pipeline: validate, decode
// candidates, select, materialize. Within a batch, results appear in the
// order selection emitted them, or in raw slot order when selection is
// skipped (opts.MaxOutputSize <= 0) - never score-sorted.
//
// A first batch with zero channels short-circuits the whole call to an empty
// result; any other channel-count mismatch is a structural error reported
// before any per-candidate processing.
//
// Arguments:
//   - output: The raw tensor, [batch][channel][slot].
//   - opts: Selection parameters; postprocess.DefaultOptions() for defaults.
//
// Returns:
//   - One bounding box list per batch, in input batch order.
//   - A structural error on shape mismatch.
func (d *Decoder) Decode(output [][][]float32, opts postprocess.Options) ([][]postprocess.BoundingBox, error) {
	return d.DecodeContext(context.Background(), output, opts)
}

// DecodeContext runs the identical pipeline with cancellation observed at the
// selection step. For the same inputs it produces exactly the same output as
// Decode.
func (d *Decoder) DecodeContext(
	ctx context.Context,
	output [][][]float32,
	opts postprocess.Options,
) ([][]postprocess.BoundingBox, error) {
	if err := d.Layout.Validate(); err != nil {
		return nil, err
	}
	if empty, err := postprocess.ValidateBatches(output, d.Layout); empty || err != nil {
		if err != nil {
			return nil, err
		}
		return [][]postprocess.BoundingBox{}, nil
	}

	results := make([][]postprocess.BoundingBox, len(output))
	for b, channels := range output {
		kept, err := postprocess.SelectBatch(ctx, channels, d.Layout.NumClasses, d.Suppressor, opts)
		if err != nil {
			return nil, err
		}

		boxes := make([]postprocess.BoundingBox, len(kept))
		for i, slot := range kept {
			boxes[i] = postprocess.BoxAt(channels, d.Layout.NumClasses, slot)
		}
		results[b] = boxes
	}

	return results, nil
}
