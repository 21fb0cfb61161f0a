// Package segment - decodes segmentation-task output tensors into bounding
// boxes with mask coefficients and composites per-instance masks from shared
// prototype channels.
package segment

import (
	"context"

	"github.com/pkg/errors"

	"github.com/nvr-ai/go-yolo/models/layout"
	"github.com/nvr-ai/go-yolo/models/postprocess"
)

// BoundingBoxWithMaskCoefficients extends a detection with its fixed-length
// mask-coefficient vector. The vector length always equals the prototype
// tensor's channel count.
type BoundingBoxWithMaskCoefficients struct {
	postprocess.BoundingBox
	MaskCoefficients []float32 `json:"mask_coefficients"`
}

// Batch is one batch's segmentation result: the surviving boxes plus the
// batch's prototype mask tensor, passed through unmodified. Compositing a
// box's dense instance mask is deliberately deferred to CompositeMask -
// producing an H x W mask per box is the most expensive step in the engine
// and callers typically need it for only their top boxes.
type Batch struct {
	Boxes []BoundingBoxWithMaskCoefficients `json:"boxes"`
	// Prototypes is the batch's raw prototype tensor, [maskHeight][maskWidth][numChannels].
	Prototypes [][][]float32 `json:"-"`
}

// Decoder turns a raw box tensor ([batch][channel][slot], channels = 4 +
// num_classes + num_coefficients) and a prototype tensor
// ([batch][H][W][num_coefficients]) into per-batch segmentation results.
// Mask-coefficient channels never participate in scoring or NMS.
type Decoder struct {
	Layout     layout.Layout
	Suppressor postprocess.ContextSuppressor
}

// NewDecoder creates a segmentation decoder. A non-positive coefficient count
// falls back to layout.DefaultMaskCoefficients (32).
//
// Arguments:
//   - numClasses: The number of class-confidence channels.
//   - numCoefficients: The per-box mask-coefficient count.
//
// Returns:
//   - A configured Decoder using greedy NMS.
func NewDecoder(numClasses, numCoefficients int) *Decoder {
	return &Decoder{
		Layout:     layout.Segment(numClasses, numCoefficients),
		Suppressor: postprocess.Greedy{},
	}
}

// Decode runs the blocking variant of the pipeline over the paired tensors.
// Both shapes are validated, and their batch counts must match, before any
// per-candidate work; a zero-channel first box batch short-circuits the whole
// call to an empty result exactly as in the detection decoder.
//
// Arguments:
//   - output: The box tensor, [batch][channel][slot].
//   - prototypes: The prototype tensor, [batch][H][W][numCoefficients].
//   - opts: Selection parameters; postprocess.DefaultOptions() for defaults.
//
// Returns:
//   - One Batch per input batch, in input order.
//   - A structural error on any shape or batch-count mismatch.
func (d *Decoder) Decode(
	output [][][]float32,
	prototypes [][][][]float32,
	opts postprocess.Options,
) ([]Batch, error) {
	return d.DecodeContext(context.Background(), output, prototypes, opts)
}

// DecodeContext runs the identical pipeline with cancellation observed at the
// selection step.
func (d *Decoder) DecodeContext(
	ctx context.Context,
	output [][][]float32,
	prototypes [][][][]float32,
	opts postprocess.Options,
) ([]Batch, error) {
	if err := d.Layout.Validate(); err != nil {
		return nil, err
	}
	if empty, err := postprocess.ValidateBatches(output, d.Layout); empty || err != nil {
		if err != nil {
			return nil, err
		}
		return []Batch{}, nil
	}
	if len(prototypes) != len(output) {
		return nil, errors.Errorf(
			"segment: box tensor has %d batches, prototype tensor has %d",
			len(output), len(prototypes),
		)
	}
	for b, protos := range prototypes {
		if err := d.validatePrototypes(protos); err != nil {
			return nil, errors.Wrapf(err, "batch %d", b)
		}
	}

	results := make([]Batch, len(output))
	for b, channels := range output {
		kept, err := postprocess.SelectBatch(ctx, channels, d.Layout.NumClasses, d.Suppressor, opts)
		if err != nil {
			return nil, err
		}

		boxes := make([]BoundingBoxWithMaskCoefficients, len(kept))
		for i, slot := range kept {
			boxes[i] = BoundingBoxWithMaskCoefficients{
				BoundingBox:      postprocess.BoxAt(channels, d.Layout.NumClasses, slot),
				MaskCoefficients: d.coefficientsAt(channels, slot),
			}
		}
		results[b] = Batch{Boxes: boxes, Prototypes: prototypes[b]}
	}

	return results, nil
}

// coefficientsAt copies the slot's mask-coefficient vector out of the channel
// region trailing the classes.
func (d *Decoder) coefficientsAt(channels [][]float32, slot int) []float32 {
	offset := d.Layout.MaskOffset()
	coefficients := make([]float32, d.Layout.NumMaskCoefficients)
	for m := range coefficients {
		coefficients[m] = channels[offset+m][slot]
	}
	return coefficients
}

// validatePrototypes checks one batch's prototype tensor: rectangular spatial
// dimensions and a channel count matching the layout's coefficient count.
func (d *Decoder) validatePrototypes(protos [][][]float32) error {
	if len(protos) == 0 || len(protos[0]) == 0 {
		return errors.New("prototype tensor has empty spatial dimensions")
	}
	width := len(protos[0])
	for y, row := range protos {
		if len(row) != width {
			return errors.Errorf("prototype row %d has width %d, want %d", y, len(row), width)
		}
		for x, pixel := range row {
			if len(pixel) != d.Layout.NumMaskCoefficients {
				return errors.Errorf(
					"prototype pixel (%d,%d) has %d channels, want %d",
					y, x, len(pixel), d.Layout.NumMaskCoefficients,
				)
			}
		}
	}
	return nil
}
