// Package pose - decodes pose-task output tensors into bounding boxes with
// fixed-length keypoint lists.
package pose

import (
	"context"

	"github.com/nvr-ai/go-yolo/models/layout"
	"github.com/nvr-ai/go-yolo/models/postprocess"
)

// Keypoint is one skeleton landmark in model-input pixel space.
type Keypoint struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
	// Visibility is the keypoint confidence in [0, 1]. Models whose layout
	// omits the visibility channel report 1 for every keypoint.
	Visibility float32 `json:"visibility"`
}

// BoundingBoxWithKeypoints extends a detection with its ordered keypoint
// list. The list length always equals the layout's keypoint count.
type BoundingBoxWithKeypoints struct {
	postprocess.BoundingBox
	Keypoints []Keypoint `json:"keypoints"`
}

// Decoder turns raw pose tensors, shaped [batch][channel][slot] with channels
// = 4 + num_classes + num_keypoints x (3 or 2), into per-batch lists of boxes
// with keypoints. Keypoint channels never participate in scoring or NMS; the
// box path is identical to the detection decoder.
type Decoder struct {
	Layout     layout.Layout
	Suppressor postprocess.ContextSuppressor
}

// NewDecoder creates a pose decoder.
//
// Arguments:
//   - numClasses: The number of class-confidence channels.
//   - numKeypoints: The keypoint count per box (e.g. 17 for COCO skeletons).
//   - visibility: Whether each keypoint carries a visibility channel.
//
// Returns:
//   - A configured Decoder using greedy NMS.
func NewDecoder(numClasses, numKeypoints int, visibility bool) *Decoder {
	return &Decoder{
		Layout:     layout.Pose(numClasses, numKeypoints, visibility),
		Suppressor: postprocess.Greedy{},
	}
}

// Decode runs the blocking variant of the pipeline. Ordering and the
// zero-channel first-batch short-circuit behave exactly as in the detection
// decoder.
func (d *Decoder) Decode(output [][][]float32, opts postprocess.Options) ([][]BoundingBoxWithKeypoints, error) {
	return d.DecodeContext(context.Background(), output, opts)
}

// DecodeContext runs the identical pipeline with cancellation observed at the
// selection step.
func (d *Decoder) DecodeContext(
	ctx context.Context,
	output [][][]float32,
	opts postprocess.Options,
) ([][]BoundingBoxWithKeypoints, error) {
	if err := d.Layout.Validate(); err != nil {
		return nil, err
	}
	if empty, err := postprocess.ValidateBatches(output, d.Layout); empty || err != nil {
		if err != nil {
			return nil, err
		}
		return [][]BoundingBoxWithKeypoints{}, nil
	}

	results := make([][]BoundingBoxWithKeypoints, len(output))
	for b, channels := range output {
		kept, err := postprocess.SelectBatch(ctx, channels, d.Layout.NumClasses, d.Suppressor, opts)
		if err != nil {
			return nil, err
		}

		boxes := make([]BoundingBoxWithKeypoints, len(kept))
		for i, slot := range kept {
			boxes[i] = BoundingBoxWithKeypoints{
				BoundingBox: postprocess.BoxAt(channels, d.Layout.NumClasses, slot),
				Keypoints:   d.keypointsAt(channels, slot),
			}
		}
		results[b] = boxes
	}

	return results, nil
}

// keypointsAt walks the keypoint region of the channel layout in fixed-size
// strides, extracting one Keypoint per stride for the given slot.
func (d *Decoder) keypointsAt(channels [][]float32, slot int) []Keypoint {
	offset := d.Layout.KeypointOffset()
	stride := d.Layout.KeypointStride()

	keypoints := make([]Keypoint, d.Layout.NumKeypoints)
	for k := range keypoints {
		base := offset + k*stride
		kp := Keypoint{
			X:          channels[base][slot],
			Y:          channels[base+1][slot],
			Visibility: 1,
		}
		if stride == 3 {
			kp.Visibility = channels[base+2][slot]
		}
		keypoints[k] = kp
	}
	return keypoints
}
