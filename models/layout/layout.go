// Package layout - Channel-layout descriptors for YOLO-family output tensors.
//
// A Layout tells the decoders how to interpret the feature axis of a raw
// output tensor: where the box geometry lives, how many class-confidence
// channels follow it, and whether a keypoint or mask-coefficient region trails
// the classes. The layout is supplied explicitly by the caller (from model
// metadata) and validated once up front; the engine never infers the task
// from the tensor shape at runtime.
package layout

import "github.com/pkg/errors"

// Task identifies the decode task a layout describes.
type Task string

const (
	// TaskDetect is plain object detection: boxes and class confidences.
	TaskDetect Task = "detect"
	// TaskPose is detection extended with a fixed-length keypoint list per box.
	TaskPose Task = "pose"
	// TaskSegment is detection extended with per-box mask coefficients.
	TaskSegment Task = "segment"
	// TaskClassify is a per-batch class-confidence vector with no geometry.
	TaskClassify Task = "classify"
)

// geometryChannels is the number of leading box channels (x, y, w, h). Every
// box-producing task places geometry first.
const geometryChannels = 4

// DefaultMaskCoefficients is the mask-coefficient count YOLO segmentation
// models export by default.
const DefaultMaskCoefficients = 32

// Layout describes the channel ordering of one task's output tensor.
type Layout struct {
	// Task is the decode task this layout belongs to.
	Task Task `json:"task"`
	// NumClasses is the number of class-confidence channels.
	NumClasses int `json:"num_classes"`
	// NumKeypoints is the keypoint count per box (pose only).
	NumKeypoints int `json:"num_keypoints,omitempty"`
	// KeypointVisibility reports whether each keypoint carries a third
	// visibility channel in addition to x and y (pose only).
	KeypointVisibility bool `json:"keypoint_visibility,omitempty"`
	// NumMaskCoefficients is the per-box mask-coefficient count (segment only).
	NumMaskCoefficients int `json:"num_mask_coefficients,omitempty"`
}

// Detect returns the layout of a detection tensor with the given class count.
func Detect(numClasses int) Layout {
	return Layout{Task: TaskDetect, NumClasses: numClasses}
}

// Pose returns the layout of a pose tensor. visibility reports whether the
// model emits a per-keypoint visibility channel.
func Pose(numClasses, numKeypoints int, visibility bool) Layout {
	return Layout{
		Task:               TaskPose,
		NumClasses:         numClasses,
		NumKeypoints:       numKeypoints,
		KeypointVisibility: visibility,
	}
}

// Segment returns the layout of a segmentation box tensor. A non-positive
// coefficient count falls back to DefaultMaskCoefficients.
func Segment(numClasses, numMaskCoefficients int) Layout {
	if numMaskCoefficients <= 0 {
		numMaskCoefficients = DefaultMaskCoefficients
	}
	return Layout{
		Task:                TaskSegment,
		NumClasses:          numClasses,
		NumMaskCoefficients: numMaskCoefficients,
	}
}

// Classify returns the layout of a classification confidence vector.
func Classify(numClasses int) Layout {
	return Layout{Task: TaskClassify, NumClasses: numClasses}
}

// KeypointStride returns the per-keypoint channel stride: 3 when a visibility
// channel is present, otherwise 2.
func (l Layout) KeypointStride() int {
	if l.KeypointVisibility {
		return 3
	}
	return 2
}

// ClassOffset returns the channel index of the first class-confidence channel.
func (l Layout) ClassOffset() int {
	if l.Task == TaskClassify {
		return 0
	}
	return geometryChannels
}

// KeypointOffset returns the channel index of the first keypoint channel.
func (l Layout) KeypointOffset() int {
	return geometryChannels + l.NumClasses
}

// MaskOffset returns the channel index of the first mask-coefficient channel.
func (l Layout) MaskOffset() int {
	return geometryChannels + l.NumClasses
}

// Channels returns the total channel count this layout expects.
func (l Layout) Channels() int {
	switch l.Task {
	case TaskClassify:
		return l.NumClasses
	case TaskPose:
		return geometryChannels + l.NumClasses + l.NumKeypoints*l.KeypointStride()
	case TaskSegment:
		return geometryChannels + l.NumClasses + l.NumMaskCoefficients
	default:
		return geometryChannels + l.NumClasses
	}
}

// Validate checks that the layout parameters themselves are coherent.
func (l Layout) Validate() error {
	if l.NumClasses <= 0 {
		return errors.Errorf("layout: num_classes must be positive, got %d", l.NumClasses)
	}
	switch l.Task {
	case TaskPose:
		if l.NumKeypoints <= 0 {
			return errors.Errorf("layout: pose requires a positive keypoint count, got %d", l.NumKeypoints)
		}
	case TaskSegment:
		if l.NumMaskCoefficients <= 0 {
			return errors.Errorf("layout: segment requires a positive mask-coefficient count, got %d", l.NumMaskCoefficients)
		}
	case TaskDetect, TaskClassify:
	default:
		return errors.Errorf("layout: unknown task %q", l.Task)
	}
	return nil
}

// CheckChannels verifies that an observed channel count matches the layout.
func (l Layout) CheckChannels(got int) error {
	if want := l.Channels(); got != want {
		return errors.Errorf("layout: %s expects %d channels, tensor has %d", l.Task, want, got)
	}
	return nil
}
