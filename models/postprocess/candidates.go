// Package postprocess - the shared decode primitives: candidate box geometry
// and scoring, and greedy Non-Maximum Suppression.
//
// Every decoder consumes one batch of feature channels at a time, shaped
// [channel][slot]: channel 0..3 hold center-form box geometry (x, y, w, h)
// and the task's layout determines what follows. Both primitives are pure
// functions of their inputs and keep no state between calls.
package postprocess

import "github.com/nvr-ai/go-yolo/images"

// Candidate is one slot's decoded corner-form box with its best class score.
type Candidate struct {
	// Box is the corner-form box converted from the slot's center-form geometry.
	Box images.Rect
	// Score is the highest class confidence at this slot.
	Score float32
	// Class is the index of that class. Ties keep the lowest class index.
	Class int
}

// BoundingBox is a materialized detection in the model's input coordinate
// space. Coordinates are center-form pixels, never normalized to [0, 1].
type BoundingBox struct {
	// X, Y are the box center.
	X float32 `json:"x"`
	Y float32 `json:"y"`
	// Width, Height are the box size.
	Width  float32 `json:"width"`
	Height float32 `json:"height"`
	// ClassIndex is the best-scoring class.
	ClassIndex int `json:"class_index"`
	// Confidence is that class's score, the maximum of Confidences.
	Confidence float32 `json:"confidence"`
	// Confidences is the dense per-class confidence vector.
	Confidences []float32 `json:"confidences"`
}

// Rect returns the corner-form equivalent of the box.
func (b BoundingBox) Rect() images.Rect {
	return images.Rect{
		X1: b.X - b.Width/2,
		Y1: b.Y - b.Height/2,
		X2: b.X + b.Width/2,
		Y2: b.Y + b.Height/2,
	}
}

// DecodeCandidates converts one batch's raw channels into per-slot candidates:
// corner-form box plus best class score and index.
//
// The class scan is linear over the numClasses channels following the
// geometry; on an exact tie the first (lowest) class index wins. Channels
// beyond 4+numClasses (keypoints, mask coefficients) never participate in
// scoring. O(N*C), no side effects.
//
// Arguments:
//   - channels: One batch's channel array, [channel][slot].
//   - numClasses: The number of class-confidence channels.
//
// Returns:
//   - One Candidate per slot, in slot order.
func DecodeCandidates(channels [][]float32, numClasses int) []Candidate {
	slots := SlotCount(channels)
	candidates := make([]Candidate, slots)

	xs, ys, ws, hs := channels[0], channels[1], channels[2], channels[3]
	for i := 0; i < slots; i++ {
		x, y, w, h := xs[i], ys[i], ws[i], hs[i]

		best := channels[4][i]
		bestClass := 0
		for c := 1; c < numClasses; c++ {
			if score := channels[4+c][i]; score > best {
				best = score
				bestClass = c
			}
		}

		candidates[i] = Candidate{
			Box: images.Rect{
				X1: x - w/2,
				Y1: y - h/2,
				X2: x + w/2,
				Y2: y + h/2,
			},
			Score: best,
			Class: bestClass,
		}
	}

	return candidates
}

// BoxAt materializes the BoundingBox for one surviving slot, rereading the
// raw channels rather than reusing the scoring pass so the result carries a
// fresh confidence vector with no aliasing into decode-internal buffers.
//
// Arguments:
//   - channels: One batch's channel array, [channel][slot].
//   - numClasses: The number of class-confidence channels.
//   - slot: The candidate slot index.
//
// Returns:
//   - The detection entity for that slot.
func BoxAt(channels [][]float32, numClasses, slot int) BoundingBox {
	confidences := make([]float32, numClasses)
	best := channels[4][slot]
	bestClass := 0
	for c := 0; c < numClasses; c++ {
		score := channels[4+c][slot]
		confidences[c] = score
		if score > best {
			best = score
			bestClass = c
		}
	}

	return BoundingBox{
		X:           channels[0][slot],
		Y:           channels[1][slot],
		Width:       channels[2][slot],
		Height:      channels[3][slot],
		ClassIndex:  bestClass,
		Confidence:  best,
		Confidences: confidences,
	}
}

// SlotCount returns the candidate-slot count of one batch's channel array.
func SlotCount(channels [][]float32) int {
	if len(channels) == 0 {
		return 0
	}
	return len(channels[0])
}

// UniformSlots reports whether every channel row carries the same slot count.
// Ragged rows are a structural defect the decoders reject before processing.
func UniformSlots(channels [][]float32) bool {
	if len(channels) == 0 {
		return true
	}
	slots := len(channels[0])
	for _, row := range channels[1:] {
		if len(row) != slots {
			return false
		}
	}
	return true
}
