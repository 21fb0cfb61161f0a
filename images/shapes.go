// Package images - box geometry shared by the decode pipeline.
package images

// Rect is a lightweight corner-form bounding box in model-input pixel space.
type Rect struct {
	X1, Y1, X2, Y2 float32
}

// Width returns the width of the box.
func (r Rect) Width() float32 {
	return r.X2 - r.X1
}

// Height returns the height of the box.
func (r Rect) Height() float32 {
	return r.Y2 - r.Y1
}

// Area returns the area of the box. Degenerate boxes have area <= 0.
func (r Rect) Area() float32 {
	return r.Width() * r.Height()
}

// CalculateIoU computes the Intersection over Union of two corner-form boxes.
//
// IoU = Area of Intersection / Area of Union, a value in [0, 1]. It is the
// suppression criterion used by greedy NMS: two candidates whose IoU exceeds
// the configured threshold are considered duplicate detections of the same
// object.
//
// A box with zero (or negative) area yields IoU 0 against any other box.
//
// Arguments:
//   - r: The first box.
//   - o: The other box.
//
// Returns:
//   - float32: The IoU score in [0, 1].
func CalculateIoU(r, o Rect) float32 {
	ix1 := max(r.X1, o.X1)
	iy1 := max(r.Y1, o.Y1)
	ix2 := min(r.X2, o.X2)
	iy2 := min(r.Y2, o.Y2)

	interW := ix2 - ix1
	interH := iy2 - iy1
	if interW <= 0 || interH <= 0 {
		return 0.0
	}
	interArea := interW * interH

	// Inclusion-exclusion: Union(A, B) = Area(A) + Area(B) - Intersection(A, B)
	unionArea := r.Area() + o.Area() - interArea
	if unionArea <= 0 {
		return 0.0
	}

	return interArea / unionArea
}
