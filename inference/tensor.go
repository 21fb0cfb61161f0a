package inference

import (
	"github.com/pkg/errors"
	"gorgonia.org/tensor"
)

// Channels reshapes a flat row-major [batches][channels][slots] buffer into
// the nested [batch][channel][slot] views the box decoders consume. The views
// share the flat buffer's backing array; decoders never mutate their inputs,
// and materialized results carry no references back into it.
//
// Arguments:
//   - data: The flat output buffer.
//   - batches, channels, slots: The logical tensor dimensions.
//
// Returns:
//   - The nested views.
//   - An error if the buffer length does not equal batches*channels*slots.
func Channels(data []float32, batches, channels, slots int) ([][][]float32, error) {
	if batches < 0 || channels < 0 || slots < 0 {
		return nil, errors.Errorf("negative dimension in [%d %d %d]", batches, channels, slots)
	}
	if want := batches * channels * slots; len(data) != want {
		return nil, errors.Errorf(
			"buffer holds %d floats, shape [%d %d %d] needs %d",
			len(data), batches, channels, slots, want,
		)
	}

	out := make([][][]float32, batches)
	for b := 0; b < batches; b++ {
		rows := make([][]float32, channels)
		for c := 0; c < channels; c++ {
			start := (b*channels + c) * slots
			rows[c] = data[start : start+slots : start+slots]
		}
		out[b] = rows
	}
	return out, nil
}

// Prototypes reshapes a flat row-major [batches][channels][H][W] prototype
// buffer (the layout YOLO segmentation models export, e.g. [1, 32, 160, 160])
// into the [batch][H][W][channel] form the segmentation decoder consumes.
// Unlike Channels this copies, because the channel axis moves innermost.
//
// Arguments:
//   - data: The flat prototype buffer.
//   - batches, channels, height, width: The logical tensor dimensions.
//
// Returns:
//   - The nested prototype tensor.
//   - An error if the buffer length does not match the shape.
func Prototypes(data []float32, batches, channels, height, width int) ([][][][]float32, error) {
	if batches < 0 || channels < 0 || height < 0 || width < 0 {
		return nil, errors.Errorf(
			"negative dimension in [%d %d %d %d]", batches, channels, height, width,
		)
	}
	if want := batches * channels * height * width; len(data) != want {
		return nil, errors.Errorf(
			"buffer holds %d floats, shape [%d %d %d %d] needs %d",
			len(data), batches, channels, height, width, want,
		)
	}

	plane := height * width
	out := make([][][][]float32, batches)
	for b := 0; b < batches; b++ {
		base := b * channels * plane
		grid := make([][][]float32, height)
		for y := 0; y < height; y++ {
			row := make([][]float32, width)
			for x := 0; x < width; x++ {
				pixel := make([]float32, channels)
				for c := 0; c < channels; c++ {
					pixel[c] = data[base+c*plane+y*width+x]
				}
				row[x] = pixel
			}
			grid[y] = row
		}
		out[b] = grid
	}
	return out, nil
}

// Vectors reshapes a flat [batches][classes] classification buffer into
// per-batch confidence vectors.
func Vectors(data []float32, batches, classes int) ([][]float32, error) {
	if batches < 0 || classes < 0 {
		return nil, errors.Errorf("negative dimension in [%d %d]", batches, classes)
	}
	if want := batches * classes; len(data) != want {
		return nil, errors.Errorf(
			"buffer holds %d floats, shape [%d %d] needs %d", len(data), batches, classes, want,
		)
	}

	out := make([][]float32, batches)
	for b := 0; b < batches; b++ {
		start := b * classes
		out[b] = data[start : start+classes : start+classes]
	}
	return out, nil
}

// FromDense extracts the flat float32 buffer and shape from a gorgonia dense
// tensor, for callers whose inference stack produces tensor.Dense outputs
// instead of raw buffers. Pair it with Channels, Prototypes, or Vectors.
//
// Arguments:
//   - t: The dense tensor. Must hold float32 data.
//
// Returns:
//   - The flat backing data and the tensor shape.
//   - An error for non-float32 tensors.
func FromDense(t *tensor.Dense) ([]float32, []int, error) {
	if t == nil {
		return nil, nil, errors.New("nil tensor")
	}
	if t.Dtype() != tensor.Float32 {
		return nil, nil, errors.Errorf("tensor holds %v, want float32", t.Dtype())
	}
	data, ok := t.Data().([]float32)
	if !ok {
		return nil, nil, errors.New("tensor backing is not []float32")
	}
	return data, []int(t.Shape()), nil
}
