package inference

import (
	"image"

	"github.com/nfnt/resize"
	"github.com/pkg/errors"
	ort "github.com/yalue/onnxruntime_go"
)

// PrepareInput resizes an image to the model's input resolution and writes it
// into the destination tensor as planar CHW RGB with values scaled to [0, 1].
//
// Arguments:
//   - img: The image to prepare.
//   - dst: The session's input tensor.
//   - width: The model input width in pixels.
//   - height: The model input height in pixels.
//
// Returns:
//   - error: An error if the tensor is too small for the requested shape.
func PrepareInput(img image.Image, dst *ort.Tensor[float32], width, height int) error {
	data := dst.GetData()
	channelSize := width * height
	if len(data) < channelSize*3 {
		return errors.Errorf(
			"input tensor holds %d floats, needs %d for %dx%d RGB",
			len(data), channelSize*3, width, height,
		)
	}
	red := data[0:channelSize]
	green := data[channelSize : channelSize*2]
	blue := data[channelSize*2 : channelSize*3]

	img = resize.Resize(uint(width), uint(height), img, resize.Lanczos3)

	i := 0
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			red[i] = float32(r>>8) / 255.0
			green[i] = float32(g>>8) / 255.0
			blue[i] = float32(b>>8) / 255.0
			i++
		}
	}
	return nil
}
