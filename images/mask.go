package images

import (
	"image"

	"github.com/nfnt/resize"
)

// MaskImage converts a dense per-pixel probability mask (row-major, values in
// [0, 1]) into a grayscale image, mapping probability 1.0 to full white.
//
// Arguments:
// - mask: The dense H x W probability mask.
//
// Returns:
// - A grayscale image of the same dimensions, or a 0x0 image for an empty mask.
//
// @example
// gray := MaskImage(segment.CompositeMask(coeffs, protos))
func MaskImage(mask [][]float32) *image.Gray {
	height := len(mask)
	width := 0
	if height > 0 {
		width = len(mask[0])
	}

	img := image.NewGray(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		row := mask[y]
		for x := 0; x < width; x++ {
			v := row[x]
			if v < 0 {
				v = 0
			} else if v > 1 {
				v = 1
			}
			img.Pix[y*img.Stride+x] = uint8(v*255 + 0.5)
		}
	}
	return img
}

// ScaleMask converts a probability mask to grayscale and resizes it to the
// requested dimensions. Prototype masks are produced at a fraction of the
// model input resolution (e.g. 160x160 for a 640x640 input), so callers
// upsample them before overlaying on the source frame.
//
// Arguments:
// - mask: The dense probability mask.
// - width: Target width in pixels.
// - height: Target height in pixels.
//
// Returns:
// - The resized grayscale mask image.
//
// @example
// overlay := ScaleMask(mask, frame.Bounds().Dx(), frame.Bounds().Dy())
func ScaleMask(mask [][]float32, width, height int) image.Image {
	return resize.Resize(uint(width), uint(height), MaskImage(mask), resize.Bilinear)
}
