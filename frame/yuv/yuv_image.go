// Package yuv exposes raw planar 4:2:0 frame bodies as standard library images.
package yuv

import (
	"fmt"
	"image"
)

// PlaneSizes returns the byte length of the luma plane and of each chroma plane
// for a 4:2:0 picture of the given size.
func PlaneSizes(width, height int) (luma, chroma int) {
	return width * height, ((width + 1) / 2) * ((height + 1) / 2) //nolint:mnd
}

// Image returns an *image.YCbCr sharing memory with body. The planes are laid
// out Y, Cb, Cr without padding. The image is valid only as long as body is.
func Image(width, height int, body []byte) (*image.YCbCr, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid picture size %dx%d", width, height)
	}

	luma, chroma := PlaneSizes(width, height)
	if need := luma + 2*chroma; len(body) < need {
		return nil, fmt.Errorf("frame body has %d bytes, %dx%d 4:2:0 needs %d", len(body), width, height, need)
	}

	cb := body[luma : luma+chroma : luma+chroma]
	cr := body[luma+chroma : luma+2*chroma : luma+2*chroma]

	return &image.YCbCr{
		Y:              body[:luma:luma],
		Cb:             cb,
		Cr:             cr,
		YStride:        width,
		CStride:        (width + 1) / 2, //nolint:mnd
		SubsampleRatio: image.YCbCrSubsampleRatio420,
		Rect:           image.Rect(0, 0, width, height),
	}, nil
}
