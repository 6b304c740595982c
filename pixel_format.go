package y4mstream

// PixelFormat represents the raw pixel layout of a frame body.
type PixelFormat uint8

// Constants representing supported pixel formats.
const (
	YUV420P PixelFormat = iota // planar 4:2:0, 8 bits per sample
)

// BodyLen returns the number of bytes of a single width x height picture.
func (pf PixelFormat) BodyLen(width, height int) int {
	switch pf {
	case YUV420P:
		return width * height * 3 / 2 //nolint:mnd
	default:
		return 0
	}
}

// String returns a human-readable string representation of the pixel format.
func (pf PixelFormat) String() string {
	switch pf {
	case YUV420P:
		return "YUV420P"
	default:
		return "UNKNOWN"
	}
}
