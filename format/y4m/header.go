package y4m

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ugparu/y4mstream"
)

// Header token prefixes.
const (
	tagWidth     = 'W'
	tagHeight    = 'H'
	tagColor     = 'C'
	tagFrameRate = 'F'
)

// MaxPixels bounds Width*Height so that body lengths fit in an int on every
// platform.
const MaxPixels = 1 << 28

// pixelFormats maps colorspace tags to pixel formats. All 4:2:0 siting
// variants share the same planar layout.
var pixelFormats = map[string]y4mstream.PixelFormat{
	"420":      y4mstream.YUV420P,
	"420jpeg":  y4mstream.YUV420P,
	"420paldv": y4mstream.YUV420P,
	"420mpeg2": y4mstream.YUV420P,
}

// FrameRate is a rational frame rate. The zero value means unknown.
type FrameRate struct {
	Num int
	Den int
}

// FPS returns the frame rate as a floating point value, or 0 if unknown.
func (fr FrameRate) FPS() float64 {
	if fr.Num <= 0 || fr.Den <= 0 {
		return 0
	}
	return float64(fr.Num) / float64(fr.Den)
}

// Header describes the stream. It is immutable once parsed.
type Header struct {
	Format    y4mstream.PixelFormat
	Width     int
	Height    int
	FrameRate FrameRate
}

// BodyLen returns the byte length of every frame body in the stream.
func (h *Header) BodyLen() int {
	return h.Format.BodyLen(h.Width, h.Height)
}

// String returns a human-readable string representation of the header.
func (h *Header) String() string {
	if fps := h.FrameRate.FPS(); fps > 0 {
		return fmt.Sprintf("[%s]%dx%d@%.3f", h.Format, h.Width, h.Height, fps)
	}
	return fmt.Sprintf("[%s]%dx%d", h.Format, h.Width, h.Height)
}

// ParseHeader parses the stream header line, excluding its line feed.
//
// Tokens are whitespace separated and dispatched on their first character.
// The magic token is not required, unknown tokens and unknown colorspaces are
// ignored. A malformed, missing or oversized dimension yields a *FormatError.
func ParseHeader(line string) (*Header, error) {
	hdr := &Header{
		Format:    y4mstream.YUV420P,
		Width:     0,
		Height:    0,
		FrameRate: FrameRate{},
	}

	var (
		err            error
		wToken, hToken string
	)
	for _, token := range strings.Fields(line) {
		switch token[0] {
		case tagWidth:
			if hdr.Width, err = parseDimension(token); err != nil {
				return nil, err
			}
			wToken = token
		case tagHeight:
			if hdr.Height, err = parseDimension(token); err != nil {
				return nil, err
			}
			hToken = token
		case tagColor:
			if pf, ok := pixelFormats[token[1:]]; ok {
				hdr.Format = pf
			}
		case tagFrameRate:
			if fr, ok := parseFrameRate(token[1:]); ok {
				hdr.FrameRate = fr
			}
		}
	}

	if hdr.Width == 0 {
		return nil, &FormatError{Token: string(tagWidth), Err: errMissing}
	}
	if hdr.Height == 0 {
		return nil, &FormatError{Token: string(tagHeight), Err: errMissing}
	}
	if hdr.Width > MaxPixels/hdr.Height {
		return nil, &FormatError{Token: wToken + " " + hToken, Err: errTooLarge}
	}
	return hdr, nil
}

func parseDimension(token string) (int, error) {
	v, err := strconv.Atoi(token[1:])
	if err != nil {
		return 0, &FormatError{Token: token, Err: err}
	}
	if v <= 0 {
		return 0, &FormatError{Token: token, Err: errNonPositive}
	}
	return v, nil
}

// parseFrameRate parses "num:den". Malformed values are reported as not ok.
func parseFrameRate(val string) (fr FrameRate, ok bool) {
	num, den, found := strings.Cut(val, ":")
	if !found {
		return fr, false
	}
	var err error
	if fr.Num, err = strconv.Atoi(num); err != nil || fr.Num <= 0 {
		return FrameRate{}, false
	}
	if fr.Den, err = strconv.Atoi(den); err != nil || fr.Den <= 0 {
		return FrameRate{}, false
	}
	return fr, true
}
