// Package screenshoter encodes the latest frame of a stream as a JPEG image.
package screenshoter

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"sync"

	"github.com/ugparu/y4mstream"
	"github.com/ugparu/y4mstream/format/y4m"
	"github.com/ugparu/y4mstream/frame/yuv"
	"github.com/ugparu/y4mstream/utils/logger"
	"golang.org/x/image/draw"
)

// ErrNoFrame is returned while the stream has not completed any frame.
var ErrNoFrame = errors.New("no frame available")

// FrameStore is the part of a y4m.Reader used for screenshots.
type FrameStore interface {
	y4mstream.FrameReader
	Header() *y4m.Header
}

// Screenshoter is the interface for capturing screenshots of a stream.
type Screenshoter interface {
	Screenshot() (seq int64, jpg []byte, err error)
}

// New creates a screenshoter scaling frames to fit width x height. A zero
// dimension is derived from the other one keeping the aspect ratio, both zero
// keep the source size.
func New(store FrameStore, width, height, quality int) Screenshoter {
	return &jpegScreenshoter{
		store:   store,
		width:   width,
		height:  height,
		quality: quality,
		frame:   y4mstream.NewFrame(),
		jpg:     nil,
		encoded: y4mstream.NoFrame,
		mu:      sync.Mutex{},
	}
}

type jpegScreenshoter struct {
	store         FrameStore
	width, height int
	quality       int
	frame         *y4mstream.Frame
	jpg           []byte
	encoded       int64
	mu            sync.Mutex
}

// Screenshot returns the JPEG encoding of the latest frame. The result is cached
// until a newer frame completes.
func (s *jpegScreenshoter) Screenshot() (int64, []byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	hdr := s.store.Header()
	s.store.ReadFrame(s.frame)
	if hdr == nil || s.frame.Empty() {
		return y4mstream.NoFrame, nil, ErrNoFrame
	}
	if s.frame.Seq == s.encoded {
		return s.encoded, s.jpg, nil
	}

	src, err := yuv.Image(hdr.Width, hdr.Height, s.frame.Bytes)
	if err != nil {
		return y4mstream.NoFrame, nil, fmt.Errorf("frame %d: %w", s.frame.Seq, err)
	}

	var img image.Image = src
	if w, h := TargetSize(hdr.Width, hdr.Height, s.width, s.height); w != hdr.Width || h != hdr.Height {
		dst := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.ApproxBiLinear.Scale(dst, dst.Rect, src, src.Bounds(), draw.Src, nil)
		img = dst
	}

	buf := new(bytes.Buffer)
	if err = jpeg.Encode(buf, img, &jpeg.Options{Quality: s.quality}); err != nil {
		return y4mstream.NoFrame, nil, fmt.Errorf("frame %d: %w", s.frame.Seq, err)
	}

	s.jpg, s.encoded = buf.Bytes(), s.frame.Seq
	logger.Debugf(s, "Frame %d encoded, %d bytes", s.encoded, len(s.jpg))
	return s.encoded, s.jpg, nil
}

// String returns a string representation of the screenshoter.
func (*jpegScreenshoter) String() string {
	return "SCREENSHOTER"
}

// TargetSize fits srcW x srcH into width x height. Zero dimensions are derived
// from the source aspect ratio.
func TargetSize(srcW, srcH, width, height int) (int, int) {
	switch {
	case width <= 0 && height <= 0:
		return srcW, srcH
	case height <= 0:
		return width, max(1, srcH*width/srcW)
	case width <= 0:
		return max(1, srcW*height/srcH), height
	default:
		return width, height
	}
}
