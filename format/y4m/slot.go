package y4m

import (
	"bytes"

	"github.com/ugparu/y4mstream"
)

const lineFeed = 0x0A

type slotState uint8

const (
	awaitingHeader slotState = iota // skipping the frame header line
	fillingBody                     // copying body bytes
)

// slot assembles one frame body across any number of push calls.
// The body buffer is allocated once and reused for every frame.
type slot struct {
	seq   int64
	state slotState
	body  []byte
	fill  int
}

func newSlot(size int) *slot {
	s := &slot{
		seq:   y4mstream.NoFrame,
		state: awaitingHeader,
		body:  make([]byte, size),
		fill:  0,
	}
	return s
}

// push consumes window starting at off and returns the offset of the first
// unconsumed byte. Frame header content is discarded without validation.
func (s *slot) push(window []byte, off int) int {
	if s.state == awaitingHeader {
		idx := bytes.IndexByte(window[off:], lineFeed)
		if idx < 0 {
			return len(window)
		}
		off += idx + 1
		s.state = fillingBody
	}

	n := copy(s.body[s.fill:], window[off:])
	s.fill += n
	return off + n
}

// clear prepares the slot for the frame with the given sequence number.
func (s *slot) clear(seq int64) {
	s.state = awaitingHeader
	s.fill = 0
	s.seq = seq
}

func (s *slot) full() bool {
	return s.fill == len(s.body)
}
