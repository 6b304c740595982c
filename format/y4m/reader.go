package y4m

import (
	"bytes"
	"sync"
	"sync/atomic"

	"github.com/ugparu/y4mstream"
	"github.com/ugparu/y4mstream/utils/logger"
)

// DefaultMaxHeaderLen bounds the stream header line accumulated before parsing.
const DefaultMaxHeaderLen = 4096

// Reader is a double-buffered YUV4MPEG2 frame store.
//
// A single producer calls Push. Any number of consumers call ReadFrame, Frame or
// Seq concurrently with it.
type Reader struct {
	name         string
	maxHeaderLen int
	header       atomic.Pointer[Header]
	pending      []byte // stream header bytes received so far
	err          error  // sticky fatal error

	// slots is a two-element arena; slots[write] is being filled and
	// slots[write^1] holds the latest completed frame.
	slots [2]*slot

	mu    sync.Mutex // guards write and seq
	write int
	seq   int64

	frame y4mstream.Frame
}

// New creates a reader. maxHeaderLen limits the stream header line length,
// a value <= 0 disables the limit.
func New(maxHeaderLen int) *Reader {
	return &Reader{
		name:         "Y4M",
		maxHeaderLen: maxHeaderLen,
		header:       atomic.Pointer[Header]{},
		pending:      nil,
		err:          nil,
		slots:        [2]*slot{},
		mu:           sync.Mutex{},
		write:        0,
		seq:          y4mstream.NoFrame,
		frame:        y4mstream.Frame{Seq: y4mstream.NoFrame, Bytes: nil},
	}
}

// Push feeds the next chunk of the stream and reports whether at least one
// frame completed. Once an error is returned every later call returns it too.
func (r *Reader) Push(chunk []byte) (bool, error) {
	if r.err != nil {
		return false, r.err
	}
	if r.slots[0] == nil {
		return r.pushHeader(chunk)
	}
	return r.pushBody(chunk), nil
}

func (r *Reader) pushHeader(chunk []byte) (bool, error) {
	start := len(r.pending)
	r.pending = append(r.pending, chunk...)

	idx := bytes.IndexByte(r.pending[start:], lineFeed)
	if idx >= 0 {
		idx += start
	}

	if r.maxHeaderLen > 0 && (idx > r.maxHeaderLen || (idx < 0 && len(r.pending) > r.maxHeaderLen)) {
		return false, r.fail(&HeaderTooLongError{Limit: r.maxHeaderLen})
	}
	if idx < 0 {
		return false, nil
	}

	hdr, err := ParseHeader(string(r.pending[:idx]))
	if err != nil {
		return false, r.fail(err)
	}

	size := hdr.BodyLen()
	r.slots[0], r.slots[1] = newSlot(size), newSlot(size)
	r.slots[r.write].clear(0)
	r.header.Store(hdr)
	logger.Infof(r, "Stream header parsed: %s, %d bytes per frame", hdr.String(), size)

	rest := r.pending[idx+1:]
	r.pending = nil
	return r.pushBody(rest), nil
}

func (r *Reader) fail(err error) error {
	logger.Errorf(r, "Stream rejected: %s", err.Error())
	r.err = err
	r.pending = nil
	return err
}

func (r *Reader) pushBody(chunk []byte) (completed bool) {
	for off := 0; off < len(chunk); {
		cur := r.slots[r.write]
		off = cur.push(chunk, off)
		if cur.full() {
			r.swap()
			completed = true
		}
	}
	return completed
}

// swap publishes the write slot and recycles the previous read slot.
// Only the producer modifies write, so it may read it without locking.
func (r *Reader) swap() {
	r.mu.Lock()
	r.write ^= 1
	r.seq = r.slots[r.write^1].seq
	seq := r.seq
	r.mu.Unlock()

	r.slots[r.write].clear(seq + 1)
	if logger.TraceEnabled() {
		logger.Tracef(r, "Frame %d completed", seq)
	}
}

// ReadFrame copies the latest completed frame into dst when dst does not
// already hold it, and reports whether a copy took place. dst.Bytes is
// allocated on first use and reused afterwards.
func (r *Reader) ReadFrame(dst *y4mstream.Frame) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.seq == y4mstream.NoFrame || dst.Seq == r.seq && dst.Bytes != nil {
		return false
	}

	src := r.slots[r.write^1].body
	if len(dst.Bytes) != len(src) {
		dst.Bytes = make([]byte, len(src))
	}
	copy(dst.Bytes, src)
	dst.Seq = r.seq
	return true
}

// Frame returns the reader-owned snapshot refreshed with the latest completed
// frame. It is empty until the first frame completes.
//
// Frame is for a single consumer: the snapshot is shared by every caller and
// read outside the lock, so a concurrent call may overwrite it while it is in
// use. Concurrent consumers use ReadFrame with their own y4mstream.Frame.
func (r *Reader) Frame() *y4mstream.Frame {
	r.ReadFrame(&r.frame)
	return &r.frame
}

// Seq returns the sequence number of the latest completed frame.
func (r *Reader) Seq() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.seq
}

// Header returns the parsed stream header, or nil if it has not arrived yet.
func (r *Reader) Header() *Header {
	return r.header.Load()
}

// String returns a string representation of the reader.
func (r *Reader) String() string {
	return r.name
}
