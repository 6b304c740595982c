// Package reader pumps raw YUV4MPEG2 bytes from a producer, such as a pipe,
// socket or transcoder process, into a frame store.
package reader

import (
	"errors"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/ugparu/y4mstream"
	"github.com/ugparu/y4mstream/utils/lifecycle"
	"github.com/ugparu/y4mstream/utils/logger"
)

// DefaultChunkSize is the read size used when none is given.
const DefaultChunkSize = 64 * 1024

// reader is an internal structure implementing the y4mstream.Source interface.
type reader struct {
	lifecycle.AsyncManager[*reader]
	src     io.ReadCloser
	dst     y4mstream.Pusher
	buf     []byte
	name    string
	closing atomic.Bool
	bytes   atomic.Uint64
	frames  atomic.Uint64
}

// New creates a source reading src in chunks of chunkSize bytes and pushing
// them into dst. Reading stops at EOF, on a read error, or on the first error
// returned by dst.
func New(name string, src io.ReadCloser, dst y4mstream.Pusher, chunkSize int) y4mstream.Source {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	rdr := &reader{
		AsyncManager: nil,
		src:          src,
		dst:          dst,
		buf:          make([]byte, chunkSize),
		name:         "READER " + name,
		closing:      atomic.Bool{},
		bytes:        atomic.Uint64{},
		frames:       atomic.Uint64{},
	}
	rdr.AsyncManager = lifecycle.NewAsyncManager(rdr)
	return rdr
}

// Read starts pumping in the background.
func (rdr *reader) Read() {
	startFunc := func(*reader) error {
		logger.Infof(rdr, "Reading with %d byte chunks", len(rdr.buf))
		return nil
	}
	_ = rdr.Start(startFunc)
}

// Step reads one chunk and pushes it downstream.
func (rdr *reader) Step(stopCh <-chan struct{}) error {
	select {
	case <-stopCh:
		return &lifecycle.BreakError{}
	default:
	}

	n, err := rdr.src.Read(rdr.buf)
	if n > 0 {
		rdr.bytes.Add(uint64(n))
		completed, pushErr := rdr.dst.Push(rdr.buf[:n])
		if pushErr != nil {
			return fmt.Errorf("push: %w", pushErr)
		}
		if completed {
			rdr.frames.Add(1)
		}
	}

	switch {
	case err == nil:
		return nil
	case errors.Is(err, io.EOF):
		logger.Infof(rdr, "End of stream after %d bytes", rdr.bytes.Load())
		return &lifecycle.BreakError{}
	case rdr.closing.Load():
		return &lifecycle.BreakError{}
	default:
		return fmt.Errorf("read: %w", err)
	}
}

// Close unblocks a pending read and stops the pump.
func (rdr *reader) Close() {
	if rdr.closing.CompareAndSwap(false, true) {
		if err := rdr.src.Close(); err != nil {
			logger.Warningf(rdr, "Failed to close source: %s", err.Error())
		}
	}
	rdr.AsyncManager.Close()
}

// Close_ is called once the pump goroutine has exited.
func (rdr *reader) Close_() { //nolint: revive
	logger.Infof(rdr, "Closed after %d bytes, %d pushes completing frames", rdr.bytes.Load(), rdr.frames.Load())
}

// String returns a string representation of the reader.
func (rdr *reader) String() string {
	return rdr.name
}
