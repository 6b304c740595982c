package y4mstream

// NoFrame is the sequence number reported before any frame has completed.
const NoFrame int64 = -1

// Frame is a consumer-owned copy of the latest completed frame body.
// Bytes are overwritten in place by the next successful read into the same Frame,
// so callers must copy them out or treat them as valid until that read.
type Frame struct {
	Seq   int64  // Sequence number of the frame, NoFrame if empty.
	Bytes []byte // Raw frame body.
}

// NewFrame returns an empty frame ready to be passed to FrameReader.ReadFrame.
func NewFrame() *Frame {
	return &Frame{Seq: NoFrame}
}

// Empty reports whether the frame has never been filled.
func (f *Frame) Empty() bool {
	return f.Seq == NoFrame
}

// Pusher defines the interface for incremental consumers of raw stream bytes.
type Pusher interface {
	Push(chunk []byte) (bool, error) // Feeds a chunk, reports whether a new frame completed.
}

// FrameReader defines the interface for sampling the latest completed frame.
type FrameReader interface {
	ReadFrame(dst *Frame) bool // Copies the latest frame into dst if it is newer.
	Seq() int64                // Returns the sequence number of the latest frame.
}

// Source defines the interface for processes feeding raw bytes into a Pusher.
type Source interface {
	Read()                 // Starts the reading process.
	Done() <-chan struct{} // Channel signaling completion.
	Err() error            // Returns the error that stopped reading, if any.
	Close()                // Stops reading and releases resources.
}
