// Package lifecycle runs components with start-once, close-once semantics.
package lifecycle

import "fmt"

// Instance is a component managed by a Manager.
type Instance interface {
	Close_() //nolint: revive
	String() string
}

// AsyncInstance is a component whose work is driven by repeated Step calls
// on a background goroutine.
type AsyncInstance interface {
	Instance
	Step(stopChan <-chan struct{}) error
}

type Manager[T Instance] interface {
	Start(func(T) error) error
	Close()
}

// ServiceManager is a Manager for components serving on their own goroutines.
// Done is closed once the instance stops, either closed or failed.
type ServiceManager[T Instance] interface {
	Manager[T]
	Done() <-chan struct{}
	Err() error
	// Stopped reports that the instance stopped by itself. A non-nil err is
	// kept unless an earlier one was recorded.
	Stopped(err error)
}

type AsyncManager[T AsyncInstance] interface {
	Manager[T]
	Done() <-chan struct{}
	Err() error
}

// BreakError is returned by Step to leave the loop without reporting an error.
type BreakError struct{}

func (*BreakError) Error() string {
	return "break"
}

type StartedAlreadyError struct{}

func (*StartedAlreadyError) Error() string {
	return "started already"
}

type StartedAfterCloseError struct{}

func (*StartedAfterCloseError) Error() string {
	return "start after close"
}

// PanicError carries a value recovered from a panicking Step.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

var errBreak = &BreakError{}
