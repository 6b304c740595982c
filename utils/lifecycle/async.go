package lifecycle

import (
	"errors"
	"runtime/debug"
	"sync"

	"github.com/ugparu/y4mstream/utils/logger"
)

type asyncLifecycleManager[T AsyncInstance] struct {
	instance             T
	stopChan, doneChan   chan struct{}
	startOnce, closeOnce *sync.Once
	errMu                sync.Mutex
	err                  error
}

// NewAsyncManager returns a manager that calls instance.Step in a loop until it
// returns an error, panics, or the manager is closed.
func NewAsyncManager[T AsyncInstance](instance T) AsyncManager[T] {
	return &asyncLifecycleManager[T]{
		instance:  instance,
		stopChan:  make(chan struct{}),
		doneChan:  make(chan struct{}),
		startOnce: &sync.Once{},
		closeOnce: &sync.Once{},
		errMu:     sync.Mutex{},
		err:       nil,
	}
}

func (ssc *asyncLifecycleManager[T]) Start(startFunc func(T) error) (err error) {
	select {
	case <-ssc.stopChan:
		return &StartedAfterCloseError{}
	default:
		err = &StartedAlreadyError{}
	}
	ssc.startOnce.Do(func() {
		logger.Debugf(ssc.instance, "Starting async")
		if err = startFunc(ssc.instance); err != nil {
			ssc.setErr(err)
			close(ssc.doneChan)
			return
		}
		go ssc.process()
	})
	return err
}

func (ssc *asyncLifecycleManager[T]) process() {
	logger.Debug(ssc.instance, "Entering main loop")
	defer close(ssc.doneChan)

	for ssc.step() {
	}
	logger.Debug(ssc.instance, "Main loop finished")
}

func (ssc *asyncLifecycleManager[T]) step() (running bool) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf(ssc.instance, "Panic detected! Recovering from: %v", r)
			logger.Errorf(ssc.instance, "%s", debug.Stack())
			ssc.setErr(&PanicError{Value: r})
			running = false
		}
	}()

	err := ssc.instance.Step(ssc.stopChan)
	if err == nil {
		return true
	}
	if !errors.As(err, &errBreak) {
		logger.Warningf(ssc.instance, "Detected error: %s", err.Error())
		ssc.setErr(err)
	}
	return false
}

func (ssc *asyncLifecycleManager[T]) setErr(err error) {
	ssc.errMu.Lock()
	defer ssc.errMu.Unlock()
	ssc.err = err
}

func (ssc *asyncLifecycleManager[T]) Err() error {
	ssc.errMu.Lock()
	defer ssc.errMu.Unlock()
	return ssc.err
}

func (ssc *asyncLifecycleManager[T]) Close() {
	ssc.closeOnce.Do(func() {
		close(ssc.stopChan)
		ssc.startOnce.Do(func() {
			close(ssc.doneChan)
		})
		<-ssc.doneChan
		ssc.instance.Close_()
	})
}

func (ssc *asyncLifecycleManager[T]) Done() <-chan struct{} {
	return ssc.doneChan
}
