package lifecycle

import (
	"sync"

	"github.com/ugparu/y4mstream/utils/logger"
)

type defaultLifecycleManager[T Instance] struct {
	instance             T
	startOnce, closeOnce *sync.Once
	doneOnce             *sync.Once
	closeChan, doneChan  chan struct{}
	errMu                sync.Mutex
	err                  error
}

// NewDefaultManager returns a manager for components that do their work in
// startFunc, possibly on their own goroutines, and release it in Close_.
func NewDefaultManager[T Instance](instance T) ServiceManager[T] {
	return &defaultLifecycleManager[T]{
		instance:  instance,
		closeChan: make(chan struct{}),
		doneChan:  make(chan struct{}),
		startOnce: &sync.Once{},
		closeOnce: &sync.Once{},
		doneOnce:  &sync.Once{},
		errMu:     sync.Mutex{},
		err:       nil,
	}
}

func (ssc *defaultLifecycleManager[T]) Start(startFunc func(T) error) (err error) {
	select {
	case <-ssc.closeChan:
		return &StartedAfterCloseError{}
	default:
		err = &StartedAlreadyError{}
	}
	ssc.startOnce.Do(func() {
		logger.Debug(ssc.instance, "Starting")
		if err = startFunc(ssc.instance); err != nil {
			ssc.Stopped(err)
		}
	})
	return err
}

func (ssc *defaultLifecycleManager[T]) Stopped(err error) {
	if err != nil {
		ssc.errMu.Lock()
		if ssc.err == nil {
			ssc.err = err
		}
		ssc.errMu.Unlock()
	}
	ssc.doneOnce.Do(func() {
		logger.Debug(ssc.instance, "Stopped")
		close(ssc.doneChan)
	})
}

func (ssc *defaultLifecycleManager[T]) Err() error {
	ssc.errMu.Lock()
	defer ssc.errMu.Unlock()
	return ssc.err
}

func (ssc *defaultLifecycleManager[T]) Done() <-chan struct{} {
	return ssc.doneChan
}

func (ssc *defaultLifecycleManager[T]) Close() {
	ssc.closeOnce.Do(func() {
		logger.Debug(ssc.instance, "Closing")
		close(ssc.closeChan)
		ssc.instance.Close_()
		ssc.Stopped(nil)
	})
}
