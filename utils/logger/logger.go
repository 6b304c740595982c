// Package logger is an asynchronous logrus front end. Every record is tagged with
// the component that produced it and written by a single background goroutine,
// so producers on hot paths never wait for the output.
package logger

import (
	"fmt"
	"io"
	"reflect"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

type stringer interface {
	String() string
}

type record struct {
	lvl logrus.Level
	obj string
	msg string
}

const (
	logSize    = 1000
	objColumns = 20
)

var (
	logCh     = make(chan record, logSize)
	drainOnce = &sync.Once{}
)

// Init sets the log level and the text formatter shared by all components.
func Init(lvl logrus.Level) {
	logrus.SetLevel(lvl)
	logrus.SetFormatter(&logrus.TextFormatter{
		ForceColors:     true,
		FullTimestamp:   true,
		PadLevelText:    true,
		TimestampFormat: "2006/01/02 15:04:05",
	})
	drainOnce.Do(startDrain)
}

// SetOutput redirects log output, mainly for tests and CLI tools.
func SetOutput(w io.Writer) {
	logrus.SetOutput(w)
}

// ParseLevel converts a level name such as "debug" into a logrus level.
func ParseLevel(name string) (logrus.Level, error) {
	lvl, err := logrus.ParseLevel(strings.TrimSpace(name))
	if err != nil {
		return logrus.InfoLevel, fmt.Errorf("invalid log level %q: %w", name, err)
	}
	return lvl, nil
}

// TraceEnabled reports whether trace records are emitted. Hot paths check it
// before building arguments.
func TraceEnabled() bool {
	return logrus.IsLevelEnabled(logrus.TraceLevel)
}

func startDrain() {
	go func() {
		for rec := range logCh {
			logrus.StandardLogger().Log(rec.lvl, format(rec.obj, rec.msg))
		}
	}()
}

func format(obj, msg string) string {
	if len(obj) > objColumns {
		obj = obj[:objColumns]
	}
	return fmt.Sprintf("|%20s|%-100s", obj, msg)
}

func objToString(obj any) string {
	switch v := obj.(type) {
	case nil:
		return "NIL"
	case stringer:
		return v.String()
	case string:
		return v
	default:
		return reflect.TypeOf(obj).Name()
	}
}

func send(lvl logrus.Level, object any, message string) {
	if !logrus.IsLevelEnabled(lvl) {
		return
	}
	drainOnce.Do(startDrain)
	logCh <- record{
		lvl: lvl,
		obj: objToString(object),
		msg: message,
	}
}

func sendf(lvl logrus.Level, object any, message string, args []any) {
	if !logrus.IsLevelEnabled(lvl) {
		return
	}
	send(lvl, object, fmt.Sprintf(message, args...))
}

func Trace(object any, message string) {
	send(logrus.TraceLevel, object, message)
}

func Tracef(object any, message string, args ...any) {
	sendf(logrus.TraceLevel, object, message, args)
}

func Debug(object any, message string) {
	send(logrus.DebugLevel, object, message)
}

func Debugf(object any, message string, args ...any) {
	sendf(logrus.DebugLevel, object, message, args)
}

func Info(object any, message string) {
	send(logrus.InfoLevel, object, message)
}

func Infof(object any, message string, args ...any) {
	sendf(logrus.InfoLevel, object, message, args)
}

func Warning(object any, message string) {
	send(logrus.WarnLevel, object, message)
}

func Warningf(object any, message string, args ...any) {
	sendf(logrus.WarnLevel, object, message, args)
}

func Error(object any, message string) {
	send(logrus.ErrorLevel, object, message)
}

func Errorf(object any, message string, args ...any) {
	sendf(logrus.ErrorLevel, object, message, args)
}

// Fatal logs synchronously and exits the process.
func Fatal(object any, message string) {
	logrus.Fatal(format(objToString(object), message))
}

// Fatalf logs synchronously and exits the process.
func Fatalf(object any, message string, args ...any) {
	logrus.Fatal(format(objToString(object), fmt.Sprintf(message, args...)))
}
