// Copyright © 2018 The ELPS authors

package lisptest

import (
	"bytes"
	"io"
	"testing"

	"github.com/luthersystems/corelisp/lisp"
	"github.com/sirupsen/logrus"
)

// Logger is an io.Writer which logs each line written to it with t.Log.
type Logger struct {
	t   testing.TB
	buf []byte
}

var _ io.Writer = (*Logger)(nil)

func NewLogger(t testing.TB) *Logger {
	return &Logger{
		t: t,
	}
}

func (log *Logger) Write(b []byte) (int, error) {
	log.buf = append(log.buf, b...)
	for {
		i := bytes.IndexByte(log.buf, '\n')
		if i < 0 {
			return len(b), nil
		}
		log.t.Log(string(log.buf[:i])) // slice does not include \n
		log.buf = log.buf[i+1:]
	}
}

func (log *Logger) Flush() {
	if len(log.buf) == 0 {
		return
	}
	log.t.Log(string(log.buf))
	log.buf = nil
}

// NewRuntime returns a runtime whose diagnostics, logged at debug level, go
// to the test log.  Additional configuration is applied after the logger is
// installed.
func NewRuntime(t testing.TB, config ...lisp.Config) *lisp.Runtime {
	t.Helper()
	w := NewLogger(t)
	t.Cleanup(w.Flush)
	logger := logrus.New()
	logger.SetOutput(w)
	logger.SetLevel(logrus.DebugLevel)
	logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	config = append([]lisp.Config{lisp.WithLogger(logger), lisp.WithStderr(w)}, config...)
	rt, err := lisp.NewRuntime(config...)
	if err != nil {
		t.Fatalf("failed to create runtime: %v", err)
	}
	return rt
}
