// Package panics adapts the teacher's util/panics helper: a goroutine
// wrapper that turns a panicking worker into a logged, clean shutdown
// instead of a process crash with an unreadable stack dump.
package panics

import (
	"fmt"
	"os"
	"runtime/debug"
	"time"

	"github.com/blockbench/ledgerstat/logs"
)

// HandlePanic recovers a panic, logs it along with both stack traces, and
// exits the process. goroutineStackTrace may be nil when called from the
// main goroutine.
func HandlePanic(log *logs.Logger, goroutineStackTrace []byte) {
	err := recover()
	if err == nil {
		return
	}

	done := make(chan struct{})
	go func() {
		log.Criticalf("Fatal error: %+v", err)
		if goroutineStackTrace != nil {
			log.Criticalf("Goroutine stack trace: %s", goroutineStackTrace)
		}
		log.Criticalf("Stack trace: %s", debug.Stack())
		log.Backend().Close()
		close(done)
	}()

	const panicHandlerTimeout = 5 * time.Second
	select {
	case <-time.After(panicHandlerTimeout):
		fmt.Fprintln(os.Stderr, "couldn't handle a fatal error in time, exiting")
	case <-done:
	}
	os.Exit(1)
}

// GoroutineWrapperFunc returns a spawn function that runs f in a new
// goroutine with HandlePanic installed, capturing the caller's stack so a
// panic deep inside a worker still reports where it was spawned from.
func GoroutineWrapperFunc(log *logs.Logger) func(f func()) {
	return func(f func()) {
		goroutineStackTrace := debug.Stack()
		go func() {
			defer HandlePanic(log, goroutineStackTrace)
			f()
		}()
	}
}
