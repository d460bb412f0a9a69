// Package async guards background goroutines, such as the HTTP listener,
// against panics taking the engine down.
package async

import "runtime/debug"

// PanicLogger receives panic reports from guarded goroutines.
type PanicLogger interface {
	Error(format string, args ...any)
}

// Go runs fn in a goroutine and logs any panic instead of crashing.
func Go(logger PanicLogger, name string, fn func()) {
	go func() {
		defer Recover(logger, name)
		fn()
	}()
}

// Recover logs the panic and stack under the goroutine's name. Usable as a
// bare deferred call in goroutines not started through Go.
func Recover(logger PanicLogger, name string) {
	r := recover()
	if r == nil || logger == nil {
		return
	}
	if name == "" {
		logger.Error("goroutine panic: %v, stack: %s", r, debug.Stack())
		return
	}
	logger.Error("goroutine panic [%s]: %v, stack: %s", name, r, debug.Stack())
}
