package stream

import "fmt"

// Outcome is the single typed result of a pipeline run: either clean
// completion or the failure that stopped it.
type Outcome struct {
	Err error
}

// Ok reports clean completion.
func (o Outcome) Ok() bool { return o.Err == nil }

// Run executes body under a failure-safe boundary.  Every registered
// cleanup runs exactly once, in reverse registration order, on every
// exit path: normal return, error, or panic.  A panic inside body is
// converted into the Outcome's error instead of unwinding further, so
// Run is safe to use as the outermost frame of a spawned connection
// goroutine.
func Run(body func() error, cleanups ...func()) (out Outcome) {
	defer func() {
		if p := recover(); p != nil {
			out = Outcome{Err: fmt.Errorf("pipeline panic: %v", p)}
		}
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}()
	return Outcome{Err: body()}
}
