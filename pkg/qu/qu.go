// Package qu provides the empty-struct signalling channel used for quit
// and trigger plumbing.
package qu

// C is your basic empty struct signalling channel.
type C chan struct{}

// T creates an unbuffered chan struct{} for trigger and quit signalling
// (momentary and breaker switches).
func T() C { return make(C) }

// Ts creates a buffered chan struct{} for signalling without blocking.
func Ts(n int) C { return make(C, n) }

// Q closes the channel, which makes it emit a nil every time it is
// selected. Closing twice is safe.
func (c C) Q() {
	defer func() { _ = recover() }()
	close(c)
}

// Signal sends struct{}{} on the channel, a momentary switch. Sending on
// a closed channel is swallowed.
func (c C) Signal() {
	defer func() { _ = recover() }()
	c <- struct{}{}
}

// Wait should be placed with a `<-` in a select case in addition to the
// channel variable name.
func (c C) Wait() <-chan struct{} { return c }

// IsClosed reports whether Q has run. A channel carrying unreceived
// Signal payloads reads as open.
func (c C) IsClosed() bool {
	select {
	case _, ok := <-c:
		return !ok
	default:
	}
	return false
}
