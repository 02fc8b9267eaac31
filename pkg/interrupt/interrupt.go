// Package interrupt runs registered cleanup callbacks when the process
// receives an interrupt signal or an in-process shutdown request.
package interrupt

import (
	"os"
	"os/signal"
	"sync"

	"github.com/gitnostr/simulatr/pkg/log"
	"github.com/gitnostr/simulatr/pkg/qu"
)

var slog, _ = log.New()

var (
	mx        sync.Mutex
	callbacks []func()
	started   bool

	// ShutdownRequestChan triggers the handlers without an OS signal.
	ShutdownRequestChan = qu.Ts(1)

	// HandlersDone closes after all callbacks have run.
	HandlersDone = qu.T()
)

// AddHandler registers a callback to run on interrupt. Callbacks run in
// LIFO order. The listener starts on first registration.
func AddHandler(fn func()) {
	mx.Lock()
	callbacks = append(callbacks, fn)
	if !started {
		started = true
		go listen()
	}
	mx.Unlock()
}

// Request triggers the handlers as if an interrupt had been received.
func Request() { ShutdownRequestChan.Signal() }

func listen() {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt)
	select {
	case sig := <-ch:
		slog.D.Ln("received signal", sig)
	case <-ShutdownRequestChan.Wait():
		slog.D.Ln("received shutdown request")
	}
	mx.Lock()
	cbs := make([]func(), len(callbacks))
	copy(cbs, callbacks)
	mx.Unlock()
	for i := len(cbs) - 1; i >= 0; i-- {
		cbs[i]()
	}
	HandlersDone.Q()
}
