package app

import (
	"time"

	"lukechampine.com/frand"
)

// SetLatency configures an artificial delay applied to every inbound and
// outbound protocol message, plus a uniformly random jitter on top. Zero
// disables. Safe to adjust while connections are live.
func (rl *Relay) SetLatency(base, jitter time.Duration) {
	rl.latency.Store(int64(base))
	rl.jitter.Store(int64(jitter))
}

// Mute puts the relay in a "never responds" mode: connections stay open
// and inbound messages are still read and processed against the store, but
// nothing is ever written back. Used to probe client timeout handling.
func (rl *Relay) Mute() { rl.muted.Store(true) }

// Unmute restores normal responses.
func (rl *Relay) Unmute() { rl.muted.Store(false) }

// Muted reports whether the relay is muted.
func (rl *Relay) Muted() bool { return rl.muted.Load() }

// DropAll force-closes every live connection. The store is not touched;
// a client that reconnects sees exactly the data it saw before.
func (rl *Relay) DropAll() {
	rl.clients.Range(func(ws *WebSocket, _ struct{}) bool {
		ws.Close()
		return true
	})
}

// delay sleeps for the configured latency, if any.
func (rl *Relay) delay() {
	base := time.Duration(rl.latency.Load())
	jitter := time.Duration(rl.jitter.Load())
	if base <= 0 && jitter <= 0 {
		return
	}
	d := base
	if jitter > 0 {
		d += time.Duration(frand.Intn(int(jitter)))
	}
	time.Sleep(d)
}
