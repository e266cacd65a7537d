//go:build deadlock

// Package syncutil provides the mutex types used for engine and bus state.
// Building with -tags=deadlock swaps them for go-deadlock's detecting
// implementations, which report lock cycles and long waits on stderr.
package syncutil

import (
	"time"

	deadlock "github.com/sasha-s/go-deadlock"
)

// DeadlockDetection reports whether the detecting mutexes are compiled in.
const DeadlockDetection = true

// A transaction holds the engine lock for at most a few seconds (three
// release attempts plus the handshake wait), so anything past this is stuck.
func init() {
	deadlock.Opts.DeadlockTimeout = 10 * time.Second
}

// Mutex is a mutual exclusion lock.
type Mutex struct {
	deadlock.Mutex
}

// RWMutex is a reader/writer mutual exclusion lock.
type RWMutex struct {
	deadlock.RWMutex
}
