//go:build !deadlock

// Package syncutil provides the mutex types used for engine and bus state.
// Building with -tags=deadlock swaps them for go-deadlock's detecting
// implementations, which report lock cycles and long waits on stderr.
package syncutil

import "sync"

// DeadlockDetection reports whether the detecting mutexes are compiled in.
const DeadlockDetection = false

// Mutex is a mutual exclusion lock.
type Mutex struct {
	sync.Mutex
}

// RWMutex is a reader/writer mutual exclusion lock.
type RWMutex struct {
	sync.RWMutex
}
