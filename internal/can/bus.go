package can

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// Bus is a raw CAN transport.
type Bus interface {
	// Send transmits one frame. It returns once the frame has been handed to
	// the driver.
	Send(frame Frame) error

	// Receive waits up to timeout for the next frame. A zero timeout polls
	// without waiting. ok is false when nothing arrived in time.
	Receive(timeout time.Duration) (frame Frame, ok bool, err error)

	// Close releases the transport. Further calls return ErrClosed.
	Close() error
}

// Config selects and parameterises a driver.
type Config struct {
	Interface string // registered driver name
	Channel   string // driver specific channel
	Bitrate   int    // bits per second
}

// OpenFunc opens a driver for the given configuration.
type OpenFunc func(cfg Config) (Bus, error)

var (
	driversMu sync.RWMutex
	drivers   = make(map[string]OpenFunc)
)

// Register makes a driver available to Open. It panics if the name is
// registered twice.
func Register(name string, open OpenFunc) {
	driversMu.Lock()
	defer driversMu.Unlock()
	if _, dup := drivers[name]; dup {
		panic("can: Register called twice for driver " + name)
	}
	drivers[name] = open
}

// Drivers returns the sorted names of the registered drivers.
func Drivers() []string {
	driversMu.RLock()
	defer driversMu.RUnlock()
	names := make([]string, 0, len(drivers))
	for name := range drivers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Open opens the driver named by cfg.Interface. Errors are always returned
// as *TransportError.
func Open(cfg Config) (Bus, error) {
	driversMu.RLock()
	open, ok := drivers[cfg.Interface]
	driversMu.RUnlock()
	if !ok {
		return nil, &TransportError{
			Op:        "open",
			Interface: cfg.Interface,
			Channel:   cfg.Channel,
			Err:       fmt.Errorf("unknown driver (available: %v)", Drivers()),
		}
	}

	bus, err := open(cfg)
	if err != nil {
		if IsTransportError(err) {
			return nil, err
		}
		return nil, &TransportError{Op: "open", Interface: cfg.Interface, Channel: cfg.Channel, Err: err}
	}
	return bus, nil
}
