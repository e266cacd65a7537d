package can

import (
	"errors"
	"fmt"
)

// ErrClosed indicates the bus has been closed.
var ErrClosed = errors.New("can: bus closed")

// TransportError represents a failure at the bus transport boundary.
// Open failures are fatal at startup; send and receive failures mid-run are
// reported to the caller and the operation fails.
type TransportError struct {
	// Op is the failed operation: "open", "send" or "receive"
	Op string
	// Interface is the driver name (socketcan, slcan, virtual)
	Interface string
	// Channel is the driver specific channel (can0, /dev/ttyACM0, ...)
	Channel string
	// Underlying error
	Err error
}

func (e *TransportError) Error() string {
	if e.Channel != "" {
		return fmt.Sprintf("can %s failed on %s/%s: %v", e.Op, e.Interface, e.Channel, e.Err)
	}
	return fmt.Sprintf("can %s failed on %s: %v", e.Op, e.Interface, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Hint returns an operator facing suggestion for open failures.
func (e *TransportError) Hint() string {
	if e.Op != "open" {
		return ""
	}
	switch e.Interface {
	case "slcan":
		return "Make sure no other program (SavvyCAN, candump over slcand) holds the serial port."
	case "socketcan":
		return "Bring the interface up first, e.g. `ip link set " + e.Channel + " up type can bitrate 500000`."
	default:
		return ""
	}
}

// IsTransportError reports whether err is or wraps a *TransportError.
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
