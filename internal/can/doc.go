// Package can defines the bus transport boundary used by the injector.
//
// A Bus sends and receives classical CAN frames (an 11-bit identifier plus up
// to 8 data bytes). Receive is always bounded by a caller supplied timeout so
// the protocol engine on top never blocks longer than it asked for.
//
// # Drivers
//
// Concrete transports live in sub-packages and register themselves by name:
//   - socketcan: Linux SocketCAN raw sockets (can0, vcan0, ...)
//   - slcan: Lawicel/SLCAN ASCII adapters on a serial port (/dev/ttyACM0, COM3)
//   - virtual: an in-process hub used by tests and the simulator
//
// Import a driver for its side effect and open it through Open:
//
//	import _ "github.com/muurk/fisinject/internal/can/slcan"
//
//	bus, err := can.Open(can.Config{Interface: "slcan", Channel: "/dev/ttyACM0", Bitrate: 500000})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer bus.Close()
//
// # Errors
//
// Failures at the transport boundary are reported as *TransportError, which
// carries the operation and the interface it happened on and unwraps to the
// driver's cause.
package can
