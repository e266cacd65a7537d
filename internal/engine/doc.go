// Package engine drives the display protocol on top of a can.Bus.
//
// The engine never learns its sequence number from configuration. It infers
// it from what the two peers put on the bus: acknowledgments from the
// display controller are authoritative, data frames from the host controller
// tell it which number comes next. Everything else is observed and ignored.
//
// Components, bottom up:
//
//   - Tracker holds the next sequence number.
//   - Monitor polls the bus for a bounded time, classifies frames, feeds the
//     tracker and records peer liveness.
//   - Sender segments a payload, transmits it on the host controller id and
//     waits for the display controller's acknowledgment of the final frame.
//   - Arbiter runs claim, write and release sessions for the Top and Middle
//     zones, including the release handshake.
//   - Engine owns all of the above as one value and serialises access.
//   - Runner keeps the bus drained between updates and executes queued
//     requests on a single goroutine.
//
// All public operations report success as a bool or a Result. Nothing is
// transmitted while no heartbeat has been seen from either peer.
package engine
