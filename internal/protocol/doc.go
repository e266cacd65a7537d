// Package protocol implements the display link protocol spoken between the
// host controller (infotainment unit) and the display controller (instrument
// cluster) on the CAN bus.
//
// This package handles decoding, segmentation, reassembly and construction of
// protocol frames. It is stateless: the sequence counter that feeds Encode is
// owned by the engine package.
//
// # Frame Header
//
// Every frame starts with one header byte that multiplexes the frame role and
// a 4-bit sequence number, so a CAN frame carries at most 7 payload bytes:
//
//	0xA3          heartbeat ping (whole byte)
//	0xA1 0x0F     heartbeat response (two byte prefix)
//	0x10 | seq    data, final frame of a payload
//	0x20 | seq    data, continuation frame
//	0xB0 | seq    acknowledgment for seq
//
// Any other high nibble decodes as TypeUnknown and has no effect on state.
//
// # Segmentation
//
// Encode splits a payload into chunks of up to 7 bytes. Every chunk except the
// last is a continuation frame; the sequence increments modulo 16 per chunk:
//
//	frames := protocol.Encode(payload, 3)
//	// 10 bytes -> [0x23 b0..b6] [0x14 b7 b8 b9]
//
// Only the final frame of a payload is acknowledged by the receiver.
//
// # Application Opcodes
//
//	0x36 0x01 zone                 claim a display zone
//	0x32 0x01 zone                 release a display zone
//	0xE0 len line 0x00 chars...    write text to a line (len = 2 + len(chars))
//
// Zones are 0x01 (Top) and 0x02 (Middle).
//
// # Thread Safety
//
// All functions are stateless and safe for concurrent use. Reassembler is not.
package protocol
