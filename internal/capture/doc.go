// Package capture reads candump logs and replays them through the traffic
// monitor.
//
// Two candump output styles are accepted:
//
//	(1700000000.123456) can0 490#A3          candump -l
//	(1700000000.123456)  can0  490   [1]  A3  candump -ta
//	  can0  490   [1]  A3                     candump
//
// Analyze follows the sequence numbers the way a live engine would and
// reassembles the payloads each peer sent, so a recording of the head unit
// and display controller can be read as claims, writes and releases.
package capture
