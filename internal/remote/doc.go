// Package remote exposes a running engine over HTTP.
//
// Routes:
//
//	GET  /status   engine snapshot as JSON
//	POST /updates  body is one command line, reply is the Result JSON
//	GET  /ws       websocket; each text message is a command line and
//	               each reply is the Result JSON
//	GET  /metrics  Prometheus exposition
//
// Submissions on /updates and /ws share a per client token bucket. A client
// over its rate gets 429 on HTTP and an error reply on the websocket.
//
// Status codes for /updates:
//
//	200  every step succeeded
//	400  the line has no Top or Middle tags
//	429  rate limited
//	502  a step failed on the bus
//	503  the bus is inactive or the runner has stopped
package remote
