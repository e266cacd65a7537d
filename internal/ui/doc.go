// Package ui renders the operator facing terminal output of fisinject.
//
// The interactive console is a Bubble Tea program. It keeps the key layout
// of the classic injector console:
//
//	d      toggle the traffic view
//	i      enter command mode
//	enter  send the typed line and leave command mode
//	esc    leave command mode without sending
//	q      quit
//
// Traffic lines look like
//
//	HOST->DISP 0x490: 20 E0 07 05 00 48 45 | DATA BODY (Seq 0)    [SEQ->1]
//	INJECTED 0x490: B4 | ACK (Seq 4) >>>
//
// Traffic is hidden while typing and always shown while an update is being
// sent. When stdin is not a terminal, PlainSession offers the same commands
// one per line.
//
// Logging is silent unless a level is configured, so zap output does not
// tear the console.
package ui
