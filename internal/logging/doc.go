// Package logging provides structured logging for the injector.
//
// This package wraps a zap logger with convenience functions for the logging
// patterns used across the tool: general leveled logging plus helpers for
// CAN frames and raw byte dumps.
//
// # Log Levels
//
//   - Debug: Detailed traffic (every classified frame, sequence sync notes)
//   - Info: Normal operations (bus opened, transactions, zone sessions)
//   - Warn: Recoverable issues (missing acks, exhausted release retries, no traffic)
//   - Error: Transport failures and startup errors
//
// # Structured Logging
//
//	logging.Info("Zone claimed",
//	    zap.String("zone", "top"),
//	    zap.Uint8("seq", 5),
//	)
//
// # Frame Logging
//
//	logging.LogFrame("rx", frame, "ACK (Seq 5)")
//	logging.LogFrame("tx", frame, "DATA END (Seq 4)")
//
// # Configuration
//
// Logging is silent unless a level is given explicitly or through the
// FISINJECT_LOG_LEVEL environment variable:
//
//	if err := logging.Initialize("debug"); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Sync()
//
// The interactive console owns the terminal, so it logs to a file instead:
//
//	logging.InitializeWithOutput("info", "/tmp/fisinject.log")
//
// # Thread Safety
//
// All logging functions are safe for concurrent use.
package logging
