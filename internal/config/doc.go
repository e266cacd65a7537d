// Package config loads and saves the fisinject configuration file.
//
// The file is YAML and lives in the platform configuration directory:
//   - Linux: $XDG_CONFIG_HOME/fisinject/config.yaml or $HOME/.config/fisinject/config.yaml
//   - macOS: $HOME/.config/fisinject/config.yaml
//   - Windows: %LOCALAPPDATA%\fisinject\config.yaml
//
// A missing file is not an error: Load returns Default(). Fields missing
// from an existing file keep their default values, so a file only needs to
// carry what differs from a stock setup:
//
//	version: 1
//	bus:
//	  interface: slcan
//	  channel: /dev/ttyACM0
//	timing:
//	  ack_window: 80ms
//
// Command line flags override file values; see cmd/fisinject.
package config
