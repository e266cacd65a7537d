// Fisinject drives the text zones of a CAN-connected instrument cluster
// display by joining the conversation between the head unit and the
// display controller.
//
// It follows the sequence numbers of the host controller, claims a display
// zone, writes text and releases the zone again, so the head unit keeps
// working normally around the injected updates.
//
// Usage:
//
//	fisinject [command] [flags]
//
// Running without arguments starts the interactive console ('run').
// See 'fisinject --help' for available commands.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/muurk/fisinject/internal/can"
	_ "github.com/muurk/fisinject/internal/can/slcan"
	_ "github.com/muurk/fisinject/internal/can/socketcan"
	_ "github.com/muurk/fisinject/internal/can/virtual"
	"github.com/muurk/fisinject/internal/config"
	"github.com/muurk/fisinject/internal/logging"
	"github.com/muurk/fisinject/internal/ui"
	"github.com/muurk/fisinject/internal/version"
)

func main() {
	err := rootCmd.Execute()
	logging.Sync()
	if err != nil {
		reportError(err)
		os.Exit(1)
	}
}

// reportError prints err, with troubleshooting tips for adapter failures.
func reportError(err error) {
	var te *can.TransportError
	if errors.As(err, &te) && te.Op == "open" {
		tips := []string{}
		if hint := te.Hint(); hint != "" {
			tips = append(tips, hint)
		}
		tips = append(tips,
			"Only one program can hold a USB adapter: close PCAN-View or SavvyCAN first.",
			"'fisinject simulate' runs against a simulated cluster without hardware.",
		)
		ui.NewPrinter(os.Stderr).PrintFailure("Could not open the CAN adapter", err, tips)
		return
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
}

// skipConfig marks commands that must not load the configuration file.
const skipConfig = "skip-config"

// Global flags
var (
	configPath   string
	logLevel     string
	logFile      string
	busInterface string
	busChannel   string
	busBitrate   int
)

// cfg is the effective configuration: file, then flags.
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "fisinject",
	Short: "Instrument cluster display injector",
	Long: `Inject text into the Top and Middle zones of an instrument cluster display
over CAN.

fisinject listens to the head unit and display controller, keeps its
sequence numbers in step with theirs and claims, writes and releases
display zones on demand.

If no command is specified, the interactive console starts.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Annotations[skipConfig] == "true" {
			return logging.Initialize(logLevel)
		}
		return setup(cmd)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// Default behavior: interactive console
		return runConsole(cmd, args)
	},
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default is the user config dir)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); silent when unset")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Write logs to this file instead of stderr")
	rootCmd.PersistentFlags().StringVar(&busInterface, "interface", "", fmt.Sprintf("CAN driver (%v)", can.Drivers()))
	rootCmd.PersistentFlags().StringVar(&busChannel, "channel", "", "Driver channel, e.g. can0 or /dev/ttyACM0")
	rootCmd.PersistentFlags().IntVar(&busBitrate, "bitrate", 0, "CAN bitrate in bits per second")

	rootCmd.AddCommand(versionCmd)
}

// setup loads the configuration, applies flag overrides and starts logging.
func setup(cmd *cobra.Command) error {
	loaded, err := config.Load(configPath)
	if err != nil {
		return err
	}

	applyBusFlags(cmd, loaded)
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		loaded.Log.Level = logLevel
	}
	if flags.Changed("log-file") {
		loaded.Log.File = logFile
	}
	if err := loaded.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	output := loaded.Log.File
	if output == "" {
		output = "stderr"
	}
	if err := logging.InitializeWithOutput(loaded.Log.Level, output); err != nil {
		return err
	}

	cfg = loaded
	return nil
}

// applyBusFlags overrides the bus settings of c with the flags the user set.
func applyBusFlags(cmd *cobra.Command, c *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("interface") {
		c.Bus.Interface = busInterface
	}
	if flags.Changed("channel") {
		c.Bus.Channel = busChannel
	}
	if flags.Changed("bitrate") {
		c.Bus.Bitrate = busBitrate
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Annotations: map[string]string{
		skipConfig: "true",
	},
	Run: func(cmd *cobra.Command, args []string) {
		info := version.Get()
		fmt.Printf("fisinject %s (commit: %s)\n", info.Version, info.Commit)
		fmt.Printf("  %s %s\n", info.GoVersion, info.Platform)
	},
}
