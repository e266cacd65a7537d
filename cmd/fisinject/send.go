package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/fisinject/internal/command"
	"github.com/muurk/fisinject/internal/engine"
	"github.com/muurk/fisinject/internal/ui"
)

var (
	sendWait time.Duration
	sendJSON bool
)

var sendCmd = &cobra.Command{
	Use:   "send <line...>",
	Short: "Send one display update and exit",
	Long: `Wait for the bus to become active, apply one display update and exit.

The arguments are joined with spaces and parsed like a console command.
The exit status is non-zero when the bus stays inactive or any claim,
write or release step fails.`,
	Example: `  fisinject send 01 NAV 05 TURN LEFT

  # Clear line 05, give the bus up to 10s to come alive
  fisinject send --wait 10s 05 .

  # Machine readable result
  fisinject send --json 09 HELLO`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSend,
}

func init() {
	sendCmd.Flags().DurationVar(&sendWait, "wait", 3*time.Second, "How long to wait for heartbeats")
	sendCmd.Flags().BoolVar(&sendJSON, "json", false, "Print the result as JSON")
	rootCmd.AddCommand(sendCmd)
}

func runSend(cmd *cobra.Command, args []string) error {
	input := strings.Join(args, " ")
	req, err := command.Parse(input)
	if err != nil {
		return err
	}

	sess, err := openSession(nil, nil)
	if err != nil {
		return err
	}
	defer sess.Close()

	if !sess.engine.WaitActive(sendWait) {
		return fmt.Errorf("%w: no heartbeat within %s", engine.ErrInactive, sendWait)
	}

	res, err := sess.runner.Submit(cmd.Context(), req)
	if err != nil {
		return err
	}

	if sendJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			return fmt.Errorf("failed to encode result: %w", err)
		}
	} else {
		ui.NewPrinter(os.Stdout).PrintResult(input, res)
	}

	if !res.OK() {
		return fmt.Errorf("update failed: %w", res.Err())
	}
	return nil
}
