package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/muurk/fisinject/internal/engine"
	"github.com/muurk/fisinject/internal/ui"
)

var showTraffic bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the interactive console",
	Long: `Open the CAN adapter and start the interactive console.

Keys:
  d      toggle the traffic view
  i      type a command, e.g. '01 Top 05 Header 09 .'
  enter  send the command
  esc    cancel typing
  q      quit

A command is a list of line tags followed by text. Line 01 is the Top
zone; lines 00 and 05 to 09 are the Middle zone. '.' clears a line.

When stdin is not a terminal, each input line is sent as a command.`,
	Example: `  # SocketCAN on can0 (default)
  fisinject run

  # Lawicel adapter on a serial port, traffic view on
  fisinject run --interface slcan --channel /dev/ttyACM0 --traffic

  # Scripted
  echo "01 HELLO 05 WORLD" | fisinject run`,
	RunE: runConsole,
}

func init() {
	runCmd.Flags().BoolVar(&showTraffic, "traffic", false, "Start with the traffic view on")
	rootCmd.AddCommand(runCmd)
}

func runConsole(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	header := ui.NewHeader("FIS Injector", "fisinject run", bannerParams())
	return interactive(ctx, header, openSession)
}

type sessionFactory func(observers []engine.Observer, onNoTraffic func()) (*session, error)

// interactive runs the console, or the line mode when stdin is not a
// terminal, on a session from open.
func interactive(ctx context.Context, header *ui.Header, open sessionFactory) error {
	if !ui.IsInteractive() {
		traffic := ui.NewTrafficPrinter(os.Stdout, showTraffic)
		sess, err := open([]engine.Observer{traffic}, func() {
			traffic.Println("!!! NO TRAFFIC RECEIVED !!!")
		})
		if err != nil {
			return err
		}
		defer sess.Close()

		s := &ui.PlainSession{Runner: sess.runner, Traffic: traffic}
		return s.Run(ctx, os.Stdin)
	}

	console := ui.NewConsole(ui.ConsoleConfig{
		Header:      header,
		ShowTraffic: showTraffic,
	})
	sess, err := open([]engine.Observer{console}, console.NoTraffic)
	if err != nil {
		return err
	}
	defer sess.Close()

	console.Attach(sess.runner, sess.engine)
	return console.Run(ctx)
}
