package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/fisinject/internal/can/virtual"
	"github.com/muurk/fisinject/internal/command"
	"github.com/muurk/fisinject/internal/engine"
	"github.com/muurk/fisinject/internal/sim"
	"github.com/muurk/fisinject/internal/ui"
)

var (
	simHeartbeat     time.Duration
	simDropAcks      int
	simSilentRelease bool
)

var simulateCmd = &cobra.Command{
	Use:   "simulate [line...]",
	Short: "Run against a simulated cluster",
	Long: `Run the engine on an in-process bus against a simulated head unit and
display controller. No hardware is needed.

With arguments, the line is applied once and the simulated display is
printed. Without arguments, the interactive console starts.`,
	Example: `  fisinject simulate 01 NAV 05 TURN LEFT

  # Display controller that never answers releases
  fisinject simulate --silent-release 05 TEST

  fisinject simulate --traffic`,
	RunE: runSimulate,
}

func init() {
	simulateCmd.Flags().DurationVar(&simHeartbeat, "heartbeat", 100*time.Millisecond, "Simulated heartbeat period")
	simulateCmd.Flags().IntVar(&simDropAcks, "drop-acks", 0, "Number of data frames the display leaves unacknowledged")
	simulateCmd.Flags().BoolVar(&simSilentRelease, "silent-release", false, "Display controller does not answer releases")
	simulateCmd.Flags().BoolVar(&showTraffic, "traffic", false, "Start with the traffic view on")
	rootCmd.AddCommand(simulateCmd)
}

// simulation is a cluster running on a private hub.
type simulation struct {
	cluster *sim.Cluster
	engine  *virtual.Port
	cancel  context.CancelFunc
	done    chan struct{}
}

func startSimulation() *simulation {
	hub := virtual.NewHub()
	local := hub.Attach("engine")
	peer := hub.Attach("cluster")

	cluster := sim.New(peer, sim.Options{
		HostID:            cfg.IDs.Host,
		DisplayID:         cfg.IDs.Display,
		HeartbeatInterval: simHeartbeat,
		DropAcks:          simDropAcks,
		SilentRelease:     simSilentRelease,
	})

	ctx, cancel := context.WithCancel(context.Background())
	s := &simulation{cluster: cluster, engine: local, cancel: cancel, done: make(chan struct{})}
	go func() {
		defer close(s.done)
		_ = cluster.Run(ctx)
		_ = peer.Close()
	}()
	return s
}

func (s *simulation) Stop() {
	s.cancel()
	<-s.done
}

func runSimulate(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	simu := startSimulation()
	defer simu.Stop()

	open := func(observers []engine.Observer, onNoTraffic func()) (*session, error) {
		return startSession(simu.engine, observers, onNoTraffic)
	}

	if len(args) == 0 {
		params := bannerParams()
		params["Bus"] = "simulated"
		header := ui.NewHeader("FIS Injector", "fisinject simulate", params)
		err := interactive(ctx, header, open)
		fmt.Print(renderDisplay(simu.cluster))
		return err
	}

	input := strings.Join(args, " ")
	req, err := command.Parse(input)
	if err != nil {
		return err
	}

	var observers []engine.Observer
	if showTraffic {
		observers = append(observers, ui.NewTrafficPrinter(os.Stdout, true))
	}
	sess, err := open(observers, nil)
	if err != nil {
		return err
	}
	defer sess.Close()

	if !sess.engine.WaitActive(10 * simHeartbeat) {
		return fmt.Errorf("%w: simulated cluster sent no heartbeat", engine.ErrInactive)
	}
	res, err := sess.runner.Submit(ctx, req)
	if err != nil {
		return err
	}

	ui.NewPrinter(os.Stdout).PrintResult(input, res)
	fmt.Print(renderDisplay(simu.cluster))
	if !res.OK() {
		return fmt.Errorf("update failed: %w", res.Err())
	}
	return nil
}

func renderDisplay(c *sim.Cluster) string {
	var b strings.Builder
	b.WriteString("\nSimulated display:\n")
	rendered := c.Render()
	if rendered == "" {
		b.WriteString("  (blank)\n")
		return b.String()
	}
	for _, line := range strings.Split(strings.TrimRight(rendered, "\n"), "\n") {
		b.WriteString("  " + line + "\n")
	}
	return b.String()
}
