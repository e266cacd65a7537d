package main

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/muurk/fisinject/internal/discovery"
	"github.com/muurk/fisinject/internal/engine"
	"github.com/muurk/fisinject/internal/logging"
	"github.com/muurk/fisinject/internal/metrics"
	"github.com/muurk/fisinject/internal/remote"
	"github.com/muurk/fisinject/internal/version"
)

var (
	serveAddr     string
	serveNoMDNS   bool
	serveInstance string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run headless with the remote control server",
	Long: `Open the CAN adapter and accept display updates over HTTP.

Routes:
  GET  /status   engine state as JSON
  POST /updates  body is one command line, reply is the result JSON
  GET  /ws       websocket, one command line per message
  GET  /metrics  Prometheus metrics

The service is advertised over mDNS as _fisinject._tcp unless disabled.`,
	Example: `  fisinject serve
  fisinject serve --addr 127.0.0.1:9000 --no-mdns

  curl -X POST --data '01 HELLO 05 WORLD' http://localhost:8480/updates`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config, :8480)")
	serveCmd.Flags().BoolVar(&serveNoMDNS, "no-mdns", false, "Do not advertise over mDNS")
	serveCmd.Flags().StringVar(&serveInstance, "name", "", "mDNS instance name (default hostname)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	collector := metrics.New()
	sess, err := openSession([]engine.Observer{collector}, nil)
	if err != nil {
		return err
	}
	defer sess.Close()

	addr := cfg.Remote.Addr
	if serveAddr != "" {
		addr = serveAddr
	}
	srv := remote.New(remote.Config{
		Addr:      addr,
		RateLimit: cfg.Remote.RateLimit,
		Burst:     cfg.Remote.Burst,
	}, sess.runner, sess.engine, collector)
	if err := srv.Start(); err != nil {
		return err
	}
	fmt.Printf("fisinject listening on %s\n", srv.Addr())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(gctx)
	})

	if cfg.Remote.Advertise && !serveNoMDNS {
		name := serveInstance
		if name == "" {
			name = cfg.Remote.Name
		}
		adv, err := discovery.Advertise(name, srv.Port(), discovery.TXT{
			"version":    version.Version,
			"bus":        cfg.Bus.Interface + "/" + cfg.Bus.Channel,
			"host_id":    "0x" + strconv.FormatUint(uint64(cfg.IDs.Host), 16),
			"display_id": "0x" + strconv.FormatUint(uint64(cfg.IDs.Display), 16),
		})
		if err != nil {
			// mDNS is a convenience; the server stays up without it.
			logging.Warn("mDNS advertisement failed", zap.Error(err))
		} else {
			g.Go(func() error {
				<-gctx.Done()
				adv.Shutdown()
				return nil
			})
		}
	}

	return g.Wait()
}
