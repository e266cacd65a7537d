package main

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/muurk/fisinject/internal/can"
	"github.com/muurk/fisinject/internal/engine"
	"github.com/muurk/fisinject/internal/logging"
)

// session is an open bus with an engine and its running control loop.
type session struct {
	bus    can.Bus
	engine *engine.Engine
	runner *engine.Runner
}

// openSession opens the configured bus and starts a runner on it.
func openSession(observers []engine.Observer, onNoTraffic func()) (*session, error) {
	busCfg := cfg.CANConfig()
	bus, err := can.Open(busCfg)
	if err != nil {
		return nil, err
	}
	logging.Info("CAN bus open",
		zap.String("interface", busCfg.Interface),
		zap.String("channel", busCfg.Channel),
		zap.Int("bitrate", busCfg.Bitrate),
	)

	s, err := startSession(bus, observers, onNoTraffic)
	if err != nil {
		_ = bus.Close()
		return nil, err
	}
	return s, nil
}

// startSession builds the engine on an already open bus.
func startSession(bus can.Bus, observers []engine.Observer, onNoTraffic func()) (*session, error) {
	opts, err := cfg.EngineOptions()
	if err != nil {
		return nil, err
	}
	opts.Observers = observers

	eng := engine.New(bus, opts)
	runnerOpts := cfg.RunnerOptions()
	runnerOpts.OnNoTraffic = onNoTraffic
	r := engine.NewRunner(eng, runnerOpts)
	r.Start()

	return &session{bus: bus, engine: eng, runner: r}, nil
}

// Close stops the runner and closes the bus.
func (s *session) Close() {
	s.runner.Stop()
	if err := s.engine.Close(); err != nil {
		logging.Warn("Failed to close CAN bus", zap.Error(err))
	}
}

// bannerParams describes the effective settings for startup banners.
func bannerParams() map[string]string {
	return map[string]string{
		"Bus":        fmt.Sprintf("%s/%s @ %d", cfg.Bus.Interface, cfg.Bus.Channel, cfg.Bus.Bitrate),
		"Host ID":    fmt.Sprintf("0x%03X", cfg.IDs.Host),
		"Display ID": fmt.Sprintf("0x%03X", cfg.IDs.Display),
	}
}
