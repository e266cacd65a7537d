package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/muurk/fisinject/internal/capture"
	"github.com/muurk/fisinject/internal/engine"
	"github.com/muurk/fisinject/internal/ui"
)

var (
	analyzeTraffic bool
	analyzeJSON    bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <candump.log>",
	Short: "Decode a recorded candump log",
	Long: `Replay a candump log through the sequence tracker and print the claims,
writes and releases the head unit and display controller exchanged.

The host and display ids come from the configuration.`,
	Example: `  candump -l can0
  fisinject analyze candump-2025-01-01_120000.log

  # Every frame, as in the console traffic view
  fisinject analyze --traffic capture.log`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().BoolVar(&analyzeTraffic, "traffic", false, "Print every watched frame")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "Print the report as JSON")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	records, err := capture.Read(f)
	if err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}

	opts := engine.Options{HostID: cfg.IDs.Host, DisplayID: cfg.IDs.Display}
	p := ui.NewPrinter(os.Stdout)
	if analyzeTraffic && !analyzeJSON {
		opts.Observers = []engine.Observer{engine.ObserverFunc(func(ev engine.TrafficEvent) {
			p.Printf("%s  %s\n", ev.At.Format("15:04:05.000000"), ui.FormatTraffic(ev))
		})}
	}
	report := capture.Analyze(records, opts)

	if analyzeJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	if analyzeTraffic {
		p.Println("")
	}
	p.PrintHeader("Capture Analysis", "fisinject analyze", map[string]string{
		"File":       args[0],
		"Host ID":    fmt.Sprintf("0x%03X", cfg.IDs.Host),
		"Display ID": fmt.Sprintf("0x%03X", cfg.IDs.Display),
	})

	for _, pl := range report.Payloads {
		p.Printf("%s  %-10s  seq %2d  %s\n", pl.At.Format("15:04:05.000000"), pl.From, pl.Seq, pl.Text)
	}
	if len(report.Payloads) > 0 {
		p.Println("")
	}

	s := report.Stats
	p.Printf("Frames:    %d (%d watched, %d other ids)\n", report.Frames, s.Watched, s.Other)
	if !report.Start.IsZero() {
		p.Printf("Span:      %s\n", report.Duration())
	}
	p.Printf("Active:    %t\n", report.Active)
	p.Printf("Sequence:  %d synced, %d ignored, next %d\n", s.Synced, s.Ignored, report.FinalSeq)

	types := make([]string, 0, len(s.ByType))
	for t := range s.ByType {
		types = append(types, t)
	}
	sort.Strings(types)
	for _, t := range types {
		p.Printf("  %-12s %d\n", t, s.ByType[t])
	}
	return nil
}
