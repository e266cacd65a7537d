package ui

import (
	"bufio"
	"context"
	"io"
	"strings"
	"time"

	"github.com/muurk/fisinject/internal/command"
)

// PlainSession is the line oriented console used when stdin is not a
// terminal. Each input line is one command; a line holding only "d"
// toggles the traffic view.
type PlainSession struct {
	Runner        Submitter
	Traffic       *TrafficPrinter
	SubmitTimeout time.Duration
}

// Run reads commands from in until EOF or ctx is done.
func (s *PlainSession) Run(ctx context.Context, in io.Reader) error {
	timeout := s.SubmitTimeout
	if timeout <= 0 {
		timeout = DefaultSubmitTimeout
	}

	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-readErr:
					return err
				default:
					return nil
				}
			}
			s.handle(ctx, strings.TrimSpace(line), timeout)
		}
	}
}

func (s *PlainSession) handle(ctx context.Context, line string, timeout time.Duration) {
	out := s.Traffic
	switch strings.ToLower(line) {
	case "":
		return
	case "d":
		out.SetEnabled(!out.Enabled())
		state := "OFF"
		if out.Enabled() {
			state = "ON"
		}
		out.Println("--- DEBUG TRAFFIC: " + state + " ---")
		return
	}

	req, err := command.Parse(line)
	if err != nil {
		out.Println("Error: " + err.Error())
		return
	}

	out.Println("Processing: " + line)
	subCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	res, err := s.Runner.Submit(subCtx, req)
	if err != nil {
		out.Println("Error: " + err.Error())
		return
	}
	out.Println(Summary(res))
	for _, step := range res.Steps {
		out.Println("  " + StepLine(step))
	}
}
