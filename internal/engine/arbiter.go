package engine

import (
	"fmt"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/muurk/fisinject/internal/logging"
	"github.com/muurk/fisinject/internal/protocol"
	"github.com/muurk/fisinject/internal/syncutil"
)

// Arbiter runs claim, write and release sessions on the display zones.
// Every operation is a no-op while the monitor has not seen a heartbeat.
type Arbiter struct {
	sender  *Sender
	monitor *Monitor
	clock   clockwork.Clock
	opts    Options

	mu     syncutil.Mutex
	states map[Zone]SessionState
}

// NewArbiter creates an arbiter. opts must already carry defaults.
func NewArbiter(sender *Sender, monitor *Monitor, opts Options) *Arbiter {
	return &Arbiter{
		sender:  sender,
		monitor: monitor,
		clock:   opts.Clock,
		opts:    opts,
		states:  map[Zone]SessionState{ZoneTop: Free, ZoneMiddle: Free},
	}
}

// State returns the local session state of zone.
func (a *Arbiter) State(zone Zone) SessionState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.states[zone]
}

func (a *Arbiter) setState(zone Zone, s SessionState) {
	a.mu.Lock()
	a.states[zone] = s
	a.mu.Unlock()
}

// transition moves zone from one state to another and reports whether the
// zone was in from.
func (a *Arbiter) transition(zone Zone, from, to SessionState) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.states[zone] != from {
		return false
	}
	a.states[zone] = to
	return true
}

func (a *Arbiter) skipped(op Op, zone Zone, line int) StepResult {
	logging.Debug("Skipping operation: bus not active",
		zap.String("op", string(op)),
		zap.Stringer("zone", zone),
	)
	return StepResult{Op: op, Zone: zone, Line: line, Skipped: true, OK: false}
}

// Claim asks the display controller for zone.
func (a *Arbiter) Claim(zone Zone) StepResult {
	if !a.monitor.Active() {
		return a.skipped(OpClaim, zone, 0)
	}
	err := a.sender.Transmit(protocol.ClaimPayload(zone))
	// The claim stands even without an ack; the display is the judge of that.
	a.setState(zone, Claimed)
	return StepResult{Op: OpClaim, Zone: zone, OK: err == nil, Err: err}
}

// Write sends text to line. zone is only recorded in the result.
func (a *Arbiter) Write(zone Zone, line int, text string) StepResult {
	if !a.monitor.Active() {
		return a.skipped(OpWrite, zone, line)
	}
	if line < 0 || line > 0xFF {
		return StepResult{Op: OpWrite, Zone: zone, Line: line, Err: fmt.Errorf("line 0x%X out of range", line)}
	}
	payload, err := protocol.WriteTextPayload(byte(line), a.opts.Charmap.Encode(text))
	if err != nil {
		return StepResult{Op: OpWrite, Zone: zone, Line: line, Err: err}
	}
	err = a.sender.Transmit(payload)
	return StepResult{Op: OpWrite, Zone: zone, Line: line, OK: err == nil, Err: err}
}

// Release gives a claimed zone back with RetryingRelease. The session ends
// regardless of the outcome. A zone that is not claimed is left alone and
// nothing is sent.
func (a *Arbiter) Release(zone Zone) StepResult {
	if !a.monitor.Active() {
		return a.skipped(OpRelease, zone, 0)
	}
	if !a.transition(zone, Claimed, Releasing) {
		return StepResult{Op: OpRelease, Zone: zone, Err: fmt.Errorf("release %s: %w", zone, ErrNotClaimed)}
	}
	defer a.setState(zone, Free)

	if !a.RetryingRelease(zone) {
		err := fmt.Errorf("release %s after %d attempts: %w", zone, a.opts.ReleaseAttempts, ErrProtocolTimeout)
		return StepResult{Op: OpRelease, Zone: zone, Err: err}
	}
	return StepResult{Op: OpRelease, Zone: zone, OK: true}
}

// releaseSession releases zone and, when the release was acknowledged, waits
// for and acknowledges the display's answer.
func (a *Arbiter) releaseSession(res *Result, zone Zone) {
	rel := a.Release(zone)
	res.Steps = append(res.Steps, rel)
	if !rel.OK {
		return
	}
	step := StepResult{Op: OpReleaseAck, Zone: zone, OK: true}
	if !a.WaitForPeerAckOfRelease(a.opts.ReleaseAckTimeout) {
		step.OK = false
		step.Err = fmt.Errorf("no answer to %s release within %s: %w", zone, a.opts.ReleaseAckTimeout, ErrProtocolTimeout)
	}
	res.Steps = append(res.Steps, step)
}

func (a *Arbiter) settle() {
	a.monitor.Poll(a.opts.Settle)
}

// Apply runs req. With both zones requested the Middle session is nested
// inside the Top session: claim Top, write Top, claim Middle, write Middle
// lines, release Middle, release Top.
func (a *Arbiter) Apply(req Request) Result {
	if !a.monitor.Active() {
		logging.Warn("Skipping update: bus not active")
		return Result{Skipped: true}
	}

	var res Result
	if req.Top != nil {
		res.Steps = append(res.Steps, a.Claim(ZoneTop))
		a.settle()
		res.Steps = append(res.Steps, a.Write(ZoneTop, req.Top.Line, req.Top.Text))
		a.settle()
	}

	if len(req.Middle) > 0 {
		res.Steps = append(res.Steps, a.Claim(ZoneMiddle))
		a.settle()
		for _, u := range req.Middle {
			res.Steps = append(res.Steps, a.Write(ZoneMiddle, u.Line, u.Text))
			a.settle()
		}
		a.releaseSession(&res, ZoneMiddle)
		a.settle()
	}

	if req.Top != nil {
		a.releaseSession(&res, ZoneTop)
	}
	return res
}
