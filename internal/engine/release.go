package engine

import (
	"time"

	"go.uber.org/zap"

	"github.com/muurk/fisinject/internal/can"
	"github.com/muurk/fisinject/internal/logging"
	"github.com/muurk/fisinject/internal/protocol"
)

// RetryingRelease sends the release opcode for zone, retrying with a fixed
// backoff until the display controller acknowledges it or the attempts run
// out. Exhaustion is logged; the local session is not rolled back because
// the display controller's view is authoritative.
func (a *Arbiter) RetryingRelease(zone Zone) bool {
	payload := protocol.ReleasePayload(zone)
	ok := Retry(a.clock, a.opts.ReleaseAttempts, a.opts.ReleaseBackoff, func(attempt int) bool {
		if err := a.sender.Transmit(payload); err != nil {
			logging.Debug("Release attempt failed",
				zap.Stringer("zone", zone),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			return false
		}
		return true
	})
	if !ok {
		logging.Warn("Release failed",
			zap.Stringer("zone", zone),
			zap.Int("attempts", a.opts.ReleaseAttempts),
		)
	}
	return ok
}

// WaitForPeerAckOfRelease waits up to timeout for the display controller to
// answer a release with a data frame, and acknowledges that frame on the host
// controller id with the following sequence number.
func (a *Arbiter) WaitForPeerAckOfRelease(timeout time.Duration) bool {
	f, ok := a.monitor.PollUntil(timeout, func(f can.Frame, h protocol.Header) bool {
		return f.ID == a.opts.DisplayID && h.IsData()
	})
	if !ok {
		logging.Debug("Display did not answer release", zap.Duration("timeout", timeout))
		return false
	}
	h := protocol.Decode(f.Data)
	return a.sender.SendAck(protocol.NextSeq(h.Seq)) == nil
}
