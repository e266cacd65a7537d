package remote

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/muurk/fisinject/internal/command"
	"github.com/muurk/fisinject/internal/engine"
	"github.com/muurk/fisinject/internal/logging"
)

// ErrRateLimited is returned when a client exceeds its submission rate.
var ErrRateLimited = errors.New("rate limit exceeded")

// errorBody is the JSON reply for requests that produced no Result.
type errorBody struct {
	Error  string `json:"error"`
	Status int    `json:"status"`
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.status.Status())
}

func (s *Server) handleUpdates(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.config.MaxBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, err)
			return
		}
		writeError(w, http.StatusBadRequest, err)
		return
	}

	res, status, err := s.submit(r.Context(), clientKey(r.RemoteAddr), string(body))
	if err != nil {
		writeError(w, status, err)
		return
	}
	writeJSON(w, status, res)
}

// submit rate limits, parses and runs one command line. The returned status
// is the HTTP status describing the outcome.
func (s *Server) submit(ctx context.Context, client, line string) (engine.Result, int, error) {
	if !s.limiter.Allow(client) {
		logging.Warn("Remote submission rate limited", zap.String("client", client))
		if s.metrics != nil {
			s.metrics.RecordRateLimited()
		}
		return engine.Result{}, http.StatusTooManyRequests, ErrRateLimited
	}

	line = strings.TrimSpace(line)
	req, err := command.Parse(line)
	if err != nil {
		return engine.Result{}, http.StatusBadRequest, err
	}

	logging.Info("Remote update",
		zap.String("client", client),
		zap.String("input", line),
	)

	// ErrRunnerStopped, or the client gave up before the runner answered.
	res, err := s.runner.Submit(ctx, req)
	if err != nil {
		return engine.Result{}, http.StatusServiceUnavailable, err
	}

	switch {
	case res.Skipped:
		return res, http.StatusServiceUnavailable, nil
	case !res.OK():
		logging.Warn("Remote update failed",
			zap.String("client", client),
			zap.Error(res.Err()),
		)
		return res, http.StatusBadGateway, nil
	default:
		return res, http.StatusOK, nil
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("Failed to encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorBody{Error: err.Error(), Status: status})
}
