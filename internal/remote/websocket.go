package remote

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/muurk/fisinject/internal/logging"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 8192
)

// handleWebSocket runs one command session. Each text message is submitted
// like a POST /updates body and answered with the Result, or an error body.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	client := clientKey(r.RemoteAddr)

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		logging.Warn("WebSocket upgrade failed",
			zap.String("client", client),
			zap.Error(err),
		)
		return
	}
	if !s.track(conn, client) {
		_ = conn.Close()
		return
	}
	defer s.untrack(conn)

	logging.Info("WebSocket session opened", zap.String("client", client))
	defer func() {
		_ = conn.Close()
		logging.Info("WebSocket session closed", zap.String("client", client))
	}()

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	done := make(chan struct{})
	defer close(done)
	go pingLoop(conn, done)

	for {
		msgType, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logging.Info("WebSocket read error",
					zap.String("client", client),
					zap.Error(err),
				)
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}

		var reply any
		res, status, err := s.submit(r.Context(), client, string(msg))
		if err != nil {
			reply = errorBody{Error: err.Error(), Status: status}
		} else {
			reply = res
		}

		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(reply); err != nil {
			logging.Info("WebSocket write failed",
				zap.String("client", client),
				zap.Error(err),
			)
			return
		}
	}
}

// pingLoop keeps the read deadline moving on idle sessions.
func pingLoop(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
