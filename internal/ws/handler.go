package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/DoyleJ11/wordlink-backend/pkg/types"
	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	outboxSize   = 16
	writeTimeout = 3 * time.Second
)

// Sessions resolves a session id to its player.
type Sessions interface {
	Resolve(ctx context.Context, sessionID string) (string, error)
}

// Hub delivers events to attached connections.
type Hub interface {
	Connect(playerID, connID string, outbox chan types.Event) bool
	Disconnect(playerID, connID string)
}

// Handler upgrades /ws?session=<id> to a websocket that receives every event
// addressed to the session's player. The socket is push only; anything the
// client sends is read and discarded.
func Handler(h Hub, sessions Sessions, originPatterns []string, logger *zap.Logger) http.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		playerID, err := sessions.Resolve(r.Context(), r.URL.Query().Get("session"))
		if err != nil {
			http.Error(w, "invalid session", http.StatusUnauthorized)
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: originPatterns,
		})
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		connID := uuid.NewString()
		log := logger.With(zap.String("player_id", playerID), zap.String("conn_id", connID))

		out := make(chan types.Event, outboxSize)
		if !h.Connect(playerID, connID, out) {
			conn.Close(websocket.StatusGoingAway, "server shutting down")
			return
		}
		defer h.Disconnect(playerID, connID)
		log.Debug("socket attached")

		// Writer goroutine
		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()
		go func() {
			defer writeCancel()
			for ev := range out {
				payload, err := json.Marshal(ev)
				if err != nil {
					log.Error("encode event", zap.String("event", ev.Type), zap.Error(err))
					continue
				}
				ctx, cancel := context.WithTimeout(writeCtx, writeTimeout)
				err = conn.Write(ctx, websocket.MessageText, payload)
				cancel()
				if err != nil {
					return
				}
			}
			// The hub closed our outbox: we were dropped as slow or it shut down.
			conn.Close(websocket.StatusTryAgainLater, "dropped")
		}()

		// Reader loop: keeps control frames flowing and notices the close.
		for {
			if _, _, err := conn.Read(writeCtx); err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				default:
					log.Debug("socket closed", zap.Error(err))
				}
				return
			}
		}
	}
}
