package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/vedran77/receptionist/internal/auth"
	"github.com/vedran77/receptionist/internal/logging"
	"nhooyr.io/websocket"
)

type TokenVerifier interface {
	Verify(token string) (auth.Identity, error)
}

// ServeWS returns an HTTP handler that upgrades to WebSocket.
// Auth is done via ?token=xxx query param (WebSocket can't send headers).
func ServeWS(hub *Hub, tokens TokenVerifier, originPatterns []string, log logging.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, err := tokens.Verify(r.URL.Query().Get("token"))
		if err != nil {
			log.Debug(r.Context(), "rejecting websocket", "error", err)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":{"code":"UNAUTHORIZED","message":"Please authenticate"}}`))
			return
		}

		// the server write timeout would otherwise cut long-lived sessions
		_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: originPatterns,
		})
		if err != nil {
			log.Warn(r.Context(), "websocket accept failed", "error", err)
			return
		}

		client := NewClient(hub, conn, identity.ID, log)
		if !hub.add(client) {
			conn.Close(websocket.StatusGoingAway, "server shutting down")
			return
		}

		// The pumps outlive the request; they stop when the session is dropped.
		ctx := context.WithoutCancel(r.Context())
		go client.WritePump(ctx)
		go client.ReadPump(ctx)
	}
}
