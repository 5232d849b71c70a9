package websocket

import (
	"log/slog"
	"net/http"

	ws "github.com/coder/websocket"

	"github.com/Oak-and-Sprout/sprout-track-sub002/internal/auth"
)

// HandleWebSocket upgrades connections and runs them as hub clients scoped
// to the authenticated family. Principals without a family scope are
// rejected; there is nothing to subscribe them to.
func HandleWebSocket(hub *Hub, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		familyID := auth.FamilyID(r.Context())
		if familyID == 0 {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		conn, err := ws.Accept(w, r, nil)
		if err != nil {
			logger.Warn("websocket accept", "error", err)
			return
		}

		client := NewClient(hub, conn, familyID)
		client.Run(r.Context())
	}
}
