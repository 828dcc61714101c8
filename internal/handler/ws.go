package handler

import (
	"log/slog"
	"net/http"

	ws "github.com/coder/websocket"

	"github.com/getresett/resett/internal/websocket"
)

// HandleWebSocket upgrades the connection and runs it as a client of the
// requesting device's room. It must sit behind the device identity middleware.
func HandleWebSocket(hub *websocket.Hub, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		device, ok := DeviceFromContext(r.Context())
		if !ok {
			http.Error(w, "unknown device", http.StatusBadRequest)
			return
		}

		conn, err := ws.Accept(w, r, nil)
		if err != nil {
			logger.Warn("websocket accept", "error", err)
			return
		}

		client := websocket.NewClient(hub, conn, device.ID)
		client.Run(r.Context())
	}
}
