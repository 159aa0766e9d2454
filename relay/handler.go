package relay

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/coder/websocket"
	"github.com/gorilla/mux"
)

// NewHandler wires the relay's HTTP surface: the websocket upgrade endpoint
// and a health probe. The relay performs no origin check or authentication;
// any client that can reach the endpoint joins the session.
func NewHandler(rt *Router, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	m := mux.NewRouter()
	m.HandleFunc("/api/health", handleHealth(rt)).Methods(http.MethodGet)
	m.HandleFunc("/ws", handleUpgrade(rt, logger)).Methods(http.MethodGet)
	return m
}

func handleUpgrade(rt *Router, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: []string{"*"},
		})
		if err != nil {
			logger.Warn("websocket accept failed", "remote", r.RemoteAddr, "error", err)
			return
		}
		defer ws.CloseNow()
		rt.HandleConn(r.Context(), ws)
	}
}

func handleHealth(rt *Router) http.HandlerFunc {
	type healthResponse struct {
		Status  string `json:"status"`
		Clients int    `json:"clients"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(healthResponse{
			Status:  "ok",
			Clients: rt.Registry().Len(),
		})
	}
}
