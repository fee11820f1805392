package gateway

import (
	"encoding/json"
	"net/http"

	"github.com/rs/cors"
	"github.com/rs/zerolog/log"

	"github.com/cgqgames/cgq/go/internal/quiz/state"
)

// SnapshotFunc returns the current game snapshot. The run loop serializes
// access to the game, so the gateway asks instead of caching.
type SnapshotFunc func() state.Snapshot

// Handler builds the HTTP surface: the overlay WebSocket, a snapshot poll
// endpoint and a health check, all wrapped in permissive CORS for local
// overlay pages.
func Handler(hub *Hub, snapshot SnapshotFunc) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/ws", hub.HandleWS)

	mux.HandleFunc("/snapshot", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(snapshot()); err != nil {
			log.Error().Err(err).Msg("failed to write snapshot response")
		}
	})

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			log.Error().Err(err).Msg("failed to write health check response")
		}
	})

	c := cors.New(cors.Options{
		AllowedMethods: []string{http.MethodHead, http.MethodGet},
		AllowedOrigins: []string{"*"},
		AllowedHeaders: []string{"*"},
	})
	return c.Handler(mux)
}
