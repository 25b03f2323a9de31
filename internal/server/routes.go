package server

import (
	"net/http"

	"summoner-analytics/internal/middleware"

	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

func NewRouter(analytics *AnalyticsServer, ws *WebSocketHandler, logger zerolog.Logger) http.Handler {
	mux := http.NewServeMux()

	path, handler := analytics.Handler()
	mux.Handle(path, handler)
	mux.Handle(WebSocketPattern, ws)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{
			middleware.RequestIDHeader,
			"Connect-Protocol-Version",
			"Grpc-Status",
			"Grpc-Message",
		},
	})

	return middleware.RequestID(logger)(middleware.Recover(c.Handler(mux)))
}
