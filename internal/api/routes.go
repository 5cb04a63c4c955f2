package api

import "net/http"

// RegisterRoutes adds the API routes to mux.
func RegisterRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /", handler.HandleRoot)
	mux.HandleFunc("GET /healthz", handler.HandleHealth)
	mux.HandleFunc("GET /metrics", handler.HandleMetrics)
	mux.HandleFunc("POST /compare-texts/", handler.HandleCompareTexts)
	mux.HandleFunc("POST /compare-files/", handler.HandleCompareFiles)
}

// NewRouter returns the full API handler, middleware included.
func NewRouter(handler *Handler) http.Handler {
	mux := http.NewServeMux()
	RegisterRoutes(mux, handler)
	return MiddlewareChain(mux)
}
