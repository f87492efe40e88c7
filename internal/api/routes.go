package api

import (
	"net/http"
)

// RegisterRoutes регистрирует все маршруты API.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Middleware chain
	chain := Chain(
		Recovery(h.logger),
		Logging(h.logger),
	)

	// Jobs
	mux.Handle("POST /jobs", chain(http.HandlerFunc(h.SubmitJob)))
	mux.Handle("GET /jobs/{job_id}", chain(http.HandlerFunc(h.GetJob)))

	// Диагностика: Graphviz-экспорт графа пайплайна.
	mux.Handle("GET /graph.dot", chain(http.HandlerFunc(h.GraphDOT)))
}
