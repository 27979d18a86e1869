package handler

import (
	"net/http"

	"github.com/tripcrew/tripcrew/spec"
)

// GetHealth reports liveness. It intentionally does not touch the database;
// orchestrators probe it frequently and a slow database should not flap the
// process as unhealthy.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetOpenAPI serves the embedded OpenAPI document.
func (s *Server) GetOpenAPI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(spec.OpenAPI)
}
