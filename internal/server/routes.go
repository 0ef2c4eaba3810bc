package server

import (
	"net/http"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// API routes - Discovery runs
	mux.HandleFunc("/api/discovery/run", s.app.DiscoveryHandler.RunHandler)      // POST - start run
	mux.HandleFunc("/api/discovery/run/", s.app.DiscoveryHandler.StatusHandler)  // GET /{id} - poll run

	// API routes - System
	mux.HandleFunc("/api/version", s.app.APIHandler.VersionHandler)
	mux.HandleFunc("/api/health", s.app.APIHandler.HealthHandler)

	return mux
}
