package server

import (
	"net/http"
	"time"

	"github.com/bobmcallan/corebank/internal/common"
)

// handleHealth handles GET /health with a shallow liveness check.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "corebank-server",
	})
}

// handleHealthDetailed handles GET /health/detailed, probing the store.
func (s *Server) handleHealthDetailed(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	status := http.StatusOK
	storage := "healthy"
	if err := s.app.Store.Ping(r.Context()); err != nil {
		s.logger.Error().Err(err).Msg("Storage health check failed")
		storage = "unhealthy"
		status = http.StatusServiceUnavailable
	}

	pending := 0
	if storage == "healthy" {
		if n, err := s.app.Store.EFTs().PendingCount(r.Context()); err == nil {
			pending = n
		}
	}

	WriteJSON(w, status, map[string]interface{}{
		"status":       storage,
		"service":      "corebank-server",
		"version":      common.GetVersion(),
		"uptime":       time.Since(s.app.StartupTime).Round(time.Second).String(),
		"pending_efts": pending,
		"checks": map[string]string{
			"storage": storage,
		},
	})
}

// handleVersion handles GET /version.
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{
		"version": common.GetVersion(),
		"build":   common.GetBuild(),
		"commit":  common.GetGitCommit(),
	})
}
