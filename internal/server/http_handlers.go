package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"jdoptim/internal/ai"
	"jdoptim/internal/observability"
	"jdoptim/internal/session"

	"go.opentelemetry.io/otel/attribute"
)

// getHealthCheckTimeout returns the configured health check timeout
func (s *Server) getHealthCheckTimeout() time.Duration {
	return s.AppConfig.Observability.HealthCheck.Timeout
}

// createSessionHandler starts a new optimization session.
func (s *Server) createSessionHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateSessionRequest
		if r.ContentLength > 0 {
			if err := parseJSONRequest(r, &req); err != nil {
				writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
				return
			}
		}

		username := req.Username
		if username == "" {
			username = s.AppConfig.App.DefaultUsername
		}

		mgr, err := session.New(s.SessionStore, s.Logger, username)
		if err != nil {
			writeErrorResponse(w, "Failed to create session", err.Error(), http.StatusInternalServerError)
			return
		}

		metrics := om.GetMetrics()
		metrics.RecordBusinessMetric(r.Context(), "session_created", true, om,
			attribute.String("username", username))

		s.Logger.Info("Session created",
			"session_id", mgr.ID(),
			"username", username)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		if err := json.NewEncoder(w).Encode(mgr.Session()); err != nil {
			log.Printf("Failed to encode session response: %v", err)
		}
	}
}

// listSessionsHandler returns summaries of all stored sessions, newest first.
func (s *Server) listSessionsHandler(w http.ResponseWriter, r *http.Request) {
	summaries, err := s.SessionStore.List()
	if err != nil {
		writeErrorResponse(w, "Failed to list sessions", err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]any{
		"sessions": summaries,
		"count":    len(summaries),
	}); err != nil {
		log.Printf("Failed to encode session list response: %v", err)
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// getSessionHandler returns the full session document.
func (s *Server) getSessionHandler(w http.ResponseWriter, r *http.Request) {
	mgr, ok := s.loadSessionManager(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(mgr.Session()); err != nil {
		log.Printf("Failed to encode session response: %v", err)
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// deleteSessionHandler removes a stored session document.
func (s *Server) deleteSessionHandler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeErrorResponse(w, "Missing session ID", "session id path segment is required", http.StatusBadRequest)
		return
	}

	if err := s.SessionStore.Delete(id); err != nil {
		writeErrorResponse(w, "Failed to delete session", err.Error(), http.StatusInternalServerError)
		return
	}

	s.Logger.Info("Session deleted", "session_id", id)
	w.WriteHeader(http.StatusNoContent)
}

// sessionReportHandler renders the plain-text audit report for a session.
func (s *Server) sessionReportHandler(w http.ResponseWriter, r *http.Request) {
	mgr, ok := s.loadSessionManager(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if _, err := io.WriteString(w, mgr.ExportReport()); err != nil {
		log.Printf("Failed to write session report: %v", err)
	}
}

// healthHandler provides a comprehensive health check endpoint including AI model status
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"status":  "healthy",
		"service": "jdoptim",
		"version": s.Version,
	}

	// Check AI model availability for all operations
	aiStatus := s.checkAIModelsHealth()
	response["ai_models"] = aiStatus

	// Check circuit breaker status
	circuitBreakerStatus := s.checkCircuitBreakerHealth()
	response["circuit_breakers"] = circuitBreakerStatus

	// Session storage status
	response["session_store"] = s.checkSessionStoreHealth()

	// Check certificate status if certificate manager is available
	certStatus := s.checkCertificateHealth()
	if certStatus != nil {
		response["certificates"] = certStatus
	}

	// Determine overall health status
	overallHealthy := true
	for _, modelStatus := range aiStatus {
		if modelInfo, ok := modelStatus.(map[string]any); ok {
			if available, exists := modelInfo["available"]; exists {
				if avail, ok := available.(bool); ok && !avail {
					overallHealthy = false
					break
				}
			}
		}
	}

	if certStatus != nil {
		if healthy, exists := certStatus["healthy"]; exists {
			if certHealthy, ok := healthy.(bool); ok && !certHealthy {
				overallHealthy = false
			}
		}
	}

	if !overallHealthy {
		response["status"] = "degraded"
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	w.Header().Set("Content-Type", "application/json")
	err := json.NewEncoder(w).Encode(response)
	if err != nil {
		log.Printf("Failed to encode health response: %v", err)
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// checkAIModelsHealth checks the health of the AI models used by each operation
func (s *Server) checkAIModelsHealth() map[string]any {
	timeout := s.getHealthCheckTimeout()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	aiStatus := make(map[string]any)

	enhanceConfig := s.AppConfig.GetEnhanceConfig()
	if enhanceService, err := ai.NewService(&enhanceConfig, "enhance", s.Logger); err == nil {
		aiStatus["enhance"] = enhanceService.GetModelInfo(ctx)
	} else {
		aiStatus["enhance"] = map[string]any{
			"available": false,
			"error":     fmt.Sprintf("Failed to create enhance service: %v", err),
		}
	}

	refineConfig := s.AppConfig.GetRefineConfig()
	if refineService, err := ai.NewService(&refineConfig, "refine", s.Logger); err == nil {
		aiStatus["refine"] = refineService.GetModelInfo(ctx)
	} else {
		aiStatus["refine"] = map[string]any{
			"available": false,
			"error":     fmt.Sprintf("Failed to create refine service: %v", err),
		}
	}

	return aiStatus
}

// checkCircuitBreakerHealth reports circuit breaker state for the AI operations
func (s *Server) checkCircuitBreakerHealth() map[string]any {
	circuitBreakerStatus := make(map[string]any)

	enhanceConfig := s.AppConfig.GetEnhanceConfig()
	if svc, err := ai.NewService(&enhanceConfig, "enhance", s.Logger); err == nil {
		circuitBreakerStatus["enhance"] = svc.Provider.GetCircuitBreakerStats()
	} else {
		circuitBreakerStatus["enhance"] = map[string]any{
			"available": false,
			"error":     fmt.Sprintf("Failed to create enhance service: %v", err),
		}
	}

	refineConfig := s.AppConfig.GetRefineConfig()
	if svc, err := ai.NewService(&refineConfig, "refine", s.Logger); err == nil {
		circuitBreakerStatus["refine"] = svc.Provider.GetCircuitBreakerStats()
	} else {
		circuitBreakerStatus["refine"] = map[string]any{
			"available": false,
			"error":     fmt.Sprintf("Failed to create refine service: %v", err),
		}
	}

	return circuitBreakerStatus
}

// checkSessionStoreHealth reports basic session storage status
func (s *Server) checkSessionStoreHealth() map[string]any {
	status := map[string]any{
		"logs_dir": s.SessionStore.Dir(),
	}

	summaries, err := s.SessionStore.List()
	if err != nil {
		status["healthy"] = false
		status["error"] = err.Error()
		return status
	}

	status["healthy"] = true
	status["session_count"] = len(summaries)
	status["pruner_running"] = s.Pruner != nil
	return status
}

// checkCertificateHealth checks the health of TLS certificates
func (s *Server) checkCertificateHealth() map[string]any {
	if s.CertificateManager == nil {
		return nil
	}

	certStatus := make(map[string]any)

	timeToExpiry, err := s.CertificateManager.CheckExpiry()
	if err != nil {
		certStatus["healthy"] = false
		certStatus["error"] = fmt.Sprintf("Failed to check certificate expiry: %v", err)
		return certStatus
	}

	criticalThreshold := 24 * time.Hour
	warningThreshold := 7 * 24 * time.Hour

	certStatus["time_to_expiry_hours"] = int(timeToExpiry.Hours())
	certStatus["time_to_expiry"] = timeToExpiry.String()

	switch {
	case timeToExpiry <= 0:
		certStatus["healthy"] = false
		certStatus["status"] = "expired"
		certStatus["message"] = "Certificate has expired"
	case timeToExpiry <= criticalThreshold:
		certStatus["healthy"] = false
		certStatus["status"] = "critical"
		certStatus["message"] = "Certificate expires within 24 hours"
	case timeToExpiry <= warningThreshold:
		certStatus["healthy"] = true
		certStatus["status"] = "warning"
		certStatus["message"] = "Certificate expires within 7 days"
	default:
		certStatus["healthy"] = true
		certStatus["status"] = "ok"
		certStatus["message"] = "Certificate is valid"
	}

	if s.TLSConfig.AutoReload.Enabled {
		autoReload := map[string]any{
			"enabled":              true,
			"file_watcher_enabled": s.TLSConfig.AutoReload.FileWatcher.Enabled,
		}
		if s.CertificateManager.fileWatcher != nil {
			autoReload["file_watcher_running"] = s.CertificateManager.fileWatcher.IsRunning()
			autoReload["watched_files"] = s.CertificateManager.fileWatcher.GetWatchedFiles()
		}
		certStatus["auto_reload"] = autoReload
	} else {
		certStatus["auto_reload"] = map[string]any{
			"enabled": false,
		}
	}

	metrics := s.CertificateManager.GetMetrics()
	if metrics != nil {
		certStatus["metrics"] = map[string]any{
			"reload_count":         metrics.ReloadCount,
			"reload_success_count": metrics.ReloadSuccessCount,
			"reload_failure_count": metrics.ReloadFailureCount,
			"last_reload_time":     metrics.LastReloadTime,
			"last_reload_success":  metrics.LastReloadSuccess,
			"last_reload_error":    metrics.LastReloadError,
		}
	}

	return certStatus
}

// statsHandler provides server statistics including rate limiting info
func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"service": "jdoptim",
		"version": s.Version,
		"server": map[string]any{
			"max_request_size_bytes": s.MaxRequestSize,
		},
	}

	// Session retention configuration
	response["session_config"] = map[string]any{
		"logs_dir":       s.AppConfig.Session.LogsDir,
		"max_sessions":   s.AppConfig.Session.MaxSessions,
		"max_age":        s.AppConfig.Session.MaxAge.String(),
		"prune_interval": s.AppConfig.Session.PruneInterval.String(),
	}

	if summaries, err := s.SessionStore.List(); err == nil {
		response["session_count"] = len(summaries)
	}

	// Add rate limiting stats if enabled
	if s.RateLimiter != nil {
		response["rate_limiting"] = s.RateLimiter.GetStats()
	} else {
		response["rate_limiting"] = map[string]any{
			"enabled": false,
		}
	}

	if s.RateLimit != nil {
		response["rate_limit_config"] = map[string]any{
			"enabled":          s.RateLimit.Enabled,
			"requests_per_min": s.RateLimit.RequestsPerMin,
			"burst_capacity":   s.RateLimit.BurstCapacity,
			"by_ip":            s.RateLimit.ByIP,
			"by_api_key":       s.RateLimit.ByAPIKey,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	err := json.NewEncoder(w).Encode(response)
	if err != nil {
		log.Printf("Failed to encode stats response: %v", err)
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// parseJSONRequest parses JSON request body into the provided struct
func parseJSONRequest(r *http.Request, v any) error {
	if r.Header.Get("Content-Type") != "application/json" {
		return fmt.Errorf("content-type must be application/json")
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return fmt.Errorf("request body too large (limit is %d bytes)", maxBytesErr.Limit)
		}
		return fmt.Errorf("failed to read request body: %w", err)
	}
	defer func() {
		if err := r.Body.Close(); err != nil {
			log.Printf("Failed to close request body: %v", err)
		}
	}()

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to parse JSON: %w", err)
	}

	return nil
}

// writeErrorResponse writes a standardized error response
func writeErrorResponse(w http.ResponseWriter, error, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := ErrorResponse{
		Error:   error,
		Message: message,
	}

	err := json.NewEncoder(w).Encode(response)
	if err != nil {
		log.Printf("Failed to encode error response: %v", err)
		http.Error(w, "Failed to encode error response", http.StatusInternalServerError)
	}
}
