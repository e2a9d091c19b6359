package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"jdoptim/internal/ai"
	"jdoptim/internal/observability"
	"jdoptim/internal/session"
	"jdoptim/internal/types"

	"go.opentelemetry.io/otel/attribute"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// EnhanceResponse is the body returned by POST /sessions/{id}/enhance.
type EnhanceResponse struct {
	SessionID        string   `json:"sessionId"`
	JobID            string   `json:"jobId"`
	EnhancedVersions []string `json:"enhancedVersions"`
	Summary          string   `json:"summary,omitempty"`
	Cached           bool     `json:"cached"`
}

// RefineResponse is the body returned by POST /sessions/{id}/refine.
type RefineResponse struct {
	SessionID      string `json:"sessionId"`
	FinalVersion   string `json:"finalVersion"`
	ChangesSummary string `json:"changesSummary,omitempty"`
	IsFinal        bool   `json:"isFinal"`
	Cached         bool   `json:"cached"`
}

// loadSessionManager resolves the {id} path segment to a session manager.
// A missing or corrupt session yields a 404 and a false return.
func (s *Server) loadSessionManager(w http.ResponseWriter, r *http.Request) (*session.Manager, bool) {
	id := r.PathValue("id")
	if id == "" {
		writeErrorResponse(w, "Missing session ID", "session id path segment is required", http.StatusBadRequest)
		return nil, false
	}

	mgr, err := session.Load(s.SessionStore, s.Logger, id)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			writeErrorResponse(w, "Session not found", fmt.Sprintf("no session with id %s", id), http.StatusNotFound)
			return nil, false
		}
		writeErrorResponse(w, "Failed to load session", err.Error(), http.StatusInternalServerError)
		return nil, false
	}

	return mgr, true
}

// createEnhanceHandler generates candidate versions for a job description,
// serving from the session's version cache when the same content was already
// processed.
func (s *Server) createEnhanceHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("jdoptim.api")
		ctx, span := tracer.Start(ctx, "api.enhance")
		defer span.End()

		var req EnhanceRequest
		if err := parseJSONRequest(r, &req); err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
			return
		}

		if strings.TrimSpace(req.JobDescription) == "" {
			err := fmt.Errorf("missing job description")
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Missing job description", "jobDescription field is required", http.StatusBadRequest)
			return
		}
		if s.MaxRequestSize > 0 && len(req.JobDescription) > int(s.MaxRequestSize) {
			err := fmt.Errorf("job description too large: %d chars", len(req.JobDescription))
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Job description too large", fmt.Sprintf("jobDescription exceeds size limit of %d characters", s.MaxRequestSize), http.StatusBadRequest)
			return
		}

		mgr, ok := s.loadSessionManager(w, r)
		if !ok {
			return
		}

		fileName := req.FileName
		if fileName == "" {
			fileName = "inline"
		}

		span.SetAttributes(
			attribute.Int("request.job_length", len(req.JobDescription)),
			attribute.String("request.file_name", fileName),
			attribute.String("session.id", mgr.ID()),
			attribute.String("operation", "enhance"),
		)

		mgr.Events().LogFileSelection(fileName, req.JobDescription)

		jobID := session.DeriveJobID(fileName, req.JobDescription)
		metrics := om.GetMetrics()

		if versions, hit := mgr.Cache().GetVersions(jobID); hit {
			metrics.RecordBusinessMetric(ctx, "cache_hit", true, om,
				attribute.String("operation", "enhance"))
			mgr.Events().LogVersionsGenerated(versions)

			span.SetAttributes(attribute.Bool("cache.hit", true))
			writeJSONResponse(w, span, EnhanceResponse{
				SessionID:        mgr.ID(),
				JobID:            jobID,
				EnhancedVersions: versions,
				Cached:           true,
			})
			return
		}
		metrics.RecordBusinessMetric(ctx, "cache_miss", true, om,
			attribute.String("operation", "enhance"))

		enhanceConfig := s.AppConfig.GetEnhanceConfig()
		aiService, err := ai.NewService(&enhanceConfig, "enhance", s.Logger)
		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "service_creation"))
			writeErrorResponse(w, "Failed to create AI service", err.Error(), http.StatusInternalServerError)
			return
		}

		input := types.EnhanceJobInput{
			JobDescription: req.JobDescription,
			FileName:       fileName,
		}

		var result types.EnhanceJobOutput
		err = metrics.TrackAIOperationWithTokens(ctx, "enhance", func(ctx context.Context) *observability.AIOperationResult {
			output, tokenUsage, aiErr := aiService.Provider.EnhanceJob(ctx, input)
			result = output
			return &observability.AIOperationResult{
				Error:      aiErr,
				TokenUsage: (*observability.TokenUsage)(tokenUsage),
			}
		}, om)

		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "ai_processing"))
			metrics.RecordBusinessMetric(ctx, "job_enhanced", false, om,
				attribute.String("error", err.Error()))
			writeErrorResponse(w, "Failed to enhance job description", err.Error(), http.StatusInternalServerError)
			return
		}

		mgr.Cache().PutVersions(jobID, result.EnhancedVersions)
		mgr.Events().LogVersionsGenerated(result.EnhancedVersions)

		metrics.RecordBusinessMetric(ctx, "job_enhanced", true, om,
			attribute.Int("version_count", len(result.EnhancedVersions)))

		span.SetAttributes(
			attribute.Bool("success", true),
			attribute.Bool("cache.hit", false),
			attribute.Int("response.version_count", len(result.EnhancedVersions)),
		)

		writeJSONResponse(w, span, EnhanceResponse{
			SessionID:        mgr.ID(),
			JobID:            jobID,
			EnhancedVersions: result.EnhancedVersions,
			Summary:          result.Summary,
		})
	}
}

// createSelectHandler records the reviewer's choice of a base version.
func (s *Server) createSelectHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tracer := om.Tracer("jdoptim.api")
		_, span := tracer.Start(r.Context(), "api.select")
		defer span.End()

		var req SelectRequest
		if err := parseJSONRequest(r, &req); err != nil {
			span.RecordError(err)
			writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
			return
		}

		mgr, ok := s.loadSessionManager(w, r)
		if !ok {
			return
		}

		doc := mgr.Session()
		if req.VersionIndex < 0 || req.VersionIndex >= len(doc.EnhancedVersions) {
			err := fmt.Errorf("version index %d out of range", req.VersionIndex)
			span.RecordError(err)
			writeErrorResponse(w, "Invalid version index",
				fmt.Sprintf("versionIndex must be in [0, %d)", len(doc.EnhancedVersions)), http.StatusBadRequest)
			return
		}

		recorded := mgr.Events().LogVersionSelection(req.VersionIndex)

		span.SetAttributes(
			attribute.String("session.id", mgr.ID()),
			attribute.Int("selected_version", req.VersionIndex),
			attribute.Bool("recorded", recorded),
		)

		writeJSONResponse(w, span, map[string]any{
			"sessionId":       mgr.ID(),
			"selectedVersion": req.VersionIndex,
			"recorded":        recorded,
		})
	}
}

// createFeedbackHandler appends reviewer feedback to the session.
func (s *Server) createFeedbackHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tracer := om.Tracer("jdoptim.api")
		_, span := tracer.Start(r.Context(), "api.feedback")
		defer span.End()

		var req FeedbackRequest
		if err := parseJSONRequest(r, &req); err != nil {
			span.RecordError(err)
			writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
			return
		}

		if strings.TrimSpace(req.Feedback) == "" {
			err := fmt.Errorf("missing feedback text")
			span.RecordError(err)
			writeErrorResponse(w, "Missing feedback", "feedback field is required", http.StatusBadRequest)
			return
		}

		mgr, ok := s.loadSessionManager(w, r)
		if !ok {
			return
		}

		recorded := mgr.Events().LogFeedback(session.FeedbackEntry{
			Feedback:  req.Feedback,
			Type:      req.Type,
			Role:      req.Role,
			Timestamp: time.Now().UTC(),
		})

		span.SetAttributes(
			attribute.String("session.id", mgr.ID()),
			attribute.Bool("recorded", recorded),
		)

		writeJSONResponse(w, span, map[string]any{
			"sessionId":     mgr.ID(),
			"recorded":      recorded,
			"feedbackCount": len(mgr.Session().FeedbackHistory),
		})
	}
}

// createRefineHandler produces a refined version from the selected base and
// the accumulated feedback, serving a cached final when available.
func (s *Server) createRefineHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("jdoptim.api")
		ctx, span := tracer.Start(ctx, "api.refine")
		defer span.End()

		var req RefineRequest
		if err := parseJSONRequest(r, &req); err != nil {
			span.RecordError(err)
			writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
			return
		}

		mgr, ok := s.loadSessionManager(w, r)
		if !ok {
			return
		}

		doc := mgr.Session()
		if doc.SelectedVersion == nil || len(doc.EnhancedVersions) == 0 {
			err := fmt.Errorf("no base version selected")
			span.RecordError(err)
			writeErrorResponse(w, "No base version selected",
				"generate versions and select one before refining", http.StatusConflict)
			return
		}

		baseIndex := *doc.SelectedVersion
		if baseIndex < 0 || baseIndex >= len(doc.EnhancedVersions) {
			err := fmt.Errorf("selected version %d out of range", baseIndex)
			span.RecordError(err)
			writeErrorResponse(w, "Selected version out of range", err.Error(), http.StatusConflict)
			return
		}

		fileName := doc.SelectedFile
		if fileName == "" {
			fileName = "inline"
		}
		jobID := session.DeriveJobID(fileName, doc.OriginalContent)

		span.SetAttributes(
			attribute.String("session.id", mgr.ID()),
			attribute.Int("base_version", baseIndex),
			attribute.Bool("is_final", req.IsFinal),
			attribute.String("operation", "refine"),
		)

		metrics := om.GetMetrics()

		if final, hit := mgr.Cache().GetFinal(jobID, baseIndex); hit {
			metrics.RecordBusinessMetric(ctx, "cache_hit", true, om,
				attribute.String("operation", "refine"))
			mgr.Events().LogEnhancedVersion(final, req.IsFinal)

			span.SetAttributes(attribute.Bool("cache.hit", true))
			writeJSONResponse(w, span, RefineResponse{
				SessionID:    mgr.ID(),
				FinalVersion: final,
				IsFinal:      req.IsFinal,
				Cached:       true,
			})
			return
		}
		metrics.RecordBusinessMetric(ctx, "cache_miss", true, om,
			attribute.String("operation", "refine"))

		refineConfig := s.AppConfig.GetRefineConfig()
		aiService, err := ai.NewService(&refineConfig, "refine", s.Logger)
		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "service_creation"))
			writeErrorResponse(w, "Failed to create AI service", err.Error(), http.StatusInternalServerError)
			return
		}

		input := types.RefineJobInput{
			JobDescription: doc.OriginalContent,
			BaseVersion:    doc.EnhancedVersions[baseIndex],
			Feedback:       feedbackItems(doc.FeedbackHistory),
		}

		var result types.RefineJobOutput
		err = metrics.TrackAIOperationWithTokens(ctx, "refine", func(ctx context.Context) *observability.AIOperationResult {
			output, tokenUsage, aiErr := aiService.Provider.RefineJob(ctx, input)
			result = output
			return &observability.AIOperationResult{
				Error:      aiErr,
				TokenUsage: (*observability.TokenUsage)(tokenUsage),
			}
		}, om)

		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "ai_processing"))
			metrics.RecordBusinessMetric(ctx, "job_refined", false, om,
				attribute.String("error", err.Error()))
			writeErrorResponse(w, "Failed to refine job description", err.Error(), http.StatusInternalServerError)
			return
		}

		mgr.Cache().PutFinal(jobID, baseIndex, result.FinalVersion)
		mgr.Events().LogEnhancedVersion(result.FinalVersion, req.IsFinal)

		metrics.RecordBusinessMetric(ctx, "job_refined", true, om,
			attribute.Int("feedback_count", len(input.Feedback)))

		span.SetAttributes(
			attribute.Bool("success", true),
			attribute.Bool("cache.hit", false),
			attribute.Int("response.final_length", len(result.FinalVersion)),
		)

		writeJSONResponse(w, span, RefineResponse{
			SessionID:      mgr.ID(),
			FinalVersion:   result.FinalVersion,
			ChangesSummary: result.ChangesSummary,
			IsFinal:        req.IsFinal,
		})
	}
}

// feedbackItems converts stored feedback entries to the AI input shape.
func feedbackItems(entries []session.FeedbackEntry) []types.FeedbackItem {
	if len(entries) == 0 {
		return nil
	}
	items := make([]types.FeedbackItem, len(entries))
	for i, e := range entries {
		items[i] = types.FeedbackItem{
			Feedback: e.Feedback,
			Type:     e.Type,
			Role:     e.Role,
		}
	}
	return items
}

// writeJSONResponse encodes v as the JSON response body.
func writeJSONResponse(w http.ResponseWriter, span oteltrace.Span, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		span.RecordError(err)
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// createRateLimitMiddleware adds observability to rate limiting
func (s *Server) createRateLimitMiddleware(om *observability.ObservabilityManager) func(http.HandlerFunc) http.HandlerFunc {
	originalMiddleware := s.rateLimitMiddleware()

	return func(next http.HandlerFunc) http.HandlerFunc {
		return originalMiddleware(func(w http.ResponseWriter, r *http.Request) {
			// Wrap the ResponseWriter to detect rate limit responses
			wrapper := &responseWrapper{ResponseWriter: w, statusCode: 200}

			next(wrapper, r)

			if wrapper.statusCode == http.StatusTooManyRequests {
				metrics := om.GetMetrics()
				metrics.RecordBusinessMetric(r.Context(), "rate_limit_hit", true, om,
					attribute.String("endpoint", r.URL.Path),
					attribute.String("method", r.Method))
			}
		})
	}
}

// responseWrapper wraps http.ResponseWriter to capture status code
type responseWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWrapper) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
