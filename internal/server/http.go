package server

import (
	"time"

	"jdoptim/internal/config"
	jdoptimErrors "jdoptim/internal/errors"
	"jdoptim/internal/session"
)

// EnhanceRequest is the body for POST /sessions/{id}/enhance.
type EnhanceRequest struct {
	JobDescription string `json:"jobDescription"`
	FileName       string `json:"fileName,omitempty"`
}

// SelectRequest is the body for POST /sessions/{id}/select.
type SelectRequest struct {
	VersionIndex int `json:"versionIndex"`
}

// FeedbackRequest is the body for POST /sessions/{id}/feedback.
type FeedbackRequest struct {
	Feedback string `json:"feedback"`
	Type     string `json:"type,omitempty"`
	Role     string `json:"role,omitempty"`
}

// RefineRequest is the body for POST /sessions/{id}/refine.
type RefineRequest struct {
	IsFinal bool `json:"isFinal,omitempty"`
}

// CreateSessionRequest is the body for POST /sessions.
type CreateSessionRequest struct {
	Username string `json:"username,omitempty"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// Server holds configuration for the HTTP server
type Server struct {
	Host    string
	Port    string
	Version string

	// Full application configuration
	AppConfig *config.Config

	// TLS Configuration
	TLSConfig config.TLSConfig

	// Certificate management
	CertificateManager *CertificateManager

	// Session persistence
	SessionStore *session.Store
	Pruner       *session.Pruner

	// API Authentication
	APIKeys map[string]bool

	// Timeout configurations
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// Request size limit
	MaxRequestSize int64

	// Rate limiting
	RateLimit   *config.RateLimitConfig
	RateLimiter *LimiterManager

	// Logger
	Logger *jdoptimErrors.Logger
}

// ServerConfig holds configuration for creating a Server instance
type ServerConfig struct {
	Host           string
	Port           string
	Version        string
	TLSConfig      config.TLSConfig
	APIKeys        []string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxRequestSize int64
	RateLimit      *config.RateLimitConfig
}

// NewServer creates a new Server instance from a ServerConfig struct
func NewServer(appCfg *config.Config, cfg ServerConfig, logger *jdoptimErrors.Logger) *Server {
	// Convert API keys slice to map for O(1) lookup
	apiKeyMap := make(map[string]bool)
	for _, key := range cfg.APIKeys {
		if key != "" {
			apiKeyMap[key] = true
		}
	}

	var rateLimiter *LimiterManager
	if cfg.RateLimit != nil && cfg.RateLimit.Enabled {
		rateLimiter = NewLimiterManager(
			cfg.RateLimit.RequestsPerMin,
			cfg.RateLimit.BurstCapacity,
			cfg.RateLimit.Window,
			logger,
		)
	}

	store := session.NewStore(appCfg.Session.LogsDir, logger)

	return &Server{
		Host:           cfg.Host,
		Port:           cfg.Port,
		Version:        cfg.Version,
		AppConfig:      appCfg,
		TLSConfig:      cfg.TLSConfig,
		SessionStore:   store,
		APIKeys:        apiKeyMap,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxRequestSize: cfg.MaxRequestSize,
		RateLimit:      cfg.RateLimit,
		RateLimiter:    rateLimiter,
		Logger:         logger,
	}
}
