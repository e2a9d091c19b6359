package server

import "fmt"

// displayServerInfo shows server configuration information
func (s *Server) displayServerInfo() {
	s.displayEndpoints()
	s.displaySessionInfo()
	s.displayAuthInfo()
	s.displayRequestLimitInfo()
	s.displayRateLimitInfo()
}

// displayEndpoints shows available API endpoints
func (s *Server) displayEndpoints() {
	fmt.Println("Available endpoints:")
	fmt.Println("  GET    /health                  - Health check")
	fmt.Println("  GET    /stats                   - Server statistics")
	fmt.Println("  POST   /sessions                - Start a session")
	fmt.Println("  GET    /sessions                - List sessions")
	fmt.Println("  GET    /sessions/{id}           - Session document")
	fmt.Println("  DELETE /sessions/{id}           - Delete a session")
	fmt.Println("  GET    /sessions/{id}/report    - Plain-text audit report")
	fmt.Println("  POST   /sessions/{id}/enhance   - Generate candidate versions")
	fmt.Println("  POST   /sessions/{id}/select    - Select a base version")
	fmt.Println("  POST   /sessions/{id}/feedback  - Record reviewer feedback")
	fmt.Println("  POST   /sessions/{id}/refine    - Generate refined version")
}

// displaySessionInfo shows session retention configuration
func (s *Server) displaySessionInfo() {
	sessionCfg := s.AppConfig.Session
	fmt.Printf("Session logs directory: %s\n", sessionCfg.LogsDir)
	if sessionCfg.MaxSessions > 0 || sessionCfg.MaxAge > 0 {
		fmt.Printf("Session retention: max %d sessions, max age %s (pruned every %s)\n",
			sessionCfg.MaxSessions, sessionCfg.MaxAge, sessionCfg.PruneInterval)
	} else {
		fmt.Println("Session retention: unlimited (pruning disabled)")
	}
}

// displayAuthInfo shows authentication configuration
func (s *Server) displayAuthInfo() {
	if len(s.APIKeys) > 0 {
		fmt.Printf("API authentication: ENABLED (%d keys configured)\n", len(s.APIKeys))
		fmt.Println("Include 'X-API-Key: <your-key>' header in requests to session endpoints")
	} else {
		fmt.Println("API authentication: DISABLED (no API keys configured)")
		fmt.Println("WARNING: API endpoints are publicly accessible!")
	}
}

// displayRequestLimitInfo shows request size limit configuration
func (s *Server) displayRequestLimitInfo() {
	if s.MaxRequestSize > 0 {
		fmt.Printf("Request size limit: %d bytes (%.1f MB)\n", s.MaxRequestSize, float64(s.MaxRequestSize)/(1024*1024))
	} else {
		fmt.Println("Request size limit: DISABLED")
		fmt.Println("WARNING: No request size limits configured!")
	}
}

// displayRateLimitInfo shows rate limiting configuration
func (s *Server) displayRateLimitInfo() {
	if s.RateLimit != nil && s.RateLimit.Enabled {
		fmt.Printf("Rate limiting: ENABLED (%d requests/min, burst: %d)\n",
			s.RateLimit.RequestsPerMin, s.RateLimit.BurstCapacity)
		if s.RateLimit.ByAPIKey {
			fmt.Println("  - Per API key rate limiting enabled")
		}
		if s.RateLimit.ByIP {
			fmt.Println("  - Per IP address rate limiting enabled")
		}
	} else {
		fmt.Println("Rate limiting: DISABLED")
		fmt.Println("WARNING: No rate limiting configured!")
	}
}
