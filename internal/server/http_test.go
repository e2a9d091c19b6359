package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	apperrors "jdoptim/internal/errors"
	"jdoptim/internal/session"
)

func newTestLogger(t *testing.T) *apperrors.Logger {
	t.Helper()
	logger, err := apperrors.New("error")
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}
	return logger
}

func newTestServer(t *testing.T, apiKeys map[string]bool) *Server {
	t.Helper()
	logger := newTestLogger(t)
	return &Server{
		APIKeys:      apiKeys,
		SessionStore: session.NewStore(t.TempDir(), logger),
		Logger:       logger,
	}
}

func TestAuthMiddlewareNoKeysConfigured(t *testing.T) {
	s := newTestServer(t, nil)

	called := false
	handler := s.authMiddleware(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	req := httptest.NewRequest(http.MethodGet, "/sessions", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	if !called {
		t.Error("expected handler to be called when no API keys are configured")
	}
}

func TestAuthMiddleware(t *testing.T) {
	s := newTestServer(t, map[string]bool{"secret-key-12345": true})

	handler := s.authMiddleware(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name       string
		header     string
		value      string
		wantStatus int
	}{
		{"missing key", "", "", http.StatusUnauthorized},
		{"invalid key", "X-API-Key", "wrong-key", http.StatusUnauthorized},
		{"valid key", "X-API-Key", "secret-key-12345", http.StatusOK},
		{"valid bearer token", "Authorization", "Bearer secret-key-12345", http.StatusOK},
		{"invalid bearer token", "Authorization", "Bearer wrong-key", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/sessions", nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			rec := httptest.NewRecorder()
			handler(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestMaskAPIKey(t *testing.T) {
	tests := []struct {
		apiKey string
		want   string
	}{
		{"short", "****"},
		{"12345678", "****"},
		{"123456789abcdef", "12345678****"},
	}

	for _, tt := range tests {
		if got := maskAPIKey(tt.apiKey); got != tt.want {
			t.Errorf("maskAPIKey(%q) = %q, want %q", tt.apiKey, got, tt.want)
		}
	}
}

func TestRequestSizeLimitMiddleware(t *testing.T) {
	s := newTestServer(t, nil)
	s.MaxRequestSize = 32

	handler := s.requestSizeLimitMiddleware()(func(w http.ResponseWriter, r *http.Request) {
		var v map[string]any
		if err := parseJSONRequest(r, &v); err != nil {
			writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	t.Run("body within limit", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/sessions", strings.NewReader(`{"a":1}`))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		handler(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
		}
	})

	t.Run("body over limit", func(t *testing.T) {
		body := `{"a":"` + strings.Repeat("x", 100) + `"}`
		req := httptest.NewRequest(http.MethodPost, "/sessions", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		handler(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
		}
		var resp ErrorResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to decode error response: %v", err)
		}
		if !strings.Contains(resp.Message, "request body too large") {
			t.Errorf("message = %q, want body-too-large error", resp.Message)
		}
	})
}

func TestParseJSONRequestContentType(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/sessions", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "text/plain")

	var v map[string]any
	if err := parseJSONRequest(req, &v); err == nil {
		t.Error("expected error for non-JSON content type")
	}
}

func TestLoadSessionManager(t *testing.T) {
	s := newTestServer(t, nil)

	mgr, err := session.New(s.SessionStore, s.Logger, "recruiter")
	if err != nil {
		t.Fatalf("failed to create session: %v", err)
	}

	t.Run("existing session", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/sessions/"+mgr.ID(), nil)
		req.SetPathValue("id", mgr.ID())
		rec := httptest.NewRecorder()

		loaded, ok := s.loadSessionManager(rec, req)
		if !ok {
			t.Fatalf("expected session to load, got status %d", rec.Code)
		}
		if loaded.ID() != mgr.ID() {
			t.Errorf("loaded ID = %q, want %q", loaded.ID(), mgr.ID())
		}
	})

	t.Run("missing session", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/sessions/nope", nil)
		req.SetPathValue("id", "nope")
		rec := httptest.NewRecorder()

		if _, ok := s.loadSessionManager(rec, req); ok {
			t.Fatal("expected load to fail for unknown session")
		}
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
		}
	})

	t.Run("missing id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/sessions/", nil)
		rec := httptest.NewRecorder()

		if _, ok := s.loadSessionManager(rec, req); ok {
			t.Fatal("expected load to fail without an id")
		}
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
		}
	})
}

func TestRateLimiterBurst(t *testing.T) {
	limiter := NewLimiterManager(60, 2, time.Minute, nil)
	defer limiter.Close()

	if !limiter.Allow("client-a") {
		t.Error("first request should be allowed")
	}
	if !limiter.Allow("client-a") {
		t.Error("second request should be allowed within burst")
	}
	if limiter.Allow("client-a") {
		t.Error("third request should exceed burst capacity")
	}

	// Other keys get their own bucket.
	if !limiter.Allow("client-b") {
		t.Error("request from a different key should be allowed")
	}
}

func TestRateLimiterStats(t *testing.T) {
	limiter := NewLimiterManager(120, 5, time.Minute, nil)
	defer limiter.Close()

	limiter.Allow("a")
	limiter.Allow("b")

	stats := limiter.GetStats()
	if stats["active_limiters"] != 2 {
		t.Errorf("active_limiters = %v, want 2", stats["active_limiters"])
	}
	if stats["rate_per_minute"] != 120.0 {
		t.Errorf("rate_per_minute = %v, want 120", stats["rate_per_minute"])
	}
	if stats["burst_capacity"] != 5 {
		t.Errorf("burst_capacity = %v, want 5", stats["burst_capacity"])
	}
}

func TestGetRateLimitKey(t *testing.T) {
	newReq := func(headers map[string]string) *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "192.0.2.10:4242"
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		return req
	}

	tests := []struct {
		name     string
		headers  map[string]string
		byAPIKey bool
		byIP     bool
		want     string
	}{
		{"api key header", map[string]string{"X-API-Key": "k1"}, true, true, "api:k1"},
		{"bearer token", map[string]string{"Authorization": "Bearer k2"}, true, false, "api:k2"},
		{"falls back to ip", nil, true, true, "ip:192.0.2.10"},
		{"ip only", map[string]string{"X-API-Key": "k1"}, false, true, "ip:192.0.2.10"},
		{"nothing enabled", nil, false, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := getRateLimitKey(newReq(tt.headers), tt.byAPIKey, tt.byIP); got != tt.want {
				t.Errorf("getRateLimitKey() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{"remote addr", "203.0.113.5:1234", nil, "203.0.113.5"},
		{"x-forwarded-for", "203.0.113.5:1234", map[string]string{"X-Forwarded-For": "198.51.100.7, 10.0.0.1"}, "198.51.100.7"},
		{"x-real-ip", "203.0.113.5:1234", map[string]string{"X-Real-IP": "198.51.100.9"}, "198.51.100.9"},
		{"invalid forwarded falls through", "203.0.113.5:1234", map[string]string{"X-Forwarded-For": "not-an-ip"}, "203.0.113.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if got := getClientIP(req); got != tt.want {
				t.Errorf("getClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseFirstIP(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"198.51.100.7", "198.51.100.7"},
		{" 198.51.100.7 , 10.0.0.1", "198.51.100.7"},
		{"garbage, 10.0.0.1", "10.0.0.1"},
		{"garbage", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := parseFirstIP(tt.input); got != tt.want {
			t.Errorf("parseFirstIP(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
