package ai

import (
	"testing"
	"time"

	"jdoptim/internal/config"
)

func TestIndependentCircuitBreakerConfigurations(t *testing.T) {
	// Test that each operation gets its own circuit breaker configuration
	// as specified in config.example.yaml

	enhanceConfig := &config.OperationAIConfig{
		Provider: "claude",
		Model:    "claude-sonnet-4-5",
		CircuitBreaker: config.CircuitBreakerConfig{
			Enabled:          true,
			MaxRequests:      3,
			Interval:         60 * time.Second,
			Timeout:          60 * time.Second,
			MinRequests:      3,
			FailureThreshold: 0.6,
		},
	}

	refineConfig := &config.OperationAIConfig{
		Provider: "claude",
		Model:    "claude-sonnet-4-5",
		CircuitBreaker: config.CircuitBreakerConfig{
			Enabled:          true,
			MaxRequests:      5,                // Different from enhance
			Interval:         30 * time.Second, // Different from enhance
			Timeout:          45 * time.Second, // Different from enhance
			MinRequests:      2,                // Different from enhance
			FailureThreshold: 0.7,              // Different from enhance
		},
	}

	enhanceCB := NewAICircuitBreaker("Enhance", enhanceConfig, nil)
	refineCB := NewAICircuitBreaker("Refine", refineConfig, nil)

	t.Run("EnhanceCircuitBreaker", func(t *testing.T) {
		stats := enhanceCB.GetStats()

		name, ok := stats["name"].(string)
		if !ok {
			t.Fatal("Circuit breaker name not found")
		}

		expectedName := "AI-Enhance"
		if name != expectedName {
			t.Errorf("Expected circuit breaker name '%s', got '%s'", expectedName, name)
		}

		// Verify it's in closed state initially
		state, ok := stats["state"].(string)
		if !ok {
			t.Fatal("Circuit breaker state not found")
		}
		if state != "closed" {
			t.Errorf("Expected initial state 'closed', got '%s'", state)
		}

		// Verify it's enabled
		enabled, ok := stats["enabled"].(bool)
		if !ok {
			t.Fatal("Circuit breaker enabled status not found")
		}
		if !enabled {
			t.Error("Circuit breaker should be enabled")
		}
	})

	t.Run("RefineCircuitBreaker", func(t *testing.T) {
		stats := refineCB.GetStats()

		name, ok := stats["name"].(string)
		if !ok {
			t.Fatal("Circuit breaker name not found")
		}

		expectedName := "AI-Refine"
		if name != expectedName {
			t.Errorf("Expected circuit breaker name '%s', got '%s'", expectedName, name)
		}
	})

	// Verify that circuit breakers are independent (different instances)
	t.Run("IndependentInstances", func(t *testing.T) {
		if enhanceCB == refineCB {
			t.Error("Enhance and refine circuit breakers should be different instances")
		}
	})

	// Verify that health states are independent
	t.Run("IndependentHealthStates", func(t *testing.T) {
		if !enhanceCB.IsHealthy() {
			t.Error("Enhance circuit breaker should be healthy initially")
		}
		if !refineCB.IsHealthy() {
			t.Error("Refine circuit breaker should be healthy initially")
		}
	})
}

func TestCircuitBreakerConfigurationMapping(t *testing.T) {
	// Test that configuration values are properly applied to circuit breakers

	customConfig := &config.OperationAIConfig{
		Provider: "gemini",
		Model:    "test-model",
		CircuitBreaker: config.CircuitBreakerConfig{
			Enabled:          true,
			MaxRequests:      10,
			Interval:         120 * time.Second,
			Timeout:          90 * time.Second,
			MinRequests:      5,
			FailureThreshold: 0.8,
		},
	}

	cb := NewAICircuitBreaker("Test", customConfig, nil)

	// Verify circuit breaker was created with custom configuration
	if cb == nil {
		t.Fatal("Circuit breaker should not be nil")
	}

	stats := cb.GetStats()
	if stats == nil {
		t.Fatal("Circuit breaker stats should not be nil")
	}

	// Check that the circuit breaker has the expected operation type in its name
	name, ok := stats["name"].(string)
	if !ok {
		t.Fatal("Circuit breaker name not found")
	}

	expectedName := "AI-Test"
	if name != expectedName {
		t.Errorf("Expected circuit breaker name '%s', got '%s'", expectedName, name)
	}
}

func TestCircuitBreakerDisabled(t *testing.T) {
	// Test that circuit breaker returns nil when disabled

	disabledConfig := &config.OperationAIConfig{
		Provider: "gemini",
		Model:    "test-model",
		CircuitBreaker: config.CircuitBreakerConfig{
			Enabled: false, // Disabled
		},
	}

	cb := NewAICircuitBreaker("Disabled", disabledConfig, nil)

	// Should return nil when disabled
	if cb != nil {
		t.Fatal("Circuit breaker should be nil when disabled")
	}
}

func TestDisabledBreakerExecutesDirectly(t *testing.T) {
	var cb *AICircuitBreaker

	result, err := cb.Execute(func() (*completion, error) {
		return &completion{text: "ok"}, nil
	})
	if err != nil {
		t.Fatalf("Execute with nil breaker failed: %v", err)
	}
	if result.text != "ok" {
		t.Errorf("result text = %q, want ok", result.text)
	}

	if !cb.IsHealthy() {
		t.Error("nil breaker should report healthy")
	}
	if enabled, _ := cb.GetStats()["enabled"].(bool); enabled {
		t.Error("nil breaker stats should report enabled=false")
	}
}
