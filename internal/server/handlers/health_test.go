package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type stubHealthChecker struct {
	err error
}

func (s stubHealthChecker) CheckHealth(ctx context.Context) error {
	return s.err
}

func TestHealthHandlerAggregatesCheckers(t *testing.T) {
	manager := NewHealthManager("1.2.3")
	manager.RegisterChecker("signal_handlers", stubHealthChecker{})
	manager.RegisterChecker("sessions_store", stubHealthChecker{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	manager.HealthHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var resp HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if resp.Status != "healthy" {
		t.Fatalf("expected healthy status, got %s", resp.Status)
	}
	if resp.Version != "1.2.3" {
		t.Fatalf("expected version 1.2.3, got %s", resp.Version)
	}
	if resp.Checks["sessions_store"] != "healthy" {
		t.Fatalf("expected sessions_store check to be healthy, got %s", resp.Checks["sessions_store"])
	}
	if resp.Checks["signal_handlers"] != "healthy" {
		t.Fatalf("expected signal_handlers check to be healthy, got %s", resp.Checks["signal_handlers"])
	}
}

func TestHealthHandlerReportsClosedStore(t *testing.T) {
	manager := NewHealthManager("1.2.3")
	manager.RegisterChecker("sessions_store", stubHealthChecker{err: errors.New("store is not open")})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	manager.HealthHandler(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", rec.Code)
	}

	var resp struct {
		Error struct {
			Code    string                 `json:"code"`
			Message string                 `json:"message"`
			Details map[string]interface{} `json:"details"`
		} `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if resp.Error.Code != "SERVICE_UNAVAILABLE" {
		t.Fatalf("expected SERVICE_UNAVAILABLE error code, got %s", resp.Error.Code)
	}

	details := resp.Error.Details
	if details == nil {
		t.Fatalf("expected error details to include probe context")
	}

	checks, ok := details["checks"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected checks in error details")
	}
	if status, ok := checks["sessions_store"].(string); !ok || status != "unhealthy" {
		t.Fatalf("expected sessions_store check to be unhealthy, got %v", checks["sessions_store"])
	}
}

func TestProbeHandlersAnswerHealthy(t *testing.T) {
	manager := NewHealthManager("dev")
	manager.RegisterChecker("sessions_store", stubHealthChecker{})

	probes := map[string]http.HandlerFunc{
		"live":    manager.LivenessHandler,
		"ready":   manager.ReadinessHandler,
		"startup": manager.StartupHandler,
	}

	for name, handler := range probes {
		req := httptest.NewRequest(http.MethodGet, "/health/"+name, nil)
		rec := httptest.NewRecorder()

		handler(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("%s probe: expected status 200, got %d", name, rec.Code)
		}

		var resp ProbeResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("%s probe: failed to decode response: %v", name, err)
		}
		if resp.Status != "healthy" {
			t.Fatalf("%s probe: expected healthy status, got %s", name, resp.Status)
		}
		if resp.Timestamp.IsZero() {
			t.Fatalf("%s probe: expected a timestamp", name)
		}
	}
}

func TestDetermineOverallStatusTreatsTimeoutAsDegraded(t *testing.T) {
	manager := NewHealthManager("dev")

	status := manager.determineOverallStatus(map[string]string{
		"sessions_store": "timeout",
	})

	if status != "degraded" {
		t.Fatalf("expected degraded status, got %s", status)
	}
}
