package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestRoot(t *testing.T) {
	c, rec := newJSONContext(http.MethodGet, "/", "")
	if err := Root(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK || rec.Body.String() != "Business units API is running" {
		t.Fatalf("unexpected response %d %q", rec.Code, rec.Body.String())
	}
}

func TestHealthHandler_Liveness(t *testing.T) {
	c, rec := newJSONContext(http.MethodGet, "/health", "")
	if err := NewHealthHandler().Liveness(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestReadinessHandler(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("connection refused") }

	tests := []struct {
		name       string
		checks     map[string]Check
		wantCode   int
		wantStatus string
	}{
		{name: "all healthy", checks: map[string]Check{"postgres": ok, "redis": ok}, wantCode: http.StatusOK, wantStatus: "ok"},
		{name: "postgres only", checks: map[string]Check{"postgres": ok}, wantCode: http.StatusOK, wantStatus: "ok"},
		{name: "redis down", checks: map[string]Check{"postgres": ok, "redis": down}, wantCode: http.StatusServiceUnavailable, wantStatus: "degraded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := newJSONContext(http.MethodGet, "/health/ready", "")
			if err := NewReadinessHandler(tt.checks, zerolog.Nop()).Readiness(c); err != nil {
				t.Fatalf("handler error: %v", err)
			}
			if rec.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d", tt.wantCode, rec.Code)
			}

			var resp readinessResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("invalid json: %v", err)
			}
			if resp.Status != tt.wantStatus {
				t.Fatalf("expected status %q, got %q", tt.wantStatus, resp.Status)
			}
			if len(resp.Dependencies) != len(tt.checks) {
				t.Fatalf("expected %d dependencies, got %+v", len(tt.checks), resp.Dependencies)
			}
		})
	}
}

func TestReadinessHandler_HidesFailureCause(t *testing.T) {
	cause := "dial tcp 10.0.3.7:5432: connect: connection refused"
	checks := map[string]Check{
		"postgres": func(context.Context) error { return errors.New(cause) },
	}

	var logs bytes.Buffer
	c, rec := newJSONContext(http.MethodGet, "/health/ready", "")
	if err := NewReadinessHandler(checks, zerolog.New(&logs)).Readiness(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	if body := rec.Body.String(); strings.Contains(body, "10.0.3.7") || strings.Contains(body, "error") {
		t.Fatalf("response leaks failure detail: %s", body)
	}

	var resp readinessResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if got := resp.Dependencies["postgres"].Status; got != "unhealthy" {
		t.Fatalf("expected postgres unhealthy, got %q", got)
	}
	if !strings.Contains(logs.String(), cause) || !strings.Contains(logs.String(), `"dependency":"postgres"`) {
		t.Fatalf("expected cause in logs, got %q", logs.String())
	}
}
