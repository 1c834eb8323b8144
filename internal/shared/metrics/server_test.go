package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHealthz(t *testing.T) {
	tests := []struct {
		name     string
		health   HealthFunc
		wantCode int
		wantBody string
	}{
		{"no checks", nil, http.StatusOK, "ok"},
		{"healthy", Checks(map[string]HealthFunc{"pg": func(context.Context) error { return nil }}), http.StatusOK, "ok"},
		{"unhealthy", Checks(map[string]HealthFunc{"redis": func(context.Context) error { return errors.New("down") }}), http.StatusServiceUnavailable, "redis: down"},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		Handler(tt.health).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		if rec.Code != tt.wantCode {
			t.Errorf("%s: status %d, want %d", tt.name, rec.Code, tt.wantCode)
		}
		if !strings.Contains(rec.Body.String(), tt.wantBody) {
			t.Errorf("%s: body %q, want %q", tt.name, rec.Body.String(), tt.wantBody)
		}
	}
}

func TestMetricsEndpoint(t *testing.T) {
	rec := httptest.NewRecorder()
	Handler(nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
}
