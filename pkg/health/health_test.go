package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCheck_AllHealthy(t *testing.T) {
	c := NewChecker("sheetbot", "1.0.0")
	c.Register("db", func(context.Context) error { return nil })

	res := c.Check(context.Background())
	if res.Status != StatusHealthy {
		t.Fatalf("expected healthy, got %s", res.Status)
	}
	if res.Details["db"] != "ok" {
		t.Errorf("expected db ok, got %q", res.Details["db"])
	}
}

func TestReadinessHandler_Unhealthy(t *testing.T) {
	c := NewChecker("sheetbot", "1.0.0")
	c.Register("db", func(context.Context) error { return errors.New("locked") })

	rec := httptest.NewRecorder()
	c.ReadinessHandler()(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestStatusHandler_HidesDetails(t *testing.T) {
	c := NewChecker("sheetbot", "1.0.0")
	c.Register("db", func(context.Context) error { return errors.New("disk I/O error at /data") })

	rec := httptest.NewRecorder()
	c.StatusHandler()(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if body["status"] != string(StatusUnhealthy) {
		t.Errorf("expected unhealthy status, got %v", body["status"])
	}
	if body["service"] != "sheetbot" {
		t.Errorf("expected service name, got %v", body["service"])
	}
	if _, ok := body["details"]; ok {
		t.Error("details must not be exposed on the status endpoint")
	}
}
