package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/snarg/autoscribe/internal/ingest"
)

type fakeLive struct {
	watcherStatus string
	inFlight      int
	processed     int64
	failed        int64
	mqtt          *bool
}

func (f *fakeLive) WatcherStatus() ingest.WatcherStatus {
	return ingest.WatcherStatus{Status: f.watcherStatus, WatchDir: "/tmp/in"}
}
func (f *fakeLive) InFlight() int            { return f.inFlight }
func (f *fakeLive) Processed() int64         { return f.processed }
func (f *fakeLive) Failed() int64            { return f.failed }
func (f *fakeLive) NotifierConnected() *bool { return f.mqtt }

func TestHealthHandler(t *testing.T) {
	t.Run("healthy_without_mqtt", func(t *testing.T) {
		h := NewHealthHandler(&fakeLive{watcherStatus: "watching"}, "1.0.0", time.Now())
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest("GET", "/healthz", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		var resp HealthResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if resp.Status != "healthy" {
			t.Errorf("expected healthy, got %q", resp.Status)
		}
		if resp.Checks["mqtt"] != "not_configured" {
			t.Errorf("expected mqtt not_configured, got %q", resp.Checks["mqtt"])
		}
	})

	t.Run("degraded_when_mqtt_down", func(t *testing.T) {
		down := false
		h := NewHealthHandler(&fakeLive{watcherStatus: "watching", mqtt: &down}, "1.0.0", time.Now())
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest("GET", "/healthz", nil))

		var resp HealthResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if resp.Status != "degraded" {
			t.Errorf("expected degraded, got %q", resp.Status)
		}
		if rec.Code != http.StatusOK {
			t.Errorf("degraded should still be 200, got %d", rec.Code)
		}
	})

	t.Run("unhealthy_when_watcher_stopped", func(t *testing.T) {
		h := NewHealthHandler(&fakeLive{watcherStatus: "stopped"}, "1.0.0", time.Now())
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest("GET", "/healthz", nil))

		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("expected 503, got %d", rec.Code)
		}
	})
}

func TestStatusEndpoint(t *testing.T) {
	live := &fakeLive{watcherStatus: "watching", inFlight: 2, processed: 7, failed: 1}
	srv := NewServer(":0", live, ServerInfo{Model: "base", Provider: "local"}, "1.0.0", time.Now(), zerolog.Nop())

	rec := httptest.NewRecorder()
	srv.http.Handler.ServeHTTP(rec, httptest.NewRequest("GET", "/status", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp StatusResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.InFlight != 2 || resp.Processed != 7 || resp.Failed != 1 {
		t.Errorf("unexpected counters: %+v", resp)
	}
	if resp.Model != "base" || resp.Provider != "local" {
		t.Errorf("unexpected backend info: %+v", resp)
	}
	if resp.Watcher.Status != "watching" {
		t.Errorf("unexpected watcher status %q", resp.Watcher.Status)
	}
}
