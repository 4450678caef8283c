package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/snarg/autoscribe/internal/ingest"
)

// LiveData is what the handlers read from the running pipeline at request time.
type LiveData interface {
	WatcherStatus() ingest.WatcherStatus
	InFlight() int
	Processed() int64
	Failed() int64
	NotifierConnected() *bool // nil when MQTT is not configured
}

type HealthResponse struct {
	Status        string            `json:"status"`
	Version       string            `json:"version"`
	UptimeSeconds int64             `json:"uptime_seconds"`
	Checks        map[string]string `json:"checks"`
}

type StatusResponse struct {
	Watcher   ingest.WatcherStatus `json:"watcher"`
	InFlight  int                  `json:"in_flight"`
	Processed int64                `json:"processed"`
	Failed    int64                `json:"failed"`
	Model     string               `json:"model"`
	Provider  string               `json:"provider"`
}

type HealthHandler struct {
	live      LiveData
	version   string
	startTime time.Time
}

func NewHealthHandler(live LiveData, version string, startTime time.Time) *HealthHandler {
	return &HealthHandler{
		live:      live,
		version:   version,
		startTime: startTime,
	}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]string)
	status := "healthy"
	httpStatus := http.StatusOK

	ws := h.live.WatcherStatus()
	checks["watcher"] = ws.Status
	if ws.Status == "stopped" {
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	}

	if connected := h.live.NotifierConnected(); connected == nil {
		checks["mqtt"] = "not_configured"
	} else if *connected {
		checks["mqtt"] = "ok"
	} else {
		checks["mqtt"] = "disconnected"
		if status == "healthy" {
			status = "degraded"
		}
	}

	resp := HealthResponse{
		Status:        status,
		Version:       h.version,
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		Checks:        checks,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)
	json.NewEncoder(w).Encode(resp)
}
