package services

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"trackhigh/pkg/contracts"
)

// DataState is the part of the coordinator the health checks read.
type DataState interface {
	Ready() bool
	Status() Status
}

// SessionCounter reports the number of open WebSocket sessions.
type SessionCounter interface {
	ClientCount() int
}

// HealthService provides health check functionality
type HealthService struct {
	version   contracts.VersionInfo
	data      DataState
	sessions  SessionCounter
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime,omitempty"`
	Services  map[string]interface{} `json:"services,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Uptime  string `json:"uptime,omitempty"`
}

// NewHealthService creates a health service. sessions may be nil.
func NewHealthService(data DataState, sessions SessionCounter, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthService{
		version:   contracts.GetVersionInfo(),
		data:      data,
		sessions:  sessions,
		startTime: time.Now(),
		logger:    logger.With(slog.String("component", "health")),
	}
}

// HealthCheck returns overall health status
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	hs.logger.DebugContext(ctx, "health check",
		slog.String("uptime", time.Since(hs.startTime).String()))

	return HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   hs.version.Version,
	}
}

// ReadinessCheck reports ready once a snapshot has been loaded.
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ready",
		Timestamp: time.Now(),
		Version:   hs.version.Version,
		Services: map[string]interface{}{
			"data":      hs.checkData(),
			"websocket": hs.checkSessions(),
		},
	}

	for _, svc := range status.Services {
		if sh, ok := svc.(ServiceHealth); ok && sh.Status != "ready" {
			status.Status = "not_ready"
			break
		}
	}
	return status
}

// LivenessCheck returns liveness status
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   hs.version.Version,
		Runtime: map[string]interface{}{
			"uptime":     time.Since(hs.startTime).Seconds(),
			"go_version": runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
		},
	}
}

// Version returns version and build information.
func (hs *HealthService) Version() map[string]interface{} {
	return map[string]interface{}{
		"version":      hs.version.Version,
		"data_format":  hs.version.DataFormat,
		"api_version":  hs.version.APIVersion,
		"build_time":   hs.version.BuildTime,
		"git_commit":   hs.version.GitCommit,
		"go_version":   runtime.Version(),
		"os":           runtime.GOOS,
		"arch":         runtime.GOARCH,
		"uptime":       time.Since(hs.startTime).Seconds(),
		"start_time":   hs.startTime.Format(time.RFC3339),
		"current_time": time.Now().Format(time.RFC3339),
	}
}

func (hs *HealthService) checkData() ServiceHealth {
	if hs.data == nil {
		return ServiceHealth{Status: "not_ready", Message: "dashboard not initialized"}
	}
	if !hs.data.Ready() {
		msg := "feed not loaded"
		if st := hs.data.Status(); st.LastError != "" {
			msg = fmt.Sprintf("feed load failed: %s", st.LastError)
		}
		return ServiceHealth{Status: "not_ready", Message: msg}
	}

	st := hs.data.Status()
	return ServiceHealth{
		Status:  "ready",
		Message: fmt.Sprintf("%d records from %s", st.Stats.Records, st.Source),
	}
}

func (hs *HealthService) checkSessions() ServiceHealth {
	h := ServiceHealth{Status: "ready", Uptime: time.Since(hs.startTime).String()}
	if hs.sessions != nil {
		h.Message = fmt.Sprintf("%d open sessions", hs.sessions.ClientCount())
	}
	return h
}
