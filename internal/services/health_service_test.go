package services

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubDataState struct {
	ready  bool
	status Status
}

func (s stubDataState) Ready() bool    { return s.ready }
func (s stubDataState) Status() Status { return s.status }

type stubSessions int

func (s stubSessions) ClientCount() int { return int(s) }

func TestHealthServiceReadiness(t *testing.T) {
	tests := []struct {
		name        string
		data        DataState
		sessions    SessionCounter
		wantStatus  string
		wantMessage string
	}{
		{
			name:        "no coordinator",
			wantStatus:  "not_ready",
			wantMessage: "dashboard not initialized",
		},
		{
			name:        "not loaded yet",
			data:        stubDataState{},
			wantStatus:  "not_ready",
			wantMessage: "feed not loaded",
		},
		{
			name:        "load failed",
			data:        stubDataState{status: Status{LastError: "timeout"}},
			wantStatus:  "not_ready",
			wantMessage: "feed load failed: timeout",
		},
		{
			name: "loaded",
			data: stubDataState{ready: true, status: func() Status {
				st := Status{Loaded: true, Source: "feed.csv"}
				st.Stats.Records = 42
				return st
			}()},
			sessions:    stubSessions(3),
			wantStatus:  "ready",
			wantMessage: "42 records from feed.csv",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hs := NewHealthService(tt.data, tt.sessions, slog.Default())
			got := hs.ReadinessCheck(context.Background())

			assert.Equal(t, tt.wantStatus, got.Status)
			data, ok := got.Services["data"].(ServiceHealth)
			require.True(t, ok)
			assert.Equal(t, tt.wantMessage, data.Message)
		})
	}
}

func TestHealthServiceSessions(t *testing.T) {
	hs := NewHealthService(stubDataState{ready: true}, stubSessions(2), nil)
	got := hs.ReadinessCheck(context.Background())

	ws, ok := got.Services["websocket"].(ServiceHealth)
	require.True(t, ok)
	assert.Equal(t, "ready", ws.Status)
	assert.Equal(t, "2 open sessions", ws.Message)
}

func TestHealthServiceLivenessAndVersion(t *testing.T) {
	hs := NewHealthService(nil, nil, nil)

	assert.Equal(t, "ok", hs.HealthCheck(context.Background()).Status)

	live := hs.LivenessCheck(context.Background())
	assert.Equal(t, "alive", live.Status)
	assert.Contains(t, live.Runtime, "goroutines")

	v := hs.Version()
	assert.NotEmpty(t, v["version"])
	assert.Contains(t, v, "data_format")
}
