package http

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trackhigh/internal/services"
)

type fakeDataState struct {
	ready bool
}

func (f fakeDataState) Ready() bool { return f.ready }
func (f fakeDataState) Status() services.Status {
	return services.Status{Loaded: f.ready, Source: "test://feed"}
}

func newHealthRouter(ready bool) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewHealthHandler(services.NewHealthService(fakeDataState{ready: ready}, nil, logger), logger)

	r := chi.NewRouter()
	r.Mount("/api/health", h.Routes())
	r.Get("/api/version", h.Version)
	return r
}

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name       string
		ready      bool
		target     string
		wantStatus int
		wantBody   string
	}{
		{"health", false, "/api/health", http.StatusOK, `"status":"ok"`},
		{"live", false, "/api/health/live", http.StatusOK, `"status":"alive"`},
		{"ready after load", true, "/api/health/ready", http.StatusOK, `"status":"ready"`},
		{"not ready before load", false, "/api/health/ready", http.StatusServiceUnavailable, `"status":"not_ready"`},
		{"version", false, "/api/version", http.StatusOK, `"version"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			newHealthRouter(tt.ready).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.target, nil))

			require.Equal(t, tt.wantStatus, rec.Code)
			assert.True(t, strings.Contains(rec.Body.String(), tt.wantBody), rec.Body.String())
		})
	}
}
