package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"trackhigh/internal/config"
	apierrors "trackhigh/internal/errors"
	"trackhigh/internal/search"
	"trackhigh/internal/services"
	"trackhigh/internal/shared/testutil"
	"trackhigh/internal/store"
	"trackhigh/pkg/contracts/domain"
)

// MockDashboardService is a mock implementation of DashboardServiceInterface
type MockDashboardService struct {
	mock.Mock
}

func (m *MockDashboardService) Records() ([]domain.Record, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Record), args.Error(1)
}

func (m *MockDashboardService) View(ctx context.Context, spec domain.FilterSpec) (domain.View, error) {
	args := m.Called(spec)
	return args.Get(0).(domain.View), args.Error(1)
}

func (m *MockDashboardService) Options(spec domain.FilterSpec) (domain.OptionSet, error) {
	args := m.Called(spec)
	return args.Get(0).(domain.OptionSet), args.Error(1)
}

func (m *MockDashboardService) Highs(symbols []string) ([]domain.StockHighs, error) {
	args := m.Called(symbols)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.StockHighs), args.Error(1)
}

func (m *MockDashboardService) UniqueValues(column domain.Column) ([]string, error) {
	args := m.Called(column)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockDashboardService) MonthOptions() ([]string, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockDashboardService) DefaultFilter() (domain.FilterSpec, error) {
	args := m.Called()
	return args.Get(0).(domain.FilterSpec), args.Error(1)
}

func (m *MockDashboardService) SearchSymbols(query string, limit int) ([]search.Match, error) {
	args := m.Called(query, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]search.Match), args.Error(1)
}

func (m *MockDashboardService) Status() services.Status {
	return m.Called().Get(0).(services.Status)
}

func (m *MockDashboardService) Reload(ctx context.Context) (*store.Snapshot, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.Snapshot), args.Error(1)
}

var errNotLoaded = apierrors.NewUnavailableError("no data loaded", services.ErrNotLoaded)

func newTestRouter(svc DashboardServiceInterface) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewDashboardHandler(svc, config.ExportConfig{IncludeBOM: false}, logger, apierrors.NewErrorHandler(logger, false))

	r := chi.NewRouter()
	r.Mount("/api", h.Routes())
	return r
}

func doRequest(t *testing.T, handler http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func TestDashboardHandler_GetRecords(t *testing.T) {
	records := []domain.Record{
		testutil.NewRecord("ABC", "2024-12-01"),
		testutil.NewRecord("XYZ", "2024-12-01"),
	}

	tests := []struct {
		name       string
		setupMock  func(*MockDashboardService)
		wantStatus int
		wantType   string
	}{
		{
			name: "success",
			setupMock: func(m *MockDashboardService) {
				m.On("Records").Return(records, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "not loaded",
			setupMock: func(m *MockDashboardService) {
				m.On("Records").Return(nil, errNotLoaded)
			},
			wantStatus: http.StatusServiceUnavailable,
			wantType:   apierrors.TypeNoData,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockDashboardService)
			tt.setupMock(svc)

			rec := doRequest(t, newTestRouter(svc), http.MethodGet, "/api/records", "")

			assert.Equal(t, tt.wantStatus, rec.Code)
			body := decodeBody(t, rec)
			if tt.wantType != "" {
				assert.Equal(t, tt.wantType, body["type"])
			} else {
				assert.Equal(t, "success", body["status"])
				assert.Equal(t, float64(2), body["count"])
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestDashboardHandler_PostView(t *testing.T) {
	view := domain.View{ViewType: domain.ViewMonth, Total: 4}

	tests := []struct {
		name        string
		body        string
		contentType string
		setupMock   func(*MockDashboardService)
		wantStatus  int
	}{
		{
			name: "month view",
			body: `{"view_type":"month","selected_month":"December 2024","selected_sector":"Energy","rank_by":"occurrences"}`,
			setupMock: func(m *MockDashboardService) {
				m.On("View", mock.MatchedBy(func(spec domain.FilterSpec) bool {
					return spec.ViewType == domain.ViewMonth &&
						spec.SelectedMonth == "December 2024" &&
						spec.SelectedSector == "Energy" &&
						spec.RankBy == domain.RankByOccurrences
				})).Return(view, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:       "unknown view type",
			body:       `{"view_type":"heatmap"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "bad date",
			body:       `{"view_type":"specific_date","selected_date":"12/01/2024"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "malformed json",
			body:       `{"view_type":`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:        "wrong content type",
			body:        `view_type=month`,
			contentType: "application/x-www-form-urlencoded",
			wantStatus:  http.StatusUnsupportedMediaType,
		},
		{
			name: "not loaded",
			body: `{"view_type":"month"}`,
			setupMock: func(m *MockDashboardService) {
				m.On("View", mock.Anything).Return(domain.View{}, errNotLoaded)
			},
			wantStatus: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockDashboardService)
			if tt.setupMock != nil {
				tt.setupMock(svc)
			}

			req := httptest.NewRequest(http.MethodPost, "/api/view", strings.NewReader(tt.body))
			contentType := tt.contentType
			if contentType == "" {
				contentType = "application/json"
			}
			req.Header.Set("Content-Type", contentType)
			rec := httptest.NewRecorder()
			newTestRouter(svc).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.wantStatus == http.StatusOK {
				data := decodeBody(t, rec)["data"].(map[string]interface{})
				assert.Equal(t, "month", data["view_type"])
				assert.Equal(t, float64(4), data["total_records"])
			}
			if tt.setupMock == nil {
				svc.AssertNotCalled(t, "View", mock.Anything)
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestDashboardHandler_PostOptions(t *testing.T) {
	svc := new(MockDashboardService)
	svc.On("Options", mock.MatchedBy(func(spec domain.FilterSpec) bool {
		return spec.SelectedDate != nil && spec.SelectedDate.Day() == 2
	})).Return(domain.OptionSet{Sectors: []string{"All", "Energy"}}, nil)

	rec := doRequest(t, newTestRouter(svc), http.MethodPost, "/api/options",
		`{"view_type":"specific_date","selected_date":"2024-12-02"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeBody(t, rec)["data"].(map[string]interface{})
	assert.Equal(t, []interface{}{"All", "Energy"}, data["sectors"])
	svc.AssertExpectations(t)
}

func TestDashboardHandler_Lookups(t *testing.T) {
	svc := new(MockDashboardService)
	svc.On("MonthOptions").Return([]string{"December 2024", "January 2025"}, nil)
	svc.On("UniqueValues", domain.ColumnSeriesType).Return([]string{"BE", "EQ"}, nil)
	svc.On("DefaultFilter").Return(domain.FilterSpec{
		ViewType:     domain.ViewSpecificDate,
		SelectedDate: testutil.Date("2025-01-03"),
		SortBy:       domain.SortNone,
		RankBy:       domain.RankByReturns,
	}, nil)
	svc.On("Status").Return(services.Status{Loaded: true, Source: "test://feed"})
	router := newTestRouter(svc)

	tests := []struct {
		name       string
		target     string
		wantStatus int
		check      func(t *testing.T, body map[string]interface{})
	}{
		{
			name:       "months",
			target:     "/api/months",
			wantStatus: http.StatusOK,
			check: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, float64(2), body["count"])
			},
		},
		{
			name:       "series values",
			target:     "/api/values/series",
			wantStatus: http.StatusOK,
			check: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "series_type", body["column"])
				assert.Equal(t, []interface{}{"BE", "EQ"}, body["data"])
			},
		},
		{
			name:       "unknown column",
			target:     "/api/values/price",
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "default filter",
			target:     "/api/filters/default",
			wantStatus: http.StatusOK,
			check: func(t *testing.T, body map[string]interface{}) {
				data := body["data"].(map[string]interface{})
				assert.Equal(t, "specific_date", data["view_type"])
				assert.Equal(t, "2025-01-03", data["selected_date"])
			},
		},
		{
			name:       "status",
			target:     "/api/status",
			wantStatus: http.StatusOK,
			check: func(t *testing.T, body map[string]interface{}) {
				data := body["data"].(map[string]interface{})
				assert.Equal(t, true, data["loaded"])
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, router, http.MethodGet, tt.target, "")
			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.check != nil {
				tt.check(t, decodeBody(t, rec))
			}
		})
	}
}

func TestDashboardHandler_SearchSymbols(t *testing.T) {
	svc := new(MockDashboardService)
	svc.On("SearchSymbols", "baj", 5).Return([]search.Match{{Symbol: "BAJAJ-AUTO", Score: 1.5}}, nil)
	svc.On("SearchSymbols", "", 20).Return([]search.Match{}, nil)
	router := newTestRouter(svc)

	tests := []struct {
		target     string
		wantStatus int
		wantCount  float64
	}{
		{"/api/symbols?q=baj&limit=5", http.StatusOK, 1},
		{"/api/symbols", http.StatusOK, 0},
		{"/api/symbols?q=baj&limit=0", http.StatusBadRequest, 0},
		{"/api/symbols?q=baj&limit=many", http.StatusBadRequest, 0},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			rec := doRequest(t, router, http.MethodGet, tt.target, "")
			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, tt.wantCount, decodeBody(t, rec)["count"])
			}
		})
	}
	svc.AssertExpectations(t)
}

func TestDashboardHandler_GetStockHighs(t *testing.T) {
	high := testutil.NewRecord("ABC", "2024-12-02", testutil.WithHigh(), testutil.WithPrice(110))
	stock := domain.StockHighs{
		Symbol: "ABC",
		Series: []domain.Record{testutil.NewRecord("ABC", "2024-12-01"), high},
		Highs:  []domain.Record{high},
	}
	stock.HighestPrice = high.Price

	svc := new(MockDashboardService)
	svc.On("Highs", []string{"ABC"}).Return([]domain.StockHighs{stock}, nil)
	svc.On("Highs", []string{"NOPE"}).Return([]domain.StockHighs{{Symbol: "NOPE"}}, nil)
	router := newTestRouter(svc)

	rec := doRequest(t, router, http.MethodGet, "/api/stocks/abc/highs", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	summary := body["summary"].(map[string]interface{})
	assert.Equal(t, float64(1), summary["high_points"])
	assert.Equal(t, float64(110), summary["highest_price"])

	rec = doRequest(t, router, http.MethodGet, "/api/stocks/nope/highs", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, apierrors.TypeNotFound, decodeBody(t, rec)["type"])

	svc.AssertExpectations(t)
}

func TestDashboardHandler_PostReload(t *testing.T) {
	snap := &store.Snapshot{LoadID: uuid.New(), LoadedAt: time.Now()}

	tests := []struct {
		name       string
		setupMock  func(*MockDashboardService)
		wantStatus int
		wantType   string
	}{
		{
			name: "success",
			setupMock: func(m *MockDashboardService) {
				m.On("Reload").Return(snap, nil)
				m.On("Status").Return(services.Status{Loaded: true})
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "feed unreachable",
			setupMock: func(m *MockDashboardService) {
				m.On("Reload").Return(nil, apierrors.NewNetworkError("feed request failed", errors.New("connection refused")))
			},
			wantStatus: http.StatusBadGateway,
			wantType:   apierrors.TypeFeedUnavailable,
		},
		{
			name: "feed malformed",
			setupMock: func(m *MockDashboardService) {
				m.On("Reload").Return(nil, apierrors.NewParsingError("missing required columns", nil))
			},
			wantStatus: http.StatusBadGateway,
			wantType:   apierrors.TypeFeedMalformed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockDashboardService)
			tt.setupMock(svc)

			rec := doRequest(t, newTestRouter(svc), http.MethodPost, "/api/reload", "")

			assert.Equal(t, tt.wantStatus, rec.Code)
			body := decodeBody(t, rec)
			if tt.wantType != "" {
				assert.Equal(t, tt.wantType, body["type"])
			} else {
				assert.Equal(t, snap.LoadID.String(), body["load_id"])
			}
			svc.AssertExpectations(t)
		})
	}
}
