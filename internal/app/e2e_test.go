package app

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"

	apierrors "trackhigh/internal/errors"
	"trackhigh/internal/shared/testutil"
)

// feedServer serves a feed whose body and status the test can change
type feedServer struct {
	mu     sync.Mutex
	body   string
	status int
}

func (f *feedServer) set(body string, status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.body, f.status = body, status
}

func (f *feedServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w.Header().Set("Content-Type", "text/csv")
	w.WriteHeader(f.status)
	_, _ = io.WriteString(w, f.body)
}

// DashboardE2ESuite runs the started application against an HTTP feed.
type DashboardE2ESuite struct {
	suite.Suite

	feed     *feedServer
	feedSrv  *httptest.Server
	app      *Application
	baseURL  string
	cancelFn context.CancelFunc
}

func TestDashboardE2E(t *testing.T) {
	suite.Run(t, new(DashboardE2ESuite))
}

func (s *DashboardE2ESuite) SetupSuite() {
	s.feed = &feedServer{body: testutil.SampleFeed(), status: http.StatusOK}
	s.feedSrv = httptest.NewServer(s.feed)

	cfg := testConfig(s.T(), "")
	cfg.Feed.URL = s.feedSrv.URL + "/Data.csv"
	cfg.Security.RateLimit.Enabled = false

	a, err := New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.Require().NoError(err)
	s.app = a

	ctx, cancel := context.WithCancel(context.Background())
	s.cancelFn = cancel
	s.Require().NoError(a.Start(ctx, cancel))
	s.Require().True(a.Dashboard.Ready())
	s.baseURL = "http://" + a.Addr()
}

func (s *DashboardE2ESuite) TearDownSuite() {
	s.NoError(s.app.Stop(context.Background()))
	s.cancelFn()
	s.feedSrv.Close()
}

// SetupTest restores the sample feed and reloads it
func (s *DashboardE2ESuite) SetupTest() {
	s.feed.set(testutil.SampleFeed(), http.StatusOK)
	_, err := s.app.Dashboard.Reload(context.Background())
	s.Require().NoError(err)
}

func (s *DashboardE2ESuite) post(path, body string) (*http.Response, map[string]interface{}) {
	resp, err := http.Post(s.baseURL+path, "application/json", strings.NewReader(body))
	s.Require().NoError(err)
	defer resp.Body.Close()

	var out map[string]interface{}
	if strings.Contains(resp.Header.Get("Content-Type"), "json") {
		s.Require().NoError(json.NewDecoder(resp.Body).Decode(&out))
	}
	return resp, out
}

func (s *DashboardE2ESuite) viewTotal(date string) float64 {
	resp, body := s.post("/api/view", `{"view_type":"specific_date","selected_date":"`+date+`"}`)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	data, ok := body["data"].(map[string]interface{})
	s.Require().True(ok, "data object expected")
	total, _ := data["total_records"].(float64)
	return total
}

func (s *DashboardE2ESuite) TestViewFromFeed() {
	s.Equal(float64(2), s.viewTotal("2024-12-01"))
	s.Equal(float64(1), s.viewTotal("2024-12-02"))
	s.Equal(float64(0), s.viewTotal("2024-12-03"))
}

func (s *DashboardE2ESuite) TestReloadPicksUpNewRows() {
	extra := testutil.FeedCSV(testutil.FeedRow{
		"Today's Date": "03-Dec-24", "Symbol": "NEW", "Sector": "Banks", "Industry": "Private Bank",
		"Series Type": "EQ", "LTP": "10", "High52W": "Yes",
	})
	// drop the header of the extra row
	s.feed.set(testutil.SampleFeed()+extra[strings.Index(extra, "\n")+1:], http.StatusOK)

	resp, body := s.post("/api/reload", "")
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	s.Equal("success", body["status"])
	s.NotEmpty(body["load_id"])

	s.Equal(float64(1), s.viewTotal("2024-12-03"))
}

func (s *DashboardE2ESuite) TestFailedReloadKeepsSnapshot() {
	s.feed.set("upstream down", http.StatusInternalServerError)

	resp, body := s.post("/api/reload", "")
	s.Equal(http.StatusBadGateway, resp.StatusCode)
	s.Equal(apierrors.TypeFeedUnavailable, body["type"])

	s.Equal(float64(2), s.viewTotal("2024-12-01"))
}

func (s *DashboardE2ESuite) TestExportWorkbook() {
	resp, err := http.Post(s.baseURL+"/api/export?format=xlsx", "application/json",
		strings.NewReader(`{"view_type":"month","selected_month":"December 2024"}`))
	s.Require().NoError(err)
	defer resp.Body.Close()

	s.Equal(http.StatusOK, resp.StatusCode)
	s.Contains(resp.Header.Get("Content-Disposition"), "trackhigh_month_")
	data, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	s.True(len(data) > 4 && string(data[:2]) == "PK", "xlsx is a zip archive")
}

func (s *DashboardE2ESuite) TestValidationProblem() {
	resp, body := s.post("/api/view", `{"view_type":"weekly"}`)
	s.Equal(http.StatusBadRequest, resp.StatusCode)
	s.NotEmpty(body)
}
