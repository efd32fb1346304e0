package http

import (
	"bytes"
	"encoding/csv"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"trackhigh/internal/shared/testutil"
	"trackhigh/pkg/contracts/domain"
)

func exportView() domain.View {
	return domain.View{
		ViewType: domain.ViewSpecificDate,
		Total:    2,
		Stocks: []domain.Record{
			testutil.NewRecord("XYZ", "2024-12-01", testutil.WithSector("Energy"), testutil.WithReturns(9)),
			testutil.NewRecord("ABC", "2024-12-01", testutil.WithReturns(5)),
		},
		Sectors: []domain.SectorCount{{Sector: "Energy", Count: 1}, {Sector: "Tech", Count: 1}},
	}
}

func TestDashboardHandler_PostExport(t *testing.T) {
	body := `{"view_type":"specific_date","selected_date":"2024-12-01"}`

	tests := []struct {
		name        string
		target      string
		wantStatus  int
		wantType    string
		wantExt     string
		checkOutput func(t *testing.T, data []byte)
	}{
		{
			name:       "csv by default",
			target:     "/api/export",
			wantStatus: http.StatusOK,
			wantType:   contentTypeCSV,
			wantExt:    ".csv",
			checkOutput: func(t *testing.T, data []byte) {
				rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
				require.NoError(t, err)
				require.Len(t, rows, 3)
				assert.Equal(t, "Date", rows[0][0])
				assert.Equal(t, "XYZ", rows[1][1])
			},
		},
		{
			name:       "xlsx",
			target:     "/api/export?format=XLSX",
			wantStatus: http.StatusOK,
			wantType:   contentTypeXLSX,
			wantExt:    ".xlsx",
			checkOutput: func(t *testing.T, data []byte) {
				f, err := excelize.OpenReader(bytes.NewReader(data))
				require.NoError(t, err)
				defer f.Close()
				assert.Contains(t, f.GetSheetList(), "Stocks")
			},
		},
		{
			name:       "unknown format",
			target:     "/api/export?format=pdf",
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockDashboardService)
			if tt.wantStatus == http.StatusOK {
				svc.On("View", mock.Anything).Return(exportView(), nil)
			}

			rec := doRequest(t, newTestRouter(svc), http.MethodPost, tt.target, body)

			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.wantStatus != http.StatusOK {
				svc.AssertNotCalled(t, "View", mock.Anything)
				return
			}
			assert.Equal(t, tt.wantType, rec.Header().Get("Content-Type"))
			disposition := rec.Header().Get("Content-Disposition")
			assert.True(t, strings.HasPrefix(disposition, `attachment; filename="trackhigh_specific_date_`), disposition)
			assert.True(t, strings.HasSuffix(disposition, tt.wantExt+`"`), disposition)
			tt.checkOutput(t, rec.Body.Bytes())
			svc.AssertExpectations(t)
		})
	}
}

func TestExportFilename(t *testing.T) {
	now := time.Date(2025, 1, 3, 10, 0, 0, 0, time.UTC)

	assert.Equal(t, "trackhigh_month_20250103.csv", ExportFilename(domain.View{ViewType: domain.ViewMonth}, FormatCSV, now))
	assert.Equal(t, "trackhigh_view_20250103.xlsx", ExportFilename(domain.View{}, FormatXLSX, now))
}
