package http

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"trackhigh/internal/exporter"
	"trackhigh/pkg/contracts/domain"
)

// Export formats
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"

	contentTypeCSV  = "text/csv; charset=utf-8"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// PostExport handles POST /api/export?format=csv|xlsx. The file is built
// in memory so a failure can still be answered with a problem document.
func (h *DashboardHandler) PostExport(w http.ResponseWriter, r *http.Request) {
	format, ok := h.queryParams.ValidateEnum(w, r, "format", []string{FormatCSV, FormatXLSX}, FormatCSV)
	if !ok {
		return
	}
	spec, ok := h.decodeFilter(w, r)
	if !ok {
		return
	}

	view, err := h.service.View(r.Context(), spec)
	if err != nil {
		h.fail(w, r, "failed to compute view for export", err)
		return
	}

	var buf bytes.Buffer
	contentType := contentTypeCSV
	switch format {
	case FormatXLSX:
		contentType = contentTypeXLSX
		err = exporter.WriteWorkbook(&buf, view)
	default:
		err = exporter.WriteViewCSV(&buf, view, h.export.IncludeBOM)
	}
	if err != nil {
		h.fail(w, r, "export failed", err)
		return
	}

	filename := ExportFilename(view, format, time.Now())
	h.logger.InfoContext(r.Context(), "view exported",
		slog.String("format", format),
		slog.String("view_type", string(view.ViewType)),
		slog.String("filename", filename),
		slog.Int("bytes", buf.Len()),
	)

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// ExportFilename names an export after its view and the export time,
// e.g. trackhigh_month_20250103.csv.
func ExportFilename(view domain.View, format string, now time.Time) string {
	viewType := string(view.ViewType)
	if viewType == "" {
		viewType = "view"
	}
	return fmt.Sprintf("trackhigh_%s_%s.%s", viewType, now.Format("20060102"), format)
}
