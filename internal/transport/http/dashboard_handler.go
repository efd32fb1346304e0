package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"trackhigh/internal/config"
	apierrors "trackhigh/internal/errors"
	custommw "trackhigh/internal/middleware"
	api "trackhigh/pkg/contracts/api/v1"
	"trackhigh/pkg/contracts/domain"
)

// DashboardHandler serves the view API over the session's snapshot with
// RFC 7807 errors
type DashboardHandler struct {
	service      DashboardServiceInterface
	validation   *custommw.ValidationMiddleware
	queryParams  *custommw.QueryParamValidator
	export       config.ExportConfig
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(service DashboardServiceInterface, export config.ExportConfig, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DashboardHandler {
	return &DashboardHandler{
		service:      service,
		validation:   custommw.NewValidationMiddleware(logger, errorHandler),
		queryParams:  custommw.NewQueryParamValidator(errorHandler),
		export:       export,
		logger:       logger.With(slog.String("component", "dashboard_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the dashboard routes, mounted under /api
func (h *DashboardHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/status", h.GetStatus)
	r.Get("/records", h.GetRecords)
	r.Get("/filters/default", h.GetDefaultFilter)
	r.Get("/months", h.GetMonths)
	r.Get("/values/{column}", h.GetUniqueValues)
	r.Get("/symbols", h.SearchSymbols)

	r.Route("/stocks/{symbol}", func(r chi.Router) {
		r.Use(h.SymbolCtx)
		r.Get("/highs", h.GetStockHighs)
	})

	// Filter requests carry a JSON body
	r.Group(func(r chi.Router) {
		r.Use(custommw.ContentTypeValidator(h.errorHandler, "application/json"))
		r.Use(h.validation.ValidateRequest)
		r.Post("/view", h.PostView)
		r.Post("/options", h.PostOptions)
		r.Post("/export", h.PostExport)
	})

	r.Post("/reload", h.PostReload)

	return r
}

type symbolCtxKey struct{}

func withSymbol(ctx context.Context, symbol string) context.Context {
	return context.WithValue(ctx, symbolCtxKey{}, symbol)
}

func symbolFrom(ctx context.Context) string {
	symbol, _ := ctx.Value(symbolCtxKey{}).(string)
	return symbol
}

// SymbolCtx validates the {symbol} parameter and stores it upper cased
func (h *DashboardHandler) SymbolCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		symbol := strings.ToUpper(strings.TrimSpace(chi.URLParam(r, "symbol")))
		if symbol == "" || len(symbol) > 20 {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("symbol", "symbol must be 1 to 20 characters"))
			return
		}
		next.ServeHTTP(w, r.WithContext(withSymbol(r.Context(), symbol)))
	})
}

// GetStatus handles GET /api/status
func (h *DashboardHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   h.service.Status(),
	})
}

// GetRecords handles GET /api/records
func (h *DashboardHandler) GetRecords(w http.ResponseWriter, r *http.Request) {
	records, err := h.service.Records()
	if err != nil {
		h.fail(w, r, "failed to get records", err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   records,
		"count":  len(records),
	})
}

// GetDefaultFilter handles GET /api/filters/default
func (h *DashboardHandler) GetDefaultFilter(w http.ResponseWriter, r *http.Request) {
	spec, err := h.service.DefaultFilter()
	if err != nil {
		h.fail(w, r, "failed to get default filter", err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   api.FromSpec(spec),
	})
}

// GetMonths handles GET /api/months
func (h *DashboardHandler) GetMonths(w http.ResponseWriter, r *http.Request) {
	months, err := h.service.MonthOptions()
	if err != nil {
		h.fail(w, r, "failed to get months", err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   months,
		"count":  len(months),
	})
}

// GetUniqueValues handles GET /api/values/{column}
func (h *DashboardHandler) GetUniqueValues(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "column")
	column, ok := domain.ParseColumn(name)
	if !ok {
		h.errorHandler.HandleError(w, r, apierrors.NotFoundError("column "+name))
		return
	}

	values, err := h.service.UniqueValues(column)
	if err != nil {
		h.fail(w, r, "failed to get unique values", err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   values,
		"count":  len(values),
		"column": string(column),
	})
}

// SearchSymbols handles GET /api/symbols?q=&limit=
func (h *DashboardHandler) SearchSymbols(w http.ResponseWriter, r *http.Request) {
	limit, ok := h.queryParams.ValidateInt(w, r, "limit", 1, 100, 20)
	if !ok {
		return
	}
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if err := h.validation.ValidateStruct(api.SymbolSearchRequest{Query: query, Limit: limit}); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	matches, err := h.service.SearchSymbols(query, limit)
	if err != nil {
		h.fail(w, r, "symbol search failed", err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   matches,
		"count":  len(matches),
		"query":  query,
	})
}

// GetStockHighs handles GET /api/stocks/{symbol}/highs
func (h *DashboardHandler) GetStockHighs(w http.ResponseWriter, r *http.Request) {
	symbol := symbolFrom(r.Context())

	highs, err := h.service.Highs([]string{symbol})
	if err != nil {
		h.fail(w, r, "failed to get stock highs", err)
		return
	}
	if len(highs) == 0 || len(highs[0].Series) == 0 {
		h.errorHandler.HandleError(w, r, apierrors.NotFoundError("symbol "+symbol))
		return
	}

	stock := highs[0]
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   stock,
		"summary": map[string]interface{}{
			"high_points":   stock.HighPoints(),
			"highest_price": stock.HighestPrice,
			"timeline":      stock.Timeline(),
		},
	})
}

// PostView handles POST /api/view
func (h *DashboardHandler) PostView(w http.ResponseWriter, r *http.Request) {
	spec, ok := h.decodeFilter(w, r)
	if !ok {
		return
	}

	view, err := h.service.View(r.Context(), spec)
	if err != nil {
		h.fail(w, r, "failed to compute view", err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   view,
	})
}

// PostOptions handles POST /api/options
func (h *DashboardHandler) PostOptions(w http.ResponseWriter, r *http.Request) {
	spec, ok := h.decodeFilter(w, r)
	if !ok {
		return
	}

	options, err := h.service.Options(spec)
	if err != nil {
		h.fail(w, r, "failed to compute options", err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   options,
	})
}

// PostReload handles POST /api/reload
func (h *DashboardHandler) PostReload(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())
	h.logger.InfoContext(r.Context(), "reload requested",
		slog.String("request_id", reqID))

	snap, err := h.service.Reload(r.Context())
	if err != nil {
		h.fail(w, r, "reload failed", err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status":  "success",
		"load_id": snap.LoadID.String(),
		"data":    h.service.Status(),
	})
}

// decodeFilter reads and validates a FilterRequest body. On failure the
// problem response has been written.
func (h *DashboardHandler) decodeFilter(w http.ResponseWriter, r *http.Request) (domain.FilterSpec, bool) {
	var req api.FilterRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return domain.FilterSpec{}, false
	}
	if err := h.validation.ValidateStruct(req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return domain.FilterSpec{}, false
	}

	spec, err := req.ToSpec()
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return domain.FilterSpec{}, false
	}
	return spec, true
}

func (h *DashboardHandler) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	level := slog.LevelError
	if apierrors.IsType(err, apierrors.ErrTypeUnavailable) {
		level = slog.LevelWarn
	}
	h.logger.Log(r.Context(), level, msg,
		slog.String("error", err.Error()),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("path", r.URL.Path),
	)
	h.errorHandler.HandleError(w, r, err)
}
