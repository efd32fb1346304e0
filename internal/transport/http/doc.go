// Package http implements the HTTP handlers of the dashboard's local view
// API. Handlers stay thin: they parse and validate the request, call the
// dashboard service and render the result.
//
// # Routes
//
// DashboardHandler.Routes is mounted under /api:
//
//	GET  /status               load status and row errors
//	GET  /records              full normalized record set
//	GET  /filters/default      selection shown after a load
//	GET  /months               month labels, oldest first
//	GET  /values/{column}      distinct sector, industry, series_type or symbol values
//	GET  /symbols?q=&limit=    symbol search
//	GET  /stocks/{symbol}/highs  high history of one symbol
//	POST /view                 view for a filter request
//	POST /options              option lists scoped to a filter request
//	POST /export?format=       view as a CSV or XLSX download
//	POST /reload               fetch the feed again
//
// HealthHandler.Routes is mounted under /api/health and MetricsHandler
// serves /metrics.
//
// # Responses
//
// Successful responses wrap the payload:
//
//	{"status": "success", "data": ..., "count": 12}
//
// Errors are RFC 7807 problem documents rendered by the errors package.
// Queries made before the first successful load answer 503:
//
//	{
//	    "type": "/errors/data/not-loaded",
//	    "title": "Service Unavailable",
//	    "status": 503,
//	    "detail": "no data loaded",
//	    "instance": "/api/view"
//	}
package http
