// Package services implements the dashboard's business layer between the
// HTTP and WebSocket transports and the data engines.
//
// # Components
//
//   - DashboardService owns the session's record store. It loads the feed,
//     replaces the snapshot on reload and answers every query (views,
//     options, highs, symbol search, status) against the current snapshot.
//   - SelectView routes a filter selection to the engines for its view
//     type. It is pure and has no dependency on the coordinator.
//   - HealthService reports liveness and readiness; the service is ready
//     once a snapshot exists.
//
// # Errors
//
// Queries made before the first successful load return an
// errors.AppError of type UNAVAILABLE wrapping ErrNotLoaded. Load failures
// are returned as the loader reported them and kept for Status.
//
// # Usage
//
//	dash := services.NewDashboardService(loader, store.New(), metrics, logger)
//	if _, err := dash.Load(ctx); err != nil {
//	    logger.Error("initial load failed", slog.String("error", err.Error()))
//	}
//	view, err := dash.View(ctx, spec)
package services
