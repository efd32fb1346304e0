// Package app wires the dashboard process together and manages its
// lifecycle.
//
// New builds every component from a *config.Config in dependency order:
// telemetry providers and business metrics, the feed loader and dashboard
// service, the session hub (subscribed to reloads) and health checks, then
// the chi router and HTTP server. Start performs the initial feed load and
// serves in the background; a failed load leaves data routes answering 503
// until POST /api/reload succeeds. Stop shuts the server down and releases
// the hub, the symbol index and the telemetry providers.
//
// Typical use from a main package:
//
//	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
//	defer stop()
//	application, err := app.NewApplication()
//	if err != nil {
//	    return err
//	}
//	return application.Run(ctx)
//
// Errors are returned to the caller; the package never calls os.Exit.
package app
