// Command export loads the snapshot feed once, selects a view with the
// same filter rules as the dashboard and writes it as CSV or XLSX.
//
//	export -view month -month "December 2024" -sort returns_desc -format xlsx
//	export -view search_symbol -symbols ABC,XYZ -out -
package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"trackhigh/internal/config"
	apierrors "trackhigh/internal/errors"
	"trackhigh/internal/exporter"
	"trackhigh/internal/feed"
	"trackhigh/internal/infrastructure"
	"trackhigh/internal/middleware"
	"trackhigh/internal/services"
	handlers "trackhigh/internal/transport/http"
	api "trackhigh/pkg/contracts/api/v1"
)

type options struct {
	configFile string
	feed       string
	verbose    bool

	view    string
	date    string
	start   string
	end     string
	month   string
	sector  string
	series  string
	symbols string
	sort    string
	rank    string

	format string
	out    string
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&o.configFile, "config", "", "config file (default: config.yaml or configs/config.yaml if present)")
	fs.StringVar(&o.feed, "feed", "", "feed URL or local CSV path, overrides the configured feed")
	fs.BoolVar(&o.verbose, "v", false, "debug logging")

	fs.StringVar(&o.view, "view", "specific_date", "view type: specific_date, date_range, month, search_symbol")
	fs.StringVar(&o.date, "date", "", "selected date (YYYY-MM-DD) for specific_date")
	fs.StringVar(&o.start, "start", "", "range start (YYYY-MM-DD) for date_range")
	fs.StringVar(&o.end, "end", "", "range end (YYYY-MM-DD) for date_range")
	fs.StringVar(&o.month, "month", "", `month label for month, e.g. "December 2024"`)
	fs.StringVar(&o.sector, "sector", "", "sector filter, empty or \"All\" for every sector")
	fs.StringVar(&o.series, "series", "", "series type filter, empty or \"All\" for every series")
	fs.StringVar(&o.symbols, "symbols", "", "comma separated symbols for search_symbol")
	fs.StringVar(&o.sort, "sort", "", "sort key: none, returns_desc, days_since_high_desc, mcap_asc, pe_asc")
	fs.StringVar(&o.rank, "rank", "", "range and month ranking: returns or occurrences")

	fs.StringVar(&o.format, "format", handlers.FormatCSV, "output format: csv or xlsx")
	fs.StringVar(&o.out, "out", "", `output file, "-" for stdout (default: <export dir>/trackhigh_<view>_<date>.<format>)`)

	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if fs.NArg() > 0 {
		return o, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	o.format = strings.ToLower(strings.TrimSpace(o.format))
	return o, nil
}

func (o options) filterRequest() api.FilterRequest {
	req := api.FilterRequest{
		ViewType:       o.view,
		SelectedDate:   o.date,
		StartDate:      o.start,
		EndDate:        o.end,
		SelectedMonth:  o.month,
		SelectedSector: o.sector,
		SelectedSeries: o.series,
		SortBy:         o.sort,
		RankBy:         o.rank,
	}
	for _, s := range strings.Split(o.symbols, ",") {
		if s = strings.TrimSpace(s); s != "" {
			req.SearchSymbols = append(req.SearchSymbols, s)
		}
	}
	return req
}

// loadConfig applies the -config and -feed flags on top of the usual
// config layers.
func loadConfig(o options) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if o.configFile != "" {
		cfg, err = config.LoadFrom(o.configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if o.feed != "" {
		if strings.HasPrefix(o.feed, "http://") || strings.HasPrefix(o.feed, "https://") {
			cfg.Feed.URL, cfg.Feed.Path = o.feed, ""
		} else {
			cfg.Feed.Path = o.feed
		}
	}
	return cfg, nil
}

// describe flattens validation details into one line
func describe(err error) string {
	var apiErr *apierrors.APIError
	if !errors.As(err, &apiErr) {
		return err.Error()
	}
	details, ok := apiErr.Details.([]apierrors.ValidationError)
	if !ok || len(details) == 0 {
		return apiErr.Message
	}
	parts := make([]string, 0, len(details))
	for _, d := range details {
		parts = append(parts, d.Field+": "+d.Message)
	}
	return apiErr.Message + ": " + strings.Join(parts, "; ")
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	o, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	level := slog.LevelInfo
	if o.verbose {
		level = slog.LevelDebug
	}
	logger := infrastructure.NewLoggerWithWriter(stderr, &slog.HandlerOptions{Level: level})

	cfg, err := loadConfig(o)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	validation := middleware.NewValidationMiddleware(logger, apierrors.NewErrorHandler(logger, false))
	if err := validation.ValidateStruct(api.ExportRequest{Format: o.format}); err != nil {
		return fmt.Errorf("invalid -format: %s", describe(err))
	}
	req := o.filterRequest()
	if err := validation.ValidateStruct(req); err != nil {
		return fmt.Errorf("invalid filter: %s", describe(err))
	}
	spec, err := req.ToSpec()
	if err != nil {
		return fmt.Errorf("invalid filter: %w", err)
	}

	loader := feed.NewLoader(cfg.Feed, logger)
	result, err := loader.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load feed: %w", err)
	}
	for _, rowErr := range result.Result.Errors {
		logger.Debug("row error", slog.Int("line", rowErr.Line), slog.String("symbol", rowErr.Symbol), slog.String("reason", rowErr.Reason))
	}

	view := services.SelectView(result.Result.Records, spec)

	var buf bytes.Buffer
	switch o.format {
	case handlers.FormatXLSX:
		err = exporter.WriteWorkbook(&buf, view)
	default:
		err = exporter.WriteViewCSV(&buf, view, cfg.Export.IncludeBOM)
	}
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", o.format, err)
	}

	path := o.out
	if path == "-" {
		_, err = buf.WriteTo(stdout)
		return err
	}
	if path == "" {
		path = filepath.Join(cfg.Export.Dir, handlers.ExportFilename(view, o.format, time.Now()))
	}

	f, err := exporter.CreateFile(path)
	if err != nil {
		return err
	}
	if _, err := buf.WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return err
	}

	logger.Info("Export complete",
		slog.String("path", path),
		slog.String("view", string(view.ViewType)),
		slog.Int("records", view.Total),
		slog.Int("row_errors", len(result.Result.Errors)),
		slog.Bool("empty", view.Empty))
	return nil
}

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("Failed to read .env file", slog.String("error", err.Error()))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, "export:", err)
		os.Exit(1)
	}
}
