// Package feed fetches the snapshot CSV and turns it into normalized records.
//
// A load is a single attempt. HTTP and file sources are supported; any
// failure is terminal for the attempt and no partial data is returned.
package feed

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"trackhigh/internal/config"
	"trackhigh/internal/dataprocessing"
	apperrors "trackhigh/internal/errors"
	"trackhigh/internal/infrastructure"
)

// TracerName is the instrumentation scope of feed spans.
const TracerName = "trackhigh/feed"

// LoadResult is the outcome of a successful load.
type LoadResult struct {
	Source         string
	FetchedAt      time.Time
	Duration       time.Duration
	Bytes          int
	Header         []string
	MissingColumns []string
	Result         dataprocessing.NormalizeResult
}

// Option configures a Loader.
type Option func(*Loader)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(l *Loader) {
		if c != nil {
			l.client = c
		}
	}
}

// WithNormalizer replaces the normalizer built from the loader's logger.
func WithNormalizer(n *dataprocessing.Normalizer) Option {
	return func(l *Loader) {
		if n != nil {
			l.normalizer = n
		}
	}
}

// Loader reads the feed configured in config.FeedConfig.
type Loader struct {
	cfg        config.FeedConfig
	client     *http.Client
	normalizer *dataprocessing.Normalizer
	logger     *slog.Logger
	tracer     trace.Tracer
	now        func() time.Time
}

// NewLoader creates a loader. A nil logger uses slog.Default.
func NewLoader(cfg config.FeedConfig, logger *slog.Logger, opts ...Option) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	l := &Loader{
		cfg:    cfg,
		client: &http.Client{},
		logger: infrastructure.WithComponent(logger, "feed"),
		tracer: otel.Tracer(TracerName),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.normalizer == nil {
		l.normalizer = dataprocessing.NewNormalizer(logger)
	}
	return l
}

// Source returns the configured feed location.
func (l *Loader) Source() string {
	return l.cfg.Source()
}

// Load fetches, parses and normalizes the feed once.
func (l *Loader) Load(ctx context.Context) (*LoadResult, error) {
	source := l.cfg.Source()
	if source == "" {
		return nil, apperrors.NewConfigError("no feed source configured", nil)
	}

	ctx, span := l.tracer.Start(ctx, "feed.load",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("feed.source", source)))
	defer span.End()

	start := l.now()
	l.logger.InfoContext(ctx, "loading feed", slog.String("source", source))

	body, err := l.fetch(ctx)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		l.logger.ErrorContext(ctx, "feed fetch failed",
			slog.String("source", source),
			slog.String("error", err.Error()))
		return nil, err
	}

	rows, header, err := dataprocessing.ParseCSV(bytes.NewReader(body))
	if err != nil {
		perr := apperrors.NewParsingError("feed is not valid CSV", err).WithContext("source", source)
		infrastructure.RecordError(ctx, perr)
		l.logger.ErrorContext(ctx, "feed parse failed",
			slog.String("source", source),
			slog.String("error", err.Error()))
		return nil, perr
	}

	missing := dataprocessing.MissingColumns(header)
	if len(missing) > 0 {
		l.logger.WarnContext(ctx, "feed is missing columns",
			slog.String("source", source),
			slog.Any("columns", missing))
	}

	result := l.normalizer.Normalize(ctx, rows)
	duration := l.now().Sub(start)

	span.SetAttributes(
		attribute.Int("feed.bytes", len(body)),
		attribute.Int("feed.rows", result.TotalRows),
		attribute.Int("feed.records", len(result.Records)),
		attribute.Int("feed.date_fallbacks", result.DateFallbacks),
	)

	l.logger.InfoContext(ctx, "feed loaded",
		slog.String("source", source),
		slog.Int("bytes", len(body)),
		slog.Int("records", len(result.Records)),
		slog.Duration("duration", duration))

	return &LoadResult{
		Source:         source,
		FetchedAt:      start,
		Duration:       duration,
		Bytes:          len(body),
		Header:         header,
		MissingColumns: missing,
		Result:         result,
	}, nil
}

func (l *Loader) fetch(ctx context.Context) ([]byte, error) {
	if l.cfg.Path != "" {
		return l.readFile(l.cfg.Path)
	}
	return l.get(ctx, l.cfg.URL)
}

func (l *Loader) readFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.NewNotFoundError(fmt.Sprintf("feed file %s", path))
		}
		return nil, apperrors.NewStorageError("open feed file", err).WithContext("path", path)
	}
	defer f.Close()

	body, err := l.readLimited(f)
	if err != nil {
		return nil, apperrors.NewStorageError("read feed file", err).WithContext("path", path)
	}
	return body, nil
}

func (l *Loader) get(ctx context.Context, url string) ([]byte, error) {
	if l.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.cfg.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, apperrors.NewConfigError("invalid feed url", err).WithContext("url", url)
	}
	req.Header.Set("Accept", "text/csv, text/plain;q=0.9, */*;q=0.5")
	if l.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", l.cfg.UserAgent)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, apperrors.NewNetworkError("feed request failed", err).WithContext("url", url)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a little so the connection can be reused.
		_, _ = io.CopyN(io.Discard, resp.Body, 4096)
		return nil, apperrors.NewNetworkError(
			fmt.Sprintf("feed request returned %s", strings.TrimSpace(resp.Status)), nil).
			WithContext("url", url).
			WithContext("status", resp.StatusCode)
	}

	body, err := l.readLimited(resp.Body)
	if err != nil {
		return nil, apperrors.NewNetworkError("read feed body", err).WithContext("url", url)
	}
	return body, nil
}

func (l *Loader) readLimited(r io.Reader) ([]byte, error) {
	if l.cfg.MaxBytes <= 0 {
		return io.ReadAll(r)
	}
	body, err := io.ReadAll(io.LimitReader(r, l.cfg.MaxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(body)) > l.cfg.MaxBytes {
		return nil, fmt.Errorf("feed exceeds %d bytes", l.cfg.MaxBytes)
	}
	return body, nil
}
