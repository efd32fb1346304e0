package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"trackhigh/internal/dataprocessing"
	apperrors "trackhigh/internal/errors"
	"trackhigh/internal/feed"
	"trackhigh/internal/infrastructure"
	"trackhigh/internal/search"
	"trackhigh/internal/store"
	"trackhigh/pkg/contracts/domain"
)

// TracerName is the instrumentation scope of dashboard spans.
const TracerName = "trackhigh/dashboard"

// maxStatusRowErrors caps the row errors returned by Status.
const maxStatusRowErrors = 50

// FeedLoader loads the snapshot feed once per call.
type FeedLoader interface {
	Load(ctx context.Context) (*feed.LoadResult, error)
	Source() string
}

// Status describes the session's data state.
type Status struct {
	Loaded      bool              `json:"loaded"`
	LoadID      string            `json:"load_id,omitempty"`
	LoadedAt    *time.Time        `json:"loaded_at,omitempty"`
	Source      string            `json:"source"`
	Stats       store.LoadStats   `json:"stats"`
	RowErrors   []domain.RowError `json:"row_errors,omitempty"`
	LastError   string            `json:"last_error,omitempty"`
	LastAttempt *time.Time        `json:"last_attempt,omitempty"`
	Symbols     int               `json:"symbols"`
}

// DashboardService owns the session's record store and answers every
// dashboard query against the current snapshot.
type DashboardService struct {
	loader  FeedLoader
	store   *store.Store
	metrics *infrastructure.BusinessMetrics
	logger  *slog.Logger
	tracer  trace.Tracer
	now     func() time.Time

	loads singleflight.Group

	mu          sync.RWMutex
	index       *search.Index
	lastErr     error
	lastAttempt time.Time
	listeners   []func(*store.Snapshot)
}

// NewDashboardService creates the coordinator. metrics may be nil and a
// nil logger uses slog.Default.
func NewDashboardService(loader FeedLoader, st *store.Store, metrics *infrastructure.BusinessMetrics, logger *slog.Logger) *DashboardService {
	if logger == nil {
		logger = slog.Default()
	}
	if st == nil {
		st = store.New()
	}
	return &DashboardService{
		loader:  loader,
		store:   st,
		metrics: metrics,
		logger:  infrastructure.WithComponent(logger, "dashboard"),
		tracer:  otel.Tracer(TracerName),
		now:     time.Now,
	}
}

// OnReload registers fn to be called after every successful load.
func (s *DashboardService) OnReload(fn func(*store.Snapshot)) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

// Load performs the initial feed load.
func (s *DashboardService) Load(ctx context.Context) (*store.Snapshot, error) {
	return s.Reload(ctx)
}

// Reload fetches the feed and replaces the snapshot wholesale. Concurrent
// calls share a single load. On failure the previous snapshot stays in
// place and the error is kept for Status.
//
// The shared load is detached from the caller's cancellation, so a caller
// that gives up returns ctx.Err() while the load completes for the others.
func (s *DashboardService) Reload(ctx context.Context) (*store.Snapshot, error) {
	loadCtx := context.WithoutCancel(ctx)
	ch := s.loads.DoChan("load", func() (interface{}, error) {
		return s.load(loadCtx)
	})

	select {
	case res := <-ch:
		if res.Shared {
			s.logger.DebugContext(ctx, "joined in-flight feed load")
		}
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*store.Snapshot), nil
	case <-ctx.Done():
		s.logger.DebugContext(ctx, "caller left in-flight feed load", slog.String("error", ctx.Err().Error()))
		return nil, ctx.Err()
	}
}

func (s *DashboardService) load(ctx context.Context) (*store.Snapshot, error) {
	ctx, span := s.tracer.Start(ctx, "dashboard.load",
		trace.WithAttributes(attribute.String("feed.source", s.loader.Source())))
	defer span.End()

	start := s.now()
	s.mu.Lock()
	s.lastAttempt = start
	s.mu.Unlock()

	res, err := s.loader.Load(ctx)
	if err != nil {
		s.fail(ctx, start, err)
		return nil, err
	}

	idx, err := search.Build(res.Result.Records)
	if err != nil {
		wrapped := apperrors.NewStorageError("build symbol index", err)
		s.fail(ctx, start, wrapped)
		return nil, wrapped
	}

	snap := store.NewSnapshot(res.Source, res.Result, res.FetchedAt)
	prev := s.store.Replace(snap)

	s.mu.Lock()
	oldIndex := s.index
	s.index = idx
	s.lastErr = nil
	listeners := append([]func(*store.Snapshot){}, s.listeners...)
	s.mu.Unlock()

	if oldIndex != nil {
		if err := oldIndex.Close(); err != nil {
			s.logger.WarnContext(ctx, "closing previous symbol index failed", slog.String("error", err.Error()))
		}
	}

	s.metrics.RecordFeedLoad(ctx, infrastructure.FeedLoadStats{
		Outcome:       "success",
		Duration:      s.now().Sub(start),
		Kept:          snap.Stats.Records,
		Dropped:       snap.Stats.DroppedRows,
		Rejected:      snap.Stats.RejectedRows,
		DateFallbacks: snap.Stats.DateFallbacks,
	})

	attrs := []any{
		slog.String("load_id", snap.LoadID.String()),
		slog.Int("records", snap.Stats.Records),
		slog.Int("symbols", idx.Len()),
		slog.Int("row_errors", snap.Stats.RowErrors),
	}
	if prev != nil {
		attrs = append(attrs, slog.String("replaced_load_id", prev.LoadID.String()))
	}
	s.logger.InfoContext(ctx, "snapshot installed", attrs...)

	for _, fn := range listeners {
		fn(snap)
	}
	return snap, nil
}

func (s *DashboardService) fail(ctx context.Context, start time.Time, err error) {
	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()

	infrastructure.RecordError(ctx, err)
	s.metrics.RecordFeedLoad(ctx, infrastructure.FeedLoadStats{
		Outcome:  "failure",
		Duration: s.now().Sub(start),
	})
	s.logger.ErrorContext(ctx, "feed load failed, keeping previous snapshot",
		slog.String("error", err.Error()),
		slog.Bool("has_snapshot", s.store.Loaded()))
}

// snapshot returns the current snapshot or an unavailable error.
func (s *DashboardService) snapshot() (*store.Snapshot, error) {
	snap, ok := s.store.Current()
	if !ok {
		s.mu.RLock()
		cause := s.lastErr
		s.mu.RUnlock()
		if cause == nil {
			cause = ErrNotLoaded
		} else {
			cause = fmt.Errorf("%w: %w", ErrNotLoaded, cause)
		}
		return nil, apperrors.NewUnavailableError("no data loaded", cause)
	}
	return snap, nil
}

// Ready reports whether a snapshot is available.
func (s *DashboardService) Ready() bool {
	return s.store.Loaded()
}

// Records returns the full normalized record set.
func (s *DashboardService) Records() ([]domain.Record, error) {
	snap, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	return snap.Records, nil
}

// View computes the view for spec.
func (s *DashboardService) View(ctx context.Context, spec domain.FilterSpec) (domain.View, error) {
	snap, err := s.snapshot()
	if err != nil {
		return domain.View{}, err
	}

	_, span := s.tracer.Start(ctx, "dashboard.view",
		trace.WithAttributes(attribute.String("view.type", string(spec.ViewType))))
	defer span.End()

	start := time.Now()
	view := SelectView(snap.Records, spec)
	s.metrics.RecordView(ctx, string(view.ViewType), time.Since(start))

	span.SetAttributes(
		attribute.Int("view.records", view.Total),
		attribute.Bool("view.empty", view.Empty),
	)
	return view, nil
}

// Options lists the filter control values for spec.
func (s *DashboardService) Options(spec domain.FilterSpec) (domain.OptionSet, error) {
	snap, err := s.snapshot()
	if err != nil {
		return domain.OptionSet{}, err
	}
	return dataprocessing.ScopedOptions(snap.Records, spec), nil
}

// Highs returns the high history of each symbol in order.
func (s *DashboardService) Highs(symbols []string) ([]domain.StockHighs, error) {
	snap, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	out := make([]domain.StockHighs, 0, len(symbols))
	for _, sym := range symbols {
		out = append(out, dataprocessing.StockHighsFor(snap.Records, sym))
	}
	return out, nil
}

// UniqueValues lists the distinct values of column.
func (s *DashboardService) UniqueValues(column domain.Column) ([]string, error) {
	snap, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	return dataprocessing.UniqueValues(snap.Records, column), nil
}

// MonthOptions lists the months present in the data, oldest first.
func (s *DashboardService) MonthOptions() ([]string, error) {
	snap, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	return dataprocessing.MonthOptions(snap.Records), nil
}

// DefaultFilter returns the selection shown after a load.
func (s *DashboardService) DefaultFilter() (domain.FilterSpec, error) {
	snap, err := s.snapshot()
	if err != nil {
		return domain.FilterSpec{}, err
	}
	return dataprocessing.DefaultFilterSpec(snap.Records), nil
}

// SearchSymbols looks up symbols for the stock picker.
func (s *DashboardService) SearchSymbols(query string, limit int) ([]search.Match, error) {
	if _, err := s.snapshot(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.index == nil {
		return nil, apperrors.NewUnavailableError("symbol index not built", ErrNotLoaded)
	}
	return s.index.Search(query, limit)
}

// Status reports the current snapshot and the outcome of the last load.
func (s *DashboardService) Status() Status {
	st := Status{Source: s.loader.Source()}

	s.mu.RLock()
	if s.lastErr != nil {
		st.LastError = s.lastErr.Error()
	}
	if !s.lastAttempt.IsZero() {
		at := s.lastAttempt
		st.LastAttempt = &at
	}
	if s.index != nil {
		st.Symbols = s.index.Len()
	}
	s.mu.RUnlock()

	snap, ok := s.store.Current()
	if !ok {
		return st
	}

	loadedAt := snap.LoadedAt
	st.Loaded = true
	st.LoadID = snap.LoadID.String()
	st.LoadedAt = &loadedAt
	st.Source = snap.Source
	st.Stats = snap.Stats
	if n := len(snap.Errors); n > maxStatusRowErrors {
		st.RowErrors = snap.Errors[:maxStatusRowErrors]
	} else {
		st.RowErrors = snap.Errors
	}
	return st
}

// Close releases the symbol index.
func (s *DashboardService) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index == nil {
		return nil
	}
	err := s.index.Close()
	s.index = nil
	return err
}

// IsNotLoaded reports whether err means no snapshot is available yet.
func IsNotLoaded(err error) bool {
	return errors.Is(err, ErrNotLoaded)
}
