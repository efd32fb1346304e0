// Package store holds the in-memory record set of the current session.
//
// A Snapshot is built once per feed load and never modified afterwards.
// The Store publishes the latest snapshot through an atomic pointer, so
// readers never block and a reload replaces the whole set in one step.
package store

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"trackhigh/internal/dataprocessing"
	"trackhigh/pkg/contracts/domain"
)

// LoadStats summarizes how the feed rows of a snapshot were handled.
type LoadStats struct {
	TotalRows     int `json:"total_rows"`
	Records       int `json:"records"`
	DroppedRows   int `json:"dropped_rows"`
	RejectedRows  int `json:"rejected_rows"`
	DateFallbacks int `json:"date_fallbacks"`
	RowErrors     int `json:"row_errors"`
}

// Snapshot is one immutable load of the feed. Records and Errors are
// shared with every reader and must not be modified.
type Snapshot struct {
	LoadID   uuid.UUID
	LoadedAt time.Time
	Source   string
	Records  []domain.Record
	Errors   []domain.RowError
	Stats    LoadStats
}

// NewSnapshot wraps a normalization result under a fresh load id.
func NewSnapshot(source string, result dataprocessing.NormalizeResult, loadedAt time.Time) *Snapshot {
	records := result.Records
	if records == nil {
		records = []domain.Record{}
	}
	return &Snapshot{
		LoadID:   uuid.New(),
		LoadedAt: loadedAt,
		Source:   source,
		Records:  records,
		Errors:   result.Errors,
		Stats: LoadStats{
			TotalRows:     result.TotalRows,
			Records:       len(records),
			DroppedRows:   result.DroppedRows,
			RejectedRows:  result.RejectedRows,
			DateFallbacks: result.DateFallbacks,
			RowErrors:     len(result.Errors),
		},
	}
}

// Store publishes the current snapshot.
type Store struct {
	current atomic.Pointer[Snapshot]
}

// New returns an empty store.
func New() *Store {
	return &Store{}
}

// Replace installs snap and returns the snapshot it replaced, if any.
// A nil snap is ignored.
func (s *Store) Replace(snap *Snapshot) *Snapshot {
	if snap == nil {
		return s.current.Load()
	}
	return s.current.Swap(snap)
}

// Current returns the installed snapshot.
func (s *Store) Current() (*Snapshot, bool) {
	snap := s.current.Load()
	return snap, snap != nil
}

// Records returns the records of the current snapshot, or nil before the
// first load.
func (s *Store) Records() []domain.Record {
	if snap := s.current.Load(); snap != nil {
		return snap.Records
	}
	return nil
}

// Loaded reports whether a snapshot has been installed.
func (s *Store) Loaded() bool {
	return s.current.Load() != nil
}
