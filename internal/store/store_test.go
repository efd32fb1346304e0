package store

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trackhigh/internal/dataprocessing"
	"trackhigh/internal/shared/testutil"
	"trackhigh/pkg/contracts/domain"
)

func result(symbols ...string) dataprocessing.NormalizeResult {
	records := make([]domain.Record, len(symbols))
	for i, s := range symbols {
		records[i] = testutil.NewRecord(s, "2024-12-01")
	}
	return dataprocessing.NormalizeResult{
		Records:     records,
		Errors:      []domain.RowError{{Line: 9, Reason: "bad date"}},
		TotalRows:   len(symbols) + 1,
		DroppedRows: 1,
	}
}

func TestNewSnapshot(t *testing.T) {
	at := time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)
	snap := NewSnapshot("feed.csv", result("A", "B"), at)

	assert.NotEqual(t, uuid.Nil, snap.LoadID)
	assert.Equal(t, at, snap.LoadedAt)
	assert.Equal(t, "feed.csv", snap.Source)
	assert.Equal(t, LoadStats{TotalRows: 3, Records: 2, DroppedRows: 1, RowErrors: 1}, snap.Stats)

	empty := NewSnapshot("x", dataprocessing.NormalizeResult{}, at)
	assert.NotNil(t, empty.Records)
	assert.NotEqual(t, snap.LoadID, empty.LoadID)
}

func TestStoreReplace(t *testing.T) {
	s := New()

	_, ok := s.Current()
	assert.False(t, ok)
	assert.False(t, s.Loaded())
	assert.Nil(t, s.Records())

	first := NewSnapshot("a", result("A"), time.Now())
	assert.Nil(t, s.Replace(first))

	second := NewSnapshot("b", result("B", "C"), time.Now())
	prev := s.Replace(second)
	assert.Same(t, first, prev)

	cur, ok := s.Current()
	require.True(t, ok)
	assert.Same(t, second, cur)
	assert.Len(t, s.Records(), 2)

	assert.Same(t, second, s.Replace(nil), "nil keeps the current snapshot")
	cur, _ = s.Current()
	assert.Same(t, second, cur)
}

func TestStoreConcurrentReaders(t *testing.T) {
	s := New()
	s.Replace(NewSnapshot("a", result("A"), time.Now()))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				recs := s.Records()
				assert.NotEmpty(t, recs)
			}
		}()
		go func() {
			defer wg.Done()
			s.Replace(NewSnapshot("b", result("B", "C"), time.Now()))
		}()
	}
	wg.Wait()
}
