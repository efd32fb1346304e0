package testutil

import (
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferedSlogHandler(t *testing.T) {
	logger, logs := NewTestLogger(t)
	child := logger.With(slog.String("component", "loader"))

	logger.Info("plain message", slog.String("key", "value"))
	child.Warn("child warning", slog.Int("rows", 3))
	logger.Debug("debug message")

	records := logs.Records()
	require.Len(t, records, 3)

	assert.Len(t, logs.RecordsAt(slog.LevelWarn), 1)

	rec, ok := logs.Find("child")
	require.True(t, ok)
	assert.Equal(t, "loader", rec.Attrs["component"])
	assert.Equal(t, int64(3), rec.Attrs["rows"])

	AssertLogContains(t, logs, slog.LevelInfo, "plain")
	AssertLogAttr(t, logs, "key", "value")
	AssertNoErrors(t, logs)

	logs.Reset()
	assert.Empty(t, logs.Records())
}

func TestFeedCSV(t *testing.T) {
	doc := FeedCSV(FeedRow{"Symbol": "ABC", "Sector": "Tech"})
	lines := strings.Split(strings.TrimSpace(doc), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "Today's Date,Symbol,Sector"))
	assert.True(t, strings.HasPrefix(lines[1], ",ABC,Tech,"))
}

func TestNewRecord(t *testing.T) {
	r := NewRecord("ABC", "2024-12-01", WithSector("Energy"), WithReturns(2.5), WithHigh())
	assert.Equal(t, "ABC", r.Symbol)
	assert.Equal(t, "Energy", r.Sector)
	assert.Equal(t, 2024, r.Date.Year())
	assert.True(t, r.Returns.Valid)
	assert.True(t, r.IsHigh52W)
}
