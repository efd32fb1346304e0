package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"trackhigh/internal/shared/testutil"
)

func writeFeed(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "Data.csv")
	require.NoError(t, os.WriteFile(path, []byte(testutil.SampleFeed()), 0o644))
	return path
}

func TestRunCSVToStdout(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := run(context.Background(),
		[]string{"-feed", writeFeed(t), "-date", "2024-12-02", "-out", "-"},
		&stdout, &stderr)
	require.NoError(t, err, stderr.String())

	out := strings.TrimPrefix(stdout.String(), "\ufeff")
	rows, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Date", rows[0][0])
	assert.Equal(t, "ABC", rows[1][1])
}

func TestRunWorkbookFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "exports", "month.xlsx")

	var stdout, stderr bytes.Buffer
	err := run(context.Background(),
		[]string{"-feed", writeFeed(t), "-view", "month", "-month", "December 2024", "-format", "XLSX", "-out", out},
		&stdout, &stderr)
	require.NoError(t, err, stderr.String())
	assert.Empty(t, stdout.String())
	assert.Contains(t, stderr.String(), "Export complete")

	f, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer f.Close()
	assert.NotEmpty(t, f.GetSheetList())
}

func TestRunDefaultPath(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TRACKHIGH_EXPORT_DIR", dir)

	err := run(context.Background(),
		[]string{"-feed", writeFeed(t), "-view", "search_symbol", "-symbols", "abc, xyz"},
		io.Discard, io.Discard)
	require.NoError(t, err)

	matches, err := filepath.Glob(filepath.Join(dir, "trackhigh_search_symbol_*.csv"))
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestRunErrors(t *testing.T) {
	feed := writeFeed(t)

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"unknown format", []string{"-feed", feed, "-format", "pdf"}, "invalid -format"},
		{"unknown view", []string{"-feed", feed, "-view", "weekly"}, "invalid filter"},
		{"bad date", []string{"-feed", feed, "-date", "02/12/2024"}, "invalid filter"},
		{"bad symbol", []string{"-feed", feed, "-view", "search_symbol", "-symbols", "A B"}, "invalid filter"},
		{"missing feed", []string{"-feed", filepath.Join(t.TempDir(), "none.csv")}, "failed to load feed"},
		{"extra arguments", []string{"-feed", feed, "extra"}, "unexpected arguments"},
		{"unknown flag", []string{"-nope"}, "flag provided but not defined"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := run(context.Background(), tt.args, io.Discard, io.Discard)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestFilterRequest(t *testing.T) {
	o := options{view: "search_symbol", symbols: " abc,,XYZ ,", sort: "returns_desc"}

	req := o.filterRequest()
	assert.Equal(t, "search_symbol", req.ViewType)
	assert.Equal(t, []string{"abc", "XYZ"}, req.SearchSymbols)
	assert.Equal(t, "returns_desc", req.SortBy)

	assert.Empty(t, options{view: "month"}.filterRequest().SearchSymbols)
}
