// Package search provides symbol lookup for the stock picker.
//
// The index is built in memory from the latest record of each symbol and
// is rebuilt on every feed load.
package search

import (
	"fmt"
	"sort"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/mapping"

	"trackhigh/internal/dataprocessing"
	"trackhigh/pkg/contracts/domain"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Match is one search hit.
type Match struct {
	Symbol   string  `json:"symbol"`
	Sector   string  `json:"sector"`
	Industry string  `json:"industry"`
	Score    float64 `json:"score"`
}

// document is the indexed form of a symbol. SymbolKey holds the lowercase
// symbol as a single token so prefix queries work on symbols such as
// "BAJAJ-AUTO".
type document struct {
	Symbol    string `json:"symbol"`
	SymbolKey string `json:"symbol_key"`
	Sector    string `json:"sector"`
	Industry  string `json:"industry"`
	About     string `json:"about"`
}

// Index is an in-memory symbol index. It is safe for concurrent searches.
type Index struct {
	index bleve.Index
	docs  map[string]Match
	order []string
}

func buildMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()

	symbolKey := bleve.NewTextFieldMapping()
	symbolKey.Analyzer = keyword.Name
	symbolKey.Store = false

	docMapping := bleve.NewDocumentMapping()
	docMapping.AddFieldMappingsAt("symbol_key", symbolKey)
	indexMapping.DefaultMapping = docMapping

	return indexMapping
}

// Build indexes the latest record of every symbol in records.
func Build(records []domain.Record) (*Index, error) {
	idx, err := bleve.NewMemOnly(buildMapping())
	if err != nil {
		return nil, fmt.Errorf("create symbol index: %w", err)
	}

	latest := dataprocessing.LatestPerSymbol(records)
	ix := &Index{
		index: idx,
		docs:  make(map[string]Match, len(latest)),
		order: make([]string, 0, len(latest)),
	}

	batch := idx.NewBatch()
	for _, r := range latest {
		doc := document{
			Symbol:    r.Symbol,
			SymbolKey: strings.ToLower(r.Symbol),
			Sector:    r.Sector,
			Industry:  r.Industry,
			About:     r.About,
		}
		if err := batch.Index(r.Symbol, doc); err != nil {
			_ = idx.Close()
			return nil, fmt.Errorf("index %s: %w", r.Symbol, err)
		}
		ix.docs[r.Symbol] = Match{Symbol: r.Symbol, Sector: r.Sector, Industry: r.Industry}
		ix.order = append(ix.order, r.Symbol)
	}
	if batch.Size() > 0 {
		if err := idx.Batch(batch); err != nil {
			_ = idx.Close()
			return nil, fmt.Errorf("write symbol index: %w", err)
		}
	}

	sort.Strings(ix.order)
	return ix, nil
}

// Len returns the number of indexed symbols.
func (ix *Index) Len() int {
	return len(ix.docs)
}

// Search returns up to limit symbols matching query. Exact and prefix
// symbol matches rank above matches on sector, industry or description.
// An empty query lists symbols alphabetically.
func (ix *Index) Search(query string, limit int) ([]Match, error) {
	limit = clampLimit(limit)
	q := strings.TrimSpace(query)

	if q == "" {
		n := min(limit, len(ix.order))
		out := make([]Match, 0, n)
		for _, s := range ix.order[:n] {
			out = append(out, ix.docs[s])
		}
		return out, nil
	}

	lower := strings.ToLower(q)

	exact := bleve.NewTermQuery(lower)
	exact.SetField("symbol_key")
	exact.SetBoost(10)

	prefix := bleve.NewPrefixQuery(lower)
	prefix.SetField("symbol_key")
	prefix.SetBoost(5)

	text := bleve.NewMatchQuery(q)
	text.SetBoost(1)

	req := bleve.NewSearchRequestOptions(bleve.NewDisjunctionQuery(exact, prefix, text), limit, 0, false)
	res, err := ix.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("search symbols: %w", err)
	}

	out := make([]Match, 0, len(res.Hits))
	for _, hit := range res.Hits {
		m, ok := ix.docs[hit.ID]
		if !ok {
			continue
		}
		m.Score = hit.Score
		out = append(out, m)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Symbol < out[j].Symbol
	})
	return out, nil
}

// Close releases the index.
func (ix *Index) Close() error {
	return ix.index.Close()
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}
