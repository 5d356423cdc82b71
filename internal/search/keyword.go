package search

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/sourcing-buddy/backend/internal/storage"
	"github.com/sourcing-buddy/backend/internal/storage/models"
	"github.com/sourcing-buddy/backend/pkg/logger"
)

// keywordFields is the fixed set of fields each query token is matched
// against.
var keywordFields = []string{
	"material_number",
	"description",
	"material_group",
	"basic_material",
	"vendor_name",
	"size_dimension",
	"grade",
	"division",
}

type KeywordEngine struct {
	store      PartStore
	scorer     *Scorer
	storeCap   int
	displayCap int
}

func NewKeywordEngine(store PartStore, scorer *Scorer, storeCap, displayCap int) *KeywordEngine {
	if storeCap <= 0 {
		storeCap = 500
	}
	if displayCap <= 0 || displayCap > 100 {
		displayCap = 100
	}
	return &KeywordEngine{
		store:      store,
		scorer:     scorer,
		storeCap:   storeCap,
		displayCap: displayCap,
	}
}

// Search tokenizes the query on whitespace, requires every token to match at
// least one searchable field, deduplicates by material number and caps the
// result. An empty query returns an empty result without touching the store.
func (e *KeywordEngine) Search(ctx context.Context, query string) ([]models.SearchResult, error) {
	tokens := strings.Fields(query)
	if len(tokens) == 0 {
		return []models.SearchResult{}, nil
	}

	pred := make(storage.Predicate, 0, len(tokens))
	for _, token := range tokens {
		pred = append(pred, storage.Contains(token, keywordFields...))
	}

	records, err := e.store.QueryParts(ctx, pred, e.storeCap)
	if err != nil {
		return nil, err
	}

	records = dedupRecords(records)
	if len(records) > e.displayCap {
		records = records[:e.displayCap]
	}

	logger.Debug("Keyword search executed",
		zap.String("query", query),
		zap.Int("tokens", len(tokens)),
		zap.Int("results", len(records)),
	)

	return e.scorer.ScoreAll(query, records), nil
}
