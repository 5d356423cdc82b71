package search

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/sourcing-buddy/backend/internal/llm"
	"github.com/sourcing-buddy/backend/internal/storage/models"
	"github.com/sourcing-buddy/backend/pkg/logger"
)

const semanticSystemPrompt = "You are an expert at understanding industrial parts queries. Always respond with valid JSON only."

type SemanticEngine struct {
	store        PartStore
	ai           Completer
	scorer       *Scorer
	candidateCap int
	summaryCap   int
	displayCap   int
}

func NewSemanticEngine(store PartStore, ai Completer, scorer *Scorer, candidateCap, summaryCap, displayCap int) *SemanticEngine {
	if candidateCap <= 0 {
		candidateCap = 500
	}
	if summaryCap <= 0 || summaryCap > 100 {
		summaryCap = 100
	}
	if displayCap <= 0 || displayCap > 100 {
		displayCap = 100
	}
	return &SemanticEngine{
		store:        store,
		ai:           ai,
		scorer:       scorer,
		candidateCap: candidateCap,
		summaryCap:   summaryCap,
		displayCap:   displayCap,
	}
}

// Search delegates ranking to the AI collaborator: it fetches a bounded
// candidate pool, asks the AI for material numbers ordered by relevance and
// returns the matching records in exactly that order. An AI transport failure
// fails the search; an unparseable AI reply degrades to an empty result.
func (e *SemanticEngine) Search(ctx context.Context, query string) ([]models.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return []models.SearchResult{}, nil
	}

	candidates, err := e.store.ListParts(ctx, e.candidateCap)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return []models.SearchResult{}, nil
	}

	resp, err := e.ai.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: semanticSystemPrompt,
		UserPrompt:   e.buildRankingPrompt(query, candidates),
	})
	if err != nil {
		return nil, err
	}

	ranking, ok := llm.ParseStringArray(resp.Content)
	if !ok {
		logger.Warn("AI ranking response not parseable, returning empty result",
			zap.String("query", query),
		)
		return []models.SearchResult{}, nil
	}

	byNumber := make(map[string]models.PartRecord, len(candidates))
	for _, c := range candidates {
		if c.MaterialNumber == "" {
			continue
		}
		if _, exists := byNumber[c.MaterialNumber]; !exists {
			byNumber[c.MaterialNumber] = c
		}
	}

	ordered := make([]models.PartRecord, 0, len(ranking))
	for _, number := range ranking {
		record, found := byNumber[number]
		if !found {
			continue
		}
		ordered = append(ordered, record)
	}

	ordered = dedupRecords(ordered)
	if len(ordered) > e.displayCap {
		ordered = ordered[:e.displayCap]
	}

	logger.Info("Semantic search ranked",
		zap.String("query", query),
		zap.Int("candidates", len(candidates)),
		zap.Int("ranked", len(ranking)),
		zap.Int("results", len(ordered)),
	)

	return e.scorer.ScoreAll(query, ordered), nil
}

func (e *SemanticEngine) buildRankingPrompt(query string, candidates []models.PartRecord) string {
	limit := len(candidates)
	if limit > e.summaryCap {
		limit = e.summaryCap
	}

	var summary strings.Builder
	for i := 0; i < limit; i++ {
		c := candidates[i]
		summary.WriteString(fmt.Sprintf("%d. [%s] %s | Material: %s | Size: %s | Vendor: %s\n",
			i+1,
			c.MaterialNumber,
			orDefault(c.Description, "No description"),
			orDefault(c.BasicMaterial, orDefault(c.MaterialGroup, "N/A")),
			orDefault(c.SizeDimension, "N/A"),
			orDefault(c.VendorName, "N/A"),
		))
	}

	categories := distinctMaterialGroups(candidates)

	return fmt.Sprintf(`You are an industrial parts search expert. A user is searching for parts using natural language.

USER QUERY: "%s"

AVAILABLE PARTS (showing first %d):
%s
OBSERVED CATEGORIES: %s

Based on the user's query, identify the 10-20 most relevant parts. Consider:
- Semantic meaning of the query (e.g., "fasteners" should match bolts, screws, nuts)
- Material requirements (e.g., "stainless" should match SS316, SS304, etc.)
- Size/dimension matches
- Use case context (e.g., "for piping" should match pipe fittings, flanges, etc.)

Return a JSON array of the matching part numbers in order of relevance:
["MAT001", "MAT002", ...]

Only return the JSON array, no other text.`, query, limit, summary.String(), strings.Join(categories, ", "))
}

func distinctMaterialGroups(candidates []models.PartRecord) []string {
	seen := make(map[string]bool)
	var groups []string
	for _, c := range candidates {
		if c.MaterialGroup == "" || seen[c.MaterialGroup] {
			continue
		}
		seen[c.MaterialGroup] = true
		groups = append(groups, c.MaterialGroup)
	}
	sort.Strings(groups)
	return groups
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
