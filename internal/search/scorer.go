package search

import (
	"strings"

	"github.com/sourcing-buddy/backend/internal/storage/models"
)

// ExactMatchThreshold partitions the single best record from the rest for
// priority display.
const ExactMatchThreshold = 98

// Scorer assigns each result a 0-100 relevance score and a per-attribute
// breakdown. Both are deterministic over the record and the query.
type Scorer struct{}

func NewScorer() *Scorer {
	return &Scorer{}
}

// Score computes the match score from record completeness: base 70, +10 for a
// description, +10 when in stock, +5 for a grade, +5 for certifications,
// capped at 100.
func (s *Scorer) Score(query string, record models.PartRecord) models.SearchResult {
	score := 70
	if record.Description != "" {
		score += 10
	}
	if record.InStock {
		score += 10
	}
	if record.Grade != "" {
		score += 5
	}
	if len(record.Certifications) > 0 {
		score += 5
	}
	if score > 100 {
		score = 100
	}

	tokens := strings.Fields(strings.ToLower(query))

	return models.SearchResult{
		PartRecord: record,
		MatchScore: score,
		MatchBreakdown: &models.MatchBreakdown{
			Size:           attributeScore(tokens, record.SizeDimension),
			Material:       attributeScore(tokens, record.BasicMaterial+" "+record.MaterialGroup),
			Grade:          attributeScore(tokens, record.Grade),
			Specifications: attributeScore(tokens, strings.Join(record.Certifications, " ")),
		},
	}
}

func (s *Scorer) ScoreAll(query string, records []models.PartRecord) []models.SearchResult {
	results := make([]models.SearchResult, 0, len(records))
	for _, record := range records {
		results = append(results, s.Score(query, record))
	}
	return results
}

// SplitExactMatch separates the single best result when its score reaches the
// exact-match threshold. The remainder preserves the input order.
func SplitExactMatch(results []models.SearchResult) (*models.SearchResult, []models.SearchResult) {
	best := -1
	for i, r := range results {
		if r.MatchScore < ExactMatchThreshold {
			continue
		}
		if best == -1 || r.MatchScore > results[best].MatchScore {
			best = i
		}
	}

	if best == -1 {
		return nil, results
	}

	exact := results[best]
	rest := make([]models.SearchResult, 0, len(results)-1)
	rest = append(rest, results[:best]...)
	rest = append(rest, results[best+1:]...)
	return &exact, rest
}

// attributeScore rates one attribute against the query tokens: 60 when the
// attribute is absent, 75 when present, plus up to 25 from the fraction of
// query tokens found in the attribute value.
func attributeScore(queryTokens []string, value string) int {
	if strings.TrimSpace(value) == "" {
		return 60
	}
	if len(queryTokens) == 0 {
		return 75
	}

	lower := strings.ToLower(value)
	matched := 0
	for _, token := range queryTokens {
		if strings.Contains(lower, token) {
			matched++
		}
	}

	return 75 + (25*matched)/len(queryTokens)
}
