package search

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/sourcing-buddy/backend/internal/llm"
	"github.com/sourcing-buddy/backend/internal/storage/models"
	"github.com/sourcing-buddy/backend/pkg/logger"
)

const similarSystemPrompt = "You are an expert at matching industrial parts. Always respond with valid JSON only."

// maxSimilarParts caps the annotated subset the recommender returns.
const maxSimilarParts = 3

type Recommender struct {
	store        PartStore
	ai           Completer
	scorer       *Scorer
	candidateCap int
}

func NewRecommender(store PartStore, ai Completer, scorer *Scorer, candidateCap int) *Recommender {
	if candidateCap <= 0 {
		candidateCap = 20
	}
	return &Recommender{
		store:        store,
		ai:           ai,
		scorer:       scorer,
		candidateCap: candidateCap,
	}
}

// Recommend finds alternative parts for the focal part: near neighbors by
// shared material attributes, ranked and explained by the AI collaborator.
// Zero candidates or an unparseable AI reply yield an empty result, not an
// error.
func (r *Recommender) Recommend(ctx context.Context, focal models.PartRecord) ([]models.SearchResult, error) {
	candidates, err := r.store.SharedAttributeParts(ctx, focal, r.candidateCap)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return []models.SearchResult{}, nil
	}

	resp, err := r.ai.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: similarSystemPrompt,
		UserPrompt:   buildSimilarityPrompt(focal, candidates),
	})
	if err != nil {
		return nil, err
	}

	matches, ok := llm.ParseSimilarMatches(resp.Content)
	if !ok {
		logger.Warn("AI similarity response not parseable, returning empty result",
			zap.String("material_number", focal.MaterialNumber),
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

	results := make([]models.SearchResult, 0, maxSimilarParts)
	for _, match := range matches {
		record, found := byNumber[match.MaterialNumber]
		if !found {
			continue
		}
		result := r.scorer.Score("", record)
		result.SimilarityScore = match.SimilarityScore
		result.SimilarityReason = match.Reason
		results = append(results, result)
		if len(results) == maxSimilarParts {
			break
		}
	}

	logger.Info("Similar parts recommended",
		zap.String("material_number", focal.MaterialNumber),
		zap.Int("candidates", len(candidates)),
		zap.Int("results", len(results)),
	)

	return results, nil
}

func buildSimilarityPrompt(focal models.PartRecord, candidates []models.PartRecord) string {
	var candidateList strings.Builder
	for i, c := range candidates {
		candidateList.WriteString(fmt.Sprintf(`
%d. Material Number: %s
   Description: %s
   Basic Material: %s
   Material Group: %s
   Size/Dimension: %s
   Grade: %s
   Vendor: %s
`,
			i+1,
			orDefault(c.MaterialNumber, "N/A"),
			orDefault(c.Description, "N/A"),
			orDefault(c.BasicMaterial, "N/A"),
			orDefault(c.MaterialGroup, "N/A"),
			orDefault(c.SizeDimension, "N/A"),
			orDefault(c.Grade, "N/A"),
			orDefault(c.VendorName, "N/A"),
		))
	}

	return fmt.Sprintf(`You are an industrial parts matching expert. Analyze the target part and find the 2-3 most similar alternative parts from the candidates.

TARGET PART:
- Material Number: %s
- Description: %s
- Basic Material: %s
- Material Group: %s
- Size/Dimension: %s
- Grade: %s
- Vendor: %s

CANDIDATE PARTS:
%s
Return a JSON array of the 2-3 most similar parts with this exact format:
[
  {
    "material_number": "the material number",
    "similarity_score": 85,
    "reason": "Brief explanation of why this is similar (e.g., 'Same material type and similar dimensions')"
  }
]

Only return the JSON array, no other text.`,
		orDefault(focal.MaterialNumber, "N/A"),
		orDefault(focal.Description, "N/A"),
		orDefault(focal.BasicMaterial, "N/A"),
		orDefault(focal.MaterialGroup, "N/A"),
		orDefault(focal.SizeDimension, "N/A"),
		orDefault(focal.Grade, "N/A"),
		orDefault(focal.VendorName, "N/A"),
		candidateList.String(),
	)
}
