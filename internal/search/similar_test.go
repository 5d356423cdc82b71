package search

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sourcing-buddy/backend/internal/storage/models"
)

func TestRecommendNoCandidates(t *testing.T) {
	store := &fakeStore{}
	ai := &fakeCompleter{}
	rec := NewRecommender(store, ai, NewScorer(), 20)

	results, err := rec.Recommend(context.Background(), part("MAT001", "Bolt"))

	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Empty(t, ai.lastReq.UserPrompt, "no candidates means no AI call")
}

func TestRecommendAttachesSimilarityMetadata(t *testing.T) {
	store := &fakeStore{
		sharedRecords: []models.PartRecord{
			part("MAT002", "Bolt, zinc plated"),
			part("MAT003", "Bolt, galvanized"),
		},
	}
	ai := &fakeCompleter{reply: `[
		{"material_number": "MAT003", "similarity_score": 90, "reason": "Same thread size"},
		{"material_number": "MAT002", "similarity_score": 82, "reason": "Same material type"}
	]`}
	rec := NewRecommender(store, ai, NewScorer(), 20)

	results, err := rec.Recommend(context.Background(), part("MAT001", "Bolt"))

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "MAT003", results[0].MaterialNumber, "AI similarity order is kept")
	assert.Equal(t, 90, results[0].SimilarityScore)
	assert.Equal(t, "Same thread size", results[0].SimilarityReason)
	assert.Equal(t, 82, results[1].SimilarityScore)
}

func TestRecommendCapsAtThree(t *testing.T) {
	store := &fakeStore{
		sharedRecords: []models.PartRecord{
			part("MAT002", "a"), part("MAT003", "b"),
			part("MAT004", "c"), part("MAT005", "d"),
		},
	}
	ai := &fakeCompleter{reply: `[
		{"material_number": "MAT002", "similarity_score": 95, "reason": "r"},
		{"material_number": "MAT003", "similarity_score": 90, "reason": "r"},
		{"material_number": "MAT004", "similarity_score": 85, "reason": "r"},
		{"material_number": "MAT005", "similarity_score": 80, "reason": "r"}
	]`}
	rec := NewRecommender(store, ai, NewScorer(), 20)

	results, err := rec.Recommend(context.Background(), part("MAT001", "Bolt"))

	require.NoError(t, err)
	assert.Len(t, results, 3)
}

func TestRecommendSkipsHallucinatedNumbers(t *testing.T) {
	store := &fakeStore{
		sharedRecords: []models.PartRecord{part("MAT002", "Bolt")},
	}
	ai := &fakeCompleter{reply: `[
		{"material_number": "MAT999", "similarity_score": 99, "reason": "invented"},
		{"material_number": "MAT002", "similarity_score": 80, "reason": "real"}
	]`}
	rec := NewRecommender(store, ai, NewScorer(), 20)

	results, err := rec.Recommend(context.Background(), part("MAT001", "Bolt"))

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "MAT002", results[0].MaterialNumber)
}

func TestRecommendMalformedReplyDegradesToEmpty(t *testing.T) {
	store := &fakeStore{
		sharedRecords: []models.PartRecord{part("MAT002", "Bolt")},
	}
	ai := &fakeCompleter{reply: "no json here"}
	rec := NewRecommender(store, ai, NewScorer(), 20)

	results, err := rec.Recommend(context.Background(), part("MAT001", "Bolt"))

	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestRecommendPropagatesAIError(t *testing.T) {
	aiErr := errors.New("quota exceeded")
	store := &fakeStore{
		sharedRecords: []models.PartRecord{part("MAT002", "Bolt")},
	}
	ai := &fakeCompleter{err: aiErr}
	rec := NewRecommender(store, ai, NewScorer(), 20)

	_, err := rec.Recommend(context.Background(), part("MAT001", "Bolt"))

	assert.ErrorIs(t, err, aiErr)
}

func TestSimilarityPromptDescribesTargetAndCandidates(t *testing.T) {
	store := &fakeStore{
		sharedRecords: []models.PartRecord{
			{MaterialNumber: "MAT002", Description: "Bolt, zinc plated", BasicMaterial: "Carbon Steel"},
		},
	}
	ai := &fakeCompleter{reply: `[]`}
	rec := NewRecommender(store, ai, NewScorer(), 20)

	focal := models.PartRecord{MaterialNumber: "MAT001", Description: "Hex bolt", Grade: "8.8"}
	_, err := rec.Recommend(context.Background(), focal)

	require.NoError(t, err)
	assert.Contains(t, ai.lastReq.UserPrompt, "TARGET PART:")
	assert.Contains(t, ai.lastReq.UserPrompt, "Hex bolt")
	assert.Contains(t, ai.lastReq.UserPrompt, "CANDIDATE PARTS:")
	assert.Contains(t, ai.lastReq.UserPrompt, "Carbon Steel")
}
