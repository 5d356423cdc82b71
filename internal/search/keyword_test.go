package search

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sourcing-buddy/backend/internal/llm"
	"github.com/sourcing-buddy/backend/internal/storage"
	"github.com/sourcing-buddy/backend/internal/storage/models"
)

type fakeStore struct {
	queryRecords  []models.PartRecord
	listRecords   []models.PartRecord
	sharedRecords []models.PartRecord
	err           error

	queryCalls int
	lastPred   storage.Predicate
	lastLimit  int
}

func (f *fakeStore) QueryParts(ctx context.Context, pred storage.Predicate, limit int) ([]models.PartRecord, error) {
	f.queryCalls++
	f.lastPred = pred
	f.lastLimit = limit
	if f.err != nil {
		return nil, f.err
	}
	return f.queryRecords, nil
}

func (f *fakeStore) ListParts(ctx context.Context, limit int) ([]models.PartRecord, error) {
	f.lastLimit = limit
	if f.err != nil {
		return nil, f.err
	}
	return f.listRecords, nil
}

func (f *fakeStore) SharedAttributeParts(ctx context.Context, focal models.PartRecord, limit int) ([]models.PartRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.sharedRecords, nil
}

type fakeCompleter struct {
	reply   string
	err     error
	lastReq llm.CompletionRequest
}

func (f *fakeCompleter) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return &llm.CompletionResponse{Content: f.reply}, nil
}

func part(materialNumber, description string) models.PartRecord {
	return models.PartRecord{
		ID:             "id-" + materialNumber,
		MaterialNumber: materialNumber,
		Description:    description,
	}
}

func TestKeywordSearchEmptyQuerySkipsStore(t *testing.T) {
	store := &fakeStore{}
	engine := NewKeywordEngine(store, NewScorer(), 500, 100)

	results, err := engine.Search(context.Background(), "   ")

	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Equal(t, 0, store.queryCalls, "empty query must not touch the store")
}

func TestKeywordSearchBuildsClausePerToken(t *testing.T) {
	store := &fakeStore{}
	engine := NewKeywordEngine(store, NewScorer(), 500, 100)

	_, err := engine.Search(context.Background(), "steel flange 2in")

	require.NoError(t, err)
	require.Len(t, store.lastPred, 3, "one clause per whitespace token")
	for _, clause := range store.lastPred {
		assert.Len(t, clause, len(keywordFields), "each token matched against every searchable field")
	}
	assert.Equal(t, "steel", store.lastPred[0][0].Value)
	assert.Equal(t, "flange", store.lastPred[1][0].Value)
	assert.Equal(t, "2in", store.lastPred[2][0].Value)
	assert.Equal(t, 500, store.lastLimit)
}

func TestKeywordSearchDeduplicatesByMaterialNumber(t *testing.T) {
	store := &fakeStore{
		queryRecords: []models.PartRecord{
			part("MAT001", "First sighting"),
			part("MAT002", "Other part"),
			part("MAT001", "Duplicate sighting"),
		},
	}
	engine := NewKeywordEngine(store, NewScorer(), 500, 100)

	results, err := engine.Search(context.Background(), "part")

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "MAT001", results[0].MaterialNumber)
	assert.Equal(t, "First sighting", results[0].Description, "first occurrence wins")
	assert.Equal(t, "MAT002", results[1].MaterialNumber)
}

func TestKeywordSearchCapsDisplayedResults(t *testing.T) {
	records := make([]models.PartRecord, 0, 30)
	for i := 0; i < 30; i++ {
		records = append(records, part("MAT"+string(rune('A'+i%26))+string(rune('A'+i/26)), "part"))
	}
	store := &fakeStore{queryRecords: records}
	engine := NewKeywordEngine(store, NewScorer(), 500, 10)

	results, err := engine.Search(context.Background(), "part")

	require.NoError(t, err)
	assert.Len(t, results, 10)
}

func TestKeywordSearchPropagatesStoreError(t *testing.T) {
	storeErr := errors.New("disk on fire")
	store := &fakeStore{err: storeErr}
	engine := NewKeywordEngine(store, NewScorer(), 500, 100)

	_, err := engine.Search(context.Background(), "steel")

	assert.ErrorIs(t, err, storeErr)
}

func TestKeywordSearchScoresEveryResult(t *testing.T) {
	store := &fakeStore{
		queryRecords: []models.PartRecord{
			part("MAT001", "Stainless steel flange"),
		},
	}
	engine := NewKeywordEngine(store, NewScorer(), 500, 100)

	results, err := engine.Search(context.Background(), "steel")

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.GreaterOrEqual(t, results[0].MatchScore, 70)
	assert.LessOrEqual(t, results[0].MatchScore, 100)
	require.NotNil(t, results[0].MatchBreakdown)
}
