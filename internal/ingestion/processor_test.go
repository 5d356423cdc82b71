package ingestion

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sourcing-buddy/backend/internal/storage/models"
)

type fakeStore struct {
	rows      []models.PartRecord
	batchSize int
	err       error
}

func (f *fakeStore) ReplaceAll(ctx context.Context, rows []models.PartRecord, batchSize int, importedAt int64) (int, error) {
	f.rows = rows
	f.batchSize = batchSize
	if f.err != nil {
		return 0, f.err
	}
	return len(rows), nil
}

func TestImportRowsSkipsRowsWithoutMaterialNumber(t *testing.T) {
	store := &fakeStore{}
	p := NewProcessor(store)

	stats, err := p.ImportRows(context.Background(), []models.PartRecord{
		{MaterialNumber: "MAT001", Description: "Bolt"},
		{Description: "Orphan row"},
		{MaterialNumber: "MAT002", Description: "Nut"},
	})

	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalRows)
	assert.Equal(t, 2, stats.Inserted)
	assert.Equal(t, 1, stats.Skipped)
	assert.Len(t, store.rows, 2)
}

func TestImportRowsAssignsMissingIDs(t *testing.T) {
	store := &fakeStore{}
	p := NewProcessor(store)

	_, err := p.ImportRows(context.Background(), []models.PartRecord{
		{MaterialNumber: "MAT001"},
		{ID: "keep-me", MaterialNumber: "MAT002"},
	})

	require.NoError(t, err)
	require.Len(t, store.rows, 2)
	assert.NotEmpty(t, store.rows[0].ID)
	assert.Equal(t, "keep-me", store.rows[1].ID)
}

func TestImportRowsAllInvalid(t *testing.T) {
	store := &fakeStore{}
	p := NewProcessor(store)

	_, err := p.ImportRows(context.Background(), []models.PartRecord{
		{Description: "no number"},
	})

	assert.Error(t, err)
	assert.Empty(t, store.rows, "nothing reaches the store when no row is valid")
}

func TestImportRowsPropagatesStoreError(t *testing.T) {
	storeErr := errors.New("database locked")
	store := &fakeStore{err: storeErr}
	p := NewProcessor(store)

	_, err := p.ImportRows(context.Background(), []models.PartRecord{
		{MaterialNumber: "MAT001"},
	})

	assert.ErrorIs(t, err, storeErr)
}
