package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sourcing-buddy/backend/internal/storage"
	"github.com/sourcing-buddy/backend/internal/storage/models"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()

	client, err := NewClient(filepath.Join(t.TempDir(), "parts.db"))
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	require.NoError(t, client.InitSchema())
	return client
}

func seed(t *testing.T, client *Client, rows []models.PartRecord) {
	t.Helper()

	for i := range rows {
		if rows[i].ID == "" {
			rows[i].ID = rows[i].MaterialNumber + "-row"
		}
	}
	inserted, err := client.ReplaceAll(context.Background(), rows, 100, 1700000000)
	require.NoError(t, err)
	require.Equal(t, len(rows), inserted)
}

func TestQueryPartsClauseSemantics(t *testing.T) {
	client := newTestClient(t)
	seed(t, client, []models.PartRecord{
		{MaterialNumber: "MAT001", Description: "Stainless steel flange", BasicMaterial: "SS316"},
		{MaterialNumber: "MAT002", Description: "Carbon steel pipe", BasicMaterial: "CS"},
		{MaterialNumber: "MAT003", Description: "Brass valve", BasicMaterial: "Brass"},
	})

	// Every clause must match; within a clause any field may match.
	pred := storage.Predicate{
		storage.Contains("steel", "description", "basic_material"),
		storage.Contains("flange", "description", "basic_material"),
	}

	records, err := client.QueryParts(context.Background(), pred, 100)

	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "MAT001", records[0].MaterialNumber)
}

func TestQueryPartsCaseInsensitive(t *testing.T) {
	client := newTestClient(t)
	seed(t, client, []models.PartRecord{
		{MaterialNumber: "MAT001", Description: "STAINLESS STEEL FLANGE"},
	})

	records, err := client.QueryParts(context.Background(),
		storage.Predicate{storage.Contains("stainless", "description")}, 100)

	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestQueryPartsRejectsUnsearchableField(t *testing.T) {
	client := newTestClient(t)

	_, err := client.QueryParts(context.Background(),
		storage.Predicate{storage.Contains("x", "imported_at")}, 100)

	assert.ErrorIs(t, err, storage.ErrStoreUnavailable)
}

func TestQueryPartsHonorsLimit(t *testing.T) {
	client := newTestClient(t)
	seed(t, client, []models.PartRecord{
		{MaterialNumber: "MAT001", Description: "part"},
		{MaterialNumber: "MAT002", Description: "part"},
		{MaterialNumber: "MAT003", Description: "part"},
	})

	records, err := client.QueryParts(context.Background(),
		storage.Predicate{storage.Contains("part", "description")}, 2)

	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestSharedAttributeParts(t *testing.T) {
	client := newTestClient(t)
	seed(t, client, []models.PartRecord{
		{MaterialNumber: "MAT001", MaterialGroup: "FLANGES"},
		{MaterialNumber: "MAT002", MaterialGroup: "FLANGES"},
		{MaterialNumber: "MAT003", MaterialGroup: "VALVES"},
	})

	focal := models.PartRecord{MaterialNumber: "MAT001", MaterialGroup: "FLANGES"}
	records, err := client.SharedAttributeParts(context.Background(), focal, 20)

	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "MAT002", records[0].MaterialNumber, "the focal part excludes itself")
}

func TestSharedAttributePartsNoAttributes(t *testing.T) {
	client := newTestClient(t)
	seed(t, client, []models.PartRecord{
		{MaterialNumber: "MAT001", MaterialGroup: "FLANGES"},
	})

	records, err := client.SharedAttributeParts(context.Background(),
		models.PartRecord{MaterialNumber: "MAT099"}, 20)

	require.NoError(t, err)
	assert.Nil(t, records, "nothing to pivot on, nothing to return")
}

func TestGetPartByMaterialNumber(t *testing.T) {
	client := newTestClient(t)
	po := 950.5
	seed(t, client, []models.PartRecord{
		{
			MaterialNumber: "MAT001",
			Description:    "Hex bolt",
			InStock:        true,
			POValue:        &po,
			Certifications: []string{"ISO 9001", "API 6A"},
		},
	})

	record, err := client.GetPartByMaterialNumber(context.Background(), "MAT001")

	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, "Hex bolt", record.Description)
	assert.True(t, record.InStock)
	require.NotNil(t, record.POValue)
	assert.Equal(t, 950.5, *record.POValue)
	assert.Equal(t, []string{"ISO 9001", "API 6A"}, record.Certifications)

	missing, err := client.GetPartByMaterialNumber(context.Background(), "MAT404")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestReplaceAllClearsPreviousCatalog(t *testing.T) {
	client := newTestClient(t)
	seed(t, client, []models.PartRecord{
		{MaterialNumber: "OLD001", Description: "old"},
		{MaterialNumber: "OLD002", Description: "old"},
	})

	seed(t, client, []models.PartRecord{
		{MaterialNumber: "NEW001", Description: "new"},
	})

	records, err := client.ListParts(context.Background(), 100)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "NEW001", records[0].MaterialNumber)
}
