package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sourcing-buddy/backend/internal/storage/models"
)

func resultWith(record models.PartRecord) models.SearchResult {
	return models.SearchResult{PartRecord: record, MatchScore: 80}
}

func TestRefineGradeBeatsBaseMaterial(t *testing.T) {
	results := []models.SearchResult{
		resultWith(models.PartRecord{MaterialNumber: "MAT001", BasicMaterial: "SS316"}),
		resultWith(models.PartRecord{MaterialNumber: "MAT002", BasicMaterial: "Carbon Steel"}),
	}

	filtered, rule := Refine(results, "only stainless steel 316 please")

	assert.Equal(t, "grade-316", rule, "the 316 rule outranks the generic steel rule")
	require.Len(t, filtered, 1)
	assert.Equal(t, "MAT001", filtered[0].MaterialNumber)
}

func TestRefineInStock(t *testing.T) {
	results := []models.SearchResult{
		resultWith(models.PartRecord{MaterialNumber: "MAT001", InStock: true}),
		resultWith(models.PartRecord{MaterialNumber: "MAT002"}),
	}

	filtered, rule := Refine(results, "show in stock only")

	assert.Equal(t, "in-stock", rule)
	require.Len(t, filtered, 1)
	assert.Equal(t, "MAT001", filtered[0].MaterialNumber)
}

func TestRefinePreviouslyOrdered(t *testing.T) {
	po := 1250.0
	results := []models.SearchResult{
		resultWith(models.PartRecord{MaterialNumber: "MAT001", POValue: &po}),
		resultWith(models.PartRecord{MaterialNumber: "MAT002"}),
	}

	filtered, rule := Refine(results, "ones we previously ordered")

	assert.Equal(t, "previously-ordered", rule)
	require.Len(t, filtered, 1)
	assert.Equal(t, "MAT001", filtered[0].MaterialNumber)
}

func TestRefineSteelMatchesMaterialGroup(t *testing.T) {
	results := []models.SearchResult{
		resultWith(models.PartRecord{MaterialNumber: "MAT001", MaterialGroup: "STEEL PLATES"}),
		resultWith(models.PartRecord{MaterialNumber: "MAT002", MaterialGroup: "GASKETS"}),
	}

	filtered, rule := Refine(results, "just the steel ones")

	assert.Equal(t, "steel", rule)
	require.Len(t, filtered, 1)
	assert.Equal(t, "MAT001", filtered[0].MaterialNumber)
}

func TestRefineNoMatchingRulePassesThrough(t *testing.T) {
	results := []models.SearchResult{
		resultWith(models.PartRecord{MaterialNumber: "MAT001"}),
	}

	filtered, rule := Refine(results, "cheaper alternatives")

	assert.Empty(t, rule)
	assert.Equal(t, results, filtered, "unrecognized phrase leaves the set unchanged")
}

func TestRefineIsCaseInsensitive(t *testing.T) {
	results := []models.SearchResult{
		resultWith(models.PartRecord{MaterialNumber: "MAT001", BasicMaterial: "Chrome Alloy"}),
		resultWith(models.PartRecord{MaterialNumber: "MAT002", BasicMaterial: "Brass"}),
	}

	filtered, rule := Refine(results, "CHROME only")

	assert.Equal(t, "chrome", rule)
	assert.Len(t, filtered, 1)
}

func TestApplyFacetsEmptySelectionKeepsAll(t *testing.T) {
	results := []models.SearchResult{
		resultWith(models.PartRecord{MaterialNumber: "MAT001", MaterialGroup: "PIPES"}),
		resultWith(models.PartRecord{MaterialNumber: "MAT002", MaterialGroup: "VALVES"}),
	}

	filtered := ApplyFacets(results, FacetSelection{})

	assert.Equal(t, results, filtered)
}

func TestApplyFacetsIntersectsAcrossFacets(t *testing.T) {
	results := []models.SearchResult{
		resultWith(models.PartRecord{MaterialNumber: "MAT001", MaterialGroup: "PIPES", VendorCode: "V1"}),
		resultWith(models.PartRecord{MaterialNumber: "MAT002", MaterialGroup: "PIPES", VendorCode: "V2"}),
		resultWith(models.PartRecord{MaterialNumber: "MAT003", MaterialGroup: "VALVES", VendorCode: "V1"}),
	}

	filtered := ApplyFacets(results, FacetSelection{
		"material_group": {"PIPES"},
		"vendor_code":    {"V1"},
	})

	require.Len(t, filtered, 1)
	assert.Equal(t, "MAT001", filtered[0].MaterialNumber)
}

func TestApplyFacetsUnionWithinFacet(t *testing.T) {
	results := []models.SearchResult{
		resultWith(models.PartRecord{MaterialNumber: "MAT001", MaterialGroup: "PIPES"}),
		resultWith(models.PartRecord{MaterialNumber: "MAT002", MaterialGroup: "VALVES"}),
		resultWith(models.PartRecord{MaterialNumber: "MAT003", MaterialGroup: "GASKETS"}),
	}

	filtered := ApplyFacets(results, FacetSelection{
		"material_group": {"PIPES", "VALVES"},
	})

	assert.Len(t, filtered, 2)
}

func TestApplyFacetsIdempotent(t *testing.T) {
	results := []models.SearchResult{
		resultWith(models.PartRecord{MaterialNumber: "MAT001", MaterialGroup: "PIPES"}),
		resultWith(models.PartRecord{MaterialNumber: "MAT002", MaterialGroup: "VALVES"}),
	}
	selection := FacetSelection{"material_group": {"PIPES"}}

	once := ApplyFacets(results, selection)
	twice := ApplyFacets(once, selection)

	assert.Equal(t, once, twice)
}

func TestFacetOptionsSortedDistinctNonEmpty(t *testing.T) {
	results := []models.SearchResult{
		resultWith(models.PartRecord{MaterialNumber: "MAT001", MaterialGroup: "VALVES"}),
		resultWith(models.PartRecord{MaterialNumber: "MAT002", MaterialGroup: "PIPES"}),
		resultWith(models.PartRecord{MaterialNumber: "MAT003", MaterialGroup: "PIPES"}),
		resultWith(models.PartRecord{MaterialNumber: "MAT004"}),
	}

	options := FacetOptions(results)

	assert.Equal(t, []string{"PIPES", "VALVES"}, options["material_group"])
	assert.Empty(t, options["vendor_code"], "facets with no observed values stay empty")
}
