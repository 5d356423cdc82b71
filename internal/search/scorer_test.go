package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sourcing-buddy/backend/internal/storage/models"
)

func TestScoreBaseRecord(t *testing.T) {
	scorer := NewScorer()

	result := scorer.Score("anything", models.PartRecord{MaterialNumber: "MAT001"})

	assert.Equal(t, 70, result.MatchScore, "bare record scores the base")
}

func TestScoreAdditiveBonuses(t *testing.T) {
	scorer := NewScorer()

	tests := []struct {
		name   string
		record models.PartRecord
		want   int
	}{
		{
			name:   "description",
			record: models.PartRecord{Description: "Flange"},
			want:   80,
		},
		{
			name:   "description and stock",
			record: models.PartRecord{Description: "Flange", InStock: true},
			want:   90,
		},
		{
			name:   "description, stock and grade",
			record: models.PartRecord{Description: "Flange", InStock: true, Grade: "316"},
			want:   95,
		},
		{
			name: "everything",
			record: models.PartRecord{
				Description:    "Flange",
				InStock:        true,
				Grade:          "316",
				Certifications: []string{"ISO 9001"},
			},
			want: 100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := scorer.Score("q", tt.record)
			assert.Equal(t, tt.want, result.MatchScore)
		})
	}
}

func TestScoreBreakdownDeterministic(t *testing.T) {
	scorer := NewScorer()
	record := models.PartRecord{
		Description:   "Stainless flange",
		SizeDimension: "2 inch",
		BasicMaterial: "SS316",
		Grade:         "316",
	}

	first := scorer.Score("stainless 316", record)
	second := scorer.Score("stainless 316", record)

	require.NotNil(t, first.MatchBreakdown)
	assert.Equal(t, first.MatchBreakdown, second.MatchBreakdown, "same query and record, same breakdown")
}

func TestScoreBreakdownAbsentAttribute(t *testing.T) {
	scorer := NewScorer()

	result := scorer.Score("steel", models.PartRecord{Description: "Part"})

	require.NotNil(t, result.MatchBreakdown)
	assert.Equal(t, 60, result.MatchBreakdown.Size, "absent attribute floors at 60")
	assert.Equal(t, 60, result.MatchBreakdown.Grade)
}

func TestScoreBreakdownTokenOverlap(t *testing.T) {
	scorer := NewScorer()
	record := models.PartRecord{BasicMaterial: "Stainless Steel"}

	full := scorer.Score("stainless steel", record)
	half := scorer.Score("stainless chrome", record)

	require.NotNil(t, full.MatchBreakdown)
	assert.Equal(t, 100, full.MatchBreakdown.Material, "every token found")
	assert.Equal(t, 87, half.MatchBreakdown.Material, "half the tokens found")
}

func TestSplitExactMatchNoneQualifies(t *testing.T) {
	results := []models.SearchResult{
		{PartRecord: part("MAT001", ""), MatchScore: 80},
		{PartRecord: part("MAT002", ""), MatchScore: 95},
	}

	exact, rest := SplitExactMatch(results)

	assert.Nil(t, exact)
	assert.Equal(t, results, rest)
}

func TestSplitExactMatchExtractsBest(t *testing.T) {
	results := []models.SearchResult{
		{PartRecord: part("MAT001", ""), MatchScore: 80},
		{PartRecord: part("MAT002", ""), MatchScore: 100},
		{PartRecord: part("MAT003", ""), MatchScore: 98},
	}

	exact, rest := SplitExactMatch(results)

	require.NotNil(t, exact)
	assert.Equal(t, "MAT002", exact.MaterialNumber)
	require.Len(t, rest, 2)
	assert.Equal(t, "MAT001", rest[0].MaterialNumber, "remainder preserves input order")
	assert.Equal(t, "MAT003", rest[1].MaterialNumber)
}
