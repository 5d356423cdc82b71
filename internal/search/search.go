package search

import (
	"context"

	"github.com/sourcing-buddy/backend/internal/llm"
	"github.com/sourcing-buddy/backend/internal/storage"
	"github.com/sourcing-buddy/backend/internal/storage/models"
)

// PartStore is the record store surface the engines depend on.
type PartStore interface {
	QueryParts(ctx context.Context, pred storage.Predicate, limit int) ([]models.PartRecord, error)
	ListParts(ctx context.Context, limit int) ([]models.PartRecord, error)
	SharedAttributeParts(ctx context.Context, focal models.PartRecord, limit int) ([]models.PartRecord, error)
}

// Completer is the AI collaborator surface: one prompt in, text out.
type Completer interface {
	Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error)
}

// dedupRecords collapses records sharing a material number, keeping the first
// occurrence in input order. Records without a material number cannot be
// collapsed and pass through.
func dedupRecords(records []models.PartRecord) []models.PartRecord {
	seen := make(map[string]bool, len(records))
	out := make([]models.PartRecord, 0, len(records))
	for _, r := range records {
		if r.MaterialNumber != "" {
			if seen[r.MaterialNumber] {
				continue
			}
			seen[r.MaterialNumber] = true
		}
		out = append(out, r)
	}
	return out
}
