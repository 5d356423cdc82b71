package ingestion

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sourcing-buddy/backend/internal/storage/models"
	"github.com/sourcing-buddy/backend/pkg/logger"
)

// PartStore is the import surface of the record store.
type PartStore interface {
	ReplaceAll(ctx context.Context, rows []models.PartRecord, batchSize int, importedAt int64) (int, error)
}

type ImportStats struct {
	TotalRows int `json:"total_rows"`
	Inserted  int `json:"inserted"`
	Skipped   int `json:"skipped"`
}

type Processor struct {
	store     PartStore
	batchSize int
}

func NewProcessor(store PartStore) *Processor {
	return &Processor{
		store:     store,
		batchSize: 100,
	}
}

// ImportRows replaces the parts catalog with the given rows. Rows without a
// material number are skipped; the remainder is inserted in batches.
func (p *Processor) ImportRows(ctx context.Context, rows []models.PartRecord) (*ImportStats, error) {
	logger.Info("Starting bulk import", zap.Int("rows", len(rows)))

	valid := make([]models.PartRecord, 0, len(rows))
	for _, row := range rows {
		if row.MaterialNumber == "" {
			continue
		}
		if row.ID == "" {
			row.ID = uuid.New().String()
		}
		valid = append(valid, row)
	}

	if len(valid) == 0 {
		return nil, fmt.Errorf("no valid rows with material_number")
	}

	inserted, err := p.store.ReplaceAll(ctx, valid, p.batchSize, time.Now().Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to import rows: %w", err)
	}

	logger.Info("Bulk import completed",
		zap.Int("inserted", inserted),
		zap.Int("skipped", len(rows)-len(valid)),
	)

	return &ImportStats{
		TotalRows: len(rows),
		Inserted:  inserted,
		Skipped:   len(rows) - len(valid),
	}, nil
}
