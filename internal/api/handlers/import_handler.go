package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/sourcing-buddy/backend/internal/cache/redis"
	"github.com/sourcing-buddy/backend/internal/ingestion"
	"github.com/sourcing-buddy/backend/internal/metrics"
	"github.com/sourcing-buddy/backend/internal/storage/models"
	"github.com/sourcing-buddy/backend/pkg/logger"
)

type ImportHandler struct {
	processor *ingestion.Processor
	cache     *redis.Client
}

func NewImportHandler(processor *ingestion.Processor, cache *redis.Client) *ImportHandler {
	return &ImportHandler{
		processor: processor,
		cache:     cache,
	}
}

func (h *ImportHandler) HandleImport(c *fiber.Ctx) error {
	var req struct {
		Rows []models.PartRecord `json:"rows"`
	}

	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if len(req.Rows) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No rows provided",
		})
	}

	stats, err := h.processor.ImportRows(c.Context(), req.Rows)
	if err != nil {
		logger.Error("Bulk import failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to import rows",
		})
	}

	metrics.PartsImported.Add(float64(stats.Inserted))

	if h.cache != nil {
		if err := h.cache.InvalidateSearchCache(context.Background()); err != nil {
			logger.Warn("Failed to invalidate search cache after import", zap.Error(err))
		}
	}

	return c.JSON(fiber.Map{
		"success": true,
		"stats":   stats,
	})
}
