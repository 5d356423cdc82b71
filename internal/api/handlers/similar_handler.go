package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/sourcing-buddy/backend/internal/metrics"
	"github.com/sourcing-buddy/backend/internal/search"
	"github.com/sourcing-buddy/backend/internal/session"
	"github.com/sourcing-buddy/backend/internal/storage/models"
	"github.com/sourcing-buddy/backend/pkg/logger"
)

// PartLookup resolves a material number to its first catalog record.
type PartLookup interface {
	GetPartByMaterialNumber(ctx context.Context, materialNumber string) (*models.PartRecord, error)
}

type SimilarHandler struct {
	recommender *search.Recommender
	lookup      PartLookup
	sessions    *session.Manager
}

func NewSimilarHandler(recommender *search.Recommender, lookup PartLookup, sessions *session.Manager) *SimilarHandler {
	return &SimilarHandler{
		recommender: recommender,
		lookup:      lookup,
		sessions:    sessions,
	}
}

func (h *SimilarHandler) HandleSimilar(c *fiber.Ctx) error {
	var req struct {
		SessionID      string `json:"session_id"`
		MaterialNumber string `json:"material_number"`
	}

	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if _, err := h.sessions.Get(req.SessionID); err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Session not found",
		})
	}

	if req.MaterialNumber == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "material_number is required",
		})
	}

	focal, err := h.lookup.GetPartByMaterialNumber(c.Context(), req.MaterialNumber)
	if err != nil {
		logger.Error("Failed to look up focal part", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Search failed. Please try again.",
		})
	}
	if focal == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Part not found",
		})
	}

	similar, err := h.recommender.Recommend(c.Context(), *focal)
	if err != nil {
		status, code := classifySearchFailure(err)
		metrics.SimilarPartsRequested.WithLabelValues("error").Inc()
		logger.Error("Similar parts recommendation failed",
			zap.String("material_number", req.MaterialNumber),
			zap.Error(err),
		)
		return c.Status(code).JSON(fiber.Map{
			"error": status,
		})
	}

	metrics.SimilarPartsRequested.WithLabelValues("success").Inc()

	return c.JSON(fiber.Map{
		"material_number": req.MaterialNumber,
		"similar_parts":   similar,
	})
}
