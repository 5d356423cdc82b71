package handlers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/sourcing-buddy/backend/internal/cache/redis"
	"github.com/sourcing-buddy/backend/internal/llm"
	"github.com/sourcing-buddy/backend/internal/metrics"
	"github.com/sourcing-buddy/backend/internal/search"
	"github.com/sourcing-buddy/backend/internal/session"
	"github.com/sourcing-buddy/backend/internal/storage"
	"github.com/sourcing-buddy/backend/internal/storage/models"
	"github.com/sourcing-buddy/backend/pkg/logger"
	"github.com/sourcing-buddy/backend/pkg/utils"
)

type SearchHandler struct {
	keyword  *search.KeywordEngine
	semantic *search.SemanticEngine
	sessions *session.Manager
	cache    *redis.Client
	cacheTTL time.Duration
}

func NewSearchHandler(keyword *search.KeywordEngine, semantic *search.SemanticEngine, sessions *session.Manager, cache *redis.Client, cacheTTL time.Duration) *SearchHandler {
	return &SearchHandler{
		keyword:  keyword,
		semantic: semantic,
		sessions: sessions,
		cache:    cache,
		cacheTTL: cacheTTL,
	}
}

type searchResponse struct {
	Query      string                `json:"query"`
	Mode       string                `json:"mode"`
	ExactMatch *models.SearchResult  `json:"exact_match,omitempty"`
	Results    []models.SearchResult `json:"results"`
	Count      int                   `json:"count"`
	Status     string                `json:"status"`
	LatencyMS  int                   `json:"latency_ms"`
}

func (h *SearchHandler) HandleSearch(c *fiber.Ctx) error {
	var req struct {
		SessionID string `json:"session_id"`
		Query     string `json:"query"`
		Mode      string `json:"mode"`
	}

	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	sess, err := h.sessions.Get(req.SessionID)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Session not found",
		})
	}

	mode := req.Mode
	if mode == "" {
		mode = "keyword"
	}
	if mode != "keyword" && mode != "semantic" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "mode must be keyword or semantic",
		})
	}

	seq := sess.BeginSearch()
	startTime := time.Now()

	results, err := h.runSearch(c.Context(), mode, req.Query)
	latency := int(time.Since(startTime).Milliseconds())

	metrics.SearchDuration.WithLabelValues(mode).Observe(time.Since(startTime).Seconds())

	if err != nil {
		status, code := classifySearchFailure(err)
		sess.RecordFailure(seq, req.Query, status)
		metrics.SearchTotal.WithLabelValues(mode, "error").Inc()
		logger.Error("Search failed",
			zap.String("mode", mode),
			zap.String("query", req.Query),
			zap.Error(err),
		)
		return c.Status(code).JSON(fiber.Map{
			"error": status,
		})
	}

	status := fmt.Sprintf("Found %d matching parts", len(results))
	sess.CommitSearch(seq, req.Query, status, results)

	metrics.SearchTotal.WithLabelValues(mode, "success").Inc()
	metrics.SearchResultsCount.WithLabelValues(mode).Observe(float64(len(results)))

	exact, rest := search.SplitExactMatch(results)

	return c.JSON(searchResponse{
		Query:      req.Query,
		Mode:       mode,
		ExactMatch: exact,
		Results:    rest,
		Count:      len(results),
		Status:     status,
		LatencyMS:  latency,
	})
}

func (h *SearchHandler) runSearch(ctx context.Context, mode, query string) ([]models.SearchResult, error) {
	cacheKey := utils.HashString(mode + "|" + query)

	if h.cache != nil {
		var cached []models.SearchResult
		hit, err := h.cache.GetSearch(ctx, cacheKey, &cached)
		if err != nil {
			logger.Warn("Search cache lookup failed", zap.Error(err))
		}
		if hit {
			metrics.CacheHits.WithLabelValues("search").Inc()
			return cached, nil
		}
		metrics.CacheMisses.WithLabelValues("search").Inc()
	}

	var (
		results []models.SearchResult
		err     error
	)
	if mode == "semantic" {
		results, err = h.semantic.Search(ctx, query)
	} else {
		results, err = h.keyword.Search(ctx, query)
	}
	if err != nil {
		return nil, err
	}

	if h.cache != nil {
		if cacheErr := h.cache.SetSearch(ctx, cacheKey, results, h.cacheTTL); cacheErr != nil {
			logger.Warn("Search cache store failed", zap.Error(cacheErr))
		}
	}

	return results, nil
}

func (h *SearchHandler) GetHistory(c *fiber.Ctx) error {
	sess, err := h.sessions.Get(c.Query("session_id"))
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Session not found",
		})
	}

	return c.JSON(fiber.Map{
		"history": sess.History(),
	})
}

func (h *SearchHandler) GetConversation(c *fiber.Ctx) error {
	sess, err := h.sessions.Get(c.Query("session_id"))
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Session not found",
		})
	}

	return c.JSON(fiber.Map{
		"conversation": sess.Conversation(),
	})
}

func (h *SearchHandler) HandleRefine(c *fiber.Ctx) error {
	var req struct {
		SessionID string `json:"session_id"`
		Phrase    string `json:"phrase"`
	}

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	sess, err := h.sessions.Get(req.SessionID)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Session not found",
		})
	}

	filtered, rule := search.Refine(sess.CurrentResults(), req.Phrase)

	var status string
	if len(filtered) > 0 {
		status = fmt.Sprintf("Filtered to %d matching parts", len(filtered))
	} else {
		status = "No parts match these criteria"
	}

	sess.Refine(req.Phrase, status, filtered)

	if rule != "" {
		metrics.RefinementsApplied.WithLabelValues(rule).Inc()
	}

	return c.JSON(fiber.Map{
		"phrase":  req.Phrase,
		"rule":    rule,
		"results": filtered,
		"count":   len(filtered),
		"status":  status,
	})
}

func (h *SearchHandler) GetFacets(c *fiber.Ctx) error {
	sess, err := h.sessions.Get(c.Query("session_id"))
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Session not found",
		})
	}

	return c.JSON(fiber.Map{
		"facets": search.FacetOptions(sess.BaseResults()),
	})
}

func (h *SearchHandler) ApplyFacets(c *fiber.Ctx) error {
	var req struct {
		SessionID string                `json:"session_id"`
		Selection search.FacetSelection `json:"selection"`
	}

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	sess, err := h.sessions.Get(req.SessionID)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Session not found",
		})
	}

	filtered := sess.ApplyFacets(req.Selection)

	return c.JSON(fiber.Map{
		"results": filtered,
		"count":   len(filtered),
	})
}

// classifySearchFailure maps the error taxonomy onto a user-visible status
// message and an HTTP code.
func classifySearchFailure(err error) (string, int) {
	switch {
	case errors.Is(err, llm.ErrRateLimited):
		return "Rate limit exceeded. Please try again later.", fiber.StatusTooManyRequests
	case errors.Is(err, llm.ErrQuotaExhausted):
		return "AI credits exhausted. Please add credits.", fiber.StatusPaymentRequired
	case errors.Is(err, storage.ErrStoreUnavailable):
		return "Search failed. Please try again.", fiber.StatusInternalServerError
	default:
		return "AI service unavailable. Please try again.", fiber.StatusBadGateway
	}
}
