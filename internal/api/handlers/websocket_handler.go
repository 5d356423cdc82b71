package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/sourcing-buddy/backend/internal/search"
	"github.com/sourcing-buddy/backend/internal/session"
	"github.com/sourcing-buddy/backend/internal/storage/models"
	"github.com/sourcing-buddy/backend/pkg/logger"
)

// WebSocketHandler serves a live search channel: the primary result message
// is pushed as soon as the search settles, and similar-part suggestions
// follow as an independent message that may fail on its own.
type WebSocketHandler struct {
	keyword     *search.KeywordEngine
	semantic    *search.SemanticEngine
	recommender *search.Recommender
	sessions    *session.Manager
	similarMin  int
	similarMax  int
}

func NewWebSocketHandler(keyword *search.KeywordEngine, semantic *search.SemanticEngine, recommender *search.Recommender, sessions *session.Manager, similarMin, similarMax int) *WebSocketHandler {
	if similarMin <= 0 {
		similarMin = 1
	}
	if similarMax <= 0 {
		similarMax = 5
	}
	return &WebSocketHandler{
		keyword:     keyword,
		semantic:    semantic,
		recommender: recommender,
		sessions:    sessions,
		similarMin:  similarMin,
		similarMax:  similarMax,
	}
}

func (h *WebSocketHandler) HandleConnection(c *websocket.Conn) {
	logger.Info("WebSocket connection established")

	defer func() {
		c.Close()
		logger.Info("WebSocket connection closed")
	}()

	for {
		var msg struct {
			Type      string `json:"type"`
			SessionID string `json:"session_id"`
			Query     string `json:"query"`
			Mode      string `json:"mode"`
		}

		err := c.ReadJSON(&msg)
		if err != nil {
			logger.Error("Failed to read WebSocket message", zap.Error(err))
			break
		}

		if msg.Type != "search" {
			continue
		}

		sess, err := h.sessions.Get(msg.SessionID)
		if err != nil {
			h.sendError(c, "Session not found")
			continue
		}

		logger.Info("Processing WebSocket search", zap.String("query", msg.Query))

		err = h.runSearch(c, sess, msg.Query, msg.Mode)
		if err != nil {
			logger.Error("Failed to process WebSocket search", zap.Error(err))
		}
	}
}

func (h *WebSocketHandler) runSearch(c *websocket.Conn, sess *session.Session, query, mode string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	if mode == "" {
		mode = "keyword"
	}

	seq := sess.BeginSearch()

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
		status, _ := classifySearchFailure(err)
		sess.RecordFailure(seq, query, status)
		h.sendError(c, status)
		return err
	}

	status := fmt.Sprintf("Found %d matching parts", len(results))
	sess.CommitSearch(seq, query, status, results)

	exact, rest := search.SplitExactMatch(results)

	// Primary results go out before any similarity work starts.
	err = c.WriteJSON(map[string]interface{}{
		"type":        "results",
		"query":       query,
		"mode":        mode,
		"exact_match": exact,
		"results":     rest,
		"count":       len(results),
		"status":      status,
	})
	if err != nil {
		return err
	}

	if len(results) < h.similarMin || len(results) > h.similarMax {
		return nil
	}

	similar, err := h.recommender.Recommend(ctx, results[0].PartRecord)
	if err != nil {
		status, _ := classifySearchFailure(err)
		logger.Warn("Follow-up similarity recommendation failed", zap.Error(err))
		return c.WriteJSON(map[string]interface{}{
			"type":  "similar_error",
			"error": status,
		})
	}

	return c.WriteJSON(map[string]interface{}{
		"type":            "similar",
		"material_number": results[0].MaterialNumber,
		"similar_parts":   similar,
	})
}

func (h *WebSocketHandler) sendError(c *websocket.Conn, message string) {
	err := c.WriteJSON(map[string]interface{}{
		"type":  "error",
		"error": message,
	})
	if err != nil {
		logger.Error("Failed to send WebSocket error", zap.Error(err))
	}
}
