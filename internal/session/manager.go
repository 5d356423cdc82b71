package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sourcing-buddy/backend/internal/search"
	"github.com/sourcing-buddy/backend/internal/storage/models"
	"github.com/sourcing-buddy/backend/pkg/logger"
)

var (
	ErrInvalidPassword = errors.New("invalid password")
	ErrSessionNotFound = errors.New("session not found")
)

// Session holds all per-session state: the auth flag, the append-only search
// history, the conversation and the current (possibly refined) result set.
// History and conversation live only as long as the session.
type Session struct {
	ID            string
	Authenticated bool
	CreatedAt     time.Time

	mu             sync.Mutex
	history        []models.SearchHistoryEntry
	conversation   []models.Message
	currentResults []models.SearchResult
	baseResults    []models.SearchResult
	latestSeq      uint64
}

// Manager owns the session lifecycle: create-on-login, clear-on-logout.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	password string
}

func NewManager(password string) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		password: password,
	}
}

// Login validates the shared password and creates a fresh session.
func (m *Manager) Login(password string) (*Session, error) {
	if m.password == "" || password != m.password {
		return nil, ErrInvalidPassword
	}

	session := &Session{
		ID:            uuid.New().String(),
		Authenticated: true,
		CreatedAt:     time.Now(),
	}

	m.mu.Lock()
	m.sessions[session.ID] = session
	m.mu.Unlock()

	logger.Info("Session created", zap.String("session_id", session.ID))
	return session, nil
}

// Logout destroys the session and everything it owned.
func (m *Manager) Logout(sessionID string) {
	m.mu.Lock()
	delete(m.sessions, sessionID)
	m.mu.Unlock()

	logger.Info("Session destroyed", zap.String("session_id", sessionID))
}

func (m *Manager) Get(sessionID string) (*Session, error) {
	m.mu.RLock()
	session, ok := m.sessions[sessionID]
	m.mu.RUnlock()

	if !ok {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// BeginSearch hands out the next search sequence number. The matching
// CommitSearch call only takes effect while no newer search has begun, so a
// slow response can never clobber the results of a later query.
func (s *Session) BeginSearch() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latestSeq++
	return s.latestSeq
}

// CommitSearch records a finished search: a history entry, a user/system
// message pair carrying the results, and the new current result set. Stale
// commits (a newer search has begun) are dropped.
func (s *Session) CommitSearch(seq uint64, query, status string, results []models.SearchResult) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if seq != s.latestSeq {
		logger.Debug("Stale search result dropped",
			zap.String("session_id", s.ID),
			zap.Uint64("seq", seq),
			zap.Uint64("latest", s.latestSeq),
		)
		return false
	}

	s.history = append([]models.SearchHistoryEntry{{
		ID:          uuid.New().String(),
		QueryText:   query,
		Timestamp:   time.Now(),
		ResultCount: len(results),
	}}, s.history...)

	s.conversation = append(s.conversation,
		models.Message{
			ID:   uuid.New().String(),
			Role: models.RoleUser,
			Text: query,
		},
		models.Message{
			ID:      uuid.New().String(),
			Role:    models.RoleSystem,
			Text:    status,
			Results: results,
		},
	)

	s.currentResults = results
	s.baseResults = results
	return true
}

// RecordFailure appends the user query and a single unambiguous failure
// message to the conversation, without touching the current results.
func (s *Session) RecordFailure(seq uint64, query, status string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if seq != s.latestSeq {
		return false
	}

	s.conversation = append(s.conversation,
		models.Message{
			ID:   uuid.New().String(),
			Role: models.RoleUser,
			Text: query,
		},
		models.Message{
			ID:   uuid.New().String(),
			Role: models.RoleSystem,
			Text: status,
		},
	)
	return true
}

// Refine appends a conversational refinement exchange and narrows the
// current result set.
func (s *Session) Refine(phrase, status string, results []models.SearchResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.conversation = append(s.conversation,
		models.Message{
			ID:   uuid.New().String(),
			Role: models.RoleUser,
			Text: phrase,
		},
		models.Message{
			ID:      uuid.New().String(),
			Role:    models.RoleSystem,
			Text:    status,
			Results: results,
		},
	)
	s.currentResults = results
}

// ApplyFacets re-filters the unfiltered base result set and mutates only the
// most recent system message's attached results, preserving its text.
func (s *Session) ApplyFacets(selection search.FacetSelection) []models.SearchResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	filtered := search.ApplyFacets(s.baseResults, selection)
	s.currentResults = filtered

	for i := len(s.conversation) - 1; i >= 0; i-- {
		if s.conversation[i].Role == models.RoleSystem {
			s.conversation[i].Results = filtered
			break
		}
	}

	return filtered
}

// CurrentResults returns a copy of the session's current result set.
func (s *Session) CurrentResults() []models.SearchResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.SearchResult, len(s.currentResults))
	copy(out, s.currentResults)
	return out
}

// BaseResults returns a copy of the last search's unfiltered result set,
// the set facet options are derived from.
func (s *Session) BaseResults() []models.SearchResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.SearchResult, len(s.baseResults))
	copy(out, s.baseResults)
	return out
}

// History returns the session's search history, most recent first.
func (s *Session) History() []models.SearchHistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.SearchHistoryEntry, len(s.history))
	copy(out, s.history)
	return out
}

// Conversation returns a copy of the session's message list.
func (s *Session) Conversation() []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Message, len(s.conversation))
	copy(out, s.conversation)
	return out
}
