package service

import (
	"sync"
	"time"

	"github.com/hafidzyami/CivilConstructionApp-sub000/models"

	gocache "github.com/patrickmn/go-cache"
)

const (
	DefaultHistoryLimit   = 20
	DefaultSessionTTL     = 2 * time.Hour
	DefaultSessionCleanup = 10 * time.Minute
)

// conversation is the state of one session; mu serialises writers
type conversation struct {
	mu       sync.Mutex
	messages []models.ConversationMessage
	mode     models.SearchMode
}

// SessionStore keeps bounded per-session history and search mode in memory.
// Idle sessions expire after the TTL; every write refreshes it.
type SessionStore struct {
	cache *gocache.Cache
	limit int
}

// NewSessionStore creates a store; zero values use the defaults
func NewSessionStore(limit int, ttl, cleanupInterval time.Duration) *SessionStore {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	if cleanupInterval <= 0 {
		cleanupInterval = DefaultSessionCleanup
	}
	return &SessionStore{
		cache: gocache.New(ttl, cleanupInterval),
		limit: limit,
	}
}

func (s *SessionStore) get(sessionID string) (*conversation, bool) {
	if v, found := s.cache.Get(sessionID); found {
		return v.(*conversation), true
	}
	return nil, false
}

func (s *SessionStore) getOrCreate(sessionID string) *conversation {
	if c, ok := s.get(sessionID); ok {
		return c
	}
	c := &conversation{mode: models.SearchModeAuto}
	if err := s.cache.Add(sessionID, c, gocache.DefaultExpiration); err != nil {
		// another writer created it first
		if existing, ok := s.get(sessionID); ok {
			return existing
		}
		s.cache.Set(sessionID, c, gocache.DefaultExpiration)
	}
	return c
}

// touch refreshes the expiry of a session that still exists
func (s *SessionStore) touch(sessionID string, c *conversation) {
	_ = s.cache.Replace(sessionID, c, gocache.DefaultExpiration)
}

// Append adds messages to the session as one unit and evicts the oldest
// entries beyond the limit
func (s *SessionStore) Append(sessionID string, messages ...models.ConversationMessage) {
	c := s.getOrCreate(sessionID)

	c.mu.Lock()
	c.messages = append(c.messages, messages...)
	if over := len(c.messages) - s.limit; over > 0 {
		trimmed := make([]models.ConversationMessage, s.limit)
		copy(trimmed, c.messages[over:])
		c.messages = trimmed
	}
	c.mu.Unlock()

	s.touch(sessionID, c)
}

// History returns a copy of the session's messages, oldest first
func (s *SessionStore) History(sessionID string) []models.ConversationMessage {
	c, ok := s.get(sessionID)
	if !ok {
		return []models.ConversationMessage{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.ConversationMessage, len(c.messages))
	copy(out, c.messages)
	return out
}

// Clear forgets the session entirely; the next message starts a new one
func (s *SessionStore) Clear(sessionID string) {
	s.cache.Delete(sessionID)
}

// SetMode stores the session's search mode
func (s *SessionStore) SetMode(sessionID string, mode models.SearchMode) {
	c := s.getOrCreate(sessionID)
	c.mu.Lock()
	c.mode = mode
	c.mu.Unlock()
	s.touch(sessionID, c)
}

// Mode returns the session's search mode, auto for unknown sessions
func (s *SessionStore) Mode(sessionID string) models.SearchMode {
	c, ok := s.get(sessionID)
	if !ok {
		return models.SearchModeAuto
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// Len returns the number of live sessions
func (s *SessionStore) Len() int {
	return s.cache.ItemCount()
}
