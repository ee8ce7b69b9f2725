package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/skylane/flightsearch/backend/internal/domain/entities"
	"github.com/skylane/flightsearch/backend/internal/domain/providers"
	apperrors "github.com/skylane/flightsearch/backend/pkg/errors"
)

// SessionStore keeps completed, normalized search results for the lifetime
// of their session so display-time filter calls do not re-run the upstream
// search. Results never outlive their TTL; nothing is shared across sessions.
type SessionStore struct {
	cache providers.CacheProvider
	ttl   time.Duration

	// in-memory fallback when Redis is unavailable
	mu      sync.RWMutex
	results map[string]sessionEntry
}

type sessionEntry struct {
	result    *entities.SearchResult
	expiresAt time.Time
}

// NewSessionStore creates a session store. cache may be nil, in which case
// results are held in process memory only.
func NewSessionStore(cache providers.CacheProvider, ttl time.Duration) *SessionStore {
	return &SessionStore{
		cache:   cache,
		ttl:     ttl,
		results: make(map[string]sessionEntry),
	}
}

func sessionKey(token string) string {
	return fmt.Sprintf("search:session:%s", token)
}

// Put stores a completed search result under its session token
func (s *SessionStore) Put(ctx context.Context, result *entities.SearchResult) error {
	if result.SessionToken == "" {
		return apperrors.NewValidationError("search result has no session token")
	}

	if s.cache != nil {
		payload, err := json.Marshal(result)
		if err != nil {
			return apperrors.NewInternalError("failed to encode search result", err)
		}
		return s.cache.Set(ctx, sessionKey(result.SessionToken), payload, int(s.ttl.Seconds()))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[result.SessionToken] = sessionEntry{
		result:    result,
		expiresAt: time.Now().Add(s.ttl),
	}
	return nil
}

// Get loads a stored search result; a NOT_FOUND error means the session is
// unknown or expired
func (s *SessionStore) Get(ctx context.Context, token string) (*entities.SearchResult, error) {
	if s.cache != nil {
		payload, err := s.cache.Get(ctx, sessionKey(token))
		if err != nil {
			return nil, apperrors.NewNotFoundError(fmt.Sprintf("search session %s not found", token))
		}
		var result entities.SearchResult
		if err := json.Unmarshal(payload, &result); err != nil {
			return nil, apperrors.NewInternalError("failed to decode stored search result", err)
		}
		return &result, nil
	}

	s.mu.RLock()
	entry, ok := s.results[token]
	s.mu.RUnlock()
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("search session %s not found", token))
	}
	return entry.result, nil
}
