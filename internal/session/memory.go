package session

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cappelaere/wai-bee/internal/common/cnst"
)

// MemoryStore implements Store using an in-memory map.
type MemoryStore struct {
	logger *zap.Logger
	expiry time.Duration

	mu     sync.RWMutex
	tokens map[string]*Token

	now func() time.Time
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates a new in-memory session store. Tokens live for
// expiry measured from creation; they are never renewed.
func NewMemoryStore(logger *zap.Logger, expiry time.Duration) *MemoryStore {
	return &MemoryStore{
		logger: logger.Named("session.store.memory"),
		expiry: expiry,
		tokens: make(map[string]*Token),
		now:    time.Now,
	}
}

// Save stores a freshly issued token.
func (s *MemoryStore) Save(ctx context.Context, token *Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tokens[token.ID] = token
	return nil
}

// Get retrieves a live token by id. An expired token is deleted here,
// under the write lock, so the read-then-delete is atomic per store.
func (s *MemoryStore) Get(ctx context.Context, id string) (*Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, ok := s.tokens[id]
	if !ok {
		return nil, cnst.ErrSessionNotFound
	}
	if s.now().Sub(token.CreatedAt) > s.expiry {
		delete(s.tokens, id)
		s.logger.Debug("expired session removed", zap.String("username", token.Username))
		return nil, cnst.ErrSessionNotFound
	}

	copied := *token
	copied.Scholarships = append([]string(nil), token.Scholarships...)
	copied.Permissions = append([]string(nil), token.Permissions...)
	return &copied, nil
}

// Delete removes a token, reporting whether it existed.
func (s *MemoryStore) Delete(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.tokens[id]
	delete(s.tokens, id)
	return ok, nil
}

// SelectScholarship records the chosen scholarship on a live token.
func (s *MemoryStore) SelectScholarship(ctx context.Context, id, scholarshipID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, ok := s.tokens[id]
	if !ok || s.now().Sub(token.CreatedAt) > s.expiry {
		delete(s.tokens, id)
		return cnst.ErrSessionNotFound
	}
	token.Scholarship = scholarshipID
	return nil
}
