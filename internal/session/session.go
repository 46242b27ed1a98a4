package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"time"
)

// Token is one issued session. The role, scholarship and permission fields
// are snapshots taken at issuance and never refreshed from the directory.
type Token struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Role         string    `json:"role"`
	Scholarships []string  `json:"scholarships"`
	Permissions  []string  `json:"permissions"`
	CreatedAt    time.Time `json:"created_at"`
	Scholarship  string    `json:"scholarship,omitempty"` // selected scholarship, set at most once
}

// Store manages the lifecycle and lookup of issued session tokens.
type Store interface {
	// Save stores a freshly issued token.
	Save(ctx context.Context, token *Token) error

	// Get retrieves a live token by id. Expired tokens are deleted as a
	// side effect and reported as not found.
	Get(ctx context.Context, id string) (*Token, error)

	// Delete removes a token, reporting whether it existed. Idempotent.
	Delete(ctx context.Context, id string) (bool, error)

	// SelectScholarship records the chosen scholarship on a live token.
	SelectScholarship(ctx context.Context, id, scholarshipID string) error
}

// NewTokenID generates an opaque URL-safe token identifier with 32 bytes
// of entropy.
func NewTokenID() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return base64.RawURLEncoding.EncodeToString(b)
}
