package auth

import (
	"context"
	"crypto/subtle"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/cappelaere/wai-bee/internal/common/cnst"
	"github.com/cappelaere/wai-bee/internal/directory"
	"github.com/cappelaere/wai-bee/internal/session"
)

// legacyCredentials maps the two bootstrap role names to the environment
// variable holding their password. This table survives for accounts created
// before password references existed; it is checked after the primary
// password-reference path, never instead of it.
var legacyCredentials = map[string]string{
	cnst.RoleAdmin:   cnst.EnvAdminPassword,
	cnst.RoleManager: cnst.EnvManagerPassword,
}

// Service authenticates users against the directory and manages their
// session tokens.
type Service struct {
	logger *zap.Logger
	dir    *directory.Directory
	store  session.Store
}

// NewService creates a new authentication service
func NewService(logger *zap.Logger, dir *directory.Directory, store session.Store) *Service {
	return &Service{
		logger: logger.Named("auth"),
		dir:    dir,
		store:  store,
	}
}

// Authenticate reports whether the username/password pair is valid. The
// account must be enabled; the password must match either the secret named
// by the account's password reference or, for the bootstrap roles, the
// legacy role-keyed credential.
func (s *Service) Authenticate(username, password string) bool {
	account, err := s.dir.GetUser(username)
	if err != nil {
		return false
	}
	if !account.Enabled {
		s.logger.Info("login attempt for disabled account", zap.String("username", username))
		return false
	}

	if secret, ok := s.dir.ResolveSecret(account.PasswordRef); ok {
		if matchSecret(secret, password) {
			return true
		}
	}

	if envName, ok := legacyCredentials[account.Role]; ok {
		if secret, ok := s.dir.ResolveSecret(envName); ok && matchSecret(secret, password) {
			return true
		}
	}

	s.logger.Info("failed login attempt", zap.String("username", username))
	return false
}

// matchSecret compares a candidate password against a resolved secret.
// Secrets that look like bcrypt hashes are verified with bcrypt; anything
// else is compared in constant time.
func matchSecret(secret, password string) bool {
	if secret == "" {
		return false
	}
	if strings.HasPrefix(secret, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(secret), []byte(password)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(secret), []byte(password)) == 1
}

// Issue creates a session token for the account, snapshotting its role,
// scholarships and permissions at this instant.
func (s *Service) Issue(ctx context.Context, username string) (*session.Token, error) {
	account, err := s.dir.GetUser(username)
	if err != nil {
		return nil, err
	}

	token := &session.Token{
		ID:           session.NewTokenID(),
		Username:     account.Username,
		Role:         account.Role,
		Scholarships: append([]string(nil), account.Scholarships...),
		Permissions:  append([]string(nil), account.Permissions...),
		CreatedAt:    time.Now(),
	}
	if err := s.store.Save(ctx, token); err != nil {
		return nil, err
	}

	s.logger.Info("session issued",
		zap.String("username", account.Username),
		zap.String("role", account.Role))
	return token, nil
}

// Verify resolves a raw token string to its session snapshot. Unknown and
// expired tokens are indistinguishable to the caller.
func (s *Service) Verify(ctx context.Context, tokenID string) (*session.Token, error) {
	if tokenID == "" {
		return nil, cnst.ErrSessionNotFound
	}
	return s.store.Get(ctx, tokenID)
}

// Revoke deletes a session, reporting whether it existed.
func (s *Service) Revoke(ctx context.Context, tokenID string) bool {
	existed, err := s.store.Delete(ctx, tokenID)
	if err != nil {
		s.logger.Warn("revoke failed", zap.Error(err))
		return false
	}
	return existed
}

// SelectScholarship records the chosen scholarship on an existing session.
// The caller is expected to have already confirmed access with the guard.
func (s *Service) SelectScholarship(ctx context.Context, tokenID, scholarshipID string) error {
	return s.store.SelectScholarship(ctx, tokenID, scholarshipID)
}
