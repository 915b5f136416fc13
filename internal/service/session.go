package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/vidtube-accounts/internal/apperror"
	"github.com/dtroode/vidtube-accounts/internal/logger"
	"github.com/dtroode/vidtube-accounts/internal/model"
)

// Session events reported to the EventRecorder.
const (
	EventLogin           = "login"
	EventLoginFailed     = "login_failed"
	EventRotate          = "rotate"
	EventRotateFailed    = "rotate_failed"
	EventReuseDetected   = "reuse_detected"
	EventRotateConflict  = "rotate_conflict"
	EventLogout          = "logout"
	EventPasswordChanged = "password_changed"
)

// EventRecorder counts session lifecycle events.
type EventRecorder interface {
	RecordSessionEvent(event string)
}

type noopRecorder struct{}

func (noopRecorder) RecordSessionEvent(string) {}

// SessionConfig holds token lifetimes and optional hardening switches.
type SessionConfig struct {
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	// RevokeOnReuse clears the stored refresh credential when a stale one is presented.
	RevokeOnReuse bool
	// CompareAndSwap makes rotation fail with a conflict when another rotation
	// for the same account won the race.
	CompareAndSwap bool
	// GenericAuthErrors reports unknown accounts and wrong passwords with the same error.
	GenericAuthErrors bool
	// RevokeOnPasswordChange ends the current session when the password changes.
	RevokeOnPasswordChange bool
}

// Session manages the credential lifecycle of accounts: login, refresh
// token rotation, logout and password change.
type Session struct {
	store  model.AccountStore
	codec  model.TokenCodec
	hasher model.PasswordHasher
	events EventRecorder
	cfg    SessionConfig
	logger *logger.Logger
}

// NewSession creates a Session. events may be nil.
func NewSession(
	store model.AccountStore,
	codec model.TokenCodec,
	hasher model.PasswordHasher,
	events EventRecorder,
	cfg SessionConfig,
	logger *logger.Logger,
) *Session {
	if events == nil {
		events = noopRecorder{}
	}
	return &Session{
		store:  store,
		codec:  codec,
		hasher: hasher,
		events: events,
		cfg:    cfg,
		logger: logger,
	}
}

// Authenticate checks the password of the account matching identifier
// (username or email) and starts a new session for it, replacing any
// previous refresh credential.
func (s *Session) Authenticate(ctx context.Context, identifier, secret string) (model.CredentialPair, model.Account, error) {
	return s.AuthenticateAny(ctx, []string{identifier}, secret)
}

// AuthenticateAny is Authenticate for a login that may carry both a username
// and an email. Identifiers are looked up in order and the first account found
// is the one whose password is checked.
func (s *Session) AuthenticateAny(ctx context.Context, identifiers []string, secret string) (model.CredentialPair, model.Account, error) {
	candidates := normalizeIdentifiers(identifiers)
	if len(candidates) == 0 {
		return model.CredentialPair{}, model.Account{}, apperror.NewErrValidation("username or email is required")
	}
	if secret == "" {
		return model.CredentialPair{}, model.Account{}, apperror.NewErrValidation("password is required")
	}

	s.logger.Debug("Session service: authenticating account",
		"identifiers", candidates)

	account, err := s.findByIdentifiers(ctx, candidates)
	if errors.Is(err, model.ErrNotFound) {
		s.events.RecordSessionEvent(EventLoginFailed)
		s.logger.Info("Session service: account not found",
			"identifiers", candidates)
		if s.cfg.GenericAuthErrors {
			return model.CredentialPair{}, model.Account{}, apperror.NewErrInvalidCredentials()
		}
		return model.CredentialPair{}, model.Account{}, apperror.NewErrAccountNotFound()
	}
	if err != nil {
		s.logger.Error("Session service: failed to find account",
			"identifiers", candidates,
			"error", err.Error())
		return model.CredentialPair{}, model.Account{}, apperror.NewErrInternal(fmt.Errorf("failed to find account: %w", err))
	}

	err = s.hasher.Verify(secret, account.PasswordHash)
	if errors.Is(err, model.ErrPasswordMismatch) {
		s.events.RecordSessionEvent(EventLoginFailed)
		s.logger.Info("Session service: invalid password",
			"account_id", account.ID)
		return model.CredentialPair{}, model.Account{}, apperror.NewErrInvalidCredentials()
	}
	if err != nil {
		s.logger.Error("Session service: failed to verify password",
			"account_id", account.ID,
			"error", err.Error())
		return model.CredentialPair{}, model.Account{}, apperror.NewErrInternal(err)
	}

	pair, err := s.issuePair(account.ID)
	if err != nil {
		return model.CredentialPair{}, model.Account{}, err
	}

	if err := s.store.UpdateRefreshCredential(ctx, account.ID, &pair.RefreshToken); err != nil {
		s.logger.Error("Session service: failed to store refresh credential",
			"account_id", account.ID,
			"error", err.Error())
		return model.CredentialPair{}, model.Account{}, apperror.NewErrInternal(fmt.Errorf("failed to store refresh credential: %w", err))
	}
	account.RefreshCredential = &pair.RefreshToken

	s.events.RecordSessionEvent(EventLogin)
	s.logger.Info("Session service: account logged in",
		"account_id", account.ID)

	return pair, account, nil
}

// findByIdentifiers returns the first account matching one of identifiers.
// It returns model.ErrNotFound only when none of them match.
func (s *Session) findByIdentifiers(ctx context.Context, identifiers []string) (model.Account, error) {
	for _, identifier := range identifiers {
		account, err := s.store.FindByIdentifier(ctx, identifier)
		if errors.Is(err, model.ErrNotFound) {
			continue
		}
		return account, err
	}
	return model.Account{}, model.ErrNotFound
}

func normalizeIdentifiers(identifiers []string) []string {
	out := make([]string, 0, len(identifiers))
	for _, identifier := range identifiers {
		identifier = strings.ToLower(strings.TrimSpace(identifier))
		if identifier == "" || slices.Contains(out, identifier) {
			continue
		}
		out = append(out, identifier)
	}
	return out
}

// Rotate exchanges a refresh token for a new credential pair. The presented
// token must be exactly the one stored for the account; any other valid
// token is treated as a replay.
func (s *Session) Rotate(ctx context.Context, presented string) (model.CredentialPair, error) {
	if presented == "" {
		s.events.RecordSessionEvent(EventRotateFailed)
		return model.CredentialPair{}, apperror.NewErrUnauthorized("unauthorized request")
	}

	claims, err := s.codec.Verify(presented)
	if err != nil {
		s.events.RecordSessionEvent(EventRotateFailed)
		s.logger.Debug("Session service: refresh token rejected",
			"error", err.Error())
		return model.CredentialPair{}, apperror.NewErrUnauthorized("invalid refresh token")
	}
	if claims.Kind != model.TokenKindRefresh {
		s.events.RecordSessionEvent(EventRotateFailed)
		return model.CredentialPair{}, apperror.NewErrUnauthorized("invalid refresh token")
	}

	account, err := s.store.FindByID(ctx, claims.AccountID)
	if errors.Is(err, model.ErrNotFound) {
		s.events.RecordSessionEvent(EventRotateFailed)
		return model.CredentialPair{}, apperror.NewErrUnauthorized("invalid refresh token")
	}
	if err != nil {
		s.logger.Error("Session service: failed to find account",
			"account_id", claims.AccountID,
			"error", err.Error())
		return model.CredentialPair{}, apperror.NewErrInternal(fmt.Errorf("failed to find account: %w", err))
	}

	if !account.HasSession() || !equalCredential(*account.RefreshCredential, presented) {
		s.handleReuse(ctx, account, claims.ID)
		return model.CredentialPair{}, apperror.NewErrInvalidRefreshToken()
	}

	pair, err := s.issuePair(account.ID)
	if err != nil {
		return model.CredentialPair{}, err
	}

	if s.cfg.CompareAndSwap {
		err = s.store.SwapRefreshCredential(ctx, account.ID, presented, pair.RefreshToken)
		if errors.Is(err, model.ErrConflict) {
			s.events.RecordSessionEvent(EventRotateConflict)
			s.logger.Warn("Session service: refresh credential changed during rotation",
				"account_id", account.ID)
			return model.CredentialPair{}, apperror.NewErrConflict("refresh token was already rotated")
		}
	} else {
		err = s.store.UpdateRefreshCredential(ctx, account.ID, &pair.RefreshToken)
	}
	if err != nil {
		s.logger.Error("Session service: failed to store refresh credential",
			"account_id", account.ID,
			"error", err.Error())
		return model.CredentialPair{}, apperror.NewErrInternal(fmt.Errorf("failed to store refresh credential: %w", err))
	}

	s.events.RecordSessionEvent(EventRotate)
	s.logger.Info("Session service: refresh token rotated",
		"account_id", account.ID)

	return pair, nil
}

func (s *Session) handleReuse(ctx context.Context, account model.Account, tokenID string) {
	s.events.RecordSessionEvent(EventReuseDetected)
	s.logger.Warn("Session service: refresh token reuse detected",
		"account_id", account.ID,
		"jti", tokenID,
		"has_session", account.HasSession())

	if !s.cfg.RevokeOnReuse || !account.HasSession() {
		return
	}
	if err := s.store.UpdateRefreshCredential(ctx, account.ID, nil); err != nil {
		s.logger.Error("Session service: failed to revoke session after reuse",
			"account_id", account.ID,
			"error", err.Error())
		return
	}
	s.logger.Warn("Session service: session revoked after reuse",
		"account_id", account.ID)
}

// Logout clears the refresh credential of the account. Calling it for an
// account without a session, or one that no longer exists, succeeds.
func (s *Session) Logout(ctx context.Context, accountID uuid.UUID) error {
	err := s.store.UpdateRefreshCredential(ctx, accountID, nil)
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		s.logger.Error("Session service: failed to clear refresh credential",
			"account_id", accountID,
			"error", err.Error())
		return apperror.NewErrInternal(fmt.Errorf("failed to clear refresh credential: %w", err))
	}

	s.events.RecordSessionEvent(EventLogout)
	s.logger.Info("Session service: account logged out",
		"account_id", accountID)

	return nil
}

// ChangeSecret replaces the password of the account after checking the old one.
func (s *Session) ChangeSecret(ctx context.Context, accountID uuid.UUID, oldSecret, newSecret string) error {
	if oldSecret == "" || newSecret == "" {
		return apperror.NewErrValidation("old and new password are required")
	}

	account, err := s.store.FindByID(ctx, accountID)
	if errors.Is(err, model.ErrNotFound) {
		return apperror.NewErrAccountNotFound()
	}
	if err != nil {
		return apperror.NewErrInternal(fmt.Errorf("failed to find account: %w", err))
	}

	err = s.hasher.Verify(oldSecret, account.PasswordHash)
	if errors.Is(err, model.ErrPasswordMismatch) {
		s.logger.Info("Session service: invalid old password",
			"account_id", accountID)
		return apperror.NewErrUnauthorized("invalid old password")
	}
	if err != nil {
		return apperror.NewErrInternal(err)
	}

	hash, err := s.hasher.Hash(newSecret)
	if err != nil {
		return apperror.NewErrInternal(err)
	}

	if err := s.store.UpdatePasswordHash(ctx, accountID, hash); err != nil {
		s.logger.Error("Session service: failed to update password",
			"account_id", accountID,
			"error", err.Error())
		return apperror.NewErrInternal(fmt.Errorf("failed to update password: %w", err))
	}

	if s.cfg.RevokeOnPasswordChange {
		if err := s.store.UpdateRefreshCredential(ctx, accountID, nil); err != nil {
			return apperror.NewErrInternal(fmt.Errorf("failed to clear refresh credential: %w", err))
		}
	}

	s.events.RecordSessionEvent(EventPasswordChanged)
	s.logger.Info("Session service: password changed",
		"account_id", accountID)

	return nil
}

// VerifyAccess returns the account id carried by a valid access token.
func (s *Session) VerifyAccess(_ context.Context, accessToken string) (uuid.UUID, error) {
	if accessToken == "" {
		return uuid.Nil, apperror.NewErrMissingAuthorizationToken()
	}

	claims, err := s.codec.Verify(accessToken)
	if err != nil {
		return uuid.Nil, apperror.NewErrInvalidAuthorizationToken()
	}
	if claims.Kind != model.TokenKindAccess {
		return uuid.Nil, apperror.NewErrInvalidAuthorizationToken()
	}

	return claims.AccountID, nil
}

func (s *Session) issuePair(accountID uuid.UUID) (model.CredentialPair, error) {
	access, err := s.codec.Issue(accountID, model.TokenKindAccess, s.cfg.AccessTTL)
	if err != nil {
		return model.CredentialPair{}, apperror.NewErrInternal(fmt.Errorf("failed to issue access token: %w", err))
	}

	refresh, err := s.codec.Issue(accountID, model.TokenKindRefresh, s.cfg.RefreshTTL)
	if err != nil {
		return model.CredentialPair{}, apperror.NewErrInternal(fmt.Errorf("failed to issue refresh token: %w", err))
	}

	return model.CredentialPair{AccessToken: access, RefreshToken: refresh}, nil
}

func equalCredential(stored, presented string) bool {
	return subtle.ConstantTimeCompare([]byte(stored), []byte(presented)) == 1
}
