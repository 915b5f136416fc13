package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// AccountStore defines persistence operations for accounts.
type AccountStore interface {
	// FindByIdentifier looks an account up by username or email.
	FindByIdentifier(ctx context.Context, identifier string) (Account, error)
	FindByID(ctx context.Context, id uuid.UUID) (Account, error)
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)
	Create(ctx context.Context, account Account) (Account, error)
	// UpdateRefreshCredential overwrites the refresh credential slot. A nil value clears it.
	UpdateRefreshCredential(ctx context.Context, id uuid.UUID, value *string) error
	// SwapRefreshCredential overwrites the slot only while it still holds old.
	// Returns ErrConflict when the stored value has changed.
	SwapRefreshCredential(ctx context.Context, id uuid.UUID, old, value string) error
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error
}

// Account represents a stored account with its session state.
type Account struct {
	ID                uuid.UUID
	Username          string
	Email             string
	FullName          string
	AvatarURL         string
	CoverImageURL     string
	PasswordHash      string
	RefreshCredential *string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// HasSession reports whether the account holds a live refresh credential.
func (a Account) HasSession() bool {
	return a.RefreshCredential != nil && *a.RefreshCredential != ""
}

// PasswordHasher hashes and verifies account passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) error
}
