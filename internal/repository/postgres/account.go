package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dtroode/vidtube-accounts/internal/model"
)

const uniqueViolation = "23505"

const accountColumns = `id, username, email, full_name, avatar_url, cover_image_url,
	password_hash, refresh_credential, created_at, updated_at`

var _ model.AccountStore = (*AccountRepository)(nil)

type AccountRepository struct {
	db *Connection
}

func NewAccountRepository(db *Connection) *AccountRepository {
	return &AccountRepository{
		db: db,
	}
}

func scanAccount(row pgx.Row) (model.Account, error) {
	var account model.Account
	err := row.Scan(
		&account.ID, &account.Username, &account.Email, &account.FullName,
		&account.AvatarURL, &account.CoverImageURL, &account.PasswordHash,
		&account.RefreshCredential, &account.CreatedAt, &account.UpdatedAt,
	)
	return account, err
}

func (r *AccountRepository) FindByIdentifier(ctx context.Context, identifier string) (model.Account, error) {
	query := `SELECT ` + accountColumns + `
			  FROM accounts WHERE username = $1 OR email = $1
			  LIMIT 1`

	account, err := scanAccount(r.db.QueryRow(ctx, query, identifier))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Account{}, model.ErrNotFound
		}
		return model.Account{}, fmt.Errorf("failed to get account by identifier: %w", err)
	}

	return account, nil
}

func (r *AccountRepository) FindByID(ctx context.Context, id uuid.UUID) (model.Account, error) {
	query := `SELECT ` + accountColumns + `
			  FROM accounts WHERE id = $1`

	account, err := scanAccount(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Account{}, model.ErrNotFound
		}
		return model.Account{}, fmt.Errorf("failed to get account by id: %w", err)
	}

	return account, nil
}

func (r *AccountRepository) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM accounts WHERE username = $1 OR email = $2)`

	var exists bool
	if err := r.db.QueryRow(ctx, query, username, email).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check account existence: %w", err)
	}

	return exists, nil
}

func (r *AccountRepository) Create(ctx context.Context, account model.Account) (model.Account, error) {
	query := `INSERT INTO accounts (id, username, email, full_name, avatar_url, cover_image_url,
			  password_hash, refresh_credential, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			  RETURNING ` + accountColumns

	saved, err := scanAccount(r.db.QueryRow(ctx, query,
		account.ID, account.Username, account.Email, account.FullName,
		account.AvatarURL, account.CoverImageURL, account.PasswordHash,
		account.RefreshCredential, account.CreatedAt, account.UpdatedAt,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return model.Account{}, model.ErrAlreadyExists
		}
		return model.Account{}, fmt.Errorf("failed to create account: %w", err)
	}

	return saved, nil
}

func (r *AccountRepository) UpdateRefreshCredential(ctx context.Context, id uuid.UUID, value *string) error {
	query := `UPDATE accounts SET refresh_credential = $2, updated_at = now() WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id, value)
	if err != nil {
		return fmt.Errorf("failed to update refresh credential: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}

	return nil
}

func (r *AccountRepository) SwapRefreshCredential(ctx context.Context, id uuid.UUID, old, value string) error {
	query := `UPDATE accounts SET refresh_credential = $3, updated_at = now()
			  WHERE id = $1 AND refresh_credential = $2`

	tag, err := r.db.Exec(ctx, query, id, old, value)
	if err != nil {
		return fmt.Errorf("failed to swap refresh credential: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	if _, err := r.FindByID(ctx, id); err != nil {
		return err
	}
	return model.ErrConflict
}

func (r *AccountRepository) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	query := `UPDATE accounts SET password_hash = $2, updated_at = now() WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id, hash)
	if err != nil {
		return fmt.Errorf("failed to update password hash: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}

	return nil
}
