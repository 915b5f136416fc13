package service

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/vidtube-accounts/internal/apperror"
	"github.com/dtroode/vidtube-accounts/internal/logger"
	"github.com/dtroode/vidtube-accounts/internal/model"
)

// RegisterParams is the input of Account.Register.
type RegisterParams struct {
	FullName   string
	Email      string
	Username   string
	Password   string
	Avatar     *model.Upload
	CoverImage *model.Upload
}

// Account handles account creation and lookup.
type Account struct {
	store  model.AccountStore
	hasher model.PasswordHasher
	media  model.MediaStore
	logger *logger.Logger
	now    func() time.Time
}

func NewAccount(store model.AccountStore, hasher model.PasswordHasher, media model.MediaStore, logger *logger.Logger) *Account {
	return &Account{
		store:  store,
		hasher: hasher,
		media:  media,
		logger: logger,
		now:    time.Now,
	}
}

// Register creates a new account. The avatar is mandatory, the cover image
// is optional and silently skipped if it cannot be stored.
func (a *Account) Register(ctx context.Context, params RegisterParams) (model.Account, error) {
	params.FullName = strings.TrimSpace(params.FullName)
	params.Email = strings.ToLower(strings.TrimSpace(params.Email))
	params.Username = strings.ToLower(strings.TrimSpace(params.Username))
	if params.FullName == "" || params.Email == "" || params.Username == "" || strings.TrimSpace(params.Password) == "" {
		return model.Account{}, apperror.NewErrValidation("all fields are required")
	}

	a.logger.Debug("Account service: registering account",
		"username", params.Username,
		"email", params.Email)

	exists, err := a.store.ExistsByUsernameOrEmail(ctx, params.Username, params.Email)
	if err != nil {
		a.logger.Error("Account service: failed to check existing account",
			"username", params.Username,
			"error", err.Error())
		return model.Account{}, apperror.NewErrInternal(fmt.Errorf("failed to check existing account: %w", err))
	}
	if exists {
		a.logger.Info("Account service: account already exists",
			"username", params.Username,
			"email", params.Email)
		return model.Account{}, apperror.NewErrConflict("account with email or username already exists")
	}

	if params.Avatar == nil {
		return model.Account{}, apperror.NewErrValidation("avatar file is required")
	}

	var uploaded []string

	avatarKey := mediaKey("avatars", params.Avatar.Filename)
	avatarURL, err := a.media.Upload(ctx, avatarKey, params.Avatar.Reader, params.Avatar.Size, params.Avatar.ContentType)
	if err != nil {
		a.logger.Error("Account service: failed to upload avatar",
			"username", params.Username,
			"error", err.Error())
		return model.Account{}, apperror.NewErrValidation("avatar file is required")
	}
	uploaded = append(uploaded, avatarKey)

	var coverURL string
	if params.CoverImage != nil {
		coverKey := mediaKey("covers", params.CoverImage.Filename)
		coverURL, err = a.media.Upload(ctx, coverKey, params.CoverImage.Reader, params.CoverImage.Size, params.CoverImage.ContentType)
		if err != nil {
			a.logger.Warn("Account service: failed to upload cover image",
				"username", params.Username,
				"error", err.Error())
			coverURL = ""
		} else {
			uploaded = append(uploaded, coverKey)
		}
	}

	hash, err := a.hasher.Hash(params.Password)
	if err != nil {
		a.discardMedia(ctx, uploaded)
		return model.Account{}, apperror.NewErrInternal(err)
	}

	now := a.now()
	account := model.Account{
		ID:            uuid.New(),
		Username:      params.Username,
		Email:         params.Email,
		FullName:      params.FullName,
		AvatarURL:     avatarURL,
		CoverImageURL: coverURL,
		PasswordHash:  hash,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	created, err := a.store.Create(ctx, account)
	if errors.Is(err, model.ErrAlreadyExists) {
		a.discardMedia(ctx, uploaded)
		return model.Account{}, apperror.NewErrConflict("account with email or username already exists")
	}
	if err != nil {
		a.logger.Error("Account service: failed to create account",
			"username", params.Username,
			"error", err.Error())
		a.discardMedia(ctx, uploaded)
		return model.Account{}, apperror.NewErrInternal(fmt.Errorf("failed to create account: %w", err))
	}

	a.logger.Info("Account service: account registered",
		"account_id", created.ID,
		"username", created.Username)

	return created, nil
}

// Current returns the account with the given id.
func (a *Account) Current(ctx context.Context, accountID uuid.UUID) (model.Account, error) {
	account, err := a.store.FindByID(ctx, accountID)
	if errors.Is(err, model.ErrNotFound) {
		return model.Account{}, apperror.NewErrAccountNotFound()
	}
	if err != nil {
		return model.Account{}, apperror.NewErrInternal(fmt.Errorf("failed to find account: %w", err))
	}
	return account, nil
}

func (a *Account) discardMedia(ctx context.Context, keys []string) {
	ctx = context.WithoutCancel(ctx)
	for _, key := range keys {
		if err := a.media.Delete(ctx, key); err != nil {
			a.logger.Warn("Account service: failed to delete orphaned media",
				"key", key,
				"error", err.Error())
		}
	}
}

func mediaKey(prefix, filename string) string {
	return prefix + "/" + uuid.NewString() + strings.ToLower(path.Ext(filename))
}
