package service

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	servermocks "github.com/dtroode/vidtube-accounts/internal/mocks"
	"github.com/dtroode/vidtube-accounts/internal/model"
	"github.com/dtroode/vidtube-accounts/internal/testutil"
)

type accountMocks struct {
	store  *servermocks.AccountStore
	hasher *servermocks.PasswordHasher
	media  *servermocks.MediaStore
}

func newMockedAccount(t *testing.T) (*Account, accountMocks) {
	t.Helper()
	m := accountMocks{
		store:  &servermocks.AccountStore{},
		hasher: &servermocks.PasswordHasher{},
		media:  &servermocks.MediaStore{},
	}
	t.Cleanup(func() {
		m.store.AssertExpectations(t)
		m.hasher.AssertExpectations(t)
		m.media.AssertExpectations(t)
	})
	return NewAccount(m.store, m.hasher, m.media, testutil.MakeNoopLogger()), m
}

func upload(name string) *model.Upload {
	return &model.Upload{
		Filename:    name,
		ContentType: "image/png",
		Size:        4,
		Reader:      strings.NewReader("data"),
	}
}

func validRegisterParams() RegisterParams {
	return RegisterParams{
		FullName: "Alice Liddell",
		Email:    "Alice@Example.com",
		Username: "Alice",
		Password: "secret",
		Avatar:   upload("me.PNG"),
	}
}

func hasPrefix(prefix string) interface{} {
	return mock.MatchedBy(func(key string) bool { return strings.HasPrefix(key, prefix) })
}

func TestAccount_Register_Success(t *testing.T) {
	a, m := newMockedAccount(t)
	params := validRegisterParams()
	params.CoverImage = upload("cover.jpg")

	m.store.On("ExistsByUsernameOrEmail", mock.Anything, "alice", "alice@example.com").Return(false, nil).Once()
	m.media.On("Upload", mock.Anything, mock.MatchedBy(func(key string) bool {
		return strings.HasPrefix(key, "avatars/") && strings.HasSuffix(key, ".png")
	}), params.Avatar.Reader, int64(4), "image/png").Return("http://media/avatar.png", nil).Once()
	m.media.On("Upload", mock.Anything, hasPrefix("covers/"), params.CoverImage.Reader, int64(4), "image/png").Return("http://media/cover.jpg", nil).Once()
	m.hasher.On("Hash", "secret").Return("hashed", nil).Once()
	m.store.On("Create", mock.Anything, mock.MatchedBy(func(acc model.Account) bool {
		return acc.ID != uuid.Nil &&
			acc.Username == "alice" &&
			acc.Email == "alice@example.com" &&
			acc.FullName == "Alice Liddell" &&
			acc.PasswordHash == "hashed" &&
			acc.AvatarURL == "http://media/avatar.png" &&
			acc.CoverImageURL == "http://media/cover.jpg" &&
			acc.RefreshCredential == nil
	})).Return(func(_ context.Context, acc model.Account) model.Account { return acc }, nil).Once()

	created, err := a.Register(context.Background(), params)
	require.NoError(t, err)
	assert.Equal(t, "alice", created.Username)
	assert.Equal(t, "http://media/cover.jpg", created.CoverImageURL)
}

func TestAccount_Register_MissingFields(t *testing.T) {
	tests := []struct {
		name   string
		modify func(p *RegisterParams)
	}{
		{"no full name", func(p *RegisterParams) { p.FullName = "" }},
		{"blank email", func(p *RegisterParams) { p.Email = "   " }},
		{"no username", func(p *RegisterParams) { p.Username = "" }},
		{"no password", func(p *RegisterParams) { p.Password = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, _ := newMockedAccount(t)
			params := validRegisterParams()
			tt.modify(&params)

			_, err := a.Register(context.Background(), params)
			requireStatus(t, err, http.StatusBadRequest)
		})
	}
}

func TestAccount_Register_AlreadyExists(t *testing.T) {
	a, m := newMockedAccount(t)
	m.store.On("ExistsByUsernameOrEmail", mock.Anything, "alice", "alice@example.com").Return(true, nil).Once()

	_, err := a.Register(context.Background(), validRegisterParams())
	requireStatus(t, err, http.StatusConflict)
}

func TestAccount_Register_AvatarRequired(t *testing.T) {
	t.Run("missing", func(t *testing.T) {
		a, m := newMockedAccount(t)
		params := validRegisterParams()
		params.Avatar = nil
		m.store.On("ExistsByUsernameOrEmail", mock.Anything, "alice", "alice@example.com").Return(false, nil).Once()

		_, err := a.Register(context.Background(), params)
		requireStatus(t, err, http.StatusBadRequest)
	})

	t.Run("upload fails", func(t *testing.T) {
		a, m := newMockedAccount(t)
		m.store.On("ExistsByUsernameOrEmail", mock.Anything, "alice", "alice@example.com").Return(false, nil).Once()
		m.media.On("Upload", mock.Anything, hasPrefix("avatars/"), mock.Anything, mock.Anything, mock.Anything).Return("", assert.AnError).Once()

		_, err := a.Register(context.Background(), validRegisterParams())
		requireStatus(t, err, http.StatusBadRequest)
	})
}

func TestAccount_Register_CoverFailureIsIgnored(t *testing.T) {
	a, m := newMockedAccount(t)
	params := validRegisterParams()
	params.CoverImage = upload("cover.jpg")

	m.store.On("ExistsByUsernameOrEmail", mock.Anything, "alice", "alice@example.com").Return(false, nil).Once()
	m.media.On("Upload", mock.Anything, hasPrefix("avatars/"), mock.Anything, mock.Anything, mock.Anything).Return("http://media/avatar.png", nil).Once()
	m.media.On("Upload", mock.Anything, hasPrefix("covers/"), mock.Anything, mock.Anything, mock.Anything).Return("", assert.AnError).Once()
	m.hasher.On("Hash", "secret").Return("hashed", nil).Once()
	m.store.On("Create", mock.Anything, mock.MatchedBy(func(acc model.Account) bool {
		return acc.CoverImageURL == ""
	})).Return(func(_ context.Context, acc model.Account) model.Account { return acc }, nil).Once()

	created, err := a.Register(context.Background(), params)
	require.NoError(t, err)
	assert.Empty(t, created.CoverImageURL)
}

func TestAccount_Register_CreateFailureDiscardsMedia(t *testing.T) {
	tests := []struct {
		name      string
		createErr error
		status    int
	}{
		{"duplicate insert", model.ErrAlreadyExists, http.StatusConflict},
		{"store failure", assert.AnError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, m := newMockedAccount(t)
			params := validRegisterParams()
			params.CoverImage = upload("cover.jpg")

			m.store.On("ExistsByUsernameOrEmail", mock.Anything, "alice", "alice@example.com").Return(false, nil).Once()
			m.media.On("Upload", mock.Anything, hasPrefix("avatars/"), mock.Anything, mock.Anything, mock.Anything).Return("http://media/a", nil).Once()
			m.media.On("Upload", mock.Anything, hasPrefix("covers/"), mock.Anything, mock.Anything, mock.Anything).Return("http://media/c", nil).Once()
			m.hasher.On("Hash", "secret").Return("hashed", nil).Once()
			m.store.On("Create", mock.Anything, mock.Anything).Return(model.Account{}, tt.createErr).Once()
			m.media.On("Delete", mock.Anything, hasPrefix("avatars/")).Return(nil).Once()
			m.media.On("Delete", mock.Anything, hasPrefix("covers/")).Return(assert.AnError).Once()

			_, err := a.Register(context.Background(), params)
			requireStatus(t, err, tt.status)
		})
	}
}

func TestAccount_Current(t *testing.T) {
	id := uuid.New()

	tests := []struct {
		name     string
		storeErr error
		status   int
	}{
		{"found", nil, 0},
		{"gone", model.ErrNotFound, http.StatusNotFound},
		{"store failure", assert.AnError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, m := newMockedAccount(t)
			m.store.On("FindByID", mock.Anything, id).Return(model.Account{ID: id, Username: "alice"}, tt.storeErr).Once()

			got, err := a.Current(context.Background(), id)
			if tt.status == 0 {
				require.NoError(t, err)
				assert.Equal(t, "alice", got.Username)
				return
			}
			requireStatus(t, err, tt.status)
		})
	}
}

func TestMediaKey(t *testing.T) {
	key := mediaKey("avatars", "Photo.JPEG")
	assert.True(t, strings.HasPrefix(key, "avatars/"))
	assert.True(t, strings.HasSuffix(key, ".jpeg"))
	assert.NotEqual(t, key, mediaKey("avatars", "Photo.JPEG"))
	assert.Equal(t, len("avatars/")+36, len(mediaKey("avatars", "noext")))
}
