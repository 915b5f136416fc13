//go:build integration

package postgres_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/dtroode/vidtube-accounts/internal/model"
	repo "github.com/dtroode/vidtube-accounts/internal/repository/postgres"
)

var dsn string

func TestMain(m *testing.M) {
	ctx := context.Background()
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "postgres:15-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "postgres",
				"POSTGRES_PASSWORD": "password",
				"POSTGRES_DB":       "vidtube_test",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(2 * time.Minute),
		},
		Started: true,
	})
	if err != nil {
		panic(err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		panic(err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		panic(err)
	}
	dsn = fmt.Sprintf("postgres://postgres:password@%s:%s/vidtube_test?sslmode=disable", host, port.Port())

	code := m.Run()
	_ = container.Terminate(ctx)
	os.Exit(code)
}

func newAccount(username string) model.Account {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return model.Account{
		ID:           uuid.New(),
		Username:     username,
		Email:        username + "@example.com",
		FullName:     "Test " + username,
		AvatarURL:    "http://media/" + username + ".png",
		PasswordHash: "hash",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestAccountRepository(t *testing.T) {
	ctx := context.Background()
	conn, err := repo.NewConnection(ctx, dsn, repo.Options{MaxConns: 4, ConnectTimeout: 10 * time.Second})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	ar := repo.NewAccountRepository(conn)

	t.Run("create and find", func(t *testing.T) {
		a := newAccount("carol")
		saved, err := ar.Create(ctx, a)
		require.NoError(t, err)
		require.Equal(t, a.ID, saved.ID)
		require.Nil(t, saved.RefreshCredential)

		byName, err := ar.FindByIdentifier(ctx, "carol")
		require.NoError(t, err)
		require.Equal(t, a.ID, byName.ID)

		byEmail, err := ar.FindByIdentifier(ctx, "carol@example.com")
		require.NoError(t, err)
		require.Equal(t, a.ID, byEmail.ID)

		byID, err := ar.FindByID(ctx, a.ID)
		require.NoError(t, err)
		require.Equal(t, a.Email, byID.Email)

		exists, err := ar.ExistsByUsernameOrEmail(ctx, "carol", "other@example.com")
		require.NoError(t, err)
		require.True(t, exists)

		exists, err = ar.ExistsByUsernameOrEmail(ctx, "nobody", "nobody@example.com")
		require.NoError(t, err)
		require.False(t, exists)
	})

	t.Run("duplicate username", func(t *testing.T) {
		_, err := ar.Create(ctx, newAccount("dave"))
		require.NoError(t, err)

		dup := newAccount("dave")
		dup.Email = "dave2@example.com"
		_, err = ar.Create(ctx, dup)
		require.ErrorIs(t, err, model.ErrAlreadyExists)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := ar.FindByID(ctx, uuid.New())
		require.ErrorIs(t, err, model.ErrNotFound)

		_, err = ar.FindByIdentifier(ctx, "ghost")
		require.ErrorIs(t, err, model.ErrNotFound)

		require.ErrorIs(t, ar.UpdateRefreshCredential(ctx, uuid.New(), nil), model.ErrNotFound)
		require.ErrorIs(t, ar.SwapRefreshCredential(ctx, uuid.New(), "a", "b"), model.ErrNotFound)
		require.ErrorIs(t, ar.UpdatePasswordHash(ctx, uuid.New(), "h"), model.ErrNotFound)
	})

	t.Run("refresh credential slot", func(t *testing.T) {
		a, err := ar.Create(ctx, newAccount("erin"))
		require.NoError(t, err)

		first := "refresh-1"
		require.NoError(t, ar.UpdateRefreshCredential(ctx, a.ID, &first))
		got, err := ar.FindByID(ctx, a.ID)
		require.NoError(t, err)
		require.NotNil(t, got.RefreshCredential)
		require.Equal(t, first, *got.RefreshCredential)

		require.NoError(t, ar.SwapRefreshCredential(ctx, a.ID, "refresh-1", "refresh-2"))
		require.ErrorIs(t, ar.SwapRefreshCredential(ctx, a.ID, "refresh-1", "refresh-3"), model.ErrConflict)

		got, err = ar.FindByID(ctx, a.ID)
		require.NoError(t, err)
		require.Equal(t, "refresh-2", *got.RefreshCredential)

		require.NoError(t, ar.UpdateRefreshCredential(ctx, a.ID, nil))
		got, err = ar.FindByID(ctx, a.ID)
		require.NoError(t, err)
		require.Nil(t, got.RefreshCredential)

		require.ErrorIs(t, ar.SwapRefreshCredential(ctx, a.ID, "refresh-2", "refresh-4"), model.ErrConflict)
	})

	t.Run("password hash", func(t *testing.T) {
		a, err := ar.Create(ctx, newAccount("frank"))
		require.NoError(t, err)

		require.NoError(t, ar.UpdatePasswordHash(ctx, a.ID, "new-hash"))
		got, err := ar.FindByID(ctx, a.ID)
		require.NoError(t, err)
		require.Equal(t, "new-hash", got.PasswordHash)
	})
}
