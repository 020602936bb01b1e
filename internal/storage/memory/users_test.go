package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/auth-recovery-be/internal/models"
	"github.com/hongminglow/auth-recovery-be/internal/storage"
)

func sampleUser(username, email string) models.User {
	return models.User{
		FirstName:      "Ana",
		LastName:       "Lopez",
		MotherLastName: "Diaz",
		Username:       username,
		Email:          email,
		Phone:          "5550001111",
		SecretQuestion: "color favorito",
		SecretAnswer:   "azul",
		PasswordHash:   "$2a$10$hash",
	}
}

func TestCreateUser_AssignsIDs(t *testing.T) {
	s := NewUserStore()
	ctx := context.Background()

	a, err := s.CreateUser(ctx, sampleUser("ana", "ana@example.com"))
	require.NoError(t, err)
	b, err := s.CreateUser(ctx, sampleUser("bob", "bob@example.com"))
	require.NoError(t, err)

	assert.Equal(t, int64(1), a.ID)
	assert.Equal(t, int64(2), b.ID)
	assert.False(t, a.CreatedAt.IsZero())
}

func TestCreateUser_Duplicates(t *testing.T) {
	s := NewUserStore()
	ctx := context.Background()

	_, err := s.CreateUser(ctx, sampleUser("ana", "ana@example.com"))
	require.NoError(t, err)

	_, err = s.CreateUser(ctx, sampleUser("ana", "other@example.com"))
	assert.ErrorIs(t, err, storage.ErrAlreadyExists)
	_, err = s.CreateUser(ctx, sampleUser("other", "ana@example.com"))
	assert.ErrorIs(t, err, storage.ErrAlreadyExists)

	assert.Equal(t, 1, s.Count())
}

func TestCreateUser_ConcurrentDuplicatesKeepOneRow(t *testing.T) {
	s := NewUserStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	created := 0
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.CreateUser(ctx, sampleUser("ana", "ana@example.com"))
			if err == nil {
				mu.Lock()
				created++
				mu.Unlock()
			} else if !errors.Is(err, storage.ErrAlreadyExists) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	assert.Equal(t, 1, s.Count())
}

func TestLookups(t *testing.T) {
	s := NewUserStore()
	ctx := context.Background()
	created, err := s.CreateUser(ctx, sampleUser("ana", "ana@example.com"))
	require.NoError(t, err)

	got, err := s.FindByUsername(ctx, "ana")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	got, err = s.FindByEmail(ctx, "ana@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	got, err = s.FindByEmailAndQuestion(ctx, "ana@example.com", "color favorito")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	_, err = s.FindByEmailAndQuestion(ctx, "ana@example.com", "mascota")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = s.FindByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestUpdatePassword(t *testing.T) {
	s := NewUserStore()
	ctx := context.Background()
	created, err := s.CreateUser(ctx, sampleUser("ana", "ana@example.com"))
	require.NoError(t, err)

	require.NoError(t, s.UpdatePasswordByID(ctx, created.ID, "h1"))
	got, _ := s.FindByUsername(ctx, "ana")
	assert.Equal(t, "h1", got.PasswordHash)

	require.NoError(t, s.UpdatePasswordByEmail(ctx, "ana@example.com", "h2"))
	got, _ = s.FindByUsername(ctx, "ana")
	assert.Equal(t, "h2", got.PasswordHash)

	assert.ErrorIs(t, s.UpdatePasswordByID(ctx, 99, "x"), storage.ErrNotFound)
	assert.ErrorIs(t, s.UpdatePasswordByEmail(ctx, "nobody@example.com", "x"), storage.ErrNotFound)
}
