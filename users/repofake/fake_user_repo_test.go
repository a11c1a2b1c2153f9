package fakeuserrepo_test

import (
	"fmt"
	"testing"
	"time"

	apperrors "github.com/jrsteele09/go-attendance-admin/internal/errors"
	"github.com/jrsteele09/go-attendance-admin/users"
	fakeuserrepo "github.com/jrsteele09/go-attendance-admin/users/repofake"
	"github.com/stretchr/testify/require"
)

func TestFakeUserRepo(t *testing.T) {
	repo := fakeuserrepo.NewFakeUserRepo()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		role := users.RoleEmployee
		if i == 0 {
			role = users.RoleAdmin
		}
		require.NoError(t, repo.Upsert(&users.Account{Employee: users.Employee{
			Email:     fmt.Sprintf("user%d@example.com", i),
			Role:      role,
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}}))
	}

	t.Run("lookup by email is case insensitive", func(t *testing.T) {
		account, err := repo.GetByEmail("USER1@example.com")
		require.NoError(t, err)
		require.NotEmpty(t, account.ID)

		byID, err := repo.GetByID(account.ID)
		require.NoError(t, err)
		require.Equal(t, account, byID)
	})

	t.Run("duplicate email rejected", func(t *testing.T) {
		err := repo.Upsert(&users.Account{Employee: users.Employee{Email: "USER1@example.com"}})
		require.ErrorIs(t, err, apperrors.ErrAlreadyExists)
	})

	t.Run("list pages by role in creation order", func(t *testing.T) {
		page, total, err := repo.List(users.RoleEmployee, 1, 2)
		require.NoError(t, err)
		require.Equal(t, 4, total)
		require.Len(t, page, 2)
		require.Equal(t, "user2@example.com", page[0].Email)
		require.Equal(t, "user3@example.com", page[1].Email)

		page, _, err = repo.List(users.RoleEmployee, 3, 10)
		require.NoError(t, err)
		require.Len(t, page, 1)

		page, _, err = repo.List(users.RoleEmployee, 10, 10)
		require.NoError(t, err)
		require.Empty(t, page)

		all, total, err := repo.List("", 0, 0)
		require.NoError(t, err)
		require.Equal(t, 5, total)
		require.Len(t, all, 5)
	})

	t.Run("delete", func(t *testing.T) {
		account, err := repo.GetByEmail("user4@example.com")
		require.NoError(t, err)
		require.NoError(t, repo.Delete(account.ID))
		_, err = repo.GetByEmail("user4@example.com")
		require.ErrorIs(t, err, apperrors.ErrUserNotFound)
		require.ErrorIs(t, repo.Delete(account.ID), apperrors.ErrNotFound)
	})
}
