// Copyright (c) 2026 Veyra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account_test

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/veyra/internal/platform/apperr"
	"github.com/taibuivan/veyra/internal/users/account"
	"github.com/taibuivan/veyra/internal/users/auth"
	"github.com/taibuivan/veyra/pkg/pagination"
)

// # Test Fixtures

type fakeAccountRepository struct {
	users map[string]*auth.User
}

func (repo *fakeAccountRepository) FindByID(_ context.Context, id string) (*auth.User, error) {
	if user, ok := repo.users[id]; ok {
		clone := *user
		return &clone, nil
	}
	return nil, apperr.NotFound("User not found")
}

func (repo *fakeAccountRepository) FindByUsername(_ context.Context, username string) (*auth.User, error) {
	for _, user := range repo.users {
		if strings.EqualFold(user.Username, username) {
			clone := *user
			return &clone, nil
		}
	}
	return nil, apperr.NotFound("User not found with this username")
}

func (repo *fakeAccountRepository) Update(_ context.Context, user *auth.User) error {
	clone := *user
	repo.users[user.ID] = &clone
	return nil
}

func (repo *fakeAccountRepository) SoftDelete(_ context.Context, id string) error {
	delete(repo.users, id)
	return nil
}

type fakeMembershipRepository struct {
	moderated []*account.ModeratedCommunity
	joined    []*account.JoinedCommunity
}

func (repo *fakeMembershipRepository) ListModerated(_ context.Context, _ string) ([]*account.ModeratedCommunity, error) {
	return repo.moderated, nil
}

func (repo *fakeMembershipRepository) ListJoined(_ context.Context, _ string, limit, offset int) ([]*account.JoinedCommunity, int, error) {
	if offset >= len(repo.joined) {
		return nil, len(repo.joined), nil
	}
	end := offset + limit
	if end > len(repo.joined) {
		end = len(repo.joined)
	}
	return repo.joined[offset:end], len(repo.joined), nil
}

type fakeSessionRevoker struct {
	revokedFor []string
}

func (revoker *fakeSessionRevoker) RevokeAll(_ context.Context, userID string) error {
	revoker.revokedFor = append(revoker.revokedFor, userID)
	return nil
}

const userID = "019236a0-0000-7000-8000-000000000030"

func newService(t *testing.T) (*account.Service, *fakeAccountRepository, *fakeMembershipRepository, *fakeSessionRevoker) {
	t.Helper()
	accounts := &fakeAccountRepository{users: map[string]*auth.User{
		userID: {ID: userID, Username: "gopher", Email: "gopher@example.com", Bio: "hello"},
	}}
	memberships := &fakeMembershipRepository{}
	sessions := &fakeSessionRevoker{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return account.NewService(accounts, memberships, sessions, logger), accounts, memberships, sessions
}

func stringPtr(s string) *string { return &s }

// # Profile Tests

func TestService_UpdateProfile(t *testing.T) {
	t.Run("partial_update_preserves_other_fields", func(t *testing.T) {
		service, accounts, _, _ := newService(t)

		updated, err := service.UpdateProfile(context.Background(), userID, account.UpdateProfileInput{
			AvatarURL: stringPtr("https://cdn.example.com/a.png"),
		})
		require.NoError(t, err)
		assert.Equal(t, "https://cdn.example.com/a.png", updated.AvatarURL)
		assert.Equal(t, "hello", updated.Bio)

		// Username never changes through this path.
		assert.Equal(t, "gopher", accounts.users[userID].Username)
	})

	t.Run("unknown_user_not_found", func(t *testing.T) {
		service, _, _, _ := newService(t)

		_, err := service.UpdateProfile(context.Background(), "missing", account.UpdateProfileInput{
			Bio: stringPtr("x"),
		})
		assert.True(t, apperr.IsNotFound(err))
	})
}

func TestService_GetPublicProfile(t *testing.T) {
	service, _, _, _ := newService(t)

	user, err := service.GetPublicProfile(context.Background(), "Gopher")
	require.NoError(t, err)
	assert.Equal(t, "gopher", user.Username)
	assert.Empty(t, user.Email)

	_, err = service.GetPublicProfile(context.Background(), "ghost")
	assert.True(t, apperr.IsNotFound(err))
}

func TestService_DeleteAccount(t *testing.T) {
	service, accounts, _, sessions := newService(t)

	require.NoError(t, service.DeleteAccount(context.Background(), userID))
	assert.Empty(t, accounts.users)
	assert.Equal(t, []string{userID}, sessions.revokedFor)
}

// # Community View Tests

func TestService_ListModeratedCommunities(t *testing.T) {
	service, _, memberships, _ := newService(t)
	memberships.moderated = []*account.ModeratedCommunity{
		{ID: "c1", Name: "gophers", Favorite: true, ModeratorSince: time.Now().Add(-time.Hour)},
		{ID: "c2", Name: "rustaceans", ModeratorSince: time.Now()},
	}

	moderated, err := service.ListModeratedCommunities(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, moderated, 2)
	assert.True(t, moderated[0].Favorite)
}

func TestService_ListJoinedCommunities(t *testing.T) {
	service, _, memberships, _ := newService(t)
	for _, name := range []string{"a", "b", "c"} {
		memberships.joined = append(memberships.joined, &account.JoinedCommunity{ID: name, Name: name})
	}

	page, total, err := service.ListJoinedCommunities(context.Background(), userID, pagination.Params{Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, page, 1)
	assert.Equal(t, "c", page[0].Name)
}
