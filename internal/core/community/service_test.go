// Copyright (c) 2026 Veyra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package community_test

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/veyra/internal/core/community"
	"github.com/taibuivan/veyra/internal/core/moderation"
	"github.com/taibuivan/veyra/internal/platform/apperr"
	"github.com/taibuivan/veyra/internal/platform/dberr"
	"github.com/taibuivan/veyra/pkg/pagination"
)

// # Test Fixtures

type fakeRepository struct {
	communities map[string]*community.Community
	memberships map[string]*community.Membership
	founders    map[string]string // communityID -> founderID
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		communities: map[string]*community.Community{},
		memberships: map[string]*community.Membership{},
		founders:    map[string]string{},
	}
}

func membershipKey(communityID, userID string) string {
	return communityID + "/" + userID
}

func (repo *fakeRepository) Create(_ context.Context, c *community.Community, founderID string) error {
	for _, existing := range repo.communities {
		if strings.EqualFold(existing.Name, c.Name) {
			return apperr.Conflict("Resource already exists")
		}
	}
	clone := *c
	clone.CreatedAt = time.Now()
	repo.communities[c.ID] = &clone
	repo.founders[c.ID] = founderID
	repo.memberships[membershipKey(c.ID, founderID)] = &community.Membership{
		CommunityID: c.ID,
		UserID:      founderID,
		JoinedAt:    time.Now(),
	}
	return nil
}

func (repo *fakeRepository) FindByID(_ context.Context, id string) (*community.Community, error) {
	c, ok := repo.communities[id]
	if !ok {
		return nil, dberr.ErrNotFound
	}
	clone := *c
	return &clone, nil
}

func (repo *fakeRepository) FindByName(_ context.Context, name string) (*community.Community, error) {
	for _, c := range repo.communities {
		if strings.EqualFold(c.Name, name) {
			clone := *c
			return &clone, nil
		}
	}
	return nil, dberr.ErrNotFound
}

func (repo *fakeRepository) List(_ context.Context, filter community.Filter, limit, offset int) ([]*community.Community, int, error) {
	var matches []*community.Community
	for _, c := range repo.communities {
		if filter.Query == "" || strings.Contains(c.Name, filter.Query) {
			clone := *c
			matches = append(matches, &clone)
		}
	}
	if offset >= len(matches) {
		return nil, len(matches), nil
	}
	end := offset + limit
	if end > len(matches) {
		end = len(matches)
	}
	return matches[offset:end], len(matches), nil
}

func (repo *fakeRepository) Update(_ context.Context, c *community.Community) error {
	existing, ok := repo.communities[c.ID]
	if !ok {
		return dberr.ErrNotFound
	}
	*existing = *c
	return nil
}

func (repo *fakeRepository) InsertMembership(_ context.Context, membership *community.Membership) (bool, error) {
	key := membershipKey(membership.CommunityID, membership.UserID)
	if _, exists := repo.memberships[key]; exists {
		return false, nil
	}
	clone := *membership
	repo.memberships[key] = &clone
	if c, ok := repo.communities[membership.CommunityID]; ok {
		c.MemberCount++
	}
	return true, nil
}

func (repo *fakeRepository) DeleteMembership(_ context.Context, communityID, userID string) (bool, error) {
	key := membershipKey(communityID, userID)
	if _, ok := repo.memberships[key]; !ok {
		return false, nil
	}
	delete(repo.memberships, key)
	if c, ok := repo.communities[communityID]; ok && c.MemberCount > 0 {
		c.MemberCount--
	}
	return true, nil
}

func (repo *fakeRepository) SetMembershipFlags(_ context.Context, communityID, userID string, flags community.MembershipFlags) (bool, error) {
	membership, ok := repo.memberships[membershipKey(communityID, userID)]
	if !ok {
		return false, nil
	}
	if flags.Favorite != nil {
		membership.Favorite = *flags.Favorite
	}
	if flags.DisableUpdates != nil {
		membership.DisableUpdates = *flags.DisableUpdates
	}
	return true, nil
}

// fakeGatekeeper stubs the moderation state reads and the capability gate.
type fakeGatekeeper struct {
	moderators map[string]bool // userID -> active with manage_settings
	banned     map[string]bool
	approved   map[string]bool
}

func newFakeGatekeeper() *fakeGatekeeper {
	return &fakeGatekeeper{
		moderators: map[string]bool{},
		banned:     map[string]bool{},
		approved:   map[string]bool{},
	}
}

func (gate *fakeGatekeeper) Authorize(_ context.Context, _, actorID string, _ moderation.Capability) (*moderation.Moderator, error) {
	if !gate.moderators[actorID] {
		return nil, apperr.Forbidden("You are not a moderator of this community")
	}
	return &moderation.Moderator{UserID: actorID, Grants: moderation.AllCapabilities()}, nil
}

func (gate *fakeGatekeeper) IsBanned(_ context.Context, _, userID string) (bool, error) {
	return gate.banned[userID], nil
}

func (gate *fakeGatekeeper) IsApproved(_ context.Context, _, userID string) (bool, error) {
	return gate.approved[userID], nil
}

const (
	founderID  = "019236a0-0000-7000-8000-0000000000f0"
	joinerID   = "019236a0-0000-7000-8000-0000000000f1"
	outsiderID = "019236a0-0000-7000-8000-0000000000f2"
)

func newService(t *testing.T) (*community.Service, *fakeRepository, *fakeGatekeeper) {
	t.Helper()
	repo := newFakeRepository()
	gate := newFakeGatekeeper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return community.NewService(repo, gate, logger), repo, gate
}

func seed(t *testing.T, service *community.Service, restricted bool) *community.Community {
	t.Helper()
	c := &community.Community{Name: "Gopher Town", Title: "Gopher Town", Restricted: restricted}
	require.NoError(t, service.Create(context.Background(), c, founderID))
	return c
}

// # Lifecycle Tests

/*
TestService_Create covers slug normalization, founder seating, and the name
uniqueness conflict.
*/
func TestService_Create(t *testing.T) {
	t.Run("normalizes_name_and_seats_founder", func(t *testing.T) {
		service, repo, _ := newService(t)

		created := seed(t, service, false)
		assert.Equal(t, "gopher-town", created.Name)
		assert.Equal(t, 1, created.MemberCount)
		assert.Equal(t, founderID, repo.founders[created.ID])
		assert.Contains(t, repo.memberships, membershipKey(created.ID, founderID))
	})

	t.Run("title_defaults_to_name", func(t *testing.T) {
		service, _, _ := newService(t)

		c := &community.Community{Name: "quiet-corner"}
		require.NoError(t, service.Create(context.Background(), c, founderID))
		assert.Equal(t, "quiet-corner", c.Title)
	})

	t.Run("duplicate_name_conflicts", func(t *testing.T) {
		service, _, _ := newService(t)
		seed(t, service, false)

		err := service.Create(context.Background(), &community.Community{Name: "gopher town"}, founderID)
		assert.True(t, apperr.IsConflict(err))
	})

	t.Run("empty_name_invalid", func(t *testing.T) {
		service, _, _ := newService(t)

		err := service.Create(context.Background(), &community.Community{Name: "   "}, founderID)
		ae := apperr.As(err)
		require.NotNil(t, ae)
		assert.Equal(t, "VALIDATION_ERROR", ae.Code)
	})
}

/*
TestService_Get covers UUID and name resolution.
*/
func TestService_Get(t *testing.T) {
	service, _, _ := newService(t)
	created := seed(t, service, false)

	byID, err := service.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, byID.ID)

	byName, err := service.Get(context.Background(), "gopher-town")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byName.ID)

	_, err = service.Get(context.Background(), "nowhere")
	assert.True(t, apperr.IsNotFound(err))
}

/*
TestService_Update covers the manage_settings gate and field application.
*/
func TestService_Update(t *testing.T) {
	title := "New Title"

	t.Run("moderator_updates", func(t *testing.T) {
		service, _, gate := newService(t)
		created := seed(t, service, false)
		gate.moderators[founderID] = true

		updated, err := service.Update(context.Background(), founderID, created.ID, community.UpdateInput{Title: &title})
		require.NoError(t, err)
		assert.Equal(t, title, updated.Title)
		assert.Equal(t, "gopher-town", updated.Name)
	})

	t.Run("outsider_forbidden", func(t *testing.T) {
		service, _, _ := newService(t)
		created := seed(t, service, false)

		_, err := service.Update(context.Background(), outsiderID, created.ID, community.UpdateInput{Title: &title})
		assert.True(t, apperr.IsForbidden(err))
	})
}

// # Membership Tests

/*
TestService_Join covers the ban exclusion, the restricted approval gate, and
duplicate joins.
*/
func TestService_Join(t *testing.T) {
	t.Run("open_community", func(t *testing.T) {
		service, repo, _ := newService(t)
		created := seed(t, service, false)

		require.NoError(t, service.Join(context.Background(), joinerID, created.ID))
		assert.Contains(t, repo.memberships, membershipKey(created.ID, joinerID))
		assert.Equal(t, 2, repo.communities[created.ID].MemberCount)
	})

	t.Run("banned_user_forbidden", func(t *testing.T) {
		service, _, gate := newService(t)
		created := seed(t, service, false)
		gate.banned[joinerID] = true

		err := service.Join(context.Background(), joinerID, created.ID)
		assert.True(t, apperr.IsForbidden(err))
	})

	t.Run("restricted_requires_approval", func(t *testing.T) {
		service, _, gate := newService(t)
		created := seed(t, service, true)

		err := service.Join(context.Background(), joinerID, created.ID)
		assert.True(t, apperr.IsForbidden(err))

		gate.approved[joinerID] = true
		require.NoError(t, service.Join(context.Background(), joinerID, created.ID))
	})

	t.Run("duplicate_join_conflicts", func(t *testing.T) {
		service, _, _ := newService(t)
		created := seed(t, service, false)
		require.NoError(t, service.Join(context.Background(), joinerID, created.ID))

		err := service.Join(context.Background(), joinerID, created.ID)
		assert.True(t, apperr.IsConflict(err))
	})
}

/*
TestService_Leave verifies idempotent departure and counter movement.
*/
func TestService_Leave(t *testing.T) {
	service, repo, _ := newService(t)
	created := seed(t, service, false)
	require.NoError(t, service.Join(context.Background(), joinerID, created.ID))

	require.NoError(t, service.Leave(context.Background(), joinerID, created.ID))
	assert.Equal(t, 1, repo.communities[created.ID].MemberCount)

	// A second leave is a no-op, not an error.
	require.NoError(t, service.Leave(context.Background(), joinerID, created.ID))
	assert.Equal(t, 1, repo.communities[created.ID].MemberCount)
}

/*
TestService_SetMembershipFlags verifies preference updates and the missing
membership error.
*/
func TestService_SetMembershipFlags(t *testing.T) {
	service, repo, _ := newService(t)
	created := seed(t, service, false)
	favorite := true

	require.NoError(t, service.SetMembershipFlags(context.Background(), founderID, created.ID, community.MembershipFlags{Favorite: &favorite}))
	assert.True(t, repo.memberships[membershipKey(created.ID, founderID)].Favorite)

	err := service.SetMembershipFlags(context.Background(), outsiderID, created.ID, community.MembershipFlags{Favorite: &favorite})
	assert.True(t, apperr.IsNotFound(err))
}

/*
TestService_List exercises search and pagination bounds.
*/
func TestService_List(t *testing.T) {
	service, _, _ := newService(t)
	seed(t, service, false)

	communities, total, err := service.List(context.Background(), community.Filter{}, pagination.Params{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, communities, 1)

	empty, total, err := service.List(context.Background(), community.Filter{}, pagination.Params{Page: 3, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Empty(t, empty)
}
