// Copyright (c) 2026 Veyra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package moderation_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/veyra/internal/core/moderation"
	"github.com/taibuivan/veyra/internal/platform/apperr"
	"github.com/taibuivan/veyra/internal/platform/dberr"
	"github.com/taibuivan/veyra/pkg/pagination"
)

// # Test Fixtures

// fakeRepository is an in-memory [moderation.Repository].
type fakeRepository struct {
	communities map[string]*moderation.CommunityRef
	users       map[string]*moderation.TargetUser
	moderators  map[string]*moderation.Moderator
	bans        map[string]*moderation.BannedUser
	mutes       []*moderation.MutedUser
	approvals   map[string]*moderation.ApprovedUser
	invitations *fakeInvitations
	muteSeq     int
}

func newFakeRepository(invitations *fakeInvitations) *fakeRepository {
	return &fakeRepository{
		communities: map[string]*moderation.CommunityRef{},
		users:       map[string]*moderation.TargetUser{},
		moderators:  map[string]*moderation.Moderator{},
		bans:        map[string]*moderation.BannedUser{},
		approvals:   map[string]*moderation.ApprovedUser{},
		invitations: invitations,
	}
}

func rosterKey(communityID, userID string) string {
	return communityID + "/" + userID
}

func (repo *fakeRepository) FindCommunity(_ context.Context, communityID string) (*moderation.CommunityRef, error) {
	community, ok := repo.communities[communityID]
	if !ok {
		return nil, dberr.ErrNotFound
	}
	return community, nil
}

func (repo *fakeRepository) FindCommunityByName(_ context.Context, name string) (*moderation.CommunityRef, error) {
	for _, community := range repo.communities {
		if strings.EqualFold(community.Name, name) {
			return community, nil
		}
	}
	return nil, dberr.ErrNotFound
}

func (repo *fakeRepository) FindUserByUsername(_ context.Context, username string) (*moderation.TargetUser, error) {
	user, ok := repo.users[strings.ToLower(username)]
	if !ok {
		return nil, dberr.ErrNotFound
	}
	return user, nil
}

func (repo *fakeRepository) FindModerator(_ context.Context, communityID, userID string) (*moderation.Moderator, error) {
	entry, ok := repo.moderators[rosterKey(communityID, userID)]
	if !ok {
		return nil, dberr.ErrNotFound
	}
	clone := *entry
	return &clone, nil
}

func (repo *fakeRepository) InsertModerator(_ context.Context, moderator *moderation.Moderator) error {
	key := rosterKey(moderator.CommunityID, moderator.UserID)
	if _, exists := repo.moderators[key]; exists {
		return apperr.Conflict("Resource already exists")
	}
	clone := *moderator
	if clone.GrantedAt.IsZero() {
		clone.GrantedAt = time.Now()
	}
	repo.moderators[key] = &clone
	return nil
}

func (repo *fakeRepository) ActivateModerator(_ context.Context, communityID, userID, invitationID string) error {
	entry, ok := repo.moderators[rosterKey(communityID, userID)]
	if !ok || !entry.Pending {
		return dberr.ErrNotFound
	}
	entry.Pending = false
	if invitation, exists := repo.invitations.byID[invitationID]; exists {
		invitation.Consumed = true
	}
	return nil
}

func (repo *fakeRepository) DeleteModerator(_ context.Context, communityID, userID string) (bool, error) {
	key := rosterKey(communityID, userID)
	if _, ok := repo.moderators[key]; !ok {
		return false, nil
	}
	delete(repo.moderators, key)
	return true, nil
}

func (repo *fakeRepository) SetModeratorFavorite(_ context.Context, communityID, userID string, favorite bool) (bool, error) {
	entry, ok := repo.moderators[rosterKey(communityID, userID)]
	if !ok || entry.Pending {
		return false, nil
	}
	entry.Favorite = favorite
	return true, nil
}

func (repo *fakeRepository) activeModerators(communityID string, after *time.Time) []*moderation.Moderator {
	var active []*moderation.Moderator
	for _, entry := range repo.moderators {
		if entry.CommunityID != communityID || entry.Pending {
			continue
		}
		if after != nil && !entry.GrantedAt.After(*after) {
			continue
		}
		clone := *entry
		active = append(active, &clone)
	}
	sort.Slice(active, func(i, j int) bool {
		return active[i].GrantedAt.Before(active[j].GrantedAt)
	})
	return active
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

func (repo *fakeRepository) ListModerators(_ context.Context, communityID string, limit, offset int) ([]*moderation.Moderator, int, error) {
	active := repo.activeModerators(communityID, nil)
	return page(active, limit, offset), len(active), nil
}

func (repo *fakeRepository) ListModeratorsGrantedAfter(_ context.Context, communityID string, after time.Time, limit, offset int) ([]*moderation.Moderator, int, error) {
	active := repo.activeModerators(communityID, &after)
	return page(active, limit, offset), len(active), nil
}

func (repo *fakeRepository) InsertBan(_ context.Context, ban *moderation.BannedUser) (bool, error) {
	key := rosterKey(ban.CommunityID, ban.UserID)
	if _, exists := repo.bans[key]; exists {
		return false, nil
	}
	clone := *ban
	repo.bans[key] = &clone
	return true, nil
}

func (repo *fakeRepository) DeleteBan(_ context.Context, communityID, userID string) error {
	delete(repo.bans, rosterKey(communityID, userID))
	return nil
}

func (repo *fakeRepository) ListBanned(_ context.Context, communityID string, limit, offset int) ([]*moderation.BannedUser, int, error) {
	var banned []*moderation.BannedUser
	for _, ban := range repo.bans {
		if ban.CommunityID == communityID {
			clone := *ban
			banned = append(banned, &clone)
		}
	}
	sort.Slice(banned, func(i, j int) bool {
		return banned[i].BannedAt.After(banned[j].BannedAt)
	})
	return page(banned, limit, offset), len(banned), nil
}

func (repo *fakeRepository) InsertMute(_ context.Context, mute *moderation.MutedUser, enforceUnique bool) (bool, error) {
	if enforceUnique {
		for _, existing := range repo.mutes {
			if existing.CommunityID == mute.CommunityID && existing.UserID == mute.UserID {
				return false, nil
			}
		}
	}
	repo.muteSeq++
	clone := *mute
	clone.ID = fmt.Sprintf("mute-%d", repo.muteSeq)
	repo.mutes = append(repo.mutes, &clone)
	return true, nil
}

func (repo *fakeRepository) DeleteMutes(_ context.Context, communityID, userID string) error {
	var kept []*moderation.MutedUser
	for _, mute := range repo.mutes {
		if mute.CommunityID == communityID && mute.UserID == userID {
			continue
		}
		kept = append(kept, mute)
	}
	repo.mutes = kept
	return nil
}

func (repo *fakeRepository) ListMuted(_ context.Context, communityID string, limit, offset int) ([]*moderation.MutedUser, int, error) {
	var muted []*moderation.MutedUser
	for _, mute := range repo.mutes {
		if mute.CommunityID == communityID {
			clone := *mute
			muted = append(muted, &clone)
		}
	}
	return page(muted, limit, offset), len(muted), nil
}

func (repo *fakeRepository) InsertApproval(_ context.Context, approval *moderation.ApprovedUser) (bool, error) {
	key := rosterKey(approval.CommunityID, approval.UserID)
	if _, exists := repo.approvals[key]; exists {
		return false, nil
	}
	clone := *approval
	repo.approvals[key] = &clone
	return true, nil
}

func (repo *fakeRepository) DeleteApproval(_ context.Context, communityID, userID string) error {
	delete(repo.approvals, rosterKey(communityID, userID))
	return nil
}

func (repo *fakeRepository) ListApproved(_ context.Context, communityID string, limit, offset int) ([]*moderation.ApprovedUser, int, error) {
	var approved []*moderation.ApprovedUser
	for _, approval := range repo.approvals {
		if approval.CommunityID == communityID {
			clone := *approval
			approved = append(approved, &clone)
		}
	}
	return page(approved, limit, offset), len(approved), nil
}

func (repo *fakeRepository) HasBan(_ context.Context, communityID, userID string) (bool, error) {
	_, ok := repo.bans[rosterKey(communityID, userID)]
	return ok, nil
}

func (repo *fakeRepository) HasMute(_ context.Context, communityID, userID string) (bool, error) {
	for _, mute := range repo.mutes {
		if mute.CommunityID == communityID && mute.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (repo *fakeRepository) HasApproval(_ context.Context, communityID, userID string) (bool, error) {
	_, ok := repo.approvals[rosterKey(communityID, userID)]
	return ok, nil
}

// fakeInvitations is an in-memory [moderation.InvitationStore].
type fakeInvitations struct {
	byID map[string]*moderation.Invitation
	seq  int
}

func newFakeInvitations() *fakeInvitations {
	return &fakeInvitations{byID: map[string]*moderation.Invitation{}}
}

func (store *fakeInvitations) SendInvitation(_ context.Context, recipientID, communityID, _, _ string) (string, error) {
	store.seq++
	id := fmt.Sprintf("invitation-%d", store.seq)
	store.byID[id] = &moderation.Invitation{
		ID:          id,
		RecipientID: recipientID,
		CommunityID: communityID,
	}
	return id, nil
}

func (store *fakeInvitations) FindInvitation(_ context.Context, invitationID string) (*moderation.Invitation, error) {
	invitation, ok := store.byID[invitationID]
	if !ok {
		return nil, dberr.ErrNotFound
	}
	clone := *invitation
	return &clone, nil
}

// fakeNotifier records best-effort notifications.
type fakeNotifier struct {
	recipients []string
	subjects   []string
}

func (notifier *fakeNotifier) Notify(_ context.Context, recipientID, _, subject, _ string) {
	notifier.recipients = append(notifier.recipients, recipientID)
	notifier.subjects = append(notifier.subjects, subject)
}

// fixture wires a service around the in-memory collaborators with one
// community, one senior moderator, and two plain users.
type fixture struct {
	service     *moderation.Service
	repo        *fakeRepository
	invitations *fakeInvitations
	notifier    *fakeNotifier
}

const (
	communityID = "019236a0-0000-7000-8000-000000000001"
	seniorID    = "019236a0-0000-7000-8000-0000000000aa"
	targetID    = "019236a0-0000-7000-8000-0000000000bb"
	bystanderID = "019236a0-0000-7000-8000-0000000000cc"
)

func newFixture(t *testing.T, allowRepeatMutes bool) *fixture {
	t.Helper()

	invitations := newFakeInvitations()
	repo := newFakeRepository(invitations)
	notifier := &fakeNotifier{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	repo.communities[communityID] = &moderation.CommunityRef{ID: communityID, Name: "gophers"}
	repo.users["senior"] = &moderation.TargetUser{ID: seniorID, Username: "senior"}
	repo.users["target"] = &moderation.TargetUser{ID: targetID, Username: "target"}
	repo.users["bystander"] = &moderation.TargetUser{ID: bystanderID, Username: "bystander"}

	repo.moderators[rosterKey(communityID, seniorID)] = &moderation.Moderator{
		CommunityID: communityID,
		UserID:      seniorID,
		Username:    "senior",
		Grants:      moderation.AllCapabilities(),
		GrantedAt:   time.Now().Add(-24 * time.Hour),
	}

	return &fixture{
		service:     moderation.NewService(repo, invitations, notifier, logger, allowRepeatMutes),
		repo:        repo,
		invitations: invitations,
		notifier:    notifier,
	}
}

func (f *fixture) senior() moderation.Actor {
	return moderation.Actor{ID: seniorID, Username: "senior"}
}

// # Capability Tests

/*
TestCapabilitySet_Allows verifies flag coverage and the Everything override.
*/
func TestCapabilitySet_Allows(t *testing.T) {
	tests := []struct {
		name       string
		set        moderation.CapabilitySet
		capability moderation.Capability
		allowed    bool
	}{
		{"everything_overrides_users", moderation.CapabilitySet{Everything: true}, moderation.CapabilityManageUsers, true},
		{"everything_overrides_settings", moderation.CapabilitySet{Everything: true}, moderation.CapabilityManageSettings, true},
		{"everything_overrides_content", moderation.CapabilitySet{Everything: true}, moderation.CapabilityManagePostsAndComments, true},
		{"users_flag_matches", moderation.CapabilitySet{ManageUsers: true}, moderation.CapabilityManageUsers, true},
		{"users_flag_does_not_grant_settings", moderation.CapabilitySet{ManageUsers: true}, moderation.CapabilityManageSettings, false},
		{"settings_flag_matches", moderation.CapabilitySet{ManageSettings: true}, moderation.CapabilityManageSettings, true},
		{"content_flag_matches", moderation.CapabilitySet{ManagePostsAndComments: true}, moderation.CapabilityManagePostsAndComments, true},
		{"empty_set_denies", moderation.CapabilitySet{}, moderation.CapabilityManageUsers, false},
		{"unknown_capability_denies", moderation.CapabilitySet{ManageUsers: true}, moderation.Capability("manage_everything"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.set.Allows(tt.capability))
		})
	}
}

/*
TestService_Authorize covers the permission evaluator's decision matrix.
*/
func TestService_Authorize(t *testing.T) {
	t.Run("active_moderator_with_flag", func(t *testing.T) {
		f := newFixture(t, false)

		entry, err := f.service.Authorize(context.Background(), communityID, seniorID, moderation.CapabilityManageUsers)
		require.NoError(t, err)
		assert.Equal(t, seniorID, entry.UserID)
	})

	t.Run("non_moderator_is_forbidden", func(t *testing.T) {
		f := newFixture(t, false)

		_, err := f.service.Authorize(context.Background(), communityID, bystanderID, moderation.CapabilityManageUsers)
		assert.True(t, apperr.IsForbidden(err))
	})

	t.Run("pending_entry_grants_nothing", func(t *testing.T) {
		f := newFixture(t, false)
		f.repo.moderators[rosterKey(communityID, targetID)] = &moderation.Moderator{
			CommunityID: communityID,
			UserID:      targetID,
			Grants:      moderation.AllCapabilities(),
			Pending:     true,
		}

		_, err := f.service.Authorize(context.Background(), communityID, targetID, moderation.CapabilityManageUsers)
		assert.True(t, apperr.IsForbidden(err))
	})

	t.Run("uncovered_capability_is_forbidden", func(t *testing.T) {
		f := newFixture(t, false)
		f.repo.moderators[rosterKey(communityID, targetID)] = &moderation.Moderator{
			CommunityID: communityID,
			UserID:      targetID,
			Grants:      moderation.CapabilitySet{ManageSettings: true},
			GrantedAt:   time.Now(),
		}

		_, err := f.service.Authorize(context.Background(), communityID, targetID, moderation.CapabilityManageUsers)
		assert.True(t, apperr.IsForbidden(err))
	})
}

// # Moderator Lifecycle Tests

/*
TestService_AddModerator covers invitation creation and the occupied-slot
conflicts.
*/
func TestService_AddModerator(t *testing.T) {
	grants := moderation.CapabilitySet{ManageUsers: true}

	t.Run("creates_pending_entry_and_invitation", func(t *testing.T) {
		f := newFixture(t, false)

		err := f.service.AddModerator(context.Background(), f.senior(), communityID, "target", grants)
		require.NoError(t, err)

		entry := f.repo.moderators[rosterKey(communityID, targetID)]
		require.NotNil(t, entry)
		assert.True(t, entry.Pending)
		assert.Equal(t, grants, entry.Grants)
		assert.Len(t, f.invitations.byID, 1)
	})

	t.Run("resolves_community_by_name", func(t *testing.T) {
		f := newFixture(t, false)

		err := f.service.AddModerator(context.Background(), f.senior(), "gophers", "target", grants)
		require.NoError(t, err)
		assert.NotNil(t, f.repo.moderators[rosterKey(communityID, targetID)])
	})

	t.Run("active_moderator_conflicts", func(t *testing.T) {
		f := newFixture(t, false)

		err := f.service.AddModerator(context.Background(), f.senior(), communityID, "senior", grants)
		assert.True(t, apperr.IsConflict(err))
	})

	t.Run("pending_invitation_conflicts", func(t *testing.T) {
		f := newFixture(t, false)
		require.NoError(t, f.service.AddModerator(context.Background(), f.senior(), communityID, "target", grants))

		err := f.service.AddModerator(context.Background(), f.senior(), communityID, "target", grants)
		assert.True(t, apperr.IsConflict(err))
		assert.Len(t, f.invitations.byID, 1)
	})

	t.Run("unknown_user_not_found", func(t *testing.T) {
		f := newFixture(t, false)

		err := f.service.AddModerator(context.Background(), f.senior(), communityID, "ghost", grants)
		assert.True(t, apperr.IsNotFound(err))
	})

	t.Run("actor_without_capability_forbidden", func(t *testing.T) {
		f := newFixture(t, false)
		actor := moderation.Actor{ID: bystanderID, Username: "bystander"}

		err := f.service.AddModerator(context.Background(), actor, communityID, "target", grants)
		assert.True(t, apperr.IsForbidden(err))
	})
}

/*
TestService_AcceptInvitation covers the activation flow and its guards.
*/
func TestService_AcceptInvitation(t *testing.T) {
	invite := func(t *testing.T, f *fixture) string {
		t.Helper()
		require.NoError(t, f.service.AddModerator(context.Background(), f.senior(), communityID, "target", moderation.CapabilitySet{ManageUsers: true}))
		require.Len(t, f.invitations.byID, 1)
		for id := range f.invitations.byID {
			return id
		}
		return ""
	}

	t.Run("activates_pending_entry", func(t *testing.T) {
		f := newFixture(t, false)
		invitationID := invite(t, f)

		err := f.service.AcceptInvitation(context.Background(), moderation.Actor{ID: targetID}, invitationID)
		require.NoError(t, err)

		entry := f.repo.moderators[rosterKey(communityID, targetID)]
		require.NotNil(t, entry)
		assert.False(t, entry.Pending)
		assert.True(t, f.invitations.byID[invitationID].Consumed)
	})

	t.Run("acceptance_keeps_invitation_grant_time", func(t *testing.T) {
		f := newFixture(t, false)
		invitationID := invite(t, f)
		granted := f.repo.moderators[rosterKey(communityID, targetID)].GrantedAt

		require.NoError(t, f.service.AcceptInvitation(context.Background(), moderation.Actor{ID: targetID}, invitationID))

		entry := f.repo.moderators[rosterKey(communityID, targetID)]
		assert.True(t, entry.GrantedAt.Equal(granted), "seniority must date from the invitation, not acceptance")
	})

	t.Run("wrong_addressee_forbidden", func(t *testing.T) {
		f := newFixture(t, false)
		invitationID := invite(t, f)

		err := f.service.AcceptInvitation(context.Background(), moderation.Actor{ID: bystanderID}, invitationID)
		assert.True(t, apperr.IsForbidden(err))
	})

	t.Run("consumed_invitation_conflicts", func(t *testing.T) {
		f := newFixture(t, false)
		invitationID := invite(t, f)
		require.NoError(t, f.service.AcceptInvitation(context.Background(), moderation.Actor{ID: targetID}, invitationID))

		err := f.service.AcceptInvitation(context.Background(), moderation.Actor{ID: targetID}, invitationID)
		assert.True(t, apperr.IsConflict(err))
	})

	t.Run("unknown_invitation_not_found", func(t *testing.T) {
		f := newFixture(t, false)

		err := f.service.AcceptInvitation(context.Background(), moderation.Actor{ID: targetID}, "missing")
		assert.True(t, apperr.IsNotFound(err))
	})

	t.Run("revoked_entry_not_found", func(t *testing.T) {
		f := newFixture(t, false)
		invitationID := invite(t, f)

		// The pending entry was removed between invitation and acceptance.
		delete(f.repo.moderators, rosterKey(communityID, targetID))

		err := f.service.AcceptInvitation(context.Background(), moderation.Actor{ID: targetID}, invitationID)
		assert.True(t, apperr.IsNotFound(err))
	})
}

/*
TestService_RemoveModerator covers removal and the non-member error.
*/
func TestService_RemoveModerator(t *testing.T) {
	t.Run("removes_entry", func(t *testing.T) {
		f := newFixture(t, false)
		f.repo.moderators[rosterKey(communityID, targetID)] = &moderation.Moderator{
			CommunityID: communityID,
			UserID:      targetID,
			GrantedAt:   time.Now(),
		}

		err := f.service.RemoveModerator(context.Background(), f.senior(), communityID, "target")
		require.NoError(t, err)
		assert.NotContains(t, f.repo.moderators, rosterKey(communityID, targetID))
	})

	t.Run("non_member_not_found", func(t *testing.T) {
		f := newFixture(t, false)

		err := f.service.RemoveModerator(context.Background(), f.senior(), communityID, "target")
		assert.True(t, apperr.IsNotFound(err))
	})
}

/*
TestService_LeaveModeration covers self-departure.
*/
func TestService_LeaveModeration(t *testing.T) {
	t.Run("removes_own_entry", func(t *testing.T) {
		f := newFixture(t, false)

		err := f.service.LeaveModeration(context.Background(), f.senior(), communityID)
		require.NoError(t, err)
		assert.Empty(t, f.repo.moderators)
	})

	t.Run("not_on_roster_not_found", func(t *testing.T) {
		f := newFixture(t, false)

		err := f.service.LeaveModeration(context.Background(), moderation.Actor{ID: bystanderID}, communityID)
		assert.True(t, apperr.IsNotFound(err))
	})
}

/*
TestService_ListModerators verifies pending exclusion and pagination.
*/
func TestService_ListModerators(t *testing.T) {
	f := newFixture(t, false)
	f.repo.moderators[rosterKey(communityID, targetID)] = &moderation.Moderator{
		CommunityID: communityID,
		UserID:      targetID,
		Pending:     true,
	}

	moderators, total, err := f.service.ListModerators(context.Background(), communityID, pagination.Params{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, moderators, 1)
	assert.Equal(t, seniorID, moderators[0].UserID)

	// Pages past the data return an empty slice, not an error.
	empty, total, err := f.service.ListModerators(context.Background(), communityID, pagination.Params{Page: 5, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Empty(t, empty)
}

/*
TestService_ListEditableModerators verifies the strict seniority cutoff.
*/
func TestService_ListEditableModerators(t *testing.T) {
	f := newFixture(t, false)
	base := f.repo.moderators[rosterKey(communityID, seniorID)].GrantedAt

	// Same grant instant as the actor: not editable under the strict rule.
	f.repo.moderators[rosterKey(communityID, bystanderID)] = &moderation.Moderator{
		CommunityID: communityID,
		UserID:      bystanderID,
		GrantedAt:   base,
	}
	f.repo.moderators[rosterKey(communityID, targetID)] = &moderation.Moderator{
		CommunityID: communityID,
		UserID:      targetID,
		GrantedAt:   base.Add(time.Hour),
	}

	moderators, total, err := f.service.ListEditableModerators(context.Background(), f.senior(), communityID, pagination.Params{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, moderators, 1)
	assert.Equal(t, targetID, moderators[0].UserID)

	_, _, err = f.service.ListEditableModerators(context.Background(), moderation.Actor{ID: "nobody"}, communityID, pagination.Params{Page: 1, Limit: 10})
	assert.True(t, apperr.IsForbidden(err))
}

// # Membership Registry Tests

/*
TestService_Ban covers ban creation, validation, duplicates, and the
best-effort notification.
*/
func TestService_Ban(t *testing.T) {
	permanent := moderation.BanInput{Reason: moderation.BanReasonSpam, Permanent: true}

	t.Run("permanent_ban", func(t *testing.T) {
		f := newFixture(t, false)

		err := f.service.Ban(context.Background(), f.senior(), communityID, "target", permanent)
		require.NoError(t, err)

		ban := f.repo.bans[rosterKey(communityID, targetID)]
		require.NotNil(t, ban)
		assert.True(t, ban.Permanent)
		assert.Nil(t, ban.BannedUntil)
		assert.Equal(t, []string{targetID}, f.notifier.recipients)
	})

	t.Run("temporary_ban_keeps_expiry", func(t *testing.T) {
		f := newFixture(t, false)
		until := time.Now().Add(48 * time.Hour)

		err := f.service.Ban(context.Background(), f.senior(), communityID, "target", moderation.BanInput{
			Reason:      moderation.BanReasonRule,
			BannedUntil: &until,
		})
		require.NoError(t, err)

		ban := f.repo.bans[rosterKey(communityID, targetID)]
		require.NotNil(t, ban)
		require.NotNil(t, ban.BannedUntil)
		assert.True(t, ban.BannedUntil.Equal(until))
	})

	t.Run("temporary_without_expiry_invalid", func(t *testing.T) {
		f := newFixture(t, false)

		err := f.service.Ban(context.Background(), f.senior(), communityID, "target", moderation.BanInput{Reason: moderation.BanReasonRule})
		ae := apperr.As(err)
		require.NotNil(t, ae)
		assert.Equal(t, "VALIDATION_ERROR", ae.Code)
	})

	t.Run("expiry_in_past_invalid", func(t *testing.T) {
		f := newFixture(t, false)
		until := time.Now().Add(-time.Hour)

		err := f.service.Ban(context.Background(), f.senior(), communityID, "target", moderation.BanInput{
			Reason:      moderation.BanReasonRule,
			BannedUntil: &until,
		})
		ae := apperr.As(err)
		require.NotNil(t, ae)
		assert.Equal(t, "VALIDATION_ERROR", ae.Code)
	})

	t.Run("unknown_reason_invalid", func(t *testing.T) {
		f := newFixture(t, false)

		err := f.service.Ban(context.Background(), f.senior(), communityID, "target", moderation.BanInput{
			Reason:    moderation.BanReason("grudge"),
			Permanent: true,
		})
		ae := apperr.As(err)
		require.NotNil(t, ae)
		assert.Equal(t, "VALIDATION_ERROR", ae.Code)
	})

	t.Run("duplicate_ban_conflicts", func(t *testing.T) {
		f := newFixture(t, false)
		require.NoError(t, f.service.Ban(context.Background(), f.senior(), communityID, "target", permanent))

		err := f.service.Ban(context.Background(), f.senior(), communityID, "target", permanent)
		assert.True(t, apperr.IsConflict(err))
	})

	t.Run("unban_is_idempotent", func(t *testing.T) {
		f := newFixture(t, false)
		require.NoError(t, f.service.Ban(context.Background(), f.senior(), communityID, "target", permanent))

		require.NoError(t, f.service.Unban(context.Background(), f.senior(), communityID, "target"))
		require.NoError(t, f.service.Unban(context.Background(), f.senior(), communityID, "target"))
		assert.Empty(t, f.repo.bans)
	})

	t.Run("unban_notifies_target", func(t *testing.T) {
		f := newFixture(t, false)
		require.NoError(t, f.service.Ban(context.Background(), f.senior(), communityID, "target", permanent))

		require.NoError(t, f.service.Unban(context.Background(), f.senior(), communityID, "target"))
		assert.Equal(t, []string{targetID, targetID}, f.notifier.recipients)
	})
}

/*
TestService_Mute covers both uniqueness policies and full-history unmute.
*/
func TestService_Mute(t *testing.T) {
	t.Run("default_policy_rejects_repeat", func(t *testing.T) {
		f := newFixture(t, false)
		require.NoError(t, f.service.Mute(context.Background(), f.senior(), communityID, "target", "spam"))

		err := f.service.Mute(context.Background(), f.senior(), communityID, "target", "again")
		assert.True(t, apperr.IsConflict(err))
		assert.Len(t, f.repo.mutes, 1)
	})

	t.Run("history_policy_accumulates", func(t *testing.T) {
		f := newFixture(t, true)
		require.NoError(t, f.service.Mute(context.Background(), f.senior(), communityID, "target", "first"))
		require.NoError(t, f.service.Mute(context.Background(), f.senior(), communityID, "target", "second"))

		assert.Len(t, f.repo.mutes, 2)
	})

	t.Run("unmute_clears_history", func(t *testing.T) {
		f := newFixture(t, true)
		require.NoError(t, f.service.Mute(context.Background(), f.senior(), communityID, "target", "first"))
		require.NoError(t, f.service.Mute(context.Background(), f.senior(), communityID, "target", "second"))

		require.NoError(t, f.service.Unmute(context.Background(), f.senior(), communityID, "target"))
		assert.Empty(t, f.repo.mutes)

		// Unmuting again is a no-op.
		require.NoError(t, f.service.Unmute(context.Background(), f.senior(), communityID, "target"))
	})

	t.Run("records_muting_moderator", func(t *testing.T) {
		f := newFixture(t, false)
		require.NoError(t, f.service.Mute(context.Background(), f.senior(), communityID, "target", "spam"))

		require.Len(t, f.repo.mutes, 1)
		assert.Equal(t, seniorID, f.repo.mutes[0].MutedByID)
	})
}

/*
TestService_Approve covers approval uniqueness and idempotent removal.
*/
func TestService_Approve(t *testing.T) {
	t.Run("approves_once", func(t *testing.T) {
		f := newFixture(t, false)
		require.NoError(t, f.service.Approve(context.Background(), f.senior(), communityID, "target"))

		err := f.service.Approve(context.Background(), f.senior(), communityID, "target")
		assert.True(t, apperr.IsConflict(err))
	})

	t.Run("unapprove_is_idempotent", func(t *testing.T) {
		f := newFixture(t, false)
		require.NoError(t, f.service.Approve(context.Background(), f.senior(), communityID, "target"))

		require.NoError(t, f.service.Unapprove(context.Background(), f.senior(), communityID, "target"))
		require.NoError(t, f.service.Unapprove(context.Background(), f.senior(), communityID, "target"))
	})
}

/*
TestService_RegistryListings verifies the manage_users gate on list reads.
*/
func TestService_RegistryListings(t *testing.T) {
	f := newFixture(t, false)
	params := pagination.Params{Page: 1, Limit: 10}
	outsider := moderation.Actor{ID: bystanderID}

	_, _, err := f.service.ListBanned(context.Background(), outsider, communityID, params)
	assert.True(t, apperr.IsForbidden(err))

	_, _, err = f.service.ListMuted(context.Background(), outsider, communityID, params)
	assert.True(t, apperr.IsForbidden(err))

	_, _, err = f.service.ListApproved(context.Background(), outsider, communityID, params)
	assert.True(t, apperr.IsForbidden(err))

	_, total, err := f.service.ListBanned(context.Background(), f.senior(), communityID, params)
	require.NoError(t, err)
	assert.Zero(t, total)
}
