// Copyright (c) 2026 Veyra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package moderation

import (
	"context"
	"log/slog"

	"github.com/taibuivan/veyra/internal/platform/apperr"
	"github.com/taibuivan/veyra/pkg/pagination"
)

// # Service Layer

// Actor identifies the authenticated user performing a moderation operation.
type Actor struct {
	ID       string
	Username string
}

// Invitation is the projection of a persisted moderator-invitation message
// that the acceptance flow needs.
type Invitation struct {
	ID          string
	RecipientID string
	CommunityID string
	Consumed    bool
}

// InvitationStore extends [InvitationSender] with lookup, used by the
// acceptance flow.
type InvitationStore interface {
	InvitationSender

	/*
		FindInvitation resolves a moderator invitation by message ID.

		Parameters:
		  - context: context.Context
		  - invitationID: string

		Returns:
		  - *Invitation: Projection for the acceptance flow
		  - error: dberr.ErrNotFound if missing or not an invitation
	*/
	FindInvitation(context context.Context, invitationID string) (*Invitation, error)
}

// Service orchestrates permission evaluation, the membership registry, and
// the moderator lifecycle.
type Service struct {
	repo             Repository
	invitations      InvitationStore
	notifier         Notifier
	logger           *slog.Logger
	allowRepeatMutes bool
}

// NewService constructs a new moderation [Service].
//
// allowRepeatMutes selects the mute-list uniqueness policy (see config).
func NewService(repo Repository, invitations InvitationStore, notifier Notifier, logger *slog.Logger, allowRepeatMutes bool) *Service {
	return &Service{
		repo:             repo,
		invitations:      invitations,
		notifier:         notifier,
		logger:           logger,
		allowRepeatMutes: allowRepeatMutes,
	}
}

// # Permission Evaluation

/*
Authorize decides whether the actor may perform a capability-gated action on
a community.

Description: Pure read-side decision. A pending (invited, not yet accepted)
roster entry grants no authority. The Everything flag is a superset override
for any capability.

Parameters:
  - context: context.Context
  - communityID: string
  - actorID: string
  - capability: Capability

Returns:
  - *Moderator: The actor's active roster entry on success
  - error: apperr.Forbidden if not an active moderator or missing the capability
*/
func (service *Service) Authorize(context context.Context, communityID, actorID string, capability Capability) (*Moderator, error) {
	entry, err := service.repo.FindModerator(context, communityID, actorID)
	if err != nil {
		// No roster entry at all: not a moderator.
		if apperr.IsNotFound(err) {
			return nil, apperr.Forbidden("You are not a moderator of this community")
		}
		return nil, err
	}

	// An unaccepted invitation is not a moderator for authorization purposes.
	if entry.Pending {
		return nil, apperr.Forbidden("You are not a moderator of this community")
	}

	if !entry.Grants.Allows(capability) {
		return nil, apperr.Forbidden("Your moderator permissions do not cover this action")
	}

	return entry, nil
}

// # Moderator Lifecycle

/*
AddModerator invites a user to the community's moderator roster.

Description: Persists an invitation message addressed to the target and
appends a pending roster entry. The target does not become an effective
moderator (and their moderated-communities view is unchanged) until they
accept the invitation.

Parameters:
  - context: context.Context
  - actor: Actor (Inviting moderator)
  - communityID: string (UUID or name slug)
  - targetUsername: string
  - grants: CapabilitySet

Returns:
  - error: NotFound, Forbidden, Conflict (already moderator / invitation
    already sent), or persistence failures
*/
func (service *Service) AddModerator(context context.Context, actor Actor, communityID, targetUsername string, grants CapabilitySet) error {
	community, err := service.resolveCommunity(context, communityID)
	if err != nil {
		return err
	}

	target, err := service.repo.FindUserByUsername(context, targetUsername)
	if err != nil {
		if apperr.IsNotFound(err) {
			return apperr.NotFound("User")
		}
		return err
	}

	if _, err := service.Authorize(context, community.ID, actor.ID, CapabilityManageUsers); err != nil {
		return err
	}

	// Distinguish the two occupied-slot cases for the client.
	existing, err := service.repo.FindModerator(context, community.ID, target.ID)
	if err == nil {
		if existing.Pending {
			return apperr.Conflict("An invitation has already been sent to this user")
		}
		return apperr.Conflict("User is already a moderator of this community")
	}
	if !apperr.IsNotFound(err) {
		return err
	}

	// The invitation message is load-bearing: its ID is the acceptance
	// credential, so a failure here aborts the whole operation.
	invitationID, err := service.invitations.SendInvitation(context, target.ID, community.ID, community.Name, actor.Username)
	if err != nil {
		return err
	}

	entry := &Moderator{
		CommunityID: community.ID,
		UserID:      target.ID,
		Grants:      grants,
		Pending:     true,
	}

	if err := service.repo.InsertModerator(context, entry); err != nil {
		return err
	}

	service.logger.Info("moderator_invited",
		slog.String("community_id", community.ID),
		slog.String("target_id", target.ID),
		slog.String("invitation_id", invitationID),
		slog.String("actor_id", actor.ID),
	)

	return nil
}

/*
AcceptInvitation turns a pending roster entry into an active moderator.

Description: Resolves the invitation message, verifies it is addressed to
the actor and still unconsumed, then flips the roster entry to active and
consumes the invitation in one transaction. From that point the community
appears in the actor's moderated-communities view.

Parameters:
  - context: context.Context
  - actor: Actor (Invitee)
  - invitationID: string (Message UUID)

Returns:
  - error: NotFound (invitation, community, or roster entry missing),
    Forbidden (not the addressee), Conflict (already consumed)
*/
func (service *Service) AcceptInvitation(context context.Context, actor Actor, invitationID string) error {
	invitation, err := service.invitations.FindInvitation(context, invitationID)
	if err != nil {
		if apperr.IsNotFound(err) {
			return apperr.NotFound("Invitation")
		}
		return err
	}

	if invitation.RecipientID != actor.ID {
		return apperr.Forbidden("This invitation is addressed to another user")
	}

	if invitation.Consumed {
		return apperr.Conflict("Invitation has already been used")
	}

	community, err := service.repo.FindCommunity(context, invitation.CommunityID)
	if err != nil {
		if apperr.IsNotFound(err) {
			return apperr.NotFound("Community")
		}
		return err
	}

	// Invitation/roster mismatch: the pending entry was removed after the
	// invitation went out.
	if err := service.repo.ActivateModerator(context, community.ID, actor.ID, invitation.ID); err != nil {
		if apperr.IsNotFound(err) {
			return apperr.NotFound("Moderator invitation for this community")
		}
		return err
	}

	service.logger.Info("moderator_invitation_accepted",
		slog.String("community_id", community.ID),
		slog.String("user_id", actor.ID),
		slog.String("invitation_id", invitation.ID),
	)

	return nil
}

/*
RemoveModerator removes a user from the community's roster.

Description: Removing an entry (pending or active) immediately revokes
authority and drops the community from the target's moderated-communities
view. Unlike list removals, removing a non-member is an error: the operation
addresses a specific roster entry.

Parameters:
  - context: context.Context
  - actor: Actor
  - communityID: string (UUID or name slug)
  - targetUsername: string

Returns:
  - error: NotFound (community, user, or roster entry), Forbidden
*/
func (service *Service) RemoveModerator(context context.Context, actor Actor, communityID, targetUsername string) error {
	community, err := service.resolveCommunity(context, communityID)
	if err != nil {
		return err
	}

	target, err := service.repo.FindUserByUsername(context, targetUsername)
	if err != nil {
		if apperr.IsNotFound(err) {
			return apperr.NotFound("User")
		}
		return err
	}

	if _, err := service.Authorize(context, community.ID, actor.ID, CapabilityManageUsers); err != nil {
		return err
	}

	removed, err := service.repo.DeleteModerator(context, community.ID, target.ID)
	if err != nil {
		return err
	}
	if !removed {
		return apperr.NotFound("Moderator")
	}

	service.logger.Info("moderator_removed",
		slog.String("community_id", community.ID),
		slog.String("target_id", target.ID),
		slog.String("actor_id", actor.ID),
	)

	return nil
}

/*
LeaveModeration removes the actor's own roster entry.

Description: Self-departure needs no capability gate, but the actor must
actually be on the roster.

Parameters:
  - context: context.Context
  - actor: Actor
  - communityID: string (UUID or name slug)

Returns:
  - error: NotFound (community or own roster entry)
*/
func (service *Service) LeaveModeration(context context.Context, actor Actor, communityID string) error {
	community, err := service.resolveCommunity(context, communityID)
	if err != nil {
		return err
	}

	removed, err := service.repo.DeleteModerator(context, community.ID, actor.ID)
	if err != nil {
		return err
	}
	if !removed {
		return apperr.NotFound("Moderator")
	}

	service.logger.Info("moderator_left",
		slog.String("community_id", community.ID),
		slog.String("user_id", actor.ID),
	)

	return nil
}

/*
ListModerators returns the community's active moderators.

Description: Pending invitations are never listed. Entries are enriched with
the holder's current username and avatar.

Parameters:
  - context: context.Context
  - communityID: string (UUID or name slug)
  - params: pagination.Params

Returns:
  - []*Moderator: Page of active entries
  - int: Total active count
  - error: NotFound or retrieval failures
*/
func (service *Service) ListModerators(context context.Context, communityID string, params pagination.Params) ([]*Moderator, int, error) {
	community, err := service.resolveCommunity(context, communityID)
	if err != nil {
		return nil, 0, err
	}

	return service.repo.ListModerators(context, community.ID, params.Limit, params.Offset())
}

/*
ListEditableModerators returns the active moderators the actor may manage.

Description: Seniority rule — a moderator may only edit colleagues whose
grant time is strictly later than their own. The actor must themselves be an
active moderator.

Parameters:
  - context: context.Context
  - actor: Actor
  - communityID: string (UUID or name slug)
  - params: pagination.Params

Returns:
  - []*Moderator: Page of junior active entries
  - int: Total junior count
  - error: NotFound, Forbidden, or retrieval failures
*/
func (service *Service) ListEditableModerators(context context.Context, actor Actor, communityID string, params pagination.Params) ([]*Moderator, int, error) {
	community, err := service.resolveCommunity(context, communityID)
	if err != nil {
		return nil, 0, err
	}

	entry, err := service.repo.FindModerator(context, community.ID, actor.ID)
	if err != nil || entry.Pending {
		return nil, 0, apperr.Forbidden("You are not a moderator of this community")
	}

	return service.repo.ListModeratorsGrantedAfter(context, community.ID, entry.GrantedAt, params.Limit, params.Offset())
}

/*
SetModeratorFavorite toggles the favorite flag on the actor's own entry.

Parameters:
  - context: context.Context
  - actor: Actor
  - communityID: string (UUID or name slug)
  - favorite: bool

Returns:
  - error: NotFound if the actor has no active roster entry
*/
func (service *Service) SetModeratorFavorite(context context.Context, actor Actor, communityID string, favorite bool) error {
	community, err := service.resolveCommunity(context, communityID)
	if err != nil {
		return err
	}

	updated, err := service.repo.SetModeratorFavorite(context, community.ID, actor.ID, favorite)
	if err != nil {
		return err
	}
	if !updated {
		return apperr.NotFound("Moderator")
	}

	return nil
}

// # Internal Helpers

// resolveCommunity loads a community by UUID or name slug.
//
// UUIDs have a fixed length of 36 characters in standard hyphenated format;
// community names are capped well below that.
func (service *Service) resolveCommunity(context context.Context, identifier string) (*CommunityRef, error) {
	var community *CommunityRef
	var err error

	if len(identifier) == 36 {
		community, err = service.repo.FindCommunity(context, identifier)
	} else {
		community, err = service.repo.FindCommunityByName(context, identifier)
	}

	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, apperr.NotFound("Community")
		}
		return nil, err
	}

	return community, nil
}
