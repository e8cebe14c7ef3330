// Copyright (c) 2026 Veyra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package moderation

import (
	"context"
	"log/slog"
	"time"

	"github.com/taibuivan/veyra/internal/platform/apperr"
	"github.com/taibuivan/veyra/internal/platform/validate"
	"github.com/taibuivan/veyra/pkg/pagination"
)

// # Membership Registry

/*
Ban adds a user to the community's ban list.

Description: A ban is either permanent (no expiry recorded) or temporary with
an expiry timestamp. A user can hold at most one ban per community; the
concurrent duplicate is resolved at the storage layer, so exactly one of two
racing moderators succeeds. The target is notified best-effort.

Parameters:
  - context: context.Context
  - actor: Actor
  - communityID: string (UUID or name slug)
  - targetUsername: string
  - input: BanInput

Returns:
  - error: NotFound, Forbidden, ValidationError, Conflict (already banned)
*/
func (service *Service) Ban(context context.Context, actor Actor, communityID, targetUsername string, input BanInput) error {
	validator := &validate.Validator{}
	validator.
		Custom(FieldBanReason, !input.Reason.Valid(), "invalid ban reason").
		Custom("banned_until", !input.Permanent && input.BannedUntil == nil, "temporary bans require an expiry").
		Custom("banned_until", !input.Permanent && input.BannedUntil != nil && !input.BannedUntil.After(time.Now()), "expiry must be in the future")
	if err := validator.Err(); err != nil {
		return err
	}

	community, target, err := service.resolveCommunityTarget(context, communityID, targetUsername, actor)
	if err != nil {
		return err
	}

	ban := &BannedUser{
		CommunityID: community.ID,
		UserID:      target.ID,
		BannedAt:    time.Now().UTC(),
		Reason:      input.Reason,
		ModNote:     input.ModNote,
		Permanent:   input.Permanent,
		BanMessage:  input.BanMessage,
	}
	if !input.Permanent {
		ban.BannedUntil = input.BannedUntil
	}

	inserted, err := service.repo.InsertBan(context, ban)
	if err != nil {
		return err
	}
	if !inserted {
		return apperr.Conflict("User is already banned from this community")
	}

	service.notifier.Notify(context, target.ID, community.ID,
		"You have been banned from "+community.Name,
		ban.BanMessage,
	)

	service.logger.Info("user_banned",
		slog.String("community_id", community.ID),
		slog.String("target_id", target.ID),
		slog.String("actor_id", actor.ID),
		slog.Bool("permanent", ban.Permanent),
	)

	return nil
}

/*
Unban removes a user from the community's ban list.

Description: Idempotent. Unbanning a user who is not banned succeeds without
effect.

Parameters:
  - context: context.Context
  - actor: Actor
  - communityID: string (UUID or name slug)
  - targetUsername: string

Returns:
  - error: NotFound (community or user), Forbidden
*/
func (service *Service) Unban(context context.Context, actor Actor, communityID, targetUsername string) error {
	community, target, err := service.resolveCommunityTarget(context, communityID, targetUsername, actor)
	if err != nil {
		return err
	}

	if err := service.repo.DeleteBan(context, community.ID, target.ID); err != nil {
		return err
	}

	service.notifier.Notify(context, target.ID, community.ID,
		"Your ban from "+community.Name+" has been lifted",
		"You can participate in "+community.Name+" again.",
	)

	service.logger.Info("user_unbanned",
		slog.String("community_id", community.ID),
		slog.String("target_id", target.ID),
		slog.String("actor_id", actor.ID),
	)

	return nil
}

/*
Mute adds a user to the community's mute list.

Description: A muted user cannot message the community's moderators. Under
the default policy a user holds at most one mute entry and a repeat mute is
a Conflict; with the repeat-mute policy enabled the list keeps every entry
as history. The actor is recorded on the entry for audit.

Parameters:
  - context: context.Context
  - actor: Actor
  - communityID: string (UUID or name slug)
  - targetUsername: string
  - reason: string

Returns:
  - error: NotFound, Forbidden, Conflict (already muted, default policy only)
*/
func (service *Service) Mute(context context.Context, actor Actor, communityID, targetUsername, reason string) error {
	community, target, err := service.resolveCommunityTarget(context, communityID, targetUsername, actor)
	if err != nil {
		return err
	}

	mute := &MutedUser{
		CommunityID: community.ID,
		UserID:      target.ID,
		MutedByID:   actor.ID,
		MutedAt:     time.Now().UTC(),
		Reason:      reason,
	}

	inserted, err := service.repo.InsertMute(context, mute, !service.allowRepeatMutes)
	if err != nil {
		return err
	}
	if !inserted {
		return apperr.Conflict("User is already muted in this community")
	}

	service.logger.Info("user_muted",
		slog.String("community_id", community.ID),
		slog.String("target_id", target.ID),
		slog.String("actor_id", actor.ID),
	)

	return nil
}

/*
Unmute removes a user from the community's mute list.

Description: Idempotent. Removes every mute entry the user holds, so under
the repeat-mute policy a single unmute clears the accumulated history.

Parameters:
  - context: context.Context
  - actor: Actor
  - communityID: string (UUID or name slug)
  - targetUsername: string

Returns:
  - error: NotFound (community or user), Forbidden
*/
func (service *Service) Unmute(context context.Context, actor Actor, communityID, targetUsername string) error {
	community, target, err := service.resolveCommunityTarget(context, communityID, targetUsername, actor)
	if err != nil {
		return err
	}

	if err := service.repo.DeleteMutes(context, community.ID, target.ID); err != nil {
		return err
	}

	service.logger.Info("user_unmuted",
		slog.String("community_id", community.ID),
		slog.String("target_id", target.ID),
		slog.String("actor_id", actor.ID),
	)

	return nil
}

/*
Approve adds a user to the community's approved list.

Description: Approval is the join/post grant for restricted communities. A
user holds at most one approval per community; duplicates are a Conflict.

Parameters:
  - context: context.Context
  - actor: Actor
  - communityID: string (UUID or name slug)
  - targetUsername: string

Returns:
  - error: NotFound, Forbidden, Conflict (already approved)
*/
func (service *Service) Approve(context context.Context, actor Actor, communityID, targetUsername string) error {
	community, target, err := service.resolveCommunityTarget(context, communityID, targetUsername, actor)
	if err != nil {
		return err
	}

	approval := &ApprovedUser{
		CommunityID: community.ID,
		UserID:      target.ID,
		ApprovedAt:  time.Now().UTC(),
	}

	inserted, err := service.repo.InsertApproval(context, approval)
	if err != nil {
		return err
	}
	if !inserted {
		return apperr.Conflict("User is already approved in this community")
	}

	service.notifier.Notify(context, target.ID, community.ID,
		"You have been approved in "+community.Name,
		"You can now participate in "+community.Name+".",
	)

	service.logger.Info("user_approved",
		slog.String("community_id", community.ID),
		slog.String("target_id", target.ID),
		slog.String("actor_id", actor.ID),
	)

	return nil
}

/*
Unapprove removes a user from the community's approved list.

Description: Idempotent. Removing a user who is not approved succeeds
without effect.

Parameters:
  - context: context.Context
  - actor: Actor
  - communityID: string (UUID or name slug)
  - targetUsername: string

Returns:
  - error: NotFound (community or user), Forbidden
*/
func (service *Service) Unapprove(context context.Context, actor Actor, communityID, targetUsername string) error {
	community, target, err := service.resolveCommunityTarget(context, communityID, targetUsername, actor)
	if err != nil {
		return err
	}

	if err := service.repo.DeleteApproval(context, community.ID, target.ID); err != nil {
		return err
	}

	service.notifier.Notify(context, target.ID, community.ID,
		"Your approval in "+community.Name+" was removed",
		"",
	)

	service.logger.Info("user_unapproved",
		slog.String("community_id", community.ID),
		slog.String("target_id", target.ID),
		slog.String("actor_id", actor.ID),
	)

	return nil
}

// # Registry Listings

/*
ListBanned returns the community's ban list.

Description: Entries are ordered most recent first and enriched with the
holder's current username and avatar; entries whose account was deleted are
omitted. Requires the manage_users capability.

Parameters:
  - context: context.Context
  - actor: Actor
  - communityID: string (UUID or name slug)
  - params: pagination.Params

Returns:
  - []*BannedUser: Page of ban entries
  - int: Total entry count
  - error: NotFound, Forbidden, or retrieval failures
*/
func (service *Service) ListBanned(context context.Context, actor Actor, communityID string, params pagination.Params) ([]*BannedUser, int, error) {
	community, err := service.resolveCommunity(context, communityID)
	if err != nil {
		return nil, 0, err
	}

	if _, err := service.Authorize(context, community.ID, actor.ID, CapabilityManageUsers); err != nil {
		return nil, 0, err
	}

	return service.repo.ListBanned(context, community.ID, params.Limit, params.Offset())
}

/*
ListMuted returns the community's mute list.

Description: Most recent first, enriched like [Service.ListBanned]. Under the
repeat-mute policy the same user may appear more than once. Requires the
manage_users capability.

Parameters:
  - context: context.Context
  - actor: Actor
  - communityID: string (UUID or name slug)
  - params: pagination.Params

Returns:
  - []*MutedUser: Page of mute entries
  - int: Total entry count
  - error: NotFound, Forbidden, or retrieval failures
*/
func (service *Service) ListMuted(context context.Context, actor Actor, communityID string, params pagination.Params) ([]*MutedUser, int, error) {
	community, err := service.resolveCommunity(context, communityID)
	if err != nil {
		return nil, 0, err
	}

	if _, err := service.Authorize(context, community.ID, actor.ID, CapabilityManageUsers); err != nil {
		return nil, 0, err
	}

	return service.repo.ListMuted(context, community.ID, params.Limit, params.Offset())
}

/*
ListApproved returns the community's approved list.

Description: Most recent first, enriched like [Service.ListBanned]. Requires
the manage_users capability.

Parameters:
  - context: context.Context
  - actor: Actor
  - communityID: string (UUID or name slug)
  - params: pagination.Params

Returns:
  - []*ApprovedUser: Page of approval entries
  - int: Total entry count
  - error: NotFound, Forbidden, or retrieval failures
*/
func (service *Service) ListApproved(context context.Context, actor Actor, communityID string, params pagination.Params) ([]*ApprovedUser, int, error) {
	community, err := service.resolveCommunity(context, communityID)
	if err != nil {
		return nil, 0, err
	}

	if _, err := service.Authorize(context, community.ID, actor.ID, CapabilityManageUsers); err != nil {
		return nil, 0, err
	}

	return service.repo.ListApproved(context, community.ID, params.Limit, params.Offset())
}

// # Read-Side Checks

/*
IsBanned reports whether the user currently holds a ban in the community.

Parameters:
  - context: context.Context
  - communityID: string (UUID, already resolved)
  - userID: string

Returns:
  - bool: True when a ban entry exists
  - error: Retrieval failures
*/
func (service *Service) IsBanned(context context.Context, communityID, userID string) (bool, error) {
	return service.repo.HasBan(context, communityID, userID)
}

/*
IsMuted reports whether the user currently holds a mute in the community.

Parameters:
  - context: context.Context
  - communityID: string (UUID, already resolved)
  - userID: string

Returns:
  - bool: True when at least one mute entry exists
  - error: Retrieval failures
*/
func (service *Service) IsMuted(context context.Context, communityID, userID string) (bool, error) {
	return service.repo.HasMute(context, communityID, userID)
}

/*
IsActiveModerator reports whether the user holds an active (non-pending)
roster entry in the community.

Parameters:
  - context: context.Context
  - communityID: string (UUID, already resolved)
  - userID: string

Returns:
  - bool: True for an active entry, false for pending or absent
  - error: Retrieval failures
*/
func (service *Service) IsActiveModerator(context context.Context, communityID, userID string) (bool, error) {
	entry, err := service.repo.FindModerator(context, communityID, userID)
	if err != nil {
		if apperr.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}

	return !entry.Pending, nil
}

/*
IsApproved reports whether the user is on the community's approved list.

Parameters:
  - context: context.Context
  - communityID: string (UUID, already resolved)
  - userID: string

Returns:
  - bool: True when an approval entry exists
  - error: Retrieval failures
*/
func (service *Service) IsApproved(context context.Context, communityID, userID string) (bool, error) {
	return service.repo.HasApproval(context, communityID, userID)
}

// resolveCommunityTarget bundles the lookup/authorization preamble shared by
// every registry mutation: resolve the community, resolve the target user,
// and require the manage_users capability.
func (service *Service) resolveCommunityTarget(context context.Context, communityID, targetUsername string, actor Actor) (*CommunityRef, *TargetUser, error) {
	community, err := service.resolveCommunity(context, communityID)
	if err != nil {
		return nil, nil, err
	}

	target, err := service.repo.FindUserByUsername(context, targetUsername)
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, nil, apperr.NotFound("User")
		}
		return nil, nil, err
	}

	if _, err := service.Authorize(context, community.ID, actor.ID, CapabilityManageUsers); err != nil {
		return nil, nil, err
	}

	return community, target, nil
}
