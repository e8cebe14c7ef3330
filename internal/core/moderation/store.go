// Copyright (c) 2026 Veyra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package moderation

import (
	"context"
	"time"
)

// # Moderation Data Access

// Repository defines the data access contract for the moderation state machine.
//
// List methods return entries enriched with the target user's current
// username and avatar; entries whose account no longer exists are dropped
// from the result rather than failing the call.
type Repository interface {

	// ## Resolution

	/*
		FindCommunity resolves a community by its UUID.

		Parameters:
		  - context: context.Context
		  - communityID: string (UUIDv7)

		Returns:
		  - *CommunityRef: Minimal community projection
		  - error: dberr.ErrNotFound if missing
	*/
	FindCommunity(context context.Context, communityID string) (*CommunityRef, error)

	/*
		FindCommunityByName resolves a community by its unique name slug.

		Parameters:
		  - context: context.Context
		  - name: string

		Returns:
		  - *CommunityRef: Minimal community projection
		  - error: dberr.ErrNotFound if missing
	*/
	FindCommunityByName(context context.Context, name string) (*CommunityRef, error)

	/*
		FindUserByUsername resolves an account by its handle.

		Parameters:
		  - context: context.Context
		  - username: string

		Returns:
		  - *TargetUser: Identity plus avatar
		  - error: dberr.ErrNotFound if missing
	*/
	FindUserByUsername(context context.Context, username string) (*TargetUser, error)

	// ## Moderator Roster

	/*
		FindModerator returns the roster entry for a user, pending or active.

		Parameters:
		  - context: context.Context
		  - communityID: string
		  - userID: string

		Returns:
		  - *Moderator: Roster entry
		  - error: dberr.ErrNotFound if the user has no entry
	*/
	FindModerator(context context.Context, communityID, userID string) (*Moderator, error)

	/*
		InsertModerator appends a new roster entry.

		Parameters:
		  - context: context.Context
		  - moderator: *Moderator (GrantedAt assigned by the store)

		Returns:
		  - error: Conflict if the slot is taken, persistence failures
	*/
	InsertModerator(context context.Context, moderator *Moderator) error

	/*
		ActivateModerator flips a pending roster entry to active and marks the
		invitation message consumed, in a single transaction.

		Parameters:
		  - context: context.Context
		  - communityID: string
		  - userID: string
		  - invitationID: string (Message UUID)

		Returns:
		  - error: dberr.ErrNotFound if no pending entry exists
	*/
	ActivateModerator(context context.Context, communityID, userID, invitationID string) error

	/*
		DeleteModerator removes a roster entry (pending or active).

		Parameters:
		  - context: context.Context
		  - communityID: string
		  - userID: string

		Returns:
		  - bool: Whether an entry was actually removed
		  - error: Persistence failures
	*/
	DeleteModerator(context context.Context, communityID, userID string) (bool, error)

	/*
		SetModeratorFavorite updates the favorite flag on an active entry.

		Parameters:
		  - context: context.Context
		  - communityID: string
		  - userID: string
		  - favorite: bool

		Returns:
		  - bool: Whether an active entry was updated
		  - error: Persistence failures
	*/
	SetModeratorFavorite(context context.Context, communityID, userID string, favorite bool) (bool, error)

	/*
		ListModerators returns active (non-pending) roster entries in grant order.

		Parameters:
		  - context: context.Context
		  - communityID: string
		  - limit, offset: int

		Returns:
		  - []*Moderator: Page of enriched entries
		  - int: Total active count
		  - error: Retrieval failures
	*/
	ListModerators(context context.Context, communityID string, limit, offset int) ([]*Moderator, int, error)

	/*
		ListModeratorsGrantedAfter returns active entries whose grant time is
		strictly later than the given instant.

		Used by the seniority rule: a moderator may only manage colleagues who
		joined the roster after them.

		Parameters:
		  - context: context.Context
		  - communityID: string
		  - after: time.Time
		  - limit, offset: int

		Returns:
		  - []*Moderator: Page of enriched junior entries
		  - int: Total junior count
		  - error: Retrieval failures
	*/
	ListModeratorsGrantedAfter(context context.Context, communityID string, after time.Time, limit, offset int) ([]*Moderator, int, error)

	// ## Ban List

	/*
		InsertBan appends a ban record if the user is not already banned.

		The insert is conditional at the storage layer, so two concurrent
		bans of the same user cannot both succeed.

		Parameters:
		  - context: context.Context
		  - ban: *BannedUser (BannedAt assigned by the store)

		Returns:
		  - bool: Whether a record was inserted (false = already banned)
		  - error: Persistence failures
	*/
	InsertBan(context context.Context, ban *BannedUser) (bool, error)

	/*
		DeleteBan removes the ban record for a user. Idempotent.

		Parameters:
		  - context: context.Context
		  - communityID: string
		  - userID: string

		Returns:
		  - error: Persistence failures
	*/
	DeleteBan(context context.Context, communityID, userID string) error

	/*
		ListBanned returns the ban list page with user enrichment.

		Parameters:
		  - context: context.Context
		  - communityID: string
		  - limit, offset: int

		Returns:
		  - []*BannedUser: Page of enriched records
		  - int: Total count
		  - error: Retrieval failures
	*/
	ListBanned(context context.Context, communityID string, limit, offset int) ([]*BannedUser, int, error)

	// ## Mute List

	/*
		InsertMute appends a mute record.

		Parameters:
		  - context: context.Context
		  - mute: *MutedUser (ID and MutedAt assigned by the store)
		  - enforceUnique: bool (reject when an entry already exists)

		Returns:
		  - bool: Whether a record was inserted (false = duplicate rejected)
		  - error: Persistence failures
	*/
	InsertMute(context context.Context, mute *MutedUser, enforceUnique bool) (bool, error)

	/*
		DeleteMutes removes ALL mute records for a user. Idempotent.

		Parameters:
		  - context: context.Context
		  - communityID: string
		  - userID: string

		Returns:
		  - error: Persistence failures
	*/
	DeleteMutes(context context.Context, communityID, userID string) error

	/*
		ListMuted returns the mute list page with user enrichment.

		Parameters:
		  - context: context.Context
		  - communityID: string
		  - limit, offset: int

		Returns:
		  - []*MutedUser: Page of enriched records
		  - int: Total count
		  - error: Retrieval failures
	*/
	ListMuted(context context.Context, communityID string, limit, offset int) ([]*MutedUser, int, error)

	// ## Approved List

	/*
		InsertApproval appends an approval record if not already present.

		Parameters:
		  - context: context.Context
		  - approval: *ApprovedUser (ApprovedAt assigned by the store)

		Returns:
		  - bool: Whether a record was inserted (false = already approved)
		  - error: Persistence failures
	*/
	InsertApproval(context context.Context, approval *ApprovedUser) (bool, error)

	/*
		DeleteApproval removes the approval record for a user. Idempotent.

		Parameters:
		  - context: context.Context
		  - communityID: string
		  - userID: string

		Returns:
		  - error: Persistence failures
	*/
	DeleteApproval(context context.Context, communityID, userID string) error

	/*
		ListApproved returns the approved list page with user enrichment.

		Parameters:
		  - context: context.Context
		  - communityID: string
		  - limit, offset: int

		Returns:
		  - []*ApprovedUser: Page of enriched records
		  - int: Total count
		  - error: Retrieval failures
	*/
	ListApproved(context context.Context, communityID string, limit, offset int) ([]*ApprovedUser, int, error)

	// ## Existence Checks

	/*
		HasBan reports whether a ban record exists for the user.

		Parameters:
		  - context: context.Context
		  - communityID: string
		  - userID: string

		Returns:
		  - bool: True when a record exists
		  - error: Retrieval failures
	*/
	HasBan(context context.Context, communityID, userID string) (bool, error)

	/*
		HasMute reports whether at least one mute record exists for the user.

		Parameters:
		  - context: context.Context
		  - communityID: string
		  - userID: string

		Returns:
		  - bool: True when a record exists
		  - error: Retrieval failures
	*/
	HasMute(context context.Context, communityID, userID string) (bool, error)

	/*
		HasApproval reports whether an approval record exists for the user.

		Parameters:
		  - context: context.Context
		  - communityID: string
		  - userID: string

		Returns:
		  - bool: True when a record exists
		  - error: Retrieval failures
	*/
	HasApproval(context context.Context, communityID, userID string) (bool, error)
}

// # Messaging Collaborators

// InvitationSender persists a moderator invitation message and returns its ID.
//
// Unlike notifications, invitation creation is load-bearing: the returned ID
// is what the invitee later presents to accept, so failures abort the
// add-moderator operation.
type InvitationSender interface {
	SendInvitation(context context.Context, recipientID, communityID, communityName, inviterUsername string) (string, error)
}

// Notifier delivers best-effort notifications to affected users.
//
// Implementations must not return errors; delivery failures are logged and
// swallowed so they never roll back the moderation write that triggered them.
type Notifier interface {
	Notify(context context.Context, recipientID, communityID, subject, body string)
}
