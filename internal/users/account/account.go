// Copyright (c) 2026 Veyra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package account handles user profile management and per-user community views.

It provides functionalities for users to view and update their private identity
data and to enumerate the communities they have joined or moderate.

# Architecture

  - Entities: ModeratedCommunity, JoinedCommunity (DTOs).
  - Domain: This package depends on the auth package for the User entity.
  - Views: The moderated-communities listing is derived from the moderator
    roster, never stored separately, so it cannot drift from the roster.
*/
package account

import (
	"context"
	"time"

	"github.com/taibuivan/veyra/internal/users/auth"
)

// # Domain Entities

// ModeratedCommunity is one row of a user's moderated-communities view: an
// active (non-pending) roster entry joined to its community.
type ModeratedCommunity struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Title          string    `json:"title"`
	MemberCount    int       `json:"member_count"`
	Favorite       bool      `json:"favorite"`
	ModeratorSince time.Time `json:"moderator_since"`
}

// JoinedCommunity is one row of a user's memberships joined to its community.
type JoinedCommunity struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Title          string    `json:"title"`
	MemberCount    int       `json:"member_count"`
	Favorite       bool      `json:"favorite"`
	DisableUpdates bool      `json:"disable_updates"`
	JoinedAt       time.Time `json:"joined_at"`
}

// # Field Identifiers

const (
	FieldDisplayName = "display_name"
	FieldAvatarURL   = "avatar_url"
	FieldBio         = "bio"
)

// # Repository Contracts

// AccountRepository defines the persistence contract for user accounts.
// The auth package's Postgres user repository satisfies it.
type AccountRepository interface {
	/*
		FindByID retrieves a user record by their unique ID.

		Parameters:
		  - context: context.Context
		  - id: string (UUID)

		Returns:
		  - *auth.User: Loaded account entity
		  - error: apperr.NotFound or storage failures
	*/
	FindByID(context context.Context, id string) (*auth.User, error)

	/*
		FindByUsername retrieves a user record by their unique username.

		Parameters:
		  - context: context.Context
		  - username: string

		Returns:
		  - *auth.User: Loaded account entity
		  - error: apperr.NotFound or storage failures
	*/
	FindByUsername(context context.Context, username string) (*auth.User, error)

	/*
		Update modifies the mutable profile fields of an existing user.

		Parameters:
		  - context: context.Context
		  - user: *auth.User (Hydrated entity with changes)

		Returns:
		  - error: Storage or constraint failures
	*/
	Update(context context.Context, user *auth.User) error

	/*
		SoftDelete flags an account as logically deleted.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - error: Execution failures
	*/
	SoftDelete(context context.Context, id string) error
}

// MembershipRepository defines the read contracts for the per-user community
// views.
type MembershipRepository interface {
	/*
		ListModerated returns every community the user actively moderates.

		Description: Derived strictly from non-pending roster rows; a pending
		invitation never appears here.

		Parameters:
		  - context: context.Context
		  - userID: string

		Returns:
		  - []*ModeratedCommunity: Ordered view rows (favorites first)
		  - error: Retrieval failures
	*/
	ListModerated(context context.Context, userID string) ([]*ModeratedCommunity, error)

	/*
		ListJoined returns a page of the user's community memberships.

		Parameters:
		  - context: context.Context
		  - userID: string
		  - limit: int
		  - offset: int

		Returns:
		  - []*JoinedCommunity: Page of memberships
		  - int: Total membership count
		  - error: Retrieval failures
	*/
	ListJoined(context context.Context, userID string, limit, offset int) ([]*JoinedCommunity, int, error)
}

// SessionRevoker is the slice of the auth session store used for account
// deletion cleanup.
type SessionRevoker interface {
	RevokeAll(context context.Context, userID string) error
}
