// Copyright (c) 2026 Veyra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package community

import "context"

// # Storage Contract

// Repository defines persistence for communities and membership rows.
type Repository interface {

	// ## Community Aggregate

	/*
		Create persists a community together with its founding moderator and
		the founder's membership row in one transaction.

		Parameters:
		  - context: context.Context
		  - community: *Community (ID assigned by the caller)
		  - founderID: string

		Returns:
		  - error: Conflict when the name is taken, persistence failures
	*/
	Create(context context.Context, community *Community, founderID string) error

	/*
		FindByID retrieves a community by primary key.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - *Community: Hydrated entity
		  - error: dberr.ErrNotFound or retrieval failures
	*/
	FindByID(context context.Context, id string) (*Community, error)

	/*
		FindByName retrieves a community by its unique name.

		Parameters:
		  - context: context.Context
		  - name: string

		Returns:
		  - *Community: Hydrated entity
		  - error: dberr.ErrNotFound or retrieval failures
	*/
	FindByName(context context.Context, name string) (*Community, error)

	/*
		List returns a filtered, paginated community listing.

		Parameters:
		  - context: context.Context
		  - filter: Filter
		  - limit, offset: int

		Returns:
		  - []*Community: Page of matches
		  - int: Total match count
		  - error: Retrieval failures
	*/
	List(context context.Context, filter Filter, limit, offset int) ([]*Community, int, error)

	/*
		Update persists the mutable community fields.

		Parameters:
		  - context: context.Context
		  - community: *Community

		Returns:
		  - error: dberr.ErrNotFound or persistence failures
	*/
	Update(context context.Context, community *Community) error

	// ## Membership

	/*
		InsertMembership appends a join record if not already present and
		bumps the member counter.

		Parameters:
		  - context: context.Context
		  - membership: *Membership (JoinedAt assigned by the store)

		Returns:
		  - bool: Whether a record was inserted (false = already a member)
		  - error: Persistence failures
	*/
	InsertMembership(context context.Context, membership *Membership) (bool, error)

	/*
		DeleteMembership removes a join record and decrements the member
		counter when a row was actually removed.

		Parameters:
		  - context: context.Context
		  - communityID: string
		  - userID: string

		Returns:
		  - bool: Whether a record was removed
		  - error: Persistence failures
	*/
	DeleteMembership(context context.Context, communityID, userID string) (bool, error)

	/*
		SetMembershipFlags updates the per-member notification preferences.
		Nil flags are left unchanged.

		Parameters:
		  - context: context.Context
		  - communityID: string
		  - userID: string
		  - flags: MembershipFlags

		Returns:
		  - bool: Whether a membership row was updated
		  - error: Persistence failures
	*/
	SetMembershipFlags(context context.Context, communityID, userID string, flags MembershipFlags) (bool, error)
}
