// Copyright (c) 2026 Veyra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package rule

import "context"

// # Storage Contract

// Repository defines persistence for the rule and removal-reason catalogs.
type Repository interface {

	// ## Rules

	/*
		InsertRule persists a rule, assigning the next 1-based position
		within the community atomically.

		Parameters:
		  - context: context.Context
		  - rule: *Rule (Order assigned by the store)

		Returns:
		  - error: Conflict when the title is taken, persistence failures
	*/
	InsertRule(context context.Context, rule *Rule) error

	/*
		FindRule retrieves a rule by ID within a community.

		Parameters:
		  - context: context.Context
		  - communityID: string
		  - ruleID: string

		Returns:
		  - *Rule: Hydrated entity
		  - error: dberr.ErrNotFound or retrieval failures
	*/
	FindRule(context context.Context, communityID, ruleID string) (*Rule, error)

	/*
		UpdateRule persists the mutable rule fields.

		Parameters:
		  - context: context.Context
		  - rule: *Rule

		Returns:
		  - error: Conflict when the new title collides, dberr.ErrNotFound,
		    persistence failures
	*/
	UpdateRule(context context.Context, rule *Rule) error

	/*
		DeleteRule removes a rule.

		Parameters:
		  - context: context.Context
		  - communityID: string
		  - ruleID: string

		Returns:
		  - bool: Whether a rule was removed
		  - error: Persistence failures
	*/
	DeleteRule(context context.Context, communityID, ruleID string) (bool, error)

	/*
		ListRules returns all rules of a community ordered by position.

		Parameters:
		  - context: context.Context
		  - communityID: string

		Returns:
		  - []*Rule: Ordered catalog
		  - error: Retrieval failures
	*/
	ListRules(context context.Context, communityID string) ([]*Rule, error)

	// ## Removal Reasons

	/*
		InsertReason persists a removal reason.

		Parameters:
		  - context: context.Context
		  - reason: *RemovalReason

		Returns:
		  - error: Conflict when the title is taken, persistence failures
	*/
	InsertReason(context context.Context, reason *RemovalReason) error

	/*
		FindReason retrieves a removal reason by ID within a community.

		Parameters:
		  - context: context.Context
		  - communityID: string
		  - reasonID: string

		Returns:
		  - *RemovalReason: Hydrated entity
		  - error: dberr.ErrNotFound or retrieval failures
	*/
	FindReason(context context.Context, communityID, reasonID string) (*RemovalReason, error)

	/*
		UpdateReason persists the mutable removal-reason fields.

		Parameters:
		  - context: context.Context
		  - reason: *RemovalReason

		Returns:
		  - error: Conflict when the new title collides, dberr.ErrNotFound,
		    persistence failures
	*/
	UpdateReason(context context.Context, reason *RemovalReason) error

	/*
		DeleteReason removes a removal reason.

		Parameters:
		  - context: context.Context
		  - communityID: string
		  - reasonID: string

		Returns:
		  - bool: Whether a reason was removed
		  - error: Persistence failures
	*/
	DeleteReason(context context.Context, communityID, reasonID string) (bool, error)

	/*
		ListReasons returns all removal reasons of a community, oldest first.

		Parameters:
		  - context: context.Context
		  - communityID: string

		Returns:
		  - []*RemovalReason: Catalog
		  - error: Retrieval failures
	*/
	ListReasons(context context.Context, communityID string) ([]*RemovalReason, error)
}
