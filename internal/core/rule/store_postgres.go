// Copyright (c) 2026 Veyra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package rule

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/taibuivan/veyra/internal/platform/dberr"
)

// PostgresRepository implements [Repository] using pgx.
//
// Title uniqueness in both catalogs rides on per-community unique indexes
// over LOWER(title); violations surface as Conflict through the dberr
// bridge.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository constructs a PostgreSQL backed rule store.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// # Rules

/*
InsertRule persists a rule with the next position in its community.

Description: The position subquery runs inside the INSERT, so concurrent
inserts in one community serialize on the unique (communityid, ruleorder)
index rather than racing in application code.

Parameters:
  - context: context.Context
  - rule: *Rule

Returns:
  - error: Conflict on duplicate title, persistence failures
*/
func (repository *PostgresRepository) InsertRule(context context.Context, rule *Rule) error {
	const query = `
		INSERT INTO core.communityrule (
			id, communityid, title, description, reportreason,
			ruleorder, createdby, createdat, updatedat
		)
		VALUES (
			$1, $2, $3, $4, $5,
			(SELECT COUNT(*) + 1 FROM core.communityrule WHERE communityid = $2),
			$6, NOW(), NOW()
		)
		RETURNING ruleorder
	`
	err := repository.db.QueryRow(context, query,
		rule.ID, rule.CommunityID, rule.Title, rule.Description, rule.ReportReason, rule.CreatedBy,
	).Scan(&rule.Order)
	if err != nil {
		return dberr.Wrap(err, "insert_rule")
	}

	return nil
}

/*
FindRule retrieves a rule scoped to its community.

Parameters:
  - context: context.Context
  - communityID: string
  - ruleID: string

Returns:
  - *Rule: Hydrated entity
  - error: dberr.ErrNotFound or retrieval failures
*/
func (repository *PostgresRepository) FindRule(context context.Context, communityID, ruleID string) (*Rule, error) {
	const query = `
		SELECT
			id, communityid, title, COALESCE(description, ''), reportreason,
			ruleorder, createdby, createdat, updatedat
		FROM core.communityrule
		WHERE communityid = $1 AND id = $2
	`
	rule := &Rule{}
	err := repository.db.QueryRow(context, query, communityID, ruleID).Scan(
		&rule.ID, &rule.CommunityID, &rule.Title, &rule.Description, &rule.ReportReason,
		&rule.Order, &rule.CreatedBy, &rule.CreatedAt, &rule.UpdatedAt,
	)
	if err != nil {
		return nil, dberr.Wrap(err, "find_rule")
	}

	return rule, nil
}

/*
UpdateRule persists the mutable rule fields.

Parameters:
  - context: context.Context
  - rule: *Rule

Returns:
  - error: Conflict on a colliding title, dberr.ErrNotFound, persistence failures
*/
func (repository *PostgresRepository) UpdateRule(context context.Context, rule *Rule) error {
	const query = `
		UPDATE core.communityrule
		SET title = $3, description = $4, reportreason = $5, updatedat = NOW()
		WHERE communityid = $1 AND id = $2
	`
	result, err := repository.db.Exec(context, query,
		rule.CommunityID, rule.ID, rule.Title, rule.Description, rule.ReportReason,
	)
	if err != nil {
		return dberr.Wrap(err, "update_rule")
	}
	if result.RowsAffected() == 0 {
		return dberr.ErrNotFound
	}

	return nil
}

/*
DeleteRule removes a rule and closes the position gap it leaves.

Description: Positions stay dense: every rule behind the removed one shifts
up inside the same transaction.

Parameters:
  - context: context.Context
  - communityID: string
  - ruleID: string

Returns:
  - bool: Whether a rule was removed
  - error: Transactional failures
*/
func (repository *PostgresRepository) DeleteRule(context context.Context, communityID, ruleID string) (bool, error) {

	// Establish Transactional Boundary
	transaction, err := repository.db.Begin(context)
	if err != nil {
		return false, dberr.Wrap(err, "begin_delete_rule_tx")
	}
	defer transaction.Rollback(context)

	// Step 1: Remove Rule, Capturing Its Position
	deleteQuery := `
		DELETE FROM core.communityrule
		WHERE communityid = $1 AND id = $2
		RETURNING ruleorder
	`
	var removedOrder int
	err = transaction.QueryRow(context, deleteQuery, communityID, ruleID).Scan(&removedOrder)
	if err != nil {
		wrapped := dberr.Wrap(err, "delete_rule")
		if wrapped == dberr.ErrNotFound {
			return false, nil
		}
		return false, wrapped
	}

	// Step 2: Close The Gap
	shiftQuery := `
		UPDATE core.communityrule
		SET ruleorder = ruleorder - 1
		WHERE communityid = $1 AND ruleorder > $2
	`
	_, err = transaction.Exec(context, shiftQuery, communityID, removedOrder)
	if err != nil {
		return false, dberr.Wrap(err, "shift_rule_order")
	}

	return true, transaction.Commit(context)
}

/*
ListRules returns a community's rules ordered by position.

Parameters:
  - context: context.Context
  - communityID: string

Returns:
  - []*Rule: Ordered catalog
  - error: Retrieval failures
*/
func (repository *PostgresRepository) ListRules(context context.Context, communityID string) ([]*Rule, error) {
	const query = `
		SELECT
			id, communityid, title, COALESCE(description, ''), reportreason,
			ruleorder, createdby, createdat, updatedat
		FROM core.communityrule
		WHERE communityid = $1
		ORDER BY ruleorder ASC
	`
	rows, err := repository.db.Query(context, query, communityID)
	if err != nil {
		return nil, dberr.Wrap(err, "list_rules")
	}
	defer rows.Close()

	var rules []*Rule
	for rows.Next() {
		rule := &Rule{}
		err := rows.Scan(
			&rule.ID, &rule.CommunityID, &rule.Title, &rule.Description, &rule.ReportReason,
			&rule.Order, &rule.CreatedBy, &rule.CreatedAt, &rule.UpdatedAt,
		)
		if err != nil {
			return nil, dberr.Wrap(err, "scan_rule")
		}
		rules = append(rules, rule)
	}

	return rules, nil
}

// # Removal Reasons

/*
InsertReason persists a removal reason.

Parameters:
  - context: context.Context
  - reason: *RemovalReason

Returns:
  - error: Conflict on duplicate title, persistence failures
*/
func (repository *PostgresRepository) InsertReason(context context.Context, reason *RemovalReason) error {
	const query = `
		INSERT INTO core.removalreason (
			id, communityid, title, message, createdby, createdat, updatedat
		)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
	`
	_, err := repository.db.Exec(context, query,
		reason.ID, reason.CommunityID, reason.Title, reason.Message, reason.CreatedBy,
	)
	if err != nil {
		return dberr.Wrap(err, "insert_removal_reason")
	}

	return nil
}

/*
FindReason retrieves a removal reason scoped to its community.

Parameters:
  - context: context.Context
  - communityID: string
  - reasonID: string

Returns:
  - *RemovalReason: Hydrated entity
  - error: dberr.ErrNotFound or retrieval failures
*/
func (repository *PostgresRepository) FindReason(context context.Context, communityID, reasonID string) (*RemovalReason, error) {
	const query = `
		SELECT id, communityid, title, COALESCE(message, ''), createdby, createdat, updatedat
		FROM core.removalreason
		WHERE communityid = $1 AND id = $2
	`
	reason := &RemovalReason{}
	err := repository.db.QueryRow(context, query, communityID, reasonID).Scan(
		&reason.ID, &reason.CommunityID, &reason.Title, &reason.Message,
		&reason.CreatedBy, &reason.CreatedAt, &reason.UpdatedAt,
	)
	if err != nil {
		return nil, dberr.Wrap(err, "find_removal_reason")
	}

	return reason, nil
}

/*
UpdateReason persists the mutable removal-reason fields.

Parameters:
  - context: context.Context
  - reason: *RemovalReason

Returns:
  - error: Conflict on a colliding title, dberr.ErrNotFound, persistence failures
*/
func (repository *PostgresRepository) UpdateReason(context context.Context, reason *RemovalReason) error {
	const query = `
		UPDATE core.removalreason
		SET title = $3, message = $4, updatedat = NOW()
		WHERE communityid = $1 AND id = $2
	`
	result, err := repository.db.Exec(context, query,
		reason.CommunityID, reason.ID, reason.Title, reason.Message,
	)
	if err != nil {
		return dberr.Wrap(err, "update_removal_reason")
	}
	if result.RowsAffected() == 0 {
		return dberr.ErrNotFound
	}

	return nil
}

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
func (repository *PostgresRepository) DeleteReason(context context.Context, communityID, reasonID string) (bool, error) {
	const query = `
		DELETE FROM core.removalreason
		WHERE communityid = $1 AND id = $2
	`
	result, err := repository.db.Exec(context, query, communityID, reasonID)
	if err != nil {
		return false, dberr.Wrap(err, "delete_removal_reason")
	}

	return result.RowsAffected() > 0, nil
}

/*
ListReasons returns a community's removal reasons, oldest first.

Parameters:
  - context: context.Context
  - communityID: string

Returns:
  - []*RemovalReason: Catalog
  - error: Retrieval failures
*/
func (repository *PostgresRepository) ListReasons(context context.Context, communityID string) ([]*RemovalReason, error) {
	const query = `
		SELECT id, communityid, title, COALESCE(message, ''), createdby, createdat, updatedat
		FROM core.removalreason
		WHERE communityid = $1
		ORDER BY createdat ASC
	`
	rows, err := repository.db.Query(context, query, communityID)
	if err != nil {
		return nil, dberr.Wrap(err, "list_removal_reasons")
	}
	defer rows.Close()

	var reasons []*RemovalReason
	for rows.Next() {
		reason := &RemovalReason{}
		err := rows.Scan(
			&reason.ID, &reason.CommunityID, &reason.Title, &reason.Message,
			&reason.CreatedBy, &reason.CreatedAt, &reason.UpdatedAt,
		)
		if err != nil {
			return nil, dberr.Wrap(err, "scan_removal_reason")
		}
		reasons = append(reasons, reason)
	}

	return reasons, nil
}
