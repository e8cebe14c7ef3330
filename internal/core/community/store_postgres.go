// Copyright (c) 2026 Veyra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package community

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/taibuivan/veyra/internal/platform/dberr"
)

// PostgresRepository implements [Repository] using pgx.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository constructs a PostgreSQL backed community store.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// # Community Aggregate

/*
Create persists a community, its founding moderator, and the founder's
membership in one transaction.

Description: The unique index on the name surfaces as Conflict through the
dberr bridge.

Parameters:
  - context: context.Context
  - community: *Community
  - founderID: string

Returns:
  - error: Conflict on duplicate name, transactional failures
*/
func (repository *PostgresRepository) Create(context context.Context, community *Community, founderID string) error {

	// Establish Transactional Boundary
	transaction, err := repository.db.Begin(context)
	if err != nil {
		return dberr.Wrap(err, "begin_create_community_tx")
	}
	defer transaction.Rollback(context)

	// Step 1: Persist Aggregate Root
	communityQuery := `
		INSERT INTO core.community (
			id, name, title, description, restricted, createdby,
			membercount, createdat, updatedat
		)
		VALUES ($1, $2, $3, $4, $5, $6, 1, NOW(), NOW())
	`
	_, err = transaction.Exec(context, communityQuery,
		community.ID, community.Name, community.Title, community.Description,
		community.Restricted, community.CreatedBy,
	)
	if err != nil {
		return dberr.Wrap(err, "insert_community")
	}

	// Step 2: Seat Founding Moderator
	// The founder starts active with the full capability set.
	moderatorQuery := `
		INSERT INTO core.communitymoderator (
			communityid, userid, everything, manageusers, managesettings,
			managepostsandcomments, grantedat, pending, favorite
		)
		VALUES ($1, $2, true, true, true, true, NOW(), false, false)
	`
	_, err = transaction.Exec(context, moderatorQuery, community.ID, founderID)
	if err != nil {
		return dberr.Wrap(err, "insert_founding_moderator")
	}

	// Step 3: Record Founder Membership
	membershipQuery := `
		INSERT INTO core.usercommunity (communityid, userid, joinedat)
		VALUES ($1, $2, NOW())
	`
	_, err = transaction.Exec(context, membershipQuery, community.ID, founderID)
	if err != nil {
		return dberr.Wrap(err, "insert_founder_membership")
	}

	return transaction.Commit(context)
}

/*
FindByID retrieves a community record by its primary key.

Parameters:
  - context: context.Context
  - id: string

Returns:
  - *Community: Hydrated entity
  - error: dberr.ErrNotFound or database retrieval failures
*/
func (repository *PostgresRepository) FindByID(context context.Context, id string) (*Community, error) {
	const query = `
		SELECT
			id, name, title, COALESCE(description, ''), restricted,
			createdby, membercount, createdat, updatedat
		FROM core.community
		WHERE id = $1 AND deletedat IS NULL
	`
	return repository.scanCommunity(repository.db.QueryRow(context, query, id))
}

/*
FindByName retrieves a community record by its unique name.

Parameters:
  - context: context.Context
  - name: string

Returns:
  - *Community: Hydrated entity
  - error: dberr.ErrNotFound or database retrieval failures
*/
func (repository *PostgresRepository) FindByName(context context.Context, name string) (*Community, error) {
	const query = `
		SELECT
			id, name, title, COALESCE(description, ''), restricted,
			createdby, membercount, createdat, updatedat
		FROM core.community
		WHERE LOWER(name) = LOWER($1) AND deletedat IS NULL
	`
	return repository.scanCommunity(repository.db.QueryRow(context, query, name))
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (repository *PostgresRepository) scanCommunity(row rowScanner) (*Community, error) {
	community := &Community{}
	err := row.Scan(
		&community.ID, &community.Name, &community.Title, &community.Description, &community.Restricted,
		&community.CreatedBy, &community.MemberCount, &community.CreatedAt, &community.UpdatedAt,
	)
	if err != nil {
		return nil, dberr.Wrap(err, "find_community")
	}

	return community, nil
}

/*
List returns a filtered and paginated list of communities.

Description: Uses ILIKE over name and title for search and COUNT(*) OVER()
for total metadata. Default ordering is by member count.

Parameters:
  - context: context.Context
  - filter: Filter
  - limit, offset: int

Returns:
  - []*Community: Page of matches
  - int: Total match count
  - error: Database retrieval failures
*/
func (repository *PostgresRepository) List(context context.Context, filter Filter, limit, offset int) ([]*Community, int, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`
		SELECT
			id, name, title, COALESCE(description, ''), restricted,
			createdby, membercount, createdat, updatedat,
			COUNT(*) OVER() as total
		FROM core.community
		WHERE deletedat IS NULL
	`)

	args := []any{}
	argID := 1

	if filter.Query != "" {
		queryBuilder.WriteString(fmt.Sprintf(" AND (name ILIKE $%d OR title ILIKE $%d)", argID, argID))
		args = append(args, "%"+filter.Query+"%")
		argID++
	}

	switch filter.Sort {
	case "createdat":
		queryBuilder.WriteString(" ORDER BY createdat DESC")
	default:
		queryBuilder.WriteString(" ORDER BY membercount DESC, name ASC")
	}

	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argID, argID+1))
	args = append(args, limit, offset)

	rows, err := repository.db.Query(context, queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "list_communities")
	}
	defer rows.Close()

	var communities []*Community
	var total int
	for rows.Next() {
		community := &Community{}
		err := rows.Scan(
			&community.ID, &community.Name, &community.Title, &community.Description, &community.Restricted,
			&community.CreatedBy, &community.MemberCount, &community.CreatedAt, &community.UpdatedAt, &total,
		)
		if err != nil {
			return nil, 0, dberr.Wrap(err, "scan_community")
		}
		communities = append(communities, community)
	}

	return communities, total, nil
}

/*
Update persists the mutable community fields.

Parameters:
  - context: context.Context
  - community: *Community

Returns:
  - error: dberr.ErrNotFound when the row vanished, persistence failures
*/
func (repository *PostgresRepository) Update(context context.Context, community *Community) error {
	const query = `
		UPDATE core.community
		SET title = $2, description = $3, restricted = $4, updatedat = NOW()
		WHERE id = $1 AND deletedat IS NULL
	`
	result, err := repository.db.Exec(context, query,
		community.ID, community.Title, community.Description, community.Restricted,
	)
	if err != nil {
		return dberr.Wrap(err, "update_community")
	}
	if result.RowsAffected() == 0 {
		return dberr.ErrNotFound
	}

	return nil
}

// # Membership

/*
InsertMembership appends a join record and bumps the member counter.

Description: ON CONFLICT DO NOTHING makes the duplicate join race safe; the
counter only moves when a row actually inserted.

Parameters:
  - context: context.Context
  - membership: *Membership

Returns:
  - bool: Whether a record was inserted
  - error: Transactional failures
*/
func (repository *PostgresRepository) InsertMembership(context context.Context, membership *Membership) (bool, error) {

	// Establish Transactional Boundary
	transaction, err := repository.db.Begin(context)
	if err != nil {
		return false, dberr.Wrap(err, "begin_join_tx")
	}
	defer transaction.Rollback(context)

	// Step 1: Persist Join Relation
	joinQuery := `
		INSERT INTO core.usercommunity (communityid, userid, joinedat)
		VALUES ($1, $2, NOW())
		ON CONFLICT DO NOTHING
	`
	result, err := transaction.Exec(context, joinQuery, membership.CommunityID, membership.UserID)
	if err != nil {
		return false, dberr.Wrap(err, "insert_membership")
	}
	if result.RowsAffected() == 0 {
		return false, nil
	}

	// Step 2: Atomic Counter Bump
	countQuery := `
		UPDATE core.community
		SET membercount = membercount + 1
		WHERE id = $1
	`
	_, err = transaction.Exec(context, countQuery, membership.CommunityID)
	if err != nil {
		return false, dberr.Wrap(err, "increment_member_count")
	}

	return true, transaction.Commit(context)
}

/*
DeleteMembership removes a join record and decrements the member counter.

Description: Only decrements when a record was actually removed to prevent
negative drift during concurrent or duplicate requests.

Parameters:
  - context: context.Context
  - communityID: string
  - userID: string

Returns:
  - bool: Whether a record was removed
  - error: Transactional failures
*/
func (repository *PostgresRepository) DeleteMembership(context context.Context, communityID, userID string) (bool, error) {

	// Establish Transactional Boundary
	transaction, err := repository.db.Begin(context)
	if err != nil {
		return false, dberr.Wrap(err, "begin_leave_tx")
	}
	defer transaction.Rollback(context)

	// Step 1: Remove Relationship
	delQuery := `
		DELETE FROM core.usercommunity
		WHERE communityid = $1 AND userid = $2
	`
	result, err := transaction.Exec(context, delQuery, communityID, userID)
	if err != nil {
		return false, dberr.Wrap(err, "delete_membership")
	}
	if result.RowsAffected() == 0 {
		return false, transaction.Commit(context)
	}

	// Step 2: Validated Counter Decrement
	decQuery := `
		UPDATE core.community
		SET membercount = GREATEST(0, membercount - 1)
		WHERE id = $1
	`
	_, err = transaction.Exec(context, decQuery, communityID)
	if err != nil {
		return false, dberr.Wrap(err, "decrement_member_count")
	}

	return true, transaction.Commit(context)
}

/*
SetMembershipFlags updates the per-member notification preferences.

Parameters:
  - context: context.Context
  - communityID: string
  - userID: string
  - flags: MembershipFlags

Returns:
  - bool: Whether a membership row was updated
  - error: Persistence failures
*/
func (repository *PostgresRepository) SetMembershipFlags(context context.Context, communityID, userID string, flags MembershipFlags) (bool, error) {
	const query = `
		UPDATE core.usercommunity
		SET favorite = COALESCE($3, favorite),
		    disableupdates = COALESCE($4, disableupdates)
		WHERE communityid = $1 AND userid = $2
	`
	result, err := repository.db.Exec(context, query, communityID, userID, flags.Favorite, flags.DisableUpdates)
	if err != nil {
		return false, dberr.Wrap(err, "set_membership_flags")
	}

	return result.RowsAffected() > 0, nil
}
