// Copyright (c) 2026 Veyra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Postgres implementation of the per-user community views.

# Schema Table Mapping
  - core.communitymoderator: Roster rows feeding the moderated view.
  - core.usercommunity: Membership rows feeding the joined view.
  - core.community: Community metadata joined into both views.
*/
package account

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/veyra/internal/platform/dberr"
)

// # Repository Implementation

// PostgresMembershipRepository implements [MembershipRepository] using pgx.
type PostgresMembershipRepository struct {
	pool *pgxpool.Pool
}

// NewMembershipRepository creates a new Postgres implementation of the
// community-view repository.
func NewMembershipRepository(pool *pgxpool.Pool) *PostgresMembershipRepository {
	return &PostgresMembershipRepository{pool: pool}
}

/*
ListModerated returns every community the user actively moderates.

Description: Derived on read from non-pending roster rows; there is no
separate moderated-communities table to fall out of sync. Favorites sort
first, then by seniority.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - []*ModeratedCommunity: Ordered view rows
  - error: Retrieval failures
*/
func (repository *PostgresMembershipRepository) ListModerated(context context.Context, userID string) ([]*ModeratedCommunity, error) {
	const query = `
		SELECT c.id, c.name, c.title, c.membercount, m.favorite, m.grantedat
		FROM core.communitymoderator m
		INNER JOIN core.community c ON c.id = m.communityid AND c.deletedat IS NULL
		WHERE m.userid = $1 AND m.pending = false
		ORDER BY m.favorite DESC, m.grantedat ASC
	`
	rows, err := repository.pool.Query(context, query, userID)
	if err != nil {
		return nil, dberr.Wrap(err, "list_moderated_communities")
	}
	defer rows.Close()

	var moderated []*ModeratedCommunity
	for rows.Next() {
		entry := &ModeratedCommunity{}
		if err := rows.Scan(
			&entry.ID, &entry.Name, &entry.Title, &entry.MemberCount,
			&entry.Favorite, &entry.ModeratorSince,
		); err != nil {
			return nil, dberr.Wrap(err, "scan_moderated_community")
		}
		moderated = append(moderated, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, dberr.Wrap(err, "list_moderated_communities")
	}

	return moderated, nil
}

/*
ListJoined returns a page of the user's community memberships.

Parameters:
  - context: context.Context
  - userID: string
  - limit: int
  - offset: int

Returns:
  - []*JoinedCommunity: Page of memberships, favorites first
  - int: Total membership count
  - error: Retrieval failures
*/
func (repository *PostgresMembershipRepository) ListJoined(context context.Context, userID string, limit, offset int) ([]*JoinedCommunity, int, error) {
	const query = `
		SELECT c.id, c.name, c.title, c.membercount,
		       u.favorite, u.disableupdates, u.joinedat,
		       COUNT(*) OVER() as total
		FROM core.usercommunity u
		INNER JOIN core.community c ON c.id = u.communityid AND c.deletedat IS NULL
		WHERE u.userid = $1
		ORDER BY u.favorite DESC, u.joinedat ASC
		LIMIT $2 OFFSET $3
	`
	rows, err := repository.pool.Query(context, query, userID, limit, offset)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "list_joined_communities")
	}
	defer rows.Close()

	var joined []*JoinedCommunity
	var total int
	for rows.Next() {
		entry := &JoinedCommunity{}
		if err := rows.Scan(
			&entry.ID, &entry.Name, &entry.Title, &entry.MemberCount,
			&entry.Favorite, &entry.DisableUpdates, &entry.JoinedAt, &total,
		); err != nil {
			return nil, 0, dberr.Wrap(err, "scan_joined_community")
		}
		joined = append(joined, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, dberr.Wrap(err, "list_joined_communities")
	}

	return joined, total, nil
}
