// Copyright (c) 2026 Veyra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package moderation

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/taibuivan/veyra/internal/platform/dberr"
	"github.com/taibuivan/veyra/pkg/uuid"
)

// PostgresRepository implements [Repository] using pgx.
//
// # Tables
//
//   - core.communitymoderator: Roster entries, PK (communityid, userid).
//   - core.communitybanned: Ban list, PK (communityid, userid).
//   - core.communitymuted: Mute list, surrogate PK so history can accumulate.
//   - core.communityapproved: Approved list, PK (communityid, userid).
//
// List queries join users.account so entries always carry the holder's
// current username and avatar, and entries of deleted accounts drop out.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository constructs a PostgreSQL backed moderation store.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// # Reference Lookups

/*
FindCommunity retrieves a community reference by primary key.

Parameters:
  - context: context.Context
  - communityID: string

Returns:
  - *CommunityRef: Identity projection
  - error: dberr.ErrNotFound or database retrieval failures
*/
func (repository *PostgresRepository) FindCommunity(context context.Context, communityID string) (*CommunityRef, error) {
	const query = `
		SELECT id, name
		FROM core.community
		WHERE id = $1 AND deletedat IS NULL
	`
	community := &CommunityRef{}
	err := repository.db.QueryRow(context, query, communityID).Scan(&community.ID, &community.Name)
	if err != nil {
		return nil, dberr.Wrap(err, "find_community")
	}

	return community, nil
}

/*
FindCommunityByName retrieves a community reference by its unique name.

Parameters:
  - context: context.Context
  - name: string

Returns:
  - *CommunityRef: Identity projection
  - error: dberr.ErrNotFound or database retrieval failures
*/
func (repository *PostgresRepository) FindCommunityByName(context context.Context, name string) (*CommunityRef, error) {
	const query = `
		SELECT id, name
		FROM core.community
		WHERE LOWER(name) = LOWER($1) AND deletedat IS NULL
	`
	community := &CommunityRef{}
	err := repository.db.QueryRow(context, query, name).Scan(&community.ID, &community.Name)
	if err != nil {
		return nil, dberr.Wrap(err, "find_community_by_name")
	}

	return community, nil
}

/*
FindUserByUsername retrieves the moderation projection of a user account.

Parameters:
  - context: context.Context
  - username: string

Returns:
  - *TargetUser: Identity plus avatar
  - error: dberr.ErrNotFound or database retrieval failures
*/
func (repository *PostgresRepository) FindUserByUsername(context context.Context, username string) (*TargetUser, error) {
	const query = `
		SELECT id, username, COALESCE(avatarurl, '')
		FROM users.account
		WHERE LOWER(username) = LOWER($1) AND deletedat IS NULL
	`
	user := &TargetUser{}
	err := repository.db.QueryRow(context, query, username).Scan(&user.ID, &user.Username, &user.AvatarURL)
	if err != nil {
		return nil, dberr.Wrap(err, "find_user_by_username")
	}

	return user, nil
}

// # Moderator Roster

/*
FindModerator retrieves one roster entry, pending or active.

Parameters:
  - context: context.Context
  - communityID: string
  - userID: string

Returns:
  - *Moderator: Hydrated entry with user enrichment
  - error: dberr.ErrNotFound or database retrieval failures
*/
func (repository *PostgresRepository) FindModerator(context context.Context, communityID, userID string) (*Moderator, error) {
	const query = `
		SELECT
			m.communityid, m.userid, a.username, COALESCE(a.avatarurl, ''),
			m.everything, m.manageusers, m.managesettings, m.managepostsandcomments,
			m.grantedat, m.pending, m.favorite
		FROM core.communitymoderator m
		INNER JOIN users.account a ON a.id = m.userid AND a.deletedat IS NULL
		WHERE m.communityid = $1 AND m.userid = $2
	`
	moderator := &Moderator{}
	err := repository.db.QueryRow(context, query, communityID, userID).Scan(
		&moderator.CommunityID, &moderator.UserID, &moderator.Username, &moderator.AvatarURL,
		&moderator.Grants.Everything, &moderator.Grants.ManageUsers, &moderator.Grants.ManageSettings, &moderator.Grants.ManagePostsAndComments,
		&moderator.GrantedAt, &moderator.Pending, &moderator.Favorite,
	)
	if err != nil {
		return nil, dberr.Wrap(err, "find_moderator")
	}

	return moderator, nil
}

/*
InsertModerator persists a new roster entry.

Description: The composite primary key rejects a second entry for the same
(community, user) pair; the unique violation surfaces as a Conflict.

Parameters:
  - context: context.Context
  - moderator: *Moderator

Returns:
  - error: Conflict on duplicate, database persistence failures
*/
func (repository *PostgresRepository) InsertModerator(context context.Context, moderator *Moderator) error {
	const query = `
		INSERT INTO core.communitymoderator (
			communityid, userid, everything, manageusers, managesettings,
			managepostsandcomments, grantedat, pending, favorite
		)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), $7, false)
	`
	_, err := repository.db.Exec(context, query,
		moderator.CommunityID, moderator.UserID,
		moderator.Grants.Everything, moderator.Grants.ManageUsers, moderator.Grants.ManageSettings, moderator.Grants.ManagePostsAndComments,
		moderator.Pending,
	)
	if err != nil {
		return dberr.Wrap(err, "insert_moderator")
	}

	return nil
}

/*
ActivateModerator flips a pending roster entry to active and consumes the
invitation message in one transaction.

Description: Only the pending flag changes. grantedat keeps the invitation
time, so relative seniority is stable no matter the order invitations are
accepted in.

Parameters:
  - context: context.Context
  - communityID: string
  - userID: string
  - invitationID: string (Message UUID)

Returns:
  - error: dberr.ErrNotFound when no pending entry exists, transactional failures
*/
func (repository *PostgresRepository) ActivateModerator(context context.Context, communityID, userID, invitationID string) error {

	// Establish Transactional Boundary
	transaction, err := repository.db.Begin(context)
	if err != nil {
		return dberr.Wrap(err, "begin_activate_moderator_tx")
	}
	defer transaction.Rollback(context)

	// Step 1: Promote Pending Entry
	activateQuery := `
		UPDATE core.communitymoderator
		SET pending = false
		WHERE communityid = $1 AND userid = $2 AND pending = true
	`
	result, err := transaction.Exec(context, activateQuery, communityID, userID)
	if err != nil {
		return dberr.Wrap(err, "activate_moderator")
	}
	if result.RowsAffected() == 0 {
		return dberr.ErrNotFound
	}

	// Step 2: Consume Invitation
	// The same transaction marks the message consumed so the credential
	// cannot be replayed after a crash between the two writes.
	consumeQuery := `
		UPDATE core.message
		SET consumedat = NOW()
		WHERE id = $1 AND consumedat IS NULL
	`
	_, err = transaction.Exec(context, consumeQuery, invitationID)
	if err != nil {
		return dberr.Wrap(err, "consume_invitation")
	}

	return transaction.Commit(context)
}

/*
DeleteModerator removes a roster entry, pending or active.

Parameters:
  - context: context.Context
  - communityID: string
  - userID: string

Returns:
  - bool: Whether an entry was removed
  - error: Database persistence failures
*/
func (repository *PostgresRepository) DeleteModerator(context context.Context, communityID, userID string) (bool, error) {
	const query = `
		DELETE FROM core.communitymoderator
		WHERE communityid = $1 AND userid = $2
	`
	result, err := repository.db.Exec(context, query, communityID, userID)
	if err != nil {
		return false, dberr.Wrap(err, "delete_moderator")
	}

	return result.RowsAffected() > 0, nil
}

/*
SetModeratorFavorite updates the favorite flag on an active entry.

Parameters:
  - context: context.Context
  - communityID: string
  - userID: string
  - favorite: bool

Returns:
  - bool: Whether an active entry was updated
  - error: Database persistence failures
*/
func (repository *PostgresRepository) SetModeratorFavorite(context context.Context, communityID, userID string, favorite bool) (bool, error) {
	const query = `
		UPDATE core.communitymoderator
		SET favorite = $3
		WHERE communityid = $1 AND userid = $2 AND pending = false
	`
	result, err := repository.db.Exec(context, query, communityID, userID, favorite)
	if err != nil {
		return false, dberr.Wrap(err, "set_moderator_favorite")
	}

	return result.RowsAffected() > 0, nil
}

/*
ListModerators returns the active roster page, oldest grant first.

Parameters:
  - context: context.Context
  - communityID: string
  - limit, offset: int

Returns:
  - []*Moderator: Page of enriched entries
  - int: Total active count
  - error: Database retrieval failures
*/
func (repository *PostgresRepository) ListModerators(context context.Context, communityID string, limit, offset int) ([]*Moderator, int, error) {
	const query = `
		SELECT
			m.communityid, m.userid, a.username, COALESCE(a.avatarurl, ''),
			m.everything, m.manageusers, m.managesettings, m.managepostsandcomments,
			m.grantedat, m.pending, m.favorite,
			COUNT(*) OVER() as total
		FROM core.communitymoderator m
		INNER JOIN users.account a ON a.id = m.userid AND a.deletedat IS NULL
		WHERE m.communityid = $1 AND m.pending = false
		ORDER BY m.grantedat ASC
		LIMIT $2 OFFSET $3
	`
	return repository.listModerators(context, query, communityID, limit, offset)
}

/*
ListModeratorsGrantedAfter returns active entries granted strictly after the
given time, oldest grant first.

Parameters:
  - context: context.Context
  - communityID: string
  - after: time.Time
  - limit, offset: int

Returns:
  - []*Moderator: Page of enriched entries
  - int: Total matching count
  - error: Database retrieval failures
*/
func (repository *PostgresRepository) ListModeratorsGrantedAfter(context context.Context, communityID string, after time.Time, limit, offset int) ([]*Moderator, int, error) {
	const query = `
		SELECT
			m.communityid, m.userid, a.username, COALESCE(a.avatarurl, ''),
			m.everything, m.manageusers, m.managesettings, m.managepostsandcomments,
			m.grantedat, m.pending, m.favorite,
			COUNT(*) OVER() as total
		FROM core.communitymoderator m
		INNER JOIN users.account a ON a.id = m.userid AND a.deletedat IS NULL
		WHERE m.communityid = $1 AND m.pending = false AND m.grantedat > $4
		ORDER BY m.grantedat ASC
		LIMIT $2 OFFSET $3
	`
	return repository.listModerators(context, query, communityID, limit, offset, after)
}

// listModerators runs a roster query whose first three args are communityID,
// limit, offset and scans the shared column shape.
func (repository *PostgresRepository) listModerators(context context.Context, query, communityID string, limit, offset int, extra ...any) ([]*Moderator, int, error) {
	args := append([]any{communityID, limit, offset}, extra...)

	rows, err := repository.db.Query(context, query, args...)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "list_moderators")
	}
	defer rows.Close()

	var moderators []*Moderator
	var total int
	for rows.Next() {
		moderator := &Moderator{}
		err := rows.Scan(
			&moderator.CommunityID, &moderator.UserID, &moderator.Username, &moderator.AvatarURL,
			&moderator.Grants.Everything, &moderator.Grants.ManageUsers, &moderator.Grants.ManageSettings, &moderator.Grants.ManagePostsAndComments,
			&moderator.GrantedAt, &moderator.Pending, &moderator.Favorite, &total,
		)
		if err != nil {
			return nil, 0, dberr.Wrap(err, "scan_moderator")
		}
		moderators = append(moderators, moderator)
	}

	return moderators, total, nil
}

// # Ban List

/*
InsertBan appends a ban record if the user is not already banned.

Description: ON CONFLICT DO NOTHING on the composite primary key, so exactly
one of two concurrent bans inserts a row.

Parameters:
  - context: context.Context
  - ban: *BannedUser

Returns:
  - bool: Whether a record was inserted
  - error: Database persistence failures
*/
func (repository *PostgresRepository) InsertBan(context context.Context, ban *BannedUser) (bool, error) {
	const query = `
		INSERT INTO core.communitybanned (
			communityid, userid, bannedat, reason, modnote,
			permanent, banneduntil, banmessage
		)
		VALUES ($1, $2, NOW(), $3, $4, $5, $6, $7)
		ON CONFLICT DO NOTHING
	`
	result, err := repository.db.Exec(context, query,
		ban.CommunityID, ban.UserID, ban.Reason, ban.ModNote,
		ban.Permanent, ban.BannedUntil, ban.BanMessage,
	)
	if err != nil {
		return false, dberr.Wrap(err, "insert_ban")
	}

	return result.RowsAffected() > 0, nil
}

/*
DeleteBan removes the ban record for a user. Idempotent.

Parameters:
  - context: context.Context
  - communityID: string
  - userID: string

Returns:
  - error: Database persistence failures
*/
func (repository *PostgresRepository) DeleteBan(context context.Context, communityID, userID string) error {
	const query = `
		DELETE FROM core.communitybanned
		WHERE communityid = $1 AND userid = $2
	`
	_, err := repository.db.Exec(context, query, communityID, userID)
	if err != nil {
		return dberr.Wrap(err, "delete_ban")
	}

	return nil
}

/*
ListBanned returns the ban list page, most recent first.

Parameters:
  - context: context.Context
  - communityID: string
  - limit, offset: int

Returns:
  - []*BannedUser: Page of enriched records
  - int: Total count
  - error: Database retrieval failures
*/
func (repository *PostgresRepository) ListBanned(context context.Context, communityID string, limit, offset int) ([]*BannedUser, int, error) {
	const query = `
		SELECT
			b.communityid, b.userid, a.username, COALESCE(a.avatarurl, ''),
			b.bannedat, b.reason, COALESCE(b.modnote, ''), b.permanent,
			b.banneduntil, COALESCE(b.banmessage, ''),
			COUNT(*) OVER() as total
		FROM core.communitybanned b
		INNER JOIN users.account a ON a.id = b.userid AND a.deletedat IS NULL
		WHERE b.communityid = $1
		ORDER BY b.bannedat DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := repository.db.Query(context, query, communityID, limit, offset)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "list_banned")
	}
	defer rows.Close()

	var banned []*BannedUser
	var total int
	for rows.Next() {
		ban := &BannedUser{}
		err := rows.Scan(
			&ban.CommunityID, &ban.UserID, &ban.Username, &ban.AvatarURL,
			&ban.BannedAt, &ban.Reason, &ban.ModNote, &ban.Permanent,
			&ban.BannedUntil, &ban.BanMessage, &total,
		)
		if err != nil {
			return nil, 0, dberr.Wrap(err, "scan_banned")
		}
		banned = append(banned, ban)
	}

	return banned, total, nil
}

// # Mute List

/*
InsertMute appends a mute record.

Description: With enforceUnique the insert is guarded by a NOT EXISTS
subquery, so a user already holding an entry is rejected without an error.
Without it the row always inserts and the table accumulates mute history.

Parameters:
  - context: context.Context
  - mute: *MutedUser (ID and MutedAt assigned here)
  - enforceUnique: bool

Returns:
  - bool: Whether a record was inserted
  - error: Database persistence failures
*/
func (repository *PostgresRepository) InsertMute(context context.Context, mute *MutedUser, enforceUnique bool) (bool, error) {
	mute.ID = uuid.New()

	query := `
		INSERT INTO core.communitymuted (id, communityid, userid, mutedbyid, mutedat, reason)
		VALUES ($1, $2, $3, $4, NOW(), $5)
	`
	if enforceUnique {
		query = `
			INSERT INTO core.communitymuted (id, communityid, userid, mutedbyid, mutedat, reason)
			SELECT $1, $2, $3, $4, NOW(), $5
			WHERE NOT EXISTS (
				SELECT 1 FROM core.communitymuted
				WHERE communityid = $2 AND userid = $3
			)
		`
	}

	result, err := repository.db.Exec(context, query,
		mute.ID, mute.CommunityID, mute.UserID, mute.MutedByID, mute.Reason,
	)
	if err != nil {
		return false, dberr.Wrap(err, "insert_mute")
	}

	return result.RowsAffected() > 0, nil
}

/*
DeleteMutes removes all mute records for a user. Idempotent.

Parameters:
  - context: context.Context
  - communityID: string
  - userID: string

Returns:
  - error: Database persistence failures
*/
func (repository *PostgresRepository) DeleteMutes(context context.Context, communityID, userID string) error {
	const query = `
		DELETE FROM core.communitymuted
		WHERE communityid = $1 AND userid = $2
	`
	_, err := repository.db.Exec(context, query, communityID, userID)
	if err != nil {
		return dberr.Wrap(err, "delete_mutes")
	}

	return nil
}

/*
ListMuted returns the mute list page, most recent first.

Description: Joins the muting moderator's account a second time so entries
carry both the target's and the actor's identity.

Parameters:
  - context: context.Context
  - communityID: string
  - limit, offset: int

Returns:
  - []*MutedUser: Page of enriched records
  - int: Total count
  - error: Database retrieval failures
*/
func (repository *PostgresRepository) ListMuted(context context.Context, communityID string, limit, offset int) ([]*MutedUser, int, error) {
	const query = `
		SELECT
			m.id, m.communityid, m.userid, a.username, COALESCE(a.avatarurl, ''),
			m.mutedbyid, COALESCE(actor.username, ''), m.mutedat, COALESCE(m.reason, ''),
			COUNT(*) OVER() as total
		FROM core.communitymuted m
		INNER JOIN users.account a ON a.id = m.userid AND a.deletedat IS NULL
		LEFT JOIN users.account actor ON actor.id = m.mutedbyid
		WHERE m.communityid = $1
		ORDER BY m.mutedat DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := repository.db.Query(context, query, communityID, limit, offset)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "list_muted")
	}
	defer rows.Close()

	var muted []*MutedUser
	var total int
	for rows.Next() {
		mute := &MutedUser{}
		err := rows.Scan(
			&mute.ID, &mute.CommunityID, &mute.UserID, &mute.Username, &mute.AvatarURL,
			&mute.MutedByID, &mute.MutedBy, &mute.MutedAt, &mute.Reason, &total,
		)
		if err != nil {
			return nil, 0, dberr.Wrap(err, "scan_muted")
		}
		muted = append(muted, mute)
	}

	return muted, total, nil
}

// # Approved List

/*
InsertApproval appends an approval record if not already present.

Parameters:
  - context: context.Context
  - approval: *ApprovedUser

Returns:
  - bool: Whether a record was inserted
  - error: Database persistence failures
*/
func (repository *PostgresRepository) InsertApproval(context context.Context, approval *ApprovedUser) (bool, error) {
	const query = `
		INSERT INTO core.communityapproved (communityid, userid, approvedat)
		VALUES ($1, $2, NOW())
		ON CONFLICT DO NOTHING
	`
	result, err := repository.db.Exec(context, query, approval.CommunityID, approval.UserID)
	if err != nil {
		return false, dberr.Wrap(err, "insert_approval")
	}

	return result.RowsAffected() > 0, nil
}

/*
DeleteApproval removes the approval record for a user. Idempotent.

Parameters:
  - context: context.Context
  - communityID: string
  - userID: string

Returns:
  - error: Database persistence failures
*/
func (repository *PostgresRepository) DeleteApproval(context context.Context, communityID, userID string) error {
	const query = `
		DELETE FROM core.communityapproved
		WHERE communityid = $1 AND userid = $2
	`
	_, err := repository.db.Exec(context, query, communityID, userID)
	if err != nil {
		return dberr.Wrap(err, "delete_approval")
	}

	return nil
}

/*
ListApproved returns the approved list page, most recent first.

Parameters:
  - context: context.Context
  - communityID: string
  - limit, offset: int

Returns:
  - []*ApprovedUser: Page of enriched records
  - int: Total count
  - error: Database retrieval failures
*/
func (repository *PostgresRepository) ListApproved(context context.Context, communityID string, limit, offset int) ([]*ApprovedUser, int, error) {
	const query = `
		SELECT
			p.communityid, p.userid, a.username, COALESCE(a.avatarurl, ''),
			p.approvedat,
			COUNT(*) OVER() as total
		FROM core.communityapproved p
		INNER JOIN users.account a ON a.id = p.userid AND a.deletedat IS NULL
		WHERE p.communityid = $1
		ORDER BY p.approvedat DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := repository.db.Query(context, query, communityID, limit, offset)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "list_approved")
	}
	defer rows.Close()

	var approved []*ApprovedUser
	var total int
	for rows.Next() {
		approval := &ApprovedUser{}
		err := rows.Scan(
			&approval.CommunityID, &approval.UserID, &approval.Username, &approval.AvatarURL,
			&approval.ApprovedAt, &total,
		)
		if err != nil {
			return nil, 0, dberr.Wrap(err, "scan_approved")
		}
		approved = append(approved, approval)
	}

	return approved, total, nil
}

// # Existence Checks

/*
HasBan reports whether a ban record exists.

Parameters:
  - context: context.Context
  - communityID: string
  - userID: string

Returns:
  - bool: True when a record exists
  - error: Database retrieval failures
*/
func (repository *PostgresRepository) HasBan(context context.Context, communityID, userID string) (bool, error) {
	return repository.exists(context, `
		SELECT EXISTS (
			SELECT 1 FROM core.communitybanned
			WHERE communityid = $1 AND userid = $2
		)
	`, communityID, userID, "has_ban")
}

/*
HasMute reports whether at least one mute record exists.

Parameters:
  - context: context.Context
  - communityID: string
  - userID: string

Returns:
  - bool: True when a record exists
  - error: Database retrieval failures
*/
func (repository *PostgresRepository) HasMute(context context.Context, communityID, userID string) (bool, error) {
	return repository.exists(context, `
		SELECT EXISTS (
			SELECT 1 FROM core.communitymuted
			WHERE communityid = $1 AND userid = $2
		)
	`, communityID, userID, "has_mute")
}

/*
HasApproval reports whether an approval record exists.

Parameters:
  - context: context.Context
  - communityID: string
  - userID: string

Returns:
  - bool: True when a record exists
  - error: Database retrieval failures
*/
func (repository *PostgresRepository) HasApproval(context context.Context, communityID, userID string) (bool, error) {
	return repository.exists(context, `
		SELECT EXISTS (
			SELECT 1 FROM core.communityapproved
			WHERE communityid = $1 AND userid = $2
		)
	`, communityID, userID, "has_approval")
}

// exists runs a single-boolean EXISTS query.
func (repository *PostgresRepository) exists(context context.Context, query, communityID, userID, action string) (bool, error) {
	var found bool
	err := repository.db.QueryRow(context, query, communityID, userID).Scan(&found)
	if err != nil {
		return false, dberr.Wrap(err, action)
	}

	return found, nil
}
