// Copyright (c) 2026 Veyra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package message

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/taibuivan/veyra/internal/platform/dberr"
)

// PostgresRepository implements [Repository] using pgx.
//
// The invitation-consumption write lives in the moderation store, which
// updates core.message inside its activation transaction.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository constructs a PostgreSQL backed message store.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

/*
Insert persists a message.

Parameters:
  - context: context.Context
  - message: *Message

Returns:
  - error: Persistence failures
*/
func (repository *PostgresRepository) Insert(context context.Context, message *Message) error {
	const query = `
		INSERT INTO core.message (
			id, senderid, recipientid, communityid, kind,
			subject, body, createdat
		)
		VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), NULLIF($4, ''), $5, $6, $7, NOW())
	`
	_, err := repository.db.Exec(context, query,
		message.ID, message.SenderID, message.RecipientID, message.CommunityID,
		message.Kind, message.Subject, message.Body,
	)
	if err != nil {
		return dberr.Wrap(err, "insert_message")
	}

	return nil
}

/*
FindByID retrieves a message by primary key.

Parameters:
  - context: context.Context
  - messageID: string

Returns:
  - *Message: Hydrated entity
  - error: dberr.ErrNotFound or retrieval failures
*/
func (repository *PostgresRepository) FindByID(context context.Context, messageID string) (*Message, error) {
	const query = `
		SELECT
			id, COALESCE(senderid, ''), COALESCE(recipientid, ''), COALESCE(communityid, ''),
			kind, subject, COALESCE(body, ''), consumedat, readat, createdat
		FROM core.message
		WHERE id = $1
	`
	message := &Message{}
	err := repository.db.QueryRow(context, query, messageID).Scan(
		&message.ID, &message.SenderID, &message.RecipientID, &message.CommunityID,
		&message.Kind, &message.Subject, &message.Body, &message.ConsumedAt, &message.ReadAt, &message.CreatedAt,
	)
	if err != nil {
		return nil, dberr.Wrap(err, "find_message")
	}

	return message, nil
}

/*
ListInbox returns a user's messages, newest first.

Parameters:
  - context: context.Context
  - recipientID: string
  - unreadOnly: bool
  - limit, offset: int

Returns:
  - []*Message: Page of messages
  - int: Total count
  - error: Retrieval failures
*/
func (repository *PostgresRepository) ListInbox(context context.Context, recipientID string, unreadOnly bool, limit, offset int) ([]*Message, int, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`
		SELECT
			id, COALESCE(senderid, ''), COALESCE(recipientid, ''), COALESCE(communityid, ''),
			kind, subject, COALESCE(body, ''), consumedat, readat, createdat,
			COUNT(*) OVER() as total
		FROM core.message
		WHERE recipientid = $1
	`)

	if unreadOnly {
		queryBuilder.WriteString(" AND readat IS NULL")
	}

	queryBuilder.WriteString(fmt.Sprintf(" ORDER BY createdat DESC LIMIT $%d OFFSET $%d", 2, 3))

	return repository.listMessages(context, queryBuilder.String(), recipientID, limit, offset)
}

/*
ListModmail returns a community's moderator-team messages, newest first.

Parameters:
  - context: context.Context
  - communityID: string
  - limit, offset: int

Returns:
  - []*Message: Page of messages
  - int: Total count
  - error: Retrieval failures
*/
func (repository *PostgresRepository) ListModmail(context context.Context, communityID string, limit, offset int) ([]*Message, int, error) {
	const query = `
		SELECT
			id, COALESCE(senderid, ''), COALESCE(recipientid, ''), COALESCE(communityid, ''),
			kind, subject, COALESCE(body, ''), consumedat, readat, createdat,
			COUNT(*) OVER() as total
		FROM core.message
		WHERE communityid = $1 AND recipientid IS NULL AND kind = 'user'
		ORDER BY createdat DESC
		LIMIT $2 OFFSET $3
	`
	return repository.listMessages(context, query, communityID, limit, offset)
}

func (repository *PostgresRepository) listMessages(context context.Context, query, scopeID string, limit, offset int) ([]*Message, int, error) {
	rows, err := repository.db.Query(context, query, scopeID, limit, offset)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "list_messages")
	}
	defer rows.Close()

	var messages []*Message
	var total int
	for rows.Next() {
		message := &Message{}
		err := rows.Scan(
			&message.ID, &message.SenderID, &message.RecipientID, &message.CommunityID,
			&message.Kind, &message.Subject, &message.Body, &message.ConsumedAt, &message.ReadAt, &message.CreatedAt, &total,
		)
		if err != nil {
			return nil, 0, dberr.Wrap(err, "scan_message")
		}
		messages = append(messages, message)
	}

	return messages, total, nil
}

/*
MarkRead stamps a message read for its recipient.

Parameters:
  - context: context.Context
  - messageID: string
  - recipientID: string

Returns:
  - bool: Whether an unread message of this recipient was stamped
  - error: Persistence failures
*/
func (repository *PostgresRepository) MarkRead(context context.Context, messageID, recipientID string) (bool, error) {
	const query = `
		UPDATE core.message
		SET readat = NOW()
		WHERE id = $1 AND recipientid = $2 AND readat IS NULL
	`
	result, err := repository.db.Exec(context, query, messageID, recipientID)
	if err != nil {
		return false, dberr.Wrap(err, "mark_message_read")
	}

	return result.RowsAffected() > 0, nil
}

/*
ResolveRecipient maps a username to a user ID.

Parameters:
  - context: context.Context
  - username: string

Returns:
  - string: User ID
  - error: dberr.ErrNotFound or retrieval failures
*/
func (repository *PostgresRepository) ResolveRecipient(context context.Context, username string) (string, error) {
	const query = `
		SELECT id
		FROM users.account
		WHERE LOWER(username) = LOWER($1) AND deletedat IS NULL
	`
	var userID string
	err := repository.db.QueryRow(context, query, username).Scan(&userID)
	if err != nil {
		return "", dberr.Wrap(err, "resolve_recipient")
	}

	return userID, nil
}
