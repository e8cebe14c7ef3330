// Copyright (c) 2026 Veyra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package message

import "context"

// # Storage Contract

// Repository defines persistence for inbox messages.
type Repository interface {

	/*
		Insert persists a message.

		Parameters:
		  - context: context.Context
		  - message: *Message (ID and CreatedAt assigned by the caller/store)

		Returns:
		  - error: Persistence failures
	*/
	Insert(context context.Context, message *Message) error

	/*
		FindByID retrieves a message by primary key.

		Parameters:
		  - context: context.Context
		  - messageID: string

		Returns:
		  - *Message: Hydrated entity
		  - error: dberr.ErrNotFound or retrieval failures
	*/
	FindByID(context context.Context, messageID string) (*Message, error)

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
	ListInbox(context context.Context, recipientID string, unreadOnly bool, limit, offset int) ([]*Message, int, error)

	/*
		ListModmail returns a community's moderator-team messages, newest
		first.

		Parameters:
		  - context: context.Context
		  - communityID: string
		  - limit, offset: int

		Returns:
		  - []*Message: Page of messages
		  - int: Total count
		  - error: Retrieval failures
	*/
	ListModmail(context context.Context, communityID string, limit, offset int) ([]*Message, int, error)

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
	MarkRead(context context.Context, messageID, recipientID string) (bool, error)

	/*
		ResolveRecipient maps a username to a user ID.

		Parameters:
		  - context: context.Context
		  - username: string

		Returns:
		  - string: User ID
		  - error: dberr.ErrNotFound or retrieval failures
	*/
	ResolveRecipient(context context.Context, username string) (string, error)
}
