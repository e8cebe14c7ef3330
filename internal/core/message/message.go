// Copyright (c) 2026 Veyra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package message implements the platform inbox.

It carries three kinds of traffic: direct user messages, system
notifications emitted by moderation actions, and moderator invitations whose
message ID doubles as the acceptance credential.

# Core Responsibility

  - Inbox: Per-user listing with unread tracking.
  - Modmail: Messages addressed to a community's moderator team.
  - Invitations: Persisting and consuming moderator invitations for the
    moderation package.

Notifications are best-effort: delivery failures are logged and swallowed so
they can never roll back the moderation write that produced them.
*/
package message

import "time"

// # Message Kinds

// Kind classifies a message's origin and handling.
type Kind string

const (
	// KindUser is a direct message between users, or user-to-modmail.
	KindUser Kind = "user"

	// KindSystem is a platform notification; SenderID is empty.
	KindSystem Kind = "system"

	// KindModInvite is a moderator invitation; its ID is the acceptance
	// credential and ConsumedAt marks it spent.
	KindModInvite Kind = "mod_invite"
)

// # Core Entities

// Message represents one inbox entry.
//
// RecipientID is empty for modmail, where CommunityID addresses the
// community's moderator team instead.
type Message struct {
	ID          string     `json:"id"` // UUIDv7
	SenderID    string     `json:"sender_id,omitempty"` // Empty for system traffic
	RecipientID string     `json:"recipient_id,omitempty"`
	CommunityID string     `json:"community_id,omitempty"`
	Kind        Kind       `json:"kind"`
	Subject     string     `json:"subject"`
	Body        string     `json:"body,omitempty"`
	ConsumedAt  *time.Time `json:"consumed_at,omitempty"` // Invitations only
	ReadAt      *time.Time `json:"read_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// # Operation Inputs

// SendInput carries the caller-supplied fields of a direct or modmail send.
//
// Exactly one of RecipientUsername and CommunityID must be set.
type SendInput struct {
	RecipientUsername string `json:"recipient_username"`
	CommunityID       string `json:"community_id"`
	Subject           string `json:"subject"`
	Body              string `json:"body"`
}

// # Field Identifiers

const (
	FieldRecipient = "recipient_username"
	FieldCommunity = "community_id"
	FieldSubject   = "subject"
	FieldBody      = "body"
)
