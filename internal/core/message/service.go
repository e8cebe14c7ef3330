// Copyright (c) 2026 Veyra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package message

import (
	"context"
	"log/slog"
	"time"

	"github.com/taibuivan/veyra/internal/core/moderation"
	"github.com/taibuivan/veyra/internal/platform/apperr"
	"github.com/taibuivan/veyra/internal/platform/validate"
	"github.com/taibuivan/veyra/pkg/pagination"
	"github.com/taibuivan/veyra/pkg/uuid"
)

// # Collaborators

// ModerationReader is the slice of the moderation service the inbox depends
// on: the mute check that guards modmail sends and the roster check that
// guards modmail reads.
type ModerationReader interface {
	IsMuted(context context.Context, communityID, userID string) (bool, error)
	IsActiveModerator(context context.Context, communityID, userID string) (bool, error)
}

// # Service Layer

// Service orchestrates the inbox. It also implements the moderation
// package's InvitationStore and Notifier contracts.
type Service struct {
	repo       Repository
	moderation ModerationReader
	logger     *slog.Logger
}

// NewService constructs a new message [Service].
func NewService(repo Repository, moderationReader ModerationReader, logger *slog.Logger) *Service {
	return &Service{repo: repo, moderation: moderationReader, logger: logger}
}

// # Sending

/*
Send delivers a direct message or a modmail message.

Description: Exactly one of recipient username and community ID may be set.
Modmail from a muted user is rejected; that is the operative effect of a
mute.

Parameters:
  - context: context.Context
  - senderID: string
  - input: SendInput

Returns:
  - *Message: Persisted message
  - error: ValidationError, NotFound (recipient), Forbidden (muted)
*/
func (service *Service) Send(context context.Context, senderID string, input SendInput) (*Message, error) {
	v := &validate.Validator{}
	v.Required(FieldSubject, input.Subject).
		MaxLen(FieldSubject, input.Subject, 200).
		MaxLen(FieldBody, input.Body, 10000).
		Custom(FieldRecipient, (input.RecipientUsername == "") == (input.CommunityID == ""),
			"exactly one of recipient_username and community_id must be set")
	if err := v.Err(); err != nil {
		return nil, err
	}

	sent := &Message{
		ID:        uuid.New(),
		SenderID:  senderID,
		Kind:      KindUser,
		Subject:   input.Subject,
		Body:      input.Body,
		CreatedAt: time.Now().UTC(),
	}

	if input.CommunityID != "" {
		muted, err := service.moderation.IsMuted(context, input.CommunityID, senderID)
		if err != nil {
			return nil, err
		}
		if muted {
			return nil, apperr.Forbidden("You are muted in this community and cannot message its moderators")
		}
		sent.CommunityID = input.CommunityID
	} else {
		recipientID, err := service.repo.ResolveRecipient(context, input.RecipientUsername)
		if err != nil {
			if apperr.IsNotFound(err) {
				return nil, apperr.NotFound("User")
			}
			return nil, err
		}
		sent.RecipientID = recipientID
	}

	if err := service.repo.Insert(context, sent); err != nil {
		return nil, err
	}

	return sent, nil
}

// # Moderation Contracts

/*
SendInvitation persists a moderator invitation and returns its message ID.

Description: Implements the moderation package's InvitationStore. Unlike
notifications this write is load-bearing: the ID is the acceptance
credential, so failures propagate to the caller.

Parameters:
  - context: context.Context
  - recipientID: string
  - communityID: string
  - communityName: string
  - inviterUsername: string

Returns:
  - string: Invitation message ID
  - error: Persistence failures
*/
func (service *Service) SendInvitation(context context.Context, recipientID, communityID, communityName, inviterUsername string) (string, error) {
	invitation := &Message{
		ID:          uuid.New(),
		RecipientID: recipientID,
		CommunityID: communityID,
		Kind:        KindModInvite,
		Subject:     "You have been invited to moderate " + communityName,
		Body:        inviterUsername + " invited you to join the moderator team of " + communityName + ".",
		CreatedAt:   time.Now().UTC(),
	}

	if err := service.repo.Insert(context, invitation); err != nil {
		return "", err
	}

	return invitation.ID, nil
}

/*
FindInvitation resolves a moderator invitation by message ID.

Parameters:
  - context: context.Context
  - invitationID: string

Returns:
  - *moderation.Invitation: Acceptance projection
  - error: NotFound when missing or not an invitation
*/
func (service *Service) FindInvitation(context context.Context, invitationID string) (*moderation.Invitation, error) {
	found, err := service.repo.FindByID(context, invitationID)
	if err != nil {
		return nil, err
	}

	if found.Kind != KindModInvite {
		return nil, apperr.NotFound("Invitation")
	}

	return &moderation.Invitation{
		ID:          found.ID,
		RecipientID: found.RecipientID,
		CommunityID: found.CommunityID,
		Consumed:    found.ConsumedAt != nil,
	}, nil
}

/*
Notify delivers a best-effort system notification.

Description: Implements the moderation package's Notifier. Persistence
failures are logged and swallowed; a lost notification must never roll back
the moderation write that triggered it.

Parameters:
  - context: context.Context
  - recipientID: string
  - communityID: string
  - subject: string
  - body: string
*/
func (service *Service) Notify(context context.Context, recipientID, communityID, subject, body string) {
	notification := &Message{
		ID:          uuid.New(),
		RecipientID: recipientID,
		CommunityID: communityID,
		Kind:        KindSystem,
		Subject:     subject,
		Body:        body,
		CreatedAt:   time.Now().UTC(),
	}

	if err := service.repo.Insert(context, notification); err != nil {
		service.logger.Error("notification_delivery_failed",
			slog.String("recipient_id", recipientID),
			slog.String("community_id", communityID),
			slog.String("error", err.Error()),
		)
	}
}

// # Inbox

/*
ListInbox returns the caller's messages, newest first.

Parameters:
  - context: context.Context
  - userID: string
  - unreadOnly: bool
  - params: pagination.Params

Returns:
  - []*Message: Page of messages
  - int: Total count
  - error: Retrieval failures
*/
func (service *Service) ListInbox(context context.Context, userID string, unreadOnly bool, params pagination.Params) ([]*Message, int, error) {
	return service.repo.ListInbox(context, userID, unreadOnly, params.Limit, params.Offset())
}

/*
ListModmail returns a community's moderator-team messages.

Description: Restricted to active moderators of the community; no specific
capability flag is required.

Parameters:
  - context: context.Context
  - actorID: string
  - communityID: string (UUID, already resolved)
  - params: pagination.Params

Returns:
  - []*Message: Page of messages
  - int: Total count
  - error: Forbidden or retrieval failures
*/
func (service *Service) ListModmail(context context.Context, actorID, communityID string, params pagination.Params) ([]*Message, int, error) {
	active, err := service.moderation.IsActiveModerator(context, communityID, actorID)
	if err != nil {
		return nil, 0, err
	}
	if !active {
		return nil, 0, apperr.Forbidden("You are not a moderator of this community")
	}

	return service.repo.ListModmail(context, communityID, params.Limit, params.Offset())
}

/*
MarkRead stamps one of the caller's messages as read.

Parameters:
  - context: context.Context
  - userID: string
  - messageID: string

Returns:
  - error: NotFound when the message does not exist, is not addressed to
    the caller, or is already read
*/
func (service *Service) MarkRead(context context.Context, userID, messageID string) error {
	updated, err := service.repo.MarkRead(context, messageID, userID)
	if err != nil {
		return err
	}
	if !updated {
		return apperr.NotFound("Message")
	}

	return nil
}
