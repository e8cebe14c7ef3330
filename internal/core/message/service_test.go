// Copyright (c) 2026 Veyra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package message_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/veyra/internal/core/message"
	"github.com/taibuivan/veyra/internal/platform/apperr"
	"github.com/taibuivan/veyra/internal/platform/dberr"
	"github.com/taibuivan/veyra/pkg/pagination"
)

// # Test Fixtures

type fakeRepository struct {
	messages []*message.Message
	users    map[string]string // lowercase username -> id
	failNext error
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{users: map[string]string{}}
}

func (repo *fakeRepository) Insert(_ context.Context, m *message.Message) error {
	if repo.failNext != nil {
		err := repo.failNext
		repo.failNext = nil
		return err
	}
	clone := *m
	repo.messages = append(repo.messages, &clone)
	return nil
}

func (repo *fakeRepository) FindByID(_ context.Context, messageID string) (*message.Message, error) {
	for _, m := range repo.messages {
		if m.ID == messageID {
			clone := *m
			return &clone, nil
		}
	}
	return nil, dberr.ErrNotFound
}

func (repo *fakeRepository) ListInbox(_ context.Context, recipientID string, unreadOnly bool, limit, offset int) ([]*message.Message, int, error) {
	var inbox []*message.Message
	for _, m := range repo.messages {
		if m.RecipientID != recipientID {
			continue
		}
		if unreadOnly && m.ReadAt != nil {
			continue
		}
		clone := *m
		inbox = append(inbox, &clone)
	}
	if offset >= len(inbox) {
		return nil, len(inbox), nil
	}
	end := offset + limit
	if end > len(inbox) {
		end = len(inbox)
	}
	return inbox[offset:end], len(inbox), nil
}

func (repo *fakeRepository) ListModmail(_ context.Context, communityID string, limit, offset int) ([]*message.Message, int, error) {
	var modmail []*message.Message
	for _, m := range repo.messages {
		if m.CommunityID == communityID && m.RecipientID == "" && m.Kind == message.KindUser {
			clone := *m
			modmail = append(modmail, &clone)
		}
	}
	return modmail, len(modmail), nil
}

func (repo *fakeRepository) MarkRead(_ context.Context, messageID, recipientID string) (bool, error) {
	for _, m := range repo.messages {
		if m.ID == messageID && m.RecipientID == recipientID && m.ReadAt == nil {
			now := time.Now()
			m.ReadAt = &now
			return true, nil
		}
	}
	return false, nil
}

func (repo *fakeRepository) ResolveRecipient(_ context.Context, username string) (string, error) {
	id, ok := repo.users[strings.ToLower(username)]
	if !ok {
		return "", dberr.ErrNotFound
	}
	return id, nil
}

type fakeModeration struct {
	muted      map[string]bool
	moderators map[string]bool
}

func (m *fakeModeration) IsMuted(_ context.Context, _, userID string) (bool, error) {
	return m.muted[userID], nil
}

func (m *fakeModeration) IsActiveModerator(_ context.Context, _, userID string) (bool, error) {
	return m.moderators[userID], nil
}

const (
	communityID = "019236a0-0000-7000-8000-000000000020"
	senderID    = "019236a0-0000-7000-8000-000000000021"
	recipientID = "019236a0-0000-7000-8000-000000000022"
)

func newService(t *testing.T) (*message.Service, *fakeRepository, *fakeModeration) {
	t.Helper()
	repo := newFakeRepository()
	repo.users["recipient"] = recipientID
	mod := &fakeModeration{muted: map[string]bool{}, moderators: map[string]bool{}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return message.NewService(repo, mod, logger), repo, mod
}

// # Sending Tests

/*
TestService_Send covers direct messages, modmail, the mute gate, and input
validation.
*/
func TestService_Send(t *testing.T) {
	t.Run("direct_message", func(t *testing.T) {
		service, repo, _ := newService(t)

		sent, err := service.Send(context.Background(), senderID, message.SendInput{
			RecipientUsername: "Recipient",
			Subject:           "Hello",
			Body:              "Hey there.",
		})
		require.NoError(t, err)
		assert.Equal(t, recipientID, sent.RecipientID)
		assert.Equal(t, message.KindUser, sent.Kind)
		assert.Len(t, repo.messages, 1)
	})

	t.Run("modmail", func(t *testing.T) {
		service, repo, _ := newService(t)

		sent, err := service.Send(context.Background(), senderID, message.SendInput{
			CommunityID: communityID,
			Subject:     "Appeal",
		})
		require.NoError(t, err)
		assert.Empty(t, sent.RecipientID)
		assert.Equal(t, communityID, sent.CommunityID)
		assert.Len(t, repo.messages, 1)
	})

	t.Run("muted_sender_cannot_modmail", func(t *testing.T) {
		service, _, mod := newService(t)
		mod.muted[senderID] = true

		_, err := service.Send(context.Background(), senderID, message.SendInput{
			CommunityID: communityID,
			Subject:     "Appeal",
		})
		assert.True(t, apperr.IsForbidden(err))
	})

	t.Run("muted_sender_can_still_direct_message", func(t *testing.T) {
		service, _, mod := newService(t)
		mod.muted[senderID] = true

		_, err := service.Send(context.Background(), senderID, message.SendInput{
			RecipientUsername: "recipient",
			Subject:           "Hello",
		})
		require.NoError(t, err)
	})

	t.Run("both_targets_invalid", func(t *testing.T) {
		service, _, _ := newService(t)

		_, err := service.Send(context.Background(), senderID, message.SendInput{
			RecipientUsername: "recipient",
			CommunityID:       communityID,
			Subject:           "Hello",
		})
		ae := apperr.As(err)
		require.NotNil(t, ae)
		assert.Equal(t, "VALIDATION_ERROR", ae.Code)
	})

	t.Run("no_target_invalid", func(t *testing.T) {
		service, _, _ := newService(t)

		_, err := service.Send(context.Background(), senderID, message.SendInput{Subject: "Hello"})
		ae := apperr.As(err)
		require.NotNil(t, ae)
		assert.Equal(t, "VALIDATION_ERROR", ae.Code)
	})

	t.Run("unknown_recipient_not_found", func(t *testing.T) {
		service, _, _ := newService(t)

		_, err := service.Send(context.Background(), senderID, message.SendInput{
			RecipientUsername: "ghost",
			Subject:           "Hello",
		})
		assert.True(t, apperr.IsNotFound(err))
	})
}

// # Moderation Contract Tests

/*
TestService_Invitations covers the invitation store contract used by the
moderation package.
*/
func TestService_Invitations(t *testing.T) {
	t.Run("send_and_find", func(t *testing.T) {
		service, repo, _ := newService(t)

		id, err := service.SendInvitation(context.Background(), recipientID, communityID, "gophers", "senior")
		require.NoError(t, err)
		require.NotEmpty(t, id)

		invitation, err := service.FindInvitation(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, recipientID, invitation.RecipientID)
		assert.Equal(t, communityID, invitation.CommunityID)
		assert.False(t, invitation.Consumed)

		// The invitation lands in the recipient's inbox as a message.
		require.Len(t, repo.messages, 1)
		assert.Equal(t, message.KindModInvite, repo.messages[0].Kind)
		assert.Contains(t, repo.messages[0].Subject, "gophers")
	})

	t.Run("consumed_flag_reflected", func(t *testing.T) {
		service, repo, _ := newService(t)
		id, err := service.SendInvitation(context.Background(), recipientID, communityID, "gophers", "senior")
		require.NoError(t, err)

		now := time.Now()
		repo.messages[0].ConsumedAt = &now

		invitation, err := service.FindInvitation(context.Background(), id)
		require.NoError(t, err)
		assert.True(t, invitation.Consumed)
	})

	t.Run("plain_message_is_not_an_invitation", func(t *testing.T) {
		service, _, _ := newService(t)
		sent, err := service.Send(context.Background(), senderID, message.SendInput{
			RecipientUsername: "recipient",
			Subject:           "Hello",
		})
		require.NoError(t, err)

		_, err = service.FindInvitation(context.Background(), sent.ID)
		assert.True(t, apperr.IsNotFound(err))
	})
}

/*
TestService_Notify verifies that notification failures are swallowed.
*/
func TestService_Notify(t *testing.T) {
	service, repo, _ := newService(t)

	service.Notify(context.Background(), recipientID, communityID, "You have been banned from gophers", "")
	require.Len(t, repo.messages, 1)
	assert.Equal(t, message.KindSystem, repo.messages[0].Kind)

	// A failing insert must not panic or surface anywhere.
	repo.failNext = errors.New("connection reset")
	service.Notify(context.Background(), recipientID, communityID, "subject", "")
	assert.Len(t, repo.messages, 1)
}

// # Inbox Tests

/*
TestService_Inbox covers listing, unread filtering, and mark-read.
*/
func TestService_Inbox(t *testing.T) {
	service, _, _ := newService(t)
	params := pagination.Params{Page: 1, Limit: 10}

	first, err := service.Send(context.Background(), senderID, message.SendInput{RecipientUsername: "recipient", Subject: "One"})
	require.NoError(t, err)
	_, err = service.Send(context.Background(), senderID, message.SendInput{RecipientUsername: "recipient", Subject: "Two"})
	require.NoError(t, err)

	inbox, total, err := service.ListInbox(context.Background(), recipientID, false, params)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, inbox, 2)

	require.NoError(t, service.MarkRead(context.Background(), recipientID, first.ID))

	unread, total, err := service.ListInbox(context.Background(), recipientID, true, params)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, unread, 1)
	assert.Equal(t, "Two", unread[0].Subject)

	// Re-reading the same message is NotFound, as is another user's message.
	err = service.MarkRead(context.Background(), recipientID, first.ID)
	assert.True(t, apperr.IsNotFound(err))
	err = service.MarkRead(context.Background(), senderID, first.ID)
	assert.True(t, apperr.IsNotFound(err))
}

/*
TestService_ListModmail verifies the active-moderator gate.
*/
func TestService_ListModmail(t *testing.T) {
	service, _, mod := newService(t)
	params := pagination.Params{Page: 1, Limit: 10}

	_, err := service.Send(context.Background(), senderID, message.SendInput{CommunityID: communityID, Subject: "Appeal"})
	require.NoError(t, err)

	_, _, err = service.ListModmail(context.Background(), recipientID, communityID, params)
	assert.True(t, apperr.IsForbidden(err))

	mod.moderators[recipientID] = true
	modmail, total, err := service.ListModmail(context.Background(), recipientID, communityID, params)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, modmail, 1)
}
