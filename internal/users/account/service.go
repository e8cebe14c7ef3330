// Copyright (c) 2026 Veyra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/taibuivan/veyra/pkg/pagination"

	"github.com/taibuivan/veyra/internal/users/auth"
)

// # Service Layer

// Service orchestrates business logic for user accounts and their community
// views.
type Service struct {
	accountRepository    AccountRepository
	membershipRepository MembershipRepository
	sessions             SessionRevoker
	logger               *slog.Logger
}

// NewService constructs a new account [Service] with its dependencies.
func NewService(
	accountRepo AccountRepository,
	membershipRepo MembershipRepository,
	sessions SessionRevoker,
	logger *slog.Logger,
) *Service {
	return &Service{
		accountRepository:    accountRepo,
		membershipRepository: membershipRepo,
		sessions:             sessions,
		logger:               logger,
	}
}

// # Profile Management

/*
GetProfile retrieves the full private identity of a user.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - *auth.User: The hydrated user profile
  - error: Not found or execution failures
*/
func (service *Service) GetProfile(context context.Context, userID string) (*auth.User, error) {
	user, err := service.accountRepository.FindByID(context, userID)
	if err != nil {
		return nil, err
	}
	return user, nil
}

/*
GetPublicProfile resolves a user's profile by their username.

Description: The returned entity is serialized with password material
omitted; the email field is blanked here since it is private.

Parameters:
  - context: context.Context
  - username: string

Returns:
  - *auth.User: Public profile data
  - error: Not found or execution failures
*/
func (service *Service) GetPublicProfile(context context.Context, username string) (*auth.User, error) {
	user, err := service.accountRepository.FindByUsername(context, username)
	if err != nil {
		return nil, err
	}

	user.Email = ""
	return user, nil
}

// UpdateProfileInput defines the mutable subset of user profile fields.
// Username is immutable and deliberately absent.
type UpdateProfileInput struct {
	DisplayName *string
	AvatarURL   *string
	Bio         *string
}

/*
UpdateProfile applies a partial set of changes to a user's account metadata.

Description: Fetches the existing user state, overrides provided fields, and
synchronizes the change to persistent storage.

Parameters:
  - context: context.Context
  - userID: string
  - input: UpdateProfileInput

Returns:
  - *auth.User: The updated user profile
  - error: Update or storage failures
*/
func (service *Service) UpdateProfile(context context.Context, userID string, input UpdateProfileInput) (*auth.User, error) {
	user, err := service.accountRepository.FindByID(context, userID)
	if err != nil {
		return nil, err
	}

	// Apply delta updates
	if input.DisplayName != nil {
		user.DisplayName = *input.DisplayName
	}

	// Apply delta updates
	if input.AvatarURL != nil {
		user.AvatarURL = *input.AvatarURL
	}

	// Apply delta updates
	if input.Bio != nil {
		user.Bio = *input.Bio
	}

	// Persist changes
	if err := service.accountRepository.Update(context, user); err != nil {
		return nil, fmt.Errorf("account_service_update_failed: %w", err)
	}

	service.logger.Info("user_profile_updated", slog.String("user_id", userID))

	return user, nil
}

/*
DeleteAccount performs an idempotent soft-deletion of a user account.

Description: Flags the account as deleted and immediately terminates all active
security sessions to force a global sign-out.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - error: Execution failures
*/
func (service *Service) DeleteAccount(context context.Context, userID string) error {
	if err := service.accountRepository.SoftDelete(context, userID); err != nil {
		return fmt.Errorf("account_service_delete_failed: %w", err)
	}

	// Force global revocation of sessions for the deleted account
	_ = service.sessions.RevokeAll(context, userID)

	service.logger.Warn("user_account_deleted", slog.String("user_id", userID))

	return nil
}

// # Community Views

/*
ListModeratedCommunities returns every community the user actively moderates.

Description: The view is derived from the moderator roster on each call; a
pending invitation is not moderation and never appears here.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - []*ModeratedCommunity: Roster-backed view rows
  - error: Retrieval failures
*/
func (service *Service) ListModeratedCommunities(context context.Context, userID string) ([]*ModeratedCommunity, error) {
	return service.membershipRepository.ListModerated(context, userID)
}

/*
ListJoinedCommunities returns a page of the user's community memberships.

Parameters:
  - context: context.Context
  - userID: string
  - params: pagination.Params

Returns:
  - []*JoinedCommunity: Page of memberships
  - int: Total membership count
  - error: Retrieval failures
*/
func (service *Service) ListJoinedCommunities(context context.Context, userID string, params pagination.Params) ([]*JoinedCommunity, int, error) {
	return service.membershipRepository.ListJoined(context, userID, params.Limit, params.Offset())
}
