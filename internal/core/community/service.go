// Copyright (c) 2026 Veyra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package community

import (
	"context"
	"log/slog"
	"time"

	"github.com/taibuivan/veyra/internal/core/moderation"
	"github.com/taibuivan/veyra/internal/platform/apperr"
	"github.com/taibuivan/veyra/internal/platform/validate"
	"github.com/taibuivan/veyra/pkg/pagination"
	"github.com/taibuivan/veyra/pkg/slug"
	"github.com/taibuivan/veyra/pkg/uuid"
)

// # Collaborators

// Gatekeeper is the slice of the moderation service that community
// operations depend on: the capability gate for settings changes and the
// membership-state reads that guard joining.
type Gatekeeper interface {
	Authorize(context context.Context, communityID, actorID string, capability moderation.Capability) (*moderation.Moderator, error)
	IsBanned(context context.Context, communityID, userID string) (bool, error)
	IsApproved(context context.Context, communityID, userID string) (bool, error)
}

// # Service Layer

// Service orchestrates community lifecycle and membership operations.
type Service struct {
	repo       Repository
	gatekeeper Gatekeeper
	logger     *slog.Logger
}

// NewService constructs a new community [Service].
func NewService(repo Repository, gatekeeper Gatekeeper, logger *slog.Logger) *Service {
	return &Service{repo: repo, gatekeeper: gatekeeper, logger: logger}
}

/*
Create registers a new community.

Description: The name is slug-normalized and immutable afterwards. The
creator becomes the founding moderator with the full capability set and the
first member; all three writes share one transaction.

Parameters:
  - context: context.Context
  - community: *Community (Caller-supplied fields; ID assigned here)
  - creatorID: string

Returns:
  - error: ValidationError, Conflict (name taken), persistence failures
*/
func (service *Service) Create(context context.Context, community *Community, creatorID string) error {
	community.Name = slug.From(community.Name)
	if community.Title == "" {
		community.Title = community.Name
	}

	v := &validate.Validator{}
	v.Required(FieldName, community.Name).
		MaxLen(FieldName, community.Name, 30).
		Slug(FieldName, community.Name).
		MaxLen(FieldTitle, community.Title, 100).
		MaxLen(FieldDescription, community.Description, 500)
	if err := v.Err(); err != nil {
		return err
	}

	community.ID = uuid.New()
	community.CreatedBy = creatorID
	community.MemberCount = 1

	if err := service.repo.Create(context, community, creatorID); err != nil {
		return err
	}

	service.logger.Info("community_created",
		slog.String("community_id", community.ID),
		slog.String("name", community.Name),
		slog.String("creator_id", creatorID),
	)

	return nil
}

/*
Get retrieves a community by UUID or name.

Parameters:
  - context: context.Context
  - identifier: string (UUID or name slug)

Returns:
  - *Community: Hydrated entity
  - error: NotFound or retrieval failures
*/
func (service *Service) Get(context context.Context, identifier string) (*Community, error) {
	var community *Community
	var err error

	// Standard hyphenated UUIDs are exactly 36 characters; names are capped
	// below that.
	if len(identifier) == 36 {
		community, err = service.repo.FindByID(context, identifier)
	} else {
		community, err = service.repo.FindByName(context, identifier)
	}

	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, apperr.NotFound("Community")
		}
		return nil, err
	}

	return community, nil
}

/*
List returns a filtered, paginated community listing.

Parameters:
  - context: context.Context
  - filter: Filter
  - params: pagination.Params

Returns:
  - []*Community: Page of matches
  - int: Total match count
  - error: Retrieval failures
*/
func (service *Service) List(context context.Context, filter Filter, params pagination.Params) ([]*Community, int, error) {
	return service.repo.List(context, filter, params.Limit, params.Offset())
}

/*
Update applies the mutable community fields.

Description: Requires the manage_settings capability. The name is immutable
and absent from [UpdateInput].

Parameters:
  - context: context.Context
  - actorID: string
  - identifier: string (UUID or name slug)
  - input: UpdateInput

Returns:
  - *Community: Updated entity
  - error: NotFound, Forbidden, ValidationError, persistence failures
*/
func (service *Service) Update(context context.Context, actorID, identifier string, input UpdateInput) (*Community, error) {
	community, err := service.Get(context, identifier)
	if err != nil {
		return nil, err
	}

	if _, err := service.gatekeeper.Authorize(context, community.ID, actorID, moderation.CapabilityManageSettings); err != nil {
		return nil, err
	}

	if input.Title != nil {
		community.Title = *input.Title
	}
	if input.Description != nil {
		community.Description = *input.Description
	}
	if input.Restricted != nil {
		community.Restricted = *input.Restricted
	}

	v := &validate.Validator{}
	v.Required(FieldTitle, community.Title).
		MaxLen(FieldTitle, community.Title, 100).
		MaxLen(FieldDescription, community.Description, 500)
	if err := v.Err(); err != nil {
		return nil, err
	}

	if err := service.repo.Update(context, community); err != nil {
		return nil, err
	}

	service.logger.Info("community_updated",
		slog.String("community_id", community.ID),
		slog.String("actor_id", actorID),
	)

	return community, nil
}

// # Membership

/*
Join adds the caller to the community.

Description: Banned users cannot join. Restricted communities additionally
require the caller to be on the approved list.

Parameters:
  - context: context.Context
  - userID: string
  - identifier: string (UUID or name slug)

Returns:
  - error: NotFound, Forbidden (banned or unapproved), Conflict (already a
    member), persistence failures
*/
func (service *Service) Join(context context.Context, userID, identifier string) error {
	community, err := service.Get(context, identifier)
	if err != nil {
		return err
	}

	banned, err := service.gatekeeper.IsBanned(context, community.ID, userID)
	if err != nil {
		return err
	}
	if banned {
		return apperr.Forbidden("You are banned from this community")
	}

	if community.Restricted {
		approved, err := service.gatekeeper.IsApproved(context, community.ID, userID)
		if err != nil {
			return err
		}
		if !approved {
			return apperr.Forbidden("This community requires approval to join")
		}
	}

	membership := &Membership{
		CommunityID: community.ID,
		UserID:      userID,
		JoinedAt:    time.Now().UTC(),
	}

	inserted, err := service.repo.InsertMembership(context, membership)
	if err != nil {
		return err
	}
	if !inserted {
		return apperr.Conflict("You are already a member of this community")
	}

	service.logger.Info("community_joined",
		slog.String("community_id", community.ID),
		slog.String("user_id", userID),
	)

	return nil
}

/*
Leave removes the caller from the community. Idempotent.

Parameters:
  - context: context.Context
  - userID: string
  - identifier: string (UUID or name slug)

Returns:
  - error: NotFound (community only), persistence failures
*/
func (service *Service) Leave(context context.Context, userID, identifier string) error {
	community, err := service.Get(context, identifier)
	if err != nil {
		return err
	}

	removed, err := service.repo.DeleteMembership(context, community.ID, userID)
	if err != nil {
		return err
	}

	if removed {
		service.logger.Info("community_left",
			slog.String("community_id", community.ID),
			slog.String("user_id", userID),
		)
	}

	return nil
}

/*
SetMembershipFlags updates the caller's notification preferences for a
community they are a member of.

Parameters:
  - context: context.Context
  - userID: string
  - identifier: string (UUID or name slug)
  - flags: MembershipFlags

Returns:
  - error: NotFound (community or membership), persistence failures
*/
func (service *Service) SetMembershipFlags(context context.Context, userID, identifier string, flags MembershipFlags) error {
	community, err := service.Get(context, identifier)
	if err != nil {
		return err
	}

	updated, err := service.repo.SetMembershipFlags(context, community.ID, userID, flags)
	if err != nil {
		return err
	}
	if !updated {
		return apperr.NotFound("Membership")
	}

	return nil
}
