// Copyright (c) 2026 Veyra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package rule

import (
	"context"
	"log/slog"

	"github.com/taibuivan/veyra/internal/core/community"
	"github.com/taibuivan/veyra/internal/core/moderation"
	"github.com/taibuivan/veyra/internal/platform/apperr"
	"github.com/taibuivan/veyra/internal/platform/validate"
	"github.com/taibuivan/veyra/pkg/uuid"
)

// # Collaborators

// Authorizer is the capability gate, satisfied by the moderation service.
type Authorizer interface {
	Authorize(context context.Context, communityID, actorID string, capability moderation.Capability) (*moderation.Moderator, error)
}

// CommunityResolver resolves a community by UUID or name, satisfied by the
// community service.
type CommunityResolver interface {
	Get(context context.Context, identifier string) (*community.Community, error)
}

// # Service Layer

// Service orchestrates the rule and removal-reason catalogs.
type Service struct {
	repo        Repository
	authorizer  Authorizer
	communities CommunityResolver
	logger      *slog.Logger
}

// NewService constructs a new rule [Service].
func NewService(repo Repository, authorizer Authorizer, communities CommunityResolver, logger *slog.Logger) *Service {
	return &Service{
		repo:        repo,
		authorizer:  authorizer,
		communities: communities,
		logger:      logger,
	}
}

// gate resolves the community and requires manage_posts_and_comments.
func (service *Service) gate(context context.Context, identifier, actorID string) (*community.Community, error) {
	target, err := service.communities.Get(context, identifier)
	if err != nil {
		return nil, err
	}

	if _, err := service.authorizer.Authorize(context, target.ID, actorID, moderation.CapabilityManagePostsAndComments); err != nil {
		return nil, err
	}

	return target, nil
}

// # Rules

/*
AddRule appends a rule to the community's catalog.

Description: The position is assigned as the current count plus one, and the
report reason defaults to the title when omitted.

Parameters:
  - context: context.Context
  - actorID: string
  - identifier: string (Community UUID or name)
  - input: RuleInput

Returns:
  - *Rule: Created rule with its assigned position
  - error: NotFound, Forbidden, ValidationError, Conflict (duplicate title)
*/
func (service *Service) AddRule(context context.Context, actorID, identifier string, input RuleInput) (*Rule, error) {
	target, err := service.gate(context, identifier, actorID)
	if err != nil {
		return nil, err
	}

	created := &Rule{
		ID:          uuid.New(),
		CommunityID: target.ID,
		CreatedBy:   actorID,
	}
	if input.Title != nil {
		created.Title = *input.Title
	}
	if input.Description != nil {
		created.Description = *input.Description
	}
	created.ReportReason = created.Title
	if input.ReportReason != nil && *input.ReportReason != "" {
		created.ReportReason = *input.ReportReason
	}

	v := &validate.Validator{}
	v.Required(FieldTitle, created.Title).
		MaxLen(FieldTitle, created.Title, 100).
		MaxLen(FieldDescription, created.Description, 500).
		MaxLen(FieldReportReason, created.ReportReason, 100)
	if err := v.Err(); err != nil {
		return nil, err
	}

	if err := service.repo.InsertRule(context, created); err != nil {
		return nil, err
	}

	service.logger.Info("rule_added",
		slog.String("community_id", target.ID),
		slog.String("rule_id", created.ID),
		slog.Int("rule_order", created.Order),
		slog.String("actor_id", actorID),
	)

	return created, nil
}

/*
EditRule applies partial changes to a rule.

Description: A title change colliding with another rule in the same
community is a Conflict, not an internal error.

Parameters:
  - context: context.Context
  - actorID: string
  - identifier: string (Community UUID or name)
  - ruleID: string
  - input: RuleInput (Nil fields unchanged)

Returns:
  - *Rule: Updated rule
  - error: NotFound, Forbidden, ValidationError, Conflict
*/
func (service *Service) EditRule(context context.Context, actorID, identifier, ruleID string, input RuleInput) (*Rule, error) {
	target, err := service.gate(context, identifier, actorID)
	if err != nil {
		return nil, err
	}

	existing, err := service.repo.FindRule(context, target.ID, ruleID)
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, apperr.NotFound("Rule")
		}
		return nil, err
	}

	if input.Title != nil {
		existing.Title = *input.Title
	}
	if input.Description != nil {
		existing.Description = *input.Description
	}
	if input.ReportReason != nil {
		existing.ReportReason = *input.ReportReason
	}
	if existing.ReportReason == "" {
		existing.ReportReason = existing.Title
	}

	v := &validate.Validator{}
	v.Required(FieldTitle, existing.Title).
		MaxLen(FieldTitle, existing.Title, 100).
		MaxLen(FieldDescription, existing.Description, 500).
		MaxLen(FieldReportReason, existing.ReportReason, 100)
	if err := v.Err(); err != nil {
		return nil, err
	}

	if err := service.repo.UpdateRule(context, existing); err != nil {
		return nil, err
	}

	service.logger.Info("rule_edited",
		slog.String("community_id", target.ID),
		slog.String("rule_id", existing.ID),
		slog.String("actor_id", actorID),
	)

	return existing, nil
}

/*
DeleteRule removes a rule from the catalog.

Parameters:
  - context: context.Context
  - actorID: string
  - identifier: string (Community UUID or name)
  - ruleID: string

Returns:
  - error: NotFound (community or rule), Forbidden
*/
func (service *Service) DeleteRule(context context.Context, actorID, identifier, ruleID string) error {
	target, err := service.gate(context, identifier, actorID)
	if err != nil {
		return err
	}

	removed, err := service.repo.DeleteRule(context, target.ID, ruleID)
	if err != nil {
		return err
	}
	if !removed {
		return apperr.NotFound("Rule")
	}

	service.logger.Info("rule_deleted",
		slog.String("community_id", target.ID),
		slog.String("rule_id", ruleID),
		slog.String("actor_id", actorID),
	)

	return nil
}

/*
ListRules returns the community's rules ordered by position. Public read.

Parameters:
  - context: context.Context
  - identifier: string (Community UUID or name)

Returns:
  - []*Rule: Ordered catalog
  - error: NotFound or retrieval failures
*/
func (service *Service) ListRules(context context.Context, identifier string) ([]*Rule, error) {
	target, err := service.communities.Get(context, identifier)
	if err != nil {
		return nil, err
	}

	return service.repo.ListRules(context, target.ID)
}

// # Removal Reasons

/*
AddRemovalReason appends a removal reason to the community's catalog.

Parameters:
  - context: context.Context
  - actorID: string
  - identifier: string (Community UUID or name)
  - input: ReasonInput

Returns:
  - *RemovalReason: Created reason
  - error: NotFound, Forbidden, ValidationError, Conflict (duplicate title)
*/
func (service *Service) AddRemovalReason(context context.Context, actorID, identifier string, input ReasonInput) (*RemovalReason, error) {
	target, err := service.gate(context, identifier, actorID)
	if err != nil {
		return nil, err
	}

	created := &RemovalReason{
		ID:          uuid.New(),
		CommunityID: target.ID,
		CreatedBy:   actorID,
	}
	if input.Title != nil {
		created.Title = *input.Title
	}
	if input.Message != nil {
		created.Message = *input.Message
	}

	v := &validate.Validator{}
	v.Required(FieldTitle, created.Title).
		MaxLen(FieldTitle, created.Title, 100).
		MaxLen(FieldMessage, created.Message, 1000)
	if err := v.Err(); err != nil {
		return nil, err
	}

	if err := service.repo.InsertReason(context, created); err != nil {
		return nil, err
	}

	service.logger.Info("removal_reason_added",
		slog.String("community_id", target.ID),
		slog.String("reason_id", created.ID),
		slog.String("actor_id", actorID),
	)

	return created, nil
}

/*
EditRemovalReason applies partial changes to a removal reason.

Parameters:
  - context: context.Context
  - actorID: string
  - identifier: string (Community UUID or name)
  - reasonID: string
  - input: ReasonInput (Nil fields unchanged)

Returns:
  - *RemovalReason: Updated reason
  - error: NotFound, Forbidden, ValidationError, Conflict
*/
func (service *Service) EditRemovalReason(context context.Context, actorID, identifier, reasonID string, input ReasonInput) (*RemovalReason, error) {
	target, err := service.gate(context, identifier, actorID)
	if err != nil {
		return nil, err
	}

	existing, err := service.repo.FindReason(context, target.ID, reasonID)
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, apperr.NotFound("Removal reason")
		}
		return nil, err
	}

	if input.Title != nil {
		existing.Title = *input.Title
	}
	if input.Message != nil {
		existing.Message = *input.Message
	}

	v := &validate.Validator{}
	v.Required(FieldTitle, existing.Title).
		MaxLen(FieldTitle, existing.Title, 100).
		MaxLen(FieldMessage, existing.Message, 1000)
	if err := v.Err(); err != nil {
		return nil, err
	}

	if err := service.repo.UpdateReason(context, existing); err != nil {
		return nil, err
	}

	return existing, nil
}

/*
DeleteRemovalReason removes a removal reason from the catalog.

Parameters:
  - context: context.Context
  - actorID: string
  - identifier: string (Community UUID or name)
  - reasonID: string

Returns:
  - error: NotFound (community or reason), Forbidden
*/
func (service *Service) DeleteRemovalReason(context context.Context, actorID, identifier, reasonID string) error {
	target, err := service.gate(context, identifier, actorID)
	if err != nil {
		return err
	}

	removed, err := service.repo.DeleteReason(context, target.ID, reasonID)
	if err != nil {
		return err
	}
	if !removed {
		return apperr.NotFound("Removal reason")
	}

	return nil
}

/*
ListRemovalReasons returns the community's removal reasons. Public read.

Parameters:
  - context: context.Context
  - identifier: string (Community UUID or name)

Returns:
  - []*RemovalReason: Catalog, oldest first
  - error: NotFound or retrieval failures
*/
func (service *Service) ListRemovalReasons(context context.Context, identifier string) ([]*RemovalReason, error) {
	target, err := service.communities.Get(context, identifier)
	if err != nil {
		return nil, err
	}

	return service.repo.ListReasons(context, target.ID)
}
