// Copyright (c) 2026 Veyra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package rule

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	requestutil "github.com/taibuivan/veyra/internal/platform/request"
	"github.com/taibuivan/veyra/internal/platform/respond"
)

// # Handler Implementation

// Handler implements the HTTP layer for the rule and removal-reason
// catalogs. Its routes are nested under /communities/{communityID}.
type Handler struct {
	service *Service
}

// NewHandler constructs a new rule [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes registers the catalog endpoints on router, which the server nests
// under /communities/{communityID}.
func (handler *Handler) Routes(router chi.Router) {
	// ## Rules
	router.Get("/rules", handler.listRules)
	router.Post("/rules", handler.addRule)
	router.Patch("/rules/{ruleID}", handler.editRule)
	router.Delete("/rules/{ruleID}", handler.deleteRule)

	// ## Removal Reasons
	router.Get("/removal-reasons", handler.listReasons)
	router.Post("/removal-reasons", handler.addReason)
	router.Patch("/removal-reasons/{reasonID}", handler.editReason)
	router.Delete("/removal-reasons/{reasonID}", handler.deleteReason)
}

// # Rule Endpoints

/*
GET /api/v1/communities/{communityID}/rules.

Description: Lists the community's rules in display order. Public.

Request:
  - communityID: string (UUID or name)

Response:
  - 200: []Rule: Ordered catalog
  - 404: 404: ErrNotFound: Community not found
*/
func (handler *Handler) listRules(writer http.ResponseWriter, request *http.Request) {
	identifier := requestutil.Param(request, "communityID")

	rules, err := handler.service.ListRules(request.Context(), identifier)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, rules)
}

/*
POST /api/v1/communities/{communityID}/rules.

Description: Appends a rule. The position is assigned automatically and the
report reason defaults to the title.

Request (Body):
  - title: string
  - description: string
  - report_reason: string

Response:
  - 201: Rule: Created rule
  - 400: 400: ErrInvalidJSON/Validation: Invalid input data
  - 401: 401: ErrUnauthorized: Authentication required
  - 403: 403: ErrForbidden: Missing manage_posts_and_comments capability
  - 404: 404: ErrNotFound: Community not found
  - 409: 409: ErrConflict: Title already used
*/
func (handler *Handler) addRule(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input RuleInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	identifier := requestutil.Param(request, "communityID")
	created, err := handler.service.AddRule(request.Context(), userID, identifier, input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, created)
}

/*
PATCH /api/v1/communities/{communityID}/rules/{ruleID}.

Description: Applies partial changes to a rule.

Request:
  - ruleID: string (Rule UUID)
  - body: RuleInput (JSON, nil fields unchanged)

Response:
  - 200: Rule: Updated rule
  - 400: 400: ErrInvalidJSON/Validation: Invalid input data
  - 401: 401: ErrUnauthorized: Authentication required
  - 403: 403: ErrForbidden: Missing manage_posts_and_comments capability
  - 404: 404: ErrNotFound: Community or rule not found
  - 409: 409: ErrConflict: Title already used
*/
func (handler *Handler) editRule(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input RuleInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	identifier := requestutil.Param(request, "communityID")
	ruleID := requestutil.ID(request, "ruleID")

	updated, err := handler.service.EditRule(request.Context(), userID, identifier, ruleID, input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, updated)
}

/*
DELETE /api/v1/communities/{communityID}/rules/{ruleID}.

Description: Removes a rule; later rules shift up to keep positions dense.

Request:
  - ruleID: string (Rule UUID)

Response:
  - 204: No Content
  - 401: 401: ErrUnauthorized: Authentication required
  - 403: 403: ErrForbidden: Missing manage_posts_and_comments capability
  - 404: 404: ErrNotFound: Community or rule not found
*/
func (handler *Handler) deleteRule(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	identifier := requestutil.Param(request, "communityID")
	ruleID := requestutil.ID(request, "ruleID")

	if err := handler.service.DeleteRule(request.Context(), userID, identifier, ruleID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

// # Removal Reason Endpoints

/*
GET /api/v1/communities/{communityID}/removal-reasons.

Description: Lists the community's removal reasons. Public.

Request:
  - communityID: string (UUID or name)

Response:
  - 200: []RemovalReason: Catalog
  - 404: 404: ErrNotFound: Community not found
*/
func (handler *Handler) listReasons(writer http.ResponseWriter, request *http.Request) {
	identifier := requestutil.Param(request, "communityID")

	reasons, err := handler.service.ListRemovalReasons(request.Context(), identifier)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, reasons)
}

/*
POST /api/v1/communities/{communityID}/removal-reasons.

Description: Adds a removal reason.

Request (Body):
  - title: string
  - message: string

Response:
  - 201: RemovalReason: Created reason
  - 400: 400: ErrInvalidJSON/Validation: Invalid input data
  - 401: 401: ErrUnauthorized: Authentication required
  - 403: 403: ErrForbidden: Missing manage_posts_and_comments capability
  - 404: 404: ErrNotFound: Community not found
  - 409: 409: ErrConflict: Title already used
*/
func (handler *Handler) addReason(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input ReasonInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	identifier := requestutil.Param(request, "communityID")
	created, err := handler.service.AddRemovalReason(request.Context(), userID, identifier, input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, created)
}

/*
PATCH /api/v1/communities/{communityID}/removal-reasons/{reasonID}.

Description: Applies partial changes to a removal reason.

Request:
  - reasonID: string (Reason UUID)
  - body: ReasonInput (JSON, nil fields unchanged)

Response:
  - 200: RemovalReason: Updated reason
  - 400: 400: ErrInvalidJSON/Validation: Invalid input data
  - 401: 401: ErrUnauthorized: Authentication required
  - 403: 403: ErrForbidden: Missing manage_posts_and_comments capability
  - 404: 404: ErrNotFound: Community or reason not found
  - 409: 409: ErrConflict: Title already used
*/
func (handler *Handler) editReason(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input ReasonInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	identifier := requestutil.Param(request, "communityID")
	reasonID := requestutil.ID(request, "reasonID")

	updated, err := handler.service.EditRemovalReason(request.Context(), userID, identifier, reasonID, input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, updated)
}

/*
DELETE /api/v1/communities/{communityID}/removal-reasons/{reasonID}.

Description: Removes a removal reason.

Request:
  - reasonID: string (Reason UUID)

Response:
  - 204: No Content
  - 401: 401: ErrUnauthorized: Authentication required
  - 403: 403: ErrForbidden: Missing manage_posts_and_comments capability
  - 404: 404: ErrNotFound: Community or reason not found
*/
func (handler *Handler) deleteReason(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	identifier := requestutil.Param(request, "communityID")
	reasonID := requestutil.ID(request, "reasonID")

	if err := handler.service.DeleteRemovalReason(request.Context(), userID, identifier, reasonID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}
