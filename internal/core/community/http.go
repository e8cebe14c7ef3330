// Copyright (c) 2026 Veyra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package community

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	requestutil "github.com/taibuivan/veyra/internal/platform/request"
	"github.com/taibuivan/veyra/internal/platform/respond"
	"github.com/taibuivan/veyra/pkg/pagination"
)

// # Handler Implementation

// Handler implements the HTTP layer for community operations.
type Handler struct {
	service *Service
}

// NewHandler constructs a new community [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns a [chi.Router] configured with community endpoints.
//
// Moderation, rule, and removal-reason subrouters are registered by the
// server through nested, so they share the {communityID} URL segment.
func (handler *Handler) Routes(nested ...func(chi.Router)) chi.Router {
	router := chi.NewRouter()

	// ## Discovery
	router.Get("/", handler.listCommunities)

	// ## Lifecycle (Auth Required)
	router.Post("/", handler.createCommunity)

	router.Route("/{communityID}", func(scoped chi.Router) {
		scoped.Get("/", handler.getCommunity)
		scoped.Patch("/", handler.updateCommunity)

		// ## Membership (Auth Required)
		scoped.Post("/members", handler.joinCommunity)
		scoped.Delete("/members/me", handler.leaveCommunity)
		scoped.Patch("/members/me", handler.updateMembership)

		for _, register := range nested {
			register(scoped)
		}
	})

	return router
}

// # Community Endpoints

/*
GET /api/v1/communities.

Description: Retrieves a paginated community listing with name/title search.

Request:
  - q: string (Search term)
  - sort: string (members|createdat)
  - page, limit: int

Response:
  - 200: []Community: Paginated list
*/
func (handler *Handler) listCommunities(writer http.ResponseWriter, request *http.Request) {
	params := pagination.FromRequest(request)
	queryParams := request.URL.Query()

	filter := Filter{
		Query: queryParams.Get("q"),
		Sort:  queryParams.Get("sort"),
	}

	communities, total, err := handler.service.List(request.Context(), filter, params)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, communities, pagination.NewMeta(params.Page, params.Limit, total))
}

/*
GET /api/v1/communities/{communityID}.

Description: Retrieves a community by UUID or unique name.

Request:
  - communityID: string (UUID or name)

Response:
  - 200: Community: Success
  - 404: 404: ErrNotFound: Community not found
*/
func (handler *Handler) getCommunity(writer http.ResponseWriter, request *http.Request) {
	identifier := requestutil.Param(request, "communityID")

	community, err := handler.service.Get(request.Context(), identifier)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, community)
}

/*
POST /api/v1/communities.

Description: Registers a new community. The caller becomes the founding
moderator and first member.

Request (Body):
  - name: string (Slug-normalized, immutable)
  - title: string
  - description: string
  - restricted: bool

Response:
  - 201: Community: Created entity
  - 400: 400: ErrInvalidJSON/Validation: Invalid input data
  - 401: 401: ErrUnauthorized: Authentication required
  - 409: 409: ErrConflict: Name already taken
*/
func (handler *Handler) createCommunity(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input Community
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.Create(request.Context(), &input, userID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, input)
}

/*
PATCH /api/v1/communities/{communityID}.

Description: Updates mutable community fields. Requires the manage_settings
capability.

Request:
  - communityID: string (UUID or name)
  - body: UpdateInput (JSON, nil fields unchanged)

Response:
  - 200: Community: Updated entity
  - 400: 400: ErrInvalidJSON/Validation: Invalid input data
  - 401: 401: ErrUnauthorized: Authentication required
  - 403: 403: ErrForbidden: Missing manage_settings capability
  - 404: 404: ErrNotFound: Community not found
*/
func (handler *Handler) updateCommunity(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input UpdateInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	identifier := requestutil.Param(request, "communityID")
	community, err := handler.service.Update(request.Context(), userID, identifier, input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, community)
}

// # Membership Endpoints

/*
POST /api/v1/communities/{communityID}/members.

Description: Joins the community. Banned users are rejected; restricted
communities require prior approval.

Request:
  - communityID: string (UUID or name)

Response:
  - 201: Message: Joined
  - 401: 401: ErrUnauthorized: Authentication required
  - 403: 403: ErrForbidden: Banned or approval required
  - 404: 404: ErrNotFound: Community not found
  - 409: 409: ErrConflict: Already a member
*/
func (handler *Handler) joinCommunity(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	identifier := requestutil.Param(request, "communityID")
	if err := handler.service.Join(request.Context(), userID, identifier); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, map[string]string{"message": "Joined community"})
}

/*
DELETE /api/v1/communities/{communityID}/members/me.

Description: Leaves the community. Idempotent.

Request:
  - communityID: string (UUID or name)

Response:
  - 204: No Content
  - 401: 401: ErrUnauthorized: Authentication required
  - 404: 404: ErrNotFound: Community not found
*/
func (handler *Handler) leaveCommunity(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	identifier := requestutil.Param(request, "communityID")
	if err := handler.service.Leave(request.Context(), userID, identifier); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

/*
PATCH /api/v1/communities/{communityID}/members/me.

Description: Updates the caller's notification preferences for a community
they belong to.

Request:
  - communityID: string (UUID or name)
  - body: MembershipFlags (JSON, nil fields unchanged)

Response:
  - 200: MembershipFlags: Applied flags
  - 400: 400: ErrInvalidJSON: Invalid input data
  - 401: 401: ErrUnauthorized: Authentication required
  - 404: 404: ErrNotFound: Community or membership not found
*/
func (handler *Handler) updateMembership(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input MembershipFlags
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	identifier := requestutil.Param(request, "communityID")
	if err := handler.service.SetMembershipFlags(request.Context(), userID, identifier, input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, input)
}
