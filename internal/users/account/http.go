// Copyright (c) 2026 Veyra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
HTTP delivery layer for profile and per-user community views.

# Security

Everything under /me requires an active authentication session provided by
the RequireAuth middleware; public profile discovery does not.
*/
package account

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/veyra/internal/platform/apperr"
	"github.com/taibuivan/veyra/internal/platform/middleware"
	requestutil "github.com/taibuivan/veyra/internal/platform/request"
	"github.com/taibuivan/veyra/internal/platform/respond"
	"github.com/taibuivan/veyra/internal/platform/validate"
	"github.com/taibuivan/veyra/pkg/pagination"
)

// Handler implements the HTTP layer for user account management.
type Handler struct {
	accountService *Service
}

// NewHandler constructs a new account [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{accountService: service}
}

// Routes returns a [chi.Router] configured with the account domain's endpoints.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	// Account Management
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/me", handler.getMe)
		r.Patch("/me", handler.updateMe)
		r.Delete("/me", handler.deleteMe)

		// Community Views
		r.Get("/me/communities", handler.listJoinedCommunities)
		r.Get("/me/moderating", handler.listModeratedCommunities)
	})

	// Public Profile discovery
	router.Get("/{username}", handler.getUserProfile)

	return router
}

// # User Profile Endpoints

/*
GET /api/v1/users/me.

Description: Retrieves the full private profile of the authenticated user.

Response:
  - 200: User: Fully hydrated user profile
  - 401: ErrUnauthorized: Authentication required
*/
func (handler *Handler) getMe(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.accountService.GetProfile(request.Context(), userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

// updateMeRequest defines the expected JSON payload for profile updates.
// Username is immutable and not accepted here.
type updateMeRequest struct {
	DisplayName *string `json:"display_name"`
	AvatarURL   *string `json:"avatar_url"`
	Bio         *string `json:"bio"`
}

/*
PATCH /api/v1/users/me.

Description: Applies partial updates to the authenticated user's profile.

Request:
  - body: updateMeRequest (Partial JSON)

Response:
  - 200: User: The updated profile
  - 400: ErrInvalidJSON/Validation: Invalid input data
  - 401: ErrUnauthorized: Authentication required
*/
func (handler *Handler) updateMe(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input updateMeRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	v := &validate.Validator{}
	if input.DisplayName != nil {
		v.MaxLen(FieldDisplayName, *input.DisplayName, 50)
	}
	if input.AvatarURL != nil && *input.AvatarURL != "" {
		v.MaxLen(FieldAvatarURL, *input.AvatarURL, 300).
			Custom(FieldAvatarURL, !strings.HasPrefix(*input.AvatarURL, "http"), "must be an http(s) URL")
	}
	if input.Bio != nil {
		v.MaxLen(FieldBio, *input.Bio, 500)
	}

	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.accountService.UpdateProfile(request.Context(), userID, UpdateProfileInput{
		DisplayName: input.DisplayName,
		AvatarURL:   input.AvatarURL,
		Bio:         input.Bio,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

/*
DELETE /api/v1/users/me.

Description: Performs a soft-deletion of the authenticated user's account.

Response:
  - 204: No Content: Account deleted successfully
  - 401: ErrUnauthorized: Authentication required
*/
func (handler *Handler) deleteMe(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.accountService.DeleteAccount(request.Context(), userID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

/*
GET /api/v1/users/{username}.

Description: Retrieves public profile information for a specific user.

Request:
  - username: string

Response:
  - 200: User: Public profile data
  - 404: ErrNotFound: User not found
*/
func (handler *Handler) getUserProfile(writer http.ResponseWriter, request *http.Request) {
	username := chi.URLParam(request, "username")
	if username == "" {
		respond.Error(writer, request, apperr.NotFound("User not found"))
		return
	}

	user, err := handler.accountService.GetPublicProfile(request.Context(), username)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

// # Community View Endpoints

/*
GET /api/v1/users/me/communities.

Description: Lists the communities the authenticated user has joined.

Response:
  - 200: []JoinedCommunity: Paginated memberships
  - 401: ErrUnauthorized: Authentication required
*/
func (handler *Handler) listJoinedCommunities(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	params := pagination.FromRequest(request)
	joined, total, err := handler.accountService.ListJoinedCommunities(request.Context(), userID, params)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, joined, pagination.NewMeta(params.Page, params.Limit, total))
}

/*
GET /api/v1/users/me/moderating.

Description: Lists the communities the authenticated user actively moderates.
Pending invitations never appear here.

Response:
  - 200: []ModeratedCommunity: Roster-backed view
  - 401: ErrUnauthorized: Authentication required
*/
func (handler *Handler) listModeratedCommunities(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	moderated, err := handler.accountService.ListModeratedCommunities(request.Context(), userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, moderated)
}
