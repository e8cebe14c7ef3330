// Copyright (c) 2026 Veyra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package moderation

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	requestutil "github.com/taibuivan/veyra/internal/platform/request"
	"github.com/taibuivan/veyra/internal/platform/respond"
	"github.com/taibuivan/veyra/internal/platform/validate"
	"github.com/taibuivan/veyra/pkg/pagination"
)

// # Handler Implementation

// Handler implements the HTTP layer for community moderation operations.
//
// Its [Handler.Routes] endpoints are nested under /communities/{communityID},
// so every endpoint resolves the community from the parent URL segment. The
// segment accepts either a UUID or the community's unique name.
type Handler struct {
	service *Service
}

// NewHandler constructs a new moderation [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes registers the community-scoped moderation endpoints on router,
// which the server nests under /communities/{communityID}.
//
// All mutating endpoints require authentication; capability checks happen in
// the service layer.
func (handler *Handler) Routes(router chi.Router) {
	// ## Moderator Roster
	router.Get("/moderators", handler.listModerators)
	router.Get("/moderators/editable", handler.listEditableModerators)
	router.Post("/moderators", handler.addModerator)
	router.Delete("/moderators/me", handler.leaveModeration)
	router.Delete("/moderators/{username}", handler.removeModerator)
	router.Put("/moderators/me/favorite", handler.setFavorite)

	// ## Membership Registry
	router.Get("/banned", handler.listBanned)
	router.Post("/banned", handler.banUser)
	router.Delete("/banned/{username}", handler.unbanUser)
	router.Get("/muted", handler.listMuted)
	router.Post("/muted", handler.muteUser)
	router.Get("/approved", handler.listApproved)
	router.Post("/approved", handler.approveUser)
	router.Delete("/approved/{username}", handler.unapproveUser)
}

// InvitationRoutes returns a [chi.Router] for invitation acceptance, mounted
// at /invitations. The community is implied by the invitation itself.
func (handler *Handler) InvitationRoutes() chi.Router {
	router := chi.NewRouter()
	router.Post("/{id}/accept", handler.acceptInvitation)
	return router
}

// actor extracts the authenticated actor from the request, or writes a 401.
func (handler *Handler) actor(writer http.ResponseWriter, request *http.Request) (Actor, bool) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return Actor{}, false
	}
	return Actor{ID: claims.UserID, Username: claims.Username}, true
}

// # Roster Endpoints

/*
GET /api/v1/communities/{communityID}/moderators.

Description: Lists the community's active moderators. Pending invitations
are never included.

Request:
  - communityID: string (UUID or name)
  - page, limit: int

Response:
  - 200: []Moderator: Paginated list
  - 404: 404: ErrNotFound: Community not found
*/
func (handler *Handler) listModerators(writer http.ResponseWriter, request *http.Request) {
	params := pagination.FromRequest(request)
	communityID := requestutil.Param(request, "communityID")

	moderators, total, err := handler.service.ListModerators(request.Context(), communityID, params)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, moderators, pagination.NewMeta(params.Page, params.Limit, total))
}

/*
GET /api/v1/communities/{communityID}/moderators/editable.

Description: Lists the active moderators the caller may manage, i.e. those
whose grant is strictly more recent than the caller's own.

Request:
  - communityID: string (UUID or name)
  - page, limit: int

Response:
  - 200: []Moderator: Paginated list
  - 401: 401: ErrUnauthorized: Authentication required
  - 403: 403: ErrForbidden: Caller is not an active moderator
  - 404: 404: ErrNotFound: Community not found
*/
func (handler *Handler) listEditableModerators(writer http.ResponseWriter, request *http.Request) {
	actor, ok := handler.actor(writer, request)
	if !ok {
		return
	}

	params := pagination.FromRequest(request)
	communityID := requestutil.Param(request, "communityID")

	moderators, total, err := handler.service.ListEditableModerators(request.Context(), actor, communityID, params)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, moderators, pagination.NewMeta(params.Page, params.Limit, total))
}

/*
POST /api/v1/communities/{communityID}/moderators.

Description: Invites a user to the moderator roster. The target receives an
invitation message and becomes a pending entry until they accept.

Request (Body):
  - username: string
  - has_access: CapabilitySet

Response:
  - 201: Message: Invitation sent
  - 400: 400: ErrInvalidJSON/Validation: Invalid input data
  - 401: 401: ErrUnauthorized: Authentication required
  - 403: 403: ErrForbidden: Missing manage_users capability
  - 404: 404: ErrNotFound: Community or user not found
  - 409: 409: ErrConflict: Already a moderator or already invited
*/
func (handler *Handler) addModerator(writer http.ResponseWriter, request *http.Request) {
	actor, ok := handler.actor(writer, request)
	if !ok {
		return
	}

	var input struct {
		Username string        `json:"username"`
		Grants   CapabilitySet `json:"has_access"`
	}
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	v := &validate.Validator{}
	v.Required(FieldUsername, input.Username).Username(FieldUsername, input.Username)
	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	communityID := requestutil.Param(request, "communityID")
	if err := handler.service.AddModerator(request.Context(), actor, communityID, input.Username, input.Grants); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, map[string]string{"message": "Invitation sent"})
}

/*
POST /api/v1/invitations/{id}/accept.

Description: Accepts a moderator invitation addressed to the caller. On
success the caller becomes an active moderator of the inviting community.

Request:
  - id: string (Invitation message UUID)

Response:
  - 200: Message: Invitation accepted
  - 401: 401: ErrUnauthorized: Authentication required
  - 403: 403: ErrForbidden: Invitation addressed to another user
  - 404: 404: ErrNotFound: Invitation or roster entry not found
  - 409: 409: ErrConflict: Invitation already used
*/
func (handler *Handler) acceptInvitation(writer http.ResponseWriter, request *http.Request) {
	actor, ok := handler.actor(writer, request)
	if !ok {
		return
	}

	invitationID := requestutil.ID(request, "id")

	if err := handler.service.AcceptInvitation(request.Context(), actor, invitationID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]string{"message": "Invitation accepted"})
}

/*
DELETE /api/v1/communities/{communityID}/moderators/{username}.

Description: Removes a moderator (or revokes a pending invitation).

Request:
  - communityID: string (UUID or name)
  - username: string

Response:
  - 204: No Content
  - 401: 401: ErrUnauthorized: Authentication required
  - 403: 403: ErrForbidden: Missing manage_users capability
  - 404: 404: ErrNotFound: Community, user, or roster entry not found
*/
func (handler *Handler) removeModerator(writer http.ResponseWriter, request *http.Request) {
	actor, ok := handler.actor(writer, request)
	if !ok {
		return
	}

	communityID := requestutil.Param(request, "communityID")
	username := requestutil.Param(request, "username")

	if err := handler.service.RemoveModerator(request.Context(), actor, communityID, username); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

/*
DELETE /api/v1/communities/{communityID}/moderators/me.

Description: The caller leaves the community's moderator roster.

Request:
  - communityID: string (UUID or name)

Response:
  - 204: No Content
  - 401: 401: ErrUnauthorized: Authentication required
  - 404: 404: ErrNotFound: Community or own roster entry not found
*/
func (handler *Handler) leaveModeration(writer http.ResponseWriter, request *http.Request) {
	actor, ok := handler.actor(writer, request)
	if !ok {
		return
	}

	communityID := requestutil.Param(request, "communityID")

	if err := handler.service.LeaveModeration(request.Context(), actor, communityID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

/*
PUT /api/v1/communities/{communityID}/moderators/me/favorite.

Description: Toggles the caller's favorite flag for this community's
moderation dashboard ordering.

Request (Body):
  - favorite: bool

Response:
  - 200: Message: Updated
  - 401: 401: ErrUnauthorized: Authentication required
  - 404: 404: ErrNotFound: Community or own roster entry not found
*/
func (handler *Handler) setFavorite(writer http.ResponseWriter, request *http.Request) {
	actor, ok := handler.actor(writer, request)
	if !ok {
		return
	}

	var input struct {
		Favorite bool `json:"favorite"`
	}
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	communityID := requestutil.Param(request, "communityID")
	if err := handler.service.SetModeratorFavorite(request.Context(), actor, communityID, input.Favorite); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]bool{FieldFavorite: input.Favorite})
}

// # Registry Endpoints

/*
GET /api/v1/communities/{communityID}/banned.

Description: Lists the community's ban list, most recent first. Requires the
manage_users capability.

Request:
  - communityID: string (UUID or name)
  - page, limit: int

Response:
  - 200: []BannedUser: Paginated list
  - 401: 401: ErrUnauthorized: Authentication required
  - 403: 403: ErrForbidden: Missing manage_users capability
  - 404: 404: ErrNotFound: Community not found
*/
func (handler *Handler) listBanned(writer http.ResponseWriter, request *http.Request) {
	actor, ok := handler.actor(writer, request)
	if !ok {
		return
	}

	params := pagination.FromRequest(request)
	communityID := requestutil.Param(request, "communityID")

	banned, total, err := handler.service.ListBanned(request.Context(), actor, communityID, params)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, banned, pagination.NewMeta(params.Page, params.Limit, total))
}

/*
POST /api/v1/communities/{communityID}/banned.

Description: Bans a user from the community, permanently or until a given
expiry.

Request (Body):
  - username: string
  - reason_for_ban: string (none|rule|spam|personal|threat|others)
  - mod_note: string
  - permanent: bool
  - banned_until: timestamp (Required unless permanent)
  - note_for_ban_message: string (Shown to the banned user)

Response:
  - 201: Message: User banned
  - 400: 400: ErrInvalidJSON/Validation: Invalid input data
  - 401: 401: ErrUnauthorized: Authentication required
  - 403: 403: ErrForbidden: Missing manage_users capability
  - 404: 404: ErrNotFound: Community or user not found
  - 409: 409: ErrConflict: User already banned
*/
func (handler *Handler) banUser(writer http.ResponseWriter, request *http.Request) {
	actor, ok := handler.actor(writer, request)
	if !ok {
		return
	}

	var input struct {
		Username string `json:"username"`
		BanInput
	}
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	v := &validate.Validator{}
	v.Required(FieldUsername, input.Username)
	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	communityID := requestutil.Param(request, "communityID")
	if err := handler.service.Ban(request.Context(), actor, communityID, input.Username, input.BanInput); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, map[string]string{"message": "User banned"})
}

/*
DELETE /api/v1/communities/{communityID}/banned/{username}.

Description: Lifts a user's ban. Idempotent.

Request:
  - communityID: string (UUID or name)
  - username: string

Response:
  - 204: No Content
  - 401: 401: ErrUnauthorized: Authentication required
  - 403: 403: ErrForbidden: Missing manage_users capability
  - 404: 404: ErrNotFound: Community or user not found
*/
func (handler *Handler) unbanUser(writer http.ResponseWriter, request *http.Request) {
	actor, ok := handler.actor(writer, request)
	if !ok {
		return
	}

	communityID := requestutil.Param(request, "communityID")
	username := requestutil.Param(request, "username")

	if err := handler.service.Unban(request.Context(), actor, communityID, username); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

/*
GET /api/v1/communities/{communityID}/muted.

Description: Lists the community's mute list, most recent first. Requires
the manage_users capability.

Request:
  - communityID: string (UUID or name)
  - page, limit: int

Response:
  - 200: []MutedUser: Paginated list
  - 401: 401: ErrUnauthorized: Authentication required
  - 403: 403: ErrForbidden: Missing manage_users capability
  - 404: 404: ErrNotFound: Community not found
*/
func (handler *Handler) listMuted(writer http.ResponseWriter, request *http.Request) {
	actor, ok := handler.actor(writer, request)
	if !ok {
		return
	}

	params := pagination.FromRequest(request)
	communityID := requestutil.Param(request, "communityID")

	muted, total, err := handler.service.ListMuted(request.Context(), actor, communityID, params)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, muted, pagination.NewMeta(params.Page, params.Limit, total))
}

/*
POST /api/v1/communities/{communityID}/muted.

Description: Mutes or unmutes a user depending on the action field. Any
other action value is a validation error.

Request (Body):
  - username: string
  - action: string (mute|unmute)
  - reason: string (Mute only)

Response:
  - 200: Message: Action applied
  - 400: 400: ErrInvalidJSON/Validation: Invalid input data
  - 401: 401: ErrUnauthorized: Authentication required
  - 403: 403: ErrForbidden: Missing manage_users capability
  - 404: 404: ErrNotFound: Community or user not found
  - 409: 409: ErrConflict: User already muted
*/
func (handler *Handler) muteUser(writer http.ResponseWriter, request *http.Request) {
	actor, ok := handler.actor(writer, request)
	if !ok {
		return
	}

	var input struct {
		Username string `json:"username"`
		Action   string `json:"action"`
		Reason   string `json:"reason"`
	}
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	v := &validate.Validator{}
	v.Required(FieldUsername, input.Username)
	v.OneOf(FieldAction, input.Action, "mute", "unmute")
	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	communityID := requestutil.Param(request, "communityID")

	var err error
	if input.Action == "mute" {
		err = handler.service.Mute(request.Context(), actor, communityID, input.Username, input.Reason)
	} else {
		err = handler.service.Unmute(request.Context(), actor, communityID, input.Username)
	}
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]string{FieldAction: input.Action})
}

/*
GET /api/v1/communities/{communityID}/approved.

Description: Lists the community's approved users, most recent first.
Requires the manage_users capability.

Request:
  - communityID: string (UUID or name)
  - page, limit: int

Response:
  - 200: []ApprovedUser: Paginated list
  - 401: 401: ErrUnauthorized: Authentication required
  - 403: 403: ErrForbidden: Missing manage_users capability
  - 404: 404: ErrNotFound: Community not found
*/
func (handler *Handler) listApproved(writer http.ResponseWriter, request *http.Request) {
	actor, ok := handler.actor(writer, request)
	if !ok {
		return
	}

	params := pagination.FromRequest(request)
	communityID := requestutil.Param(request, "communityID")

	approved, total, err := handler.service.ListApproved(request.Context(), actor, communityID, params)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, approved, pagination.NewMeta(params.Page, params.Limit, total))
}

/*
POST /api/v1/communities/{communityID}/approved.

Description: Approves a user for a restricted community.

Request (Body):
  - username: string

Response:
  - 201: Message: User approved
  - 400: 400: ErrInvalidJSON/Validation: Invalid input data
  - 401: 401: ErrUnauthorized: Authentication required
  - 403: 403: ErrForbidden: Missing manage_users capability
  - 404: 404: ErrNotFound: Community or user not found
  - 409: 409: ErrConflict: User already approved
*/
func (handler *Handler) approveUser(writer http.ResponseWriter, request *http.Request) {
	actor, ok := handler.actor(writer, request)
	if !ok {
		return
	}

	var input struct {
		Username string `json:"username"`
	}
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	v := &validate.Validator{}
	v.Required(FieldUsername, input.Username)
	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	communityID := requestutil.Param(request, "communityID")
	if err := handler.service.Approve(request.Context(), actor, communityID, input.Username); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, map[string]string{"message": "User approved"})
}

/*
DELETE /api/v1/communities/{communityID}/approved/{username}.

Description: Removes a user's approval. Idempotent.

Request:
  - communityID: string (UUID or name)
  - username: string

Response:
  - 204: No Content
  - 401: 401: ErrUnauthorized: Authentication required
  - 403: 403: ErrForbidden: Missing manage_users capability
  - 404: 404: ErrNotFound: Community or user not found
*/
func (handler *Handler) unapproveUser(writer http.ResponseWriter, request *http.Request) {
	actor, ok := handler.actor(writer, request)
	if !ok {
		return
	}

	communityID := requestutil.Param(request, "communityID")
	username := requestutil.Param(request, "username")

	if err := handler.service.Unapprove(request.Context(), actor, communityID, username); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}
