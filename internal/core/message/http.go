// Copyright (c) 2026 Veyra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package message

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	requestutil "github.com/taibuivan/veyra/internal/platform/request"
	"github.com/taibuivan/veyra/internal/platform/respond"
	"github.com/taibuivan/veyra/pkg/pagination"
)

// # Handler Implementation

// Handler implements the HTTP layer for the inbox.
type Handler struct {
	service *Service
}

// NewHandler constructs a new message [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns a [chi.Router] with inbox endpoints. All of them require
// authentication.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", handler.listInbox)
	router.Post("/", handler.sendMessage)
	router.Put("/{id}/read", handler.markRead)
	router.Get("/modmail/{communityID}", handler.listModmail)

	return router
}

// # Inbox Endpoints

/*
GET /api/v1/messages.

Description: Lists the caller's inbox, newest first.

Request:
  - unread: bool (Unread messages only)
  - page, limit: int

Response:
  - 200: []Message: Paginated inbox
  - 401: 401: ErrUnauthorized: Authentication required
*/
func (handler *Handler) listInbox(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	params := pagination.FromRequest(request)
	unreadOnly := request.URL.Query().Get("unread") == "true"

	messages, total, err := handler.service.ListInbox(request.Context(), userID, unreadOnly, params)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, messages, pagination.NewMeta(params.Page, params.Limit, total))
}

/*
POST /api/v1/messages.

Description: Sends a direct message to a user or a modmail message to a
community's moderator team. Muted users cannot send modmail.

Request (Body):
  - recipient_username: string (Direct message)
  - community_id: string (Modmail; mutually exclusive with recipient)
  - subject: string
  - body: string

Response:
  - 201: Message: Persisted message
  - 400: 400: ErrInvalidJSON/Validation: Invalid input data
  - 401: 401: ErrUnauthorized: Authentication required
  - 403: 403: ErrForbidden: Sender is muted in the community
  - 404: 404: ErrNotFound: Recipient not found
*/
func (handler *Handler) sendMessage(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input SendInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	sent, err := handler.service.Send(request.Context(), userID, input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, sent)
}

/*
PUT /api/v1/messages/{id}/read.

Description: Marks one of the caller's messages as read.

Request:
  - id: string (Message UUID)

Response:
  - 204: No Content
  - 401: 401: ErrUnauthorized: Authentication required
  - 404: 404: ErrNotFound: Message not found or not addressed to caller
*/
func (handler *Handler) markRead(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	messageID := requestutil.ID(request, "id")

	if err := handler.service.MarkRead(request.Context(), userID, messageID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

/*
GET /api/v1/messages/modmail/{communityID}.

Description: Lists a community's moderator-team messages. Active moderators
only.

Request:
  - communityID: string (Community UUID)
  - page, limit: int

Response:
  - 200: []Message: Paginated modmail
  - 401: 401: ErrUnauthorized: Authentication required
  - 403: 403: ErrForbidden: Caller is not an active moderator
*/
func (handler *Handler) listModmail(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	params := pagination.FromRequest(request)
	communityID := requestutil.ID(request, "communityID")

	messages, total, err := handler.service.ListModmail(request.Context(), userID, communityID, params)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, messages, pagination.NewMeta(params.Page, params.Limit, total))
}
