package main

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"rental/internal/apperr"
	"rental/internal/domain/messages"
	"rental/internal/params"
	"rental/internal/snapshot"
)

type MessageListResponse struct {
	Messages   []messages.Message `json:"messages"`
	Pagination params.Pagination  `json:"pagination"`
}

// listMessagesHandler godoc
//
//	@Summary		Contact messages
//	@Tags			admin-messages
//	@Produce		json
//	@Param			unread	query		bool	false	"Only unread messages"
//	@Param			page	query		int		false	"Page number"	default(1)
//	@Param			limit	query		int		false	"Page size"		default(20)
//	@Success		200		{object}	MessageListResponse
//	@Security		ApiKeyAuth
//	@Router			/admin/messages [get]
func (app *application) listMessagesHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p := params.ParsePagination(q)
	unread, _ := strconv.ParseBool(q.Get("unread"))

	key := fmt.Sprintf("%t:%d:%d", unread, p.Limit, p.Offset)
	resp, err := snapshot.Load(r.Context(), app.views, snapshot.ViewMessages, key, func(ctx context.Context) (MessageListResponse, error) {
		list, total, err := app.store.Messages.List(ctx, unread, p.Limit, p.Offset)
		if err != nil {
			return MessageListResponse{}, apperr.Storage("list messages", err)
		}
		if list == nil {
			list = []messages.Message{}
		}
		page := p
		page.ComputeMeta(total)
		return MessageListResponse{Messages: list, Pagination: page}, nil
	})
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}
	if err := app.jsonResponse(w, http.StatusOK, resp); err != nil {
		app.internalServerError(w, r, err)
	}
}

type ReadPayload struct {
	Read bool `json:"read"`
}

// markMessageReadHandler godoc
//
//	@Summary		Mark a message read or unread
//	@Tags			admin-messages
//	@Accept			json
//	@Param			messageID	path	int			true	"Message ID"
//	@Param			payload		body	ReadPayload	true	"Read flag"
//	@Success		204
//	@Failure		404	{object}	ErrorResponse
//	@Security		ApiKeyAuth
//	@Router			/admin/messages/{messageID}/read [put]
func (app *application) markMessageReadHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "messageID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var payload ReadPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.store.Messages.SetRead(r.Context(), id, payload.Read); err != nil {
		app.domainErrorResponse(w, r, apperr.Storage("mark message", err))
		return
	}
	app.views.Touch(r.Context(), snapshot.ContactMessages)

	w.WriteHeader(http.StatusNoContent)
}

// deleteMessageHandler godoc
//
//	@Summary		Delete a message
//	@Tags			admin-messages
//	@Param			messageID	path	int	true	"Message ID"
//	@Success		204
//	@Failure		404	{object}	ErrorResponse
//	@Security		ApiKeyAuth
//	@Router			/admin/messages/{messageID} [delete]
func (app *application) deleteMessageHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "messageID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.store.Messages.Delete(r.Context(), id); err != nil {
		app.domainErrorResponse(w, r, apperr.Storage("delete message", err))
		return
	}
	app.views.Touch(r.Context(), snapshot.ContactMessages)
	app.logger.Infow("contact message deleted", "message_id", id)

	w.WriteHeader(http.StatusNoContent)
}
