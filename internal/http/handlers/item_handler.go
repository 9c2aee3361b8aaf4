// Help item HTTP handlers.
//
// This file exposes REST endpoints for the help item lifecycle:
//   - POST /items    (create)
//   - POST /reply    (append a reply)
//   - POST /resolve  (mark resolved)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

//
// DTOs
//

// CreateItemRequest is the JSON payload for posting a help item.
type CreateItemRequest struct {
	RoomCode  string `json:"room_code" binding:"required" example:"7GQ2"`
	GuestName string `json:"guest_name" binding:"required" example:"alice"`
	// Type is "doubt" or "blocker"; blockers are stored as doubts.
	Type        string `json:"type" binding:"required" example:"doubt"`
	Title       string `json:"title" binding:"required" example:"stuck on migration"`
	Description string `json:"description" example:"gorm automigrate keeps recreating the index"`
}

// ReplyRequest is the JSON payload for replying to a help item.
type ReplyRequest struct {
	ItemID    string `json:"item_id" binding:"required" example:"123e4567-e89b-12d3-a456-426614174000"`
	GuestName string `json:"guest_name" binding:"required" example:"bob"`
	Message   string `json:"message" binding:"required" example:"try a named index"`
}

// ResolveRequest is the JSON payload for resolving a help item.
type ResolveRequest struct {
	ItemID string `json:"item_id" binding:"required" example:"123e4567-e89b-12d3-a456-426614174000"`
}

//
// Handlers
//

// CreateItem godoc
// @ID          createItem
// @Summary     Post a help item
// @Description Persists a help item in the room and broadcasts it to connected members.
// @Tags        Items
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.CreateItemRequest  true  "Create item payload"
//
// @Success     201  {object}  domain.HelpItem
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Room not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /items [post]
func (h *Handlers) CreateItem(c *gin.Context) {
	var req CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	item, err := h.itemSvc.Create(c.Request.Context(),
		normalizeCode(req.RoomCode), req.GuestName, req.Type, req.Title, req.Description)
	if err != nil {
		failService(c, err, ErrCodeCreateFailed)
		return
	}
	ok(c, http.StatusCreated, item)
}

// ReplyToItem godoc
// @ID          replyToItem
// @Summary     Reply to a help item
// @Description Appends a reply to the item and broadcasts it to the room.
// @Tags        Items
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.ReplyRequest  true  "Reply payload"
//
// @Success     201  {object}  domain.Reply
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Item not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /reply [post]
func (h *Handlers) ReplyToItem(c *gin.Context) {
	var req ReplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	reply, err := h.itemSvc.Reply(c.Request.Context(), req.ItemID, req.GuestName, req.Message)
	if err != nil {
		failService(c, err, ErrCodeInternal)
		return
	}
	ok(c, http.StatusCreated, reply)
}

// ResolveItem godoc
// @ID          resolveItem
// @Summary     Resolve a help item
// @Description Marks the item resolved and broadcasts the resolution. Resolving an already-resolved item succeeds without effect.
// @Tags        Items
// @Accept      json
//
// @Param       body  body  handlers.ResolveRequest  true  "Resolve payload"
//
// @Success     204  {string}  string  "No Content"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Item not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /resolve [post]
func (h *Handlers) ResolveItem(c *gin.Context) {
	var req ResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	if err := h.itemSvc.Resolve(c.Request.Context(), req.ItemID); err != nil {
		failService(c, err, ErrCodeInternal)
		return
	}
	noContent(c)
}
