// Room HTTP handlers.
//
// This file exposes REST endpoints for room lifecycle:
//   - POST /create-room      (allocate a room with a fresh 4-char code)
//   - POST /join-room        (validate a code before connecting)
//   - POST /leave-room       (announce departure to remaining members)
//   - GET  /room-items/{code} (list the room's visible help items)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/MohnishKJ/HelpWave/internal/domain"
	"github.com/MohnishKJ/HelpWave/internal/search"
	"github.com/MohnishKJ/HelpWave/internal/services"
	"github.com/MohnishKJ/HelpWave/internal/utils"
)

//
// Service contracts (context-aware)
//

// RoomService defines room lifecycle operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type RoomService interface {
	// Create allocates a room with a unique join code.
	Create(ctx context.Context) (*domain.Room, error)
	// Join validates that a room with the given code exists.
	Join(ctx context.Context, code string) (*domain.Room, error)
	// Leave announces a guest's departure to the room.
	Leave(ctx context.Context, code, guestName string) error
	// ListItems returns the room's visible help items, newest first.
	ListItems(ctx context.Context, code string) ([]domain.HelpItem, error)
	// SearchItems ranks the room's open items by similarity to query.
	SearchItems(ctx context.Context, code, query string, k int) ([]search.Result, error)
}

// ItemService defines help item operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type ItemService interface {
	// Create persists a help item in the room and announces it.
	Create(ctx context.Context, roomCode, guestName, itemType, title, description string) (*domain.HelpItem, error)
	// Reply appends a reply to an item and announces it.
	Reply(ctx context.Context, itemID, guestName, message string) (*domain.Reply, error)
	// Resolve marks an item resolved; repeat calls are quiet no-ops.
	Resolve(ctx context.Context, itemID string) error
}

//
// Handler wiring
//

// Handlers groups HTTP endpoints for rooms and help items. It depends on
// abstract service interfaces to keep transport concerns separate from
// business logic.
type Handlers struct {
	roomSvc RoomService
	itemSvc ItemService
}

// New constructs and returns a Handlers instance bound to the given services.
func New(roomSvc RoomService, itemSvc ItemService) *Handlers {
	return &Handlers{roomSvc: roomSvc, itemSvc: itemSvc}
}

// failService maps service-layer errors onto HTTP responses. Sentinel
// validation errors become 400s, missing resources 404s, and anything else is
// reported as an internal error under fallbackCode.
func failService(c *gin.Context, err error, fallbackCode string) {
	switch {
	case errors.Is(err, services.ErrRoomNotFound),
		errors.Is(err, services.ErrItemNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, err.Error())
	case errors.Is(err, services.ErrGuestNameRequired),
		errors.Is(err, services.ErrTitleRequired),
		errors.Is(err, services.ErrMessageRequired),
		errors.Is(err, services.ErrInvalidItemType):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	default:
		fail(c, http.StatusInternalServerError, fallbackCode, err.Error())
	}
}

//
// DTOs
//

// JoinRoomRequest is the JSON payload for validating a room code.
type JoinRoomRequest struct {
	// Code is the 4-character join code shown by the host.
	Code string `json:"code" binding:"required" example:"7GQ2"`
}

// LeaveRoomRequest is the JSON payload for leaving a room.
type LeaveRoomRequest struct {
	RoomCode  string `json:"room_code" binding:"required" example:"7GQ2"`
	GuestName string `json:"guest_name" binding:"required" example:"alice"`
}

// ListItemsResponse wraps the room's visible help items.
type ListItemsResponse struct {
	Items []domain.HelpItem `json:"items"`
}

//
// Handlers
//

// CreateRoom godoc
// @ID          createRoom
// @Summary     Create a new room
// @Description Allocates a room with a fresh 4-character join code and returns the room resource.
// @Tags        Rooms
// @Produce     json
//
// @Success     201  {object}  domain.Room
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /create-room [post]
func (h *Handlers) CreateRoom(c *gin.Context) {
	room, err := h.roomSvc.Create(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, err.Error())
		return
	}
	ok(c, http.StatusCreated, room)
}

// JoinRoom godoc
// @ID          joinRoom
// @Summary     Join a room
// @Description Validates the join code and returns the room resource. Realtime membership is announced over the WebSocket connection.
// @Tags        Rooms
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.JoinRoomRequest  true  "Join payload"
//
// @Success     200  {object}  domain.Room
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Room not found"
// @Router      /join-room [post]
func (h *Handlers) JoinRoom(c *gin.Context) {
	var req JoinRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	room, err := h.roomSvc.Join(c.Request.Context(), normalizeCode(req.Code))
	if err != nil {
		failService(c, err, ErrCodeInternal)
		return
	}
	ok(c, http.StatusOK, room)
}

// LeaveRoom godoc
// @ID          leaveRoom
// @Summary     Leave a room
// @Description Announces the guest's departure to the room's remaining members.
// @Tags        Rooms
// @Accept      json
//
// @Param       body  body  handlers.LeaveRoomRequest  true  "Leave payload"
//
// @Success     204  {string}  string  "No Content"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Room not found"
// @Router      /leave-room [post]
func (h *Handlers) LeaveRoom(c *gin.Context) {
	var req LeaveRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	if err := h.roomSvc.Leave(c.Request.Context(), normalizeCode(req.RoomCode), strings.TrimSpace(req.GuestName)); err != nil {
		failService(c, err, ErrCodeInternal)
		return
	}
	noContent(c)
}

// ListRoomItems godoc
// @ID          listRoomItems
// @Summary     List a room's help items
// @Description Returns the room's visible help items, newest first, with replies nested oldest first.
// @Tags        Rooms
// @Produce     json
//
// @Param       code  path  string  true  "Room join code"  example(7GQ2)
//
// @Success     200  {object}  handlers.ListItemsResponse
// @Failure     404  {object}  handlers.ErrorResponse  "Room not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /room-items/{code} [get]
func (h *Handlers) ListRoomItems(c *gin.Context) {
	items, err := h.roomSvc.ListItems(c.Request.Context(), normalizeCode(c.Param("code")))
	if err != nil {
		failService(c, err, ErrCodeListFailed)
		return
	}
	ok(c, http.StatusOK, ListItemsResponse{Items: items})
}

// SearchItemsResponse wraps ranked matches for a similarity search.
type SearchItemsResponse struct {
	Results []search.Result `json:"results"`
}

// SearchRoomItems godoc
// @ID          searchRoomItems
// @Summary     Search a room's open items
// @Description Ranks the room's open help items by similarity to the query, so guests can check whether their question was already asked.
// @Tags        Rooms
// @Produce     json
//
// @Param       code  path   string  true   "Room join code"  example(7GQ2)
// @Param       q     query  string  true   "Search query"    example(migration fails)
// @Param       k     query  int     false  "Max results"     default(3)
//
// @Success     200  {object}  handlers.SearchItemsResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Room not found"
// @Router      /search-items/{code} [get]
func (h *Handlers) SearchRoomItems(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "query parameter q is required")
		return
	}
	k := utils.AtoiDefault(c.Query("k"), 3)

	results, err := h.roomSvc.SearchItems(c.Request.Context(), normalizeCode(c.Param("code")), query, k)
	if err != nil {
		failService(c, err, ErrCodeListFailed)
		return
	}
	if results == nil {
		results = []search.Result{}
	}
	ok(c, http.StatusOK, SearchItemsResponse{Results: results})
}

// normalizeCode uppercases and trims a join code so lookups are
// case-insensitive at the transport edge.
func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
