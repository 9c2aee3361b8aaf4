// Package services contains the application/business layer for rooms and
// help items. It sits between the HTTP/WebSocket transports and the repo
// layer: services validate input, enforce domain rules (type overrides,
// idempotent resolution, staleness flagging), and emit realtime events
// through a Broadcaster.
//
// This file defines the sentinel errors shared across services so that
// handlers can map them to stable HTTP status codes with errors.Is.
package services

import "errors"

// Sentinel errors returned by the service layer. Handlers translate these
// into HTTP responses; anything else is treated as an internal error.
var (
	// ErrRoomNotFound indicates the referenced room code does not exist.
	ErrRoomNotFound = errors.New("room not found")

	// ErrItemNotFound indicates the referenced help item does not exist.
	ErrItemNotFound = errors.New("item not found")

	// ErrGuestNameRequired indicates a blank guest name on an operation
	// that attributes content to a person.
	ErrGuestNameRequired = errors.New("guest name is required")

	// ErrTitleRequired indicates a blank title on item creation.
	ErrTitleRequired = errors.New("title is required")

	// ErrMessageRequired indicates a blank reply message.
	ErrMessageRequired = errors.New("message is required")

	// ErrInvalidItemType indicates an item type outside the supported set.
	ErrInvalidItemType = errors.New("invalid item type")

	// ErrCodeExhausted indicates room code generation kept colliding with
	// existing codes and gave up.
	ErrCodeExhausted = errors.New("could not allocate a unique room code")
)
