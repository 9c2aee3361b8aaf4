package services

import "github.com/MohnishKJ/HelpWave/internal/domain"

// Broadcaster publishes realtime events to every connection subscribed to a
// room. The concrete implementation lives in the ws package; services depend
// only on this narrow contract so they can be tested with a fake.
type Broadcaster interface {
	Publish(roomCode, event string, payload any)
}

// Realtime event names emitted by the service layer.
const (
	EventItemCreated  = "item_created"
	EventItemReplied  = "item_replied"
	EventItemResolved = "item_resolved"
	EventItemFlagged  = "item_flagged"
	EventUserLeft     = "user_left"
)

// ItemRef is the payload for events that reference an item by id only
// (item_resolved, item_flagged).
type ItemRef struct {
	ItemID string `json:"item_id"`
}

// ItemReplied is the payload for the item_replied event: the parent item id
// plus the freshly persisted reply.
type ItemReplied struct {
	ItemID string        `json:"item_id"`
	Reply  *domain.Reply `json:"reply"`
}

// UserLeft is the payload for the user_left event emitted when a guest
// leaves a room through the HTTP surface.
type UserLeft struct {
	GuestName string `json:"guest_name"`
}
