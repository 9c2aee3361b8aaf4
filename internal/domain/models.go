// Package domain defines the persistence models for rooms, help items, and
// replies. These types are mapped with GORM and form the core data layer
// of the help-desk application.
package domain

import (
	"time"

	"gorm.io/gorm"
)

// Help item categories. TypeBlocker is accepted on input but never persisted:
// ItemService remaps it to TypeDoubt before any write or broadcast.
const (
	TypeDoubt   = "doubt"
	TypeBlocker = "blocker"
)

// Help item statuses.
const (
	StatusOpen     = "open"
	StatusResolved = "resolved"
)

// Room represents a short-lived collaboration session identified by a
// generated 4-character code. Rooms own help items and are never deleted
// while a session is live.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - Code: short uppercase alphanumeric join code; unique across all rooms.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
//   - DeletedAt: soft deletion marker (retains row for audit/history).
type Room struct {
	ID        string         `json:"id"         gorm:"type:char(36);primaryKey"`
	Code      string         `json:"code"       gorm:"type:char(4);not null;uniqueIndex:ux_room_code"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"-"`
	DeletedAt gorm.DeletedAt `json:"-"          gorm:"index"`
}

// TableName returns the database table name for Room.
func (Room) TableName() string { return "rooms" }

// HelpItem represents a help request posted by a guest within a room.
// Items transition open → resolved exactly once, and may independently be
// flagged as stale by the background sweeper when left open for too long.
//
// Fields:
//   - ID: UUID primary key (char(36)).
//   - RoomID: foreign key to the owning room (indexed).
//   - GuestName: display name of the guest who posted the item.
//   - Type: item category; "doubt" after the blocker override is applied.
//   - Title / Description: request summary and optional detail.
//   - Status: "open" or "resolved" (enforced by DB constraint).
//   - Flagged: set by the staleness sweeper; one-way, orthogonal to Status.
//   - CreatedAt: UTC creation time; drives both listing order and staleness.
//   - Replies: nested replies, ordered by creation time ascending.
type HelpItem struct {
	ID          string         `json:"id"          gorm:"type:char(36);primaryKey"`
	RoomID      string         `json:"room_id"     gorm:"type:char(36);not null;index:idx_room_items,priority:1"`
	GuestName   string         `json:"guest_name"  gorm:"type:varchar(50);not null"`
	Type        string         `json:"type"        gorm:"type:varchar(20);not null"`
	Title       string         `json:"title"       gorm:"type:varchar(100);not null"`
	Description string         `json:"description" gorm:"type:text"`
	Status      string         `json:"status"      gorm:"type:varchar(20);not null;default:'open';check:status IN ('open','resolved')"`
	Flagged     bool           `json:"flagged"     gorm:"not null;default:false"`
	CreatedAt   time.Time      `json:"created_at"  gorm:"index:idx_room_items,priority:2"`
	UpdatedAt   time.Time      `json:"-"`
	DeletedAt   gorm.DeletedAt `json:"-"           gorm:"index"`

	// Replies are the item's discussion thread. Append-only; cascade-deleted
	// only if the item row itself is ever removed.
	Replies []Reply `json:"replies" gorm:"foreignKey:ItemID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`

	// Room is the owning session.
	Room Room `json:"-" gorm:"foreignKey:RoomID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for HelpItem.
func (HelpItem) TableName() string { return "help_items" }

// Reply represents a single response to a help item. Replies are append-only.
//
// Fields:
//   - ID: UUID primary key (char(36)).
//   - ItemID: foreign key to the owning item (indexed).
//   - GuestName: display name of the replying guest.
//   - Message: reply text.
//   - CreatedAt: UTC creation time; replies are listed ascending.
type Reply struct {
	ID        string         `json:"id"         gorm:"type:char(36);primaryKey"`
	ItemID    string         `json:"item_id"    gorm:"type:char(36);not null;index:idx_item_replies,priority:1"`
	GuestName string         `json:"guest_name" gorm:"type:varchar(50);not null"`
	Message   string         `json:"message"    gorm:"type:text;not null"`
	CreatedAt time.Time      `json:"created_at" gorm:"index:idx_item_replies,priority:2"`
	UpdatedAt time.Time      `json:"-"`
	DeletedAt gorm.DeletedAt `json:"-"          gorm:"index"`
}

// TableName returns the database table name for Reply.
func (Reply) TableName() string { return "replies" }
