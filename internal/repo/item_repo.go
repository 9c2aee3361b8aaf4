// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the HelpItem
// model, including the staleness queries used by the background sweeper.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/MohnishKJ/HelpWave/internal/domain"
)

// CreateItem inserts a new HelpItem row owned by roomID. The item starts
// open and unflagged; CreatedAt is set to UTC. The caller is responsible for
// having applied the category override before persisting.
func CreateItem(ctx context.Context, db *gorm.DB, roomID, guestName, itemType, title, description string) (*domain.HelpItem, error) {
	it := &domain.HelpItem{
		ID:          uuid.NewString(),
		RoomID:      roomID,
		GuestName:   guestName,
		Type:        itemType,
		Title:       title,
		Description: description,
		Status:      domain.StatusOpen,
		CreatedAt:   time.Now().UTC(),
		Replies:     []domain.Reply{},
	}
	if err := db.WithContext(ctx).Create(it).Error; err != nil {
		return nil, err
	}
	return it, nil
}

// GetItem fetches a help item by ID. If the record does not exist, it returns
// ErrNotFound. Replies are not preloaded; use ListRoomItems for the nested view.
func GetItem(ctx context.Context, db *gorm.DB, id string) (*domain.HelpItem, error) {
	var it domain.HelpItem
	if err := db.WithContext(ctx).Where("id = ?", id).First(&it).Error; err != nil {
		return nil, err
	}
	return &it, nil
}

// ListRoomItems returns a room's help items ordered by creation time
// descending (newest first), with replies nested ascending. Items of the
// blocker category are excluded here even though creation already remaps
// them; the read path filters independently so neither layer relies on the
// other.
func ListRoomItems(ctx context.Context, db *gorm.DB, roomID string) ([]domain.HelpItem, error) {
	var out []domain.HelpItem
	err := db.WithContext(ctx).
		Where("room_id = ? AND type <> ?", roomID, domain.TypeBlocker).
		Order("created_at DESC, id DESC").
		Preload("Replies", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("created_at ASC, id ASC")
		}).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	// Keep the wire format stable: replies serialize as [] rather than null.
	for i := range out {
		if out[i].Replies == nil {
			out[i].Replies = []domain.Reply{}
		}
	}
	return out, nil
}

// StaleItemRef identifies a help item due for flagging together with the
// join code of its room, so the sweeper can broadcast without extra lookups.
type StaleItemRef struct {
	ItemID   string
	RoomCode string
}

// ListStaleOpenItems returns references to all open, unflagged items created
// before cutoff, joined to their room's code. On DB error, it returns the
// error.
func ListStaleOpenItems(ctx context.Context, db *gorm.DB, cutoff time.Time) ([]StaleItemRef, error) {
	var out []StaleItemRef
	err := db.WithContext(ctx).
		Model(&domain.HelpItem{}).
		Select("help_items.id AS item_id, rooms.code AS room_code").
		Joins("JOIN rooms ON rooms.id = help_items.room_id").
		Where("help_items.status = ? AND help_items.flagged = ? AND help_items.created_at < ?",
			domain.StatusOpen, false, cutoff).
		Order("help_items.created_at ASC").
		Scan(&out).Error
	return out, err
}

// FlagItems marks the given items as flagged in a single statement. A nil or
// empty id list is a no-op. On DB error, it returns the error.
func FlagItems(ctx context.Context, db *gorm.DB, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return db.WithContext(ctx).
		Model(&domain.HelpItem{}).
		Where("id IN ?", ids).
		Update("flagged", true).Error
}

// ResolveItem transitions an item from open to resolved. The status guard in
// the UPDATE makes the transition atomic: of any number of concurrent calls,
// exactly one observes resolved=true. It returns false without error when the
// item is already resolved (or missing); callers distinguish those via GetItem.
func ResolveItem(ctx context.Context, db *gorm.DB, id string) (bool, error) {
	res := db.WithContext(ctx).
		Model(&domain.HelpItem{}).
		Where("id = ? AND status = ?", id, domain.StatusOpen).
		Update("status", domain.StatusResolved)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
