// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Reply model.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/MohnishKJ/HelpWave/internal/domain"
)

// CreateReply appends a new reply to the given item. The reply ID is a
// randomly generated UUID (string), and CreatedAt is set to UTC.
func CreateReply(ctx context.Context, db *gorm.DB, itemID, guestName, message string) (*domain.Reply, error) {
	r := &domain.Reply{
		ID:        uuid.NewString(),
		ItemID:    itemID,
		GuestName: guestName,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(r).Error; err != nil {
		return nil, err
	}
	return r, nil
}

// ListReplies returns an item's replies ordered by creation time ascending.
func ListReplies(ctx context.Context, db *gorm.DB, itemID string) ([]domain.Reply, error) {
	var out []domain.Reply
	err := db.WithContext(ctx).
		Where("item_id = ?", itemID).
		Order("created_at ASC, id ASC").
		Find(&out).Error
	return out, err
}
