// Package services – ItemService
//
// This file implements ItemService, the component that owns the lifecycle of
// help items and their replies: creation (with the blocker-to-doubt type
// override), threaded replies, and idempotent resolution. Every successful
// mutation is announced to the item's room through the Broadcaster.
//
// Observability: public methods are OpenTelemetry-instrumented; spans carry
// room/item identifiers.
package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/MohnishKJ/HelpWave/internal/domain"
	"github.com/MohnishKJ/HelpWave/internal/repo"
)

// ItemService coordinates help item persistence and realtime announcements.
type ItemService struct {
	DB  *gorm.DB
	Hub Broadcaster
}

// Create validates input, applies the type override and persists a new help
// item in the room identified by roomCode. Items submitted as "blocker" are
// stored as "doubt"; blockers are surfaced to hosts through other channels
// and never appear in the shared board. The full item is broadcast to the
// room as item_created.
func (s *ItemService) Create(ctx context.Context, roomCode, guestName, itemType, title, description string) (*domain.HelpItem, error) {
	tr := otel.Tracer("services/ItemService")
	ctx, span := tr.Start(ctx, "Create",
		trace.WithAttributes(attribute.String("room.code", roomCode)),
	)
	defer span.End()

	guestName = strings.TrimSpace(guestName)
	title = strings.TrimSpace(title)
	if guestName == "" {
		return nil, ErrGuestNameRequired
	}
	if title == "" {
		return nil, ErrTitleRequired
	}
	switch itemType {
	case domain.TypeDoubt:
	case domain.TypeBlocker:
		itemType = domain.TypeDoubt
	default:
		return nil, ErrInvalidItemType
	}

	room, err := repo.GetRoomByCode(ctx, s.DB, roomCode)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}

	item, err := repo.CreateItem(ctx, s.DB, room.ID, guestName, itemType, title, strings.TrimSpace(description))
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("item.id", item.ID))

	s.Hub.Publish(room.Code, EventItemCreated, item)
	return item, nil
}

// Reply appends a reply to an existing item and broadcasts item_replied to
// the item's room.
func (s *ItemService) Reply(ctx context.Context, itemID, guestName, message string) (*domain.Reply, error) {
	tr := otel.Tracer("services/ItemService")
	ctx, span := tr.Start(ctx, "Reply",
		trace.WithAttributes(attribute.String("item.id", itemID)),
	)
	defer span.End()

	guestName = strings.TrimSpace(guestName)
	message = strings.TrimSpace(message)
	if guestName == "" {
		return nil, ErrGuestNameRequired
	}
	if message == "" {
		return nil, ErrMessageRequired
	}

	item, room, err := s.itemWithRoom(ctx, itemID)
	if err != nil {
		return nil, err
	}

	reply, err := repo.CreateReply(ctx, s.DB, item.ID, guestName, message)
	if err != nil {
		return nil, err
	}

	s.Hub.Publish(room.Code, EventItemReplied, ItemReplied{ItemID: item.ID, Reply: reply})
	return reply, nil
}

// Resolve marks an item resolved and broadcasts item_resolved. Resolving an
// already-resolved item is a successful no-op and emits nothing, so clients
// racing on the resolve button do not produce duplicate events.
func (s *ItemService) Resolve(ctx context.Context, itemID string) error {
	tr := otel.Tracer("services/ItemService")
	ctx, span := tr.Start(ctx, "Resolve",
		trace.WithAttributes(attribute.String("item.id", itemID)),
	)
	defer span.End()

	item, room, err := s.itemWithRoom(ctx, itemID)
	if err != nil {
		return err
	}

	// The guarded UPDATE decides who broadcasts: only the call that actually
	// flips open to resolved emits the event, even under concurrent resolves.
	resolved, err := repo.ResolveItem(ctx, s.DB, item.ID)
	if err != nil {
		return err
	}
	if !resolved {
		return nil
	}

	s.Hub.Publish(room.Code, EventItemResolved, ItemRef{ItemID: item.ID})
	return nil
}

// itemWithRoom loads an item together with its owning room, mapping missing
// records to the service-level sentinels.
func (s *ItemService) itemWithRoom(ctx context.Context, itemID string) (*domain.HelpItem, *domain.Room, error) {
	item, err := repo.GetItem(ctx, s.DB, itemID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, nil, ErrItemNotFound
		}
		return nil, nil, err
	}
	room, err := repo.GetRoom(ctx, s.DB, item.RoomID)
	if err != nil {
		return nil, nil, err
	}
	return item, room, nil
}
