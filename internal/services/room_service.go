// Package services – RoomService
//
// This file implements RoomService, the application-level component that owns
// the lifecycle of rooms: allocating short join codes, validating joins and
// leaves, and listing a room's visible help items.
//
// Room codes are 4-character uppercase alphanumerics generated from
// crypto/rand. Uniqueness is enforced twice: an existence pre-check before
// insert, and the unique index on rooms.code as the authoritative backstop
// when two creations race on the same code.
package services

import (
	"context"
	"crypto/rand"
	"errors"

	"gorm.io/gorm"

	"github.com/MohnishKJ/HelpWave/internal/domain"
	"github.com/MohnishKJ/HelpWave/internal/repo"
	"github.com/MohnishKJ/HelpWave/internal/search"
)

const (
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength   = 4

	// maxCodeAttempts bounds collision retries during room creation. With a
	// 36^4 code space this only trips when the table is nearly saturated or
	// the DB is persistently failing.
	maxCodeAttempts = 16
)

// RoomService coordinates room creation, membership-facing validation and
// item listing.
type RoomService struct {
	DB  *gorm.DB
	Hub Broadcaster

	// CodeGen produces candidate join codes. Nil means RandomCode. Tests
	// inject a deterministic generator here.
	CodeGen func() string
}

// RandomCode returns a random 4-character room code drawn from the uppercase
// alphanumeric alphabet using crypto/rand.
func RandomCode() string {
	buf := make([]byte, codeLength)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms; treat it as fatal.
		panic(err)
	}
	for i, b := range buf {
		buf[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(buf)
}

// Create allocates a unique room code and persists a new room. It retries on
// code collisions (both against the pre-check and the unique index) and
// returns ErrCodeExhausted if no free code is found within the attempt budget.
func (s *RoomService) Create(ctx context.Context) (*domain.Room, error) {
	gen := s.CodeGen
	if gen == nil {
		gen = RandomCode
	}

	var lastErr error
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code := gen()

		exists, err := repo.RoomCodeExists(ctx, s.DB, code)
		if err != nil {
			return nil, err
		}
		if exists {
			continue
		}

		room, err := repo.CreateRoom(ctx, s.DB, code)
		if err == nil {
			return room, nil
		}
		// Lost a race on the unique index; pick another code.
		lastErr = err
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, ErrCodeExhausted
}

// Join validates that a room with the given code exists and returns it.
// Realtime membership is tracked separately by the registry when the guest's
// WebSocket connection announces itself; Join only answers "is this code
// real" for the HTTP handshake.
func (s *RoomService) Join(ctx context.Context, code string) (*domain.Room, error) {
	room, err := repo.GetRoomByCode(ctx, s.DB, code)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}
	return room, nil
}

// Leave validates the room and notifies remaining members that the guest has
// left. The registry handles the membership roster itself; this event exists
// so clients can render "X left" without diffing rosters.
func (s *RoomService) Leave(ctx context.Context, code, guestName string) error {
	if guestName == "" {
		return ErrGuestNameRequired
	}
	if _, err := s.Join(ctx, code); err != nil {
		return err
	}
	s.Hub.Publish(code, EventUserLeft, UserLeft{GuestName: guestName})
	return nil
}

// ListItems returns the room's visible help items, newest first, with replies
// preloaded. Blocker-typed rows are excluded from the listing.
func (s *RoomService) ListItems(ctx context.Context, code string) ([]domain.HelpItem, error) {
	room, err := s.Join(ctx, code)
	if err != nil {
		return nil, err
	}
	return repo.ListRoomItems(ctx, s.DB, room.ID)
}

// minSimilarity filters out items that share only a stray word with the query.
const minSimilarity = 0.05

// SearchItems returns up to k of the room's open items ranked by similarity
// to query, so guests can check whether their question was already asked.
// The index is rebuilt per call; rooms are small and short-lived, so this
// stays cheap.
func (s *RoomService) SearchItems(ctx context.Context, code, query string, k int) ([]search.Result, error) {
	items, err := s.ListItems(ctx, code)
	if err != nil {
		return nil, err
	}

	docs := make([]search.Doc, 0, len(items))
	for _, it := range items {
		if it.Status != domain.StatusOpen {
			continue
		}
		docs = append(docs, search.Doc{
			ID:    it.ID,
			Title: it.Title,
			Text:  it.Title + " " + it.Description,
		})
	}
	idx := search.NewIndexFromDocs(docs, search.WithMinScore(minSimilarity))
	return idx.TopK(query, k), nil
}
