// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Room model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a room is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated. In particular, inserting a duplicate
//     room code fails on the unique index; the service layer retries code
//     generation on that path.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/MohnishKJ/HelpWave/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// CreateRoom inserts a new Room row with the given join code. The room ID is
// a randomly generated UUID (string), and CreatedAt is set to UTC.
//
// On success, it returns the persisted Room. On failure (including a unique
// index violation when the code already exists), it returns a DB error.
func CreateRoom(ctx context.Context, db *gorm.DB, code string) (*domain.Room, error) {
	r := &domain.Room{
		ID:        uuid.NewString(),
		Code:      code,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(r).Error; err != nil {
		return nil, err
	}
	return r, nil
}

// GetRoomByCode fetches a room by its join code. If the record does not
// exist, it returns ErrNotFound. On other DB errors, the raw error is
// returned.
func GetRoomByCode(ctx context.Context, db *gorm.DB, code string) (*domain.Room, error) {
	var r domain.Room
	err := db.WithContext(ctx).
		Where("code = ?", code).
		First(&r).Error
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// GetRoom fetches a room by its primary key. If the record does not exist,
// it returns ErrNotFound.
func GetRoom(ctx context.Context, db *gorm.DB, id string) (*domain.Room, error) {
	var r domain.Room
	err := db.WithContext(ctx).
		Where("id = ?", id).
		First(&r).Error
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// RoomCodeExists reports whether a room already uses the given code.
// On DB error, it returns the error.
func RoomCodeExists(ctx context.Context, db *gorm.DB, code string) (bool, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.Room{}).
		Where("code = ?", code).
		Count(&n).Error
	return n > 0, err
}
