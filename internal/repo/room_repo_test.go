package repo

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/MohnishKJ/HelpWave/internal/domain"
)

// newRepoDB opens a throwaway SQLite database and migrates the given models.
func newRepoDB(t *testing.T, migrate ...any) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("repo_test_%d.db", time.Now().UnixNano()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	// Ensure the file handle is released before TempDir cleanup (Windows needs this).
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	if len(migrate) > 0 {
		if err := db.AutoMigrate(migrate...); err != nil {
			t.Fatalf("automigrate: %v", err)
		}
	}
	return db
}

func TestCreateRoom_Error_NoTable(t *testing.T) {
	db := newRepoDB(t /* no migrations */)
	room, err := CreateRoom(context.Background(), db, "AB12")
	if err == nil || room != nil {
		t.Fatalf("expected error creating without table, got room=%v err=%v", room, err)
	}
}

func TestCreateRoom_Success_PersistsAndSetsFields(t *testing.T) {
	db := newRepoDB(t, &domain.Room{})

	start := time.Now().UTC().Add(-time.Minute)
	room, err := CreateRoom(context.Background(), db, "AB12")
	if err != nil {
		t.Fatalf("CreateRoom: %v", err)
	}
	if room.ID == "" || room.Code != "AB12" {
		t.Fatalf("unexpected Room fields: %+v", room)
	}
	if room.CreatedAt.Before(start) {
		t.Fatalf("CreatedAt seems unset/really old: %v", room.CreatedAt)
	}
	// round-trip
	var got domain.Room
	if err := db.First(&got, "id = ?", room.ID).Error; err != nil {
		t.Fatalf("load created room: %v", err)
	}
	if got.Code != "AB12" {
		t.Fatalf("round-trip mismatch: %+v", got)
	}
}

func TestCreateRoom_DuplicateCodeRejected(t *testing.T) {
	db := newRepoDB(t, &domain.Room{})

	if _, err := CreateRoom(context.Background(), db, "XY9Z"); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if _, err := CreateRoom(context.Background(), db, "XY9Z"); err == nil {
		t.Fatalf("expected unique index violation for duplicate code")
	}
}

func TestGetRoomByCode_FoundAndNotFound(t *testing.T) {
	db := newRepoDB(t, &domain.Room{})

	if _, err := GetRoomByCode(context.Background(), db, "NOPE"); err == nil {
		t.Fatalf("expected ErrRecordNotFound for missing room")
	}

	created, err := CreateRoom(context.Background(), db, "GH77")
	if err != nil {
		t.Fatalf("CreateRoom: %v", err)
	}
	got, err := GetRoomByCode(context.Background(), db, "GH77")
	if err != nil {
		t.Fatalf("GetRoomByCode: %v", err)
	}
	if got.ID != created.ID {
		t.Fatalf("unexpected room: %+v", got)
	}
}

func TestGetRoom_ByID(t *testing.T) {
	db := newRepoDB(t, &domain.Room{})

	created, err := CreateRoom(context.Background(), db, "ID01")
	if err != nil {
		t.Fatalf("CreateRoom: %v", err)
	}

	got, err := GetRoom(context.Background(), db, created.ID)
	if err != nil {
		t.Fatalf("GetRoom: %v", err)
	}
	if got.Code != "ID01" {
		t.Fatalf("unexpected room: %+v", got)
	}

	if _, err := GetRoom(context.Background(), db, "missing"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRoomCodeExists(t *testing.T) {
	db := newRepoDB(t, &domain.Room{})

	exists, err := RoomCodeExists(context.Background(), db, "AAAA")
	if err != nil {
		t.Fatalf("RoomCodeExists: %v", err)
	}
	if exists {
		t.Fatalf("expected no room yet")
	}

	if _, err := CreateRoom(context.Background(), db, "AAAA"); err != nil {
		t.Fatalf("CreateRoom: %v", err)
	}
	exists, err = RoomCodeExists(context.Background(), db, "AAAA")
	if err != nil {
		t.Fatalf("RoomCodeExists: %v", err)
	}
	if !exists {
		t.Fatalf("expected room code to exist")
	}
}
