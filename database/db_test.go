package database

import (
	"testing"

	"biblereader/models"

	"gorm.io/gorm/logger"
)

func TestOpenSQLiteAndMigrate(t *testing.T) {
	conn, err := Open("sqlite", ":memory:", logger.Silent)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := RunMigrations(conn); err != nil {
		t.Fatalf("RunMigrations: %v", err)
	}

	for _, table := range []any{&models.Verse{}, &models.CachedChapter{}, &models.ShareLink{}, &models.AdminUser{}} {
		if !conn.Migrator().HasTable(table) {
			t.Errorf("missing table for %T", table)
		}
	}

	v := models.Verse{Translation: "KJV", Book: "John", Chapter: 3, Number: 16, Text: "For God so loved the world"}
	if err := conn.Create(&v).Error; err != nil {
		t.Fatalf("create verse: %v", err)
	}
	dup := v
	dup.ID = 0
	if err := conn.Create(&dup).Error; err == nil {
		t.Error("expected unique violation for a second copy of the same verse")
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	if _, err := Open("mysql", "x", logger.Silent); err == nil {
		t.Fatal("expected error")
	}
}
