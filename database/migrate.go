// database/migrate.go - Database Migration Runner
package database

import (
	"log"

	"biblereader/models"

	"gorm.io/gorm"
)

// RunMigrations creates or updates every reader table.
func RunMigrations(conn *gorm.DB) error {
	log.Println("🔄 Running database migrations...")

	if err := conn.AutoMigrate(
		&models.Verse{},
		&models.CachedChapter{},
		&models.ShareLink{},
		&models.AdminUser{},
	); err != nil {
		return err
	}

	createIndexes(conn)

	log.Println("✅ All migrations completed successfully")
	return nil
}

func createIndexes(conn *gorm.DB) {
	conn.Exec("CREATE INDEX IF NOT EXISTS idx_verses_chapter ON verses(translation, book, chapter)")
	conn.Exec("CREATE INDEX IF NOT EXISTS idx_share_links_expires ON share_links(expires_at)")
}
