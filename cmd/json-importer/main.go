// cmd/json-importer imports verse files into the database without starting
// the server. Usage: json-importer [dir]  (defaults to VERSES_DIR or ./verses)
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"biblereader/booknames"
	"biblereader/config"
	"biblereader/database"
	"biblereader/services"

	"github.com/joho/godotenv"
	"gorm.io/gorm/logger"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	driver, dsn, err := config.DatabaseFromEnv()
	if err != nil {
		log.Fatal(err)
	}
	db, err := database.Open(driver, dsn, logger.Warn)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	if err := database.RunMigrations(db); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	dir := os.Getenv("VERSES_DIR")
	if len(os.Args) > 1 {
		dir = os.Args[1]
	}
	if dir == "" {
		dir = "./verses"
	}

	store := services.NewVerseStore(db)
	loader := services.NewVerseLoader(store, booknames.Default())
	result, err := loader.LoadDirectory(context.Background(), dir)
	if err != nil {
		log.Fatal("Import failed:", err)
	}

	fmt.Printf("\n✓ Imported %d verses from %d files (%d lines skipped)\n", result.Verses, result.Files, result.Skipped)
	for _, w := range result.Warnings {
		fmt.Println("  -", w)
	}

	stats, err := store.Stats(context.Background())
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("✓ Total verses in database: %d (%d translations)\n", stats.Verses, stats.Translations)
}
