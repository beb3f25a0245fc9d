package main

import (
	"log"
	"os"

	"legal-intake-be/internal/model"
	"legal-intake-be/pkg/database"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	log.Println("Running AutoMigrate...")
	if err := db.AutoMigrate(&model.ConversationContext{}); err != nil {
		log.Fatalf("Error: AutoMigrate failed: %v", err)
	}

	// Contexts are looked up by team when support staff review a team's queue.
	if err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_conversation_contexts_updated_at ON conversation_contexts (organization_id, updated_at DESC);`).Error; err != nil {
		log.Printf("Warn: Failed to create updated_at index: %v", err)
	}

	log.Println("Migration complete.")
}
