package main

import (
	"log"
	"os"

	"itsm-triage-be/internal/entity"
	"itsm-triage-be/pkg/database"

	"github.com/joho/godotenv"
)

func main() {
	// 1. Load Environment Variables
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	// 2. Connect to Database using existing GORM helpers
	db, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	log.Println("Starting Authoritative GORM Migration...")

	// 3. Pre-Migration: Extensions (Things GORM AutoMigrate doesn't do)
	log.Println("Step 1: Setting up Extensions...")

	setupSQL := []string{
		`CREATE EXTENSION IF NOT EXISTS pgcrypto;`,
		`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
		`CREATE EXTENSION IF NOT EXISTS vector;`,
	}

	for _, sql := range setupSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to execute setup SQL: %v. Continuing...", err)
		}
	}

	// 4. AutoMigrate All Entities (The Core Task)
	log.Println("Step 2: Running AutoMigrate...")

	entities := []interface{}{
		&entity.KbArticle{},
		&entity.KbEmbedding{},
		&entity.ConversationMessage{},
		&entity.TriageAudit{},
	}

	if err := db.AutoMigrate(entities...); err != nil {
		log.Fatalf("Error: AutoMigrate failed: %v", err)
	}

	// 5. Post-Migration: Indexes the vector search path depends on
	log.Println("Step 3: Creating Indexes...")

	postMigrationSQL := []string{
		// ANN index for cosine similarity search over KB chunks
		`CREATE INDEX IF NOT EXISTS idx_kb_embeddings_embedding_value
		 ON kb_embeddings USING ivfflat (embedding_value vector_cosine_ops) WITH (lists = 100);`,

		// History loads are always (conversation_id, newest first)
		`CREATE INDEX IF NOT EXISTS idx_conversation_messages_conv_created
		 ON conversation_messages (conversation_id, created_at DESC);`,

		`CREATE INDEX IF NOT EXISTS idx_triage_audits_conversation
		 ON triage_audits (conversation_id, created_at DESC);`,
	}

	for _, sql := range postMigrationSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to execute post-migration SQL: %v", err)
		}
	}

	log.Println("✅ Success: Database migration completed successfully via GORM.")
}
