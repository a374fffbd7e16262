package integration

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"itsm-triage-be/internal/entity"
	"itsm-triage-be/internal/repository/specification"
	"itsm-triage-be/internal/repository/unitofwork"
	"itsm-triage-be/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/pgvector/pgvector-go"
	"github.com/stretchr/testify/assert"
)

func TestGormConnection(t *testing.T) {
	// Load .env from root
	err := godotenv.Load("../../.env")
	if err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	gormDB, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		t.Fatalf("Failed to connect to DB: %v", err)
	}

	// Verify Wiring
	uowFactory := unitofwork.NewRepositoryFactory(gormDB)
	uow := uowFactory.NewUnitOfWork(context.Background())

	assert.NotNil(t, uow.KbArticleRepository())
	assert.NotNil(t, uow.ConversationMessageRepository())

	// Basic Ping
	sqlDB, _ := gormDB.DB()
	err = sqlDB.Ping()
	assert.NoError(t, err)
	t.Log("Successfully connected to DB and initialized UnitOfWork Factory")

	// Verify Data Access (implies columns exist)
	t.Run("Check KB Article Repository", func(t *testing.T) {
		count, err := uow.KbArticleRepository().Count(context.Background())
		assert.NoError(t, err)
		t.Logf("KB article count: %d", count)
	})

	t.Run("Check Triage Audit Repository", func(t *testing.T) {
		count, err := uow.TriageAuditRepository().Count(context.Background())
		assert.NoError(t, err)
		t.Logf("Triage audit count: %d", count)
	})

	t.Run("Check Transactional Article Embedding", func(t *testing.T) {
		articleId := uuid.New()
		article := &entity.KbArticle{
			Id:        articleId,
			Title:     "Integration Test Article",
			Content:   "Restart the print spooler service and retry.",
			Source:    "it-" + uuid.New().String(),
			CreatedAt: time.Now(),
		}

		err := uow.KbArticleRepository().Create(context.Background(), article)
		assert.NoError(t, err)

		// Transaction Test: re-embed must replace old vectors atomically
		ctx := context.Background()
		err = uow.Begin(ctx)
		assert.NoError(t, err)
		defer uow.Rollback()

		err = uow.KbEmbeddingRepository().DeleteByArticleId(ctx, articleId)
		assert.NoError(t, err)

		embedding := &entity.KbEmbedding{
			Id:             uuid.New(),
			ArticleId:      articleId,
			EmbeddingValue: pgvector.NewVector(make([]float32, 768)),
			CreatedAt:      time.Now(),
		}
		err = uow.KbEmbeddingRepository().CreateBulk(ctx, []*entity.KbEmbedding{embedding})
		assert.NoError(t, err)

		err = uow.Commit()
		assert.NoError(t, err)

		found, err := uow.KbEmbeddingRepository().FindAll(ctx, specification.ByID{ID: embedding.Id})
		assert.NoError(t, err)
		assert.Len(t, found, 1)

		t.Log("Successfully created Article with Embedding in Transaction")
	})

	t.Run("Check Conversation Message Round Trip", func(t *testing.T) {
		ctx := context.Background()
		conversationId := "it-conv-" + uuid.New().String()

		msg := &entity.ConversationMessage{
			Id:             uuid.New(),
			ConversationId: conversationId,
			Role:           "user",
			Content:        "my vpn keeps dropping",
			CreatedAt:      time.Now(),
		}
		err := uow.ConversationMessageRepository().Create(ctx, msg)
		assert.NoError(t, err)

		loaded, err := uow.ConversationMessageRepository().FindAll(
			ctx,
			specification.ByConversationID{ConversationID: conversationId},
		)
		assert.NoError(t, err)
		assert.Len(t, loaded, 1)
		assert.Equal(t, "my vpn keeps dropping", loaded[0].Content)

		err = uow.ConversationMessageRepository().DeleteByConversationId(ctx, conversationId)
		assert.NoError(t, err)
	})
}
