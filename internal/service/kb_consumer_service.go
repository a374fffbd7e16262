// FILE: internal/service/kb_consumer_service.go
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"itsm-triage-be/internal/dto"
	"itsm-triage-be/internal/entity"
	"itsm-triage-be/internal/repository/specification"
	"itsm-triage-be/internal/repository/unitofwork"
	"itsm-triage-be/pkg/embedding"
	"itsm-triage-be/pkg/utils"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

type IKbConsumerService interface {
	Consume(ctx context.Context) error
}

type kbConsumerService struct {
	pubSub            *gochannel.GoChannel
	topicName         string
	uowFactory        unitofwork.RepositoryFactory
	embeddingProvider embedding.EmbeddingProvider
}

func NewKbConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	embeddingProvider embedding.EmbeddingProvider,
) IKbConsumerService {
	return &kbConsumerService{
		pubSub:            pubSub,
		topicName:         topicName,
		uowFactory:        uowFactory,
		embeddingProvider: embeddingProvider,
	}
}

func (cs *kbConsumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *kbConsumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.PublishEmbedKbArticleMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		log.Printf("[ERROR] Failed to unmarshal embed message: %v", err)
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	log.Printf("[INFO] Processing KB embedding for ArticleId: %s", payload.ArticleId)

	uow := cs.uowFactory.NewUnitOfWork(ctx)

	article, err := uow.KbArticleRepository().FindOne(ctx, specification.ByID{ID: payload.ArticleId})
	if err != nil {
		log.Printf("[ERROR] Failed to get KB article %s: %v", payload.ArticleId, err)
		msg.Nack() // Nack for retriable errors
		return
	}
	if article == nil {
		log.Printf("[ERROR] KB article not found: %s", payload.ArticleId)
		msg.Ack() // Article deleted? Ack.
		return
	}

	content := fmt.Sprintf("Article Title: %s\nSource: %s\n\n%s", article.Title, article.Source, article.Content)

	// ChunkSize 1500 chars with 200 overlap keeps each chunk well inside
	// embedding model context limits.
	chunks := utils.SplitText(content, 1500, 200)
	log.Printf("[INFO] Article content split into %d chunks", len(chunks))

	var newEmbeddings []*entity.KbEmbedding
	for i, chunk := range chunks {
		res, err := cs.embeddingProvider.Generate(chunk, "RETRIEVAL_DOCUMENT")
		if err != nil {
			log.Printf("[ERROR] Failed to generate embedding for chunk %d of article %s: %v", i, payload.ArticleId, err)
			msg.Nack()
			return
		}

		newEmbeddings = append(newEmbeddings, &entity.KbEmbedding{
			Id:             uuid.New(),
			ArticleId:      article.Id,
			EmbeddingValue: pgvector.NewVector(res.Embedding.Values),
			CreatedAt:      time.Now(),
		})
	}

	if err := uow.Begin(ctx); err != nil {
		log.Printf("[ERROR] Failed to begin transaction: %v", err)
		msg.Nack()
		return
	}
	defer uow.Rollback()

	if err := uow.KbEmbeddingRepository().DeleteByArticleId(ctx, article.Id); err != nil {
		log.Printf("[ERROR] Failed to delete old embeddings: %v", err)
		msg.Nack()
		return
	}

	if len(newEmbeddings) > 0 {
		if err := uow.KbEmbeddingRepository().CreateBulk(ctx, newEmbeddings); err != nil {
			log.Printf("[ERROR] Failed to create bulk embeddings: %v", err)
			msg.Nack()
			return
		}
	}

	if err := uow.Commit(); err != nil {
		log.Printf("[ERROR] Failed to commit transaction: %v", err)
		msg.Nack()
		return
	}

	log.Printf("[SUCCESS] KB article embedded: %d chunks for ArticleId: %s", len(newEmbeddings), payload.ArticleId)
	msg.Ack()
}
