package contract

import (
	"context"

	"itsm-triage-be/internal/entity"
	"itsm-triage-be/internal/repository/specification"

	"github.com/google/uuid"
)

// ScoredKbEmbedding wraps KbEmbedding with its similarity score
type ScoredKbEmbedding struct {
	Embedding  *entity.KbEmbedding
	Similarity float64 // 0.0 to 1.0 (1.0 = identical)
}

type KbEmbeddingRepository interface {
	Create(ctx context.Context, embedding *entity.KbEmbedding) error
	CreateBulk(ctx context.Context, embeddings []*entity.KbEmbedding) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByArticleId(ctx context.Context, articleId uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.KbEmbedding, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.KbEmbedding, error)
	// SearchSimilarWithScore returns the nearest embeddings with their
	// similarity scores, ordered most similar first. Scores are advisory
	// context for the caller, never a filter.
	SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int) ([]*ScoredKbEmbedding, error)
}
