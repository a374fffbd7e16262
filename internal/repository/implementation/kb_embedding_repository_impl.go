package implementation

import (
	"context"
	"errors"

	"itsm-triage-be/internal/entity"
	"itsm-triage-be/internal/repository/contract"
	"itsm-triage-be/internal/repository/specification"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type KbEmbeddingRepositoryImpl struct {
	db *gorm.DB
}

func NewKbEmbeddingRepository(db *gorm.DB) contract.KbEmbeddingRepository {
	return &KbEmbeddingRepositoryImpl{db: db}
}

func (r *KbEmbeddingRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *KbEmbeddingRepositoryImpl) Create(ctx context.Context, embedding *entity.KbEmbedding) error {
	if embedding.Id == uuid.Nil {
		embedding.Id = uuid.New()
	}
	return r.db.WithContext(ctx).Create(embedding).Error
}

func (r *KbEmbeddingRepositoryImpl) CreateBulk(ctx context.Context, embeddings []*entity.KbEmbedding) error {
	for _, e := range embeddings {
		if e.Id == uuid.Nil {
			e.Id = uuid.New()
		}
	}
	return r.db.WithContext(ctx).Create(embeddings).Error
}

func (r *KbEmbeddingRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&entity.KbEmbedding{}, id).Error
}

func (r *KbEmbeddingRepositoryImpl) DeleteByArticleId(ctx context.Context, articleId uuid.UUID) error {
	return r.db.WithContext(ctx).Where("article_id = ?", articleId).Delete(&entity.KbEmbedding{}).Error
}

func (r *KbEmbeddingRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.KbEmbedding, error) {
	var m entity.KbEmbedding
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

func (r *KbEmbeddingRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.KbEmbedding, error) {
	var embeddings []*entity.KbEmbedding
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&embeddings).Error; err != nil {
		return nil, err
	}
	return embeddings, nil
}

// SearchSimilarWithScore returns the top nearest embeddings with similarity
// scores. Cosine distance in pgvector is 1 - cosine_similarity, so we compute
// 1 - (embedding_value <=> query_vector) to get the similarity back. No
// minimum-similarity cutoff: downstream reasoning decides relevance, the
// score is advisory.
func (r *KbEmbeddingRepositoryImpl) SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int) ([]*contract.ScoredKbEmbedding, error) {
	if limit <= 0 {
		limit = 5
	}

	type result struct {
		entity.KbEmbedding
		Similarity float64
	}
	var results []result

	queryVector := pgvector.NewVector(embedding)

	err := r.db.WithContext(ctx).
		Table("kb_embeddings").
		Select("kb_embeddings.*, 1 - (embedding_value <=> ?) as similarity", queryVector).
		Joins("JOIN kb_articles ON kb_articles.id = kb_embeddings.article_id").
		Where("kb_embeddings.deleted_at IS NULL").
		Where("kb_articles.deleted_at IS NULL").
		Order("similarity DESC").
		Limit(limit).
		Scan(&results).Error

	if err != nil {
		return nil, err
	}

	scored := make([]*contract.ScoredKbEmbedding, len(results))
	for i, res := range results {
		e := res.KbEmbedding
		scored[i] = &contract.ScoredKbEmbedding{
			Embedding:  &e,
			Similarity: res.Similarity,
		}
	}
	return scored, nil
}
