package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

// KbEmbedding stores the vector for one KB article.
type KbEmbedding struct {
	Id             uuid.UUID       `gorm:"type:uuid;primaryKey"`
	ArticleId      uuid.UUID       `gorm:"type:uuid;index"`
	EmbeddingValue pgvector.Vector `gorm:"type:vector(768)"`

	CreatedAt time.Time
	DeletedAt *time.Time
}
