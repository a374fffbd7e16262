package contract

import (
	"context"

	"itsm-triage-be/internal/entity"
	"itsm-triage-be/internal/repository/specification"

	"github.com/google/uuid"
)

type KbArticleRepository interface {
	Create(ctx context.Context, article *entity.KbArticle) error
	Update(ctx context.Context, article *entity.KbArticle) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.KbArticle, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.KbArticle, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
