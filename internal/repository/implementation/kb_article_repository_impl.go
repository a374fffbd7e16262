package implementation

import (
	"context"
	"errors"
	"time"

	"itsm-triage-be/internal/entity"
	"itsm-triage-be/internal/repository/contract"
	"itsm-triage-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type KbArticleRepositoryImpl struct {
	db *gorm.DB
}

func NewKbArticleRepository(db *gorm.DB) contract.KbArticleRepository {
	return &KbArticleRepositoryImpl{db: db}
}

func (r *KbArticleRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *KbArticleRepositoryImpl) Create(ctx context.Context, article *entity.KbArticle) error {
	if article.Id == uuid.Nil {
		article.Id = uuid.New()
	}
	return r.db.WithContext(ctx).Create(article).Error
}

func (r *KbArticleRepositoryImpl) Update(ctx context.Context, article *entity.KbArticle) error {
	return r.db.WithContext(ctx).Save(article).Error
}

func (r *KbArticleRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	now := time.Now()
	return r.db.WithContext(ctx).Model(&entity.KbArticle{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"deleted_at": &now, "is_deleted": true}).Error
}

func (r *KbArticleRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.KbArticle, error) {
	var m entity.KbArticle
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

func (r *KbArticleRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.KbArticle, error) {
	var articles []*entity.KbArticle
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&articles).Error; err != nil {
		return nil, err
	}
	return articles, nil
}

func (r *KbArticleRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&entity.KbArticle{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
