package implementation

import (
	"context"
	"errors"

	"itsm-triage-be/internal/entity"
	"itsm-triage-be/internal/repository/contract"
	"itsm-triage-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ConversationMessageRepositoryImpl struct {
	db *gorm.DB
}

func NewConversationMessageRepository(db *gorm.DB) contract.ConversationMessageRepository {
	return &ConversationMessageRepositoryImpl{db: db}
}

func (r *ConversationMessageRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *ConversationMessageRepositoryImpl) Create(ctx context.Context, message *entity.ConversationMessage) error {
	if message.Id == uuid.Nil {
		message.Id = uuid.New()
	}
	return r.db.WithContext(ctx).Create(message).Error
}

func (r *ConversationMessageRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&entity.ConversationMessage{}, id).Error
}

func (r *ConversationMessageRepositoryImpl) DeleteByConversationId(ctx context.Context, conversationId string) error {
	return r.db.WithContext(ctx).Where("conversation_id = ?", conversationId).Delete(&entity.ConversationMessage{}).Error
}

func (r *ConversationMessageRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ConversationMessage, error) {
	var m entity.ConversationMessage
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

func (r *ConversationMessageRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ConversationMessage, error) {
	var messages []*entity.ConversationMessage
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&messages).Error; err != nil {
		return nil, err
	}
	return messages, nil
}

func (r *ConversationMessageRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&entity.ConversationMessage{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
