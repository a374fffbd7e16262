package implementation

import (
	"context"

	"itsm-triage-be/internal/entity"
	"itsm-triage-be/internal/repository/contract"
	"itsm-triage-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TriageAuditRepositoryImpl struct {
	db *gorm.DB
}

func NewTriageAuditRepository(db *gorm.DB) contract.TriageAuditRepository {
	return &TriageAuditRepositoryImpl{db: db}
}

func (r *TriageAuditRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *TriageAuditRepositoryImpl) Create(ctx context.Context, audit *entity.TriageAudit) error {
	if audit.Id == uuid.Nil {
		audit.Id = uuid.New()
	}
	return r.db.WithContext(ctx).Create(audit).Error
}

func (r *TriageAuditRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.TriageAudit, error) {
	var audits []*entity.TriageAudit
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&audits).Error; err != nil {
		return nil, err
	}
	return audits, nil
}

func (r *TriageAuditRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&entity.TriageAudit{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
