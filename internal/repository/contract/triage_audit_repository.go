package contract

import (
	"context"

	"itsm-triage-be/internal/entity"
	"itsm-triage-be/internal/repository/specification"
)

type TriageAuditRepository interface {
	Create(ctx context.Context, audit *entity.TriageAudit) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.TriageAudit, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
