package unitofwork

import (
	"context"

	"itsm-triage-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	ConversationMessageRepository() contract.ConversationMessageRepository
	TriageAuditRepository() contract.TriageAuditRepository
	KbArticleRepository() contract.KbArticleRepository
	KbEmbeddingRepository() contract.KbEmbeddingRepository
}
