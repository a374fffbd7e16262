package kb

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"

	"itsm-triage-be/internal/entity"
	"itsm-triage-be/internal/repository/contract"
	"itsm-triage-be/internal/repository/specification"
	"itsm-triage-be/internal/repository/unitofwork"
	"itsm-triage-be/pkg/embedding"

	"github.com/google/uuid"
)

type fakeEmbeddingProvider struct {
	err error
}

func (f *fakeEmbeddingProvider) Generate(text string, taskType string) (*embedding.EmbeddingResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &embedding.EmbeddingResponse{
		Embedding: embedding.EmbeddingResponseEmbedding{Values: make([]float32, 768)},
	}, nil
}

type fakeEmbeddingRepo struct {
	contract.KbEmbeddingRepository
	scored []*contract.ScoredKbEmbedding
	err    error
}

func (r *fakeEmbeddingRepo) SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int) ([]*contract.ScoredKbEmbedding, error) {
	return r.scored, r.err
}

type fakeArticleRepo struct {
	contract.KbArticleRepository
	articles []*entity.KbArticle
	err      error
}

func (r *fakeArticleRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.KbArticle, error) {
	return r.articles, r.err
}

type fakeUnitOfWork struct {
	embeddings *fakeEmbeddingRepo
	articles   *fakeArticleRepo
}

func (u *fakeUnitOfWork) Begin(ctx context.Context) error { return nil }
func (u *fakeUnitOfWork) Commit() error                   { return nil }
func (u *fakeUnitOfWork) Rollback() error                 { return nil }
func (u *fakeUnitOfWork) ConversationMessageRepository() contract.ConversationMessageRepository {
	return nil
}
func (u *fakeUnitOfWork) TriageAuditRepository() contract.TriageAuditRepository { return nil }
func (u *fakeUnitOfWork) KbArticleRepository() contract.KbArticleRepository     { return u.articles }
func (u *fakeUnitOfWork) KbEmbeddingRepository() contract.KbEmbeddingRepository {
	return u.embeddings
}

type fakeFactory struct {
	uow unitofwork.UnitOfWork
}

func (f *fakeFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return f.uow
}

func newTestSearcher(scored []*contract.ScoredKbEmbedding, articles []*entity.KbArticle) *VectorSearcher {
	factory := &fakeFactory{uow: &fakeUnitOfWork{
		embeddings: &fakeEmbeddingRepo{scored: scored},
		articles:   &fakeArticleRepo{articles: articles},
	}}
	return NewVectorSearcher(factory, &fakeEmbeddingProvider{}, log.New(io.Discard, "", 0))
}

func scoredRow(articleId uuid.UUID, similarity float64) *contract.ScoredKbEmbedding {
	return &contract.ScoredKbEmbedding{
		Embedding:  &entity.KbEmbedding{Id: uuid.New(), ArticleId: articleId},
		Similarity: similarity,
	}
}

func TestSearchKeepsLowSimilarityHits(t *testing.T) {
	vpnId := uuid.New()
	printerId := uuid.New()
	searcher := newTestSearcher(
		[]*contract.ScoredKbEmbedding{
			scoredRow(vpnId, 0.12),
			scoredRow(printerId, 0.05),
		},
		[]*entity.KbArticle{
			{Id: vpnId, Title: "VPN setup", Content: "...", Source: "KB0001"},
			{Id: printerId, Title: "Printer offline", Content: "...", Source: "KB0004"},
		},
	)

	result := searcher.Search(context.Background(), "vpn keeps dropping", 5, nil)

	if result.HitCount != 2 {
		t.Fatalf("expected both nearest articles regardless of score, got %d hits", result.HitCount)
	}
	if result.Hits[0].Score != 0.12 || result.Hits[1].Score != 0.05 {
		t.Errorf("expected advisory scores carried through, got %.2f and %.2f", result.Hits[0].Score, result.Hits[1].Score)
	}
}

func TestSearchOrdersHitsBySimilarity(t *testing.T) {
	outlookId := uuid.New()
	vpnId := uuid.New()
	passwordId := uuid.New()
	searcher := newTestSearcher(
		[]*contract.ScoredKbEmbedding{
			scoredRow(vpnId, 0.91),
			scoredRow(passwordId, 0.44),
			scoredRow(outlookId, 0.08),
		},
		// Hydration returns rows in database id order, not rank order.
		[]*entity.KbArticle{
			{Id: outlookId, Title: "Outlook profile repair"},
			{Id: passwordId, Title: "Password reset"},
			{Id: vpnId, Title: "VPN setup"},
		},
	)

	result := searcher.Search(context.Background(), "cannot connect to vpn", 3, nil)

	if result.HitCount != 3 {
		t.Fatalf("expected 3 hits, got %d", result.HitCount)
	}
	wantTitles := []string{"VPN setup", "Password reset", "Outlook profile repair"}
	for i, want := range wantTitles {
		if result.Hits[i].Title != want {
			t.Errorf("hit %d: expected %q, got %q", i, want, result.Hits[i].Title)
		}
	}
	for i := 1; i < len(result.Hits); i++ {
		if result.Hits[i].Score > result.Hits[i-1].Score {
			t.Errorf("hits not in descending similarity order at index %d", i)
		}
	}
}

func TestSearchSkipsRowsWithoutHydratedArticle(t *testing.T) {
	liveId := uuid.New()
	deletedId := uuid.New()
	searcher := newTestSearcher(
		[]*contract.ScoredKbEmbedding{
			scoredRow(deletedId, 0.8),
			scoredRow(liveId, 0.6),
		},
		[]*entity.KbArticle{
			{Id: liveId, Title: "Password reset"},
		},
	)

	result := searcher.Search(context.Background(), "locked out of account", 5, nil)

	if result.HitCount != 1 {
		t.Fatalf("expected 1 hit, got %d", result.HitCount)
	}
	if result.Hits[0].Title != "Password reset" {
		t.Errorf("expected surviving article, got %q", result.Hits[0].Title)
	}
}

func TestSearchEmptyQueryIsMiss(t *testing.T) {
	searcher := newTestSearcher(nil, nil)

	result := searcher.Search(context.Background(), "", 5, nil)

	if result.HitCount != 0 || len(result.Hits) != 0 {
		t.Errorf("expected miss for empty query, got %d hits", result.HitCount)
	}
}

func TestSearchDegradesToMissOnBackendFailure(t *testing.T) {
	factory := &fakeFactory{uow: &fakeUnitOfWork{
		embeddings: &fakeEmbeddingRepo{err: errors.New("connection refused")},
		articles:   &fakeArticleRepo{},
	}}
	searcher := NewVectorSearcher(factory, &fakeEmbeddingProvider{}, log.New(io.Discard, "", 0))

	result := searcher.Search(context.Background(), "vpn down", 5, nil)

	if result.HitCount != 0 {
		t.Errorf("expected miss on backend failure, got %d hits", result.HitCount)
	}
}
