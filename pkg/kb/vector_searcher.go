package kb

import (
	"context"
	"log"

	"itsm-triage-be/internal/entity"
	"itsm-triage-be/internal/repository/specification"
	"itsm-triage-be/internal/repository/unitofwork"
	"itsm-triage-be/pkg/embedding"

	"github.com/google/uuid"
)

// VectorSearcher runs semantic search over the KB embedding table.
// It never returns an error: embedding or database failures are logged
// and surfaced to the caller as a KB miss, so a broken search backend
// degrades the conversation instead of killing it.
//
// Results are the top-K nearest articles by cosine similarity, most
// similar first. The score travels with each hit as context for the
// reasoning layer; it is never used here to drop results.
type VectorSearcher struct {
	factory           unitofwork.RepositoryFactory
	embeddingProvider embedding.EmbeddingProvider
	logger            *log.Logger
}

var _ Searcher = &VectorSearcher{}

func NewVectorSearcher(
	factory unitofwork.RepositoryFactory,
	embeddingProvider embedding.EmbeddingProvider,
	logger *log.Logger,
) *VectorSearcher {
	return &VectorSearcher{
		factory:           factory,
		embeddingProvider: embeddingProvider,
		logger:            logger,
	}
}

// Search embeds the query, finds the nearest KB articles and hydrates
// them into hits. The image payload is accepted for parity with callers
// that receive screenshots; retrieval is text-only, so it only widens
// logging today.
func (s *VectorSearcher) Search(ctx context.Context, query string, topK int, image []byte) *QueryResult {
	if query == "" {
		return Miss()
	}
	if len(image) > 0 {
		s.logger.Printf("[SEARCH] Query carries an image attachment (%d bytes), searching on text only", len(image))
	}

	embeddingRes, err := s.embeddingProvider.Generate(query, "RETRIEVAL_QUERY")
	if err != nil {
		s.logger.Printf("[ERROR] KB embedding generation failed: %v", err)
		return Miss()
	}

	uow := s.factory.NewUnitOfWork(ctx)

	scored, err := uow.KbEmbeddingRepository().SearchSimilarWithScore(
		ctx,
		embeddingRes.Embedding.Values,
		topK,
	)
	if err != nil {
		s.logger.Printf("[ERROR] KB vector search failed: %v", err)
		return Miss()
	}

	if len(scored) == 0 {
		s.logger.Printf("[SEARCH] KB is empty, no articles to search")
		return Miss()
	}

	articleIds := make([]uuid.UUID, 0, len(scored))
	for _, sc := range scored {
		articleIds = append(articleIds, sc.Embedding.ArticleId)
	}

	articles, err := uow.KbArticleRepository().FindAll(
		ctx,
		specification.ByIDs{IDs: articleIds},
		specification.NotDeleted{},
	)
	if err != nil {
		s.logger.Printf("[ERROR] KB article hydration failed: %v", err)
		return Miss()
	}

	byId := make(map[uuid.UUID]*entity.KbArticle, len(articles))
	for _, article := range articles {
		byId[article.Id] = article
	}

	// Walk the scored rows, not the hydrated set, so hits keep the
	// similarity ranking the database produced.
	hits := make([]KnowledgeHit, 0, len(scored))
	for _, sc := range scored {
		article, ok := byId[sc.Embedding.ArticleId]
		if !ok {
			continue
		}
		hits = append(hits, hitFromArticle(article, sc.Similarity))
	}

	if len(hits) == 0 {
		return Miss()
	}

	s.logger.Printf("[SEARCH] KB returned %d hits for query (topK=%d)", len(hits), topK)

	return &QueryResult{
		HitCount: len(hits),
		Hits:     hits,
	}
}

func hitFromArticle(article *entity.KbArticle, score float64) KnowledgeHit {
	return KnowledgeHit{
		Title:    article.Title,
		Content:  article.Content,
		Source:   article.Source,
		Score:    score,
		ImageURL: article.ImageURL,
		PdfURL:   article.PdfURL,
	}
}
