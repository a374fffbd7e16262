// FILE: internal/service/kb_service.go
package service

import (
	"context"
	"encoding/json"
	"time"

	"itsm-triage-be/internal/dto"
	"itsm-triage-be/internal/entity"
	"itsm-triage-be/internal/repository/specification"
	"itsm-triage-be/internal/repository/unitofwork"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IKbService interface {
	Create(ctx context.Context, req *dto.CreateKbArticleRequest) (*dto.KbArticleResponse, error)
	Show(ctx context.Context, id uuid.UUID) (*dto.KbArticleResponse, error)
	List(ctx context.Context, limit, offset int) ([]*dto.KbArticleResponse, error)
	Update(ctx context.Context, id uuid.UUID, req *dto.UpdateKbArticleRequest) (*dto.KbArticleResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type kbService struct {
	uowFactory       unitofwork.RepositoryFactory
	publisherService IPublisherService
}

func NewKbService(
	uowFactory unitofwork.RepositoryFactory,
	publisherService IPublisherService,
) IKbService {
	return &kbService{
		uowFactory:       uowFactory,
		publisherService: publisherService,
	}
}

func (s *kbService) Create(ctx context.Context, req *dto.CreateKbArticleRequest) (*dto.KbArticleResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	article := entity.KbArticle{
		Id:        uuid.New(),
		Title:     req.Title,
		Content:   req.Content,
		Source:    req.Source,
		ImageURL:  req.ImageURL,
		PdfURL:    req.PdfURL,
		CreatedAt: time.Now(),
	}

	if err := uow.KbArticleRepository().Create(ctx, &article); err != nil {
		return nil, err
	}

	if err := s.publishEmbed(ctx, article.Id); err != nil {
		return nil, err
	}

	return toKbArticleResponse(&article), nil
}

func (s *kbService) Show(ctx context.Context, id uuid.UUID) (*dto.KbArticleResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	article, err := uow.KbArticleRepository().FindOne(ctx, specification.ByID{ID: id}, specification.NotDeleted{})
	if err != nil {
		return nil, err
	}
	if article == nil {
		return nil, fiber.NewError(fiber.StatusNotFound, "KB article not found")
	}
	return toKbArticleResponse(article), nil
}

func (s *kbService) List(ctx context.Context, limit, offset int) ([]*dto.KbArticleResponse, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	uow := s.uowFactory.NewUnitOfWork(ctx)
	articles, err := uow.KbArticleRepository().FindAll(
		ctx,
		specification.NotDeleted{},
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: limit, Offset: offset},
	)
	if err != nil {
		return nil, err
	}

	responses := make([]*dto.KbArticleResponse, len(articles))
	for i, article := range articles {
		responses[i] = toKbArticleResponse(article)
	}
	return responses, nil
}

func (s *kbService) Update(ctx context.Context, id uuid.UUID, req *dto.UpdateKbArticleRequest) (*dto.KbArticleResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	article, err := uow.KbArticleRepository().FindOne(ctx, specification.ByID{ID: id}, specification.NotDeleted{})
	if err != nil {
		return nil, err
	}
	if article == nil {
		return nil, fiber.NewError(fiber.StatusNotFound, "KB article not found")
	}

	now := time.Now()
	article.Title = req.Title
	article.Content = req.Content
	article.Source = req.Source
	article.ImageURL = req.ImageURL
	article.PdfURL = req.PdfURL
	article.UpdatedAt = &now

	if err := uow.KbArticleRepository().Update(ctx, article); err != nil {
		return nil, err
	}

	// Content changed, so the stored vectors are stale.
	if err := s.publishEmbed(ctx, article.Id); err != nil {
		return nil, err
	}

	return toKbArticleResponse(article), nil
}

func (s *kbService) Delete(ctx context.Context, id uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.KbArticleRepository().Delete(ctx, id); err != nil {
		return err
	}
	if err := uow.KbEmbeddingRepository().DeleteByArticleId(ctx, id); err != nil {
		return err
	}

	return uow.Commit()
}

func (s *kbService) publishEmbed(ctx context.Context, articleId uuid.UUID) error {
	msgPayload := dto.PublishEmbedKbArticleMessage{
		ArticleId: articleId,
	}
	msgJson, err := json.Marshal(msgPayload)
	if err != nil {
		return err
	}
	return s.publisherService.Publish(ctx, msgJson)
}

func toKbArticleResponse(article *entity.KbArticle) *dto.KbArticleResponse {
	return &dto.KbArticleResponse{
		Id:        article.Id,
		Title:     article.Title,
		Content:   article.Content,
		Source:    article.Source,
		ImageURL:  article.ImageURL,
		PdfURL:    article.PdfURL,
		CreatedAt: article.CreatedAt,
		UpdatedAt: article.UpdatedAt,
	}
}
