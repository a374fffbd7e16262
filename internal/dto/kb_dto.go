package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateKbArticleRequest struct {
	Title    string `json:"title" validate:"required"`
	Content  string `json:"content" validate:"required"`
	Source   string `json:"source,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
	PdfURL   string `json:"pdf_url,omitempty"`
}

type UpdateKbArticleRequest struct {
	Title    string `json:"title" validate:"required"`
	Content  string `json:"content" validate:"required"`
	Source   string `json:"source,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
	PdfURL   string `json:"pdf_url,omitempty"`
}

type KbArticleResponse struct {
	Id        uuid.UUID  `json:"id"`
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	Source    string     `json:"source"`
	ImageURL  string     `json:"image_url,omitempty"`
	PdfURL    string     `json:"pdf_url,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// PublishEmbedKbArticleMessage asks the consumer to (re)embed one
// article.
type PublishEmbedKbArticleMessage struct {
	ArticleId uuid.UUID `json:"article_id"`
}
