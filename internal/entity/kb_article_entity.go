package entity

import (
	"time"

	"github.com/google/uuid"
)

// KbArticle is one knowledge-base document (text chunk or screenshot
// extracted from a procedure guide).
type KbArticle struct {
	Id       uuid.UUID `gorm:"type:uuid;primaryKey"`
	Title    string
	Content  string
	Source   string
	ImageURL string
	PdfURL   string

	CreatedAt time.Time
	UpdatedAt *time.Time
	DeletedAt *time.Time
	IsDeleted bool
}
