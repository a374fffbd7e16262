package entity

import (
	"time"

	"github.com/google/uuid"

	"gorm.io/datatypes"
)

// TriageAudit is the persisted record of one enforced triage turn.
// KbUsed/KbSufficient are post-enforcement values and therefore
// trustworthy for reporting, independent of what the model claimed.
type TriageAudit struct {
	Id             uuid.UUID `gorm:"type:uuid;primaryKey"`
	ConversationId string    `gorm:"index"`

	Priority string
	Category string
	Team     string
	Status   string
	Summary  string

	KbUsed       bool
	KbHitsCount  int
	KbSufficient bool

	Final       bool
	ToolResults datatypes.JSON `gorm:"type:jsonb"`
	KbResults   datatypes.JSON `gorm:"type:jsonb"`

	CreatedAt time.Time
}
