package content

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/eigo-backend/internal/domain/aggregates"
	"github.com/yungbote/eigo-backend/internal/pkg/validate"
)

type Unit struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ChapterID   uuid.UUID `gorm:"type:uuid;not null;column:chapter_id;uniqueIndex:idx_unit_order,priority:1" json:"chapter_id"`
	Name        string    `gorm:"not null;column:name" json:"name" validate:"notblank,max=200"`
	Description string    `gorm:"column:description" json:"description" validate:"max=4000"`
	Order       int       `gorm:"not null;column:sort_order;uniqueIndex:idx_unit_order,priority:2" json:"order"`

	Chapter *Chapter `gorm:"foreignKey:ChapterID;constraint:OnDelete:RESTRICT" json:"-" validate:"-"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Unit) TableName() string { return "units" }

func (u Unit) OrderedID() uuid.UUID { return u.ID }

func NewUnit(chapterID uuid.UUID, name, description string) (Unit, error) {
	if chapterID == uuid.Nil {
		return Unit{}, aggregates.Validation("content.NewUnit", "chapter_id", "chapter_id is required")
	}
	u := Unit{
		ID:          uuid.New(),
		ChapterID:   chapterID,
		Name:        strings.TrimSpace(name),
		Description: strings.TrimSpace(description),
	}
	if err := validate.Struct("content.NewUnit", u); err != nil {
		return Unit{}, err
	}
	return u, nil
}
