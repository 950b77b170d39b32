package content

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/eigo-backend/internal/domain/aggregates"
	"github.com/yungbote/eigo-backend/internal/pkg/validate"
)

// Chapter is a node in a material's chapter tree. Root chapters have no parent and level 0.
// Sibling uniqueness of sort_order is enforced by partial indexes created in the db package.
// Material and Parent exist only to declare foreign keys; they are never loaded.
type Chapter struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	MaterialID      uuid.UUID  `gorm:"type:uuid;not null;index;column:material_id" json:"material_id"`
	ParentChapterID *uuid.UUID `gorm:"type:uuid;index;column:parent_chapter_id" json:"parent_chapter_id,omitempty"`
	Level           int        `gorm:"not null;default:0;column:level" json:"level" validate:"gte=0"`
	Name            string     `gorm:"not null;column:name" json:"name" validate:"notblank,max=200"`
	Description     string     `gorm:"column:description" json:"description" validate:"max=4000"`
	Order           int        `gorm:"not null;column:sort_order" json:"order"`

	Material *Material `gorm:"foreignKey:MaterialID;constraint:OnDelete:RESTRICT" json:"-" validate:"-"`
	Parent   *Chapter  `gorm:"foreignKey:ParentChapterID;constraint:OnDelete:RESTRICT" json:"-" validate:"-"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Chapter) TableName() string { return "chapters" }

func (c Chapter) OrderedID() uuid.UUID { return c.ID }

func (c Chapter) IsRoot() bool { return c.ParentChapterID == nil }

// NewChapter builds a chapter under material, optionally below parent.
// parent, when given, must belong to the same material.
func NewChapter(materialID uuid.UUID, parent *Chapter, name, description string) (Chapter, error) {
	const op = "content.NewChapter"
	if materialID == uuid.Nil {
		return Chapter{}, aggregates.Validation(op, "material_id", "material_id is required")
	}
	c := Chapter{
		ID:          uuid.New(),
		MaterialID:  materialID,
		Name:        strings.TrimSpace(name),
		Description: strings.TrimSpace(description),
	}
	if parent != nil {
		if parent.MaterialID != materialID {
			return Chapter{}, aggregates.InvalidHierarchy(op, "parent chapter belongs to a different material")
		}
		pid := parent.ID
		c.ParentChapterID = &pid
		c.Level = parent.Level + 1
	}
	if err := validate.Struct(op, c); err != nil {
		return Chapter{}, err
	}
	return c, nil
}
