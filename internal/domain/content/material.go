package content

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/eigo-backend/internal/pkg/validate"
)

type Material struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string    `gorm:"not null;column:name" json:"name" validate:"notblank,max=200"`
	Description string    `gorm:"column:description" json:"description" validate:"max=4000"`
	Order       int       `gorm:"not null;column:sort_order;uniqueIndex:idx_material_order" json:"order"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Material) TableName() string { return "materials" }

func (m Material) OrderedID() uuid.UUID { return m.ID }

// NewMaterial validates the editable fields. Order is assigned by the hierarchy service.
func NewMaterial(name, description string) (Material, error) {
	m := Material{
		ID:          uuid.New(),
		Name:        strings.TrimSpace(name),
		Description: strings.TrimSpace(description),
	}
	if err := validate.Struct("content.NewMaterial", m); err != nil {
		return Material{}, err
	}
	return m, nil
}
