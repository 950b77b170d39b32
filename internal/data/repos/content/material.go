package content

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	domain "github.com/yungbote/eigo-backend/internal/domain/content"
	"github.com/yungbote/eigo-backend/internal/pkg/dbctx"
	"github.com/yungbote/eigo-backend/internal/pkg/logger"
)

type MaterialRepo interface {
	Create(dbc dbctx.Context, materials []*domain.Material) ([]*domain.Material, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*domain.Material, error)
	List(dbc dbctx.Context) ([]*domain.Material, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	DeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error
}

type materialRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMaterialRepo(db *gorm.DB, baseLog *logger.Logger) MaterialRepo {
	return &materialRepo{
		db:  db,
		log: baseLog.With("repo", "MaterialRepo"),
	}
}

func (r *materialRepo) Create(dbc dbctx.Context, materials []*domain.Material) ([]*domain.Material, error) {
	if len(materials) == 0 {
		return materials, nil
	}
	for _, m := range materials {
		if m.ID == uuid.Nil {
			m.ID = uuid.New()
		}
	}
	if err := dbc.DB(r.db).Create(&materials).Error; err != nil {
		return nil, err
	}
	return materials, nil
}

func (r *materialRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*domain.Material, error) {
	var out []*domain.Material
	if len(ids) == 0 {
		return out, nil
	}
	if err := dbc.DB(r.db).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *materialRepo) List(dbc dbctx.Context) ([]*domain.Material, error) {
	var out []*domain.Material
	if err := dbc.DB(r.db).Order("sort_order ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *materialRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	return updateFields(dbc.DB(r.db), &domain.Material{}, id, updates)
}

func (r *materialRepo) DeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return dbc.DB(r.db).Where("id IN ?", ids).Delete(&domain.Material{}).Error
}

// updateFields applies updates to one row and reports gorm.ErrRecordNotFound when nothing matched.
func updateFields(db *gorm.DB, model interface{}, id uuid.UUID, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	res := db.Model(model).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
