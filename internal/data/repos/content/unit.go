package content

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	domain "github.com/yungbote/eigo-backend/internal/domain/content"
	"github.com/yungbote/eigo-backend/internal/pkg/dbctx"
	"github.com/yungbote/eigo-backend/internal/pkg/logger"
)

type UnitRepo interface {
	Create(dbc dbctx.Context, units []*domain.Unit) ([]*domain.Unit, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*domain.Unit, error)
	ListByChapterIDs(dbc dbctx.Context, chapterIDs []uuid.UUID) ([]*domain.Unit, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	DeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error
}

type unitRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUnitRepo(db *gorm.DB, baseLog *logger.Logger) UnitRepo {
	return &unitRepo{
		db:  db,
		log: baseLog.With("repo", "UnitRepo"),
	}
}

func (r *unitRepo) Create(dbc dbctx.Context, units []*domain.Unit) ([]*domain.Unit, error) {
	if len(units) == 0 {
		return units, nil
	}
	for _, u := range units {
		if u.ID == uuid.Nil {
			u.ID = uuid.New()
		}
	}
	if err := dbc.DB(r.db).Create(&units).Error; err != nil {
		return nil, err
	}
	return units, nil
}

func (r *unitRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*domain.Unit, error) {
	var out []*domain.Unit
	if len(ids) == 0 {
		return out, nil
	}
	if err := dbc.DB(r.db).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *unitRepo) ListByChapterIDs(dbc dbctx.Context, chapterIDs []uuid.UUID) ([]*domain.Unit, error) {
	var out []*domain.Unit
	if len(chapterIDs) == 0 {
		return out, nil
	}
	if err := dbc.DB(r.db).
		Where("chapter_id IN ?", chapterIDs).
		Order("chapter_id ASC, sort_order ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *unitRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	return updateFields(dbc.DB(r.db), &domain.Unit{}, id, updates)
}

func (r *unitRepo) DeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return dbc.DB(r.db).Where("id IN ?", ids).Delete(&domain.Unit{}).Error
}
