package content

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	domain "github.com/yungbote/eigo-backend/internal/domain/content"
	"github.com/yungbote/eigo-backend/internal/pkg/dbctx"
	"github.com/yungbote/eigo-backend/internal/pkg/logger"
)

type ChapterRepo interface {
	Create(dbc dbctx.Context, chapters []*domain.Chapter) ([]*domain.Chapter, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*domain.Chapter, error)
	ListByMaterial(dbc dbctx.Context, materialID uuid.UUID) ([]*domain.Chapter, error)
	// SetParent moves a chapter under parent (nil = root) at sort_order 0, a value
	// no contiguous sibling list uses. The caller renumbers afterwards.
	SetParent(dbc dbctx.Context, id uuid.UUID, parent *uuid.UUID) error
	SetLevels(dbc dbctx.Context, levels map[uuid.UUID]int) error
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	DeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error
}

type chapterRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewChapterRepo(db *gorm.DB, baseLog *logger.Logger) ChapterRepo {
	return &chapterRepo{
		db:  db,
		log: baseLog.With("repo", "ChapterRepo"),
	}
}

func (r *chapterRepo) Create(dbc dbctx.Context, chapters []*domain.Chapter) ([]*domain.Chapter, error) {
	if len(chapters) == 0 {
		return chapters, nil
	}
	for _, c := range chapters {
		if c.ID == uuid.Nil {
			c.ID = uuid.New()
		}
	}
	if err := dbc.DB(r.db).Create(&chapters).Error; err != nil {
		return nil, err
	}
	return chapters, nil
}

func (r *chapterRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*domain.Chapter, error) {
	var out []*domain.Chapter
	if len(ids) == 0 {
		return out, nil
	}
	if err := dbc.DB(r.db).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *chapterRepo) ListByMaterial(dbc dbctx.Context, materialID uuid.UUID) ([]*domain.Chapter, error) {
	var out []*domain.Chapter
	if err := dbc.DB(r.db).
		Where("material_id = ?", materialID).
		Order("level ASC, sort_order ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *chapterRepo) SetParent(dbc dbctx.Context, id uuid.UUID, parent *uuid.UUID) error {
	db := dbc.DB(r.db)
	if err := db.Model(&domain.Chapter{}).Where("id = ?", id).UpdateColumn("sort_order", 0).Error; err != nil {
		return err
	}
	return db.Model(&domain.Chapter{}).Where("id = ?", id).Updates(map[string]interface{}{
		"parent_chapter_id": parent,
	}).Error
}

func (r *chapterRepo) SetLevels(dbc dbctx.Context, levels map[uuid.UUID]int) error {
	db := dbc.DB(r.db)
	for id, level := range levels {
		if err := db.Model(&domain.Chapter{}).Where("id = ?", id).UpdateColumn("level", level).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *chapterRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	return updateFields(dbc.DB(r.db), &domain.Chapter{}, id, updates)
}

func (r *chapterRepo) DeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return dbc.DB(r.db).Where("id IN ?", ids).Delete(&domain.Chapter{}).Error
}
