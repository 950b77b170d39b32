package content

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	domain "github.com/yungbote/eigo-backend/internal/domain/content"
	"github.com/yungbote/eigo-backend/internal/pkg/dbctx"
	"github.com/yungbote/eigo-backend/internal/pkg/logger"
)

type QuestionRepo interface {
	Create(dbc dbctx.Context, questions []*domain.Question) ([]*domain.Question, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*domain.Question, error)
	ListByUnitIDs(dbc dbctx.Context, unitIDs []uuid.UUID) ([]*domain.Question, error)
	CountByUnitIDs(dbc dbctx.Context, unitIDs []uuid.UUID) (map[uuid.UUID]int, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	DeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error
}

type questionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewQuestionRepo(db *gorm.DB, baseLog *logger.Logger) QuestionRepo {
	return &questionRepo{
		db:  db,
		log: baseLog.With("repo", "QuestionRepo"),
	}
}

func (r *questionRepo) Create(dbc dbctx.Context, questions []*domain.Question) ([]*domain.Question, error) {
	if len(questions) == 0 {
		return questions, nil
	}
	for _, q := range questions {
		if q.ID == uuid.Nil {
			q.ID = uuid.New()
		}
	}
	if err := dbc.DB(r.db).Create(&questions).Error; err != nil {
		return nil, err
	}
	return questions, nil
}

func (r *questionRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*domain.Question, error) {
	var out []*domain.Question
	if len(ids) == 0 {
		return out, nil
	}
	if err := dbc.DB(r.db).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *questionRepo) ListByUnitIDs(dbc dbctx.Context, unitIDs []uuid.UUID) ([]*domain.Question, error) {
	var out []*domain.Question
	if len(unitIDs) == 0 {
		return out, nil
	}
	if err := dbc.DB(r.db).
		Where("unit_id IN ?", unitIDs).
		Order("unit_id ASC, sort_order ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *questionRepo) CountByUnitIDs(dbc dbctx.Context, unitIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	out := make(map[uuid.UUID]int, len(unitIDs))
	if len(unitIDs) == 0 {
		return out, nil
	}
	var rows []struct {
		UnitID uuid.UUID
		N      int
	}
	if err := dbc.DB(r.db).
		Model(&domain.Question{}).
		Select("unit_id, COUNT(*) AS n").
		Where("unit_id IN ?", unitIDs).
		Group("unit_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.UnitID] = row.N
	}
	return out, nil
}

func (r *questionRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	return updateFields(dbc.DB(r.db), &domain.Question{}, id, updates)
}

func (r *questionRepo) DeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return dbc.DB(r.db).Where("id IN ?", ids).Delete(&domain.Question{}).Error
}
