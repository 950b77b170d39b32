package content

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	domain "github.com/yungbote/eigo-backend/internal/domain/content"
	"github.com/yungbote/eigo-backend/internal/pkg/dbctx"
	"github.com/yungbote/eigo-backend/internal/pkg/logger"
)

type CorrectAnswerRepo interface {
	Create(dbc dbctx.Context, answers []*domain.CorrectAnswer) ([]*domain.CorrectAnswer, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*domain.CorrectAnswer, error)
	ListByQuestionIDs(dbc dbctx.Context, questionIDs []uuid.UUID) ([]*domain.CorrectAnswer, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	DeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error
	DeleteByQuestionIDs(dbc dbctx.Context, questionIDs []uuid.UUID) error
}

type correctAnswerRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCorrectAnswerRepo(db *gorm.DB, baseLog *logger.Logger) CorrectAnswerRepo {
	return &correctAnswerRepo{
		db:  db,
		log: baseLog.With("repo", "CorrectAnswerRepo"),
	}
}

func (r *correctAnswerRepo) Create(dbc dbctx.Context, answers []*domain.CorrectAnswer) ([]*domain.CorrectAnswer, error) {
	if len(answers) == 0 {
		return answers, nil
	}
	for _, a := range answers {
		if a.ID == uuid.Nil {
			a.ID = uuid.New()
		}
	}
	if err := dbc.DB(r.db).Create(&answers).Error; err != nil {
		return nil, err
	}
	return answers, nil
}

func (r *correctAnswerRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*domain.CorrectAnswer, error) {
	var out []*domain.CorrectAnswer
	if len(ids) == 0 {
		return out, nil
	}
	if err := dbc.DB(r.db).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *correctAnswerRepo) ListByQuestionIDs(dbc dbctx.Context, questionIDs []uuid.UUID) ([]*domain.CorrectAnswer, error) {
	var out []*domain.CorrectAnswer
	if len(questionIDs) == 0 {
		return out, nil
	}
	if err := dbc.DB(r.db).
		Where("question_id IN ?", questionIDs).
		Order("question_id ASC, sort_order ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *correctAnswerRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	return updateFields(dbc.DB(r.db), &domain.CorrectAnswer{}, id, updates)
}

func (r *correctAnswerRepo) DeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return dbc.DB(r.db).Where("id IN ?", ids).Delete(&domain.CorrectAnswer{}).Error
}

func (r *correctAnswerRepo) DeleteByQuestionIDs(dbc dbctx.Context, questionIDs []uuid.UUID) error {
	if len(questionIDs) == 0 {
		return nil
	}
	return dbc.DB(r.db).Where("question_id IN ?", questionIDs).Delete(&domain.CorrectAnswer{}).Error
}
