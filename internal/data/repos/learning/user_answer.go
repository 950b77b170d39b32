package learning

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	domain "github.com/yungbote/eigo-backend/internal/domain/learning"
	"github.com/yungbote/eigo-backend/internal/pkg/dbctx"
	"github.com/yungbote/eigo-backend/internal/pkg/logger"
)

type UserAnswerRepo interface {
	Create(dbc dbctx.Context, answers []*domain.UserAnswer) ([]*domain.UserAnswer, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*domain.UserAnswer, error)
	// ListByAccountAndQuestions returns newest first.
	ListByAccountAndQuestions(dbc dbctx.Context, accountID uuid.UUID, questionIDs []uuid.UUID) ([]*domain.UserAnswer, error)
	UpdateMark(dbc dbctx.Context, id uuid.UUID, isCorrect bool) error
	DeleteByQuestionIDs(dbc dbctx.Context, questionIDs []uuid.UUID) error
}

type userAnswerRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserAnswerRepo(db *gorm.DB, baseLog *logger.Logger) UserAnswerRepo {
	repoLog := baseLog.With("repo", "UserAnswerRepo")
	return &userAnswerRepo{db: db, log: repoLog}
}

func (r *userAnswerRepo) Create(dbc dbctx.Context, answers []*domain.UserAnswer) ([]*domain.UserAnswer, error) {
	if len(answers) == 0 {
		return []*domain.UserAnswer{}, nil
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

func (r *userAnswerRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*domain.UserAnswer, error) {
	var results []*domain.UserAnswer
	if len(ids) == 0 {
		return results, nil
	}
	if err := dbc.DB(r.db).Where("id IN ?", ids).Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *userAnswerRepo) ListByAccountAndQuestions(dbc dbctx.Context, accountID uuid.UUID, questionIDs []uuid.UUID) ([]*domain.UserAnswer, error) {
	var results []*domain.UserAnswer
	if len(questionIDs) == 0 {
		return results, nil
	}
	if err := dbc.DB(r.db).
		Where("account_id = ? AND question_id IN ?", accountID, questionIDs).
		Order("answered_at DESC, id ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *userAnswerRepo) UpdateMark(dbc dbctx.Context, id uuid.UUID, isCorrect bool) error {
	res := dbc.DB(r.db).
		Model(&domain.UserAnswer{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_correct":      isCorrect,
			"manually_marked": true,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *userAnswerRepo) DeleteByQuestionIDs(dbc dbctx.Context, questionIDs []uuid.UUID) error {
	if len(questionIDs) == 0 {
		return nil
	}
	return dbc.DB(r.db).Where("question_id IN ?", questionIDs).Delete(&domain.UserAnswer{}).Error
}
