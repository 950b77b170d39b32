package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/eigo-backend/internal/data/repos/account"
	"github.com/yungbote/eigo-backend/internal/data/repos/content"
	"github.com/yungbote/eigo-backend/internal/data/repos/learning"
	"github.com/yungbote/eigo-backend/internal/pkg/logger"
)

type AccountRepo = account.AccountRepo

type MaterialRepo = content.MaterialRepo
type ChapterRepo = content.ChapterRepo
type UnitRepo = content.UnitRepo
type QuestionRepo = content.QuestionRepo
type CorrectAnswerRepo = content.CorrectAnswerRepo
type OrderRepo = content.OrderRepo

type UserAnswerRepo = learning.UserAnswerRepo

func NewAccountRepo(db *gorm.DB, baseLog *logger.Logger) AccountRepo {
	return account.NewAccountRepo(db, baseLog)
}

func NewMaterialRepo(db *gorm.DB, baseLog *logger.Logger) MaterialRepo {
	return content.NewMaterialRepo(db, baseLog)
}
func NewChapterRepo(db *gorm.DB, baseLog *logger.Logger) ChapterRepo {
	return content.NewChapterRepo(db, baseLog)
}
func NewUnitRepo(db *gorm.DB, baseLog *logger.Logger) UnitRepo {
	return content.NewUnitRepo(db, baseLog)
}
func NewQuestionRepo(db *gorm.DB, baseLog *logger.Logger) QuestionRepo {
	return content.NewQuestionRepo(db, baseLog)
}
func NewCorrectAnswerRepo(db *gorm.DB, baseLog *logger.Logger) CorrectAnswerRepo {
	return content.NewCorrectAnswerRepo(db, baseLog)
}
func NewOrderRepo(db *gorm.DB, baseLog *logger.Logger) OrderRepo {
	return content.NewOrderRepo(db, baseLog)
}

func NewUserAnswerRepo(db *gorm.DB, baseLog *logger.Logger) UserAnswerRepo {
	return learning.NewUserAnswerRepo(db, baseLog)
}

// Set is every repository the services need.
type Set struct {
	Account       AccountRepo
	Material      MaterialRepo
	Chapter       ChapterRepo
	Unit          UnitRepo
	Question      QuestionRepo
	CorrectAnswer CorrectAnswerRepo
	Order         OrderRepo
	UserAnswer    UserAnswerRepo
}

func NewSet(db *gorm.DB, baseLog *logger.Logger) Set {
	return Set{
		Account:       NewAccountRepo(db, baseLog),
		Material:      NewMaterialRepo(db, baseLog),
		Chapter:       NewChapterRepo(db, baseLog),
		Unit:          NewUnitRepo(db, baseLog),
		Question:      NewQuestionRepo(db, baseLog),
		CorrectAnswer: NewCorrectAnswerRepo(db, baseLog),
		Order:         NewOrderRepo(db, baseLog),
		UserAnswer:    NewUserAnswerRepo(db, baseLog),
	}
}
