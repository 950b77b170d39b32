package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/eigo-backend/internal/data/aggregates"
	"github.com/yungbote/eigo-backend/internal/data/repos"
	domainagg "github.com/yungbote/eigo-backend/internal/domain/aggregates"
	"github.com/yungbote/eigo-backend/internal/domain/learning"
	"github.com/yungbote/eigo-backend/internal/observability"
	"github.com/yungbote/eigo-backend/internal/pkg/dbctx"
	"github.com/yungbote/eigo-backend/internal/pkg/logger"
)

type AnswerService interface {
	Submit(ctx context.Context, accountID, questionID uuid.UUID, text string) (*learning.UserAnswer, error)
	Mark(ctx context.Context, answerID uuid.UUID, isCorrect bool) (*learning.UserAnswer, error)
	ListForUnit(ctx context.Context, accountID, unitID uuid.UUID) ([]*learning.UserAnswer, error)
}

type answerService struct {
	db    *gorm.DB
	log   *logger.Logger
	tx    aggregates.TxRunner
	repos repos.Set
	now   func() time.Time
}

func NewAnswerService(db *gorm.DB, log *logger.Logger, tx aggregates.TxRunner, rs repos.Set) AnswerService {
	return &answerService{
		db:    db,
		log:   log.With("service", "AnswerService"),
		tx:    tx,
		repos: rs,
		now:   time.Now,
	}
}

func (s *answerService) Submit(ctx context.Context, accountID, questionID uuid.UUID, text string) (*learning.UserAnswer, error) {
	const op = "answer.Submit"
	var out learning.UserAnswer
	err := s.tx.InTx(ctx, func(dbc dbctx.Context) error {
		if err := holdParent(dbc, s.repos.Order, op, questionsTable, questionID, "question"); err != nil {
			return err
		}
		accepted, err := s.repos.CorrectAnswer.ListByQuestionIDs(dbc, []uuid.UUID{questionID})
		if err != nil {
			return err
		}
		texts := make([]string, 0, len(accepted))
		for _, a := range accepted {
			texts = append(texts, a.AnswerText)
		}
		ua, err := learning.NewUserAnswer(accountID, questionID, text, texts, s.now())
		if err != nil {
			return err
		}
		if _, err := s.repos.UserAnswer.Create(dbc, []*learning.UserAnswer{&ua}); err != nil {
			return err
		}
		out = ua
		return nil
	})
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	observability.Current().IncAnswerSubmitted(out.IsCorrect)
	s.log.Debug("answer submitted", "account_id", accountID, "question_id", questionID, "is_correct", out.IsCorrect)
	return &out, nil
}

func (s *answerService) Mark(ctx context.Context, answerID uuid.UUID, isCorrect bool) (*learning.UserAnswer, error) {
	const op = "answer.Mark"
	var out *learning.UserAnswer
	err := s.tx.InTx(ctx, func(dbc dbctx.Context) error {
		if err := s.repos.UserAnswer.UpdateMark(dbc, answerID, isCorrect); err != nil {
			return err
		}
		rows, err := s.repos.UserAnswer.GetByIDs(dbc, []uuid.UUID{answerID})
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return domainagg.NotFound(op, "answer")
		}
		out = rows[0]
		return nil
	})
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	return out, nil
}

func (s *answerService) ListForUnit(ctx context.Context, accountID, unitID uuid.UUID) ([]*learning.UserAnswer, error) {
	const op = "answer.ListForUnit"
	var out []*learning.UserAnswer
	err := s.tx.InSnapshot(ctx, func(dbc dbctx.Context) error {
		us, err := s.repos.Unit.GetByIDs(dbc, []uuid.UUID{unitID})
		if err != nil {
			return err
		}
		if len(us) == 0 {
			return domainagg.NotFound(op, "unit")
		}
		qs, err := s.repos.Question.ListByUnitIDs(dbc, []uuid.UUID{unitID})
		if err != nil {
			return err
		}
		ids := make([]uuid.UUID, 0, len(qs))
		for _, q := range qs {
			ids = append(ids, q.ID)
		}
		out, err = s.repos.UserAnswer.ListByAccountAndQuestions(dbc, accountID, ids)
		return err
	})
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	if out == nil {
		out = []*learning.UserAnswer{}
	}
	return out, nil
}
