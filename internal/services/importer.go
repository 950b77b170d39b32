package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/eigo-backend/internal/data/aggregates"
	"github.com/yungbote/eigo-backend/internal/data/repos"
	domainagg "github.com/yungbote/eigo-backend/internal/domain/aggregates"
	"github.com/yungbote/eigo-backend/internal/domain/content"
	"github.com/yungbote/eigo-backend/internal/importfile"
	"github.com/yungbote/eigo-backend/internal/observability"
	"github.com/yungbote/eigo-backend/internal/pkg/dbctx"
	"github.com/yungbote/eigo-backend/internal/pkg/logger"
	"github.com/yungbote/eigo-backend/internal/pkg/validate"
)

// MaxImportRows bounds a single batch.
const MaxImportRows = 1000

type ImportResult struct {
	UnitID    uuid.UUID `json:"unit_id"`
	Questions int       `json:"questions"`
	Answers   int       `json:"answers"`
	// FirstOrder is the sort order of the first imported question.
	FirstOrder int `json:"first_order"`
}

// ImportService appends a batch of questions to a unit. The batch is
// validated before anything is written and committed in one transaction, so
// a bad row leaves the unit untouched.
type ImportService interface {
	ImportQuestions(ctx context.Context, unitID uuid.UUID, rows []importfile.Row) (*ImportResult, error)
}

type importService struct {
	db     *gorm.DB
	log    *logger.Logger
	tx     aggregates.TxRunner
	locker aggregates.ScopeLocker
	repos  repos.Set
}

func NewImportService(db *gorm.DB, log *logger.Logger, tx aggregates.TxRunner, locker aggregates.ScopeLocker, rs repos.Set) ImportService {
	return &importService{
		db:     db,
		log:    log.With("service", "ImportService"),
		tx:     tx,
		locker: locker,
		repos:  rs,
	}
}

func (s *importService) ImportQuestions(ctx context.Context, unitID uuid.UUID, rows []importfile.Row) (*ImportResult, error) {
	const op = "import.ImportQuestions"
	if len(rows) == 0 {
		return nil, domainagg.Validation(op, "rows", "import contains no rows")
	}
	if len(rows) > MaxImportRows {
		return nil, domainagg.Validation(op, "rows", fmt.Sprintf("import exceeds %d rows", MaxImportRows))
	}

	questions := make([]*content.Question, 0, len(rows))
	answers := make([][]*content.CorrectAnswer, 0, len(rows))
	total := 0
	for i, row := range rows {
		rowNum := i + 1
		if err := validate.Struct(op, row); err != nil {
			return nil, domainagg.AtRow(err, rowNum)
		}
		q, err := content.NewQuestion(unitID, row.Japanese, row.Hint, row.Explanation)
		if err != nil {
			return nil, domainagg.AtRow(err, rowNum)
		}
		qa := make([]*content.CorrectAnswer, 0, len(row.Answers))
		for j, text := range row.Answers {
			a, err := content.NewCorrectAnswer(q.ID, text)
			if err != nil {
				return nil, domainagg.AtRow(err, rowNum)
			}
			a.Order = j + 1
			qa = append(qa, &a)
		}
		questions = append(questions, &q)
		answers = append(answers, qa)
		total += len(qa)
	}

	var first int
	err := s.tx.InTx(ctx, func(dbc dbctx.Context) error {
		if err := holdParent(dbc, s.repos.Order, op, unitsTable, unitID, "unit"); err != nil {
			return err
		}
		scope := content.QuestionsScope(unitID)
		if err := s.locker.Lock(dbc, scope.Key()); err != nil {
			return err
		}
		next, err := s.repos.Order.NextOrder(dbc, scope)
		if err != nil {
			return err
		}
		first = next
		for i, q := range questions {
			q.Order = next + i
		}
		if _, err := s.repos.Question.Create(dbc, questions); err != nil {
			return err
		}
		flat := make([]*content.CorrectAnswer, 0, total)
		for _, qa := range answers {
			flat = append(flat, qa...)
		}
		_, err = s.repos.CorrectAnswer.Create(dbc, flat)
		return err
	})
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	observability.Current().AddImportedRows(len(questions))
	s.log.Info("questions imported", "unit_id", unitID, "questions", len(questions), "answers", total)
	return &ImportResult{UnitID: unitID, Questions: len(questions), Answers: total, FirstOrder: first}, nil
}
