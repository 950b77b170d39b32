package services

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/eigo-backend/internal/data/aggregates"
	"github.com/yungbote/eigo-backend/internal/data/repos"
	domainagg "github.com/yungbote/eigo-backend/internal/domain/aggregates"
	"github.com/yungbote/eigo-backend/internal/domain/content"
	"github.com/yungbote/eigo-backend/internal/observability"
	"github.com/yungbote/eigo-backend/internal/pkg/dbctx"
	"github.com/yungbote/eigo-backend/internal/pkg/logger"
	"github.com/yungbote/eigo-backend/internal/pkg/validate"
)

// HierarchyService owns every structural write to the content tree. Each
// mutation runs in one transaction holding the locks of the sibling scopes it
// touches, and leaves every touched scope numbered 1..N.
type HierarchyService interface {
	CreateMaterial(ctx context.Context, name, description string) (*content.Material, error)
	CreateChapter(ctx context.Context, materialID uuid.UUID, parentChapterID *uuid.UUID, name, description string) (*content.Chapter, error)
	CreateUnit(ctx context.Context, chapterID uuid.UUID, name, description string) (*content.Unit, error)
	CreateQuestion(ctx context.Context, unitID uuid.UUID, japanese, hint, explanation string) (*content.Question, error)
	// CreateQuestionWithAnswers appends a question and its correct answers in one transaction.
	CreateQuestionWithAnswers(ctx context.Context, unitID uuid.UUID, japanese, hint, explanation string, answers []string) (*content.Question, []*content.CorrectAnswer, error)
	CreateCorrectAnswer(ctx context.Context, questionID uuid.UUID, answerText string) (*content.CorrectAnswer, error)

	UpdateMaterial(ctx context.Context, id uuid.UUID, patch NodePatch) (*content.Material, error)
	UpdateChapter(ctx context.Context, id uuid.UUID, patch NodePatch) (*content.Chapter, error)
	UpdateUnit(ctx context.Context, id uuid.UUID, patch NodePatch) (*content.Unit, error)
	UpdateQuestion(ctx context.Context, id uuid.UUID, patch QuestionPatch) (*content.Question, error)
	UpdateCorrectAnswer(ctx context.Context, id uuid.UUID, patch AnswerPatch) (*content.CorrectAnswer, error)

	Reorder(ctx context.Context, scope content.Scope, orderedIDs []uuid.UUID) error
	MoveChapter(ctx context.Context, chapterID uuid.UUID, newParentChapterID *uuid.UUID, newIndex int) (*content.Chapter, error)

	DeleteMaterial(ctx context.Context, id uuid.UUID) error
	DeleteChapter(ctx context.Context, id uuid.UUID) error
	DeleteUnit(ctx context.Context, id uuid.UUID) error
	DeleteQuestion(ctx context.Context, id uuid.UUID) error
	DeleteCorrectAnswer(ctx context.Context, id uuid.UUID) error
}

// NodePatch edits the descriptive fields of a material, chapter or unit. Nil leaves a field unchanged.
type NodePatch struct {
	Name        *string `json:"name" validate:"omitnil,notblank,max=200"`
	Description *string `json:"description" validate:"omitnil,max=4000"`
}

func (p NodePatch) updates() map[string]interface{} {
	out := map[string]interface{}{}
	if p.Name != nil {
		out["name"] = trimmed(*p.Name)
	}
	if p.Description != nil {
		out["description"] = trimmed(*p.Description)
	}
	return out
}

type QuestionPatch struct {
	Japanese    *string `json:"japanese" validate:"omitnil,notblank,max=2000"`
	Hint        *string `json:"hint" validate:"omitnil,max=2000"`
	Explanation *string `json:"explanation" validate:"omitnil,max=8000"`
}

func (p QuestionPatch) updates() map[string]interface{} {
	out := map[string]interface{}{}
	if p.Japanese != nil {
		out["japanese"] = trimmed(*p.Japanese)
	}
	if p.Hint != nil {
		out["hint"] = trimmed(*p.Hint)
	}
	if p.Explanation != nil {
		out["explanation"] = trimmed(*p.Explanation)
	}
	return out
}

type AnswerPatch struct {
	AnswerText *string `json:"answer_text" validate:"omitnil,notblank,max=2000"`
}

func (p AnswerPatch) updates() map[string]interface{} {
	out := map[string]interface{}{}
	if p.AnswerText != nil {
		out["answer_text"] = trimmed(*p.AnswerText)
	}
	return out
}

type hierarchyService struct {
	db     *gorm.DB
	log    *logger.Logger
	tx     aggregates.TxRunner
	locker aggregates.ScopeLocker
	repos  repos.Set
}

func NewHierarchyService(db *gorm.DB, log *logger.Logger, tx aggregates.TxRunner, locker aggregates.ScopeLocker, rs repos.Set) HierarchyService {
	return &hierarchyService{
		db:     db,
		log:    log.With("service", "HierarchyService"),
		tx:     tx,
		locker: locker,
		repos:  rs,
	}
}

// ---- create ----

func (s *hierarchyService) CreateMaterial(ctx context.Context, name, description string) (*content.Material, error) {
	const op = "hierarchy.CreateMaterial"
	m, err := content.NewMaterial(name, description)
	if err != nil {
		return nil, observeMutation(op, err)
	}
	err = s.tx.InTx(ctx, func(dbc dbctx.Context) error {
		order, err := s.appendSlot(dbc, content.MaterialsScope())
		if err != nil {
			return err
		}
		m.Order = order
		_, err = s.repos.Material.Create(dbc, []*content.Material{&m})
		return err
	})
	if err != nil {
		return nil, observeMutation(op, aggregates.MapError(op, err))
	}
	observeMutation(op, nil)
	s.log.Info("material created", "material_id", m.ID, "order", m.Order)
	return &m, nil
}

func (s *hierarchyService) CreateChapter(ctx context.Context, materialID uuid.UUID, parentChapterID *uuid.UUID, name, description string) (*content.Chapter, error) {
	const op = "hierarchy.CreateChapter"
	var out content.Chapter
	err := s.tx.InTx(ctx, func(dbc dbctx.Context) error {
		if err := holdParent(dbc, s.repos.Order, op, materialsTable, materialID, "material"); err != nil {
			return err
		}
		var parent *content.Chapter
		if parentChapterID != nil {
			if err := holdParent(dbc, s.repos.Order, op, chaptersTable, *parentChapterID, "chapter"); err != nil {
				return err
			}
			p, err := s.chapter(dbc, op, *parentChapterID)
			if err != nil {
				return err
			}
			parent = p
		}
		c, err := content.NewChapter(materialID, parent, name, description)
		if err != nil {
			return err
		}
		order, err := s.appendSlot(dbc, c.SiblingScope())
		if err != nil {
			return err
		}
		c.Order = order
		if _, err := s.repos.Chapter.Create(dbc, []*content.Chapter{&c}); err != nil {
			return err
		}
		out = c
		return nil
	})
	if err != nil {
		return nil, observeMutation(op, aggregates.MapError(op, err))
	}
	observeMutation(op, nil)
	s.log.Info("chapter created", "chapter_id", out.ID, "material_id", out.MaterialID, "level", out.Level, "order", out.Order)
	return &out, nil
}

func (s *hierarchyService) CreateUnit(ctx context.Context, chapterID uuid.UUID, name, description string) (*content.Unit, error) {
	const op = "hierarchy.CreateUnit"
	var out content.Unit
	err := s.tx.InTx(ctx, func(dbc dbctx.Context) error {
		if err := holdParent(dbc, s.repos.Order, op, chaptersTable, chapterID, "chapter"); err != nil {
			return err
		}
		u, err := content.NewUnit(chapterID, name, description)
		if err != nil {
			return err
		}
		order, err := s.appendSlot(dbc, u.SiblingScope())
		if err != nil {
			return err
		}
		u.Order = order
		if _, err := s.repos.Unit.Create(dbc, []*content.Unit{&u}); err != nil {
			return err
		}
		out = u
		return nil
	})
	if err != nil {
		return nil, observeMutation(op, aggregates.MapError(op, err))
	}
	observeMutation(op, nil)
	return &out, nil
}

func (s *hierarchyService) CreateQuestion(ctx context.Context, unitID uuid.UUID, japanese, hint, explanation string) (*content.Question, error) {
	q, _, err := s.createQuestion(ctx, "hierarchy.CreateQuestion", unitID, japanese, hint, explanation, nil)
	return q, err
}

func (s *hierarchyService) CreateQuestionWithAnswers(ctx context.Context, unitID uuid.UUID, japanese, hint, explanation string, answers []string) (*content.Question, []*content.CorrectAnswer, error) {
	return s.createQuestion(ctx, "hierarchy.CreateQuestionWithAnswers", unitID, japanese, hint, explanation, answers)
}

func (s *hierarchyService) createQuestion(ctx context.Context, op string, unitID uuid.UUID, japanese, hint, explanation string, answerTexts []string) (*content.Question, []*content.CorrectAnswer, error) {
	q, err := content.NewQuestion(unitID, japanese, hint, explanation)
	if err != nil {
		return nil, nil, observeMutation(op, err)
	}
	answers := make([]*content.CorrectAnswer, 0, len(answerTexts))
	for i, text := range answerTexts {
		a, err := content.NewCorrectAnswer(q.ID, text)
		if err != nil {
			return nil, nil, observeMutation(op, err)
		}
		a.Order = i + 1
		answers = append(answers, &a)
	}

	err = s.tx.InTx(ctx, func(dbc dbctx.Context) error {
		if err := holdParent(dbc, s.repos.Order, op, unitsTable, unitID, "unit"); err != nil {
			return err
		}
		order, err := s.appendSlot(dbc, q.SiblingScope())
		if err != nil {
			return err
		}
		q.Order = order
		if _, err := s.repos.Question.Create(dbc, []*content.Question{&q}); err != nil {
			return err
		}
		if len(answers) == 0 {
			return nil
		}
		_, err = s.repos.CorrectAnswer.Create(dbc, answers)
		return err
	})
	if err != nil {
		return nil, nil, observeMutation(op, aggregates.MapError(op, err))
	}
	observeMutation(op, nil)
	return &q, answers, nil
}

func (s *hierarchyService) CreateCorrectAnswer(ctx context.Context, questionID uuid.UUID, answerText string) (*content.CorrectAnswer, error) {
	const op = "hierarchy.CreateCorrectAnswer"
	var out content.CorrectAnswer
	err := s.tx.InTx(ctx, func(dbc dbctx.Context) error {
		if err := holdParent(dbc, s.repos.Order, op, questionsTable, questionID, "question"); err != nil {
			return err
		}
		a, err := content.NewCorrectAnswer(questionID, answerText)
		if err != nil {
			return err
		}
		order, err := s.appendSlot(dbc, a.SiblingScope())
		if err != nil {
			return err
		}
		a.Order = order
		if _, err := s.repos.CorrectAnswer.Create(dbc, []*content.CorrectAnswer{&a}); err != nil {
			return err
		}
		out = a
		return nil
	})
	if err != nil {
		return nil, observeMutation(op, aggregates.MapError(op, err))
	}
	observeMutation(op, nil)
	return &out, nil
}

// observeMutation records the outcome of a structural write and returns err unchanged.
func observeMutation(op string, err error) error {
	code := "OK"
	if err != nil {
		code = string(domainagg.CodeOf(err))
	}
	observability.Current().ObserveMutation(op, code)
	return err
}

// appendSlot locks scope and returns the order a new last member gets.
func (s *hierarchyService) appendSlot(dbc dbctx.Context, scope content.Scope) (int, error) {
	if err := s.locker.Lock(dbc, scope.Key()); err != nil {
		return 0, err
	}
	return s.repos.Order.NextOrder(dbc, scope)
}

// ---- update ----

func (s *hierarchyService) UpdateMaterial(ctx context.Context, id uuid.UUID, patch NodePatch) (*content.Material, error) {
	const op = "hierarchy.UpdateMaterial"
	if err := validate.Struct(op, patch); err != nil {
		return nil, observeMutation(op, err)
	}
	var out *content.Material
	err := s.tx.InTx(ctx, func(dbc dbctx.Context) error {
		if err := s.repos.Material.UpdateFields(dbc, id, patch.updates()); err != nil {
			return err
		}
		m, err := s.material(dbc, op, id)
		out = m
		return err
	})
	if err != nil {
		return nil, observeMutation(op, aggregates.MapError(op, err))
	}
	observeMutation(op, nil)
	return out, nil
}

func (s *hierarchyService) UpdateChapter(ctx context.Context, id uuid.UUID, patch NodePatch) (*content.Chapter, error) {
	const op = "hierarchy.UpdateChapter"
	if err := validate.Struct(op, patch); err != nil {
		return nil, observeMutation(op, err)
	}
	var out *content.Chapter
	err := s.tx.InTx(ctx, func(dbc dbctx.Context) error {
		if err := s.repos.Chapter.UpdateFields(dbc, id, patch.updates()); err != nil {
			return err
		}
		c, err := s.chapter(dbc, op, id)
		out = c
		return err
	})
	if err != nil {
		return nil, observeMutation(op, aggregates.MapError(op, err))
	}
	observeMutation(op, nil)
	return out, nil
}

func (s *hierarchyService) UpdateUnit(ctx context.Context, id uuid.UUID, patch NodePatch) (*content.Unit, error) {
	const op = "hierarchy.UpdateUnit"
	if err := validate.Struct(op, patch); err != nil {
		return nil, observeMutation(op, err)
	}
	var out *content.Unit
	err := s.tx.InTx(ctx, func(dbc dbctx.Context) error {
		if err := s.repos.Unit.UpdateFields(dbc, id, patch.updates()); err != nil {
			return err
		}
		u, err := s.unit(dbc, op, id)
		out = u
		return err
	})
	if err != nil {
		return nil, observeMutation(op, aggregates.MapError(op, err))
	}
	observeMutation(op, nil)
	return out, nil
}

func (s *hierarchyService) UpdateQuestion(ctx context.Context, id uuid.UUID, patch QuestionPatch) (*content.Question, error) {
	const op = "hierarchy.UpdateQuestion"
	if err := validate.Struct(op, patch); err != nil {
		return nil, observeMutation(op, err)
	}
	var out *content.Question
	err := s.tx.InTx(ctx, func(dbc dbctx.Context) error {
		if err := s.repos.Question.UpdateFields(dbc, id, patch.updates()); err != nil {
			return err
		}
		q, err := s.question(dbc, op, id)
		out = q
		return err
	})
	if err != nil {
		return nil, observeMutation(op, aggregates.MapError(op, err))
	}
	observeMutation(op, nil)
	return out, nil
}

func (s *hierarchyService) UpdateCorrectAnswer(ctx context.Context, id uuid.UUID, patch AnswerPatch) (*content.CorrectAnswer, error) {
	const op = "hierarchy.UpdateCorrectAnswer"
	if err := validate.Struct(op, patch); err != nil {
		return nil, observeMutation(op, err)
	}
	var out *content.CorrectAnswer
	err := s.tx.InTx(ctx, func(dbc dbctx.Context) error {
		if err := s.repos.CorrectAnswer.UpdateFields(dbc, id, patch.updates()); err != nil {
			return err
		}
		rows, err := s.repos.CorrectAnswer.GetByIDs(dbc, []uuid.UUID{id})
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return domainagg.NotFound(op, "correct answer")
		}
		out = rows[0]
		return nil
	})
	if err != nil {
		return nil, observeMutation(op, aggregates.MapError(op, err))
	}
	observeMutation(op, nil)
	return out, nil
}
