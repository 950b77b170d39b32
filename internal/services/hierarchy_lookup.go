package services

import (
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/eigo-backend/internal/data/aggregates"
	"github.com/yungbote/eigo-backend/internal/data/repos"
	domainagg "github.com/yungbote/eigo-backend/internal/domain/aggregates"
	"github.com/yungbote/eigo-backend/internal/domain/content"
	"github.com/yungbote/eigo-backend/internal/pkg/dbctx"
)

func trimmed(s string) string { return strings.TrimSpace(s) }

var (
	materialsTable = content.Material{}.TableName()
	chaptersTable  = content.Chapter{}.TableName()
	unitsTable     = content.Unit{}.TableName()
	questionsTable = content.Question{}.TableName()
)

// holdParent keeps the row a child is about to reference alive until commit.
// A delete that got there first has removed it, which surfaces as NOT_FOUND.
func holdParent(dbc dbctx.Context, order repos.OrderRepo, op, table string, id uuid.UUID, what string) error {
	found, err := order.LockRows(dbc, table, []uuid.UUID{id}, aggregates.LockParent)
	if err != nil {
		return err
	}
	if len(found) == 0 {
		return domainagg.NotFound(op, what)
	}
	return nil
}

// lockForDelete takes the delete lock on ids; writers holding a parent lock on
// any of them finish first, so their children are visible afterwards.
func lockForDelete(dbc dbctx.Context, order repos.OrderRepo, table string, ids []uuid.UUID) ([]uuid.UUID, error) {
	return order.LockRows(dbc, table, ids, aggregates.LockExclusive)
}

func (s *hierarchyService) material(dbc dbctx.Context, op string, id uuid.UUID) (*content.Material, error) {
	rows, err := s.repos.Material.GetByIDs(dbc, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, domainagg.NotFound(op, "material")
	}
	return rows[0], nil
}

func (s *hierarchyService) chapter(dbc dbctx.Context, op string, id uuid.UUID) (*content.Chapter, error) {
	rows, err := s.repos.Chapter.GetByIDs(dbc, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, domainagg.NotFound(op, "chapter")
	}
	return rows[0], nil
}

func (s *hierarchyService) unit(dbc dbctx.Context, op string, id uuid.UUID) (*content.Unit, error) {
	rows, err := s.repos.Unit.GetByIDs(dbc, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, domainagg.NotFound(op, "unit")
	}
	return rows[0], nil
}

func (s *hierarchyService) question(dbc dbctx.Context, op string, id uuid.UUID) (*content.Question, error) {
	rows, err := s.repos.Question.GetByIDs(dbc, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, domainagg.NotFound(op, "question")
	}
	return rows[0], nil
}

// scopeParentExists reports NOT_FOUND when the owner of scope is missing.
func (s *hierarchyService) scopeParentExists(dbc dbctx.Context, op string, scope content.Scope) error {
	switch scope.Kind {
	case content.ScopeChapters:
		if _, err := s.material(dbc, op, scope.MaterialID); err != nil {
			return err
		}
		if scope.ParentID != nil {
			p, err := s.chapter(dbc, op, *scope.ParentID)
			if err != nil {
				return err
			}
			if p.MaterialID != scope.MaterialID {
				return domainagg.InvalidHierarchy(op, "parent chapter belongs to a different material")
			}
		}
	case content.ScopeUnits:
		_, err := s.chapter(dbc, op, *scope.ParentID)
		return err
	case content.ScopeQuestions:
		_, err := s.unit(dbc, op, *scope.ParentID)
		return err
	case content.ScopeAnswers:
		_, err := s.question(dbc, op, *scope.ParentID)
		return err
	}
	return nil
}
