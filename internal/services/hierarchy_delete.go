package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/yungbote/eigo-backend/internal/data/aggregates"
	domainagg "github.com/yungbote/eigo-backend/internal/domain/aggregates"
	"github.com/yungbote/eigo-backend/internal/domain/content"
	"github.com/yungbote/eigo-backend/internal/pkg/dbctx"
)

func (s *hierarchyService) DeleteMaterial(ctx context.Context, id uuid.UUID) error {
	const op = "hierarchy.DeleteMaterial"
	err := s.tx.InTx(ctx, func(dbc dbctx.Context) error {
		if _, err := s.material(dbc, op, id); err != nil {
			return err
		}
		scope := content.MaterialsScope()
		if err := s.locker.Lock(dbc, scope.Key()); err != nil {
			return err
		}
		// chapter creates hold the material, so the chapter set is final once this is granted
		if found, err := lockForDelete(dbc, s.repos.Order, materialsTable, []uuid.UUID{id}); err != nil {
			return err
		} else if len(found) == 0 {
			return domainagg.NotFound(op, "material")
		}
		tree, err := s.lockSubtrees(dbc, id, func(t *content.ChapterTree) []*content.Chapter { return t.Roots() })
		if err != nil {
			return err
		}
		for _, root := range tree.Roots() {
			if err := s.deleteChapterTree(dbc, tree, root.ID); err != nil {
				return err
			}
		}
		if err := s.repos.Material.DeleteByIDs(dbc, []uuid.UUID{id}); err != nil {
			return err
		}
		return s.closeGap(dbc, scope)
	})
	if err != nil {
		return observeMutation(op, aggregates.MapError(op, err))
	}
	observeMutation(op, nil)
	s.log.Info("material deleted", "material_id", id)
	return nil
}

func (s *hierarchyService) DeleteChapter(ctx context.Context, id uuid.UUID) error {
	const op = "hierarchy.DeleteChapter"
	err := s.tx.InTx(ctx, func(dbc dbctx.Context) error {
		ch, err := s.chapter(dbc, op, id)
		if err != nil {
			return err
		}
		scope := ch.SiblingScope()
		if err := s.locker.Lock(dbc, scope.Key()); err != nil {
			return err
		}
		tree, err := s.lockSubtrees(dbc, ch.MaterialID, func(t *content.ChapterTree) []*content.Chapter {
			if c, ok := t.Get(id); ok {
				return []*content.Chapter{c}
			}
			return nil
		})
		if err != nil {
			return err
		}
		locked, ok := tree.Get(id)
		if !ok {
			return domainagg.NotFound(op, "chapter")
		}
		if locked.SiblingScope().Key() != scope.Key() {
			return domainagg.NewError(domainagg.CodeConflict, op, "chapter moved concurrently", nil)
		}
		if err := s.deleteChapterTree(dbc, tree, id); err != nil {
			return err
		}
		return s.closeGap(dbc, scope)
	})
	if err != nil {
		return observeMutation(op, aggregates.MapError(op, err))
	}
	observeMutation(op, nil)
	s.log.Info("chapter deleted", "chapter_id", id)
	return nil
}

func (s *hierarchyService) DeleteUnit(ctx context.Context, id uuid.UUID) error {
	const op = "hierarchy.DeleteUnit"
	err := s.tx.InTx(ctx, func(dbc dbctx.Context) error {
		u, err := s.unit(dbc, op, id)
		if err != nil {
			return err
		}
		scope := u.SiblingScope()
		if err := s.locker.Lock(dbc, scope.Key()); err != nil {
			return err
		}
		if found, err := lockForDelete(dbc, s.repos.Order, unitsTable, []uuid.UUID{id}); err != nil {
			return err
		} else if len(found) == 0 {
			return domainagg.NotFound(op, "unit")
		}
		if err := s.deleteUnits(dbc, []uuid.UUID{id}); err != nil {
			return err
		}
		return s.closeGap(dbc, scope)
	})
	if err != nil {
		return observeMutation(op, aggregates.MapError(op, err))
	}
	observeMutation(op, nil)
	return nil
}

func (s *hierarchyService) DeleteQuestion(ctx context.Context, id uuid.UUID) error {
	const op = "hierarchy.DeleteQuestion"
	err := s.tx.InTx(ctx, func(dbc dbctx.Context) error {
		q, err := s.question(dbc, op, id)
		if err != nil {
			return err
		}
		scope := q.SiblingScope()
		if err := s.locker.Lock(dbc, scope.Key()); err != nil {
			return err
		}
		if found, err := lockForDelete(dbc, s.repos.Order, questionsTable, []uuid.UUID{id}); err != nil {
			return err
		} else if len(found) == 0 {
			return domainagg.NotFound(op, "question")
		}
		if err := s.deleteQuestions(dbc, []uuid.UUID{id}); err != nil {
			return err
		}
		return s.closeGap(dbc, scope)
	})
	if err != nil {
		return observeMutation(op, aggregates.MapError(op, err))
	}
	observeMutation(op, nil)
	return nil
}

func (s *hierarchyService) DeleteCorrectAnswer(ctx context.Context, id uuid.UUID) error {
	const op = "hierarchy.DeleteCorrectAnswer"
	err := s.tx.InTx(ctx, func(dbc dbctx.Context) error {
		rows, err := s.repos.CorrectAnswer.GetByIDs(dbc, []uuid.UUID{id})
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return domainagg.NotFound(op, "correct answer")
		}
		scope := rows[0].SiblingScope()
		if err := s.locker.Lock(dbc, scope.Key()); err != nil {
			return err
		}
		if err := s.repos.CorrectAnswer.DeleteByIDs(dbc, []uuid.UUID{id}); err != nil {
			return err
		}
		return s.closeGap(dbc, scope)
	})
	if err != nil {
		return observeMutation(op, aggregates.MapError(op, err))
	}
	observeMutation(op, nil)
	return nil
}

// lockSubtrees takes the delete lock on every chapter under the roots picked
// from the material's tree, roots included. A create that already held one of
// those chapters may have committed a new child by the time the lock is
// granted, so the tree is re-read until no unlocked chapter remains.
func (s *hierarchyService) lockSubtrees(dbc dbctx.Context, materialID uuid.UUID, pick func(*content.ChapterTree) []*content.Chapter) (*content.ChapterTree, error) {
	locked := map[uuid.UUID]bool{}
	for {
		all, err := s.repos.Chapter.ListByMaterial(dbc, materialID)
		if err != nil {
			return nil, err
		}
		tree := content.NewChapterTree(all)
		var fresh []uuid.UUID
		for _, root := range pick(tree) {
			for _, c := range append([]*content.Chapter{root}, tree.Descendants(root.ID)...) {
				if !locked[c.ID] {
					fresh = append(fresh, c.ID)
				}
			}
		}
		if len(fresh) == 0 {
			return tree, nil
		}
		if _, err := lockForDelete(dbc, s.repos.Order, chaptersTable, fresh); err != nil {
			return nil, err
		}
		for _, id := range fresh {
			locked[id] = true
		}
	}
}

// deleteChapterTree removes id's subtree depth-first: child chapters, then the
// chapter's own units (with everything below them), then the chapter row.
func (s *hierarchyService) deleteChapterTree(dbc dbctx.Context, tree *content.ChapterTree, id uuid.UUID) error {
	for _, child := range tree.Children(id) {
		if err := s.deleteChapterTree(dbc, tree, child.ID); err != nil {
			return err
		}
	}
	units, err := s.repos.Unit.ListByChapterIDs(dbc, []uuid.UUID{id})
	if err != nil {
		return err
	}
	unitIDs := make([]uuid.UUID, 0, len(units))
	for _, u := range units {
		unitIDs = append(unitIDs, u.ID)
	}
	if err := s.deleteUnits(dbc, unitIDs); err != nil {
		return err
	}
	return s.repos.Chapter.DeleteByIDs(dbc, []uuid.UUID{id})
}

func (s *hierarchyService) deleteUnits(dbc dbctx.Context, unitIDs []uuid.UUID) error {
	if len(unitIDs) == 0 {
		return nil
	}
	if _, err := lockForDelete(dbc, s.repos.Order, unitsTable, unitIDs); err != nil {
		return err
	}
	questions, err := s.repos.Question.ListByUnitIDs(dbc, unitIDs)
	if err != nil {
		return err
	}
	questionIDs := make([]uuid.UUID, 0, len(questions))
	for _, q := range questions {
		questionIDs = append(questionIDs, q.ID)
	}
	if err := s.deleteQuestions(dbc, questionIDs); err != nil {
		return err
	}
	return s.repos.Unit.DeleteByIDs(dbc, unitIDs)
}

func (s *hierarchyService) deleteQuestions(dbc dbctx.Context, questionIDs []uuid.UUID) error {
	if len(questionIDs) == 0 {
		return nil
	}
	if _, err := lockForDelete(dbc, s.repos.Order, questionsTable, questionIDs); err != nil {
		return err
	}
	if err := s.repos.UserAnswer.DeleteByQuestionIDs(dbc, questionIDs); err != nil {
		return err
	}
	if err := s.repos.CorrectAnswer.DeleteByQuestionIDs(dbc, questionIDs); err != nil {
		return err
	}
	return s.repos.Question.DeleteByIDs(dbc, questionIDs)
}

// closeGap renumbers the survivors of scope 1..N.
func (s *hierarchyService) closeGap(dbc dbctx.Context, scope content.Scope) error {
	rest, err := s.repos.Order.Slots(dbc, scope)
	if err != nil {
		return err
	}
	return s.repos.Order.Renumber(dbc, scope, rest)
}
