package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/yungbote/eigo-backend/internal/data/aggregates"
	domainagg "github.com/yungbote/eigo-backend/internal/domain/aggregates"
	"github.com/yungbote/eigo-backend/internal/domain/content"
	"github.com/yungbote/eigo-backend/internal/pkg/dbctx"
)

func (s *hierarchyService) Reorder(ctx context.Context, scope content.Scope, orderedIDs []uuid.UUID) error {
	const op = "hierarchy.Reorder"
	if err := scope.Validate(); err != nil {
		return err
	}
	err := s.tx.InTx(ctx, func(dbc dbctx.Context) error {
		if err := s.scopeParentExists(dbc, op, scope); err != nil {
			return err
		}
		if err := s.locker.Lock(dbc, scope.Key()); err != nil {
			return err
		}
		current, err := s.repos.Order.Slots(dbc, scope)
		if err != nil {
			return err
		}
		next, err := permute(op, current, orderedIDs)
		if err != nil {
			return err
		}
		return s.repos.Order.Renumber(dbc, scope, next)
	})
	if err != nil {
		return observeMutation(op, aggregates.MapError(op, err))
	}
	observeMutation(op, nil)
	s.log.Info("scope reordered", "scope", scope.Key(), "count", len(orderedIDs))
	return nil
}

// permute returns current rearranged into orderedIDs. orderedIDs must name every
// member exactly once and nothing else.
func permute(op string, current []aggregates.Slot, orderedIDs []uuid.UUID) ([]aggregates.Slot, error) {
	if len(orderedIDs) != len(current) {
		return nil, domainagg.InvalidHierarchy(op, "ordered ids must list every sibling exactly once")
	}
	byID := make(map[uuid.UUID]aggregates.Slot, len(current))
	for _, sl := range current {
		byID[sl.ID] = sl
	}
	seen := make(map[uuid.UUID]struct{}, len(orderedIDs))
	out := make([]aggregates.Slot, 0, len(orderedIDs))
	for _, id := range orderedIDs {
		if _, dup := seen[id]; dup {
			return nil, domainagg.InvalidHierarchy(op, "ordered ids contain duplicate "+id.String())
		}
		seen[id] = struct{}{}
		sl, ok := byID[id]
		if !ok {
			return nil, domainagg.InvalidHierarchy(op, id.String()+" is not a member of this scope")
		}
		out = append(out, sl)
	}
	return out, nil
}

func (s *hierarchyService) MoveChapter(ctx context.Context, chapterID uuid.UUID, newParentChapterID *uuid.UUID, newIndex int) (*content.Chapter, error) {
	const op = "hierarchy.MoveChapter"
	var moved *content.Chapter
	err := s.tx.InTx(ctx, func(dbc dbctx.Context) error {
		ch, err := s.chapter(dbc, op, chapterID)
		if err != nil {
			return err
		}
		oldScope := ch.SiblingScope()
		newScope := content.ChaptersScope(ch.MaterialID, newParentChapterID)
		if err := s.locker.Lock(dbc, oldScope.Key(), newScope.Key()); err != nil {
			return err
		}
		if found, err := s.repos.Order.LockRows(dbc, chaptersTable, []uuid.UUID{chapterID}, aggregates.LockExclusive); err != nil {
			return err
		} else if len(found) == 0 {
			return domainagg.NotFound(op, "chapter")
		}
		if newParentChapterID != nil {
			if err := holdParent(dbc, s.repos.Order, op, chaptersTable, *newParentChapterID, "chapter"); err != nil {
				return err
			}
		}

		all, err := s.repos.Chapter.ListByMaterial(dbc, ch.MaterialID)
		if err != nil {
			return err
		}
		tree := content.NewChapterTree(all)
		self, ok := tree.Get(chapterID)
		if !ok || self.SiblingScope().Key() != oldScope.Key() {
			return domainagg.NewError(domainagg.CodeConflict, op, "chapter changed concurrently", nil)
		}

		if newParentChapterID != nil {
			parent, err := s.chapter(dbc, op, *newParentChapterID)
			if err != nil {
				return err
			}
			switch {
			case parent.MaterialID != ch.MaterialID:
				return domainagg.InvalidHierarchy(op, "cannot move a chapter to another material")
			case parent.ID == ch.ID:
				return domainagg.InvalidHierarchy(op, "cannot move a chapter under itself")
			case tree.IsDescendant(ch.ID, parent.ID):
				return domainagg.InvalidHierarchy(op, "cannot move a chapter under its own descendant")
			}
		}

		sameScope := oldScope.Key() == newScope.Key()
		dest, err := s.repos.Order.Slots(dbc, newScope)
		if err != nil {
			return err
		}
		// a chapter arriving from another scope sits at sort_order 0 until renumbered
		selfSlot := aggregates.Slot{ID: chapterID}
		if sameScope {
			for _, sl := range dest {
				if sl.ID == chapterID {
					selfSlot = sl
				}
			}
		} else if err := s.repos.Chapter.SetParent(dbc, chapterID, newParentChapterID); err != nil {
			return err
		}
		dest = insertSlot(withoutSlot(dest, chapterID), selfSlot, newIndex)
		if err := s.repos.Order.Renumber(dbc, newScope, dest); err != nil {
			return err
		}
		if !sameScope {
			rest, err := s.repos.Order.Slots(dbc, oldScope)
			if err != nil {
				return err
			}
			if err := s.repos.Order.Renumber(dbc, oldScope, rest); err != nil {
				return err
			}
		}

		self.ParentChapterID = newParentChapterID
		tree = content.NewChapterTree(all)
		levels := map[uuid.UUID]int{}
		for _, c := range tree.Relevel(chapterID) {
			levels[c.ID] = c.Level
		}
		if err := s.repos.Chapter.SetLevels(dbc, levels); err != nil {
			return err
		}

		moved, err = s.chapter(dbc, op, chapterID)
		return err
	})
	if err != nil {
		return nil, observeMutation(op, aggregates.MapError(op, err))
	}
	observeMutation(op, nil)
	s.log.Info("chapter moved", "chapter_id", moved.ID, "level", moved.Level, "order", moved.Order)
	return moved, nil
}

func withoutSlot(slots []aggregates.Slot, id uuid.UUID) []aggregates.Slot {
	out := make([]aggregates.Slot, 0, len(slots))
	for _, sl := range slots {
		if sl.ID != id {
			out = append(out, sl)
		}
	}
	return out
}

// insertSlot places sl at index, clamped to [0, len(slots)].
func insertSlot(slots []aggregates.Slot, sl aggregates.Slot, index int) []aggregates.Slot {
	if index < 0 {
		index = 0
	}
	if index > len(slots) {
		index = len(slots)
	}
	out := make([]aggregates.Slot, 0, len(slots)+1)
	out = append(out, slots[:index]...)
	out = append(out, sl)
	out = append(out, slots[index:]...)
	return out
}
