package content

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/eigo-backend/internal/data/aggregates"
	domain "github.com/yungbote/eigo-backend/internal/domain/content"
	"github.com/yungbote/eigo-backend/internal/pkg/dbctx"
	"github.com/yungbote/eigo-backend/internal/pkg/logger"
)

// OrderRepo reads and rewrites the sort_order of any sibling scope and takes
// the row locks that keep parents alive while children are written.
type OrderRepo interface {
	// Slots lists the scope's members by current order, row-locked on Postgres.
	Slots(dbc dbctx.Context, scope domain.Scope) ([]aggregates.Slot, error)
	// NextOrder returns max(sort_order)+1 for the scope (1 when empty).
	NextOrder(dbc dbctx.Context, scope domain.Scope) (int, error)
	Renumber(dbc dbctx.Context, scope domain.Scope, slots []aggregates.Slot) error
	// LockRows row-locks ids of a content table and returns the ones that exist.
	LockRows(dbc dbctx.Context, table string, ids []uuid.UUID, strength aggregates.LockStrength) ([]uuid.UUID, error)
}

type orderRepo struct {
	db    *gorm.DB
	guard aggregates.OrderGuard
	log   *logger.Logger
}

func NewOrderRepo(db *gorm.DB, baseLog *logger.Logger) OrderRepo {
	return &orderRepo{
		db:    db,
		guard: aggregates.NewOrderGuard(db),
		log:   baseLog.With("repo", "OrderRepo"),
	}
}

func tableOf(kind domain.ScopeKind) (string, error) {
	switch kind {
	case domain.ScopeMaterials:
		return domain.Material{}.TableName(), nil
	case domain.ScopeChapters:
		return domain.Chapter{}.TableName(), nil
	case domain.ScopeUnits:
		return domain.Unit{}.TableName(), nil
	case domain.ScopeQuestions:
		return domain.Question{}.TableName(), nil
	case domain.ScopeAnswers:
		return domain.CorrectAnswer{}.TableName(), nil
	default:
		return "", fmt.Errorf("unknown scope kind %q", kind)
	}
}

func (r *orderRepo) scoped(dbc dbctx.Context, scope domain.Scope) (*gorm.DB, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}
	table, err := tableOf(scope.Kind)
	if err != nil {
		return nil, err
	}
	q := dbc.DB(r.db).Table(table)
	switch scope.Kind {
	case domain.ScopeChapters:
		q = q.Where("material_id = ?", scope.MaterialID)
		if scope.ParentID == nil {
			q = q.Where("parent_chapter_id IS NULL")
		} else {
			q = q.Where("parent_chapter_id = ?", *scope.ParentID)
		}
	case domain.ScopeUnits:
		q = q.Where("chapter_id = ?", *scope.ParentID)
	case domain.ScopeQuestions:
		q = q.Where("unit_id = ?", *scope.ParentID)
	case domain.ScopeAnswers:
		q = q.Where("question_id = ?", *scope.ParentID)
	}
	return q, nil
}

func (r *orderRepo) Slots(dbc dbctx.Context, scope domain.Scope) ([]aggregates.Slot, error) {
	q, err := r.scoped(dbc, scope)
	if err != nil {
		return nil, err
	}
	var rows []struct {
		ID        uuid.UUID
		SortOrder int
	}
	if err := aggregates.ForUpdate(dbc, q).
		Select("id, sort_order").
		Order("sort_order ASC").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]aggregates.Slot, 0, len(rows))
	for _, row := range rows {
		out = append(out, aggregates.Slot{ID: row.ID, Order: row.SortOrder})
	}
	return out, nil
}

func (r *orderRepo) NextOrder(dbc dbctx.Context, scope domain.Scope) (int, error) {
	q, err := r.scoped(dbc, scope)
	if err != nil {
		return 0, err
	}
	var max int
	if err := q.Select("COALESCE(MAX(sort_order), 0)").Row().Scan(&max); err != nil {
		return 0, err
	}
	return max + 1, nil
}

func (r *orderRepo) Renumber(dbc dbctx.Context, scope domain.Scope, slots []aggregates.Slot) error {
	table, err := tableOf(scope.Kind)
	if err != nil {
		return err
	}
	return r.guard.Renumber(dbc, table, slots)
}

func (r *orderRepo) LockRows(dbc dbctx.Context, table string, ids []uuid.UUID, strength aggregates.LockStrength) ([]uuid.UUID, error) {
	return aggregates.LockRows(dbc, r.db, table, ids, strength)
}
