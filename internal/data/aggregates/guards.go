package aggregates

import (
	"sort"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domainagg "github.com/yungbote/eigo-backend/internal/domain/aggregates"
	"github.com/yungbote/eigo-backend/internal/pkg/dbctx"
)

// ScopeLocker serializes writers of the same sibling scope for the rest of the
// current transaction.
type ScopeLocker interface {
	Lock(dbc dbctx.Context, keys ...string) error
}

type scopeLocker struct {
	db *gorm.DB
}

func NewScopeLocker(db *gorm.DB) ScopeLocker {
	return &scopeLocker{db: db}
}

// Lock takes one transaction-scoped advisory lock per distinct key, in sorted
// order so two writers touching the same pair of scopes cannot deadlock.
// SQLite allows a single writer at a time, so there it is a no-op.
func (l *scopeLocker) Lock(dbc dbctx.Context, keys ...string) error {
	if dbc.Tx == nil {
		return domainagg.NewError(domainagg.CodeInternal, "aggregate.lock", "scope lock requires a transaction", nil)
	}
	if !IsPostgres(dbc.Tx) {
		return nil
	}
	for _, k := range SortedKeys(keys) {
		if err := dbc.Tx.WithContext(dbc.Ctx).Exec("SELECT pg_advisory_xact_lock(hashtext(?))", k).Error; err != nil {
			return MapError("aggregate.lock", err)
		}
	}
	return nil
}

// SortedKeys trims, dedupes and sorts lock keys.
func SortedKeys(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// ForUpdate adds SELECT ... FOR UPDATE on Postgres when q runs inside a transaction.
func ForUpdate(dbc dbctx.Context, q *gorm.DB) *gorm.DB {
	if dbc.Tx == nil || !IsPostgres(q) {
		return q
	}
	return q.Clauses(clause.Locking{Strength: "UPDATE"})
}

// LockStrength is the row lock LockRows takes on Postgres.
type LockStrength string

const (
	// LockParent is held by writers that insert or attach children under a row.
	// It conflicts with LockExclusive but not with sort_order updates.
	LockParent LockStrength = "KEY SHARE"
	// LockExclusive is held on rows being deleted or re-parented, before their
	// children are enumerated.
	LockExclusive LockStrength = "UPDATE"
)

// LockRows row-locks ids in table for the rest of the transaction and returns
// the ids that exist once the lock is granted. Outside Postgres it only reads them.
func LockRows(dbc dbctx.Context, db *gorm.DB, table string, ids []uuid.UUID, strength LockStrength) ([]uuid.UUID, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	if dbc.Tx == nil {
		return nil, domainagg.NewError(domainagg.CodeInternal, "aggregate.lock_rows", "row lock requires a transaction", nil)
	}
	q := dbc.DB(db).Table(table).Where("id IN ?", ids)
	if IsPostgres(q) {
		q = q.Clauses(clause.Locking{Strength: string(strength)})
	}
	var found []uuid.UUID
	if err := q.Pluck("id", &found).Error; err != nil {
		return nil, err
	}
	return found, nil
}

// Slot is a row's identity and current position in its sibling list.
type Slot struct {
	ID    uuid.UUID
	Order int
}

// OrderGuard rewrites sort_order for one sibling list without ever letting the
// unique (scope, sort_order) index observe two equal values.
type OrderGuard struct {
	db *gorm.DB
}

func NewOrderGuard(db *gorm.DB) OrderGuard {
	return OrderGuard{db: db}
}

func (g OrderGuard) baseDB(dbc dbctx.Context) (*gorm.DB, error) {
	if dbc.Tx != nil {
		return dbc.Tx.WithContext(dbc.Ctx), nil
	}
	if g.db != nil {
		return g.db.WithContext(dbc.Ctx), nil
	}
	return nil, domainagg.NewError(domainagg.CodeInternal, "aggregate.order", "missing db transaction context", nil)
}

// Renumber assigns 1..N to slots in the given order. Only rows whose position
// changes are written: first to a negative placeholder, then to their final value.
func (g OrderGuard) Renumber(dbc dbctx.Context, table string, slots []Slot) error {
	db, err := g.baseDB(dbc)
	if err != nil {
		return err
	}
	table = strings.TrimSpace(table)
	if table == "" {
		return domainagg.NewError(domainagg.CodeInternal, "aggregate.order", "table is required", nil)
	}

	changed := make([]int, 0, len(slots))
	for i, s := range slots {
		if s.Order != i+1 {
			changed = append(changed, i)
		}
	}
	if len(changed) == 0 {
		return nil
	}
	for _, i := range changed {
		if err := db.Table(table).Where("id = ?", slots[i].ID).UpdateColumn("sort_order", -(i + 1)).Error; err != nil {
			return MapError("aggregate.order.placeholder", err)
		}
	}
	for _, i := range changed {
		if err := db.Table(table).Where("id = ?", slots[i].ID).UpdateColumn("sort_order", i+1).Error; err != nil {
			return MapError("aggregate.order.assign", err)
		}
	}
	return nil
}
