package services

import (
	"context"
	"sort"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/eigo-backend/internal/data/aggregates"
	"github.com/yungbote/eigo-backend/internal/data/repos"
	"github.com/yungbote/eigo-backend/internal/data/repos/testutil"
	"github.com/yungbote/eigo-backend/internal/domain/account"
	"github.com/yungbote/eigo-backend/internal/domain/content"
	"github.com/yungbote/eigo-backend/internal/pkg/dbctx"
)

type testEnv struct {
	db        *gorm.DB
	repos     repos.Set
	hierarchy HierarchyService
	query     QueryService
	answers   AnswerService
	importer  ImportService
	accounts  AccountService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newEnvOn(t, testutil.DB(t))
}

// newPostgresEnv skips unless TEST_POSTGRES_DSN is set. The database is shared
// by the package run, so tests must only assert on rows they created.
func newPostgresEnv(t *testing.T) *testEnv {
	t.Helper()
	return newEnvOn(t, testutil.PostgresDB(t))
}

func newEnvOn(t *testing.T, db *gorm.DB) *testEnv {
	t.Helper()
	log := testutil.Logger(t)
	rs := repos.NewSet(db, log)
	tx := aggregates.NewGormTxRunner(db)
	locker := aggregates.NewScopeLocker(db)
	return &testEnv{
		db:        db,
		repos:     rs,
		hierarchy: NewHierarchyService(db, log, tx, locker, rs),
		query:     NewQueryService(db, log, tx, rs),
		answers:   NewAnswerService(db, log, tx, rs),
		importer:  NewImportService(db, log, tx, locker, rs),
		accounts:  NewAccountService(db, log, tx, rs),
	}
}

// requireContiguous fails unless every sibling scope in the database is numbered 1..N.
func requireContiguous(t *testing.T, db *gorm.DB) {
	t.Helper()
	type row struct {
		ScopeKey  string
		SortOrder int
	}
	queries := map[string]string{
		"materials":       `SELECT 'all' AS scope_key, sort_order FROM materials`,
		"chapters":        `SELECT material_id || ':' || COALESCE(parent_chapter_id, 'root') AS scope_key, sort_order FROM chapters`,
		"units":           `SELECT chapter_id AS scope_key, sort_order FROM units`,
		"questions":       `SELECT unit_id AS scope_key, sort_order FROM questions`,
		"correct_answers": `SELECT question_id AS scope_key, sort_order FROM correct_answers`,
	}
	for table, q := range queries {
		var rows []row
		if err := db.Raw(q).Scan(&rows).Error; err != nil {
			t.Fatalf("scan %s: %v", table, err)
		}
		byScope := map[string][]int{}
		for _, r := range rows {
			byScope[r.ScopeKey] = append(byScope[r.ScopeKey], r.SortOrder)
		}
		for scope, orders := range byScope {
			sort.Ints(orders)
			for i, o := range orders {
				if o != i+1 {
					t.Fatalf("%s scope %s not contiguous: %v", table, scope, orders)
				}
			}
		}
	}
}

func unitOrder(t *testing.T, env *testEnv, chapterID uuid.UUID) []uuid.UUID {
	t.Helper()
	units, err := env.repos.Unit.ListByChapterIDs(testutil.DBC(nil), []uuid.UUID{chapterID})
	if err != nil {
		t.Fatalf("ListByChapterIDs: %v", err)
	}
	out := make([]uuid.UUID, 0, len(units))
	for _, u := range units {
		out = append(out, u.ID)
	}
	return out
}

// requireScope fails unless scope holds exactly n members numbered 1..n.
func requireScope(t *testing.T, env *testEnv, scope content.Scope, n int) []uuid.UUID {
	t.Helper()
	slots, err := env.repos.Order.Slots(dbcBG(), scope)
	if err != nil {
		t.Fatalf("Slots %s: %v", scope.Key(), err)
	}
	if len(slots) != n {
		t.Fatalf("scope %s has %d members, want %d", scope.Key(), len(slots), n)
	}
	ids := make([]uuid.UUID, 0, n)
	for i, sl := range slots {
		if sl.Order != i+1 {
			t.Fatalf("scope %s not contiguous at %d: %+v", scope.Key(), i, slots)
		}
		ids = append(ids, sl.ID)
	}
	return ids
}

func mustChapter(t *testing.T, env *testEnv, id uuid.UUID) *content.Chapter {
	t.Helper()
	rows, err := env.repos.Chapter.GetByIDs(testutil.DBC(nil), []uuid.UUID{id})
	if err != nil || len(rows) != 1 {
		t.Fatalf("GetByIDs chapter %s: err=%v len=%d", id, err, len(rows))
	}
	return rows[0]
}

var bg = context.Background()

func dbcBG() dbctx.Context { return testutil.DBC(nil) }

func profile(email string) account.Profile {
	return account.Profile{Email: email, EmailVerified: true, FirstName: "Test", LastName: "Learner"}
}

func strPtr(s string) *string { return &s }
