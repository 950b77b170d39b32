package aggregates_test

import (
	"context"
	"math/rand"
	"strings"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/eigo-backend/internal/data/aggregates"
	"github.com/yungbote/eigo-backend/internal/data/repos/testutil"
	domainagg "github.com/yungbote/eigo-backend/internal/domain/aggregates"
	"github.com/yungbote/eigo-backend/internal/domain/content"
	"github.com/yungbote/eigo-backend/internal/pkg/dbctx"
)

func tryAdvisoryLock(t *testing.T, db *gorm.DB, key string) bool {
	t.Helper()
	var got bool
	err := db.Transaction(func(tx *gorm.DB) error {
		return tx.Raw("SELECT pg_try_advisory_xact_lock(hashtext(?))", key).Row().Scan(&got)
	})
	if err != nil {
		t.Fatalf("try advisory lock: %v", err)
	}
	return got
}

func TestPostgresScopeLockHeldUntilCommit(t *testing.T) {
	db := testutil.PostgresDB(t)
	runner := aggregates.NewGormTxRunner(db)
	locker := aggregates.NewScopeLocker(db)
	key := "units:" + uuid.NewString()

	var heldElsewhere bool
	err := runner.InTx(context.Background(), func(dbc dbctx.Context) error {
		if err := locker.Lock(dbc, key); err != nil {
			return err
		}
		heldElsewhere = !tryAdvisoryLock(t, db, key)
		return nil
	})
	if err != nil {
		t.Fatalf("InTx: %v", err)
	}
	if !heldElsewhere {
		t.Fatalf("another session acquired %s while the transaction held it", key)
	}
	if !tryAdvisoryLock(t, db, key) {
		t.Fatalf("%s still held after commit", key)
	}
}

func TestPostgresSnapshotIsRepeatableReadOnly(t *testing.T) {
	db := testutil.PostgresDB(t)
	runner := aggregates.NewGormTxRunner(db)

	var isolation, readOnly string
	err := runner.InSnapshot(context.Background(), func(dbc dbctx.Context) error {
		if err := dbc.Tx.Raw("SHOW transaction_isolation").Row().Scan(&isolation); err != nil {
			return err
		}
		return dbc.Tx.Raw("SHOW transaction_read_only").Row().Scan(&readOnly)
	})
	if err != nil {
		t.Fatalf("InSnapshot: %v", err)
	}
	if isolation != "repeatable read" || readOnly != "on" {
		t.Fatalf("snapshot ran at %q read_only=%q", isolation, readOnly)
	}
}

func TestPostgresForUpdateAddsLockingClause(t *testing.T) {
	db := testutil.PostgresDB(t)
	tx := testutil.Tx(t, db)
	dry := tx.Session(&gorm.Session{DryRun: true})

	var rows []content.Unit
	stmt := aggregates.ForUpdate(dbctx.Context{Ctx: context.Background(), Tx: dry}, dry.Model(&content.Unit{})).Find(&rows).Statement
	if sql := stmt.SQL.String(); !strings.Contains(sql, "FOR UPDATE") {
		t.Fatalf("expected FOR UPDATE in %q", sql)
	}
}

func TestPostgresConstraintViolationsMapToConflict(t *testing.T) {
	db := testutil.PostgresDB(t)
	tx := testutil.Tx(t, db)

	m := testutil.SeedMaterial(t, tx, "pg-"+uuid.NewString()[:8], 1_000_000+rand.Intn(1_000_000))
	root := testutil.SeedChapter(t, tx, m.ID, nil, "Ch1", 1)
	other := testutil.SeedChapter(t, tx, m.ID, nil, "Ch2", 2)
	testutil.SeedChapter(t, tx, m.ID, root, "Ch1.1", 1)
	// same order under a different parent is a different scope
	testutil.SeedChapter(t, tx, m.ID, other, "Ch2.1", 1)

	attempt := func(name string, row interface{}) error {
		t.Helper()
		if err := tx.SavePoint(name).Error; err != nil {
			t.Fatalf("savepoint: %v", err)
		}
		err := tx.Create(row).Error
		if rbErr := tx.RollbackTo(name).Error; rbErr != nil {
			t.Fatalf("rollback to %s: %v", name, rbErr)
		}
		return aggregates.MapError("test."+name, err)
	}

	dupRoot, _ := content.NewChapter(m.ID, nil, "dup root", "")
	dupRoot.Order = 1
	if err := attempt("dup_root", &dupRoot); !domainagg.IsCode(err, domainagg.CodeConflict) {
		t.Fatalf("duplicate root order: expected CONFLICT, got %v", err)
	}

	dupChild, _ := content.NewChapter(m.ID, root, "dup child", "")
	dupChild.Order = 1
	if err := attempt("dup_child", &dupChild); !domainagg.IsCode(err, domainagg.CodeConflict) {
		t.Fatalf("duplicate child order: expected CONFLICT, got %v", err)
	}

	orphan, _ := content.NewUnit(uuid.New(), "orphan", "")
	orphan.Order = 1
	if err := attempt("orphan_unit", &orphan); !domainagg.IsCode(err, domainagg.CodeConflict) {
		t.Fatalf("unit without chapter: expected CONFLICT, got %v", err)
	}
}
