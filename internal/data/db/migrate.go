package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/eigo-backend/internal/domain/account"
	"github.com/yungbote/eigo-backend/internal/domain/content"
	"github.com/yungbote/eigo-backend/internal/domain/learning"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		// identity
		&account.Account{},

		// content hierarchy
		&content.Material{},
		&content.Chapter{},
		&content.Unit{},
		&content.Question{},
		&content.CorrectAnswer{},

		// learner activity
		&learning.UserAnswer{},
	)
}

// EnsureOrderIndexes creates the sibling-order indexes GORM tags cannot express.
// Chapters need two partial indexes because NULL parents never collide in a plain
// composite unique index.
func EnsureOrderIndexes(db *gorm.DB) error {
	stmts := []struct {
		name string
		sql  string
	}{
		{"idx_chapter_root_order", `
			CREATE UNIQUE INDEX IF NOT EXISTS idx_chapter_root_order
			ON chapters(material_id, sort_order)
			WHERE parent_chapter_id IS NULL;`},
		{"idx_chapter_child_order", `
			CREATE UNIQUE INDEX IF NOT EXISTS idx_chapter_child_order
			ON chapters(parent_chapter_id, sort_order)
			WHERE parent_chapter_id IS NOT NULL;`},
	}
	for _, s := range stmts {
		if err := db.Exec(s.sql).Error; err != nil {
			return fmt.Errorf("create %s: %w", s.name, err)
		}
	}
	return nil
}
