package testutil

import (
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/eigo-backend/internal/domain/account"
	"github.com/yungbote/eigo-backend/internal/domain/content"
)

func SeedAccount(tb testing.TB, tx *gorm.DB, email string, role account.Role) *account.Account {
	tb.Helper()
	a, err := account.NewAccount(account.ProviderGoogle, "sub-"+uuid.NewString(), account.Profile{Email: email, EmailVerified: true})
	if err != nil {
		tb.Fatalf("seed account: %v", err)
	}
	a.Role = role
	if err := tx.Create(&a).Error; err != nil {
		tb.Fatalf("seed account: %v", err)
	}
	return &a
}

func SeedMaterial(tb testing.TB, tx *gorm.DB, name string, order int) *content.Material {
	tb.Helper()
	m, err := content.NewMaterial(name, "")
	if err != nil {
		tb.Fatalf("seed material: %v", err)
	}
	m.Order = order
	if err := tx.Create(&m).Error; err != nil {
		tb.Fatalf("seed material: %v", err)
	}
	return &m
}

func SeedChapter(tb testing.TB, tx *gorm.DB, materialID uuid.UUID, parent *content.Chapter, name string, order int) *content.Chapter {
	tb.Helper()
	c, err := content.NewChapter(materialID, parent, name, "")
	if err != nil {
		tb.Fatalf("seed chapter: %v", err)
	}
	c.Order = order
	if err := tx.Create(&c).Error; err != nil {
		tb.Fatalf("seed chapter: %v", err)
	}
	return &c
}

func SeedUnit(tb testing.TB, tx *gorm.DB, chapterID uuid.UUID, name string, order int) *content.Unit {
	tb.Helper()
	u, err := content.NewUnit(chapterID, name, "")
	if err != nil {
		tb.Fatalf("seed unit: %v", err)
	}
	u.Order = order
	if err := tx.Create(&u).Error; err != nil {
		tb.Fatalf("seed unit: %v", err)
	}
	return &u
}

func SeedQuestion(tb testing.TB, tx *gorm.DB, unitID uuid.UUID, japanese string, order int, answers ...string) *content.Question {
	tb.Helper()
	q, err := content.NewQuestion(unitID, japanese, "", "")
	if err != nil {
		tb.Fatalf("seed question: %v", err)
	}
	q.Order = order
	if err := tx.Create(&q).Error; err != nil {
		tb.Fatalf("seed question: %v", err)
	}
	for i, text := range answers {
		a, err := content.NewCorrectAnswer(q.ID, text)
		if err != nil {
			tb.Fatalf("seed answer: %v", err)
		}
		a.Order = i + 1
		if err := tx.Create(&a).Error; err != nil {
			tb.Fatalf("seed answer: %v", err)
		}
	}
	return &q
}
