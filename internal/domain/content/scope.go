package content

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/yungbote/eigo-backend/internal/domain/aggregates"
)

// ScopeKind names a sibling list whose members share one contiguous 1..N ordering.
type ScopeKind string

const (
	ScopeMaterials ScopeKind = "materials"
	ScopeChapters  ScopeKind = "chapters"
	ScopeUnits     ScopeKind = "units"
	ScopeQuestions ScopeKind = "questions"
	ScopeAnswers   ScopeKind = "answers"
)

// Scope identifies one sibling list.
//   - materials: no parent
//   - chapters: MaterialID, plus ParentID for non-root chapters
//   - units: ParentID = chapter
//   - questions: ParentID = unit
//   - answers: ParentID = question
type Scope struct {
	Kind       ScopeKind  `json:"kind"`
	MaterialID uuid.UUID  `json:"material_id,omitempty"`
	ParentID   *uuid.UUID `json:"parent_id,omitempty"`
}

func MaterialsScope() Scope { return Scope{Kind: ScopeMaterials} }

func ChaptersScope(materialID uuid.UUID, parent *uuid.UUID) Scope {
	var p *uuid.UUID
	if parent != nil {
		id := *parent
		p = &id
	}
	return Scope{Kind: ScopeChapters, MaterialID: materialID, ParentID: p}
}

func UnitsScope(chapterID uuid.UUID) Scope  { return Scope{Kind: ScopeUnits, ParentID: &chapterID} }
func QuestionsScope(unitID uuid.UUID) Scope { return Scope{Kind: ScopeQuestions, ParentID: &unitID} }
func AnswersScope(questionID uuid.UUID) Scope {
	return Scope{Kind: ScopeAnswers, ParentID: &questionID}
}
func (c Chapter) SiblingScope() Scope       { return ChaptersScope(c.MaterialID, c.ParentChapterID) }
func (u Unit) SiblingScope() Scope          { return UnitsScope(u.ChapterID) }
func (q Question) SiblingScope() Scope      { return QuestionsScope(q.UnitID) }
func (a CorrectAnswer) SiblingScope() Scope { return AnswersScope(a.QuestionID) }

// Key is the lock name of the scope. Equal scopes produce equal keys.
func (s Scope) Key() string {
	switch s.Kind {
	case ScopeMaterials:
		return "order:materials"
	case ScopeChapters:
		if s.ParentID == nil {
			return fmt.Sprintf("order:chapters:%s:root", s.MaterialID)
		}
		return fmt.Sprintf("order:chapters:%s:%s", s.MaterialID, *s.ParentID)
	default:
		if s.ParentID == nil {
			return fmt.Sprintf("order:%s:?", s.Kind)
		}
		return fmt.Sprintf("order:%s:%s", s.Kind, *s.ParentID)
	}
}

func (s Scope) String() string { return s.Key() }

// Validate checks that the scope carries the parent its kind needs.
func (s Scope) Validate() error {
	const op = "content.Scope"
	switch s.Kind {
	case ScopeMaterials:
		return nil
	case ScopeChapters:
		if s.MaterialID == uuid.Nil {
			return aggregates.Validation(op, "material_id", "material_id is required for chapter scopes")
		}
		return nil
	case ScopeUnits, ScopeQuestions, ScopeAnswers:
		if s.ParentID == nil || *s.ParentID == uuid.Nil {
			return aggregates.Validation(op, "parent_id", "parent_id is required for "+string(s.Kind)+" scopes")
		}
		return nil
	default:
		return aggregates.Validation(op, "kind", "unknown scope kind "+string(s.Kind))
	}
}
