package content

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/eigo-backend/internal/domain/aggregates"
	"github.com/yungbote/eigo-backend/internal/pkg/validate"
)

// Question is a Japanese prompt the learner translates into English.
type Question struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UnitID      uuid.UUID `gorm:"type:uuid;not null;column:unit_id;uniqueIndex:idx_question_order,priority:1" json:"unit_id"`
	Japanese    string    `gorm:"not null;column:japanese" json:"japanese" validate:"notblank,max=2000"`
	Hint        string    `gorm:"column:hint" json:"hint" validate:"max=2000"`
	Explanation string    `gorm:"column:explanation" json:"explanation" validate:"max=8000"`
	Order       int       `gorm:"not null;column:sort_order;uniqueIndex:idx_question_order,priority:2" json:"order"`

	Unit *Unit `gorm:"foreignKey:UnitID;constraint:OnDelete:RESTRICT" json:"-" validate:"-"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Question) TableName() string { return "questions" }

func (q Question) OrderedID() uuid.UUID { return q.ID }

func NewQuestion(unitID uuid.UUID, japanese, hint, explanation string) (Question, error) {
	if unitID == uuid.Nil {
		return Question{}, aggregates.Validation("content.NewQuestion", "unit_id", "unit_id is required")
	}
	q := Question{
		ID:          uuid.New(),
		UnitID:      unitID,
		Japanese:    strings.TrimSpace(japanese),
		Hint:        strings.TrimSpace(hint),
		Explanation: strings.TrimSpace(explanation),
	}
	if err := validate.Struct("content.NewQuestion", q); err != nil {
		return Question{}, err
	}
	return q, nil
}

// CorrectAnswer is one accepted English rendering of a question.
type CorrectAnswer struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	QuestionID uuid.UUID `gorm:"type:uuid;not null;column:question_id;uniqueIndex:idx_correct_answer_order,priority:1" json:"question_id"`
	AnswerText string    `gorm:"not null;column:answer_text" json:"answer_text" validate:"notblank,max=2000"`
	Order      int       `gorm:"not null;column:sort_order;uniqueIndex:idx_correct_answer_order,priority:2" json:"order"`

	Question *Question `gorm:"foreignKey:QuestionID;constraint:OnDelete:RESTRICT" json:"-" validate:"-"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (CorrectAnswer) TableName() string { return "correct_answers" }

func (a CorrectAnswer) OrderedID() uuid.UUID { return a.ID }

func NewCorrectAnswer(questionID uuid.UUID, answerText string) (CorrectAnswer, error) {
	if questionID == uuid.Nil {
		return CorrectAnswer{}, aggregates.Validation("content.NewCorrectAnswer", "question_id", "question_id is required")
	}
	a := CorrectAnswer{
		ID:         uuid.New(),
		QuestionID: questionID,
		AnswerText: strings.TrimSpace(answerText),
	}
	if err := validate.Struct("content.NewCorrectAnswer", a); err != nil {
		return CorrectAnswer{}, err
	}
	return a, nil
}
